package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/visionforge/forge-core/internal/domain/entities"
)

func TestContainsTerm_WordBoundaries(t *testing.T) {
	tests := []struct {
		name string
		text string
		term string
		want bool
	}{
		{"whole word matches", "shards of ice and snow", "ice", true},
		{"substring does not", "justice for all", "ice", false},
		{"opposed trait substring", "a dishonest broker", "honest", false},
		{"term at end", "blessed with fire", "fire", true},
		{"term absent", "a calm lake", "fire", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, containsTerm(tt.text, tt.term))
		})
	}
}

func TestIsMundaneOrigin(t *testing.T) {
	assert.True(t, isMundaneOrigin("An ordinary accountant from the suburbs"))
	assert.True(t, isMundaneOrigin("Regular Human, NO SUPERNATURAL background"))
	assert.True(t, isMundaneOrigin("born powerless in the outer ring"))
	assert.False(t, isMundaneOrigin("Raised by storm giants"))
	assert.False(t, isMundaneOrigin(""))
}

func TestIsSupernaturalSource(t *testing.T) {
	assert.True(t, isSupernaturalSource("innate"))
	assert.True(t, isSupernaturalSource("Ancient Magic"))
	assert.True(t, isSupernaturalSource("a divine pact"))
	assert.False(t, isSupernaturalSource("military training"))
	assert.False(t, isSupernaturalSource("experimental technology"))
	assert.False(t, isSupernaturalSource(""))
}

func TestPowerPairConflicts(t *testing.T) {
	found := powerPairConflicts("wreathed in fire, armored in ice")
	assert.Equal(t, [][2]string{{"fire", "ice"}}, found)

	// "justice" must not count as "ice".
	assert.Empty(t, powerPairConflicts("burning with fire and justice"))

	both := powerPairConflicts("light and darkness bend around her; healing hands, destruction in her wake")
	assert.Len(t, both, 2)
}

func TestOpposedTraitConflicts(t *testing.T) {
	conflicts := opposedTraitConflicts([]entities.Trait{
		{Category: "personality", Text: "brutally honest"},
		{Category: "personality", Text: "dishonest when cornered"},
	})
	assert.Equal(t, [][2]string{{"honest", "dishonest"}}, conflicts)

	assert.Empty(t, opposedTraitConflicts([]entities.Trait{
		{Text: "dishonest when cornered"},
	}))

	// Pairs match across separate traits.
	across := opposedTraitConflicts([]entities.Trait{
		{Text: "brave in a fight"},
		{Text: "cowardly about feelings"},
	})
	assert.Len(t, across, 1)
}

func TestAveragePowerLevel(t *testing.T) {
	assert.Zero(t, averagePowerLevel(nil))
	avg := averagePowerLevel([]entities.PowerSuggestion{
		{Name: "A", CostLevel: 4},
		{Name: "B", CostLevel: 6},
	})
	assert.InDelta(t, 0.5, avg, 0.001)
}

func TestClichesIn(t *testing.T) {
	found := clichesIn("A dark past, a DARK SECRET, and telekinesis on top.")
	assert.Equal(t, []string{"dark past", "dark secret", "telekinesis"}, found)

	assert.Empty(t, clichesIn("A cartographer who maps dead rivers."))

	// Repeats collapse to one finding.
	assert.Equal(t, []string{"dark past"}, clichesIn("dark past here, dark past there"))
}

func TestGenericPowerNames(t *testing.T) {
	names := genericPowerNames([]entities.PowerSuggestion{
		{Name: "Fireblast"},
		{Name: "Shockwave"},
		{Name: "Brainwave"},
		{Name: "Night Whisper"},
		{Name: "Supreme Fist"},
	})
	assert.Equal(t, []string{"Fireblast", "Supreme Fist"}, names)

	assert.Empty(t, genericPowerNames(nil))
}

func TestExtractTimelineMarkers(t *testing.T) {
	text := "She was 19 years old when the raiders came. Aged 23, she left. " +
		"He's 31yo now. Before the Fall of Kadia, she lived free; after the  great   war, she did not."

	ages, markers := extractTimelineMarkers(text)
	assert.ElementsMatch(t, []int{19, 23, 31}, ages)

	assert.Equal(t, []timelineMarker{
		{direction: "before", event: "fall of kadia"},
		{direction: "after", event: "great war"},
	}, markers)
}

func TestExtractTimelineMarkers_NoSignals(t *testing.T) {
	ages, markers := extractTimelineMarkers("A quiet archivist with steady hands.")
	assert.Empty(t, ages)
	assert.Empty(t, markers)
}

func TestNormalizeEvent(t *testing.T) {
	assert.Equal(t, "great war", normalizeEvent("  Great\tWar "))
}
