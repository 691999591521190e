package services

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/visionforge/forge-core/internal/domain/entities"
)

// Thresholds used by the deterministic continuity rules. Cost levels are on
// the 1-10 scale carried by power suggestions; power levels are cost/10.
const (
	highCostLevel      = 7.0
	mediumCostLevel    = 4.0
	maxStackedHighCost = 2
	maxTotalCost       = 30.0
	powerJumpThreshold = 0.3
	highConfidence     = 0.8
	maxAgeSpread       = 30
)

// mundaneOriginMarkers flag origins that assert the character has no
// supernatural background.
var mundaneOriginMarkers = []string{
	"no powers",
	"no supernatural",
	"ordinary",
	"mundane",
	"regular human",
	"powerless",
}

// supernaturalSources are power sources that need more than a mundane
// origin to exist.
var supernaturalSources = []string{
	"innate",
	"magic",
	"divine",
	"cosmic",
	"mutation",
	"ancient",
	"alien",
}

// contradictoryPowerPairs are power themes that cannot coexist without an
// in-world explanation.
var contradictoryPowerPairs = [][2]string{
	{"fire", "ice"},
	{"light", "darkness"},
	{"healing", "destruction"},
	{"creation", "annihilation"},
	{"time stop", "time acceleration"},
}

// opposedTraitPairs are personality traits that directly contradict.
var opposedTraitPairs = [][2]string{
	{"honest", "dishonest"},
	{"brave", "cowardly"},
	{"kind", "cruel"},
	{"patient", "impulsive"},
	{"calm", "aggressive"},
	{"loyal", "treacherous"},
}

// genrePowerSources lists the power sources each known genre supports.
var genrePowerSources = map[string][]string{
	"urban_realistic": {"technology", "training", "genetics"},
	"high_fantasy":    {"magic", "divine", "ancient"},
	"sci_fi":          {"technology", "mutation", "alien"},
	"cyberpunk":       {"technology", "enhancement", "digital"},
}

// intentionalEditTools mark a version as a deliberate edit rather than
// accidental drift, which softens contradiction findings against the
// previous version.
var intentionalEditTools = map[string]bool{
	entities.ToolUpdate:   true,
	entities.ToolRollback: true,
	"manual_edit":         true,
}

var (
	reClichePhrases = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b\w+(?:kinesis|manipulation)\b`),
		regexp.MustCompile(`(?i)\bdark (?:past|history|secret)\b`),
		regexp.MustCompile(`(?i)\bchosen one\b`),
		regexp.MustCompile(`(?i)\bmysterious stranger\b`),
	}

	reGenericPowerWord = regexp.MustCompile(`(?i)\b\w+(?:blast|storm|wave)\b`)
	reGenericEpithet   = regexp.MustCompile(`(?i)\b(?:ultimate|supreme|god|divine)\b`)

	reAgeStated = regexp.MustCompile(`(?i)\b(\d{1,3})[\s-]*(?:years?[\s-]+old|yo)\b`)
	reAgePrefix = regexp.MustCompile(`(?i)\baged?\s+(\d{1,3})\b`)
	reSequence  = regexp.MustCompile(`(?i)\b(before|after)\s+the\s+([a-z][a-z0-9' ]{2,40}?)(?:\s*[,.;:!?]|$)`)
)

// genericNameExceptions are compound words the generic-name pattern would
// otherwise flag.
var genericNameExceptions = map[string]bool{
	"shockwave": true,
	"brainwave": true,
}

// termPatterns holds a word-boundary matcher per rule term, so "honest"
// never matches inside "dishonest" and "ice" never matches inside "justice".
var termPatterns = buildTermPatterns()

func buildTermPatterns() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp)
	add := func(terms ...string) {
		for _, term := range terms {
			if _, ok := patterns[term]; !ok {
				patterns[term] = regexp.MustCompile(`\b` + regexp.QuoteMeta(term) + `\b`)
			}
		}
	}
	for _, pair := range contradictoryPowerPairs {
		add(pair[0], pair[1])
	}
	for _, pair := range opposedTraitPairs {
		add(pair[0], pair[1])
	}
	for _, sources := range genrePowerSources {
		add(sources...)
	}
	add(supernaturalSources...)
	return patterns
}

// containsTerm reports whether text contains term as a whole word. Text is
// expected lowercased; terms come from the rule tables.
func containsTerm(text, term string) bool {
	if pattern, ok := termPatterns[term]; ok {
		return pattern.MatchString(text)
	}
	return strings.Contains(text, term)
}

func isMundaneOrigin(origin string) bool {
	origin = strings.ToLower(origin)
	for _, marker := range mundaneOriginMarkers {
		if strings.Contains(origin, marker) {
			return true
		}
	}
	return false
}

func isSupernaturalSource(source string) bool {
	source = strings.ToLower(source)
	for _, term := range supernaturalSources {
		if containsTerm(source, term) {
			return true
		}
	}
	return false
}

// powerPairConflicts returns the contradictory pairs whose both themes
// appear in text.
func powerPairConflicts(text string) [][2]string {
	text = strings.ToLower(text)
	var found [][2]string
	for _, pair := range contradictoryPowerPairs {
		if containsTerm(text, pair[0]) && containsTerm(text, pair[1]) {
			found = append(found, pair)
		}
	}
	return found
}

// opposedTraitConflicts returns the opposed pairs present across the trait
// texts.
func opposedTraitConflicts(traits []entities.Trait) [][2]string {
	combined := make([]string, 0, len(traits))
	for _, t := range traits {
		combined = append(combined, strings.ToLower(t.Text))
	}
	text := strings.Join(combined, " ")

	var found [][2]string
	for _, pair := range opposedTraitPairs {
		if containsTerm(text, pair[0]) && containsTerm(text, pair[1]) {
			found = append(found, pair)
		}
	}
	return found
}

// averagePowerLevel is the mean cost level normalized to 0..1. Zero powers
// yield zero.
func averagePowerLevel(powers []entities.PowerSuggestion) float64 {
	if len(powers) == 0 {
		return 0
	}
	var total float64
	for _, p := range powers {
		total += p.CostLevel
	}
	return total / float64(len(powers)) / 10
}

// clichesIn returns the distinct cliché phrases found in text, sorted.
func clichesIn(text string) []string {
	seen := make(map[string]bool)
	for _, pattern := range reClichePhrases {
		for _, match := range pattern.FindAllString(text, -1) {
			seen[strings.ToLower(match)] = true
		}
	}
	found := make([]string, 0, len(seen))
	for phrase := range seen {
		found = append(found, phrase)
	}
	sort.Strings(found)
	return found
}

// genericPowerNames returns the power names built from stock words like
// "-blast" or "ultimate", sorted.
func genericPowerNames(powers []entities.PowerSuggestion) []string {
	seen := make(map[string]bool)
	for _, p := range powers {
		if p.Name == "" {
			continue
		}
		if reGenericEpithet.MatchString(p.Name) {
			seen[p.Name] = true
			continue
		}
		for _, word := range reGenericPowerWord.FindAllString(p.Name, -1) {
			if !genericNameExceptions[strings.ToLower(word)] {
				seen[p.Name] = true
				break
			}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type timelineMarker struct {
	direction string
	event     string
}

// extractTimelineMarkers pulls stated ages and before/after event anchors
// out of free text.
func extractTimelineMarkers(text string) ([]int, []timelineMarker) {
	var ages []int
	for _, re := range []*regexp.Regexp{reAgeStated, reAgePrefix} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if age, err := strconv.Atoi(m[1]); err == nil {
				ages = append(ages, age)
			}
		}
	}

	var markers []timelineMarker
	for _, m := range reSequence.FindAllStringSubmatch(text, -1) {
		markers = append(markers, timelineMarker{
			direction: strings.ToLower(m[1]),
			event:     normalizeEvent(m[2]),
		})
	}
	return ages, markers
}

func normalizeEvent(event string) string {
	return strings.Join(strings.Fields(strings.ToLower(event)), " ")
}

func sortedKeys(attrs entities.Attributes) []string {
	keys := make([]string, 0, len(attrs))
	for key := range attrs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
