package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/visionforge/forge-core/internal/domain/apperr"
	"github.com/visionforge/forge-core/internal/domain/entities"
	"github.com/visionforge/forge-core/internal/domain/ports"
)

// maxEnrichedViolations caps how many style findings get an AI-drafted
// rewrite per check.
const maxEnrichedViolations = 3

const styleSuggestionPrompt = `Rewrite the following piece of character material so it avoids the flagged problem. Reply with the improved phrasing only, no preamble.

Problem: %s
Material: %s`

// ContinuityOptions tunes the engine's optional stages.
type ContinuityOptions struct {
	// EnhanceTimeout bounds each AI enrichment call.
	EnhanceTimeout time.Duration
	// SimilarityAttach is the score at which a semantic neighbor becomes a
	// cross reference.
	SimilarityAttach float32
	// SimilarityConflict is the score at which a neighbor is reported as an
	// overlapping character concept.
	SimilarityConflict float32
	// MaxNeighbors caps the vector search.
	MaxNeighbors int
}

// DefaultContinuityOptions returns the stock engine tuning.
func DefaultContinuityOptions() ContinuityOptions {
	return ContinuityOptions{
		EnhanceTimeout:     DefaultTextTimeout,
		SimilarityAttach:   0.8,
		SimilarityConflict: 0.9,
		MaxNeighbors:       5,
	}
}

// ContinuityService checks character material against the deterministic
// continuity rules, cross-references other known characters, and optionally
// asks the enhancement gateway for improved phrasings. The deterministic
// part of a report never depends on the AI stages.
type ContinuityService struct {
	store    ports.CharacterStore
	vectors  ports.VectorDB
	embedder ports.Embedder
	gateway  *EnhancementGateway
	cache    ports.ReportCache
	opts     ContinuityOptions
}

// NewContinuityService wires the engine. vectors, embedder and cache may be
// nil; the corresponding stages are skipped.
func NewContinuityService(store ports.CharacterStore, vectors ports.VectorDB, embedder ports.Embedder, gateway *EnhancementGateway, cache ports.ReportCache, opts ContinuityOptions) *ContinuityService {
	defaults := DefaultContinuityOptions()
	if opts.EnhanceTimeout <= 0 {
		opts.EnhanceTimeout = defaults.EnhanceTimeout
	}
	if opts.SimilarityAttach <= 0 {
		opts.SimilarityAttach = defaults.SimilarityAttach
	}
	if opts.SimilarityConflict <= 0 {
		opts.SimilarityConflict = defaults.SimilarityConflict
	}
	if opts.MaxNeighbors <= 0 {
		opts.MaxNeighbors = defaults.MaxNeighbors
	}
	if gateway == nil {
		gateway = NewEnhancementGateway(nil)
	}
	return &ContinuityService{
		store:    store,
		vectors:  vectors,
		embedder: embedder,
		gateway:  gateway,
		cache:    cache,
		opts:     opts,
	}
}

// lineage carries what the engine knows about how the current snapshot came
// to be: the previous snapshot and the tool that produced the current one.
type lineage struct {
	prev        entities.Attributes
	currentTool string
}

// CheckCharacter runs the continuity rules against a stored character, or
// against a registry entry when no stored character matches the id.
func (s *ContinuityService) CheckCharacter(ctx context.Context, characterID string) (*entities.Report, error) {
	if characterID == "" {
		return nil, fmt.Errorf("%w: character id is required", apperr.ErrValidation)
	}

	ch, err := s.store.FindCharacter(ctx, characterID)
	if err != nil {
		return nil, fmt.Errorf("finding character: %w", err)
	}

	var (
		attrs    entities.Attributes
		lin      *lineage
		cacheKey string
	)
	if ch != nil {
		attrs = ch.Attributes
		cacheKey = fmt.Sprintf("character:%s:v%d", characterID, ch.CurrentVersion)
		if lin, err = s.loadLineage(ctx, characterID); err != nil {
			return nil, err
		}
	} else {
		entry, err := s.store.FindRegistryEntry(ctx, characterID)
		if err != nil {
			return nil, fmt.Errorf("finding registry entry: %w", err)
		}
		if entry == nil {
			return nil, fmt.Errorf("%w: %s", apperr.ErrNotFound, characterID)
		}
		attrs = entry.Attributes
		cacheKey = "registry:" + characterID + ":" + contentHash(attrs)
	}

	if cached := s.fromCache(ctx, cacheKey); cached != nil {
		return cached, nil
	}
	report := s.buildReport(ctx, characterID, attrs, lin)
	s.toCache(ctx, cacheKey, report)
	s.enrich(ctx, report)
	return report, nil
}

// CheckContent runs the rules against free text plus an optional attribute
// mapping, for material that has not been committed anywhere yet.
func (s *ContinuityService) CheckContent(ctx context.Context, content string, attrs entities.Attributes) (*entities.Report, error) {
	content = strings.TrimSpace(content)
	if content == "" && len(attrs) == 0 {
		return nil, fmt.Errorf("%w: content or attributes are required", apperr.ErrValidation)
	}

	merged := attrs.Clone()
	if merged == nil {
		merged = entities.Attributes{}
	}
	if content != "" {
		if existing := merged.String(entities.AttrPersonaSummary); existing != "" {
			merged[entities.AttrPersonaSummary] = existing + "\n" + content
		} else {
			merged[entities.AttrPersonaSummary] = content
		}
	}

	cacheKey := "content:" + contentHash(merged)
	if cached := s.fromCache(ctx, cacheKey); cached != nil {
		return cached, nil
	}
	report := s.buildReport(ctx, "", merged, nil)
	s.toCache(ctx, cacheKey, report)
	s.enrich(ctx, report)
	return report, nil
}

// Register adds a character produced outside the persistence flow to the
// continuity registry, links mentions between registered characters, and
// indexes the summary for semantic overlap detection.
func (s *ContinuityService) Register(ctx context.Context, data entities.Attributes) (string, error) {
	if err := validateAttributes(data); err != nil {
		return "", err
	}

	entry := &entities.RegistryEntry{
		CharacterID: registryID(data),
		Attributes:  data.Clone(),
	}
	if err := s.store.SaveRegistryEntry(ctx, entry); err != nil {
		return "", fmt.Errorf("saving registry entry: %w", err)
	}
	s.linkMentions(ctx, entry)
	if err := s.indexReference(ctx, entry); err != nil {
		return "", err
	}
	return entry.CharacterID, nil
}

// RegisterBatch registers many characters at once, embedding all their
// summaries in a single batch call.
func (s *ContinuityService) RegisterBatch(ctx context.Context, batch []entities.Attributes) ([]string, error) {
	if len(batch) == 0 {
		return nil, fmt.Errorf("%w: batch is empty", apperr.ErrValidation)
	}
	for i, data := range batch {
		if err := validateAttributes(data); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
	}

	entries := make([]*entities.RegistryEntry, 0, len(batch))
	ids := make([]string, 0, len(batch))
	for _, data := range batch {
		entry := &entities.RegistryEntry{
			CharacterID: registryID(data),
			Attributes:  data.Clone(),
		}
		if err := s.store.SaveRegistryEntry(ctx, entry); err != nil {
			return nil, fmt.Errorf("saving registry entry: %w", err)
		}
		entries = append(entries, entry)
		ids = append(ids, entry.CharacterID)
	}
	for _, entry := range entries {
		s.linkMentions(ctx, entry)
	}

	if s.vectors != nil && s.embedder != nil {
		summaries := make([]string, len(entries))
		for i, entry := range entries {
			summaries[i] = summarizeAttributes(entry.Attributes)
		}
		embeddings, err := s.embedder.EmbedBatch(ctx, summaries)
		if err != nil {
			return nil, fmt.Errorf("embedding summaries: %w", err)
		}
		points := make([]entities.ReferencePoint, 0, len(entries))
		for i, entry := range entries {
			if i >= len(embeddings) {
				break
			}
			points = append(points, referencePoint(entry, summaries[i], embeddings[i]))
		}
		if err := s.vectors.UpsertBatch(ctx, points); err != nil {
			return nil, fmt.Errorf("indexing references: %w", err)
		}
	}
	return ids, nil
}

func (s *ContinuityService) loadLineage(ctx context.Context, characterID string) (*lineage, error) {
	entries, err := s.store.ListVersions(ctx, characterID)
	if err != nil {
		return nil, fmt.Errorf("listing versions: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil
	}
	lin := &lineage{currentTool: entries[len(entries)-1].ToolName}
	if len(entries) > 1 {
		lin.prev = entries[len(entries)-2].Snapshot
	}
	return lin, nil
}

func (s *ContinuityService) buildReport(ctx context.Context, characterID string, attrs entities.Attributes, lin *lineage) *entities.Report {
	violations := powerViolations(attrs, lin)
	violations = append(violations, contradictionViolations(attrs, lin)...)
	violations = append(violations, timelineViolations(attrs, lin)...)
	violations = append(violations, styleViolations(attrs)...)

	refs, overlaps := s.crossReferences(ctx, characterID, attrs)
	violations = append(violations, overlaps...)
	if len(refs) > 0 {
		for i := range violations {
			if violations[i].CrossReferences == nil {
				violations[i].CrossReferences = append([]string(nil), refs...)
			}
		}
	}
	return entities.NewReport(characterID, violations, timeNow())
}

// crossReferences resolves which other known characters this material
// touches: explicit reference edges, name mentions against the registry and
// semantic neighbors from the vector index. Failures in any of these stages
// degrade to a report without them.
func (s *ContinuityService) crossReferences(ctx context.Context, characterID string, attrs entities.Attributes) ([]string, []entities.Violation) {
	refs := make(map[string]string)

	if characterID != "" {
		if edges, err := s.store.FindReferencesByCharacter(ctx, characterID); err == nil {
			for _, edge := range edges {
				other := edge.TargetID
				if other == characterID {
					other = edge.SourceID
				}
				if other == characterID {
					continue
				}
				if entry, err := s.store.FindRegistryEntry(ctx, other); err == nil && entry != nil {
					refs[other] = describeEntry(other, entry.Attributes)
				} else if err == nil {
					refs[other] = other
				}
			}
		}
	}

	if entries, err := s.store.ListRegistryEntries(ctx); err == nil {
		text := strings.ToLower(summarizeAttributes(attrs))
		for _, entry := range entries {
			if entry.CharacterID == characterID {
				continue
			}
			name := entities.NormalizeName(entry.Attributes.String(entities.AttrName))
			if len(name) < 3 || !strings.Contains(text, name) {
				continue
			}
			refs[entry.CharacterID] = describeEntry(entry.CharacterID, entry.Attributes)
		}
	}

	var overlaps []entities.Violation
	if s.vectors != nil && s.embedder != nil {
		if embedding, err := s.embedder.Embed(ctx, summarizeAttributes(attrs)); err == nil {
			if hits, err := s.vectors.Search(ctx, embedding, s.opts.MaxNeighbors); err == nil {
				for _, hit := range hits {
					if hit.Point.CharacterID == characterID {
						continue
					}
					descriptor := describePoint(hit.Point)
					switch {
					case hit.Score >= s.opts.SimilarityConflict:
						refs[hit.Point.CharacterID] = descriptor
						overlaps = append(overlaps, entities.Violation{
							Type:             entities.ViolationCharacterContradiction,
							Severity:         entities.SeverityHigh,
							Title:            "Overlapping character concept",
							Description:      fmt.Sprintf("This character is nearly identical to %q (similarity %.2f).", hit.Point.Name, hit.Score),
							AffectedElements: []string{entities.AttrPersonaSummary},
							SuggestedFixes: []string{
								"Differentiate the concept from the existing character",
								"Merge the two characters if they are meant to be the same",
							},
							CrossReferences: []string{descriptor},
						})
					case hit.Score >= s.opts.SimilarityAttach:
						refs[hit.Point.CharacterID] = descriptor
					}
				}
			}
		}
	}

	ids := make([]string, 0, len(refs))
	for id := range refs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, refs[id])
	}
	return out, overlaps
}

// enrich asks the gateway for an improved phrasing per style finding, up to
// the cap. Gateway timeouts and provider errors leave the deterministic
// report untouched.
func (s *ContinuityService) enrich(ctx context.Context, report *entities.Report) {
	if !s.gateway.Configured() {
		return
	}
	enriched := 0
	for i := range report.Violations {
		if enriched >= maxEnrichedViolations {
			return
		}
		v := &report.Violations[i]
		if v.Type != entities.ViolationStyleIssue {
			continue
		}
		material := v.Examples["before"]
		if material == "" {
			material = v.Description
		}
		req := ports.CompletionRequest{
			Prompt: fmt.Sprintf(styleSuggestionPrompt, v.Title+": "+v.Description, material),
			Kind:   ports.CompletionText,
		}
		res, err := s.gateway.Complete(ctx, req, s.opts.EnhanceTimeout)
		if err != nil || res.TimedOut {
			return
		}
		if text := strings.TrimSpace(res.Text); text != "" {
			v.AISuggestion = text
			report.Enhanced = true
			enriched++
		}
	}
}

func (s *ContinuityService) linkMentions(ctx context.Context, entry *entities.RegistryEntry) {
	entries, err := s.store.ListRegistryEntries(ctx)
	if err != nil {
		return
	}
	ownText := strings.ToLower(summarizeAttributes(entry.Attributes))
	ownName := entities.NormalizeName(entry.Attributes.String(entities.AttrName))

	for _, other := range entries {
		if other.CharacterID == entry.CharacterID {
			continue
		}
		otherName := entities.NormalizeName(other.Attributes.String(entities.AttrName))
		if len(otherName) >= 3 && strings.Contains(ownText, otherName) {
			_ = s.store.SaveReference(ctx, &entities.CharacterRef{
				SourceID: entry.CharacterID,
				TargetID: other.CharacterID,
				Relation: entities.RelationMentions,
			})
		}
		if len(ownName) >= 3 {
			otherText := strings.ToLower(summarizeAttributes(other.Attributes))
			if strings.Contains(otherText, ownName) {
				_ = s.store.SaveReference(ctx, &entities.CharacterRef{
					SourceID: other.CharacterID,
					TargetID: entry.CharacterID,
					Relation: entities.RelationMentions,
				})
			}
		}
	}
}

func (s *ContinuityService) indexReference(ctx context.Context, entry *entities.RegistryEntry) error {
	if s.vectors == nil || s.embedder == nil {
		return nil
	}
	summary := summarizeAttributes(entry.Attributes)
	embedding, err := s.embedder.Embed(ctx, summary)
	if err != nil {
		return fmt.Errorf("embedding summary: %w", err)
	}
	if err := s.vectors.Upsert(ctx, referencePoint(entry, summary, embedding)); err != nil {
		return fmt.Errorf("indexing reference: %w", err)
	}
	return nil
}

func (s *ContinuityService) fromCache(ctx context.Context, key string) *entities.Report {
	if s.cache == nil {
		return nil
	}
	report, ok, err := s.cache.Get(ctx, key)
	if err != nil || !ok {
		return nil
	}
	return report
}

func (s *ContinuityService) toCache(ctx context.Context, key string, report *entities.Report) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Set(ctx, key, report)
}

// Rule stages. Each returns its violations in a deterministic order.

func powerViolations(attrs entities.Attributes, lin *lineage) []entities.Violation {
	var out []entities.Violation
	origin := attrs.String(entities.AttrOrigin)
	source := attrs.String(entities.AttrPowerSource)
	powers := attrs.PowerSuggestions()

	if isMundaneOrigin(origin) {
		if isSupernaturalSource(source) {
			out = append(out, entities.Violation{
				Type:             entities.ViolationPowerInconsistency,
				Severity:         entities.SeverityHigh,
				Title:            "Power source conflicts with origin",
				Description:      fmt.Sprintf("The origin %q rules out supernatural abilities, but the power source is %q.", origin, source),
				AffectedElements: []string{entities.AttrOrigin, entities.AttrPowerSource},
				SuggestedFixes: []string{
					"Ground the power source in technology, training or genetics",
					"Revise the origin to explain where the abilities come from",
				},
			})
		}
		for _, p := range powers {
			severity := entities.Severity("")
			switch {
			case p.CostLevel >= highCostLevel:
				severity = entities.SeverityHigh
			case p.CostLevel >= mediumCostLevel:
				severity = entities.SeverityMedium
			default:
				continue
			}
			out = append(out, entities.Violation{
				Type:             entities.ViolationPowerInconsistency,
				Severity:         severity,
				Title:            "Power level conflicts with origin",
				Description:      fmt.Sprintf("%q carries cost level %.0f, which a mundane origin cannot support.", p.Name, p.CostLevel),
				AffectedElements: []string{entities.AttrOrigin, entities.AttrPowerSuggestions},
				SuggestedFixes: []string{
					"Lower the power's cost level to fit the stated origin",
					"Give the origin an explicit source for this ability",
					"Reframe the power as equipment or training",
				},
			})
		}
	}

	for _, pair := range powerPairConflicts(powersText(powers)) {
		out = append(out, entities.Violation{
			Type:             entities.ViolationPowerInconsistency,
			Severity:         entities.SeverityHigh,
			Title:            "Contradictory powers",
			Description:      fmt.Sprintf("Powers built on %q and %q work against each other without an in-world reconciliation.", pair[0], pair[1]),
			AffectedElements: []string{entities.AttrPowerSuggestions},
			SuggestedFixes: []string{
				"Drop one side of the pair",
				"Add an explicit in-world rule that lets both coexist",
			},
		})
	}

	highCost := 0
	var totalCost float64
	for _, p := range powers {
		if p.CostLevel > highCostLevel {
			highCost++
		}
		totalCost += p.CostLevel
	}
	if highCost > maxStackedHighCost {
		out = append(out, entities.Violation{
			Type:             entities.ViolationPowerInconsistency,
			Severity:         entities.SeverityMedium,
			Title:            "Too many high-cost powers",
			Description:      fmt.Sprintf("%d powers exceed cost level %.0f; stacking them leaves no meaningful weakness.", highCost, highCostLevel),
			AffectedElements: []string{entities.AttrPowerSuggestions},
			SuggestedFixes: []string{
				"Keep at most two defining high-cost powers",
				"Fold the extras into limitations or equipment",
			},
		})
	}
	if totalCost > maxTotalCost {
		out = append(out, entities.Violation{
			Type:             entities.ViolationPowerInconsistency,
			Severity:         entities.SeverityMedium,
			Title:            "Combined power cost too high",
			Description:      fmt.Sprintf("The combined cost level is %.0f, past the %.0f a single character stays believable at.", totalCost, maxTotalCost),
			AffectedElements: []string{entities.AttrPowerSuggestions},
			SuggestedFixes: []string{
				"Trim the power list",
				"Reduce individual cost levels",
			},
		})
	}

	if lin != nil && lin.prev != nil {
		prevAvg := averagePowerLevel(lin.prev.PowerSuggestions())
		nowAvg := averagePowerLevel(powers)
		if prevAvg > 0 && nowAvg-prevAvg > powerJumpThreshold {
			out = append(out, entities.Violation{
				Type:             entities.ViolationPowerInconsistency,
				Severity:         entities.SeverityHigh,
				Title:            "Sudden power level jump",
				Description:      fmt.Sprintf("The average power level moved from %.2f to %.2f in a single version.", prevAvg, nowAvg),
				AffectedElements: []string{entities.AttrPowerSuggestions},
				SuggestedFixes: []string{
					"Spread the growth across several versions",
					"Add an in-story event that justifies the leap",
				},
			})
		}
	}
	return out
}

func contradictionViolations(attrs entities.Attributes, lin *lineage) []entities.Violation {
	var out []entities.Violation

	for _, pair := range opposedTraitConflicts(attrs.Traits()) {
		out = append(out, entities.Violation{
			Type:             entities.ViolationCharacterContradiction,
			Severity:         entities.SeverityHigh,
			Title:            "Opposed personality traits",
			Description:      fmt.Sprintf("The traits assert both %q and %q.", pair[0], pair[1]),
			AffectedElements: []string{entities.AttrTraits},
			SuggestedFixes: []string{
				"Pick one side of the pair as the dominant trait",
				"Frame the tension explicitly as an internal conflict",
			},
		})
	}

	if lin != nil && lin.prev != nil {
		severity := entities.SeverityMedium
		if intentionalEditTools[lin.currentTool] {
			severity = entities.SeverityLow
		}
		nowValues := statementValues(atomicStatements(attrs))
		for _, st := range atomicStatements(lin.prev) {
			if st.confidence < highConfidence {
				continue
			}
			values, ok := nowValues[st.field]
			if !ok || valuesContain(values, st.value) {
				continue
			}
			out = append(out, entities.Violation{
				Type:             entities.ViolationCharacterContradiction,
				Severity:         severity,
				Title:            "Changed previously established detail",
				Description:      fmt.Sprintf("%s changed from %q to %q.", st.field, st.value, strings.Join(values, "; ")),
				AffectedElements: []string{st.field},
				SuggestedFixes: []string{
					"Restore the previously established value",
					"Record the change as deliberate character development",
				},
			})
		}
	}
	return out
}

// timelineViolations stay at medium severity or below: the extraction is
// heuristic and false positives must not block anything.
func timelineViolations(attrs entities.Attributes, lin *lineage) []entities.Violation {
	var out []entities.Violation
	text := narrativeText(attrs)
	ages, markers := extractTimelineMarkers(text)

	if len(ages) > 1 {
		minAge, maxAge := ages[0], ages[0]
		for _, age := range ages[1:] {
			if age < minAge {
				minAge = age
			}
			if age > maxAge {
				maxAge = age
			}
		}
		if maxAge-minAge > maxAgeSpread {
			out = append(out, entities.Violation{
				Type:             entities.ViolationTimelineError,
				Severity:         entities.SeverityMedium,
				Title:            "Inconsistent ages in backstory",
				Description:      fmt.Sprintf("The text states ages %d and %d for the same character.", minAge, maxAge),
				AffectedElements: []string{entities.AttrBackstorySeeds},
				SuggestedFixes: []string{
					"Settle on a single age",
					"Attribute the other age to a different character or era",
				},
			})
		}
	}

	if lin != nil && lin.prev != nil {
		prevAges, prevMarkers := extractTimelineMarkers(narrativeText(lin.prev))
		if len(ages) > 0 && len(prevAges) > 0 {
			if maxInt(ages) < maxInt(prevAges) {
				out = append(out, entities.Violation{
					Type:             entities.ViolationTimelineError,
					Severity:         entities.SeverityMedium,
					Title:            "Timeline moves backwards",
					Description:      fmt.Sprintf("The stated age dropped from %d to %d between versions.", maxInt(prevAges), maxInt(ages)),
					AffectedElements: []string{entities.AttrBackstorySeeds},
					SuggestedFixes: []string{
						"Keep ages monotonic across versions",
						"Mark the younger age as a flashback",
					},
				})
			}
		}
		seen := make(map[string]bool)
		for _, m := range markers {
			for _, pm := range prevMarkers {
				if m.event != pm.event || m.direction == pm.direction || seen[m.event] {
					continue
				}
				seen[m.event] = true
				out = append(out, entities.Violation{
					Type:             entities.ViolationTimelineError,
					Severity:         entities.SeverityMedium,
					Title:            "Event order flipped",
					Description:      fmt.Sprintf("The backstory now places the character %s the %s instead of %s it.", m.direction, m.event, pm.direction),
					AffectedElements: []string{entities.AttrBackstorySeeds},
					SuggestedFixes: []string{
						"Fix the event order to match the earlier version",
						"Split the conflicting references into separate events",
					},
				})
			}
		}
	}
	return out
}

func styleViolations(attrs entities.Attributes) []entities.Violation {
	var out []entities.Violation
	powers := attrs.PowerSuggestions()
	scanText := narrativeText(attrs) + "\n" + powersText(powers) + "\n" + traitsText(attrs.Traits())

	for _, phrase := range clichesIn(scanText) {
		out = append(out, entities.Violation{
			Type:             entities.ViolationStyleIssue,
			Severity:         entities.SeverityLow,
			Title:            "Cliché phrasing",
			Description:      fmt.Sprintf("The phrase %q is stock genre filler.", phrase),
			AffectedElements: []string{entities.AttrBackstorySeeds, entities.AttrPowerSuggestions},
			SuggestedFixes: []string{
				"Name the specific ability or event instead",
				"Cut the phrase and show the detail in a scene",
			},
			Examples: map[string]string{
				"before": phrase,
				"after":  "a concrete, specific description",
			},
		})
	}

	for _, name := range genericPowerNames(powers) {
		out = append(out, entities.Violation{
			Type:             entities.ViolationStyleIssue,
			Severity:         entities.SeverityMedium,
			Title:            "Generic power name",
			Description:      fmt.Sprintf("%q is built from stock power words.", name),
			AffectedElements: []string{entities.AttrPowerSuggestions},
			SuggestedFixes: []string{
				"Tie the name to the power's mechanism or cost",
				"Use in-world language instead of generic epithets",
			},
			Examples: map[string]string{
				"before": name,
				"after":  "a name grounded in how the power works",
			},
		})
	}

	genre := strings.ToLower(attrs.String(entities.AttrGenre))
	source := attrs.String(entities.AttrPowerSource)
	if allowed, ok := genrePowerSources[genre]; ok && source != "" && !sourceAllowed(source, allowed) {
		out = append(out, entities.Violation{
			Type:             entities.ViolationStyleIssue,
			Severity:         entities.SeverityMedium,
			Title:            "Power source unusual for genre",
			Description:      fmt.Sprintf("The %s genre usually draws powers from %s, not %q.", genre, strings.Join(allowed, ", "), source),
			AffectedElements: []string{entities.AttrGenre, entities.AttrPowerSource},
			SuggestedFixes: []string{
				"Move the power source into the genre's usual palette",
				"Treat the mismatch as a deliberate hook and commit to it",
			},
		})
	}
	return out
}

// Normalization helpers.

// statement is one comparable atomic assertion extracted from the mapping.
type statement struct {
	field      string
	value      string
	confidence float64
}

// atomicStatements flattens the open mapping into comparable assertions.
// Scalar string fields carry full confidence; traits keep their own. Free
// text and list fields are handled by their dedicated rule stages.
func atomicStatements(attrs entities.Attributes) []statement {
	skip := map[string]bool{
		entities.AttrTraits:           true,
		entities.AttrPowerSuggestions: true,
		entities.AttrBackstorySeeds:   true,
		entities.AttrArchetypeTags:    true,
		entities.AttrPersonaSummary:   true,
		entities.AttrMood:             true,
	}
	var stmts []statement
	for _, key := range sortedKeys(attrs) {
		if skip[key] {
			continue
		}
		if value := attrs.String(key); value != "" {
			stmts = append(stmts, statement{field: key, value: value, confidence: 1})
		}
	}
	for _, t := range attrs.Traits() {
		field := entities.AttrTraits
		if t.Category != "" {
			field += "." + entities.NormalizeName(t.Category)
		}
		stmts = append(stmts, statement{field: field, value: t.Text, confidence: t.Confidence})
	}
	return stmts
}

func statementValues(stmts []statement) map[string][]string {
	values := make(map[string][]string)
	for _, st := range stmts {
		values[st.field] = append(values[st.field], st.value)
	}
	return values
}

func valuesContain(values []string, want string) bool {
	want = strings.TrimSpace(want)
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), want) {
			return true
		}
	}
	return false
}

// Text assembly helpers.

// narrativeText gathers the free-text fields the timeline and style rules
// scan.
func narrativeText(attrs entities.Attributes) string {
	parts := []string{
		attrs.String(entities.AttrOrigin),
		attrs.String(entities.AttrPersonaSummary),
	}
	parts = append(parts, attrs.Strings(entities.AttrBackstorySeeds)...)
	return strings.Join(nonEmpty(parts), "\n")
}

// summarizeAttributes renders the mapping as one deterministic text block,
// used for embeddings and mention scans.
func summarizeAttributes(attrs entities.Attributes) string {
	var parts []string
	add := func(label, value string) {
		if value != "" {
			parts = append(parts, label+": "+value)
		}
	}
	add("name", attrs.String(entities.AttrName))
	add("genre", attrs.String(entities.AttrGenre))
	add("origin", attrs.String(entities.AttrOrigin))
	add("social status", attrs.String(entities.AttrSocialStatus))
	add("power source", attrs.String(entities.AttrPowerSource))
	add("persona", attrs.String(entities.AttrPersonaSummary))
	if seeds := attrs.Strings(entities.AttrBackstorySeeds); len(seeds) > 0 {
		parts = append(parts, "backstory: "+strings.Join(seeds, " "))
	}
	if traits := traitsText(attrs.Traits()); traits != "" {
		parts = append(parts, "traits: "+traits)
	}
	var powerParts []string
	for _, p := range attrs.PowerSuggestions() {
		switch {
		case p.Name != "" && p.Description != "":
			powerParts = append(powerParts, p.Name+" ("+p.Description+")")
		case p.Name != "":
			powerParts = append(powerParts, p.Name)
		case p.Description != "":
			powerParts = append(powerParts, p.Description)
		}
	}
	if len(powerParts) > 0 {
		parts = append(parts, "powers: "+strings.Join(powerParts, ", "))
	}
	return strings.Join(parts, "\n")
}

func powersText(powers []entities.PowerSuggestion) string {
	var parts []string
	for _, p := range powers {
		parts = append(parts, p.Name, p.Description)
		parts = append(parts, p.Limitations...)
	}
	return strings.Join(nonEmpty(parts), " ")
}

func traitsText(traits []entities.Trait) string {
	var parts []string
	for _, t := range traits {
		parts = append(parts, t.Text)
	}
	return strings.Join(nonEmpty(parts), ", ")
}

func sourceAllowed(source string, allowed []string) bool {
	source = strings.ToLower(source)
	for _, term := range allowed {
		if containsTerm(source, term) {
			return true
		}
	}
	return false
}

func describeEntry(id string, attrs entities.Attributes) string {
	var parts []string
	if name := attrs.String(entities.AttrName); name != "" {
		parts = append(parts, name)
	}
	if origin := attrs.String(entities.AttrOrigin); origin != "" {
		parts = append(parts, "origin: "+origin)
	}
	if source := attrs.String(entities.AttrPowerSource); source != "" {
		parts = append(parts, "power source: "+source)
	}
	if genre := attrs.String(entities.AttrGenre); genre != "" {
		parts = append(parts, "genre: "+genre)
	}
	if len(parts) == 0 {
		return id
	}
	return id + " (" + strings.Join(parts, "; ") + ")"
}

func describePoint(p entities.ReferencePoint) string {
	var parts []string
	if p.Name != "" {
		parts = append(parts, p.Name)
	}
	if p.Genre != "" {
		parts = append(parts, "genre: "+p.Genre)
	}
	if p.Summary != "" {
		parts = append(parts, clip(p.Summary, 120))
	}
	if len(parts) == 0 {
		return p.CharacterID
	}
	return p.CharacterID + " (" + strings.Join(parts, "; ") + ")"
}

func referencePoint(entry *entities.RegistryEntry, summary string, embedding []float32) entities.ReferencePoint {
	return entities.ReferencePoint{
		CharacterID:  entry.CharacterID,
		Name:         entry.Attributes.String(entities.AttrName),
		Summary:      clip(summary, 500),
		Genre:        entry.Attributes.String(entities.AttrGenre),
		Embedding:    embedding,
		RegisteredAt: entry.RegisteredAt,
	}
}

func registryID(data entities.Attributes) string {
	if id := data.String("id"); id != "" {
		return id
	}
	return data.String("character_id")
}

func contentHash(attrs entities.Attributes) string {
	raw, err := json.Marshal(attrs)
	if err != nil {
		return "unhashable"
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:8])
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

func clip(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func maxInt(values []int) int {
	max := values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
	}
	return max
}
