// Package refine implements the three-phase corrective pass over a mapping
// set: heuristic rescoring, conflict resolution, and required-field
// backfill. The engine runs identically on the reasoning-service path and
// the pure heuristic path; only conflict reassignment differs.
package refine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"schemabridge/internal/agent"
	"schemabridge/internal/mapping"
	"schemabridge/internal/matcher"
	"schemabridge/internal/reasoning"
	"schemabridge/internal/schema"
	"schemabridge/internal/similarity"
)

// The three phase step tags, emitted in exactly this order every run.
const (
	PhaseFewShot        = "few-shot-refinement"
	PhaseConflicts      = "conflict-resolution"
	PhaseRequiredFields = "required-fields"
)

const (
	engineName = "RefinementEngine"

	rescoreCeiling = 0.65 // only suggested mappings below this are rescored
	rescoreUplift  = 0.06 // fixed uplift added to the recomputed score

	conflictWinnerBoost = 0.10
	conflictLoserDrop   = 0.15
	conflictLoserFloor  = 0.10

	// Backfill scoring weights type over name, the inverse of the initial
	// matcher: for a required field any type-safe source beats a pretty
	// name.
	backfillTypeWeight = 0.55
	backfillNameWeight = 0.45
	backfillThreshold  = 0.4
)

// Summary reports one refinement run. TotalImproved is always the exact
// sum of the per-phase counts.
type Summary struct {
	RescoreImproved  int `json:"rescore_improved"`
	ConflictResolved int `json:"conflict_resolved"`
	BackfillCreated  int `json:"backfill_created"`
	TotalImproved    int `json:"total_improved"`
}

// Engine is stateless; one instance serves any number of sequential runs.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates a refinement engine.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// Run executes the three phases in order, emitting exactly one step per
// phase. sugg carries provider suggestions when the reasoning-service path
// produced any; nil selects the pure heuristic behavior (identical shape,
// no conflict reassignment).
func (e *Engine) Run(ctx context.Context, rc *agent.RunContext, sugg *reasoning.Suggestions) (*Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := &Summary{}

	start := time.Now()
	s.RescoreImproved = e.rescore(rc)
	rc.Emit(agent.Step{
		AgentName:  engineName,
		Action:     PhaseFewShot,
		Detail:     fmt.Sprintf("rescored low-confidence mappings, %d improved", s.RescoreImproved),
		DurationMs: time.Since(start).Milliseconds(),
		Metadata:   map[string]string{"improved": fmt.Sprintf("%d", s.RescoreImproved)},
	})

	start = time.Now()
	s.ConflictResolved = e.resolveConflicts(rc, sugg)
	rc.Emit(agent.Step{
		AgentName:  engineName,
		Action:     PhaseConflicts,
		Detail:     fmt.Sprintf("resolved %d target conflicts", s.ConflictResolved),
		DurationMs: time.Since(start).Milliseconds(),
		Metadata:   map[string]string{"improved": fmt.Sprintf("%d", s.ConflictResolved)},
	})

	start = time.Now()
	s.BackfillCreated = e.backfillRequired(rc)
	rc.Emit(agent.Step{
		AgentName:  engineName,
		Action:     PhaseRequiredFields,
		Detail:     fmt.Sprintf("backfilled %d required target fields", s.BackfillCreated),
		DurationMs: time.Since(start).Milliseconds(),
		Metadata:   map[string]string{"improved": fmt.Sprintf("%d", s.BackfillCreated)},
	})

	s.TotalImproved = s.RescoreImproved + s.ConflictResolved + s.BackfillCreated
	e.logger.Info("refinement complete",
		zap.Int("rescored", s.RescoreImproved),
		zap.Int("conflicts", s.ConflictResolved),
		zap.Int("backfilled", s.BackfillCreated))
	return s, nil
}

// rescore recomputes joint type+name scores for low-confidence suggested
// mappings. Promotion only: a recomputed score plus the fixed uplift must
// beat the prior confidence, and this phase never demotes.
func (e *Engine) rescore(rc *agent.RunContext) int {
	improved := 0
	for i := range rc.FieldMappings {
		fm := &rc.FieldMappings[i]
		if fm.Status != mapping.StatusSuggested || fm.Confidence >= rescoreCeiling {
			continue
		}
		src := rc.Catalog.Field(fm.SourceFieldID)
		tgt := rc.Catalog.Field(fm.TargetFieldID)
		if src == nil || tgt == nil {
			continue
		}
		recomputed := matcher.FieldScore(src, tgt) + rescoreUplift
		if recomputed > fm.Confidence {
			fm.Confidence = similarity.Clamp(recomputed)
			improved++
		}
	}
	return improved
}

// resolveConflicts demotes all but the strongest claim on each contested
// target field. Winner takes +0.10; every loser drops 0.15 with a 0.10
// floor. On the provider path a demoted mapping may be reassigned to a
// same-entity alternative target named by a suggestion.
func (e *Engine) resolveConflicts(rc *agent.RunContext, sugg *reasoning.Suggestions) int {
	groups := make(map[string][]int)
	for i := range rc.FieldMappings {
		fm := &rc.FieldMappings[i]
		if fm.Status == mapping.StatusRejected {
			continue
		}
		groups[fm.TargetFieldID] = append(groups[fm.TargetFieldID], i)
	}

	// Deterministic group order: mappings are visited the same way every
	// run regardless of map iteration.
	targetIDs := make([]string, 0, len(groups))
	for id, members := range groups {
		if len(members) > 1 {
			targetIDs = append(targetIDs, id)
		}
	}
	sort.Strings(targetIDs)

	resolved := 0
	for _, targetID := range targetIDs {
		members := groups[targetID]
		winner := members[0]
		for _, idx := range members[1:] {
			if rc.FieldMappings[idx].Confidence > rc.FieldMappings[winner].Confidence {
				winner = idx
			}
		}
		for _, idx := range members {
			fm := &rc.FieldMappings[idx]
			before := fm.Confidence
			if idx == winner {
				fm.Confidence = similarity.Clamp(fm.Confidence + conflictWinnerBoost)
			} else {
				demoted := fm.Confidence - conflictLoserDrop
				if demoted < conflictLoserFloor {
					demoted = conflictLoserFloor
				}
				fm.Confidence = similarity.Clamp(demoted)
				e.maybeReassign(rc, fm, sugg)
			}
			e.logger.Debug("conflict adjusted",
				zap.String("mapping", fm.ID),
				zap.Bool("winner", idx == winner),
				zap.Float64("before", before),
				zap.Float64("after", fm.Confidence))
		}
		resolved++
	}
	return resolved
}

// maybeReassign moves a demoted mapping onto a same-entity alternative
// target field when a provider suggestion proposes one. The heuristic path
// (nil suggestions) only demotes.
func (e *Engine) maybeReassign(rc *agent.RunContext, fm *mapping.FieldMapping, sugg *reasoning.Suggestions) {
	if sugg == nil {
		return
	}
	current := rc.Catalog.Field(fm.TargetFieldID)
	if current == nil {
		return
	}
	for _, s := range sugg.Fields {
		if s.SourceFieldID != fm.SourceFieldID {
			continue
		}
		for _, alt := range rc.Catalog.EntityFields(current.EntityID) {
			if alt.ID != fm.TargetFieldID && strings.EqualFold(alt.Name, s.TargetFieldName) {
				fm.TargetFieldID = alt.ID
				fm.Rationale = "reassigned off contested target per reasoning suggestion"
				return
			}
		}
	}
}

// backfillRequired creates mappings for required target fields nobody
// claims, drawing from source fields not already consumed. Creation only
// above the backfill threshold.
func (e *Engine) backfillRequired(rc *agent.RunContext) int {
	liveTargets := make(map[string]bool)
	consumedSources := make(map[string]bool)
	for i := range rc.FieldMappings {
		fm := &rc.FieldMappings[i]
		if fm.Live() {
			liveTargets[fm.TargetFieldID] = true
			consumedSources[fm.SourceFieldID] = true
		}
	}

	created := 0
	for i := range rc.EntityMappings {
		em := &rc.EntityMappings[i]
		for _, tgt := range rc.Catalog.EntityFields(em.TargetEntityID) {
			if !tgt.Required || liveTargets[tgt.ID] {
				continue
			}
			var best *schema.Field
			bestScore := 0.0
			for _, src := range rc.Catalog.EntityFields(em.SourceEntityID) {
				if consumedSources[src.ID] {
					continue
				}
				score := backfillTypeWeight*similarity.TypeCompatibilityScore(src.Type, tgt.Type) +
					backfillNameWeight*similarity.NameSimilarity(src.DisplayName(), tgt.DisplayName())
				if score > bestScore {
					bestScore = score
					best = src
				}
			}
			if best == nil || bestScore <= backfillThreshold {
				continue
			}
			rc.FieldMappings = append(rc.FieldMappings, mapping.FieldMapping{
				ID:              mapping.NewID(),
				EntityMappingID: em.ID,
				SourceFieldID:   best.ID,
				TargetFieldID:   tgt.ID,
				Confidence:      similarity.Clamp(bestScore),
				Rationale:       "backfilled to cover required target field",
				Status:          mapping.StatusSuggested,
				Transform:       matcher.InferTransform(best, tgt),
			})
			liveTargets[tgt.ID] = true
			consumedSources[best.ID] = true
			created++
		}
	}
	return created
}
