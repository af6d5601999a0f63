package agent

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"schemabridge/internal/mapping"
	"schemabridge/internal/schema"
	"schemabridge/internal/similarity"
)

// Suggested mappings below this confidence draw a low_confidence warning.
const lowConfidenceFloor = 0.4

// ValidationAgent is the final gate and always runs. Type-incompatible
// pairs are hard failures (status rejected); everything else is an
// advisory warning. Mappings whose endpoints are missing from the catalog
// pass through untouched.
type ValidationAgent struct{}

func (a *ValidationAgent) Name() string { return "ValidationAgent" }

func (a *ValidationAgent) Applicable(rc *RunContext) bool { return true }

func (a *ValidationAgent) Run(ctx context.Context, rc *RunContext) (*Result, error) {
	start := time.Now()
	errors := 0
	warnings := 0

	for i := range rc.FieldMappings {
		fm := &rc.FieldMappings[i]
		src := rc.Catalog.Field(fm.SourceFieldID)
		tgt := rc.Catalog.Field(fm.TargetFieldID)
		if src == nil || tgt == nil {
			continue
		}

		if !similarity.TypeCompatible(src.Type, tgt.Type) {
			before := fm.Confidence
			fm.Status = mapping.StatusRejected
			errors++
			rc.Emit(Step{
				AgentName:      a.Name(),
				Action:         "validation_type_error",
				Detail:         fmt.Sprintf("%s (%s) cannot map to %s (%s)", src.Name, src.Type, tgt.Name, tgt.Type),
				FieldMappingID: fm.ID,
				Before:         floatPtr(before),
				After:          floatPtr(fm.Confidence),
			})
			continue
		}

		if src.Type == schema.TypePicklist && tgt.Type == schema.TypePicklist {
			if missing := picklistGap(src, tgt); len(missing) > 0 {
				warnings++
				rc.Emit(Step{
					AgentName:      a.Name(),
					Action:         "validation_picklist_gap",
					Detail:         fmt.Sprintf("%d source values missing from target picklist %s: %v", len(missing), tgt.Name, missing),
					FieldMappingID: fm.ID,
				})
			}
		}

		if fm.Status == mapping.StatusSuggested && fm.Confidence < lowConfidenceFloor {
			warnings++
			rc.Emit(Step{
				AgentName:      a.Name(),
				Action:         "validation_low_confidence",
				Detail:         fmt.Sprintf("mapping %s -> %s still suggested at %.2f", src.Name, tgt.Name, fm.Confidence),
				FieldMappingID: fm.ID,
			})
		}
	}

	unmappedRequired := a.checkRequiredCoverage(rc, &warnings)
	a.checkDuplicateTargets(rc, &warnings)

	rc.Emit(Step{
		AgentName: a.Name(),
		Action:    "validation_summary",
		Detail: fmt.Sprintf("%d mappings, %d errors, %d warnings, %d unmapped required fields",
			len(rc.FieldMappings), errors, warnings, unmappedRequired),
		DurationMs: time.Since(start).Milliseconds(),
		Metadata: map[string]string{
			"total_mappings":    fmt.Sprintf("%d", len(rc.FieldMappings)),
			"errors":            fmt.Sprintf("%d", errors),
			"warnings":          fmt.Sprintf("%d", warnings),
			"unmapped_required": fmt.Sprintf("%d", unmappedRequired),
		},
	})
	rc.Logger.Info("validation complete",
		zap.Int("errors", errors),
		zap.Int("warnings", warnings),
		zap.Int("unmapped_required", unmappedRequired))

	return &Result{AgentName: a.Name(), FieldMappings: rc.FieldMappings, TotalImproved: 0}, nil
}

// picklistGap returns source picklist values absent from the target's set.
func picklistGap(src, tgt *schema.Field) []string {
	tgtValues := make(map[string]bool, len(tgt.PicklistValues))
	for _, v := range tgt.PicklistValues {
		tgtValues[v] = true
	}
	var missing []string
	for _, v := range src.PicklistValues {
		if !tgtValues[v] {
			missing = append(missing, v)
		}
	}
	return missing
}

// checkRequiredCoverage warns for every required target field with zero
// live mapping, per mapped entity pair. Returns the unmapped count.
func (a *ValidationAgent) checkRequiredCoverage(rc *RunContext, warnings *int) int {
	liveTargets := make(map[string]bool)
	for i := range rc.FieldMappings {
		if rc.FieldMappings[i].Live() {
			liveTargets[rc.FieldMappings[i].TargetFieldID] = true
		}
	}
	unmapped := 0
	for i := range rc.EntityMappings {
		em := &rc.EntityMappings[i]
		for _, tgt := range rc.Catalog.EntityFields(em.TargetEntityID) {
			if !tgt.Required || liveTargets[tgt.ID] {
				continue
			}
			unmapped++
			*warnings++
			rc.Emit(Step{
				AgentName: a.Name(),
				Action:    "validation_missing_required",
				Detail:    fmt.Sprintf("required target field %s has no live mapping", tgt.Name),
			})
		}
	}
	return unmapped
}

// checkDuplicateTargets warns when a target field is claimed by more than
// one live mapping. Advisory: the first-registered mapping wins
// conceptually, but no status is mutated here.
func (a *ValidationAgent) checkDuplicateTargets(rc *RunContext, warnings *int) {
	claims := make(map[string][]string)
	for i := range rc.FieldMappings {
		fm := &rc.FieldMappings[i]
		if fm.Live() {
			claims[fm.TargetFieldID] = append(claims[fm.TargetFieldID], fm.ID)
		}
	}
	for targetID, ids := range claims {
		if len(ids) < 2 {
			continue
		}
		*warnings++
		tgtName := targetID
		if tgt := rc.Catalog.Field(targetID); tgt != nil {
			tgtName = tgt.Name
		}
		rc.Emit(Step{
			AgentName:      a.Name(),
			Action:         "validation_duplicate_target",
			Detail:         fmt.Sprintf("target field %s claimed by %d mappings", tgtName, len(ids)),
			FieldMappingID: ids[0],
		})
	}
}
