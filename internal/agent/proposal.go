package agent

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"schemabridge/internal/mapping"
	"schemabridge/internal/matcher"
	"schemabridge/internal/piiguard"
	"schemabridge/internal/reasoning"
)

// Mappings at or above this confidence are left alone; the proposal agent
// only augments low-confidence suggestions.
const proposalConfidenceCeiling = 0.65

// MappingProposalAgent asks the reasoning service for better targets on
// low-confidence mappings. With no provider configured it is a strict
// no-op: it returns the identical mapping slice, emits no steps, and
// reports TotalImproved 0.
type MappingProposalAgent struct{}

func (a *MappingProposalAgent) Name() string { return "MappingProposalAgent" }

func (a *MappingProposalAgent) Applicable(rc *RunContext) bool { return true }

func (a *MappingProposalAgent) Run(ctx context.Context, rc *RunContext) (*Result, error) {
	if rc.Provider == nil {
		return &Result{AgentName: a.Name(), FieldMappings: rc.FieldMappings, TotalImproved: 0}, nil
	}

	start := time.Now()
	m := matcher.New(rc.Catalog, rc.Logger)
	improved := 0

	for i := range rc.EntityMappings {
		em := &rc.EntityMappings[i]
		req := a.buildRequest(rc, em.SourceEntityID, em.TargetEntityID)

		sugg, err := rc.Provider.SuggestFieldMappings(ctx, req)
		if err != nil || sugg == nil {
			// Local recoverable: retries are inside the provider; an
			// exhausted call degrades to "no suggestion".
			rc.Emit(Step{
				AgentName: a.Name(),
				Action:    "proposal_fallback",
				Detail:    fmt.Sprintf("no suggestions for entity mapping %s, keeping heuristics", em.ID),
			})
			continue
		}

		if rc.Suggestions == nil {
			rc.Suggestions = &reasoning.Suggestions{}
		}
		rc.Suggestions.Fields = append(rc.Suggestions.Fields, sugg.Fields...)

		improved += a.applyLowConfidence(rc, m, em, sugg)
	}

	rc.Emit(Step{
		AgentName:  a.Name(),
		Action:     "proposal_summary",
		Detail:     fmt.Sprintf("reasoning service improved %d mappings", improved),
		DurationMs: time.Since(start).Milliseconds(),
	})
	rc.Logger.Info("mapping proposal complete",
		zap.String("provider", rc.Provider.Name()),
		zap.Int("improved", improved))
	return &Result{AgentName: a.Name(), FieldMappings: rc.FieldMappings, TotalImproved: improved}, nil
}

// buildRequest assembles the PII-scrubbed schema snapshot for one entity
// pair. Scrubbing here is mandatory; this is the process boundary.
func (a *MappingProposalAgent) buildRequest(rc *RunContext, sourceEntityID, targetEntityID string) *reasoning.Request {
	req := &reasoning.Request{
		SourceSystem: rc.SourceSystem,
		TargetSystem: rc.TargetSystem,
		SourceFields: piiguard.Scrub(rc.Catalog.EntityFields(sourceEntityID)),
		TargetFields: piiguard.Scrub(rc.Catalog.EntityFields(targetEntityID)),
	}
	if e := rc.Catalog.Entity(sourceEntityID); e != nil {
		req.SourceEntity = e.Name
	}
	if e := rc.Catalog.Entity(targetEntityID); e != nil {
		req.TargetEntity = e.Name
	}
	return req
}

// applyLowConfidence applies provider suggestions to this entity mapping's
// low-confidence suggested field mappings only, counting those whose
// confidence rose.
func (a *MappingProposalAgent) applyLowConfidence(rc *RunContext, m *matcher.Matcher, em *mapping.EntityMapping, sugg *reasoning.Suggestions) int {
	improved := 0
	var low []mapping.FieldMapping
	lowIdx := make([]int, 0)
	for i := range rc.FieldMappings {
		fm := &rc.FieldMappings[i]
		if fm.EntityMappingID != em.ID || fm.Status != mapping.StatusSuggested || fm.Confidence >= proposalConfidenceCeiling {
			continue
		}
		low = append(low, *fm)
		lowIdx = append(lowIdx, i)
	}
	if len(low) == 0 {
		return 0
	}

	m.ApplySuggestions(em, low, sugg)

	for j, i := range lowIdx {
		before := rc.FieldMappings[i].Confidence
		after := low[j]
		if after.TargetFieldID == rc.FieldMappings[i].TargetFieldID && after.Confidence <= before {
			continue
		}
		rc.FieldMappings[i] = after
		if after.Confidence > before {
			improved++
		}
		rc.Emit(Step{
			AgentName:      a.Name(),
			Action:         "rescore_up",
			Detail:         fmt.Sprintf("provider retargeted mapping to field %s", after.TargetFieldID),
			FieldMappingID: after.ID,
			Before:         floatPtr(before),
			After:          floatPtr(after.Confidence),
		})
	}
	return improved
}
