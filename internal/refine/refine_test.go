package refine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemabridge/internal/agent"
	"schemabridge/internal/mapping"
	"schemabridge/internal/reasoning"
	"schemabridge/internal/schema"
)

func runContext(fields []schema.Field, ems []mapping.EntityMapping, fms []mapping.FieldMapping) *agent.RunContext {
	entities := []schema.Entity{
		{ID: "src", SystemID: schema.SystemJackHenry, Name: "Member"},
		{ID: "tgt", SystemID: schema.SystemSalesforce, Name: "Contact"},
	}
	return agent.NewRunContext(schema.SystemJackHenry, schema.SystemSalesforce,
		schema.NewCatalog(entities, fields), ems, fms, nil, nil, nil)
}

func TestRunEmitsExactlyThreePhaseStepsInOrder(t *testing.T) {
	t.Parallel()

	rc := runContext(nil, nil, nil)
	summary, err := NewEngine(nil).Run(context.Background(), rc, nil)
	require.NoError(t, err)

	steps := rc.Steps()
	require.Len(t, steps, 3)
	assert.Equal(t, PhaseFewShot, steps[0].Action)
	assert.Equal(t, PhaseConflicts, steps[1].Action)
	assert.Equal(t, PhaseRequiredFields, steps[2].Action)
	assert.Equal(t, 0, summary.TotalImproved)
}

func TestTotalImprovedIsExactSumOfPhases(t *testing.T) {
	t.Parallel()

	fields := []schema.Field{
		{ID: "s-a", EntityID: "src", Name: "FirstName", Type: schema.TypeString},
		{ID: "s-b", EntityID: "src", Name: "HomePhone", Type: schema.TypePhone},
		{ID: "s-c", EntityID: "src", Name: "EmailAddress", Type: schema.TypeEmail},
		{ID: "t-name", EntityID: "tgt", Name: "FirstName", Type: schema.TypeString},
		{ID: "t-phone", EntityID: "tgt", Name: "Phone", Type: schema.TypePhone},
		{ID: "t-email", EntityID: "tgt", Name: "Email", Type: schema.TypeEmail, Required: true},
	}
	ems := []mapping.EntityMapping{{ID: "em1", SourceEntityID: "src", TargetEntityID: "tgt", Confidence: 0.9}}
	fms := []mapping.FieldMapping{
		// Low-confidence but actually strong pair: rescore promotes it.
		{ID: "fm-a", EntityMappingID: "em1", SourceFieldID: "s-a", TargetFieldID: "t-name",
			Confidence: 0.30, Status: mapping.StatusSuggested},
		// Two claims on t-phone: conflict resolution fires.
		{ID: "fm-b1", EntityMappingID: "em1", SourceFieldID: "s-b", TargetFieldID: "t-phone",
			Confidence: 0.85, Status: mapping.StatusSuggested},
		{ID: "fm-b2", EntityMappingID: "em1", SourceFieldID: "s-a", TargetFieldID: "t-phone",
			Confidence: 0.70, Status: mapping.StatusAccepted},
		// t-email is required and unclaimed: backfill creates from s-c.
	}
	rc := runContext(fields, ems, fms)
	summary, err := NewEngine(nil).Run(context.Background(), rc, nil)
	require.NoError(t, err)

	assert.Equal(t, summary.RescoreImproved+summary.ConflictResolved+summary.BackfillCreated,
		summary.TotalImproved)
	assert.Equal(t, 1, summary.RescoreImproved)
	assert.Equal(t, 1, summary.ConflictResolved)
	assert.Equal(t, 1, summary.BackfillCreated)
	assert.Len(t, rc.FieldMappings, 4)

	for _, fm := range rc.FieldMappings {
		assert.GreaterOrEqual(t, fm.Confidence, 0.0)
		assert.LessOrEqual(t, fm.Confidence, 1.0)
	}
}

func TestConflictResolutionWinnerStaysAhead(t *testing.T) {
	t.Parallel()

	fields := []schema.Field{
		{ID: "s-1", EntityID: "src", Name: "WorkPhone", Type: schema.TypePhone},
		{ID: "s-2", EntityID: "src", Name: "CellPhone", Type: schema.TypePhone},
		{ID: "t-phone", EntityID: "tgt", Name: "Phone", Type: schema.TypePhone},
	}
	ems := []mapping.EntityMapping{{ID: "em1", SourceEntityID: "src", TargetEntityID: "tgt", Confidence: 0.9}}
	fms := []mapping.FieldMapping{
		{ID: "fm-low", EntityMappingID: "em1", SourceFieldID: "s-1", TargetFieldID: "t-phone",
			Confidence: 0.70, Status: mapping.StatusAccepted},
		{ID: "fm-high", EntityMappingID: "em1", SourceFieldID: "s-2", TargetFieldID: "t-phone",
			Confidence: 0.85, Status: mapping.StatusAccepted},
	}
	rc := runContext(fields, ems, fms)
	_, err := NewEngine(nil).Run(context.Background(), rc, nil)
	require.NoError(t, err)

	// 0.85 winner -> 0.95; 0.70 loser -> 0.55.
	assert.InDelta(t, 0.95, rc.FieldMappings[1].Confidence, 1e-9)
	assert.InDelta(t, 0.55, rc.FieldMappings[0].Confidence, 1e-9)
	assert.Greater(t, rc.FieldMappings[1].Confidence, rc.FieldMappings[0].Confidence)
}

func TestConflictLoserFloor(t *testing.T) {
	t.Parallel()

	fields := []schema.Field{
		{ID: "s-1", EntityID: "src", Name: "A", Type: schema.TypeString},
		{ID: "s-2", EntityID: "src", Name: "B", Type: schema.TypeString},
		{ID: "t-1", EntityID: "tgt", Name: "C", Type: schema.TypeString},
	}
	ems := []mapping.EntityMapping{{ID: "em1", SourceEntityID: "src", TargetEntityID: "tgt", Confidence: 0.9}}
	fms := []mapping.FieldMapping{
		{ID: "fm-1", EntityMappingID: "em1", SourceFieldID: "s-1", TargetFieldID: "t-1",
			Confidence: 0.90, Status: mapping.StatusAccepted},
		{ID: "fm-2", EntityMappingID: "em1", SourceFieldID: "s-2", TargetFieldID: "t-1",
			Confidence: 0.15, Status: mapping.StatusAccepted},
	}
	rc := runContext(fields, ems, fms)
	_, err := NewEngine(nil).Run(context.Background(), rc, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.10, rc.FieldMappings[1].Confidence, 1e-9)
}

func TestConflictReassignmentOnlyOnProviderPath(t *testing.T) {
	t.Parallel()

	fields := []schema.Field{
		{ID: "s-1", EntityID: "src", Name: "MainPhone", Type: schema.TypePhone},
		{ID: "s-2", EntityID: "src", Name: "AltPhone", Type: schema.TypePhone},
		{ID: "t-phone", EntityID: "tgt", Name: "Phone", Type: schema.TypePhone},
		{ID: "t-other", EntityID: "tgt", Name: "OtherPhone", Type: schema.TypePhone},
	}
	ems := []mapping.EntityMapping{{ID: "em1", SourceEntityID: "src", TargetEntityID: "tgt", Confidence: 0.9}}
	mkMappings := func() []mapping.FieldMapping {
		return []mapping.FieldMapping{
			{ID: "fm-1", EntityMappingID: "em1", SourceFieldID: "s-1", TargetFieldID: "t-phone",
				Confidence: 0.85, Status: mapping.StatusAccepted},
			{ID: "fm-2", EntityMappingID: "em1", SourceFieldID: "s-2", TargetFieldID: "t-phone",
				Confidence: 0.60, Status: mapping.StatusAccepted},
		}
	}
	sugg := &reasoning.Suggestions{Fields: []reasoning.FieldSuggestion{
		{SourceFieldID: "s-2", TargetFieldName: "OtherPhone", Confidence: 0.8},
	}}

	// Heuristic path: demotion only, no reassignment.
	rcHeuristic := runContext(fields, ems, mkMappings())
	_, err := NewEngine(nil).Run(context.Background(), rcHeuristic, nil)
	require.NoError(t, err)
	assert.Equal(t, "t-phone", rcHeuristic.FieldMappings[1].TargetFieldID)

	// Provider path: the demoted loser moves to the suggested alternative.
	rcProvider := runContext(fields, ems, mkMappings())
	_, err = NewEngine(nil).Run(context.Background(), rcProvider, sugg)
	require.NoError(t, err)
	assert.Equal(t, "t-other", rcProvider.FieldMappings[1].TargetFieldID)
}

func TestRescoreNeverDemotes(t *testing.T) {
	t.Parallel()

	fields := []schema.Field{
		// Weak pair: joint score plus uplift stays below the prior 0.60.
		{ID: "s-1", EntityID: "src", Name: "Widget", Type: schema.TypeDate},
		{ID: "t-1", EntityID: "tgt", Name: "Gadget", Type: schema.TypeBoolean},
	}
	ems := []mapping.EntityMapping{{ID: "em1", SourceEntityID: "src", TargetEntityID: "tgt", Confidence: 0.9}}
	fms := []mapping.FieldMapping{
		{ID: "fm-1", EntityMappingID: "em1", SourceFieldID: "s-1", TargetFieldID: "t-1",
			Confidence: 0.60, Status: mapping.StatusSuggested},
	}
	rc := runContext(fields, ems, fms)
	summary, err := NewEngine(nil).Run(context.Background(), rc, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.RescoreImproved)
	assert.InDelta(t, 0.60, rc.FieldMappings[0].Confidence, 1e-9)
}

func TestBackfillRespectsThresholdAndConsumedSources(t *testing.T) {
	t.Parallel()

	fields := []schema.Field{
		{ID: "s-1", EntityID: "src", Name: "EmailAddress", Type: schema.TypeEmail},
		{ID: "t-1", EntityID: "tgt", Name: "Email", Type: schema.TypeEmail, Required: true},
		// Required but nothing plausible to draw from.
		{ID: "t-2", EntityID: "tgt", Name: "FaxNumber", Type: schema.TypeDate, Required: true},
	}
	ems := []mapping.EntityMapping{{ID: "em1", SourceEntityID: "src", TargetEntityID: "tgt", Confidence: 0.9}}
	rc := runContext(fields, ems, nil)
	summary, err := NewEngine(nil).Run(context.Background(), rc, nil)
	require.NoError(t, err)

	require.Equal(t, 1, summary.BackfillCreated)
	require.Len(t, rc.FieldMappings, 1)
	assert.Equal(t, "t-1", rc.FieldMappings[0].TargetFieldID)
	assert.Equal(t, mapping.StatusSuggested, rc.FieldMappings[0].Status)
}
