package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemabridge/internal/mapping"
	"schemabridge/internal/reasoning"
	"schemabridge/internal/schema"
)

func fixtureCatalog() (*schema.Catalog, []schema.Entity, []schema.Entity) {
	sources := []schema.Entity{
		{ID: "e-member", SystemID: schema.SystemJackHenry, Name: "Member", Label: "Member Record"},
	}
	targets := []schema.Entity{
		{ID: "e-account", SystemID: schema.SystemSalesforce, Name: "Account"},
		{ID: "e-contact", SystemID: schema.SystemSalesforce, Name: "Contact", Label: "Member Contact"},
	}
	fields := []schema.Field{
		{ID: "s-name1", EntityID: "e-member", Name: "NAME1", Type: schema.TypeString},
		{ID: "s-open", EntityID: "e-member", Name: "AcctOpenDate", Type: schema.TypeDate},
		{ID: "s-status", EntityID: "e-member", Name: "MemberStatus", Type: schema.TypeString},
		{ID: "s-balance", EntityID: "e-member", Name: "ShareBalance", Type: schema.TypeDecimal},

		{ID: "t-name", EntityID: "e-contact", Name: "Name", Type: schema.TypeString},
		{ID: "t-open", EntityID: "e-contact", Name: "Account_Open_Date__c", Type: schema.TypeDate},
		{ID: "t-status", EntityID: "e-contact", Name: "Member_Status__c", Type: schema.TypePicklist},
		{ID: "t-email", EntityID: "e-contact", Name: "Email", Type: schema.TypeEmail},
	}
	all := append([]schema.Entity{}, sources...)
	all = append(all, targets...)
	return schema.NewCatalog(all, fields), sources, targets
}

func TestMatchEntitiesAlwaysReturnsBestCandidate(t *testing.T) {
	t.Parallel()

	catalog, sources, targets := fixtureCatalog()
	m := New(catalog, nil)
	ems := m.MatchEntities(sources, targets)
	require.Len(t, ems, 1)

	// "Member Record" shares the "member" token with "Contact / Member Contact".
	assert.Equal(t, "e-contact", ems[0].TargetEntityID)
	assert.GreaterOrEqual(t, ems[0].Confidence, 0.25)
	assert.LessOrEqual(t, ems[0].Confidence, 1.0)
}

func TestMatchEntitiesLowSimilarityStillMaps(t *testing.T) {
	t.Parallel()

	sources := []schema.Entity{{ID: "e1", Name: "ZGX99"}}
	targets := []schema.Entity{{ID: "e2", Name: "Account"}}
	catalog := schema.NewCatalog(append(sources, targets...), nil)
	ems := New(catalog, nil).MatchEntities(sources, targets)
	require.Len(t, ems, 1)
	assert.InDelta(t, 0.25, ems[0].Confidence, 1e-9) // 0.75*0 + 0.25 floor
}

func TestMatchFieldsDropsHopelessPairs(t *testing.T) {
	t.Parallel()

	entities := []schema.Entity{{ID: "src"}, {ID: "tgt"}}
	fields := []schema.Field{
		{ID: "s1", EntityID: "src", Name: "Balance", Type: schema.TypeDate},
		{ID: "t1", EntityID: "tgt", Name: "Email", Type: schema.TypeInteger},
	}
	catalog := schema.NewCatalog(entities, fields)
	em := mapping.EntityMapping{ID: "em", SourceEntityID: "src", TargetEntityID: "tgt"}

	// Disjoint names and an incompatible type pair: 0.65*0 + 0.35*0.2 = 0.07 < 0.35.
	fms := New(catalog, nil).MatchFields(&em)
	assert.Empty(t, fms)
}

func TestMatchFieldsPicksBestAndClamps(t *testing.T) {
	t.Parallel()

	catalog, sources, targets := fixtureCatalog()
	m := New(catalog, nil)
	ems := m.MatchEntities(sources, targets)
	require.Len(t, ems, 1)
	fms := m.MatchFields(&ems[0])
	require.NotEmpty(t, fms)

	bysrc := make(map[string]mapping.FieldMapping)
	for _, fm := range fms {
		bysrc[fm.SourceFieldID] = fm
		assert.GreaterOrEqual(t, fm.Confidence, 0.0)
		assert.LessOrEqual(t, fm.Confidence, 1.0)
		assert.Equal(t, mapping.StatusSuggested, fm.Status)
	}

	open, ok := bysrc["s-open"]
	require.True(t, ok, "AcctOpenDate should map")
	assert.Equal(t, "t-open", open.TargetFieldID)
	assert.Equal(t, mapping.TransformFormatDate, open.Transform.Kind)

	status, ok := bysrc["s-status"]
	require.True(t, ok, "MemberStatus should map")
	assert.Equal(t, "t-status", status.TargetFieldID)
	assert.Equal(t, mapping.TransformLookup, status.Transform.Kind)
}

func TestInferTransformRules(t *testing.T) {
	t.Parallel()

	name1 := &schema.Field{Name: "NAME1", Type: schema.TypeString}
	fullName := &schema.Field{Name: "Name", Type: schema.TypeString}
	assert.Equal(t, mapping.TransformConcat, InferTransform(name1, fullName).Kind)

	str := &schema.Field{Name: "Notes", Type: schema.TypeString}
	text := &schema.Field{Name: "Description", Type: schema.TypeText}
	assert.Equal(t, mapping.TransformTrim, InferTransform(str, text).Kind)

	num := &schema.Field{Name: "Rate", Type: schema.TypeDecimal}
	numTgt := &schema.Field{Name: "Rate", Type: schema.TypeDecimal}
	assert.Equal(t, mapping.TransformDirect, InferTransform(num, numTgt).Kind)
}

func TestApplySuggestionsOverridesTargetAndBlends(t *testing.T) {
	t.Parallel()

	catalog, sources, targets := fixtureCatalog()
	m := New(catalog, nil)
	ems := m.MatchEntities(sources, targets)
	fms := m.MatchFields(&ems[0])
	require.NotEmpty(t, fms)

	var before mapping.FieldMapping
	for _, fm := range fms {
		if fm.SourceFieldID == "s-name1" {
			before = fm
		}
	}
	require.NotEmpty(t, before.ID)

	sugg := &reasoning.Suggestions{Fields: []reasoning.FieldSuggestion{
		{SourceFieldID: "s-name1", TargetFieldName: "Name", Confidence: 0.95, Rationale: "split name column"},
		{SourceFieldID: "s-name1", TargetFieldName: "NoSuchField", Confidence: 0.99},
	}}
	applied := m.ApplySuggestions(&ems[0], fms, sugg)
	assert.Equal(t, 1, applied)

	for _, fm := range fms {
		if fm.SourceFieldID == "s-name1" {
			assert.Equal(t, "t-name", fm.TargetFieldID)
			assert.Equal(t, "split name column", fm.Rationale)
			assert.LessOrEqual(t, fm.Confidence, 1.0)
		}
	}
}
