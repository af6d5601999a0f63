package agent

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"schemabridge/internal/schema"
	"schemabridge/internal/similarity"
)

// SchemaDiscoveryAgent classifies every catalog field with a semantic
// purpose and group. Pure annotation pass: it never alters mappings and
// TotalImproved is always 0 by contract.
type SchemaDiscoveryAgent struct{}

func (a *SchemaDiscoveryAgent) Name() string { return "SchemaDiscoveryAgent" }

func (a *SchemaDiscoveryAgent) Applicable(rc *RunContext) bool { return true }

func (a *SchemaDiscoveryAgent) Run(ctx context.Context, rc *RunContext) (*Result, error) {
	start := time.Now()
	counts := map[FieldPurpose]int{}
	for _, f := range rc.Catalog.Fields() {
		c := classifyField(f)
		rc.Classifications[f.ID] = c
		counts[c.Purpose]++
	}
	rc.Emit(Step{
		AgentName: a.Name(),
		Action:    "schema_classification",
		Detail: fmt.Sprintf("classified %d fields: %d identifier, %d pii, %d financial",
			rc.Catalog.FieldCount(),
			counts[PurposeIdentifier],
			counts[PurposePIIPersonal]+counts[PurposePIIContact],
			counts[PurposeFinancial]),
		DurationMs: time.Since(start).Milliseconds(),
	})
	rc.Logger.Debug("schema discovery complete",
		zap.Int("fields", rc.Catalog.FieldCount()),
		zap.Int("identifiers", counts[PurposeIdentifier]))
	return &Result{AgentName: a.Name(), FieldMappings: rc.FieldMappings, TotalImproved: 0}, nil
}

func classifyField(f *schema.Field) Classification {
	c := Classification{Purpose: PurposeUnclassified, SemanticGroup: semanticGroup(f)}
	switch {
	case f.IsKey:
		c.Purpose = PurposeIdentifier
	case f.HasTag(schema.TagGLBANPI) && f.Type == schema.TypeEmail:
		c.Purpose = PurposePIIContact
	case f.HasTag(schema.TagGLBANPI):
		c.Purpose = PurposePIIPersonal
	case f.HasTag(schema.TagSOXFinancial):
		c.Purpose = PurposeFinancial
	case f.Type == schema.TypeDecimal && hasFinancialName(f):
		c.Purpose = PurposeFinancial
	}
	return c
}

var financialTokens = map[string]bool{
	"balance": true, "amount": true, "rate": true, "dividend": true,
	"interest": true, "revenue": true, "income": true, "payment": true,
	"principal": true, "fee": true, "apr": true, "apy": true,
}

var addressTokens = map[string]bool{
	"address": true, "street": true, "city": true, "state": true,
	"zip": true, "postal": true, "country": true,
}

var contactTokens = map[string]bool{
	"email": true, "phone": true, "fax": true, "mobile": true,
}

func hasFinancialName(f *schema.Field) bool {
	for _, t := range similarity.Tokenize(f.DisplayName()) {
		if financialTokens[t] {
			return true
		}
	}
	return false
}

// semanticGroup assigns a coarse group independent of purpose.
func semanticGroup(f *schema.Field) string {
	for _, t := range similarity.Tokenize(f.DisplayName()) {
		switch {
		case addressTokens[t]:
			return "address"
		case contactTokens[t]:
			return "contact"
		case t == "name":
			return "name"
		case financialTokens[t]:
			return "financial"
		}
	}
	return ""
}
