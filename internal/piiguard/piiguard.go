// Package piiguard redacts sensitive field names before any schema
// description leaves the process boundary toward a reasoning service.
// Scrubbing is mandatory on that path; the engine never sends raw GLBA_NPI
// or PCI_CARD field names off-box.
package piiguard

import "schemabridge/internal/schema"

// Fixed redaction placeholders. Downstream prompts pattern-match on these,
// so they are part of the contract, not cosmetic.
const (
	GLBAPlaceholder = "[REDACTED_NPI_FIELD]"
	PCIPlaceholder  = "[REDACTED_CARD_FIELD]"
)

// ScrubbedField is the provider-safe rendering of a catalog field.
type ScrubbedField struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Label        string          `json:"label,omitempty"`
	Type         schema.DataType `json:"type"`
	Required     bool            `json:"required,omitempty"`
	Redacted     bool            `json:"redacted"`
	RedactReason string          `json:"redact_reason,omitempty"`
}

// Scrub returns a parallel list of provider-safe fields. GLBA_NPI fields
// render the NPI placeholder, PCI_CARD fields the card placeholder; when a
// field carries both, GLBA_NPI wins. Everything else passes through.
func Scrub(fields []*schema.Field) []ScrubbedField {
	out := make([]ScrubbedField, 0, len(fields))
	for _, f := range fields {
		sf := ScrubbedField{
			ID:       f.ID,
			Name:     f.Name,
			Label:    f.Label,
			Type:     f.Type,
			Required: f.Required,
		}
		switch {
		case f.HasTag(schema.TagGLBANPI):
			sf.Name = GLBAPlaceholder
			sf.Label = ""
			sf.Redacted = true
			sf.RedactReason = string(schema.TagGLBANPI)
		case f.HasTag(schema.TagPCICard):
			sf.Name = PCIPlaceholder
			sf.Label = ""
			sf.Redacted = true
			sf.RedactReason = string(schema.TagPCICard)
		}
		out = append(out, sf)
	}
	return out
}

// CountRedactedFields counts catalog fields that would be redacted by Scrub.
func CountRedactedFields(fields []*schema.Field) int {
	n := 0
	for _, f := range fields {
		if f.HasTag(schema.TagGLBANPI) || f.HasTag(schema.TagPCICard) {
			n++
		}
	}
	return n
}
