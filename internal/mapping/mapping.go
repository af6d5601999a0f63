// Package mapping holds the mutable mapping set produced by the matcher and
// refined by the pipeline stages.
package mapping

import "github.com/google/uuid"

// Status is the review state of a field mapping.
type Status string

const (
	StatusSuggested Status = "suggested"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusModified  Status = "modified"
)

// TransformKind names the data-shaping operation applied when moving a value
// from source to target.
type TransformKind string

const (
	TransformDirect     TransformKind = "direct"
	TransformConcat     TransformKind = "concat"
	TransformFormatDate TransformKind = "formatDate"
	TransformLookup     TransformKind = "lookup"
	TransformStatic     TransformKind = "static"
	TransformRegex      TransformKind = "regex"
	TransformSplit      TransformKind = "split"
	TransformTrim       TransformKind = "trim"
)

// Transform describes the inferred conversion for a field mapping. Config is
// opaque to the engine; export and execution layers interpret it.
type Transform struct {
	Kind   TransformKind     `json:"kind"`
	Config map[string]string `json:"config,omitempty"`
}

// EntityMapping is a directed source-entity to target-entity correspondence.
// At most one exists per source entity in a mapping run.
type EntityMapping struct {
	ID             string  `json:"id"`
	SourceEntityID string  `json:"source_entity_id"`
	TargetEntityID string  `json:"target_entity_id"`
	Confidence     float64 `json:"confidence"`
	Rationale      string  `json:"rationale,omitempty"`
}

// FieldMapping is a directed source-field to target-field correspondence.
// Confidence and status are mutated in place by successive stages; nothing
// is ever structurally removed (rejection is a status, not a deletion).
type FieldMapping struct {
	ID              string    `json:"id"`
	EntityMappingID string    `json:"entity_mapping_id"`
	SourceFieldID   string    `json:"source_field_id"`
	TargetFieldID   string    `json:"target_field_id"`
	Confidence      float64   `json:"confidence"`
	Rationale       string    `json:"rationale,omitempty"`
	Status          Status    `json:"status"`
	Transform       Transform `json:"transform"`
}

// Live reports whether the mapping still claims its target (accepted or
// suggested; rejected and modified mappings do not hold required fields).
func (m *FieldMapping) Live() bool {
	return m.Status == StatusAccepted || m.Status == StatusSuggested
}

// NewID mints a mapping id.
func NewID() string { return uuid.NewString() }
