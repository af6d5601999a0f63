// Package agent defines the stage-agent capability contract and the five
// pipeline agents: schema discovery, compliance, domain terminology,
// mapping proposal and validation. Agents are stateless per invocation;
// all run state lives in the RunContext snapshot.
package agent

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"schemabridge/internal/mapping"
	"schemabridge/internal/reasoning"
	"schemabridge/internal/schema"
)

// Step is the append-only observability record a stage emits. Steps are
// never mutated after emission; observers pattern-match on Action.
type Step struct {
	ID             string            `json:"id"`
	AgentName      string            `json:"agent_name"`
	Action         string            `json:"action"`
	Detail         string            `json:"detail,omitempty"`
	FieldMappingID string            `json:"field_mapping_id,omitempty"`
	Before         *float64          `json:"before,omitempty"`
	After          *float64          `json:"after,omitempty"`
	DurationMs     int64             `json:"duration_ms"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// StepSink receives steps in emission order, at least once per run.
type StepSink interface {
	Emit(step Step)
}

// SliceSink collects steps in order. Safe for concurrent emitters, though
// agents run sequentially within one orchestration.
type SliceSink struct {
	mu    sync.Mutex
	steps []Step
}

func (s *SliceSink) Emit(step Step) {
	s.mu.Lock()
	s.steps = append(s.steps, step)
	s.mu.Unlock()
}

// Steps returns a copy of the collected steps.
func (s *SliceSink) Steps() []Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Step, len(s.steps))
	copy(out, s.steps)
	return out
}

// ChannelSink forwards steps to a channel so a caller can drain them
// incrementally. Emit blocks when the channel is full rather than dropping
// or reordering; callers size the buffer for the run.
type ChannelSink struct {
	Ch chan Step
}

func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{Ch: make(chan Step, buffer)}
}

func (s *ChannelSink) Emit(step Step) { s.Ch <- step }

// FieldPurpose is the semantic classification the discovery agent assigns.
type FieldPurpose string

const (
	PurposeIdentifier   FieldPurpose = "identifier"
	PurposePIIPersonal  FieldPurpose = "pii_personal"
	PurposePIIContact   FieldPurpose = "pii_contact"
	PurposeFinancial    FieldPurpose = "financial"
	PurposeUnclassified FieldPurpose = "unclassified"
)

// Classification is the discovery agent's read-only annotation for a field.
// It is never persisted on the Field itself.
type Classification struct {
	Purpose       FieldPurpose `json:"purpose"`
	SemanticGroup string       `json:"semantic_group,omitempty"`
}

// RunContext is the private, fully materialized snapshot one orchestration
// run operates on. Callers must not share one instance across concurrent
// runs.
type RunContext struct {
	SourceSystem schema.SystemType
	TargetSystem schema.SystemType
	Catalog      *schema.Catalog

	EntityMappings []mapping.EntityMapping
	FieldMappings  []mapping.FieldMapping

	// Classifications is populated by the discovery agent and read by
	// later stages.
	Classifications map[string]Classification

	// Suggestions accumulates provider field suggestions gathered by the
	// proposal agent so the refinement engine can reassign conflicts on
	// the reasoning-service path. Nil on the heuristic path.
	Suggestions *reasoning.Suggestions

	Provider reasoning.Provider
	Logger   *zap.Logger

	sink  StepSink
	steps []Step
}

// NewRunContext builds a run snapshot. sink may be nil.
func NewRunContext(source, target schema.SystemType, catalog *schema.Catalog,
	ems []mapping.EntityMapping, fms []mapping.FieldMapping,
	provider reasoning.Provider, sink StepSink, logger *zap.Logger) *RunContext {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RunContext{
		SourceSystem:    source,
		TargetSystem:    target,
		Catalog:         catalog,
		EntityMappings:  ems,
		FieldMappings:   fms,
		Classifications: make(map[string]Classification),
		Provider:        provider,
		Logger:          logger,
		sink:            sink,
	}
}

// Emit records a step in order and forwards it to the sink, if any.
// The step id is minted here so agents never reuse one.
func (rc *RunContext) Emit(step Step) {
	if step.ID == "" {
		step.ID = uuid.NewString()
	}
	rc.steps = append(rc.steps, step)
	if rc.sink != nil {
		rc.sink.Emit(step)
	}
}

// Steps returns every step emitted so far, in order.
func (rc *RunContext) Steps() []Step { return rc.steps }

// Result is what an agent run produces. FieldMappings is the (possibly
// identical) mapping slice after the stage.
type Result struct {
	AgentName     string
	FieldMappings []mapping.FieldMapping
	TotalImproved int
	Report        *ComplianceReport // compliance agent only
}

// Agent is the stage capability contract. Applicable gates execution on
// the declared source/target system types only, never on the data.
type Agent interface {
	Name() string
	Applicable(rc *RunContext) bool
	Run(ctx context.Context, rc *RunContext) (*Result, error)
}

// floatPtr is a convenience for before/after confidence snapshots.
func floatPtr(v float64) *float64 { return &v }
