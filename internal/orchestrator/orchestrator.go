// Package orchestrator sequences the stage agents over one mapping run.
// Agents execute strictly in roster order on a private snapshot; the only
// blocking calls are the reasoning-service boundary inside the proposal
// agent.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"schemabridge/internal/agent"
	"schemabridge/internal/mapping"
	"schemabridge/internal/matcher"
	"schemabridge/internal/refine"
	"schemabridge/internal/reasoning"
	"schemabridge/internal/schema"
)

// Input is the orchestration entrypoint contract. EntityMappings and
// FieldMappings may be empty, in which case the matcher seeds them from
// the catalog.
type Input struct {
	SourceSystemType schema.SystemType
	TargetSystemType schema.SystemType
	SourceEntities   []schema.Entity
	TargetEntities   []schema.Entity
	Fields           []schema.Field
	EntityMappings   []mapping.EntityMapping
	FieldMappings    []mapping.FieldMapping
	Provider         reasoning.Provider
	Sink             agent.StepSink
}

// Output aggregates one completed run.
type Output struct {
	UpdatedFieldMappings []mapping.FieldMapping  `json:"updated_field_mappings"`
	EntityMappings       []mapping.EntityMapping `json:"entity_mappings"`
	AgentsRun            []string                `json:"agents_run"`
	AllSteps             []agent.Step            `json:"all_steps"`
	ComplianceReport     *agent.ComplianceReport `json:"compliance_report,omitempty"`
	Refinement           *refine.Summary         `json:"refinement,omitempty"`
	DurationMs           int64                   `json:"duration_ms"`
}

// Orchestrator owns the fixed agent roster.
type Orchestrator struct {
	logger  *zap.Logger
	refiner *refine.Engine
	roster  []agent.Agent
}

// New creates an orchestrator with the standard roster: discovery,
// compliance, the three domain agents (gated by applicability), mapping
// proposal, validation.
func New(logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		logger:  logger,
		refiner: refine.NewEngine(logger),
		roster: []agent.Agent{
			&agent.SchemaDiscoveryAgent{},
			&agent.ComplianceAgent{},
			&agent.BankingDomainAgent{},
			&agent.CRMDomainAgent{},
			&agent.ERPDomainAgent{},
			&agent.MappingProposalAgent{},
		},
	}
}

// Run executes the pipeline over the input snapshot. Data-shape problems
// never abort the run; only missing schemas (a precondition failure) or
// context cancellation do.
func (o *Orchestrator) Run(ctx context.Context, in *Input) (*Output, error) {
	start := time.Now()
	if len(in.SourceEntities) == 0 || len(in.TargetEntities) == 0 {
		return nil, fmt.Errorf("cannot orchestrate mapping: no schemas loaded")
	}
	if len(in.Fields) == 0 {
		return nil, fmt.Errorf("cannot orchestrate mapping: schema has no fields")
	}

	entities := append([]schema.Entity{}, in.SourceEntities...)
	entities = append(entities, in.TargetEntities...)
	catalog := schema.NewCatalog(entities, in.Fields)

	ems := in.EntityMappings
	fms := in.FieldMappings
	if len(ems) == 0 {
		m := matcher.New(catalog, o.logger)
		ems = m.MatchEntities(in.SourceEntities, in.TargetEntities)
		for i := range ems {
			fms = append(fms, m.MatchFields(&ems[i])...)
		}
		o.logger.Info("matcher seeded mapping set",
			zap.Int("entity_mappings", len(ems)),
			zap.Int("field_mappings", len(fms)))
	}

	rc := agent.NewRunContext(in.SourceSystemType, in.TargetSystemType, catalog,
		ems, fms, in.Provider, in.Sink, o.logger)

	out := &Output{}
	for _, a := range o.roster {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("orchestration cancelled before %s: %w", a.Name(), err)
		}
		if !a.Applicable(rc) {
			o.logger.Debug("agent skipped", zap.String("agent", a.Name()))
			continue
		}
		res, err := a.Run(ctx, rc)
		if err != nil {
			return nil, fmt.Errorf("agent %s failed: %w", a.Name(), err)
		}
		rc.FieldMappings = res.FieldMappings
		out.AgentsRun = append(out.AgentsRun, a.Name())
		if res.Report != nil {
			out.ComplianceReport = res.Report
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("orchestration cancelled before refinement: %w", err)
	}
	summary, err := o.refiner.Run(ctx, rc, rc.Suggestions)
	if err != nil {
		return nil, fmt.Errorf("refinement failed: %w", err)
	}
	out.Refinement = summary

	validator := &agent.ValidationAgent{}
	res, err := validator.Run(ctx, rc)
	if err != nil {
		return nil, fmt.Errorf("agent %s failed: %w", validator.Name(), err)
	}
	rc.FieldMappings = res.FieldMappings
	out.AgentsRun = append(out.AgentsRun, validator.Name())

	// The early scan ran on the seed confidences; the report that ships
	// with the run reflects the refined mapping set.
	out.ComplianceReport = agent.BuildComplianceReport(catalog, rc.EntityMappings, rc.FieldMappings)

	out.UpdatedFieldMappings = rc.FieldMappings
	out.EntityMappings = rc.EntityMappings
	out.AllSteps = rc.Steps()
	out.DurationMs = time.Since(start).Milliseconds()
	o.logger.Info("orchestration complete",
		zap.Strings("agents_run", out.AgentsRun),
		zap.Int("mappings", len(out.UpdatedFieldMappings)),
		zap.Int64("duration_ms", out.DurationMs))
	return out, nil
}
