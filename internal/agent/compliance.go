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

// Compliance rule ids. Closed vocabulary; downstream reporting keys on
// these strings.
const (
	RuleBSAAuditTrailMissing = "BSA_AML_AUDIT_TRAIL_MISSING"
	RuleSOXLowConfidence     = "SOX_FINANCIAL_LOW_CONFIDENCE"
	RuleGLBATargetUntagged   = "GLBA_NPI_TARGET_UNTAGGED"
	RulePCITargetUnprotected = "PCI_CARD_TARGET_UNPROTECTED"
	RuleFFIECTrailIncomplete = "FFIEC_AUDIT_TRAIL_INCOMPLETE"
)

// SOX financial mappings below this confidence are flagged for manual
// review, never auto-rejected.
const soxLowConfidenceThreshold = 0.7

// IssueSeverity grades a compliance finding.
type IssueSeverity string

const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
)

// ComplianceIssue is one fired rule instance.
type ComplianceIssue struct {
	RuleID         string        `json:"rule_id"`
	Severity       IssueSeverity `json:"severity"`
	Message        string        `json:"message"`
	FieldMappingID string        `json:"field_mapping_id,omitempty"`
}

// ComplianceReport aggregates issues and summary counts. Derived and
// non-persistent: recomputed from the mapping set each orchestration run.
type ComplianceReport struct {
	Issues        []ComplianceIssue `json:"issues"`
	PIIFieldCount int               `json:"pii_field_count"`
	TotalErrors   int               `json:"total_errors"`
	TotalWarnings int               `json:"total_warnings"`
}

// ComplianceAgent runs the fixed regulatory rule table over every field
// mapping joined to its source/target fields. It never mutates mappings.
type ComplianceAgent struct{}

func (a *ComplianceAgent) Name() string { return "ComplianceAgent" }

func (a *ComplianceAgent) Applicable(rc *RunContext) bool { return true }

func (a *ComplianceAgent) Run(ctx context.Context, rc *RunContext) (*Result, error) {
	start := time.Now()
	report := BuildComplianceReport(rc.Catalog, rc.EntityMappings, rc.FieldMappings)

	for _, issue := range report.Issues {
		rc.Emit(Step{
			AgentName:      a.Name(),
			Action:         "compliance_issue",
			Detail:         fmt.Sprintf("[%s] %s", issue.RuleID, issue.Message),
			FieldMappingID: issue.FieldMappingID,
			Metadata:       map[string]string{"rule": issue.RuleID, "severity": string(issue.Severity)},
		})
	}
	rc.Emit(Step{
		AgentName: a.Name(),
		Action:    "compliance_summary",
		Detail: fmt.Sprintf("%d issues (%d errors, %d warnings), %d PII fields",
			len(report.Issues), report.TotalErrors, report.TotalWarnings, report.PIIFieldCount),
		DurationMs: time.Since(start).Milliseconds(),
	})
	rc.Logger.Info("compliance scan complete",
		zap.Int("issues", len(report.Issues)),
		zap.Int("errors", report.TotalErrors),
		zap.Int("pii_fields", report.PIIFieldCount))

	return &Result{
		AgentName:     a.Name(),
		FieldMappings: rc.FieldMappings,
		TotalImproved: 0,
		Report:        report,
	}, nil
}

// BuildComplianceReport is the pure rule evaluation; exported so the
// orchestrator can recompute the report on the refined mapping set without
// re-running the agent's step emission.
func BuildComplianceReport(catalog *schema.Catalog, ems []mapping.EntityMapping, fms []mapping.FieldMapping) *ComplianceReport {
	report := &ComplianceReport{}
	piiSources := map[string]bool{}
	sourceEntities := map[string]bool{}
	for i := range ems {
		sourceEntities[ems[i].SourceEntityID] = true
	}

	for i := range fms {
		fm := &fms[i]
		src := catalog.Field(fm.SourceFieldID)
		tgt := catalog.Field(fm.TargetFieldID)
		if src == nil || tgt == nil {
			continue // structural absence: defensive skip
		}

		if src.HasTag(schema.TagGLBANPI) {
			piiSources[src.ID] = true
			if !tgt.HasTag(schema.TagGLBANPI) {
				report.add(ComplianceIssue{
					RuleID:         RuleGLBATargetUntagged,
					Severity:       SeverityWarning,
					Message:        fmt.Sprintf("NPI field %q maps to target %q without a GLBA_NPI designation", src.Name, tgt.Name),
					FieldMappingID: fm.ID,
				})
			}
		}
		if src.HasTag(schema.TagPCICard) && !tgt.HasTag(schema.TagPCICard) {
			report.add(ComplianceIssue{
				RuleID:         RulePCITargetUnprotected,
				Severity:       SeverityError,
				Message:        fmt.Sprintf("card data field %q maps to unprotected target %q", src.Name, tgt.Name),
				FieldMappingID: fm.ID,
			})
		}
		if src.HasTag(schema.TagBSAAML) && !auditCapable(tgt) {
			report.add(ComplianceIssue{
				RuleID:         RuleBSAAuditTrailMissing,
				Severity:       SeverityError,
				Message:        fmt.Sprintf("AML field %q maps to target %q with no audit-capable designation", src.Name, tgt.Name),
				FieldMappingID: fm.ID,
			})
		}
		if src.HasTag(schema.TagSOXFinancial) && fm.Confidence < soxLowConfidenceThreshold {
			report.add(ComplianceIssue{
				RuleID:         RuleSOXLowConfidence,
				Severity:       SeverityWarning,
				Message:        fmt.Sprintf("SOX financial field %q mapped at confidence %.2f, flag for manual review", src.Name, fm.Confidence),
				FieldMappingID: fm.ID,
			})
		}
	}

	// FFIEC trail completeness: every FFIEC-tagged field on a source-side
	// entity needs a live mapping, even when the entity pair produced none.
	live := map[string]bool{}
	for i := range fms {
		if fms[i].Live() {
			live[fms[i].SourceFieldID] = true
		}
	}
	for _, f := range catalog.Fields() {
		if f.HasTag(schema.TagFFIECAudit) && !live[f.ID] && sourceEntities[f.EntityID] {
			report.add(ComplianceIssue{
				RuleID:   RuleFFIECTrailIncomplete,
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("audit field %q has no live mapping; trail incomplete", f.Name),
			})
		}
	}

	report.PIIFieldCount = len(piiSources)
	return report
}

func (r *ComplianceReport) add(issue ComplianceIssue) {
	r.Issues = append(r.Issues, issue)
	switch issue.Severity {
	case SeverityError:
		r.TotalErrors++
	case SeverityWarning:
		r.TotalWarnings++
	}
}

// auditCapable reports whether a target field can carry an audit trail:
// tagged FFIEC_AUDIT or named like one.
func auditCapable(f *schema.Field) bool {
	if f.HasTag(schema.TagFFIECAudit) {
		return true
	}
	for _, t := range similarity.Tokenize(f.DisplayName()) {
		switch t {
		case "audit", "history", "log", "trail":
			return true
		}
	}
	return false
}
