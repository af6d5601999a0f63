package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"schemabridge/internal/schema"
	"schemabridge/internal/similarity"
)

// =============================================================================
// DOMAIN TERMINOLOGY AGENTS
// =============================================================================
//
// Each domain agent is a strict no-op (TotalImproved = 0, no steps beyond
// nothing) unless the run's declared system types match its domain. When
// applicable it consults a static technical-term table and nudges mapping
// confidence with clamped boosts, never a full reset.

// termRule adjusts confidence when a source term maps onto a target term.
// Negative boosts mark known cross-terminology traps.
type termRule struct {
	SourceTerm string
	TargetTerm string
	Boost      float64
	Reason     string
}

// bankingTermRules covers credit-union (Symitar) vs bank/CRM vocabulary.
var bankingTermRules = []termRule{
	{"LegalName", "Name", 0.15, "legal name is the member's CRM display name"},
	{"CIFNumber", "CustomerId", 0.12, "CIF number is the customer identifier"},
	{"ShareBalance", "Balance", 0.10, "share accounts are deposit balances"},
	{"DraftAccount", "CheckingAccount", 0.10, "credit-union draft account is a checking account"},
	{"MICRNumber", "RoutingNumber", 0.10, "MICR line carries the routing number"},
	// Credit unions pay dividends on shares; banks charge interest on
	// loans. A DividendRate mapped onto an InterestRate field is a known
	// cross-terminology error, not a synonym.
	{"DividendRate", "InterestRate", -0.20, "dividend rate is not a loan interest rate"},
	{"ShareDraft", "LoanAccount", -0.15, "share draft is a deposit product, not a loan"},
}

// crmTermRules normalizes common source vocabulary onto Salesforce targets.
var crmTermRules = []termRule{
	{"Surname", "LastName", 0.12, "surname is the Salesforce last name"},
	{"GivenName", "FirstName", 0.12, "given name is the Salesforce first name"},
	{"Organization", "Account", 0.10, "organizations land on Account"},
	{"Zip", "PostalCode", 0.10, "zip code is the Salesforce postal code"},
	{"HomePhone", "Phone", 0.08, "home phone folds into the primary phone"},
	{"Remarks", "Description", 0.08, "free-text remarks map to description"},
}

// sapFieldRule maps a SAP technical field code to its semantic purpose and
// the CRM target names it is expected to land on.
type sapFieldRule struct {
	Code            string
	Purpose         string
	ExpectedTargets []string
	Boost           float64
}

// sapFieldRules: the classic KNA1/KNVK customer-master codes.
var sapFieldRules = []sapFieldRule{
	{"KUNNR", "customer identifier", []string{"CustomerId", "AccountNumber", "Id"}, 0.15},
	{"NAME1", "primary name", []string{"Name", "LastName"}, 0.15},
	{"NAME2", "secondary name", []string{"Name", "FirstName"}, 0.12},
	{"SMTP_ADDR", "email address", []string{"Email"}, 0.15},
	{"TEL_NUMBER", "telephone", []string{"Phone", "MobilePhone"}, 0.12},
	{"STRAS", "street address", []string{"Street", "BillingStreet", "MailingStreet"}, 0.12},
	{"ORT01", "city", []string{"City", "BillingCity", "MailingCity"}, 0.12},
	{"PSTLZ", "postal code", []string{"PostalCode", "BillingPostalCode"}, 0.12},
	{"ERDAT", "created date", []string{"CreatedDate"}, 0.10},
	{"AEDAT", "last modified date", []string{"LastModifiedDate"}, 0.10},
}

// partialSAPBoostScale applies when the SAP code is recognized but the
// mapped target is not on the expected CRM list.
const partialSAPBoostScale = 0.4

// termMatches reports whether every token of term occurs in name.
func termMatches(name, term string) bool {
	nameTokens := similarity.Tokenize(name)
	set := make(map[string]bool, len(nameTokens))
	for _, t := range nameTokens {
		set[t] = true
	}
	termTokens := similarity.Tokenize(term)
	if len(termTokens) == 0 {
		return false
	}
	for _, t := range termTokens {
		if !set[t] {
			return false
		}
	}
	return true
}

// runTermRules applies a rule table to the run's field mappings and returns
// the number of mappings whose confidence improved.
func runTermRules(rc *RunContext, agentName string, rules []termRule) int {
	improved := 0
	for i := range rc.FieldMappings {
		fm := &rc.FieldMappings[i]
		src := rc.Catalog.Field(fm.SourceFieldID)
		tgt := rc.Catalog.Field(fm.TargetFieldID)
		if src == nil || tgt == nil {
			continue
		}
		for _, rule := range rules {
			if !termMatches(src.Name, rule.SourceTerm) || !termMatches(tgt.Name, rule.TargetTerm) {
				continue
			}
			before := fm.Confidence
			fm.Confidence = similarity.Clamp(fm.Confidence + rule.Boost)
			action := "term_boost"
			if rule.Boost < 0 {
				action = "term_penalty"
			} else if fm.Confidence > before {
				improved++
			}
			rc.Emit(Step{
				AgentName:      agentName,
				Action:         action,
				Detail:         fmt.Sprintf("%s -> %s: %s", src.Name, tgt.Name, rule.Reason),
				FieldMappingID: fm.ID,
				Before:         floatPtr(before),
				After:          floatPtr(fm.Confidence),
			})
			rc.Logger.Debug("domain term rule fired",
				zap.String("agent", agentName),
				zap.String("source", src.Name),
				zap.String("target", tgt.Name),
				zap.Float64("boost", rule.Boost))
		}
	}
	return improved
}

// BankingDomainAgent applies credit-union/bank terminology corrections.
// Applicable only when the source system is the Jack Henry core.
type BankingDomainAgent struct{}

func (a *BankingDomainAgent) Name() string { return "BankingDomainAgent" }

func (a *BankingDomainAgent) Applicable(rc *RunContext) bool {
	return rc.SourceSystem == schema.SystemJackHenry
}

func (a *BankingDomainAgent) Run(ctx context.Context, rc *RunContext) (*Result, error) {
	if !a.Applicable(rc) {
		return &Result{AgentName: a.Name(), FieldMappings: rc.FieldMappings, TotalImproved: 0}, nil
	}
	start := time.Now()
	improved := runTermRules(rc, a.Name(), bankingTermRules)
	rc.Emit(Step{
		AgentName:  a.Name(),
		Action:     "domain_summary",
		Detail:     fmt.Sprintf("banking terminology pass improved %d mappings", improved),
		DurationMs: time.Since(start).Milliseconds(),
	})
	return &Result{AgentName: a.Name(), FieldMappings: rc.FieldMappings, TotalImproved: improved}, nil
}

// CRMDomainAgent applies CRM-side terminology corrections. Applicable only
// when the target system is Salesforce.
type CRMDomainAgent struct{}

func (a *CRMDomainAgent) Name() string { return "CRMDomainAgent" }

func (a *CRMDomainAgent) Applicable(rc *RunContext) bool {
	return rc.TargetSystem == schema.SystemSalesforce
}

func (a *CRMDomainAgent) Run(ctx context.Context, rc *RunContext) (*Result, error) {
	if !a.Applicable(rc) {
		return &Result{AgentName: a.Name(), FieldMappings: rc.FieldMappings, TotalImproved: 0}, nil
	}
	start := time.Now()
	improved := runTermRules(rc, a.Name(), crmTermRules)
	rc.Emit(Step{
		AgentName:  a.Name(),
		Action:     "domain_summary",
		Detail:     fmt.Sprintf("CRM terminology pass improved %d mappings", improved),
		DurationMs: time.Since(start).Milliseconds(),
	})
	return &Result{AgentName: a.Name(), FieldMappings: rc.FieldMappings, TotalImproved: improved}, nil
}

// ERPDomainAgent recognizes SAP technical field codes. Applicable only when
// the source system is SAP.
type ERPDomainAgent struct{}

func (a *ERPDomainAgent) Name() string { return "ERPDomainAgent" }

func (a *ERPDomainAgent) Applicable(rc *RunContext) bool {
	return rc.SourceSystem == schema.SystemSAP
}

func (a *ERPDomainAgent) Run(ctx context.Context, rc *RunContext) (*Result, error) {
	if !a.Applicable(rc) {
		return &Result{AgentName: a.Name(), FieldMappings: rc.FieldMappings, TotalImproved: 0}, nil
	}
	start := time.Now()
	improved := 0
	for i := range rc.FieldMappings {
		fm := &rc.FieldMappings[i]
		src := rc.Catalog.Field(fm.SourceFieldID)
		tgt := rc.Catalog.Field(fm.TargetFieldID)
		if src == nil || tgt == nil {
			continue
		}
		for _, rule := range sapFieldRules {
			if !strings.EqualFold(src.Name, rule.Code) {
				continue
			}
			boost := rule.Boost * partialSAPBoostScale
			onExpected := false
			for _, expected := range rule.ExpectedTargets {
				if termMatches(tgt.Name, expected) {
					boost = rule.Boost
					onExpected = true
					break
				}
			}
			before := fm.Confidence
			fm.Confidence = similarity.Clamp(fm.Confidence + boost)
			if fm.Confidence > before {
				improved++
			}
			rc.Emit(Step{
				AgentName:      a.Name(),
				Action:         "term_boost",
				Detail:         fmt.Sprintf("%s (%s) -> %s (expected target: %v)", src.Name, rule.Purpose, tgt.Name, onExpected),
				FieldMappingID: fm.ID,
				Before:         floatPtr(before),
				After:          floatPtr(fm.Confidence),
			})
			break
		}
	}
	rc.Emit(Step{
		AgentName:  a.Name(),
		Action:     "domain_summary",
		Detail:     fmt.Sprintf("SAP field-code pass improved %d mappings", improved),
		DurationMs: time.Since(start).Milliseconds(),
	})
	return &Result{AgentName: a.Name(), FieldMappings: rc.FieldMappings, TotalImproved: improved}, nil
}
