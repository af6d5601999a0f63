package connectors

import (
	"context"

	"schemabridge/internal/schema"
)

// JackHenryConnector exposes the Symitar core-banking member and share
// catalogs, compliance-tagged the way an examiner expects them.
type JackHenryConnector struct{}

func (c *JackHenryConnector) SystemType() schema.SystemType { return schema.SystemJackHenry }

func (c *JackHenryConnector) DiscoverEntities(ctx context.Context) ([]schema.Entity, []schema.Field, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	entities := []schema.Entity{
		{ID: "jh-member", SystemID: schema.SystemJackHenry, Name: "Member",
			Label: "Member Record", Description: "Credit union member master record"},
		{ID: "jh-share", SystemID: schema.SystemJackHenry, Name: "ShareAccount",
			Label: "Share Account", Description: "Deposit (share) account"},
	}
	fields := []schema.Field{
		{ID: "jh-member-num", EntityID: "jh-member", Name: "MemberNumber", Label: "Member Number",
			Type: schema.TypeID, Required: true, IsKey: true},
		{ID: "jh-member-legal", EntityID: "jh-member", Name: "LegalName", Label: "Legal Name",
			Type: schema.TypeString, Length: 80, Required: true,
			ComplianceTags: []schema.ComplianceTag{schema.TagGLBANPI}},
		{ID: "jh-member-tax", EntityID: "jh-member", Name: "TaxID", Label: "Tax Identification Number",
			Type: schema.TypeString, Length: 11,
			ComplianceTags: []schema.ComplianceTag{schema.TagGLBANPI},
			ComplianceNote: "SSN/TIN; never leaves the core unredacted"},
		{ID: "jh-member-dob", EntityID: "jh-member", Name: "BirthDate", Label: "Date of Birth",
			Type: schema.TypeDate,
			ComplianceTags: []schema.ComplianceTag{schema.TagGLBANPI}},
		{ID: "jh-member-email", EntityID: "jh-member", Name: "EmailAddress", Label: "Email Address",
			Type: schema.TypeEmail,
			ComplianceTags: []schema.ComplianceTag{schema.TagGLBANPI}},
		{ID: "jh-member-phone", EntityID: "jh-member", Name: "HomePhone", Label: "Home Phone",
			Type: schema.TypePhone},
		{ID: "jh-member-street", EntityID: "jh-member", Name: "StreetAddress", Label: "Street Address",
			Type: schema.TypeString, Length: 120},
		{ID: "jh-member-city", EntityID: "jh-member", Name: "City", Type: schema.TypeString, Length: 40},
		{ID: "jh-member-zip", EntityID: "jh-member", Name: "ZipCode", Label: "ZIP Code",
			Type: schema.TypeString, Length: 10},
		{ID: "jh-member-open", EntityID: "jh-member", Name: "OpenDate", Label: "Membership Open Date",
			Type: schema.TypeDate,
			ComplianceTags: []schema.ComplianceTag{schema.TagFFIECAudit}},
		{ID: "jh-member-card", EntityID: "jh-member", Name: "DebitCardNumber", Label: "Debit Card Number",
			Type: schema.TypeString, Length: 19,
			ComplianceTags: []schema.ComplianceTag{schema.TagPCICard},
			ComplianceNote: "PAN; PCI DSS scope"},

		{ID: "jh-share-id", EntityID: "jh-share", Name: "ShareID", Label: "Share ID",
			Type: schema.TypeID, Required: true, IsKey: true},
		{ID: "jh-share-member", EntityID: "jh-share", Name: "MemberNumber", Label: "Member Number",
			Type: schema.TypeReference, Required: true},
		{ID: "jh-share-type", EntityID: "jh-share", Name: "ShareType", Label: "Share Type",
			Type:           schema.TypePicklist,
			PicklistValues: []string{"Regular", "Draft", "Certificate", "MoneyMarket"}},
		{ID: "jh-share-balance", EntityID: "jh-share", Name: "ShareBalance", Label: "Current Balance",
			Type: schema.TypeDecimal, Precision: 12, Scale: 2,
			ComplianceTags: []schema.ComplianceTag{schema.TagSOXFinancial}},
		{ID: "jh-share-div", EntityID: "jh-share", Name: "DividendRate", Label: "Dividend Rate",
			Type: schema.TypeDecimal, Precision: 6, Scale: 4,
			ComplianceTags: []schema.ComplianceTag{schema.TagSOXFinancial}},
		{ID: "jh-share-micr", EntityID: "jh-share", Name: "MICRNumber", Label: "MICR Number",
			Type: schema.TypeString, Length: 20,
			ComplianceTags: []schema.ComplianceTag{schema.TagBSAAML}},
		{ID: "jh-share-lasttxn", EntityID: "jh-share", Name: "LastTransactionDate",
			Label: "Last Transaction Date", Type: schema.TypeDateTime,
			ComplianceTags: []schema.ComplianceTag{schema.TagBSAAML, schema.TagFFIECAudit}},
	}
	return entities, fields, nil
}
