package connectors

import (
	"context"

	"schemabridge/internal/schema"
)

// SalesforceConnector exposes the standard Contact and Account objects plus
// the custom fields a financial-services org typically adds.
type SalesforceConnector struct{}

func (c *SalesforceConnector) SystemType() schema.SystemType { return schema.SystemSalesforce }

func (c *SalesforceConnector) DiscoverEntities(ctx context.Context) ([]schema.Entity, []schema.Field, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	entities := []schema.Entity{
		{ID: "sf-contact", SystemID: schema.SystemSalesforce, Name: "Contact",
			Label: "Contact", Description: "Standard Salesforce contact"},
		{ID: "sf-account", SystemID: schema.SystemSalesforce, Name: "Account",
			Label: "Account", Description: "Standard Salesforce account"},
	}
	fields := []schema.Field{
		{ID: "sf-contact-id", EntityID: "sf-contact", Name: "Id", Type: schema.TypeID,
			Required: true, IsKey: true},
		{ID: "sf-contact-first", EntityID: "sf-contact", Name: "FirstName", Label: "First Name",
			Type: schema.TypeString, Length: 40},
		{ID: "sf-contact-last", EntityID: "sf-contact", Name: "LastName", Label: "Last Name",
			Type: schema.TypeString, Length: 80, Required: true},
		{ID: "sf-contact-email", EntityID: "sf-contact", Name: "Email", Type: schema.TypeEmail,
			ComplianceTags: []schema.ComplianceTag{schema.TagGLBANPI}},
		{ID: "sf-contact-phone", EntityID: "sf-contact", Name: "Phone", Type: schema.TypePhone},
		{ID: "sf-contact-birth", EntityID: "sf-contact", Name: "Birthdate", Type: schema.TypeDate,
			ComplianceTags: []schema.ComplianceTag{schema.TagGLBANPI}},
		{ID: "sf-contact-street", EntityID: "sf-contact", Name: "MailingStreet",
			Label: "Mailing Street", Type: schema.TypeTextArea},
		{ID: "sf-contact-city", EntityID: "sf-contact", Name: "MailingCity",
			Label: "Mailing City", Type: schema.TypeString, Length: 40},
		{ID: "sf-contact-postal", EntityID: "sf-contact", Name: "MailingPostalCode",
			Label: "Mailing Zip/Postal Code", Type: schema.TypeString, Length: 20},
		{ID: "sf-contact-tax", EntityID: "sf-contact", Name: "TaxID__c", Label: "Tax ID",
			Type: schema.TypeString, Length: 11,
			ComplianceTags: []schema.ComplianceTag{schema.TagGLBANPI}},
		{ID: "sf-contact-member", EntityID: "sf-contact", Name: "MemberNumber__c",
			Label: "Member Number", Type: schema.TypeString, Length: 20, IsExternalID: true},
		{ID: "sf-contact-audit", EntityID: "sf-contact", Name: "AuditTrailId__c",
			Label: "Audit Trail ID", Type: schema.TypeString, Length: 36,
			ComplianceTags: []schema.ComplianceTag{schema.TagFFIECAudit}},

		{ID: "sf-account-id", EntityID: "sf-account", Name: "Id", Type: schema.TypeID,
			Required: true, IsKey: true},
		{ID: "sf-account-name", EntityID: "sf-account", Name: "Name", Label: "Account Name",
			Type: schema.TypeString, Length: 255, Required: true},
		{ID: "sf-account-num", EntityID: "sf-account", Name: "AccountNumber",
			Label: "Account Number", Type: schema.TypeString, Length: 40},
		{ID: "sf-account-type", EntityID: "sf-account", Name: "Type",
			Type:           schema.TypePicklist,
			PicklistValues: []string{"Regular", "Draft", "Certificate"}},
		{ID: "sf-account-balance", EntityID: "sf-account", Name: "Balance__c", Label: "Balance",
			Type: schema.TypeCurrency, Precision: 12, Scale: 2,
			ComplianceTags: []schema.ComplianceTag{schema.TagSOXFinancial}},
		{ID: "sf-account-rate", EntityID: "sf-account", Name: "InterestRate__c",
			Label: "Interest Rate", Type: schema.TypePercent, Precision: 6, Scale: 4},
		{ID: "sf-account-phone", EntityID: "sf-account", Name: "Phone", Type: schema.TypePhone},
		{ID: "sf-account-site", EntityID: "sf-account", Name: "Website", Type: schema.TypeURL},
		{ID: "sf-account-created", EntityID: "sf-account", Name: "CreatedDate",
			Type: schema.TypeDateTime},
		{ID: "sf-account-modified", EntityID: "sf-account", Name: "LastModifiedDate",
			Type: schema.TypeDateTime},
	}
	return entities, fields, nil
}
