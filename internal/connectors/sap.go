package connectors

import (
	"context"

	"schemabridge/internal/schema"
)

// SAPConnector exposes the KNA1 customer master and KNVK contact partner
// tables with their technical field codes intact; the ERP domain agent owns
// the semantics of those codes.
type SAPConnector struct{}

func (c *SAPConnector) SystemType() schema.SystemType { return schema.SystemSAP }

func (c *SAPConnector) DiscoverEntities(ctx context.Context) ([]schema.Entity, []schema.Field, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	entities := []schema.Entity{
		{ID: "sap-kna1", SystemID: schema.SystemSAP, Name: "KNA1",
			Label: "Customer Master", Description: "General customer master data"},
		{ID: "sap-knvk", SystemID: schema.SystemSAP, Name: "KNVK",
			Label: "Contact Partner", Description: "Customer contact persons"},
	}
	fields := []schema.Field{
		{ID: "sap-kunnr", EntityID: "sap-kna1", Name: "KUNNR", Label: "Customer Number",
			Type: schema.TypeID, Length: 10, Required: true, IsKey: true},
		{ID: "sap-name1", EntityID: "sap-kna1", Name: "NAME1", Label: "Name 1",
			Type: schema.TypeString, Length: 35, Required: true},
		{ID: "sap-name2", EntityID: "sap-kna1", Name: "NAME2", Label: "Name 2",
			Type: schema.TypeString, Length: 35},
		{ID: "sap-stras", EntityID: "sap-kna1", Name: "STRAS", Label: "Street and House Number",
			Type: schema.TypeString, Length: 35},
		{ID: "sap-ort01", EntityID: "sap-kna1", Name: "ORT01", Label: "City",
			Type: schema.TypeString, Length: 35},
		{ID: "sap-pstlz", EntityID: "sap-kna1", Name: "PSTLZ", Label: "Postal Code",
			Type: schema.TypeString, Length: 10},
		{ID: "sap-stcd1", EntityID: "sap-kna1", Name: "STCD1", Label: "Tax Number 1",
			Type: schema.TypeString, Length: 16,
			ComplianceTags: []schema.ComplianceTag{schema.TagGLBANPI}},
		{ID: "sap-erdat", EntityID: "sap-kna1", Name: "ERDAT", Label: "Created On",
			Type: schema.TypeDate,
			ComplianceTags: []schema.ComplianceTag{schema.TagFFIECAudit}},
		{ID: "sap-aedat", EntityID: "sap-kna1", Name: "AEDAT", Label: "Changed On",
			Type: schema.TypeDate,
			ComplianceTags: []schema.ComplianceTag{schema.TagFFIECAudit}},

		{ID: "sap-parnr", EntityID: "sap-knvk", Name: "PARNR", Label: "Contact Partner Number",
			Type: schema.TypeID, Length: 10, Required: true, IsKey: true},
		{ID: "sap-knvk-name1", EntityID: "sap-knvk", Name: "NAME1", Label: "Name",
			Type: schema.TypeString, Length: 35},
		{ID: "sap-smtp", EntityID: "sap-knvk", Name: "SMTP_ADDR", Label: "E-Mail Address",
			Type: schema.TypeEmail, Length: 241,
			ComplianceTags: []schema.ComplianceTag{schema.TagGLBANPI}},
		{ID: "sap-tel", EntityID: "sap-knvk", Name: "TEL_NUMBER", Label: "Telephone Number",
			Type: schema.TypePhone, Length: 30},
		{ID: "sap-abtnr", EntityID: "sap-knvk", Name: "ABTNR", Label: "Department",
			Type:           schema.TypePicklist,
			PicklistValues: []string{"0001", "0002", "0003"}},
	}
	return entities, fields, nil
}
