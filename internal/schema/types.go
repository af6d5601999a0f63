// Package schema defines the immutable entity/field catalog shared by every
// pipeline stage. Entities and fields are discovered once per run and are
// read-only afterwards; all mutation happens on the mapping set, never here.
package schema

import "strings"

// SystemType identifies a connected enterprise system.
type SystemType string

const (
	SystemJackHenry  SystemType = "jackhenry"  // core banking (Jack Henry Symitar)
	SystemSalesforce SystemType = "salesforce" // CRM
	SystemSAP        SystemType = "sap"        // ERP
)

// DataType is the closed type vocabulary for fields. The trailing entries
// (textarea, url, percent, currency, multipicklist) only occur on target
// schemas and in the compatibility table; connectors never emit them as
// source types.
type DataType string

const (
	TypeString        DataType = "string"
	TypeText          DataType = "text"
	TypeInteger       DataType = "integer"
	TypeDecimal       DataType = "decimal"
	TypeBoolean       DataType = "boolean"
	TypeDate          DataType = "date"
	TypeDateTime      DataType = "datetime"
	TypePicklist      DataType = "picklist"
	TypeEmail         DataType = "email"
	TypePhone         DataType = "phone"
	TypeID            DataType = "id"
	TypeReference     DataType = "reference"
	TypeUnknown       DataType = "unknown"
	TypeTextArea      DataType = "textarea"
	TypeURL           DataType = "url"
	TypePercent       DataType = "percent"
	TypeCurrency      DataType = "currency"
	TypeMultiPicklist DataType = "multipicklist"
)

// ComplianceTag marks a field's regulatory sensitivity.
type ComplianceTag string

const (
	TagGLBANPI      ComplianceTag = "GLBA_NPI"      // Gramm-Leach-Bliley nonpublic personal info
	TagPCICard      ComplianceTag = "PCI_CARD"      // payment card data
	TagSOXFinancial ComplianceTag = "SOX_FINANCIAL" // Sarbanes-Oxley financial reporting
	TagBSAAML       ComplianceTag = "BSA_AML"       // Bank Secrecy Act / anti-money-laundering
	TagFFIECAudit   ComplianceTag = "FFIEC_AUDIT"   // FFIEC audit trail
)

// Entity is a logical record type (table/object) in one system.
type Entity struct {
	ID          string     `json:"id"`
	SystemID    SystemType `json:"system_id"`
	Name        string     `json:"name"`
	Label       string     `json:"label,omitempty"`
	Description string     `json:"description,omitempty"`
}

// Field is a data element of an Entity.
type Field struct {
	ID             string          `json:"id"`
	EntityID       string          `json:"entity_id"`
	Name           string          `json:"name"`
	Label          string          `json:"label,omitempty"`
	Type           DataType        `json:"type"`
	Length         int             `json:"length,omitempty"`
	Precision      int             `json:"precision,omitempty"`
	Scale          int             `json:"scale,omitempty"`
	Required       bool            `json:"required,omitempty"`
	IsKey          bool            `json:"is_key,omitempty"`
	IsExternalID   bool            `json:"is_external_id,omitempty"`
	PicklistValues []string        `json:"picklist_values,omitempty"`
	ComplianceTags []ComplianceTag `json:"compliance_tags,omitempty"`
	ComplianceNote string          `json:"compliance_note,omitempty"`
}

// HasTag reports whether the field carries the given compliance tag.
func (f *Field) HasTag(tag ComplianceTag) bool {
	for _, t := range f.ComplianceTags {
		if t == tag {
			return true
		}
	}
	return false
}

// DisplayName returns name plus label when a label adds information.
func (f *Field) DisplayName() string {
	if f.Label == "" || strings.EqualFold(f.Label, f.Name) {
		return f.Name
	}
	return f.Name + " " + f.Label
}

// Catalog is the per-run snapshot of discovered entities and fields,
// indexed by id. Built once before orchestration; read-only afterwards.
type Catalog struct {
	entities map[string]*Entity
	fields   map[string]*Field
	byEntity map[string][]*Field
}

// NewCatalog indexes the supplied entities and fields. The slices are not
// copied; callers must not mutate them after handing them over.
func NewCatalog(entities []Entity, fields []Field) *Catalog {
	c := &Catalog{
		entities: make(map[string]*Entity, len(entities)),
		fields:   make(map[string]*Field, len(fields)),
		byEntity: make(map[string][]*Field),
	}
	for i := range entities {
		e := &entities[i]
		c.entities[e.ID] = e
	}
	for i := range fields {
		f := &fields[i]
		c.fields[f.ID] = f
		c.byEntity[f.EntityID] = append(c.byEntity[f.EntityID], f)
	}
	return c
}

// Entity returns the entity with the given id, or nil.
func (c *Catalog) Entity(id string) *Entity { return c.entities[id] }

// Field returns the field with the given id, or nil.
func (c *Catalog) Field(id string) *Field { return c.fields[id] }

// EntityFields returns the fields belonging to an entity, in discovery order.
func (c *Catalog) EntityFields(entityID string) []*Field { return c.byEntity[entityID] }

// Fields returns every field in the catalog. Order is not defined.
func (c *Catalog) Fields() []*Field {
	out := make([]*Field, 0, len(c.fields))
	for _, f := range c.fields {
		out = append(out, f)
	}
	return out
}

// FieldCount returns the number of fields in the catalog.
func (c *Catalog) FieldCount() int { return len(c.fields) }
