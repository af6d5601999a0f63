package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCatalogLookup(t *testing.T) {
	t.Parallel()

	entities := []Entity{
		{ID: "e1", SystemID: SystemJackHenry, Name: "Member"},
		{ID: "e2", SystemID: SystemSalesforce, Name: "Contact"},
	}
	fields := []Field{
		{ID: "f1", EntityID: "e1", Name: "MemberNumber", Type: TypeID},
		{ID: "f2", EntityID: "e1", Name: "LegalName", Type: TypeString},
		{ID: "f3", EntityID: "e2", Name: "Name", Type: TypeString},
	}
	c := NewCatalog(entities, fields)

	assert.Equal(t, "Member", c.Entity("e1").Name)
	assert.Nil(t, c.Entity("nope"))
	assert.Equal(t, "LegalName", c.Field("f2").Name)
	assert.Nil(t, c.Field("nope"))
	assert.Equal(t, 3, c.FieldCount())

	e1Fields := c.EntityFields("e1")
	assert.Len(t, e1Fields, 2)
	// Discovery order is preserved per entity.
	assert.Equal(t, "f1", e1Fields[0].ID)
	assert.Empty(t, c.EntityFields("e3"))
}

func TestFieldHasTag(t *testing.T) {
	t.Parallel()

	f := Field{ComplianceTags: []ComplianceTag{TagGLBANPI, TagSOXFinancial}}
	assert.True(t, f.HasTag(TagGLBANPI))
	assert.True(t, f.HasTag(TagSOXFinancial))
	assert.False(t, f.HasTag(TagPCICard))
}

func TestFieldDisplayName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "KUNNR Customer Number",
		(&Field{Name: "KUNNR", Label: "Customer Number"}).DisplayName())
	assert.Equal(t, "Email", (&Field{Name: "Email", Label: "email"}).DisplayName())
	assert.Equal(t, "Phone", (&Field{Name: "Phone"}).DisplayName())
}
