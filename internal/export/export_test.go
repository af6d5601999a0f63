package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemabridge/internal/mapping"
	"schemabridge/internal/orchestrator"
	"schemabridge/internal/schema"
)

func exportFixture() (*schema.Catalog, *orchestrator.Output) {
	entities := []schema.Entity{
		{ID: "src", SystemID: schema.SystemJackHenry, Name: "Member"},
		{ID: "tgt", SystemID: schema.SystemSalesforce, Name: "Contact"},
	}
	fields := []schema.Field{
		{ID: "s-tax", EntityID: "src", Name: "TaxID", Type: schema.TypeString,
			ComplianceTags: []schema.ComplianceTag{schema.TagGLBANPI}},
		{ID: "t-tax", EntityID: "tgt", Name: "TaxID__c", Type: schema.TypeString},
	}
	out := &orchestrator.Output{
		UpdatedFieldMappings: []mapping.FieldMapping{
			{ID: "fm-1", SourceFieldID: "s-tax", TargetFieldID: "t-tax",
				Confidence: 0.7825, Status: mapping.StatusSuggested,
				Transform: mapping.Transform{Kind: mapping.TransformTrim},
				Rationale: "name and type agree"},
		},
		AgentsRun: []string{"SchemaDiscoveryAgent", "ValidationAgent"},
	}
	return schema.NewCatalog(entities, fields), out
}

func TestJSONRoundTrips(t *testing.T) {
	t.Parallel()

	_, out := exportFixture()
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, out))

	var decoded orchestrator.Output
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded.UpdatedFieldMappings, 1)
	assert.Equal(t, "fm-1", decoded.UpdatedFieldMappings[0].ID)
	assert.Equal(t, out.AgentsRun, decoded.AgentsRun)
}

func TestCSVRows(t *testing.T) {
	t.Parallel()

	catalog, out := exportFixture()
	var buf bytes.Buffer
	require.NoError(t, CSV(&buf, catalog, out))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, csvHeader, records[0])
	row := records[1]
	assert.Equal(t, []string{"Member", "TaxID", "string", "Contact", "TaxID__c", "string"}, row[:6])
	assert.Equal(t, "0.7825", row[6])
	assert.Equal(t, "suggested", row[7])
	assert.Equal(t, "trim", row[8])
	assert.Equal(t, "GLBA_NPI", row[9])
}

func TestCSVKeepsDanglingMappings(t *testing.T) {
	t.Parallel()

	catalog, out := exportFixture()
	out.UpdatedFieldMappings = append(out.UpdatedFieldMappings, mapping.FieldMapping{
		ID: "fm-ghost", SourceFieldID: "gone", TargetFieldID: "t-tax",
		Confidence: 0.5, Status: mapping.StatusSuggested,
	})
	var buf bytes.Buffer
	require.NoError(t, CSV(&buf, catalog, out))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	// The unresolvable source keeps its id in the field column.
	assert.Equal(t, "gone", records[2][1])
}

func TestSaveWritesFile(t *testing.T) {
	t.Parallel()

	catalog, out := exportFixture()
	dir := t.TempDir()

	path, err := Save(dir, "json", catalog, out)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".json"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "fm-1")

	_, err = Save(dir, "xml", catalog, out)
	assert.Error(t, err)
}
