// Package export renders a finished orchestration run for downstream
// consumers: JSON for machine handoff, CSV for the mapping review
// spreadsheet the business side actually works in.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"schemabridge/internal/orchestrator"
	"schemabridge/internal/schema"
)

// JSON writes the full run output as indented JSON.
func JSON(w io.Writer, out *orchestrator.Output) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode run output: %w", err)
	}
	return nil
}

var csvHeader = []string{
	"source_entity", "source_field", "source_type",
	"target_entity", "target_field", "target_type",
	"confidence", "status", "transform", "compliance_tags", "rationale",
}

// CSV writes one row per field mapping. Mappings whose endpoints are
// missing from the catalog are emitted with blank names rather than
// dropped; the review sheet should show everything the run produced.
func CSV(w io.Writer, catalog *schema.Catalog, out *orchestrator.Output) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for i := range out.UpdatedFieldMappings {
		fm := &out.UpdatedFieldMappings[i]
		row := make([]string, 0, len(csvHeader))
		row = append(row, fieldColumns(catalog, fm.SourceFieldID)...)
		row = append(row, fieldColumns(catalog, fm.TargetFieldID)...)
		row = append(row,
			strconv.FormatFloat(fm.Confidence, 'f', 4, 64),
			string(fm.Status),
			string(fm.Transform.Kind),
			tagColumn(catalog, fm.SourceFieldID),
			fm.Rationale,
		)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

func fieldColumns(catalog *schema.Catalog, fieldID string) []string {
	f := catalog.Field(fieldID)
	if f == nil {
		return []string{"", fieldID, ""}
	}
	entityName := ""
	if e := catalog.Entity(f.EntityID); e != nil {
		entityName = e.Name
	}
	return []string{entityName, f.Name, string(f.Type)}
}

func tagColumn(catalog *schema.Catalog, fieldID string) string {
	f := catalog.Field(fieldID)
	if f == nil || len(f.ComplianceTags) == 0 {
		return ""
	}
	tags := make([]string, len(f.ComplianceTags))
	for i, t := range f.ComplianceTags {
		tags[i] = string(t)
	}
	return strings.Join(tags, ";")
}

// Save writes the run to dir in the given format ("json" or "csv") with a
// timestamped filename and returns the path.
func Save(dir, format string, catalog *schema.Catalog, out *orchestrator.Output) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	name := fmt.Sprintf("mapping-run-%s.%s", time.Now().UTC().Format("20060102-150405"), format)
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	switch format {
	case "json":
		err = JSON(f, out)
	case "csv":
		err = CSV(f, catalog, out)
	default:
		err = fmt.Errorf("unknown export format %q", format)
	}
	if err != nil {
		return "", err
	}
	return path, nil
}
