package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemabridge/internal/mapping"
	"schemabridge/internal/orchestrator"
	"schemabridge/internal/schema"
)

func openTestStore(t *testing.T) *RunStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleOutput() *orchestrator.Output {
	return &orchestrator.Output{
		UpdatedFieldMappings: []mapping.FieldMapping{
			{ID: "fm-1", SourceFieldID: "s-1", TargetFieldID: "t-1",
				Confidence: 0.82, Status: mapping.StatusSuggested},
			{ID: "fm-2", SourceFieldID: "s-2", TargetFieldID: "t-2",
				Confidence: 0.31, Status: mapping.StatusRejected},
		},
		AgentsRun:  []string{"SchemaDiscoveryAgent", "ValidationAgent"},
		DurationMs: 12,
	}
}

func TestSaveAndLoadRun(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.SaveRun(ctx, schema.SystemJackHenry, schema.SystemSalesforce, sampleOutput())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	run, err := s.LoadRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, schema.SystemJackHenry, run.SourceSystem)
	assert.Equal(t, schema.SystemSalesforce, run.TargetSystem)
	assert.Equal(t, 2, run.MappingCount)
	require.NotNil(t, run.Output)
	require.Len(t, run.Output.UpdatedFieldMappings, 2)
	assert.Equal(t, mapping.StatusRejected, run.Output.UpdatedFieldMappings[1].Status)
	assert.False(t, run.CreatedAt.IsZero())
}

func TestLoadUnknownRun(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	_, err := s.LoadRun(context.Background(), "no-such-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSaveNilOutput(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	_, err := s.SaveRun(context.Background(), schema.SystemSAP, schema.SystemSalesforce, nil)
	assert.Error(t, err)
}

func TestListRuns(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := s.SaveRun(ctx, schema.SystemSAP, schema.SystemSalesforce, sampleOutput())
		require.NoError(t, err)
	}

	runs, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	all, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	for _, r := range all {
		assert.Equal(t, 2, r.MappingCount)
	}
}

func TestDeleteRun(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()
	id, err := s.SaveRun(ctx, schema.SystemJackHenry, schema.SystemSalesforce, sampleOutput())
	require.NoError(t, err)

	require.NoError(t, s.DeleteRun(ctx, id))
	_, err = s.LoadRun(ctx, id)
	assert.Error(t, err)

	// Deleting again is a no-op.
	require.NoError(t, s.DeleteRun(ctx, id))
}

func TestReopenKeepsData(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "runs.db")
	s, err := Open(path)
	require.NoError(t, err)
	id, err := s.SaveRun(context.Background(), schema.SystemJackHenry, schema.SystemSalesforce, sampleOutput())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()
	run, err := reopened.LoadRun(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, run.ID)
}
