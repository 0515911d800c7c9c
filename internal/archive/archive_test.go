package archive

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Archive {
	t.Helper()
	a, err := Open(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestOpenConfiguresConnection(t *testing.T) {
	a := openTemp(t)
	assert.NoError(t, a.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, a.verifyPragma("foreign_keys", "1"))
	assert.NoError(t, a.verifyPragma("user_version", "1"))
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")
	a, err := Open(path)
	require.NoError(t, err)

	_, err = a.RecordRun(context.Background(), Run{
		Direction:   DirectionImport,
		Fingerprint: "abc",
		Source:      "OPENQASM 3.0;",
		Output:      "{}",
	})
	require.NoError(t, err)
	require.NoError(t, a.Close())

	// Reopening must keep the data and reapply schema without error.
	a, err = Open(path)
	require.NoError(t, err)
	defer a.Close()

	runs, err := a.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestRecordRunAssignsToken(t *testing.T) {
	a := openTemp(t)

	run, err := a.RecordRun(context.Background(), Run{
		Direction:   DirectionExport,
		Fingerprint: "fp1",
		Source:      "{}",
		Output:      "OPENQASM 3.0;",
		Options:     `{"disableConstants":true}`,
	})
	require.NoError(t, err)
	require.NotEmpty(t, run.Token)
	_, err = uuid.Parse(run.Token)
	assert.NoError(t, err)

	got, found, err := a.FindRun(context.Background(), run.Token)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, DirectionExport, got.Direction)
	assert.Equal(t, "fp1", got.Fingerprint)
	assert.Equal(t, "OPENQASM 3.0;", got.Output)
	assert.NotEmpty(t, got.CreatedAt)
}

func TestRecordRunIdempotentOnToken(t *testing.T) {
	a := openTemp(t)
	ctx := context.Background()

	token := uuid.NewString()
	_, err := a.RecordRun(ctx, Run{
		Token: token, Direction: DirectionImport, Fingerprint: "fp", Source: "a", Output: "b",
	})
	require.NoError(t, err)

	// Second write with the same token is silently ignored.
	_, err = a.RecordRun(ctx, Run{
		Token: token, Direction: DirectionImport, Fingerprint: "fp", Source: "other", Output: "other",
	})
	require.NoError(t, err)

	got, found, err := a.FindRun(ctx, token)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "a", got.Source)

	runs, err := a.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestRecordRunRejectsBadDirection(t *testing.T) {
	a := openTemp(t)
	_, err := a.RecordRun(context.Background(), Run{Direction: "sideways"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid direction")
}

func TestRunsByFingerprintOrdered(t *testing.T) {
	a := openTemp(t)
	ctx := context.Background()

	for i, dir := range []string{DirectionImport, DirectionExport, DirectionImport} {
		fp := "shared"
		if i == 2 {
			fp = "other"
		}
		_, err := a.RecordRun(ctx, Run{Direction: dir, Fingerprint: fp, Source: "s", Output: "o"})
		require.NoError(t, err)
	}

	runs, err := a.RunsByFingerprint(ctx, "shared")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, DirectionImport, runs[0].Direction)
	assert.Equal(t, DirectionExport, runs[1].Direction)
	assert.Less(t, runs[0].ID, runs[1].ID)
}

func TestFindRunMissing(t *testing.T) {
	a := openTemp(t)
	_, found, err := a.FindRun(context.Background(), uuid.NewString())
	require.NoError(t, err)
	assert.False(t, found)
}

func TestListRunsLimit(t *testing.T) {
	a := openTemp(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := a.RecordRun(ctx, Run{Direction: DirectionImport, Fingerprint: "fp", Source: "s", Output: "o"})
		require.NoError(t, err)
	}

	runs, err := a.ListRuns(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}
