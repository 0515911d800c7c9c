package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qbridge-dev/qbridge/internal/archive"
	"github.com/qbridge-dev/qbridge/internal/ir"
)

func TestConvertBell(t *testing.T) {
	src := writeTempFile(t, "bell.qasm", bellSource)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewConvertCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{src})

	require.NoError(t, cmd.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result ConvertResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, 4, result.Instructions)
	assert.NotEmpty(t, result.Fingerprint)

	var circ ir.Circuit
	require.NoError(t, json.Unmarshal(result.Circuit, &circ))
	assert.Len(t, circ.Registers, 2)
	assert.Len(t, circ.Instructions, 4)
}

func TestConvertTextOutput(t *testing.T) {
	src := writeTempFile(t, "bell.qasm", bellSource)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewConvertCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{src})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), `"registers"`)
	assert.Contains(t, buf.String(), "fingerprint: ")
}

func TestConvertMissingFile(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewConvertCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "absent.qasm")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "E_IMPORT")
}

func TestConvertParseFailure(t *testing.T) {
	src := writeTempFile(t, "bad.qasm", "OPENQASM 3.0;\nqubit[2] q\nh q[0];\n")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewConvertCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{src})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestConvertWithCustomGates(t *testing.T) {
	gatesFile := writeTempFile(t, "gates.cue", "gates: {\n\tiswap: { qubits: 2 }\n}\n")
	src := writeTempFile(t, "iswap.qasm", `OPENQASM 3.0;
qubit[2] q;
iswap q[0], q[1];
`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewConvertCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{src, "--gates", gatesFile})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), `"iswap"`)
}

func TestConvertRecordsRun(t *testing.T) {
	src := writeTempFile(t, "bell.qasm", bellSource)
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewConvertCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{src, "--archive", dbPath})

	require.NoError(t, cmd.Execute())

	arc, err := archive.Open(dbPath)
	require.NoError(t, err)
	defer arc.Close()

	runs, err := arc.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, archive.DirectionImport, runs[0].Direction)
	assert.Equal(t, bellSource, runs[0].Source)
	assert.NotEmpty(t, runs[0].Fingerprint)
}
