package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, dbPath string, extra ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	args := append([]string{"--db", dbPath, "--format", "json"}, extra...)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeCandidates(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "candidates.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const personCandidate = `{
	"kind": "person",
	"provenance": "census-1901",
	"entity": {
		"given_names": "John",
		"surname": "Smith",
		"birth": {"year": 1850, "month": 3, "day": 7}
	}
}`

func TestUpsertCommand_CreateThenReuse(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "lineage.db")
	input := writeCandidates(t, personCandidate)

	out, err := runCLI(t, dbPath, "upsert", input)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	// The same input file against the same database reuses.
	out, err = runCLI(t, dbPath, "upsert", input)
	require.NoError(t, err)
	assert.Contains(t, out, `"reuse"`)
}

func TestUpsertCommand_ArrayInput(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "lineage.db")
	input := writeCandidates(t, "["+personCandidate+`,
		{"kind": "place", "entity": {"name": "Boston", "country": "USA"}}]`)

	out, err := runCLI(t, dbPath, "upsert", input)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 2, "one JSON envelope per candidate")
}

func TestUpsertCommand_ExitCodes(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "lineage.db")

	// A resolved candidate (create) exits clean.
	input := writeCandidates(t, personCandidate)
	out, err := runCLI(t, dbPath, "upsert", input)
	require.NoError(t, err, "a created candidate must not fail the run")
	assert.Contains(t, out, `"create"`)

	// A blocked candidate exits 1: it never resolved to a handle.
	blocked := writeCandidates(t, `{
		"kind": "person",
		"entity": {
			"given_names": "John",
			"surname": "Smith",
			"birth": {"year": 1900},
			"death": {"year": 1850}
		}
	}`)
	out, err = runCLI(t, dbPath, "upsert", blocked)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, `"block"`)
}

func TestUpsertCommand_InvalidEntityFails(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "lineage.db")
	input := writeCandidates(t, `{"kind": "person", "entity": {}}`)

	out, err := runCLI(t, dbPath, "upsert", input)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, `"error"`)
}

func TestUpsertCommand_MalformedInput(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "lineage.db")
	input := writeCandidates(t, `not json`)

	_, err := runCLI(t, dbPath, "upsert", input)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestFactsListAndShow(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "lineage.db")
	input := writeCandidates(t, personCandidate)

	out, err := runCLI(t, dbPath, "upsert", input)
	require.NoError(t, err)

	var resp struct {
		Data struct {
			Result struct {
				Handle string `json:"handle"`
			} `json:"result"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	handle := resp.Data.Result.Handle
	require.NotEmpty(t, handle)

	out, err = runCLI(t, dbPath, "facts", "list")
	require.NoError(t, err)
	assert.Contains(t, out, handle)

	out, err = runCLI(t, dbPath, "facts", "show", handle)
	require.NoError(t, err)
	assert.Contains(t, out, `"versions"`)

	_, err = runCLI(t, dbPath, "facts", "show", "nonexistent")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestStatusCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "lineage.db")
	input := writeCandidates(t, personCandidate)

	out, err := runCLI(t, dbPath, "upsert", input)
	require.NoError(t, err)

	var resp struct {
		Data struct {
			Result struct {
				Handle string `json:"handle"`
			} `json:"result"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))

	out, err = runCLI(t, dbPath, "status", resp.Data.Result.Handle, "accepted")
	require.NoError(t, err)
	assert.Contains(t, out, `"accepted"`)

	_, err = runCLI(t, dbPath, "status", resp.Data.Result.Handle, "bogus")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSearchAndRebuild(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "lineage.db")
	input := writeCandidates(t, personCandidate)

	_, err := runCLI(t, dbPath, "upsert", input)
	require.NoError(t, err)

	out, err := runCLI(t, dbPath, "search", "smith")
	require.NoError(t, err)
	assert.Contains(t, out, `"person"`)

	out, err = runCLI(t, dbPath, "rebuild")
	require.NoError(t, err)
	assert.Contains(t, out, `"facts":1`)

	// Search still works against the rebuilt projection.
	out, err = runCLI(t, dbPath, "search", "smith")
	require.NoError(t, err)
	assert.Contains(t, out, `"person"`)
}

func TestConfigShow(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "lineage.db")

	out, err := runCLI(t, dbPath, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `"MergeThreshold"`)
}
