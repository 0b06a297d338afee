package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/criteria/internal/compiler"
)

const grownupsCUE = `
criteria: grownups: {
	from: "people"
	fields: {age: int}
	filter: "age >= 18"
	order: ["age"]
}
`

const brokenYAML = `
criteria:
  - name: broken
    from: people
    order: [age]
    order_by: age
    limit: -1
`

func runValidateCommand(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestValidateValidDefinitions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "grownups.cue", grownupsCUE)
	writeFile(t, dir, "more/people.yaml", peopleCriteria)

	out, err := runValidateCommand(t, "text", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ All criteria valid (3)")
}

func TestValidateValidDefinitionsJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "grownups.cue", grownupsCUE)

	out, err := runValidateCommand(t, "json", path)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, 1, resp.Data.Definitions)
}

func TestValidateReportsAllErrors(t *testing.T) {
	path := writeFile(t, t.TempDir(), "broken.yaml", brokenYAML)

	out, err := runValidateCommand(t, "text", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "validation failed with 2 error(s)")

	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "line 3\n")
	assert.Contains(t, out, compiler.ErrConflictingClauses+": criteria[0].order: order and order_by are mutually exclusive")
	assert.Contains(t, out, compiler.ErrInvalidPaging+": criteria[0].limit: limit must be >= 0, got -1")
}

func TestValidateReportsAllErrorsJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "broken.yaml", brokenYAML)

	out, err := runValidateCommand(t, "json", path)
	require.Error(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.Len(t, resp.Data.Errors, 2)
	require.NotNil(t, resp.Error)
	assert.Equal(t, compiler.ErrConflictingClauses, resp.Error.Code)
}

func TestValidateDuplicateNamesAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", peopleCriteria)
	writeFile(t, dir, "b.yaml", peopleCriteria)

	out, err := runValidateCommand(t, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, compiler.ErrDuplicateName+": criteria[2].name")
	assert.Contains(t, out, compiler.ErrDuplicateName+": criteria[3].name")
}

func TestValidateCollectsLoadErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.cue", grownupsCUE)
	writeFile(t, dir, "b.yaml", "criteria:\n  - name: x\n    from: people\n    colour: red\n")

	out, err := runValidateCommand(t, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, ErrCodeLoadFailed)
	assert.Contains(t, out, "colour")
}

func TestValidateNonExistentPath(t *testing.T) {
	out, err := runValidateCommand(t, "text", "/nonexistent/directory/path")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNotFound)
	assert.Contains(t, out, "not found")
}

func TestValidateEmptyDirectory(t *testing.T) {
	_, err := runValidateCommand(t, "text", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNoFiles)
}

func TestValidateDefinitions_BuildsWhenValid(t *testing.T) {
	formatter := &OutputFormatter{Format: "text", Writer: &bytes.Buffer{}}
	defs := []compiler.Definition{
		{Name: "a", From: "people", OrderBy: "name"},
		{Name: "b", From: "people", Where: &compiler.Node{Field: "age", Op: compiler.OpIn, Values: []any{1, 2}}},
	}
	assert.Empty(t, ValidateDefinitions(defs, formatter))
}
