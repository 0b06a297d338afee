package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const peopleYAML = `
criteria:
  - name: adults
    from: people
    fields: {age: int, name: string}
    filter: 'age >= 18 AND name != "bob"'
    order_by: name, age desc
    limit: 2
  - name: nicknamed
    from: people
    where:
      any:
        - {field: nick, op: is_null}
        - {field: nick, op: in, values: [bobby, rob]}
    order: [name, {field: age, direction: desc}]
`

func TestLoadYAML(t *testing.T) {
	defs, err := LoadYAML([]byte(peopleYAML))
	require.NoError(t, err)
	require.Len(t, defs, 2)

	adults := defs[0]
	assert.Equal(t, "adults", adults.Name)
	assert.Equal(t, map[string]string{"age": "int", "name": "string"}, adults.Fields)
	assert.Equal(t, `age >= 18 AND name != "bob"`, adults.Filter)
	assert.Equal(t, "name, age desc", adults.OrderBy)
	assert.Equal(t, 2, adults.Limit)
	assert.Equal(t, 3, adults.Line)

	nick := defs[1]
	require.NotNil(t, nick.Where)
	require.Len(t, nick.Where.Any, 2)
	assert.Equal(t, OpIsNull, nick.Where.Any[0].Op)
	assert.Equal(t, []any{"bobby", "rob"}, nick.Where.Any[1].Values)
	assert.Equal(t, []OrderTerm{{Field: "name"}, {Field: "age", Direction: "desc"}}, nick.Order)
}

func TestLoadYAMLJSON(t *testing.T) {
	defs, err := LoadYAML([]byte(`{"criteria": [{"name": "all", "from": "people", "where": {"field": "age", "op": ">", "value": 3}}]}`))
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, 3, defs[0].Where.Value)
}

func TestLoadYAMLErrors(t *testing.T) {
	testCases := map[string]string{
		"missing criteria": "other: 1\n",
		"unknown key":      "criteria:\n  - name: x\n    from: t\n    sort: name\n",
		"not yaml":         "criteria: [\n",
	}

	for name, src := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadYAML([]byte(src))
			assert.Error(t, err)
		})
	}
}

func TestLoadYAMLUnknownKeyReportsLine(t *testing.T) {
	_, err := LoadYAML([]byte("criteria:\n  - name: ok\n    from: t\n  - name: x\n    from: t\n    sort: name\n"))
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "criteria[1]", ce.Field)
	assert.Equal(t, 4, ce.Line)
	assert.Contains(t, err.Error(), "line 4")
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "people.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(peopleYAML), 0o644))
	defs, err := LoadFile(yamlPath)
	require.NoError(t, err)
	assert.Len(t, defs, 2)

	cuePath := filepath.Join(dir, "people.cue")
	require.NoError(t, os.WriteFile(cuePath, []byte(`criteria: a: from: "people"`), 0o644))
	defs, err = LoadFile(cuePath)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "a", defs[0].Name)

	_, err = LoadFile(filepath.Join(dir, "people.toml"))
	assert.Error(t, err)

	txtPath := filepath.Join(dir, "people.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("x"), 0o644))
	_, err = LoadFile(txtPath)
	assert.ErrorContains(t, err, "unsupported file type")
}
