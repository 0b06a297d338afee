package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_ValidFile(t *testing.T) {
	dir := t.TempDir()
	scenarioPath := filepath.Join(dir, "test.yaml")

	content := `
name: test_scenario
description: "Test scenario for validation"
collection: people
records:
  - {name: ada, age: 36}
  - {name: alan, address: {city: london}}
criteria:
  where: {field: age, op: ">", value: 18}
  order: [name]
expect:
  ids: [r1]
`
	require.NoError(t, os.WriteFile(scenarioPath, []byte(content), 0644))

	scenario, err := LoadScenario(scenarioPath)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "Test scenario for validation", scenario.Description)
	assert.Len(t, scenario.Records, 2)
	assert.Equal(t, "ada", scenario.Records[0]["name"])
	assert.Equal(t, 36, scenario.Records[0]["age"])

	// Name and from default to the scenario.
	assert.Equal(t, "test_scenario", scenario.Criteria.Name)
	assert.Equal(t, "people", scenario.Criteria.From)
	require.NotNil(t, scenario.Criteria.Where)
	assert.Equal(t, ">", scenario.Criteria.Where.Op)
	assert.Equal(t, []string{"r1"}, scenario.Expect.IDs)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/path/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "unknown field",
			content: `
name: typo
description: d
collection: people
expects:
  ids: []
`,
			wantErr: "failed to parse YAML",
		},
		{
			name: "missing name",
			content: `
description: d
collection: people
expect:
  ids: []
`,
			wantErr: "name is required",
		},
		{
			name: "missing description",
			content: `
name: n
collection: people
expect:
  ids: []
`,
			wantErr: "description is required",
		},
		{
			name: "missing collection",
			content: `
name: n
description: d
expect:
  ids: []
`,
			wantErr: "collection is required",
		},
		{
			name: "from mismatch",
			content: `
name: n
description: d
collection: people
criteria:
  from: places
expect:
  ids: []
`,
			wantErr: `criteria.from "places" must match collection "people"`,
		},
		{
			name: "missing ids",
			content: `
name: n
description: d
collection: people
expect: {}
`,
			wantErr: "expect.ids is required",
		},
		{
			name: "null record",
			content: `
name: n
description: d
collection: people
records:
  - null
expect:
  ids: []
`,
			wantErr: "records[0]: must be an object",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenarios_SortedByFileName(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b", "a"} {
		content := "name: " + name + "\ndescription: d\ncollection: c\nexpect:\n  ids: []\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".yaml"), []byte(content), 0644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	scenarios, err := LoadScenarios(dir)
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	assert.Equal(t, "a", scenarios[0].Name)
	assert.Equal(t, "b", scenarios[1].Name)
}

func TestLoadScenarios_ReportsFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("name: x\n"), 0644))

	_, err := LoadScenarios(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.yaml")
}

func TestRecordID(t *testing.T) {
	assert.Equal(t, "r1", RecordID(0))
	assert.Equal(t, "r12", RecordID(11))
}
