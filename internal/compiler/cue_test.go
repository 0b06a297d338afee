package compiler

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileDefinitionBasic(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		criteria: adults: {
			from: "people"
			fields: {
				name: "string"
				age: int
				"address.city": string
			}
			where: all: [
				{field: "age", op: ">=", value: 18},
				{not: {field: "name", op: "in", values: ["bob", "eve"]}},
			]
			order: [{field: "name"}, {field: "age", direction: "desc"}]
			limit: 10
			offset: 1
		}
	`)

	require.NoError(t, v.Err())
	def, err := CompileDefinition(v.LookupPath(cue.ParsePath("criteria.adults")))
	require.NoError(t, err)

	assert.Equal(t, "adults", def.Name)
	assert.Equal(t, "people", def.From)
	assert.Equal(t, map[string]string{"name": "string", "age": "int", "address.city": "string"}, def.Fields)
	require.NotNil(t, def.Where)
	require.Len(t, def.Where.All, 2)
	assert.Equal(t, Node{Field: "age", Op: ">=", Value: int64(18)}, def.Where.All[0])
	assert.Equal(t, []any{"bob", "eve"}, def.Where.All[1].Not.Values)
	assert.Equal(t, []OrderTerm{{Field: "name"}, {Field: "age", Direction: "desc"}}, def.Order)
	assert.Equal(t, 10, def.Limit)
	assert.Equal(t, 1, def.Offset)
	assert.True(t, def.Pos.IsValid())
}

func TestCompileDefinitionExplicitName(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		criteria: x: {
			name: "renamed"
			from: "people"
			filter: "age > 3"
			order_by: "age desc"
			order: ["name"]
		}
	`)

	def, err := CompileDefinition(v.LookupPath(cue.ParsePath("criteria.x")))
	require.NoError(t, err)
	assert.Equal(t, "renamed", def.Name)
	assert.Equal(t, "age > 3", def.Filter)
	assert.Equal(t, "age desc", def.OrderBy)
	assert.Equal(t, []OrderTerm{{Field: "name"}}, def.Order)
}

func TestCompileDefinitionMissingFrom(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		criteria: nowhere: {
			limit: 3
		}
	`)

	_, err := CompileDefinition(v.LookupPath(cue.ParsePath("criteria.nowhere")))
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "nowhere", ce.Name)
	assert.Equal(t, "from", ce.Field)
	assert.Contains(t, err.Error(), "required")
}

func TestCompileDefinitionRejectsFloats(t *testing.T) {
	testCases := map[string]string{
		"float kind":  `criteria: c: { from: "t", fields: { price: float } }`,
		"float value": `criteria: c: { from: "t", where: { field: "price", op: "<", value: 1.5 } }`,
		"float limit": `criteria: c: { from: "t", limit: 2.5 }`,
	}

	for name, src := range testCases {
		t.Run(name, func(t *testing.T) {
			v := cuecontext.New().CompileString(src)
			require.NoError(t, v.Err())

			_, err := CompileDefinition(v.LookupPath(cue.ParsePath("criteria.c")))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "int instead")
		})
	}
}

func TestCompileDefinitionRejectsNonScalarValue(t *testing.T) {
	v := cuecontext.New().CompileString(`criteria: c: { from: "t", where: { field: "tags", value: ["a"] } }`)

	_, err := CompileDefinition(v.LookupPath(cue.ParsePath("criteria.c")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scalar")
}

func TestCompileDefinitionNullValue(t *testing.T) {
	v := cuecontext.New().CompileString(`criteria: c: { from: "t", where: { field: "nick", value: null } }`)

	def, err := CompileDefinition(v.LookupPath(cue.ParsePath("criteria.c")))
	require.NoError(t, err)
	assert.Nil(t, def.Where.Value)
}

func TestLoadCUE(t *testing.T) {
	defs, err := LoadCUE([]byte(`
criteria: first: {
	from: "people"
	order_by: "name"
}
criteria: second: {
	from: "people"
	filter: "age < 10"
	fields: age: "int"
}
`), "people.cue")
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "first", defs[0].Name)
	assert.Equal(t, "second", defs[1].Name)
	assert.Equal(t, "people.cue", defs[1].Pos.Filename())
}

func TestLoadCUEErrors(t *testing.T) {
	_, err := LoadCUE([]byte(`something: else: 1`), "x.cue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "criteria")

	_, err = LoadCUE([]byte(`criteria: { a: `), "broken.cue")
	require.Error(t, err)
}
