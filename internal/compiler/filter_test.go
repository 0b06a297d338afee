package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/criteria/internal/field"
)

var personKinds = map[string]field.Kind{
	"name": field.KindString,
	"age":  field.KindInt,
}

func TestParseFilter(t *testing.T) {
	testCases := []struct {
		filter string
		want   []string
	}{
		{`age > 30`, []string{`"carol"/45`, `"bob"/60`}},
		{`name = "carol"`, []string{`"carol"/30`, `"carol"/45`}},
		{`age >= 20 AND age <= 45`, []string{`"carol"/30`, `"bob"/20`, `"carol"/45`}},
		{`name = "alice" OR age = 60`, []string{`"alice"/5`, `"bob"/60`}},
		{`NOT name = "carol"`, []string{`"bob"/20`, `"alice"/5`, `"bob"/60`}},
		{`name != "bob" AND (age < 10 OR age > 40)`, []string{`"carol"/45`, `"alice"/5`}},
	}

	for _, tc := range testCases {
		t.Run(tc.filter, func(t *testing.T) {
			s, err := parseFilter(tc.filter, personKinds)
			require.NoError(t, err)
			require.NoError(t, s.Err())

			var got []string
			for _, p := range people() {
				if s.IsSatisfiedBy(p) {
					got = append(got, labels([]document{p})[0])
				}
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseFilterErrors(t *testing.T) {
	testCases := map[string]string{
		"syntax":           `age >`,
		"undeclared field": `height > 3`,
		"type mismatch":    `age = "old"`,
		"unsupported call": `name:"car"`,
	}

	for name, filter := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := parseFilter(filter, personKinds)
			assert.Error(t, err)
		})
	}
}

func TestParseOrderBy(t *testing.T) {
	keys, err := parseOrderBy("name, age desc", personKinds)
	require.NoError(t, err)
	assert.Equal(t, "name asc, age desc", keys.String())

	sorted, err := keys.Sort(people())
	require.NoError(t, err)
	assert.Equal(t, []string{`"alice"/5`, `"bob"/60`, `"bob"/20`, `"carol"/45`, `"carol"/30`}, labels(sorted))

	_, err = parseOrderBy("name sideways", personKinds)
	assert.Error(t, err)
}

func TestBuildKeysRejectsBadDirection(t *testing.T) {
	_, err := buildKeys([]OrderTerm{{Field: "name", Direction: "up"}}, personKinds)
	assert.ErrorContains(t, err, "order[0]")
}
