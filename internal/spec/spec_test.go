package spec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/criteria/internal/field"
	"github.com/roach88/criteria/internal/ir"
)

type person struct {
	Name   string
	Age    int
	Active bool
	Nick   *string
}

func strPtr(s string) *string { return &s }

var (
	nameField   = field.String("name", func(p person) string { return p.Name })
	ageField    = field.Int("age", func(p person) int { return p.Age })
	activeField = field.Bool("active", func(p person) bool { return p.Active })
	nickField   = field.Value("nick", field.KindString, func(p person) ir.IRValue {
		if p.Nick == nil {
			return ir.IRNull{}
		}
		return ir.IRString(*p.Nick)
	})
)

func people() []person {
	return []person{
		{Name: "ada", Age: 36, Active: true, Nick: strPtr("countess")},
		{Name: "alan", Age: 41},
		{Name: "grace", Age: 85, Active: true},
		{Name: "linus", Age: 21, Nick: strPtr("torvalds")},
		{Name: "", Age: 0},
	}
}

// samples covers every node kind, including opaque leaves and nullable fields.
func samples() map[string]Spec[person] {
	return map[string]Spec[person]{
		"leaf":    Where("short name", func(p person) bool { return len(p.Name) <= 3 }),
		"eq":      Eq(nameField, "alan"),
		"gt":      Gt(ageField, 30),
		"le":      Le(ageField, 41),
		"active":  Eq(activeField, true),
		"nick":    Eq(nickField, "torvalds"),
		"nonick":  IsNull(nickField),
		"in":      In(nameField, "ada", "grace"),
		"not-gt":  Gt(ageField, 40).Not(),
		"nick-ne": Ne(nickField, "countess"),
	}
}

func TestAndMatchesConjunction(t *testing.T) {
	for an, a := range samples() {
		for bn, b := range samples() {
			combined := a.And(b)
			require.NoError(t, combined.Err())
			for _, p := range people() {
				assert.Equal(t, a.IsSatisfiedBy(p) && b.IsSatisfiedBy(p), combined.IsSatisfiedBy(p), "%s AND %s on %+v", an, bn, p)
			}
		}
	}
}

func TestOrMatchesDisjunction(t *testing.T) {
	for an, a := range samples() {
		for bn, b := range samples() {
			combined := a.Or(b)
			require.NoError(t, combined.Err())
			for _, p := range people() {
				assert.Equal(t, a.IsSatisfiedBy(p) || b.IsSatisfiedBy(p), combined.IsSatisfiedBy(p), "%s OR %s on %+v", an, bn, p)
			}
		}
	}
}

func TestNotMatchesNegation(t *testing.T) {
	for name, a := range samples() {
		negated := a.Not()
		require.NoError(t, negated.Err())
		for _, p := range people() {
			assert.Equal(t, !a.IsSatisfiedBy(p), negated.IsSatisfiedBy(p), "NOT %s on %+v", name, p)
		}
	}
}

func TestAndIsAssociative(t *testing.T) {
	a := Gt(ageField, 20)
	b := Where("has nick", func(p person) bool { return p.Nick != nil })
	c := Ne(nameField, "ada")

	left := a.And(b).And(c)
	right := a.And(b.And(c))

	for _, p := range people() {
		assert.Equal(t, left.IsSatisfiedBy(p), right.IsSatisfiedBy(p), "%+v", p)
	}
	assert.Equal(t, 1, count(left))
}

func TestOrIsAssociative(t *testing.T) {
	a := Eq(nameField, "ada")
	b := Lt(ageField, 25)
	c := IsNull(nickField)

	left := a.Or(b).Or(c)
	right := a.Or(b.Or(c))

	for _, p := range people() {
		assert.Equal(t, left.IsSatisfiedBy(p), right.IsSatisfiedBy(p), "%+v", p)
	}
}

func count(s Spec[person]) int {
	n := 0
	for _, p := range people() {
		if s.IsSatisfiedBy(p) {
			n++
		}
	}
	return n
}

func TestCompositionDoesNotMutateOperands(t *testing.T) {
	a := Eq(nameField, "ada")
	before := a.String()

	_ = a.And(Gt(ageField, 1))
	_ = a.Or(Gt(ageField, 1))
	_ = a.Not()

	assert.Equal(t, before, a.String())
	assert.True(t, a.IsSatisfiedBy(people()[0]))
}

func TestFunctionForms(t *testing.T) {
	a, b, c := Gt(ageField, 20), Eq(activeField, true), Ne(nameField, "grace")

	assert.True(t, Equal(And(a, b, c), a.And(b).And(c)))
	assert.True(t, Equal(Or(a, b, c), a.Or(b).Or(c)))
	assert.True(t, Equal(Not(a), a.Not()))
	assert.True(t, Equal(And(a), a))
}

func TestNilOperands(t *testing.T) {
	var zero Spec[person]
	valid := Eq(nameField, "ada")

	assert.True(t, zero.IsZero())
	assert.ErrorIs(t, zero.Err(), ErrNilSpecification)
	assert.ErrorIs(t, valid.And(zero).Err(), ErrNilSpecification)
	assert.ErrorIs(t, zero.And(valid).Err(), ErrNilSpecification)
	assert.ErrorIs(t, valid.Or(zero).Err(), ErrNilSpecification)
	assert.ErrorIs(t, zero.Not().Err(), ErrNilSpecification)
	assert.ErrorIs(t, And[person]().Err(), ErrNilSpecification)
	assert.ErrorIs(t, Or(valid, zero, valid).Err(), ErrNilSpecification)
}

func TestNilPredicate(t *testing.T) {
	s := Where[person]("broken", nil)
	assert.ErrorIs(t, s.Err(), ErrNilPredicate)
}

func TestErrorsAreSticky(t *testing.T) {
	bad := Where[person]("broken", nil)
	combined := Eq(nameField, "ada").Or(bad).And(Gt(ageField, 1)).Not()

	assert.ErrorIs(t, combined.Err(), ErrNilPredicate)
	assert.Nil(t, combined.Node())
	for _, p := range people() {
		assert.False(t, combined.IsSatisfiedBy(p))
	}

	_, err := Compile(combined)
	assert.ErrorIs(t, err, ErrNilPredicate)
}

func TestInvalidField(t *testing.T) {
	var zero field.Field[person]
	assert.ErrorIs(t, Eq(zero, "x").Err(), field.ErrInvalidField)

	bad := field.String("name'; --", func(p person) string { return p.Name })
	assert.ErrorIs(t, IsNull(bad).Err(), field.ErrInvalidField)
	assert.ErrorIs(t, In(bad, "a").Err(), field.ErrInvalidField)
}

func TestInvalidValues(t *testing.T) {
	cases := map[string]Spec[person]{
		"float":         Gt(ageField, 1.5),
		"wrong kind":    Eq(ageField, "forty"),
		"array":         Eq(nameField, []any{"a"}),
		"order vs null": Lt(ageField, nil),
		"null in list":  In(nameField, "a", nil),
		"unsupported":   Eq(nameField, struct{}{}),
	}
	for name, s := range cases {
		assert.True(t, errors.Is(s.Err(), ErrInvalidValue), "%s: %v", name, s.Err())
	}

	assert.NoError(t, Gt(ageField, 2.0).Err(), "integral floats are accepted")
}

func TestNullSemantics(t *testing.T) {
	noNick := person{Name: "alan"}
	withNick := person{Name: "ada", Nick: strPtr("countess")}

	assert.False(t, Eq(nickField, "x").IsSatisfiedBy(noNick))
	assert.False(t, Ne(nickField, "x").IsSatisfiedBy(noNick))
	assert.False(t, In(nickField, "x").IsSatisfiedBy(noNick))
	assert.True(t, Ne(nickField, "x").Not().IsSatisfiedBy(noNick))

	assert.True(t, Eq(nickField, nil).IsSatisfiedBy(noNick))
	assert.False(t, Eq(nickField, nil).IsSatisfiedBy(withNick))
	assert.True(t, Ne(nickField, nil).IsSatisfiedBy(withNick))
	assert.True(t, Equal(Eq(nickField, nil), IsNull(nickField)))
	assert.True(t, Equal(Ne(nickField, nil), IsNull(nickField).Not()))
}

func TestEmptyInMatchesNothing(t *testing.T) {
	s := In(nameField)
	require.NoError(t, s.Err())
	assert.Equal(t, 0, count(s))
}

func TestComparisonOperators(t *testing.T) {
	p := person{Name: "bob", Age: 30}

	for name, tc := range map[string]struct {
		s    Spec[person]
		want bool
	}{
		"eq":      {Eq(ageField, 30), true},
		"ne":      {Ne(ageField, 30), false},
		"lt":      {Lt(ageField, 31), true},
		"le":      {Le(ageField, 30), true},
		"gt":      {Gt(ageField, 30), false},
		"ge":      {Ge(ageField, 30), true},
		"in":      {In(nameField, "al", "bob"), true},
		"str-lt":  {Lt(nameField, "c"), true},
		"str-gt":  {Gt(nameField, "bobby"), false},
		"is-null": {IsNull(ageField), false},
	} {
		require.NoError(t, tc.s.Err(), name)
		assert.Equal(t, tc.want, tc.s.IsSatisfiedBy(p), name)
	}
}

func TestOpString(t *testing.T) {
	assert.Equal(t, "IS NULL", OpIsNull.String())
	assert.Equal(t, ">=", OpGe.String())
	assert.Equal(t, "Op(42)", Op(42).String())
}
