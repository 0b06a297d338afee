package query

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/criteria/internal/field"
	"github.com/roach88/criteria/internal/ir"
	"github.com/roach88/criteria/internal/order"
	"github.com/roach88/criteria/internal/queryir"
	"github.com/roach88/criteria/internal/spec"
)

type person struct {
	Name string
	Age  int
}

var (
	name = field.String("name", func(p person) string { return p.Name })
	age  = field.Int("age", func(p person) int { return p.Age })
)

func people() []person {
	return []person{{"carol", 30}, {"bob", 20}, {"carol", 45}, {"alice", 5}, {"bob", 60}}
}

func TestZeroQuerySelectsEverything(t *testing.T) {
	got, err := New[person]().Apply(people())
	require.NoError(t, err)
	assert.Equal(t, people(), got)
	assert.Equal(t, "ALL", New[person]().String())
}

func TestApply(t *testing.T) {
	q := New[person]().
		Where(spec.Gt(age, 10)).
		OrderBy(order.Asc(name).Then(age, order.Descending)).
		Skip(1).
		Take(2)
	require.NoError(t, q.Err())

	got, err := q.Apply(people())
	require.NoError(t, err)

	if diff := cmp.Diff([]person{{"bob", 20}, {"carol", 45}}, got); diff != "" {
		t.Errorf("Apply() mismatch (-want +got):\n%s", diff)
	}
}

func TestWhereAnds(t *testing.T) {
	q := New[person]().Where(spec.Eq(name, "carol")).Where(spec.Lt(age, 40))

	got, err := q.Apply(people())
	require.NoError(t, err)
	assert.Equal(t, []person{{"carol", 30}}, got)
	assert.True(t, spec.Equal(q.Filter(), spec.Eq(name, "carol").And(spec.Lt(age, 40))))
}

func TestOrderByIsThenBy(t *testing.T) {
	q := New[person]().OrderBy(order.Asc(name)).OrderBy(order.Desc(age))

	got, err := q.Apply(people())
	require.NoError(t, err)
	assert.Equal(t, []person{{"alice", 5}, {"bob", 60}, {"bob", 20}, {"carol", 45}, {"carol", 30}}, got)
	assert.Equal(t, "name asc, age desc", q.Order().String())
}

func TestOrderByEmptyKeysLeavesQueryUnchanged(t *testing.T) {
	base := New[person]().OrderBy(order.Asc(name))
	var empty order.Keys[person]

	q := base.OrderBy(empty)
	assert.Equal(t, base.Order().String(), q.Order().String())
}

func TestPaging(t *testing.T) {
	q := New[person]()

	got, err := q.Skip(10).Apply(people())
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = q.Take(2).Take(0).Apply(people())
	require.NoError(t, err)
	assert.Len(t, got, 5, "Take(0) removes the limit")

	assert.ErrorIs(t, q.Skip(-1).Err(), ErrInvalidPaging)
	assert.ErrorIs(t, q.Take(-1).Err(), ErrInvalidPaging)
}

func TestErrorsAreSticky(t *testing.T) {
	q := New[person]().
		Where(spec.Where[person]("broken", nil)).
		OrderBy(order.Asc(name)).
		Take(3)

	assert.ErrorIs(t, q.Err(), spec.ErrNilPredicate)
	_, err := q.Apply(people())
	assert.ErrorIs(t, err, spec.ErrNilPredicate)
	_, err = q.Lower("people")
	assert.ErrorIs(t, err, spec.ErrNilPredicate)

	bad := New[person]().OrderBy(order.By(name, order.Direction(9)))
	assert.ErrorIs(t, bad.Err(), order.ErrInvalidDirection)
}

func TestLower(t *testing.T) {
	q := New[person]().
		Where(spec.Ge(age, 18).And(spec.Ne(name, "bob"))).
		OrderBy(order.Desc(age)).
		Skip(5).
		Take(10)

	got, err := q.Lower("people")
	require.NoError(t, err)

	want := queryir.Select{
		From: "people",
		Filter: queryir.And{Predicates: []queryir.Predicate{
			queryir.Compare{Field: "age", Op: queryir.OpGe, Value: ir.IRInt(18)},
			queryir.Compare{Field: "name", Op: queryir.OpNe, Value: ir.IRString("bob")},
		}},
		Order:  []queryir.OrderKey{{Field: "age", Desc: true}},
		Offset: 5,
		Limit:  10,
	}
	assert.Equal(t, want, got)
	assert.True(t, q.Translatable())
}

func TestLowerWithoutFilter(t *testing.T) {
	got, err := New[person]().Lower("people")
	require.NoError(t, err)
	assert.Nil(t, got.Filter)
	assert.Empty(t, got.Order)
}

func TestLowerOpaqueLeaf(t *testing.T) {
	q := New[person]().Where(spec.Where("even age", func(p person) bool { return p.Age%2 == 0 }))

	_, err := q.Lower("people")
	assert.ErrorIs(t, err, spec.ErrNotTranslatable)
	assert.False(t, q.Translatable())

	got, err := q.Apply(people())
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestRunWithProjection(t *testing.T) {
	type row struct {
		id string
		p  person
	}
	rows := []row{{"1", person{"b", 2}}, {"2", person{"a", 2}}, {"3", person{"c", 1}}}

	got, err := Run(rows, func(r row) person { return r.p }, New[person]().Where(spec.Eq(age, 2)).OrderBy(order.Asc(name)))
	require.NoError(t, err)
	assert.Equal(t, []row{rows[1], rows[0]}, got)
}

func TestImmutable(t *testing.T) {
	base := New[person]().Where(spec.Gt(age, 10))
	_ = base.Where(spec.Eq(name, "x")).OrderBy(order.Asc(name)).Take(1)

	got, err := base.Apply(people())
	require.NoError(t, err)
	assert.Len(t, got, 4)
}

func TestFingerprintAndString(t *testing.T) {
	a := New[person]().Where(spec.Eq(name, "x")).OrderBy(order.Asc(age)).Take(3)
	b := New[person]().Where(spec.Eq(name, "x")).OrderBy(order.Asc(age)).Take(3)
	c := a.Skip(1)

	fa, err := a.Fingerprint()
	require.NoError(t, err)
	fb, err := b.Fingerprint()
	require.NoError(t, err)
	fc, err := c.Fingerprint()
	require.NoError(t, err)

	assert.Equal(t, fa, fb)
	assert.NotEqual(t, fa, fc)
	assert.Equal(t, `WHERE name = "x" ORDER BY age asc SKIP 1 TAKE 3`, c.String())
}
