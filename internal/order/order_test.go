package order

import (
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/criteria/internal/field"
	"github.com/roach88/criteria/internal/ir"
	"github.com/roach88/criteria/internal/queryir"
)

type person struct {
	Name string
	Age  int
}

var (
	name = field.String("name", func(p person) string { return p.Name })
	age  = field.Int("age", func(p person) int { return p.Age })
)

func TestSortNameAscAgeAsc(t *testing.T) {
	items := []person{{"b", 1}, {"a", 2}, {"a", 1}}

	got, err := Asc(name).Then(age, Ascending).Sort(items)
	require.NoError(t, err)

	assert.Equal(t, []person{{"a", 1}, {"a", 2}, {"b", 1}}, got)
	assert.Equal(t, []person{{"b", 1}, {"a", 2}, {"a", 1}}, items, "input is not modified")
}

func TestSortNameAscAgeDesc(t *testing.T) {
	items := []person{{"carol", 30}, {"bob", 20}, {"carol", 45}, {"alice", 5}, {"bob", 60}}

	got, err := Asc(name).Then(age, Descending).Sort(items)
	require.NoError(t, err)

	assert.Equal(t, []person{
		{"alice", 5},
		{"bob", 60}, {"bob", 20},
		{"carol", 45}, {"carol", 30},
	}, got)
}

func TestSortIsStable(t *testing.T) {
	type row struct {
		person
		pos int
	}
	items := []row{{person{"x", 1}, 0}, {person{"y", 1}, 1}, {person{"z", 0}, 2}, {person{"w", 1}, 3}}

	got, err := SortBy(items, func(r row) person { return r.person }, Asc(age))
	require.NoError(t, err)

	var positions []int
	for _, r := range got {
		positions = append(positions, r.pos)
	}
	assert.Equal(t, []int{2, 0, 1, 3}, positions)
}

func TestApplyEmptyKeysReturnsSourceUnchanged(t *testing.T) {
	src := Slice[person]{{"b", 1}, {"a", 2}}

	var nilKeys Keys[person]
	got, err := nilKeys.Apply(src)
	require.NoError(t, err)

	assert.Equal(t, Source[person](src), got)
}

func TestApplyNilSource(t *testing.T) {
	_, err := Asc(name).Apply(nil)
	assert.ErrorIs(t, err, ErrNilSource)

	var ordered *Ordered[person]
	_, err = Asc(name).Apply(ordered)
	assert.ErrorIs(t, err, ErrNilSource)

	var nilKeys Keys[person]
	_, err = nilKeys.Apply(nil)
	assert.ErrorIs(t, err, ErrNilSource)
}

func TestApplyFreshOrdering(t *testing.T) {
	src := Slice[person]{{"b", 1}, {"a", 2}, {"a", 1}}

	got, err := Asc(name).Then(age, Ascending).Apply(src)
	require.NoError(t, err)

	assert.Equal(t, []person{{"a", 1}, {"a", 2}, {"b", 1}}, Collect(got))
	assert.Equal(t, []person{{"b", 1}, {"a", 2}, {"a", 1}}, []person(src))
}

func TestApplyThenBy(t *testing.T) {
	src := Slice[person]{{"b", 2}, {"a", 2}, {"b", 1}, {"a", 1}}

	byName, err := Asc(name).Apply(src)
	require.NoError(t, err)

	thenAge, err := Desc(age).Apply(byName)
	require.NoError(t, err)

	assert.Equal(t, []person{{"a", 2}, {"a", 1}, {"b", 2}, {"b", 1}}, Collect(thenAge),
		"the existing name ordering stays primary")

	ordered, ok := thenAge.(*Ordered[person])
	require.True(t, ok)
	assert.Equal(t, "name asc, age desc", ordered.Keys().String())

	assert.Equal(t, []person{{"b", 2}, {"a", 2}, {"b", 1}, {"a", 1}}, Collect(mustApply(t, Desc(age), src)),
		"an unordered source starts a fresh ordering")
}

func mustApply(t *testing.T, k Keys[person], src Source[person]) Source[person] {
	t.Helper()
	out, err := k.Apply(src)
	require.NoError(t, err)
	return out
}

func TestOrderedIsLazy(t *testing.T) {
	backing := []person{{"b", 1}}
	src := &growing{items: backing}

	sorted := mustApply(t, Asc(name), src)
	src.items = append(src.items, person{"a", 1})

	assert.Equal(t, []person{{"a", 1}, {"b", 1}}, Collect(sorted))
}

type growing struct{ items []person }

func (g *growing) All() iter.Seq[person] {
	return Slice[person](g.items).All()
}

func TestOrderedAllStopsEarly(t *testing.T) {
	sorted := mustApply(t, Desc(age), Slice[person]{{"a", 1}, {"b", 3}, {"c", 2}})

	var first []person
	for p := range sorted.All() {
		first = append(first, p)
		if len(first) == 2 {
			break
		}
	}
	assert.Equal(t, []person{{"b", 3}, {"c", 2}}, first)
}

func TestInvalidDirection(t *testing.T) {
	k := By(name, Direction(7))
	assert.ErrorIs(t, k.Err(), ErrInvalidDirection)

	_, err := k.Sort(nil)
	assert.ErrorIs(t, err, ErrInvalidDirection)

	_, err = k.Apply(Slice[person]{})
	assert.ErrorIs(t, err, ErrInvalidDirection)

	_, err = k.Lower()
	assert.ErrorIs(t, err, ErrInvalidDirection)

	assert.ErrorIs(t, Asc(name).Then(age, -1).Err(), ErrInvalidDirection)
	assert.ErrorIs(t, Asc(name).Append(k).Err(), ErrInvalidDirection)
}

func TestInvalidField(t *testing.T) {
	var zero field.Field[person]
	assert.ErrorIs(t, Asc(zero).Err(), field.ErrInvalidField)
}

func TestParseDirection(t *testing.T) {
	for in, want := range map[string]Direction{
		"asc":        Ascending,
		"ASC":        Ascending,
		"ascending":  Ascending,
		"desc":       Descending,
		" Desc ":     Descending,
		"descending": Descending,
	} {
		got, err := ParseDirection(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseDirection("up")
	assert.ErrorIs(t, err, ErrInvalidDirection)
}

func TestKeysAreImmutable(t *testing.T) {
	base := Asc(name)
	a := base.Then(age, Ascending)
	b := base.Then(age, Descending)

	assert.Equal(t, 1, base.Len())
	assert.Equal(t, "name asc, age asc", a.String())
	assert.Equal(t, "name asc, age desc", b.String())

	keys := a.Keys()
	keys[0].Direction = Descending
	assert.Equal(t, "name asc, age asc", a.String())
}

func TestLower(t *testing.T) {
	got, err := Asc(name).Then(age, Descending).Lower()
	require.NoError(t, err)

	assert.Equal(t, []queryir.OrderKey{{Field: "name"}, {Field: "age", Desc: true}}, got)
}

func TestNullsSortFirstAscending(t *testing.T) {
	doc := func(pairs ...ir.IRPair) ir.IRObject { return ir.NewIRObject(pairs...) }
	items := []ir.IRObject{
		doc(ir.O("id", ir.IRInt(1)), ir.O("rank", ir.IRInt(2))),
		doc(ir.O("id", ir.IRInt(2))),
		doc(ir.O("id", ir.IRInt(3)), ir.O("rank", ir.IRInt(1))),
	}
	rank := field.Path("rank", field.KindInt)

	asc, err := Asc(rank).Sort(items)
	require.NoError(t, err)
	assert.Equal(t, ir.IRInt(2), asc[0]["id"])

	desc, err := Desc(rank).Sort(items)
	require.NoError(t, err)
	assert.Equal(t, ir.IRInt(2), desc[2]["id"])
}

func TestFingerprint(t *testing.T) {
	a, err := Asc(name).Then(age, Descending).Fingerprint()
	require.NoError(t, err)
	b, err := Asc(name).Append(Desc(age)).Fingerprint()
	require.NoError(t, err)
	c, err := Asc(name).Then(age, Ascending).Fingerprint()
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestSortCompositeValuesTieWithinKind(t *testing.T) {
	type doc struct {
		id  string
		val ir.IRValue
	}
	val := field.Value("val", field.KindAny, func(d doc) ir.IRValue { return d.val })
	items := []doc{
		{"a1", ir.IRArray{ir.IRString("x")}},
		{"a2", ir.IRString("zzz")},
		{"a3", ir.IRObject{"k": ir.IRInt(1)}},
		{"a4", ir.IRArray{ir.IRString("a")}},
		{"a5", nil},
	}

	ids := func(ds []doc) []string {
		out := make([]string, len(ds))
		for i, d := range ds {
			out[i] = d.id
		}
		return out
	}

	got, err := Asc(val).Sort(items)
	require.NoError(t, err)
	assert.Equal(t, []string{"a5", "a2", "a1", "a4", "a3"}, ids(got))

	got, err = Desc(val).Sort(items)
	require.NoError(t, err)
	assert.Equal(t, []string{"a3", "a1", "a4", "a2", "a5"}, ids(got))
}
