package callgrind

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scopeOf(file, fn string) Scope {
	return Scope{Key: ScopeKey{File: file, Function: fn}, FileName: file, FunctionName: fn}
}

func TestAggregator_RecordLine(t *testing.T) {
	agg := NewAggregator()
	agg.SetEvents([]string{"Cycles", "Instructions", "Flops"})

	scope := scopeOf("file.f", "main")
	agg.RecordLine(scope, 15, []uint64{100, 20, 1})
	agg.RecordLine(scope, 16, []uint64{10, 6, 1})
	agg.RecordLine(scope, 15, []uint64{5})

	e := agg.Database()[scope.Key]
	require.NotNil(t, e)
	assert.Equal(t, []uint64{15, 16, 15}, e.Lines, "duplicates kept in order")
	assert.Equal(t, map[string]uint64{"Cycles": 115, "Instructions": 26, "Flops": 2}, e.Events)
}

func TestAggregator_RecordLine_ExtraValuesIgnored(t *testing.T) {
	agg := NewAggregator()
	agg.SetEvents([]string{"Ir"})

	s := scopeOf("a.c", "f")
	agg.RecordLine(s, 3, []uint64{7, 9, 11})
	assert.Equal(t, map[string]uint64{"Ir": 7}, agg.Database()[s.Key].Events)
}

func TestAggregator_CallCounters(t *testing.T) {
	agg := NewAggregator()
	agg.SetEvents([]string{"Instructions"})

	callee := scopeOf("file2.c", "func2")
	agg.RecordCallCount(callee, 3)
	agg.RecordCallCost(callee, 400)

	e := agg.Database()[callee.Key]
	require.NotNil(t, e)
	assert.Empty(t, e.Lines)
	assert.NotNil(t, e.Lines)
	assert.Equal(t, map[string]uint64{EventCallCount: 3, EventCallCost: 400}, e.Events)

	agg.RecordCallCount(callee, 2)
	agg.RecordCallCost(callee, 300)
	agg.RecordLine(callee, 20, []uint64{700})
	assert.Equal(t, map[string]uint64{
		"Instructions": 700,
		EventCallCount: 5,
		EventCallCost:  700,
	}, e.Events)
	assert.Equal(t, []uint64{20}, e.Lines)
}

func TestAggregator_NamesFixedAtCreation(t *testing.T) {
	agg := NewAggregator()
	agg.SetEvents([]string{"Ir"})

	key := ScopeKey{File: "(1)", Function: "(1)"}
	agg.RecordLine(Scope{Key: key, FileName: "a.c", FunctionName: "main"}, 1, []uint64{1})
	agg.RecordLine(Scope{Key: key, FileName: "renamed.c", FunctionName: "other"}, 2, []uint64{1})

	e := agg.Database()[key]
	assert.Equal(t, "a.c", e.FileName)
	assert.Equal(t, "main", e.FunctionName)
	assert.Equal(t, uint64(2), e.Events["Ir"])
}

func TestAggregator_RecordCall(t *testing.T) {
	agg := NewAggregator()
	a := ScopeKey{File: "a.c", Function: "main"}
	b := ScopeKey{File: "a.c", Function: "f"}
	c := ScopeKey{File: "b.c", Function: "g"}

	agg.RecordCall(a, b, 1, 10)
	agg.RecordCall(a, c, 2, 20)
	agg.RecordCall(a, b, 4, 5)

	assert.Equal(t, []CallEdge{
		{Caller: a, Callee: b, Calls: 5, Cost: 15},
		{Caller: a, Callee: c, Calls: 2, Cost: 20},
	}, agg.Calls())
}

func TestDatabase_KeysAndTotals(t *testing.T) {
	db := Database{
		{File: "b.c", Function: "g"}: {Events: map[string]uint64{"Ir": 2}},
		{File: "a.c", Function: "f"}: {Events: map[string]uint64{"Ir": 3, EventCallCount: 1}},
	}

	assert.Equal(t, []ScopeKey{{File: "a.c", Function: "f"}, {File: "b.c", Function: "g"}}, db.Keys())
	assert.Equal(t, map[string]uint64{"Ir": 5, EventCallCount: 1}, db.Totals())
}
