package callgrind

import (
	"sort"
)

// Synthetic event names written by caller blocks.
const (
	EventCallCount = "__callcount"
	EventCallCost  = "__callcost"
)

// Entry accumulates everything attributed to one (file, function) scope.
type Entry struct {
	FileName     string            `json:"fileName"`
	FunctionName string            `json:"functionName"`
	Lines        []uint64          `json:"lines"`
	Events       map[string]uint64 `json:"events"`
}

// Database is the profile produced by one parse session.
type Database map[ScopeKey]*Entry

// Keys returns the scope keys in string order.
func (db Database) Keys() []ScopeKey {
	keys := make([]ScopeKey, 0, len(db))
	for k := range db {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
	return keys
}

// Totals sums every event across all entries.
func (db Database) Totals() map[string]uint64 {
	out := make(map[string]uint64)
	for _, e := range db {
		for name, v := range e.Events {
			out[name] += v
		}
	}
	return out
}

// CallEdge is the cost attributed from one caller scope to one callee scope,
// summed over every caller block between the two.
type CallEdge struct {
	Caller ScopeKey `json:"caller"`
	Callee ScopeKey `json:"callee"`
	Calls  uint64   `json:"calls"`
	Cost   uint64   `json:"cost"`
}

// Aggregator owns the Database of a parse session. Entries are only ever
// created or added to.
type Aggregator struct {
	db        Database
	events    []string
	calls     []CallEdge
	callIndex map[[2]ScopeKey]int
}

// NewAggregator returns an Aggregator with an empty database.
func NewAggregator() *Aggregator {
	return &Aggregator{
		db:        make(Database),
		callIndex: make(map[[2]ScopeKey]int),
	}
}

// SetEvents fixes the positional meaning of cost line values.
func (a *Aggregator) SetEvents(events []string) {
	a.events = events
}

// Events returns the event list.
func (a *Aggregator) Events() []string {
	return a.events
}

// Database returns the accumulated profile.
func (a *Aggregator) Database() Database {
	return a.db
}

// Calls returns the call edges in first-seen order.
func (a *Aggregator) Calls() []CallEdge {
	return a.calls
}

// RecordLine attributes one cost line to scope: values[i] belongs to the
// i-th event. Missing values count as zero; extra values are ignored.
func (a *Aggregator) RecordLine(scope Scope, line uint64, values []uint64) {
	e, ok := a.db[scope.Key]
	if !ok {
		e = a.create(scope)
	}
	e.Lines = append(e.Lines, line)
	for i, name := range a.events {
		var v uint64
		if i < len(values) {
			v = values[i]
		}
		e.Events[name] += v
	}
}

// RecordCallCount adds n to the callee's __callcount.
func (a *Aggregator) RecordCallCount(scope Scope, n uint64) {
	a.add(scope, EventCallCount, n)
}

// RecordCallCost adds cost to the callee's __callcost.
func (a *Aggregator) RecordCallCost(scope Scope, cost uint64) {
	a.add(scope, EventCallCost, cost)
}

// RecordCall adds one completed caller block to the caller->callee edge.
func (a *Aggregator) RecordCall(caller, callee ScopeKey, calls, cost uint64) {
	k := [2]ScopeKey{caller, callee}
	if i, ok := a.callIndex[k]; ok {
		a.calls[i].Calls += calls
		a.calls[i].Cost += cost
		return
	}
	a.callIndex[k] = len(a.calls)
	a.calls = append(a.calls, CallEdge{Caller: caller, Callee: callee, Calls: calls, Cost: cost})
}

func (a *Aggregator) add(scope Scope, event string, n uint64) {
	e, ok := a.db[scope.Key]
	if !ok {
		e = a.create(scope)
	}
	e.Events[event] += n
}

// create inserts a new entry. Names are fixed here and never updated by
// later merges.
func (a *Aggregator) create(scope Scope) *Entry {
	e := &Entry{
		FileName:     scope.FileName,
		FunctionName: scope.FunctionName,
		Lines:        []uint64{},
		Events:       make(map[string]uint64, len(a.events)),
	}
	a.db[scope.Key] = e
	return e
}
