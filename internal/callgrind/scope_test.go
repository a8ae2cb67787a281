package callgrind

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScopeTracker_Transitions(t *testing.T) {
	var st ScopeTracker
	assert.Equal(t, SectionHeader, st.Section())

	st.EndHeader()
	assert.Equal(t, SectionSpecifications, st.Section())

	st.SetFunction("main", "main")
	assert.Equal(t, SectionSpecifications, st.Section(), "fn= does not change section")

	st.SetCallFunction("func1", "func1")
	assert.Equal(t, SectionCaller, st.Section())

	st.SetCallFile("file2.c", "file2.c")
	assert.Equal(t, SectionCaller, st.Section())

	st.EndCall()
	assert.Equal(t, SectionSpecifications, st.Section())
}

func TestScopeTracker_Defaults(t *testing.T) {
	var st ScopeTracker
	st.EndHeader()

	got := st.Current()
	assert.Equal(t, ScopeKey{File: "(0)", Function: "(0)"}, got.Key)
	assert.Equal(t, "(0)__(0)", got.Key.String())
	assert.Empty(t, got.FileName)
	assert.Empty(t, got.FunctionName)
	assert.Equal(t, got, st.Callee(), "callee equals current outside caller mode")
}

func TestScopeTracker_CalleeFallback(t *testing.T) {
	tests := []struct {
		name  string
		setup func(st *ScopeTracker)
		want  Scope
	}{
		{
			name: "function only inherits current file",
			setup: func(st *ScopeTracker) {
				st.SetCallFunction("(2)", "func1")
			},
			want: Scope{Key: ScopeKey{File: "(1)", Function: "(2)"}, FileName: "file1.c", FunctionName: "func1"},
		},
		{
			name: "file only inherits current function",
			setup: func(st *ScopeTracker) {
				st.SetCallFile("(2)", "file2.c")
			},
			want: Scope{Key: ScopeKey{File: "(2)", Function: "(1)"}, FileName: "file2.c", FunctionName: "main"},
		},
		{
			name: "both declared",
			setup: func(st *ScopeTracker) {
				st.SetCallFile("(2)", "file2.c")
				st.SetCallFunction("(3)", "func2")
			},
			want: Scope{Key: ScopeKey{File: "(2)", Function: "(3)"}, FileName: "file2.c", FunctionName: "func2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var st ScopeTracker
			st.EndHeader()
			st.SetFile("(1)", "file1.c")
			st.SetFunction("(1)", "main")

			tt.setup(&st)
			assert.Equal(t, tt.want, st.Callee())
			assert.Equal(t, ScopeKey{File: "(1)", Function: "(1)"}, st.Current().Key, "current scope is untouched")
		})
	}
}

func TestScopeTracker_EndCallClearsBlock(t *testing.T) {
	var st ScopeTracker
	st.EndHeader()
	st.SetFile("a.c", "a.c")
	st.SetFunction("f", "f")

	st.SetCallFile("b.c", "b.c")
	st.SetCallFunction("g", "g")
	st.AddCalls(3)
	st.AddCalls(2)
	assert.Equal(t, uint64(5), st.EndCall())

	// A new block only declaring a function must not see the old cfl.
	st.SetCallFunction("h", "h")
	assert.Equal(t, ScopeKey{File: "a.c", Function: "h"}, st.Callee().Key)
	assert.Equal(t, uint64(0), st.EndCall())
}

func TestSection_String(t *testing.T) {
	assert.Equal(t, "header", SectionHeader.String())
	assert.Equal(t, "specifications", SectionSpecifications.String())
	assert.Equal(t, "caller", SectionCaller.String())
}
