package callgrind

// Section is the part of the input the parser is currently in.
type Section int

const (
	SectionHeader Section = iota
	SectionSpecifications
	SectionCaller
)

func (s Section) String() string {
	switch s {
	case SectionHeader:
		return "header"
	case SectionSpecifications:
		return "specifications"
	case SectionCaller:
		return "caller"
	default:
		return "unknown"
	}
}

// DefaultID is the file or function id used before any fl= or fn= line.
const DefaultID = "(0)"

// ScopeKey identifies a profile entry by its file and function ids.
type ScopeKey struct {
	File     string
	Function string
}

// String renders the key as "fileId__functionId".
func (k ScopeKey) String() string {
	return k.File + "__" + k.Function
}

// MarshalText lets ScopeKey serve as a JSON object key.
func (k ScopeKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Scope is a resolved ScopeKey together with the names bound to its ids.
type Scope struct {
	Key          ScopeKey
	FileName     string
	FunctionName string
}

// ref is a declared id and the name it resolved to.
type ref struct {
	id   string
	name string
	set  bool
}

// pendingCall is the callee of an open cfl/cfi/cfn block. Either slot may be
// unset, in which case the callee inherits it from the current scope.
type pendingCall struct {
	file     ref
	function ref
	calls    uint64
}

// ScopeTracker holds the interpreter state between lines. The caller block
// exists only while the tracker is in SectionCaller.
type ScopeTracker struct {
	headerDone bool
	file       ref
	function   ref
	pending    *pendingCall
}

// Section reports the tracker's state.
func (t *ScopeTracker) Section() Section {
	switch {
	case !t.headerDone:
		return SectionHeader
	case t.pending != nil:
		return SectionCaller
	default:
		return SectionSpecifications
	}
}

// EndHeader moves the tracker from header to specifications.
func (t *ScopeTracker) EndHeader() {
	t.headerDone = true
}

// SetFile records a fl= declaration as the current file.
func (t *ScopeTracker) SetFile(id, name string) {
	t.file = ref{id: id, name: name, set: true}
}

// SetFunction records a fn= declaration as the current function.
func (t *ScopeTracker) SetFunction(id, name string) {
	t.function = ref{id: id, name: name, set: true}
}

// SetCallFile records a cfl=/cfi= declaration and enters caller mode.
func (t *ScopeTracker) SetCallFile(id, name string) {
	t.openCall().file = ref{id: id, name: name, set: true}
}

// SetCallFunction records a cfn= declaration and enters caller mode.
func (t *ScopeTracker) SetCallFunction(id, name string) {
	t.openCall().function = ref{id: id, name: name, set: true}
}

// AddCalls adds a calls= count to the open caller block.
func (t *ScopeTracker) AddCalls(n uint64) {
	if t.pending != nil {
		t.pending.calls += n
	}
}

// EndCall closes the caller block and returns to specifications. It returns
// the call count accumulated for the block.
func (t *ScopeTracker) EndCall() uint64 {
	var calls uint64
	if t.pending != nil {
		calls = t.pending.calls
	}
	t.pending = nil
	return calls
}

func (t *ScopeTracker) openCall() *pendingCall {
	if t.pending == nil {
		t.pending = &pendingCall{}
	}
	return t.pending
}

// Current resolves the scope of plain cost lines.
func (t *ScopeTracker) Current() Scope {
	s := Scope{Key: ScopeKey{File: DefaultID, Function: DefaultID}}
	if t.file.set {
		s.Key.File = t.file.id
		s.FileName = t.file.name
	}
	if t.function.set {
		s.Key.Function = t.function.id
		s.FunctionName = t.function.name
	}
	return s
}

// Callee resolves the scope of the open caller block, falling back to the
// current file or function for a slot the block did not declare. Outside
// caller mode it equals Current.
func (t *ScopeTracker) Callee() Scope {
	s := t.Current()
	if t.pending == nil {
		return s
	}
	if f := t.pending.file; f.set {
		s.Key.File = f.id
		s.FileName = f.name
	}
	if fn := t.pending.function; fn.set {
		s.Key.Function = fn.id
		s.FunctionName = fn.name
	}
	return s
}
