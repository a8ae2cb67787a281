// Package callgrind parses Callgrind/Cachegrind profile output into a
// per-(file, function) profile database with caller->callee cost attribution.
//
// Format reference: https://valgrind.org/docs/manual/cl-format.html
package callgrind

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// maxLineSize bounds a single input line. Demangled C++ names can be long.
const maxLineSize = 16 * 1024 * 1024

// ErrNoInput is returned by Parse when the parser has neither a path nor a
// reader.
var ErrNoInput = errors.New("callgrind: no input")

// SourceError is a failure to obtain input lines. It aborts the parse.
type SourceError struct {
	Name string // path or reader name
	Line int    // lines read before the failure
	Err  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("callgrind: read %s after line %d: %v", e.Name, e.Line, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// Result is the outcome of a successful parse.
type Result struct {
	// Profile holds one entry per (file, function) scope.
	Profile Database `json:"profile"`

	// Errors holds the unrecognized lines, verbatim and in input order.
	Errors []string `json:"errors"`

	// Events is the event list declared by the header.
	Events []string `json:"events"`

	// Header holds the raw header fields.
	Header map[string]string `json:"header"`

	// Calls holds the caller->callee edges in first-seen order.
	Calls []CallEdge `json:"calls"`

	// LinesRead counts every input line, blank and comment lines included.
	LinesRead int `json:"linesRead"`
}

// Parser reads one callgrind input. Each call to Parse runs an independent
// session, so a Parser bound to a path may be parsed repeatedly.
type Parser struct {
	name   string
	path   string
	reader io.Reader
	logger zerolog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger used for section transitions, unrecognized
// lines and the completion summary.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Parser) {
		p.logger = logger
	}
}

// NewParser returns a parser that opens path when Parse is called.
func NewParser(path string, opts ...Option) *Parser {
	p := &Parser{name: path, path: path, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewReaderParser returns a parser over an already-open stream. The reader
// is consumed by the first Parse call; name is used in errors and logs.
func NewReaderParser(name string, r io.Reader, opts ...Option) *Parser {
	p := &Parser{name: name, reader: r, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the path or stream name the parser is bound to.
func (p *Parser) Name() string {
	return p.name
}

// Parse consumes the input and returns the finished profile. A read failure
// or context cancellation discards everything parsed so far.
func (p *Parser) Parse(ctx context.Context) (*Result, error) {
	r := p.reader
	if p.path != "" {
		f, err := os.Open(p.path)
		if err != nil {
			return nil, &SourceError{Name: p.name, Err: err}
		}
		defer f.Close()
		r = f
	}
	if r == nil {
		return nil, ErrNoInput
	}

	s := newSession(p.logger.With().
		Str("source", p.name).
		Str("session", uuid.New().String()).
		Logger())

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, &SourceError{Name: p.name, Line: s.lineNo, Err: err}
		}
		s.apply(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, &SourceError{Name: p.name, Line: s.lineNo, Err: err}
	}

	res := s.result()
	s.logger.Info().
		Int("entries", len(res.Profile)).
		Int("calls", len(res.Calls)).
		Int("errors", len(res.Errors)).
		Int("lines", res.LinesRead).
		Msg("callgrind parse complete")
	return res, nil
}

// session is the mutable state of one parse. Nothing in it is shared.
type session struct {
	logger    zerolog.Logger
	scope     ScopeTracker
	files     *SymbolTable
	functions *SymbolTable
	agg       *Aggregator
	header    map[string]string
	errors    []string
	lineNo    int
}

func newSession(logger zerolog.Logger) *session {
	return &session{
		logger:    logger,
		files:     NewSymbolTable(),
		functions: NewSymbolTable(),
		agg:       NewAggregator(),
		header:    make(map[string]string),
		errors:    []string{},
	}
}

// apply classifies one raw line and updates the session.
func (s *session) apply(raw string) {
	s.lineNo++
	line := Classify(strings.TrimSpace(raw))

	switch line.Kind {
	case KindBlank, KindComment:
		return
	}

	if s.scope.Section() == SectionHeader {
		if line.Kind == KindHeaderField {
			s.header[line.Key] = line.Value
			return
		}
		s.endHeader()
	}

	section := s.scope.Section()
	switch line.Kind {
	case KindFile:
		s.scope.SetFile(line.ID, s.files.Resolve(line.ID, line.Name))
	case KindFunction:
		s.scope.SetFunction(line.ID, s.functions.Resolve(line.ID, line.Name))
	case KindCallFile:
		s.scope.SetCallFile(line.ID, s.files.Resolve(line.ID, line.Name))
	case KindCallFunction:
		s.scope.SetCallFunction(line.ID, s.functions.Resolve(line.ID, line.Name))
	case KindCalls:
		if section != SectionCaller {
			s.unrecognized(raw, section)
			return
		}
		s.scope.AddCalls(line.Numbers[0])
		s.agg.RecordCallCount(s.scope.Callee(), line.Numbers[0])
	case KindCost:
		switch {
		case section == SectionSpecifications:
			s.agg.RecordLine(s.scope.Current(), line.Numbers[0], line.Numbers[1:])
		case section == SectionCaller && len(line.Numbers) == 2:
			callee := s.scope.Callee()
			cost := line.Numbers[1]
			s.agg.RecordCallCost(callee, cost)
			calls := s.scope.EndCall()
			s.agg.RecordCall(s.scope.Current().Key, callee.Key, calls, cost)
		default:
			s.unrecognized(raw, section)
		}
	default:
		s.unrecognized(raw, section)
	}
}

func (s *session) endHeader() {
	s.scope.EndHeader()
	events := strings.Fields(s.header["events"])
	s.agg.SetEvents(events)
	s.logger.Debug().
		Int("line", s.lineNo).
		Strs("events", events).
		Msg("header complete")
}

func (s *session) unrecognized(raw string, section Section) {
	s.errors = append(s.errors, raw)
	s.logger.Debug().
		Int("line", s.lineNo).
		Stringer("section", section).
		Str("text", raw).
		Msg("unrecognized line")
}

func (s *session) result() *Result {
	events := s.agg.Events()
	if events == nil {
		// Input ended inside the header.
		events = strings.Fields(s.header["events"])
	}
	calls := s.agg.Calls()
	if calls == nil {
		calls = []CallEdge{}
	}
	return &Result{
		Profile:   s.agg.Database(),
		Errors:    s.errors,
		Events:    events,
		Header:    s.header,
		Calls:     calls,
		LinesRead: s.lineNo,
	}
}
