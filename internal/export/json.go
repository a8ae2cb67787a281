package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dusk-indust/cgprof/internal/callgrind"
)

// ProfileExport is the top-level JSON export structure.
type ProfileExport struct {
	Source     string            `json:"source"`
	ExportedAt string            `json:"exportedAt"`
	Events     []string          `json:"events"`
	Header     map[string]string `json:"header,omitempty"`
	Totals     map[string]uint64 `json:"totals"`
	Entries    []EntryExport     `json:"entries"`
	Calls      []CallExport      `json:"calls"`
	Errors     []string          `json:"errors,omitempty"`
	LinesRead  int               `json:"linesRead"`
}

// EntryExport describes one (file, function) scope.
type EntryExport struct {
	Key          string            `json:"key"`
	FileName     string            `json:"fileName"`
	FunctionName string            `json:"functionName"`
	Lines        []uint64          `json:"lines"`
	Events       map[string]uint64 `json:"events"`
}

// CallExport describes one caller->callee edge.
type CallExport struct {
	Caller string `json:"caller"`
	Callee string `json:"callee"`
	Calls  uint64 `json:"calls"`
	Cost   uint64 `json:"cost"`
}

// BuildProfileExport flattens a parse result into entries ordered by scope
// key and calls in first-seen order.
func BuildProfileExport(source string, res *callgrind.Result) *ProfileExport {
	out := &ProfileExport{
		Source:     source,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Events:     res.Events,
		Header:     res.Header,
		Totals:     res.Profile.Totals(),
		Entries:    make([]EntryExport, 0, len(res.Profile)),
		Calls:      make([]CallExport, 0, len(res.Calls)),
		Errors:     res.Errors,
		LinesRead:  res.LinesRead,
	}
	if out.Events == nil {
		out.Events = []string{}
	}

	for _, key := range res.Profile.Keys() {
		e := res.Profile[key]
		out.Entries = append(out.Entries, EntryExport{
			Key:          key.String(),
			FileName:     e.FileName,
			FunctionName: e.FunctionName,
			Lines:        e.Lines,
			Events:       e.Events,
		})
	}
	for _, c := range res.Calls {
		out.Calls = append(out.Calls, CallExport{
			Caller: c.Caller.String(),
			Callee: c.Callee.String(),
			Calls:  c.Calls,
			Cost:   c.Cost,
		})
	}
	return out
}

// WriteJSON writes v as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	_, err = w.Write(append(out, '\n'))
	return err
}
