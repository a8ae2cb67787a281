package export

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/google/pprof/profile"

	"github.com/dusk-indust/cgprof/internal/callgrind"
)

// ErrNoEvents is returned by ToPprof when the profile declares no events.
var ErrNoEvents = errors.New("export: profile declares no events")

// ToPprof converts a parse result into a pprof profile with one sample type
// per declared event and one sample per entry. Each sample has a single
// location at the entry's first profiled line. Call counters are not
// exported.
func ToPprof(res *callgrind.Result) (*profile.Profile, error) {
	if len(res.Events) == 0 {
		return nil, ErrNoEvents
	}

	p := &profile.Profile{
		PeriodType:        &profile.ValueType{Type: res.Events[0], Unit: "count"},
		Period:            1,
		DefaultSampleType: res.Events[0],
	}
	for _, ev := range res.Events {
		p.SampleType = append(p.SampleType, &profile.ValueType{Type: ev, Unit: "count"})
	}
	for _, field := range sortedFields(res.Header) {
		p.Comments = append(p.Comments, field+": "+res.Header[field])
	}

	for i, key := range res.Profile.Keys() {
		e := res.Profile[key]
		id := uint64(i + 1)

		fn := &profile.Function{
			ID:         id,
			Name:       orDefault(e.FunctionName, key.Function),
			SystemName: key.String(),
			Filename:   orDefault(e.FileName, key.File),
		}
		var line int64
		if len(e.Lines) > 0 {
			line = int64(e.Lines[0])
		}
		loc := &profile.Location{
			ID:   id,
			Line: []profile.Line{{Function: fn, Line: line}},
		}

		values := make([]int64, len(res.Events))
		for j, ev := range res.Events {
			values[j] = int64(e.Events[ev])
		}

		p.Function = append(p.Function, fn)
		p.Location = append(p.Location, loc)
		p.Sample = append(p.Sample, &profile.Sample{
			Location: []*profile.Location{loc},
			Value:    values,
			Label:    map[string][]string{"scope": {key.String()}},
		})
	}

	if err := p.CheckValid(); err != nil {
		return nil, fmt.Errorf("export: invalid pprof profile: %w", err)
	}
	return p, nil
}

// WritePprof converts res and writes it gzip-compressed to w.
func WritePprof(w io.Writer, res *callgrind.Result) error {
	p, err := ToPprof(res)
	if err != nil {
		return err
	}
	if err := p.Write(w); err != nil {
		return fmt.Errorf("export: write pprof: %w", err)
	}
	return nil
}

func sortedFields(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
