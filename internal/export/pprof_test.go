package export

import (
	"bytes"
	"testing"

	"github.com/google/pprof/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToPprof(t *testing.T) {
	p, err := ToPprof(parse(t, sampleProfile))
	require.NoError(t, err)

	require.Len(t, p.SampleType, 2)
	assert.Equal(t, "Ir", p.SampleType[0].Type)
	assert.Equal(t, "Dr", p.SampleType[1].Type)
	assert.Equal(t, "Ir", p.DefaultSampleType)
	assert.Contains(t, p.Comments, "events: Ir Dr")

	require.Len(t, p.Sample, 2)
	byScope := map[string]*profile.Sample{}
	for _, s := range p.Sample {
		byScope[s.Label["scope"][0]] = s
	}

	entry := byScope["a.c__main"]
	require.NotNil(t, entry)
	assert.Equal(t, []int64{5, 2}, entry.Value)
	require.Len(t, entry.Location, 1)
	assert.Equal(t, int64(1), entry.Location[0].Line[0].Line)
	assert.Equal(t, "main", entry.Location[0].Line[0].Function.Name)
	assert.Equal(t, "a.c", entry.Location[0].Line[0].Function.Filename)

	callee := byScope["a.c__f"]
	require.NotNil(t, callee)
	assert.Equal(t, []int64{0, 0}, callee.Value, "call counters are not sample values")
}

func TestWritePprof_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePprof(&buf, parse(t, sampleProfile)))

	p, err := profile.Parse(&buf)
	require.NoError(t, err)
	assert.Len(t, p.Sample, 2)
	assert.Len(t, p.Function, 2)

	var total int64
	for _, s := range p.Sample {
		total += s.Value[0]
	}
	assert.Equal(t, int64(5), total)
}

func TestToPprof_NoEvents(t *testing.T) {
	_, err := ToPprof(parse(t, "fl=a.c\nfn=main\n1\n"))
	assert.ErrorIs(t, err, ErrNoEvents)
}
