package batch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/cgprof/internal/callgrind"
)

func writeProfile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// recorder collects progress events from concurrent goroutines.
type recorder struct {
	mu     sync.Mutex
	events []ProgressEvent
}

func (r *recorder) record(ev ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) statuses(path string) []ProgressStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ProgressStatus
	for _, ev := range r.events {
		if ev.Path == path {
			out = append(out, ev.Status)
		}
	}
	return out
}

func TestFanOut_Run(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeProfile(t, dir, "a.out", "events: Ir\nfl=a.c\nfn=main\n1 10\n"),
		writeProfile(t, dir, "b.out", "events: Ir\nfl=b.c\nfn=main\n1 20\n2 1\n"),
		writeProfile(t, dir, "c.out", "events: Dr\nfl=c.c\nfn=f\n3 7\n"),
	}

	rec := &recorder{}
	results, err := NewFanOut(2, zerolog.Nop(), rec.record).Run(context.Background(), paths)
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, r := range results {
		assert.Equal(t, paths[i], r.Path, "results keep input order")
		require.NoError(t, r.Err)
		require.NotNil(t, r.Result)
		assert.Equal(t, []ProgressStatus{ProgressPending, ProgressWorking, ProgressComplete}, rec.statuses(paths[i]))
	}

	assert.Equal(t, uint64(21), results[1].Result.Profile[callgrind.ScopeKey{File: "b.c", Function: "main"}].Events["Ir"])
	assert.Equal(t, []string{"Dr"}, results[2].Result.Events)
}

func TestFanOut_SessionsAreIndependent(t *testing.T) {
	dir := t.TempDir()
	body := "events: Ir\nfl=(1) shared.c\nfn=(1) main\n1 5\n"
	paths := []string{
		writeProfile(t, dir, "one.out", body),
		writeProfile(t, dir, "two.out", "events: Ir\nfl=(1)\nfn=(1)\n1 5\n"),
	}

	results, err := NewFanOut(0, zerolog.Nop(), nil).Run(context.Background(), paths)
	require.NoError(t, err)

	key := callgrind.ScopeKey{File: "(1)", Function: "(1)"}
	assert.Equal(t, "shared.c", results[0].Result.Profile[key].FileName)
	assert.Empty(t, results[1].Result.Profile[key].FileName, "ids do not leak across files")
}

func TestFanOut_FailureCancelsBatch(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.out")
	paths := []string{missing}

	rec := &recorder{}
	results, err := NewFanOut(1, zerolog.Nop(), rec.record).Run(context.Background(), paths)
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	var srcErr *callgrind.SourceError
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, missing, srcErr.Name)

	require.Len(t, results, 1)
	assert.Nil(t, results[0].Result)
	assert.Equal(t, err, results[0].Err)
	assert.Equal(t, []ProgressStatus{ProgressPending, ProgressWorking, ProgressFailed}, rec.statuses(missing))
}

func TestFanOut_Empty(t *testing.T) {
	results, err := NewFanOut(4, zerolog.Nop(), nil).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}
