package export

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/cgprof/internal/callgrind"
)

const sampleProfile = `# sample
events: Ir Dr
fl=a.c
fn=main
1 5 2
cfn=f
calls=2 3
1 10
bad
`

func parse(t *testing.T, input string) *callgrind.Result {
	t.Helper()
	res, err := callgrind.NewReaderParser("sample.out", strings.NewReader(input)).Parse(context.Background())
	require.NoError(t, err)
	return res
}
