package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panyam/vmsim/core"
)

func TestParseTrace_CompactsPagesAscending(t *testing.T) {
	// Raw pages 3, 1, 2 appear in that order; compaction preserves
	// ascending numeric order, so 1→0, 2→1, 3→2.
	input := strings.Join([]string{
		"ip0 R 3000",
		"ip1 W 1000",
		"ip2 R 2000",
		"ip3 W 3000",
	}, "\n")

	trace, err := ParseTrace(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 3, trace.PageCount)
	assert.Equal(t, core.AccessHistory{
		{Page: 2, Op: core.OpRead},
		{Page: 0, Op: core.OpWrite},
		{Page: 1, Op: core.OpRead},
		{Page: 2, Op: core.OpWrite},
	}, trace.History)
}

func TestParseTrace_PageFromAddressBits(t *testing.T) {
	// Addresses inside the same 4K page compact to one page index.
	input := "x R 7f5a4b2000\nx W 7f5a4b2fff\nx R 7f5a4b3000\n"
	trace, err := ParseTrace(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 2, trace.PageCount)
	assert.Equal(t, 0, trace.History[0].Page)
	assert.Equal(t, 0, trace.History[1].Page)
	assert.Equal(t, 1, trace.History[2].Page)
}

func TestParseTrace_UnknownKindIsWrite(t *testing.T) {
	trace, err := ParseTrace(strings.NewReader("x R 1000\nx W 2000\nx X 3000\n"))
	require.NoError(t, err)
	assert.Equal(t, core.OpRead, trace.History[0].Op)
	assert.Equal(t, core.OpWrite, trace.History[1].Op)
	assert.Equal(t, core.OpWrite, trace.History[2].Op)
}

func TestParseTrace_HexPrefixAndBlankLines(t *testing.T) {
	trace, err := ParseTrace(strings.NewReader("x R 0x1000\n\n\nx W 1000\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, trace.PageCount)
	assert.Len(t, trace.History, 2)
}

func TestParseTrace_Empty(t *testing.T) {
	trace, err := ParseTrace(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, trace.PageCount)
	assert.Empty(t, trace.History)
}

func TestParseTrace_Malformed(t *testing.T) {
	_, err := ParseTrace(strings.NewReader("x R\n"))
	assert.ErrorContains(t, err, "line 1")

	_, err = ParseTrace(strings.NewReader("x R 1000\nx W zz-not-hex\n"))
	assert.ErrorContains(t, err, "line 2")
}

func TestParseTraceFile_Missing(t *testing.T) {
	_, err := ParseTraceFile(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestLoadScenario(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
trace: traces/kernel-build.txt
scheme: post
optimize: true
channel:
  speed: 25
  delay: 5
`), 0644))

	sc, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "traces/kernel-build.txt", sc.Trace)
	assert.Equal(t, "post", sc.Scheme)
	assert.True(t, sc.Optimize)
	assert.Equal(t, 25.0, sc.Channel.Speed)
	assert.Equal(t, 5.0, sc.Channel.Delay)
}

func TestLoadScenario_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "min.yaml")
	require.NoError(t, os.WriteFile(path, []byte("trace: t.txt\n"), 0644))

	sc, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "pre", sc.Scheme)
	assert.False(t, sc.Optimize)
}

func TestLoadScenario_MissingTrace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scheme: pre\n"), 0644))
	_, err := LoadScenario(path)
	assert.ErrorContains(t, err, "missing trace path")
}

func TestFormatMetrics(t *testing.T) {
	m := core.Metrics{
		Downtime:           0,
		Delays:             20.0004004,
		TotalMigrationTime: 20.0008,
		TransmittedData:    8.004,
		EvictionTime:       20.0008,
	}
	got := FormatMetrics(m)
	want := "downtime: 0\n" +
		"eviction time: 20.0008\n" +
		"total_migration time: 20.0008\n" +
		"transmitted data: 8.004\n" +
		"delays: 20.0004004\n"
	assert.Equal(t, want, got)
}
