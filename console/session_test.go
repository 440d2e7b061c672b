package console

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempTrace(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trace.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestSession_RunRequiresTrace(t *testing.T) {
	sess := NewSession()
	_, err := sess.Run("pre", false)
	assert.ErrorContains(t, err, "no trace loaded")
}

func TestSession_LoadAndRun(t *testing.T) {
	sess := NewSession()
	path := writeTempTrace(t, "x R 1000\nx W 2000\n")
	require.NoError(t, sess.Load(path))

	gotPath, pages, accesses := sess.TraceInfo()
	assert.Equal(t, path, gotPath)
	assert.Equal(t, 2, pages)
	assert.Equal(t, 2, accesses)

	metrics, err := sess.Run("pre", false)
	require.NoError(t, err)
	assert.Equal(t, 8.0, metrics.TransmittedData)

	results := sess.Results()
	require.Len(t, results, 1)
	assert.Equal(t, "pre", results[0].Scheme)
	assert.False(t, results[0].Optimize)
	assert.Equal(t, metrics, results[0].Metrics)
}

func TestSession_BadSchemeToken(t *testing.T) {
	sess := NewSession()
	path := writeTempTrace(t, "x R 1000\n")
	require.NoError(t, sess.Load(path))
	_, err := sess.Run("hybrid", false)
	assert.ErrorContains(t, err, "unknown migration scheme")
}

func TestSession_ChannelValidation(t *testing.T) {
	sess := NewSession()
	assert.Error(t, sess.SetSpeed(0))
	assert.Error(t, sess.SetSpeed(-1))
	assert.Error(t, sess.SetDelay(-1))
	require.NoError(t, sess.SetSpeed(25))
	require.NoError(t, sess.SetDelay(0))

	channel := sess.Channel()
	assert.Equal(t, 25.0, channel.Speed)
	assert.Equal(t, 0.0, channel.Delay)
}

func TestSession_Compare(t *testing.T) {
	sess := NewSession()
	path := writeTempTrace(t, "x R 1000\nx W 2000\nx R 3000\n")
	require.NoError(t, sess.Load(path))

	results, err := sess.Compare()
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.Equal(t, "pre", results[0].Scheme)
	assert.False(t, results[0].Optimize)
	assert.Equal(t, "pre", results[1].Scheme)
	assert.True(t, results[1].Optimize)
	assert.Equal(t, "post", results[2].Scheme)
	assert.Equal(t, "post", results[3].Scheme)

	for _, r := range results {
		assert.GreaterOrEqual(t, r.Metrics.TransmittedData, 3*4.0)
		assert.Equal(t, r.Metrics.TotalMigrationTime, r.Metrics.EvictionTime)
	}

	// Compare appends to the session history too.
	assert.Len(t, sess.Results(), 4)
}

func TestSession_LoadResetsResults(t *testing.T) {
	sess := NewSession()
	path := writeTempTrace(t, "x W 1000\n")
	require.NoError(t, sess.Load(path))
	_, err := sess.Run("post", true)
	require.NoError(t, err)
	require.Len(t, sess.Results(), 1)

	require.NoError(t, sess.Load(path))
	assert.Empty(t, sess.Results())
}
