package storage

import (
	"AgroStats/src/config"
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T, level LogLevel) (*Logger, string, *bytes.Buffer) {
	t.Helper()
	filename := filepath.Join(t.TempDir(), "app.log")
	var console bytes.Buffer
	logger, err := NewLogger(filename, level, &console)
	require.NoError(t, err)
	t.Cleanup(func() { _ = logger.Close() })
	return logger, filename, &console
}

func TestLoggerWritesFileAndConsole(t *testing.T) {
	logger, filename, console := newTestLogger(t, INFO)

	logger.Info("数据刷新完成", "records", 3)
	logger.Debug("不会输出")

	data, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Contains(t, string(data), "数据刷新完成")
	assert.Contains(t, string(data), "records=3")
	assert.NotContains(t, string(data), "不会输出")
	assert.Equal(t, string(data), console.String())
}

func TestLoggerSubscribe(t *testing.T) {
	logger, _, _ := newTestLogger(t, DEBUG)

	sub := logger.Subscribe()
	logger.Warning("dataset missing column", "column", "Year")

	select {
	case entry := <-sub:
		assert.Contains(t, entry, "dataset missing column")
		assert.Contains(t, entry, "column=Year")
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive log entry")
	}

	logger.Unsubscribe(sub)
	_, ok := <-sub
	assert.False(t, ok, "channel should be closed after unsubscribe")
}

func TestLoggerCheckRotate(t *testing.T) {
	logger, filename, _ := newTestLogger(t, INFO)
	logger.Info("first entry")

	cfg := &config.Config{LogMaxSize: "1 * 1"}
	require.NoError(t, logger.CheckRotate(cfg))

	rotated, err := filepath.Glob(filepath.Join(filepath.Dir(filename), "app.*.log"))
	require.NoError(t, err)
	require.Len(t, rotated, 1)

	old, err := os.ReadFile(rotated[0])
	require.NoError(t, err)
	assert.Contains(t, string(old), "first entry")

	logger.Info("second entry")
	current, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Contains(t, string(current), "second entry")
	assert.NotContains(t, string(current), "first entry")
}

func TestLoggerCheckRotateBelowLimit(t *testing.T) {
	logger, filename, _ := newTestLogger(t, INFO)
	logger.Info("small")

	require.NoError(t, logger.CheckRotate(&config.Config{LogMaxSize: "10 * 1024 * 1024"}))

	rotated, err := filepath.Glob(filepath.Join(filepath.Dir(filename), "app.*.log"))
	require.NoError(t, err)
	assert.Empty(t, rotated)
}

func TestLoggerReopen(t *testing.T) {
	logger, filename, _ := newTestLogger(t, INFO)
	logger.Info("before")

	moved := filename + ".1"
	require.NoError(t, os.Rename(filename, moved))
	require.NoError(t, logger.Reopen())
	logger.Info("after")

	data, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Contains(t, string(data), "after")
	assert.NotContains(t, string(data), "before")
}

func TestParseLevelAndEval(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARNING, ParseLevel("WARN"))
	assert.Equal(t, INFO, ParseLevel("bogus"))
	assert.Equal(t, "ERROR", ERROR.String())

	assert.Equal(t, int64(10*1024*1024), eval("10 * 1024 * 1024"))
	assert.Equal(t, int64(0), eval("ten"))
}
