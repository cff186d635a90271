package log

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSuffix(t *testing.T) {
	testCases := []struct {
		day  int
		want int
	}{
		{1, 0}, {9, 0}, {10, 1}, {19, 1}, {20, 2}, {31, 2},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, Suffix(tc.day), "day %d", tc.day)
	}
}

func TestNewWritesConsoleAndFiles(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer
	now := func() time.Time { return time.Date(2024, 3, 12, 8, 0, 0, 0, time.UTC) }

	l, err := New(Config{Dir: dir, Name: "server", Level: "info", Console: &console, Now: now})
	require.NoError(t, err)

	l.Debug("hidden")
	l.Info("printed", zap.String("type", "location_label"))
	l.Error("print failed", zap.Error(os.ErrDeadlineExceeded))
	require.NoError(t, l.Close())

	assert.Contains(t, console.String(), "printed")
	assert.Contains(t, console.String(), "location_label")
	assert.NotContains(t, console.String(), "hidden")

	main, err := os.ReadFile(filepath.Join(dir, "server-1.log"))
	require.NoError(t, err)
	assert.Contains(t, string(main), `"msg":"printed"`)
	assert.Contains(t, string(main), `"msg":"print failed"`)

	errs, err := os.ReadFile(filepath.Join(dir, "errors-1.log"))
	require.NoError(t, err)
	assert.NotContains(t, string(errs), `"msg":"printed"`)
	assert.Contains(t, string(errs), "print failed")
}

func TestNewRotatesStaleSlot(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "server-0.log")
	older := filepath.Join(dir, "server-1.log")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0644))
	require.NoError(t, os.WriteFile(older, []byte("keep"), 0644))

	now := func() time.Time { return time.Date(2024, 3, 25, 8, 0, 0, 0, time.UTC) }
	l, err := New(Config{Dir: dir, Name: "server", Console: &bytes.Buffer{}, Now: now})
	require.NoError(t, err)
	require.NoError(t, l.Close())

	assert.NoFileExists(t, stale)
	assert.FileExists(t, older)
	assert.FileExists(t, filepath.Join(dir, "server-2.log"))
}

func TestNewRejectsLevel(t *testing.T) {
	_, err := New(Config{Dir: t.TempDir(), Level: "loud"})
	assert.Error(t, err)
}

func TestLoggerMovesToNextSlot(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 10, 5, 8, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	l, err := New(Config{Dir: dir, Name: "app", Console: &bytes.Buffer{}, Now: clock})
	require.NoError(t, err)
	defer l.Close()

	l.Info("day five")
	l.Error("day five failed")
	stale := filepath.Join(dir, "app-2.log")
	require.NoError(t, os.WriteFile(stale, []byte("last month"), 0644))

	now = time.Date(2024, 10, 15, 8, 0, 0, 0, time.UTC)
	l.Info("day fifteen")
	l.Error("day fifteen failed")
	require.NoError(t, l.Sync())

	first, err := os.ReadFile(filepath.Join(dir, "app-0.log"))
	require.NoError(t, err)
	assert.Contains(t, string(first), "day five")
	assert.NotContains(t, string(first), "day fifteen")

	second, err := os.ReadFile(filepath.Join(dir, "app-1.log"))
	require.NoError(t, err)
	assert.Contains(t, string(second), "day fifteen")
	assert.NotContains(t, string(second), "day five")
	assert.NoFileExists(t, stale)

	errs, err := os.ReadFile(filepath.Join(dir, "errors-1.log"))
	require.NoError(t, err)
	assert.Contains(t, string(errs), "day fifteen failed")
	assert.NotContains(t, string(errs), "day five failed")
}
