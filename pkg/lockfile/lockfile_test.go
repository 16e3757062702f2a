package lockfile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ckit-sh/ckit/pkg/errors"
)

func fastOptions() Options {
	return Options{
		Retries:    2,
		RetryDelay: 10 * time.Millisecond,
		StaleAfter: time.Minute,
	}
}

func TestAcquireCreatesTargetAndSidecar(t *testing.T) {
	target := filepath.Join(t.TempDir(), ".ckit-manifest.json")

	guard, err := Acquire(target, fastOptions())
	require.NoError(t, err)
	defer func() { _ = guard.Release() }()

	assert.FileExists(t, target)
	assert.FileExists(t, target+Suffix)
	assert.Equal(t, target+Suffix, guard.Path())

	// The target was created empty, not clobbered.
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestAcquireDoesNotTruncateExistingTarget(t *testing.T) {
	target := filepath.Join(t.TempDir(), ".ckit-manifest.json")
	require.NoError(t, os.WriteFile(target, []byte(`{"kits":{}}`), 0644))

	guard, err := Acquire(target, fastOptions())
	require.NoError(t, err)
	defer func() { _ = guard.Release() }()

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, `{"kits":{}}`, string(data))
}

func TestAcquireWritesHolderInfo(t *testing.T) {
	target := filepath.Join(t.TempDir(), ".ckit-manifest.json")

	guard, err := Acquire(target, fastOptions())
	require.NoError(t, err)
	defer func() { _ = guard.Release() }()

	data, err := os.ReadFile(target + Suffix)
	require.NoError(t, err)

	var info Info
	require.NoError(t, json.Unmarshal(data, &info))
	assert.Equal(t, os.Getpid(), info.PID)
	assert.NotEmpty(t, info.Holder)
	assert.WithinDuration(t, time.Now().UTC(), info.CreatedAt, time.Minute)
}

func TestAcquireContention(t *testing.T) {
	target := filepath.Join(t.TempDir(), ".ckit-manifest.json")

	first, err := Acquire(target, fastOptions())
	require.NoError(t, err)

	_, err = Acquire(target, fastOptions())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrLockAcquisition))

	require.NoError(t, first.Release())

	second, err := Acquire(target, fastOptions())
	require.NoError(t, err)
	assert.NoError(t, second.Release())
}

func TestAcquireReclaimsStaleLock(t *testing.T) {
	target := filepath.Join(t.TempDir(), ".ckit-manifest.json")

	wedged, err := Acquire(target, fastOptions())
	require.NoError(t, err)
	defer func() { _ = wedged.Release() }()

	// Backdate the holder metadata so the lock looks abandoned.
	old := Info{PID: os.Getpid(), Holder: "wedged", CreatedAt: time.Now().UTC().Add(-5 * time.Minute)}
	data, err := json.Marshal(old)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(target+Suffix, data, 0644))

	opts := fastOptions()
	opts.StaleAfter = time.Second

	reclaimed, err := Acquire(target, opts)
	require.NoError(t, err)
	assert.NoError(t, reclaimed.Release())
}

func TestAcquireStaleByModTime(t *testing.T) {
	target := filepath.Join(t.TempDir(), ".ckit-manifest.json")

	wedged, err := Acquire(target, fastOptions())
	require.NoError(t, err)
	defer func() { _ = wedged.Release() }()

	// Garbage metadata forces the mtime fallback.
	sidecar := target + Suffix
	require.NoError(t, os.WriteFile(sidecar, []byte("not json"), 0644))
	stale := time.Now().Add(-5 * time.Minute)
	require.NoError(t, os.Chtimes(sidecar, stale, stale))

	opts := fastOptions()
	opts.StaleAfter = time.Second

	reclaimed, err := Acquire(target, opts)
	require.NoError(t, err)
	assert.NoError(t, reclaimed.Release())
}

func TestReleaseIsIdempotent(t *testing.T) {
	target := filepath.Join(t.TempDir(), ".ckit-manifest.json")

	guard, err := Acquire(target, fastOptions())
	require.NoError(t, err)

	require.NoError(t, guard.Release())
	require.NoError(t, guard.Release())

	var nilGuard *Guard
	assert.NoError(t, nilGuard.Release())
}

func TestAcquireFailsOnUnwritableDir(t *testing.T) {
	target := filepath.Join(t.TempDir(), "missing", "nested", ".ckit-manifest.json")

	_, err := Acquire(target, fastOptions())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrFileAccess))
}
