package install

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ckit-sh/ckit/pkg/errors"
	"github.com/ckit-sh/ckit/pkg/manifest"
	"github.com/ckit-sh/ckit/pkg/testutil"
	"github.com/ckit-sh/ckit/pkg/types"
)

const descriptor = "name: engineer\nversion: 1.4.0\ntype: commands\n"

func kitFiles() map[string]string {
	return map[string]string{
		"commands/review.md": "review instructions\n",
		"commands/deploy.md": "deploy instructions\n",
		"agents/helper.md":   "helper agent\n",
	}
}

func opByTarget(t *testing.T, ops []types.Operation, target string) types.Operation {
	t.Helper()
	for _, op := range ops {
		if op.Type != types.OperationCreateDir && op.Target == target {
			return op
		}
	}
	t.Fatalf("no operation for target %s", target)
	return types.Operation{}
}

func TestInstallFreshKit(t *testing.T) {
	source := testutil.CreateKitSource(t, kitFiles(), descriptor)
	root := t.TempDir()

	result, err := Install(Options{Root: root, From: source})
	require.NoError(t, err)

	assert.Equal(t, "engineer", result.KitID)
	assert.Equal(t, "1.4.0", result.Version)
	assert.False(t, result.DryRun)
	require.NotNil(t, result.Tracked)
	assert.Equal(t, 3, result.Tracked.Success)
	assert.Zero(t, result.Tracked.Failed)

	for rel, content := range kitFiles() {
		testutil.AssertFileContent(t, filepath.Join(root, filepath.FromSlash(rel)), content)
	}

	meta := manifest.ReadKitManifest(root, "engineer")
	require.NotNil(t, meta)
	assert.Equal(t, "1.4.0", meta.Version)
	assert.Equal(t, "commands", meta.Type)
	assert.WithinDuration(t, time.Now(), meta.InstalledAt, time.Minute)
	require.Len(t, meta.Files, 3)
	for _, f := range meta.Files {
		assert.Equal(t, types.OwnershipKit, f.Ownership)
		assert.Equal(t, "1.4.0", f.InstalledVersion)
		assert.Equal(t, testutil.Checksum(kitFiles()[f.Path]), f.Checksum)
	}
}

func TestInstallExplicitIdentityWins(t *testing.T) {
	source := testutil.CreateKitSource(t, kitFiles(), descriptor)
	root := t.TempDir()

	result, err := Install(Options{
		Root:    root,
		From:    source,
		KitID:   "custom",
		Version: "9.9.9",
		Type:    "agents",
	})
	require.NoError(t, err)

	assert.Equal(t, "custom", result.KitID)
	assert.Equal(t, "9.9.9", result.Version)

	meta := manifest.ReadKitManifest(root, "custom")
	require.NotNil(t, meta)
	assert.Equal(t, "9.9.9", meta.Version)
	assert.Equal(t, "agents", meta.Type)
	assert.Nil(t, manifest.ReadKitManifest(root, "engineer"))
}

func TestInstallRequiresName(t *testing.T) {
	source := testutil.CreateKitSource(t, kitFiles(), "")

	_, err := Install(Options{Root: t.TempDir(), From: source, Version: "1.0.0"})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestInstallRequiresVersion(t *testing.T) {
	source := testutil.CreateKitSource(t, kitFiles(), "name: engineer\n")

	_, err := Install(Options{Root: t.TempDir(), From: source})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestInstallEmptyKitSource(t *testing.T) {
	_, err := Install(Options{Root: t.TempDir(), From: t.TempDir(), KitID: "x", Version: "1.0.0"})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrKitInvalid))
}

func TestInstallMissingKitSource(t *testing.T) {
	_, err := Install(Options{
		Root:    t.TempDir(),
		From:    filepath.Join(t.TempDir(), "nope"),
		KitID:   "x",
		Version: "1.0.0",
	})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrKitInvalid))
}

func TestInstallDryRun(t *testing.T) {
	source := testutil.CreateKitSource(t, kitFiles(), descriptor)
	root := t.TempDir()

	result, err := Install(Options{Root: root, From: source, DryRun: true})
	require.NoError(t, err)

	assert.True(t, result.DryRun)
	assert.Nil(t, result.Tracked)
	assert.NotEmpty(t, result.Operations)

	for rel := range kitFiles() {
		testutil.AssertNoFile(t, filepath.Join(root, filepath.FromSlash(rel)))
	}
	assert.Nil(t, manifest.ReadManifest(root))
}

func TestInstallSkipsIdenticalTarget(t *testing.T) {
	source := testutil.CreateKitSource(t, kitFiles(), descriptor)
	root := t.TempDir()
	testutil.CreateFile(t, root, "commands/review.md", "review instructions\n")

	result, err := Install(Options{Root: root, From: source})
	require.NoError(t, err)

	op := opByTarget(t, result.Operations, "commands/review.md")
	assert.Equal(t, types.StatusSkipped, op.Status)

	// Identical content still belongs to the kit.
	meta := manifest.ReadKitManifest(root, "engineer")
	require.NotNil(t, meta)
	record, ok := meta.FileByPath("commands/review.md")
	require.True(t, ok)
	assert.Equal(t, types.OwnershipKit, record.Ownership)
}

func TestInstallConflictPreservesLocalFile(t *testing.T) {
	source := testutil.CreateKitSource(t, kitFiles(), descriptor)
	root := t.TempDir()
	testutil.CreateFile(t, root, "commands/review.md", "my own review notes\n")

	result, err := Install(Options{Root: root, From: source})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Conflicts())
	op := opByTarget(t, result.Operations, "commands/review.md")
	assert.Equal(t, types.StatusConflict, op.Status)
	testutil.AssertFileContent(t, filepath.Join(root, "commands/review.md"), "my own review notes\n")

	// The conflicting file is not claimed by the manifest.
	meta := manifest.ReadKitManifest(root, "engineer")
	require.NotNil(t, meta)
	_, ok := meta.FileByPath("commands/review.md")
	assert.False(t, ok)
	assert.Len(t, meta.Files, 2)
}

func TestInstallAllConflictsWritesNoManifest(t *testing.T) {
	source := testutil.CreateKitSource(t, map[string]string{
		"commands/a.md": "released\n",
	}, "name: engineer\nversion: 1.0.0\n")
	root := t.TempDir()
	testutil.CreateFile(t, root, "commands/a.md", "mine\n")

	result, err := Install(Options{Root: root, From: source})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Conflicts())
	assert.Nil(t, manifest.ReadManifest(root))
	testutil.AssertFileContent(t, filepath.Join(root, "commands/a.md"), "mine\n")
}

func TestInstallForceOverwrites(t *testing.T) {
	source := testutil.CreateKitSource(t, kitFiles(), descriptor)
	root := t.TempDir()
	testutil.CreateFile(t, root, "commands/review.md", "my own review notes\n")

	result, err := Install(Options{Root: root, From: source, Force: true})
	require.NoError(t, err)

	assert.Zero(t, result.Conflicts())
	testutil.AssertFileContent(t, filepath.Join(root, "commands/review.md"), "review instructions\n")

	meta := manifest.ReadKitManifest(root, "engineer")
	require.NotNil(t, meta)
	record, ok := meta.FileByPath("commands/review.md")
	require.True(t, ok)
	assert.Equal(t, types.OwnershipKit, record.Ownership)
}

func TestInstallTwoKitsShareManifest(t *testing.T) {
	root := t.TempDir()
	first := testutil.CreateKitSource(t, map[string]string{
		"commands/a.md": "a\n",
	}, "name: alpha\nversion: 1.0.0\n")
	second := testutil.CreateKitSource(t, map[string]string{
		"commands/b.md": "b\n",
	}, "name: beta\nversion: 2.0.0\n")

	_, err := Install(Options{Root: root, From: first})
	require.NoError(t, err)
	_, err = Install(Options{Root: root, From: second})
	require.NoError(t, err)

	meta := manifest.ReadManifest(root)
	require.NotNil(t, meta)
	assert.Equal(t, []string{"alpha", "beta"}, meta.KitIDs())
	assert.Equal(t, types.ScopeLocal, meta.Scope)
}

func TestInstallGlobalScope(t *testing.T) {
	source := testutil.CreateKitSource(t, kitFiles(), descriptor)
	root := t.TempDir()

	_, err := Install(Options{Root: root, From: source, Scope: types.ScopeGlobal})
	require.NoError(t, err)

	meta := manifest.ReadManifest(root)
	require.NotNil(t, meta)
	assert.Equal(t, types.ScopeGlobal, meta.Scope)
}

func TestInstallProgressReported(t *testing.T) {
	source := testutil.CreateKitSource(t, kitFiles(), descriptor)
	root := t.TempDir()

	var calls [][2]int
	_, err := Install(Options{
		Root: root,
		From: source,
		Progress: func(completed, total int) {
			calls = append(calls, [2]int{completed, total})
		},
	})
	require.NoError(t, err)

	require.NotEmpty(t, calls)
	last := calls[len(calls)-1]
	assert.Equal(t, [2]int{3, 3}, last)
}

func TestInstallReinstallKeepsConflictRecord(t *testing.T) {
	root := t.TempDir()
	v1 := testutil.CreateKitSource(t, map[string]string{
		"commands/a.md": "a v1\n",
		"commands/b.md": "b v1\n",
	}, "name: engineer\nversion: 1.0.0\n")

	_, err := Install(Options{Root: root, From: v1})
	require.NoError(t, err)

	// The user edits b.md, then re-installs a new release without force.
	testutil.CreateFile(t, root, "commands/b.md", "b v1 plus my notes\n")
	v2 := testutil.CreateKitSource(t, map[string]string{
		"commands/a.md": "a v2\n",
		"commands/b.md": "b v2\n",
	}, "name: engineer\nversion: 2.0.0\n")

	result, err := Install(Options{Root: root, From: v2})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Conflicts())

	meta := manifest.ReadKitManifest(root, "engineer")
	require.NotNil(t, meta)
	assert.Equal(t, "2.0.0", meta.Version)

	updated, ok := meta.FileByPath("commands/a.md")
	require.True(t, ok)
	assert.Equal(t, "2.0.0", updated.InstalledVersion)
	assert.Equal(t, testutil.Checksum("a v2\n"), updated.Checksum)

	// The conflicted file keeps its v1 record so the edit is still
	// recognized as a modification of a kit file.
	kept, ok := meta.FileByPath("commands/b.md")
	require.True(t, ok)
	assert.Equal(t, "1.0.0", kept.InstalledVersion)
	assert.Equal(t, testutil.Checksum("b v1\n"), kept.Checksum)
	testutil.AssertFileContent(t, filepath.Join(root, "commands/b.md"), "b v1 plus my notes\n")
}
