package fileselector

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTree creates the given relative files under root with empty content.
func writeTree(t *testing.T, root string, paths ...string) {
	t.Helper()
	for _, rel := range paths {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte("// test\n"), 0o644))
	}
}

func TestSelectFiles(t *testing.T) {
	ctx := context.Background()

	t.Run("should match default patterns at any depth", func(t *testing.T) {
		root := t.TempDir()
		writeTree(t, root,
			"a.eval.ts",
			"b.test.js",
			"src/nested/c.eval.js",
			"src/d.ts",
			"README.md",
		)

		paths, err := NewSelector().SelectFiles(ctx, root, nil)
		require.NoError(t, err)

		assert.Equal(t, []string{
			"a.eval.ts",
			"b.test.js",
			filepath.Join("src", "nested", "c.eval.js"),
		}, paths)
	})

	t.Run("should never descend into excluded directories", func(t *testing.T) {
		root := t.TempDir()
		writeTree(t, root,
			"keep.eval.ts",
			"node_modules/pkg/skip.eval.ts",
			"dist/skip.test.js",
			"build/deep/skip.eval.js",
			"src/node_modules/also-skip.test.ts",
		)

		paths, err := NewSelector().SelectFiles(ctx, root, nil)
		require.NoError(t, err)

		assert.Equal(t, []string{"keep.eval.ts"}, paths)
	})

	t.Run("should honour explicit patterns", func(t *testing.T) {
		root := t.TempDir()
		writeTree(t, root, "a.eval.ts", "b.spec.ts", "c/d.spec.ts")

		paths, err := NewSelector().SelectFiles(ctx, root, []string{"**/*.spec.ts"})
		require.NoError(t, err)

		assert.Equal(t, []string{"b.spec.ts", filepath.Join("c", "d.spec.ts")}, paths)
	})

	t.Run("should deduplicate files matched by several patterns", func(t *testing.T) {
		root := t.TempDir()
		writeTree(t, root, "a.eval.ts")

		paths, err := NewSelector().SelectFiles(ctx, root, []string{"**/*.eval.ts", "**/a.*"})
		require.NoError(t, err)

		assert.Equal(t, []string{"a.eval.ts"}, paths)
	})

	t.Run("should return the same order on repeated runs", func(t *testing.T) {
		root := t.TempDir()
		writeTree(t, root, "z.eval.ts", "a.eval.ts", "m/x.test.js")

		first, err := NewSelector().SelectFiles(ctx, root, nil)
		require.NoError(t, err)
		second, err := NewSelector().SelectFiles(ctx, root, nil)
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})

	t.Run("should return an empty slice when nothing matches", func(t *testing.T) {
		root := t.TempDir()
		writeTree(t, root, "main.go")

		paths, err := NewSelector().SelectFiles(ctx, root, nil)
		require.NoError(t, err)

		assert.Empty(t, paths)
	})

	t.Run("should treat a missing work dir as empty", func(t *testing.T) {
		paths, err := NewSelector().SelectFiles(ctx, filepath.Join(t.TempDir(), "absent"), nil)
		require.NoError(t, err)

		assert.Empty(t, paths)
	})

	t.Run("should stop on context cancellation", func(t *testing.T) {
		root := t.TempDir()
		writeTree(t, root, "a.eval.ts")

		cancelled, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewSelector().SelectFiles(cancelled, root, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
