package walker

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/globwalk/pkg/dirwalk"
	"github.com/Aman-CERP/globwalk/pkg/pattern"
)

// mktree materializes a test tree. Keys ending in "/" become directories,
// everything else a file holding its value.
func mktree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for path, content := range files {
		full := filepath.Join(root, filepath.FromSlash(path))
		if strings.HasSuffix(path, "/") {
			require.NoError(t, os.MkdirAll(full, 0o755))
			continue
		}
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return root
}

func byName(a, b fs.DirEntry) int {
	return strings.Compare(a.Name(), b.Name())
}

func collect(t *testing.T, w *Walker) ([]string, []error) {
	t.Helper()
	defer func() { require.NoError(t, w.Close()) }()

	var rels []string
	var errs []error
	for {
		e, err := w.Next()
		if errors.Is(err, io.EOF) {
			return rels, errs
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		rels = append(rels, filepath.ToSlash(e.Rel()))
	}
}

func run(t *testing.T, b *Builder) ([]string, []error) {
	t.Helper()
	w, err := b.Build()
	require.NoError(t, err)
	return collect(t, w)
}

func TestWalker_Next_MatchedFilesAtAnyDepth(t *testing.T) {
	root := mktree(t, map[string]string{
		"hello.rs":   "",
		"world.rs":   "",
		"README.md":  "",
		"src/lib.rs": "",
	})

	rels, errs := run(t, NewBuilder(root, "*.rs").SortBy(byName))
	assert.Empty(t, errs)
	assert.Equal(t, []string{"hello.rs", "src/lib.rs", "world.rs"}, rels)
}

func TestWalker_Next_NegationTakesPrecedence(t *testing.T) {
	root := mktree(t, map[string]string{
		"hello.rs": "",
		"world.rs": "",
	})

	rels, errs := run(t, NewBuilder(root, "*.rs", "!world.rs").SortBy(byName))
	assert.Empty(t, errs)
	assert.Equal(t, []string{"hello.rs"}, rels)
}

func TestWalker_Next_PrunedSubtreeStaysDark(t *testing.T) {
	root := mktree(t, map[string]string{
		"cat.png":              "",
		"docs/bird.png":        "",
		"Pictures/dog.png":     "",
		"Pictures/sub/fox.png": "",
	})

	// **/*.png matches Pictures/dog.png too; only pruning keeps it out.
	rels, errs := run(t, NewBuilder(root, "**/*.png", "!Pictures").SortBy(byName))
	assert.Empty(t, errs)
	assert.Equal(t, []string{"cat.png", "docs/bird.png"}, rels)
	assert.NotContains(t, rels, "Pictures")
}

func TestWalker_Next_DirectoryMatchIsJustTheDirectory(t *testing.T) {
	root := mktree(t, map[string]string{
		"mod/a.rs":     "",
		"mod/sub/b.rs": "",
		"other/c.rs":   "",
	})

	rels, errs := run(t, NewBuilder(root, "mod").SortBy(byName))
	assert.Empty(t, errs)
	assert.Equal(t, []string{"mod"}, rels)
}

func TestWalker_Next_IncludedDirStillDescended(t *testing.T) {
	root := mktree(t, map[string]string{
		"mod/a.rs": "",
		"b.rs":     "",
	})

	// Matching the directory does not stop the walk: entries below it can
	// still match their own rules.
	rels, errs := run(t, NewBuilder(root, "mod", "*.rs").SortBy(byName))
	assert.Empty(t, errs)
	assert.Equal(t, []string{"b.rs", "mod", "mod/a.rs"}, rels)
}

func TestWalker_Next_CaseFolding(t *testing.T) {
	root := mktree(t, map[string]string{"avocado.RS": ""})

	rels, errs := run(t, NewBuilder(root, "*.rs"))
	assert.Empty(t, errs)
	assert.Empty(t, rels)

	rels, errs = run(t, NewBuilder(root, "*.rs").CaseInsensitive(true))
	assert.Empty(t, errs)
	assert.Equal(t, []string{"avocado.RS"}, rels)
}

func TestWalker_Next_ContentsFirstStillPrunes(t *testing.T) {
	root := mktree(t, map[string]string{
		"cat.png":          "",
		"Pictures/dog.png": "",
		"docs/bird.png":    "",
	})

	rels, errs := run(t, NewBuilder(root, "**/*.png", "!Pictures").
		ContentsFirst(true).
		SortBy(byName))
	assert.Empty(t, errs)
	assert.ElementsMatch(t, []string{"cat.png", "docs/bird.png"}, rels)
}

func TestWalker_Next_ContentsFirstOrder(t *testing.T) {
	root := mktree(t, map[string]string{
		"mod/a.rs": "",
		"b.rs":     "",
	})

	rels, errs := run(t, NewBuilder(root, "mod", "*.rs").
		ContentsFirst(true).
		SortBy(byName))
	assert.Empty(t, errs)
	assert.Equal(t, []string{"b.rs", "mod/a.rs", "mod"}, rels)
}

func TestWalker_Next_DepthBounds(t *testing.T) {
	files := map[string]string{
		"a.txt":          "",
		"sub/b.txt":      "",
		"sub/deep/c.txt": "",
	}

	tests := []struct {
		name  string
		build func(root string) *Builder
		want  []string
	}{
		{
			name:  "max depth one keeps the surface",
			build: func(r string) *Builder { return NewBuilder(r, "*.txt").MaxDepth(1).SortBy(byName) },
			want:  []string{"a.txt"},
		},
		{
			name:  "min depth two hides the surface",
			build: func(r string) *Builder { return NewBuilder(r, "*.txt").MinDepth(2).SortBy(byName) },
			want:  []string{"sub/b.txt", "sub/deep/c.txt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := mktree(t, files)
			rels, errs := run(t, tt.build(root))
			assert.Empty(t, errs)
			assert.Equal(t, tt.want, rels)
		})
	}
}

func TestWalker_Next_NoMatchesCleanEOF(t *testing.T) {
	root := mktree(t, map[string]string{"a.txt": "", "sub/b.txt": ""})

	w, err := NewBuilder(root, "*.zig").Build()
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	_, err = w.Next()
	assert.ErrorIs(t, err, io.EOF)
	_, err = w.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestWalker_Next_InlineErrorsDoNotEndWalk(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("cannot drop directory read permission here")
	}

	root := mktree(t, map[string]string{
		"locked/hidden.txt": "",
		"zz/visible.txt":    "",
	})
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	rels, errs := run(t, NewBuilder(root, "**/*.txt").SortBy(byName))

	require.Len(t, errs, 1)
	var werr *dirwalk.Error
	require.ErrorAs(t, errs[0], &werr)
	assert.Equal(t, locked, werr.Path)
	assert.Equal(t, []string{"zz/visible.txt"}, rels)
}

func TestWalker_Next_MissingBase(t *testing.T) {
	w, err := NewBuilder(filepath.Join(t.TempDir(), "gone"), "*.txt").Build()
	require.NoError(t, err, "base problems are walk errors, not build errors")

	_, err = w.Next()
	var werr *dirwalk.Error
	require.ErrorAs(t, err, &werr)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = w.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestWalker_Next_FollowLinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation needs privileges here")
	}

	root := mktree(t, map[string]string{"real/note.txt": ""})
	require.NoError(t, os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "link")))

	rels, errs := run(t, NewBuilder(root, "*.txt").SortBy(byName))
	assert.Empty(t, errs)
	assert.Equal(t, []string{"real/note.txt"}, rels)

	rels, errs = run(t, NewBuilder(root, "*.txt").FollowLinks(true).SortBy(byName))
	assert.Empty(t, errs)
	assert.Equal(t, []string{"link/note.txt", "real/note.txt"}, rels)
}

func TestWalker_All_RangesAndCloses(t *testing.T) {
	root := mktree(t, map[string]string{
		"a.rs": "",
		"b.rs": "",
		"c.md": "",
	})

	w, err := NewBuilder(root, "*.rs").SortBy(byName).Build()
	require.NoError(t, err)

	var rels []string
	for e, err := range w.All() {
		require.NoError(t, err)
		rels = append(rels, e.Name())
	}
	assert.Equal(t, []string{"a.rs", "b.rs"}, rels)

	// The sequence closed the walker on exit.
	_, err = w.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestWalker_Next_Idempotent(t *testing.T) {
	root := mktree(t, map[string]string{
		"a.rs":       "",
		"sub/b.rs":   "",
		"skip/c.rs":  "",
		"skip/d.txt": "",
	})

	first, errs := run(t, NewBuilder(root, "*.rs", "!skip").SortBy(byName))
	assert.Empty(t, errs)

	for i := 0; i < 3; i++ {
		again, errs := run(t, NewBuilder(root, "*.rs", "!skip").SortBy(byName))
		assert.Empty(t, errs)
		assert.Equal(t, first, again)
	}
}

func TestBuilder_Build_PatternErrorIsFatal(t *testing.T) {
	w, err := NewBuilder(t.TempDir(), "*.rs", "*.{png").Build()
	assert.Nil(t, w)

	var perr *pattern.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "*.{png", perr.Pattern)
}

func TestBuilder_Build_NoPatterns(t *testing.T) {
	w, err := NewBuilder(t.TempDir()).Build()
	assert.Nil(t, w)
	assert.ErrorIs(t, err, pattern.ErrNoPatterns)
}

func TestBuilder_Patterns_Appends(t *testing.T) {
	root := mktree(t, map[string]string{
		"a.rs": "",
		"b.md": "",
	})

	rels, errs := run(t, NewBuilder(root, "*.rs").Patterns("*.md").SortBy(byName))
	assert.Empty(t, errs)
	assert.Equal(t, []string{"a.rs", "b.md"}, rels)
}

func TestGlob_UsesWorkingDirectory(t *testing.T) {
	root := mktree(t, map[string]string{
		"hello.rs": "",
		"world.md": "",
	})
	t.Chdir(root)

	w, err := Glob("*.rs")
	require.NoError(t, err)
	rels, errs := collect(t, w)
	assert.Empty(t, errs)
	assert.Equal(t, []string{"hello.rs"}, rels)
}

func TestWalker_Base_IsAbsolute(t *testing.T) {
	root := mktree(t, map[string]string{"a.rs": ""})
	t.Chdir(root)

	w, err := NewBuilder(".", "*.rs").Build()
	require.NoError(t, err)
	defer func() { _ = w.Close() }()
	assert.True(t, filepath.IsAbs(w.Base()))
}
