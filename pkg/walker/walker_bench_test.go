package walker

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
)

// benchTree lays out dirs module directories of fanout files each, three
// quarters .go and one quarter .md, plus a vendor subtree holding another
// quarter of the file count for the pruning benchmarks.
func benchTree(b *testing.B, dirs, fanout int) string {
	b.Helper()
	root := b.TempDir()

	for d := 0; d < dirs; d++ {
		dir := filepath.Join(root, fmt.Sprintf("pkg%02d", d%10), fmt.Sprintf("mod%03d", d))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			b.Fatalf("mkdir failed: %v", err)
		}
		for f := 0; f < fanout; f++ {
			name := fmt.Sprintf("file%03d.go", f)
			if f%4 == 3 {
				name = fmt.Sprintf("note%03d.md", f)
			}
			if err := os.WriteFile(filepath.Join(dir, name), []byte("bench\n"), 0o644); err != nil {
				b.Fatalf("write failed: %v", err)
			}
		}
	}

	vendor := filepath.Join(root, "vendor", "dep")
	if err := os.MkdirAll(vendor, 0o755); err != nil {
		b.Fatalf("mkdir failed: %v", err)
	}
	for f := 0; f < dirs*fanout/4; f++ {
		if err := os.WriteFile(filepath.Join(vendor, fmt.Sprintf("dep%03d.go", f)), []byte("bench\n"), 0o644); err != nil {
			b.Fatalf("write failed: %v", err)
		}
	}
	return root
}

// drain walks root to exhaustion and returns the number of matched entries.
func drain(root string, patterns ...string) (int, error) {
	w, err := NewBuilder(root, patterns...).Build()
	if err != nil {
		return 0, err
	}
	defer func() { _ = w.Close() }()

	n := 0
	for {
		_, err := w.Next()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		n++
	}
}

// BenchmarkWalker_Next measures full enumeration at a few tree sizes.
// Larger trees live in scripts/generate-test-tree.go for manual runs.
func BenchmarkWalker_Next(b *testing.B) {
	sizes := []int{50, 200}

	for _, dirs := range sizes {
		b.Run(fmt.Sprintf("dirs_%d", dirs), func(b *testing.B) {
			root := benchTree(b, dirs, 20)

			entries, err := drain(root, "**/*.go")
			if err != nil {
				b.Fatalf("walk failed: %v", err)
			}

			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				if _, err := drain(root, "**/*.go"); err != nil {
					b.Fatalf("walk failed: %v", err)
				}
			}

			b.ReportMetric(float64(entries*b.N)/b.Elapsed().Seconds(), "entries/sec")
		})
	}
}

// BenchmarkWalker_Prune compares a walk that enumerates vendor with one
// that prunes it. The pruned walk must not pay for vendor's contents.
func BenchmarkWalker_Prune(b *testing.B) {
	root := benchTree(b, 100, 20)

	b.Run("match_all", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			if _, err := drain(root, "**/*.go"); err != nil {
				b.Fatalf("walk failed: %v", err)
			}
		}
	})

	b.Run("pruned", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			if _, err := drain(root, "**/*.go", "!vendor"); err != nil {
				b.Fatalf("walk failed: %v", err)
			}
		}
	})
}

// BenchmarkSet_Match isolates pattern evaluation from filesystem cost.
func BenchmarkSet_Match(b *testing.B) {
	w, err := NewBuilder(b.TempDir(), "**/*.go", "!vendor", "!**/*_test.go").Build()
	if err != nil {
		b.Fatalf("build failed: %v", err)
	}
	defer func() { _ = w.Close() }()

	rels := []string{
		"main.go",
		"internal/server/handler.go",
		"internal/server/handler_test.go",
		"vendor/dep/dep.go",
		"docs/readme.md",
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = w.set.Match(rels[i%len(rels)], false)
	}
}
