//go:build ignore

// Package main generates a synthetic directory tree for benchmarking walks.
// Usage: go run scripts/generate-test-tree.go -dirs 500 -fanout 20 -output testdata/bench
//
// The tree mixes extensions and plants vendor/node_modules/.cache subtrees,
// so pattern sets with excludes have something real to prune. File contents
// are one line; a walk never reads them.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
)

var (
	numDirs   = flag.Int("dirs", 500, "Number of directories to generate")
	fanout    = flag.Int("fanout", 20, "Files per directory")
	maxDepth  = flag.Int("depth", 8, "Maximum nesting depth")
	outputDir = flag.String("output", "testdata/bench", "Output directory")
	seed      = flag.Int64("seed", 42, "Random seed for reproducibility")
)

var dirWords = []string{
	"api", "app", "auth", "build", "cache", "client", "core", "db",
	"docs", "handlers", "models", "net", "pkg", "proto", "server",
	"store", "tools", "ui", "util", "web",
}

var fileWords = []string{
	"config", "engine", "filter", "index", "loader", "main", "parser",
	"queue", "reader", "router", "runner", "schema", "setup", "walker",
	"writer",
}

// Extension mix loosely modeled on a web service repo. Weights are
// repetitions in the slice.
var extensions = []string{
	".go", ".go", ".go", ".go",
	".md", ".md",
	".ts", ".ts",
	".json", ".yaml",
	".png", ".txt",
}

// Subtrees a typical pattern set excludes.
var prunable = []string{"vendor", "node_modules", ".cache"}

func main() {
	flag.Parse()
	rng := rand.New(rand.NewSource(*seed))

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create output dir: %v\n", err)
		os.Exit(1)
	}

	// Grow the skeleton by attaching each new directory to a random
	// existing one, depth permitting. Index 0 is the root itself.
	dirs := []string{*outputDir}
	for i := 0; i < *numDirs; i++ {
		parent := dirs[rng.Intn(len(dirs))]
		if depthOf(parent) >= *maxDepth {
			parent = *outputDir
		}
		name := fmt.Sprintf("%s%d", dirWords[rng.Intn(len(dirWords))], i)
		path := filepath.Join(parent, name)
		if err := os.MkdirAll(path, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "create %s: %v\n", path, err)
			os.Exit(1)
		}
		dirs = append(dirs, path)
	}

	// A few prunable subtrees with real weight in them.
	for _, name := range prunable {
		path := filepath.Join(*outputDir, name, "dep")
		if err := os.MkdirAll(path, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "create %s: %v\n", path, err)
			os.Exit(1)
		}
		dirs = append(dirs, path)
	}

	files := 0
	for _, dir := range dirs {
		for i := 0; i < *fanout; i++ {
			name := fileWords[rng.Intn(len(fileWords))] +
				fmt.Sprintf("%d", i) +
				extensions[rng.Intn(len(extensions))]
			path := filepath.Join(dir, name)
			if err := os.WriteFile(path, []byte("bench fixture\n"), 0o644); err != nil {
				fmt.Fprintf(os.Stderr, "write %s: %v\n", path, err)
				os.Exit(1)
			}
			files++
		}
	}

	fmt.Printf("Generated %d directories, %d files under %s\n", len(dirs), files, *outputDir)
}

// depthOf counts path components below the output root.
func depthOf(path string) int {
	rel, err := filepath.Rel(*outputDir, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}
