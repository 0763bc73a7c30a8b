//go:build ignore

// Package main writes a synthetic text corpus for timing the two search
// strategies against each other.
// Usage: go run scripts/generate-corpus.go -files 500 -output text_files
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
	numFiles  = flag.Int("files", 200, "Number of files to generate")
	outputDir = flag.String("output", "text_files", "Output directory")
	lines     = flag.Int("lines", 400, "Lines per file")
	seed      = flag.Int64("seed", 42, "Random seed for reproducibility")
	keywords  = flag.String("keywords", "Python,error,process", "Comma-separated keywords to seed")
	rate      = flag.Float64("rate", 0.3, "Probability that a file contains a given keyword")
)

var filler = []string{
	"the", "quick", "brown", "fox", "jumps", "over", "lazy", "dog",
	"data", "stream", "buffer", "request", "handler", "module", "config",
	"value", "result", "queue", "node", "index", "record", "batch",
}

func main() {
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))
	kws := strings.Split(*keywords, ",")

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create output dir: %v\n", err)
		os.Exit(1)
	}

	counts := make(map[string]int, len(kws))
	for i := 0; i < *numFiles; i++ {
		var sb strings.Builder
		for l := 0; l < *lines; l++ {
			n := 6 + rng.Intn(8)
			for w := 0; w < n; w++ {
				if w > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(filler[rng.Intn(len(filler))])
			}
			sb.WriteByte('\n')
		}

		text := sb.String()
		for _, kw := range kws {
			if rng.Float64() >= *rate {
				continue
			}
			// insert at a random line boundary
			start := rng.Intn(len(text))
			cut := start + strings.IndexByte(text[start:], '\n') + 1
			text = text[:cut] + "found " + kw + " here\n" + text[cut:]
			counts[kw]++
		}

		path := filepath.Join(*outputDir, fmt.Sprintf("file_%04d.txt", i))
		if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "write %s: %v\n", path, err)
			os.Exit(1)
		}
	}

	fmt.Printf("Generated %d files in %s\n", *numFiles, *outputDir)
	for _, kw := range kws {
		fmt.Printf("  %s: %d files\n", kw, counts[kw])
	}
}
