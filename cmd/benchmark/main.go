package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"relocate/internal/adapter/cache"
	"relocate/internal/adapter/jsparse"
	"relocate/internal/domain"
	"relocate/internal/port"
	"relocate/internal/usecase"
)

func main() {
	chunks := flag.Int("chunks", 200, "Number of application chunks")
	vendored := flag.Int("vendor", 800, "Number of vendored chunks")
	fanout := flag.Int("imports", 8, "Vendored imports per application chunk")
	maps := flag.Bool("maps", true, "Regenerate source maps")
	rounds := flag.Int("n", 5, "Number of passes to time")
	cached := flag.Bool("cache", false, "Reuse located specifiers across passes")
	flag.Parse()

	if *chunks <= 0 || *vendored <= 0 || *rounds <= 0 {
		fmt.Println("Usage: go run cmd/benchmark/main.go -chunks 200 -vendor 800 -imports 8")
		os.Exit(1)
	}

	zerolog.SetGlobalLevel(zerolog.WarnLevel)

	fmt.Println("RELOCATION BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("App chunks: %d  Vendored chunks: %d  Imports/chunk: %d  Maps: %v\n",
		*chunks, *vendored, *fanout, *maps)
	fmt.Println(strings.Repeat("-", 70))

	opts := usecase.DefaultOptions()
	opts.EmitSourceMaps = *maps

	var locator port.SpecifierLocator
	var locateCache *cache.LocateCache
	if *cached {
		locateCache = cache.NewLocateCache(*chunks + *vendored)
		locator = cache.NewCachedLocator(jsparse.NewLocator(), locateCache)
	}

	var total time.Duration
	var last *domain.PassResult
	for r := 0; r < *rounds; r++ {
		b, size := syntheticBundle(*chunks, *vendored, *fanout)
		start := time.Now()
		result, err := usecase.NewMutator(opts, locator).Mutate(b)
		elapsed := time.Since(start)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Pass failed: %v\n", err)
			os.Exit(1)
		}
		total += elapsed
		last = result
		fmt.Printf("  pass %d: %8s  (%.1f MB/s)\n", r+1, elapsed.Round(time.Microsecond),
			float64(size)/(1<<20)/elapsed.Seconds())
	}

	fmt.Println(strings.Repeat("-", 70))
	fmt.Printf("Mean:       %s\n", (total / time.Duration(*rounds)).Round(time.Microsecond))
	fmt.Printf("Moved:      %d\n", len(last.Renamed))
	fmt.Printf("Rewritten:  %d\n", len(last.Rewritten))
	fmt.Printf("Specifiers: %d\n", last.Specifiers)
	fmt.Printf("Parsed:     %d\n", last.Parsed)
	if locateCache != nil {
		hits, misses := locateCache.Stats()
		fmt.Printf("Cache:      %d hits, %d misses\n", hits, misses)
	}
}

// syntheticBundle builds app chunks that import vendored chunks through a
// mix of import declarations and require calls.
func syntheticBundle(chunks, vendored, fanout int) (*domain.Bundle, int) {
	b := domain.NewBundle()
	size := 0

	for v := 0; v < vendored; v++ {
		key := fmt.Sprintf("node_modules/pkg%d/index.js", v)
		code := fmt.Sprintf("export const value%d = %d;\n", v, v)
		b.Set(key, &domain.Chunk{FileName: key, Code: code})
		size += len(code)
	}

	for c := 0; c < chunks; c++ {
		key := fmt.Sprintf("chunks/app%d.js", c)
		var sb strings.Builder
		var imports []string
		for i := 0; i < fanout; i++ {
			v := (c*fanout + i) % vendored
			imports = append(imports, fmt.Sprintf("node_modules/pkg%d/index.js", v))
			if i%2 == 0 {
				fmt.Fprintf(&sb, "import { value%d as v%d } from '../node_modules/pkg%d/index.js';\n", v, i, v)
			} else {
				fmt.Fprintf(&sb, "const v%d = require(\"../node_modules/pkg%d/index.js\");\n", i, v)
			}
		}
		sb.WriteString("export function run() {\n  return [")
		for i := 0; i < fanout; i++ {
			fmt.Fprintf(&sb, "v%d, ", i)
		}
		sb.WriteString("];\n}\n")

		code := sb.String()
		b.Set(key, &domain.Chunk{FileName: key, Code: code, Imports: imports})
		size += len(code)
	}
	return b, size
}
