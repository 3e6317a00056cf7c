//go:build js && wasm

package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"syscall/js"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"relocate/internal/adapter/cache"
	"relocate/internal/adapter/jsparse"
	"relocate/internal/adapter/memstore"
	"relocate/internal/domain"
	"relocate/internal/usecase"
)

var (
	ledger  *memstore.MemoryStore
	locator *cache.CachedLocator
)

func init() {
	ledger = memstore.NewMemoryStore()
	// Watch-mode rebuilds hand over mostly unchanged chunks.
	locator = cache.NewCachedLocator(jsparse.NewLocator(), cache.NewLocateCache(1024))
}

func main() {
	c := make(chan struct{})

	js.Global().Set("relocateBundle", js.FuncOf(relocateBundle))
	js.Global().Set("relocateRename", js.FuncOf(renamePath))
	js.Global().Set("relocateHistory", js.FuncOf(history))

	<-c
}

type wasmOptions struct {
	Replacement string `json:"replacement"`
	SourceMaps  *bool  `json:"sourceMaps"`
}

// passOptions decodes the options argument. An optional function argument
// takes full control over destination paths.
func passOptions(args []js.Value) (usecase.Options, error) {
	opts := usecase.DefaultOptions()
	if len(args) > 1 && args[1].Type() == js.TypeString && args[1].String() != "" {
		var wo wasmOptions
		if err := json.Unmarshal([]byte(args[1].String()), &wo); err != nil {
			return opts, err
		}
		if wo.Replacement != "" {
			opts.Replacement = wo.Replacement
		}
		if wo.SourceMaps != nil {
			opts.EmitSourceMaps = *wo.SourceMaps
		}
	}
	if len(args) > 2 && args[2].Type() == js.TypeFunction {
		fn := args[2]
		opts.RenameFunc = func(p string) string {
			return fn.Invoke(p).String()
		}
	}
	return opts, nil
}

func relocateBundle(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("usage: relocateBundle(manifestJSON, [optionsJSON], [renameFn])")
	}

	opts, err := passOptions(args)
	if err != nil {
		return makeError("invalid options: " + err.Error())
	}

	started := time.Now()
	var out bytes.Buffer
	result, err := usecase.NewManifestUseCase(usecase.NewMutator(opts, locator)).
		Relocate(strings.NewReader(args[0].String()), &out)
	if err != nil {
		return makeError(err.Error())
	}

	if err := ledger.PutRun(domain.RunRecord{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Root:      "wasm",
		StartedAt: started,
		Duration:  time.Since(started),
		Result:    *result,
	}); err != nil {
		log.Warn().Err(err).Msg("failed to record run")
	} else if err := ledger.Trim(50); err != nil {
		log.Warn().Err(err).Msg("failed to trim ledger")
	}

	return makeResult(map[string]interface{}{
		"bundle": json.RawMessage(out.Bytes()),
		"result": result,
	})
}

func renamePath(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("usage: relocateRename(path, [optionsJSON], [renameFn])")
	}
	opts, err := passOptions(args)
	if err != nil {
		return makeError("invalid options: " + err.Error())
	}
	return opts.Renamer().Rename(args[0].String())
}

func history(this js.Value, args []js.Value) interface{} {
	limit := 0
	if len(args) > 0 {
		limit = args[0].Int()
	}
	runs, err := ledger.ListRuns(limit)
	if err != nil {
		return makeError(err.Error())
	}
	return makeResult(map[string]interface{}{
		"runs": runs,
	})
}

func makeError(msg string) interface{} {
	result, _ := json.Marshal(map[string]interface{}{
		"error": msg,
	})
	return string(result)
}

func makeResult(data map[string]interface{}) interface{} {
	result, _ := json.Marshal(data)
	return string(result)
}
