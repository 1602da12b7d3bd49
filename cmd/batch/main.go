// Command batch reviews (or translates) source files concurrently and prints one JSON line per file.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"coderefine/internal/adapters/groq"
	"coderefine/internal/adapters/observability"
	"coderefine/internal/app"
	"coderefine/internal/shared"
)

type line struct {
	File   string `json:"file"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

func main() {
	translateTo := flag.String("translate", "", "translate each file into this language instead of reviewing it")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cfg := shared.Load()

	// logs go to stderr; stdout carries results
	log.Logger = observability.NewLoggerTo(cfg.AppEnv, os.Stderr).With().Str("run_id", uuid.NewString()).Logger()

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	files := flag.Args()
	if len(files) == 0 {
		log.Fatal().Msg("usage: batch [-translate LANG] FILE...")
	}
	workers := cfg.BatchWorkers
	if workers <= 0 {
		workers = 1
	}

	client, err := groq.New(cfg.LLMBase, cfg.LLMKey, cfg.LLMTimeout, cfg.LLMRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize LLM client")
	}
	o := app.NewOrchestrator(client, nil, app.Options{Model: cfg.LLMModel, Temperature: cfg.LLMTemperature})

	log.Info().Int("files", len(files)).Int("workers", workers).Str("translate", *translateTo).Msg("batch starting")

	sem := semaphore.NewWeighted(int64(workers))
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex // guards enc
		enc = json.NewEncoder(os.Stdout)
	)
	emit := func(l line) {
		mu.Lock()
		defer mu.Unlock()
		if err := enc.Encode(l); err != nil {
			log.Error().Err(err).Str("file", l.File).Msg("write result failed")
		}
	}

	failed := 0
	for _, f := range files {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Warn().Err(err).Msg("interrupted; not starting remaining files")
			break
		}

		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			defer sem.Release(1)

			src, err := os.ReadFile(path)
			if err != nil {
				emit(line{File: path, Error: err.Error()})
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}

			if *translateTo != "" {
				emit(line{File: path, Result: o.Translate(ctx, string(src), *translateTo)})
				return
			}
			res, err := o.Review(ctx, string(src))
			if err != nil {
				log.Warn().Str("file", path).Err(err).Msg("review failed")
				emit(line{File: path, Error: err.Error()})
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}
			log.Info().Str("file", path).Int("original_score", res.OriginalScore).Msg("review ok")
			emit(line{File: path, Result: res})
		}(f)
	}

	wg.Wait()
	log.Info().Int("failed", failed).Msg("batch completed")
	if failed > 0 {
		os.Exit(1)
	}
}
