package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"coderefine/internal/adapters/observability"
	"coderefine/internal/domain"
)

type Options struct {
	Model       string
	Temperature float64
	CacheTTL    time.Duration // <= 0 disables the response cache
}

// Orchestrator turns a code submission into one completion call and a typed result.
type Orchestrator struct {
	llm   domain.CompletionClient
	cache domain.Cache
	opts  Options
}

// NewOrchestrator accepts a nil cache.
func NewOrchestrator(llm domain.CompletionClient, cache domain.Cache, opts Options) *Orchestrator {
	return &Orchestrator{llm: llm, cache: cache, opts: opts}
}

// Review fails on any remote or parsing error; callers surface it as a server error.
func (o *Orchestrator) Review(ctx context.Context, code string) (domain.ReviewResult, error) {
	req := o.request(reviewSystemPrompt, reviewUserPreamble+code)

	key := o.cacheKey("review", req)
	var cached domain.ReviewResult
	if o.lookup(ctx, key, &cached) {
		observability.ObserveOperation("review", "cached")
		return cached, nil
	}

	text, err := o.llm.Complete(ctx, req)
	if err != nil {
		observability.ObserveOperation("review", "error")
		return domain.ReviewResult{}, fmt.Errorf("review completion: %w", err)
	}
	res, err := decodeReview(text)
	if err != nil {
		observability.ObserveOperation("review", "error")
		log.Warn().Err(err).Int("output_bytes", len(text)).Msg("review output rejected")
		return domain.ReviewResult{}, err
	}

	o.store(ctx, key, res)
	observability.ObserveOperation("review", "ok")
	return res, nil
}

// Translate never fails: errors come back as a source comment in TranslatedCode
// so the result always renders in a code viewer.
func (o *Orchestrator) Translate(ctx context.Context, code, targetLanguage string) domain.TranslateResult {
	req := o.request(translateSystemPrompt(targetLanguage), code)

	key := o.cacheKey("translate", req)
	var cached domain.TranslateResult
	if o.lookup(ctx, key, &cached) {
		observability.ObserveOperation("translate", "cached")
		return cached
	}

	res, err := o.translate(ctx, req)
	if err != nil {
		observability.ObserveOperation("translate", "fallback")
		log.Warn().Err(err).Str("target_language", targetLanguage).Msg("translation failed; returning error comment")
		return domain.TranslateResult{TranslatedCode: translateErrorComment(err)}
	}

	o.store(ctx, key, res)
	observability.ObserveOperation("translate", "ok")
	return res
}

func (o *Orchestrator) translate(ctx context.Context, req domain.CompletionRequest) (domain.TranslateResult, error) {
	text, err := o.llm.Complete(ctx, req)
	if err != nil {
		return domain.TranslateResult{}, err
	}
	return decodeTranslation(text)
}

func (o *Orchestrator) request(system, user string) domain.CompletionRequest {
	return domain.CompletionRequest{
		Model: o.opts.Model,
		Messages: []domain.ChatMessage{
			{Role: domain.RoleSystem, Content: system},
			{Role: domain.RoleUser, Content: user},
		},
		Temperature: o.opts.Temperature,
		JSONMode:    true,
	}
}

/********** optional response cache **********/

func (o *Orchestrator) cacheOn() bool { return o.cache != nil && o.opts.CacheTTL > 0 }

// cacheKey hashes everything that determines the completion.
func (o *Orchestrator) cacheKey(op string, req domain.CompletionRequest) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%g\x00", req.Model, req.Temperature)
	for _, m := range req.Messages {
		fmt.Fprintf(h, "%s\x00%s\x00", m.Role, m.Content)
	}
	return op + ":" + hex.EncodeToString(h.Sum(nil))
}

func (o *Orchestrator) lookup(ctx context.Context, key string, dst any) bool {
	if !o.cacheOn() {
		return false
	}
	ok, err := o.cache.Get(ctx, key, dst)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache get failed")
		return false
	}
	return ok
}

func (o *Orchestrator) store(ctx context.Context, key string, v any) {
	if !o.cacheOn() {
		return
	}
	if err := o.cache.Set(ctx, key, v, int(o.opts.CacheTTL.Seconds())); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
}
