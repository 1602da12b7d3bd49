//go:build integration || !unit

package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"coderefine/internal/adapters/groq"
	server "coderefine/internal/adapters/http_server"
	"coderefine/internal/adapters/observability"
	redisad "coderefine/internal/adapters/redis"
	"coderefine/internal/app"
	"coderefine/internal/domain"
)

// ---------- fake chat-completions upstream ----------

type upstream struct {
	hits    int32
	status  int
	mu      sync.Mutex
	content string
}

func (u *upstream) setContent(c string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.content = c
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&u.hits, 1)
	if u.status != 0 && u.status != http.StatusOK {
		w.WriteHeader(u.status)
		_, _ = w.Write([]byte(`{"error":{"message":"model overloaded"}}`))
		return
	}
	var req struct {
		ResponseFormat struct {
			Type string `json:"type"`
		} `json:"response_format"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.ResponseFormat.Type != "json_object" {
		http.Error(w, "json mode required", http.StatusBadRequest)
		return
	}
	u.mu.Lock()
	content := u.content
	u.mu.Unlock()
	_ = json.NewEncoder(w).Encode(map[string]any{
		"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": content}}},
	})
}

func stack(t *testing.T, up *upstream, cache domain.Cache, ttl time.Duration) *httptest.Server {
	t.Helper()
	llmSrv := httptest.NewServer(up)
	t.Cleanup(llmSrv.Close)

	client, err := groq.New(llmSrv.URL, "test-key", 2*time.Second, 0)
	if err != nil {
		t.Fatalf("groq.New: %v", err)
	}
	o := app.NewOrchestrator(client, cache, app.Options{Model: "llama-3.3-70b-versatile", Temperature: 0.1, CacheTTL: ttl})

	srv := server.New(5 * time.Second)
	srv.Mount("/metrics", observability.MetricsHandler(observability.InitRegistry()))
	srv.MountHandlers(&server.Handlers{S: o})
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	res, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { _ = res.Body.Close() })
	return res
}

const review = `{"original_score":"61","refined_score":97,"bugs":"division by zero when n == 0",
"performance":"nested loops","improvements":["guard n","use prefix sums"],
"optimized_code":"def avg(xs):\n    return sum(xs) / len(xs) if xs else 0",
"explanation":"single pass","original_time_complexity":"O(n^2)","original_space_complexity":"O(1)",
"time_complexity":"O(n)","space_complexity":"O(1)"}`

// ---------- the tests ----------

func TestHTTP_EndToEnd_ReviewThenTranslate(t *testing.T) {
	up := &upstream{content: review}
	ts := stack(t, up, nil, 0)

	res := post(t, ts.URL+"/review", `{"code":"def avg(xs): ..."}`)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("review status %d", res.StatusCode)
	}
	var rv domain.ReviewResult
	if err := json.NewDecoder(res.Body).Decode(&rv); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rv.OriginalScore != 61 || rv.RefinedScore != 97 || rv.TimeComplexity != "O(n)" {
		t.Fatalf("unexpected review: %+v", rv)
	}
	if !strings.Contains(rv.OptimizedCode, "\n") {
		t.Fatalf("optimized_code should carry real newlines: %q", rv.OptimizedCode)
	}

	up.setContent(`{"translated_code":"function avg(xs) { return xs.length ? xs.reduce((a, b) => a + b) / xs.length : 0 }"}`)
	tb, _ := json.Marshal(map[string]string{"code": rv.OptimizedCode, "target_language": "JavaScript"})
	res = post(t, ts.URL+"/translate", string(tb))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("translate status %d", res.StatusCode)
	}
	var tr domain.TranslateResult
	if err := json.NewDecoder(res.Body).Decode(&tr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(tr.TranslatedCode, "function avg") {
		t.Fatalf("translated: %q", tr.TranslatedCode)
	}
	if n := atomic.LoadInt32(&up.hits); n != 2 {
		t.Fatalf("expected one upstream call per request, got %d", n)
	}
}

func TestHTTP_EndToEnd_UpstreamDown(t *testing.T) {
	up := &upstream{status: http.StatusServiceUnavailable}
	ts := stack(t, up, nil, 0)

	res := post(t, ts.URL+"/review", `{"code":"x"}`)
	if res.StatusCode != http.StatusInternalServerError {
		t.Fatalf("review status %d", res.StatusCode)
	}
	var p struct {
		Detail string `json:"detail"`
	}
	_ = json.NewDecoder(res.Body).Decode(&p)
	if !strings.Contains(p.Detail, "model overloaded") {
		t.Fatalf("detail should relay provider message: %q", p.Detail)
	}

	res = post(t, ts.URL+"/translate", `{"code":"x","target_language":"Go"}`)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("translate status %d", res.StatusCode)
	}
	var tr domain.TranslateResult
	if err := json.NewDecoder(res.Body).Decode(&tr); err != nil || tr.TranslatedCode == "" {
		t.Fatalf("translate body: %+v (%v)", tr, err)
	}
	if n := atomic.LoadInt32(&up.hits); n != 2 {
		t.Fatalf("no retries expected, got %d upstream calls", n)
	}
}

func TestHTTP_EndToEnd_RedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redisad.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = cache.Close() })

	up := &upstream{content: review}
	ts := stack(t, up, cache, time.Minute)

	for i := 0; i < 3; i++ {
		if res := post(t, ts.URL+"/review", `{"code":"same"}`); res.StatusCode != http.StatusOK {
			t.Fatalf("status %d", res.StatusCode)
		}
	}
	if n := atomic.LoadInt32(&up.hits); n != 1 {
		t.Fatalf("expected cached responses after the first call, got %d upstream calls", n)
	}
	if len(mr.Keys()) != 1 {
		t.Fatalf("expected one cached entry, got %v", mr.Keys())
	}
}
