// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/pdiddy/exchange-scout/internal/retry"
)

func TestMain(m *testing.M) {
	retry.DelayScale = 0
	os.Exit(m.Run())
}

func newFetcher(opts ...Option) *Fetcher {
	return New("exchange-scout-test", retry.Policy{MaxAttempts: 2}, opts...)
}

func TestFetchHTML(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "exchange-scout-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, `<html><body><nav>menu</nav><p>Application   deadline:</p><p>15 March</p></body></html>`)
	}))
	defer ts.Close()

	doc := newFetcher().Fetch(context.Background(), ts.URL, time.Second, 1000)
	assert.Equal(t, ts.URL, doc.URL)
	assert.Equal(t, "Application deadline: 15 March", doc.Text)
	assert.False(t, doc.Truncated)
}

func TestFetchTruncatesAtCharacterLimit(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		io.WriteString(w, "Zürich Universität")
	}))
	defer ts.Close()

	doc := newFetcher().Fetch(context.Background(), ts.URL, time.Second, 8)
	assert.Equal(t, "Zürich U", doc.Text)
	assert.True(t, doc.Truncated)
}

func TestFetchFailuresYieldEmptyDocument(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		case "/broken":
			w.WriteHeader(http.StatusBadGateway)
		case "/binary":
			w.Header().Set("Content-Type", "application/octet-stream")
			w.Write([]byte{0, 1, 2})
		case "/pdf":
			w.Header().Set("Content-Type", "application/pdf")
			io.WriteString(w, "%PDF-1.4")
		case "/blank":
			w.Header().Set("Content-Type", "text/html")
			io.WriteString(w, "<html><script>x()</script></html>")
		}
	}))
	defer ts.Close()

	f := newFetcher()
	for _, path := range []string{"/missing", "/broken", "/binary", "/pdf", "/blank"} {
		doc := f.Fetch(context.Background(), ts.URL+path, time.Second, 100)
		assert.Empty(t, doc.Text, path)
		assert.False(t, doc.Truncated, path)
	}

	doc := f.Fetch(context.Background(), "http://127.0.0.1:1/unreachable", time.Second, 100)
	assert.Empty(t, doc.Text)

	// 502 is retried once; the others are not.
	assert.Equal(t, int32(6), atomic.LoadInt32(&calls))
}

func TestFetchTimeoutReturnsPromptly(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer ts.Close()
	defer close(release)

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	defer client.CloseIdleConnections()
	f := newFetcher(WithClient(client))

	timeout := 100 * time.Millisecond
	start := time.Now()
	doc := f.Fetch(context.Background(), ts.URL, timeout, 100)
	elapsed := time.Since(start)

	assert.Equal(t, "", doc.Text)
	assert.False(t, doc.Truncated)
	assert.Less(t, elapsed, timeout+400*time.Millisecond)
}

type memCache struct {
	mu    sync.Mutex
	pages map[string]string
}

func (c *memCache) Get(_ context.Context, url string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	text, ok := c.pages[url]
	return text, ok
}

func (c *memCache) Put(_ context.Context, url, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages[url] = text
	return nil
}

func TestFetchUsesCache(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "text/plain")
		io.WriteString(w, "course catalog text")
	}))
	defer ts.Close()

	cache := &memCache{pages: map[string]string{}}
	f := newFetcher(WithCache(cache))

	first := f.Fetch(context.Background(), ts.URL, time.Second, 6)
	second := f.Fetch(context.Background(), ts.URL, time.Second, 100)

	assert.Equal(t, "course", first.Text)
	assert.True(t, first.Truncated)
	assert.Equal(t, "course catalog text", second.Text)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

type fakePDF struct{}

func (fakePDF) Convert(_ context.Context, r io.Reader) (string, error) {
	data, _ := io.ReadAll(r)
	return "pdf:" + strings.TrimPrefix(string(data), "%PDF-1.4 "), nil
}

func TestFetchConvertsPDFWhenEnabled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		io.WriteString(w, "%PDF-1.4 CS101")
	}))
	defer ts.Close()

	doc := newFetcher(WithPDF(fakePDF{})).Fetch(context.Background(), ts.URL, time.Second, 100)
	assert.Equal(t, "pdf:CS101", doc.Text)
}

func TestFetchAllPreservesOrder(t *testing.T) {
	var inFlight, peak int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		w.Header().Set("Content-Type", "text/plain")
		io.WriteString(w, "page "+strings.TrimPrefix(r.URL.Path, "/"))
	}))
	defer ts.Close()

	urls := []string{ts.URL + "/a", ts.URL + "/b", ts.URL + "/c", ts.URL + "/d", ts.URL + "/e"}
	docs := newFetcher().FetchAll(context.Background(), urls, time.Second, 100, 2)

	require.Len(t, docs, len(urls))
	for i, d := range docs {
		assert.Equal(t, urls[i], d.URL)
		assert.Equal(t, "page "+urls[i][len(ts.URL)+1:], d.Text)
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in        string
		max       int
		want      string
		wantTrunc bool
	}{
		{"hello", 10, "hello", false},
		{"hello", 5, "hello", false},
		{"hello", 4, "hell", true},
		{"héllo", 5, "héllo", false},
		{"日本語テキスト", 3, "日本語", true},
		{"anything", 0, "anything", false},
	}
	for _, tt := range tests {
		got, trunc := Truncate(tt.in, tt.max)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.wantTrunc, trunc, tt.in)
	}
}
