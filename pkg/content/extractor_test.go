package content

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articlePage = `<!DOCTYPE html>
<html>
<head><title>Test Article</title></head>
<body>
	<nav><a href="/">Home</a></nav>
	<article>
		<h1>Test Article Title</h1>
		<p>This is the main content of the article, long enough to be picked up as the body text.</p>
		<p>It has multiple paragraphs with more words about the story in question.</p>
	</article>
</body>
</html>`

func TestExtractor_Extract(t *testing.T) {
	tests := []struct {
		name        string
		htmlContent string
		statusCode  int
		minLen      int
		wantContent string
		wantErr     string
	}{
		{
			name:        "successful extraction",
			htmlContent: articlePage,
			statusCode:  http.StatusOK,
			wantContent: "main content of the article",
		},
		{
			name:        "text shorter than minimum",
			htmlContent: `<html><body><p>Short content</p></body></html>`,
			statusCode:  http.StatusOK,
			minLen:      200,
			wantErr:     "too short",
		},
		{
			name:        "server error",
			htmlContent: "error",
			statusCode:  http.StatusInternalServerError,
			wantErr:     "unexpected status code 500",
		},
		{
			name:        "not found",
			htmlContent: "not found",
			statusCode:  http.StatusNotFound,
			wantErr:     "unexpected status code 404",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
				w.Header().Set("Content-Type", "text/html")
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.htmlContent))
			}))
			defer server.Close()

			extractor := NewExtractor(Options{Timeout: 5 * time.Second, MinTextLength: tt.minLen, UserAgent: "test-agent"})
			content, err := extractor.Extract(context.Background(), server.URL)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, content, tt.wantContent)
			assert.Equal(t, strings.TrimSpace(content), content)
		})
	}
}

func TestExtractor_TooShortIsTyped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><p>tiny</p></body></html>`))
	}))
	defer server.Close()

	_, err := NewExtractor(Options{MinTextLength: 1000}).Extract(context.Background(), server.URL)
	require.ErrorIs(t, err, ErrTooShort)
}

func TestExtractor_InvalidURL(t *testing.T) {
	extractor := NewExtractor(Options{})
	for _, u := range []string{"", "not a url", "/relative/path", "://broken"} {
		_, err := extractor.Extract(context.Background(), u)
		assert.Error(t, err, u)
	}
}

func TestExtractor_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(articlePage))
	}))
	defer server.Close()

	_, err := NewExtractor(Options{Timeout: 50 * time.Millisecond}).Extract(context.Background(), server.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExtractor_RateLimit(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(articlePage))
	}))
	defer server.Close()

	extractor := NewExtractor(Options{RateLimit: 10, Timeout: time.Second}) // one page per 100ms
	st := time.Now()
	for range 3 {
		_, err := extractor.Extract(context.Background(), server.URL)
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(st), 180*time.Millisecond)
	assert.Equal(t, int32(3), hits.Load())

	// wait doesn't fit into the timeout
	slow := NewExtractor(Options{RateLimit: 0.5, Timeout: 100 * time.Millisecond})
	_, err := slow.Extract(context.Background(), server.URL)
	require.NoError(t, err, "first page uses the burst")
	_, err = slow.Extract(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit wait")
}
