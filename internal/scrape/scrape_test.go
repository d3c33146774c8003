package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<!DOCTYPE html>
<html>
<head>
  <title>Deep Sea Mining</title>
  <style>body { color: red; }</style>
  <script>var tracking = "ignore me";</script>
</head>
<body>
  <nav>Home &amp; About</nav>
  <article>
    <h1>Robots   on the
      sea floor</h1>
    <p>Companies want to mine <b>nodules</b>.</p>
    <noscript>Enable JavaScript</noscript>
    <p>Scientists are   worried.</p>
  </article>
</body>
</html>`

func TestExtractText(t *testing.T) {
	text, err := ExtractText(strings.NewReader(page))

	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"Deep Sea Mining",
		"Home & About",
		"Robots on the sea floor",
		"Companies want to mine nodules .",
		"Scientists are worried.",
	}, "\n"), text)
	assert.NotContains(t, text, "tracking")
	assert.NotContains(t, text, "color")
	assert.NotContains(t, text, "JavaScript")
}

func TestExtractText_Empty(t *testing.T) {
	text, err := ExtractText(strings.NewReader("<html><script>x()</script></html>"))

	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestClient_Fetch(t *testing.T) {
	target := "https://example.com/news?id=42&lang=en"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/", r.URL.Path)
		assert.Equal(t, "tok-123", r.URL.Query().Get("token"))
		assert.Equal(t, target, r.URL.Query().Get("url"))
		assert.Contains(t, r.URL.RawQuery, "url=https%3A%2F%2Fexample.com%2Fnews%3Fid%3D42%26lang%3Den")
		w.Write([]byte(page))
	}))
	defer server.Close()

	text, err := NewClient("tok-123", server.URL+"/").Fetch(context.Background(), target)

	require.NoError(t, err)
	assert.Contains(t, text, "Scientists are worried.")
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		target  string
		status  int
		body    string
		wantErr error
	}{
		{name: "missing token", target: "https://example.com", wantErr: ErrNoToken},
		{name: "invalid url", token: "t", target: "not a url"},
		{name: "upstream error", token: "t", target: "https://example.com", status: http.StatusBadGateway, body: "bad gateway"},
		{name: "empty body", token: "t", target: "https://example.com", status: http.StatusOK, body: "  ", wantErr: ErrNoContent},
		{name: "no readable text", token: "t", target: "https://example.com", status: http.StatusOK, body: "<script>x()</script>", wantErr: ErrNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewClient(tt.token, server.URL).Fetch(context.Background(), tt.target)

			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
