package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIProvider_Synthesize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/speech", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "tts-1", body["model"])
		assert.Equal(t, "nova", body["voice"])
		assert.Equal(t, "Second host speaking", body["input"])
		assert.Equal(t, "mp3", body["response_format"])

		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("openai-mp3"))
	}))
	defer server.Close()

	p := NewOpenAIProvider("sk-test", server.URL)

	rc, err := p.Synthesize(context.Background(), "Second host speaking", SynthesizeOptions{Voice: "nova"})
	require.NoError(t, err)
	defer rc.Close()

	data, _ := io.ReadAll(rc)
	assert.Equal(t, "openai-mp3", string(data))
}

func TestOpenAIProvider_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "Incorrect API key", "type": "invalid_request_error"}}`))
	}))
	defer server.Close()

	p := NewOpenAIProvider("sk-bad", server.URL)

	_, err := p.Synthesize(context.Background(), "hello", SynthesizeOptions{})
	assert.Error(t, err)

	_, err = p.Synthesize(context.Background(), "hello", SynthesizeOptions{Speed: 5})
	assert.Error(t, err)

	_, err = p.Synthesize(context.Background(), "", SynthesizeOptions{})
	assert.Error(t, err)
}

func TestOpenAIProvider_ListVoices(t *testing.T) {
	p := NewOpenAIProvider("sk-test", "")

	voices, err := p.ListVoices(context.Background())

	require.NoError(t, err)
	assert.Len(t, voices, 6)
	assert.True(t, p.IsAvailable(context.Background()))
	assert.False(t, NewOpenAIProvider("", "").IsAvailable(context.Background()))
}

func TestOpenAIProviderFromConfig(t *testing.T) {
	_, err := OpenAIProviderFromConfig(map[string]interface{}{})
	assert.Error(t, err)

	p, err := OpenAIProviderFromConfig(map[string]interface{}{
		"api_key": "sk-test",
		"model":   "tts-1-hd",
		"format":  "wav",
	})
	require.NoError(t, err)
	assert.Equal(t, "tts-1-hd", p.model)
	assert.Equal(t, "wav", p.OutputFormat())
}
