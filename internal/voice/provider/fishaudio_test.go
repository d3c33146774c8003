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

func TestFishAudioProvider_Synthesize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, FishAudioTTSEndpoint, r.URL.Path)
		assert.Equal(t, "Bearer fish-key", r.Header.Get("Authorization"))
		assert.Equal(t, "speech-1.5", r.Header.Get("model"))

		var body FishAudioTTSRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Line for the guest", body.Text)
		assert.Equal(t, "ref-guest", body.ReferenceID)
		assert.Equal(t, "mp3", body.Format)

		w.Write([]byte("fish-mp3"))
	}))
	defer server.Close()

	p, err := FishAudioProviderFromConfig(map[string]interface{}{
		"api_key":  "fish-key",
		"base_url": server.URL,
		"model":    "speech-1.5",
	})
	require.NoError(t, err)

	rc, err := p.Synthesize(context.Background(), "Line for the guest", SynthesizeOptions{Voice: "ref-guest"})
	require.NoError(t, err)
	defer rc.Close()

	data, _ := io.ReadAll(rc)
	assert.Equal(t, "fish-mp3", string(data))
}

func TestFishAudioProvider_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	p := NewFishAudioProvider("fish-key")
	p.baseURL = server.URL

	_, err := p.Synthesize(context.Background(), "hello", SynthesizeOptions{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}

func TestFishAudioProvider_ListVoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("self"))
		w.Write([]byte(`{"items": [{"_id": "m1", "title": "Host Clone", "languages": ["en", "ja"]}]}`))
	}))
	defer server.Close()

	p := NewFishAudioProvider("fish-key")
	p.baseURL = server.URL

	voices, err := p.ListVoices(context.Background())

	require.NoError(t, err)
	require.Len(t, voices, 1)
	assert.Equal(t, "m1", voices[0].ID)
	assert.Equal(t, "en,ja", voices[0].Language)
}
