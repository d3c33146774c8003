package voice

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/daikw/ccpodcast/internal/config"
	"github.com/daikw/ccpodcast/internal/script"
	"github.com/daikw/ccpodcast/internal/voice/provider"
)

// MockFactory is a mock implementation of ProviderFactory
type MockFactory struct {
	mock.Mock
}

func (m *MockFactory) CreateProvider(ctx context.Context, name string, settings map[string]interface{}) (provider.Provider, error) {
	args := m.Called(name, settings)
	p, _ := args.Get(0).(provider.Provider)
	return p, args.Error(1)
}

type cloningProvider struct {
	*MockProvider
	cloned map[string]string
	fail   bool
}

func (c *cloningProvider) CloneVoice(ctx context.Context, name, samplePath string) (string, error) {
	if c.fail {
		return "", errors.New("clone rejected")
	}
	c.cloned[name] = samplePath
	return "clone-" + name, nil
}

func TestBuildChain_SkipsUnconfigured(t *testing.T) {
	cfg := config.Default()
	cfg.Chain = []string{"cartesia", "openai", "polly", "edge"}
	cfg.Providers["openai"] = config.ProviderConfig{
		APIKey: "sk-test",
		Speed:  1.2,
		Voices: map[string]string{"host2": "shimmer"},
	}
	cfg.Providers["edge"] = config.ProviderConfig{Binary: "/nonexistent/edge-tts"}

	tiers, err := BuildChain(context.Background(), cfg, nil)

	require.NoError(t, err)
	require.Len(t, tiers, 1)
	assert.Equal(t, "openai", tiers[0].Name())
	assert.Equal(t, "onyx", tiers[0].Voices.For(script.Host1))
	assert.Equal(t, "shimmer", tiers[0].Voices.For(script.Host2))
	assert.Equal(t, 1.2, tiers[0].Options.Speed)
}

func TestBuildChain_NothingAvailable(t *testing.T) {
	cfg := config.Default()
	cfg.Chain = []string{"cartesia", "elevenlabs"}

	_, err := BuildChain(context.Background(), cfg, nil)

	assert.ErrorContains(t, err, "no speech providers available")
}

func TestBuildChain_ClonesReferenceVoices(t *testing.T) {
	cartesia := &cloningProvider{MockProvider: newMockProvider("cartesia"), cloned: map[string]string{}}
	elevenlabs := newMockProvider("elevenlabs")

	factory := new(MockFactory)
	factory.On("CreateProvider", "cartesia", mock.Anything).Return(cartesia, nil)
	factory.On("CreateProvider", "elevenlabs", mock.Anything).Return(elevenlabs, nil)

	cfg := config.Default()
	cfg.Chain = []string{"cartesia", "elevenlabs"}
	cfg.Providers["cartesia"] = config.ProviderConfig{
		APIKey:     "key",
		References: map[string]string{"host1": "voices/a.wav"},
	}
	cfg.Providers["elevenlabs"] = config.ProviderConfig{APIKey: "key"}

	tiers, err := BuildChainWithFactory(context.Background(), cfg, factory)

	require.NoError(t, err)
	require.Len(t, tiers, 2)
	assert.Equal(t, "clone-ccpodcast-host1", tiers[0].Voices.For(script.Host1))
	assert.Equal(t, DefaultVoices["cartesia"][script.Host2], tiers[0].Voices.For(script.Host2))
	assert.Equal(t, "voices/a.wav", cartesia.cloned["ccpodcast-host1"])
	assert.Equal(t, "elevenlabs", tiers[1].Name())
	assert.Equal(t, "pNInz6obpgDQGcFmaJgB", tiers[1].Voices.For(script.Host1))
	factory.AssertExpectations(t)
}

func TestBuildChain_CloneFailureKeepsStockVoice(t *testing.T) {
	cartesia := &cloningProvider{MockProvider: newMockProvider("cartesia"), cloned: map[string]string{}, fail: true}
	factory := new(MockFactory)
	factory.On("CreateProvider", "cartesia", mock.Anything).Return(cartesia, nil)

	cfg := config.Default()
	cfg.Chain = []string{"cartesia"}
	cfg.Providers["cartesia"] = config.ProviderConfig{
		APIKey:     "key",
		References: map[string]string{"host1": "voices/a.wav"},
	}

	tiers, err := BuildChainWithFactory(context.Background(), cfg, factory)

	require.NoError(t, err)
	assert.Equal(t, DefaultVoices["cartesia"][script.Host1], tiers[0].Voices.For(script.Host1))
}

func TestBuildChain_FactoryErrorSkipsProvider(t *testing.T) {
	openai := newMockProvider("openai")
	factory := new(MockFactory)
	factory.On("CreateProvider", "polly", mock.Anything).Return(nil, errors.New("no AWS credentials"))
	factory.On("CreateProvider", "openai", mock.Anything).Return(openai, nil)

	cfg := config.Default()
	cfg.Chain = []string{"polly", "openai"}
	cfg.Providers["polly"] = config.ProviderConfig{Region: "us-east-1"}
	cfg.Providers["openai"] = config.ProviderConfig{APIKey: "key"}

	tiers, err := BuildChainWithFactory(context.Background(), cfg, factory)

	require.NoError(t, err)
	require.Len(t, tiers, 1)
	assert.Equal(t, "openai", tiers[0].Name())
}

func TestReplicateTierCarriesReferences(t *testing.T) {
	replicate := newMockProvider("replicate")
	replicate.format = "wav"
	factory := new(MockFactory)
	factory.On("CreateProvider", "replicate", mock.Anything).Return(replicate, nil)

	cfg := config.Default()
	cfg.Chain = []string{"replicate"}
	cfg.Providers["replicate"] = config.ProviderConfig{
		APIKey:     "key",
		References: map[string]string{"host1": "a.wav", "guest": "c.wav"},
	}

	tiers, err := BuildChainWithFactory(context.Background(), cfg, factory)
	require.NoError(t, err)

	assert.Equal(t, "a.wav", tiers[0].options(script.Host2).Reference)
	assert.Equal(t, "c.wav", tiers[0].options(script.Guest).Reference)
}
