package provider

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/polly/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPollyClient is a mock implementation of the Polly API client
type MockPollyClient struct {
	mock.Mock
}

func (m *MockPollyClient) DescribeVoices(ctx context.Context, params *polly.DescribeVoicesInput, optFns ...func(*polly.Options)) (*polly.DescribeVoicesOutput, error) {
	args := m.Called(ctx, params)
	result := args.Get(0)
	if result == nil {
		return nil, args.Error(1)
	}
	return result.(*polly.DescribeVoicesOutput), args.Error(1)
}

func (m *MockPollyClient) SynthesizeSpeech(ctx context.Context, params *polly.SynthesizeSpeechInput, optFns ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error) {
	args := m.Called(ctx, params)
	result := args.Get(0)
	if result == nil {
		return nil, args.Error(1)
	}
	return result.(*polly.SynthesizeSpeechOutput), args.Error(1)
}

func TestPollyProvider_Name(t *testing.T) {
	provider := &PollyProvider{}
	assert.Equal(t, "polly", provider.Name())
	assert.Equal(t, "mp3", provider.OutputFormat())
}

func TestPollyProvider_ListVoices(t *testing.T) {
	tests := []struct {
		name          string
		mockResponse  *polly.DescribeVoicesOutput
		mockError     error
		expectedCount int
		expectedError string
	}{
		{
			name: "successful voice listing",
			mockResponse: &polly.DescribeVoicesOutput{
				Voices: []types.Voice{
					{
						Id:               types.VoiceIdJoanna,
						Name:             aws.String("Joanna"),
						LanguageCode:     types.LanguageCodeEnUs,
						Gender:           types.GenderFemale,
						SupportedEngines: []types.Engine{types.EngineNeural, types.EngineStandard},
					},
					{
						Id:           types.VoiceIdMatthew,
						Name:         aws.String("Matthew"),
						LanguageCode: types.LanguageCodeEnUs,
						Gender:       types.GenderMale,
					},
				},
			},
			expectedCount: 2,
		},
		{
			name:          "API error",
			mockError:     errors.New("access denied"),
			expectedError: "failed to list Polly voices",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(MockPollyClient)
			if tt.mockError != nil {
				client.On("DescribeVoices", mock.Anything, mock.Anything).Return(nil, tt.mockError)
			} else {
				client.On("DescribeVoices", mock.Anything, mock.Anything).Return(tt.mockResponse, nil)
			}

			provider := NewPollyProviderWithClient(client, "us-east-1")
			voices, err := provider.ListVoices(context.Background())

			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				return
			}
			require.NoError(t, err)
			require.Len(t, voices, tt.expectedCount)
			assert.Equal(t, "female", voices[0].Gender)
			assert.Equal(t, "Female voice, neural, standard engine supported", voices[0].Description)
			assert.Equal(t, "male", voices[1].Gender)
			assert.Contains(t, voices[1].Description, "unknown engine")
		})
	}
}

func TestPollyProvider_Synthesize(t *testing.T) {
	t.Run("builds request from options", func(t *testing.T) {
		client := new(MockPollyClient)
		client.On("SynthesizeSpeech", mock.Anything, mock.MatchedBy(func(in *polly.SynthesizeSpeechInput) bool {
			return aws.ToString(in.Text) == "Hello listeners" &&
				in.VoiceId == types.VoiceIdMatthew &&
				in.OutputFormat == types.OutputFormatMp3 &&
				in.Engine == types.EngineStandard &&
				aws.ToString(in.SampleRate) == "24000" &&
				in.TextType == types.TextTypeText
		})).Return(&polly.SynthesizeSpeechOutput{
			AudioStream: io.NopCloser(strings.NewReader("polly-mp3")),
			ContentType: aws.String("audio/mpeg"),
		}, nil)

		provider := NewPollyProviderWithClient(client, "us-east-1")
		rc, err := provider.Synthesize(context.Background(), "Hello listeners", SynthesizeOptions{
			Voice:      "Matthew",
			Engine:     "standard",
			SampleRate: "24000",
		})
		require.NoError(t, err)
		defer rc.Close()

		data, _ := io.ReadAll(rc)
		assert.Equal(t, "polly-mp3", string(data))
		client.AssertExpectations(t)
	})

	t.Run("defaults voice and engine", func(t *testing.T) {
		client := new(MockPollyClient)
		client.On("SynthesizeSpeech", mock.Anything, mock.MatchedBy(func(in *polly.SynthesizeSpeechInput) bool {
			return in.VoiceId == types.VoiceIdJoanna && in.Engine == types.EngineNeural && in.SampleRate == nil
		})).Return(&polly.SynthesizeSpeechOutput{
			AudioStream: io.NopCloser(strings.NewReader("x")),
		}, nil)

		provider := NewPollyProviderWithClient(client, "us-east-1")
		_, err := provider.Synthesize(context.Background(), "Hi", SynthesizeOptions{SampleRate: "44100"})

		require.NoError(t, err)
		client.AssertExpectations(t)
	})

	t.Run("propagates API errors", func(t *testing.T) {
		client := new(MockPollyClient)
		client.On("SynthesizeSpeech", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

		provider := NewPollyProviderWithClient(client, "us-east-1")
		_, err := provider.Synthesize(context.Background(), "Hi", SynthesizeOptions{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "throttled")
	})

	t.Run("rejects empty text", func(t *testing.T) {
		provider := NewPollyProviderWithClient(new(MockPollyClient), "us-east-1")
		_, err := provider.Synthesize(context.Background(), "", SynthesizeOptions{})
		assert.Error(t, err)
	})
}

func TestPollyProvider_IsAvailable(t *testing.T) {
	ok := new(MockPollyClient)
	ok.On("DescribeVoices", mock.Anything, mock.Anything).Return(&polly.DescribeVoicesOutput{}, nil)
	assert.True(t, NewPollyProviderWithClient(ok, "us-east-1").IsAvailable(context.Background()))

	failing := new(MockPollyClient)
	failing.On("DescribeVoices", mock.Anything, mock.Anything).Return(nil, errors.New("no credentials"))
	assert.False(t, NewPollyProviderWithClient(failing, "us-east-1").IsAvailable(context.Background()))
}

func TestParseEngine(t *testing.T) {
	tests := map[string]types.Engine{
		"standard":   types.EngineStandard,
		"Neural":     types.EngineNeural,
		"long-form":  types.EngineLongForm,
		"generative": types.EngineGenerative,
		"bogus":      types.EngineNeural,
	}
	for in, expected := range tests {
		assert.Equal(t, expected, parseEngine(in), in)
	}
}
