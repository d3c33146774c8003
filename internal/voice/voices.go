package voice

import (
	"github.com/daikw/ccpodcast/internal/script"
	"github.com/daikw/ccpodcast/internal/voice/provider"
)

// VoiceMap maps roles to provider voice ids
type VoiceMap map[script.Role]string

// For returns the voice for role, falling back to the host1 voice
func (m VoiceMap) For(role script.Role) string {
	if v, ok := m[role]; ok && v != "" {
		return v
	}
	return m[script.Host1]
}

// Merge returns a copy of m with the non-empty entries of overrides applied
func (m VoiceMap) Merge(overrides map[string]string) VoiceMap {
	out := VoiceMap{}
	for k, v := range m {
		out[k] = v
	}
	for k, v := range overrides {
		role, err := script.ParseRole(k)
		if err != nil || v == "" {
			continue
		}
		out[role] = v
	}
	return out
}

// DefaultVoices holds built-in voice ids per provider
var DefaultVoices = map[string]VoiceMap{
	"cartesia": {
		script.Host1: "228fca29-3a0a-435c-8728-5cb483251068",
		script.Host2: "f786b574-daa5-4673-aa0c-cbe3e8534c02",
		script.Guest: "6926713b-d0c5-4a6d-867f-033857403eac",
	},
	"elevenlabs": {
		script.Host1: "pNInz6obpgDQGcFmaJgB",
		script.Host2: "21m00Tcm4TlvDq8ikWAM",
		script.Guest: "ErXwobaYiN019PkySvjV",
	},
	"openai": {
		script.Host1: "onyx",
		script.Host2: "nova",
		script.Guest: "echo",
	},
	"polly": {
		script.Host1: "Matthew",
		script.Host2: "Joanna",
		script.Guest: "Stephen",
	},
	"gcp": {
		script.Host1: "en-US-Neural2-D",
		script.Host2: "en-US-Neural2-F",
		script.Guest: "en-US-Neural2-J",
	},
	"edge": {
		script.Host1: "en-US-GuyNeural",
		script.Host2: "en-US-JennyNeural",
		script.Guest: "en-US-ChristopherNeural",
	},
}

// Tier is one provider in the fallback chain together with its voices
type Tier struct {
	Provider provider.Provider
	Voices   VoiceMap
	Options  provider.SynthesizeOptions

	// References holds speaker samples for voice-cloning providers
	References VoiceMap
}

// Name returns the provider name
func (t Tier) Name() string {
	return t.Provider.Name()
}

func (t Tier) options(role script.Role) provider.SynthesizeOptions {
	opts := t.Options
	opts.Voice = t.Voices.For(role)
	if t.References != nil {
		opts.Reference = t.References.For(role)
	}
	return opts
}
