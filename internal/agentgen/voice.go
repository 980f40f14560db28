// internal/agentgen/voice.go
package agentgen

import (
	"cx-agent-builder/internal/analysis"
	"cx-agent-builder/internal/models"
)

const (
	VoiceProvider  = "google"
	DefaultVoiceID = "en-US-Neural2-F"
)

type voiceKey struct {
	gender   string
	language string
}

var voiceIDs = []struct {
	key voiceKey
	id  string
}{
	{voiceKey{"female", "en-US"}, "en-US-Neural2-F"},
	{voiceKey{"male", "en-US"}, "en-US-Neural2-D"},
	{voiceKey{"neutral", "en-US"}, "en-US-Neural2-C"},
	{voiceKey{"female", "en-GB"}, "en-GB-Neural2-A"},
	{voiceKey{"male", "en-GB"}, "en-GB-Neural2-B"},
	{voiceKey{"female", "hi-IN"}, "hi-IN-Neural2-A"},
	{voiceKey{"male", "hi-IN"}, "hi-IN-Neural2-B"},
	{voiceKey{"female", "es-ES"}, "es-ES-Neural2-A"},
}

// VoiceID returns the provider voice for a gender and language.
func VoiceID(gender, language string) string {
	for _, v := range voiceIDs {
		if v.key == (voiceKey{gender, language}) {
			return v.id
		}
	}
	return DefaultVoiceID
}

func BuildVoice(brief *models.AnalysisBrief) models.VoiceConfig {
	gender := orDefault(brief.VoiceGender, analysis.GenderFemale)
	language := orDefault(brief.Language, models.DefaultLanguage)
	return models.VoiceConfig{
		Provider:     VoiceProvider,
		VoiceID:      VoiceID(gender, language),
		Gender:       gender,
		Language:     language,
		SpeakingRate: 1.0,
		Pitch:        0.0,
	}
}
