package tts

import "strings"

// Voices lists the OpenAI speech voices. All of them are multilingual.
var Voices = []string{"alloy", "ash", "coral", "echo", "fable", "nova", "onyx", "sage", "shimmer"}

// DefaultVoice is used when no language preference matches.
const DefaultVoice = "alloy"

// LanguageVoices maps a language (full tag first, then primary subtag) to the
// voice that sounds most natural in it.
var LanguageVoices = map[string]string{
	"pt-BR": "nova",
	"pt":    "nova",
	"es":    "shimmer",
	"en-GB": "fable",
	"en":    "alloy",
	"fr":    "coral",
	"de":    "onyx",
	"it":    "sage",
}

// VoiceForLanguage picks the preferred voice for a BCP 47 tag, matching the
// full tag, then its primary subtag, then DefaultVoice.
func VoiceForLanguage(tag string) string {
	tag = strings.TrimSpace(strings.ReplaceAll(tag, "_", "-"))
	if tag == "" {
		return DefaultVoice
	}
	for key, voice := range LanguageVoices {
		if strings.EqualFold(key, tag) {
			return voice
		}
	}
	primary, _, _ := strings.Cut(tag, "-")
	if voice, ok := LanguageVoices[strings.ToLower(primary)]; ok {
		return voice
	}
	return DefaultVoice
}

// IsVoice reports whether name is a known voice.
func IsVoice(name string) bool {
	for _, v := range Voices {
		if v == name {
			return true
		}
	}
	return false
}
