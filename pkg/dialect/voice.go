package dialect

// VoiceParams are prosody hints for a speech synthesizer. SpeakingRate is a
// multiplier around 1.0 and Pitch an offset in semitones around 0.
type VoiceParams struct {
	SpeakingRate float64 `json:"speaking_rate"`
	Pitch        float64 `json:"pitch"`
}

var voiceParams = [...]VoiceParams{
	Standard:   {SpeakingRate: 1.0, Pitch: 0.0},
	Travancore: {SpeakingRate: 0.90, Pitch: -0.5},
	Malabar:    {SpeakingRate: 1.12, Pitch: 1.5},
	Cochin:     {SpeakingRate: 1.02, Pitch: 0.3},
	Thrissur:   {SpeakingRate: 0.88, Pitch: -1.0},
}

var displayNames = [...]string{
	Standard:   "സാധാരണ മലയാളം (Standard Malayalam)",
	Travancore: "തിരുവിതാംകൂർ (Travancore)",
	Malabar:    "മലബാർ (Malabar)",
	Cochin:     "കൊച്ചി (Kochi)",
	Thrissur:   "തൃശ്ശൂർ (Thrissur)",
}

// VoiceParamsFor returns the fixed synthesis parameters for t.
func VoiceParamsFor(t Tag) VoiceParams {
	if int(t) >= len(voiceParams) {
		return voiceParams[Standard]
	}
	return voiceParams[t]
}

// DisplayName returns the bilingual label for t.
func DisplayName(t Tag) string {
	if int(t) >= len(displayNames) {
		return displayNames[Standard]
	}
	return displayNames[t]
}

// Info bundles everything the API exposes about one dialect.
type Info struct {
	Tag         Tag         `json:"dialect"`
	DisplayName string      `json:"display_name"`
	VoiceParams VoiceParams `json:"voice_params"`
	RuleCount   int         `json:"rule_count"`
}

// Describe returns the Info for t.
func Describe(t Tag) Info {
	return Info{
		Tag:         t,
		DisplayName: DisplayName(t),
		VoiceParams: VoiceParamsFor(t),
		RuleCount:   len(RulesFor(t)),
	}
}
