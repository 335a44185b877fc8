package dialect

// Pattern tables, one per tag. Order is significant: each rule sees the
// output of the rules before it.
var tables = [...]Rules{
	Standard: nil,

	// Southern Kerala, formal register.
	Travancore: {
		Literal("നന്ദി", "നന്ദിയുണ്ട്"),
		Word("എന്ത്", "എന്തോന്ന്"),
		Word("ആണ്", "ആകുന്നു"),
		Literal("പോകുന്നു", "പോകുവാണ്"),
		Literal("വരൂ", "വരണം"),
		Word("ശരി", "ശരിയാണ്"),
		Literal("കാത്തിരിക്കുക", "കാത്തിരിക്കണം"),
		Word("ഇവിടെ", "ഇവിടെയാണ്"),
	},

	// Northern Kerala, casual register with the v/b shift.
	Malabar: {
		Literal("നന്ദി", "നല്ലത്"),
		Word("എന്ത്", "എന്താ"),
		Word("ഇല്ല", "ഇല്ലാ"),
		Literal("വെള്ളം", "ബെള്ളം"),
		Literal("വരൂ", "ബരീ"),
		Literal("പോകുന്നു", "പോന്ന്"),
		Word("ശരി", "ശരിയാ"),
		Word("ആണ്", "ആ"),
		Literal("കാത്തിരിക്കുക", "കാത്തിരിക്കീ"),
	},

	// Kochi, urban register with English code-mixing.
	Cochin: {
		Literal("കാത്തിരിക്കുക", "wait ചെയ്യ്"),
		Literal("വിളിക്കുക", "call ചെയ്യ്"),
		Literal("ക്ഷമിക്കണം", "sorry"),
		Literal("നന്ദി", "thanks"),
		Literal("സഹായം", "help"),
		Word("ശരി", "ok"),
		Word("എന്ത്", "എന്താ"),
	},

	// Thrissur, traditional register with the -ട്ടാ particle.
	Thrissur: {
		Word("എന്ത്", "എന്തൂട്ട്"),
		Word("ആണ്", "ആണ്ട്ടാ"),
		Word("ഇല്ല", "ഇല്ല്യ"),
		Word("ശരി", "ശരിട്ടാ"),
		Word("നന്ദി", "നന്ദിട്ടാ"),
		Literal("പോകുന്നു", "പോവ്വാ"),
		Literal("കുട്ടി", "ക്ടാവ്"),
	},
}

// RulesFor returns a copy of the pattern table for t.
func RulesFor(t Tag) Rules {
	if int(t) >= len(tables) {
		return nil
	}
	out := make(Rules, len(tables[t]))
	copy(out, tables[t])
	return out
}
