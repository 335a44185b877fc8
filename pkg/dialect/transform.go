package dialect

// Transform rewrites text into the given dialect. Standard, and any value
// outside the supported set, returns text unchanged.
//
// The result is not guaranteed to be stable under repeated application: a
// replacement that contains its own match (Travancore "നന്ദി") grows again.
func Transform(text string, t Tag) string {
	if t == Standard || int(t) >= len(tables) {
		return text
	}
	return tables[t].Apply(text)
}
