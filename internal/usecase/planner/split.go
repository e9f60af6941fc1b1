package planner

import "strings"

// Split breaks a multi-part message into standalone sub-questions. It cuts
// at question marks first, then inside each piece at a conjunction followed
// by an interrogative ("... and what themes come up"). Used as the
// deterministic fallback when LLM decomposition is unavailable.
func Split(message string) []string {
	var out []string
	for _, seg := range strings.Split(message, "?") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		for _, part := range splitAtConjunction(seg) {
			if part = strings.TrimSpace(part); len(part) >= 3 {
				out = append(out, part+"?")
			}
		}
	}
	if len(out) == 0 {
		return []string{message}
	}
	return out
}

// splitAtConjunction cuts at the first "and"/"also"/"plus" whose right side
// reads as its own question.
func splitAtConjunction(seg string) []string {
	lowered := strings.ToLower(seg)
	loc := conjunctionPattern.FindStringIndex(lowered)
	if loc == nil {
		return []string{seg}
	}
	left, right := seg[:loc[0]], seg[loc[1]:]
	if !interrogativePattern.MatchString(strings.ToLower(right)) {
		return []string{seg}
	}
	return []string{left, right}
}
