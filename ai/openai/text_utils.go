package openai

import (
	"strings"
	"unicode"
)

// scrubString collapses whitespace and drops control characters so a query
// cannot break the prompt layout.
func scrubString(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// truncate shortens s to at most n runes, appending "..." when cut.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// extractJSONObject strips markdown fences and any text around the outermost
// JSON object of a model response.
func extractJSONObject(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

// repairJSON restores a missing opening quote on object keys, a common
// failure of small models: `{code": "X"}` becomes `{"code": "X"}`.
func repairJSON(s string) string {
	in := []rune(s)
	out := make([]rune, 0, len(in)+8)

	for i := 0; i < len(in); i++ {
		out = append(out, in[i])
		if in[i] != '{' && in[i] != ',' {
			continue
		}

		j := i + 1
		for j < len(in) && unicode.IsSpace(in[j]) {
			j++
		}
		k := j
		for k < len(in) && (isLetter(in[k]) || in[k] == '_') {
			k++
		}
		if k > j && k+1 < len(in) && in[k] == '"' && in[k+1] == ':' {
			out = append(out, in[i+1:j]...)
			out = append(out, '"')
			out = append(out, in[j:k]...)
			i = k - 1
		}
	}

	return string(out)
}

// isLetter returns true if the rune is an ASCII letter.
func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
