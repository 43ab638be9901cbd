package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "valid json untouched", input: `{"code": "SP42", "reason": "ok"}`, want: `{"code": "SP42", "reason": "ok"}`},
		{name: "missing quote on first key", input: `{code": "SP42"}`, want: `{"code": "SP42"}`},
		{name: "missing quote after comma", input: `{"code": "SP42", reason": "ok"}`, want: `{"code": "SP42", "reason": "ok"}`},
		{name: "whitespace preserved", input: "{\n  code\": \"A\"}", want: "{\n  \"code\": \"A\"}"},
		{name: "commas inside values", input: `{"reason": "a, b"}`, want: `{"reason": "a, b"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, repairJSON(tt.input))
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	assert.Equal(t, `{"code":"A"}`, extractJSONObject("```json\n{\"code\":\"A\"}\n```"))
	assert.Equal(t, `{"code":"A"}`, extractJSONObject(`Sure! {"code":"A"} Hope this helps.`))
	assert.Equal(t, "no json", extractJSONObject("no json"))
}

func TestScrubString(t *testing.T) {
	assert.Equal(t, "pain in back", scrubString("  pain\tin\n\nback "))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdef", 2))
	assert.Equal(t, "வா...", truncate("வாதம்", 2))
}
