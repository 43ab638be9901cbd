package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/tmbridge/core"
)

const selectionResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "code": {"type": "string"},
    "reason": {"type": "string", "maxLength": 240}
  },
  "required": ["code", "reason"],
  "additionalProperties": false
}`

const selectionPromptTemplate = `You assist clinicians coding diagnoses in traditional medicine systems
(Siddha, Ayurveda, Unani) and ICD-11. Pick the SINGLE candidate that best matches the
clinician's description and return it as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble,
explanation, greeting, or acknowledgment. Start your response directly with the opening brace {
and end with the closing brace }. Your output must exactly follow this schema:

%s

Rules:
- "code" must be copied exactly from the candidate list. Never invent a code.
- "reason" is one short clinical sentence explaining the match.
- Prefer candidates whose definition matches the described symptoms over ones that only share words.
- If several candidates fit equally, pick the one listed first.

Example:
Input:
Description: "stiffness and pain in the upper back"
Candidates:
1. SP42 | pRuShTha-grahaH | back stiffness | Stiffness of the back region
2. SP17 | kaTi-grahaH | lumbar stiffness | Stiffness of the waist
Output:
{"code":"SP42","reason":"Upper back stiffness matches pRuShTha-grahaH rather than lumbar stiffness."}`

// buildSystemPrompt creates the system prompt with the response schema embedded.
func buildSystemPrompt() string {
	return fmt.Sprintf(selectionPromptTemplate, selectionResponseSchema)
}

// buildUserPrompt lists the candidates, one per line, under the description.
func buildUserPrompt(query string, candidates []core.Candidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Description: %q\nCandidates:\n", query)
	for i, c := range candidates {
		fmt.Fprintf(&b, "%d. %s | %s", i+1, c.Code, c.Term)
		if c.English != "" {
			fmt.Fprintf(&b, " | %s", c.English)
		}
		if c.Definition != "" {
			fmt.Fprintf(&b, " | %s", truncate(c.Definition, 200))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
