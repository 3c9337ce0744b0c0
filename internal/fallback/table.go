// File: internal/fallback/table.go
//
// The fallback table implements the console's "never show an error, always
// show forward progress" policy: when the live provider is unreachable, every
// agent still produces a canned, locally generated response. Selection is
// deterministic and performs no I/O, so a failing request always yields the
// same text.
package fallback

import (
	"fmt"
	"strings"

	"github.com/nexuslabs/nexus-cli/api/schemas"
)

// FormSchemaTitle is the title of the canned form the form architect falls
// back to when the provider is unavailable.
const FormSchemaTitle = "Registration Form"

// formSchemaJSON is the canned declarative form. Exactly three fields:
// fullname, email, role.
const formSchemaJSON = `{
  "title": "Registration Form",
  "description": "Tell us a little about yourself and we will be in touch.",
  "submitLabel": "Register",
  "fields": [
    {"name": "fullname", "label": "Full Name", "type": "text", "placeholder": "Jane Smith", "required": true},
    {"name": "email", "label": "Work Email", "type": "email", "placeholder": "jane@company.com", "required": true},
    {"name": "role", "label": "Role", "type": "select", "required": true, "options": ["Founder", "Marketing", "Operations", "Engineering", "Other"]}
  ]
}`

// brandGuardianJSON is the canned brand token set.
const brandGuardianJSON = `{
  "primaryColor": "#f97316",
  "secondaryColor": "#0f172a",
  "fontPairing": "Sora / Inter",
  "toneWords": ["confident", "direct", "warm"]
}`

// genericJSONArray is returned for prompts that asked for JSON when no
// agent-specific entry exists.
const genericJSONArray = `[
  {"item": "Launch announcement", "status": "ready"},
  {"item": "Feature deep-dive", "status": "draft"},
  {"item": "Customer story", "status": "planned"}
]`

// audienceList is returned for prompts about audiences or targeting when no
// agent-specific entry exists.
const audienceList = "**Suggested audience segments**\n\n" +
	"1. **Owner-operators** — time-poor decision makers; respond to ROI framing.\n" +
	"2. **Marketing leads at 10-50 person companies** — want automation without an agency retainer.\n" +
	"3. **Office managers** — handle the phones today; respond to workload relief messaging.\n"

// table holds the per-agent canned responses. Agents without an entry fall
// through to the prompt heuristics.
var table = map[schemas.AgentID]string{
	schemas.AgentBrandGuardian: brandGuardianJSON,
	schemas.AgentFormArchitect: formSchemaJSON,
	schemas.AgentRFPAnalyst: "**Compliance snapshot (offline draft)**\n\n" +
		"| Req | Section | Status |\n|---|---|---|\n" +
		"| L.1 | Technical Approach | Addressed |\n" +
		"| L.2 | Past Performance | Needs input |\n" +
		"| M.1 | Evaluation Criteria | Mapped |\n\n" +
		"Reconnect to refresh this matrix against the live solicitation.",
	schemas.AgentDesign: "Concept direction: a clean hero layout, generous whitespace, a single bold accent " +
		"color, and one close-up product shot. Mood: assured, modern, unfussy. " +
		"A rendered preview will be attached when the studio reconnects.",
	schemas.AgentCopywriter: "**Working headlines**\n\n" +
		"- Every call answered. Every lead captured.\n" +
		"- Your front desk, on autopilot.\n" +
		"- Stop losing customers to voicemail.\n",
}

// promptMentionsJSON reports whether the prompt asked for JSON output.
func promptMentionsJSON(prompt string) bool {
	return strings.Contains(strings.ToLower(prompt), "json")
}

// promptMentionsAudience reports whether the prompt is about audiences or
// targeting.
func promptMentionsAudience(prompt string) bool {
	lower := strings.ToLower(prompt)
	return strings.Contains(lower, "audience") || strings.Contains(lower, "target")
}

// Lookup returns the canned response for a failed generation. Selection
// order: the agent-specific entry, then prompt-content heuristics, then a
// generic template embedding the first 30 characters of the prompt. The
// result is always non-empty and depends only on (agent, prompt).
func Lookup(agent schemas.AgentID, prompt string) string {
	if canned, ok := table[agent]; ok {
		return canned
	}
	if promptMentionsJSON(prompt) {
		return genericJSONArray
	}
	if promptMentionsAudience(prompt) {
		return audienceList
	}

	snippet := prompt
	if len(snippet) > 30 {
		snippet = snippet[:30]
	}
	return fmt.Sprintf("I'm working from cached knowledge right now, but here's a starting point for %q — "+
		"reconnect for a fully tailored answer.", snippet)
}

// FormSchemaJSON returns the canned declarative form schema used when the
// form architect cannot reach the provider.
func FormSchemaJSON() string {
	return formSchemaJSON
}
