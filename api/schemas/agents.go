package schemas

// AgentID is an enumerated tag identifying one of the console's AI agents. The
// identifier selects both the persona (system instruction) and the model tier
// used for a generation request. The set is closed and defined at startup.
type AgentID string

const (
	// AgentRouter is the generic orchestration agent. It is the default target
	// for utterances that cannot be classified onto a specialist, and the
	// fallback identity when classification itself fails.
	AgentRouter AgentID = "router"

	// AgentBrandGuardian reviews and generates brand assets (palettes,
	// voice-and-tone rules, logo usage notes).
	AgentBrandGuardian AgentID = "brand_guardian"

	// AgentRFPAnalyst dissects federal RFP documents into compliance matrices
	// and capability statements.
	AgentRFPAnalyst AgentID = "rfp_analyst"

	// AgentFormArchitect produces declarative form schemas from natural
	// language descriptions.
	AgentFormArchitect AgentID = "form_architect"

	// AgentDesign produces visual concepts. Responses from this agent always
	// trigger a chained image generation.
	AgentDesign AgentID = "design"

	// AgentCopywriter drafts marketing and campaign copy.
	AgentCopywriter AgentID = "copywriter"

	// AgentAudienceStrategist builds audience segments and targeting plans.
	AgentAudienceStrategist AgentID = "audience_strategist"
)

// KnownAgents lists every member of the closed agent set, in a stable order.
// Components that enumerate agents (the orchestration router's classification
// prompt, validation of provider output) must use this list rather than
// hard-coding identifiers.
func KnownAgents() []AgentID {
	return []AgentID{
		AgentRouter,
		AgentBrandGuardian,
		AgentRFPAnalyst,
		AgentFormArchitect,
		AgentDesign,
		AgentCopywriter,
		AgentAudienceStrategist,
	}
}

// IsKnownAgent reports whether id is a member of the closed agent set.
func IsKnownAgent(id AgentID) bool {
	for _, known := range KnownAgents() {
		if id == known {
			return true
		}
	}
	return false
}

// Persona couples an agent identifier with the natural language system
// instruction that defines the agent's role, constraints, and output
// expectations. Personas are pure data, read-only after initialization.
type Persona struct {
	ID          AgentID `json:"id"`
	Instruction string  `json:"instruction"`
}
