package schemas

import "time"

// MessageRole identifies the author of a conversation message.
type MessageRole string

const (
	RoleUser   MessageRole = "user"   // Text typed by the operator.
	RoleModel  MessageRole = "model"  // A response produced by the pipeline.
	RoleSystem MessageRole = "system" // Session-level notices (precondition failures, teardown).
)

// AttachmentType categorizes a message attachment. Only images exist today.
type AttachmentType string

const (
	AttachmentImage AttachmentType = "image"
)

// Attachment is an auxiliary artifact carried by a conversation message, such
// as a generated image.
type Attachment struct {
	Type AttachmentType `json:"type"`
	URL  string         `json:"url"`
	// Degraded marks an attachment whose content is a local placeholder
	// substituted after a provider failure.
	Degraded bool `json:"degraded,omitempty"`
}

// ConversationMessage is a single entry in a workspace session's transcript.
// Messages are append-only: once created they are never mutated, and the
// transcript is destroyed with the session. IDs are ULIDs, so they are unique
// and sort in creation order.
type ConversationMessage struct {
	ID          string       `json:"id"`
	Role        MessageRole  `json:"role"`
	Content     string       `json:"content"`
	Timestamp   time.Time    `json:"timestamp"`
	Attachments []Attachment `json:"attachments,omitempty"`
	// Degraded marks a model message whose content is a local fallback rather
	// than live provider output.
	Degraded bool `json:"degraded,omitempty"`
}

// ProjectContext holds the static project metadata a workspace session injects
// into every generation request. All fields are advisory free text.
type ProjectContext struct {
	Name     string `json:"name" mapstructure:"name"`
	Audience string `json:"audience" mapstructure:"audience"`
	Tone     string `json:"tone" mapstructure:"tone"`
	Goal     string `json:"goal" mapstructure:"goal"`
}
