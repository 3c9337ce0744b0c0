// File: internal/workspace/session.go
//
// Package workspace implements the conversational session that sits between
// an operator and the agent response pipeline. A session owns an append-only
// transcript, enforces one in-flight generation at a time, assembles project
// context and session-scoped memory into every request, and discards in-flight
// results when it is closed.
package workspace

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/nexuslabs/nexus-cli/api/schemas"
)

// responder is the slice of the pipeline a session drives. Satisfied by
// *pipeline.Pipeline.
type responder interface {
	Generate(ctx context.Context, agent schemas.AgentID, prompt, contextText string, highReasoning bool) (schemas.GenerationResult, error)
	GenerateImage(ctx context.Context, prompt, aspectRatio string) (schemas.ImageResult, error)
	Route(ctx context.Context, utterance string) (schemas.Routing, error)
}

// sessionState tracks the submit/resolve cycle.
type sessionState int

const (
	stateIdle sessionState = iota
	stateAwaitingResponse
	stateClosed
)

var (
	// ErrBusy is returned when a submission arrives while a previous one is
	// still awaiting its response.
	ErrBusy = errors.New("a response is already in flight for this session")
	// ErrEmptyInput is returned for blank submissions; the transcript is not
	// touched.
	ErrEmptyInput = errors.New("input must not be empty")
	// ErrClosed is returned once the session has been torn down.
	ErrClosed = errors.New("session is closed")
)

// imagePhrases triggers a chained image generation when one appears in the
// prompt, unless an opt-out phrase also appears.
var imagePhrases = []string{"image", "picture", "illustration", "visual", "logo", "banner", "mockup"}

var optOutPhrases = []string{"no image", "without an image", "without image", "text only", "no visuals"}

// Options seeds a new session.
type Options struct {
	// Agent is the active agent. AgentRouter means every submission is first
	// classified by the orchestration router.
	Agent schemas.AgentID
	// Project is the static metadata injected into every request's context.
	Project schemas.ProjectContext
	// Memory is the initial advisory agent-memory text. Editable per session.
	Memory string
	// HighReasoning forces the powerful tier for every generation.
	HighReasoning bool
	// AspectRatio for chained image generations. Defaults to 1:1.
	AspectRatio string
}

// Session is a single operator conversation. All exported methods are safe
// for concurrent use; submissions are serialized by the state machine.
type Session struct {
	id     string
	pipe   responder
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu            sync.Mutex
	state         sessionState
	transcript    []schemas.ConversationMessage
	agent         schemas.AgentID
	project       schemas.ProjectContext
	memory        string
	highReasoning bool
	aspectRatio   string
	entropy       *ulid.MonotonicEntropy
}

// NewSession creates an idle session bound to the pipeline. Close must be
// called to release it.
func NewSession(pipe responder, opts Options, logger *zap.Logger) *Session {
	agent := opts.Agent
	if agent == "" {
		agent = schemas.AgentRouter
	}
	aspect := opts.AspectRatio
	if aspect == "" {
		aspect = "1:1"
	}
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.NewString()
	return &Session{
		id:            id,
		pipe:          pipe,
		logger:        logger.Named("workspace").With(zap.String("session_id", id)),
		ctx:           ctx,
		cancel:        cancel,
		agent:         agent,
		project:       opts.Project,
		memory:        opts.Memory,
		highReasoning: opts.HighReasoning,
		aspectRatio:   aspect,
		entropy:       ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Agent returns the active agent.
func (s *Session) Agent() schemas.AgentID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agent
}

// SetAgent switches the active agent. Unknown identifiers are rejected.
func (s *Session) SetAgent(agent schemas.AgentID) error {
	if !schemas.IsKnownAgent(agent) {
		return errors.New("unknown agent: " + string(agent))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agent = agent
	return nil
}

// Memory returns the session's advisory agent-memory text.
func (s *Session) Memory() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.memory
}

// SetMemory replaces the session's agent memory. Last writer wins.
func (s *Session) SetMemory(memory string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memory = memory
}

// Transcript returns a copy of the conversation so far, in append order.
func (s *Session) Transcript() []schemas.ConversationMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]schemas.ConversationMessage, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// Notice appends a system message to the transcript. Used for session-level
// announcements such as agent switches.
func (s *Session) Notice(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateClosed {
		return
	}
	s.transcript = append(s.transcript, s.newMessageLocked(schemas.RoleSystem, content))
}

// Submit runs one full conversation turn: the input is echoed to the
// transcript as a user message, the pipeline produces a response (routed
// first when the active agent is the router), an image is chained on when the
// turn calls for one, and the model message is appended and returned.
//
// Only one submission may be in flight; concurrent calls get ErrBusy. If the
// session is closed while the call is in flight, the result is discarded and
// the context error is returned.
func (s *Session) Submit(input string) (schemas.ConversationMessage, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return schemas.ConversationMessage{}, ErrEmptyInput
	}

	s.mu.Lock()
	switch s.state {
	case stateClosed:
		s.mu.Unlock()
		return schemas.ConversationMessage{}, ErrClosed
	case stateAwaitingResponse:
		s.mu.Unlock()
		return schemas.ConversationMessage{}, ErrBusy
	}
	s.state = stateAwaitingResponse
	// Optimistic echo: the user message lands before the provider is called.
	s.transcript = append(s.transcript, s.newMessageLocked(schemas.RoleUser, trimmed))
	agent := s.agent
	highReasoning := s.highReasoning
	aspect := s.aspectRatio
	contextText := s.assembleContextLocked()
	s.mu.Unlock()

	reply, err := s.respond(agent, trimmed, contextText, highReasoning, aspect)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateClosed {
		// Torn down mid-flight: the transcript is already gone for the
		// operator, so the late result is dropped.
		return schemas.ConversationMessage{}, s.ctx.Err()
	}
	s.state = stateIdle
	if err != nil {
		return schemas.ConversationMessage{}, err
	}
	msg := s.newMessageLocked(schemas.RoleModel, reply.text)
	msg.Degraded = reply.degraded
	msg.Attachments = reply.attachments
	s.transcript = append(s.transcript, msg)
	return msg, nil
}

// turnReply is the resolved content of one conversation turn.
type turnReply struct {
	text        string
	degraded    bool
	attachments []schemas.Attachment
}

// respond performs the provider work for a turn outside the session lock.
func (s *Session) respond(agent schemas.AgentID, input, contextText string, highReasoning bool, aspect string) (turnReply, error) {
	prompt := input
	if agent == schemas.AgentRouter {
		routing, err := s.pipe.Route(s.ctx, input)
		if err != nil {
			return turnReply{}, err
		}
		agent = routing.Agent
		prompt = routing.RefinedPrompt
		s.logger.Debug("Utterance routed",
			zap.String("agent", string(agent)))
	}

	result, err := s.pipe.Generate(s.ctx, agent, prompt, contextText, highReasoning)
	if err != nil {
		return turnReply{}, err
	}

	reply := turnReply{text: result.Text, degraded: result.Degraded}
	if wantsImage(agent, prompt) {
		image, err := s.pipe.GenerateImage(s.ctx, prompt, aspect)
		if err != nil {
			return turnReply{}, err
		}
		reply.attachments = append(reply.attachments, schemas.Attachment{
			Type:     schemas.AttachmentImage,
			URL:      image.URL,
			Degraded: image.Degraded,
		})
		reply.degraded = reply.degraded || image.Degraded
	}
	return reply, nil
}

// Close tears the session down: the context is canceled so any in-flight
// provider call aborts, and its result is never appended. Idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateClosed {
		return
	}
	s.state = stateClosed
	s.cancel()
	s.logger.Debug("Session closed", zap.Int("messages", len(s.transcript)))
}

// assembleContextLocked concatenates the project metadata with the session's
// agent memory. Caller holds s.mu.
func (s *Session) assembleContextLocked() string {
	var b strings.Builder
	writeField := func(label, value string) {
		if v := strings.TrimSpace(value); v != "" {
			b.WriteString(label)
			b.WriteString(": ")
			b.WriteString(v)
			b.WriteString("\n")
		}
	}
	writeField("Project", s.project.Name)
	writeField("Audience", s.project.Audience)
	writeField("Tone", s.project.Tone)
	writeField("Goal", s.project.Goal)
	if mem := strings.TrimSpace(s.memory); mem != "" {
		b.WriteString("Agent memory: ")
		b.WriteString(mem)
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

// newMessageLocked mints a transcript message. ULIDs are unique and sort in
// creation order, which keeps the transcript self-ordering. Caller holds s.mu.
func (s *Session) newMessageLocked(role schemas.MessageRole, content string) schemas.ConversationMessage {
	now := time.Now().UTC()
	return schemas.ConversationMessage{
		ID:        ulid.MustNew(ulid.Timestamp(now), s.entropy).String(),
		Role:      role,
		Content:   content,
		Timestamp: now,
	}
}

// wantsImage decides whether a turn gets a chained image: always for the
// design agent, otherwise when the prompt asks for one and does not opt out.
func wantsImage(agent schemas.AgentID, prompt string) bool {
	if agent == schemas.AgentDesign {
		return true
	}
	lower := strings.ToLower(prompt)
	for _, phrase := range optOutPhrases {
		if strings.Contains(lower, phrase) {
			return false
		}
	}
	for _, phrase := range imagePhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
