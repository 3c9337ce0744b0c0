package workspace

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/nexuslabs/nexus-cli/api/schemas"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// stubResponder implements responder with programmable behavior.
type stubResponder struct {
	generate      func(ctx context.Context, agent schemas.AgentID, prompt, contextText string, highReasoning bool) (schemas.GenerationResult, error)
	generateImage func(ctx context.Context, prompt, aspectRatio string) (schemas.ImageResult, error)
	route         func(ctx context.Context, utterance string) (schemas.Routing, error)
}

func (s *stubResponder) Generate(ctx context.Context, agent schemas.AgentID, prompt, contextText string, highReasoning bool) (schemas.GenerationResult, error) {
	if s.generate == nil {
		return schemas.GenerationResult{Agent: agent, Tier: schemas.TierFast, Text: "reply to: " + prompt}, nil
	}
	return s.generate(ctx, agent, prompt, contextText, highReasoning)
}

func (s *stubResponder) GenerateImage(ctx context.Context, prompt, aspectRatio string) (schemas.ImageResult, error) {
	if s.generateImage == nil {
		return schemas.ImageResult{URL: "data:image/png;base64,aW1n"}, nil
	}
	return s.generateImage(ctx, prompt, aspectRatio)
}

func (s *stubResponder) Route(ctx context.Context, utterance string) (schemas.Routing, error) {
	if s.route == nil {
		return schemas.Routing{Agent: schemas.AgentCopywriter, RefinedPrompt: utterance}, nil
	}
	return s.route(ctx, utterance)
}

func newTestSession(t *testing.T, stub *stubResponder, opts Options) *Session {
	t.Helper()
	s := NewSession(stub, opts, zaptest.NewLogger(t))
	t.Cleanup(s.Close)
	return s
}

func TestSubmit_OrderingAndUniqueIDs(t *testing.T) {
	s := newTestSession(t, &stubResponder{}, Options{Agent: schemas.AgentCopywriter})

	const turns = 5
	for i := 0; i < turns; i++ {
		_, err := s.Submit(fmt.Sprintf("message %d", i))
		require.NoError(t, err)
	}

	transcript := s.Transcript()
	require.Len(t, transcript, 2*turns)

	seen := make(map[string]bool, len(transcript))
	for i, msg := range transcript {
		assert.False(t, seen[msg.ID], "duplicate message ID %s", msg.ID)
		seen[msg.ID] = true

		if i%2 == 0 {
			assert.Equal(t, schemas.RoleUser, msg.Role, "position %d", i)
			assert.Equal(t, fmt.Sprintf("message %d", i/2), msg.Content)
		} else {
			assert.Equal(t, schemas.RoleModel, msg.Role, "position %d", i)
		}
	}

	// ULIDs sort in creation order.
	ids := make([]string, len(transcript))
	for i, msg := range transcript {
		ids[i] = msg.ID
	}
	assert.True(t, sort.StringsAreSorted(ids), "message IDs must sort in append order")
}

func TestSubmit_RejectsConcurrentSubmission(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	stub := &stubResponder{
		generate: func(ctx context.Context, agent schemas.AgentID, prompt, contextText string, highReasoning bool) (schemas.GenerationResult, error) {
			close(entered)
			<-release
			return schemas.GenerationResult{Agent: agent, Text: "slow reply"}, nil
		},
	}
	s := newTestSession(t, stub, Options{Agent: schemas.AgentCopywriter})

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit("first")
		done <- err
	}()
	<-entered

	_, err := s.Submit("second")
	assert.ErrorIs(t, err, ErrBusy)

	close(release)
	require.NoError(t, <-done)

	transcript := s.Transcript()
	require.Len(t, transcript, 2, "the rejected submission must leave no trace")
	assert.Equal(t, "first", transcript[0].Content)
}

func TestSubmit_EmptyInput(t *testing.T) {
	s := newTestSession(t, &stubResponder{}, Options{Agent: schemas.AgentCopywriter})

	_, err := s.Submit("   \n\t")
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Empty(t, s.Transcript())
}

func TestSubmit_DesignAgentAlwaysAttachesImage(t *testing.T) {
	s := newTestSession(t, &stubResponder{}, Options{Agent: schemas.AgentDesign})

	msg, err := s.Submit("refresh the landing page hero")
	require.NoError(t, err)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, schemas.AttachmentImage, msg.Attachments[0].Type)
	assert.NotEmpty(t, msg.Attachments[0].URL)
}

func TestSubmit_ImagePhraseTriggersAttachment(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		want   bool
	}{
		{"plain text prompt", "write a product description", false},
		{"asks for a logo", "sketch a logo for the launch", true},
		{"asks for a banner", "I need a banner for the campaign", true},
		{"opt-out wins", "describe the banner campaign, text only please", false},
		{"explicit no image", "pitch the idea, no image needed", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestSession(t, &stubResponder{}, Options{Agent: schemas.AgentCopywriter})

			msg, err := s.Submit(tc.prompt)
			require.NoError(t, err)
			if tc.want {
				assert.Len(t, msg.Attachments, 1)
			} else {
				assert.Empty(t, msg.Attachments)
			}
		})
	}
}

func TestSubmit_DegradedImageMarksMessage(t *testing.T) {
	stub := &stubResponder{
		generateImage: func(ctx context.Context, prompt, aspectRatio string) (schemas.ImageResult, error) {
			return schemas.ImageResult{URL: "https://placehold.co/600x600?text=x", Degraded: true}, nil
		},
	}
	s := newTestSession(t, stub, Options{Agent: schemas.AgentDesign})

	msg, err := s.Submit("design a poster")
	require.NoError(t, err)
	assert.True(t, msg.Degraded)
	require.Len(t, msg.Attachments, 1)
	assert.True(t, msg.Attachments[0].Degraded)
}

func TestSubmit_RouterAgentRoutesFirst(t *testing.T) {
	var routedAgent schemas.AgentID
	var routedPrompt string
	stub := &stubResponder{
		route: func(ctx context.Context, utterance string) (schemas.Routing, error) {
			return schemas.Routing{Agent: schemas.AgentRFPAnalyst, RefinedPrompt: "Summarize the RFP requirements"}, nil
		},
		generate: func(ctx context.Context, agent schemas.AgentID, prompt, contextText string, highReasoning bool) (schemas.GenerationResult, error) {
			routedAgent = agent
			routedPrompt = prompt
			return schemas.GenerationResult{Agent: agent, Text: "summary"}, nil
		},
	}
	s := newTestSession(t, stub, Options{Agent: schemas.AgentRouter})

	_, err := s.Submit("can you look at this rfp")
	require.NoError(t, err)
	assert.Equal(t, schemas.AgentRFPAnalyst, routedAgent)
	assert.Equal(t, "Summarize the RFP requirements", routedPrompt)
}

func TestSubmit_ContextCarriesProjectAndMemory(t *testing.T) {
	var captured string
	stub := &stubResponder{
		generate: func(ctx context.Context, agent schemas.AgentID, prompt, contextText string, highReasoning bool) (schemas.GenerationResult, error) {
			captured = contextText
			return schemas.GenerationResult{Agent: agent, Text: "ok"}, nil
		},
	}
	s := newTestSession(t, stub, Options{
		Agent: schemas.AgentCopywriter,
		Project: schemas.ProjectContext{
			Name:     "Atlas Launch",
			Audience: "mid-market ops teams",
			Tone:     "confident",
			Goal:     "drive signups",
		},
		Memory: "Always mention the free tier.",
	})

	_, err := s.Submit("write the hero copy")
	require.NoError(t, err)
	assert.Contains(t, captured, "Project: Atlas Launch")
	assert.Contains(t, captured, "Audience: mid-market ops teams")
	assert.Contains(t, captured, "Agent memory: Always mention the free tier.")

	s.SetMemory("Lead with the integrations story.")
	_, err = s.Submit("write the footer copy")
	require.NoError(t, err)
	assert.Contains(t, captured, "Agent memory: Lead with the integrations story.")
	assert.NotContains(t, captured, "free tier", "memory edits replace, not accumulate")
}

func TestClose_DiscardsInFlightResult(t *testing.T) {
	entered := make(chan struct{})
	stub := &stubResponder{
		generate: func(ctx context.Context, agent schemas.AgentID, prompt, contextText string, highReasoning bool) (schemas.GenerationResult, error) {
			close(entered)
			<-ctx.Done()
			return schemas.GenerationResult{}, ctx.Err()
		},
	}
	s := newTestSession(t, stub, Options{Agent: schemas.AgentCopywriter})

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit("long running request")
		done <- err
	}()
	<-entered

	s.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("submit did not unblock after Close")
	}

	for _, msg := range s.Transcript() {
		assert.NotEqual(t, schemas.RoleModel, msg.Role, "a discarded result must never be appended")
	}
}

func TestSubmit_AfterClose(t *testing.T) {
	s := newTestSession(t, &stubResponder{}, Options{Agent: schemas.AgentCopywriter})
	s.Close()

	_, err := s.Submit("hello")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSubmit_GenerationErrorLeavesSessionUsable(t *testing.T) {
	failOnce := true
	stub := &stubResponder{
		generate: func(ctx context.Context, agent schemas.AgentID, prompt, contextText string, highReasoning bool) (schemas.GenerationResult, error) {
			if failOnce {
				failOnce = false
				return schemas.GenerationResult{}, errors.New("transient pipeline error")
			}
			return schemas.GenerationResult{Agent: agent, Text: "recovered"}, nil
		},
	}
	s := newTestSession(t, stub, Options{Agent: schemas.AgentCopywriter})

	_, err := s.Submit("first try")
	require.Error(t, err)

	msg, err := s.Submit("second try")
	require.NoError(t, err)
	assert.Equal(t, "recovered", msg.Content)
}

func TestSetAgent(t *testing.T) {
	s := newTestSession(t, &stubResponder{}, Options{Agent: schemas.AgentCopywriter})

	require.NoError(t, s.SetAgent(schemas.AgentDesign))
	assert.Equal(t, schemas.AgentDesign, s.Agent())

	err := s.SetAgent(schemas.AgentID("astrologer"))
	require.Error(t, err)
	assert.Equal(t, schemas.AgentDesign, s.Agent())
}

func TestNotice_AppendsSystemMessage(t *testing.T) {
	s := newTestSession(t, &stubResponder{}, Options{Agent: schemas.AgentCopywriter})

	s.Notice("switched agent to design")
	transcript := s.Transcript()
	require.Len(t, transcript, 1)
	assert.Equal(t, schemas.RoleSystem, transcript[0].Role)
	assert.Equal(t, "switched agent to design", transcript[0].Content)
}
