package calibration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sameearif/JourneyLens/internal/model/chat"
	"github.com/sameearif/JourneyLens/internal/model/story"
	"github.com/sameearif/JourneyLens/internal/model/vision"
	"github.com/sameearif/JourneyLens/internal/repository"
)

const goodSummary = `{"title":"Marathon Dream","description":"Run a marathon next year","characterDescription":"A determined runner in orange"}`

// fakeGenerator routes stage prompts to scripted replies.
type fakeGenerator struct {
	summaryReply string
	failChapter  bool
}

func (g *fakeGenerator) Generate(_ context.Context, system string, history []chat.Message, query string) (string, error) {
	switch {
	case strings.Contains(query, "Next question:"):
		return "What does success look like for you?", nil
	case strings.Contains(query, `{"longTermTodos"`):
		return `{"longTermTodos":["finish a marathon"]}`, nil
	case strings.Contains(query, `{"shortTermTodos"`):
		return `{"shortTermTodos":["buy running shoes"]}`, nil
	case strings.Contains(query, "produce a concise JSON"):
		return g.summaryReply, nil
	case strings.HasPrefix(query, "The protagonist is"):
		if g.failChapter {
			return "", errors.New("story model down")
		}
		return "Elena laced her shoes and ran into the cold morning.", nil
	case strings.Contains(query, "Chapter text:"):
		return "A runner at dawn on an empty road.", nil
	}
	return "", fmt.Errorf("unexpected query: %s", query)
}

type fakeImages struct {
	fail  bool
	calls []string
}

func (f *fakeImages) Generate(_ context.Context, prompt, referenceImage string) (string, error) {
	f.calls = append(f.calls, prompt)
	if f.fail {
		return "", errors.New("image provider down")
	}
	return "data:image/png;base64,aW1n", nil
}

type fakeVisions struct {
	err     error
	created []*vision.Draft
}

func (f *fakeVisions) Create(_ context.Context, userID string, d *vision.Draft) (*vision.Vision, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, d)
	return &vision.Vision{ID: fmt.Sprintf("vision-%d", len(f.created)), UserID: userID, Title: d.Title, ImageURL: d.ImageURL}, nil
}

type fakeStories struct {
	err     error
	created []story.Chapter
	images  [][]story.ChapterImage
}

func (f *fakeStories) Create(_ context.Context, visionID string, ch story.Chapter, images []story.ChapterImage, _ []story.ImageDescription) (*story.Story, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, ch)
	f.images = append(f.images, images)
	return &story.Story{ID: "story-1", VisionID: visionID}, nil
}

func newTestService(gen *fakeGenerator, images *fakeImages, visions *fakeVisions, stories *fakeStories) *Service {
	return NewService(NewStore(), gen, images, visions, stories)
}

func runTurns(t *testing.T, svc *Service, sessionID string, n int) *TurnResult {
	t.Helper()
	var result *TurnResult
	var err error
	for i := 0; i < n; i++ {
		result, err = svc.HandleTurn(context.Background(), sessionID, "user-1", fmt.Sprintf("answer %d", i+1))
		require.NoError(t, err)
	}
	return result
}

func TestPipelineFiresAtThreshold(t *testing.T) {
	gen := &fakeGenerator{summaryReply: goodSummary}
	images := &fakeImages{}
	visions := &fakeVisions{}
	stories := &fakeStories{}
	svc := newTestService(gen, images, visions, stories)

	sess := svc.StartSession("user-1", "Elena")

	result := runTurns(t, svc, sess.ID, SummaryThreshold-1)
	assert.Empty(t, result.VisionID)
	assert.Empty(t, visions.created)

	result = runTurns(t, svc, sess.ID, 1)
	require.Len(t, visions.created, 1)
	assert.Equal(t, "vision-1", result.VisionID)

	draft := visions.created[0]
	assert.Equal(t, "Marathon Dream", draft.Title)
	assert.Equal(t, "A determined runner in orange", draft.CharacterDescription)
	assert.NotEmpty(t, draft.ImageURL)
	assert.Equal(t, draft.StoryRunningSummary, "Elena laced her shoes and ran into the cold morning.")
	assert.NotEmpty(t, draft.ChatHistory)

	// The threshold turn goes straight to the pipeline: no extra question is
	// asked, so the saved transcript ends on the user's final answer.
	last := draft.ChatHistory[len(draft.ChatHistory)-1]
	assert.Equal(t, chat.SenderUser, last.Sender)
	assert.Equal(t, "answer 10", last.Text)
	assert.Empty(t, result.Reply.Text)

	require.Len(t, stories.created, 1)
	assert.Equal(t, 1, stories.created[0].Chapter)

	// A further turn must not run the pipeline again.
	runTurns(t, svc, sess.ID, 1)
	assert.Len(t, visions.created, 1)
}

func TestExtractionFailureResetsLatch(t *testing.T) {
	gen := &fakeGenerator{summaryReply: "no json here, sorry"}
	visions := &fakeVisions{}
	svc := newTestService(gen, &fakeImages{}, visions, &fakeStories{})

	sess := svc.StartSession("user-1", "Elena")
	result := runTurns(t, svc, sess.ID, SummaryThreshold)

	assert.Empty(t, visions.created)
	assert.Equal(t, "I had trouble generating your vision. Please try again.", result.Notice)
	assert.Equal(t, result.Notice, result.Reply.Text)

	// The latch is re-armed: fixing the model lets the next turn retry.
	gen.summaryReply = goodSummary
	result = runTurns(t, svc, sess.ID, 1)
	require.Len(t, visions.created, 1)
	assert.Equal(t, "vision-1", result.VisionID)
}

func TestImageFailureDegradesVision(t *testing.T) {
	gen := &fakeGenerator{summaryReply: goodSummary}
	images := &fakeImages{fail: true}
	visions := &fakeVisions{}
	stories := &fakeStories{}
	svc := newTestService(gen, images, visions, stories)

	sess := svc.StartSession("user-1", "Elena")
	result := runTurns(t, svc, sess.ID, SummaryThreshold)

	require.Len(t, visions.created, 1)
	assert.Empty(t, visions.created[0].ImageURL)
	assert.Equal(t, "vision-1", result.VisionID)

	// The chapter survives without its illustration, keeping the prompt so
	// the image can be regenerated later.
	require.Len(t, stories.created, 1)
	require.Len(t, stories.images[0], 1)
	assert.Empty(t, stories.images[0][0].Image)
	assert.Equal(t, "A runner at dawn on an empty road.", stories.images[0][0].Prompt)
}

func TestChapterFailureStillPersistsVision(t *testing.T) {
	gen := &fakeGenerator{summaryReply: goodSummary, failChapter: true}
	visions := &fakeVisions{}
	stories := &fakeStories{}
	svc := newTestService(gen, &fakeImages{}, visions, stories)

	sess := svc.StartSession("user-1", "Elena")
	result := runTurns(t, svc, sess.ID, SummaryThreshold)

	require.Len(t, visions.created, 1)
	assert.Empty(t, visions.created[0].StoryRunningSummary)
	assert.Empty(t, stories.created)
	assert.Equal(t, "vision-1", result.VisionID)
}

func TestMissingUserInvalidatesSession(t *testing.T) {
	gen := &fakeGenerator{summaryReply: goodSummary}
	visions := &fakeVisions{err: repository.ErrUserMissing}
	svc := newTestService(gen, &fakeImages{}, visions, &fakeStories{})

	sess := svc.StartSession("user-1", "Elena")
	result := runTurns(t, svc, sess.ID, SummaryThreshold)

	assert.True(t, result.SessionInvalid)
	assert.Equal(t, "Session lost. Please log in again.", result.Notice)

	_, err := svc.Store().Get(sess.ID, "user-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSaveFailureKeepsSessionAndResetsLatch(t *testing.T) {
	gen := &fakeGenerator{summaryReply: goodSummary}
	visions := &fakeVisions{err: errors.New("db down")}
	svc := newTestService(gen, &fakeImages{}, visions, &fakeStories{})

	sess := svc.StartSession("user-1", "Elena")
	result := runTurns(t, svc, sess.ID, SummaryThreshold)

	assert.False(t, result.SessionInvalid)
	assert.Equal(t, "Could not save vision. Please try again.", result.Notice)

	visions.err = nil
	result = runTurns(t, svc, sess.ID, 1)
	require.Len(t, visions.created, 1)
	assert.Equal(t, "vision-1", result.VisionID)
}

func TestEditMessageRewindsTranscript(t *testing.T) {
	gen := &fakeGenerator{summaryReply: goodSummary}
	svc := newTestService(gen, &fakeImages{}, &fakeVisions{}, &fakeStories{})

	sess := svc.StartSession("user-1", "Elena")
	runTurns(t, svc, sess.ID, 3)

	snap, err := svc.Store().Get(sess.ID, "user-1")
	require.NoError(t, err)
	require.Len(t, snap.Messages, 7)

	// Message 2 is the first user answer. Editing it drops everything after.
	result, err := svc.EditMessage(context.Background(), sess.ID, "user-1", 2, "actually, a triathlon")
	require.NoError(t, err)

	require.Len(t, result.Messages, 3)
	assert.Equal(t, 1, result.Messages[0].ID)
	assert.Equal(t, chat.SenderUser, result.Messages[1].Sender)
	assert.Equal(t, "actually, a triathlon", result.Messages[1].Text)
	assert.Equal(t, chat.SenderAI, result.Messages[2].Sender)
	assert.Equal(t, 3, result.Messages[2].ID)
}

func TestEditMessageCanRefirePipeline(t *testing.T) {
	gen := &fakeGenerator{summaryReply: "no json here, sorry"}
	visions := &fakeVisions{}
	svc := newTestService(gen, &fakeImages{}, visions, &fakeStories{})

	sess := svc.StartSession("user-1", "Elena")
	runTurns(t, svc, sess.ID, SummaryThreshold)
	require.Empty(t, visions.created)

	// Message 20 is the tenth user answer. Editing it after the failure
	// rewinds past the failure notice and trips the threshold again.
	gen.summaryReply = goodSummary
	result, err := svc.EditMessage(context.Background(), sess.ID, "user-1", 20, "my final answer, refined")
	require.NoError(t, err)

	require.Len(t, visions.created, 1)
	assert.Equal(t, "vision-1", result.VisionID)

	draft := visions.created[0]
	last := draft.ChatHistory[len(draft.ChatHistory)-1]
	assert.Equal(t, chat.SenderUser, last.Sender)
	assert.Equal(t, "my final answer, refined", last.Text)
}

func TestProgressEventsReachSubscribers(t *testing.T) {
	gen := &fakeGenerator{summaryReply: goodSummary}
	svc := newTestService(gen, &fakeImages{}, &fakeVisions{}, &fakeStories{})

	sess := svc.StartSession("user-1", "Elena")
	events, cancel := svc.Store().Subscribe(sess.ID)
	defer cancel()

	runTurns(t, svc, sess.ID, SummaryThreshold)

	seen := map[Stage]bool{}
	for {
		select {
		case event := <-events:
			seen[event.Stage] = true
		default:
			assert.True(t, seen[StageExtraction])
			assert.True(t, seen[StagePersist])
			return
		}
	}
}
