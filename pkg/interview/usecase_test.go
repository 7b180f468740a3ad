package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubChatModel struct {
	mu    sync.Mutex
	fn    func(system, user string) (string, error)
	calls []string
}

func (m *stubChatModel) Ask(_ context.Context, system, user string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, user)
	if m.fn == nil {
		return "", errors.New("no reply configured")
	}
	return m.fn(system, user)
}

type memRepo struct {
	mu      sync.Mutex
	saved   map[string]Session
	saveErr error
}

func newMemRepo() *memRepo {
	return &memRepo{saved: make(map[string]Session)}
}

func (r *memRepo) Save(_ context.Context, s Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved[s.ID] = s
	return nil
}

func (r *memRepo) Load(_ context.Context, sessionID string) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.saved[sessionID]
	if !ok {
		return Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return s, nil
}

func (r *memRepo) List(_ context.Context, _ int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for id := range r.saved {
		out = append(out, id)
	}
	return out, nil
}

func (r *memRepo) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.saved, sessionID)
	return nil
}

type stubTranscriber struct {
	text string
	err  error
}

func (t *stubTranscriber) Transcribe(_ context.Context, _ []byte) (string, error) {
	return t.text, t.err
}

var testStandardQuestions = []Question{
	{Text: "Tell me about your startup.", Kind: KindStandard, ExpectedResponse: "Vision."},
	{Text: "What problem are you solving?", Kind: KindStandard, ExpectedResponse: "Problem."},
	{Text: "Who are your target customers?", Kind: KindStandard, ExpectedResponse: "Segments."},
}

type testEnv struct {
	svc  *service
	repo *memRepo
	llm  *stubChatModel
	tr   *stubTranscriber
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo := newMemRepo()
	model := &stubChatModel{fn: func(system, user string) (string, error) {
		if strings.Contains(user, "generate 2 specific, personalized interview questions") {
			return "What did you learn scaling payments at Acme?\nWhy leave fintech for this market?", nil
		}
		return "Solid answer. Score: 7/10", nil
	}}
	tr := &stubTranscriber{text: "transcribed answer"}

	svc := NewService(
		zap.NewNop(),
		repo,
		nil,
		tr,
		NewCVQuestionGenerator(model),
		NewFeedbackAggregator(model),
		testStandardQuestions,
	).(*service)

	return &testEnv{svc: svc, repo: repo, llm: model, tr: tr}
}

// startInterview creates a session, attaches a CV and fetches the first
// question so the session is in_progress.
func startInterview(t *testing.T, env *testEnv) string {
	t.Helper()
	ctx := context.Background()
	id, err := env.svc.CreateSession(ctx)
	require.NoError(t, err)
	require.NoError(t, env.svc.AttachCV(ctx, id, "CV text", "cv.txt", nil))
	_, err = env.svc.NextQuestion(ctx, id)
	require.NoError(t, err)
	return id
}

func checkInvariants(t *testing.T, env *testEnv, id string) {
	t.Helper()
	env.svc.mu.RLock()
	entry := env.svc.sessions[id]
	env.svc.mu.RUnlock()
	require.NotNil(t, entry)

	entry.mu.Lock()
	defer entry.mu.Unlock()
	s := entry.s
	require.LessOrEqual(t, len(s.Responses), len(s.Questions))
	require.Equal(t, s.CurrentIndex, len(s.Responses))
	require.GreaterOrEqual(t, s.CurrentIndex, 0)
	require.LessOrEqual(t, s.CurrentIndex, len(s.Questions))
}

func TestCreateSessionPersistsInitialState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id, err := env.svc.CreateSession(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	view, err := env.svc.GetStatus(ctx, id)
	require.NoError(t, err)
	require.Equal(t, StatusCreated, view.Status)
	require.Equal(t, 0, view.TotalQuestions)
	require.Equal(t, 0, view.CurrentIndex)

	saved, err := env.repo.Load(ctx, id)
	require.NoError(t, err)
	require.Equal(t, StatusCreated, saved.Status)
}

func TestGetStatusUnknownSession(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.GetStatus(context.Background(), "nope")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestAttachCVBuildsQuestionList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id, err := env.svc.CreateSession(ctx)
	require.NoError(t, err)
	require.NoError(t, env.svc.AttachCV(ctx, id, "ten years in fintech", "cv.txt", nil))

	view, err := env.svc.GetStatus(ctx, id)
	require.NoError(t, err)
	require.Equal(t, StatusReady, view.Status)
	require.Equal(t, 5, view.TotalQuestions)
	require.Equal(t, 0, view.CurrentIndex)

	// CV questions come first, then the standard script
	res, err := env.svc.GetResult(ctx, id)
	require.NoError(t, err)
	require.Equal(t, KindCVBased, res.Questions[0].Kind)
	require.Equal(t, KindCVBased, res.Questions[1].Kind)
	require.Equal(t, KindStandard, res.Questions[2].Kind)
	checkInvariants(t, env, id)
}

func TestAttachCVGeneratorFailureUsesFallback(t *testing.T) {
	env := newTestEnv(t)
	env.llm.fn = nil // every model call fails
	ctx := context.Background()

	id, err := env.svc.CreateSession(ctx)
	require.NoError(t, err)
	require.NoError(t, env.svc.AttachCV(ctx, id, "CV text", "cv.txt", nil))

	res, err := env.svc.GetResult(ctx, id)
	require.NoError(t, err)
	require.Len(t, res.Questions, 5)
	require.Equal(t, fallbackCVQuestions[0].Text, res.Questions[0].Text)
	require.Equal(t, fallbackCVQuestions[1].Text, res.Questions[1].Text)
}

func TestAttachCVRejectedOnceInProgress(t *testing.T) {
	env := newTestEnv(t)
	id := startInterview(t, env)

	err := env.svc.AttachCV(context.Background(), id, "new cv", "cv.txt", nil)
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestNextQuestionInvalidBeforeCV(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id, err := env.svc.CreateSession(ctx)
	require.NoError(t, err)

	_, err = env.svc.NextQuestion(ctx, id)
	require.ErrorIs(t, err, ErrInvalidState)
	require.Contains(t, err.Error(), string(StatusCreated))
}

func TestNextQuestionIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id, err := env.svc.CreateSession(ctx)
	require.NoError(t, err)
	require.NoError(t, env.svc.AttachCV(ctx, id, "CV text", "cv.txt", nil))

	q1, err := env.svc.NextQuestion(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, q1)
	require.Equal(t, QuestionID(id, 0), q1.QuestionID)

	// first call moves ready -> in_progress, second call changes nothing
	q2, err := env.svc.NextQuestion(ctx, id)
	require.NoError(t, err)
	require.Equal(t, q1, q2)

	view, err := env.svc.GetStatus(ctx, id)
	require.NoError(t, err)
	require.Equal(t, StatusInProgress, view.Status)
	require.Equal(t, 0, view.CurrentIndex)
}

func TestSubmitResponseQuestionMismatchLeavesStateUnchanged(t *testing.T) {
	env := newTestEnv(t)
	id := startInterview(t, env)
	ctx := context.Background()

	before, err := env.svc.GetStatus(ctx, id)
	require.NoError(t, err)

	_, err = env.svc.SubmitResponse(ctx, id, QuestionID(id, 3), "answer", nil)
	require.ErrorIs(t, err, ErrQuestionMismatch)

	after, err := env.svc.GetStatus(ctx, id)
	require.NoError(t, err)
	require.Equal(t, before, after)
	checkInvariants(t, env, id)
}

func TestSubmitResponseRequiresInProgress(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id, err := env.svc.CreateSession(ctx)
	require.NoError(t, err)
	require.NoError(t, env.svc.AttachCV(ctx, id, "CV text", "cv.txt", nil))

	_, err = env.svc.SubmitResponse(ctx, id, QuestionID(id, 0), "answer", nil)
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestDrainInterviewToCompletion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id, err := env.svc.CreateSession(ctx)
	require.NoError(t, err)
	require.NoError(t, env.svc.AttachCV(ctx, id, "CV text", "cv.txt", nil))

	for i := 0; i < 5; i++ {
		q, err := env.svc.NextQuestion(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, q)
		require.Equal(t, QuestionID(id, i), q.QuestionID)

		rec, err := env.svc.SubmitResponse(ctx, id, q.QuestionID, "some answer", nil)
		require.NoError(t, err)
		require.Equal(t, "some answer", rec.Text)
		checkInvariants(t, env, id)
	}

	view, err := env.svc.GetStatus(ctx, id)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, view.Status)
	require.Equal(t, 5, view.CurrentIndex)

	// the script is exhausted
	q, err := env.svc.NextQuestion(ctx, id)
	require.ErrorIs(t, err, ErrInvalidState)
	require.Nil(t, q)
}

func TestSubmitResponseAudioTranscription(t *testing.T) {
	env := newTestEnv(t)
	id := startInterview(t, env)

	rec, err := env.svc.SubmitResponse(context.Background(), id, QuestionID(id, 0), "", []byte("RIFFaudio"))
	require.NoError(t, err)
	require.Equal(t, "transcribed answer", rec.Text)
}

func TestSubmitResponseTranscriptionFailurePropagates(t *testing.T) {
	env := newTestEnv(t)
	env.tr.text = ""
	env.tr.err = errors.New("speech api down")
	id := startInterview(t, env)

	_, err := env.svc.SubmitResponse(context.Background(), id, QuestionID(id, 0), "", []byte("RIFFaudio"))
	require.ErrorContains(t, err, "speech api down")
	checkInvariants(t, env, id)
}

func TestSubmitResponseEmptyAfterTranscription(t *testing.T) {
	env := newTestEnv(t)
	env.tr.text = ""
	id := startInterview(t, env)

	_, err := env.svc.SubmitResponse(context.Background(), id, QuestionID(id, 0), "", []byte("RIFFaudio"))
	require.ErrorIs(t, err, ErrEmptyResponse)
}

func TestSubmitResponseNoTextNoAudio(t *testing.T) {
	env := newTestEnv(t)
	id := startInterview(t, env)

	_, err := env.svc.SubmitResponse(context.Background(), id, QuestionID(id, 0), "", nil)
	require.ErrorIs(t, err, ErrEmptyResponse)
}

func TestSubmitResponseScoresSentiment(t *testing.T) {
	env := newTestEnv(t)
	id := startInterview(t, env)

	rec, err := env.svc.SubmitResponse(context.Background(), id, QuestionID(id, 0), "great excellent success", nil)
	require.NoError(t, err)
	require.Equal(t, 1.0, rec.Sentiment.Score)
	require.Equal(t, 1.0, rec.Sentiment.Magnitude)
}

func drainAll(t *testing.T, env *testEnv, id string, answer string) {
	t.Helper()
	ctx := context.Background()
	for {
		q, err := env.svc.NextQuestion(ctx, id)
		require.NoError(t, err)
		if q == nil {
			break
		}
		_, err = env.svc.SubmitResponse(ctx, id, q.QuestionID, answer, nil)
		require.NoError(t, err)
		view, err := env.svc.GetStatus(ctx, id)
		require.NoError(t, err)
		if view.Status == StatusCompleted {
			break
		}
	}
}

func TestGenerateFeedbackIncomplete(t *testing.T) {
	env := newTestEnv(t)
	id := startInterview(t, env)
	ctx := context.Background()

	// answer 2 of 5 questions
	for i := 0; i < 2; i++ {
		_, err := env.svc.SubmitResponse(ctx, id, QuestionID(id, i), "answer", nil)
		require.NoError(t, err)
	}

	_, err := env.svc.GenerateFeedback(ctx, id)
	require.ErrorIs(t, err, ErrIncomplete)
	require.Contains(t, err.Error(), "2/5")
}

func TestGenerateFeedbackOnEmptySession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id, err := env.svc.CreateSession(ctx)
	require.NoError(t, err)

	_, err = env.svc.GenerateFeedback(ctx, id)
	require.ErrorIs(t, err, ErrIncomplete)
}

func TestGenerateFeedbackTransitionsToAnalyzed(t *testing.T) {
	env := newTestEnv(t)
	id := startInterview(t, env)
	drainAll(t, env, id, "a great confident answer")
	ctx := context.Background()

	fb, err := env.svc.GenerateFeedback(ctx, id)
	require.NoError(t, err)
	require.Len(t, fb.DetailedFeedback, 5)
	require.NotEmpty(t, fb.Summary)
	require.NotNil(t, fb.OverallScore)
	require.Equal(t, 7.0, *fb.OverallScore)

	view, err := env.svc.GetStatus(ctx, id)
	require.NoError(t, err)
	require.Equal(t, StatusAnalyzed, view.Status)
}

func TestGenerateFeedbackPartialCollaboratorFailure(t *testing.T) {
	env := newTestEnv(t)
	env.llm.fn = func(system, user string) (string, error) {
		if strings.Contains(user, "generate 2 specific, personalized interview questions") {
			return "Q one?\nQ two?", nil
		}
		if strings.Contains(user, "Candidate's actual answer") {
			if strings.Contains(user, "What problem are you solving?") {
				return "", errors.New("generation failed")
			}
			return "Good response.", nil
		}
		return "Summary text. Score: 6/10", nil
	}
	id := startInterview(t, env)
	drainAll(t, env, id, "an answer")

	fb, err := env.svc.GenerateFeedback(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, fb.DetailedFeedback, 5)

	// index 3 is "What problem are you solving?" (2 CV questions precede)
	for i, detail := range fb.DetailedFeedback {
		if i == 3 {
			require.Equal(t, analysisErrorPlaceholder, detail)
		} else {
			require.Equal(t, "Good response.", detail)
		}
	}
}

func TestGenerateFeedbackRerunOverwrites(t *testing.T) {
	env := newTestEnv(t)
	id := startInterview(t, env)
	drainAll(t, env, id, "an answer")
	ctx := context.Background()

	first, err := env.svc.GenerateFeedback(ctx, id)
	require.NoError(t, err)

	env.llm.fn = func(system, user string) (string, error) {
		return "Revised feedback. Score: 9/10", nil
	}
	second, err := env.svc.GenerateFeedback(ctx, id)
	require.NoError(t, err)
	require.NotEqual(t, first.Summary, second.Summary)

	res, err := env.svc.GetResult(ctx, id)
	require.NoError(t, err)
	require.Equal(t, second.Summary, res.Feedback.Summary)
}

func TestGetResultDuration(t *testing.T) {
	env := newTestEnv(t)
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	current := base
	env.svc.now = func() time.Time { return current }
	ctx := context.Background()

	id, err := env.svc.CreateSession(ctx)
	require.NoError(t, err)
	require.NoError(t, env.svc.AttachCV(ctx, id, "CV text", "cv.txt", nil))

	// no responses yet: duration runs to "now"
	current = base.Add(30 * time.Second)
	res, err := env.svc.GetResult(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 30.0, res.Duration)

	_, err = env.svc.NextQuestion(ctx, id)
	require.NoError(t, err)
	current = base.Add(2 * time.Minute)
	_, err = env.svc.SubmitResponse(ctx, id, QuestionID(id, 0), "answer", nil)
	require.NoError(t, err)

	// with responses: duration runs to the last response timestamp
	current = base.Add(time.Hour)
	res, err = env.svc.GetResult(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 120.0, res.Duration)
}

func TestExpireSessionsRemovesOnlyStale(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		id, err := env.svc.CreateSession(ctx)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	// age two of them past the threshold
	for _, id := range ids[:2] {
		env.svc.mu.RLock()
		entry := env.svc.sessions[id]
		env.svc.mu.RUnlock()
		entry.mu.Lock()
		entry.s.CreatedAt = time.Now().UTC().Add(-25 * time.Hour)
		entry.mu.Unlock()
	}

	removed := env.svc.ExpireSessions(24)
	require.Equal(t, 2, removed)

	env.svc.mu.RLock()
	require.Len(t, env.svc.sessions, 3)
	env.svc.mu.RUnlock()

	// durable copies survive the sweep
	for _, id := range ids[:2] {
		_, err := env.repo.Load(ctx, id)
		require.NoError(t, err)
	}
}

func TestLookupRehydratesFromRepository(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id, err := env.svc.CreateSession(ctx)
	require.NoError(t, err)
	require.NoError(t, env.svc.AttachCV(ctx, id, "CV text", "cv.txt", nil))

	// simulate a process restart: memory gone, durable copy remains
	env.svc.mu.Lock()
	delete(env.svc.sessions, id)
	env.svc.mu.Unlock()

	view, err := env.svc.GetStatus(ctx, id)
	require.NoError(t, err)
	require.Equal(t, StatusReady, view.Status)
	require.Equal(t, 5, view.TotalQuestions)
}

func TestPersistenceFailureDoesNotFailOperation(t *testing.T) {
	env := newTestEnv(t)
	env.repo.saveErr = errors.New("disk full")
	ctx := context.Background()

	id, err := env.svc.CreateSession(ctx)
	require.NoError(t, err)
	require.NoError(t, env.svc.AttachCV(ctx, id, "CV text", "cv.txt", nil))

	// in-memory state stays authoritative
	view, err := env.svc.GetStatus(ctx, id)
	require.NoError(t, err)
	require.Equal(t, StatusReady, view.Status)
}

func TestConcurrentSubmissionsAdvanceOnce(t *testing.T) {
	env := newTestEnv(t)
	id := startInterview(t, env)
	ctx := context.Background()

	qid := QuestionID(id, 0)
	const attempts = 8
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.SubmitResponse(ctx, id, qid, "answer", nil)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, mismatched int
	for err := range errs {
		if err == nil {
			ok++
		} else if errors.Is(err, ErrQuestionMismatch) {
			mismatched++
		}
	}
	require.Equal(t, 1, ok)
	require.Equal(t, attempts-1, mismatched)

	view, err := env.svc.GetStatus(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 1, view.CurrentIndex)
	checkInvariants(t, env, id)
}
