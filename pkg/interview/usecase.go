package interview

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/artem13815/interview/pkg/nlp"
)

// UseCase is the session lifecycle manager. All mutating operations on one
// session are serialized; operations on distinct sessions run in parallel.
type UseCase interface {
	CreateSession(ctx context.Context) (string, error)
	AttachCV(ctx context.Context, sessionID, cvText, filename string, cvFile []byte) error
	GetStatus(ctx context.Context, sessionID string) (StatusView, error)
	NextQuestion(ctx context.Context, sessionID string) (*QuestionView, error)
	SubmitResponse(ctx context.Context, sessionID, questionID, text string, audio []byte) (ResponseRecord, error)
	GenerateFeedback(ctx context.Context, sessionID string) (Feedback, error)
	GetResult(ctx context.Context, sessionID string) (Result, error)
	ExpireSessions(maxAgeHours int) int
}

type sessionEntry struct {
	mu sync.Mutex
	s  Session
}

type service struct {
	log         *zap.Logger
	repo        SessionRepository
	media       MediaStore
	transcriber Transcriber
	cvGen       *CVQuestionGenerator
	feedback    *FeedbackAggregator
	standard    []Question

	mu       sync.RWMutex
	sessions map[string]*sessionEntry

	now func() time.Time
}

// NewService wires the session manager. repo and standard are required;
// media, transcriber, cvGen and feedback may be nil, in which case the
// corresponding collaborator path degrades (no audio storage, no
// transcription, fixed CV questions, placeholder feedback).
func NewService(
	log *zap.Logger,
	repo SessionRepository,
	media MediaStore,
	transcriber Transcriber,
	cvGen *CVQuestionGenerator,
	feedback *FeedbackAggregator,
	standard []Question,
) UseCase {
	return &service{
		log:         log,
		repo:        repo,
		media:       media,
		transcriber: transcriber,
		cvGen:       cvGen,
		feedback:    feedback,
		standard:    standard,
		sessions:    make(map[string]*sessionEntry),
		now:         time.Now,
	}
}

func (s *service) CreateSession(ctx context.Context) (string, error) {
	id := uuid.NewString()
	entry := &sessionEntry{s: Session{
		ID:        id,
		Status:    StatusCreated,
		CreatedAt: s.now().UTC(),
		Questions: []Question{},
		Responses: []ResponseRecord{},
	}}

	s.mu.Lock()
	s.sessions[id] = entry
	s.mu.Unlock()

	s.persist(ctx, entry.s)
	return id, nil
}

// lookup finds a session in memory, falling back to the durable copy so a
// restarted process can resume interviews.
func (s *service) lookup(ctx context.Context, sessionID string) (*sessionEntry, error) {
	s.mu.RLock()
	entry, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if ok {
		return entry, nil
	}

	if s.repo != nil {
		if loaded, err := s.repo.Load(ctx, sessionID); err == nil && loaded.ID == sessionID {
			s.mu.Lock()
			// another request may have rehydrated it first
			if existing, ok := s.sessions[sessionID]; ok {
				s.mu.Unlock()
				return existing, nil
			}
			entry = &sessionEntry{s: loaded}
			s.sessions[sessionID] = entry
			s.mu.Unlock()
			return entry, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
}

func (s *service) AttachCV(ctx context.Context, sessionID, cvText, filename string, cvFile []byte) error {
	entry, err := s.lookup(ctx, sessionID)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	sess := &entry.s
	if sess.Status != StatusCreated && sess.Status != StatusReady {
		return fmt.Errorf("%w: session is in %s state, want %s or %s",
			ErrInvalidState, sess.Status, StatusCreated, StatusReady)
	}

	// CV-question generation is best-effort: the generator substitutes its
	// own fallback on collaborator failure and never returns an error.
	var cvQuestions []Question
	if s.cvGen != nil {
		cvQuestions = s.cvGen.Generate(ctx, cvText)
	} else {
		cvQuestions = fallbackCVQuestions
	}

	if len(cvFile) > 0 && s.media != nil {
		path, err := s.media.SaveCV(sessionID, filename, cvFile)
		if err != nil {
			s.log.Error("store cv file", zap.String("session", sessionID), zap.Error(err))
		} else {
			sess.CVPath = path
		}
	}

	sess.Questions = append(append([]Question{}, cvQuestions...), s.standard...)
	sess.Status = StatusReady

	s.persist(ctx, *sess)
	return nil
}

func (s *service) GetStatus(ctx context.Context, sessionID string) (StatusView, error) {
	entry, err := s.lookup(ctx, sessionID)
	if err != nil {
		return StatusView{}, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	sess := entry.s
	return StatusView{
		SessionID:      sess.ID,
		Status:         sess.Status,
		CurrentIndex:   sess.CurrentIndex,
		TotalQuestions: len(sess.Questions),
		CreatedAt:      sess.CreatedAt,
		CVPath:         sess.CVPath,
	}, nil
}

// NextQuestion returns the question at the cursor without advancing it; the
// cursor only moves on a successful submission, so a client that crashes
// between fetch and submit re-fetches the same question. A nil view signals
// that the interview is exhausted.
func (s *service) NextQuestion(ctx context.Context, sessionID string) (*QuestionView, error) {
	entry, err := s.lookup(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	sess := &entry.s
	if sess.Status != StatusReady && sess.Status != StatusInProgress {
		return nil, fmt.Errorf("%w: session is in %s state, want %s or %s",
			ErrInvalidState, sess.Status, StatusReady, StatusInProgress)
	}

	if sess.CurrentIndex >= len(sess.Questions) {
		return nil, nil
	}

	if sess.Status == StatusReady {
		sess.Status = StatusInProgress
		s.persist(ctx, *sess)
	}

	q := sess.Questions[sess.CurrentIndex]
	return &QuestionView{
		QuestionID:       QuestionID(sess.ID, sess.CurrentIndex),
		Text:             q.Text,
		Kind:             q.Kind,
		ExpectedResponse: q.ExpectedResponse,
	}, nil
}

func (s *service) SubmitResponse(ctx context.Context, sessionID, questionID, text string, audio []byte) (ResponseRecord, error) {
	entry, err := s.lookup(ctx, sessionID)
	if err != nil {
		return ResponseRecord{}, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	sess := &entry.s
	if sess.Status != StatusInProgress {
		return ResponseRecord{}, fmt.Errorf("%w: session is in %s state, want %s",
			ErrInvalidState, sess.Status, StatusInProgress)
	}

	// Guards against stale or duplicate submissions, e.g. a client retry
	// after a timeout. Together with the per-session lock this prevents
	// double-advancement of the cursor.
	expectedID := QuestionID(sess.ID, sess.CurrentIndex)
	if questionID != expectedID {
		return ResponseRecord{}, fmt.Errorf("%w: got %s, current is %s",
			ErrQuestionMismatch, questionID, expectedID)
	}

	var audioPath string
	if len(audio) > 0 {
		if s.media != nil {
			path, err := s.media.SaveResponseAudio(sessionID, sess.CurrentIndex, audio)
			if err != nil {
				s.log.Error("store response audio", zap.String("session", sessionID), zap.Error(err))
			} else {
				audioPath = path
			}
		}
		if text == "" {
			if s.transcriber == nil {
				return ResponseRecord{}, fmt.Errorf("transcription unavailable: no transcriber configured")
			}
			// Transcription failure propagates: without it there is no text
			// to record.
			text, err = s.transcriber.Transcribe(ctx, audio)
			if err != nil {
				return ResponseRecord{}, fmt.Errorf("transcribe response audio: %w", err)
			}
		}
	}

	if text == "" {
		return ResponseRecord{}, ErrEmptyResponse
	}

	record := ResponseRecord{
		Text:      text,
		AudioPath: audioPath,
		Sentiment: scoreSentiment(text),
		Timestamp: s.now().UTC(),
	}

	sess.Responses = append(sess.Responses, record)
	sess.CurrentIndex++
	if sess.CurrentIndex >= len(sess.Questions) {
		sess.Status = StatusCompleted
	}

	s.persist(ctx, *sess)
	return record, nil
}

// GenerateFeedback runs the full analysis over all question/response pairs.
// Calling it again after the session is analyzed re-runs the analysis and
// overwrites the stored feedback.
func (s *service) GenerateFeedback(ctx context.Context, sessionID string) (Feedback, error) {
	entry, err := s.lookup(ctx, sessionID)
	if err != nil {
		return Feedback{}, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	sess := &entry.s
	if len(sess.Questions) == 0 || len(sess.Responses) != len(sess.Questions) {
		return Feedback{}, fmt.Errorf("%w: %d/%d questions answered",
			ErrIncomplete, len(sess.Responses), len(sess.Questions))
	}

	questions := make([]string, len(sess.Questions))
	expected := make([]string, len(sess.Questions))
	actual := make([]string, len(sess.Questions))
	for i, q := range sess.Questions {
		questions[i] = q.Text
		expected[i] = q.ExpectedResponse
		actual[i] = sess.Responses[i].Text
	}

	var fb Feedback
	if s.feedback != nil {
		fb = s.feedback.Analyze(ctx, questions, expected, actual)
	} else {
		fb = Feedback{
			Summary:          "Could not generate interview summary.",
			DetailedFeedback: make([]string, len(questions)),
		}
		for i := range fb.DetailedFeedback {
			fb.DetailedFeedback[i] = analysisErrorPlaceholder
		}
	}

	sess.Feedback = &fb
	sess.Status = StatusAnalyzed

	s.persist(ctx, *sess)
	return fb, nil
}

func (s *service) GetResult(ctx context.Context, sessionID string) (Result, error) {
	entry, err := s.lookup(ctx, sessionID)
	if err != nil {
		return Result{}, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	sess := entry.s
	questions := make([]QuestionView, len(sess.Questions))
	for i, q := range sess.Questions {
		questions[i] = QuestionView{
			QuestionID:       QuestionID(sess.ID, i),
			Text:             q.Text,
			Kind:             q.Kind,
			ExpectedResponse: q.ExpectedResponse,
		}
	}

	end := s.now().UTC()
	if n := len(sess.Responses); n > 0 {
		end = sess.Responses[n-1].Timestamp
	}

	return Result{
		SessionID: sess.ID,
		Questions: questions,
		Responses: append([]ResponseRecord{}, sess.Responses...),
		Feedback:  sess.Feedback,
		Duration:  end.Sub(sess.CreatedAt).Seconds(),
	}, nil
}

// ExpireSessions evicts sessions older than maxAgeHours from active memory
// and returns the number removed. Durable copies stay on disk; deleting them
// is a separate, explicit operation on the repository.
func (s *service) ExpireSessions(maxAgeHours int) int {
	cutoff := s.now().UTC().Add(-time.Duration(maxAgeHours) * time.Hour)

	s.mu.RLock()
	candidates := make([]*sessionEntry, 0)
	for _, entry := range s.sessions {
		candidates = append(candidates, entry)
	}
	s.mu.RUnlock()

	removed := 0
	for _, entry := range candidates {
		// Take the session lock so a sweep never races an in-flight mutation.
		entry.mu.Lock()
		id := entry.s.ID
		expired := entry.s.CreatedAt.Before(cutoff)
		entry.mu.Unlock()

		if !expired {
			continue
		}

		s.mu.Lock()
		if s.sessions[id] == entry {
			delete(s.sessions, id)
			removed++
		}
		s.mu.Unlock()
	}

	if removed > 0 {
		s.log.Info("expired sessions", zap.Int("count", removed), zap.Int("maxAgeHours", maxAgeHours))
	}
	return removed
}

// persist writes the session through to durable storage. In-memory state is
// authoritative for the running process; a storage failure is logged and the
// operation still succeeds.
func (s *service) persist(ctx context.Context, sess Session) {
	if s.repo == nil {
		return
	}
	if err := s.repo.Save(ctx, sess); err != nil {
		s.log.Error("persist session", zap.String("session", sess.ID), zap.Error(err))
	}
}

// scoreSentiment runs the pure lexical scorer; it never fails, so every
// accepted response carries a sentiment.
func scoreSentiment(text string) Sentiment {
	v := nlp.AnalyzeSentiment(text)
	return Sentiment{Score: v.Score, Magnitude: v.Magnitude}
}
