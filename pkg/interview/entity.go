package interview

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Status is the lifecycle state of a session. Transitions are strictly
// forward: created -> ready -> in_progress -> completed -> analyzed.
type Status string

const (
	StatusCreated    Status = "created"
	StatusReady      Status = "ready"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusAnalyzed   Status = "analyzed"
)

// QuestionKind distinguishes scripted questions from CV-personalized ones.
type QuestionKind string

const (
	KindStandard QuestionKind = "standard"
	KindCVBased  QuestionKind = "cv_based"
)

// Question is immutable once added to a session.
type Question struct {
	Text             string       `json:"text"`
	Kind             QuestionKind `json:"kind"`
	ExpectedResponse string       `json:"expectedResponse"`
}

// Sentiment is the lexical score of a single response.
type Sentiment struct {
	Score     float64 `json:"score"`
	Magnitude float64 `json:"magnitude"`
}

// ResponseRecord is appended once per accepted submission and never mutated.
type ResponseRecord struct {
	Text      string    `json:"text"`
	AudioPath string    `json:"audioPath,omitempty"`
	Sentiment Sentiment `json:"sentiment"`
	Timestamp time.Time `json:"timestamp"`
}

// Feedback is the frozen aggregate analysis of a completed interview.
// OverallScore is nil when the summary contained no recognizable score;
// nil and zero are distinct.
type Feedback struct {
	Summary          string   `json:"summary"`
	DetailedFeedback []string `json:"detailedFeedback"`
	OverallScore     *float64 `json:"overallScore,omitempty"`
}

// Session is the central entity. CurrentIndex points at the next question to
// be answered and len(Responses) == CurrentIndex holds after every operation.
type Session struct {
	ID           string           `json:"id"`
	Status       Status           `json:"status"`
	CreatedAt    time.Time        `json:"createdAt"`
	CVPath       string           `json:"cvPath,omitempty"`
	Questions    []Question       `json:"questions"`
	CurrentIndex int              `json:"currentIndex"`
	Responses    []ResponseRecord `json:"responses"`
	Feedback     *Feedback        `json:"feedback,omitempty"`
}

// StatusView is the read-only status projection returned to callers.
type StatusView struct {
	SessionID      string    `json:"sessionId"`
	Status         Status    `json:"status"`
	CurrentIndex   int       `json:"currentQuestionIndex"`
	TotalQuestions int       `json:"totalQuestions"`
	CreatedAt      time.Time `json:"createdAt"`
	CVPath         string    `json:"cvPath,omitempty"`
}

// QuestionView carries the deterministic question identity alongside the
// question itself; ID is what a subsequent submission is validated against.
type QuestionView struct {
	QuestionID       string       `json:"questionId"`
	Text             string       `json:"text"`
	Kind             QuestionKind `json:"kind"`
	ExpectedResponse string       `json:"expectedResponse,omitempty"`
}

// Result is the full interview snapshot.
type Result struct {
	SessionID string           `json:"sessionId"`
	Questions []QuestionView   `json:"questions"`
	Responses []ResponseRecord `json:"responses"`
	Feedback  *Feedback        `json:"feedback,omitempty"`
	Duration  float64          `json:"duration"`
}

// Error taxonomy. Handlers match these with errors.Is.
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrInvalidState     = errors.New("invalid session state")
	ErrQuestionMismatch = errors.New("question id does not match current question")
	ErrIncomplete       = errors.New("interview incomplete")
	ErrEmptyResponse    = errors.New("no response text or audio provided")
)

// QuestionID derives the identity of the question at index within a session.
// The format "<sessionID>_<index>" is a public contract so clients can predict
// it; it is not a security boundary.
func QuestionID(sessionID string, index int) string {
	return fmt.Sprintf("%s_%d", sessionID, index)
}

// SessionRepository is the durable storage port. One record per session,
// keyed by session ID. Persistence is best-effort durability: the running
// process keeps the authoritative copy in memory.
type SessionRepository interface {
	Save(ctx context.Context, s Session) error
	Load(ctx context.Context, sessionID string) (Session, error)
	// List enumerates persisted session IDs. maxAgeHours > 0 keeps only
	// sessions modified within that window.
	List(ctx context.Context, maxAgeHours int) ([]string, error)
	Delete(ctx context.Context, sessionID string) error
}

// MediaStore persists uploaded artifacts (CV files, response audio) and
// returns a reference to each stored item.
type MediaStore interface {
	SaveResponseAudio(sessionID string, index int, data []byte) (string, error)
	SaveCV(sessionID, filename string, data []byte) (string, error)
}

// Transcriber converts response audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}
