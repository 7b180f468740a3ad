package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/artem13815/interview/api/http/presenter"
	"github.com/artem13815/interview/pkg/document"
	"github.com/artem13815/interview/pkg/interview"
)

var documentExtensions = map[string]struct{}{
	".pdf": {}, ".docx": {}, ".doc": {}, ".txt": {},
}

var audioExtensions = map[string]struct{}{
	".wav": {}, ".mp3": {}, ".ogg": {}, ".m4a": {},
}

// SessionHandler exposes the interview session lifecycle over HTTP.
type SessionHandler struct {
	svc interview.UseCase
	// Limit uploaded file size read into memory (bytes)
	maxBytes int64
}

func NewSessionHandler(svc interview.UseCase) *SessionHandler {
	return &SessionHandler{svc: svc, maxBytes: 15 << 20} // 15MB
}

// Create starts a new interview session.
// @Summary Create an interview session
// @Tags    Sessions
// @Produce json
// @Success 200 {object} map[string]string "sessionId"
// @Router  /sessions [post]
func (h *SessionHandler) Create(c *fiber.Ctx) error {
	id, err := h.svc.CreateSession(c.Context())
	if err != nil {
		return presenter.Error(c, http.StatusInternalServerError, err.Error())
	}
	return presenter.JSON(c, http.StatusOK, fiber.Map{"sessionId": id})
}

// Status returns the current session status.
// @Summary Get session status
// @Tags    Sessions
// @Produce json
// @Param   id path string true "Session ID"
// @Success 200 {object} interview.StatusView
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /sessions/{id} [get]
func (h *SessionHandler) Status(c *fiber.Ctx) error {
	view, err := h.svc.GetStatus(c.Context(), c.Params("id"))
	if err != nil {
		return sessionError(c, err)
	}
	return presenter.JSON(c, http.StatusOK, view)
}

// UploadCV attaches a CV to the session and builds the question list.
// @Summary Upload a CV and generate personalized questions
// @Tags    Sessions
// @Accept  multipart/form-data
// @Produce json
// @Param   id   path     string true "Session ID"
// @Param   file formData file   true "CV file (PDF, DOCX or TXT)"
// @Success 200 {object} map[string]string
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Failure 422 {object} presenter.ErrorResponse "No text could be extracted"
// @Router  /sessions/{id}/cv [post]
func (h *SessionHandler) UploadCV(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil || fh == nil {
		return presenter.Error(c, http.StatusBadRequest, "file is required (pdf, docx or txt)")
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if _, ok := documentExtensions[ext]; !ok {
		return presenter.Error(c, http.StatusBadRequest, "invalid document format")
	}

	file, err := fh.Open()
	if err != nil {
		return presenter.Error(c, http.StatusBadRequest, "failed to open uploaded file")
	}
	defer file.Close()

	data, err := readAtMost(file, h.maxBytes)
	if err != nil {
		return presenter.Error(c, http.StatusBadRequest, err.Error())
	}

	text, err := document.ExtractText(fh.Filename, data)
	if err != nil || strings.TrimSpace(text) == "" {
		return presenter.Error(c, http.StatusUnprocessableEntity, "could not extract text from CV")
	}

	if err := h.svc.AttachCV(c.Context(), c.Params("id"), text, fh.Filename, data); err != nil {
		return sessionError(c, err)
	}
	return presenter.JSON(c, http.StatusOK, fiber.Map{
		"filename": fh.Filename,
		"fileType": ext,
	})
}

// NextQuestion returns the question at the cursor, or 204 when the interview
// is exhausted.
// @Summary Get the next question
// @Tags    Sessions
// @Produce json
// @Param   id path string true "Session ID"
// @Success 200 {object} interview.QuestionView
// @Success 204 "No more questions"
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /sessions/{id}/questions/next [get]
func (h *SessionHandler) NextQuestion(c *fiber.Ctx) error {
	q, err := h.svc.NextQuestion(c.Context(), c.Params("id"))
	if err != nil {
		return sessionError(c, err)
	}
	if q == nil {
		return c.SendStatus(http.StatusNoContent)
	}
	return presenter.JSON(c, http.StatusOK, q)
}

// SubmitResponse accepts a text and/or audio answer to the current question.
// @Summary Submit a response to a question
// @Tags    Sessions
// @Accept  multipart/form-data
// @Produce json
// @Param   id         path     string true  "Session ID"
// @Param   questionId path     string true  "Question ID"
// @Param   text       formData string false "Response text"
// @Param   audio_file formData file   false "Response audio (wav, mp3, ogg or m4a)"
// @Success 200 {object} map[string]any
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /sessions/{id}/questions/{questionId}/response [post]
func (h *SessionHandler) SubmitResponse(c *fiber.Ctx) error {
	sessionID := c.Params("id")
	questionID := c.Params("questionId")
	text := c.FormValue("text")

	var audio []byte
	if fh, err := c.FormFile("audio_file"); err == nil && fh != nil {
		ext := strings.ToLower(filepath.Ext(fh.Filename))
		if _, ok := audioExtensions[ext]; !ok {
			return presenter.Error(c, http.StatusBadRequest, "invalid audio format")
		}
		file, err := fh.Open()
		if err != nil {
			return presenter.Error(c, http.StatusBadRequest, "failed to open uploaded audio")
		}
		defer file.Close()
		audio, err = readAtMost(file, h.maxBytes)
		if err != nil {
			return presenter.Error(c, http.StatusBadRequest, err.Error())
		}
	}

	record, err := h.svc.SubmitResponse(c.Context(), sessionID, questionID, text, audio)
	if err != nil {
		return sessionError(c, err)
	}
	return presenter.JSON(c, http.StatusOK, fiber.Map{
		"questionId": questionID,
		"text":       record.Text,
		"audioPath":  record.AudioPath,
		"sentiment":  record.Sentiment,
		"timestamp":  record.Timestamp,
	})
}

// GenerateFeedback runs the aggregate analysis over the completed interview.
// @Summary Generate feedback for a completed interview
// @Tags    Sessions
// @Produce json
// @Param   id path string true "Session ID"
// @Success 200 {object} interview.Feedback
// @Failure 400 {object} presenter.ErrorResponse "Interview incomplete"
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /sessions/{id}/feedback [post]
func (h *SessionHandler) GenerateFeedback(c *fiber.Ctx) error {
	fb, err := h.svc.GenerateFeedback(c.Context(), c.Params("id"))
	if err != nil {
		return sessionError(c, err)
	}
	return presenter.JSON(c, http.StatusOK, fb)
}

// Result returns the full interview snapshot.
// @Summary Get the complete interview result
// @Tags    Sessions
// @Produce json
// @Param   id path string true "Session ID"
// @Success 200 {object} interview.Result
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /sessions/{id}/result [get]
func (h *SessionHandler) Result(c *fiber.Ctx) error {
	res, err := h.svc.GetResult(c.Context(), c.Params("id"))
	if err != nil {
		return sessionError(c, err)
	}
	return presenter.JSON(c, http.StatusOK, res)
}

// sessionError maps the domain error taxonomy onto HTTP status codes.
func sessionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, interview.ErrSessionNotFound):
		return presenter.Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, interview.ErrInvalidState),
		errors.Is(err, interview.ErrQuestionMismatch),
		errors.Is(err, interview.ErrIncomplete),
		errors.Is(err, interview.ErrEmptyResponse):
		return presenter.Error(c, http.StatusBadRequest, err.Error())
	default:
		return presenter.Error(c, http.StatusInternalServerError, err.Error())
	}
}

func readAtMost(f multipart.File, max int64) ([]byte, error) {
	limited := io.LimitReader(f, max+1)
	b, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if int64(len(b)) > max {
		return nil, fmt.Errorf("file too large: limit is %d bytes", max)
	}
	return b, nil
}
