package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/artem13815/interview/api/http/presenter"
	"github.com/artem13815/interview/pkg/speech"
)

// SpeechHandler exposes standalone speech synthesis and transcription.
type SpeechHandler struct {
	synthesizer speech.Synthesizer
	transcriber speech.Transcriber
	maxBytes    int64
}

func NewSpeechHandler(synthesizer speech.Synthesizer, transcriber speech.Transcriber) *SpeechHandler {
	return &SpeechHandler{synthesizer: synthesizer, transcriber: transcriber, maxBytes: 15 << 20}
}

// Generate renders text into spoken audio.
// @Summary Generate speech from text
// @Tags    Speech
// @Produce audio/wav
// @Param   text       query string true  "Text to speak"
// @Param   voice_type query string false "Voice variant: male or female" default(male)
// @Success 200 {file} binary
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 502 {object} presenter.ErrorResponse
// @Router  /speech/generate [post]
func (h *SpeechHandler) Generate(c *fiber.Ctx) error {
	if h.synthesizer == nil {
		return presenter.Error(c, http.StatusServiceUnavailable, "speech synthesis is not configured")
	}
	text := c.Query("text")
	if strings.TrimSpace(text) == "" {
		return presenter.Error(c, http.StatusBadRequest, "text is required")
	}
	voice := speech.VoiceMale
	if strings.EqualFold(c.Query("voice_type"), string(speech.VoiceFemale)) {
		voice = speech.VoiceFemale
	}

	audio, err := h.synthesizer.Synthesize(c.Context(), text, voice)
	if err != nil {
		return presenter.Error(c, http.StatusBadGateway, err.Error())
	}
	c.Set(fiber.HeaderContentType, "audio/wav")
	return c.Send(audio)
}

// Transcribe converts uploaded audio to text.
// @Summary Transcribe an audio file
// @Tags    Speech
// @Accept  multipart/form-data
// @Produce json
// @Param   file formData file true "Audio file (wav, mp3, ogg or m4a)"
// @Success 200 {object} map[string]string "transcription"
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 502 {object} presenter.ErrorResponse
// @Router  /speech/transcribe [post]
func (h *SpeechHandler) Transcribe(c *fiber.Ctx) error {
	if h.transcriber == nil {
		return presenter.Error(c, http.StatusServiceUnavailable, "transcription is not configured")
	}
	fh, err := c.FormFile("file")
	if err != nil || fh == nil {
		return presenter.Error(c, http.StatusBadRequest, "file is required")
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if _, ok := audioExtensions[ext]; !ok {
		return presenter.Error(c, http.StatusBadRequest, "invalid audio format")
	}
	file, err := fh.Open()
	if err != nil {
		return presenter.Error(c, http.StatusBadRequest, "failed to open uploaded audio")
	}
	defer file.Close()
	data, err := readAtMost(file, h.maxBytes)
	if err != nil {
		return presenter.Error(c, http.StatusBadRequest, err.Error())
	}

	text, err := h.transcriber.Transcribe(c.Context(), data)
	if err != nil {
		return presenter.Error(c, http.StatusBadGateway, err.Error())
	}
	return presenter.JSON(c, http.StatusOK, fiber.Map{"transcription": text})
}
