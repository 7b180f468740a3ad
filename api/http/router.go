package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/artem13815/interview/api/http/handlers"
)

// Register wires all HTTP routes onto given Fiber app.
func Register(app *fiber.App, session *handlers.SessionHandler, speech *handlers.SpeechHandler, health *handlers.HealthHandler) {
	api := app.Group("/api")
	v1 := api.Group("/v1")

	// Health and readiness endpoints for probes/monitoring
	v1.Get("/health", health.Health)
	v1.Get("/ready", health.Ready)

	s := v1.Group("/sessions")
	s.Post("/", session.Create)
	s.Get("/:id", session.Status)
	s.Post("/:id/cv", session.UploadCV)
	s.Get("/:id/questions/next", session.NextQuestion)
	s.Post("/:id/questions/:questionId/response", session.SubmitResponse)
	s.Post("/:id/feedback", session.GenerateFeedback)
	s.Get("/:id/result", session.Result)

	sp := v1.Group("/speech")
	sp.Post("/generate", speech.Generate)
	sp.Post("/transcribe", speech.Transcribe)
}
