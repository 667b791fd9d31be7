package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/mockview-api/internal/api"
	apiMiddleware "github.com/phrazzld/mockview-api/internal/api/middleware"
)

// restTimeout bounds REST handlers. Synchronous scoring waits for
// transcripts and then calls the model once per question.
const restTimeout = 3 * time.Minute

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	c := app.components

	attemptHandler := api.NewAttemptHandler(app.attemptService, app.logger)
	questionHandler := api.NewQuestionHandler(app.questionService)
	artifactHandler := api.NewArtifactHandler(c.Dispatcher, c.Dispatcher, c.Uploads, app.logger)
	wsHandler := api.NewWSHandler(c.Dispatcher, c.Bridge, nil, app.logger)
	healthHandler := api.NewHealthHandler(map[string]api.Pinger{
		"postgres": api.PingFunc(app.db.PingContext),
		"redis": api.PingFunc(func(ctx context.Context) error {
			return c.Redis.Ping(ctx).Err()
		}),
	}, app.logger)
	app.shutdownHooks = append(app.shutdownHooks, wsHandler.Shutdown)

	return newRouter(app, attemptHandler, questionHandler, artifactHandler, wsHandler, healthHandler)
}

func newRouter(
	app *application,
	attempts *api.AttemptHandler,
	questions *api.QuestionHandler,
	artifacts *api.ArtifactHandler,
	ws *api.WSHandler,
	health *api.HealthHandler,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware(app.logger))

	r.Route("/interview", func(r chi.Router) {
		// WebSocket routes are long-lived and skip the REST timeout.
		r.Get("/ws", ws.ServeJobs)
		r.Get("/ws/pdf-status/{key}", ws.ServeProgress)
		r.Get("/ws/progress/{key}", ws.ServeProgress)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(restTimeout))

			r.Post("/start_attempt", attempts.StartAttempt)
			r.Post("/answer", attempts.SubmitAnswer)
			r.Post("/complete_attempt", attempts.CompleteAttempt)

			r.Post("/manual-questions", questions.ManualQuestions)
			r.Post("/pdf-questions", questions.PDFQuestions)
			r.Get("/questions/{interviewId}", questions.ListQuestions)

			r.Get("/audio", artifacts.GetAudio)
			r.Post("/upload-pdf", artifacts.UploadPDF)
		})
	})

	r.Get("/health", health.Check)

	return r
}
