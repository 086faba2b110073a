package app

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/markdave123-py/ExamPrep/internal/api/handlers"
	appMiddleware "github.com/markdave123-py/ExamPrep/internal/api/middlewares"
	"github.com/markdave123-py/ExamPrep/internal/config"
	"github.com/markdave123-py/ExamPrep/internal/core"
	"github.com/markdave123-py/ExamPrep/internal/core/analysis_engine"
	"github.com/markdave123-py/ExamPrep/internal/services"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, db core.DbClient, obj core.ObjectClient, analyzer analysis_engine.Analyzer, guides *services.GuideService, practice *services.PracticeService) *Server {
	authHandler := handlers.NewAuthHandler(db)
	examHandler := handlers.NewExamHandler(db, obj, analyzer, cfg)
	guideHandler := handlers.NewGuideHandler(guides)
	practiceHandler := handlers.NewPracticeHandler(practice)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8888"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(api chi.Router) {
		// public endpoints
		api.Post("/signup", authHandler.Signup)
		api.Post("/login", authHandler.Login)

		// protected endpoints
		api.Group(func(protected chi.Router) {
			protected.Use(appMiddleware.JWTMiddleware)

			protected.Post("/exams/upload", examHandler.UploadExam)
			protected.Get("/exams", examHandler.GetExams)
			protected.Get("/exams/{id}", examHandler.GetExam)
			protected.Get("/exams/{id}/plan", examHandler.GetPlan)

			protected.Post("/guides", guideHandler.BuildGuide)
			protected.Get("/guides/{topic}", guideHandler.GetGuide)

			protected.Post("/practice", practiceHandler.StartSession)
			protected.Get("/practice/{id}", practiceHandler.GetSession)
			protected.Post("/practice/{id}/answer", practiceHandler.Answer)
		})
	})

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	return &Server{httpServer: httpSrv}
}

// Start runs the HTTP server.
func (s *Server) Start() {
	log.Printf("HTTP server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down HTTP server...")
	return s.httpServer.Shutdown(ctx)
}
