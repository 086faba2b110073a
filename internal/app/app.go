package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/markdave123-py/ExamPrep/internal/config"
	"github.com/markdave123-py/ExamPrep/internal/core"
	"github.com/markdave123-py/ExamPrep/internal/core/analysis_engine"
	db "github.com/markdave123-py/ExamPrep/internal/core/database"
	"github.com/markdave123-py/ExamPrep/internal/core/extractor"
	"github.com/markdave123-py/ExamPrep/internal/core/llm"
	objectclient "github.com/markdave123-py/ExamPrep/internal/core/object-client"
	"github.com/markdave123-py/ExamPrep/internal/services"
)

type App struct {
	DBClient core.DbClient
	LLM      *llm.GeminiLLM
	Analyzer analysis_engine.Analyzer
	Server   *Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	initCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(initCtx, cfg)
	if err != nil {
		return nil, err
	}
	log.Println("Database initialized and ready.")

	objClient, err := objectclient.NewS3Client(initCtx, cfg)
	if err != nil {
		return nil, err
	}
	log.Println("Object client initialized and ready.")

	llmProvider, err := llm.NewGeminiLLM(initCtx, cfg.AIAPIKey, cfg.GenModel)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the llm provider: %w", err)
	}

	textExtractor := extractor.NewDocconvExtractor()

	analyzer := analysis_engine.NewExamAnalyzer(dbClient, textExtractor, llmProvider, &analysis_engine.AnalyzeConfig{
		MaxPromptChars: cfg.MaxPromptChars,
	})
	analyzer.Start(ctx, cfg.AnalyzeWorkers)

	guides := services.NewGuideService(dbClient, llmProvider)
	practice := services.NewPracticeService(dbClient, llmProvider)

	server := NewServer(cfg, dbClient, objClient, analyzer, guides, practice)

	return &App{DBClient: dbClient, LLM: llmProvider, Analyzer: analyzer, Server: server}, nil
}

func (a *App) Close() {
	if a.LLM != nil {
		_ = a.LLM.Close()
	}
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
