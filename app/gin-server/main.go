package main

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/voxhire/backend/config"
	"github.com/voxhire/backend/internal/api/handlers"
	"github.com/voxhire/backend/internal/api/middleware"
	"github.com/voxhire/backend/internal/api/routes"
	"github.com/voxhire/backend/internal/logger"
	"github.com/voxhire/backend/internal/providers/llm"
	"github.com/voxhire/backend/internal/providers/stt"
	"github.com/voxhire/backend/internal/providers/tts"
	pgrepo "github.com/voxhire/backend/internal/repositories/postgres"
	"github.com/voxhire/backend/internal/services"
	"github.com/voxhire/backend/internal/session"
	"github.com/voxhire/backend/internal/storage"
)

func main() {
	_ = godotenv.Load()

	log := logger.New()
	ctx := context.Background()

	// Durable store (optional: absent means demo mode, no persistence)
	db, err := config.InitPostgres()
	if err != nil {
		log.WithError(err).Fatal("postgres init failed")
	}
	if db != nil {
		log.Info("postgres connected")
	} else {
		log.Info("postgres not configured, running without persistence")
	}
	store := pgrepo.NewInterviewRepo(db)

	// Session repository: Redis when configured, process memory otherwise
	rdb, err := config.InitRedis()
	if err != nil {
		log.WithError(err).Fatal("redis init failed")
	}
	var sessions session.Repository
	if rdb != nil {
		log.Info("redis connected, using shared session store")
		sessions = session.NewRedisRepository(rdb, config.SessionIdleTTL())
	} else {
		mem := session.NewMemoryRepository(config.SessionIdleTTL())
		mem.StartJanitor(ctx, 0, log)
		sessions = mem
	}

	sttProvider, err := stt.NewGoogleSpeech(ctx)
	if err != nil {
		log.WithError(err).Fatal("speech-to-text init failed")
	}
	defer sttProvider.Close()

	ttsProvider, err := tts.NewGoogleTTS(ctx)
	if err != nil {
		log.WithError(err).Fatal("text-to-speech init failed")
	}
	defer ttsProvider.Close()

	llmProvider, err := llm.NewVertexGemini(ctx,
		os.Getenv("VERTEX_PROJECT_ID"),
		os.Getenv("VERTEX_LOCATION"),
		os.Getenv("VERTEX_MODEL"),
	)
	if err != nil {
		log.WithError(err).Fatal("generation init failed")
	}
	defer llmProvider.Close()

	// Recording archive (optional)
	var uploader storage.Uploader
	if bucket := os.Getenv("RECORDINGS_BUCKET"); bucket != "" {
		gcs, err := storage.NewGCSUploader(ctx, bucket)
		if err != nil {
			log.WithError(err).Fatal("recordings storage init failed")
		}
		defer gcs.Close()
		uploader = gcs
	}

	svc := services.NewInterviewService(sessions, store, sttProvider, ttsProvider, llmProvider, uploader, log)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))

	routes.RegisterRoutes(r, routes.Deps{
		Interview: handlers.NewInterviewHandler(svc, log),
		CaptionWS: handlers.NewCaptionWSHandler(svc, log),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
