package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/voxhire/backend/internal/api/handlers"
	"github.com/voxhire/backend/internal/api/middleware"
)

type Deps struct {
	Interview *handlers.InterviewHandler
	CaptionWS *handlers.CaptionWSHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.Use(middleware.OptionalIdentity())

	api.POST("/interview/start", d.Interview.Start)
	api.POST("/interview/voice", d.Interview.Voice)
	api.POST("/interview/voice_stream", d.Interview.VoiceStream)
	api.POST("/interview/caption", d.Interview.Caption)
	api.POST("/interview/evaluate", d.Interview.Evaluate)
	api.POST("/interview/end", d.Interview.End)
	api.POST("/interview/record", d.Interview.Record)

	// WebSocket live captions
	r.GET("/ws/interview/:session_id/captions", d.CaptionWS.Captions)
}
