package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/voxhire/backend/internal/models"
	"github.com/voxhire/backend/internal/services"
	"github.com/voxhire/backend/internal/utils"
)

type InterviewHandler struct {
	svc services.InterviewService
	log *logrus.Logger
}

func NewInterviewHandler(svc services.InterviewService, log *logrus.Logger) *InterviewHandler {
	return &InterviewHandler{svc: svc, log: log}
}

type StartRequest struct {
	UserID           string   `json:"userId"`
	InterviewType    string   `json:"interviewType" binding:"required"`
	Field            string   `json:"field"`
	TechStack        []string `json:"techStack"`
	Difficulty       string   `json:"difficulty"`
	QuestionCount    int      `json:"questionCount"`
	TimeLimitMinutes int      `json:"timeLimit"`
	DurationMinutes  int      `json:"duration"`
}

type StartResponse struct {
	SessionID        string                 `json:"sessionId"`
	InitialGreeting  string                 `json:"initialGreeting"`
	InitialAudioData string                 `json:"initialAudioData"`
	Config           models.InterviewConfig `json:"config"`
	Status           string                 `json:"status"`
}

func (h *InterviewHandler) Start(c *gin.Context) {
	var req StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "InterviewHandler.Start", "invalid request body", err))
		return
	}

	userID := req.UserID
	if userID == "" {
		userID = contextUserID(c)
	}

	out, err := h.svc.Start(c.Request.Context(), services.StartParams{
		UserID:           userID,
		InterviewType:    req.InterviewType,
		Field:            req.Field,
		Difficulty:       req.Difficulty,
		QuestionCount:    req.QuestionCount,
		TimeLimitMinutes: req.TimeLimitMinutes,
		TechStack:        req.TechStack,
		DurationMinutes:  req.DurationMinutes,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, StartResponse{
		SessionID:        out.SessionID,
		InitialGreeting:  out.InitialGreeting,
		InitialAudioData: out.InitialAudioData,
		Config:           out.Config,
		Status:           "ready",
	})
}

type VoiceRequest struct {
	AudioData     string `json:"audioData" binding:"required"`
	SessionID     string `json:"sessionId" binding:"required"`
	InterviewType string `json:"interviewType"`
}

type VoiceResponse struct {
	UserTranscript      string        `json:"userTranscript"`
	AIResponse          string        `json:"aiResponse"`
	AudioData           string        `json:"audioData"`
	ConversationHistory []models.Turn `json:"conversationHistory"`
	QuestionNumber      int           `json:"questionNumber"`
	TotalQuestions      int           `json:"totalQuestions"`
	Phase               models.Phase  `json:"phase"`
	ShouldEnd           bool          `json:"shouldEnd"`
	TimeRemaining       int           `json:"timeRemaining"`
}

func (h *InterviewHandler) Voice(c *gin.Context) {
	var req VoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "InterviewHandler.Voice", "invalid request body", err))
		return
	}
	if req.InterviewType == "" {
		req.InterviewType = "technical"
	}

	out, err := h.svc.ProcessVoice(c.Request.Context(), req.SessionID, req.InterviewType, req.AudioData)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, VoiceResponse{
		UserTranscript:      out.UserTranscript,
		AIResponse:          out.AIResponse,
		AudioData:           out.AudioData,
		ConversationHistory: out.History,
		QuestionNumber:      out.QuestionNumber,
		TotalQuestions:      out.TotalQuestions,
		Phase:               out.Phase,
		ShouldEnd:           out.ShouldEnd,
		TimeRemaining:       out.TimeRemaining,
	})
}

// VoiceStream answers a turn as newline-delimited JSON: zero or more
// {"type":"text"} fragments, then exactly one {"type":"final"} event.
func (h *InterviewHandler) VoiceStream(c *gin.Context) {
	var req VoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "InterviewHandler.VoiceStream", "invalid request body", err))
		return
	}
	if req.InterviewType == "" {
		req.InterviewType = "technical"
	}

	c.Header("Content-Type", "application/x-ndjson")
	c.Header("Cache-Control", "no-cache")
	c.Writer.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(c.Writer)
	flusher, _ := c.Writer.(http.Flusher)

	err := h.svc.StreamVoice(c.Request.Context(), req.SessionID, req.InterviewType, req.AudioData, func(event any) error {
		if err := enc.Encode(event); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	})
	if err != nil {
		// headers are already out; nothing to do but log
		h.log.WithError(err).WithField("session_id", req.SessionID).Error("voice stream aborted")
	}
}

type CaptionRequest struct {
	AudioData string `json:"audioData" binding:"required"`
	SessionID string `json:"sessionId"`
}

type CaptionResponse struct {
	Transcript string `json:"transcript"`
}

func (h *InterviewHandler) Caption(c *gin.Context) {
	var req CaptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "InterviewHandler.Caption", "invalid request body", err))
		return
	}

	transcript, err := h.svc.Caption(c.Request.Context(), req.AudioData)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, CaptionResponse{Transcript: transcript})
}

type EvaluateRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
}

func (h *InterviewHandler) Evaluate(c *gin.Context) {
	var req EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "InterviewHandler.Evaluate", "invalid request body", err))
		return
	}

	ev, err := h.svc.Evaluate(c.Request.Context(), req.SessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ev)
}

type EndRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
}

func (h *InterviewHandler) End(c *gin.Context) {
	var req EndRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "InterviewHandler.End", "invalid request body", err))
		return
	}

	if err := h.svc.End(c.Request.Context(), req.SessionID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "completed"})
}

// Record accepts a multipart candidate recording and archives it.
func (h *InterviewHandler) Record(c *gin.Context) {
	const op = "InterviewHandler.Record"

	sessionID := c.PostForm("session_id")
	if sessionID == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil))
		return
	}

	file, err := c.FormFile("video")
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "video file is required", err))
		return
	}

	mimeType := file.Header.Get("Content-Type")
	if len(mimeType) < 6 || mimeType[:6] != "video/" {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid video file", nil))
		return
	}

	src, err := file.Open()
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "failed to read upload", err))
		return
	}
	defer src.Close()

	storedPath, err := h.svc.SaveRecording(c.Request.Context(), sessionID, file.Filename, mimeType, file.Size, src)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Video uploaded",
		"file":    storedPath,
	})
}
