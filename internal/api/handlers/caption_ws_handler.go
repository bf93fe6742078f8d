package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/voxhire/backend/internal/services"
	"github.com/voxhire/backend/internal/utils"
)

// CaptionWSHandler streams live captions: the client pushes audio chunks
// and gets each transcript back on the same socket. Captions never drive
// the interview state machine.
type CaptionWSHandler struct {
	svc      services.InterviewService
	log      *logrus.Logger
	upgrader websocket.Upgrader
}

func NewCaptionWSHandler(svc services.InterviewService, log *logrus.Logger) *CaptionWSHandler {
	return &CaptionWSHandler{
		svc: svc,
		log: log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin in prod
		},
	}
}

type captionClientMsg struct {
	Type        string `json:"type"` // audio_chunk | end
	AudioBase64 string `json:"audio_base64"`
}

type captionServerMsg struct {
	Type       string `json:"type"` // caption | error
	Transcript string `json:"transcript,omitempty"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message,omitempty"`
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return w.c.WriteMessage(websocket.TextMessage, b)
}

func (h *CaptionWSHandler) Captions(c *gin.Context) {
	sessionID := c.Param("session_id")
	if sessionID == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, "CaptionWSHandler.Captions", "missing session_id", nil))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote the response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx := c.Request.Context()

	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, data, rerr := conn.ReadMessage()
		if rerr != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		var msg captionClientMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = wc.writeJSON(captionServerMsg{Type: "error", Code: "INVALID_ARGUMENT", Message: "invalid json"})
			continue
		}

		switch msg.Type {
		case "audio_chunk":
			if msg.AudioBase64 == "" {
				_ = wc.writeJSON(captionServerMsg{Type: "error", Code: "INVALID_ARGUMENT", Message: "audio_base64 required"})
				continue
			}

			transcript, err := h.svc.Caption(ctx, msg.AudioBase64)
			if err != nil {
				h.log.WithError(err).WithField("session_id", sessionID).Warn("ws caption failed")
				transcript = ""
			}
			if werr := wc.writeJSON(captionServerMsg{Type: "caption", Transcript: transcript}); werr != nil {
				return
			}

		case "end":
			return

		default:
			_ = wc.writeJSON(captionServerMsg{Type: "error", Code: "INVALID_ARGUMENT", Message: "unknown message type"})
		}
	}
}
