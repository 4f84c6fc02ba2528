package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"notepomo/internal/model"
	"notepomo/internal/service"
)

type PomodoroHandler struct {
	pomodoroService *service.PomodoroService
}

type startRequest struct {
	NoteID          string          `json:"noteId" binding:"required"`
	DurationSeconds json.RawMessage `json:"durationSeconds"`
	TargetEndAt     json.RawMessage `json:"targetEndAt"`
}

type sessionRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
}

type pauseRequest struct {
	SessionID        string          `json:"sessionId" binding:"required"`
	RemainingSeconds json.RawMessage `json:"remainingSeconds"`
}

func NewPomodoroHandler(pomodoroService *service.PomodoroService) *PomodoroHandler {
	return &PomodoroHandler{pomodoroService: pomodoroService}
}

func (h *PomodoroHandler) Start(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req startRequest
	if !bindJSON(c, &req) {
		return
	}

	result, apiErr := h.pomodoroService.Start(c.Request.Context(), userID, service.StartInput{
		NoteID: req.NoteID,
		Target: model.TargetRequest{
			Deadline:        optionalInstant(req.TargetEndAt),
			DurationSeconds: optionalInt(req.DurationSeconds),
		},
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	writeOK(c, http.StatusOK, gin.H{
		"sessionId": result.SessionID,
		"serverNow": result.ServerNow,
		"targetAt":  result.TargetAt,
		"seconds":   result.Seconds,
	})
}

func (h *PomodoroHandler) Pause(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req pauseRequest
	if !bindJSON(c, &req) {
		return
	}

	apiErr := h.pomodoroService.Pause(c.Request.Context(), userID, req.SessionID, optionalInt(req.RemainingSeconds))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	writeOK(c, http.StatusOK, nil)
}

func (h *PomodoroHandler) Resume(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req sessionRequest
	if !bindJSON(c, &req) {
		return
	}

	result, apiErr := h.pomodoroService.Resume(c.Request.Context(), userID, req.SessionID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	writeOK(c, http.StatusOK, gin.H{"targetAt": result.TargetAt})
}

func (h *PomodoroHandler) Complete(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req sessionRequest
	if !bindJSON(c, &req) {
		return
	}

	result, apiErr := h.pomodoroService.Complete(c.Request.Context(), userID, req.SessionID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	writeOK(c, http.StatusOK, gin.H{"pomodoros": result.Pomodoros})
}

func (h *PomodoroHandler) Cancel(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req sessionRequest
	if !bindJSON(c, &req) {
		return
	}

	if apiErr := h.pomodoroService.Cancel(c.Request.Context(), userID, req.SessionID); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	writeOK(c, http.StatusOK, nil)
}

func (h *PomodoroHandler) Active(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	sessions, apiErr := h.pomodoroService.ListActive(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	if sessions == nil {
		sessions = []service.ActiveSessionView{}
	}
	writeOK(c, http.StatusOK, gin.H{"sessions": sessions})
}
