package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"notepomo/internal/repository"
	"notepomo/internal/service"
)

const dayLayout = "2006-01-02"

type NoteHandler struct {
	noteService *service.NoteService
}

type createNoteRequest struct {
	Data            string          `json:"data" binding:"required"`
	PomodoroMinutes json.RawMessage `json:"pomodoroMinutes"`
	FinishBy        json.RawMessage `json:"finishBy"`
}

type updateNoteRequest struct {
	Data            json.RawMessage `json:"data"`
	PomodoroSeconds json.RawMessage `json:"pomodoroSeconds"`
}

type noteStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func NewNoteHandler(noteService *service.NoteService) *NoteHandler {
	return &NoteHandler{noteService: noteService}
}

func (h *NoteHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req createNoteRequest
	if !bindJSON(c, &req) {
		return
	}

	note, apiErr := h.noteService.Create(c.Request.Context(), userID, service.CreateNoteInput{
		Data:            req.Data,
		PomodoroMinutes: optionalInt(req.PomodoroMinutes),
		FinishBy:        optionalInstant(req.FinishBy),
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	writeOK(c, http.StatusCreated, gin.H{"note": note})
}

// List accepts ?status=&from=YYYY-MM-DD&to=YYYY-MM-DD. The to day is
// inclusive; malformed dates are ignored.
func (h *NoteHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	filter := repository.NoteFilter{Status: c.Query("status")}
	if from, err := time.Parse(dayLayout, c.Query("from")); err == nil {
		filter.From = &from
	}
	if to, err := time.Parse(dayLayout, c.Query("to")); err == nil {
		end := to.AddDate(0, 0, 1)
		filter.To = &end
	}

	notes, apiErr := h.noteService.List(c.Request.Context(), userID, filter)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	writeOK(c, http.StatusOK, gin.H{"notes": notes})
}

func (h *NoteHandler) Update(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req updateNoteRequest
	if !bindJSON(c, &req) {
		return
	}

	note, apiErr := h.noteService.Update(c.Request.Context(), userID, c.Param("id"), service.UpdateNoteInput{
		Data:            optionalString(req.Data),
		PomodoroSeconds: optionalInt(req.PomodoroSeconds),
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	writeOK(c, http.StatusOK, gin.H{"note": note})
}

func (h *NoteHandler) UpdateStatus(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req noteStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	note, apiErr := h.noteService.UpdateStatus(c.Request.Context(), userID, c.Param("id"), req.Status)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	writeOK(c, http.StatusOK, gin.H{"note": note})
}

func (h *NoteHandler) Delete(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	result, apiErr := h.noteService.Delete(c.Request.Context(), userID, c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	writeOK(c, http.StatusOK, gin.H{"canceledSessions": result.CanceledSessions})
}
