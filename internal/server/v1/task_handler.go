package v1

import (
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/beacon-gw/beacon/internal/gateway"
	"github.com/beacon-gw/beacon/internal/server/validator"
	"github.com/beacon-gw/beacon/pkg/api"
)

// TaskHandler serves the five task operations. Provider failures never reach
// here as errors; the service degrades them into offline answers.
type TaskHandler struct {
	service gateway.Service
}

func NewTaskHandler(service gateway.Service) *TaskHandler {
	return &TaskHandler{service: service}
}

func (h *TaskHandler) Chat(c *gin.Context) {
	var req api.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationError(validator.ParseValidationError(err)))
		return
	}

	c.JSON(http.StatusOK, h.service.Chat(c.Request.Context(), &req))
}

func (h *TaskHandler) Translate(c *gin.Context) {
	var req api.TranslateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationError(validator.ParseValidationError(err)))
		return
	}

	c.JSON(http.StatusOK, h.service.Translate(c.Request.Context(), &req))
}

func (h *TaskHandler) Summarize(c *gin.Context) {
	var req api.SummarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationError(validator.ParseValidationError(err)))
		return
	}

	c.JSON(http.StatusOK, h.service.Summarize(c.Request.Context(), &req))
}

func (h *TaskHandler) Transcribe(c *gin.Context) {
	var req api.TranscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationError(validator.ParseValidationError(err)))
		return
	}

	audio, err := base64.StdEncoding.DecodeString(req.Audio)
	if err != nil {
		_ = c.Error(api.BadRequestError("audio must be base64 encoded"))
		return
	}

	text, err := h.service.TranscribeAudio(c.Request.Context(), audio, req.Language, req.MimeType)
	if err != nil {
		// transcription is the one operation that surfaces total failure
		c.JSON(http.StatusOK, api.TranscribeResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, api.TranscribeResponse{Text: text})
}

func (h *TaskHandler) AnalyzeImage(c *gin.Context) {
	var req api.AnalyzeImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationError(validator.ParseValidationError(err)))
		return
	}

	image, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		_ = c.Error(api.BadRequestError("image must be base64 encoded"))
		return
	}

	c.JSON(http.StatusOK, h.service.AnalyzeImage(c.Request.Context(), image, req.Prompt, req.MimeType))
}
