package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	apperrors "promogen-go/internal/errors"
	"promogen-go/internal/gateway"
	"promogen-go/internal/provider"
)

type handler struct {
	router *gateway.Router
}

// organizationID reads the caller's organization. Authentication is the
// API gateway's concern upstream of this service; an absent header is a
// request shape error here.
func organizationID(c *gin.Context) (string, bool) {
	org := c.GetHeader("X-Organization-ID")
	if org == "" {
		writeValidationError(c, "X-Organization-ID header is required")
		return "", false
	}
	c.Set("organization_id", org)
	return org, true
}

func (h *handler) generateText(c *gin.Context) {
	org, ok := organizationID(c)
	if !ok {
		return
	}
	var req provider.TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeValidationError(c, "invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeValidationError(c, err.Error())
		return
	}
	res, err := h.router.GenerateText(c.Request.Context(), org, &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handler) generateImage(c *gin.Context) {
	org, ok := organizationID(c)
	if !ok {
		return
	}
	var req provider.ImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeValidationError(c, "invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeValidationError(c, err.Error())
		return
	}
	res, err := h.router.GenerateImage(c.Request.Context(), org, &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handler) generateVideo(c *gin.Context) {
	org, ok := organizationID(c)
	if !ok {
		return
	}
	var req provider.VideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeValidationError(c, "invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeValidationError(c, err.Error())
		return
	}
	res, err := h.router.GenerateVideo(c.Request.Context(), org, &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handler) generateSpeech(c *gin.Context) {
	org, ok := organizationID(c)
	if !ok {
		return
	}
	var req provider.SpeechRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeValidationError(c, "invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeValidationError(c, err.Error())
		return
	}
	res, err := h.router.GenerateSpeech(c.Request.Context(), org, &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handler) streamChat(c *gin.Context) {
	org, ok := organizationID(c)
	if !ok {
		return
	}
	var req provider.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeValidationError(c, "invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeValidationError(c, err.Error())
		return
	}

	stream, err := h.router.StreamChat(c.Request.Context(), org, &req)
	if err != nil {
		writeError(c, err)
		return
	}
	defer stream.Close()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	flusher, _ := c.Writer.(http.Flusher)

	for {
		delta, err := stream.Recv()
		if err == io.EOF {
			_ = sseWriteDone(c.Writer, flusher)
			return
		}
		if err != nil {
			// Headers are long gone; the error has to travel in-band.
			log.WithError(err).Warn("chat stream failed")
			_ = sseWriteData(c.Writer, flusher, gin.H{
				"error": gin.H{
					"message":     err.Error(),
					"interrupted": apperrors.IsStreamInterrupted(err),
				},
			})
			return
		}
		if err := sseWriteData(c.Writer, flusher, gin.H{"delta": delta}); err != nil {
			// Client went away; stop pulling from the provider.
			return
		}
	}
}
