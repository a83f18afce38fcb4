package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/learnsmart-api/internal/dto"
	"github.com/noah-isme/learnsmart-api/internal/service"
	"github.com/noah-isme/learnsmart-api/pkg/response"
)

type transcriptService interface {
	CreateJob(ctx context.Context, userID int64, req dto.TranscriptExportRequest) (*dto.ExportJobResponse, error)
	GetStatus(ctx context.Context, id string, actor service.Actor) (*dto.ExportStatusResponse, error)
	ResolveDownload(ctx context.Context, token string) (*service.TranscriptDownload, error)
}

// ExportHandler serves asynchronous transcript exports.
type ExportHandler struct {
	service transcriptService
}

func NewExportHandler(svc transcriptService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// RequestTranscript godoc
// @Summary Request a transcript export
// @Description Queues a CSV or PDF transcript of the caller's enrollments
// @Tags Exports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.TranscriptExportRequest true "Export format"
// @Success 202 {object} dto.ExportJobResponse
// @Failure 400 {object} response.Message
// @Failure 503 {object} response.Message
// @Router /exports/transcript [post]
func (h *ExportHandler) RequestTranscript(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.TranscriptExportRequest
	if !bindJSON(c, &req) {
		return
	}
	job, err := h.service.CreateJob(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, job)
}

// Status godoc
// @Summary Export job status
// @Tags Exports
// @Produce json
// @Security BearerAuth
// @Param id path string true "Job ID"
// @Success 200 {object} dto.ExportStatusResponse
// @Failure 403 {object} response.Message
// @Failure 404 {object} response.Message
// @Router /exports/{id} [get]
func (h *ExportHandler) Status(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	status, err := h.service.GetStatus(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, status)
}

// Download godoc
// @Summary Download an export
// @Description Streams the file behind a signed download token
// @Tags Exports
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.Message
// @Failure 404 {object} response.Message
// @Router /exports/download/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	download, err := h.service.ResolveDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close()

	extra := map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", download.Filename),
		"X-Download-Expires":  strconv.FormatInt(download.ExpiresAt.Unix(), 10),
	}
	var size int64 = -1
	if info, err := download.File.Stat(); err == nil {
		size = info.Size()
	}
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, size, download.ContentType, download.File, extra)
}
