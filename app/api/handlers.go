package api

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/viewlens/viewlens/app/cfg"
	"github.com/viewlens/viewlens/app/database"
	"github.com/viewlens/viewlens/app/fetch"
	"github.com/viewlens/viewlens/app/ingest"
)

const maxUploadBytes = 10 << 20

func NewHandler(resultRepo database.ResultRepository, processor *ingest.Processor) *Handler {
	return &Handler{
		resultRepo: resultRepo,
		processor:  processor,
	}
}

// HandleFetch ingests an uploaded spreadsheet and returns the batch summary.
// Row failures are reported in the response, not as an HTTP error.
func (h *Handler) HandleFetch(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Missing file upload"})
		return
	}
	if fileHeader.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"status": "error", "error": "File too large"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Failed to open upload"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Failed to read upload"})
		return
	}

	creds := fetch.Credentials{
		YouTubeAPIKey:      c.PostForm("youtube_api_key"),
		InstagramSessionID: c.PostForm("session_id"),
	}

	summary, err := h.processor.Run(c.Request.Context(), data, fileHeader.Filename, creds)
	if err != nil {
		slog.Error("Batch processing failed", "file", fileHeader.Filename, "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, FetchResponse{
		Status: "success",
		Saved:  summary.Saved,
		Errors: summary.Errors,
		Items:  serializeResults(summary.Items),
	})
}

func (h *Handler) GetResults(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "200"))
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Invalid limit parameter"})
		return
	}

	platform := c.Query("platform")

	results, err := h.resultRepo.GetResults(limit, platform)
	if err != nil {
		slog.Error("Database error", "operation", "get_results", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, ResultsResponse{
		Status: "success",
		Total:  len(results),
		Items:  serializeResults(results),
	})
}

func (h *Handler) UpdateNote(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Invalid result id"})
		return
	}

	note, ok := noteFromRequest(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Invalid request body"})
		return
	}

	updated, err := h.resultRepo.UpdateNote(id, note)
	if err != nil {
		slog.Error("Database error", "operation", "update_note", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Database error"})
		return
	}
	if updated == nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "Result not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "item": serializeResult(*updated)})
}

// noteFromRequest accepts the note either as a JSON body or as a form field.
func noteFromRequest(c *gin.Context) (string, bool) {
	if c.ContentType() == "application/json" {
		var body struct {
			Note string `json:"note"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			return "", false
		}
		return body.Note, true
	}
	return c.PostForm("note"), true
}

func (h *Handler) RefreshResult(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Invalid result id"})
		return
	}

	result, err := h.resultRepo.GetResultByID(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_result", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Database error"})
		return
	}
	if result == nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "Result not found"})
		return
	}

	updated, err := h.processor.Refresh(c.Request.Context(), *result)
	if err != nil {
		slog.Error("Refresh failed", "id", id, "url", result.URL, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"status": "error", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "item": serializeResult(*updated)})
}

func (h *Handler) ExportCSV(c *gin.Context) {
	results, err := h.resultRepo.GetAllResults()
	if err != nil {
		slog.Error("Database error", "operation", "get_all_results", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Database error"})
		return
	}

	data, err := NewCSVExporter().Run(results)
	if err != nil {
		slog.Error("CSV export failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Export failed"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="results.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"status":    "ok",
		"version":   cfg.GetVersion(),
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if count, err := h.resultRepo.GetResultCount(); err == nil {
		health["results"] = count
	}

	c.JSON(http.StatusOK, health)
}
