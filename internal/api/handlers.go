package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sitegen_server/internal/ai"
	"sitegen_server/internal/orchestrator"
	"sitegen_server/internal/pipeline"
	"sitegen_server/internal/quality"
	"sitegen_server/internal/sandbox"
	"sitegen_server/internal/store"
	"sitegen_server/internal/types"
	"sitegen_server/internal/utils"
)

// APIHandler holds dependencies for API endpoints.
type APIHandler struct {
	service   *pipeline.Service
	completer orchestrator.Completer
	timeout   time.Duration
}

// NewAPIHandler initializes a new API handler. completer backs /api/complete
// and may be nil; timeout bounds one generation request (0 means none).
func NewAPIHandler(service *pipeline.Service, completer orchestrator.Completer, timeout time.Duration) *APIHandler {
	return &APIHandler{
		service:   service,
		completer: completer,
		timeout:   timeout,
	}
}

// GenerateRequest is the body for POST /project/generate.
type GenerateRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

// RepairRequest is the body for POST /project/repair.
type RepairRequest struct {
	Files   []types.FileRecord `json:"files" binding:"required"`
	Request string             `json:"request"`
}

// ProjectSummary is what the API returns for a project.
type ProjectSummary struct {
	*pipeline.Project
	Files   []string `json:"files"`
	Blocked bool     `json:"blocked"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     string        `json:"error"`
	Type      string        `json:"type"`
	Retryable bool          `json:"retryable"`
	Issues    []types.Issue `json:"issues,omitempty"`
}

func summarize(p *pipeline.Project) ProjectSummary {
	return ProjectSummary{Project: p, Files: p.Tree.Paths(), Blocked: p.Blocked()}
}

func errorBody(err error) (int, ErrorResponse) {
	body := ErrorResponse{Error: err.Error(), Retryable: utils.ShouldRetry(err)}
	var blocked *pipeline.BlockedError
	switch {
	case errors.As(err, &blocked):
		body.Type, body.Issues = "blocked", blocked.Issues
		return http.StatusUnprocessableEntity, body
	case errors.Is(err, store.ErrNotFound):
		body.Type = "not_found"
		return http.StatusNotFound, body
	case errors.Is(err, pipeline.ErrEmptyRequest):
		body.Type = "bad_request"
		return http.StatusBadRequest, body
	case errors.Is(err, sandbox.ErrNoRuntime):
		body.Type = "no_runtime"
		return http.StatusServiceUnavailable, body
	}
	if _, ok := orchestrator.IsStageError(err); ok {
		body.Type = "stage_failed"
		return http.StatusBadGateway, body
	}
	body.Type = "internal"
	return http.StatusInternalServerError, body
}

func respondError(c *gin.Context, err error) {
	status, body := errorBody(err)
	c.JSON(status, body)
}

func (h *APIHandler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), h.timeout)
}

func startStream(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
}

// GenerateSite runs the whole pipeline and streams progress as server-sent
// events, ending with a "complete" or "error" event.
func (h *APIHandler) GenerateSite(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error(), Type: "bad_request"})
		return
	}
	ctx, cancel := h.requestContext(c)
	defer cancel()

	log.Printf("Received generation request (%d chars)", len(req.Prompt))
	startStream(c)
	progress := func(ev types.ProgressEvent) {
		c.SSEvent("progress", ev)
		c.Writer.Flush()
	}

	project, err := h.service.Generate(ctx, req.Prompt, progress)
	if err != nil {
		log.Printf("ERROR: generation failed: %v", err)
		_, body := errorBody(err)
		c.SSEvent("error", body)
		if project == nil {
			c.Writer.Flush()
			return
		}
	}
	c.SSEvent("complete", summarize(project))
	c.Writer.Flush()
	log.Printf("Site generation finished. Project ID: %s", project.ID)
}

// GetProject returns the project summary.
func (h *APIHandler) GetProject(c *gin.Context) {
	project, err := h.service.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summarize(project))
}

// GetProjectFiles returns the project as a nested file tree.
func (h *APIHandler) GetProjectFiles(c *gin.Context) {
	project, err := h.service.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project.Tree.Snapshot())
}

// GetProjectReport returns the quality report.
func (h *APIHandler) GetProjectReport(c *gin.Context) {
	project, err := h.service.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": project.Report, "fixes": project.Fixes})
}

// HandoffProject writes a stored project to the runtime workspace.
func (h *APIHandler) HandoffProject(c *gin.Context) {
	handoff, err := h.service.Handoff(c.Request.Context(), c.Param("id"))
	if err != nil {
		log.Printf("ERROR: hand-off of %s failed: %v", c.Param("id"), err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handoff)
}

// RepairProject repairs and scores posted files without generating anything.
func (h *APIHandler) RepairProject(c *gin.Context) {
	var req RepairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error(), Type: "bad_request"})
		return
	}
	project, err := h.service.Repair(req.Files, req.Request, nil)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Type: "bad_request"})
		return
	}
	status := http.StatusOK
	if project.Blocked() {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{
		"project": summarize(project),
		"tree":    project.Tree.Snapshot(),
		"grade":   quality.Grade(project.Report.Score),
	})
}

// Complete proxies one completion as a `data: {type, content}` event stream.
func (h *APIHandler) Complete(c *gin.Context) {
	if h.completer == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "no completion backend configured", Type: "no_backend"})
		return
	}
	var req ai.CompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error(), Type: "bad_request"})
		return
	}

	startStream(c)
	_, err := h.completer.StreamCompletion(c.Request.Context(), req, func(chunk string) {
		if err := ai.EncodeEvent(c.Writer, ai.Event{Type: ai.EventProgress, Content: chunk}); err != nil {
			log.Printf("WARN: failed to write completion chunk: %v", err)
			return
		}
		c.Writer.Flush()
	})
	final := ai.Event{Type: ai.EventComplete}
	if err != nil {
		log.Printf("ERROR: completion failed: %v", err)
		final = ai.Event{Type: ai.EventError, Content: err.Error()}
	}
	if err := ai.EncodeEvent(c.Writer, final); err != nil {
		log.Printf("WARN: failed to write final completion event: %v", err)
	}
	c.Writer.Flush()
}
