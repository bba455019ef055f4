package routes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"findocbot/internal/config"
	"findocbot/internal/logger"
	"findocbot/internal/queue"
	"findocbot/models"
	"findocbot/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
)

const uploadField = "file"

// Uploader runs synchronous ingestion.
type Uploader interface {
	Execute(ctx context.Context, filename string, content []byte) (*models.Document, error)
}

// TaskEnqueuer is satisfied by *asynq.Client.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// TaskInspector is satisfied by *asynq.Inspector.
type TaskInspector interface {
	GetTaskInfo(queue, id string) (*asynq.TaskInfo, error)
}

// SetupDocumentRoutes registers the upload endpoints. The async endpoints
// answer 503 when enqueuer or inspector is nil.
func SetupDocumentRoutes(router *gin.Engine, cfg *config.Config, upload Uploader, enqueuer TaskEnqueuer, inspector TaskInspector) {
	documents := router.Group("/documents")

	documents.POST("/upload", func(c *gin.Context) {
		filename, content, ok := readPDFUpload(c, cfg.MaxFileSize)
		if !ok {
			return
		}

		ctx, cancel := utils.WithLongTimeout(c.Request.Context())
		defer cancel()

		doc, err := upload.Execute(ctx, filename, content)
		if err != nil {
			respondServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.UploadResponse{
			DocumentID: doc.ID,
			Filename:   doc.Filename,
		})
	})

	documents.POST("/upload/async", func(c *gin.Context) {
		if enqueuer == nil {
			utils.RespondWithUnavailable(c, "Async ingestion is disabled")
			return
		}

		filename, content, ok := readPDFUpload(c, cfg.MaxFileSize)
		if !ok {
			return
		}

		documentID := utils.UUIDGenerator{}.NewID()
		task, err := queue.NewIngestTask(documentID, filename, content)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to create task", gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := utils.WithTimeout(c.Request.Context())
		defer cancel()

		info, err := enqueuer.EnqueueContext(ctx, task)
		if err != nil {
			logger.Error("Failed to enqueue document", "filename", filename, "error", err)
			utils.RespondWithError(c, http.StatusServiceUnavailable, "queue_unavailable",
				"Failed to queue document for processing", nil)
			return
		}

		logger.Info("Document queued", "task_id", info.ID, "document_id", documentID, "filename", filename, "queue", info.Queue)
		c.JSON(http.StatusAccepted, models.AsyncUploadResponse{
			TaskID:     info.ID,
			DocumentID: documentID,
			Filename:   filename,
			Queue:      info.Queue,
		})
	})

	documents.GET("/tasks/:id", func(c *gin.Context) {
		if inspector == nil {
			utils.RespondWithUnavailable(c, "Async ingestion is disabled")
			return
		}

		info, err := inspector.GetTaskInfo(queue.QueueIngestion, c.Param("id"))
		if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "task_not_found", "Task not found", nil)
			return
		}
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to read task status", gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, taskStatus(info))
	})
}

func taskStatus(info *asynq.TaskInfo) models.TaskStatusResponse {
	status := models.TaskStatusResponse{
		TaskID:    info.ID,
		State:     info.State.String(),
		Retried:   info.Retried,
		MaxRetry:  info.MaxRetry,
		LastError: info.LastErr,
	}
	if len(info.Result) > 0 {
		var result queue.IngestResult
		if err := json.Unmarshal(info.Result, &result); err == nil {
			status.DocumentID = result.DocumentID
		}
	}
	return status
}

// readPDFUpload reads the multipart file field, writing the error response
// itself when the upload is rejected.
func readPDFUpload(c *gin.Context, maxSize int64) (string, []byte, bool) {
	if err := c.Request.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.RespondWithTooLarge(c, maxSize)
			return "", nil, false
		}
		utils.RespondWithBadRequest(c, "invalid_form", "Expected a multipart form upload", nil)
		return "", nil, false
	}

	file, header, err := c.Request.FormFile(uploadField)
	if err != nil {
		utils.RespondWithBadRequest(c, "no_file", "No PDF file provided", nil)
		return "", nil, false
	}
	defer file.Close()

	ct := header.Header.Get("Content-Type")
	if !strings.Contains(ct, "pdf") && !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		utils.RespondWithBadRequest(c, "invalid_file_type", "Only PDF uploads are supported.", nil)
		return "", nil, false
	}

	if header.Size > maxSize {
		utils.RespondWithTooLarge(c, maxSize)
		return "", nil, false
	}

	content, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		utils.RespondWithBadRequest(c, "invalid_file", "Cannot read uploaded file", nil)
		return "", nil, false
	}
	if int64(len(content)) > maxSize {
		utils.RespondWithTooLarge(c, maxSize)
		return "", nil, false
	}
	if len(content) < 4 || string(content[:4]) != "%PDF" {
		utils.RespondWithBadRequest(c, "invalid_pdf", "File does not appear to be a valid PDF", nil)
		return "", nil, false
	}

	filename := header.Filename
	if filename == "" {
		filename = "uploaded.pdf"
	}
	return filename, content, true
}
