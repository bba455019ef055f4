package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"findocbot/internal/config"
	"findocbot/internal/logger"
	"findocbot/models"
	"findocbot/services"

	"github.com/hibiken/asynq"
)

const (
	TaskIngestDocument = "document:ingest"

	// QueueIngestion is the queue upload tasks are placed on.
	QueueIngestion = "critical"
)

// IngestPayload carries the document id chosen at enqueue time so every
// retry writes the same document.
type IngestPayload struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	Content    []byte `json:"content"`
}

// IngestResult is written as the task result once the document is stored.
type IngestResult struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
}

// RedisConnOpt maps REDIS_* settings onto asynq's connection options.
func RedisConnOpt(cfg *config.Config) (asynq.RedisConnOpt, error) {
	opt, err := config.RedisOptions(cfg)
	if err != nil {
		return nil, err
	}
	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Username:  opt.Username,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}

// Task creators
func NewIngestTask(documentID, filename string, content []byte) (*asynq.Task, error) {
	if documentID == "" {
		return nil, errors.New("ingest task needs a document id")
	}
	payload, err := json.Marshal(IngestPayload{
		DocumentID: documentID,
		Filename:   filename,
		Content:    content,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskIngestDocument,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Queue(QueueIngestion),
		asynq.TaskID(documentID),
		asynq.Retention(24*time.Hour),
	), nil
}

// Ingester is the upload use case as seen by the worker.
type Ingester interface {
	ExecuteWithID(ctx context.Context, documentID, filename string, content []byte) (*models.Document, error)
}

// Task handlers
type TaskProcessor struct {
	upload Ingester
}

func NewTaskProcessor(upload Ingester) *TaskProcessor {
	return &TaskProcessor{upload: upload}
}

// ProcessIngest runs the upload pipeline for a queued file. Files that can
// never succeed are not retried.
func (p *TaskProcessor) ProcessIngest(ctx context.Context, t *asynq.Task) error {
	var payload IngestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}
	if payload.DocumentID == "" {
		return fmt.Errorf("payload has no document id: %w", asynq.SkipRetry)
	}

	logger.Info("Processing queued document",
		"document_id", payload.DocumentID,
		"filename", payload.Filename,
		"bytes", len(payload.Content),
	)

	doc, err := p.upload.ExecuteWithID(ctx, payload.DocumentID, payload.Filename, payload.Content)
	if errors.Is(err, services.ErrEmptyDocument) || errors.Is(err, services.ErrInvalidPDF) {
		logger.Warn("Queued document rejected", "filename", payload.Filename, "error", err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if err != nil {
		return err
	}

	if w := t.ResultWriter(); w != nil {
		result, _ := json.Marshal(IngestResult{DocumentID: doc.ID, Filename: doc.Filename})
		if _, err := w.Write(result); err != nil {
			logger.Warn("Failed to write task result", "document_id", doc.ID, "error", err)
		}
	}
	return nil
}

// Register wires every handler into mux.
func (p *TaskProcessor) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskIngestDocument, p.ProcessIngest)
}
