package models

import "time"

// Document is the metadata record of one uploaded PDF.
type Document struct {
	ID        string    `bson:"_id" json:"id"`
	Filename  string    `bson:"filename" json:"filename"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// UploadResponse represents the response after a successful upload
type UploadResponse struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
}

// AsyncUploadResponse is returned when ingestion is handed to the worker
type AsyncUploadResponse struct {
	TaskID     string `json:"task_id"`
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	Queue      string `json:"queue"`
}

// TaskStatusResponse reports the progress of an async ingestion
type TaskStatusResponse struct {
	TaskID     string `json:"task_id"`
	State      string `json:"state"`
	Retried    int    `json:"retried"`
	MaxRetry   int    `json:"max_retry"`
	LastError  string `json:"last_error,omitempty"`
	DocumentID string `json:"document_id,omitempty"`
}
