// models/chat.go
package models

import "time"

// ChatTurn is one question/answer pair inside a session.
// Turns are append-only; prompt building reads them oldest first.
// Seq is assigned by the store on insert and breaks CreatedAt ties.
type ChatTurn struct {
	ID        string    `bson:"_id" json:"id"`
	SessionID string    `bson:"session_id" json:"session_id"`
	Question  string    `bson:"question" json:"question"`
	Answer    string    `bson:"answer" json:"answer"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	Seq       int64     `bson:"seq" json:"-"`
}

// SearchRequest is the body of POST /search
type SearchRequest struct {
	Query string `json:"query" binding:"required,min=1"`
	TopK  *int   `json:"top_k,omitempty" binding:"omitempty,min=1,max=20"`
}

// AskRequest is the body of POST /ask
type AskRequest struct {
	SessionID string `json:"session_id" binding:"required,min=1"`
	Question  string `json:"question" binding:"required,min=1"`
	TopK      *int   `json:"top_k,omitempty" binding:"omitempty,min=1,max=20"`
}

// ChunkResponse is one ranked source returned to clients
type ChunkResponse struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	ChunkIndex int     `json:"chunk_index"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
	Section    *string `json:"section"`
}

// AskResponse carries the generated answer and the sources used for it
type AskResponse struct {
	Answer  string          `json:"answer"`
	Sources []ChunkResponse `json:"sources"`
}
