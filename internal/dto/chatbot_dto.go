package dto

import (
	"github.com/google/uuid"
)

type SendMessageRequest struct {
	Message   string `json:"message" validate:"required"`
	SessionId string `json:"session_id" validate:"omitempty,uuid"`
}

type AnonymousMessageRequest struct {
	Message string `json:"message" validate:"required"`
}

type SendMessageResponse struct {
	Response  string     `json:"response"`
	SessionId *uuid.UUID `json:"session_id,omitempty"`
}

// HistoryEntry is one turn of the active conversation, typed "human" or "ai".
type HistoryEntry struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type ChatHistoryResponse struct {
	SessionId *uuid.UUID     `json:"session_id,omitempty"`
	History   []HistoryEntry `json:"history"`
}

type WelcomeResponse struct {
	Message string `json:"message"`
}

type HealthResponse struct {
	Status   string   `json:"status"`
	Service  string   `json:"service"`
	Version  string   `json:"version"`
	Features []string `json:"features"`
}
