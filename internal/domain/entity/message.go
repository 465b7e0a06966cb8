package entity

import (
	"encoding/json"

	"github.com/google/uuid"
)

// RenderRequestMessage is the inbound message from the wiggle.render queue.
// FocalPoints is kept raw so it is validated by the renderer, not by
// encoding/json.
type RenderRequestMessage struct {
	JobID                 uuid.UUID       `json:"job_id"`
	UserID                string          `json:"user_id"`
	SourceKey             string          `json:"source_key"`
	FocalPoints           json.RawMessage `json:"focal_points"`
	VideoLength           *float64        `json:"video_length,omitempty"`
	FrameSpeed            *float64        `json:"frame_speed,omitempty"`
	Mode                  string          `json:"mode,omitempty"`
	UseSecondAsBackground bool            `json:"use_second_as_background"`
	IncludeSections       bool            `json:"include_sections"`
	UserEmail             string          `json:"user_email"`
}

// RenderStatusMessage is the outbound message published to the wiggle.status queue.
type RenderStatusMessage struct {
	JobID        uuid.UUID `json:"job_id"`
	UserID       string    `json:"user_id"`
	Status       JobStatus `json:"status"`
	SourceKey    string    `json:"source_key"`
	VideoKey     string    `json:"video_key,omitempty"`
	SectionsKey  string    `json:"sections_key,omitempty"`
	FrameCount   int       `json:"frame_count,omitempty"`
	FPS          float64   `json:"fps,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Attempt      int       `json:"attempt"`
	MaxAttempts  int       `json:"max_attempts"`
}
