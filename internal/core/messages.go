package core

import (
	"github.com/book-expert/events"
)

// SplitRequest asks for a prompt to be split into synthesis-sized chunks. The
// prompt is taken from Text, or downloaded from the text bucket when TextKey
// is set. Zero lengths select the service defaults. Preprocess expands
// abbreviations and numbers before splitting.
type SplitRequest struct {
	Header        events.EventHeader `json:"header"`
	Text          string             `json:"text,omitempty"`
	TextKey       string             `json:"text_key,omitempty"`
	DesiredLength int                `json:"desired_length,omitempty"`
	MaxLength     int                `json:"max_length,omitempty"`
	Preprocess    bool               `json:"preprocess,omitempty"`
}

// SplitResponse carries the ordered chunks, or Error when the request was rejected.
type SplitResponse struct {
	Header events.EventHeader `json:"header"`
	Chunks []string           `json:"chunks"`
	Error  string             `json:"error,omitempty"`
}

// MetadataRequest asks for the embedded metadata of one voice file in the voice bucket.
type MetadataRequest struct {
	Header   events.EventHeader `json:"header"`
	VoiceKey string             `json:"voice_key"`
}

// MetadataResponse returns the decoded metadata of one voice file.
type MetadataResponse struct {
	Header   events.EventHeader `json:"header"`
	VoiceKey string             `json:"voice_key"`
	Metadata map[string]any     `json:"metadata,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// ScanRequest asks for the metadata of every voice file in the voice bucket.
type ScanRequest struct {
	Header events.EventHeader `json:"header"`
}

// VoiceMetadata pairs a voice key with its metadata.
type VoiceMetadata struct {
	VoiceKey string         `json:"voice_key"`
	Metadata map[string]any `json:"metadata"`
}

// ScanResponse lists the readable voices. Unreadable files are skipped.
type ScanResponse struct {
	Header events.EventHeader `json:"header"`
	Voices []VoiceMetadata    `json:"voices"`
	Error  string             `json:"error,omitempty"`
}
