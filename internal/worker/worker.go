// Package worker provides a NATS worker that answers text-split and voice-metadata requests.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/book-expert/events"
	"github.com/book-expert/logger"
	"github.com/book-expert/tts-utils/internal/config"
	"github.com/book-expert/tts-utils/internal/core"
	"github.com/book-expert/tts-utils/internal/text"
	"github.com/book-expert/tts-utils/internal/voice"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const handleMessageTimeout = 30 * time.Second

var (
	// ErrTextEmpty indicates a split request with neither text nor a text key.
	ErrTextEmpty = errors.New("text or text_key is required")
	// ErrTextAmbiguous indicates a split request carrying both text and a text key.
	ErrTextAmbiguous = errors.New("text and text_key are mutually exclusive")
	// ErrVoiceKeyEmpty indicates a metadata request without a voice key.
	ErrVoiceKeyEmpty = errors.New("voice_key cannot be empty")
)

// Subjects names the request subjects the worker listens on.
type Subjects struct {
	Split    string
	Metadata string
	Scan     string
}

// NatsWorker listens for requests on NATS subjects and replies to each one.
type NatsWorker struct {
	natsConnection *nats.Conn
	subjects       Subjects
	voices         core.ObjectStore
	texts          core.ObjectStore
	scanner        *voice.Scanner
	splitter       config.SplitterConfig
	log            *logger.Logger
}

// NewNatsWorker creates a new instance of a NATS worker. voices holds voice
// archives; texts holds prompts referenced by SplitRequest.TextKey.
func NewNatsWorker(
	natsConnection *nats.Conn,
	subjects Subjects,
	voices core.ObjectStore,
	texts core.ObjectStore,
	splitter config.SplitterConfig,
	log *logger.Logger,
) (*NatsWorker, error) {
	err := config.ValidateLengths(splitter.DesiredLength, splitter.MaxLength)
	if err != nil {
		return nil, fmt.Errorf("invalid splitter defaults: %w", err)
	}

	return &NatsWorker{
		natsConnection: natsConnection,
		subjects:       subjects,
		voices:         voices,
		texts:          texts,
		scanner:        voice.NewScanner(log),
		splitter:       splitter,
		log:            log,
	}, nil
}

// Run subscribes to every subject and blocks until ctx is done, then drains.
func (w *NatsWorker) Run(ctx context.Context) error {
	handlers := []struct {
		subject string
		handle  nats.MsgHandler
	}{
		{w.subjects.Split, w.handleSplit},
		{w.subjects.Metadata, w.handleMetadata},
		{w.subjects.Scan, w.handleScan},
	}

	subs := make([]*nats.Subscription, 0, len(handlers))

	for _, handler := range handlers {
		sub, err := w.natsConnection.Subscribe(handler.subject, handler.handle)
		if err != nil {
			_ = drainAll(subs)

			return fmt.Errorf("failed to subscribe to subject %s: %w", handler.subject, err)
		}

		subs = append(subs, sub)
	}

	w.log.Info("Worker listening on %s, %s, %s", w.subjects.Split, w.subjects.Metadata, w.subjects.Scan)

	<-ctx.Done()

	err := drainAll(subs)
	if err != nil {
		return fmt.Errorf("failed to drain subscription: %w", err)
	}

	return nil
}

func drainAll(subs []*nats.Subscription) error {
	var errs []error

	for _, sub := range subs {
		errs = append(errs, sub.Drain())
	}

	return errors.Join(errs...)
}

func (w *NatsWorker) handleSplit(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), handleMessageTimeout)
	defer cancel()

	var req core.SplitRequest

	err := json.Unmarshal(msg.Data, &req)
	if err != nil {
		w.log.Error("Failed to unmarshal split request: %v", err)
		w.respond(msg, core.SplitResponse{Header: replyHeader(events.EventHeader{}), Chunks: nil, Error: err.Error()})

		return
	}

	resp := core.SplitResponse{Header: replyHeader(req.Header), Chunks: nil, Error: ""}

	chunks, err := w.split(ctx, req)
	if err != nil {
		w.log.Error("Failed to split text for workflow %s: %v", req.Header.WorkflowID, err)
		resp.Error = err.Error()
	} else {
		resp.Chunks = chunks
	}

	w.respond(msg, resp)
}

// split resolves the prompt and lengths of a request and chunks it.
func (w *NatsWorker) split(ctx context.Context, req core.SplitRequest) ([]string, error) {
	if req.Text != "" && req.TextKey != "" {
		return nil, ErrTextAmbiguous
	}

	desired := req.DesiredLength
	if desired == 0 {
		desired = w.splitter.DesiredLength
	}

	maxLength := req.MaxLength
	if maxLength == 0 {
		maxLength = max(w.splitter.MaxLength, desired)
	}

	err := config.ValidateLengths(desired, maxLength)
	if err != nil {
		return nil, err
	}

	prompt := req.Text

	if req.TextKey != "" {
		data, err := w.texts.Download(ctx, req.TextKey)
		if err != nil {
			return nil, fmt.Errorf("failed to download text for key '%s': %w", req.TextKey, err)
		}

		prompt = string(data)
	}

	if prompt == "" {
		return nil, ErrTextEmpty
	}

	if req.Preprocess {
		prompt = text.Preprocess(prompt)
	}

	chunks := text.SplitAndRecombine(prompt, desired, maxLength)
	w.log.Info("Split %d characters into %d chunks for workflow %s", len(prompt), len(chunks), req.Header.WorkflowID)

	return chunks, nil
}

func (w *NatsWorker) handleMetadata(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), handleMessageTimeout)
	defer cancel()

	var req core.MetadataRequest

	err := json.Unmarshal(msg.Data, &req)
	if err != nil {
		w.log.Error("Failed to unmarshal metadata request: %v", err)
		w.respond(msg, core.MetadataResponse{Header: replyHeader(events.EventHeader{}), Error: err.Error()})

		return
	}

	resp := core.MetadataResponse{Header: replyHeader(req.Header), VoiceKey: req.VoiceKey}

	meta, err := w.readVoice(ctx, req.VoiceKey)
	if err != nil {
		w.log.Error("Failed to read voice metadata for %s: %v", req.VoiceKey, err)
		resp.Error = err.Error()
	} else {
		resp.Metadata = meta
	}

	w.respond(msg, resp)
}

func (w *NatsWorker) readVoice(ctx context.Context, key string) (voice.Metadata, error) {
	if key == "" {
		return nil, ErrVoiceKeyEmpty
	}

	data, err := w.voices.Download(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to download voice for key '%s': %w", key, err)
	}

	return voice.ReadMetadataBytes(data)
}

func (w *NatsWorker) handleScan(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), handleMessageTimeout)
	defer cancel()

	var req core.ScanRequest

	err := json.Unmarshal(msg.Data, &req)
	if err != nil {
		w.log.Error("Failed to unmarshal scan request: %v", err)
		w.respond(msg, core.ScanResponse{Header: replyHeader(events.EventHeader{}), Voices: nil, Error: err.Error()})

		return
	}

	resp := core.ScanResponse{Header: replyHeader(req.Header), Voices: []core.VoiceMetadata{}, Error: ""}

	entries, err := w.scanner.ScanStore(ctx, w.voices)
	if err != nil {
		w.log.Error("Failed to scan voices for workflow %s: %v", req.Header.WorkflowID, err)
		resp.Error = err.Error()
	}

	for _, entry := range entries {
		resp.Voices = append(resp.Voices, core.VoiceMetadata{VoiceKey: entry.Name, Metadata: entry.Metadata})
	}

	w.respond(msg, resp)
}

// respond marshals and sends a reply to the request message.
func (w *NatsWorker) respond(msg *nats.Msg, reply any) {
	replyData, err := json.Marshal(reply)
	if err != nil {
		w.log.Error("Failed to marshal reply on %s: %v", msg.Subject, err)

		return
	}

	err = msg.Respond(replyData)
	if err != nil {
		w.log.Error("Failed to publish reply on %s: %v", msg.Subject, err)
	}
}

// replyHeader keeps the request's workflow and identity fields and stamps a
// new event.
func replyHeader(req events.EventHeader) events.EventHeader {
	header := req
	header.EventID = uuid.NewString()
	header.Timestamp = time.Now().UTC()

	return header
}
