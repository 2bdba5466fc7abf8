package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeChunksIndexed is emitted after a batch of chunks is upserted.
	EventTypeChunksIndexed = "medibot.chunks.indexed"
)

// ChunksIndexedEvent is a transport-neutral event payload for an upserted
// batch of chunks.
type ChunksIndexedEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`
	Index         IndexMeta `json:"index"`
	Batch         BatchMeta `json:"batch"`
}

// IndexMeta identifies the index the batch was written to.
type IndexMeta struct {
	Provider   string `json:"provider"`
	Name       string `json:"name"`
	Dimensions int    `json:"dimensions"`
}

// BatchMeta describes the written batch.
type BatchMeta struct {
	Sources    []string `json:"sources"`
	ChunkCount int      `json:"chunk_count"`
	EntryIDs   []string `json:"entry_ids"`
	DurationMs int64    `json:"duration_ms"`
}

// NewChunksIndexedEvent stamps a v1 event with a fresh ID and emit time.
func NewChunksIndexedEvent(index IndexMeta, batch BatchMeta) *ChunksIndexedEvent {
	return &ChunksIndexedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeChunksIndexed,
		EventID:       "evt_" + uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Index:         index,
		Batch:         batch,
	}
}
