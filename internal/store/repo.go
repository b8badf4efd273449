package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	Purpose string    // exact purpose match (empty = all)
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
}

// LLMRequestEventData captures the data for a single gateway call.
type LLMRequestEventData struct {
	Capability   string // text, image, speech
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEvent is a stored gateway call.
type LLMRequestEvent struct {
	ID        int64
	Timestamp time.Time
	LLMRequestEventData
}

// PurposeUsage aggregates calls for one purpose.
type PurposeUsage struct {
	Purpose      string
	Calls        int
	Failures     int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// ModelUsage aggregates token consumption for one model.
type ModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo provides append and query access to the gateway request log.
type EventRepo interface {
	// AppendLLMRequest records a gateway call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)

	// GetLLMEvent returns one event, or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int64) (*LLMRequestEvent, error)

	LLMUsageByPurpose(ctx context.Context) ([]PurposeUsage, error)
	LLMUsageByModel(ctx context.Context) ([]ModelUsage, error)
}

// FavoriteRecord is a saved practice question. Payload is the caller's
// serialized record; the store only indexes the question text.
type FavoriteRecord struct {
	ID          string
	Question    string
	Payload     []byte
	FavoritedAt time.Time
}

// FavoriteRepo persists favorites.
type FavoriteRepo interface {
	// Insert adds a favorite. A duplicate question returns ErrDuplicate.
	Insert(ctx context.Context, rec FavoriteRecord) error

	// DeleteByQuestion removes the favorite with the exact question text and
	// reports whether one existed.
	DeleteByQuestion(ctx context.Context, question string) (bool, error)

	// Delete removes a favorite by ID and reports whether one existed.
	Delete(ctx context.Context, id string) (bool, error)

	// List returns all favorites newest first.
	List(ctx context.Context) ([]FavoriteRecord, error)
}
