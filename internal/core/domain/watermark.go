package domain

// DefaultWatermark is the epoch floor for this system: indexing of a stream
// with no persisted watermark starts from here.
const DefaultWatermark = "2024-09-04T13:39:30.681834"

// Watermark records the db_write_timestamp of the last processed event for
// one stream. One row per event type, unique on EventType; advanced by the
// scheduler, never deleted.
//
// Timestamps are ISO-8601 strings and are compared lexicographically, which
// matches their chronological order.
type Watermark struct {
	EventType   EventType `json:"event_type"   db:"event_type"`
	DBTimestamp string    `json:"db_timestamp" db:"db_timestamp"`
}
