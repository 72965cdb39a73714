package events

import "time"

// Envelope is the canonical event shape exchanged between Shora modules.
// Events are partitioned by place so place-scoped consumers observe a
// stable order per council.
type Envelope struct {
	EventID       string    `json:"event_id"`
	EventType     string    `json:"event_type"`
	SourceService string    `json:"source_service"`
	OccurredAtUTC time.Time `json:"occurred_at_utc"`
	PlaceID       string    `json:"place_id"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	SchemaVersion int       `json:"schema_version"`
	Payload       any       `json:"payload"`
}
