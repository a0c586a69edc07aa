package commands

import (
	"encoding/json"
	"time"

	"crucible/contexts/contest-core/contest-service/ports"
)

func newContestEnvelope(
	eventID string,
	eventType string,
	contestID string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	// Command-side events are partitioned by contest for stable ordering on
	// contest-scoped consumers.
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "contest-service",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "contest_id",
		PartitionKey:     contestID,
		Data:             payload,
	}, nil
}
