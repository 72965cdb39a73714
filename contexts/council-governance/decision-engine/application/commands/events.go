package commands

import (
	"context"
	"encoding/json"
	"time"

	"shora/contexts/council-governance/decision-engine/domain/entities"
	"shora/contexts/council-governance/decision-engine/ports"
)

// appendDecisionEvent writes a place-partitioned envelope to the outbox.
// Outbox is optional for pure read/test wiring, so nil is treated as no-op.
func (uc DecisionUseCase) appendDecisionEvent(
	ctx context.Context,
	eventType string,
	decision entities.Decision,
	occurredAt time.Time,
	extra map[string]any,
) error {
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}

	summary := decision.Summarize(occurredAt)
	data := map[string]any{
		"decision_id":  decision.ID,
		"place_id":     decision.PlaceID,
		"shora_id":     decision.ShoraID,
		"status":       string(decision.Status),
		"title":        decision.Title,
		"total_votes":  summary.TotalVotes,
		"yes":          summary.VoteCounts.Yes,
		"no":           summary.VoteCounts.No,
		"abstain":      summary.VoteCounts.Abstain,
		"voting_open":  summary.IsVotingOpen,
		"occurred_at":  occurredAt.Format(time.RFC3339),
	}
	for key, value := range extra {
		data[key] = value
	}

	envelope, err := newDecisionEnvelope(eventID, eventType, decision.PlaceID, decision.ID, occurredAt, data)
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, envelope)
}

func newDecisionEnvelope(
	eventID string,
	eventType string,
	placeID string,
	decisionID string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:       eventID,
		EventType:     eventType,
		OccurredAt:    occurredAt.UTC(),
		SourceService: "decision-engine",
		PlaceID:       placeID,
		EntityID:      decisionID,
		SchemaVersion: 1,
		Data:          payload,
	}, nil
}
