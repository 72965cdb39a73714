package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"shora/contexts/council-governance/decision-engine/domain/entities"
	domainerrors "shora/contexts/council-governance/decision-engine/domain/errors"
	"shora/contexts/council-governance/decision-engine/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

// Store is the in-memory adapter backing tests and single-process wiring.
// It implements every decision-engine port behind one RWMutex; AddVote's
// check-and-insert therefore runs atomically.
type Store struct {
	mu sync.RWMutex

	decisions map[string]entities.Decision
	outbox    map[string]outboxRecord
	rosters   map[string][]ports.RosterEntry

	nowOverride *time.Time
}

func NewStore(seed []entities.Decision) *Store {
	decisions := make(map[string]entities.Decision, len(seed))
	for _, decision := range seed {
		decisions[decision.ID] = cloneDecision(decision)
	}
	return &Store{
		decisions: decisions,
		outbox:    make(map[string]outboxRecord),
		rosters:   make(map[string][]ports.RosterEntry),
	}
}

// SetRoster seeds the shora's seats for permission and quorum checks.
func (s *Store) SetRoster(shoraID string, entries []ports.RosterEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rosters[strings.TrimSpace(shoraID)] = append([]ports.RosterEntry(nil), entries...)
}

// SetNow pins the clock for deadline-sensitive tests.
func (s *Store) SetNow(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	utc := now.UTC()
	s.nowOverride = &utc
}

func (s *Store) SaveDecision(_ context.Context, decision entities.Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := strings.TrimSpace(decision.ID)
	stored := cloneDecision(decision)
	if existing, ok := s.decisions[id]; ok {
		// Votes are owned by AddVote; a metadata save never drops ballots
		// recorded since the caller's snapshot was taken.
		if len(stored.Votes) < len(existing.Votes) {
			stored.Votes = existing.Votes
		}
	}
	s.decisions[id] = stored
	return nil
}

func (s *Store) GetDecision(_ context.Context, decisionID string) (entities.Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	decision, ok := s.decisions[strings.TrimSpace(decisionID)]
	if !ok {
		return entities.Decision{}, domainerrors.ErrDecisionNotFound
	}
	return cloneDecision(decision), nil
}

func (s *Store) AddVote(_ context.Context, decisionID string, vote entities.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	decision, ok := s.decisions[strings.TrimSpace(decisionID)]
	if !ok {
		return domainerrors.ErrDecisionNotFound
	}
	for _, existing := range decision.Votes {
		if existing.UserID == vote.UserID {
			return domainerrors.ErrAlreadyVoted
		}
	}
	decision.Votes = append(decision.Votes, vote)
	s.decisions[decision.ID] = decision
	return nil
}

func (s *Store) ListDecisions(_ context.Context, filter ports.DecisionFilter) ([]entities.Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Decision, 0)
	for _, decision := range s.decisions {
		if filter.PlaceID != "" && decision.PlaceID != strings.TrimSpace(filter.PlaceID) {
			continue
		}
		if filter.ShoraID != "" && decision.ShoraID != strings.TrimSpace(filter.ShoraID) {
			continue
		}
		if filter.Status != "" && decision.Status != filter.Status {
			continue
		}
		items = append(items, cloneDecision(decision))
	}
	sortDecisionsNewestFirst(items)
	return items, nil
}

func (s *Store) ListActiveDecisions(_ context.Context) ([]entities.Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Decision, 0)
	for _, decision := range s.decisions {
		if decision.Status == entities.DecisionStatusDraft || decision.Status == entities.DecisionStatusProposed {
			items = append(items, cloneDecision(decision))
		}
	}
	sortDecisionsNewestFirst(items)
	return items, nil
}

func (s *Store) RosterEntry(_ context.Context, shoraID string, userID string) (ports.RosterEntry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, entry := range s.rosters[strings.TrimSpace(shoraID)] {
		if entry.UserID == strings.TrimSpace(userID) {
			return entry, true, nil
		}
	}
	return ports.RosterEntry{}, false, nil
}

func (s *Store) VotingMemberCount(_ context.Context, shoraID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, entry := range s.rosters[strings.TrimSpace(shoraID)] {
		if entry.HasPermission("vote") {
			count++
		}
	}
	return count, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outbox[envelope.EventID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:  envelope.EventID,
			EventType: envelope.EventType,
			Payload:   payload,
			Status:    "pending",
			CreatedAt: envelope.OccurredAt,
		},
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]ports.OutboxMessage, 0)
	for _, record := range s.outbox {
		if record.published {
			continue
		}
		items = append(items, record.message)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].OutboxID < items[j].OutboxID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrDecisionNotFound
	}
	record.published = true
	record.message.Status = "published"
	record.message.PublishedAt = &publishedAt
	s.outbox[outboxID] = record
	return nil
}

// PendingOutboxCount is a test helper.
func (s *Store) PendingOutboxCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, record := range s.outbox {
		if !record.published {
			count++
		}
	}
	return count
}

func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.nowOverride != nil {
		return *s.nowOverride
	}
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func cloneDecision(decision entities.Decision) entities.Decision {
	clone := decision
	clone.Votes = append([]entities.Vote(nil), decision.Votes...)
	return clone
}

func sortDecisionsNewestFirst(items []entities.Decision) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID > items[j].ID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}
