package audit

import (
	"encoding/json"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/mrlokans/librarian/internal/database/audit"
	"github.com/mrlokans/librarian/internal/entities"
)

const (
	EntityAuthor = "author"
	EntityBook   = "book"
)

// Service provides high-level audit logging functionality.
type Service struct {
	repo    *audit.Repository
	pending sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records a generic audit event.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.repo.LogEvent(event); err != nil {
			log.Error().Err(err).Str("action", event.Action).Msg("Failed to log audit event")
		}
	}()
}

// Wait blocks until every LogAsync call has been written.
func (s *Service) Wait() {
	s.pending.Wait()
}

// LogCreate records the creation of an author or book.
func (s *Service) LogCreate(entityType, entityID, name, ipAddr string) {
	s.LogAsync(&entities.AuditEvent{
		EventType:   entities.AuditEventCreate,
		Action:      entityType + "_create",
		Description: "Created " + entityType + ": " + truncate(name, 400),
		EntityType:  entityType,
		EntityID:    entityID,
		IPAddress:   ipAddr,
		Status:      entities.AuditStatusSuccess,
	})
}

// LogUpdate records a change to an author or book.
func (s *Service) LogUpdate(entityType, entityID, name, ipAddr string) {
	s.LogAsync(&entities.AuditEvent{
		EventType:   entities.AuditEventUpdate,
		Action:      entityType + "_update",
		Description: "Updated " + entityType + ": " + truncate(name, 400),
		EntityType:  entityType,
		EntityID:    entityID,
		IPAddress:   ipAddr,
		Status:      entities.AuditStatusSuccess,
	})
}

// LogDelete records a deletion event.
func (s *Service) LogDelete(entityType, entityID, name, ipAddr string) {
	s.LogAsync(&entities.AuditEvent{
		EventType:   entities.AuditEventDelete,
		Action:      entityType + "_delete",
		Description: "Deleted " + entityType + ": " + truncate(name, 400),
		EntityType:  entityType,
		EntityID:    entityID,
		IPAddress:   ipAddr,
		Status:      entities.AuditStatusSuccess,
	})
}

// LogSweep records a run of the orphaned cover sweep.
func (s *Service) LogSweep(scanned, removed int, dryRun bool, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventSweep,
		Action:      "cover_sweep",
		Description: "Swept orphaned cover files",
		Status:      entities.AuditStatusSuccess,
	}

	metadata := map[string]any{
		"scanned": scanned,
		"removed": removed,
		"dry_run": dryRun,
	}
	if mdBytes, e := json.Marshal(metadata); e == nil {
		event.Metadata = string(mdBytes)
	}

	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	s.LogAsync(event)
}

// RecentEvents returns the newest audit events.
func (s *Service) RecentEvents(limit int) ([]entities.AuditEvent, error) {
	events, _, err := s.repo.GetEvents(limit, 0)
	return events, err
}

// History returns the newest events of one author or book.
func (s *Service) History(entityType, entityID string, limit int) ([]entities.AuditEvent, error) {
	return s.repo.GetEventsForEntity(entityType, entityID, limit)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(cutoff)
}

// truncate shortens a string to at most maxLen bytes without splitting a rune.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
