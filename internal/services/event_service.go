package services

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/filevault-be/internal/models"
	"github.com/rs/zerolog/log"
)

// EventServiceProvider defines the interface for event services.
type EventServiceProvider interface {
	CreateEvent(eventType, level, message string, username *string) error
	GetRecentEvents(username string, limit int) ([]models.Event, error)
}

// EventService records user activity in the database.
type EventService struct {
	db *sql.DB
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB) *EventService {
	return &EventService{db: db}
}

// CreateEvent logs a new event to the database.
func (s *EventService) CreateEvent(eventType, level, message string, username *string) error {
	event := models.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Level:     level,
		Message:   message,
		Username:  username,
		CreatedAt: time.Now().UTC(),
	}

	stmt, err := s.db.Prepare("INSERT INTO events (id, type, level, message, username, created_at) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	_, err = stmt.Exec(event.ID, event.Type, event.Level, event.Message, event.Username, event.CreatedAt)
	return err
}

// GetRecentEvents retrieves the most recent events for a user, newest first.
func (s *EventService) GetRecentEvents(username string, limit int) ([]models.Event, error) {
	rows, err := s.db.Query("SELECT id, type, level, message, username, created_at FROM events WHERE username = ? ORDER BY created_at DESC, rowid DESC LIMIT ?", username, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var event models.Event
		if err := rows.Scan(&event.ID, &event.Type, &event.Level, &event.Message, &event.Username, &event.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// recordEvent writes an event and only logs a failure; activity logging never
// fails the operation being recorded.
func recordEvent(events EventServiceProvider, eventType, level, message, username string) {
	if events == nil {
		return
	}
	if err := events.CreateEvent(eventType, level, message, &username); err != nil {
		log.Warn().Err(err).Str("event_type", eventType).Str("username", username).Msg("Failed to record event")
	}
}
