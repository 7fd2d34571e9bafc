package domain

import "time"

// Syncable provides common fields for entities that participate in synchronization.
// It is embedded in every domain type that flows through the remote store and the
// client caches.
type Syncable struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ID        string    `json:"id"`
}

// EntityID returns the entity's unique ID.
func (s Syncable) EntityID() string {
	return s.ID
}

// UpdatedTime returns the last-modified timestamp.
// Caches order their snapshots by this field, newest first.
func (s Syncable) UpdatedTime() time.Time {
	return s.UpdatedAt
}

// Touch updates the UpdatedAt timestamp to the current time.
// Call this whenever the underlying entity changes.
func (s *Syncable) Touch() {
	s.UpdatedAt = time.Now()
}

// InitTimestamps sets both CreatedAt and UpdatedAt to now.
// Call this when creating a new entity.
func (s *Syncable) InitTimestamps() {
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now
}
