package issuance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/ppekeeper-backend/pkg/enums"
	"github.com/angelmondragon/ppekeeper-backend/pkg/redis"
)

// Candidate is an active assignment the caller may choose to deactivate.
type Candidate struct {
	AssignmentID uuid.UUID        `json:"assignment_id"`
	ItemCode     *string          `json:"item_code,omitempty"`
	IssueDate    time.Time        `json:"issue_date"`
	Size         *string          `json:"size,omitempty"`
	Condition    *enums.Condition `json:"condition,omitempty"`
}

// ReplacementPrompt asks the caller to pick one candidate to deactivate for a
// category that is exactly one over capacity.
type ReplacementPrompt struct {
	CategoryID   uuid.UUID   `json:"category_id"`
	CategoryName string      `json:"category_name"`
	Max          int         `json:"max"`
	Active       int         `json:"active"`
	Candidates   []Candidate `json:"candidates"`
}

func (p ReplacementPrompt) hasCandidate(id uuid.UUID) bool {
	for _, candidate := range p.Candidates {
		if candidate.AssignmentID == id {
			return true
		}
	}
	return false
}

// Session is the workflow position of one employee.
type Session struct {
	EmployeeID string              `json:"employee_id"`
	State      enums.IssuanceState `json:"state"`
	Prompts    []ReplacementPrompt `json:"prompts,omitempty"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

func idleSession(employeeID string) *Session {
	return &Session{EmployeeID: employeeID, State: enums.IssuanceStateIdle}
}

func (s *Session) promptFor(categoryID uuid.UUID) (ReplacementPrompt, bool) {
	if s == nil {
		return ReplacementPrompt{}, false
	}
	for _, prompt := range s.Prompts {
		if prompt.CategoryID == categoryID {
			return prompt, true
		}
	}
	return ReplacementPrompt{}, false
}

// SessionStore keeps pending replacement decisions between requests.
// Get returns nil, nil when no session exists.
type SessionStore interface {
	Get(ctx context.Context, employeeID string) (*Session, error)
	Put(ctx context.Context, session *Session) error
	Delete(ctx context.Context, employeeID string) error
}

type memoryEntry struct {
	session   Session
	expiresAt time.Time
}

// MemorySessionStore holds sessions in process memory.
type MemorySessionStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemorySessionStore builds an in-process store. A non-positive ttl keeps
// sessions until they are deleted.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		ttl:     ttl,
		entries: map[string]memoryEntry{},
		now:     time.Now,
	}
}

func (m *MemorySessionStore) Get(_ context.Context, employeeID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[employeeID]
	if !ok {
		return nil, nil
	}
	if !entry.expiresAt.IsZero() && m.now().After(entry.expiresAt) {
		delete(m.entries, employeeID)
		return nil, nil
	}
	session := entry.session
	return &session, nil
}

func (m *MemorySessionStore) Put(_ context.Context, session *Session) error {
	if session == nil {
		return errors.New("session required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	entry := memoryEntry{session: *session}
	if m.ttl > 0 {
		entry.expiresAt = m.now().Add(m.ttl)
	}
	m.entries[session.EmployeeID] = entry
	return nil
}

func (m *MemorySessionStore) Delete(_ context.Context, employeeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, employeeID)
	return nil
}

type sessionRedis interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	SessionKey(employeeID string) string
}

// RedisSessionStore keeps sessions in Redis so any API replica can resume them.
type RedisSessionStore struct {
	client sessionRedis
	ttl    time.Duration
}

// NewRedisSessionStore wraps a redis client.
func NewRedisSessionStore(client sessionRedis, ttl time.Duration) (*RedisSessionStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &RedisSessionStore{client: client, ttl: ttl}, nil
}

func (r *RedisSessionStore) Get(ctx context.Context, employeeID string) (*Session, error) {
	raw, err := r.client.Get(ctx, r.client.SessionKey(employeeID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("load issuance session: %w", err)
	}
	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, fmt.Errorf("decode issuance session: %w", err)
	}
	return &session, nil
}

func (r *RedisSessionStore) Put(ctx context.Context, session *Session) error {
	if session == nil {
		return errors.New("session required")
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode issuance session: %w", err)
	}
	if err := r.client.Set(ctx, r.client.SessionKey(session.EmployeeID), payload, r.ttl); err != nil {
		return fmt.Errorf("store issuance session: %w", err)
	}
	return nil
}

func (r *RedisSessionStore) Delete(ctx context.Context, employeeID string) error {
	if err := r.client.Del(ctx, r.client.SessionKey(employeeID)); err != nil {
		return fmt.Errorf("clear issuance session: %w", err)
	}
	return nil
}
