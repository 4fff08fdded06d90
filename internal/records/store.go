// Package records keeps feedback and contact submissions in memory.
//
// Nothing here is durable: entries disappear when the process exits. A
// persistent store would implement the same Append/List surface.
package records

import (
	"crypto/rand"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/Brownie44l1/plant-disease-api/internal/domain"
)

const (
	DefaultFeedbackEmail = "Guest"
	DefaultRating        = 3
	MinRating            = 1
	MaxRating            = 5
	AnonymousName        = "Anonymous"
)

// Log is an append-only list. Appends are atomic with respect to each other
// and List returns entries in insertion order.
type Log[T any] struct {
	mu      sync.RWMutex
	entries []T
}

func (l *Log[T]) Append(entry T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

func (l *Log[T]) List() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]T, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Log[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

type Feedback struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Rating    int       `json:"rating"`
	Comments  string    `json:"comments"`
	CreatedAt time.Time `json:"created_at"`
}

// DisplayName falls back to Anonymous for unnamed feedback.
func (f Feedback) DisplayName() string {
	if strings.TrimSpace(f.Name) == "" {
		return AnonymousName
	}
	return f.Name
}

// Normalize trims fields and applies the form defaults.
func (f *Feedback) Normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Comments = strings.TrimSpace(f.Comments)
	if f.Email == "" {
		f.Email = DefaultFeedbackEmail
	}
	if f.Rating == 0 {
		f.Rating = DefaultRating
	}
}

func (f Feedback) Validate() error {
	if strings.TrimSpace(f.Comments) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "feedback", fmt.Errorf("comments are required"))
	}
	if f.Rating < MinRating || f.Rating > MaxRating {
		return domain.WrapError(domain.ErrInvalidInput, "feedback",
			fmt.Errorf("rating %d outside %d-%d", f.Rating, MinRating, MaxRating))
	}
	return nil
}

type Contact struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

func (c *Contact) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.Message = strings.TrimSpace(c.Message)
}

func (c Contact) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(c.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(c.Message) == "" {
		missing = append(missing, "message")
	}
	if len(missing) > 0 {
		return domain.WrapError(domain.ErrInvalidInput, "contact",
			fmt.Errorf("missing %s", strings.Join(missing, ", ")))
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "contact", fmt.Errorf("email: %w", err))
	}
	return nil
}

// Store holds the two independent logs of one process.
type Store struct {
	feedback Log[Feedback]
	contacts Log[Contact]

	idMu    sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

func NewStore() *Store {
	return &Store{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) stamp() (string, time.Time) {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	now := s.now()
	return ulid.MustNew(ulid.Timestamp(now), s.entropy).String(), now
}

// AddFeedback appends an entry the caller has already validated.
func (s *Store) AddFeedback(f Feedback) Feedback {
	f.ID, f.CreatedAt = s.stamp()
	s.feedback.Append(f)
	return f
}

// AddContact appends an entry the caller has already validated.
func (s *Store) AddContact(c Contact) Contact {
	c.ID, c.CreatedAt = s.stamp()
	s.contacts.Append(c)
	return c
}

func (s *Store) Feedback() []Feedback {
	return s.feedback.List()
}

func (s *Store) Contacts() []Contact {
	return s.contacts.List()
}
