// Package reminder keeps the user's reminders.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nadzzz/asistan/internal/store"
)

// ErrNotFound is returned when no reminder has the requested ID.
var ErrNotFound = errors.New("reminder not found")

// Draft holds the fields extracted from an assistant reply, before the user
// confirms it.
type Draft struct {
	Title       string `json:"title"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Description string `json:"description,omitempty"`
}

// Reminder is a confirmed, persisted reminder.
type Reminder struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Date        string     `json:"date"`
	Time        string     `json:"time"`
	Description string     `json:"description,omitempty"`
	Due         *time.Time `json:"due,omitempty"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"created_at"`
}

var dateLayouts = []string{"2006-01-02", "02.01.2006", "02/01/2006", "2.1.2006"}

// ParseDue turns the free-form date and time of a draft into an instant in
// loc. It reports false when the date is not in a recognised layout; a
// missing or unparsable time defaults to the start of the day.
func ParseDue(date, clock string, loc *time.Location) (time.Time, bool) {
	date = strings.TrimSpace(date)
	var day time.Time
	ok := false
	for _, layout := range dateLayouts {
		if d, err := time.ParseInLocation(layout, date, loc); err == nil {
			day, ok = d, true
			break
		}
	}
	if !ok {
		return time.Time{}, false
	}
	if t, err := time.Parse("15:04", strings.TrimSpace(clock)); err == nil {
		day = day.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute)
	}
	return day, true
}

// Book is the persisted reminder list. Safe for concurrent use.
type Book struct {
	mu    sync.Mutex
	store store.Store
	loc   *time.Location
	now   func() time.Time
}

// NewBook creates a reminder book backed by s.
func NewBook(s store.Store) *Book {
	return &Book{store: s, loc: time.Local, now: time.Now}
}

func (b *Book) load(ctx context.Context) ([]Reminder, error) {
	var list []Reminder
	if _, err := b.store.Load(ctx, store.KeyReminders, &list); err != nil {
		return nil, fmt.Errorf("loading reminders: %w", err)
	}
	return list, nil
}

func (b *Book) save(ctx context.Context, list []Reminder) error {
	if list == nil {
		list = []Reminder{}
	}
	if err := b.store.Save(ctx, store.KeyReminders, list); err != nil {
		return fmt.Errorf("saving reminders: %w", err)
	}
	return nil
}

// List returns every reminder in insertion order.
func (b *Book) List(ctx context.Context) ([]Reminder, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.load(ctx)
}

// Add persists a confirmed draft.
func (b *Book) Add(ctx context.Context, d Draft) (Reminder, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	list, err := b.load(ctx)
	if err != nil {
		return Reminder{}, err
	}
	r := Reminder{
		ID:          uuid.NewString(),
		Title:       d.Title,
		Date:        d.Date,
		Time:        d.Time,
		Description: d.Description,
		CreatedAt:   b.now().UTC(),
	}
	if due, ok := ParseDue(d.Date, d.Time, b.loc); ok {
		r.Due = &due
	}
	list = append(list, r)
	if err := b.save(ctx, list); err != nil {
		return Reminder{}, err
	}
	return r, nil
}

// SetCompleted marks the reminder id as completed or open again.
func (b *Book) SetCompleted(ctx context.Context, id string, completed bool) (Reminder, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	list, err := b.load(ctx)
	if err != nil {
		return Reminder{}, err
	}
	for i := range list {
		if list[i].ID == id {
			list[i].Completed = completed
			if err := b.save(ctx, list); err != nil {
				return Reminder{}, err
			}
			return list[i], nil
		}
	}
	return Reminder{}, ErrNotFound
}

// Delete removes the reminder id.
func (b *Book) Delete(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	list, err := b.load(ctx)
	if err != nil {
		return err
	}
	for i := range list {
		if list[i].ID == id {
			list = append(list[:i], list[i+1:]...)
			return b.save(ctx, list)
		}
	}
	return ErrNotFound
}
