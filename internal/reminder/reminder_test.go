package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/asistan/internal/store"
)

func TestParseDue(t *testing.T) {
	tests := []struct {
		date, clock string
		want        time.Time
		ok          bool
	}{
		{"2024-03-15", "14:30", time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC), true},
		{"15.03.2024", "09:05", time.Date(2024, 3, 15, 9, 5, 0, 0, time.UTC), true},
		{"15/03/2024", "", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), true},
		{"5.3.2024", "akşam", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{"yarın", "10:00", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			got, ok := ParseDue(tt.date, tt.clock, time.UTC)
			assert.Equal(t, tt.ok, ok)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}

func TestBookLifecycle(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	b := NewBook(s)

	list, err := b.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	first, err := b.Add(ctx, Draft{Title: "Toplantı", Date: "2024-03-15", Time: "14:00", Description: "Proje"})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	require.NotNil(t, first.Due)

	second, err := b.Add(ctx, Draft{Title: "Doktor", Date: "yarın", Time: "10:00"})
	require.NoError(t, err)
	assert.Nil(t, second.Due)

	done, err := b.SetCompleted(ctx, first.ID, true)
	require.NoError(t, err)
	assert.True(t, done.Completed)

	require.NoError(t, b.Delete(ctx, second.ID))

	// A fresh book over the same store sees the persisted state.
	list, err = NewBook(s).List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Toplantı", list[0].Title)
	assert.True(t, list[0].Completed)
}

func TestBookUnknownID(t *testing.T) {
	b := NewBook(store.NewMemory())
	_, err := b.SetCompleted(context.Background(), "missing", true)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, b.Delete(context.Background(), "missing"), ErrNotFound)
}
