package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adminhub/chat-notify-go/internal/model"
)

func session(id int64, guest string) model.ChatSession {
	s := model.ChatSession{ID: id, GuestName: guest, Status: model.SessionStatusOpen}
	s.Normalize()
	return s
}

func ids(sessions []model.ChatSession) []int64 {
	out := make([]int64, len(sessions))
	for i, s := range sessions {
		out[i] = s.ID
	}
	return out
}

func TestReplaceAll(t *testing.T) {
	t.Run("returns exactly what was installed, order preserved", func(t *testing.T) {
		s := New()
		s.Upsert(session(99, "stale"))

		snapshot := []model.ChatSession{session(1, "a"), session(2, "b"), session(3, "c")}
		s.ReplaceAll(snapshot)

		assert.Equal(t, []int64{1, 2, 3}, ids(s.Snapshot()))
	})

	t.Run("empty snapshot clears the store", func(t *testing.T) {
		s := New()
		s.Upsert(session(1, "a"))
		s.ReplaceAll(nil)
		assert.Zero(t, s.Len())
	})

	t.Run("later mutation of the input slice does not leak in", func(t *testing.T) {
		s := New()
		input := []model.ChatSession{session(1, "a")}
		s.ReplaceAll(input)
		input[0].GuestName = "mutated"

		assert.Equal(t, "a", s.Snapshot()[0].GuestName)
	})
}

func TestUpsert(t *testing.T) {
	t.Run("prepends new sessions, most recent first", func(t *testing.T) {
		s := New()
		s.Upsert(session(1, "a"))
		s.Upsert(session(2, "b"))
		s.Upsert(session(3, "c"))

		assert.Equal(t, []int64{3, 2, 1}, ids(s.Snapshot()))
	})

	t.Run("prepend into empty store", func(t *testing.T) {
		s := New()
		s.Upsert(session(5, "guest"))
		assert.Equal(t, []int64{5}, ids(s.Snapshot()))
	})

	t.Run("existing id is updated in place, not reordered", func(t *testing.T) {
		s := New()
		s.ReplaceAll([]model.ChatSession{session(1, "a"), session(2, "b")})

		updated := session(1, "a-renamed")
		updated.Status = model.SessionStatusClosed
		s.Upsert(updated)

		got := s.Snapshot()
		require.Equal(t, []int64{1, 2}, ids(got))
		assert.Equal(t, "a-renamed", got[0].GuestName)
		assert.Equal(t, model.SessionStatusClosed, got[0].Status)
		assert.Equal(t, "b", got[1].GuestName)
	})

	t.Run("at most one entry per id, last write wins", func(t *testing.T) {
		s := New()
		for i := 0; i < 10; i++ {
			s.Upsert(session(int64(i%3), fmt.Sprintf("v%d", i)))
		}

		got := s.Snapshot()
		require.Len(t, got, 3)
		seen := map[int64]bool{}
		for _, sess := range got {
			assert.False(t, seen[sess.ID], "duplicate id %d", sess.ID)
			seen[sess.ID] = true
		}
		for _, sess := range got {
			// ids 0,1,2 cycle; the final round wrote v7(id=1), v8(id=2), v9(id=0)
			switch sess.ID {
			case 0:
				assert.Equal(t, "v9", sess.GuestName)
			case 1:
				assert.Equal(t, "v7", sess.GuestName)
			case 2:
				assert.Equal(t, "v8", sess.GuestName)
			}
		}
	})

	t.Run("replaying the same event is idempotent", func(t *testing.T) {
		s := New()
		s.Upsert(session(1, "a"))
		before := s.Snapshot()
		s.Upsert(session(1, "a"))
		assert.Equal(t, before, s.Snapshot())
	})

	t.Run("concurrent upserts keep the id-unique invariant", func(t *testing.T) {
		s := New()
		var wg sync.WaitGroup
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func(g int) {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					s.Upsert(session(int64(i%5), fmt.Sprintf("g%d", g)))
				}
			}(g)
		}
		wg.Wait()

		got := s.Snapshot()
		assert.Len(t, got, 5)
	})
}
