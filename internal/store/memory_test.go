package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryStore_GetMissing(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Get(context.Background(), "queue", "b1")
	require.ErrorIs(t, err, ErrDocNotFound)
}

func TestMemoryStore_SetAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	err := s.Set(ctx, "queue", "b1", Document{"barberId": "b1"}, false)
	require.NoError(t, err)

	doc, err := s.Get(ctx, "queue", "b1")
	require.NoError(t, err)
	require.Equal(t, "b1", doc["barberId"])
}

func TestMemoryStore_SetMerge(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Set(ctx, "barber", "b1", Document{"fullName": "Tony", "status": "closed"}, false))
	require.NoError(t, s.Set(ctx, "barber", "b1", Document{"status": "open"}, true))

	doc, err := s.Get(ctx, "barber", "b1")
	require.NoError(t, err)
	require.Equal(t, "Tony", doc["fullName"])
	require.Equal(t, "open", doc["status"])
}

func TestMemoryStore_UpdateMissing(t *testing.T) {
	s := NewMemoryStore()

	err := s.Update(context.Background(), "barber", "b1", Document{"status": "open"})
	require.ErrorIs(t, err, ErrDocNotFound)
}

func TestMemoryStore_RunTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("creates document", func(t *testing.T) {
		s := NewMemoryStore()

		err := s.RunTransaction(ctx, "queue", "b1", func(doc Document, exists bool) (Document, error) {
			require.False(t, exists)
			require.Nil(t, doc)
			return Document{"n": 1}, nil
		})
		require.NoError(t, err)

		doc, err := s.Get(ctx, "queue", "b1")
		require.NoError(t, err)
		require.NotNil(t, doc["n"])
	})

	t.Run("nil result writes nothing", func(t *testing.T) {
		s := NewMemoryStore()

		err := s.RunTransaction(ctx, "queue", "b1", func(Document, bool) (Document, error) {
			return nil, nil
		})
		require.NoError(t, err)

		_, err = s.Get(ctx, "queue", "b1")
		require.ErrorIs(t, err, ErrDocNotFound)
	})

	t.Run("error aborts without write", func(t *testing.T) {
		s := NewMemoryStore()
		boom := errors.New("boom")

		err := s.RunTransaction(ctx, "queue", "b1", func(Document, bool) (Document, error) {
			return Document{"n": 1}, boom
		})
		require.ErrorIs(t, err, boom)

		_, err = s.Get(ctx, "queue", "b1")
		require.ErrorIs(t, err, ErrDocNotFound)
	})
}

func TestMemoryStore_ConcurrentTransactions(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Set(ctx, "counter", "c1", Document{"n": float64(0)}, false))

	const writers = 8
	errs := make(chan error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.RunTransaction(ctx, "counter", "c1", func(doc Document, exists bool) (Document, error) {
				n := doc["n"].(float64)
				return Document{"n": n + 1}, nil
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	doc, err := s.Get(ctx, "counter", "c1")
	require.NoError(t, err)
	require.Equal(t, float64(writers), doc["n"])
}

func TestMemoryStore_Subscribe(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Set(ctx, "queue", "b1", Document{"v": "initial"}, false))

	var mu sync.Mutex
	var seen []string
	unsub, err := s.Subscribe(ctx, "queue", "b1", func(doc Document) {
		mu.Lock()
		seen = append(seen, doc["v"].(string))
		mu.Unlock()
	})
	require.NoError(t, err)

	require.NoError(t, s.Set(ctx, "queue", "b1", Document{"v": "second"}, false))

	mu.Lock()
	require.Equal(t, []string{"initial", "second"}, seen)
	mu.Unlock()

	unsub()
	unsub() // calling twice is safe

	require.NoError(t, s.Set(ctx, "queue", "b1", Document{"v": "third"}, false))

	mu.Lock()
	require.Len(t, seen, 2)
	mu.Unlock()
}

func TestMemoryStore_SubscribeNoInitialForMissingDoc(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	calls := 0
	unsub, err := s.Subscribe(ctx, "queue", "b1", func(Document) {
		calls++
	})
	require.NoError(t, err)
	defer unsub()

	require.Zero(t, calls)

	require.NoError(t, s.Set(ctx, "queue", "b1", Document{"v": "first"}, false))
	require.Equal(t, 1, calls)
}
