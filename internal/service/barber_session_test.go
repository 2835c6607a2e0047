package service

import (
	"context"
	"strings"
	"testing"

	"github.com/saloonq/queue-service/internal/cache"
	"github.com/saloonq/queue-service/internal/models"
	"github.com/saloonq/queue-service/internal/notification"
	"github.com/saloonq/queue-service/internal/store"
	"github.com/saloonq/queue-service/pkg/logger"
	"github.com/stretchr/testify/require"
)

func newTestBarberSession(t *testing.T, profileCache *cache.ProfileCache) (*BarberSession, QueueService, store.Store, *notification.Collector) {
	t.Helper()
	st := store.NewMemoryStore()
	l := logger.InitializeTestZapLogger()
	svc := NewQueueService(st, nil, l)
	sink := notification.NewCollector()
	return NewBarberSession(svc, sink, profileCache, l), svc, st, sink
}

func TestBarberSession_OpenClose(t *testing.T) {
	ctx := context.Background()
	sess, _, st, sink := newTestBarberSession(t, nil)
	seedBarber(t, st, "b1", models.BarberStatusClosed)
	require.NoError(t, sess.Start(ctx, "b1"))
	defer sess.Stop()

	require.False(t, sess.IsOpen())

	require.NoError(t, sess.Open(ctx))
	require.True(t, sess.IsOpen())

	ev, ok := sink.Last()
	require.True(t, ok)
	require.Equal(t, "Queue is now open", ev.Message)
	require.Equal(t, notification.KindSuccess, ev.Kind)

	require.NoError(t, sess.Close(ctx))
	require.False(t, sess.IsOpen())

	ev, ok = sink.Last()
	require.True(t, ok)
	require.Equal(t, "Queue is now closed", ev.Message)
}

func TestBarberSession_OpenFailure(t *testing.T) {
	ctx := context.Background()
	sess, _, _, sink := newTestBarberSession(t, nil)
	require.NoError(t, sess.Start(ctx, "missing"))
	defer sess.Stop()

	err := sess.Open(ctx)
	require.ErrorIs(t, err, ErrBarberNotFound)

	ev, ok := sink.Last()
	require.True(t, ok)
	require.Equal(t, "Failed to start queue. Please try again.", ev.Message)
	require.Equal(t, notification.KindError, ev.Kind)
}

func TestBarberSession_AddWalkIn(t *testing.T) {
	ctx := context.Background()

	t.Run("requires name and phone", func(t *testing.T) {
		sess, _, st, sink := newTestBarberSession(t, nil)
		seedBarber(t, st, "b1", models.BarberStatusOpen)
		require.NoError(t, sess.Start(ctx, "b1"))
		defer sess.Stop()

		err := sess.AddWalkIn(ctx, "  ", "5559999999", nil)
		require.ErrorIs(t, err, ErrValidation)

		ev, ok := sink.Last()
		require.True(t, ok)
		require.Equal(t, "Customer name and phone number are required.", ev.Message)
		require.Equal(t, notification.KindError, ev.Kind)
		require.Zero(t, sess.QueueLength())
	})

	t.Run("adds marked entry", func(t *testing.T) {
		sess, _, st, sink := newTestBarberSession(t, nil)
		seedBarber(t, st, "b1", models.BarberStatusOpen)
		require.NoError(t, sess.Start(ctx, "b1"))
		defer sess.Stop()

		require.NoError(t, sess.AddWalkIn(ctx, " Drop In ", " 5559999999 ", []string{"Haircut"}))

		ev, ok := sink.Last()
		require.True(t, ok)
		require.Equal(t, "Customer has been added to the queue.", ev.Message)
		require.Equal(t, notification.KindSuccess, ev.Kind)

		require.Equal(t, 1, sess.QueueLength())
		view := sess.View()
		require.True(t, strings.HasPrefix(view.Entries[0].Name, WalkInMarker))
		require.Equal(t, "5559999999", view.Entries[0].Phone)
	})

	t.Run("duplicate phone warns", func(t *testing.T) {
		sess, _, st, sink := newTestBarberSession(t, nil)
		seedBarber(t, st, "b1", models.BarberStatusOpen)
		require.NoError(t, sess.Start(ctx, "b1"))
		defer sess.Stop()

		require.NoError(t, sess.AddWalkIn(ctx, "Drop In", "5559999999", nil))
		err := sess.AddWalkIn(ctx, "Drop In", "5559999999", nil)
		require.ErrorIs(t, err, ErrDuplicateEntry)

		ev, ok := sink.Last()
		require.True(t, ok)
		require.Equal(t, "This phone number is already in the queue.", ev.Message)
		require.Equal(t, notification.KindWarning, ev.Kind)
		require.Equal(t, 1, sess.QueueLength())
	})
}

func TestBarberSession_RemoveEntry(t *testing.T) {
	ctx := context.Background()
	sess, svc, st, _ := newTestBarberSession(t, nil)
	seedBarber(t, st, "b1", models.BarberStatusOpen)
	require.NoError(t, sess.Start(ctx, "b1"))
	defer sess.Stop()

	require.NoError(t, svc.JoinQueue(ctx, "b1", models.QueueEntry{Name: "Alex", Phone: "5551234567"}))
	require.Equal(t, 1, sess.QueueLength())

	require.NoError(t, sess.RemoveEntry(ctx, "5551234567"))
	require.Zero(t, sess.QueueLength())
}

func TestBarberSession_NotStarted(t *testing.T) {
	ctx := context.Background()
	sess, _, _, _ := newTestBarberSession(t, nil)

	require.ErrorIs(t, sess.Open(ctx), ErrSessionNotStarted)
	require.ErrorIs(t, sess.Close(ctx), ErrSessionNotStarted)
	require.ErrorIs(t, sess.AddWalkIn(ctx, "Drop In", "5559999999", nil), ErrSessionNotStarted)
	require.ErrorIs(t, sess.RemoveEntry(ctx, "5559999999"), ErrSessionNotStarted)
}

func TestBarberSession_CacheSeedsView(t *testing.T) {
	ctx := context.Background()
	profileCache := cache.New(t.TempDir())
	require.NoError(t, profileCache.SaveBarber(&models.Barber{
		ID:        "b1",
		FullName:  "Tony",
		StoreName: "Tony's Cuts",
		Status:    models.BarberStatusOpen,
	}))

	// No barber document in the store; the cached profile carries the view.
	sess, _, _, _ := newTestBarberSession(t, profileCache)
	require.NoError(t, sess.Start(ctx, "b1"))
	defer sess.Stop()

	require.True(t, sess.IsOpen())
}

func TestBarberSession_CacheIgnoredForOtherBarber(t *testing.T) {
	ctx := context.Background()
	profileCache := cache.New(t.TempDir())
	require.NoError(t, profileCache.SaveBarber(&models.Barber{
		ID:     "someone-else",
		Status: models.BarberStatusOpen,
	}))

	sess, _, _, _ := newTestBarberSession(t, profileCache)
	require.NoError(t, sess.Start(ctx, "b1"))
	defer sess.Stop()

	require.False(t, sess.IsOpen())
}

func TestBarberSession_CacheUpdatedOnStatusChange(t *testing.T) {
	ctx := context.Background()
	profileCache := cache.New(t.TempDir())
	sess, _, st, _ := newTestBarberSession(t, profileCache)
	seedBarber(t, st, "b1", models.BarberStatusClosed)
	require.NoError(t, sess.Start(ctx, "b1"))
	defer sess.Stop()

	require.NoError(t, sess.Open(ctx))

	cached, err := profileCache.LoadBarber()
	require.NoError(t, err)
	require.NotNil(t, cached)
	require.Equal(t, "b1", cached.ID)
	require.True(t, cached.IsOpen())
}
