package service

import (
	"context"
	"testing"

	"github.com/saloonq/queue-service/internal/models"
	"github.com/saloonq/queue-service/internal/notification"
	"github.com/saloonq/queue-service/internal/store"
	"github.com/saloonq/queue-service/pkg/logger"
	"github.com/stretchr/testify/require"
)

var testSelf = CustomerProfile{
	FullName: "Alex Doe",
	Phone:    "5551234567",
	Email:    "alex@example.com",
}

func newTestQueueSession(t *testing.T) (*QueueSession, QueueService, store.Store, *notification.Collector) {
	t.Helper()
	st := store.NewMemoryStore()
	l := logger.InitializeTestZapLogger()
	svc := NewQueueService(st, nil, l)
	sink := notification.NewCollector()
	return NewQueueSession(svc, sink, l, testSelf), svc, st, sink
}

func TestQueueSession_JoinBeforeStart(t *testing.T) {
	sess, _, _, _ := newTestQueueSession(t)
	err := sess.Join(context.Background(), []string{"Haircut"})
	require.ErrorIs(t, err, ErrSessionNotStarted)
}

func TestQueueSession_JoinRequiresServices(t *testing.T) {
	ctx := context.Background()
	sess, _, st, sink := newTestQueueSession(t)
	seedBarber(t, st, "b1", models.BarberStatusOpen)
	require.NoError(t, sess.Start(ctx, "b1"))
	defer sess.Stop()

	err := sess.Join(ctx, nil)
	require.ErrorIs(t, err, ErrValidation)

	ev, ok := sink.Last()
	require.True(t, ok)
	require.Equal(t, "Please select at least one service", ev.Message)
	require.Equal(t, notification.KindError, ev.Kind)
}

func TestQueueSession_JoinClosedQueue(t *testing.T) {
	ctx := context.Background()
	sess, _, st, sink := newTestQueueSession(t)
	seedBarber(t, st, "b1", models.BarberStatusClosed)
	require.NoError(t, sess.Start(ctx, "b1"))
	defer sess.Stop()

	err := sess.Join(ctx, []string{"Haircut"})
	require.ErrorIs(t, err, ErrQueueClosed)

	ev, ok := sink.Last()
	require.True(t, ok)
	require.Equal(t, "Queue is closed. Cannot join at this time.", ev.Message)
	require.Equal(t, notification.KindError, ev.Kind)
}

func TestQueueSession_JoinAndView(t *testing.T) {
	ctx := context.Background()
	sess, svc, st, sink := newTestQueueSession(t)
	seedBarber(t, st, "b1", models.BarberStatusOpen)
	require.NoError(t, svc.OpenQueue(ctx, "b1"))
	require.NoError(t, sess.Start(ctx, "b1"))
	defer sess.Stop()

	require.NoError(t, sess.Join(ctx, []string{"Haircut"}))

	ev, ok := sink.Last()
	require.True(t, ok)
	require.Equal(t, "You've joined the queue!", ev.Message)
	require.Equal(t, notification.KindSuccess, ev.Kind)

	view := sess.View()
	require.Equal(t, "b1", view.BarberID)
	require.True(t, view.IsOpen)
	require.Equal(t, 1, view.QueueLength)
	require.True(t, view.IsSelfQueued)
	require.Equal(t, 1, view.SelfPosition)
	require.Len(t, view.Entries, 1)
	require.Equal(t, testSelf.FullName, view.Entries[0].Name)
	require.Equal(t, 1, view.Entries[0].Position)
}

func TestQueueSession_DuplicateJoin(t *testing.T) {
	ctx := context.Background()
	sess, _, st, sink := newTestQueueSession(t)
	seedBarber(t, st, "b1", models.BarberStatusOpen)
	require.NoError(t, sess.Start(ctx, "b1"))
	defer sess.Stop()

	require.NoError(t, sess.Join(ctx, []string{"Haircut"}))
	err := sess.Join(ctx, []string{"Haircut"})
	require.ErrorIs(t, err, ErrDuplicateEntry)

	ev, ok := sink.Last()
	require.True(t, ok)
	require.Equal(t, "You're already in the queue", ev.Message)
	require.Equal(t, notification.KindError, ev.Kind)

	require.Equal(t, 1, sess.View().QueueLength)
}

func TestQueueSession_Leave(t *testing.T) {
	ctx := context.Background()
	sess, _, st, sink := newTestQueueSession(t)
	seedBarber(t, st, "b1", models.BarberStatusOpen)
	require.NoError(t, sess.Start(ctx, "b1"))
	defer sess.Stop()

	require.NoError(t, sess.Join(ctx, []string{"Haircut"}))
	require.NoError(t, sess.Leave(ctx))

	ev, ok := sink.Last()
	require.True(t, ok)
	require.Equal(t, "You've left the queue", ev.Message)
	require.Equal(t, notification.KindSuccess, ev.Kind)

	view := sess.View()
	require.Zero(t, view.QueueLength)
	require.False(t, view.IsSelfQueued)
	require.Equal(t, -1, view.SelfPosition)
}

func TestQueueSession_ViewTracksOtherCustomers(t *testing.T) {
	ctx := context.Background()
	sess, svc, st, _ := newTestQueueSession(t)
	seedBarber(t, st, "b1", models.BarberStatusOpen)
	require.NoError(t, sess.Start(ctx, "b1"))
	defer sess.Stop()

	require.NoError(t, svc.JoinQueue(ctx, "b1", models.QueueEntry{Name: "Sam", Phone: "5559999999"}))
	require.NoError(t, sess.Join(ctx, []string{"Haircut"}))

	view := sess.View()
	require.Equal(t, 2, view.QueueLength)
	require.Equal(t, 2, view.SelfPosition)

	// The earlier customer leaves; the session's position shifts down.
	require.NoError(t, svc.RemoveEntry(ctx, "b1", "5559999999"))
	require.Equal(t, 1, sess.View().SelfPosition)
}

func TestQueueSession_StopDetachesListeners(t *testing.T) {
	ctx := context.Background()
	sess, svc, st, _ := newTestQueueSession(t)
	seedBarber(t, st, "b1", models.BarberStatusOpen)
	require.NoError(t, sess.Start(ctx, "b1"))

	require.NoError(t, sess.Join(ctx, []string{"Haircut"}))
	sess.Stop()

	require.NoError(t, svc.JoinQueue(ctx, "b1", models.QueueEntry{Name: "Sam", Phone: "5559999999"}))
	require.Zero(t, sess.View().QueueLength)

	// A stopped session can be restarted.
	require.NoError(t, sess.Start(ctx, "b1"))
	defer sess.Stop()
	require.Equal(t, 2, sess.View().QueueLength)
}

func TestQueueSession_DoubleStart(t *testing.T) {
	ctx := context.Background()
	sess, _, st, _ := newTestQueueSession(t)
	seedBarber(t, st, "b1", models.BarberStatusOpen)
	require.NoError(t, sess.Start(ctx, "b1"))
	defer sess.Stop()

	require.Error(t, sess.Start(ctx, "b1"))
}
