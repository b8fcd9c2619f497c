package database

import (
	"context"
	"math"
	"sync"
	"testing"

	"stock-alert-bot/internal/types"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_GetOrCreateUserIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	first, err := store.GetOrCreateUser(ctx, 42, "alice")
	require.NoError(t, err)
	second, err := store.GetOrCreateUser(ctx, 42, "renamed")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(42), second.ExternalID)
	assert.Equal(t, "alice", second.DisplayName)

	other, err := store.GetOrCreateUser(ctx, 43, "")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestStore_GetUserNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetUser(context.Background(), 999)
	assert.True(t, errors.Is(err, types.ErrNotFound))

	_, err = store.GetUserByExternalID(context.Background(), 999)
	assert.True(t, errors.Is(err, types.ErrNotFound))
}

func TestStore_AddAlertValidation(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	user, err := store.GetOrCreateUser(ctx, 42, "alice")
	require.NoError(t, err)

	for name, price := range map[string]float64{
		"zero":     0,
		"negative": -10,
		"nan":      math.NaN(),
		"inf":      math.Inf(1),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := store.AddAlert(ctx, user.ID, "TCS", price)
			assert.True(t, errors.Is(err, types.ErrInvalidArgument), "got %v", err)
		})
	}

	_, err = store.AddAlert(ctx, user.ID, "   ", 10)
	assert.True(t, errors.Is(err, types.ErrInvalidArgument))

	_, err = store.AddAlert(ctx, user.ID+100, "TCS", 10)
	assert.True(t, errors.Is(err, types.ErrNotFound))

	alerts, err := store.AllAlerts(ctx)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestStore_AddAndListAlerts(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	alice, _ := store.GetOrCreateUser(ctx, 1, "alice")
	bob, _ := store.GetOrCreateUser(ctx, 2, "bob")

	a1, err := store.AddAlert(ctx, alice.ID, " tcs ", 3500)
	require.NoError(t, err)
	assert.Equal(t, "TCS", a1.Symbol)

	_, err = store.AddAlert(ctx, alice.ID, "TCS", 3600)
	require.NoError(t, err)
	_, err = store.AddAlert(ctx, bob.ID, "INFY", 1500)
	require.NoError(t, err)

	alerts, err := store.ListAlerts(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, 3500.0, alerts[0].TargetPrice)
	assert.Equal(t, 3600.0, alerts[1].TargetPrice)
	assert.Equal(t, a1.ID, alerts[0].ID)

	all, err := store.AllAlerts(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestStore_RemoveAlerts(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	alice, _ := store.GetOrCreateUser(ctx, 1, "alice")
	bob, _ := store.GetOrCreateUser(ctx, 2, "bob")

	_, _ = store.AddAlert(ctx, alice.ID, "TCS", 3500)
	_, _ = store.AddAlert(ctx, alice.ID, "TCS", 3600)
	_, _ = store.AddAlert(ctx, alice.ID, "INFY", 1500)
	_, _ = store.AddAlert(ctx, bob.ID, "TCS", 3500)

	removed, err := store.RemoveAlerts(ctx, alice.ID, "AAA")
	require.NoError(t, err)
	assert.Zero(t, removed)
	all, _ := store.AllAlerts(ctx)
	assert.Len(t, all, 4)

	removed, err = store.RemoveAlerts(ctx, alice.ID, "tcs")
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	left, _ := store.ListAlerts(ctx, alice.ID)
	require.Len(t, left, 1)
	assert.Equal(t, "INFY", left[0].Symbol)

	bobs, _ := store.ListAlerts(ctx, bob.ID)
	assert.Len(t, bobs, 1)
}

func TestStore_DeleteAlertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	alice, _ := store.GetOrCreateUser(ctx, 1, "alice")
	alert, _ := store.AddAlert(ctx, alice.ID, "TCS", 3500)

	require.NoError(t, store.DeleteAlert(ctx, alert.ID))
	require.NoError(t, store.DeleteAlert(ctx, alert.ID))
	require.NoError(t, store.DeleteAlert(ctx, 12345))

	alerts, err := store.ListAlerts(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestStore_ConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(externalID int64) {
			defer wg.Done()
			user, err := store.GetOrCreateUser(ctx, externalID%3, "")
			if !assert.NoError(t, err) {
				return
			}
			for j := 0; j < 10; j++ {
				_, err := store.AddAlert(ctx, user.ID, "TCS", float64(100+j))
				assert.NoError(t, err)
			}
			alerts, err := store.AllAlerts(ctx)
			assert.NoError(t, err)
			for _, a := range alerts {
				assert.NoError(t, store.DeleteAlert(ctx, a.ID))
			}
		}(int64(i))
	}
	wg.Wait()

	alerts, err := store.AllAlerts(ctx)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestStore_Metrics(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	value, err := store.GetMetric(ctx, "commands_processed")
	require.NoError(t, err)
	assert.Zero(t, value)

	require.NoError(t, store.SaveMetric(ctx, "commands_processed", "", "", 3))
	require.NoError(t, store.SaveMetric(ctx, "commands_processed", "", "", 7))
	value, err = store.GetMetric(ctx, "commands_processed")
	require.NoError(t, err)
	assert.Equal(t, 7.0, value)

	require.NoError(t, store.SaveMetric(ctx, "messages_per_channel", "42", "PrivateChat-42", 5))
	labeled, err := store.GetMetricsWithLabels(ctx, "messages_per_channel")
	require.NoError(t, err)
	assert.Equal(t, map[string]map[string]float64{"42": {"PrivateChat-42": 5}}, labeled)
}
