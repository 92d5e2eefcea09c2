package client

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/flow-budget/backend/internal/config"
	"example.com/flow-budget/backend/internal/models"
	"example.com/flow-budget/backend/internal/repository"
	"example.com/flow-budget/backend/internal/server"
)

func newAPI(t *testing.T) *Client {
	t.Helper()

	cfg := config.Config{
		Server:    config.ServerConfig{CORSOrigins: []string{"*"}},
		RateLimit: config.RateLimitConfig{MutationsPerMinute: 6000, Burst: 1000},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	api := httptest.NewServer(server.New(cfg, logger, repository.NewMemoryBudgetItemRepository(), nil))
	t.Cleanup(api.Close)

	return New(api.URL, 5*time.Second)
}

func TestClientRoundTrip(t *testing.T) {
	api := newAPI(t)
	ctx := context.Background()

	created, err := api.Create(ctx, ItemInput{
		Name:               "Netflix",
		Category:           "Subscriptions",
		Amount:             decimal.RequireFromString("-15.99"),
		Recurring:          true,
		RecurrenceInterval: models.IntervalPtr(models.RecurrenceMonthly),
	})
	require.NoError(t, err)
	assert.Equal(t, "-15.99", created.Amount.StringFixed(2))

	got, err := api.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Netflix", got.Name)
	require.NotNil(t, got.RecurrenceInterval)

	recurring := false
	updated, err := api.Update(ctx, created.ID, ItemUpdate{Recurring: &recurring, ClearRecurrenceInterval: true})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.False(t, updated.Recurring)
	assert.Nil(t, updated.RecurrenceInterval)

	items, err := api.List(ctx, ListOptions{Category: "Subscriptions"})
	require.NoError(t, err)
	assert.Len(t, items, 1)

	items, err = api.List(ctx, ListOptions{Category: "Food"})
	require.NoError(t, err)
	assert.Empty(t, items)

	require.NoError(t, api.Delete(ctx, created.ID))

	err = api.Delete(ctx, created.ID)
	assert.True(t, IsNotFound(err))

	_, err = api.Get(ctx, created.ID)
	assert.True(t, IsNotFound(err))
}

func TestClientUpdateOfMissingItem(t *testing.T) {
	api := newAPI(t)
	name := "ghost"

	item, err := api.Update(context.Background(), uuid.New(), ItemUpdate{Name: &name})

	require.NoError(t, err)
	assert.Nil(t, item)
}

func TestClientSurfacesServerErrors(t *testing.T) {
	api := newAPI(t)

	_, err := api.Create(context.Background(), ItemInput{
		Category:  "Gym",
		Amount:    decimal.RequireFromString("-30"),
		Recurring: true,
	})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "failed to create budget item", apiErr.Message)
	assert.Contains(t, apiErr.Detail, "recurrence interval")
}

func TestItemUpdateJSON(t *testing.T) {
	amount := decimal.RequireFromString("-45.20")
	payload, err := json.Marshal(ItemUpdate{Amount: &amount, ClearRecurrenceInterval: true})
	require.NoError(t, err)

	assert.JSONEq(t, `{"amount":-45.2,"recurrence_interval":null}`, string(payload))
}

func TestFormAgainstServerRefreshesList(t *testing.T) {
	api := newAPI(t)
	ctx := context.Background()
	list := NewItemList(api, ListOptions{})

	items, err := list.Items(ctx)
	require.NoError(t, err)
	require.Empty(t, items)

	form := NewCreateForm(api, WithInvalidator(list))
	form.Expand()
	form.SetCategory("Food")
	form.SetAmount("45.20")

	_, err = form.Submit(ctx)
	require.NoError(t, err)

	cached, fresh := list.Cached()
	assert.True(t, fresh)
	require.Len(t, cached, 1)
	assert.Equal(t, "-45.20", cached[0].Amount.StringFixed(2))
}

func TestWatchSeesChangesFromOtherClients(t *testing.T) {
	api := newAPI(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	list := NewItemList(api, ListOptions{})
	_, err := list.Items(ctx)
	require.NoError(t, err)

	connected := make(chan struct{})
	changes := make(chan []models.BudgetItem, 4)
	watchDone := make(chan error, 1)
	go func() {
		var once bool
		watchDone <- api.Events(ctx, func(event Event) {
			if event.Type == "connected" && !once {
				once = true
				close(connected)
				return
			}
			if _, _, ok := ChangeOf(event); ok {
				assert.NoError(t, list.Invalidate(ctx))
				items, _ := list.Cached()
				changes <- items
			}
		})
	}()

	select {
	case <-connected:
	case <-time.After(5 * time.Second):
		t.Fatal("event stream did not connect")
	}

	_, err = api.Create(context.Background(), ItemInput{Category: "Food", Amount: decimal.RequireFromString("-8")})
	require.NoError(t, err)

	select {
	case items := <-changes:
		assert.Len(t, items, 1)
	case <-time.After(5 * time.Second):
		t.Fatal("no change event received")
	}

	cancel()
	select {
	case err := <-watchDone:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("event stream did not stop")
	}
}
