package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/flow-budget/backend/internal/models"
)

type budgetItemStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (models.BudgetItem, bool, error)
	Find(ctx context.Context, filter Filter) ([]models.BudgetItem, error)
	Create(ctx context.Context, newItem models.NewBudgetItem) (models.BudgetItem, error)
	Update(ctx context.Context, id uuid.UUID, patch BudgetItemPatch) (models.BudgetItem, bool, error)
	Delete(ctx context.Context, id uuid.UUID) (models.BudgetItem, bool, error)
}

var (
	_ budgetItemStore = (*BudgetItemRepository)(nil)
	_ budgetItemStore = (*MemoryBudgetItemRepository)(nil)
)

func amountPtr(value string) *decimal.Decimal {
	amount := decimal.RequireFromString(value)
	return &amount
}

// runBudgetItemStoreTests проверяет одинаковое поведение всех реализаций хранилища.
// newStore должен возвращать пустое хранилище.
func runBudgetItemStoreTests(t *testing.T, newStore func(t *testing.T) budgetItemStore) {
	t.Run("create and find expense", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		created, err := store.Create(ctx, models.NewBudgetItem{Category: "Food", Amount: amountPtr("-45.20")})
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, created.ID)

		found, ok, err := store.FindByID(ctx, created.ID)
		require.NoError(t, err)
		require.True(t, ok)

		assert.Equal(t, "Food", found.Category)
		assert.Equal(t, "-45.20", found.Amount.StringFixed(2))
		assert.Equal(t, "", found.Name)
		assert.False(t, found.Recurring)
		assert.Nil(t, found.RecurrenceInterval)
		assert.False(t, found.CreatedAt.IsZero())
		assert.Equal(t, found.CreatedAt, found.UpdatedAt)
	})

	t.Run("amount round trips exactly", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		created, err := store.Create(ctx, models.NewBudgetItem{Category: "Salary", Amount: amountPtr("150.75")})
		require.NoError(t, err)

		found, ok, err := store.FindByID(ctx, created.ID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, decimal.RequireFromString("150.75").Equal(found.Amount), "got %s", found.Amount)
	})

	t.Run("explicit id is kept", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		id := uuid.New()

		created, err := store.Create(ctx, models.NewBudgetItem{ID: &id, Category: "Rent", Amount: amountPtr("-900")})
		require.NoError(t, err)
		assert.Equal(t, id, created.ID)

		_, err = store.Create(ctx, models.NewBudgetItem{ID: &id, Category: "Rent", Amount: amountPtr("-900")})
		assert.ErrorIs(t, err, ErrConstraintViolation)
	})

	t.Run("create rejects missing fields", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		_, err := store.Create(ctx, models.NewBudgetItem{Amount: amountPtr("10")})
		assert.ErrorIs(t, err, ErrConstraintViolation)

		_, err = store.Create(ctx, models.NewBudgetItem{Category: "Food"})
		assert.ErrorIs(t, err, ErrConstraintViolation)

		_, err = store.Create(ctx, models.NewBudgetItem{Category: "Gym", Amount: amountPtr("-30"), Recurring: true})
		assert.ErrorIs(t, err, ErrConstraintViolation)

		items, err := store.Find(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("amount must fit numeric(15,2)", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		_, err := store.Create(ctx, models.NewBudgetItem{Category: "Lottery", Amount: amountPtr("1e20")})
		assert.ErrorIs(t, err, ErrConstraintViolation)

		largest, err := store.Create(ctx, models.NewBudgetItem{Category: "Lottery", Amount: amountPtr("-9999999999999.99")})
		require.NoError(t, err)
		assert.Equal(t, "-9999999999999.99", largest.Amount.StringFixed(2))

		_, _, err = store.Update(ctx, largest.ID, BudgetItemPatch{Amount: Set(decimal.RequireFromString("10000000000000"))})
		assert.ErrorIs(t, err, ErrConstraintViolation)

		stored, _, err := store.FindByID(ctx, largest.ID)
		require.NoError(t, err)
		assert.Equal(t, "-9999999999999.99", stored.Amount.StringFixed(2))
	})

	t.Run("create drops interval of non recurring item", func(t *testing.T) {
		store := newStore(t)

		created, err := store.Create(context.Background(), models.NewBudgetItem{
			Category:           "Gym",
			Amount:             amountPtr("-30"),
			RecurrenceInterval: models.IntervalPtr(models.RecurrenceMonthly),
		})
		require.NoError(t, err)
		assert.Nil(t, created.RecurrenceInterval)
	})

	t.Run("clearing recurrence clears interval", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		created, err := store.Create(ctx, models.NewBudgetItem{
			Name:               "Netflix",
			Category:           "Subscriptions",
			Amount:             amountPtr("-15.99"),
			Recurring:          true,
			RecurrenceInterval: models.IntervalPtr(models.RecurrenceMonthly),
		})
		require.NoError(t, err)
		require.NotNil(t, created.RecurrenceInterval)
		assert.Equal(t, models.RecurrenceMonthly, *created.RecurrenceInterval)

		updated, found, err := store.Update(ctx, created.ID, BudgetItemPatch{Recurring: Set(false)})
		require.NoError(t, err)
		require.True(t, found)
		assert.False(t, updated.Recurring)
		assert.Nil(t, updated.RecurrenceInterval)

		stored, _, err := store.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.False(t, stored.Recurring)
		assert.Nil(t, stored.RecurrenceInterval)
		assert.Equal(t, "Netflix", stored.Name)
	})

	t.Run("update changes only given fields", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		created, err := store.Create(ctx, models.NewBudgetItem{
			Name:        "Groceries",
			Category:    "Food",
			Amount:      amountPtr("-45.20"),
			Description: "weekly shop",
		})
		require.NoError(t, err)

		updated, found, err := store.Update(ctx, created.ID, BudgetItemPatch{Amount: Set(decimal.RequireFromString("-50.10"))})
		require.NoError(t, err)
		require.True(t, found)

		assert.Equal(t, "-50.10", updated.Amount.StringFixed(2))
		assert.Equal(t, "Groceries", updated.Name)
		assert.Equal(t, "Food", updated.Category)
		assert.Equal(t, "weekly shop", updated.Description)
		assert.Equal(t, created.CreatedAt, updated.CreatedAt)
		assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))
	})

	t.Run("update to recurring without interval is rejected", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		created, err := store.Create(ctx, models.NewBudgetItem{Category: "Gym", Amount: amountPtr("-30")})
		require.NoError(t, err)

		_, _, err = store.Update(ctx, created.ID, BudgetItemPatch{Recurring: Set(true)})
		assert.ErrorIs(t, err, ErrConstraintViolation)

		stored, _, err := store.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.False(t, stored.Recurring)
	})

	t.Run("empty patch returns current row", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		created, err := store.Create(ctx, models.NewBudgetItem{Category: "Food", Amount: amountPtr("-1")})
		require.NoError(t, err)

		current, found, err := store.Update(ctx, created.ID, BudgetItemPatch{})
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, created.UpdatedAt, current.UpdatedAt)
	})

	t.Run("update of unknown id is a silent no-op", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		_, err := store.Create(ctx, models.NewBudgetItem{Category: "Food", Amount: amountPtr("-1")})
		require.NoError(t, err)

		_, found, err := store.Update(ctx, uuid.New(), BudgetItemPatch{Name: Set("ghost")})
		require.NoError(t, err)
		assert.False(t, found)

		items, err := store.Find(ctx, nil)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "", items[0].Name)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		created, err := store.Create(ctx, models.NewBudgetItem{Category: "Food", Amount: amountPtr("-12.5")})
		require.NoError(t, err)

		deleted, found, err := store.Delete(ctx, created.ID)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, created.ID, deleted.ID)
		assert.Equal(t, "-12.50", deleted.Amount.StringFixed(2))

		_, found, err = store.Delete(ctx, created.ID)
		require.NoError(t, err)
		assert.False(t, found)

		_, found, err = store.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("find by id of unknown item", func(t *testing.T) {
		store := newStore(t)

		_, found, err := store.FindByID(context.Background(), uuid.New())
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("find filters by equality", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		food, err := store.Create(ctx, models.NewBudgetItem{Category: "Food", Amount: amountPtr("-45.20")})
		require.NoError(t, err)
		_, err = store.Create(ctx, models.NewBudgetItem{Category: "Food", Amount: amountPtr("-8")})
		require.NoError(t, err)
		_, err = store.Create(ctx, models.NewBudgetItem{Category: "Salary", Amount: amountPtr("3000")})
		require.NoError(t, err)

		all, err := store.Find(ctx, nil)
		require.NoError(t, err)
		assert.Len(t, all, 3)

		byCategory, err := store.Find(ctx, Filter{ByCategory("Food")})
		require.NoError(t, err)
		assert.Len(t, byCategory, 2)
		for _, item := range byCategory {
			assert.Equal(t, "Food", item.Category)
		}

		byID, err := store.Find(ctx, Filter{ByID(food.ID), ByCategory("Food")})
		require.NoError(t, err)
		require.Len(t, byID, 1)
		assert.Equal(t, food.ID, byID[0].ID)

		byCreatedAt, err := store.Find(ctx, Filter{ByCreatedAt(food.CreatedAt), ByID(food.ID)})
		require.NoError(t, err)
		assert.Len(t, byCreatedAt, 1)

		none, err := store.Find(ctx, Filter{ByCategory("Travel")})
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}
