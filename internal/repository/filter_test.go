package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"example.com/flow-budget/backend/internal/models"
)

func TestFilterWhere(t *testing.T) {
	id := uuid.New()

	where, args := Filter{ByCategory("Food"), ByID(id)}.where(1)

	assert.Equal(t, " WHERE category = $1 AND id = $2", where)
	assert.Equal(t, []any{"Food", id}, args)
}

func TestFilterWhereEmpty(t *testing.T) {
	where, args := Filter(nil).where(1)

	assert.Empty(t, where)
	assert.Nil(t, args)
}

func TestFilterMatches(t *testing.T) {
	createdAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	item := models.BudgetItem{ID: uuid.New(), Category: "Food", CreatedAt: createdAt}

	assert.True(t, Filter{}.Matches(item))
	assert.True(t, Filter{ByCategory("Food"), ByCreatedAt(createdAt.In(time.FixedZone("MSK", 3*3600)))}.Matches(item))
	assert.False(t, Filter{ByCategory("Food"), ByID(uuid.New())}.Matches(item))
}
