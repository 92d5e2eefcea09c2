package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"example.com/flow-budget/backend/internal/models"
)

// MemoryBudgetItemRepository хранит статьи в памяти и проверяет те же ограничения,
// что и таблица budgetItems. Используется в тестах и локальном запуске.
type MemoryBudgetItemRepository struct {
	mu    sync.RWMutex
	items map[uuid.UUID]models.BudgetItem
	now   func() time.Time
}

// NewMemoryBudgetItemRepository создает пустое хранилище в памяти.
func NewMemoryBudgetItemRepository() *MemoryBudgetItemRepository {
	return &MemoryBudgetItemRepository{
		items: make(map[uuid.UUID]models.BudgetItem),
		now: func() time.Time {
			return time.Now().UTC().Truncate(time.Microsecond)
		},
	}
}

func (r *MemoryBudgetItemRepository) FindByID(_ context.Context, id uuid.UUID) (models.BudgetItem, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return models.BudgetItem{}, false, nil
	}
	return cloneItem(item), true, nil
}

func (r *MemoryBudgetItemRepository) Find(_ context.Context, filter Filter) ([]models.BudgetItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]models.BudgetItem, 0, len(r.items))
	for _, item := range r.items {
		if filter.Matches(item) {
			items = append(items, cloneItem(item))
		}
	}
	return items, nil
}

func (r *MemoryBudgetItemRepository) Create(_ context.Context, newItem models.NewBudgetItem) (models.BudgetItem, error) {
	newItem = normalizeNewItem(newItem)
	if err := checkNewItem(newItem); err != nil {
		return models.BudgetItem{}, err
	}

	id := uuid.New()
	if newItem.ID != nil {
		id = *newItem.ID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[id]; exists {
		return models.BudgetItem{}, constraintViolation("budgetItems_pkey", "duplicate id "+id.String())
	}

	ts := r.now()
	item := models.BudgetItem{
		ID:                 id,
		Name:               newItem.Name,
		Category:           newItem.Category,
		Amount:             newItem.Amount.Round(2),
		Description:        newItem.Description,
		Recurring:          newItem.Recurring,
		RecurrenceInterval: copyInterval(newItem.RecurrenceInterval),
		CreatedAt:          ts,
		UpdatedAt:          ts,
	}
	r.items[id] = item

	return cloneItem(item), nil
}

func (r *MemoryBudgetItemRepository) Update(_ context.Context, id uuid.UUID, patch BudgetItemPatch) (models.BudgetItem, bool, error) {
	patch, err := patch.normalize()
	if err != nil {
		return models.BudgetItem{}, false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[id]
	if !ok {
		return models.BudgetItem{}, false, nil
	}

	if patch.IsEmpty() {
		return cloneItem(current), true, nil
	}

	updated := patch.apply(current)
	if updated.Recurring && updated.RecurrenceInterval == nil {
		return models.BudgetItem{}, false, constraintViolation(recurrenceCheck, "recurring items need a recurrence interval")
	}
	if !updated.Recurring && updated.RecurrenceInterval != nil {
		return models.BudgetItem{}, false, constraintViolation(recurrenceCheck, "recurrence interval is only allowed for recurring items")
	}

	updated.UpdatedAt = r.now()
	r.items[id] = updated

	return cloneItem(updated), true, nil
}

func (r *MemoryBudgetItemRepository) Delete(_ context.Context, id uuid.UUID) (models.BudgetItem, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return models.BudgetItem{}, false, nil
	}
	delete(r.items, id)

	return cloneItem(item), true, nil
}

func cloneItem(item models.BudgetItem) models.BudgetItem {
	item.RecurrenceInterval = copyInterval(item.RecurrenceInterval)
	return item
}
