package handlers

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"example.com/flow-budget/backend/internal/models"
	"example.com/flow-budget/backend/internal/repository"
)

type CreateBudgetItemRequest struct {
	Name               *string          `json:"name"`
	Category           *string          `json:"category"`
	Amount             *decimal.Decimal `json:"amount"`
	Description        *string          `json:"description"`
	Recurring          *bool            `json:"recurring"`
	RecurrenceInterval *string          `json:"recurrence_interval" validate:"omitempty,oneof=weekly monthly yearly"`
}

// toNewBudgetItem проверяет наличие обязательных полей и собирает запись для вставки.
func (r CreateBudgetItemRequest) toNewBudgetItem() (models.NewBudgetItem, error) {
	if r.Category == nil || strings.TrimSpace(*r.Category) == "" {
		return models.NewBudgetItem{}, errors.New("category is required")
	}
	if r.Amount == nil {
		return models.NewBudgetItem{}, errors.New("amount is required")
	}

	item := models.NewBudgetItem{
		Category: strings.TrimSpace(*r.Category),
		Amount:   r.Amount,
	}
	if r.Name != nil {
		item.Name = strings.TrimSpace(*r.Name)
	}
	if r.Description != nil {
		item.Description = strings.TrimSpace(*r.Description)
	}
	if r.Recurring != nil {
		item.Recurring = *r.Recurring
	}
	if r.RecurrenceInterval != nil {
		item.RecurrenceInterval = models.IntervalPtr(models.RecurrenceInterval(*r.RecurrenceInterval))
	}

	return item, nil
}

// decodePatch превращает тело PUT в патч: отсутствующее поле не меняется,
// null в recurrence_interval записывается как NULL.
func decodePatch(raw map[string]json.RawMessage) (repository.BudgetItemPatch, error) {
	var patch repository.BudgetItemPatch

	for key, value := range raw {
		null := isNull(value)

		switch key {
		case "name":
			var name string
			if !null {
				if err := json.Unmarshal(value, &name); err != nil {
					return patch, errors.New("name must be a string")
				}
			}
			patch.Name = repository.Set(strings.TrimSpace(name))
		case "category":
			var category string
			if null {
				return patch, errors.New("category cannot be null")
			}
			if err := json.Unmarshal(value, &category); err != nil {
				return patch, errors.New("category must be a string")
			}
			if strings.TrimSpace(category) == "" {
				return patch, errors.New("category cannot be empty")
			}
			patch.Category = repository.Set(strings.TrimSpace(category))
		case "amount":
			var amount decimal.Decimal
			if null {
				return patch, errors.New("amount cannot be null")
			}
			if err := json.Unmarshal(value, &amount); err != nil {
				return patch, errors.New("amount must be a number")
			}
			patch.Amount = repository.Set(amount)
		case "description":
			var description string
			if !null {
				if err := json.Unmarshal(value, &description); err != nil {
					return patch, errors.New("description must be a string")
				}
			}
			patch.Description = repository.Set(strings.TrimSpace(description))
		case "recurring":
			var recurring bool
			if null {
				return patch, errors.New("recurring cannot be null")
			}
			if err := json.Unmarshal(value, &recurring); err != nil {
				return patch, errors.New("recurring must be a boolean")
			}
			patch.Recurring = repository.Set(recurring)
		case "recurrence_interval":
			if null {
				patch.RecurrenceInterval = repository.Set[*models.RecurrenceInterval](nil)
				continue
			}
			var text string
			if err := json.Unmarshal(value, &text); err != nil {
				return patch, errors.New("recurrence_interval must be a string")
			}
			interval, ok := models.ParseRecurrenceInterval(text)
			if !ok {
				return patch, errors.New("recurrence_interval must be one of weekly, monthly, yearly")
			}
			patch.RecurrenceInterval = repository.Set(&interval)
		}
	}

	return patch, nil
}

// parseFilter строит фильтр из параметров запроса category, id и created_at.
func parseFilter(category, id, createdAt string) (repository.Filter, error) {
	var filter repository.Filter

	if id = strings.TrimSpace(id); id != "" {
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, errors.New("invalid id")
		}
		filter = append(filter, repository.ByID(parsed))
	}

	if category = strings.TrimSpace(category); category != "" {
		filter = append(filter, repository.ByCategory(category))
	}

	if createdAt = strings.TrimSpace(createdAt); createdAt != "" {
		parsed, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, errors.New("invalid created_at, expected RFC3339")
		}
		filter = append(filter, repository.ByCreatedAt(parsed))
	}

	return filter, nil
}

func isNull(value json.RawMessage) bool {
	return strings.TrimSpace(string(value)) == "null"
}
