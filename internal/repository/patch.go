package repository

import (
	"strings"

	"github.com/shopspring/decimal"

	"example.com/flow-budget/backend/internal/models"
)

// Optional описывает поле частичного обновления: не задано (не меняется) или задано.
// Для nullable-колонок значение само является указателем: Set[*T](nil) записывает NULL.
type Optional[T any] struct {
	value T
	set   bool
}

// Set возвращает заполненное значение.
func Set[T any](value T) Optional[T] {
	return Optional[T]{value: value, set: true}
}

// Unset возвращает пустое значение: поле не изменяется.
func Unset[T any]() Optional[T] {
	return Optional[T]{}
}

func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

func (o Optional[T]) IsSet() bool {
	return o.set
}

// BudgetItemPatch перечисляет поля, которые записывает обновление.
type BudgetItemPatch struct {
	Name               Optional[string]
	Category           Optional[string]
	Amount             Optional[decimal.Decimal]
	Description        Optional[string]
	Recurring          Optional[bool]
	RecurrenceInterval Optional[*models.RecurrenceInterval]
}

// IsEmpty сообщает, что патч ничего не меняет.
func (p BudgetItemPatch) IsEmpty() bool {
	return !p.Name.IsSet() &&
		!p.Category.IsSet() &&
		!p.Amount.IsSet() &&
		!p.Description.IsSet() &&
		!p.Recurring.IsSet() &&
		!p.RecurrenceInterval.IsSet()
}

// normalize сбрасывает период при выключении повторения и отклоняет недопустимые значения.
func (p BudgetItemPatch) normalize() (BudgetItemPatch, error) {
	if recurring, ok := p.Recurring.Get(); ok && !recurring {
		p.RecurrenceInterval = Set[*models.RecurrenceInterval](nil)
	}

	if category, ok := p.Category.Get(); ok && strings.TrimSpace(category) == "" {
		return p, constraintViolation("", "category is required")
	}

	if amount, ok := p.Amount.Get(); ok {
		if err := checkAmount(amount); err != nil {
			return p, err
		}
	}

	if interval, ok := p.RecurrenceInterval.Get(); ok && interval != nil && !interval.Valid() {
		return p, constraintViolation(recurrenceCheck, "invalid recurrence interval "+string(*interval))
	}

	if recurring, ok := p.Recurring.Get(); ok && recurring {
		if interval, set := p.RecurrenceInterval.Get(); set && interval == nil {
			return p, constraintViolation(recurrenceCheck, "recurring items need a recurrence interval")
		}
	}

	return p, nil
}

// apply возвращает копию записи с применёнными полями патча.
func (p BudgetItemPatch) apply(item models.BudgetItem) models.BudgetItem {
	if v, ok := p.Name.Get(); ok {
		item.Name = v
	}
	if v, ok := p.Category.Get(); ok {
		item.Category = v
	}
	if v, ok := p.Amount.Get(); ok {
		item.Amount = v.Round(2)
	}
	if v, ok := p.Description.Get(); ok {
		item.Description = v
	}
	if v, ok := p.Recurring.Get(); ok {
		item.Recurring = v
	}
	if v, ok := p.RecurrenceInterval.Get(); ok {
		item.RecurrenceInterval = copyInterval(v)
	}
	return item
}

func copyInterval(interval *models.RecurrenceInterval) *models.RecurrenceInterval {
	if interval == nil {
		return nil
	}
	value := *interval
	return &value
}
