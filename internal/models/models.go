package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RecurrenceInterval string

const (
	RecurrenceWeekly  RecurrenceInterval = "weekly"
	RecurrenceMonthly RecurrenceInterval = "monthly"
	RecurrenceYearly  RecurrenceInterval = "yearly"
)

// RecurrenceIntervals перечисляет допустимые периоды повторения.
var RecurrenceIntervals = []RecurrenceInterval{RecurrenceWeekly, RecurrenceMonthly, RecurrenceYearly}

// Valid сообщает, является ли значение одним из допустимых периодов.
func (r RecurrenceInterval) Valid() bool {
	switch r {
	case RecurrenceWeekly, RecurrenceMonthly, RecurrenceYearly:
		return true
	default:
		return false
	}
}

// ParseRecurrenceInterval разбирает строку в период повторения.
func ParseRecurrenceInterval(value string) (RecurrenceInterval, bool) {
	interval := RecurrenceInterval(value)
	return interval, interval.Valid()
}

// BudgetItem описывает статью бюджета: доход (положительная сумма) или расход (отрицательная).
type BudgetItem struct {
	ID                 uuid.UUID           `json:"id"`
	Name               string              `json:"name"`
	Category           string              `json:"category"`
	Amount             decimal.Decimal     `json:"amount"`
	Description        string              `json:"description"`
	Recurring          bool                `json:"recurring"`
	RecurrenceInterval *RecurrenceInterval `json:"recurrence_interval"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// NewBudgetItem содержит поля для вставки. Пустой ID генерируется при вставке,
// пустой Amount считается отсутствующим.
type NewBudgetItem struct {
	ID                 *uuid.UUID
	Name               string
	Category           string
	Amount             *decimal.Decimal
	Description        string
	Recurring          bool
	RecurrenceInterval *RecurrenceInterval
}

// IntervalPtr возвращает указатель на период повторения.
func IntervalPtr(r RecurrenceInterval) *RecurrenceInterval {
	return &r
}
