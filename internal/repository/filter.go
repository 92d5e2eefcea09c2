package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"example.com/flow-budget/backend/internal/models"
)

// Predicate задает условие равенства по одной колонке статьи.
type Predicate interface {
	column() string
	value() any
	matches(item models.BudgetItem) bool
}

// Filter объединяет условия через AND; пустой фильтр подходит любой статье.
type Filter []Predicate

type idEquals uuid.UUID

func (p idEquals) column() string { return "id" }
func (p idEquals) value() any     { return uuid.UUID(p) }
func (p idEquals) matches(item models.BudgetItem) bool {
	return item.ID == uuid.UUID(p)
}

type categoryEquals string

func (p categoryEquals) column() string { return "category" }
func (p categoryEquals) value() any     { return string(p) }
func (p categoryEquals) matches(item models.BudgetItem) bool {
	return item.Category == string(p)
}

type createdAtEquals time.Time

func (p createdAtEquals) column() string { return "created_at" }
func (p createdAtEquals) value() any     { return time.Time(p) }
func (p createdAtEquals) matches(item models.BudgetItem) bool {
	return item.CreatedAt.Equal(time.Time(p))
}

// ByID отбирает запись с указанным идентификатором.
func ByID(id uuid.UUID) Predicate {
	return idEquals(id)
}

// ByCategory отбирает записи указанной категории.
func ByCategory(category string) Predicate {
	return categoryEquals(category)
}

// ByCreatedAt отбирает записи, созданные ровно в указанный момент.
func ByCreatedAt(createdAt time.Time) Predicate {
	return createdAtEquals(createdAt)
}

// Matches проверяет, удовлетворяет ли запись всем условиям фильтра.
func (f Filter) Matches(item models.BudgetItem) bool {
	for _, p := range f {
		if !p.matches(item) {
			return false
		}
	}
	return true
}

// where строит WHERE-часть запроса; плейсхолдеры нумеруются с firstArg.
func (f Filter) where(firstArg int) (string, []any) {
	if len(f) == 0 {
		return "", nil
	}

	conds := make([]string, 0, len(f))
	args := make([]any, 0, len(f))
	for i, p := range f {
		conds = append(conds, fmt.Sprintf("%s = $%d", p.column(), firstArg+i))
		args = append(args, p.value())
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}
