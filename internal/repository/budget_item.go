package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"example.com/flow-budget/backend/internal/models"
)

const recurrenceCheck = "budget_items_recurrence_check"

// maxAmount ограничивает модуль суммы типом numeric(15,2).
var maxAmount = decimal.New(1, 13)

const budgetItemColumns = `id, name, category, amount::text, COALESCE(description, ''), recurring, recurrence_interval, created_at, updated_at`

type BudgetItemRepository struct {
	db *pgxpool.Pool
}

// NewBudgetItemRepository создает репозиторий статей бюджета поверх пула PostgreSQL.
func NewBudgetItemRepository(db *pgxpool.Pool) *BudgetItemRepository {
	return &BudgetItemRepository{db: db}
}

// FindByID возвращает статью по идентификатору; found == false, если её нет.
func (r *BudgetItemRepository) FindByID(ctx context.Context, id uuid.UUID) (models.BudgetItem, bool, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+budgetItemColumns+`
		 FROM "budgetItems"
		 WHERE id = $1`,
		id,
	)

	item, err := scanBudgetItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.BudgetItem{}, false, nil
		}
		return models.BudgetItem{}, false, err
	}

	return item, true, nil
}

// Find возвращает статьи, удовлетворяющие фильтру. Порядок не определён.
func (r *BudgetItemRepository) Find(ctx context.Context, filter Filter) ([]models.BudgetItem, error) {
	where, args := filter.where(1)

	rows, err := r.db.Query(ctx, `SELECT `+budgetItemColumns+` FROM "budgetItems"`+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]models.BudgetItem, 0)
	for rows.Next() {
		item, err := scanBudgetItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

// Create добавляет статью и возвращает сохранённую строку.
func (r *BudgetItemRepository) Create(ctx context.Context, newItem models.NewBudgetItem) (models.BudgetItem, error) {
	newItem = normalizeNewItem(newItem)
	if err := checkNewItem(newItem); err != nil {
		return models.BudgetItem{}, err
	}

	id := uuid.New()
	if newItem.ID != nil {
		id = *newItem.ID
	}

	row := r.db.QueryRow(ctx,
		`INSERT INTO "budgetItems" (id, name, category, amount, description, recurring, recurrence_interval)
		 VALUES ($1, $2, $3, $4::numeric, $5, $6, $7)
		 RETURNING `+budgetItemColumns,
		id, newItem.Name, newItem.Category, newItem.Amount.String(), newItem.Description, newItem.Recurring, intervalArg(newItem.RecurrenceInterval),
	)

	item, err := scanBudgetItem(row)
	if err != nil {
		return models.BudgetItem{}, translateError(err)
	}

	return item, nil
}

// Update применяет только заданные поля; для несуществующей статьи found == false без ошибки.
func (r *BudgetItemRepository) Update(ctx context.Context, id uuid.UUID, patch BudgetItemPatch) (models.BudgetItem, bool, error) {
	patch, err := patch.normalize()
	if err != nil {
		return models.BudgetItem{}, false, err
	}

	if patch.IsEmpty() {
		return r.FindByID(ctx, id)
	}

	args := []any{id}
	sets := make([]string, 0, 7)
	set := func(expr string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf(expr, len(args)))
	}

	if v, ok := patch.Name.Get(); ok {
		set("name = $%d", v)
	}
	if v, ok := patch.Category.Get(); ok {
		set("category = $%d", v)
	}
	if v, ok := patch.Amount.Get(); ok {
		set("amount = $%d::numeric", v.String())
	}
	if v, ok := patch.Description.Get(); ok {
		set("description = $%d", v)
	}
	if v, ok := patch.Recurring.Get(); ok {
		set("recurring = $%d", v)
	}
	if v, ok := patch.RecurrenceInterval.Get(); ok {
		set("recurrence_interval = $%d", intervalArg(v))
	}
	sets = append(sets, "updated_at = NOW()")

	row := r.db.QueryRow(ctx,
		`UPDATE "budgetItems"
		 SET `+strings.Join(sets, ", ")+`
		 WHERE id = $1
		 RETURNING `+budgetItemColumns,
		args...,
	)

	item, err := scanBudgetItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.BudgetItem{}, false, nil
		}
		return models.BudgetItem{}, false, translateError(err)
	}

	return item, true, nil
}

// Delete удаляет не более одной статьи и возвращает её состояние до удаления.
func (r *BudgetItemRepository) Delete(ctx context.Context, id uuid.UUID) (models.BudgetItem, bool, error) {
	row := r.db.QueryRow(ctx,
		`DELETE FROM "budgetItems"
		 WHERE id = $1
		 RETURNING `+budgetItemColumns,
		id,
	)

	item, err := scanBudgetItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.BudgetItem{}, false, nil
		}
		return models.BudgetItem{}, false, err
	}

	return item, true, nil
}

func scanBudgetItem(row pgx.Row) (models.BudgetItem, error) {
	var (
		item     models.BudgetItem
		amount   string
		interval *string
	)

	err := row.Scan(&item.ID, &item.Name, &item.Category, &amount, &item.Description, &item.Recurring, &interval, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return item, err
	}

	item.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return item, fmt.Errorf("parse amount %q: %w", amount, err)
	}

	if interval != nil {
		value := models.RecurrenceInterval(*interval)
		item.RecurrenceInterval = &value
	}
	item.CreatedAt = item.CreatedAt.UTC()
	item.UpdatedAt = item.UpdatedAt.UTC()

	return item, nil
}

func intervalArg(interval *models.RecurrenceInterval) *string {
	if interval == nil {
		return nil
	}
	value := string(*interval)
	return &value
}

// checkNewItem повторяет ограничения таблицы до обращения к БД.
func checkNewItem(newItem models.NewBudgetItem) error {
	if strings.TrimSpace(newItem.Category) == "" {
		return constraintViolation("", "category is required")
	}

	if newItem.Amount == nil {
		return constraintViolation("", "amount is required")
	}

	if err := checkAmount(*newItem.Amount); err != nil {
		return err
	}

	if newItem.RecurrenceInterval != nil && !newItem.RecurrenceInterval.Valid() {
		return constraintViolation(recurrenceCheck, "invalid recurrence interval "+string(*newItem.RecurrenceInterval))
	}

	if newItem.Recurring && newItem.RecurrenceInterval == nil {
		return constraintViolation(recurrenceCheck, "recurring items need a recurrence interval")
	}

	return nil
}

// checkAmount отклоняет суммы, не помещающиеся в numeric(15,2) после округления.
func checkAmount(amount decimal.Decimal) error {
	if amount.Round(2).Abs().GreaterThanOrEqual(maxAmount) {
		return constraintViolation("", "amount "+amount.String()+" exceeds numeric(15,2)")
	}
	return nil
}

// normalizeNewItem сбрасывает период у неповторяющейся статьи.
func normalizeNewItem(newItem models.NewBudgetItem) models.NewBudgetItem {
	if !newItem.Recurring {
		newItem.RecurrenceInterval = nil
	}
	return newItem
}
