package client

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/flow-budget/backend/internal/models"
)

type fakeWriter struct {
	creates []ItemInput
	updates []ItemUpdate
	err     error
	missing bool
}

func (w *fakeWriter) Create(_ context.Context, input ItemInput) (models.BudgetItem, error) {
	w.creates = append(w.creates, input)
	if w.err != nil {
		return models.BudgetItem{}, w.err
	}
	return models.BudgetItem{
		ID:                 uuid.New(),
		Name:               input.Name,
		Category:           input.Category,
		Amount:             input.Amount,
		Description:        input.Description,
		Recurring:          input.Recurring,
		RecurrenceInterval: input.RecurrenceInterval,
	}, nil
}

func (w *fakeWriter) Update(_ context.Context, id uuid.UUID, update ItemUpdate) (*models.BudgetItem, error) {
	w.updates = append(w.updates, update)
	if w.err != nil {
		return nil, w.err
	}
	if w.missing {
		return nil, nil
	}
	item := models.BudgetItem{
		ID:                 id,
		Name:               *update.Name,
		Category:           *update.Category,
		Amount:             *update.Amount,
		Description:        *update.Description,
		Recurring:          *update.Recurring,
		RecurrenceInterval: update.RecurrenceInterval,
	}
	return &item, nil
}

type countingInvalidator struct {
	calls int
}

func (i *countingInvalidator) Invalidate(context.Context) error {
	i.calls++
	return errors.New("offline")
}

func fillForm(f *Form) {
	f.SetName("Groceries")
	f.SetCategory("Food")
	f.SetAmount("45.20")
}

func TestFormStateTransitions(t *testing.T) {
	f := NewCreateForm(&fakeWriter{})
	assert.Equal(t, FormCollapsed, f.State())

	f.Toggle()
	assert.Equal(t, FormEditing, f.State())

	f.Toggle()
	assert.Equal(t, FormCollapsed, f.State())

	f.Expand()
	f.Collapse()
	assert.Equal(t, FormCollapsed, f.State())
}

func TestFormSubmitWhileCollapsed(t *testing.T) {
	writer := &fakeWriter{}
	f := NewCreateForm(writer)
	fillForm(f)

	_, err := f.Submit(context.Background())

	assert.ErrorIs(t, err, ErrFormCollapsed)
	assert.Empty(t, writer.creates)
}

func TestFormCreatesExpenseByDefault(t *testing.T) {
	writer := &fakeWriter{}
	invalidator := &countingInvalidator{}
	f := NewCreateForm(writer, WithInvalidator(invalidator))
	f.Expand()
	fillForm(f)

	item, err := f.Submit(context.Background())
	require.NoError(t, err)

	require.Len(t, writer.creates, 1)
	assert.Equal(t, "-45.2", writer.creates[0].Amount.String())
	assert.Equal(t, "-45.20", item.Amount.StringFixed(2))
	assert.Nil(t, writer.creates[0].RecurrenceInterval)

	assert.Equal(t, FormCollapsed, f.State())
	assert.Equal(t, FormValues{}, f.Values())
	assert.True(t, f.IsExpense())
	assert.Equal(t, 1, invalidator.calls)
}

func TestFormIncomeKeepsPositiveAmount(t *testing.T) {
	writer := &fakeWriter{}
	f := NewCreateForm(writer)
	f.Expand()
	fillForm(f)
	f.ToggleExpense()
	require.False(t, f.IsExpense())

	_, err := f.Submit(context.Background())
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("45.20").Equal(writer.creates[0].Amount))
}

func TestFormRecurringWithoutIntervalBlocksSubmission(t *testing.T) {
	writer := &fakeWriter{}
	invalidator := &countingInvalidator{}
	f := NewCreateForm(writer, WithInvalidator(invalidator))
	f.Expand()
	fillForm(f)
	f.SetRecurring(true)

	_, err := f.Submit(context.Background())

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "Please select a frequency for recurring items", validationErr.Fields[FieldRecurrenceInterval])
	assert.Equal(t, validationErr.Fields, f.Errors())
	assert.Empty(t, writer.creates)
	assert.Zero(t, invalidator.calls)
	assert.Equal(t, FormEditing, f.State())

	f.SetRecurrenceInterval("monthly")
	assert.Empty(t, f.Errors())

	_, err = f.Submit(context.Background())
	require.NoError(t, err)
	require.Len(t, writer.creates, 1)
	require.NotNil(t, writer.creates[0].RecurrenceInterval)
	assert.Equal(t, models.RecurrenceMonthly, *writer.creates[0].RecurrenceInterval)
}

func TestFormTurningRecurringOffClearsInterval(t *testing.T) {
	f := NewCreateForm(&fakeWriter{})
	f.SetRecurring(true)
	f.SetRecurrenceInterval("weekly")

	f.SetRecurring(false)

	assert.Empty(t, f.Values().RecurrenceInterval)
}

func TestFormFailedRequestKeepsValues(t *testing.T) {
	writer := &fakeWriter{err: errors.New("connection refused")}
	invalidator := &countingInvalidator{}
	f := NewCreateForm(writer, WithInvalidator(invalidator))
	f.Expand()
	fillForm(f)

	_, err := f.Submit(context.Background())

	assert.EqualError(t, err, "connection refused")
	assert.Equal(t, FormEditing, f.State())
	assert.Equal(t, "Groceries", f.Values().Name)
	assert.Equal(t, "45.20", f.Values().Amount)
	assert.Zero(t, invalidator.calls)
}

func TestEditFormLoadsItem(t *testing.T) {
	interval := models.RecurrenceMonthly
	item := models.BudgetItem{
		ID:                 uuid.New(),
		Name:               "Netflix",
		Category:           "Subscriptions",
		Amount:             decimal.RequireFromString("-15.99"),
		Recurring:          true,
		RecurrenceInterval: &interval,
	}

	f := NewEditForm(&fakeWriter{}, item)

	assert.True(t, f.IsExpense())
	assert.Equal(t, FormValues{
		Name:               "Netflix",
		Category:           "Subscriptions",
		Amount:             "15.99",
		Recurring:          true,
		RecurrenceInterval: "monthly",
	}, f.Values())
}

func TestEditFormClearsIntervalWhenRecurrenceTurnedOff(t *testing.T) {
	interval := models.RecurrenceMonthly
	item := models.BudgetItem{
		ID:                 uuid.New(),
		Name:               "Netflix",
		Category:           "Subscriptions",
		Amount:             decimal.RequireFromString("-15.99"),
		Recurring:          true,
		RecurrenceInterval: &interval,
	}
	writer := &fakeWriter{}
	f := NewEditForm(writer, item)
	f.Expand()
	f.SetRecurring(false)

	saved, err := f.Submit(context.Background())
	require.NoError(t, err)

	require.Len(t, writer.updates, 1)
	update := writer.updates[0]
	assert.True(t, update.ClearRecurrenceInterval)
	assert.False(t, *update.Recurring)
	assert.Equal(t, "-15.99", update.Amount.String())

	require.NotNil(t, saved)
	assert.False(t, saved.Recurring)
	assert.Equal(t, FormCollapsed, f.State())
	assert.False(t, f.Values().Recurring)
	assert.Equal(t, "Netflix", f.Values().Name)
}

func TestEditFormOfDeletedItem(t *testing.T) {
	item := models.BudgetItem{ID: uuid.New(), Category: "Food", Amount: decimal.RequireFromString("-1")}
	f := NewEditForm(&fakeWriter{missing: true}, item)
	f.Expand()

	saved, err := f.Submit(context.Background())

	require.NoError(t, err)
	assert.Nil(t, saved)
	assert.Equal(t, FormCollapsed, f.State())
}

func TestFormReset(t *testing.T) {
	f := NewCreateForm(&fakeWriter{})
	f.Expand()
	fillForm(f)
	f.SetExpense(false)

	f.Reset()

	assert.Equal(t, FormCollapsed, f.State())
	assert.Equal(t, FormValues{}, f.Values())
	assert.True(t, f.IsExpense())
}
