package client

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"example.com/flow-budget/backend/internal/models"
)

type FormState int

const (
	FormCollapsed FormState = iota
	FormEditing
	FormSubmitting
)

func (s FormState) String() string {
	switch s {
	case FormCollapsed:
		return "collapsed"
	case FormEditing:
		return "editing"
	case FormSubmitting:
		return "submitting"
	default:
		return "unknown"
	}
}

var (
	ErrFormCollapsed    = errors.New("form is collapsed")
	ErrSubmitInProgress = errors.New("submission already in progress")
)

// ItemWriter выполняет изменения, которые отправляет форма.
type ItemWriter interface {
	Create(ctx context.Context, input ItemInput) (models.BudgetItem, error)
	Update(ctx context.Context, id uuid.UUID, update ItemUpdate) (*models.BudgetItem, error)
}

// Invalidator сбрасывает кэш списка после успешного изменения.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Form собирает, проверяет и отправляет одну статью. Форма создания очищается
// после успеха, форма редактирования сохраняет значения. Не потокобезопасна.
type Form struct {
	writer      ItemWriter
	invalidator Invalidator
	requireName bool

	state   FormState
	editID  *uuid.UUID
	initial FormValues
	values  FormValues
	expense bool
	errors  FieldErrors
}

type FormOption func(*Form)

// WithRequiredName включает обязательное поле name.
func WithRequiredName() FormOption {
	return func(f *Form) {
		f.requireName = true
	}
}

// WithInvalidator задает кэш списка, сбрасываемый после успешной отправки.
func WithInvalidator(invalidator Invalidator) FormOption {
	return func(f *Form) {
		f.invalidator = invalidator
	}
}

// NewCreateForm создает форму новой статьи; по умолчанию это расход.
func NewCreateForm(writer ItemWriter, opts ...FormOption) *Form {
	f := &Form{writer: writer, expense: true, errors: FieldErrors{}}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewEditForm создает форму редактирования существующей статьи.
func NewEditForm(writer ItemWriter, item models.BudgetItem, opts ...FormOption) *Form {
	f := NewCreateForm(writer, opts...)
	id := item.ID
	f.editID = &id
	f.initial = valuesFromItem(item)
	f.values = f.initial
	f.expense = item.Amount.IsNegative()
	return f
}

func (f *Form) State() FormState {
	return f.state
}

func (f *Form) Values() FormValues {
	return f.values
}

func (f *Form) IsExpense() bool {
	return f.expense
}

// Errors возвращает копию ошибок по полям после последней проверки.
func (f *Form) Errors() FieldErrors {
	out := make(FieldErrors, len(f.errors))
	for k, v := range f.errors {
		out[k] = v
	}
	return out
}

// Expand раскрывает форму для ввода.
func (f *Form) Expand() {
	if f.state == FormCollapsed {
		f.state = FormEditing
	}
}

// Collapse скрывает форму; введенные значения сохраняются.
func (f *Form) Collapse() {
	if f.state == FormEditing {
		f.state = FormCollapsed
	}
}

// Toggle переключает между свернутым и раскрытым состоянием.
func (f *Form) Toggle() {
	switch f.state {
	case FormCollapsed:
		f.Expand()
	case FormEditing:
		f.Collapse()
	}
}

func (f *Form) SetName(value string) {
	f.values.Name = value
	delete(f.errors, FieldName)
}

func (f *Form) SetCategory(value string) {
	f.values.Category = value
	delete(f.errors, FieldCategory)
}

func (f *Form) SetAmount(value string) {
	f.values.Amount = value
	delete(f.errors, FieldAmount)
}

func (f *Form) SetDescription(value string) {
	f.values.Description = value
	delete(f.errors, FieldDescription)
}

// SetRecurring включает или выключает повторение; выключение сбрасывает период.
func (f *Form) SetRecurring(recurring bool) {
	f.values.Recurring = recurring
	if !recurring {
		f.values.RecurrenceInterval = ""
		delete(f.errors, FieldRecurrenceInterval)
	}
}

func (f *Form) SetRecurrenceInterval(value string) {
	f.values.RecurrenceInterval = value
	delete(f.errors, FieldRecurrenceInterval)
}

// SetExpense выбирает знак суммы: расход (минус) или доход (плюс).
func (f *Form) SetExpense(expense bool) {
	f.expense = expense
}

func (f *Form) ToggleExpense() {
	f.expense = !f.expense
}

// Submit проверяет и отправляет форму. *ValidationError означает, что запрос не отправлялся.
// При ошибке запроса форма возвращается к редактированию с сохранёнными значениями.
// Правка статьи, которой уже нет на сервере, возвращает nil.
func (f *Form) Submit(ctx context.Context) (*models.BudgetItem, error) {
	switch f.state {
	case FormCollapsed:
		return nil, ErrFormCollapsed
	case FormSubmitting:
		return nil, ErrSubmitInProgress
	}

	errs := Validate(f.values, f.requireName)
	if len(errs) > 0 {
		f.errors = errs
		return nil, &ValidationError{Fields: errs}
	}
	f.errors = FieldErrors{}

	magnitude, _ := parseAmount(f.values.Amount)
	amount := magnitude
	if f.expense {
		amount = magnitude.Neg()
	}

	f.state = FormSubmitting

	var (
		item *models.BudgetItem
		err  error
	)
	if f.editID == nil {
		var created models.BudgetItem
		created, err = f.writer.Create(ctx, f.input(amount))
		item = &created
	} else {
		item, err = f.writer.Update(ctx, *f.editID, f.update(amount))
	}

	if err != nil {
		f.state = FormEditing
		return nil, err
	}

	f.state = FormCollapsed
	if f.editID == nil {
		f.reset()
	} else if item != nil {
		f.initial = valuesFromItem(*item)
		f.values = f.initial
		f.expense = item.Amount.IsNegative()
	}

	if f.invalidator != nil {
		// Мутация уже прошла; ошибка перезапроса оставляет список устаревшим до следующего чтения.
		_ = f.invalidator.Invalidate(ctx)
	}

	return item, nil
}

// Reset возвращает форму к исходным значениям и сворачивает её.
func (f *Form) Reset() {
	if f.state == FormSubmitting {
		return
	}
	f.reset()
	f.state = FormCollapsed
}

func (f *Form) reset() {
	f.values = f.initial
	f.errors = FieldErrors{}
	if f.editID == nil {
		f.expense = true
	}
}

func (f *Form) input(amount decimal.Decimal) ItemInput {
	input := ItemInput{
		Name:        strings.TrimSpace(f.values.Name),
		Category:    strings.TrimSpace(f.values.Category),
		Amount:      amount,
		Description: strings.TrimSpace(f.values.Description),
		Recurring:   f.values.Recurring,
	}
	if f.values.Recurring {
		input.RecurrenceInterval = models.IntervalPtr(models.RecurrenceInterval(strings.TrimSpace(f.values.RecurrenceInterval)))
	}
	return input
}

func (f *Form) update(amount decimal.Decimal) ItemUpdate {
	name := strings.TrimSpace(f.values.Name)
	category := strings.TrimSpace(f.values.Category)
	description := strings.TrimSpace(f.values.Description)
	recurring := f.values.Recurring

	update := ItemUpdate{
		Name:        &name,
		Category:    &category,
		Amount:      &amount,
		Description: &description,
		Recurring:   &recurring,
	}
	if recurring {
		update.RecurrenceInterval = models.IntervalPtr(models.RecurrenceInterval(strings.TrimSpace(f.values.RecurrenceInterval)))
	} else {
		update.ClearRecurrenceInterval = true
	}
	return update
}

func valuesFromItem(item models.BudgetItem) FormValues {
	values := FormValues{
		Name:        item.Name,
		Category:    item.Category,
		Amount:      item.Amount.Abs().StringFixed(2),
		Description: item.Description,
		Recurring:   item.Recurring,
	}
	if item.RecurrenceInterval != nil {
		values.RecurrenceInterval = string(*item.RecurrenceInterval)
	}
	return values
}
