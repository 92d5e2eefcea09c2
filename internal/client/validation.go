package client

import (
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"example.com/flow-budget/backend/internal/models"
)

const (
	FieldName               = "name"
	FieldCategory           = "category"
	FieldAmount             = "amount"
	FieldDescription        = "description"
	FieldRecurrenceInterval = "recurrence_interval"
)

var (
	namePattern     = regexp.MustCompile(`^[a-zA-Z0-9\s\-_.,&()]+$`)
	categoryPattern = regexp.MustCompile(`^[a-zA-Z0-9\s\-_&]+$`)
	amountPattern   = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)
	numberPrefix    = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)
	maxAmount       = decimal.RequireFromString("999999.99")
)

var formValidator = newFormValidator()

func newFormValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("item_name", func(fl validator.FieldLevel) bool {
		return namePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("item_category", func(fl validator.FieldLevel) bool {
		return categoryPattern.MatchString(fl.Field().String())
	})
	return v
}

// FormValues хранит введённые пользователем значения формы.
type FormValues struct {
	Name               string
	Category           string
	Amount             string
	Description        string
	Recurring          bool
	RecurrenceInterval string
}

// FieldErrors сопоставляет полю сообщение об ошибке.
type FieldErrors map[string]string

// ValidationError останавливает отправку до обращения к сети.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+": "+e.Fields[key])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

type textRule struct {
	label string
	tags  string
	min   string
	max   string
}

var (
	nameRule     = textRule{label: "Name", tags: "required,min=2,max=100,item_name", min: "2", max: "100"}
	categoryRule = textRule{label: "Category", tags: "required,min=2,max=50,item_category", min: "2", max: "50"}
)

// check возвращает сообщение первого нарушенного правила или "".
func (r textRule) check(value string) string {
	err := formValidator.Var(value, r.tags)
	if err == nil {
		return ""
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok || len(validationErrs) == 0 {
		return r.label + " is invalid"
	}

	switch validationErrs[0].Tag() {
	case "required":
		return r.label + " is required"
	case "min":
		return r.label + " must be at least " + r.min + " characters"
	case "max":
		return r.label + " cannot exceed " + r.max + " characters"
	default:
		return r.label + " contains invalid characters"
	}
}

// Validate проверяет значения формы; пустой результат означает, что отправка разрешена.
func Validate(values FormValues, requireName bool) FieldErrors {
	errs := FieldErrors{}

	name := strings.TrimSpace(values.Name)
	if requireName || name != "" {
		if msg := nameRule.check(name); msg != "" {
			errs[FieldName] = msg
		}
	}

	if msg := categoryRule.check(strings.TrimSpace(values.Category)); msg != "" {
		errs[FieldCategory] = msg
	}

	if _, msg := parseAmount(values.Amount); msg != "" {
		errs[FieldAmount] = msg
	}

	if err := formValidator.Var(strings.TrimSpace(values.Description), "max=500"); err != nil {
		errs[FieldDescription] = "Description cannot exceed 500 characters"
	}

	interval := strings.TrimSpace(values.RecurrenceInterval)
	if values.Recurring && interval == "" {
		errs[FieldRecurrenceInterval] = "Please select a frequency for recurring items"
	}
	if interval != "" {
		if _, ok := models.ParseRecurrenceInterval(interval); !ok {
			errs[FieldRecurrenceInterval] = "Invalid frequency selected"
		}
	}

	return errs
}

// parseAmount разбирает положительную сумму с не более чем двумя знаками после точки.
// Число читается по начальному префиксу строки, поэтому "12abc" проходит проверки
// величины и отклоняется только по формату.
func parseAmount(raw string) (decimal.Decimal, string) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return decimal.Zero, "Amount is required"
	}

	amount, ok := leadingNumber(value)
	if !ok {
		return decimal.Zero, "Please enter a valid number"
	}
	if !amount.IsPositive() {
		return decimal.Zero, "Amount must be greater than 0"
	}
	if amount.GreaterThan(maxAmount) {
		return decimal.Zero, "Amount cannot exceed $999,999.99"
	}
	if !amountPattern.MatchString(value) {
		return decimal.Zero, "Amount can have maximum 2 decimal places"
	}

	return amount, ""
}

// leadingNumber читает число в начале строки и отбрасывает остаток.
func leadingNumber(value string) (decimal.Decimal, bool) {
	prefix := numberPrefix.FindString(value)
	if prefix == "" {
		return decimal.Zero, false
	}

	// Приводим "+.5" и "12." к виду, который принимает decimal.
	negative := strings.HasPrefix(prefix, "-")
	prefix = strings.TrimLeft(prefix, "+-")
	mantissa, exponent, _ := strings.Cut(strings.ToLower(prefix), "e")
	mantissa = strings.TrimSuffix(mantissa, ".")
	if strings.HasPrefix(mantissa, ".") {
		mantissa = "0" + mantissa
	}
	if exponent != "" {
		mantissa += "e" + exponent
	}
	if negative {
		mantissa = "-" + mantissa
	}

	amount, err := decimal.NewFromString(mantissa)
	if err != nil {
		return decimal.Zero, false
	}
	return amount, true
}
