package handlers

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"example.com/flow-budget/backend/internal/models"
)

const (
	exportFormatJSON = "json"
	exportFormatCSV  = "csv"
)

const timeLayout = time.RFC3339

// Export выгружает статьи бюджета в JSON или CSV.
func (h *BudgetItemHandler) Export(c echo.Context) error {
	format := strings.ToLower(strings.TrimSpace(c.QueryParam("format")))
	if format == "" {
		format = exportFormatJSON
	}
	if format != exportFormatJSON && format != exportFormatCSV {
		return badRequest(c, "format must be json or csv")
	}

	filter, err := parseFilter(c.QueryParam("category"), c.QueryParam("id"), c.QueryParam("created_at"))
	if err != nil {
		return badRequest(c, err.Error())
	}

	items, err := h.Items.Find(c.Request().Context(), filter)
	if err != nil {
		h.logFailure(c, "export budget items", err)
		return serverError(c, "failed to export budget items", err)
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})

	filename := "budget-items-" + time.Now().UTC().Format("20060102") + "." + format
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename=\""+filename+"\"")

	if format == exportFormatJSON {
		return c.JSON(http.StatusOK, toBudgetItemResponses(items))
	}

	payload, err := buildItemsCSV(items)
	if err != nil {
		h.logFailure(c, "render budget items csv", err)
		return serverError(c, "failed to export budget items", err)
	}

	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", payload)
}

func buildItemsCSV(items []models.BudgetItem) ([]byte, error) {
	buffer := &bytes.Buffer{}
	writer := csv.NewWriter(buffer)

	if err := writer.Write([]string{"id", "name", "category", "amount", "description", "recurring", "recurrence_interval", "created_at", "updated_at"}); err != nil {
		return nil, err
	}

	for _, item := range items {
		interval := ""
		if item.RecurrenceInterval != nil {
			interval = string(*item.RecurrenceInterval)
		}

		row := []string{
			item.ID.String(),
			item.Name,
			item.Category,
			item.Amount.StringFixed(2),
			item.Description,
			strconv.FormatBool(item.Recurring),
			interval,
			item.CreatedAt.Format(timeLayout),
			item.UpdatedAt.Format(timeLayout),
		}
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}

	return buffer.Bytes(), nil
}
