package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"example.com/flow-budget/backend/internal/models"
)

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

type BudgetItemResponse struct {
	ID                 uuid.UUID                  `json:"id"`
	Name               string                     `json:"name"`
	Category           string                     `json:"category"`
	Amount             json.Number                `json:"amount"`
	Description        string                     `json:"description"`
	Recurring          bool                       `json:"recurring"`
	RecurrenceInterval *models.RecurrenceInterval `json:"recurrence_interval"`
	CreatedAt          time.Time                  `json:"created_at"`
	UpdatedAt          time.Time                  `json:"updated_at"`
}

type UpdateBudgetItemResponse struct {
	Message string              `json:"message"`
	Item    *BudgetItemResponse `json:"item"`
}

func toBudgetItemResponse(item models.BudgetItem) BudgetItemResponse {
	return BudgetItemResponse{
		ID:                 item.ID,
		Name:               item.Name,
		Category:           item.Category,
		Amount:             json.Number(item.Amount.StringFixed(2)),
		Description:        item.Description,
		Recurring:          item.Recurring,
		RecurrenceInterval: item.RecurrenceInterval,
		CreatedAt:          item.CreatedAt,
		UpdatedAt:          item.UpdatedAt,
	}
}

func toBudgetItemResponses(items []models.BudgetItem) []BudgetItemResponse {
	response := make([]BudgetItemResponse, 0, len(items))
	for _, item := range items {
		response = append(response, toBudgetItemResponse(item))
	}
	return response
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, MessageResponse{Message: message})
}

func notFound(c echo.Context, message string) error {
	return c.JSON(http.StatusNotFound, MessageResponse{Message: message})
}

func serverError(c echo.Context, message string, err error) error {
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: message, Error: err.Error()})
}
