package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"example.com/flow-budget/backend/internal/models"
	"example.com/flow-budget/backend/internal/notifications"
	"example.com/flow-budget/backend/internal/repository"
)

// BudgetItemStore описывает хранилище, нужное обработчикам статей бюджета.
type BudgetItemStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (models.BudgetItem, bool, error)
	Find(ctx context.Context, filter repository.Filter) ([]models.BudgetItem, error)
	Create(ctx context.Context, newItem models.NewBudgetItem) (models.BudgetItem, error)
	Update(ctx context.Context, id uuid.UUID, patch repository.BudgetItemPatch) (models.BudgetItem, bool, error)
	Delete(ctx context.Context, id uuid.UUID) (models.BudgetItem, bool, error)
}

type BudgetItemHandler struct {
	Items    BudgetItemStore
	Notifier *notifications.Hub
	Logger   *slog.Logger
}

// NewBudgetItemHandler создает обработчик операций со статьями бюджета.
func NewBudgetItemHandler(items BudgetItemStore, notifier *notifications.Hub, logger *slog.Logger) *BudgetItemHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &BudgetItemHandler{Items: items, Notifier: notifier, Logger: logger}
}

// List возвращает статьи бюджета, при необходимости отфильтрованные по query-параметрам.
func (h *BudgetItemHandler) List(c echo.Context) error {
	filter, err := parseFilter(c.QueryParam("category"), c.QueryParam("id"), c.QueryParam("created_at"))
	if err != nil {
		return badRequest(c, err.Error())
	}

	items, err := h.Items.Find(c.Request().Context(), filter)
	if err != nil {
		h.logFailure(c, "list budget items", err)
		return serverError(c, "failed to fetch budget items", err)
	}

	return c.JSON(http.StatusOK, toBudgetItemResponses(items))
}

// Get возвращает статью по идентификатору.
func (h *BudgetItemHandler) Get(c echo.Context) error {
	id, ok, err := h.parseID(c)
	if !ok {
		return err
	}

	item, found, err := h.Items.FindByID(c.Request().Context(), id)
	if err != nil {
		h.logFailure(c, "find budget item", err)
		return serverError(c, "failed to fetch budget item", err)
	}
	if !found {
		return notFound(c, "budget item not found")
	}

	return c.JSON(http.StatusOK, toBudgetItemResponse(item))
}

// Create добавляет новую статью бюджета.
func (h *BudgetItemHandler) Create(c echo.Context) error {
	var req CreateBudgetItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "recurrence_interval must be one of weekly, monthly, yearly")
	}

	newItem, err := req.toNewBudgetItem()
	if err != nil {
		return badRequest(c, err.Error())
	}

	item, err := h.Items.Create(c.Request().Context(), newItem)
	if err != nil {
		h.logFailure(c, "create budget item", err)
		return serverError(c, "failed to create budget item", err)
	}

	h.Notifier.PublishBudgetItemsChanged("created", item.ID.String())
	return c.JSON(http.StatusCreated, toBudgetItemResponse(item))
}

// Update частично обновляет статью. Обновление несуществующей статьи не считается ошибкой.
func (h *BudgetItemHandler) Update(c echo.Context) error {
	id, ok, err := h.parseID(c)
	if !ok {
		return err
	}

	raw := map[string]json.RawMessage{}
	if err := (&echo.DefaultBinder{}).BindBody(c, &raw); err != nil {
		return badRequest(c, "invalid payload")
	}

	patch, err := decodePatch(raw)
	if err != nil {
		return badRequest(c, err.Error())
	}

	item, found, err := h.Items.Update(c.Request().Context(), id, patch)
	if err != nil {
		h.logFailure(c, "update budget item", err)
		return serverError(c, "failed to update budget item", err)
	}

	response := UpdateBudgetItemResponse{Message: "budget item updated"}
	if found {
		itemResponse := toBudgetItemResponse(item)
		response.Item = &itemResponse
		h.Notifier.PublishBudgetItemsChanged("updated", item.ID.String())
	}

	return c.JSON(http.StatusOK, response)
}

// Delete удаляет статью бюджета.
func (h *BudgetItemHandler) Delete(c echo.Context) error {
	id, ok, err := h.parseID(c)
	if !ok {
		return err
	}

	item, found, err := h.Items.Delete(c.Request().Context(), id)
	if err != nil {
		h.logFailure(c, "delete budget item", err)
		return serverError(c, "failed to delete budget item", err)
	}
	if !found {
		return notFound(c, "budget item not found")
	}

	h.Notifier.PublishBudgetItemsChanged("deleted", item.ID.String())
	return c.JSON(http.StatusOK, MessageResponse{Message: "budget item deleted"})
}

// parseID разбирает :id; при ok == false ответ 400 уже записан и возвращён в err.
func (h *BudgetItemHandler) parseID(c echo.Context) (uuid.UUID, bool, error) {
	raw := c.Param("id")
	if raw == "" {
		return uuid.Nil, false, badRequest(c, "id is required")
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false, badRequest(c, "invalid id")
	}

	return id, true, nil
}

func (h *BudgetItemHandler) logFailure(c echo.Context, op string, err error) {
	level := slog.LevelError
	if errors.Is(err, repository.ErrConstraintViolation) {
		level = slog.LevelWarn
	}
	h.Logger.LogAttrs(c.Request().Context(), level, op+" failed",
		slog.String("error", err.Error()),
		slog.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
	)
}
