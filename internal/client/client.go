package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"example.com/flow-budget/backend/internal/models"
)

// Client обращается к REST API статей бюджета.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// APIError описывает ответ API со статусом вне 2xx.
type APIError struct {
	StatusCode int
	Message    string
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("budget api: %d %s: %s", e.StatusCode, e.Message, e.Detail)
	}
	return fmt.Sprintf("budget api: %d %s", e.StatusCode, e.Message)
}

// IsNotFound сообщает, что API ответил 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

type ListOptions struct {
	Category string
}

// ItemInput задает тело запроса на создание.
type ItemInput struct {
	Name               string                     `json:"name,omitempty"`
	Category           string                     `json:"category"`
	Amount             decimal.Decimal            `json:"-"`
	Description        string                     `json:"description,omitempty"`
	Recurring          bool                       `json:"recurring"`
	RecurrenceInterval *models.RecurrenceInterval `json:"recurrence_interval"`
}

func (in ItemInput) MarshalJSON() ([]byte, error) {
	type alias ItemInput
	return json.Marshal(struct {
		alias
		Amount json.Number `json:"amount"`
	}{alias: alias(in), Amount: json.Number(in.Amount.String())})
}

// ItemUpdate перечисляет поля частичного обновления. nil-поля не отправляются,
// ClearRecurrenceInterval отправляет явный null.
type ItemUpdate struct {
	Name                    *string
	Category                *string
	Amount                  *decimal.Decimal
	Description             *string
	Recurring               *bool
	RecurrenceInterval      *models.RecurrenceInterval
	ClearRecurrenceInterval bool
}

func (u ItemUpdate) MarshalJSON() ([]byte, error) {
	body := map[string]any{}
	if u.Name != nil {
		body["name"] = *u.Name
	}
	if u.Category != nil {
		body["category"] = *u.Category
	}
	if u.Amount != nil {
		body["amount"] = json.Number(u.Amount.String())
	}
	if u.Description != nil {
		body["description"] = *u.Description
	}
	if u.Recurring != nil {
		body["recurring"] = *u.Recurring
	}
	switch {
	case u.ClearRecurrenceInterval:
		body["recurrence_interval"] = nil
	case u.RecurrenceInterval != nil:
		body["recurrence_interval"] = string(*u.RecurrenceInterval)
	}
	return json.Marshal(body)
}

// Event описывает одно SSE-событие из /events.
type Event struct {
	Type string
	Data json.RawMessage
}

type messageResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

type updateResponse struct {
	Message string             `json:"message"`
	Item    *models.BudgetItem `json:"item"`
}

// New создает клиент API; timeout не применяется к потоку событий.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// List возвращает статьи бюджета.
func (c *Client) List(ctx context.Context, opts ListOptions) ([]models.BudgetItem, error) {
	query := url.Values{}
	if opts.Category != "" {
		query.Set("category", opts.Category)
	}

	var items []models.BudgetItem
	if err := c.do(ctx, http.MethodGet, "/budgetItem", query, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Get возвращает статью по идентификатору.
func (c *Client) Get(ctx context.Context, id uuid.UUID) (models.BudgetItem, error) {
	var item models.BudgetItem
	err := c.do(ctx, http.MethodGet, "/budgetItem/"+id.String(), nil, nil, &item)
	return item, err
}

// Create создает статью бюджета.
func (c *Client) Create(ctx context.Context, input ItemInput) (models.BudgetItem, error) {
	var item models.BudgetItem
	err := c.do(ctx, http.MethodPost, "/budgetItem", nil, input, &item)
	return item, err
}

// Update частично обновляет статью; nil означает, что такой статьи на сервере нет.
func (c *Client) Update(ctx context.Context, id uuid.UUID, update ItemUpdate) (*models.BudgetItem, error) {
	var response updateResponse
	if err := c.do(ctx, http.MethodPut, "/budgetItem/"+id.String(), nil, update, &response); err != nil {
		return nil, err
	}
	return response.Item, nil
}

// Delete удаляет статью бюджета.
func (c *Client) Delete(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/budgetItem/"+id.String(), nil, nil, nil)
}

// Events читает SSE-поток /events и вызывает handle для каждого события,
// пока не закончится ctx или поток.
func (c *Client) Events(ctx context.Context, handle func(Event)) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/events", nil)
	if err != nil {
		return err
	}
	request.Header.Set("Accept", "text/event-stream")

	stream := &http.Client{Transport: c.httpClient.Transport}
	response, err := stream.Do(request)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return readAPIError(response)
	}

	err = readEvents(response.Body, handle)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func readEvents(body io.Reader, handle func(Event)) error {
	scanner := bufio.NewScanner(body)
	var current Event
	var data []string

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if current.Type != "" || len(data) > 0 {
				if current.Type == "" {
					current.Type = "message"
				}
				current.Data = json.RawMessage(strings.Join(data, "\n"))
				handle(current)
			}
			current = Event{}
			data = data[:0]
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			current.Type = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}

	return scanner.Err()
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	request, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	request.Header.Set("Accept", "application/json")
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return readAPIError(response)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, response.Body)
		return nil
	}

	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func readAPIError(response *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(response.Body, 64<<10))

	apiErr := &APIError{StatusCode: response.StatusCode, Message: http.StatusText(response.StatusCode)}

	var parsed messageResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		apiErr.Message = parsed.Message
		apiErr.Detail = parsed.Error
	} else if text := strings.TrimSpace(string(body)); text != "" {
		apiErr.Detail = text
	}

	return apiErr
}
