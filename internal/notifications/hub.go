package notifications

import (
	"sync"
	"time"
)

const (
	EventConnected          = "connected"
	EventBudgetItemsChanged = "budget_items_changed"
)

type Event struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// BudgetItemsChanged содержит данные события EventBudgetItemsChanged.
type BudgetItemsChanged struct {
	Action string `json:"action"`
	ID     string `json:"id"`
}

type Hub struct {
	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
}

// NewHub создает хаб для SSE-подписок.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[chan Event]struct{}),
	}
}

// Subscribe подписывает клиента на события и возвращает канал и функцию отписки.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 10)

	h.mu.Lock()
	defer h.mu.Unlock()

	h.subscribers[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()

			delete(h.subscribers, ch)
			close(ch)
		})
	}
}

// Publish отправляет событие всем подписчикам; медленные подписчики пропускают событие.
func (h *Hub) Publish(event Event) {
	event.Timestamp = time.Now().UTC()

	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// PublishBudgetItemsChanged сообщает подписчикам об изменении статьи бюджета.
func (h *Hub) PublishBudgetItemsChanged(action, id string) {
	if h == nil {
		return
	}

	h.Publish(Event{
		Type: EventBudgetItemsChanged,
		Data: BudgetItemsChanged{Action: action, ID: id},
	})
}

// Subscribers возвращает число активных подписок.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subscribers)
}
