package client

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"example.com/flow-budget/backend/internal/models"
)

const (
	eventBudgetItemsChanged = "budget_items_changed"
	refetchKey              = "items"
)

// ItemFetcher читает список статей с сервера.
type ItemFetcher interface {
	List(ctx context.Context, opts ListOptions) ([]models.BudgetItem, error)
}

// EventSource доставляет уведомления об изменениях.
type EventSource interface {
	Events(ctx context.Context, handle func(Event)) error
}

// ItemList кэширует список статей сервера. После Invalidate следующее чтение
// перезапрашивает список, одновременные чтения разделяют один запрос. Запрос,
// начатый до сброса, оставляет кэш устаревшим.
type ItemList struct {
	fetcher ItemFetcher
	opts    ListOptions
	group   singleflight.Group

	mu         sync.RWMutex
	items      []models.BudgetItem
	generation uint64
	fetchedGen uint64
	fetched    bool
	fetchedAt  time.Time
}

// NewItemList создает пустой кэш; первое чтение запрашивает сервер.
func NewItemList(fetcher ItemFetcher, opts ListOptions) *ItemList {
	return &ItemList{fetcher: fetcher, opts: opts}
}

// Items возвращает закэшированный список или перезапрашивает его, если он устарел.
func (l *ItemList) Items(ctx context.Context) ([]models.BudgetItem, error) {
	if items, fresh := l.Cached(); fresh {
		return items, nil
	}
	return l.Refetch(ctx)
}

// Cached возвращает копию кэша и признак его актуальности.
func (l *ItemList) Cached() ([]models.BudgetItem, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return copyItems(l.items), l.fetched && l.fetchedGen == l.generation
}

// FetchedAt возвращает момент последнего успешного запроса.
func (l *ItemList) FetchedAt() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.fetchedAt
}

// Refetch запрашивает список у сервера; одновременные вызовы разделяют один запрос.
func (l *ItemList) Refetch(ctx context.Context) ([]models.BudgetItem, error) {
	result, err, _ := l.group.Do(refetchKey, func() (interface{}, error) {
		l.mu.RLock()
		startGen := l.generation
		l.mu.RUnlock()

		items, err := l.fetcher.List(ctx, l.opts)
		if err != nil {
			return nil, err
		}

		l.mu.Lock()
		defer l.mu.Unlock()

		if l.fetched && startGen < l.fetchedGen {
			return copyItems(l.items), nil
		}

		l.items = items
		l.fetched = true
		l.fetchedGen = startGen
		l.fetchedAt = time.Now()

		return copyItems(items), nil
	})
	if err != nil {
		return nil, err
	}

	return copyItems(result.([]models.BudgetItem)), nil
}

// Invalidate помечает кэш устаревшим и сразу перезапрашивает список.
func (l *ItemList) Invalidate(ctx context.Context) error {
	l.MarkStale()
	_, err := l.Refetch(ctx)
	return err
}

// MarkStale помечает кэш устаревшим без запроса.
func (l *ItemList) MarkStale() {
	l.mu.Lock()
	l.generation++
	l.mu.Unlock()

	// Запрос в полёте начат до сброса; следующий вызов не должен к нему присоединиться.
	l.group.Forget(refetchKey)
}

// Watch подписывается на события сервера и сбрасывает кэш при каждом изменении
// статей. Возвращает управление, когда заканчивается ctx или поток.
func (l *ItemList) Watch(ctx context.Context, source EventSource, onChange func([]models.BudgetItem, error)) error {
	return source.Events(ctx, func(event Event) {
		if event.Type != eventBudgetItemsChanged {
			return
		}

		err := l.Invalidate(ctx)
		if onChange != nil {
			items, _ := l.Cached()
			onChange(items, err)
		}
	})
}

// ChangeOf разбирает данные события budget_items_changed.
func ChangeOf(event Event) (action, id string, ok bool) {
	if event.Type != eventBudgetItemsChanged {
		return "", "", false
	}

	var envelope struct {
		Data struct {
			Action string `json:"action"`
			ID     string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(event.Data, &envelope); err != nil {
		return "", "", false
	}
	return envelope.Data.Action, envelope.Data.ID, true
}

func copyItems(items []models.BudgetItem) []models.BudgetItem {
	if items == nil {
		return nil
	}
	out := make([]models.BudgetItem, len(items))
	copy(out, items)
	return out
}
