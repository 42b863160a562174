package food

import (
	"context"
	"sync"
	"time"
)

type MemRepo struct {
	mu    sync.RWMutex
	items map[string]*Item
	order []string
}

func NewMemRepo() *MemRepo {
	return &MemRepo{items: map[string]*Item{}}
}

func (r *MemRepo) Create(ctx context.Context, it *Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	it.CreatedAt, it.UpdatedAt = now, now
	cp := *it
	r.items[it.ID] = &cp
	r.order = append(r.order, it.ID)
	return nil
}

func (r *MemRepo) GetByID(ctx context.Context, id string) (*Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	it, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *it
	return &cp, nil
}

func (r *MemRepo) List(ctx context.Context, q Query) ([]Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []Item{}
	for _, id := range r.order {
		it, ok := r.items[id]
		if !ok {
			continue
		}
		if q.Category != "" && it.Category != q.Category {
			continue
		}
		out = append(out, *it)
	}
	return out, nil
}

func (r *MemRepo) Update(ctx context.Context, it *Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.items[it.ID]
	if !ok {
		return ErrNotFound
	}
	it.CreatedAt = cur.CreatedAt
	it.UpdatedAt = time.Now().UTC()
	cp := *it
	r.items[it.ID] = &cp
	return nil
}

func (r *MemRepo) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return false, nil
	}
	delete(r.items, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true, nil
}
