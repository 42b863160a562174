package user

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemRepo is an in-process Repository used by STORE_DRIVER=memory and tests.
type MemRepo struct {
	mu      sync.RWMutex
	byID    map[string]*User
	byEmail map[string]string
}

func NewMemRepo() *MemRepo {
	return &MemRepo{byID: map[string]*User{}, byEmail: map[string]string{}}
}

func cloneUser(u *User) *User {
	cp := *u
	cp.Cart = make(map[string]int, len(u.Cart))
	for k, v := range u.Cart {
		cp.Cart[k] = v
	}
	return &cp
}

func (r *MemRepo) Create(ctx context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(u.Email)
	if _, ok := r.byEmail[key]; ok {
		return ErrAlreadyExist
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	if u.Cart == nil {
		u.Cart = map[string]int{}
	}
	r.byID[u.ID] = cloneUser(u)
	r.byEmail[key] = u.ID
	return nil
}

func (r *MemRepo) GetByID(ctx context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *MemRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(r.byID[id]), nil
}

func (r *MemRepo) AddCartItem(ctx context.Context, userID, itemID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[userID]
	if !ok {
		return ErrNotFound
	}
	u.Cart[itemID]++
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemRepo) RemoveCartItem(ctx context.Context, userID, itemID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[userID]
	if !ok {
		return ErrNotFound
	}
	if q, ok := u.Cart[itemID]; ok {
		if q <= 1 {
			delete(u.Cart, itemID)
		} else {
			u.Cart[itemID] = q - 1
		}
		u.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (r *MemRepo) GetCart(ctx context.Context, userID string) (map[string]int, error) {
	u, err := r.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return u.Cart, nil
}

func (r *MemRepo) ClearCart(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[userID]
	if !ok {
		return ErrNotFound
	}
	u.Cart = map[string]int{}
	u.UpdatedAt = time.Now().UTC()
	return nil
}
