package order

import (
	"context"
	"sync"
	"time"
)

type MemRepo struct {
	mu     sync.RWMutex
	orders map[string]*Order
	seq    []string
	now    func() time.Time
}

func NewMemRepo() *MemRepo {
	return &MemRepo{orders: map[string]*Order{}, now: func() time.Time { return time.Now().UTC() }}
}

func (r *MemRepo) Create(ctx context.Context, o *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	o.CreatedAt, o.UpdatedAt = now, now
	r.orders[o.ID] = cloneOrder(o)
	r.seq = append(r.seq, o.ID)
	return nil
}

func (r *MemRepo) GetByID(ctx context.Context, id string) (*Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneOrder(o), nil
}

func (r *MemRepo) filter(keep func(*Order) bool) []Order {
	out := []Order{}
	for _, id := range r.seq {
		if o := r.orders[id]; keep(o) {
			out = append(out, *cloneOrder(o))
		}
	}
	return out
}

func (r *MemRepo) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.filter(func(o *Order) bool { return o.UserID == userID }), nil
}

func (r *MemRepo) List(ctx context.Context) ([]Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.filter(func(*Order) bool { return true }), nil
}

func (r *MemRepo) update(id string, fn func(*Order) error) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	if err := fn(o); err != nil {
		return nil, err
	}
	o.UpdatedAt = r.now()
	return cloneOrder(o), nil
}

func (r *MemRepo) SetSession(ctx context.Context, id, sessionID string) error {
	_, err := r.update(id, func(o *Order) error {
		o.SessionID = sessionID
		return nil
	})
	return err
}

func (r *MemRepo) UpdatePayment(ctx context.Context, id string, to PaymentStatus) (*Order, error) {
	return r.update(id, func(o *Order) error {
		if !CanTransition(o.Payment, to) {
			return ErrPaymentFinal
		}
		o.Payment = to
		return nil
	})
}

func (r *MemRepo) UpdateStatus(ctx context.Context, id, status string) error {
	_, err := r.update(id, func(o *Order) error {
		if o.Payment != PaymentPaid {
			return ErrNotPaid
		}
		o.Status = status
		return nil
	})
	return err
}

func (r *MemRepo) ExpirePending(ctx context.Context, before time.Time) ([]Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []Order{}
	for _, id := range r.seq {
		o := r.orders[id]
		if o.Payment != PaymentPending || !o.CreatedAt.Before(before) {
			continue
		}
		o.Payment = PaymentFailed
		o.UpdatedAt = r.now()
		out = append(out, *cloneOrder(o))
	}
	return out, nil
}
