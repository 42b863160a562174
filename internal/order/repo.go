package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/food-ordering/internal/apperr"
)

var (
	ErrNotFound     = apperr.New(apperr.NotFound, "order not found")
	ErrEmptyCart    = apperr.New(apperr.EmptyCart, "cart is empty")
	ErrPaymentFinal = apperr.New(apperr.Conflict, "payment already settled with a different outcome")
	ErrInvalidLabel = apperr.New(apperr.Validation, "status must be 1 to 64 characters")
	ErrNotPaid      = apperr.New(apperr.Conflict, "order is not paid")
)

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	List(ctx context.Context) ([]Order, error)
	SetSession(ctx context.Context, id, sessionID string) error
	// UpdatePayment applies to if CanTransition allows it and returns the
	// updated order.
	UpdatePayment(ctx context.Context, id string, to PaymentStatus) (*Order, error)
	// UpdateStatus relabels a paid order; any other payment state is
	// ErrNotPaid.
	UpdateStatus(ctx context.Context, id, status string) error
	// ExpirePending fails every order still pending that was created before
	// the cutoff and returns them.
	ExpirePending(ctx context.Context, before time.Time) ([]Order, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

const selectCols = `id, user_id, items, address, delivery_fee::text, amount::text, payment, status, session_id, created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var (
		o                 Order
		items, addr       []byte
		fee, amount, paym string
	)
	if err := row.Scan(&o.ID, &o.UserID, &items, &addr, &fee, &amount, &paym, &o.Status, &o.SessionID, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	if err := json.Unmarshal(addr, &o.Address); err != nil {
		return nil, fmt.Errorf("decode address: %w", err)
	}
	var err error
	if o.DeliveryFee, err = decimal.NewFromString(fee); err != nil {
		return nil, fmt.Errorf("parse delivery fee %q: %w", fee, err)
	}
	if o.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	o.Payment = PaymentStatus(paym)
	return &o, nil
}

func collect(rows pgx.Rows) ([]Order, error) {
	defer rows.Close()
	out := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (r *PGRepo) Create(ctx context.Context, o *Order) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	addr, err := json.Marshal(o.Address)
	if err != nil {
		return fmt.Errorf("encode address: %w", err)
	}
	err = r.db.QueryRow(ctx, `
		INSERT INTO orders (id, user_id, items, address, delivery_fee, amount, payment, status, session_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5::numeric,$6::numeric,$7,$8,$9,NOW(),NOW())
		RETURNING created_at, updated_at
	`, o.ID, o.UserID, items, addr, o.DeliveryFee.String(), o.Amount.String(), string(o.Payment), o.Status, o.SessionID).
		Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	o, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+selectCols+` FROM orders WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select order: %w", err)
	}
	return o, nil
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT `+selectCols+` FROM orders WHERE user_id=$1 ORDER BY seq`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user orders: %w", err)
	}
	return collect(rows)
}

func (r *PGRepo) List(ctx context.Context) ([]Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT `+selectCols+` FROM orders ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return collect(rows)
}

func (r *PGRepo) SetSession(ctx context.Context, id, sessionID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `UPDATE orders SET session_id=$2, updated_at=NOW() WHERE id=$1`, id, sessionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) UpdatePayment(ctx context.Context, id string, to PaymentStatus) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	o, err := scanOrder(r.db.QueryRow(ctx, `
		UPDATE orders
		SET payment = $2, updated_at = NOW()
		WHERE id = $1 AND (payment = $3 OR payment = $2)
		RETURNING `+selectCols, id, string(to), string(PaymentPending)))
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("update payment: %w", err)
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, ErrPaymentFinal
}

func (r *PGRepo) UpdateStatus(ctx context.Context, id, status string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE orders
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND payment = $3
	`, id, status, string(PaymentPaid))
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return ErrNotPaid
}

func (r *PGRepo) ExpirePending(ctx context.Context, before time.Time) ([]Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		UPDATE orders
		SET payment = $1, updated_at = NOW()
		WHERE payment = $2 AND created_at < $3
		RETURNING `+selectCols, string(PaymentFailed), string(PaymentPending), before)
	if err != nil {
		return nil, fmt.Errorf("expire pending orders: %w", err)
	}
	return collect(rows)
}
