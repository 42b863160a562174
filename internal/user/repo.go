package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MikeMC777/food-ordering/internal/apperr"
)

var (
	ErrNotFound           = apperr.New(apperr.NotFound, "user not found")
	ErrAlreadyExist       = apperr.New(apperr.Conflict, "user already exists")
	ErrInvalidCredentials = apperr.New(apperr.Unauthorized, "invalid credentials")
)

// Repository is the credential store. Cart mutations are single-document
// updates; concurrent writers on the same user see last-write-wins per entry.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)

	AddCartItem(ctx context.Context, userID, itemID string) error
	RemoveCartItem(ctx context.Context, userID, itemID string) error
	GetCart(ctx context.Context, userID string) (map[string]int, error)
	ClearCart(ctx context.Context, userID string) error
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) Create(ctx context.Context, u *User) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := r.db.QueryRow(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, cart, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,'{}'::jsonb,NOW(),NOW())
		RETURNING created_at, updated_at
	`, u.ID, u.Name, u.Email, u.PasswordHash, u.Role).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyExist
		}
		return fmt.Errorf("insert user: %w", err)
	}
	if u.Cart == nil {
		u.Cart = map[string]int{}
	}
	return nil
}

func (r *PGRepo) getOne(ctx context.Context, where string, arg string) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var (
		u    User
		cart []byte
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, name, email, password_hash, role, cart, created_at, updated_at
		FROM users WHERE `+where+`=$1
	`, arg).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &cart, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	if u.Cart, err = decodeCart(cart); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*User, error) {
	return r.getOne(ctx, "id", id)
}

func (r *PGRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, "email", email)
}

func (r *PGRepo) AddCartItem(ctx context.Context, userID, itemID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET cart = jsonb_set(cart, ARRAY[$2::text], to_jsonb(COALESCE((cart->>$2::text)::int, 0) + 1)),
		    updated_at = NOW()
		WHERE id = $1
	`, userID, itemID)
	if err != nil {
		return fmt.Errorf("add cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) RemoveCartItem(ctx context.Context, userID, itemID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET cart = CASE
		        WHEN NOT (cart ? $2::text) THEN cart
		        WHEN (cart->>$2::text)::int <= 1 THEN cart - $2::text
		        ELSE jsonb_set(cart, ARRAY[$2::text], to_jsonb((cart->>$2::text)::int - 1))
		    END,
		    updated_at = NOW()
		WHERE id = $1
	`, userID, itemID)
	if err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) GetCart(ctx context.Context, userID string) (map[string]int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var cart []byte
	err := r.db.QueryRow(ctx, `SELECT cart FROM users WHERE id=$1`, userID).Scan(&cart)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select cart: %w", err)
	}
	return decodeCart(cart)
}

func (r *PGRepo) ClearCart(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `UPDATE users SET cart='{}'::jsonb, updated_at=NOW() WHERE id=$1`, userID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func decodeCart(b []byte) (map[string]int, error) {
	cart := map[string]int{}
	if len(b) == 0 {
		return cart, nil
	}
	if err := json.Unmarshal(b, &cart); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return cart, nil
}
