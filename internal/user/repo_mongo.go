package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "users"

type userDoc struct {
	ID           string         `bson:"_id"`
	Name         string         `bson:"name"`
	Email        string         `bson:"email"`
	PasswordHash string         `bson:"password"`
	Role         string         `bson:"role"`
	Cart         map[string]int `bson:"cartData"`
	CreatedAt    time.Time      `bson:"created_at"`
	UpdatedAt    time.Time      `bson:"updated_at"`
}

func (d *userDoc) toUser() *User {
	cart := d.Cart
	if cart == nil {
		cart = map[string]int{}
	}
	return &User{
		ID: d.ID, Name: d.Name, Email: d.Email, PasswordHash: d.PasswordHash, Role: d.Role,
		Cart: cart, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}
}

// MongoRepo stores users as documents with the cart embedded under cartData.
// The unique index on email is created by storage/mongo.EnsureIndexes.
type MongoRepo struct{ col *mongo.Collection }

func NewMongoRepo(db *mongo.Database) *MongoRepo {
	return &MongoRepo{col: db.Collection(CollectionName)}
}

func (r *MongoRepo) Create(ctx context.Context, u *User) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	if u.Cart == nil {
		u.Cart = map[string]int{}
	}
	_, err := r.col.InsertOne(ctx, userDoc{
		ID: u.ID, Name: u.Name, Email: u.Email, PasswordHash: u.PasswordHash, Role: u.Role,
		Cart: u.Cart, CreatedAt: now, UpdatedAt: now,
	})
	if mongo.IsDuplicateKeyError(err) {
		return ErrAlreadyExist
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *MongoRepo) findOne(ctx context.Context, filter bson.M) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var d userDoc
	err := r.col.FindOne(ctx, filter).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return d.toUser(), nil
}

func (r *MongoRepo) GetByID(ctx context.Context, id string) (*User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func cartField(itemID string) string { return "cartData." + itemID }

func (r *MongoRepo) AddCartItem(ctx context.Context, userID, itemID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{
		"$inc": bson.M{cartField(itemID): 1},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("add cart item: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// removeAttempts bounds retries when the entry changes between the
// decrement and the unset.
const removeAttempts = 3

// cartRemoveSteps returns the decrement and unset updates. Each filter pins
// the quantity it was written for, so neither can overwrite a concurrent add.
func cartRemoveSteps(userID, itemID string, now time.Time) (decFilter, dec, unsetFilter, unset bson.M) {
	field := cartField(itemID)
	decFilter = bson.M{"_id": userID, field: bson.M{"$gt": 1}}
	dec = bson.M{"$inc": bson.M{field: -1}, "$set": bson.M{"updated_at": now}}
	unsetFilter = bson.M{"_id": userID, field: bson.M{"$lte": 1}}
	unset = bson.M{"$unset": bson.M{field: ""}, "$set": bson.M{"updated_at": now}}
	return
}

func (r *MongoRepo) RemoveCartItem(ctx context.Context, userID, itemID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	for attempt := 0; attempt < removeAttempts; attempt++ {
		decFilter, dec, unsetFilter, unset := cartRemoveSteps(userID, itemID, time.Now().UTC())

		res, err := r.col.UpdateOne(ctx, decFilter, dec)
		if err != nil {
			return fmt.Errorf("decrement cart item: %w", err)
		}
		if res.MatchedCount > 0 {
			return nil
		}
		res, err = r.col.UpdateOne(ctx, unsetFilter, unset)
		if err != nil {
			return fmt.Errorf("unset cart item: %w", err)
		}
		if res.MatchedCount > 0 {
			return nil
		}

		// Neither matched: the entry is absent, the user is unknown, or an
		// add raised the quantity in between.
		n, err := r.col.CountDocuments(ctx, bson.M{"_id": userID, cartField(itemID): bson.M{"$exists": true}}, options.Count().SetLimit(1))
		if err != nil {
			return fmt.Errorf("count cart item: %w", err)
		}
		if n > 0 {
			continue
		}
		n, err = r.col.CountDocuments(ctx, bson.M{"_id": userID}, options.Count().SetLimit(1))
		if err != nil {
			return fmt.Errorf("count user: %w", err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	}
	return fmt.Errorf("remove cart item %s: concurrent updates", itemID)
}

func (r *MongoRepo) GetCart(ctx context.Context, userID string) (map[string]int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var d userDoc
	err := r.col.FindOne(ctx, bson.M{"_id": userID},
		options.FindOne().SetProjection(bson.M{"cartData": 1})).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find cart: %w", err)
	}
	if d.Cart == nil {
		return map[string]int{}, nil
	}
	return d.Cart, nil
}

func (r *MongoRepo) ClearCart(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{
		"$set": bson.M{"cartData": bson.M{}, "updated_at": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
