package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "orders"

type itemDoc struct {
	FoodID   string               `bson:"food_id"`
	Name     string               `bson:"name"`
	Price    primitive.Decimal128 `bson:"price"`
	Quantity int                  `bson:"quantity"`
}

type orderDoc struct {
	ID          string               `bson:"_id"`
	UserID      string               `bson:"user_id"`
	Items       []itemDoc            `bson:"items"`
	Address     Address              `bson:"address"`
	DeliveryFee primitive.Decimal128 `bson:"delivery_fee"`
	Amount      primitive.Decimal128 `bson:"amount"`
	Payment     string               `bson:"payment"`
	Status      string               `bson:"status"`
	SessionID   string               `bson:"session_id"`
	CreatedAt   time.Time            `bson:"created_at"`
	UpdatedAt   time.Time            `bson:"updated_at"`
}

func dec128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("encode decimal %s: %w", d, err)
	}
	return v, nil
}

func fromDec128(v primitive.Decimal128) (decimal.Decimal, error) {
	return decimal.NewFromString(v.String())
}

func toDoc(o *Order) (*orderDoc, error) {
	d := &orderDoc{
		ID: o.ID, UserID: o.UserID, Address: o.Address, Payment: string(o.Payment),
		Status: o.Status, SessionID: o.SessionID, CreatedAt: o.CreatedAt, UpdatedAt: o.UpdatedAt,
	}
	var err error
	for _, it := range o.Items {
		p, err := dec128(it.Price)
		if err != nil {
			return nil, err
		}
		d.Items = append(d.Items, itemDoc{FoodID: it.FoodID, Name: it.Name, Price: p, Quantity: it.Quantity})
	}
	if d.DeliveryFee, err = dec128(o.DeliveryFee); err != nil {
		return nil, err
	}
	if d.Amount, err = dec128(o.Amount); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *orderDoc) toOrder() (*Order, error) {
	o := &Order{
		ID: d.ID, UserID: d.UserID, Address: d.Address, Payment: PaymentStatus(d.Payment),
		Status: d.Status, SessionID: d.SessionID, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
		Items: make([]Item, 0, len(d.Items)),
	}
	for _, it := range d.Items {
		p, err := fromDec128(it.Price)
		if err != nil {
			return nil, fmt.Errorf("decode item price: %w", err)
		}
		o.Items = append(o.Items, Item{FoodID: it.FoodID, Name: it.Name, Price: p, Quantity: it.Quantity})
	}
	var err error
	if o.DeliveryFee, err = fromDec128(d.DeliveryFee); err != nil {
		return nil, fmt.Errorf("decode delivery fee: %w", err)
	}
	if o.Amount, err = fromDec128(d.Amount); err != nil {
		return nil, fmt.Errorf("decode amount: %w", err)
	}
	return o, nil
}

type MongoRepo struct{ col *mongo.Collection }

func NewMongoRepo(db *mongo.Database) *MongoRepo {
	return &MongoRepo{col: db.Collection(CollectionName)}
}

var insertionOrder = options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

func (r *MongoRepo) Create(ctx context.Context, o *Order) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now().UTC()
	o.CreatedAt, o.UpdatedAt = now, now
	d, err := toDoc(o)
	if err != nil {
		return err
	}
	if _, err := r.col.InsertOne(ctx, d); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *MongoRepo) GetByID(ctx context.Context, id string) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var d orderDoc
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	return d.toOrder()
}

func (r *MongoRepo) find(ctx context.Context, filter bson.M) ([]Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cur, err := r.col.Find(ctx, filter, insertionOrder)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer cur.Close(ctx)

	out := []Order{}
	for cur.Next(ctx) {
		var d orderDoc
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		o, err := d.toOrder()
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, cur.Err()
}

func (r *MongoRepo) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	return r.find(ctx, bson.M{"user_id": userID})
}

func (r *MongoRepo) List(ctx context.Context) ([]Order, error) {
	return r.find(ctx, bson.M{})
}

func (r *MongoRepo) set(ctx context.Context, id string, fields bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	fields["updated_at"] = time.Now().UTC()
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepo) SetSession(ctx context.Context, id, sessionID string) error {
	return r.set(ctx, id, bson.M{"session_id": sessionID})
}

func (r *MongoRepo) UpdateStatus(ctx context.Context, id, status string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "payment": string(PaymentPaid)},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	n, err := r.col.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrNotPaid
}

func (r *MongoRepo) UpdatePayment(ctx context.Context, id string, to PaymentStatus) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"_id": id, "payment": bson.M{"$in": bson.A{string(PaymentPending), string(to)}}}
	update := bson.M{"$set": bson.M{"payment": string(to), "updated_at": time.Now().UTC()}}
	var d orderDoc
	err := r.col.FindOneAndUpdate(ctx, filter, update, options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&d)
	if err == nil {
		return d.toOrder()
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("update payment: %w", err)
	}
	n, err := r.col.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return nil, ErrPaymentFinal
}

// ExpirePending claims each stale order with a conditional update so a
// concurrent confirmation wins over the sweep.
func (r *MongoRepo) ExpirePending(ctx context.Context, before time.Time) ([]Order, error) {
	stale, err := r.find(ctx, bson.M{"payment": string(PaymentPending), "created_at": bson.M{"$lt": before}})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	out := []Order{}
	for _, o := range stale {
		now := time.Now().UTC()
		res, err := r.col.UpdateOne(ctx,
			bson.M{"_id": o.ID, "payment": string(PaymentPending)},
			bson.M{"$set": bson.M{"payment": string(PaymentFailed), "updated_at": now}})
		if err != nil {
			return out, fmt.Errorf("expire order %s: %w", o.ID, err)
		}
		if res.ModifiedCount == 0 {
			continue
		}
		o.Payment, o.UpdatedAt = PaymentFailed, now
		out = append(out, o)
	}
	return out, nil
}
