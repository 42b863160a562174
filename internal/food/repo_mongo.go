package food

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

const CollectionName = "foods"

type foodDoc struct {
	ID          string               `bson:"_id"`
	Name        string               `bson:"name"`
	Description string               `bson:"description"`
	Price       primitive.Decimal128 `bson:"price"`
	Category    string               `bson:"category"`
	Image       string               `bson:"image"`
	CreatedAt   time.Time            `bson:"created_at"`
	UpdatedAt   time.Time            `bson:"updated_at"`
}

func toDoc(it *Item) (foodDoc, error) {
	p, err := primitive.ParseDecimal128(it.Price.String())
	if err != nil {
		return foodDoc{}, fmt.Errorf("encode price: %w", err)
	}
	return foodDoc{
		ID: it.ID, Name: it.Name, Description: it.Description, Price: p,
		Category: it.Category, Image: it.Image, CreatedAt: it.CreatedAt, UpdatedAt: it.UpdatedAt,
	}, nil
}

func (d *foodDoc) toItem() (*Item, error) {
	p, err := decimal.NewFromString(d.Price.String())
	if err != nil {
		return nil, fmt.Errorf("decode price: %w", err)
	}
	return &Item{
		ID: d.ID, Name: d.Name, Description: d.Description, Price: p,
		Category: d.Category, Image: d.Image, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}, nil
}

type MongoRepo struct{ col *mongo.Collection }

func NewMongoRepo(db *mongo.Database) *MongoRepo {
	return &MongoRepo{col: db.Collection(CollectionName)}
}

func (r *MongoRepo) Create(ctx context.Context, it *Item) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now().UTC()
	it.CreatedAt, it.UpdatedAt = now, now
	d, err := toDoc(it)
	if err != nil {
		return err
	}
	if _, err := r.col.InsertOne(ctx, d); err != nil {
		return fmt.Errorf("insert food: %w", err)
	}
	return nil
}

func (r *MongoRepo) GetByID(ctx context.Context, id string) (*Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var d foodDoc
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find food: %w", err)
	}
	return d.toItem()
}

func (r *MongoRepo) List(ctx context.Context, q Query) ([]Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{}
	if q.Category != "" {
		filter["category"] = q.Category
	}
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list foods: %w", err)
	}
	defer cur.Close(ctx)

	out := []Item{}
	for cur.Next(ctx) {
		var d foodDoc
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		it, err := d.toItem()
		if err != nil {
			return nil, err
		}
		out = append(out, *it)
	}
	return out, cur.Err()
}

func (r *MongoRepo) Update(ctx context.Context, it *Item) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	p, err := primitive.ParseDecimal128(it.Price.String())
	if err != nil {
		return fmt.Errorf("encode price: %w", err)
	}
	it.UpdatedAt = time.Now().UTC()
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": it.ID}, bson.M{"$set": bson.M{
		"name":        it.Name,
		"description": it.Description,
		"price":       p,
		"category":    it.Category,
		"image":       it.Image,
		"updated_at":  it.UpdatedAt,
	}})
	if err != nil {
		return fmt.Errorf("update food: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepo) Delete(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}
