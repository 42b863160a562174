package food

import (
	"context"
	"mime/multipart"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/food-ordering/internal/apperr"
	"github.com/MikeMC777/food-ordering/internal/cache"
	"github.com/MikeMC777/food-ordering/internal/logging"
)

type Images interface {
	Save(fh *multipart.FileHeader) (string, error)
	Remove(name string) error
}

type Service struct {
	repo   Repository
	cache  cache.Cache
	images Images
}

func NewService(repo Repository, c cache.Cache, images Images) *Service {
	if c == nil {
		c = cache.Nop{}
	}
	return &Service{repo: repo, cache: c, images: images}
}

func parsePrice(s string) (decimal.Decimal, error) {
	p, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || p.IsNegative() {
		return decimal.Zero, ErrInvalidPrice
	}
	return p.Round(2), nil
}

// List returns the catalog, filtered by category when given. The full list
// is cached; filtering happens after the cache.
func (s *Service) List(ctx context.Context, category string) ([]Item, error) {
	items, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	if category == "" {
		return items, nil
	}
	out := []Item{}
	for _, it := range items {
		if strings.EqualFold(it.Category, category) {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *Service) all(ctx context.Context) ([]Item, error) {
	if b, ok, err := s.cache.Get(ctx, cache.KeyFoodList); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("food cache read failed")
	} else if ok {
		var items []Item
		if err := json.Unmarshal(b, &items); err == nil {
			return items, nil
		}
	}

	items, err := s.repo.List(ctx, Query{})
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(items); err == nil {
		if err := s.cache.Set(ctx, cache.KeyFoodList, b, cache.TTLFoodList); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("food cache write failed")
		}
	}
	return items, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Del(ctx, cache.KeyFoodList); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("food cache invalidation failed")
	}
}

func (s *Service) Get(ctx context.Context, id string) (*Item, error) {
	return s.repo.GetByID(ctx, id)
}

// Add stores the image first and removes it again if the record cannot be
// written.
func (s *Service) Add(ctx context.Context, in CreateRequest, image *multipart.FileHeader) (*Item, error) {
	price, err := parsePrice(in.Price)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperr.New(apperr.Validation, "name is required")
	}
	name, err := s.images.Save(image)
	if err != nil {
		return nil, err
	}

	it := &Item{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Price:       price,
		Category:    strings.TrimSpace(in.Category),
		Image:       name,
	}
	if err := s.repo.Create(ctx, it); err != nil {
		_ = s.images.Remove(name)
		return nil, err
	}
	s.invalidate(ctx)
	return it, nil
}

// Update applies a partial update. Orders already placed keep their own
// price snapshot.
func (s *Service) Update(ctx context.Context, in UpdateRequest) (*Item, error) {
	it, err := s.repo.GetByID(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(in.Name); v != "" {
		it.Name = v
	}
	if v := strings.TrimSpace(in.Description); v != "" {
		it.Description = v
	}
	if v := strings.TrimSpace(in.Category); v != "" {
		it.Category = v
	}
	if in.Price != "" {
		p, err := parsePrice(in.Price)
		if err != nil {
			return nil, err
		}
		it.Price = p
	}
	if err := s.repo.Update(ctx, it); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return it, nil
}

func (s *Service) Remove(ctx context.Context, id string) error {
	it, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	if err := s.images.Remove(it.Image); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("image", it.Image).Msg("image removal failed")
	}
	s.invalidate(ctx)
	return nil
}
