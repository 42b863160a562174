package order

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/food-ordering/internal/apperr"
	"github.com/MikeMC777/food-ordering/internal/events"
	"github.com/MikeMC777/food-ordering/internal/food"
	"github.com/MikeMC777/food-ordering/internal/logging"
	"github.com/MikeMC777/food-ordering/internal/metrics"
	"github.com/MikeMC777/food-ordering/internal/payment"
)

const maxStatusLen = 64

// settleGrace is how long after a checkout session closes an order stays
// pending, so a payment completed just before the deadline still confirms.
const settleGrace = 5 * time.Minute

// Carts is the subset of the cart service the lifecycle needs.
type Carts interface {
	GetCart(ctx context.Context, userID string) (map[string]int, error)
	ClearCart(ctx context.Context, userID string) error
}

type Catalog interface {
	GetByID(ctx context.Context, id string) (*food.Item, error)
}

type Options struct {
	DeliveryFee decimal.Decimal
	Currency    string
	FrontendURL string
	Producer    string
	PendingTTL  time.Duration
}

type Service struct {
	repo    Repository
	carts   Carts
	catalog Catalog
	gateway payment.Gateway
	pub     events.Publisher
	opts    Options
	now     func() time.Time
}

func NewService(repo Repository, carts Carts, catalog Catalog, gw payment.Gateway, pub events.Publisher, opts Options) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	if opts.Currency == "" {
		opts.Currency = "usd"
	}
	return &Service{
		repo:    repo,
		carts:   carts,
		catalog: catalog,
		gateway: gw,
		pub:     pub,
		opts:    opts,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) verifyURL(orderID string, success bool) string {
	return fmt.Sprintf("%s/verify?success=%t&orderId=%s", s.opts.FrontendURL, success, orderID)
}

// snapshot copies name and current price of every cart entry that still
// exists in the catalog, in item-id order.
func (s *Service) snapshot(ctx context.Context, cart map[string]int) ([]Item, error) {
	ids := make([]string, 0, len(cart))
	for id, qty := range cart {
		if qty > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	items := make([]Item, 0, len(ids))
	for _, id := range ids {
		f, err := s.catalog.GetByID(ctx, id)
		if errors.Is(err, food.ErrNotFound) {
			logging.Ctx(ctx).Warn().Str("food_id", id).Msg("cart item no longer in catalog, skipped")
			continue
		}
		if err != nil {
			return nil, err
		}
		items = append(items, Item{FoodID: f.ID, Name: f.Name, Price: f.Price, Quantity: cart[id]})
	}
	return items, nil
}

// Place builds an order from the user's cart and opens a payment session.
// The cart is left untouched until the payment is confirmed.
func (s *Service) Place(ctx context.Context, userID string, addr Address) (*PlaceResponse, error) {
	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cart) == 0 {
		return nil, ErrEmptyCart
	}
	items, err := s.snapshot(ctx, cart)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	o := &Order{
		ID:          uuid.NewString(),
		UserID:      userID,
		Items:       items,
		Address:     addr,
		DeliveryFee: s.opts.DeliveryFee,
		Amount:      Subtotal(items).Add(s.opts.DeliveryFee),
		Payment:     PaymentPending,
		Status:      DefaultStatus,
	}
	if err := s.repo.Create(ctx, o); err != nil {
		return nil, err
	}
	metrics.OrdersPlacedTotal.Inc()
	s.publish(ctx, events.EventOrderPlaced, o.ID, events.OrderPlacedPayload{
		OrderID: o.ID, UserID: userID, Amount: o.Amount.StringFixed(2), Items: len(items),
	})

	lines := make([]payment.Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, payment.Line{Name: it.Name, UnitPrice: it.Price, Quantity: int64(it.Quantity)})
	}
	req := payment.CheckoutRequest{
		OrderID:     o.ID,
		Currency:    s.opts.Currency,
		Lines:       lines,
		DeliveryFee: o.DeliveryFee,
		SuccessURL:  s.verifyURL(o.ID, true),
		CancelURL:   s.verifyURL(o.ID, false),
	}
	if s.opts.PendingTTL > 0 {
		req.ExpiresAt = s.now().Add(s.opts.PendingTTL)
	}
	sess, err := s.gateway.CreateSession(ctx, req)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("order_id", o.ID).Msg("payment session failed")
		if _, uerr := s.repo.UpdatePayment(ctx, o.ID, PaymentFailed); uerr != nil {
			logging.Ctx(ctx).Error().Err(uerr).Str("order_id", o.ID).Msg("mark order failed")
		}
		s.publish(ctx, events.EventPaymentFailed, o.ID, events.PaymentPayload{OrderID: o.ID, UserID: userID, Reason: "gateway_error"})
		if apperr.KindOf(err) != apperr.UpstreamFailure {
			err = apperr.Wrap(apperr.UpstreamFailure, "payment gateway error", err)
		}
		return nil, err
	}

	// The session is already payable; verification goes by order id.
	if err := s.repo.SetSession(ctx, o.ID, sess.ID); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("order_id", o.ID).Str("session_id", sess.ID).Msg("store payment session")
	}
	return &PlaceResponse{OrderID: o.ID, SessionID: sess.ID, SessionURL: sess.URL}, nil
}

// ConfirmPayment records the outcome reported by the checkout redirect.
// A successful payment clears the owner's cart.
func (s *Service) ConfirmPayment(ctx context.Context, orderID string, success bool) (*Order, error) {
	to := PaymentFailed
	if success {
		to = PaymentPaid
	}
	o, err := s.repo.UpdatePayment(ctx, orderID, to)
	if err != nil {
		return nil, err
	}
	metrics.PaymentsConfirmedTotal.WithLabelValues(string(to)).Inc()

	if !success {
		s.publish(ctx, events.EventPaymentFailed, o.ID, events.PaymentPayload{OrderID: o.ID, UserID: o.UserID, Reason: "declined"})
		return o, nil
	}
	if err := s.carts.ClearCart(ctx, o.UserID); err != nil {
		return nil, fmt.Errorf("clear cart of %s: %w", o.UserID, err)
	}
	s.publish(ctx, events.EventPaymentConfirmed, o.ID, events.PaymentPayload{OrderID: o.ID, UserID: o.UserID})
	return o, nil
}

func (s *Service) Get(ctx context.Context, orderID string) (*Order, error) {
	return s.repo.GetByID(ctx, orderID)
}

func (s *Service) ListForUser(ctx context.Context, userID string) ([]Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) ListAll(ctx context.Context) ([]Order, error) {
	return s.repo.List(ctx)
}

// UpdateStatus overwrites the fulfillment label of a paid order; labels are
// free-form.
func (s *Service) UpdateStatus(ctx context.Context, orderID, status string) error {
	status = strings.TrimSpace(status)
	if status == "" || utf8.RuneCountInString(status) > maxStatusLen {
		return ErrInvalidLabel
	}
	if err := s.repo.UpdateStatus(ctx, orderID, status); err != nil {
		return err
	}
	s.publish(ctx, events.EventFulfillmentUpdated, orderID, events.FulfillmentPayload{OrderID: orderID, Status: status})
	return nil
}

// ExpireStale fails orders whose checkout session closed more than
// settleGrace ago.
func (s *Service) ExpireStale(ctx context.Context) (int, error) {
	if s.opts.PendingTTL <= 0 {
		return 0, nil
	}
	expired, err := s.repo.ExpirePending(ctx, s.now().Add(-(s.opts.PendingTTL + settleGrace)))
	for _, o := range expired {
		metrics.OrdersExpiredTotal.Inc()
		s.publish(ctx, events.EventOrderExpired, o.ID, events.PaymentPayload{OrderID: o.ID, UserID: o.UserID, Reason: "payment_timeout"})
	}
	return len(expired), err
}

// RunSweeper calls ExpireStale every interval until ctx is done.
func (s *Service) RunSweeper(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := s.ExpireStale(ctx)
			if err != nil {
				logging.Error().Err(err).Msg("expire pending orders")
			}
			if n > 0 {
				logging.Info().Int("expired", n).Msg("pending orders expired")
			}
		}
	}
}

func (s *Service) publish(ctx context.Context, eventType, orderID string, payload any) {
	env, err := events.New(eventType, s.opts.Producer, orderID, payload)
	if err == nil {
		err = s.pub.Publish(ctx, env)
	}
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("event", eventType).Str("order_id", orderID).Msg("event publish failed")
	}
}
