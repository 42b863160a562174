package order

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MikeMC777/food-ordering/internal/apperr"
	"github.com/MikeMC777/food-ordering/internal/events"
	"github.com/MikeMC777/food-ordering/internal/food"
	"github.com/MikeMC777/food-ordering/internal/payment"
)

// fakeCarts keeps carts per user.
type fakeCarts struct {
	carts   map[string]map[string]int
	cleared []string
}

func (f *fakeCarts) GetCart(_ context.Context, userID string) (map[string]int, error) {
	out := map[string]int{}
	for k, v := range f.carts[userID] {
		out[k] = v
	}
	return out, nil
}

func (f *fakeCarts) ClearCart(_ context.Context, userID string) error {
	f.carts[userID] = map[string]int{}
	f.cleared = append(f.cleared, userID)
	return nil
}

type stubGateway struct {
	err  error
	last payment.CheckoutRequest
}

func (g *stubGateway) CreateSession(_ context.Context, req payment.CheckoutRequest) (*payment.Session, error) {
	g.last = req
	if g.err != nil {
		return nil, g.err
	}
	return &payment.Session{ID: "cs_" + req.OrderID, URL: "https://pay.example/" + req.OrderID}, nil
}

type recorder struct {
	mu    sync.Mutex
	types []string
}

func (r *recorder) Publish(_ context.Context, env events.Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, env.EventType)
	return nil
}

type fixture struct {
	svc     *Service
	repo    *MemRepo
	carts   *fakeCarts
	catalog *food.MemRepo
	gw      *stubGateway
	pub     *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{
		repo:    NewMemRepo(),
		carts:   &fakeCarts{carts: map[string]map[string]int{}},
		catalog: food.NewMemRepo(),
		gw:      &stubGateway{},
		pub:     &recorder{},
	}
	_ = f.catalog.Create(ctx, &food.Item{ID: "soup", Name: "Soup", Price: decimal.RequireFromString("4.50")})
	_ = f.catalog.Create(ctx, &food.Item{ID: "cake", Name: "Cake", Price: decimal.RequireFromString("6.00")})
	f.svc = NewService(f.repo, f.carts, f.catalog, f.gw, f.pub, Options{
		DeliveryFee: decimal.RequireFromString("2.00"),
		FrontendURL: "http://shop.local",
		Producer:    "test",
		PendingTTL:  time.Hour,
	})
	return f
}

var addr = Address{FirstName: "Ada", LastName: "L", Email: "ada@example.com", Street: "1 Main", City: "X", Zipcode: "1", Country: "Y", Phone: "1"}

func TestPlace_EmptyCartCreatesNothing(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Place(context.Background(), "u1", addr)
	if !errors.Is(err, ErrEmptyCart) || apperr.KindOf(err) != apperr.EmptyCart {
		t.Fatalf("err=%v", err)
	}
	if all, _ := f.repo.List(context.Background()); len(all) != 0 {
		t.Fatalf("orders created: %d", len(all))
	}
}

func TestPlace_OnlyUnknownItemsIsEmptyCart(t *testing.T) {
	f := newFixture(t)
	f.carts.carts["u1"] = map[string]int{"gone": 2}
	if _, err := f.svc.Place(context.Background(), "u1", addr); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("err=%v", err)
	}
}

func TestPlace_SnapshotAndTotal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.carts.carts["u1"] = map[string]int{"soup": 2, "cake": 1, "gone": 1}

	res, err := f.svc.Place(ctx, "u1", addr)
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if res.SessionID != "cs_"+res.OrderID || !strings.HasPrefix(res.SessionURL, "https://pay.example/") {
		t.Fatalf("res=%+v", res)
	}
	if f.gw.last.SuccessURL != "http://shop.local/verify?success=true&orderId="+res.OrderID {
		t.Fatalf("success url=%q", f.gw.last.SuccessURL)
	}

	o, _ := f.svc.Get(ctx, res.OrderID)
	if o.Payment != PaymentPending || o.Status != DefaultStatus || o.SessionID != res.SessionID {
		t.Fatalf("order=%+v", o)
	}
	if len(o.Items) != 2 {
		t.Fatalf("items=%+v", o.Items)
	}
	// 2*4.50 + 6.00 + 2.00
	if o.Amount.StringFixed(2) != "17.00" {
		t.Fatalf("amount=%s", o.Amount)
	}
	if len(f.carts.cleared) != 0 {
		t.Fatalf("cart cleared at placement")
	}

	// later catalog price change does not touch the snapshot
	soup, _ := f.catalog.GetByID(ctx, "soup")
	soup.Price = decimal.RequireFromString("99")
	_ = f.catalog.Update(ctx, soup)
	o, _ = f.svc.Get(ctx, res.OrderID)
	for _, it := range o.Items {
		if it.FoodID == "soup" && it.Price.StringFixed(2) != "4.50" {
			t.Fatalf("snapshot changed: %+v", it)
		}
	}
	if o.Amount.StringFixed(2) != "17.00" {
		t.Fatalf("amount changed: %s", o.Amount)
	}
}

func TestPlace_GatewayFailureMarksOrderFailed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.carts.carts["u1"] = map[string]int{"soup": 1}
	f.gw.err = errors.New("connection refused")

	_, err := f.svc.Place(ctx, "u1", addr)
	if apperr.KindOf(err) != apperr.UpstreamFailure {
		t.Fatalf("err=%v", err)
	}
	all, _ := f.repo.List(ctx)
	if len(all) != 1 || all[0].Payment != PaymentFailed {
		t.Fatalf("orders=%+v", all)
	}
	if got := f.carts.carts["u1"]["soup"]; got != 1 {
		t.Fatalf("cart touched: %d", got)
	}
}

func TestConfirmPayment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.carts.carts["u1"] = map[string]int{"soup": 1}
	f.carts.carts["u2"] = map[string]int{"cake": 3}

	res, err := f.svc.Place(ctx, "u1", addr)
	if err != nil {
		t.Fatal(err)
	}

	// declined leaves the cart alone
	{
		f2 := newFixture(t)
		f2.carts.carts["u1"] = map[string]int{"soup": 1}
		r2, _ := f2.svc.Place(ctx, "u1", addr)
		o, err := f2.svc.ConfirmPayment(ctx, r2.OrderID, false)
		if err != nil || o.Payment != PaymentFailed {
			t.Fatalf("o=%+v err=%v", o, err)
		}
		if len(f2.carts.cleared) != 0 {
			t.Fatalf("cart cleared on failure")
		}
		if _, err := f2.svc.ConfirmPayment(ctx, r2.OrderID, true); apperr.KindOf(err) != apperr.Conflict {
			t.Fatalf("flip failed->paid: err=%v", err)
		}
	}

	o, err := f.svc.ConfirmPayment(ctx, res.OrderID, true)
	if err != nil || o.Payment != PaymentPaid {
		t.Fatalf("o=%+v err=%v", o, err)
	}
	if len(f.carts.cleared) != 1 || f.carts.cleared[0] != "u1" {
		t.Fatalf("cleared=%v", f.carts.cleared)
	}
	if f.carts.carts["u2"]["cake"] != 3 {
		t.Fatalf("other user's cart touched")
	}

	// repeating the same outcome re-applies the side effect
	if _, err := f.svc.ConfirmPayment(ctx, res.OrderID, true); err != nil {
		t.Fatalf("repeat: %v", err)
	}
	if len(f.carts.cleared) != 2 {
		t.Fatalf("cleared=%v", f.carts.cleared)
	}

	if _, err := f.svc.ConfirmPayment(ctx, "nope", true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err=%v", err)
	}
}

func TestListsAndStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.carts.carts["u1"] = map[string]int{"soup": 1}
	f.carts.carts["u2"] = map[string]int{"cake": 1}

	a, _ := f.svc.Place(ctx, "u1", addr)
	b, _ := f.svc.Place(ctx, "u2", addr)
	c, _ := f.svc.Place(ctx, "u1", addr)

	mine, _ := f.svc.ListForUser(ctx, "u1")
	if len(mine) != 2 || mine[0].ID != a.OrderID || mine[1].ID != c.OrderID {
		t.Fatalf("mine=%v", mine)
	}
	all, _ := f.svc.ListAll(ctx)
	if len(all) != 3 || all[1].ID != b.OrderID {
		t.Fatalf("all=%v", all)
	}

	// only paid orders carry a fulfillment status
	if err := f.svc.UpdateStatus(ctx, b.OrderID, "Delivered"); !errors.Is(err, ErrNotPaid) || apperr.KindOf(err) != apperr.Conflict {
		t.Fatalf("pending order: err=%v", err)
	}
	if _, err := f.svc.ConfirmPayment(ctx, a.OrderID, false); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.UpdateStatus(ctx, a.OrderID, "Delivered"); !errors.Is(err, ErrNotPaid) {
		t.Fatalf("failed order: err=%v", err)
	}
	if o, _ := f.svc.Get(ctx, b.OrderID); o.Status != DefaultStatus {
		t.Fatalf("status changed on unpaid order: %q", o.Status)
	}

	if _, err := f.svc.ConfirmPayment(ctx, b.OrderID, true); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.UpdateStatus(ctx, b.OrderID, "Delivered"); err != nil {
		t.Fatal(err)
	}
	// no ordering between labels
	if err := f.svc.UpdateStatus(ctx, b.OrderID, "Food Processing"); err != nil {
		t.Fatal(err)
	}
	o, _ := f.svc.Get(ctx, b.OrderID)
	if o.Status != "Food Processing" {
		t.Fatalf("status=%q", o.Status)
	}
	if err := f.svc.UpdateStatus(ctx, b.OrderID, "  "); !errors.Is(err, ErrInvalidLabel) {
		t.Fatalf("err=%v", err)
	}
	if err := f.svc.UpdateStatus(ctx, "nope", "Delivered"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err=%v", err)
	}
}

func TestExpireStale(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.carts.carts["u1"] = map[string]int{"soup": 1}

	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	f.repo.now = func() time.Time { return base }
	old, _ := f.svc.Place(ctx, "u1", addr)
	paid, _ := f.svc.Place(ctx, "u1", addr)
	_, _ = f.svc.ConfirmPayment(ctx, paid.OrderID, true)

	f.carts.carts["u1"] = map[string]int{"soup": 1}
	f.repo.now = func() time.Time { return base.Add(50 * time.Minute) }
	fresh, _ := f.svc.Place(ctx, "u1", addr)

	// session closed at +60m, sweep waits out the grace period
	f.svc.now = func() time.Time { return base.Add(62 * time.Minute) }
	if n, _ := f.svc.ExpireStale(ctx); n != 0 {
		t.Fatalf("expired inside grace: n=%d", n)
	}
	f.svc.now = func() time.Time { return base.Add(66 * time.Minute) }
	n, err := f.svc.ExpireStale(ctx)
	if err != nil || n != 1 {
		t.Fatalf("n=%d err=%v", n, err)
	}
	for id, want := range map[string]PaymentStatus{old.OrderID: PaymentFailed, paid.OrderID: PaymentPaid, fresh.OrderID: PaymentPending} {
		o, _ := f.svc.Get(ctx, id)
		if o.Payment != want {
			t.Fatalf("%s: payment=%s want %s", id, o.Payment, want)
		}
	}
	found := false
	for _, typ := range f.pub.types {
		if typ == events.EventOrderExpired {
			found = true
		}
	}
	if !found {
		t.Fatalf("no expiry event: %v", f.pub.types)
	}
}

func TestExpireStale_LateSuccessBeforeSweep(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.carts.carts["u1"] = map[string]int{"soup": 1}

	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	f.repo.now = func() time.Time { return base }
	f.svc.now = func() time.Time { return base }
	res, err := f.svc.Place(ctx, "u1", addr)
	if err != nil {
		t.Fatal(err)
	}
	deadline := f.gw.last.ExpiresAt
	if !deadline.Equal(base.Add(time.Hour)) {
		t.Fatalf("session deadline=%s", deadline)
	}

	// paid just before the session closed, redirect lands after it
	f.svc.now = func() time.Time { return deadline.Add(2 * time.Minute) }
	if n, err := f.svc.ExpireStale(ctx); err != nil || n != 0 {
		t.Fatalf("n=%d err=%v", n, err)
	}
	o, err := f.svc.ConfirmPayment(ctx, res.OrderID, true)
	if err != nil || o.Payment != PaymentPaid {
		t.Fatalf("o=%+v err=%v", o, err)
	}
	if len(f.carts.carts["u1"]) != 0 {
		t.Fatalf("cart not cleared: %v", f.carts.carts["u1"])
	}

	// once settled the sweep leaves it alone
	f.svc.now = func() time.Time { return deadline.Add(90 * time.Minute) }
	if n, _ := f.svc.ExpireStale(ctx); n != 0 {
		t.Fatalf("paid order expired: n=%d", n)
	}
	if o, _ := f.svc.Get(ctx, res.OrderID); o.Payment != PaymentPaid {
		t.Fatalf("payment=%s", o.Payment)
	}
}

func TestExpireStale_SweepsOnlyClosedSessions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.carts.carts["u1"] = map[string]int{"soup": 1}

	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	f.repo.now = func() time.Time { return base }
	f.svc.now = func() time.Time { return base }
	res, _ := f.svc.Place(ctx, "u1", addr)
	deadline := f.gw.last.ExpiresAt

	// first moment the sweep may fail the order is past the payment deadline
	for _, at := range []time.Duration{time.Minute, 30 * time.Minute, time.Hour, time.Hour + settleGrace} {
		f.svc.now = func() time.Time { return base.Add(at) }
		if n, _ := f.svc.ExpireStale(ctx); n != 0 {
			t.Fatalf("at +%s: expired while session payable until %s", at, deadline)
		}
	}
	f.svc.now = func() time.Time { return base.Add(time.Hour + settleGrace + time.Second) }
	if n, _ := f.svc.ExpireStale(ctx); n != 1 {
		t.Fatalf("n=%d", n)
	}
	if o, _ := f.svc.Get(ctx, res.OrderID); o.Payment != PaymentFailed {
		t.Fatalf("payment=%s", o.Payment)
	}
}

func TestPlace_SessionStoreFailureStillReturnsSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.carts.carts["u1"] = map[string]int{"soup": 1}
	f.svc.repo = failingSessionRepo{f.repo}

	res, err := f.svc.Place(ctx, "u1", addr)
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if res.SessionURL == "" || res.SessionID != "cs_"+res.OrderID {
		t.Fatalf("res=%+v", res)
	}
	o, err := f.svc.ConfirmPayment(ctx, res.OrderID, true)
	if err != nil || o.Payment != PaymentPaid {
		t.Fatalf("o=%+v err=%v", o, err)
	}
}

type failingSessionRepo struct{ *MemRepo }

func (failingSessionRepo) SetSession(context.Context, string, string) error {
	return errors.New("connection reset")
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to PaymentStatus
		want     bool
	}{
		{PaymentPending, PaymentPaid, true},
		{PaymentPending, PaymentFailed, true},
		{PaymentPaid, PaymentPaid, true},
		{PaymentPaid, PaymentFailed, false},
		{PaymentFailed, PaymentPaid, false},
		{PaymentPaid, PaymentPending, false},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Fatalf("%s->%s: got %v", c.from, c.to, got)
		}
	}
}

func TestFlagUnmarshal(t *testing.T) {
	for in, want := range map[string]bool{`true`: true, `"true"`: true, `false`: false, `"false"`: false} {
		var f Flag
		if err := f.UnmarshalJSON([]byte(in)); err != nil || bool(f) != want {
			t.Fatalf("%s: f=%v err=%v", in, f, err)
		}
	}
	var f Flag
	if err := f.UnmarshalJSON([]byte(`"maybe"`)); err == nil {
		t.Fatalf("expected error")
	}
}
