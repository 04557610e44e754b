package httpserver

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sulthanfragrance/storefront/internal/db"
	"github.com/sulthanfragrance/storefront/internal/models"
	"github.com/sulthanfragrance/storefront/internal/repo"
	"github.com/sulthanfragrance/storefront/internal/service"
	"github.com/sulthanfragrance/storefront/internal/token"
)

const (
	testKeySecret     = "test_key_secret"
	testWebhookSecret = "test_webhook_secret"
)

type fakeGateway struct{ calls int }

func (g *fakeGateway) CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string, notes map[string]interface{}) (string, error) {
	g.calls++
	return fmt.Sprintf("order_rzp_%d", g.calls), nil
}

type testEnv struct {
	T       *testing.T
	E       *echo.Echo
	Repo    *repo.GormRepo
	Tokens  *token.Service
	Sender  *fakeSender
	cookies []*http.Cookie
}

type fakeSender struct{ code string }

func (s *fakeSender) SendOTP(ctx context.Context, email, code string) error {
	s.code = code
	return nil
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	r := repo.New(gdb)

	tokens := token.NewService([]byte("test-jwt-secret"))
	sender := &fakeSender{}

	catalogSvc := &service.CatalogService{Repo: r}
	cartSvc := &service.CartService{Repo: r}
	checkoutSvc := &service.CheckoutService{
		Repo:          r,
		Gateway:       &fakeGateway{},
		KeySecret:     testKeySecret,
		WebhookSecret: testWebhookSecret,
		AdvanceAmount: decimal.NewFromInt(50),
	}
	orderSvc := &service.OrderService{Repo: r}
	authSvc := &service.AuthService{Repo: r, Sender: sender}
	accountSvc := &service.AccountService{Repo: r}

	e := echo.New()
	Register(e, &Deps{
		Catalog:  &CatalogHTTP{Svc: catalogSvc},
		Cart:     &CartHTTP{Svc: cartSvc},
		Checkout: &CheckoutHTTP{Svc: checkoutSvc, KeyID: "rzp_test_key"},
		Orders:   &OrderHTTP{Svc: orderSvc},
		Auth:     &AuthHTTP{Auth: authSvc, Account: accountSvc, Cart: cartSvc, Tokens: tokens},
		Admin:    &AdminHTTP{Catalog: catalogSvc, Orders: orderSvc},
		Tokens:   tokens,
	})

	return &testEnv{T: t, E: e, Repo: r, Tokens: tokens, Sender: sender}
}

// do sends a request, carrying cookies across calls like a browser would.
func (env *testEnv) do(method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	env.T.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range env.cookies {
		req.AddCookie(ck)
	}

	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		env.setCookie(ck)
	}

	var resp map[string]interface{}
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	}
	return rec, resp
}

func (env *testEnv) setCookie(ck *http.Cookie) {
	for i, existing := range env.cookies {
		if existing.Name == ck.Name {
			env.cookies[i] = ck
			return
		}
	}
	env.cookies = append(env.cookies, ck)
}

func (env *testEnv) seedProduct(name, price string) *models.Product {
	env.T.Helper()

	d, err := decimal.NewFromString(price)
	require.NoError(env.T, err)

	p := &models.Product{
		Name:     name,
		Slug:     name,
		IsActive: true,
		Variants: []models.ProductVariant{{ML: 50, Price: d, IsActive: true}},
	}
	require.NoError(env.T, env.Repo.DB.Create(p).Error)
	return p
}

func (env *testEnv) loginStaff() {
	env.T.Helper()

	user := &models.User{Email: "admin@example.com", IsActive: true, IsStaff: true}
	require.NoError(env.T, env.Repo.DB.Create(user).Error)

	signed, expires, err := env.Tokens.Issue(user.ID, true)
	require.NoError(env.T, err)
	env.setCookie(token.Cookie(signed, expires))
}

func shippingBody(extra map[string]interface{}) map[string]interface{} {
	body := map[string]interface{}{
		"customer_name": "Fathima Noor",
		"phone":         "9876543210",
		"address_line":  "12 Beach Road",
		"city":          "Kanhangad",
		"pincode":       "671315",
	}
	for k, v := range extra {
		body[k] = v
	}
	return body
}

func TestGuestCartFlow(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	p := env.seedProduct("http-cart-test", "450.00")

	rec, resp := env.do(http.MethodGet, "/api/v1/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 0, resp["item_count"])

	rec, resp = env.do(http.MethodPost, "/api/v1/cart/items", map[string]interface{}{
		"item_type":  "product",
		"product_id": p.ID.String(),
		"quantity":   2,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 2, resp["item_count"])
	require.Equal(t, "900", resp["total"])

	rec, _ = env.do(http.MethodPost, "/api/v1/cart/items", map[string]interface{}{
		"item_type":  "product",
		"product_id": "not-a-uuid",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// a client without the guest cookie gets its own empty cart
	fresh := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	freshRec := httptest.NewRecorder()
	env.E.ServeHTTP(freshRec, fresh)
	require.Equal(t, http.StatusOK, freshRec.Code)

	var freshResp map[string]interface{}
	require.NoError(t, json.Unmarshal(freshRec.Body.Bytes(), &freshResp))
	require.EqualValues(t, 0, freshResp["item_count"])

	// while the original client still sees its two units
	rec, resp = env.do(http.MethodGet, "/api/v1/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 2, resp["item_count"])
}

func TestCheckoutAndWebhookFlow(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	p := env.seedProduct("http-checkout-test", "1900.00")

	rec, _ := env.do(http.MethodPost, "/api/v1/cart/items", map[string]interface{}{
		"item_type":  "product",
		"product_id": p.ID.String(),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, resp := env.do(http.MethodPost, "/api/v1/checkout/razorpay", shippingBody(nil))
	require.Equal(t, http.StatusCreated, rec.Code)
	orderNumber := resp["order_number"].(string)
	gwID := resp["razorpay_order_id"].(string)
	require.Equal(t, "rzp_test_key", resp["razorpay_key_id"])
	require.NotEmpty(t, orderNumber)

	// tampered verify fails with 400 and the payment is failed
	rec, _ = env.do(http.MethodPost, "/api/v1/checkout/verify", map[string]interface{}{
		"razorpay_order_id":   gwID,
		"razorpay_payment_id": "pay_1",
		"razorpay_signature":  "bad",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// the webhook can still settle the order
	body := []byte(fmt.Sprintf(
		`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_wh","order_id":%q}}}}`, gwID))
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write(body)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/razorpay", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("X-Razorpay-Signature", hex.EncodeToString(mac.Sum(nil)))
	wrec := httptest.NewRecorder()
	env.E.ServeHTTP(wrec, req)
	require.Equal(t, http.StatusOK, wrec.Code)

	order, err := env.Repo.OrderByNumber(context.Background(), orderNumber)
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusCompleted, order.PaymentStatus)
}

func TestGuestOrderTracking(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	p := env.seedProduct("http-track-test", "600.00")

	env.do(http.MethodPost, "/api/v1/cart/items", map[string]interface{}{
		"item_type":  "product",
		"product_id": p.ID.String(),
	})
	_, resp := env.do(http.MethodPost, "/api/v1/checkout/cod", shippingBody(nil))
	orderNumber := resp["order_number"].(string)

	rec, resp := env.do(http.MethodPost, "/api/v1/orders/track", map[string]interface{}{
		"order_number":  orderNumber,
		"customer_name": "FATHIMA NOOR",
		"phone":         "+91 98765 43210",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, orderNumber, resp["order_number"])

	rec, _ = env.do(http.MethodPost, "/api/v1/orders/track", map[string]interface{}{
		"order_number":  orderNumber,
		"customer_name": "Wrong Name",
		"phone":         "9876543210",
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOTPLoginFlow(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	p := env.seedProduct("http-login-test", "150.00")

	// cart filled as a guest survives login
	env.do(http.MethodPost, "/api/v1/cart/items", map[string]interface{}{
		"item_type":  "product",
		"product_id": p.ID.String(),
	})

	rec, _ := env.do(http.MethodPost, "/api/v1/auth/otp/send", map[string]interface{}{
		"email": "shopper@example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, env.Sender.code)

	rec, _ = env.do(http.MethodPost, "/api/v1/auth/otp/verify", map[string]interface{}{
		"email": "shopper@example.com",
		"otp":   env.Sender.code,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, resp := env.do(http.MethodGet, "/api/v1/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "shopper@example.com", resp["email"])

	rec, resp = env.do(http.MethodGet, "/api/v1/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 1, resp["item_count"])

	rec, _ = env.do(http.MethodPost, "/api/v1/auth/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = env.do(http.MethodGet, "/api/v1/me", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRequiresStaff(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec, _ := env.do(http.MethodPost, "/api/v1/admin/products", map[string]interface{}{"name": "X"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// a plain user is forbidden
	user := &models.User{Email: "plain@example.com", IsActive: true}
	require.NoError(t, env.Repo.DB.Create(user).Error)
	signed, expires, err := env.Tokens.Issue(user.ID, false)
	require.NoError(t, err)
	env.setCookie(token.Cookie(signed, expires))

	rec, _ = env.do(http.MethodPost, "/api/v1/admin/products", map[string]interface{}{"name": "X"})
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminCatalogAndOrders(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.loginStaff()

	rec, resp := env.do(http.MethodPost, "/api/v1/admin/products", map[string]interface{}{
		"name":      "Midnight Rose",
		"is_active": true,
		"variants":  []map[string]interface{}{{"ml": 50, "price": "750.00", "is_active": true}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "midnight-rose", resp["slug"])

	rec, _ = env.do(http.MethodPost, "/api/v1/admin/categories", map[string]interface{}{
		"name": "Attars", "is_active": true,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, resp = env.do(http.MethodGet, "/api/v1/admin/orders", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, resp["meta"])

	// public read sees the new product
	rec, _ = env.do(http.MethodGet, "/api/v1/products/midnight-rose", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}
