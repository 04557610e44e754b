package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sulthanfragrance/storefront/internal/db"
	"github.com/sulthanfragrance/storefront/internal/models"
	"github.com/sulthanfragrance/storefront/internal/repo"
)

func newTestRepo(t *testing.T) *repo.GormRepo {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	return repo.New(gdb)
}

func seedProduct(t *testing.T, r *repo.GormRepo, name string, price string, variantPrices ...string) *models.Product {
	t.Helper()

	p := &models.Product{
		Name:     name,
		Slug:     name,
		Price:    mustDecimal(t, price),
		IsActive: true,
	}
	base := time.Now().UTC().Add(-time.Hour)
	for i, vp := range variantPrices {
		p.Variants = append(p.Variants, models.ProductVariant{
			ML:        (i + 1) * 50,
			Price:     mustDecimal(t, vp),
			IsActive:  true,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	require.NoError(t, r.DB.Create(p).Error)

	loaded, err := r.ProductByID(context.Background(), p.ID)
	require.NoError(t, err)
	return loaded
}

func seedCombo(t *testing.T, r *repo.GormRepo, title string, discount int, products ...*models.Product) *models.Combo {
	t.Helper()

	cb := &models.Combo{
		Title:              title,
		Slug:               title,
		DiscountPercentage: discount,
		IsActive:           true,
	}
	for _, p := range products {
		item := models.ComboProduct{ProductID: p.ID}
		if v := p.DefaultVariant(); v != nil {
			id := v.ID
			item.VariantID = &id
		}
		cb.Items = append(cb.Items, item)
	}
	require.NoError(t, r.DB.Create(cb).Error)

	loaded, err := r.ComboByID(context.Background(), cb.ID)
	require.NoError(t, err)
	return loaded
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func guestID() string { return uuid.NewString() }

type fakeGateway struct {
	calls  int
	fail   bool
	amount int64
}

func (g *fakeGateway) CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string, notes map[string]interface{}) (string, error) {
	g.calls++
	g.amount = amountPaise
	if g.fail {
		return "", fmt.Errorf("gateway down")
	}
	return fmt.Sprintf("order_rzp_%d", g.calls), nil
}

type fakePublisher struct {
	events []map[string]interface{}
}

func (p *fakePublisher) Publish(ctx context.Context, topic, key string, event map[string]interface{}) error {
	p.events = append(p.events, event)
	return nil
}

type fakeSender struct {
	email string
	code  string
}

func (s *fakeSender) SendOTP(ctx context.Context, email, code string) error {
	s.email = email
	s.code = code
	return nil
}
