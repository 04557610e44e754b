package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestCatalogService_CreateProduct(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &CatalogService{Repo: r}
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, ProductInput{
		Name:           "Velvet Oud Attar",
		Origin:         "Indian",
		FragranceNotes: "oud, saffron, amber",
		IsActive:       true,
		Variants: []VariantInput{
			{ML: 6, Price: mustDecimal(t, "299.00"), IsActive: true},
			{ML: 12, Price: mustDecimal(t, "549.00"), IsActive: true},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "velvet-oud-attar", p.Slug)
	require.Len(t, p.Variants, 2)

	_, err = svc.CreateProduct(ctx, ProductInput{})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateProduct(ctx, ProductInput{
		Name:     "Bad Variant",
		Variants: []VariantInput{{ML: 0, Price: decimal.Zero}},
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestCatalogService_FeaturedProduct(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &CatalogService{Repo: r}
	ctx := context.Background()

	_, err := svc.FeaturedProduct(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	old := seedProduct(t, r, "older-attar", "0", "200.00")
	newest := seedProduct(t, r, "newest-attar", "0", "300.00")
	require.NoError(t, r.DB.Model(old).Update("created_at", time.Now().UTC().Add(-48*time.Hour)).Error)

	// nothing flagged, newest active product wins
	p, err := svc.FeaturedProduct(ctx)
	require.NoError(t, err)
	require.Equal(t, newest.ID, p.ID)

	// a flagged product beats a newer unflagged one
	require.NoError(t, r.DB.Model(old).Update("is_featured", true).Error)
	p, err = svc.FeaturedProduct(ctx)
	require.NoError(t, err)
	require.Equal(t, old.ID, p.ID)

	// inactive featured products are ignored
	require.NoError(t, r.DB.Model(old).Update("is_active", false).Error)
	p, err = svc.FeaturedProduct(ctx)
	require.NoError(t, err)
	require.Equal(t, newest.ID, p.ID)
}

func TestCatalogService_PublicReadsHideInactive(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &CatalogService{Repo: r}
	ctx := context.Background()

	p := seedProduct(t, r, "hidden-product", "0", "150.00")
	require.NoError(t, r.DB.Model(p).Update("is_active", false).Error)

	_, err := svc.ProductBySlug(ctx, "hidden-product")
	require.ErrorIs(t, err, ErrNotFound)

	_, products, err := svc.ListProducts(ctx, nil, 0, 20)
	require.NoError(t, err)
	for i := range products {
		require.NotEqual(t, p.ID, products[i].ID)
	}

	cb := seedCombo(t, r, "hidden-combo", 5, p)
	require.NoError(t, r.DB.Model(cb).Update("is_active", false).Error)
	_, err = svc.ComboBySlug(ctx, "hidden-combo")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCatalogService_CreateCombo_SlugDedup(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &CatalogService{Repo: r}
	ctx := context.Background()

	p := seedProduct(t, r, "combo-base", "0", "400.00")
	item := ComboItemInput{ProductID: p.ID}

	first, err := svc.CreateCombo(ctx, ComboInput{Title: "Gift Pack", DiscountPercentage: 10, IsActive: true, Items: []ComboItemInput{item}})
	require.NoError(t, err)
	require.Equal(t, "gift-pack", first.Slug)

	second, err := svc.CreateCombo(ctx, ComboInput{Title: "Gift Pack", DiscountPercentage: 15, IsActive: true, Items: []ComboItemInput{item}})
	require.NoError(t, err)
	require.Equal(t, "gift-pack-1", second.Slug)
}

func TestCatalogService_CreateCombo_Validation(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &CatalogService{Repo: r}
	ctx := context.Background()

	p := seedProduct(t, r, "combo-val", "0", "200.00")

	_, err := svc.CreateCombo(ctx, ComboInput{Title: "", DiscountPercentage: 10})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateCombo(ctx, ComboInput{Title: "Too Deep", DiscountPercentage: 101})
	require.ErrorIs(t, err, ErrValidation)

	missing := uuid.New()
	_, err = svc.CreateCombo(ctx, ComboInput{Title: "Ghost", DiscountPercentage: 10,
		Items: []ComboItemInput{{ProductID: missing}}})
	require.ErrorIs(t, err, ErrNotFound)

	// a pinned variant must belong to the pinned product
	other := seedProduct(t, r, "combo-other", "0", "300.00")
	foreignVariant := other.DefaultVariant().ID
	_, err = svc.CreateCombo(ctx, ComboInput{Title: "Mismatch", DiscountPercentage: 10,
		Items: []ComboItemInput{{ProductID: p.ID, VariantID: &foreignVariant}}})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCatalogService_ComboPriceFollowsVariantEdits(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	p1 := seedProduct(t, r, "price-follow-a", "0", "500.00")
	p2 := seedProduct(t, r, "price-follow-b", "0", "300.00")
	cb := seedCombo(t, r, "price-follow", 20, p1, p2)

	// (500 + 300) * 0.80 = 640.00
	require.True(t, cb.DiscountedPrice().Equal(mustDecimal(t, "640.00")))

	v := p1.DefaultVariant()
	v.Price = mustDecimal(t, "700.00")
	require.NoError(t, r.SaveVariant(ctx, v))

	reloaded, err := r.ComboByID(ctx, cb.ID)
	require.NoError(t, err)
	// (700 + 300) * 0.80 = 800.00
	require.True(t, reloaded.DiscountedPrice().Equal(mustDecimal(t, "800.00")))
}

func TestCatalogService_UpdateCombo_ReplacesItems(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &CatalogService{Repo: r}
	ctx := context.Background()

	p1 := seedProduct(t, r, "swap-a", "0", "100.00")
	p2 := seedProduct(t, r, "swap-b", "0", "250.00")
	cb := seedCombo(t, r, "swap-pack", 10, p1)

	updated, err := svc.UpdateCombo(ctx, cb.ID, ComboInput{
		Title:              cb.Title,
		DiscountPercentage: 25,
		IsActive:           true,
		Items:              []ComboItemInput{{ProductID: p2.ID}},
	})
	require.NoError(t, err)
	require.Equal(t, 25, updated.DiscountPercentage)
	require.Len(t, updated.Items, 1)
	require.Equal(t, p2.ID, updated.Items[0].ProductID)
}

func TestCatalogService_CatalogEventsPublished(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	pub := &fakePublisher{}
	svc := &CatalogService{Repo: r, Producer: pub}
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, ProductInput{Name: "Event Attar", IsActive: true})
	require.NoError(t, err)
	require.Len(t, pub.events, 1)
	require.Equal(t, "product_created", pub.events[0]["type"])

	require.NoError(t, svc.DeleteProduct(ctx, p.ID))
	require.Len(t, pub.events, 2)
	require.Equal(t, "product_deleted", pub.events[1]["type"])
}

func TestCatalogService_Categories(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &CatalogService{Repo: r}
	ctx := context.Background()

	cat, err := svc.CreateCategory(ctx, CategoryInput{Name: "Attars", DisplayOrder: 1, IsActive: true})
	require.NoError(t, err)
	require.Equal(t, "attars", cat.Slug)

	_, err = svc.CreateCategory(ctx, CategoryInput{})
	require.ErrorIs(t, err, ErrValidation)

	hidden, err := svc.CreateCategory(ctx, CategoryInput{Name: "Archive", IsActive: false})
	require.NoError(t, err)

	cats, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	for i := range cats {
		require.NotEqual(t, hidden.ID, cats[i].ID)
	}
}
