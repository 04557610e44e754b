package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestCartService_AddItem_SnapshotsVariantPrice(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &CartService{Repo: r}
	ctx := context.Background()
	id := GuestIdentity(guestID())

	p := seedProduct(t, r, "amber-oud", "0", "499.00", "899.00")
	v := p.DefaultVariant()
	require.NotNil(t, v)

	cart, err := svc.AddItem(ctx, id, AddItemInput{
		ItemType:  "product",
		ProductID: &p.ID,
		VariantID: &v.ID,
		Quantity:  2,
	})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	require.True(t, cart.Items[0].PriceAtTime.Equal(mustDecimal(t, "499.00")))
	require.Equal(t, 2, cart.Items[0].Quantity)
	require.True(t, cart.Total().Equal(mustDecimal(t, "998.00")))

	// a later price change must not touch the line
	v.Price = mustDecimal(t, "599.00")
	require.NoError(t, r.SaveVariant(ctx, v))

	cart, err = svc.GetCart(ctx, id)
	require.NoError(t, err)
	require.True(t, cart.Items[0].PriceAtTime.Equal(mustDecimal(t, "499.00")))
}

func TestCartService_AddItem_DefaultsToOldestActiveVariant(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &CartService{Repo: r}
	ctx := context.Background()

	p := seedProduct(t, r, "rose-musk", "0", "350.00", "650.00")

	cart, err := svc.AddItem(ctx, GuestIdentity(guestID()), AddItemInput{
		ItemType:  "product",
		ProductID: &p.ID,
	})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	require.True(t, cart.Items[0].PriceAtTime.Equal(mustDecimal(t, "350.00")))
	require.Equal(t, 1, cart.Items[0].Quantity)
}

func TestCartService_AddItem_DuplicateLineIncrementsQuantity(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &CartService{Repo: r}
	ctx := context.Background()
	id := GuestIdentity(guestID())

	p := seedProduct(t, r, "citrus-bloom", "0", "275.00")

	_, err := svc.AddItem(ctx, id, AddItemInput{ItemType: "product", ProductID: &p.ID, Quantity: 1})
	require.NoError(t, err)
	cart, err := svc.AddItem(ctx, id, AddItemInput{ItemType: "product", ProductID: &p.ID, Quantity: 3})
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	require.Equal(t, 4, cart.Items[0].Quantity)
	require.Equal(t, 4, cart.ItemCount())
}

func TestCartService_AddItem_InactiveProductHidden(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &CartService{Repo: r}
	ctx := context.Background()

	p := seedProduct(t, r, "retired-scent", "0", "100.00")
	require.NoError(t, r.DB.Model(p).Update("is_active", false).Error)

	_, err := svc.AddItem(ctx, GuestIdentity(guestID()), AddItemInput{ItemType: "product", ProductID: &p.ID})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCartService_AddItem_ComboUsesDiscountedPrice(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &CartService{Repo: r}
	ctx := context.Background()

	p1 := seedProduct(t, r, "oud-one", "0", "500.00")
	p2 := seedProduct(t, r, "oud-two", "0", "700.00")
	cb := seedCombo(t, r, "duo-pack", 10, p1, p2)

	// (500 + 700) * 0.90 = 1080.00
	require.True(t, cb.DiscountedPrice().Equal(mustDecimal(t, "1080.00")))

	cart, err := svc.AddItem(ctx, GuestIdentity(guestID()), AddItemInput{ItemType: "combo", ComboID: &cb.ID})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	require.True(t, cart.Items[0].PriceAtTime.Equal(mustDecimal(t, "1080.00")))
}

func TestCartService_GuestAndUserCartsAreSeparate(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &CartService{Repo: r}
	ctx := context.Background()

	p := seedProduct(t, r, "split-test", "0", "120.00")
	guest := GuestIdentity(guestID())
	user := UserIdentity(uuid.New())

	_, err := svc.AddItem(ctx, guest, AddItemInput{ItemType: "product", ProductID: &p.ID})
	require.NoError(t, err)

	userCart, err := svc.GetCart(ctx, user)
	require.NoError(t, err)
	require.Empty(t, userCart.Items)

	guestCart, err := svc.GetCart(ctx, guest)
	require.NoError(t, err)
	require.Len(t, guestCart.Items, 1)
}

func TestCartService_UpdateItemQuantity(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &CartService{Repo: r}
	ctx := context.Background()
	id := GuestIdentity(guestID())

	p := seedProduct(t, r, "qty-test", "0", "80.00")
	cart, err := svc.AddItem(ctx, id, AddItemInput{ItemType: "product", ProductID: &p.ID})
	require.NoError(t, err)

	cart, err = svc.UpdateItemQuantity(ctx, id, cart.Items[0].ID, 5)
	require.NoError(t, err)
	require.Equal(t, 5, cart.Items[0].Quantity)

	_, err = svc.UpdateItemQuantity(ctx, id, cart.Items[0].ID, 0)
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.UpdateItemQuantity(ctx, id, uuid.New(), 2)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCartService_RemoveItem(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &CartService{Repo: r}
	ctx := context.Background()
	id := GuestIdentity(guestID())

	p := seedProduct(t, r, "remove-test", "0", "60.00")
	cart, err := svc.AddItem(ctx, id, AddItemInput{ItemType: "product", ProductID: &p.ID})
	require.NoError(t, err)

	cart, err = svc.RemoveItem(ctx, id, cart.Items[0].ID)
	require.NoError(t, err)
	require.Empty(t, cart.Items)

	// removing someone else's item id is not found
	other, err := svc.AddItem(ctx, GuestIdentity(guestID()), AddItemInput{ItemType: "product", ProductID: &p.ID})
	require.NoError(t, err)
	_, err = svc.RemoveItem(ctx, id, other.Items[0].ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCartService_Merge_SkipsUnknownLines(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &CartService{Repo: r}
	ctx := context.Background()
	id := GuestIdentity(guestID())

	p := seedProduct(t, r, "merge-test", "0", "210.00")
	missing := uuid.New()

	cart, err := svc.Merge(ctx, id, []MergeLine{
		{ItemType: "product", ProductID: &p.ID, Quantity: 2},
		{ItemType: "product", ProductID: &missing, Quantity: 1},
		{ItemType: "unknown", Quantity: 1},
	})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	require.Equal(t, 2, cart.Items[0].Quantity)
}

func TestCartService_AdoptGuestCart(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &CartService{Repo: r}
	ctx := context.Background()

	gid := guestID()
	guest := GuestIdentity(gid)
	userID := uuid.New()

	p := seedProduct(t, r, "adopt-test", "0", "330.00")
	guestCart, err := svc.AddItem(ctx, guest, AddItemInput{ItemType: "product", ProductID: &p.ID, Quantity: 2})
	require.NoError(t, err)

	// the user already holds one of the same line
	_, err = svc.AddItem(ctx, UserIdentity(userID), AddItemInput{ItemType: "product", ProductID: &p.ID, Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, svc.AdoptGuestCart(ctx, userID, gid))

	userCart, err := svc.GetCart(ctx, UserIdentity(userID))
	require.NoError(t, err)
	require.Len(t, userCart.Items, 1)
	require.Equal(t, 3, userCart.Items[0].Quantity)

	// the guest cart is retired, a fresh one appears on next access
	abandoned, err := r.CartByID(ctx, guestCart.ID)
	require.NoError(t, err)
	require.Equal(t, "abandoned", abandoned.Status)

	fresh, err := svc.GetCart(ctx, guest)
	require.NoError(t, err)
	require.Empty(t, fresh.Items)
}

func TestCartService_AdoptGuestCart_NoGuestCartIsNoop(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &CartService{Repo: r}

	require.NoError(t, svc.AdoptGuestCart(context.Background(), uuid.New(), guestID()))
}
