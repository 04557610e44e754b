package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/sulthanfragrance/storefront/internal/guest"
	"github.com/sulthanfragrance/storefront/internal/token"
)

type Deps struct {
	Catalog  *CatalogHTTP
	Search   *SearchHTTP
	Cart     *CartHTTP
	Checkout *CheckoutHTTP
	Orders   *OrderHTTP
	Auth     *AuthHTTP
	Admin    *AdminHTTP

	Tokens *token.Service
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	api := e.Group("/api/v1")
	api.Use(d.Tokens.Attach, guest.Middleware)

	// catalog, public reads
	api.GET("/categories", d.Catalog.ListCategories)
	api.GET("/products", d.Catalog.ListProducts)
	api.GET("/products/featured", d.Catalog.FeaturedProduct)
	api.GET("/products/:slug", d.Catalog.ProductBySlug)
	api.GET("/combos", d.Catalog.ListCombos)
	api.GET("/combos/:slug", d.Catalog.ComboBySlug)
	if d.Search != nil {
		api.GET("/search", d.Search.Search)
	}

	// cart, shared by guests and logged-in users
	api.GET("/cart", d.Cart.GetCart)
	api.POST("/cart/items", d.Cart.AddItem)
	api.PATCH("/cart/items/:id", d.Cart.UpdateItem)
	api.DELETE("/cart/items/:id", d.Cart.RemoveItem)
	api.POST("/cart/merge", d.Cart.Merge)

	// checkout
	api.POST("/checkout/razorpay", d.Checkout.CreateRazorpayOrder)
	api.POST("/checkout/cod", d.Checkout.CreateCODOrder)
	api.POST("/checkout/verify", d.Checkout.VerifyPayment)
	api.POST("/checkout/failed", d.Checkout.PaymentFailed)

	// orders
	api.GET("/orders/:number", d.Orders.Get)
	api.POST("/orders/track", d.Orders.Track)

	// auth
	api.POST("/auth/otp/send", d.Auth.SendOTP)
	api.POST("/auth/otp/verify", d.Auth.VerifyOTP)
	api.POST("/auth/logout", d.Auth.Logout)

	private := api.Group("")
	private.Use(d.Tokens.RequireLogin)
	private.GET("/me", d.Auth.Profile)
	private.PATCH("/me", d.Auth.UpdateProfile)
	private.GET("/me/addresses", d.Auth.ListAddresses)
	private.POST("/me/addresses", d.Auth.AddAddress)
	private.PUT("/me/addresses/:id", d.Auth.UpdateAddress)
	private.DELETE("/me/addresses/:id", d.Auth.DeleteAddress)
	private.GET("/me/orders", d.Orders.MyOrders)

	admin := api.Group("/admin")
	admin.Use(d.Tokens.RequireLogin, d.Tokens.RequireStaff)
	admin.POST("/products", d.Admin.CreateProduct)
	admin.PUT("/products/:id", d.Admin.UpdateProduct)
	admin.DELETE("/products/:id", d.Admin.DeleteProduct)
	admin.POST("/products/:id/variants", d.Admin.AddVariant)
	admin.PUT("/variants/:id", d.Admin.UpdateVariant)
	admin.DELETE("/variants/:id", d.Admin.DeleteVariant)
	admin.POST("/combos", d.Admin.CreateCombo)
	admin.PUT("/combos/:id", d.Admin.UpdateCombo)
	admin.DELETE("/combos/:id", d.Admin.DeleteCombo)
	admin.POST("/categories", d.Admin.CreateCategory)
	admin.PUT("/categories/:id", d.Admin.UpdateCategory)
	admin.DELETE("/categories/:id", d.Admin.DeleteCategory)
	admin.GET("/orders", d.Admin.ListOrders)
	admin.PATCH("/orders/:id/status", d.Admin.SetOrderStatus)
	admin.PATCH("/orders/:id/payment-status", d.Admin.SetPaymentStatus)

	// the gateway signs the whole body, no session semantics apply
	e.POST("/webhooks/razorpay", d.Checkout.Webhook)
}
