package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/handlers"
	"github.com/Skotchmaster/marketplace/internal/middleware/auth"
)

type Deps struct {
	JWTSecret []byte

	Auth    *handlers.AuthHandler
	Product *handlers.ProductHandler
	Search  *handlers.SearchHandler
	Cart    *handlers.CartHandler
	Order   *handlers.OrderHandler
	Review  *handlers.ReviewHandler
	Message *handlers.MessageHandler
	Payment *handlers.PaymentHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	api := e.Group("/api")
	login := auth.RequireLogin(d.JWTSecret)

	api.POST("/auth/register", d.Auth.Register)
	api.POST("/auth/login", d.Auth.Login)
	api.POST("/auth/refresh", d.Auth.Refresh)
	api.POST("/auth/logout", d.Auth.Logout)

	products := api.Group("/products")
	products.GET("", d.Product.ListActive)
	products.GET("/search", d.Search.Handler)
	products.GET("/:id", d.Product.GetActive)

	admin := api.Group("/admin", login)
	admin.GET("/products", d.Product.ListAll)
	admin.GET("/myproducts", d.Product.ListMine)
	admin.POST("/products", d.Product.Create)
	admin.PUT("/products/:id", d.Product.Update)
	admin.DELETE("/products/:id", d.Product.Delete)

	cart := api.Group("/cart", login)
	cart.GET("", d.Cart.GetCart)
	cart.POST("/items", d.Cart.AddItem)
	cart.PUT("/items/:productId", d.Cart.UpdateQuantity)
	cart.DELETE("/items/:productId", d.Cart.RemoveItem)
	cart.DELETE("/item/:cartItemId", d.Cart.RemoveItemByID)
	cart.DELETE("", d.Cart.Clear)
	cart.POST("/buy-now", d.Cart.BuyNow)

	orders := api.Group("/orders", login)
	orders.POST("", d.Order.Create)
	orders.GET("/myorders", d.Order.ListMine)
	orders.GET("/:id", d.Order.Get)
	orders.PUT("/:id/pay", d.Order.Pay)
	orders.PUT("/:id/deliver", d.Order.Deliver)

	reviews := api.Group("/reviews")
	reviews.GET("/product/:productId", d.Review.ListForProduct)
	reviews.GET("/product/:productId/user", d.Review.Mine, login)
	reviews.POST("", d.Review.Upsert, login)
	reviews.DELETE("/:id", d.Review.Delete, login)

	messages := api.Group("/messages", login)
	messages.POST("", d.Message.Send)
	messages.GET("", d.Message.ListMine)
	messages.GET("/order/:orderId", d.Message.Thread)
	messages.PUT("/:id/read", d.Message.MarkRead)

	payment := api.Group("/payment")
	payment.GET("/methods", d.Payment.Methods)
	payment.POST("/create-stripe-intent", d.Payment.CreateIntent, login)
	payment.POST("/create-stripe-session", d.Payment.CreateCheckoutSession, login)
}
