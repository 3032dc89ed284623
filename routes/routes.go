package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smartfeastt/smartfeast-backend/handlers"
	"github.com/smartfeastt/smartfeast-backend/middleware"
	"github.com/smartfeastt/smartfeast-backend/models"
)

type Deps struct {
	Handler           *handlers.Handler
	Auth              *middleware.Authenticator
	Socket            http.Handler
	Metrics           http.Handler
	PaymentServiceKey string
}

func SetupRoutes(r *gin.Engine, d Deps) {
	h := d.Handler
	authed := d.Auth.AuthRequired()
	optional := d.Auth.AuthOptional()
	owner := middleware.RoleRequired(models.RoleOwner)
	vendor := middleware.RoleRequired(models.RoleOwner, models.RoleManager)
	customer := middleware.RoleRequired(models.RoleCustomer)

	r.GET("/", h.Welcome)
	r.GET("/health", h.Health)
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics))
	}
	if d.Socket != nil {
		r.GET("/socket", gin.WrapH(d.Socket))
	}

	api := r.Group("/api")
	api.GET("/state-machine", h.GetStateMachineInfo)

	// ── Auth ───────────────────────────────────────────────────────
	auth := api.Group("/auth")
	{
		auth.POST("/signup", h.Signup)
		auth.POST("/signin", h.Signin)
		auth.GET("/me", authed, h.Me)
		auth.DELETE("/account", authed, h.DeleteAccount)
	}

	// ── Orders ─────────────────────────────────────────────────────
	order := api.Group("/order")
	{
		order.POST("/create", optional, h.CreateOrder)
		order.GET("/user", authed, h.GetMyOrders)
		order.GET("/outlet/:outletId", authed, vendor, h.GetOutletOrders)
		order.GET("/sync", authed, vendor, h.SyncOrders)
		order.PUT("/:orderId/status", authed, vendor, h.UpdateOrderStatus)
		order.PUT("/:orderId/payment", d.Auth.ServiceOrAuth(d.PaymentServiceKey), h.UpdatePaymentStatus)
		order.GET("/:orderId/verify", h.VerifyOrder)
		order.GET("/:orderId/history", authed, vendor, h.GetOrderHistory)
	}

	// ── Cart ───────────────────────────────────────────────────────
	cart := api.Group("/cart", authed)
	{
		cart.GET("", h.GetCart)
		cart.GET("/", h.GetCart)
		cart.POST("/add", h.AddToCart)
		cart.PUT("/update", h.UpdateCartItem)
		cart.PUT("/sync", h.SyncCart)
		cart.DELETE("/remove/:itemId", h.RemoveFromCart)
		cart.DELETE("/clear", h.ClearCart)
	}

	// ── Restaurants ────────────────────────────────────────────────
	restaurant := api.Group("/restaurant")
	{
		restaurant.GET("/all", h.ListRestaurants)
		restaurant.GET("/owner/all", authed, owner, h.OwnerRestaurants)
		restaurant.GET("/name/:restaurantName", h.GetRestaurantByName)
		restaurant.GET("/:restaurantId", h.GetRestaurant)
		restaurant.POST("/create", authed, owner, h.CreateRestaurant)
		restaurant.PUT("/update/:restaurantId", authed, owner, h.UpdateRestaurant)
		restaurant.DELETE("/delete/:restaurantId", authed, owner, h.DeleteRestaurant)
	}

	// ── Outlets ────────────────────────────────────────────────────
	outlet := api.Group("/outlet")
	{
		outlet.GET("/restaurant/:restaurantId", h.OutletsByRestaurant)
		outlet.GET("/:outletId", h.GetOutlet)
		outlet.POST("/create", authed, owner, h.CreateOutlet)
		outlet.PUT("/update/:outletId", authed, vendor, h.UpdateOutlet)
		outlet.DELETE("/delete/:outletId", authed, owner, h.DeleteOutlet)
		outlet.POST("/:outletId/assign-manager", authed, owner, h.AssignManager)
		outlet.DELETE("/:outletId/remove-manager/:managerId", authed, owner, h.RemoveManager)
	}

	// ── Menu items ─────────────────────────────────────────────────
	item := api.Group("/item")
	{
		item.GET("/view/:restaurantName/:outletName", h.ItemsByOutletName)
		item.GET("/outlet/:outletId", h.ItemsByOutlet)
		item.POST("/create", authed, vendor, h.CreateItem)
		item.PUT("/update/:itemId", authed, vendor, h.UpdateItem)
		item.DELETE("/delete/:itemId", authed, vendor, h.DeleteItem)
		item.PUT("/:itemId/photo", authed, vendor, h.UpdateItemPhoto)
		item.GET("/:itemId", h.GetItem)
	}

	// ── Categories ─────────────────────────────────────────────────
	category := api.Group("/category")
	{
		category.GET("/outlet/:outletId", h.CategoriesByOutlet)
		category.POST("/create", authed, vendor, h.CreateCategory)
		category.PUT("/update/:categoryId", authed, vendor, h.UpdateCategory)
		category.DELETE("/delete/:categoryId", authed, vendor, h.DeleteCategory)
	}

	// ── Inventory ──────────────────────────────────────────────────
	inventory := api.Group("/inventory", authed, vendor)
	{
		inventory.GET("/outlet/:outletId", h.InventoryByOutlet)
		inventory.POST("", h.CreateInventoryItem)
		inventory.POST("/", h.CreateInventoryItem)
		inventory.PUT("/:itemId", h.UpdateInventoryItem)
		inventory.DELETE("/:itemId", h.DeleteInventoryItem)
	}

	// ── Favorites ──────────────────────────────────────────────────
	favorites := api.Group("/favorites")
	{
		favorites.GET("/check/:restaurantId", optional, h.CheckFavorite)
		favorites.GET("", authed, customer, h.GetFavorites)
		favorites.POST("", authed, customer, h.AddFavorite)
		favorites.DELETE("/:restaurantId", authed, customer, h.RemoveFavorite)
	}
}
