package server

import (
	"net/http"

	"github.com/abduss/goshop/internal/auth"
	"github.com/abduss/goshop/internal/cart"
	"github.com/abduss/goshop/internal/catalog"
	"github.com/abduss/goshop/internal/config"
	"github.com/abduss/goshop/internal/logger"
	"github.com/abduss/goshop/internal/metrics"
	"github.com/abduss/goshop/internal/order"
	"github.com/abduss/goshop/internal/user"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dependencies groups the services required by the HTTP router.
type Dependencies struct {
	Config  config.Config
	Logger  *zap.Logger
	Checks  []ReadinessCheck
	Auth    *auth.Service
	Users   *user.Service
	Catalog *catalog.Service
	Cart    *cart.Service
	Orders  *order.Service
}

// NewRouter builds a Gin engine with foundational middleware and routes.
// The returned table holds the resolved policy of every guarded route.
func NewRouter(deps Dependencies) (*gin.Engine, auth.PolicyTable) {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	router := gin.New()
	if err := router.SetTrustedProxies(deps.Config.Server.TrustedProxies); err != nil {
		log.Warn("invalid trusted proxies, forwarding headers ignored", zap.Error(err))
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(logger.Middleware())
	router.Use(logger.RequestLogger(log))
	router.Use(metrics.Middleware())
	router.Use(gin.Recovery())

	registerHealthRoutes(router, deps.Checks)
	if path := deps.Config.Metrics.PrometheusPath; path != "" {
		metrics.Register(router, path)
	}

	limiter := NewRateLimiter(deps.Config.RateLimit.PerSecond, deps.Config.RateLimit.Burst)
	guard := auth.NewGuard(deps.Auth, log)
	table := guard.Mount(router.Group("/v1"), Routes(deps, limiter.Middleware())...)

	return router, table
}

// Routes declares every guarded endpoint and its access rule.
func Routes(deps Dependencies, limit gin.HandlerFunc) []auth.Group {
	authH := auth.NewHandler(deps.Auth)
	usersH := user.NewHandler(deps.Users)
	catalogH := catalog.NewHandler(deps.Catalog)
	cartH := cart.NewHandler(deps.Cart)
	ordersH := order.NewHandler(deps.Orders)

	limited := []gin.HandlerFunc{limit}
	customer := auth.RequireRoles(user.RoleUser, user.RoleAdmin)
	admin := auth.RequireRoles(user.RoleAdmin)

	return []auth.Group{
		{
			Name:   "auth",
			Prefix: "/auth",
			Rule:   auth.Inherit,
			Routes: []auth.Route{
				{Name: "register", Method: http.MethodPost, Path: "/register", Rule: auth.PublicRule(), Before: limited, Handler: authH.Register},
				{Name: "login", Method: http.MethodPost, Path: "/login", Rule: auth.PublicRule(), Before: limited, Handler: authH.Login},
				{Name: "refresh", Method: http.MethodPost, Path: "/refresh", Rule: auth.PublicRule(), Before: limited, Handler: authH.Refresh},
				{Name: "logout", Method: http.MethodPost, Path: "/logout", Handler: authH.Logout},
				{Name: "me", Method: http.MethodGet, Path: "/me", Handler: authH.Me},
				{Name: "revoke", Method: http.MethodPost, Path: "/sessions/:userID/revoke", Rule: admin, Handler: authH.RevokeSessions},
			},
		},
		{
			Name:   "users",
			Prefix: "/users",
			Rule:   admin,
			Routes: []auth.Route{
				{Name: "list", Method: http.MethodGet, Path: "", Handler: usersH.List},
				{Name: "get", Method: http.MethodGet, Path: "/:id", Handler: usersH.Get},
				{Name: "changeRole", Method: http.MethodPatch, Path: "/role", Handler: usersH.ChangeRole},
				{Name: "update", Method: http.MethodPatch, Path: "/:id", Handler: usersH.Update},
				{Name: "delete", Method: http.MethodDelete, Path: "/:id", Handler: usersH.Delete},
				{Name: "deleteAll", Method: http.MethodDelete, Path: "", Handler: usersH.DeleteAll},
			},
		},
		{
			Name:   "products",
			Prefix: "/products",
			Rule:   auth.Authenticated(),
			Routes: []auth.Route{
				{Name: "list", Method: http.MethodGet, Path: "", Rule: auth.PublicRule(), Handler: catalogH.List},
				{Name: "get", Method: http.MethodGet, Path: "/:slug", Rule: auth.PublicRule(), Handler: catalogH.Get},
				{Name: "create", Method: http.MethodPost, Path: "", Rule: admin, Handler: catalogH.Create},
				{Name: "update", Method: http.MethodPatch, Path: "/:id", Rule: admin, Handler: catalogH.Update},
				{Name: "delete", Method: http.MethodDelete, Path: "/:id", Rule: admin, Handler: catalogH.Delete},
				{Name: "uploadImage", Method: http.MethodPut, Path: "/:id/image", Rule: admin, Handler: catalogH.UploadImage},
			},
		},
		{
			Name:   "cart",
			Prefix: "/cart",
			Rule:   customer,
			Routes: []auth.Route{
				{Name: "get", Method: http.MethodGet, Path: "", Handler: cartH.Get},
				{Name: "addItem", Method: http.MethodPost, Path: "/items", Handler: cartH.AddItem},
				{Name: "removeItem", Method: http.MethodDelete, Path: "/items/:productID", Handler: cartH.RemoveItem},
				{Name: "clear", Method: http.MethodDelete, Path: "", Handler: cartH.Clear},
			},
		},
		{
			Name:   "orders",
			Prefix: "/orders",
			Rule:   customer,
			Routes: []auth.Route{
				{Name: "place", Method: http.MethodPost, Path: "", Handler: ordersH.Place},
				{Name: "list", Method: http.MethodGet, Path: "", Handler: ordersH.List},
				{Name: "get", Method: http.MethodGet, Path: "/:id", Handler: ordersH.Get},
			},
		},
	}
}
