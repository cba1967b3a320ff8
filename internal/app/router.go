package app

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/linemk/shop-api/internal/app/handlers"
	"github.com/linemk/shop-api/internal/config"
	"github.com/linemk/shop-api/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/shop-api/internal/lib/api/response"
	"github.com/linemk/shop-api/internal/lib/logger/handlers/urllog"
	"github.com/linemk/shop-api/internal/service"
)

// Services набор бизнес-сервисов, которые обслуживает роутер
type Services struct {
	Auth       service.AuthServiceInterface
	Users      service.UserService
	Categories service.CategoryService
	Products   service.ProductService
	Cart       service.CartService
	Orders     service.OrderService
	Payments   service.PaymentService
	Contact    service.ContactService
}

func NewRouter(log *slog.Logger, cfg *config.Config, s Services) http.Handler {
	router := chi.NewRouter()
	// настройка middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(urllog.CustomLoggerMiddleware(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)
	router.Use(securityHeaders)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// роль и существование пользователя проверяются по БД на каждый запрос
	protect := []func(http.Handler) http.Handler{
		jwtmiddleware.NewJWTMiddleware(),
		jwtmiddleware.LoadUser(s.Users),
	}

	router.Get("/api/health", handlers.HealthHandler())

	router.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", handlers.RegisterHandler(log, s.Auth))
		r.With(loginLimiter(cfg.Auth)).Post("/login", handlers.LoginHandler(log, s.Auth))
		r.Post("/refresh", handlers.RefreshHandler(log, s.Auth))
		r.Post("/logout", handlers.LogoutHandler())
		r.Post("/contact", handlers.ContactHandler(log, s.Contact))

		// управление пользователями
		r.Group(func(r chi.Router) {
			r.Use(protect...)
			r.Use(jwtmiddleware.AdminOnly)
			r.Get("/users", handlers.ListUsersHandler(log, s.Users))
			r.Get("/users/{id}", handlers.GetUserHandler(log, s.Users))
			r.Put("/users/{id}", handlers.AdminUpdateUserHandler(log, s.Users))
			r.Delete("/users/{id}", handlers.DeleteUserHandler(log, s.Users))
		})
	})

	router.Route("/api/users", func(r chi.Router) {
		r.Use(protect...)
		r.Get("/me", handlers.CurrentUserHandler(log, s.Users))
		r.Get("/profile", handlers.CurrentUserHandler(log, s.Users))
		r.Put("/profile", handlers.UpdateProfileHandler(log, s.Users))
		r.Put("/profile/password", handlers.ChangePasswordHandler(log, s.Users))

		r.Route("/cart", func(r chi.Router) {
			r.Post("/", handlers.AddToCartHandler(log, s.Cart))
			r.Get("/", handlers.GetCartHandler(log, s.Cart))
			r.Put("/item", handlers.UpdateCartItemHandler(log, s.Cart))
			r.Delete("/item/{productId}", handlers.RemoveCartItemHandler(log, s.Cart))
			r.Delete("/clear", handlers.ClearCartHandler(log, s.Cart))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", handlers.CreateOrderHandler(log, s.Orders))
			r.Get("/myorders", handlers.MyOrdersHandler(log, s.Orders))
			r.With(jwtmiddleware.AdminOnly).Get("/", handlers.AllOrdersHandler(log, s.Orders))
			r.Get("/{id}", handlers.GetOrderHandler(log, s.Orders))
			r.Put("/{id}", handlers.MarkOrderPaidHandler(log, s.Orders))
			r.Delete("/{id}", handlers.DeleteOrderHandler(log, s.Orders))
			r.With(jwtmiddleware.AdminOnly).Put("/{id}/status", handlers.UpdateOrderStatusHandler(log, s.Orders))
			r.With(jwtmiddleware.AdminOnly).Put("/{id}/edit", handlers.EditOrderHandler(log, s.Orders))
		})
	})

	router.Route("/api/payments", func(r chi.Router) {
		r.Use(protect...)
		r.Post("/create-payment-intent", handlers.CreatePaymentIntentHandler(log, s.Payments))
		r.Post("/confirm-payment", handlers.ConfirmPaymentHandler(log, s.Payments))
	})

	router.Route("/api/categories", func(r chi.Router) {
		r.Get("/", handlers.ListCategoriesHandler(log, s.Categories))
		r.Get("/{id}", handlers.GetCategoryHandler(log, s.Categories))
		r.Group(func(r chi.Router) {
			r.Use(protect...)
			r.Use(jwtmiddleware.AdminOnly)
			r.Post("/", handlers.CreateCategoryHandler(log, s.Categories))
			r.Put("/{id}", handlers.UpdateCategoryHandler(log, s.Categories))
			r.Delete("/{id}", handlers.DeleteCategoryHandler(log, s.Categories))
		})
	})

	router.Route("/api/products", func(r chi.Router) {
		r.Get("/", handlers.ListProductsHandler(log, s.Products))
		r.Get("/{id}", handlers.GetProductHandler(log, s.Products))
		r.Group(func(r chi.Router) {
			r.Use(protect...)
			r.Use(jwtmiddleware.AdminOnly)
			r.Post("/", handlers.CreateProductHandler(log, s.Products))
			r.Put("/{id}", handlers.UpdateProductHandler(log, s.Products))
			r.Delete("/{id}", handlers.DeleteProductHandler(log, s.Products))
		})
	})

	// загруженные изображения
	prefix := "/" + strings.Trim(cfg.Uploads.BaseURL, "/")
	router.Handle(prefix+"/*", http.StripPrefix(prefix, http.FileServer(http.Dir(cfg.Uploads.Dir))))

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotFound, "Not found - "+r.URL.Path)
	})

	return router
}

func loginLimiter(cfg config.AuthConfig) func(http.Handler) http.Handler {
	return httprate.Limit(cfg.LoginRateLimit, cfg.LoginRateWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			response.Error(w, http.StatusTooManyRequests, "Too many login attempts, please try again later")
		}),
	)
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}
