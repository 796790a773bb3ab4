package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/milkrun/internal/handler"
	"github.com/dukerupert/milkrun/internal/ledger"
	"github.com/dukerupert/milkrun/internal/middleware"
	"github.com/dukerupert/milkrun/internal/push"
	"github.com/dukerupert/milkrun/internal/store"
	ws "github.com/dukerupert/milkrun/internal/websocket"
)

type Server struct {
	db            *sql.DB
	hub           *ws.Hub
	authH         *handler.AuthHandler
	profileH      *handler.ProfileHandler
	productH      *handler.ProductHandler
	subscriptionH *handler.SubscriptionHandler
	deliveryH     *handler.DeliveryHandler
	billH         *handler.BillHandler
	notificationH *handler.NotificationHandler
	adminH        *handler.AdminHandler
	pushH         *handler.PushHandler
	sessionStore  *store.SessionStore
	userStore     *store.UserStore
	rateLimiter   *middleware.RateLimiter
	logger        *slog.Logger
}

func New(db *sql.DB, pushCfg push.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	productStore := store.NewProductStore(db)
	subscriptionStore := store.NewSubscriptionStore(db)
	deliveryStore := store.NewDeliveryStore(db)
	billStore := store.NewBillStore(db)
	notifStore := store.NewNotificationStore(db)
	pushStore := store.NewPushStore(db)

	led := ledger.New(deliveryStore, subscriptionStore, productStore, billStore)

	// Push is optional: without VAPID keys the notifier stays nil and
	// notifications are stored and broadcast over websocket only.
	var pushSvc *push.Service
	var notifier *push.Notifier
	var pushH *handler.PushHandler
	if pushCfg.VAPIDPublicKey != "" && pushCfg.VAPIDPrivateKey != "" {
		pushSvc = push.NewService(pushCfg.VAPIDPublicKey, pushCfg.VAPIDPrivateKey)
		notifier = push.NewNotifier(pushSvc, pushStore, logger.With("component", "push"))
		pushH = handler.NewPushHandler(pushStore, pushSvc, logger.With("component", "push_handler"))
	}

	return &Server{
		db:            db,
		hub:           hub,
		authH:         handler.NewAuthHandler(userStore, sessionStore, logger.With("component", "auth")),
		profileH:      handler.NewProfileHandler(userStore, hub, logger.With("component", "profile")),
		productH:      handler.NewProductHandler(productStore, notifStore, hub, notifier, logger.With("component", "product")),
		subscriptionH: handler.NewSubscriptionHandler(subscriptionStore, productStore, notifStore, led, hub, notifier, logger.With("component", "subscription")),
		deliveryH:     handler.NewDeliveryHandler(notifStore, led, hub, notifier, logger.With("component", "delivery")),
		billH:         handler.NewBillHandler(billStore, notifStore, led, hub, notifier, logger.With("component", "bill")),
		notificationH: handler.NewNotificationHandler(notifStore, logger.With("component", "notification")),
		adminH:        handler.NewAdminHandler(userStore, billStore, logger.With("component", "admin")),
		pushH:         pushH,
		sessionStore:  sessionStore,
		userStore:     userStore,
		rateLimiter:   middleware.NewRateLimiter(),
		logger:        logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes — wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.userStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/logout", s.authH.Logout)

	// Profile
	mux.HandleFunc("GET /api/profile", s.profileH.Get)
	mux.HandleFunc("PUT /api/profile", s.profileH.Update)
	mux.HandleFunc("POST /api/profile/pin", s.profileH.SetPIN)
	mux.HandleFunc("POST /api/profile/pin/verify", s.profileH.VerifyPIN)
	mux.HandleFunc("DELETE /api/profile/pin", s.profileH.ClearPIN)

	// Catalog
	mux.HandleFunc("GET /api/products", s.productH.List)
	mux.Handle("POST /api/products", middleware.RequireAdmin(http.HandlerFunc(s.productH.Create)))
	mux.Handle("PUT /api/products/{id}/price", middleware.RequireAdmin(http.HandlerFunc(s.productH.UpdatePrice)))

	// Subscriptions
	mux.HandleFunc("GET /api/subscriptions", s.subscriptionH.List)
	mux.HandleFunc("PUT /api/subscriptions/{product_id}", s.subscriptionH.Update)

	// Delivery calendar
	mux.HandleFunc("GET /api/deliveries", s.deliveryH.Calendar)
	mux.HandleFunc("PUT /api/deliveries/{date}", s.deliveryH.UpdateStatus)
	mux.Handle("POST /api/deliveries/{date}/delivered", middleware.RequireAdmin(http.HandlerFunc(s.deliveryH.MarkDelivered)))

	// Billing
	mux.HandleFunc("GET /api/bills", s.billH.List)
	mux.HandleFunc("GET /api/bills/summary", s.billH.Summary)
	mux.Handle("POST /api/bills/generate", middleware.RequireAdmin(http.HandlerFunc(s.billH.Generate)))
	mux.Handle("POST /api/bills/{id}/pay", middleware.RequireAdmin(http.HandlerFunc(s.billH.Pay)))

	// Notifications
	mux.HandleFunc("GET /api/notifications", s.notificationH.List)
	mux.HandleFunc("POST /api/notifications/{id}/read", s.notificationH.MarkRead)

	// Admin dashboard
	mux.Handle("GET /api/admin/stats", middleware.RequireAdmin(http.HandlerFunc(s.adminH.Stats)))
	mux.Handle("GET /api/admin/users", middleware.RequireAdmin(http.HandlerFunc(s.adminH.Users)))

	// Push notification API routes
	if s.pushH != nil {
		mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
		mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
		mux.HandleFunc("GET /api/push/subscriptions", s.pushH.ListSubscriptions)
		mux.HandleFunc("GET /api/push/vapid-key", s.pushH.GetVAPIDKey)
	}

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))
}
