package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/golang-jwt/jwt/v5"

	"pharmapos/m/domain"
	"pharmapos/m/internal/checkout"
	"pharmapos/m/internal/reports"
	"pharmapos/m/internal/store"
	"pharmapos/m/internal/validation"
)

type ctxKey string

const (
	ctxUserID   ctxKey = "userID"
	ctxRole     ctxKey = "role"
	ctxFullName ctxKey = "fullName"
)

// Roles understood by the API.
const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

const loginRateLimit = 10

// Options configures a Handler.
type Options struct {
	Secret           string
	TokenTTL         time.Duration
	ExpiryWindowDays int
	Logger           *slog.Logger
}

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	store   *store.Store
	carts   *checkout.Registry
	reports *reports.Service
	secret  string
	ttl     time.Duration
	expiry  int
	logger  *slog.Logger
}

// New constructs a Handler.
func New(s *store.Store, carts *checkout.Registry, rep *reports.Service, opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 12 * time.Hour
	}
	if opts.ExpiryWindowDays <= 0 {
		opts.ExpiryWindowDays = 30
	}
	return &Handler{
		store:   s,
		carts:   carts,
		reports: rep,
		secret:  opts.Secret,
		ttl:     opts.TokenTTL,
		expiry:  opts.ExpiryWindowDays,
		logger:  opts.Logger,
	}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)

	r.Route("/auth", func(r chi.Router) {
		r.With(httprate.Limit(loginRateLimit, time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				respondError(w, http.StatusTooManyRequests, "too many login attempts")
			}),
		)).Post("/login", h.login)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(h.authMiddleware)

		pr.Route("/drugs", func(r chi.Router) {
			r.Get("/", h.listDrugs)
			r.Get("/search", h.searchDrugs)
			r.Get("/low-stock", h.lowStock)
			r.Get("/expiring", h.expiring)
			r.Get("/{id}", h.getDrug)
			r.Group(func(admin chi.Router) {
				admin.Use(h.requireRole(RoleAdmin))
				admin.Post("/", h.addDrug)
				admin.Put("/{id}", h.updateDrug)
				admin.Post("/{id}/stock", h.adjustStock)
			})
		})

		pr.Route("/carts", func(r chi.Router) {
			r.Post("/", h.openCart)
			r.Get("/{id}", h.getCart)
			r.Delete("/{id}", h.closeCart)
			r.Post("/{id}/items", h.addCartItem)
			r.Delete("/{id}/items", h.clearCart)
			r.Put("/{id}/items/{index}", h.setCartItem)
			r.Delete("/{id}/items/{index}", h.removeCartItem)
			r.Post("/{id}/checkout", h.checkoutCart)
		})

		pr.Route("/sales", func(r chi.Router) {
			r.Get("/", h.listSales)
			r.Get("/next-receipt", h.nextReceipt)
			r.Get("/{id}", h.getSale)
			r.Get("/{id}/receipt", h.saleReceipt)
		})

		pr.Route("/reports", func(r chi.Router) {
			r.Get("/daily", h.dailyReport)
			r.Get("/summary", h.summaryReport)
			r.Get("/alerts", h.alertsReport)
			r.Get("/top-drugs", h.topDrugsReport)
			r.Get("/sales.csv", h.exportSales)
			r.Get("/inventory.csv", h.exportInventory)
		})

		pr.Route("/settings", func(r chi.Router) {
			r.Get("/", h.getSettings)
			r.With(h.requireRole(RoleAdmin)).Put("/", h.updateSettings)
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Authentication helpers

type authClaims struct {
	UserID   int64  `json:"user_id"`
	Role     string `json:"role"`
	FullName string `json:"full_name"`
	jwt.RegisteredClaims
}

func (h *Handler) generateToken(user domain.User) (string, error) {
	now := time.Now()
	claims := authClaims{
		UserID:   user.ID,
		Role:     user.Role,
		FullName: user.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			ExpiresAt: jwt.NewNumericDate(now.Add(h.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.secret))
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		tokenString := strings.TrimSpace(header[len("Bearer "):])
		token, err := jwt.ParseWithClaims(tokenString, &authClaims{}, func(token *jwt.Token) (any, error) {
			if token.Method != jwt.SigningMethodHS256 {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(h.secret), nil
		})
		if err != nil || !token.Valid {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		claims, ok := token.Claims.(*authClaims)
		if !ok {
			respondError(w, http.StatusUnauthorized, "invalid token claims")
			return
		}
		ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID)
		ctx = context.WithValue(ctx, ctxRole, claims.Role)
		ctx = context.WithValue(ctx, ctxFullName, claims.FullName)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) requireRole(allowed ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			current, _ := r.Context().Value(ctxRole).(string)
			for _, role := range allowed {
				if current == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			respondError(w, http.StatusForbidden, "insufficient permissions")
		})
	}
}

func userID(r *http.Request) int64 {
	id, _ := r.Context().Value(ctxUserID).(int64)
	return id
}

func fullName(r *http.Request) string {
	name, _ := r.Context().Value(ctxFullName).(string)
	return name
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondErr(w, r, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		h.respondErr(w, r, err)
		return
	}
	user, err := h.store.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	token, err := h.generateToken(user)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.logger.Info("user logged in", slog.String("username", user.Username), slog.String("role", user.Role))
	respondJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

// Helpers

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return validation.Errorf("invalid request body: %v", err)
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, validation.Errorf("invalid %s", name)
	}
	return id, nil
}

func pathIndex(r *http.Request) (int, error) {
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		return 0, validation.Errorf("invalid line index")
	}
	return idx, nil
}

// queryDate parses a YYYY-MM-DD query parameter in local time, falling back
// to def when absent.
func queryDate(r *http.Request, name string, def time.Time) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	t, err := time.ParseInLocation(domain.DateLayout, raw, time.Local)
	if err != nil {
		return time.Time{}, validation.Errorf("%s must be a YYYY-MM-DD date", name)
	}
	return t, nil
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, validation.Errorf("%s must be an integer", name)
	}
	return v, nil
}

// dateRange reads start and end, or a named period, defaulting to today.
func (h *Handler) dateRange(r *http.Request) (time.Time, time.Time, error) {
	now := h.store.Now()
	if period := r.URL.Query().Get("period"); period != "" {
		return reports.Period(period, now)
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	start, err := queryDate(r, "start", today)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := queryDate(r, "end", start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}
