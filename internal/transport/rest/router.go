package rest

import (
	"net/http"
	"strconv"
	"strings"

	"auditapi/internal/service"
	"auditapi/internal/transport/rest/handler"
	"auditapi/internal/transport/rest/middleware"
	"auditapi/internal/transport/ws"

	"github.com/gorilla/mux"
	"github.com/swaggo/swag"
	"go.uber.org/zap"
)

const (
	corsAllowedMethods = "GET, POST, OPTIONS"
	corsAllowedHeaders = "Content-Type, Authorization"
	corsMaxAge         = 600
)

// Container holds all dependencies for the router
type Container struct {
	AuditService   *service.AuditService
	SessionService *service.SessionService
	WSHub          *ws.Hub
	AllowedOrigins []string
	Logger         *zap.Logger
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	auditHandler := handler.NewAuditHandler(c.AuditService, c.Logger)
	wsHandler := ws.NewHandler(c.WSHub, c.AuditService, c.AllowedOrigins, c.Logger)

	// Initialize middleware
	sessionMW := middleware.NewSessionMiddleware(c.SessionService, c.Logger)

	// CORS middleware (apply first)
	r.Use(corsMiddleware(c.AllowedOrigins))

	// Health check and API docs
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET", "OPTIONS")
	r.HandleFunc("/swagger/doc.json", swaggerDoc).Methods("GET", "OPTIONS")

	// Session routes
	app := r.NewRoute().Subrouter()
	app.Use(sessionMW.Session)

	app.HandleFunc("/", auditHandler.Home).Methods("GET", "OPTIONS")
	app.HandleFunc("/submit", auditHandler.Submit).Methods("POST", "OPTIONS")
	app.HandleFunc("/report", auditHandler.SessionReport).Methods("GET", "OPTIONS")

	// API v1 routes
	v1 := app.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/audits", auditHandler.Create).Methods("POST", "OPTIONS")
	v1.HandleFunc("/audits", auditHandler.List).Methods("GET", "OPTIONS")
	v1.HandleFunc("/audits/{id}", auditHandler.Get).Methods("GET", "OPTIONS")
	v1.HandleFunc("/ws/audits/{id}", wsHandler.AuditWS).Methods("GET")

	return r
}

func swaggerDoc(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		http.Error(w, `{"error":"API docs not registered"}`, http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(doc))
}

// corsMiddleware echoes allowed origins with credentials. Preflight
// requests from any other origin are refused.
func corsMiddleware(allowedOrigins []string) mux.MiddlewareFunc {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.TrimRight(o, "/")] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			ok := origin != "" && allowed[origin]

			if ok {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Expose-Headers", "Content-Type")
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.Header().Set("Content-Type", "application/json")
				if !ok {
					w.WriteHeader(http.StatusForbidden)
					w.Write([]byte(`{"error":"Origin not allowed"}`))
					return
				}
				w.Header().Set("Access-Control-Allow-Methods", corsAllowedMethods)
				w.Header().Set("Access-Control-Allow-Headers", corsAllowedHeaders)
				w.Header().Set("Access-Control-Max-Age", strconv.Itoa(corsMaxAge))
				w.WriteHeader(http.StatusOK)
				w.Write([]byte(`{"message":"CORS preflight"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
