package app

import (
	"net/http"
	"slices"
	"time"

	_ "tush00nka/chato/docs"
	"tush00nka/chato/internal/handler"
	"tush00nka/chato/internal/middleware"

	"github.com/charmbracelet/log"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// RouteRegistrar обработчик, регистрирующий маршруты за авторизацией
type RouteRegistrar interface {
	RegisterRoutes(router *mux.Router)
}

type ServerOptions struct {
	Origins        []string
	RateLimitRPS   float64
	RateLimitBurst int
	Auth           mux.MiddlewareFunc
	Uploads        http.Handler
	Health         map[string]handler.HealthCheck
}

type Server struct {
	router  *mux.Router
	handler http.Handler
}

func NewServer(opts ServerOptions, userHandler *handler.UserHandler, protectedHandlers ...RouteRegistrar) *Server {
	router := mux.NewRouter()
	router.Use(middleware.Metrics)

	router.HandleFunc("/ping", handler.Ping).Methods(http.MethodGet)
	router.Handle("/health", handler.Health(opts.Health)).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler())

	// doc.json отдается из зарегистрированного пакета docs
	router.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	if opts.Uploads != nil {
		router.PathPrefix(uploadsPrefix + "/").Handler(opts.Uploads)
	}

	api := router.PathPrefix("/api/v1").Subrouter()
	public := api.NewRoute().Subrouter()
	protected := api.NewRoute().Subrouter()
	if opts.Auth != nil {
		protected.Use(opts.Auth)
	}

	if userHandler != nil {
		userHandler.RegisterRoutes(public, protected)
	}
	for _, h := range protectedHandlers {
		h.RegisterRoutes(protected)
	}

	origins := opts.Origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	corsOpts := []handlers.CORSOption{
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Requested-With"}),
	}
	// браузеры не передают cookie при Access-Control-Allow-Origin: *
	if !slices.Contains(origins, "*") {
		corsOpts = append(corsOpts, handlers.AllowCredentials())
	}
	cors := handlers.CORS(corsOpts...)
	limiter := middleware.NewRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst)
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(log.Default().StandardLog(log.StandardLogOptions{ForceLevel: log.ErrorLevel})),
		handlers.PrintRecoveryStack(true),
	)

	var h http.Handler = router
	h = middleware.Logging(h)
	h = limiter.Middleware(h)
	h = handlers.ProxyHeaders(h)
	h = handlers.CompressHandler(h)
	h = cors(h)
	h = recovery(h)

	return &Server{router: router, handler: h}
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Handler:      s.handler,
		Addr:         addr,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
