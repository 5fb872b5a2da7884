package router

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/Totarae/UTMBuilder/internal/handlers"
	"github.com/Totarae/UTMBuilder/internal/middleware"
)

// NewRouter создаёт и настраивает маршрутизатор.
// Источникам из allowedOrigins разрешены кросс-доменные запросы формы.
func NewRouter(handler *handlers.Handler, logger *zap.Logger, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.LoggingMiddleware(logger)) // Подключаем логирование
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.DecompressRequest(logger))
	r.Use(chimw.Compress(5, "application/json", "text/html"))
	if len(allowedOrigins) > 0 {
		r.Use(cors.New(cors.Options{
			AllowedOrigins:   allowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE"},
			AllowedHeaders:   []string{"Content-Type"},
			AllowCredentials: true,
		}).Handler)
	}

	r.Get("/ping", handler.Ping)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/links", handler.CreateLink)
		r.Put("/links/{keyword}", handler.EditLink)
		r.Delete("/links/{keyword}", handler.DeleteLink)
		r.Get("/links/{keyword}/meta", handler.GetMeta)
		r.Get("/links/{keyword}/edit-row", handler.EditRow)

		r.Get("/nonce", handler.Nonce)
		r.Get("/suggest", handler.Suggest)
		r.Post("/suggest", handler.Suggest)

		r.Get("/settings", handler.GetSettings)
		r.Put("/settings", handler.UpdateSettings)
	})

	r.Get("/{keyword}", handler.ResponseURL)
	return r
}
