// Package api recordkv HTTP API
//
// @title           recordkv HTTP API
// @version         1.0.0
// @description     Record-level access (read, insert, update, delete, scan) over a recordkv store.
// @host            localhost:8080
// @BasePath        /
//
// @securityDefinitions.apikey ApiKeyAuth
// @in              header
// @name            X-API-Key
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/swaggo/swag"
)

// statsInterval is how often the store gauges are refreshed
const statsInterval = 30 * time.Second

// NewRouter wires every route of s
func NewRouter(s *Server) http.Handler {
	metrics := s.metrics

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", metrics.Handler())

	// Swagger documentation (unprotected)
	r.Get("/swagger/*", s.handleSwagger)

	r.Group(func(r chi.Router) {
		if s.config.APIKey != "" {
			r.Use(metrics.InstrumentAuthMiddleware(apiKeyMiddleware(s.config.APIKey)))
		}

		r.Get("/health", metrics.InstrumentHandler("GET", "/health", s.handleHealth))

		r.Get("/get", metrics.InstrumentHandler("GET", "/get", s.handleGet))
		r.Get("/scan", metrics.InstrumentHandler("GET", "/scan", s.handleScan))

		// Write endpoints accept GET for clients that pass everything in the query
		for _, method := range []string{http.MethodGet, http.MethodPost} {
			r.Method(method, "/put", metrics.InstrumentHandler(method, "/put", s.handlePut))
			r.Method(method, "/update", metrics.InstrumentHandler(method, "/update", s.handleUpdate))
			r.Method(method, "/del", metrics.InstrumentHandler(method, "/del", s.handleDelete))
		}
		r.Delete("/del", metrics.InstrumentHandler("DELETE", "/del", s.handleDelete))
	})

	return r
}

func (s *Server) handleSwagger(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/swagger/", "/swagger/index.html":
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerUI))
	case "/swagger/swagger.json":
		doc, err := swag.ReadDoc(SwaggerInfo.InstanceName())
		if err != nil {
			s.logger.Error("swagger doc generation failed", "error", err)
			sendError(w, "Failed to generate Swagger documentation", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", ContentTypeJSON)
		_, _ = w.Write([]byte(doc))
	default:
		http.NotFound(w, r)
	}
}

const swaggerUI = `<!DOCTYPE html>
<html>
<head>
	<title>recordkv API Documentation</title>
	<link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@3.25.0/swagger-ui.css" />
</head>
<body>
	<div id="swagger-ui"></div>
	<script src="https://unpkg.com/swagger-ui-dist@3.25.0/swagger-ui-bundle.js"></script>
	<script>
	window.onload = function() {
		SwaggerUIBundle({
			url: '/swagger/swagger.json',
			dom_id: '#swagger-ui',
			presets: [SwaggerUIBundle.presets.apis, SwaggerUIBundle.presets.standalone]
		});
	};
	</script>
</body>
</html>`

// StartServer serves s until ctx is cancelled, then shuts down gracefully
func StartServer(ctx context.Context, s *Server) error {
	addr := net.JoinHostPort(s.config.Bind, strconv.Itoa(s.config.Port))
	SwaggerInfo.Host = fmt.Sprintf("localhost:%d", s.config.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(s),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.startMetricsUpdater(ctx, statsInterval)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting recordkv HTTP API", "addr", addr, "metrics", "/metrics")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	s.logger.Info("shutting down HTTP API")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
