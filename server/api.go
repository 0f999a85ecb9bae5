package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// maxRequestBody bounds a print request; receipt images are a few hundred KB.
const maxRequestBody = 16 << 20

// Printers is the set of bridge operations the API exposes
type Printers interface {
	GetPrinterList() string
	ConnectPrinter(address string) bool
	PrintReceipt(imageData, optionsJSON string) bool
	DisconnectPrinter() bool
	CheckPrinterConnection(address string) bool
	PrintTestPage() bool
}

// APIConfig configures the HTTP listener
type APIConfig struct {
	Address        string
	AllowedOrigins []string
}

// API serves the bridge operations over HTTP to the host application
type API struct {
	printers Printers
	router   chi.Router
	server   *http.Server
	logger   zerolog.Logger
}

type connectRequest struct {
	Address string `json:"address"`
}

type printRequest struct {
	ImageData string          `json:"imageData"`
	Options   json.RawMessage `json:"options"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

// NewAPI creates the HTTP API over printers
func NewAPI(printers Printers, cfg APIConfig, logger zerolog.Logger) *API {
	a := &API{
		printers: printers,
		router:   chi.NewRouter(),
		logger:   logger.With().Str("component", "api").Logger(),
	}

	a.setupRoutes(cfg.AllowedOrigins)

	a.server = &http.Server{
		Addr:         cfg.Address,
		Handler:      a.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return a
}

func (a *API) setupRoutes(origins []string) {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	a.router.Use(middleware.RequestID)
	a.router.Use(a.requestLogger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	a.router.Get("/printers", a.handleListPrinters)
	a.router.Post("/connect", a.handleConnect)
	a.router.Post("/print", a.handlePrint)
	a.router.Post("/disconnect", a.handleDisconnect)
	a.router.Get("/connection", a.handleConnection)
	a.router.Post("/test-print", a.handleTestPrint)
}

// Handler returns the routed handler
func (a *API) Handler() http.Handler {
	return a.router
}

// ListenAndServe serves until Shutdown is called
func (a *API) ListenAndServe() error {
	a.logger.Info().Str("address", a.server.Addr).Msg("starting HTTP API")
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server
func (a *API) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

func (a *API) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		a.logger.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func (a *API) handleListPrinters(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(a.printers.GetPrinterList()))
}

func (a *API) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if !a.decode(w, r, &req) {
		return
	}
	if req.Address == "" {
		a.respondError(w, http.StatusBadRequest, "address is required")
		return
	}
	a.respondOK(w, a.printers.ConnectPrinter(req.Address))
}

func (a *API) handlePrint(w http.ResponseWriter, r *http.Request) {
	var req printRequest
	if !a.decode(w, r, &req) {
		return
	}
	a.respondOK(w, a.printers.PrintReceipt(req.ImageData, optionsText(req.Options)))
}

// optionsText accepts options as a JSON object or as a string holding one
func optionsText(raw json.RawMessage) string {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	return string(raw)
}

func (a *API) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	a.respondOK(w, a.printers.DisconnectPrinter())
}

func (a *API) handleConnection(w http.ResponseWriter, r *http.Request) {
	a.respondOK(w, a.printers.CheckPrinterConnection(r.URL.Query().Get("address")))
}

func (a *API) handleTestPrint(w http.ResponseWriter, r *http.Request) {
	a.respondOK(w, a.printers.PrintTestPage())
}

func (a *API) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		a.logger.Debug().Err(err).Str("path", r.URL.Path).Msg("invalid request body")
		a.respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (a *API) respondOK(w http.ResponseWriter, ok bool) {
	a.respondJSON(w, http.StatusOK, okResponse{OK: ok})
}

func (a *API) respondJSON(w http.ResponseWriter, status int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		a.logger.Error().Err(err).Msg("failed to marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

func (a *API) respondError(w http.ResponseWriter, status int, message string) {
	a.respondJSON(w, status, map[string]string{"error": message})
}
