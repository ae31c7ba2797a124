package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/mat"

	"github.com/mkarpov/dataserve/internal/config"
	"github.com/mkarpov/dataserve/internal/serializer"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

const serviceName = "dataserve"

// SettingsSource provides the active settings and the reload operation.
// *config.Manager is the production implementation.
type SettingsSource interface {
	Active() *config.Settings
	Reload() (*config.Settings, error)
}

// Handler wires the settings manager and the serializer registry into HTTP
// handlers.
type Handler struct {
	settings SettingsSource
	encoder  *serializer.Registry

	clock    func() time.Time
	onReload func(*config.Settings)
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithReloadHook runs after every successful settings reload, before the
// response is written. Used to retune the logger level.
func WithReloadHook(hook func(*config.Settings)) HandlerOption {
	return func(h *Handler) {
		h.onReload = hook
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(settings SettingsSource, encoder *serializer.Registry, opts ...HandlerOption) *Handler {
	h := &Handler{
		settings: settings,
		encoder:  encoder,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleWelcome(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := welcomeResponse{
		Message:     "Hello from dataserve!",
		Service:     serviceName,
		Environment: h.settings.Active().Environment,
	}
	h.writeData(w, http.StatusOK, resp)
}

// handleData renders the demo payload through the serializer registry: a
// dense matrix, a raw number, a timestamp, and a two-column dataframe.
func (h *Handler) handleData(w http.ResponseWriter, r *http.Request) {
	_ = r
	frame := dataframe.New(
		series.New([]int{1, 2}, series.Int, "A"),
		series.New([]int{3, 4}, series.Int, "B"),
	)
	payload := map[string]any{
		"array":     mat.NewDense(1, 3, []float64{1, 2, 3}),
		"number":    json.Number("42.42"),
		"timestamp": time.Date(2023, 12, 18, 10, 0, 0, 0, time.UTC),
		"dataframe": frame,
	}
	h.writeData(w, http.StatusOK, payload)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:      "ok",
		Timestamp:   h.clock(),
		Environment: h.settings.Active().Environment,
	}
	h.writeData(w, http.StatusOK, resp)
}

func (h *Handler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	_ = r
	h.writeData(w, http.StatusOK, newSettingsResponse(h.settings.Active()))
}

// handleReload re-resolves the settings from their sources. On failure the
// previously active settings stay in place and the error taxonomy maps onto
// the status code.
func (h *Handler) handleReload(w http.ResponseWriter, r *http.Request) {
	_ = r
	settings, err := h.settings.Reload()
	if err != nil {
		var validation *config.ValidationError
		var notFound *config.NotFoundError
		switch {
		case errors.As(err, &validation):
			writeError(w, http.StatusUnprocessableEntity, "Invalid configuration", validation.Error())
		case errors.As(err, &notFound):
			writeError(w, http.StatusInternalServerError, "Configuration not found", notFound.Error())
		default:
			writeInternalError(w, err)
		}
		return
	}

	if h.onReload != nil {
		h.onReload(settings)
	}

	resp := reloadResponse{
		Message:   "configuration reloaded",
		Timestamp: h.clock(),
		Settings:  newSettingsResponse(settings),
	}
	h.writeData(w, http.StatusOK, resp)
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type welcomeResponse struct {
	Message     string `json:"message"`
	Service     string `json:"service"`
	Environment string `json:"environment"`
}

type healthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Environment string    `json:"environment"`
}

type settingsResponse struct {
	Environment    string  `json:"environment"`
	Debug          bool    `json:"debug"`
	Host           string  `json:"host"`
	Port           int     `json:"port"`
	LoggingLevel   string  `json:"loggingLevel"`
	RequestLogging bool    `json:"requestLogging"`
	RateLimitRPS   float64 `json:"rateLimitRps"`
	RateLimitBurst int     `json:"rateLimitBurst"`
}

func newSettingsResponse(s *config.Settings) settingsResponse {
	return settingsResponse{
		Environment:    s.Environment,
		Debug:          s.Debug,
		Host:           s.Host,
		Port:           s.Port,
		LoggingLevel:   s.LoggingLevel,
		RequestLogging: s.RequestLogging,
		RateLimitRPS:   s.RateLimitRPS,
		RateLimitBurst: s.RateLimitBurst,
	}
}

type reloadResponse struct {
	Message   string           `json:"message"`
	Timestamp time.Time        `json:"timestamp"`
	Settings  settingsResponse `json:"settings"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// writeData runs the payload through the serializer registry before encoding.
// Serialization failures are request-level errors, not process-level ones.
func (h *Handler) writeData(w http.ResponseWriter, status int, payload any) {
	body, err := h.encoder.Marshal(payload)
	if err != nil {
		var unsupported *serializer.UnsupportedTypeError
		if errors.As(err, &unsupported) {
			writeError(w, http.StatusInternalServerError, "Serialization failed", unsupported.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
	_, _ = w.Write([]byte("\n"))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, errorResponse{Error: message, Details: details})
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
