package loadsapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/dkchapman16/loadwatch/internal/models"
	"github.com/dkchapman16/loadwatch/internal/services/alerts"
	"github.com/dkchapman16/loadwatch/internal/services/loads"
	"github.com/dkchapman16/loadwatch/internal/storage/pgstore"
)

type LoadsService interface {
	GetLoads(ctx context.Context) ([]*models.Load, error)
	GetLoad(ctx context.Context, id string) (*models.Load, error)
}

type AlertsService interface {
	Notify(ctx context.Context, load *models.Load, settings models.GlobalSettings, now time.Time) (*alerts.Outcome, error)
	Acknowledge(ctx context.Context, ackKey, by string) (*models.Ack, error)
	ListRecentAlerts(ctx context.Context, limit int) ([]*models.Alert, error)
}

type SettingsStore interface {
	GetSettings(ctx context.Context) (models.GlobalSettings, error)
	UpdateSettings(ctx context.Context, gs models.GlobalSettings) error
}

// LoadsAPI — JSON-обвязка дашборда поверх сервисов. Транспорт тонкий:
// вся политика живёт в services.
type LoadsAPI struct {
	loads    LoadsService
	alerts   AlertsService
	settings SettingsStore
}

func New(loadsSvc LoadsService, alertsSvc AlertsService, settings SettingsStore) *LoadsAPI {
	return &LoadsAPI{loads: loadsSvc, alerts: alertsSvc, settings: settings}
}

func (a *LoadsAPI) Routes(r chi.Router) {
	r.Get("/api/loads", a.handleGetLoads)
	r.Get("/api/loads/{loadID}", a.handleGetLoad)
	r.Post("/api/loads/{loadID}/notify", a.handleNotify)
	r.Get("/api/settings", a.handleGetSettings)
	r.Put("/api/settings", a.handlePutSettings)
	r.Get("/api/alerts", a.handleListAlerts)
	r.Post("/api/acks/{ackKey}", a.handleAcknowledge)
}

func (a *LoadsAPI) handleGetLoads(w http.ResponseWriter, r *http.Request) {
	items, err := a.loads.GetLoads(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"loads": items, "count": len(items)})
}

func (a *LoadsAPI) handleGetLoad(w http.ResponseWriter, r *http.Request) {
	load, err := a.loads.GetLoad(r.Context(), chi.URLParam(r, "loadID"))
	if errors.Is(err, loads.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, load)
}

func (a *LoadsAPI) handleNotify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	load, err := a.loads.GetLoad(ctx, chi.URLParam(r, "loadID"))
	if errors.Is(err, loads.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	settings, err := a.settings.GetSettings(ctx)
	if err != nil {
		slog.Warn("load settings, using defaults", "error", err.Error())
		settings = models.DefaultGlobalSettings()
	}

	out, err := a.alerts.Notify(ctx, load, settings, time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *LoadsAPI) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	gs, err := a.settings.GetSettings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, gs)
}

func (a *LoadsAPI) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var gs models.GlobalSettings
	if err := json.NewDecoder(r.Body).Decode(&gs); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "decode settings"))
		return
	}
	if err := validateSettings(gs); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := a.settings.UpdateSettings(r.Context(), gs); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, gs)
}

func (a *LoadsAPI) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("limit must be an integer"))
			return
		}
		limit = n
	}

	items, err := a.alerts.ListRecentAlerts(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if items == nil {
		items = []*models.Alert{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"alerts": items})
}

func (a *LoadsAPI) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	var body struct {
		By string `json:"by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "decode ack"))
		return
	}

	ack, err := a.alerts.Acknowledge(r.Context(), chi.URLParam(r, "ackKey"), body.By)
	if errors.Is(err, pgstore.ErrAckNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, ack)
}

func validateSettings(gs models.GlobalSettings) error {
	if gs.QuietHoursStart < 0 || gs.QuietHoursStart > 23 {
		return errors.New("quietHoursStart must be in [0,23]")
	}
	if gs.QuietHoursEnd < 0 || gs.QuietHoursEnd > 23 {
		return errors.New("quietHoursEnd must be in [0,23]")
	}
	if gs.DefaultBufferMin < 0 {
		return errors.New("defaultBufferMin must be >= 0")
	}
	if gs.TimezoneDefault == "" {
		return errors.New("timezoneDefault is required")
	}
	if _, err := time.LoadLocation(gs.TimezoneDefault); err != nil {
		return errors.Wrap(err, "timezoneDefault")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
