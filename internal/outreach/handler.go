package outreach

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/waqasmustafa/social-media-outreach/internal/ai"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

type imagePayload struct {
	Name string `json:"name"`
	Data string `json:"data"` // base64
}

type requestView struct {
	ID                 int64      `json:"id"`
	Name               string     `json:"name"`
	ProfileURL         string     `json:"profile_url"`
	ImageCount         int        `json:"image_count"`
	Status             string     `json:"status"`
	LastProfileName    string     `json:"last_profile_name"`
	LastResponseStatus string     `json:"last_response_status"`
	LastSentAt         *time.Time `json:"last_sent_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

func toView(req *ProfileRequest) requestView {
	return requestView{
		ID:                 req.ID,
		Name:               req.Name,
		ProfileURL:         req.ProfileURL,
		ImageCount:         len(req.Images),
		Status:             string(req.Status),
		LastProfileName:    req.LastProfileName,
		LastResponseStatus: req.LastResponseStatus,
		LastSentAt:         req.LastSentAt,
		CreatedAt:          req.CreatedAt,
	}
}

type logView struct {
	ID           int64     `json:"id"`
	RequestID    int64     `json:"request_id"`
	ProfileName  string    `json:"profile_name"`
	Brand        string    `json:"brand"`
	ProfileURL   string    `json:"profile_url"`
	Status       string    `json:"status"`
	Message      string    `json:"message"`
	ResponseJSON string    `json:"response_json"`
	SentAt       time.Time `json:"sent_at"`
}

func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name       string         `json:"name"`
		ProfileURL string         `json:"profile_url"`
		Images     []imagePayload `json:"images"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	req := &ProfileRequest{
		Name:       payload.Name,
		ProfileURL: strings.TrimSpace(payload.ProfileURL),
	}
	for _, img := range payload.Images {
		req.Images = append(req.Images, ai.Image{Name: img.Name, Data: img.Data})
	}

	if err := h.svc.CreateRequest(r.Context(), req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toView(req))
}

func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.svc.ListRequests(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]requestView, 0, len(reqs))
	for i := range reqs {
		views = append(views, toView(&reqs[i]))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	req, err := h.svc.GetRequest(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toView(req))
}

func (h *Handler) DeleteRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteRequest(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RequestLogs(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	logs, err := h.svc.RequestLogs(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]logView, 0, len(logs))
	for _, row := range logs {
		views = append(views, logView{
			ID:           row.ID,
			RequestID:    row.RequestID,
			ProfileName:  row.ProfileName,
			Brand:        row.Brand,
			ProfileURL:   row.ProfileURL,
			Status:       string(row.Status),
			Message:      row.Message,
			ResponseJSON: row.ResponseJSON,
			SentAt:       row.SentAt,
		})
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) SendOne(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	h.send(w, r, []int64{id})
}

func (h *Handler) SendBatch(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		IDs []int64 `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if len(payload.IDs) == 0 {
		http.Error(w, "missing ids", http.StatusBadRequest)
		return
	}
	h.send(w, r, payload.IDs)
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request, ids []int64) {
	if err := h.svc.SendNow(r.Context(), ids); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sent": len(ids)})
}

type settingsPayload struct {
	APIKey      string `json:"api_key"`
	AssistantID string `json:"assistant_id"`
	Model       string `json:"model"`
	APIBase     string `json:"api_base"`
	WebhookURL  string `json:"webhook_url"`
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.svc.Settings(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settingsPayload{
		APIKey:      maskKey(cfg.APIKey),
		AssistantID: cfg.AssistantID,
		Model:       cfg.Model,
		APIBase:     cfg.APIBase,
		WebhookURL:  cfg.WebhookURL,
	})
}

func (h *Handler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	cfg, ok := decodeSettings(w, r)
	if !ok {
		return
	}
	if err := h.svc.SaveSettings(r.Context(), cfg); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) TestConnection(w http.ResponseWriter, r *http.Request) {
	cfg, ok := decodeSettings(w, r)
	if !ok {
		return
	}
	info, err := h.svc.TestConnection(r.Context(), cfg)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"assistant_name": info.Name,
		"model":          info.Model,
	})
}

func decodeSettings(w http.ResponseWriter, r *http.Request) (Settings, bool) {
	var payload settingsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return Settings{}, false
	}
	return Settings{
		APIKey:      strings.TrimSpace(payload.APIKey),
		AssistantID: strings.TrimSpace(payload.AssistantID),
		Model:       strings.TrimSpace(payload.Model),
		APIBase:     strings.TrimSpace(payload.APIBase),
		WebhookURL:  strings.TrimSpace(payload.WebhookURL),
	}, true
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrNoInput), errors.Is(err, ErrTooManyImages):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotConfigured):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ai.ErrUnauthorized), errors.Is(err, ai.ErrAssistantNotFound):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ai.ErrConnectTimeout), errors.Is(err, ai.ErrRunTimeout):
		http.Error(w, err.Error(), http.StatusGatewayTimeout)
	default:
		var apiErr *ai.APIError
		var stateErr *ai.RunStateError
		if errors.As(err, &apiErr) || errors.As(err, &stateErr) {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
