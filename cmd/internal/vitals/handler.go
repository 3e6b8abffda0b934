package vitals

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"vitalis/cmd/internal/auth/session"
)

// AccessGuard authenticates a request and returns the caller's claims. The
// auth gateway's handler satisfies this.
type AccessGuard interface {
	RequireAuth(w http.ResponseWriter, r *http.Request) (session.AccessClaims, bool)
}

// Handler exposes the vitals subsystem over HTTP.
type Handler struct {
	log     *slog.Logger
	svc     *Service
	feed    *Feed
	guard   AccessGuard
	maxBody int64
}

// NewHandler constructs a vitals Handler. feed may be nil to disable the live
// stream endpoint.
func NewHandler(log *slog.Logger, svc *Service, feed *Feed, guard AccessGuard, maxBody int64) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if svc == nil {
		return nil, errors.New("vitals: nil service")
	}
	if guard == nil {
		return nil, errors.New("vitals: nil access guard")
	}
	if maxBody <= 0 {
		maxBody = 1 << 20
	}
	return &Handler{log: log, svc: svc, feed: feed, guard: guard, maxBody: maxBody}, nil
}

// Register wires vitals routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/vitals", h.handleIngest)
	mux.HandleFunc("/vitals/recent", h.handleRecent)
	mux.HandleFunc("/vitals/latest", h.handleLatest)
	mux.HandleFunc("/vitals/stream", h.handleStream)
}

type ingestRequest struct {
	HeartRate    int       `json:"heart_rate"`
	Systolic     int       `json:"systolic"`
	Diastolic    int       `json:"diastolic"`
	SpO2         int       `json:"spo2"`
	TemperatureC float64   `json:"temperature_c"`
	Notes        string    `json:"notes"`
	Source       string    `json:"source"`
	RecordedAt   time.Time `json:"recorded_at,omitzero"`
}

type readingResponse struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	HeartRate    int       `json:"heart_rate"`
	Systolic     int       `json:"systolic"`
	Diastolic    int       `json:"diastolic"`
	SpO2         int       `json:"spo2"`
	TemperatureC float64   `json:"temperature_c"`
	Notes        string    `json:"notes,omitempty"`
	Source       string    `json:"source"`
	RecordedAt   time.Time `json:"recorded_at"`
	CreatedAt    time.Time `json:"created_at"`
	RiskLabel    *string   `json:"risk_label,omitempty"`
	RiskScore    *float64  `json:"risk_score,omitempty"`
}

type readingListResponse struct {
	Readings []readingResponse `json:"readings"`
}

func toReadingResponse(r Reading) readingResponse {
	return readingResponse{
		ID:           r.ID,
		UserID:       r.UserID,
		HeartRate:    r.HeartRate,
		Systolic:     r.Systolic,
		Diastolic:    r.Diastolic,
		SpO2:         r.SpO2,
		TemperatureC: r.TemperatureC,
		Notes:        r.Notes,
		Source:       r.Source,
		RecordedAt:   r.RecordedAt,
		CreatedAt:    r.CreatedAt,
		RiskLabel:    r.RiskLabel,
		RiskScore:    r.RiskScore,
	}
}

func (h *Handler) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	claims, ok := h.guard.RequireAuth(w, r)
	if !ok {
		return
	}

	var req ingestRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	reading, err := h.svc.Ingest(r.Context(), time.Now().UTC(), claims.UserID, ReadingInput{
		HeartRate:    req.HeartRate,
		Systolic:     req.Systolic,
		Diastolic:    req.Diastolic,
		SpO2:         req.SpO2,
		TemperatureC: req.TemperatureC,
		Notes:        req.Notes,
		Source:       req.Source,
		RecordedAt:   req.RecordedAt,
	})
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			h.writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":   "validation_error",
				"message": "one or more measurements are out of range",
				"fields":  verr.Fields,
			})
			return
		}
		h.log.Error("vitals.ingest.fail", "err", err)
		h.writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	h.writeJSON(w, http.StatusCreated, toReadingResponse(reading))
}

func (h *Handler) handleRecent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	claims, ok := h.guard.RequireAuth(w, r)
	if !ok {
		return
	}

	target := h.targetUser(r, claims)
	limit := queryInt(r, "limit", 20)

	readings, err := h.svc.Recent(r.Context(), claims.UserID, claims.Role, target, limit)
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			h.writeError(w, http.StatusForbidden, "forbidden", "access denied")
			return
		}
		h.log.Error("vitals.recent.fail", "err", err)
		h.writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	out := readingListResponse{Readings: make([]readingResponse, 0, len(readings))}
	for _, reading := range readings {
		out.Readings = append(out.Readings, toReadingResponse(reading))
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleLatest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	claims, ok := h.guard.RequireAuth(w, r)
	if !ok {
		return
	}

	target := h.targetUser(r, claims)

	reading, err := h.svc.Latest(r.Context(), claims.UserID, claims.Role, target)
	if err != nil {
		switch {
		case errors.Is(err, ErrForbidden):
			h.writeError(w, http.StatusForbidden, "forbidden", "access denied")
		case errors.Is(err, ErrNotFound):
			h.writeError(w, http.StatusNotFound, "not_found", "no readings recorded")
		default:
			h.log.Error("vitals.latest.fail", "err", err)
			h.writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, toReadingResponse(reading))
}

// targetUser resolves whose readings the request is about. Absent an explicit
// user_id, the caller asks about themselves.
func (h *Handler) targetUser(r *http.Request, claims session.AccessClaims) string {
	if target := strings.TrimSpace(r.URL.Query().Get("user_id")); target != "" {
		return target
	}
	return claims.UserID
}

func queryInt(r *http.Request, key string, def int) int {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("vitals.response.encode.fail", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string) {
	h.writeJSON(w, status, map[string]string{"error": code, "message": message})
}
