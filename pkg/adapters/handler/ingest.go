package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/wadjakorntonsri/go-event-beacon/pkg/core/domain"
	"github.com/wadjakorntonsri/go-event-beacon/pkg/metrics"
	"github.com/wadjakorntonsri/go-event-beacon/pkg/ports"
)

const readyInstructions = "POST application/x-www-form-urlencoded or application/json " +
	"with event, userId, ts (epoch ms) and optional variant, meta."

type IngestHandler struct {
	service ports.IngestService
	maxBody int64
	log     *slog.Logger
}

func NewIngestHandler(service ports.IngestService, maxBody int64, log *slog.Logger) *IngestHandler {
	return &IngestHandler{service: service, maxBody: maxBody, log: log}
}

// Ack is the body of every POST response.
type Ack struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type readyResponse struct {
	Status       string `json:"status"`
	Instructions string `json:"instructions"`
}

// Ingest accepts one event. The status is always 200; failures are
// reported in the body as ok=false.
func (h *IngestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}

	err := h.ingest(r)
	if err != nil {
		reason := rejectReason(err)
		metrics.EventsRejectedTotal.WithLabelValues(reason).Inc()
		h.log.Info("event rejected", "reason", reason, "error", err)
		writeJSON(w, Ack{OK: false, Error: err.Error()})
		return
	}

	metrics.EventsAcceptedTotal.Inc()
	writeJSON(w, Ack{OK: true})
}

func (h *IngestHandler) ingest(r *http.Request) error {
	body, err := ParseBody(r)
	if err != nil {
		return err
	}
	sub, err := SubmissionFrom(body)
	if err != nil {
		return err
	}
	return h.service.Ingest(r.Context(), sub)
}

// Ready answers GET with a readiness document.
func (h *IngestHandler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, readyResponse{Status: "ready", Instructions: readyInstructions})
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnsupportedType):
		return "unsupported_type"
	case errors.Is(err, domain.ErrMalformedBody):
		return "malformed"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	default:
		return "store"
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}
