package handler

import (
	"net/http"
	"strconv"

	"github.com/wadjakorntonsri/go-event-beacon/pkg/core/domain"
	"github.com/wadjakorntonsri/go-event-beacon/pkg/ports"
)

type RowsHandler struct {
	service ports.IngestService
}

func NewRowsHandler(service ports.IngestService) *RowsHandler {
	return &RowsHandler{service: service}
}

// List pages through the event sheet
func (h *RowsHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	page, limit = domain.NormalizePage(page, limit)

	rows, count, err := h.service.ListRows(r.Context(), page, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := map[string]interface{}{
		"header": domain.Header,
		"data":   rows,
		"total":  count,
		"page":   page,
		"limit":  limit,
	}
	writeJSON(w, resp)
}
