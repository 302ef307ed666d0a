// Package reporthttp exposes the report engine over HTTP. One dispatch
// endpoint accepts a report-type string with a date range and filters and
// returns the JSON report payload.
package reporthttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/profitlens/profitlens/internal/platform/httpx"
	"github.com/profitlens/profitlens/internal/report"
)

const requestTimeout = 60 * time.Second

// Service exposes the engine operations required by the handler.
type Service interface {
	Run(ctx context.Context, req report.Request) (report.Result, error)
}

// Handler serves the report dispatch endpoint.
type Handler struct {
	logger  *slog.Logger
	service Service
}

// NewHandler constructs a report handler.
func NewHandler(logger *slog.Logger, service Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		http.Error(w, http.StatusText(http.StatusNotImplemented), http.StatusNotImplemented)
		return
	}

	var req report.Request
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Request", "request body is not valid JSON")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	result, err := h.service.Run(ctx, req)
	if err != nil {
		h.respondError(w, req, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

// respondError keeps "fetch failed" distinguishable from "no data for range":
// an empty range returns 200 with empty rows, only real failures land here.
func (h *Handler) respondError(w http.ResponseWriter, req report.Request, err error) {
	switch {
	case errors.Is(err, report.ErrInvalidRequest):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, report.ErrFeed):
		h.logger.Error("order feed fetch failed", slog.String("report", req.Type), slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Feed Unavailable", "order feed fetch failed")
	case errors.Is(err, context.DeadlineExceeded):
		httpx.Problem(w, http.StatusGatewayTimeout, "Timeout", "report computation timed out")
	default:
		h.logger.Error("report computation failed", slog.String("report", req.Type), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
