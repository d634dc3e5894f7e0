package http

import (
	"net/http"

	commonhttp "github.com/AlibekovAA/shotplot/backend/internal/common/http"
	"github.com/AlibekovAA/shotplot/backend/internal/common/logger"
	"github.com/AlibekovAA/shotplot/backend/internal/quote"
)

type Handler struct {
	quotes quote.Fetcher
	log    *logger.Logger
	errs   *commonhttp.ErrorHandler
}

func NewHandler(quotes quote.Fetcher, log *logger.Logger) *Handler {
	return &Handler{quotes: quotes, log: log, errs: commonhttp.NewErrorHandler(log)}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/quote", commonhttp.RequireMethod(http.MethodGet)(h.random))
}

func (h *Handler) random(w http.ResponseWriter, r *http.Request) {
	q, err := h.quotes.Random(r.Context())
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	commonhttp.WriteJSON(w, http.StatusOK, q)
}
