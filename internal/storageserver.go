package internal

import (
	"log/slog"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// NewStorageHandler exposes store over http for socketStorage clients.
func NewStorageHandler(store Storage, logger *slog.Logger) http.Handler {
	router := httprouter.New()

	router.POST("/payments", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var pp ProcessedPayment
		if err := json.NewDecoder(r.Body).Decode(&pp); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := store.Save(r.Context(), pp); err != nil {
			logger.Error("failed to save payment", "correlationId", pp.CorrelationId, "err", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})

	router.GET("/summary", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		fromStr := r.URL.Query().Get("from")
		toStr := r.URL.Query().Get("to")
		from, err := ParseTimeOrNil(fromStr)
		if err != nil {
			logger.Warn("failed to parse from time", "from", fromStr, "err", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		to, err := ParseTimeOrNil(toStr)
		if err != nil {
			logger.Warn("failed to parse to time", "to", toStr, "err", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		summary, err := store.GetSummary(r.Context(), from, to)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(summary); err != nil {
			logger.Error("failed to encode summary", "err", err)
		}
	})

	router.POST("/clean-up", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if err := store.CleanUp(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	return router
}
