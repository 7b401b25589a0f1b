package coach

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bkovacev/runsight/internal/telemetry/metrics"
	"github.com/bkovacev/runsight/pkg"

	log "github.com/sirupsen/logrus"
)

type AskRequest struct {
	Question string `json:"question"`
}

type AskResponse struct {
	Advice string `json:"advice"`
}

type Handler struct {
	advisor *Advisor
	metrics *metrics.Manager
}

func NewHandler(advisor *Advisor, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		advisor: advisor,
		metrics: metricsManager,
	}
}

// HandleAsk answers one coaching question. A model backend failure maps to
// 502, the cached activity data is unaffected either way.
func (handler *Handler) HandleAsk(w http.ResponseWriter, r *http.Request) {
	var askReq AskRequest
	if err := json.NewDecoder(r.Body).Decode(&askReq); err != nil {
		log.Errorf("ask coach, decode request: %s", err)
		http.Error(w, "invalid ask request", http.StatusBadRequest)
		return
	}
	if askReq.Question == "" {
		http.Error(w, "question is required", http.StatusBadRequest)
		return
	}

	handler.metrics.CounterAdviceRequests.Inc()

	advice, err := handler.advisor.Ask(r.Context(), askReq.Question)
	if err != nil {
		log.Errorf("ask coach: %s", err)
		var adviceErr *AdviceError
		if errors.As(err, &adviceErr) {
			http.Error(w, "coaching backend unavailable", http.StatusBadGateway)
			return
		}
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	adviceJson, err := json.Marshal(AskResponse{Advice: advice})
	if err != nil {
		log.Errorf("marshal advice: %s", err)
		http.Error(w, "marshal advice error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, adviceJson)
}
