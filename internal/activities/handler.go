package activities

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/bkovacev/runsight/pkg"

	log "github.com/sirupsen/logrus"
)

type Handler struct {
	service *RefreshService
}

func NewHandler(service *RefreshService) *Handler {
	return &Handler{service: service}
}

// HandleList returns all cached activities, most recent first.
func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	dataset, err := handler.service.Dataset(r.Context())
	if err != nil {
		log.Errorf("list activities: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	listed := make([]Activity, len(dataset.Activities))
	copy(listed, dataset.Activities)
	sort.Slice(listed, func(i, j int) bool {
		return listed[i].StartDate().After(listed[j].StartDate())
	})

	activitiesJson, err := json.Marshal(listed)
	if err != nil {
		log.Errorf("marshal activities: %s", err)
		http.Error(w, "marshal activities error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, activitiesJson)
}

// HandleRefresh triggers one fetch-merge-persist cycle. Auth failures map to
// 502 towards the caller since the credentials are server-side configuration,
// not something the client sent.
func (handler *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	result, err := handler.service.Refresh(r.Context())

	var remoteSyncErr *RemoteSyncError
	if errors.As(err, &remoteSyncErr) {
		// local cache is saved, the mirror will catch up on the next cycle
		log.Errorf("refresh: %s", err)
		err = nil
	}
	if err != nil {
		log.Errorf("refresh: %s", err)
		var persistErr *PersistError
		if errors.As(err, &persistErr) {
			http.Error(w, "failed to save activity cache", http.StatusInternalServerError)
			return
		}
		http.Error(w, "failed to refresh activities", http.StatusBadGateway)
		return
	}

	resultJson, err := json.Marshal(result)
	if err != nil {
		log.Errorf("marshal refresh result: %s", err)
		http.Error(w, "marshal refresh result error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, resultJson)
}

// HandleStats returns the one-pass summary of the cached dataset.
func (handler *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	dataset, err := handler.service.Dataset(r.Context())
	if err != nil {
		log.Errorf("activity stats: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	statsJson, err := json.Marshal(dataset.Stats())
	if err != nil {
		log.Errorf("marshal activity stats: %s", err)
		http.Error(w, "marshal stats error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, statsJson)
}
