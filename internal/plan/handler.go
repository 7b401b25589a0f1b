package plan

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/bkovacev/runsight/pkg"

	log "github.com/sirupsen/logrus"
)

type Handler struct {
	loader *Loader
	now    func() time.Time
}

func NewHandler(loader *Loader) *Handler {
	return &Handler{
		loader: loader,
		now:    time.Now,
	}
}

// HandleGet lists the plan entries. With ?upcoming=N only the next N dated
// entries are returned.
func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, err := handler.loader.Load(r.Context())
	if err != nil {
		log.Errorf("get plan: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	entries := p.Entries()
	if upcomingParam := r.URL.Query().Get("upcoming"); upcomingParam != "" {
		limit, err := strconv.Atoi(upcomingParam)
		if err != nil || limit < 0 {
			http.Error(w, "invalid upcoming parameter", http.StatusBadRequest)
			return
		}
		entries = p.Upcoming(handler.now(), limit)
	}

	entriesJson, err := json.Marshal(entries)
	if err != nil {
		log.Errorf("marshal plan entries: %s", err)
		http.Error(w, "marshal plan error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, entriesJson)
}

// HandleEdit applies one approved edit to one plan entry and re-persists the
// plan file.
func (handler *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	var edit Edit
	if err := json.NewDecoder(r.Body).Decode(&edit); err != nil {
		log.Errorf("edit plan, decode request: %s", err)
		http.Error(w, "invalid edit request", http.StatusBadRequest)
		return
	}
	if edit.WeekLabel == "" || edit.Day == "" {
		http.Error(w, "week_label and day are required", http.StatusBadRequest)
		return
	}

	updated, err := handler.loader.ApplyEdit(r.Context(), edit)
	if err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			http.Error(w, "plan entry not found", http.StatusNotFound)
			return
		}
		log.Errorf("edit plan: %s", err)
		http.Error(w, "failed to edit plan", http.StatusInternalServerError)
		return
	}

	updatedJson, err := json.Marshal(updated.Entries())
	if err != nil {
		log.Errorf("marshal updated plan: %s", err)
		http.Error(w, "marshal plan error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, updatedJson)
}
