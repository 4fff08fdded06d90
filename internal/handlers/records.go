package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Brownie44l1/plant-disease-api/internal/records"
)

const maxFormBytes = 64 << 10

type feedbackView struct {
	records.Feedback
	DisplayName string `json:"display_name"`
}

func (h *Handler) Feedback(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		entries := h.store.Feedback()
		views := make([]feedbackView, 0, len(entries))
		for _, f := range entries {
			views = append(views, feedbackView{Feedback: f, DisplayName: f.DisplayName()})
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"feedback": views,
			"count":    len(views),
		})
	case http.MethodPost:
		var f records.Feedback
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFormBytes)).Decode(&f); err != nil {
			h.badRequest(w, r, "Invalid JSON")
			return
		}
		f.Normalize()
		if err := f.Validate(); err != nil {
			h.writeError(w, r, err)
			return
		}
		saved := h.store.AddFeedback(f)
		h.recordAppended("feedback")
		writeJSON(w, http.StatusCreated, feedbackView{Feedback: saved, DisplayName: saved.DisplayName()})
	default:
		h.methodNotAllowed(w, r)
	}
}

func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		entries := h.store.Contacts()
		writeJSON(w, http.StatusOK, map[string]any{
			"messages": entries,
			"count":    len(entries),
		})
	case http.MethodPost:
		var c records.Contact
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFormBytes)).Decode(&c); err != nil {
			h.badRequest(w, r, "Invalid JSON")
			return
		}
		c.Normalize()
		if err := c.Validate(); err != nil {
			h.writeError(w, r, err)
			return
		}
		saved := h.store.AddContact(c)
		h.recordAppended("contact")
		writeJSON(w, http.StatusCreated, saved)
	default:
		h.methodNotAllowed(w, r)
	}
}

func (h *Handler) recordAppended(kind string) {
	if h.observer != nil {
		h.observer.RecordAppended(kind)
	}
}
