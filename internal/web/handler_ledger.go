package web

import (
	"net/http"

	"github.com/vbonduro/mealledger/internal/domain"
	"github.com/vbonduro/mealledger/internal/ledger"
)

type itemResponse struct {
	Item domain.FoodItem     `json:"item"`
	Day  *ledger.DailyLedger `json:"day"`
}

func (s *Server) handleGetToday(w http.ResponseWriter, r *http.Request) {
	day, err := s.ledger.GetDay(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, day)
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	slot, err := parseSlot(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var item domain.FoodItem
	if err := decodeJSON(w, r, &item); err != nil {
		s.writeError(w, r, err)
		return
	}

	added, day, err := s.ledger.AddItem(r.Context(), r.PathValue("id"), slot, item)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, itemResponse{Item: added, Day: day})
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	slot, err := parseSlot(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	day, err := s.ledger.RemoveItem(r.Context(), r.PathValue("id"), slot, r.PathValue("itemID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, day)
}

func (s *Server) handleResizeItem(w http.ResponseWriter, r *http.Request) {
	slot, err := parseSlot(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req struct {
		WeightGrams *float64 `json:"weightGrams"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.WeightGrams == nil {
		s.writeError(w, r, &domain.ValidationError{Field: "weightGrams", Message: "required"})
		return
	}

	resized, day, err := s.ledger.ResizeItem(r.Context(), r.PathValue("id"), slot, r.PathValue("itemID"), *req.WeightGrams)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itemResponse{Item: resized, Day: day})
}
