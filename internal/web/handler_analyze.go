package web

import (
	"net/http"
)

func (s *Server) handleAnalyzePhoto(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	imageData, mimeType, err := s.readImage(w, r, true)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.analysis.AnalyzePhoto(r.Context(), userID, imageData, mimeType)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if res.Malformed() {
		s.writeError(w, r, res.Err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAnalyzeText(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description string `json:"description"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.analysis.EstimateMeal(r.Context(), r.PathValue("id"), req.Description)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if res.Malformed() {
		s.writeError(w, r, res.Err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
