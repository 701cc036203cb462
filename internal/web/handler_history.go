package web

import (
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/vbonduro/mealledger/internal/domain"
	"github.com/vbonduro/mealledger/internal/service"
)

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.history.List(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// handleAppendHistory accepts either a JSON body or a multipart form with
// an optional "image" file.
func (s *Server) handleAppendHistory(w http.ResponseWriter, r *http.Request) {
	var (
		in        service.HistoryInput
		imageData []byte
		mimeType  string
		err       error
	)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		imageData, mimeType, err = s.readImage(w, r, false)
		if err == nil {
			in, err = historyInputFromForm(r)
		}
	} else {
		err = decodeJSON(w, r, &in)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	entry, err := s.history.Append(r.Context(), r.PathValue("id"), in, imageData, mimeType)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func historyInputFromForm(r *http.Request) (service.HistoryInput, error) {
	in := service.HistoryInput{MealName: r.FormValue("mealName")}
	fields := []struct {
		name string
		dst  *float64
	}{
		{"calories", &in.Nutrition.Calories},
		{"proteinGrams", &in.Nutrition.Protein},
		{"carbsGrams", &in.Nutrition.Carbs},
		{"fatGrams", &in.Nutrition.Fat},
		{"weightGrams", &in.WeightGrams},
	}
	for _, f := range fields {
		raw := strings.TrimSpace(r.FormValue(f.name))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return in, &domain.ValidationError{Field: f.name, Message: "must be a number"}
		}
		*f.dst = v
	}
	return in, nil
}

func (s *Server) handleRemoveHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.history.Remove(r.Context(), r.PathValue("id"), r.PathValue("entryID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHistoryImage(w http.ResponseWriter, r *http.Request) {
	entryID := r.PathValue("entryID")
	reader, mimeType, err := s.history.Image(r.Context(), r.PathValue("id"), entryID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer closeWithLog(reader, "history image", s.logger)

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "private, max-age=86400")
	if _, err := io.Copy(w, reader); err != nil {
		s.logger.Error("write image failed", "entry_id", entryID, "error", err)
	}
}

func (s *Server) handleHistoryToMeal(w http.ResponseWriter, r *http.Request) {
	slot, err := parseSlot(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	item, day, err := s.history.AddToMeal(r.Context(), r.PathValue("id"), r.PathValue("entryID"), slot)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, itemResponse{Item: item, Day: day})
}
