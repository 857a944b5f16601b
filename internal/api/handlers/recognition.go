package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"

	"jamesfarrell.me/audd-recognizer/internal/storage/models"
)

type RecognitionStore interface {
	Create(ctx context.Context, req *models.RecognitionRequest) (string, error)
	Get(ctx context.Context, id string) (*models.Recognition, error)
	List(ctx context.Context) ([]models.Recognition, error)
}

type RecognitionHandler struct {
	repo RecognitionStore
}

func NewRecognitionHandler(repo RecognitionStore) *RecognitionHandler {
	return &RecognitionHandler{repo: repo}
}

func (h *RecognitionHandler) AddRecognition(w http.ResponseWriter, r *http.Request) {
	var req models.RecognitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if !validVideoURL(req.URL) {
		http.Error(w, "url must be an absolute http(s) URL", http.StatusBadRequest)
		return
	}

	id, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		slog.Error("Error inserting recognition", "error", err.Error())
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	slog.Info("Queued recognition", "id", id, "url", req.URL)
	writeJSON(w, http.StatusAccepted, map[string]string{"id": id})
}

func (h *RecognitionHandler) GetRecognition(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	rec, err := h.repo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Recognition not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func (h *RecognitionHandler) ListRecognitions(w http.ResponseWriter, r *http.Request) {
	recs, err := h.repo.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, recs)
}

func validVideoURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
