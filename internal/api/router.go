package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"jamesfarrell.me/audd-recognizer/internal/api/handlers"
	"jamesfarrell.me/audd-recognizer/internal/api/middleware"
)

func NewRouter(repo handlers.RecognitionStore, apiKey string) http.Handler {
	r := mux.NewRouter()

	// Public routes
	r.HandleFunc("/health", healthCheck).Methods(http.MethodGet)

	// Protected routes
	protected := r.PathPrefix("").Subrouter()
	protected.Use(mux.MiddlewareFunc(middleware.APIKey(apiKey)))

	recognitionHandler := handlers.NewRecognitionHandler(repo)
	recognitions := protected.PathPrefix("/recognitions").Subrouter()
	recognitions.HandleFunc("", recognitionHandler.ListRecognitions).Methods(http.MethodGet)
	recognitions.HandleFunc("", recognitionHandler.AddRecognition).Methods(http.MethodPost)
	recognitions.HandleFunc("/{id}", recognitionHandler.GetRecognition).Methods(http.MethodGet)

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
