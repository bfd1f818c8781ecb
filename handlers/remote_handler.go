package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/kareemschultz/masjidconnect-gy-sub000/internal/dates"
	"github.com/kareemschultz/masjidconnect-gy-sub000/internal/types/syncrow"
	"github.com/kareemschultz/masjidconnect-gy-sub000/middleware"
	"github.com/kareemschultz/masjidconnect-gy-sub000/services"
)

// RemoteHandler is the HTTP surface of the remote record store service
// that tracker daemons sync against.
type RemoteHandler struct {
	remoteService *services.RemoteStoreService
}

func NewRemoteHandler(remoteService *services.RemoteStoreService) *RemoteHandler {
	return &RemoteHandler{
		remoteService: remoteService,
	}
}

func (h *RemoteHandler) GetRecords(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	rows, err := h.remoteService.FetchAll(ctx, clerkID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Unable to fetch records")
		return
	}

	respondWithJSON(w, http.StatusOK, rows)
}

func (h *RemoteHandler) PutRecord(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var row syncrow.Row
	if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// The path is authoritative for the date; the body may omit it.
	row.Date = mux.Vars(r)["date"]
	if !dates.Valid(row.Date) {
		respondWithError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
		return
	}

	if err := h.remoteService.UpsertRow(ctx, clerkID, row); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Unable to upsert record")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Record upserted"})
}
