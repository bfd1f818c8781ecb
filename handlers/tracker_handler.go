package handlers

import (
	"encoding/json"
	"net/http"
	"slices"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/kareemschultz/masjidconnect-gy-sub000/internal/syncer"
	"github.com/kareemschultz/masjidconnect-gy-sub000/internal/types/record"
	"github.com/kareemschultz/masjidconnect-gy-sub000/middleware"
	"github.com/kareemschultz/masjidconnect-gy-sub000/services"
)

type TrackerHandler struct {
	trackerService *services.TrackerService
	sync           *syncer.Coordinator
}

func NewTrackerHandler(trackerService *services.TrackerService, sync *syncer.Coordinator) *TrackerHandler {
	return &TrackerHandler{
		trackerService: trackerService,
		sync:           sync,
	}
}

func (h *TrackerHandler) GetToday(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetClerkID(r.Context()); !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	respondWithJSON(w, http.StatusOK, h.trackerService.GetToday())
}

func (h *TrackerHandler) GetDay(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetClerkID(r.Context()); !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	date := mux.Vars(r)["date"]
	rec, err := h.trackerService.GetDay(date)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, rec)
}

func (h *TrackerHandler) SetFlag(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetClerkID(r.Context()); !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var body struct {
		Key   string `json:"key"`
		Value bool   `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !slices.Contains(record.ChecklistKeys, body.Key) {
		respondWithError(w, http.StatusBadRequest, "Unknown checklist key: "+body.Key)
		return
	}

	respondWithJSON(w, http.StatusOK, h.trackerService.SetTodayFlag(body.Key, body.Value))
}

func (h *TrackerHandler) MergeDetail(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetClerkID(r.Context()); !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var body struct {
		Category string         `json:"category"`
		Payload  map[string]any `json:"payload"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if body.Category == "" {
		respondWithError(w, http.StatusBadRequest, "Category is required")
		return
	}

	respondWithJSON(w, http.StatusOK, h.trackerService.MergeTodayDetail(body.Category, body.Payload))
}

func (h *TrackerHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetClerkID(r.Context()); !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	respondWithJSON(w, http.StatusOK, h.trackerService.GetTodayProgress())
}

func (h *TrackerHandler) GetStreak(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetClerkID(r.Context()); !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	respondWithJSON(w, http.StatusOK, h.trackerService.GetCurrentStreak())
}

func (h *TrackerHandler) GetTodayPoints(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetClerkID(r.Context()); !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	respondWithJSON(w, http.StatusOK, h.trackerService.GetTodayPoints())
}

func (h *TrackerHandler) GetLifetimePoints(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetClerkID(r.Context()); !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	respondWithJSON(w, http.StatusOK, h.trackerService.GetLifetimePoints())
}

func (h *TrackerHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetClerkID(r.Context()); !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	respondWithJSON(w, http.StatusOK, h.trackerService.GetHistory())
}

func (h *TrackerHandler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetClerkID(r.Context()); !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	// Defaults come from the tracker's civil calendar, not the host
	// clock: around UTC midnight the two can disagree on the month.
	year, month := h.trackerService.CurrentYearMonth()

	if y := r.URL.Query().Get("year"); y != "" {
		parsed, err := strconv.Atoi(y)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid year parameter")
			return
		}
		year = parsed
	}
	if m := r.URL.Query().Get("month"); m != "" {
		parsed, err := strconv.Atoi(m)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid month parameter")
			return
		}
		month = parsed
	}

	cal, err := h.trackerService.GetCalendar(year, month)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, cal)
}

// EndSession drops the sync coordinator's session signal. The next
// verified request re-activates it and triggers a fresh pull/merge.
func (h *TrackerHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetClerkID(r.Context()); !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	if h.sync != nil {
		h.sync.SetAuthenticated(false)
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Session ended"})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
