package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"chartscraper/internal/domain"
	"chartscraper/internal/scrape"
)

func (s *Server) handleTrackScrape(w http.ResponseWriter, r *http.Request) {
	var req domain.TrackScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	trackID, err := scrape.ParseTrackID(req.Track)
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	task := scrape.Task{Kind: scrape.TaskTrack, TrackID: trackID, Force: req.Force}
	s.scraper.Submit(task)
	s.respondWithJSON(w, http.StatusAccepted, map[string]string{
		"message": "track accepted for scraping",
		"key":     task.Key(),
	})
}

func (s *Server) handleRangeScrape(w http.ResponseWriter, r *http.Request) {
	var req domain.RangeScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	start, err := time.Parse(domain.SnapshotDateFormat, req.Start)
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "start must be YYYY-MM-DD")
		return
	}
	end, err := time.Parse(domain.SnapshotDateFormat, req.End)
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "end must be YYYY-MM-DD")
		return
	}
	if end.Before(start) {
		s.respondWithError(w, http.StatusBadRequest, "end precedes start")
		return
	}

	task := scrape.Task{Kind: scrape.TaskRange, Start: start, End: end, Force: req.Force}
	s.scraper.Submit(task)
	s.respondWithJSON(w, http.StatusAccepted, map[string]string{
		"message": "date range accepted for scraping",
		"key":     task.Key(),
	})
}

func (s *Server) handleCountryScrape(w http.ResponseWriter, r *http.Request) {
	var req domain.CountryScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	country, err := scrape.ParseCountryCode(req.Country)
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	mode := domain.ViewMode(req.Mode)
	if mode == "" {
		mode = domain.ViewDaily
	}
	if mode != domain.ViewDaily && mode != domain.ViewWeekly {
		s.respondWithError(w, http.StatusBadRequest, "mode must be daily or weekly")
		return
	}

	task := scrape.Task{Kind: scrape.TaskCountry, Country: country, Mode: mode, Force: req.Force}
	s.scraper.Submit(task)
	s.respondWithJSON(w, http.StatusAccepted, map[string]string{
		"message": "country chart accepted for scraping",
		"key":     task.Key(),
	})
}

func (s *Server) handleStatusRequest(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		s.respondWithError(w, http.StatusBadRequest, "key query parameter is required")
		return
	}

	status, err := s.pgStore.GetJobStatus(r.Context(), key)
	if err != nil {
		if err.Error() == "not_found" {
			s.respondWithError(w, http.StatusNotFound, "job status not found")
			return
		}
		s.logger.Error("failed to get job status", zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "Could not retrieve status")
		return
	}

	s.respondWithJSON(w, http.StatusOK, status)
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	healthStatus := make(map[string]string)

	if err := s.pgStore.Ping(ctx); err != nil {
		healthStatus["postgres"] = "unhealthy"
		s.logger.Error("health check failed for postgres", zap.Error(err))
	} else {
		healthStatus["postgres"] = "healthy"
	}

	if err := s.redisStore.Ping(ctx); err != nil {
		healthStatus["redis"] = "unhealthy"
		s.logger.Error("health check failed for redis", zap.Error(err))
	} else {
		healthStatus["redis"] = "healthy"
	}

	isHealthy := healthStatus["postgres"] == "healthy" && healthStatus["redis"] == "healthy"
	if !isHealthy {
		s.respondWithJSON(w, http.StatusServiceUnavailable, healthStatus)
		return
	}

	s.respondWithJSON(w, http.StatusOK, healthStatus)
}

// --- Helper Functions ---

func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, map[string]string{"error": message})
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
