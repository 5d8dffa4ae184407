// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package api

import (
	"errors"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/pdiddy/neighborfit/internal/cache"
	"github.com/pdiddy/neighborfit/internal/logging"
	"github.com/pdiddy/neighborfit/internal/match"
	"github.com/pdiddy/neighborfit/pkg/types"
)

const maxBodyBytes = 1 << 20

var endpoints = map[string]string{
	"/":                          "GET - API information",
	"/match":                     "POST - Find neighborhood matches based on your preferences",
	"/neighborhoods":             "GET - List catalog neighborhoods (?city=, ?source=live)",
	"/api/status":                "GET - Cache, catalog and upstream breaker status",
	"/api/refresh-neighborhoods": "POST - Rediscover neighborhoods from OpenStreetMap",
	"/metrics":                   "GET - Prometheus metrics",
}

type errorResponse struct {
	Error         string   `json:"error"`
	Message       string   `json:"message,omitempty"`
	MissingFields []string `json:"missingFields,omitempty"`
	InvalidFields []string `json:"invalidFields,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Debug().Err(err).Msg("failed to write JSON response")
	}
}

func respondError(w http.ResponseWriter, status int, msg, detail string) {
	respondJSON(w, status, errorResponse{Error: msg, Message: detail})
}

func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"message":     "Welcome to NeighborFit API",
		"version":     Version,
		"description": "Find your best-fit neighborhood from live location, amenity, weather and demographic data",
		"algorithm":   types.Algorithm,
		"endpoints":   endpoints,
	})
}

type matchResponse struct {
	Success         bool              `json:"success"`
	UserPreferences types.Preferences `json:"userPreferences"`
	types.MatchOutput
	LastUpdated time.Time `json:"lastUpdated"`
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	if s.deps.Matcher == nil {
		respondError(w, http.StatusServiceUnavailable, "Matching is not configured", "")
		return
	}

	var req matchRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Could not read request body", err.Error())
		return
	}
	if err := json.Unmarshal(body, &req); err != nil {
		resp := errorResponse{Error: "Invalid request body", Message: err.Error()}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			field := typeErr.Field[strings.LastIndex(typeErr.Field, ".")+1:]
			resp.Error = "Invalid preference values. All values must be numbers between 1 and 5."
			resp.InvalidFields = []string{field}
		}
		respondJSON(w, http.StatusBadRequest, resp)
		return
	}

	probs, err := validateMatchRequest(&req)
	switch {
	case err != nil:
		respondError(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	case len(probs.Missing) > 0:
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing required preferences", MissingFields: probs.Missing})
		return
	case !probs.empty():
		respondJSON(w, http.StatusBadRequest, errorResponse{
			Error:         "Invalid preference values. All values must be numbers between 1 and 5.",
			InvalidFields: probs.Invalid,
		})
		return
	}

	pool := s.deps.Static.ByCity(req.City)
	if req.UseRealTimeData && s.deps.Live.Len() > 0 {
		pool = s.deps.Live.ByCity(req.City)
	}

	prefs := req.UserPrefs.preferences()
	out, err := s.deps.Matcher.Match(r.Context(), match.Request{
		Prefs:       prefs,
		Pool:        pool,
		ResultCount: req.Limit,
		Enrich:      req.UseRealTimeData,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("match failed")
		respondError(w, http.StatusInternalServerError, "Something went wrong on the server", err.Error())
		return
	}

	respondJSON(w, http.StatusOK, matchResponse{
		Success:         true,
		UserPreferences: prefs,
		MatchOutput:     out,
		LastUpdated:     s.now().UTC(),
	})
}

func (s *Server) handleNeighborhoods(w http.ResponseWriter, r *http.Request) {
	city := r.URL.Query().Get("city")
	source := types.DataSourceStatic
	list := s.deps.Static.ByCity(city)
	if strings.EqualFold(r.URL.Query().Get("source"), "live") {
		source = "live"
		list = s.deps.Live.ByCity(city)
	}
	if list == nil {
		list = []types.Candidate{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"neighborhoods": list,
		"totalCount":    len(list),
		"dataSource":    source,
		"lastUpdated":   s.now().UTC(),
	})
}

type statusResponse struct {
	Status        string            `json:"status"`
	Timestamp     time.Time         `json:"timestamp"`
	Cache         *cache.Status     `json:"cache,omitempty"`
	Neighborhoods map[string]int    `json:"neighborhoods"`
	Breakers      map[string]string `json:"breakers,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := statusResponse{
		Status:    "operational",
		Timestamp: s.now().UTC(),
		Neighborhoods: map[string]int{
			"static": s.deps.Static.Len(),
			"live":   s.deps.Live.Len(),
		},
	}
	if s.deps.Store != nil {
		st := s.deps.Store.Status()
		resp.Cache = &st
	}
	if s.deps.Breakers != nil {
		resp.Breakers = s.deps.Breakers()
		for _, state := range resp.Breakers {
			if state != "closed" {
				resp.Status = "degraded"
			}
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRefreshNeighborhoods(w http.ResponseWriter, r *http.Request) {
	if s.deps.Discoverer == nil {
		respondError(w, http.StatusServiceUnavailable, "Neighborhood discovery is not configured", "")
		return
	}
	found, err := s.deps.Discoverer.Discover(r.Context(), s.deps.Cities)
	if err != nil {
		respondError(w, http.StatusBadGateway, "Failed to refresh neighborhoods", err.Error())
		return
	}
	s.deps.Live.Replace(found)
	respondJSON(w, http.StatusOK, map[string]any{
		"message": "Neighborhoods refreshed",
		"count":   s.deps.Live.Len(),
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	paths := make([]string, 0, len(endpoints))
	for p := range endpoints {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	respondJSON(w, http.StatusNotFound, map[string]any{
		"error":              "Endpoint not found",
		"availableEndpoints": paths,
	})
}
