package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotifetch/internal/services"
	"github.com/desertthunder/spotifetch/internal/shared"
)

type errorResponse struct {
	Error          string `json:"error"`
	Kind           string `json:"kind,omitempty"`
	UpstreamStatus int    `json:"upstream_status,omitempty"`
}

// PlaylistHandler serves complete playlists as JSON.
type PlaylistHandler struct {
	fetcher services.PlaylistFetcher
	logger  *log.Logger
}

// NewPlaylistHandler creates a handler backed by fetcher.
func NewPlaylistHandler(fetcher services.PlaylistFetcher, logger *log.Logger) *PlaylistHandler {
	return &PlaylistHandler{fetcher: fetcher, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *PlaylistHandler) Routes() []string {
	return []string{"GET /users/{userID}/playlists/{playlistID}"}
}

func (h *PlaylistHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, playlistID := r.PathValue("userID"), r.PathValue("playlistID")
	if userID == "" || playlistID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "user ID and playlist ID are required"})
		return
	}

	playlist, err := h.fetcher.GetPlaylist(r.Context(), userID, playlistID)
	if err != nil {
		status, body := errorStatus(err)
		h.logger.Warn("playlist fetch failed", "user", userID, "playlist", playlistID, "status", status, "error", err)
		writeJSON(w, status, body)
		return
	}

	writeJSON(w, http.StatusOK, playlist)
}

// HealthHandler reports liveness.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// errorStatus maps a fetch error to a response status and body.
//
// Authentication failures are checked first because an [*services.AuthError] may carry the
// token endpoint's [*services.StatusError].
func errorStatus(err error) (int, errorResponse) {
	body := errorResponse{Error: err.Error()}

	if errors.Is(err, shared.ErrAuthFailed) {
		body.Kind = "auth"
		return http.StatusBadGateway, body
	}

	if errors.Is(err, shared.ErrMissingArgument) || errors.Is(err, shared.ErrInvalidArgument) {
		return http.StatusBadRequest, body
	}

	if se, ok := services.AsStatusError(err); ok {
		body.Kind = se.Kind.String()
		body.UpstreamStatus = se.StatusCode
		switch {
		case se.RateLimited():
			return http.StatusTooManyRequests, body
		case se.StatusCode == http.StatusNotFound:
			return http.StatusNotFound, body
		default:
			return http.StatusBadGateway, body
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, body
	}
	return http.StatusInternalServerError, body
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, fmt.Sprintf(`{"error":%q}`, err.Error()), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(data, '\n'))
}
