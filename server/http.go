// server/http.go
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/denred/multi-player-guess-number/game"
	"github.com/denred/multi-player-guess-number/logger"
	"github.com/denred/multi-player-guess-number/network"
	"github.com/denred/multi-player-guess-number/persistence"
)

// setupRoutes mounts the REST surface next to the websocket endpoint. The
// REST side covers the standalone game and player administration; rooms
// are driven exclusively over the socket.
func (s *GameServer) setupRoutes(router chi.Router) {
	router.Use(middleware.Recoverer)

	router.Get("/ws", s.handleWebSocket)
	router.Get("/healthz", s.handleHealth)

	router.Route("/game", func(r chi.Router) {
		r.Post("/start", s.handleGameStart)
		r.Get("/state", s.handleGameState)
		r.Get("/history", s.handleGameHistory)
		r.Get("/players", s.handleGamePlayers)
	})

	router.Route("/players", func(r chi.Router) {
		r.Post("/", s.handlePlayerCreate)
		r.Get("/", s.handlePlayerList)
		r.Get("/{id}", s.handlePlayerGet)
		r.Delete("/{id}", s.handlePlayerDelete)
	})
}

func (s *GameServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *GameServer) handleGameStart(w http.ResponseWriter, r *http.Request) {
	state, err := s.engine.StartGame(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	logger.Log.Info("Standalone game started")
	s.broadcaster.ToAll(network.EventGameStateUpdate, state)
	writeJSON(w, http.StatusOK, state)
}

func (s *GameServer) handleGameState(w http.ResponseWriter, r *http.Request) {
	state, err := s.engine.GameState(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *GameServer) handleGameHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.engine.History(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *GameServer) handleGamePlayers(w http.ResponseWriter, r *http.Request) {
	ids, err := s.engine.ActivePlayers(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resolved, err := s.rooms.ResolvePlayers(r.Context(), ids)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resolved)
}

type createPlayerRequest struct {
	Name string `json:"name"`
}

func (s *GameServer) handlePlayerCreate(w http.ResponseWriter, r *http.Request) {
	var req createPlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	player, err := s.directory.Create(r.Context(), req.Name)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	logger.Log.Infof("Player %s (%s) registered", player.Name, player.ID)
	writeJSON(w, http.StatusCreated, player)
}

func (s *GameServer) handlePlayerList(w http.ResponseWriter, r *http.Request) {
	players, err := s.directory.GetAll(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, players)
}

func (s *GameServer) handlePlayerGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	player, err := s.directory.Get(r.Context(), id)
	if errors.Is(err, persistence.ErrNotFound) {
		writeError(w, http.StatusNotFound, "player not found")
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, player)
}

func (s *GameServer) handlePlayerDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	removed, err := s.directory.Delete(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "player not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeDomainError maps engine/store errors onto HTTP statuses. Unknown
// errors are logged and masked as 500s.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrRoomNotFound), errors.Is(err, game.ErrPlayerNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case game.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case game.IsInvalidState(err):
		writeError(w, http.StatusConflict, err.Error())
	default:
		logger.Log.Errorf("Request failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Errorf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
