// server/commands.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/denred/multi-player-guess-number/bot"
	"github.com/denred/multi-player-guess-number/game"
	"github.com/denred/multi-player-guess-number/logger"
	"github.com/denred/multi-player-guess-number/models"
	"github.com/denred/multi-player-guess-number/network"
	"github.com/denred/multi-player-guess-number/persistence"
	"github.com/denred/multi-player-guess-number/session"
)

// handleConnect runs once per new connection: reclaim abandoned rooms,
// then push the lobby and standalone-game snapshots to the newcomer.
func (s *GameServer) handleConnect(sess *session.Session) {
	ctx := context.Background()

	if swept := s.sweepStaleRooms(ctx); swept > 0 {
		s.broadcastLobby(ctx)
	}

	rooms, err := s.rooms.ListRooms(ctx)
	if err != nil {
		logger.Log.Errorf("Failed to list rooms for session %s: %v", sess.GetID(), err)
		return
	}
	sess.Send(network.EventAvailableRooms, models.AvailableRoomsPayload{Rooms: rooms})

	state, err := s.engine.GameState(ctx)
	if err != nil {
		logger.Log.Errorf("Failed to load game state for session %s: %v", sess.GetID(), err)
		return
	}
	sess.Send(network.EventGameStateUpdate, state)
}

// handleDisconnect tears down everything tied to the connection: room
// membership, the room itself if no humans remain, and the player's
// identity.
func (s *GameServer) handleDisconnect(sess *session.Session) {
	ctx := context.Background()

	playerID, roomID := sess.Binding()
	s.sessions.Remove(sess.GetID())
	s.monitor.DecOnlinePlayers()

	if playerID == "" {
		return
	}

	if roomID != "" {
		if err := s.rooms.RemoveMember(ctx, roomID, playerID); err != nil {
			logger.Log.Errorf("Failed to remove player %s from room %s: %v", playerID, roomID, err)
		}
		s.afterLeave(ctx, roomID)
	}

	if _, err := s.engine.RemoveActivePlayer(ctx, playerID); err != nil {
		logger.Log.Errorf("Failed to remove active player %s: %v", playerID, err)
	}

	if _, err := s.directory.Delete(ctx, playerID); err != nil {
		logger.Log.Errorf("Failed to delete player %s: %v", playerID, err)
	}

	s.broadcaster.ToAll(network.EventPlayerLeft, map[string]interface{}{
		"playerId":     playerID,
		"totalPlayers": s.sessions.Count(),
	})
	s.broadcastLobby(ctx)
}

func (s *GameServer) handleCreateRoom(sess *session.Session, data json.RawMessage) error {
	var p models.CreateRoomPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return &game.ValidationError{Reason: "malformed create_room payload"}
	}
	ctx := context.Background()

	if _, err := s.directory.Get(ctx, p.PlayerID); errors.Is(err, persistence.ErrNotFound) {
		return game.ErrPlayerNotFound
	} else if err != nil {
		return err
	}

	room, err := s.rooms.CreateRoom(ctx, p.PlayerID)
	if err != nil {
		return err
	}
	sess.Bind(p.PlayerID, room.ID)

	state, err := s.rooms.RoomState(ctx, room.ID)
	if err != nil {
		return err
	}
	if err := sess.Send(network.EventRoomCreated, state); err != nil {
		return err
	}

	logger.Log.Infof("Player %s created room %s", p.PlayerID, room.ID)
	s.broadcastLobby(ctx)
	return nil
}

func (s *GameServer) handleJoinRoom(sess *session.Session, data json.RawMessage) error {
	var p models.JoinRoomPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return &game.ValidationError{Reason: "malformed join_room payload"}
	}
	ctx := context.Background()

	if err := s.rooms.JoinRoom(ctx, p.RoomID, p.PlayerID); err != nil {
		return err
	}
	sess.Bind(p.PlayerID, p.RoomID)

	state, err := s.rooms.RoomState(ctx, p.RoomID)
	if err != nil {
		return err
	}
	if err := sess.Send(network.EventRoomJoined, state); err != nil {
		return err
	}
	s.broadcaster.ToRoom(p.RoomID, network.EventRoomStateUpdate, state)

	logger.Log.Infof("Player %s joined room %s", p.PlayerID, p.RoomID)
	s.broadcastLobby(ctx)
	return nil
}

func (s *GameServer) handleSetReady(sess *session.Session, data json.RawMessage) error {
	var p models.SetReadyPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return &game.ValidationError{Reason: "malformed set_ready payload"}
	}
	ctx := context.Background()

	if err := s.rooms.SetReady(ctx, p.RoomID, p.PlayerID, p.IsReady); err != nil {
		return err
	}

	state, err := s.rooms.RoomState(ctx, p.RoomID)
	if err != nil {
		return err
	}
	s.broadcaster.ToRoom(p.RoomID, network.EventRoomStateUpdate, state)

	if !p.IsReady {
		return nil
	}
	return s.maybeStartGame(ctx, p.RoomID)
}

// maybeStartGame starts the room's game when every member is ready. Two
// racing ready commands can both observe the ready set complete; the
// engine accepts one start and the loser's ErrAlreadyStarted is benign.
func (s *GameServer) maybeStartGame(ctx context.Context, roomID string) error {
	ready, err := s.rooms.AllReady(ctx, roomID)
	if err != nil {
		return err
	}
	if !ready {
		return nil
	}

	state, err := s.engine.StartRoomGame(ctx, roomID)
	if errors.Is(err, game.ErrAlreadyStarted) {
		return nil
	}
	if err != nil {
		return err
	}

	logger.Log.Infof("Game started in room %s, first turn: %s", roomID, state.CurrentTurnPlayerID)
	s.broadcaster.ToRoom(roomID, network.EventGameStarted, state)
	s.broadcastLobby(ctx)

	s.bots.TakeTurnIfBot(roomID, state.CurrentTurnPlayerID)
	return nil
}

func (s *GameServer) handleGuessSubmit(sess *session.Session, data json.RawMessage) error {
	var p models.GuessSubmitPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return &game.ValidationError{Reason: "malformed guess_submit payload"}
	}
	ctx := context.Background()

	resp, err := s.engine.GuessInRoom(ctx, p.RoomID, p.PlayerID, p.Guess)
	if err != nil {
		return err
	}

	s.monitor.IncGuesses()
	s.fanOutGuess(ctx, p.RoomID, p.PlayerID, p.Guess, resp)
	return nil
}

// handleBotResult is the bot controller's callback; accepted bot guesses
// fan out exactly like human ones.
func (s *GameServer) handleBotResult(roomID, playerID string, guess int, resp models.GuessResponse) {
	s.monitor.IncGuesses()
	s.fanOutGuess(context.Background(), roomID, playerID, guess, resp)
}

// fanOutGuess publishes an accepted guess: the guess itself, the updated
// room and game snapshots, and on a win the finish event plus archive
// hand-off. On a non-final guess it also pokes the bot controller in case
// the next turn belongs to a bot.
func (s *GameServer) fanOutGuess(ctx context.Context, roomID, playerID string, guess int, resp models.GuessResponse) {
	name := s.playerName(ctx, playerID)

	s.broadcaster.ToRoom(roomID, network.EventGuessBroadcast, models.GuessBroadcastPayload{
		PlayerID:   playerID,
		PlayerName: name,
		Guess:      guess,
		Result:     resp.Result,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})

	roomState, err := s.rooms.RoomState(ctx, roomID)
	if err != nil {
		logger.Log.Errorf("Failed to load room state for %s: %v", roomID, err)
		return
	}
	s.broadcaster.ToRoom(roomID, network.EventRoomStateUpdate, roomState)

	gameState, err := s.engine.RoomGameState(ctx, roomID)
	if err != nil {
		logger.Log.Errorf("Failed to load game state for room %s: %v", roomID, err)
		return
	}
	s.broadcaster.ToRoom(roomID, network.EventGameStateUpdate, gameState)

	if resp.Winner != "" {
		logger.Log.Infof("Room %s finished: winner %s after %d guesses", roomID, resp.Winner, resp.TotalAttempts)
		s.broadcaster.ToRoom(roomID, network.EventGameFinished, models.GameFinishedPayload{
			Winner:        resp.Winner,
			WinnerName:    name,
			TotalAttempts: resp.TotalAttempts,
		})
		go s.archiveGame(roomID, resp, name, len(roomState.Players))
		s.broadcastLobby(ctx)
		return
	}

	s.bots.TakeTurnIfBot(roomID, gameState.CurrentTurnPlayerID)
}

func (s *GameServer) handleGetRooms(sess *session.Session) error {
	rooms, err := s.rooms.ListRooms(context.Background())
	if err != nil {
		return err
	}
	return sess.Send(network.EventAvailableRooms, models.AvailableRoomsPayload{Rooms: rooms})
}

func (s *GameServer) handleAddBot(sess *session.Session, data json.RawMessage) error {
	var p models.AddBotPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return &game.ValidationError{Reason: "malformed add_bot payload"}
	}
	ctx := context.Background()

	player, err := s.bots.Spawn(ctx, p.RoomID)
	if err != nil {
		return err
	}
	logger.Log.Infof("Bot %s (%s) added to room %s", player.Name, player.ID, p.RoomID)

	state, err := s.rooms.RoomState(ctx, p.RoomID)
	if err != nil {
		return err
	}
	s.broadcaster.ToRoom(p.RoomID, network.EventRoomStateUpdate, state)
	s.broadcastLobby(ctx)

	// Bots arrive ready, so a room of ready humans may now be complete.
	return s.maybeStartGame(ctx, p.RoomID)
}

func (s *GameServer) handleRemoveBot(sess *session.Session, data json.RawMessage) error {
	var p models.RemoveBotPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return &game.ValidationError{Reason: "malformed remove_bot payload"}
	}
	ctx := context.Background()

	player, err := s.directory.Get(ctx, p.BotID)
	if errors.Is(err, persistence.ErrNotFound) {
		return game.ErrPlayerNotFound
	}
	if err != nil {
		return err
	}
	if !bot.IsBot(player.Name) {
		return &game.ValidationError{Reason: "player is not a bot"}
	}

	if err := s.rooms.RemoveMember(ctx, p.RoomID, p.BotID); err != nil {
		return err
	}
	if _, err := s.directory.Delete(ctx, p.BotID); err != nil {
		return err
	}

	state, err := s.rooms.RoomState(ctx, p.RoomID)
	if err != nil {
		return err
	}
	s.broadcaster.ToRoom(p.RoomID, network.EventRoomStateUpdate, state)
	s.broadcastLobby(ctx)
	return nil
}

func (s *GameServer) handleLeaveRoom(sess *session.Session, data json.RawMessage) error {
	var p models.LeaveRoomPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return &game.ValidationError{Reason: "malformed leave_room payload"}
	}
	ctx := context.Background()

	if err := s.rooms.RemoveMember(ctx, p.RoomID, p.PlayerID); err != nil {
		return err
	}
	sess.BindRoom("")

	logger.Log.Infof("Player %s left room %s", p.PlayerID, p.RoomID)
	s.afterLeave(ctx, p.RoomID)
	s.broadcastLobby(ctx)
	return nil
}

// afterLeave decides the fate of a room a player just left: rooms with no
// connected human are torn down, bots included; otherwise the remaining
// members get a fresh snapshot.
func (s *GameServer) afterLeave(ctx context.Context, roomID string) {
	hasHuman, err := s.roomHasConnectedHuman(ctx, roomID)
	if err != nil {
		if !errors.Is(err, game.ErrRoomNotFound) {
			logger.Log.Errorf("Failed to inspect room %s: %v", roomID, err)
		}
		return
	}

	if !hasHuman {
		s.teardownRoom(ctx, roomID)
		return
	}

	state, err := s.rooms.RoomState(ctx, roomID)
	if err != nil {
		logger.Log.Errorf("Failed to load room state for %s: %v", roomID, err)
		return
	}
	s.broadcaster.ToRoom(roomID, network.EventRoomStateUpdate, state)
}

func (s *GameServer) roomHasConnectedHuman(ctx context.Context, roomID string) (bool, error) {
	state, err := s.rooms.RoomState(ctx, roomID)
	if err != nil {
		return false, err
	}

	for _, player := range state.Players {
		if bot.IsBot(player.Name) {
			continue
		}
		if _, connected := s.sessions.GetByPlayerID(player.ID); connected {
			return true, nil
		}
	}
	return false, nil
}

// teardownRoom evicts every remaining member (deleting bot identities)
// and drops the room's keys.
func (s *GameServer) teardownRoom(ctx context.Context, roomID string) {
	state, err := s.rooms.RoomState(ctx, roomID)
	if err != nil {
		if !errors.Is(err, game.ErrRoomNotFound) {
			logger.Log.Errorf("Failed to load room %s for teardown: %v", roomID, err)
		}
		return
	}

	for _, player := range state.Players {
		if err := s.rooms.RemoveMember(ctx, roomID, player.ID); err != nil {
			logger.Log.Errorf("Failed to evict player %s from room %s: %v", player.ID, roomID, err)
		}
		if bot.IsBot(player.Name) {
			if _, err := s.directory.Delete(ctx, player.ID); err != nil {
				logger.Log.Errorf("Failed to delete bot %s: %v", player.ID, err)
			}
		}
	}

	deleted, err := s.rooms.DeleteRoomIfEmpty(ctx, roomID)
	if err != nil {
		logger.Log.Errorf("Failed to delete room %s: %v", roomID, err)
		return
	}
	if deleted {
		logger.Log.Infof("Room %s torn down", roomID)
	}
}

// sweepStaleRooms tears down every room with no connected human member
// and returns how many were removed.
func (s *GameServer) sweepStaleRooms(ctx context.Context) int {
	rooms, err := s.rooms.ListRooms(ctx)
	if err != nil {
		logger.Log.Errorf("Failed to list rooms for sweep: %v", err)
		return 0
	}

	swept := 0
	for _, room := range rooms {
		hasHuman, err := s.roomHasConnectedHuman(ctx, room.ID)
		if err != nil || hasHuman {
			continue
		}
		s.teardownRoom(ctx, room.ID)
		swept++
	}

	if swept > 0 {
		logger.Log.Infof("Swept %d stale room(s)", swept)
	}
	return swept
}

// broadcastLobby pushes the room list to every connection and refreshes
// the room gauge.
func (s *GameServer) broadcastLobby(ctx context.Context) {
	rooms, err := s.rooms.ListRooms(ctx)
	if err != nil {
		logger.Log.Errorf("Failed to list rooms for lobby broadcast: %v", err)
		return
	}
	s.monitor.SetActiveRooms(len(rooms))
	s.broadcaster.ToAll(network.EventAvailableRooms, models.AvailableRoomsPayload{Rooms: rooms})
}

func (s *GameServer) playerName(ctx context.Context, playerID string) string {
	player, err := s.directory.Get(ctx, playerID)
	if err != nil {
		return "Unknown"
	}
	return player.Name
}

// archiveGame writes a finished game to the relational archive, when one
// is configured. Archive failures never affect live play.
func (s *GameServer) archiveGame(roomID string, resp models.GuessResponse, winnerName string, playerCount int) {
	if s.recorder == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	secret, err := s.engine.RoomSecret(ctx, roomID)
	if err != nil {
		logger.Log.Warnf("Failed to read secret for archived room %s: %v", roomID, err)
	}

	record := &models.GameRecord{
		RoomID:        roomID,
		WinnerID:      resp.Winner,
		WinnerName:    winnerName,
		Secret:        secret,
		TotalAttempts: resp.TotalAttempts,
		PlayerCount:   playerCount,
		FinishedAt:    time.Now().UTC(),
	}
	if err := s.recorder.SaveGameRecord(ctx, record); err != nil {
		logger.Log.Errorf("Failed to archive game for room %s: %v", roomID, err)
		return
	}
	logger.Log.Infof("Archived game for room %s (winner %s)", roomID, resp.Winner)
}

// reportError maps a handler error to the error event for the offending
// session. Domain errors carry their own message; anything else is
// logged and masked.
func (s *GameServer) reportError(sess *session.Session, err error) {
	message := "internal server error"

	switch {
	case errors.Is(err, game.ErrRoomNotFound),
		errors.Is(err, game.ErrPlayerNotFound),
		game.IsInvalidState(err),
		game.IsValidation(err):
		message = err.Error()
	default:
		logger.Log.Errorf("Command failed for session %s: %v", sess.GetID(), err)
	}

	sess.Send(network.EventError, models.ErrorPayload{Message: message})
}
