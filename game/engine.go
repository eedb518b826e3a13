// game/engine.go
package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/denred/multi-player-guess-number/config"
	"github.com/denred/multi-player-guess-number/models"
	"github.com/denred/multi-player-guess-number/persistence"
)

// globalLock serializes the standalone (non-room) game, which shares one
// set of keys across all players.
const globalLock = "__global__"

// Engine is the turn/guess state machine. Room games are serialized by
// the per-room lock shared with RoomStore; every precondition is checked
// before any mutation, so a failed call never changes state.
type Engine struct {
	store persistence.Store
	rooms *RoomStore
	min   int
	max   int
}

func NewEngine(store persistence.Store, rooms *RoomStore, cfg config.GameConfig) *Engine {
	return &Engine{
		store: store,
		rooms: rooms,
		min:   cfg.MinNumber,
		max:   cfg.MaxNumber,
	}
}

// Range returns the inclusive guess range.
func (e *Engine) Range() (min, max int) {
	return e.min, e.max
}

// StartRoomGame transitions a waiting room to active: draws the secret,
// fixes the turn order to the members' join order and hands the first
// turn to the earliest joiner.
func (e *Engine) StartRoomGame(ctx context.Context, roomID string) (models.GameState, error) {
	lock := e.rooms.locks.forRoom(roomID)
	lock.Lock()
	defer lock.Unlock()

	meta, err := e.rooms.readMeta(ctx, roomID)
	if err != nil {
		return models.GameState{}, err
	}

	status, err := e.rooms.roomStatus(ctx, roomID, meta)
	if err != nil {
		return models.GameState{}, err
	}
	switch status {
	case models.StatusActive:
		return models.GameState{}, ErrAlreadyStarted
	case models.StatusFinished:
		return models.GameState{}, ErrAlreadyFinished
	}

	members, err := e.store.SMembers(ctx, roomPlayersKey(roomID))
	if err != nil {
		return models.GameState{}, err
	}
	if len(members) < 2 {
		return models.GameState{}, ErrNotEnoughPlayers
	}

	ready, err := e.store.SMembers(ctx, roomReadyKey(roomID))
	if err != nil {
		return models.GameState{}, err
	}
	if len(ready) != len(members) {
		return models.GameState{}, ErrNotAllReady
	}

	order := orderedMembers(meta.PlayerIDs, members)

	if err := e.store.Del(ctx, roomOrderKey(roomID), roomHistoryKey(roomID)); err != nil {
		return models.GameState{}, err
	}
	if err := e.store.DelPattern(ctx, roomAttemptsPattern(roomID)); err != nil {
		return models.GameState{}, err
	}
	for _, id := range order {
		if err := e.store.RPush(ctx, roomOrderKey(roomID), id); err != nil {
			return models.GameState{}, err
		}
	}

	secret := e.drawSecret()
	if err := e.store.Set(ctx, roomSecretKey(roomID), strconv.Itoa(secret)); err != nil {
		return models.GameState{}, err
	}
	if err := e.store.Set(ctx, roomTurnKey(roomID), order[0]); err != nil {
		return models.GameState{}, err
	}
	if err := e.setRoomStatus(ctx, meta, models.StatusActive); err != nil {
		return models.GameState{}, err
	}

	resolved, err := e.rooms.ResolvePlayers(ctx, order)
	if err != nil {
		return models.GameState{}, err
	}

	return models.GameState{
		Status:              models.StatusActive,
		ActivePlayers:       resolved,
		TotalGuesses:        0,
		CurrentTurnPlayerID: order[0],
		RoomID:              roomID,
	}, nil
}

// GuessInRoom validates and scores a single guess. Exactly one of any set
// of racing guesses for a room is accepted as the turn's guess; the rest
// fail the turn check without mutating anything.
func (e *Engine) GuessInRoom(ctx context.Context, roomID, playerID string, guess int) (models.GuessResponse, error) {
	if guess < e.min || guess > e.max {
		return models.GuessResponse{}, &ValidationError{
			Reason: fmt.Sprintf("guess must be between %d and %d", e.min, e.max),
		}
	}

	lock := e.rooms.locks.forRoom(roomID)
	lock.Lock()
	defer lock.Unlock()

	meta, err := e.rooms.readMeta(ctx, roomID)
	if err != nil {
		return models.GuessResponse{}, err
	}

	status, err := e.rooms.roomStatus(ctx, roomID, meta)
	if err != nil {
		return models.GuessResponse{}, err
	}
	if status == models.StatusFinished {
		return models.GuessResponse{}, ErrAlreadyFinished
	}
	if status != models.StatusActive {
		return models.GuessResponse{}, ErrNotStarted
	}

	secretRaw, err := e.store.Get(ctx, roomSecretKey(roomID))
	if errors.Is(err, persistence.ErrNotFound) {
		return models.GuessResponse{}, ErrNotStarted
	}
	if err != nil {
		return models.GuessResponse{}, err
	}
	secret, err := strconv.Atoi(secretRaw)
	if err != nil {
		return models.GuessResponse{}, err
	}

	turn, err := e.store.Get(ctx, roomTurnKey(roomID))
	if err != nil && !errors.Is(err, persistence.ErrNotFound) {
		return models.GuessResponse{}, err
	}
	if turn != "" && turn != playerID {
		return models.GuessResponse{}, ErrNotYourTurn
	}

	if err := e.store.LPush(ctx, roomAttemptsKey(roomID, playerID), strconv.Itoa(guess)); err != nil {
		return models.GuessResponse{}, err
	}

	result := e.evaluate(guess, secret)
	if err := e.appendHistory(ctx, roomHistoryKey(roomID), playerID, guess, result); err != nil {
		return models.GuessResponse{}, err
	}

	if result == models.ResultCorrect {
		if err := e.store.Del(ctx, roomTurnKey(roomID)); err != nil {
			return models.GuessResponse{}, err
		}
		if err := e.setRoomStatus(ctx, meta, models.StatusFinished); err != nil {
			return models.GuessResponse{}, err
		}

		totalAttempts, err := e.store.LLen(ctx, roomHistoryKey(roomID))
		if err != nil {
			return models.GuessResponse{}, err
		}
		return models.GuessResponse{
			Result:        models.ResultCorrect,
			Winner:        playerID,
			TotalAttempts: totalAttempts,
		}, nil
	}

	if err := e.advanceTurn(ctx, roomID, turn); err != nil {
		return models.GuessResponse{}, err
	}
	return models.GuessResponse{Result: result}, nil
}

// RoomGameState is the public game view for a room. The secret is never
// exposed.
func (e *Engine) RoomGameState(ctx context.Context, roomID string) (models.GameState, error) {
	meta, err := e.rooms.readMeta(ctx, roomID)
	if err != nil {
		return models.GameState{}, err
	}

	status, err := e.rooms.roomStatus(ctx, roomID, meta)
	if err != nil {
		return models.GameState{}, err
	}

	members, err := e.store.SMembers(ctx, roomPlayersKey(roomID))
	if err != nil {
		return models.GameState{}, err
	}
	resolved, err := e.rooms.ResolvePlayers(ctx, orderedMembers(meta.PlayerIDs, members))
	if err != nil {
		return models.GameState{}, err
	}

	turn, err := e.store.Get(ctx, roomTurnKey(roomID))
	if err != nil && !errors.Is(err, persistence.ErrNotFound) {
		return models.GameState{}, err
	}

	totalGuesses, err := e.store.LLen(ctx, roomHistoryKey(roomID))
	if err != nil {
		return models.GameState{}, err
	}

	return models.GameState{
		Status:              status,
		ActivePlayers:       resolved,
		TotalGuesses:        totalGuesses,
		CurrentTurnPlayerID: turn,
		RoomID:              roomID,
	}, nil
}

// CurrentTurn returns the player id owning the room's current turn, or ""
// when no game is running.
func (e *Engine) CurrentTurn(ctx context.Context, roomID string) (string, error) {
	turn, err := e.store.Get(ctx, roomTurnKey(roomID))
	if errors.Is(err, persistence.ErrNotFound) {
		return "", nil
	}
	return turn, err
}

// RoomSecret exposes the room's secret for archiving after a finished
// game. It is never sent to clients.
func (e *Engine) RoomSecret(ctx context.Context, roomID string) (int, error) {
	raw, err := e.store.Get(ctx, roomSecretKey(roomID))
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(raw)
}

// advanceTurn moves the turn pointer to the next id in the fixed order,
// wrapping past the end. A missing current turn resets to the first id.
func (e *Engine) advanceTurn(ctx context.Context, roomID, current string) error {
	order, err := e.store.LRange(ctx, roomOrderKey(roomID), 0, -1)
	if err != nil {
		return err
	}
	if len(order) == 0 {
		return nil
	}

	next := order[0]
	for i, id := range order {
		if id == current {
			next = order[(i+1)%len(order)]
			break
		}
	}
	return e.store.Set(ctx, roomTurnKey(roomID), next)
}

func (e *Engine) setRoomStatus(ctx context.Context, meta models.Room, status models.GameStatus) error {
	if err := e.store.Set(ctx, roomStatusKey(meta.ID), string(status)); err != nil {
		return err
	}
	meta.Status = status
	return e.rooms.writeMeta(ctx, meta)
}

func (e *Engine) appendHistory(ctx context.Context, key, playerID string, guess int, result models.GuessResult) error {
	entry := models.PlayerGuess{
		PlayerID:  playerID,
		Guess:     guess,
		Result:    result,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return e.store.LPush(ctx, key, string(raw))
}

// evaluate names the guidance for the guesser: a guess below the secret
// yields ResultHigher ("go higher"), above yields ResultLower.
func (e *Engine) evaluate(guess, secret int) models.GuessResult {
	if guess == secret {
		return models.ResultCorrect
	}
	if guess < secret {
		return models.ResultHigher
	}
	return models.ResultLower
}

func (e *Engine) drawSecret() int {
	return rand.Intn(e.max-e.min+1) + e.min
}
