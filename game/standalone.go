// game/standalone.go
package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/denred/multi-player-guess-number/models"
	"github.com/denred/multi-player-guess-number/persistence"
)

// The standalone game is the room-less free-for-all exposed over the REST
// surface: one shared secret, no turn order, anyone may guess.

// StartGame (re)starts the standalone game: draws a fresh secret and
// clears history, active players and per-player attempts.
func (e *Engine) StartGame(ctx context.Context) (models.GameState, error) {
	lock := e.rooms.locks.forRoom(globalLock)
	lock.Lock()
	defer lock.Unlock()

	secret := e.drawSecret()

	if err := e.store.Set(ctx, keyGameSecret, strconv.Itoa(secret)); err != nil {
		return models.GameState{}, err
	}
	if err := e.store.Set(ctx, keyGameStatus, string(models.StatusActive)); err != nil {
		return models.GameState{}, err
	}
	if err := e.store.Del(ctx, keyGameHistory, keyActivePlayers); err != nil {
		return models.GameState{}, err
	}
	if err := e.store.DelPattern(ctx, playerAttemptsPattern()); err != nil {
		return models.GameState{}, err
	}

	return models.GameState{
		Status:        models.StatusActive,
		ActivePlayers: []models.Player{},
		TotalGuesses:  0,
	}, nil
}

// GameState returns the standalone game view; before the first start it
// reports StatusInactive.
func (e *Engine) GameState(ctx context.Context) (models.GameState, error) {
	statusRaw, err := e.store.Get(ctx, keyGameStatus)
	if errors.Is(err, persistence.ErrNotFound) {
		return models.GameState{
			Status:        models.StatusInactive,
			ActivePlayers: []models.Player{},
		}, nil
	}
	if err != nil {
		return models.GameState{}, err
	}

	activeIDs, err := e.store.SMembers(ctx, keyActivePlayers)
	if err != nil {
		return models.GameState{}, err
	}
	resolved, err := e.rooms.ResolvePlayers(ctx, activeIDs)
	if err != nil {
		return models.GameState{}, err
	}

	totalGuesses, err := e.store.LLen(ctx, keyGameHistory)
	if err != nil {
		return models.GameState{}, err
	}

	return models.GameState{
		Status:        models.GameStatus(statusRaw),
		ActivePlayers: resolved,
		TotalGuesses:  totalGuesses,
	}, nil
}

// Guess scores one guess against the standalone game.
func (e *Engine) Guess(ctx context.Context, playerID string, guess int) (models.GuessResponse, error) {
	if guess < e.min || guess > e.max {
		return models.GuessResponse{}, &ValidationError{
			Reason: fmt.Sprintf("guess must be between %d and %d", e.min, e.max),
		}
	}

	lock := e.rooms.locks.forRoom(globalLock)
	lock.Lock()
	defer lock.Unlock()

	statusRaw, err := e.store.Get(ctx, keyGameStatus)
	if errors.Is(err, persistence.ErrNotFound) {
		return models.GuessResponse{}, ErrNotStarted
	}
	if err != nil {
		return models.GuessResponse{}, err
	}
	switch models.GameStatus(statusRaw) {
	case models.StatusFinished:
		return models.GuessResponse{}, ErrAlreadyFinished
	case models.StatusInactive:
		return models.GuessResponse{}, ErrNotStarted
	}

	secretRaw, err := e.store.Get(ctx, keyGameSecret)
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

	if err := e.store.SAdd(ctx, keyActivePlayers, playerID); err != nil {
		return models.GuessResponse{}, err
	}
	if err := e.store.LPush(ctx, playerAttemptsKey(playerID), strconv.Itoa(guess)); err != nil {
		return models.GuessResponse{}, err
	}

	result := e.evaluate(guess, secret)
	if err := e.appendHistory(ctx, keyGameHistory, playerID, guess, result); err != nil {
		return models.GuessResponse{}, err
	}

	if result != models.ResultCorrect {
		return models.GuessResponse{Result: result}, nil
	}

	if err := e.store.Set(ctx, keyGameStatus, string(models.StatusFinished)); err != nil {
		return models.GuessResponse{}, err
	}
	if err := e.store.Del(ctx, keyActivePlayers); err != nil {
		return models.GuessResponse{}, err
	}
	if err := e.store.DelPattern(ctx, playerAttemptsPattern()); err != nil {
		return models.GuessResponse{}, err
	}

	totalAttempts, err := e.store.LLen(ctx, keyGameHistory)
	if err != nil {
		return models.GuessResponse{}, err
	}
	return models.GuessResponse{
		Result:        models.ResultCorrect,
		Winner:        playerID,
		TotalAttempts: totalAttempts,
	}, nil
}

// History returns every guess of the standalone game, newest first.
func (e *Engine) History(ctx context.Context) ([]models.PlayerGuess, error) {
	raw, err := e.store.LRange(ctx, keyGameHistory, 0, -1)
	if err != nil {
		return nil, err
	}

	history := make([]models.PlayerGuess, 0, len(raw))
	for _, item := range raw {
		var entry models.PlayerGuess
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			continue
		}
		history = append(history, entry)
	}
	return history, nil
}

// AddActivePlayer registers a player with the standalone game and returns
// the updated roster.
func (e *Engine) AddActivePlayer(ctx context.Context, playerID string) ([]string, error) {
	if err := e.store.SAdd(ctx, keyActivePlayers, playerID); err != nil {
		return nil, err
	}
	return e.store.SMembers(ctx, keyActivePlayers)
}

// RemoveActivePlayer drops a player from the standalone game roster.
func (e *Engine) RemoveActivePlayer(ctx context.Context, playerID string) ([]string, error) {
	if err := e.store.SRem(ctx, keyActivePlayers, playerID); err != nil {
		return nil, err
	}
	return e.store.SMembers(ctx, keyActivePlayers)
}

// ActivePlayers lists the ids registered with the standalone game.
func (e *Engine) ActivePlayers(ctx context.Context) ([]string, error) {
	return e.store.SMembers(ctx, keyActivePlayers)
}
