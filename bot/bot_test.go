// bot/bot_test.go
package bot

import (
	"context"
	"testing"
	"time"

	"github.com/denred/multi-player-guess-number/config"
	"github.com/denred/multi-player-guess-number/game"
	"github.com/denred/multi-player-guess-number/logger"
	"github.com/denred/multi-player-guess-number/models"
	"github.com/denred/multi-player-guess-number/persistence"
	"github.com/denred/multi-player-guess-number/players"
)

func init() {
	logger.Init()
}

func newTestController(t *testing.T, gameCfg config.GameConfig) (*Controller, *game.Engine, *game.RoomStore, *players.Directory) {
	t.Helper()
	mem := persistence.NewMemory()
	directory := players.NewDirectory(mem)
	rooms := game.NewRoomStore(mem, directory)
	engine := game.NewEngine(mem, rooms, gameCfg)
	controller := NewController(directory, rooms, engine, config.BotConfig{
		MinThinkDelay: time.Millisecond,
		MaxThinkDelay: 2 * time.Millisecond,
	})
	return controller, engine, rooms, directory
}

func TestIsBot(t *testing.T) {
	if !IsBot("BOT_1234") {
		t.Error("expected BOT_1234 to be a bot")
	}
	if IsBot("alice") {
		t.Error("expected alice not to be a bot")
	}
	if IsBot("robot") {
		t.Error("the prefix must match exactly")
	}
}

func TestGenerateName(t *testing.T) {
	name := generateName()
	if !IsBot(name) {
		t.Errorf("generated name %q must carry the bot prefix", name)
	}
	if len(name) != len(NamePrefix)+4 {
		t.Errorf("expected a 4-digit suffix, got %q", name)
	}
}

func TestSpawn(t *testing.T) {
	ctx := context.Background()
	controller, _, rooms, directory := newTestController(t, config.GameConfig{MinNumber: 1, MaxNumber: 100})

	alice, _ := directory.Create(ctx, "alice")
	room, _ := rooms.CreateRoom(ctx, alice.ID)

	botPlayer, err := controller.Spawn(ctx, room.ID)
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}
	if !IsBot(botPlayer.Name) {
		t.Errorf("expected a bot name, got %q", botPlayer.Name)
	}

	state, _ := rooms.RoomState(ctx, room.ID)
	if len(state.Players) != 2 {
		t.Fatalf("expected 2 members after spawn, got %d", len(state.Players))
	}
	found := false
	for _, id := range state.ReadyPlayers {
		if id == botPlayer.ID {
			found = true
		}
	}
	if !found {
		t.Error("expected the bot to arrive ready")
	}
}

func TestSpawnIntoMissingRoom(t *testing.T) {
	ctx := context.Background()
	controller, _, _, directory := newTestController(t, config.GameConfig{MinNumber: 1, MaxNumber: 100})

	if _, err := controller.Spawn(ctx, "nosuch"); err == nil {
		t.Fatal("expected spawn into a missing room to fail")
	}

	// The half-created bot identity must not leak.
	all, _ := directory.GetAll(ctx)
	if len(all) != 0 {
		t.Errorf("expected no players after failed spawn, got %d", len(all))
	}
}

// TestBotTakesItsTurn pins the guess range to a single value so the bot's
// first guess is guaranteed to win.
func TestBotTakesItsTurn(t *testing.T) {
	ctx := context.Background()
	controller, engine, rooms, directory := newTestController(t, config.GameConfig{MinNumber: 1, MaxNumber: 1})

	botPlayer, _ := directory.Create(ctx, NamePrefix+"0001")
	human, _ := directory.Create(ctx, "alice")

	room, _ := rooms.CreateRoom(ctx, botPlayer.ID)
	rooms.JoinRoom(ctx, room.ID, human.ID)
	rooms.SetReady(ctx, room.ID, botPlayer.ID, true)
	rooms.SetReady(ctx, room.ID, human.ID, true)

	if _, err := engine.StartRoomGame(ctx, room.ID); err != nil {
		t.Fatalf("StartRoomGame failed: %v", err)
	}

	results := make(chan models.GuessResponse, 1)
	controller.OnResult(func(roomID, playerID string, guess int, resp models.GuessResponse) {
		if playerID == botPlayer.ID {
			results <- resp
		}
	})

	controller.TakeTurnIfBot(room.ID, botPlayer.ID)

	select {
	case resp := <-results:
		if resp.Winner != botPlayer.ID {
			t.Errorf("expected the bot to win, got winner %q", resp.Winner)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("bot never took its turn")
	}

	state, _ := engine.RoomGameState(ctx, room.ID)
	if state.Status != models.StatusFinished {
		t.Errorf("expected finished game, got %s", state.Status)
	}
}

func TestTakeTurnIgnoresHumansAndOffTurnBots(t *testing.T) {
	ctx := context.Background()
	controller, engine, rooms, directory := newTestController(t, config.GameConfig{MinNumber: 1, MaxNumber: 100})

	human, _ := directory.Create(ctx, "alice")
	room, _ := rooms.CreateRoom(ctx, human.ID)
	botPlayer, _ := controller.Spawn(ctx, room.ID)
	rooms.SetReady(ctx, room.ID, human.ID, true)

	if _, err := engine.StartRoomGame(ctx, room.ID); err != nil {
		t.Fatalf("StartRoomGame failed: %v", err)
	}

	// The human owns the first turn: neither call may produce a guess.
	controller.TakeTurnIfBot(room.ID, human.ID)
	controller.TakeTurnIfBot(room.ID, botPlayer.ID)

	time.Sleep(50 * time.Millisecond)

	state, _ := engine.RoomGameState(ctx, room.ID)
	if state.TotalGuesses != 0 {
		t.Errorf("expected no guesses, got %d", state.TotalGuesses)
	}
	if state.CurrentTurnPlayerID != human.ID {
		t.Errorf("expected turn to stay with the human, got %s", state.CurrentTurnPlayerID)
	}
}
