// bot/bot.go
package bot

import (
	"context"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/denred/multi-player-guess-number/config"
	"github.com/denred/multi-player-guess-number/game"
	"github.com/denred/multi-player-guess-number/logger"
	"github.com/denred/multi-player-guess-number/models"
	"github.com/denred/multi-player-guess-number/players"
)

// NamePrefix marks a directory entry as a bot. Bots have no connection;
// their turns are driven by the Controller.
const NamePrefix = "BOT_"

func IsBot(name string) bool {
	return strings.HasPrefix(name, NamePrefix)
}

// Controller simulates bot turns. A bot turn is a detached background
// task: if the room is deleted or the turn moves on before the think
// delay elapses, the eventual guess fails its state checks and is
// dropped.
type Controller struct {
	directory *players.Directory
	rooms     *game.RoomStore
	engine    *game.Engine
	cfg       config.BotConfig
	onResult  func(roomID, playerID string, guess int, resp models.GuessResponse)
}

func NewController(directory *players.Directory, rooms *game.RoomStore, engine *game.Engine, cfg config.BotConfig) *Controller {
	return &Controller{
		directory: directory,
		rooms:     rooms,
		engine:    engine,
		cfg:       cfg,
	}
}

// OnResult registers the callback invoked after a bot guess is accepted,
// so the coordinator can fan out the outcome.
func (c *Controller) OnResult(fn func(roomID, playerID string, guess int, resp models.GuessResponse)) {
	c.onResult = fn
}

// Spawn creates a bot player, joins it to the room and marks it ready.
func (c *Controller) Spawn(ctx context.Context, roomID string) (models.Player, error) {
	player, err := c.directory.Create(ctx, generateName())
	if err != nil {
		return models.Player{}, err
	}

	if err := c.rooms.JoinRoom(ctx, roomID, player.ID); err != nil {
		if _, delErr := c.directory.Delete(ctx, player.ID); delErr != nil {
			logger.Log.Warnf("Failed to clean up bot %s after join failure: %v", player.ID, delErr)
		}
		return models.Player{}, err
	}
	if err := c.rooms.SetReady(ctx, roomID, player.ID, true); err != nil {
		return models.Player{}, err
	}

	return player, nil
}

// TakeTurnIfBot fires a delayed guess when the given player is a bot that
// owns the room's current turn; otherwise it is a no-op. The task is
// fire-and-forget: staleness is handled by re-validation at submit time,
// not by cancellation.
func (c *Controller) TakeTurnIfBot(roomID, playerID string) {
	ctx := context.Background()

	player, err := c.directory.Get(ctx, playerID)
	if err != nil || !IsBot(player.Name) {
		return
	}

	turn, err := c.engine.CurrentTurn(ctx, roomID)
	if err != nil || turn != playerID {
		return
	}

	go func() {
		time.Sleep(c.thinkDelay())

		min, max := c.engine.Range()
		guess := rand.Intn(max-min+1) + min

		resp, err := c.engine.GuessInRoom(context.Background(), roomID, playerID, guess)
		if err != nil {
			// Stale firing: the room went away or the turn moved on.
			logger.Log.Infof("Bot %s guess in room %s dropped: %v", playerID, roomID, err)
			return
		}

		logger.Log.Infof("Bot %s guessed %d in room %s: %s", playerID, guess, roomID, resp.Result)
		if c.onResult != nil {
			c.onResult(roomID, playerID, guess, resp)
		}
	}()
}

func (c *Controller) thinkDelay() time.Duration {
	min, max := c.cfg.MinThinkDelay, c.cfg.MaxThinkDelay
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

func generateName() string {
	suffix := strconv.FormatInt(time.Now().UnixNano(), 10)
	return NamePrefix + suffix[len(suffix)-4:]
}
