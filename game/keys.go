// game/keys.go
package game

// Key scheme for all room/game state in the store. The exact names are an
// internal contract, not a public compatibility surface.
const (
	keyRooms         = "game:rooms"
	keyGameSecret    = "game:secret"
	keyGameStatus    = "game:status"
	keyGameHistory   = "game:history"
	keyActivePlayers = "game:active_players"

	keyPlayerAttempts = "player:attempts"
)

func roomPlayersKey(roomID string) string { return "room:" + roomID + ":players" }
func roomReadyKey(roomID string) string   { return "room:" + roomID + ":ready_players" }
func roomStatusKey(roomID string) string  { return "room:" + roomID + ":status" }
func roomSecretKey(roomID string) string  { return "room:" + roomID + ":secret" }
func roomOrderKey(roomID string) string   { return "room:" + roomID + ":player_order" }
func roomTurnKey(roomID string) string    { return "room:" + roomID + ":current_turn" }
func roomHistoryKey(roomID string) string { return "room:" + roomID + ":history" }

func roomAttemptsKey(roomID, playerID string) string {
	return "room:" + roomID + ":attempts:" + playerID
}

func roomAttemptsPattern(roomID string) string {
	return "room:" + roomID + ":attempts:*"
}

func playerAttemptsKey(playerID string) string {
	return keyPlayerAttempts + ":" + playerID
}

func playerAttemptsPattern() string {
	return keyPlayerAttempts + ":*"
}

// roomKeys lists every fixed key owned by a room, for deletion.
func roomKeys(roomID string) []string {
	return []string{
		roomPlayersKey(roomID),
		roomReadyKey(roomID),
		roomStatusKey(roomID),
		roomSecretKey(roomID),
		roomOrderKey(roomID),
		roomTurnKey(roomID),
		roomHistoryKey(roomID),
	}
}
