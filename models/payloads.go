package models

// Inbound command payloads. The event vocabulary is part of the contract;
// the JSON field names mirror what clients send.

type CreateRoomPayload struct {
	PlayerID string `json:"playerId"`
}

type JoinRoomPayload struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
}

type SetReadyPayload struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
	IsReady  bool   `json:"isReady"`
}

type GuessSubmitPayload struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
	Guess    int    `json:"guess"`
}

type AddBotPayload struct {
	RoomID string `json:"roomId"`
}

type RemoveBotPayload struct {
	RoomID string `json:"roomId"`
	BotID  string `json:"botId"`
}

type LeaveRoomPayload struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
}

// Outbound event payloads.

type AvailableRoomsPayload struct {
	Rooms []Room `json:"rooms"`
}

type GuessBroadcastPayload struct {
	PlayerID   string      `json:"playerId"`
	PlayerName string      `json:"playerName"`
	Guess      int         `json:"guess"`
	Result     GuessResult `json:"result"`
	Timestamp  string      `json:"timestamp"`
}

type GameFinishedPayload struct {
	Winner        string `json:"winner"`
	WinnerName    string `json:"winnerName"`
	TotalAttempts int64  `json:"totalAttempts"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
