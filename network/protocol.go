package network

// Inbound command events.
const (
	EventCreateRoom  = "create_room"
	EventJoinRoom    = "join_room"
	EventSetReady    = "set_ready"
	EventGuessSubmit = "guess_submit"
	EventGetRooms    = "get_rooms"
	EventAddBot      = "add_bot"
	EventRemoveBot   = "remove_bot"
	EventLeaveRoom   = "leave_room"
)

// Outbound broadcast events.
const (
	EventAvailableRooms  = "available_rooms"
	EventRoomCreated     = "room_created"
	EventRoomJoined      = "room_joined"
	EventRoomStateUpdate = "room_state_update"
	EventGameStarted     = "game_started"
	EventGameStateUpdate = "game_state_update"
	EventGuessBroadcast  = "player_guess_broadcast"
	EventGameFinished    = "game_finished"
	EventPlayerJoined    = "player_joined"
	EventPlayerLeft      = "player_left"
	EventError           = "error"
)
