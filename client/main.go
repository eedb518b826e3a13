// client/main.go
// Interactive test client. Registers a player over REST, connects to the
// websocket endpoint and turns stdin lines into commands.
//
// Usage:
//
//	go run ./client -server localhost:8080 -name alice
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
)

type event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

type player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func main() {
	server := flag.String("server", "localhost:8080", "server host:port")
	name := flag.String("name", "tester", "player name")
	flag.Parse()

	self, err := registerPlayer(*server, *name)
	if err != nil {
		fmt.Println("Failed to register player:", err)
		os.Exit(1)
	}
	fmt.Printf("Registered as %s (%s)\n", self.Name, self.ID)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+*server+"/ws", nil)
	if err != nil {
		fmt.Println("Failed to connect:", err)
		os.Exit(1)
	}
	defer conn.Close()

	go readLoop(conn)

	roomID := ""
	printHelp()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "create":
			send(conn, "create_room", map[string]string{"playerId": self.ID})
		case "join":
			if len(fields) < 2 {
				fmt.Println("usage: join <roomId>")
				continue
			}
			roomID = fields[1]
			send(conn, "join_room", map[string]string{"roomId": roomID, "playerId": self.ID})
		case "ready":
			send(conn, "set_ready", map[string]interface{}{"roomId": roomID, "playerId": self.ID, "isReady": true})
		case "unready":
			send(conn, "set_ready", map[string]interface{}{"roomId": roomID, "playerId": self.ID, "isReady": false})
		case "guess":
			if len(fields) < 2 {
				fmt.Println("usage: guess <number>")
				continue
			}
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				fmt.Println("not a number:", fields[1])
				continue
			}
			send(conn, "guess_submit", map[string]interface{}{"roomId": roomID, "playerId": self.ID, "guess": n})
		case "rooms":
			send(conn, "get_rooms", nil)
		case "bot":
			send(conn, "add_bot", map[string]string{"roomId": roomID})
		case "unbot":
			if len(fields) < 2 {
				fmt.Println("usage: unbot <botId>")
				continue
			}
			send(conn, "remove_bot", map[string]string{"roomId": roomID, "botId": fields[1]})
		case "leave":
			send(conn, "leave_room", map[string]string{"roomId": roomID, "playerId": self.ID})
			roomID = ""
		case "room":
			if len(fields) > 1 {
				roomID = fields[1]
			}
			fmt.Println("current room:", roomID)
		case "help":
			printHelp()
		case "quit", "exit":
			return
		default:
			fmt.Println("unknown command:", fields[0])
		}
	}
}

func registerPlayer(server, name string) (player, error) {
	body, _ := json.Marshal(map[string]string{"name": name})
	resp, err := http.Post("http://"+server+"/players/", "application/json", bytes.NewReader(body))
	if err != nil {
		return player{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return player{}, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var self player
	if err := json.NewDecoder(resp.Body).Decode(&self); err != nil {
		return player{}, err
	}
	return self, nil
}

func send(conn *websocket.Conn, eventName string, data interface{}) {
	if err := conn.WriteJSON(event{Event: eventName, Data: data}); err != nil {
		fmt.Println("send failed:", err)
	}
}

func readLoop(conn *websocket.Conn) {
	for {
		var ev struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := conn.ReadJSON(&ev); err != nil {
			fmt.Println("connection closed:", err)
			os.Exit(0)
		}

		var pretty bytes.Buffer
		if err := json.Indent(&pretty, ev.Data, "  ", "  "); err != nil {
			fmt.Printf("<- %s: %s\n", ev.Event, ev.Data)
			continue
		}
		fmt.Printf("<- %s:\n  %s\n", ev.Event, pretty.String())
	}
}

func printHelp() {
	fmt.Println(`commands:
  create            create a room
  join <roomId>     join a room
  ready / unready   toggle readiness
  guess <number>    submit a guess
  rooms             list rooms
  bot               add a bot to the current room
  unbot <botId>     remove a bot
  leave             leave the current room
  room [id]         show or set the current room id
  quit`)
}
