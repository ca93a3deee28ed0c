// Command client is a simple interactive test client for the board
// server. It joins a room over websocket and turns stdin lines into
// chat, drawing, and game events.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/inklink/boardserver/internal/protocol"
)

func main() {
	serverAddr := flag.String("addr", "localhost:8080", "server address")
	roomKey := flag.String("room", "", "room id or code (empty creates one)")
	username := flag.String("name", "tester", "display name")
	color := flag.String("color", "#3366ff", "cursor color")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	u := url.URL{
		Scheme:   "ws",
		Host:     *serverAddr,
		Path:     "/ws",
		RawQuery: "username=" + url.QueryEscape(*username),
	}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal().Err(err).Str("url", u.String()).Msg("dial failed")
	}
	defer conn.Close()

	key := *roomKey
	if key == "" {
		key = fmt.Sprintf("CLI%03d", time.Now().UnixNano()%1000)
	}
	send(log, conn, protocol.EventRoomJoin, protocol.RoomJoin{RoomID: key, UserColor: *color})

	go receive(log, conn)

	fmt.Println("commands: say <text> | draw | clear | undo | redo | react <emoji>")
	fmt.Println("          start | pick <word> | guess <word> | stop | leave | quit")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		cmd, rest, _ := strings.Cut(line, " ")

		switch cmd {
		case "quit":
			return
		case "leave":
			send(log, conn, protocol.EventRoomLeave, nil)
		case "say":
			send(log, conn, protocol.EventChatSend, protocol.ChatSend{RoomID: key, Text: rest})
		case "draw":
			send(log, conn, protocol.EventDrawStart, protocol.DrawOp{RoomID: key, X: 10, Y: 10, Tool: "brush", Color: *color, Size: 4})
			send(log, conn, protocol.EventDrawMove, protocol.DrawOp{RoomID: key, X: 40, Y: 40, Tool: "brush", Color: *color, Size: 4})
			send(log, conn, protocol.EventDrawEnd, protocol.DrawOp{RoomID: key})
		case "clear":
			send(log, conn, protocol.EventDrawClear, protocol.DrawClear{RoomID: key})
		case "undo":
			send(log, conn, protocol.EventDrawUndo, protocol.HistoryStep{RoomID: key})
		case "redo":
			send(log, conn, protocol.EventDrawRedo, protocol.HistoryStep{RoomID: key})
		case "react":
			send(log, conn, protocol.EventReactionSend, protocol.ReactionSend{RoomID: key, Emoji: rest})
		case "start":
			send(log, conn, protocol.EventGameStart, protocol.GameStart{RoomID: key})
		case "pick":
			send(log, conn, protocol.EventGamePickWord, protocol.GamePickWord{RoomID: key, Word: rest})
		case "guess":
			send(log, conn, protocol.EventGameGuess, protocol.GameGuess{RoomID: key, Guess: rest})
		case "stop":
			send(log, conn, protocol.EventGameStop, protocol.GameStop{RoomID: key})
		default:
			fmt.Println("unknown command:", cmd)
		}
	}
}

func send(log zerolog.Logger, conn *websocket.Conn, event string, payload any) {
	data, err := protocol.Encode(event, payload)
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("encode failed")
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Fatal().Err(err).Msg("write failed")
	}
	log.Info().Str("event", event).Msg("sent")
}

func receive(log zerolog.Logger, conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Fatal().Err(err).Msg("connection closed")
		}
		env, err := protocol.Decode(data)
		if err != nil {
			log.Warn().Err(err).Msg("bad frame")
			continue
		}
		payload := string(env.Data)
		if len(payload) > 120 {
			payload = payload[:120] + "..."
		}
		log.Info().Str("event", env.Event).Str("data", payload).Msg("received")
	}
}
