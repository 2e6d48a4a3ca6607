// Command wsclient drives a websocket session from the terminal. Each input
// line is sent as a final recognizer result.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gorilla/websocket"

	"sense-adaptive-core/internal/api/ws"
)

func main() {
	url := flag.String("url", "ws://localhost:8080/v1/ws", "websocket endpoint")
	user := flag.String("user", "", "user ID whose stored profile should be loaded")
	confidence := flag.Float64("confidence", 0.95, "confidence reported for each line")
	flag.Parse()

	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	log.Println("Connected to server")
	go printFrames(conn)

	send := func(f ws.ClientFrame) {
		if err := conn.WriteJSON(f); err != nil {
			log.Fatalf("failed to send %s frame: %v", f.Type, err)
		}
	}

	if *user != "" {
		send(ws.ClientFrame{Type: ws.FrameHello, UserID: *user})
	}
	send(ws.ClientFrame{Type: ws.FrameStart})
	send(ws.ClientFrame{Type: ws.FrameRecognizerStart})

	fmt.Println(`Type what you would say, e.g. "hey sense take me to the cart". Ctrl-D quits.`)
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		send(ws.ClientFrame{Type: ws.FrameTranscript, Text: text, IsFinal: true, Confidence: *confidence})
	}

	send(ws.ClientFrame{Type: ws.FrameStop})
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func printFrames(conn *websocket.Conn) {
	for {
		var f ws.ServerFrame
		if err := conn.ReadJSON(&f); err != nil {
			return
		}
		switch f.Type {
		case ws.FrameCommand:
			fmt.Printf("< %s %s %s: %s\n", f.Command.Type, f.Command.Action, f.Command.Route, f.Command.Message)
		case ws.FrameRecognizerControl:
			// The terminal is the recognizer; nothing to start or stop.
		default:
			b, _ := json.Marshal(f)
			fmt.Printf("< %s\n", b)
		}
	}
}
