// Command audioclient streams a WAV file to the websocket gateway as binary
// audio frames and prints what the session sends back. The server must run
// with STT_PROVIDER=google.
package main

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"sense-adaptive-core/internal/api/ws"
)

const (
	wavHeaderSize = 44
	chunkInterval = 100 * time.Millisecond
)

type wavFormat struct {
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	BitsPerSample uint16
}

// bytesPerChunk is the PCM payload for one chunkInterval.
func (f wavFormat) bytesPerChunk() int {
	perSecond := int(f.SampleRate) * int(f.Channels) * int(f.BitsPerSample) / 8
	return perSecond * int(chunkInterval/time.Millisecond) / 1000
}

func readWAVHeader(r io.Reader) (wavFormat, error) {
	header := make([]byte, wavHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return wavFormat{}, fmt.Errorf("read WAV header: %w", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return wavFormat{}, errors.New("not a WAV file")
	}
	f := wavFormat{
		AudioFormat:   binary.LittleEndian.Uint16(header[20:22]),
		Channels:      binary.LittleEndian.Uint16(header[22:24]),
		SampleRate:    binary.LittleEndian.Uint32(header[24:28]),
		BitsPerSample: binary.LittleEndian.Uint16(header[34:36]),
	}
	if f.AudioFormat != 1 || f.BitsPerSample != 16 || f.Channels != 1 {
		return f, fmt.Errorf("only 16-bit mono PCM is supported, got %+v", f)
	}
	return f, nil
}

func main() {
	audioFile := flag.String("audio", "testdata/sample-16khz.wav", "path to a 16-bit mono PCM WAV file")
	url := flag.String("url", "ws://localhost:8080/v1/ws", "websocket endpoint")
	settle := flag.Duration("settle", 3*time.Second, "wait for final results after the last chunk")
	flag.Parse()

	if err := run(*audioFile, *url, *settle); err != nil {
		log.Fatal(err)
	}
}

func run(path, url string, settle time.Duration) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	format, err := readWAVHeader(f)
	if err != nil {
		return err
	}
	log.Printf("WAV: %d Hz, %d-bit, %d channel(s)", format.SampleRate, format.BitsPerSample, format.Channels)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return fmt.Errorf("connect %s: %w", url, err)
	}
	defer conn.Close()
	go printFrames(conn)

	if err := conn.WriteJSON(ws.ClientFrame{Type: ws.FrameStart}); err != nil {
		return fmt.Errorf("start session: %w", err)
	}

	sent, chunks, err := stream(conn, f, format.bytesPerChunk())
	if err != nil {
		return err
	}
	log.Printf("Streamed %d bytes in %d chunks, waiting %v for final results", sent, chunks, settle)
	time.Sleep(settle)

	_ = conn.WriteJSON(ws.ClientFrame{Type: ws.FrameStop})
	return conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// stream paces r onto conn at real-time speed.
func stream(conn *websocket.Conn, r io.Reader, chunkSize int) (int64, int, error) {
	buf := make([]byte, chunkSize)
	ticker := time.NewTicker(chunkInterval)
	defer ticker.Stop()

	var total int64
	var chunks int
	for {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			if werr := conn.WriteMessage(websocket.BinaryMessage, buf[:n]); werr != nil {
				return total, chunks, fmt.Errorf("send chunk %d: %w", chunks+1, werr)
			}
			total += int64(n)
			chunks++
			<-ticker.C
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return total, chunks, nil
		}
		if err != nil {
			return total, chunks, fmt.Errorf("read audio: %w", err)
		}
	}
}

func printFrames(conn *websocket.Conn) {
	for {
		var f ws.ServerFrame
		if err := conn.ReadJSON(&f); err != nil {
			return
		}
		if f.Type == ws.FrameTranscript && f.Interim {
			continue
		}
		b, _ := json.Marshal(f)
		log.Printf("< %s", b)
	}
}
