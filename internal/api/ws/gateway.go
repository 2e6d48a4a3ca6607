// Package ws bridges browser clients to per-connection sense cores over websocket.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"sense-adaptive-core/internal/models"
	"sense-adaptive-core/internal/observability/logging"
	"sense-adaptive-core/internal/observability/metrics"
	"sense-adaptive-core/internal/schema"
	"sense-adaptive-core/internal/service/adaptation"
	"sense-adaptive-core/internal/service/command"
	"sense-adaptive-core/internal/service/sense"
	"sense-adaptive-core/internal/service/stt"
	"sense-adaptive-core/internal/service/voice"
)

const (
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = 50 * time.Second
	sendBuffer  = 64
	maxReadSize = 1 << 20
)

// SourceFactory builds the transcript source for one connection. control
// sends recognizer start/stop requests to the client.
type SourceFactory func(ctx context.Context, sessionID string, control func(action string) error) (stt.Source, error)

// Gateway upgrades HTTP requests and runs one sense.Core per connection.
type Gateway struct {
	cfg       sense.Config
	sources   SourceFactory
	publisher sense.EventPublisher
	profiles  adaptation.ProfileStore
	validator *schema.Validator
	upgrader  websocket.Upgrader
	log       zerolog.Logger
	metrics   *metrics.Metrics

	mu      sync.Mutex
	conns   map[string]*conn
	closed  bool
	serving sync.WaitGroup
}

// Option customizes a Gateway.
type Option func(*Gateway)

// WithPublisher publishes every connection's commands and decisions.
func WithPublisher(p sense.EventPublisher) Option {
	return func(g *Gateway) { g.publisher = p }
}

// WithProfileStore loads and saves profiles for clients that say hello.
func WithProfileStore(s adaptation.ProfileStore) Option {
	return func(g *Gateway) { g.profiles = s }
}

// WithCheckOrigin replaces the origin check. The default allows all origins.
func WithCheckOrigin(fn func(*http.Request) bool) Option {
	return func(g *Gateway) { g.upgrader.CheckOrigin = fn }
}

// NewGateway creates a gateway. cfg is the template for every connection's core.
func NewGateway(cfg sense.Config, sources SourceFactory, opts ...Option) *Gateway {
	g := &Gateway{
		cfg:       cfg,
		sources:   sources,
		validator: schema.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log:     logging.WithComponent("ws"),
		metrics: metrics.DefaultMetrics,
		conns:   make(map[string]*conn),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Active returns the number of open connections.
func (g *Gateway) Active() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.conns)
}

// Close disconnects every client and waits for their sessions to end. New
// upgrades are refused afterwards.
func (g *Gateway) Close() {
	g.mu.Lock()
	g.closed = true
	open := make([]*conn, 0, len(g.conns))
	for _, c := range g.conns {
		open = append(open, c)
	}
	g.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for _, c := range open {
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		_ = c.ws.Close()
	}
	g.serving.Wait()
}

// ServeHTTP upgrades the request and serves the connection until it closes.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	g.serving.Add(1)
	g.mu.Unlock()
	defer g.serving.Done()

	wsConn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	sessionID := uuid.NewString()
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	c := &conn{
		id:        sessionID,
		gw:        g,
		ws:        wsConn,
		out:       make(chan ServerFrame, sendBuffer),
		done:      make(chan struct{}),
		log:       logging.WithSession(sessionID).With().Str("component", "ws").Logger(),
		granted:   true,
		validator: g.validator,
	}

	source, err := g.sources(ctx, sessionID, c.sendControl)
	if err != nil {
		g.log.Error().Err(err).Msg("Failed to create transcript source")
		_ = wsConn.WriteJSON(ServerFrame{Type: FrameError, Code: CodeInternal, Error: err.Error()})
		_ = wsConn.Close()
		return
	}
	c.source = source
	if rs, ok := source.(remoteSource); ok {
		c.remote = rs
	}
	if as, ok := source.(stt.AudioSink); ok {
		c.audio = as
	}

	cfg := g.cfg
	cfg.Voice.SessionID = sessionID
	c.core = sense.New(cfg, sense.Deps{
		Source:     source,
		Permission: voice.PermissionFunc(c.permission),
		Listener:   c,
		Sink:       c,
		Publisher:  g.publisher,
	})

	g.track(c, true)
	defer g.track(c, false)

	go c.writeLoop()
	c.send(ServerFrame{Type: FrameSession, SessionID: sessionID})
	c.log.Info().Str("remote", r.RemoteAddr).Msg("Client connected")

	c.readLoop(ctx)

	cancel()
	c.starting.Wait()
	c.core.Close()
	if closer, ok := source.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	close(c.done)
	c.log.Info().Msg("Client disconnected")
}

func (g *Gateway) track(c *conn, open bool) {
	g.mu.Lock()
	if open {
		g.conns[c.id] = c
	} else {
		delete(g.conns, c.id)
	}
	g.mu.Unlock()
	g.metrics.RecordWSConnection(open)
}

// remoteSource is the part of remote.Source the gateway feeds.
type remoteSource interface {
	DeliverStart()
	DeliverTranscript(text string, isFinal bool, confidence float64)
	DeliverError(code, message string)
	DeliverEnd()
}

// conn is one client connection. It is the core's listener and sink.
type conn struct {
	id        string
	gw        *Gateway
	ws        *websocket.Conn
	out       chan ServerFrame
	done      chan struct{}
	log       zerolog.Logger
	validator *schema.Validator

	source stt.Source
	remote remoteSource
	audio  stt.AudioSink
	core   *sense.Core

	starting sync.WaitGroup

	mu      sync.Mutex
	granted bool
	userID  string
}

func (c *conn) readLoop(ctx context.Context) {
	c.ws.SetReadLimit(maxReadSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		kind, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn().Err(err).Msg("WebSocket read error")
			}
			return
		}

		if kind == websocket.BinaryMessage {
			c.handleAudio(ctx, data)
			continue
		}

		var f ClientFrame
		if err := json.Unmarshal(data, &f); err != nil {
			c.sendError(CodeBadRequest, "malformed frame")
			continue
		}
		c.handle(ctx, f)
	}
}

func (c *conn) handle(ctx context.Context, f ClientFrame) {
	switch f.Type {
	case FrameStart:
		c.mu.Lock()
		c.granted = f.Granted == nil || *f.Granted
		c.mu.Unlock()
		// Start may block while a server-side source dials.
		c.starting.Add(1)
		go func() {
			defer c.starting.Done()
			if err := c.core.Start(ctx); err != nil {
				c.log.Debug().Err(err).Msg("Start failed")
			}
		}()

	case FrameStop:
		c.core.Stop()

	case FrameHello:
		c.hello(ctx, f)

	case FrameRecognizerStart, FrameRecognizerError, FrameRecognizerEnd, FrameTranscript:
		c.recognizer(f)

	case FrameInteraction:
		if f.Event == nil {
			c.sendError(CodeBadRequest, "interaction frame without event")
			return
		}
		if err := c.validator.Validate(*f.Event); err != nil {
			c.sendError(CodeBadRequest, err.Error())
			return
		}
		if err := c.core.RecordInteraction(*f.Event); err != nil {
			c.sendError(CodeBadRequest, err.Error())
		}

	case FrameProfile:
		if f.Profile == nil {
			c.sendError(CodeBadRequest, "profile frame without profile")
			return
		}
		c.core.SetProfile(*f.Profile)
		c.saveProfile(ctx, *f.Profile)

	case FrameOverride:
		req := models.OverrideRequest{Key: f.Key, Enabled: f.Enabled}
		if err := c.validator.Validate(req); err != nil {
			c.sendError(CodeBadRequest, err.Error())
			return
		}
		if _, err := c.core.ApplyAccessibilityOverride(req.Key, req.Enabled); err != nil {
			c.sendError(CodeBadRequest, err.Error())
		}

	case FrameCommand:
		req := models.ClassifyRequest{Text: f.Text}
		if err := c.validator.Validate(req); err != nil {
			c.sendError(CodeBadRequest, err.Error())
			return
		}
		cmd := c.core.ProcessCommand(req.Text)
		c.send(ServerFrame{Type: FrameCommand, Command: &cmd, Raw: req.Text})

	case FrameContext:
		c.core.SetContext(command.Context{Route: f.Route, Product: f.Product})

	case FrameAnalyze:
		res := c.core.AnalyzeNow()
		c.send(ServerFrame{Type: FrameStress, Stress: &res})

	default:
		c.sendError(CodeBadRequest, "unknown frame type "+f.Type)
	}
}

func (c *conn) recognizer(f ClientFrame) {
	if c.remote == nil {
		c.sendError(CodeBadRequest, "recognizer frames need the remote provider")
		return
	}
	switch f.Type {
	case FrameRecognizerStart:
		c.remote.DeliverStart()
	case FrameRecognizerError:
		c.remote.DeliverError(f.Code, f.Message)
	case FrameRecognizerEnd:
		c.remote.DeliverEnd()
	case FrameTranscript:
		c.remote.DeliverTranscript(f.Text, f.IsFinal, f.Confidence)
	}
}

func (c *conn) handleAudio(ctx context.Context, frame []byte) {
	if c.audio == nil {
		c.sendError(CodeBadRequest, "audio frames need a server-side provider")
		return
	}
	if err := c.audio.SendAudio(ctx, frame); err != nil {
		c.log.Debug().Err(err).Msg("Audio frame rejected")
	}
}

func (c *conn) hello(ctx context.Context, f ClientFrame) {
	if f.UserID == "" {
		c.sendError(CodeBadRequest, "hello frame without userId")
		return
	}
	c.mu.Lock()
	c.userID = f.UserID
	c.mu.Unlock()

	if f.Profile != nil {
		c.core.SetProfile(*f.Profile)
		c.saveProfile(ctx, *f.Profile)
		return
	}
	if c.gw.profiles == nil {
		return
	}
	p, err := c.gw.profiles.Get(ctx, f.UserID)
	switch {
	case errors.Is(err, adaptation.ErrProfileNotFound):
	case err != nil:
		c.log.Warn().Err(err).Str("userId", f.UserID).Msg("Profile lookup failed")
	default:
		c.core.SetProfile(p)
	}
}

func (c *conn) saveProfile(ctx context.Context, p models.NeurodiversityProfile) {
	c.mu.Lock()
	userID := c.userID
	c.mu.Unlock()
	if userID == "" || c.gw.profiles == nil {
		return
	}
	if err := c.gw.profiles.Put(ctx, userID, p); err != nil {
		c.log.Warn().Err(err).Str("userId", userID).Msg("Profile save failed")
	}
}

func (c *conn) permission(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.granted {
		return errors.New("client reported microphone access denied")
	}
	return nil
}

func (c *conn) sendControl(action string) error {
	c.send(ServerFrame{Type: FrameRecognizerControl, Action: action})
	return nil
}

func (c *conn) sendError(code, msg string) {
	c.send(ServerFrame{Type: FrameError, Code: code, Error: msg})
}

// send queues a frame. Frames are dropped when the client is too slow.
func (c *conn) send(f ServerFrame) {
	select {
	case <-c.done:
	case c.out <- f:
	default:
		c.log.Warn().Str("type", f.Type).Msg("Send buffer full, dropping frame")
	}
}

func (c *conn) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case f := <-c.out:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(f); err != nil {
				c.log.Debug().Err(err).Msg("WebSocket write failed")
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// voice.Listener

func (c *conn) OnTranscript(text string, interim bool) {
	c.send(ServerFrame{Type: FrameTranscript, Text: text, Interim: interim})
}

func (c *conn) OnWakeWord() {
	c.send(ServerFrame{Type: FrameWake})
}

func (c *conn) OnCommand(cmd models.Command, raw string) {
	c.send(ServerFrame{Type: FrameCommand, Command: &cmd, Raw: raw})
}

func (c *conn) OnStatusChange(st models.Status) {
	c.send(ServerFrame{Type: FrameStatus, Status: &st})
}

func (c *conn) OnError(err error) {
	code := CodeRecognizerFatal
	if voice.IsPermissionError(err) {
		code = CodePermissionDenied
	}
	c.sendError(code, err.Error())
}

// adaptation.AdaptationSink

func (c *conn) OnAdaptation(d models.AdaptationDecision) {
	c.send(ServerFrame{Type: FrameAdaptation, Decision: &d})
}

var (
	_ voice.Listener            = (*conn)(nil)
	_ adaptation.AdaptationSink = (*conn)(nil)
)
