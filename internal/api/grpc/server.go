// Package grpcapi serves classification, scoring and transcript streaming
// over gRPC.
package grpcapi

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"sense-adaptive-core/internal/models"
	"sense-adaptive-core/internal/observability/logging"
	"sense-adaptive-core/internal/schema"
	"sense-adaptive-core/internal/service/command"
	"sense-adaptive-core/internal/service/sense"
	"sense-adaptive-core/internal/service/stress"
	"sense-adaptive-core/internal/service/stt/remote"
	"sense-adaptive-core/internal/service/voice"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "sense.v1.SenseCore"

// TranscriptFrame is one client message on StreamTranscripts. A frame
// carries a recognizer result, an interaction event, or both.
type TranscriptFrame struct {
	Text        string                   `json:"text,omitempty"`
	IsFinal     bool                     `json:"isFinal,omitempty"`
	Confidence  float64                  `json:"confidence,omitempty"`
	Interaction *models.InteractionEvent `json:"interaction,omitempty"`
}

// StreamAck closes a transcript stream with everything the session produced.
type StreamAck struct {
	SessionID   string                 `json:"sessionId"`
	Commands    []models.Command       `json:"commands"`
	Adaptations models.AdaptationState `json:"adaptations"`
	Stress      stress.Result          `json:"stress"`
}

// Server implements the SenseCore service.
type Server struct {
	session     sense.Config
	interpreter *command.Interpreter
	scorer      *stress.Scorer
	validator   *schema.Validator
	publisher   sense.EventPublisher
	log         zerolog.Logger
}

// NewServer creates a Server. session is the template for every streamed
// session; publisher may be nil.
func NewServer(session sense.Config, interpreter *command.Interpreter, scorer *stress.Scorer, validator *schema.Validator, publisher sense.EventPublisher) *Server {
	return &Server{
		session:     session,
		interpreter: interpreter,
		scorer:      scorer,
		validator:   validator,
		publisher:   publisher,
		log:         logging.WithComponent("grpc"),
	}
}

// Register attaches the service and a health server to g.
func Register(g *grpc.Server, s *Server) *health.Server {
	g.RegisterService(&serviceDesc, s)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(g, hs)
	return hs
}

// Classify interprets one utterance without session state.
func (s *Server) Classify(_ context.Context, req *models.ClassifyRequest) (*models.Command, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	cmd := s.interpreter.ProcessInContext(req.Text, req.CommandMode, command.Context{
		Route:   req.Route,
		Product: req.Product,
	})
	return &cmd, nil
}

// Score runs the stress heuristics over a batch of events.
func (s *Server) Score(_ context.Context, req *models.ScoreRequest) (*stress.Result, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	res := s.scorer.ScoreBatch(req.Events, time.Duration(req.WindowSeconds)*time.Second, time.Now())
	return &res, nil
}

// StreamTranscripts runs one voice session fed by the client's recognizer.
// When the client closes its side the session is analyzed and summarized.
func (s *Server) StreamTranscripts(stream grpc.ServerStream) error {
	cfg := s.session
	cfg.Voice.SessionID = uuid.NewString()

	src := remote.New(nil)
	commands := &commandLog{}
	core := sense.New(cfg, sense.Deps{
		Source:    src,
		Listener:  commands,
		Publisher: s.publisher,
	})
	defer core.Close()

	log := logging.WithSession(cfg.Voice.SessionID)
	if err := core.Start(stream.Context()); err != nil {
		return status.Error(codes.Internal, err.Error())
	}
	log.Info().Msg("Transcript stream opened")

	for {
		var frame TranscriptFrame
		err := stream.RecvMsg(&frame)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Warn().Err(err).Msg("Transcript stream aborted")
			return err
		}

		if frame.Interaction != nil {
			if err := s.validator.Validate(frame.Interaction); err != nil {
				return status.Error(codes.InvalidArgument, err.Error())
			}
			if err := core.RecordInteraction(*frame.Interaction); err != nil {
				return status.Error(codes.InvalidArgument, err.Error())
			}
		}
		if frame.Text != "" {
			src.DeliverTranscript(frame.Text, frame.IsFinal, frame.Confidence)
		}
	}

	ack := &StreamAck{
		SessionID:   cfg.Voice.SessionID,
		Commands:    commands.all(),
		Adaptations: core.Adaptations(),
		Stress:      core.AnalyzeNow(),
	}
	log.Info().
		Int("commands", len(ack.Commands)).
		Int("stressScore", ack.Stress.Score).
		Msg("Transcript stream closed")
	return stream.SendMsg(ack)
}

type commandLog struct {
	voice.NopListener

	mu       sync.Mutex
	commands []models.Command
}

func (l *commandLog) OnCommand(cmd models.Command, _ string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.commands = append(l.commands, cmd)
}

func (l *commandLog) all() []models.Command {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.Command(nil), l.commands...)
}

type senseCoreServer interface {
	Classify(context.Context, *models.ClassifyRequest) (*models.Command, error)
	Score(context.Context, *models.ScoreRequest) (*stress.Result, error)
	StreamTranscripts(grpc.ServerStream) error
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*senseCoreServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Classify", Handler: classifyHandler},
		{MethodName: "Score", Handler: scoreHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "StreamTranscripts", Handler: streamTranscriptsHandler, ClientStreams: true},
	},
}

func classifyHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(models.ClassifyRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(senseCoreServer).Classify(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Classify"}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(senseCoreServer).Classify(ctx, req.(*models.ClassifyRequest))
	})
}

func scoreHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(models.ScoreRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(senseCoreServer).Score(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Score"}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(senseCoreServer).Score(ctx, req.(*models.ScoreRequest))
	})
}

func streamTranscriptsHandler(srv any, stream grpc.ServerStream) error {
	return srv.(senseCoreServer).StreamTranscripts(stream)
}
