// Package google provides a transcript source backed by Google Cloud Speech-to-Text
// streaming recognition, fed with raw audio pushed by the caller.
package google

import (
	"context"
	"errors"
	"io"
	"sync"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"sense-adaptive-core/internal/service/stt"
)

// ErrNotStarted is returned by SendAudio before Start.
var ErrNotStarted = errors.New("google stt stream not started")

// Config holds recognition settings sent as the first streaming message.
type Config struct {
	LanguageCode   string
	SampleRateHz   int32
	InterimResults bool
	AudioEncoding  string
}

// Source implements stt.Source and stt.AudioSink using Google Cloud Speech-to-Text.
type Source struct {
	client *speech.Client
	cfg    Config

	mu     sync.Mutex
	stream speechpb.Speech_StreamingRecognizeClient
	cancel context.CancelFunc

	// sendMu serializes Send and CloseSend on the stream.
	sendMu sync.Mutex
}

// New creates a new Google STT source.
// Requires GOOGLE_APPLICATION_CREDENTIALS environment variable to be set.
func New(ctx context.Context, cfg Config) (*Source, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &Source{client: c, cfg: cfg}, nil
}

// Start opens a streaming recognition session, sends the config and starts
// delivering results to cb.
func (s *Source) Start(ctx context.Context, cb stt.Callback) error {
	streamCtx, cancel := context.WithCancel(ctx)
	stream, err := s.client.StreamingRecognize(streamCtx)
	if err != nil {
		cancel()
		return stt.NewError(classifyCode(err), err)
	}

	if err := stream.Send(configRequest(s.cfg)); err != nil {
		cancel()
		return stt.NewError(classifyCode(err), err)
	}

	s.mu.Lock()
	s.stream = stream
	s.cancel = cancel
	s.mu.Unlock()

	cb.OnStart()
	go s.listen(streamCtx, stream, cb)
	return nil
}

// SendAudio sends audio bytes to Google Speech-to-Text.
func (s *Source) SendAudio(ctx context.Context, audio []byte) error {
	s.mu.Lock()
	stream := s.stream
	s.mu.Unlock()

	if stream == nil {
		return ErrNotStarted
	}
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	return stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{
			AudioContent: audio,
		},
	})
}

// Stop half-closes the stream and cancels the session.
func (s *Source) Stop() error {
	s.mu.Lock()
	stream := s.stream
	cancel := s.cancel
	s.stream = nil
	s.cancel = nil
	s.mu.Unlock()

	var err error
	if stream != nil {
		s.sendMu.Lock()
		err = stream.CloseSend()
		s.sendMu.Unlock()
	}
	if cancel != nil {
		cancel()
	}
	return err
}

// Close releases the underlying client.
func (s *Source) Close() error {
	s.Stop()
	return s.client.Close()
}

// listen receives transcript responses and invokes callbacks until the stream ends.
func (s *Source) listen(ctx context.Context, stream speechpb.Speech_StreamingRecognizeClient, cb stt.Callback) {
	for {
		resp, err := stream.Recv()
		if err != nil {
			s.detach(stream)
			if ctx.Err() != nil {
				// Stopped by the caller; nobody is waiting for an end event.
				return
			}
			if !errors.Is(err, io.EOF) && status.Code(err) != codes.OutOfRange {
				cb.OnError(stt.NewError(classifyCode(err), err))
			}
			cb.OnEnd()
			return
		}
		dispatch(resp, cb)
	}
}

func (s *Source) detach(stream speechpb.Speech_StreamingRecognizeClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream == stream {
		s.stream = nil
	}
}

// dispatch maps one streaming response onto interim/final callbacks. Cloud
// Speech leaves confidence at 0 when it has no estimate, so such finals are
// passed on as fully confident.
func dispatch(resp *speechpb.StreamingRecognizeResponse, cb stt.Callback) {
	for _, r := range resp.GetResults() {
		if len(r.GetAlternatives()) == 0 {
			continue
		}
		alt := r.GetAlternatives()[0]
		if r.GetIsFinal() {
			confidence := float64(alt.GetConfidence())
			if confidence == 0 {
				confidence = 1
			}
			cb.OnFinal(alt.GetTranscript(), confidence)
		} else {
			cb.OnPartial(alt.GetTranscript(), float64(r.GetStability()))
		}
	}
}

func configRequest(cfg Config) *speechpb.StreamingRecognizeRequest {
	language := cfg.LanguageCode
	if language == "" {
		language = "en-US"
	}
	rate := cfg.SampleRateHz
	if rate <= 0 {
		rate = 16000
	}
	return &speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config: &speechpb.RecognitionConfig{
					Encoding:        encodingFor(cfg.AudioEncoding),
					SampleRateHertz: rate,
					LanguageCode:    language,
				},
				InterimResults: cfg.InterimResults,
			},
		},
	}
}

func encodingFor(name string) speechpb.RecognitionConfig_AudioEncoding {
	if v, ok := speechpb.RecognitionConfig_AudioEncoding_value[name]; ok {
		return speechpb.RecognitionConfig_AudioEncoding(v)
	}
	return speechpb.RecognitionConfig_LINEAR16
}

// classifyCode maps gRPC failures onto recognizer error codes.
func classifyCode(err error) string {
	switch status.Code(err) {
	case codes.PermissionDenied, codes.Unauthenticated:
		return stt.CodeNotAllowed
	case codes.InvalidArgument:
		return stt.CodeAudioCapture
	case codes.Canceled:
		return stt.CodeAborted
	default:
		return stt.CodeNetwork
	}
}
