package grpcapi

import (
	"context"
	"fmt"

	"google.golang.org/grpc"

	"sense-adaptive-core/internal/models"
	"sense-adaptive-core/internal/service/stress"
)

// Client calls a SenseCore server over an existing connection.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Classify interprets one utterance remotely.
func (c *Client) Classify(ctx context.Context, req *models.ClassifyRequest) (*models.Command, error) {
	out := new(models.Command)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/Classify", req, out, grpc.CallContentSubtype(CodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

// Score scores a batch of events remotely.
func (c *Client) Score(ctx context.Context, req *models.ScoreRequest) (*stress.Result, error) {
	out := new(stress.Result)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/Score", req, out, grpc.CallContentSubtype(CodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

// StreamTranscripts sends frames in order and returns the session summary.
func (c *Client) StreamTranscripts(ctx context.Context, frames []TranscriptFrame) (*StreamAck, error) {
	stream, err := c.cc.NewStream(ctx, &serviceDesc.Streams[0], "/"+ServiceName+"/StreamTranscripts", grpc.CallContentSubtype(CodecName))
	if err != nil {
		return nil, err
	}
	for i := range frames {
		if err := stream.SendMsg(&frames[i]); err != nil {
			return nil, fmt.Errorf("send frame %d: %w", i, err)
		}
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	ack := new(StreamAck)
	if err := stream.RecvMsg(ack); err != nil {
		return nil, err
	}
	return ack, nil
}
