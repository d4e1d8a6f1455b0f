package grpcjson

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
)

type echoRequest struct {
	Text string `json:"text"`
}

type echoResponse struct {
	Text string `json:"text"`
	By   string `json:"by"`
}

type echoServer struct{ name string }

func (s *echoServer) Echo(ctx context.Context, req *echoRequest) (*echoResponse, error) {
	if req.Text == "" {
		return nil, errors.New("empty")
	}
	return &echoResponse{Text: req.Text, By: s.name}, nil
}

func TestCodecRoundTrip(t *testing.T) {
	c := Codec()
	assert.Equal(t, Name, c.Name())

	data, err := c.Marshal(&echoRequest{Text: "hi"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"hi"}`, string(data))

	var out echoRequest
	require.NoError(t, c.Unmarshal(data, &out))
	assert.Equal(t, "hi", out.Text)

	require.NoError(t, c.Unmarshal(nil, &out))
}

func TestUnary(t *testing.T) {
	desc := Unary("test.Echo", "Echo", (*echoServer).Echo)
	assert.Equal(t, "Echo", desc.MethodName)

	srv := &echoServer{name: "srv"}
	dec := func(v any) error {
		return Codec().Unmarshal([]byte(`{"text":"hello"}`), v)
	}

	t.Run("direct", func(t *testing.T) {
		resp, err := desc.Handler(srv, context.Background(), dec, nil)
		require.NoError(t, err)
		assert.Equal(t, &echoResponse{Text: "hello", By: "srv"}, resp)
	})

	t.Run("through interceptor", func(t *testing.T) {
		var method string
		interceptor := func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
			method = info.FullMethod
			return handler(ctx, req)
		}
		resp, err := desc.Handler(srv, context.Background(), dec, interceptor)
		require.NoError(t, err)
		assert.Equal(t, "/test.Echo/Echo", method)
		assert.Equal(t, "hello", resp.(*echoResponse).Text)
	})

	t.Run("decode error", func(t *testing.T) {
		bad := func(v any) error { return Codec().Unmarshal([]byte(`{`), v) }
		_, err := desc.Handler(srv, context.Background(), bad, nil)
		assert.Error(t, err)
	})
}
