package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePort(t *testing.T) {
	cases := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{in: "8080", want: "8080", wantOK: true},
		{in: "0", want: "0", wantOK: true},
		{in: "3000abc", want: "3000", wantOK: true},
		{in: "\\\\.\\pipe\\quiz", want: "\\\\.\\pipe\\quiz", wantOK: true},
		{in: "-1", want: "", wantOK: false},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := NormalizePort(tc.in)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.wantOK, ok)
		})
	}
}

func TestTarget(t *testing.T) {
	cases := []struct {
		name   string
		origin string
		port   string
		want   string
	}{
		{name: "plain page uses ws", origin: "http://quiz.local", port: "8080", want: "ws://quiz.local:8080"},
		{name: "secure page uses wss", origin: "https://quiz.local:443/app", port: "8080", want: "wss://quiz.local:8080"},
		{name: "negative port falls back to default", origin: "https://quiz.local", port: "-5", want: "wss://quiz.local"},
		{name: "ipv6 host", origin: "http://[::1]:3000", port: "8080", want: "ws://[::1]:8080"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Target(tc.origin, tc.port)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := Target("not a url", "8080")
	assert.True(t, errors.Is(err, ErrBadOrigin), "got %v", err)
}

func TestWebsocketDialer_RoundTrip(t *testing.T) {
	got := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		ctx := r.Context()
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		got <- string(data)

		_ = conn.Write(ctx, websocket.MessageBinary, []byte{0x1})
		_ = conn.Write(ctx, websocket.MessageText, []byte(`{"request":"categories","data":[]}`))
		conn.Close(websocket.StatusNormalClosure, "done")
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := NewWebsocketDialer().Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"))
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.Write(ctx, []byte(`{"request":"categories"}`)))
	select {
	case frame := <-got:
		assert.Equal(t, `{"request":"categories"}`, frame)
	case <-time.After(2 * time.Second):
		t.Fatalf("server never received the request")
	}

	data, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"request":"categories","data":[]}`, string(data))

	_, err = conn.Read(ctx)
	assert.True(t, errors.Is(err, ErrClosed), "want ErrClosed, got %v", err)
}

func TestWebsocketDialer_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	d := NewWebsocketDialer()
	d.HandshakeTimeout = time.Second
	_, err := d.Dial(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http"))
	assert.Error(t, err)
}
