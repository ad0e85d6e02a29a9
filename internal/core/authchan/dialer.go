package authchan

import (
	"context"
	"net/http"

	gorillawebsocket "github.com/gorilla/websocket"
)

const textMessage = gorillawebsocket.TextMessage

// GorillaDialer dials the backend's permission socket over a real WebSocket,
// carrying the session credential as a bearer header on the handshake.
type GorillaDialer struct {
	dialer *gorillawebsocket.Dialer
}

// NewGorillaDialer returns a Dialer backed by gorilla/websocket's default
// dialer.
func NewGorillaDialer() *GorillaDialer {
	return &GorillaDialer{dialer: gorillawebsocket.DefaultDialer}
}

// Dial implements the Dialer interface.
func (d *GorillaDialer) Dial(ctx context.Context, url, credential string) (Conn, error) {
	header := http.Header{}
	if credential != "" {
		header.Set("Authorization", "Bearer "+credential)
	}
	conn, resp, err := d.dialer.DialContext(ctx, url, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return conn, nil
}
