package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// WebsocketTransport dials gorilla websocket connections with the bearer
// credential in the handshake request.
type WebsocketTransport struct {
	dialer *websocket.Dialer
}

// NewWebsocketTransport creates a transport with the given handshake
// timeout.
func NewWebsocketTransport(handshakeTimeout time.Duration) *WebsocketTransport {
	return &WebsocketTransport{
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
		},
	}
}

// Dial opens a new connection. Implements Transport.
func (t *WebsocketTransport) Dial(ctx context.Context, url, token string) (Conn, error) {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, resp, err := t.dialer.DialContext(ctx, url, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return &websocketConn{conn: conn}, nil
}

type websocketConn struct {
	conn *websocket.Conn
}

func (c *websocketConn) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

func (c *websocketConn) WriteJSON(v interface{}) error {
	return c.conn.WriteJSON(v)
}

func (c *websocketConn) Close() error {
	return c.conn.Close()
}
