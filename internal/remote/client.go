package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/ziadkadry99/zoomdeck/internal/input"
	"github.com/ziadkadry99/zoomdeck/internal/livesync"
)

// Conn is one side of a remote connection.
type Conn struct {
	ws *websocket.Conn
}

// Endpoint returns the websocket URL of the remote for presentation id.
func Endpoint(baseURL, id, role string) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("parsing server URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u = u.JoinPath("api", "presentations", id, "remote")
	u.RawQuery = url.Values{"role": {role}}.Encode()
	return u.String(), nil
}

// Dial connects to the remote of presentation id as userID in the given role.
func Dial(ctx context.Context, baseURL, id, userID, role string) (*Conn, error) {
	endpoint, err := Endpoint(baseURL, id, role)
	if err != nil {
		return nil, err
	}
	header := http.Header{}
	header.Set(livesync.HeaderUserID, userID)

	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, endpoint, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dialing remote: %w", &livesync.StatusError{Code: resp.StatusCode})
		}
		return nil, fmt.Errorf("dialing remote: %w", err)
	}
	return &Conn{ws: ws}, nil
}

// SendKey relays one key press and returns how many presenter sessions
// received it.
func (c *Conn) SendKey(ev input.KeyEvent) (int, error) {
	if err := c.ws.WriteJSON(Message{Type: TypeKey, Key: ev.Key, Shift: ev.Shift}); err != nil {
		return 0, fmt.Errorf("sending key: %w", err)
	}
	var reply Message
	if err := c.ws.ReadJSON(&reply); err != nil {
		return 0, fmt.Errorf("reading ack: %w", err)
	}
	if reply.Type == TypeError {
		return 0, errors.New(reply.Error)
	}
	return reply.Delivered, nil
}

// Listen calls fn for every relayed key until ctx is done or the
// connection closes. fn runs on the listening goroutine.
func (c *Conn) Listen(ctx context.Context, fn func(input.KeyEvent)) error {
	stop := context.AfterFunc(ctx, func() { c.ws.Close() })
	defer stop()
	for {
		var msg Message
		if err := c.ws.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("reading remote: %w", err)
		}
		if msg.Type == TypeKey {
			fn(msg.Event())
		}
	}
}

// Close sends a close frame and closes the connection.
func (c *Conn) Close() error {
	c.ws.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.ws.Close()
}
