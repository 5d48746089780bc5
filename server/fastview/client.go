package fastview

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	channerics "github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 1 * time.Second
	// Maximum message size allowed from peer.
	maxMessageSize = 8192

	// The rate at which ele-updates are flushed to the client, so as not to overburden it.
	pubResolution  = time.Millisecond * 100
	pingResolution = time.Millisecond * 200
	// The number of pings to tolerate losing before concluding the peer is gone.
	pongWait = pingResolution * 4

	closeGracePeriod = time.Second
)

var upgrader = websocket.Upgrader{}

// Client publishes updates unidirectionally to a web client via websocket.
// Updates must be idempotent: only the latest update received within a publication
// period is sent, intervening ones are discarded.
type Client[T any] struct {
	updates <-chan T
	ws      *websocket.Conn
	rootCtx context.Context
}

// NewClient upgrades the request to a websocket and returns a client publishing the
// passed updates to it.
func NewClient[T any](
	updates <-chan T,
	w http.ResponseWriter,
	r *http.Request,
) (*Client[T], error) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		return nil, fmt.Errorf("websocket upgrade: %w", err)
	}
	ws.SetReadLimit(maxMessageSize)

	return &Client[T]{
		updates: updates,
		ws:      ws,
		rootCtx: r.Context(),
	}, nil
}

// Sync runs the reader and the publisher until the client disconnects, the request
// context ends or one of them fails, then closes the socket. Sync returns nil on client
// disconnect.
func (cli *Client[T]) Sync() error {
	group, groupCtx := errgroup.WithContext(cli.rootCtx)
	pongs := make(chan struct{}, 1)
	cli.ws.SetPongHandler(func(string) error {
		select {
		case pongs <- struct{}{}:
		default:
		}
		return nil
	})

	// gorilla allows one concurrent reader and one concurrent writer; the reader is
	// readMessages, and all writes happen in publish. Closing the socket when publish
	// exits unblocks the reader.
	var pubErr error
	group.Go(func() error {
		return cli.readMessages()
	})
	group.Go(func() error {
		pubErr = cli.publish(groupCtx, pongs)
		cli.close()
		return pubErr
	})

	err := group.Wait()
	if pubErr != nil {
		return pubErr
	}
	if isClosure(err) || errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// ErrPongDeadlineExceeded is returned when the client stops answering pings.
var ErrPongDeadlineExceeded error = errors.New("client disconnect, pong deadline exceeded")

// readMessages discards client messages; reading is required for control frames
// (pongs, close) to be processed. Read errors are permanent.
func (cli *Client[T]) readMessages() error {
	for {
		if _, _, err := cli.ws.ReadMessage(); err != nil {
			return err
		}
	}
}

// publish owns every write: it pings on a ticker and flushes the latest pending update
// once per publication period.
func (cli *Client[T]) publish(ctx context.Context, pongs <-chan struct{}) error {
	pinger := channerics.NewTicker(ctx.Done(), pingResolution)
	flusher := channerics.NewTicker(ctx.Done(), pubResolution)
	lastPong := time.Now()

	var pending *T
	updates := cli.updates
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-pongs:
			lastPong = time.Now()
		case <-pinger:
			if time.Since(lastPong) > pongWait {
				return ErrPongDeadlineExceeded
			}
			if err := cli.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return fmt.Errorf("ping failed: %w", err)
			}
		case update, ok := <-updates:
			if !ok {
				// The source is exhausted; keep the connection alive for the last state.
				updates = nil
				continue
			}
			pending = &update
		case <-flusher:
			if pending == nil {
				continue
			}
			if err := cli.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return fmt.Errorf("failed to set deadline: %w", err)
			}
			if err := cli.ws.WriteJSON(*pending); err != nil {
				return fmt.Errorf("publish failed: %w", err)
			}
			pending = nil
		}
	}
}

func (cli *Client[T]) close() {
	_ = cli.ws.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(closeGracePeriod))
	cli.ws.Close()
}

func isClosure(err error) bool {
	return err != nil && websocket.IsCloseError(
		err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway)
}
