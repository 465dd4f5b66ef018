package ws

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeTimeout = 5 * time.Second
	readTimeout  = 60 * time.Second
	outQueue     = 16
)

var ErrClosed = errors.New("connection closed")

// Conn wraps a websocket connection with one reader and one writer
// goroutine. Frames travel as raw bytes; decoding belongs to the caller.
type Conn struct {
	conn *websocket.Conn
	log  *logrus.Entry

	in   chan []byte
	out  chan []byte
	done chan struct{}

	once sync.Once
	mu   sync.Mutex
	err  error
}

// Dial connects to url. header may carry an Origin for servers that check
// it.
func Dial(ctx context.Context, url string, header http.Header, log *logrus.Entry) (*Conn, error) {
	d := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		ReadBufferSize:   64 * 1024,
		WriteBufferSize:  64 * 1024,
		Proxy:            http.ProxyFromEnvironment,
	}
	conn, _, err := d.DialContext(ctx, url, header)
	if err != nil {
		return nil, err
	}
	return newConn(conn, log), nil
}

func newConn(conn *websocket.Conn, log *logrus.Entry) *Conn {
	c := &Conn{
		conn: conn,
		log:  log,
		in:   make(chan []byte, 64),
		out:  make(chan []byte, outQueue),
		done: make(chan struct{}),
	}
	go c.readLoop()
	go c.writeLoop()
	return c
}

// Inbound delivers text frames in arrival order. It is closed when the
// connection ends.
func (c *Conn) Inbound() <-chan []byte { return c.in }

// Done is closed when the connection has failed or been closed.
func (c *Conn) Done() <-chan struct{} { return c.done }

// Err reports why the connection ended.
func (c *Conn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Send queues one frame. It blocks while the writer is behind, until ctx
// is done or the connection ends.
func (c *Conn) Send(ctx context.Context, b []byte) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.out <- b:
		return nil
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Conn) Close() error {
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	c.fail(ErrClosed)
	return nil
}

func (c *Conn) fail(err error) {
	c.once.Do(func() {
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *Conn) readLoop() {
	defer close(c.in)
	for {
		_ = c.conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if c.log != nil && !errors.Is(err, ErrClosed) && !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				c.log.WithError(err).Debug("read ended")
			}
			c.fail(err)
			return
		}
		select {
		case c.in <- msg:
		case <-c.done:
			return
		}
	}
}

func (c *Conn) writeLoop() {
	for {
		select {
		case <-c.done:
			return
		case b := <-c.out:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				c.fail(err)
				return
			}
		}
	}
}
