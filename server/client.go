package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/becomeliminal/cortica-go/core"
	"github.com/becomeliminal/cortica-go/cortex"
)

const (
	maxMessageSize = 64 * 1024
	readTimeout    = 60 * time.Second
	writeTimeout   = 10 * time.Second
	pingInterval   = 30 * time.Second
)

// client is one WebSocket connection and the session memory it owns.
type client struct {
	id     string
	conn   *websocket.Conn
	memory *cortex.Cortex
	send   chan []byte
	logger *slog.Logger
}

func newClient(conn *websocket.Conn, memory *cortex.Cortex, logger *slog.Logger) *client {
	id := uuid.NewString()
	return &client{
		id:     id,
		conn:   conn,
		memory: memory,
		send:   make(chan []byte, 64),
		logger: logger.With("session", id),
	}
}

// run serves the connection until it closes. Frames are handled in arrival
// order on the read goroutine.
func (c *client) run(ctx context.Context) {
	go c.writePump()
	c.readPump(ctx)
}

func (c *client) readPump(ctx context.Context) {
	defer func() {
		close(c.send)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", "error", err)
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(readTimeout))

		c.reply(c.handleFrame(ctx, data))
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) reply(resp *Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		c.logger.Error("marshal response failed", "error", err)
		return
	}
	select {
	case c.send <- data:
	default:
		c.logger.Warn("send buffer full, dropping response", "request", resp.ID)
	}
}

func (c *client) handleFrame(ctx context.Context, data []byte) *Response {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return errorResponse("", core.Validationf("server.decode", "malformed request: %v", err))
	}

	c.logger.Debug("handling request", "op", req.Op, "request", req.ID)

	resp, err := c.dispatch(ctx, &req)
	if err != nil {
		if core.KindOf(err) == "" {
			c.logger.Warn("request failed", "op", req.Op, "request", req.ID, "error", err)
		}
		return errorResponse(req.ID, err)
	}
	resp.ID = req.ID
	resp.OK = true
	return resp
}

func (c *client) dispatch(ctx context.Context, req *Request) (*Response, error) {
	switch req.Op {
	case OpRemember:
		id, err := c.memory.Remember(ctx, req.Text, req.Metadata)
		if err != nil {
			return nil, err
		}
		return &Response{MemoryID: id}, nil

	case OpQuery:
		results, err := c.memory.Query(ctx, req.Text, req.K)
		if err != nil {
			return nil, err
		}
		return &Response{Results: results}, nil

	case OpContext:
		p, err := c.memory.BuildContextPrompt(ctx, req.Text, req.Budget)
		if err != nil {
			return nil, err
		}
		return &Response{Prompt: p}, nil

	case OpReinforce:
		if err := c.memory.Reinforce(req.MemoryID); err != nil {
			return nil, err
		}
		return &Response{MemoryID: req.MemoryID}, nil

	case OpRemove:
		if err := c.memory.Remove(ctx, req.MemoryID); err != nil {
			return nil, err
		}
		return &Response{MemoryID: req.MemoryID}, nil

	case OpEvict:
		n, err := c.memory.Evict(ctx, req.Strength)
		if err != nil {
			return nil, err
		}
		return &Response{Removed: n}, nil

	case OpProfile:
		snap := c.memory.Profile()
		return &Response{Profile: &snap, Summary: c.memory.ProfileSummary()}, nil
	}

	return nil, core.Validationf("server.dispatch", "unknown op %q", req.Op)
}
