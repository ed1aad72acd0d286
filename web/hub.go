package web

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mogaika/robot_viewer/utils"
	"github.com/mogaika/robot_viewer/viewer"
)

const (
	clientSendBuffer = 256
	pingPeriod       = 30 * time.Second
	writeWait        = 40 * time.Second
)

type client struct {
	name string
	conn *websocket.Conn
	send chan []byte
}

// hub fans scene commands out to every connected browser. A browser that
// connects late first receives a snapshot of the current scene.
type hub struct {
	log   *zap.Logger
	scene *viewer.Scene
	names *utils.RandomNameGenerator

	lock    sync.Mutex
	clients map[*client]bool
}

func newHub(log *zap.Logger, scene *viewer.Scene) *hub {
	return &hub{
		log:     log,
		scene:   scene,
		names:   utils.NewRandomNameGenerator(time.Now().UnixNano()),
		clients: make(map[*client]bool),
	}
}

func (c *client) writePump(h *hub) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		h.unregister(c)
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.log.Debug("ws write msg error", zap.String("client", c.name), zap.Error(err))
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.log.Debug("ws write ping error", zap.String("client", c.name), zap.Error(err))
				return
			}
		}
	}
}

// readPump drains incoming frames so control messages are processed, and
// notices when the browser goes away.
func (c *client) readPump(h *hub) {
	defer h.drop(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// serve registers conn and queues the scene snapshot before any later
// broadcast can reach it.
func (h *hub) serve(conn *websocket.Conn) *client {
	h.lock.Lock()
	snapshot := h.scene.Snapshot()
	c := &client{
		name: h.names.RandomName(),
		conn: conn,
		send: make(chan []byte, len(snapshot)+clientSendBuffer),
	}
	for _, cmd := range snapshot {
		data, err := json.Marshal(cmd)
		if err != nil {
			h.log.Error("Failed to marshal snapshot command", zap.String("path", cmd.Path), zap.Error(err))
			continue
		}
		c.send <- data
	}
	h.clients[c] = true
	h.lock.Unlock()

	h.log.Info("Viewer connected", zap.String("client", c.name), zap.String("remote", conn.RemoteAddr().String()))
	go c.writePump(h)
	go c.readPump(h)
	return c
}

func (h *hub) unregister(c *client) {
	h.lock.Lock()
	defer h.lock.Unlock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
		h.names.Release(c.name)
		h.log.Info("Viewer disconnected", zap.String("client", c.name))
	}
}

func (h *hub) drop(c *client) {
	h.unregister(c)
	c.conn.Close()
}

// broadcast queues cmd on every client. Clients that cannot keep up are
// disconnected instead of stalling the caller.
func (h *hub) broadcast(cmd viewer.Command) error {
	data, err := json.Marshal(cmd)
	if err != nil {
		return err
	}

	h.lock.Lock()
	defer h.lock.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.log.Warn("Viewer too slow, disconnecting", zap.String("client", c.name))
			delete(h.clients, c)
			close(c.send)
			h.names.Release(c.name)
		}
	}
	return nil
}

func (h *hub) clientNames() []string {
	h.lock.Lock()
	defer h.lock.Unlock()
	names := make([]string, 0, len(h.clients))
	for c := range h.clients {
		names = append(names, c.name)
	}
	sort.Strings(names)
	return names
}

func (h *hub) closeAll() {
	h.lock.Lock()
	defer h.lock.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
		h.names.Release(c.name)
	}
}
