package core

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

type LiveReloaderInterface interface {
	BroadcastReload()
	Handler(http.ResponseWriter, *http.Request)
}

// LiveReloader keeps the browser tabs opened in dev mode and tells them to
// reload when a template or static file changes.
type LiveReloader struct {
	clients  map[*websocket.Conn]bool
	lock     sync.Mutex
	upgrader websocket.Upgrader
}

var NewLiveReloader = func() LiveReloaderInterface {
	return &LiveReloader{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (lr *LiveReloader) Handler(w http.ResponseWriter, r *http.Request) {
	conn, err := lr.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("live reload upgrade failed", "error", err)
		return
	}

	lr.lock.Lock()
	lr.clients[conn] = true
	lr.lock.Unlock()

	go func() {
		defer func() {
			lr.lock.Lock()
			delete(lr.clients, conn)
			lr.lock.Unlock()
			conn.Close()
		}()

		for {
			if _, _, err := conn.NextReader(); err != nil {
				break
			}
		}
	}()
}

func (lr *LiveReloader) BroadcastReload() {
	lr.lock.Lock()
	defer lr.lock.Unlock()

	for conn := range lr.clients {
		if err := conn.WriteMessage(websocket.TextMessage, []byte("reload")); err != nil {
			conn.Close()
			delete(lr.clients, conn)
		}
	}
}

func (lr *LiveReloader) ClientCount() int {
	lr.lock.Lock()
	defer lr.lock.Unlock()
	return len(lr.clients)
}
