package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"toolsmith_server/internal/build"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const wsWriteWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// No cookies or sessions ride on this socket.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// POST /api/build
func (h *APIHandler) Build(c *gin.Context) {
	var req build.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	// Once started, a build runs to completion even if the client goes away.
	res, err := h.builder.Build(context.WithoutCancel(c.Request.Context()), req, nil)
	if errors.Is(err, build.ErrInvalidRequest) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Build failed: " + err.Error(), "log": res.Log})
		return
	}
	c.JSON(http.StatusCreated, res)
}

// GET /api/build/ws
// The first client message is the build request; every state transition is
// sent back as one JSON event and the socket closes after the terminal event.
func (h *APIHandler) BuildSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	var req build.Request
	if err := conn.ReadJSON(&req); err != nil {
		log.Printf("WebSocket read error: %v", err)
		writeClose(conn, websocket.CloseUnsupportedData, "expected a build request")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A read error means the client went away; stop the build.
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Printf("WebSocket read error: %v", err)
				}
				cancel()
				return
			}
		}
	}()

	var mu sync.Mutex
	send := func(e build.Event) {
		mu.Lock()
		defer mu.Unlock()
		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(e); err != nil {
			log.Printf("WebSocket write error: %v", err)
		}
	}

	if err := build.Validate(&req); err != nil {
		send(build.Event{State: build.StateFailed, Error: err.Error()})
		writeClose(conn, websocket.ClosePolicyViolation, "invalid build request")
		return
	}

	if _, err := h.builder.Build(ctx, req, send); err != nil {
		writeClose(conn, websocket.CloseNormalClosure, "build failed")
		return
	}
	writeClose(conn, websocket.CloseNormalClosure, "build completed")
}

func writeClose(conn *websocket.Conn, code int, text string) {
	msg := websocket.FormatCloseMessage(code, text)
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(wsWriteWait)); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		log.Printf("WebSocket close error: %v", err)
	}
}
