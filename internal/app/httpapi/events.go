package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/SolMeet-Labs/access_layer/internal/app/domain/subscription"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// events streams access state changes over a websocket. The current state
// is sent on connect, then one message per transition.
func (h *handler) events(c *gin.Context) {
	controller, ok := h.controller(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithContext(c.Request.Context()).WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	updates := make(chan subscription.AccessState, 8)
	cancel := controller.Watch(func(state subscription.AccessState) {
		select {
		case updates <- state:
		default:
			// Slow consumers drop intermediate states; they can always
			// re-read the current state.
		}
	})
	defer cancel()

	if err := conn.WriteJSON(controller.State()); err != nil {
		return
	}

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case state := <-updates:
			if err := conn.WriteJSON(state); err != nil {
				return
			}
		case <-closed:
			return
		case <-c.Request.Context().Done():
			return
		}
	}
}
