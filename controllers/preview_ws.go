package controller

import (
	"log"

	"github.com/gofiber/websocket/v2"

	"glowreach/engine"
)

// HandlePreviewWS streams every preview change to the connected client.
// The client may also push partial edits over the same socket.
func (pc *PreviewController) HandlePreviewWS(c *websocket.Conn) {
	defer c.Close()

	updates := make(chan engine.Preview, 16)
	unsubscribe := pc.Manager.OnUpdate(func(p engine.Preview) {
		select {
		case updates <- p:
		default:
			// Slow client, drop rather than block the manager
		}
	})
	defer unsubscribe()

	done := make(chan struct{})

	// Reader: accept inline edits until the client hangs up
	go func() {
		defer close(done)
		for {
			var msg struct {
				MessageID string               `json:"message_id"`
				Action    string               `json:"action"` // update, optimize
				Update    engine.PreviewUpdate `json:"update"`
			}
			if err := c.ReadJSON(&msg); err != nil {
				return
			}

			switch msg.Action {
			case "update":
				pc.Manager.UpdatePreview(msg.MessageID, msg.Update)
			case "optimize":
				pc.Manager.OptimizePreview(msg.MessageID)
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case preview := <-updates:
			if err := c.WriteJSON(preview); err != nil {
				log.Printf("PREVIEW: error writing JSON: %v", err)
				return
			}
		}
	}
}
