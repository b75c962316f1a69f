package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/yuu551/plc-control/internal/models"
)

// RecordFeed tails the command record stream for the live view.
type RecordFeed interface {
	LatestID(ctx context.Context) (string, error)
	ListSince(ctx context.Context, afterID string, limit int) ([]models.CommandRecord, error)
}

type LiveHandler struct {
	records RecordFeed
}

func NewLiveHandler(records RecordFeed) *LiveHandler {
	return &LiveHandler{records: records}
}

// UpgradeCheck is middleware that checks if the request is a websocket upgrade
func (h *LiveHandler) UpgradeCheck() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

// Feed pushes newly persisted command records to the operator UI.
// Only records created after the connection opened are delivered;
// history stays behind the paginated endpoint.
func (h *LiveHandler) Feed() fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		ctx := context.Background()

		lastID, err := h.records.LatestID(ctx)
		if err != nil {
			c.WriteMessage(websocket.TextMessage, []byte("Error: failed to open command feed"))
			return
		}

		done := make(chan struct{})

		// Reader only detects the peer going away.
		go func() {
			for {
				if _, _, err := c.ReadMessage(); err != nil {
					close(done)
					return
				}
			}
		}()

		slog.Info("Live command feed opened")

		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				slog.Info("Live command feed closed")
				return
			case <-ticker.C:
				records, err := h.records.ListSince(ctx, lastID, 50)
				if err != nil {
					slog.Warn("Live feed poll failed", "error", err)
					continue
				}
				for i := range records {
					payload, err := json.Marshal(records[i])
					if err != nil {
						continue
					}
					if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
						return
					}
					lastID = records[i].ID
				}
			}
		}
	})
}
