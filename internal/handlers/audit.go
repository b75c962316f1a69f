package handlers

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/yuu551/plc-control/internal/audit"
)

// Querier reads the audit trail back for review.
type Querier interface {
	Query(ctx context.Context, start, end *time.Time, limit int, nextToken string) (*audit.QueryResult, error)
}

type AuditHandler struct {
	query Querier
}

func NewAuditHandler(query Querier) *AuditHandler {
	return &AuditHandler{query: query}
}

// ListAuditLogs returns a time-bounded page of the audit trail.
// start_time and end_time are inclusive RFC 3339 timestamps; limit
// defaults to 100 and is server-clamped.
func (h *AuditHandler) ListAuditLogs(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", strconv.Itoa(audit.DefaultLimit)))
	nextToken := c.Query("next_token", "")

	var start, end *time.Time
	if v := c.Query("start_time"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   true,
				"message": "start_time must be an RFC 3339 timestamp",
			})
		}
		start = &t
	}
	if v := c.Query("end_time"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   true,
				"message": "end_time must be an RFC 3339 timestamp",
			})
		}
		end = &t
	}

	result, err := h.query.Query(c.UserContext(), start, end, limit, nextToken)
	if err != nil {
		slog.Error("Failed to query audit logs", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to query audit logs",
		})
	}
	return c.JSON(result)
}
