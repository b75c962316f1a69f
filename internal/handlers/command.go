package handlers

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/yuu551/plc-control/internal/audit"
	"github.com/yuu551/plc-control/internal/crypto"
	"github.com/yuu551/plc-control/internal/models"
	"github.com/yuu551/plc-control/internal/plc"
)

// RecordLister pages through a caller's command records.
type RecordLister interface {
	ListByOwner(ctx context.Context, owner string, page, perPage int) ([]models.CommandRecord, int64, error)
}

// ParameterWriter stores already-encrypted parameter values.
type ParameterWriter interface {
	Upsert(ctx context.Context, name, encryptedValue string) error
}

type CommandHandler struct {
	gateway *plc.Gateway
	records RecordLister
	params  ParameterWriter
	enc     *crypto.Encryptor
	sink    plc.AuditSink
	prefix  string
}

func NewCommandHandler(gateway *plc.Gateway, records RecordLister, params ParameterWriter, enc *crypto.Encryptor, sink plc.AuditSink, prefix string) *CommandHandler {
	return &CommandHandler{
		gateway: gateway,
		records: records,
		params:  params,
		enc:     enc,
		sink:    sink,
		prefix:  prefix,
	}
}

// principalFrom derives the request principal once from the verified
// claims and the peer address.
func principalFrom(c *fiber.Ctx) plc.Principal {
	username, _ := c.Locals("username").(string)
	email, _ := c.Locals("email").(string)
	return plc.Principal{
		UserID:        username,
		Email:         email,
		SourceAddress: c.IP(),
	}
}

// Submit runs one PLC command through the gateway and returns the
// persisted record, or a structured error for exactly one failed stage.
func (h *CommandHandler) Submit(c *fiber.Ctx) error {
	var cmd plc.PlcCommand
	if err := c.BodyParser(&cmd); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid request body",
		})
	}

	record, err := h.gateway.Submit(c.UserContext(), principalFrom(c), cmd)
	if err != nil {
		return commandError(c, err)
	}
	return c.JSON(record)
}

func commandError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError

	var (
		validationErr *plc.ValidationError
		executionErr  *plc.ExecutionError
	)
	switch {
	case errors.As(err, &validationErr):
		status = fiber.StatusBadRequest
	case errors.As(err, &executionErr):
		status = fiber.StatusBadGateway
	}

	return c.Status(status).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// History lists the caller's own command records, newest first.
func (h *CommandHandler) History(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	perPage, _ := strconv.Atoi(c.Query("per_page", "50"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 50
	}

	owner, _ := c.Locals("username").(string)
	records, total, err := h.records.ListByOwner(c.UserContext(), owner, page, perPage)
	if err != nil {
		slog.Error("Failed to list command history", "owner", owner, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to list command history",
		})
	}

	return c.JSON(fiber.Map{
		"history":  records,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	})
}

// UpdateParameters encrypts and stores the device connection
// parameters. Only names are audited, never values.
func (h *CommandHandler) UpdateParameters(c *fiber.Ctx) error {
	var req struct {
		IPAddress string `json:"ip_address"`
		MQTTTopic string `json:"mqtt_topic"`
		GatewayID string `json:"gateway_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid request body",
		})
	}

	updates := map[string]string{}
	if req.IPAddress != "" {
		updates[h.prefix+"/"+plc.SuffixDeviceAddress] = req.IPAddress
	}
	if req.MQTTTopic != "" {
		updates[h.prefix+"/"+plc.SuffixTopic] = req.MQTTTopic
	}
	if req.GatewayID != "" {
		updates[h.prefix+"/"+plc.SuffixGatewayID] = req.GatewayID
	}
	if len(updates) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "At least one parameter is required",
		})
	}

	names := make([]string, 0, len(updates))
	for name, value := range updates {
		encrypted, err := h.enc.Encrypt(value)
		if err != nil {
			slog.Error("Failed to encrypt parameter", "name", name, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   true,
				"message": "Failed to encrypt parameter",
			})
		}
		if err := h.params.Upsert(c.UserContext(), name, encrypted); err != nil {
			slog.Error("Failed to store parameter", "name", name, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   true,
				"message": "Failed to store parameter",
			})
		}
		names = append(names, name)
	}
	sort.Strings(names)

	p := principalFrom(c)
	if err := h.sink.Append(c.UserContext(), audit.Event{
		UserID:    p.UserID,
		UserEmail: p.Email,
		Action:    audit.ActionParameterUpdate,
		Timestamp: time.Now().UTC(),
		SourceIP:  p.SourceAddress,
		Result:    strings.Join(names, ", "),
	}); err != nil {
		slog.Error("audit append failed", "action", audit.ActionParameterUpdate, "error", err)
	}

	return c.JSON(fiber.Map{"updated": names})
}
