package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/yuu551/plc-control/internal/audit"
	"github.com/yuu551/plc-control/internal/middleware"
	"github.com/yuu551/plc-control/internal/models"
	"github.com/yuu551/plc-control/internal/plc"
)

const testSecret = "test-secret"

type stubResolver struct{}

func (stubResolver) Resolve(ctx context.Context) (plc.SecureParameters, error) {
	return plc.SecureParameters{DeviceAddress: "10.0.0.5", Topic: "factory/line1", GatewayID: "gw-01"}, nil
}

type stubExecutor struct{}

func (stubExecutor) Execute(ctx context.Context, params plc.SecureParameters, cmd plc.PlcCommand) (plc.ExecResult, error) {
	return plc.ExecResult{Status: plc.StatusSuccess, Value: "OK", Message: "Command executed successfully"}, nil
}

type memWriter struct {
	records []*models.CommandRecord
}

func (m *memWriter) Write(ctx context.Context, record *models.CommandRecord) error {
	m.records = append(m.records, record)
	return nil
}

type memSink struct {
	events []audit.Event
}

func (m *memSink) Append(ctx context.Context, ev audit.Event) error {
	m.events = append(m.events, ev)
	return nil
}

func newTestApp() (*fiber.App, *memWriter, *memSink) {
	writer := &memWriter{}
	sink := &memSink{}
	gateway := plc.NewGateway(stubResolver{}, stubExecutor{}, writer, sink, time.Second)
	handler := NewCommandHandler(gateway, nil, nil, nil, sink, "/plc/secure")

	app := fiber.New()
	api := app.Group("/api", middleware.JWTProtected(testSecret))
	api.Post("/plc/command", handler.Submit)
	return app, writer, sink
}

func bearerToken(t *testing.T, username string) string {
	t.Helper()
	access, _, err := middleware.GenerateTokens(username, username+"@example.com", testSecret, username, "operator")
	if err != nil {
		t.Fatalf("GenerateTokens: %v", err)
	}
	return "Bearer " + access
}

func TestSubmitEndToEnd(t *testing.T) {
	app, writer, sink := newTestApp()

	payload := []byte(`{"command":"write","value":"100","area":"DM","address":"31000"}`)
	req := httptest.NewRequest("POST", "/api/plc/command", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearerToken(t, "alice"))

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var record models.CommandRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if record.Owner != "alice" || record.Status != plc.StatusSuccess || record.Value != "100" {
		t.Fatalf("unexpected record: %+v", record)
	}

	if len(writer.records) != 1 {
		t.Fatalf("expected 1 persisted record, got %d", len(writer.records))
	}
	if len(sink.events) != 1 || sink.events[0].Action != audit.ActionCommand || sink.events[0].Result != plc.StatusSuccess {
		t.Fatalf("expected one success audit event, got %+v", sink.events)
	}
}

func TestSubmitValidationFailure(t *testing.T) {
	app, writer, sink := newTestApp()

	req := httptest.NewRequest("POST", "/api/plc/command", bytes.NewReader([]byte(`{"command":"write"}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearerToken(t, "alice"))

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if len(writer.records) != 0 {
		t.Fatal("validation failure must not persist a record")
	}
	if len(sink.events) != 0 {
		t.Fatal("validation failure must not be audited")
	}
}

func TestSubmitRequiresAuth(t *testing.T) {
	app, _, _ := newTestApp()

	req := httptest.NewRequest("POST", "/api/plc/command", bytes.NewReader([]byte(`{"command":"read","value":"1"}`)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}
