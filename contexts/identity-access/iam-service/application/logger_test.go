package application

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"keystone/contexts/identity-access/iam-service/ports"
)

func TestNilLoggerStaysSilent(t *testing.T) {
	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer slog.SetDefault(previous)

	_, permissions, _, _ := newServices()
	if _, err := permissions.Create(context.Background(), ports.PermissionCreate{
		Module: "billing",
		Action: "read",
	}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := permissions.Delete(context.Background(), 1); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if buf.Len() != 0 {
		t.Fatalf("expected no output on the process default logger, got %q", buf.String())
	}
}

func TestInjectedLoggerReceivesEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	store, _, _, _ := newServices()
	permissions := PermissionService{Repo: store, Clock: store, Logger: logger}
	if _, err := permissions.Create(context.Background(), ports.PermissionCreate{
		Module: "billing",
		Action: "read",
	}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if !bytes.Contains(buf.Bytes(), []byte("iam_permission_created")) {
		t.Fatalf("expected create event on injected logger, got %q", buf.String())
	}
}
