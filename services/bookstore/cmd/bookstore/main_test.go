package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeRunConfig(t *testing.T, port, extra string) string {
	t.Helper()
	for _, env := range []string{"PORT", "DATABASE_DRIVER", "DATABASE_URL", "REDIS_ADDR", "JWT_KEY", "TRUSTED_PROXIES"} {
		t.Setenv(env, "")
	}
	dir := t.TempDir()
	content := fmt.Sprintf("port: %q\nlogLevel: \"error\"\ndatabaseDriver: \"sqlite\"\ndatabaseURL: %q\njwtKey: \"main test signing key, long enough\"\n%s",
		port, filepath.Join(dir, "bookstore.db"), extra)
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestRunReturnsStartupErrors(t *testing.T) {
	if err := run(context.Background(), filepath.Join(t.TempDir(), "absent.yaml")); err == nil || !strings.Contains(err.Error(), "load config") {
		t.Fatalf("missing config: err = %v", err)
	}
	path := writeRunConfig(t, "0", "trustedProxies: [\"not-an-ip\"]\n")
	if err := run(context.Background(), path); err == nil || !strings.Contains(err.Error(), "trusted proxies") {
		t.Fatalf("bad trusted proxies: err = %v", err)
	}
}

func TestRunReturnsServeError(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	port := fmt.Sprint(ln.Addr().(*net.TCPAddr).Port)

	if err := run(context.Background(), writeRunConfig(t, port, "")); err == nil || !strings.Contains(err.Error(), "serve") {
		t.Fatalf("occupied port: err = %v", err)
	}
}

func TestRunStopsCleanlyOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := run(ctx, writeRunConfig(t, "0", "")); err != nil {
		t.Fatalf("cancelled run: %v", err)
	}
}
