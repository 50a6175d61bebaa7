package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/urfave/cli/v3"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
log_level: debug
log_format: json
server_address: 0.0.0.0:9000
max_upload_bytes: 1048576
read_timeout: 45s
`)
	cfg, err := LoadConfig(path, true)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	want := Config{
		LogLevel:       "debug",
		LogFormat:      "json",
		ServerAddress:  "0.0.0.0:9000",
		MaxUploadBytes: 1 << 20,
		ReadTimeout:    45 * time.Second,
	}
	if cfg != want {
		t.Fatalf("config: got %+v want %+v", cfg, want)
	}
}

func TestLoadConfigMissing(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "absent.yaml")
	cfg, err := LoadConfig(path, false)
	if err != nil {
		t.Fatalf("missing default config should not fail: %v", err)
	}
	if cfg != (Config{}) {
		t.Fatalf("expected zero config, got %+v", cfg)
	}
	if _, err := LoadConfig(path, true); err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "log_level: [unterminated\n")
	if _, err := LoadConfig(path, false); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestApplyServeConfig(t *testing.T) {
	t.Parallel()

	cfg := Config{
		ServerAddress:  "0.0.0.0:9000",
		MaxUploadBytes: 1024,
		ReadTimeout:    time.Minute,
	}

	tests := []struct {
		name        string
		args        []string
		wantAddr    string
		wantMax     int64
		wantTimeout time.Duration
	}{
		{"config fills unset flags", nil, "0.0.0.0:9000", 1024, time.Minute},
		{"flags win", []string{"--addr", ":1", "--max-upload-bytes", "7"}, ":1", 7, time.Minute},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var (
				addr      string
				maxUpload int64
				timeout   time.Duration
			)
			cmd := &cli.Command{
				Name: "serve",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "addr", Value: "127.0.0.1:8080", Destination: &addr},
					&cli.Int64Flag{Name: "max-upload-bytes", Value: 64, Destination: &maxUpload},
					&cli.DurationFlag{Name: "read-timeout", Value: time.Second, Destination: &timeout},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					applyServeConfig(c, cfg, &addr, &maxUpload, &timeout)
					return nil
				},
			}
			if err := cmd.Run(context.Background(), append([]string{"serve"}, tc.args...)); err != nil {
				t.Fatalf("run: %v", err)
			}
			if addr != tc.wantAddr || maxUpload != tc.wantMax || timeout != tc.wantTimeout {
				t.Fatalf("got addr=%q max=%d timeout=%s", addr, maxUpload, timeout)
			}
		})
	}
}
