package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFrom_Valid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	body := `{
		"connection_command": "/usr/bin/ssh -o \"StrictHostKeyChecking no\" user@host",
		"pbx_username": "login",
		"pbx_password": "secret"
	}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.ConnectionCommand == "" {
		t.Error("expected connection_command to be set")
	}
	if cfg.PBXUsername != "login" {
		t.Errorf("pbx_username = %q, want %q", cfg.PBXUsername, "login")
	}
	if cfg.PBXPassword != "secret" {
		t.Errorf("pbx_password = %q, want %q", cfg.PBXPassword, "secret")
	}
	if cfg.CommandTimeout.Seconds() != 300 {
		t.Errorf("default CommandTimeout = %v, want 300s", cfg.CommandTimeout)
	}
	if cfg.RuntimeDir != "/tmp" {
		t.Errorf("default RuntimeDir = %q, want /tmp", cfg.RuntimeDir)
	}
}

func TestLoadFrom_MissingFile(t *testing.T) {
	_, err := LoadFrom("/nonexistent/path/config.json")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadFrom_MissingRequiredField(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{"connection_command": "ssh host"}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected error for missing pbx_username/pbx_password")
	}
}

func TestLoadFrom_CommandTimeoutOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{"connection_command": "ssh host", "pbx_username": "u", "pbx_password": "p"}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("PBX_COMMAND_TIMEOUT", "45")
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.CommandTimeout.Seconds() != 45 {
		t.Errorf("CommandTimeout = %v, want 45s", cfg.CommandTimeout)
	}
}

func TestLoadFrom_InvalidCommandTimeout(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{"connection_command": "ssh host", "pbx_username": "u", "pbx_password": "p"}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("PBX_COMMAND_TIMEOUT", "not-a-number")
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected error for invalid PBX_COMMAND_TIMEOUT")
	}
}

func TestLoadFrom_ApplicationRootDefaultsToEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{"connection_command": "ssh host", "pbx_username": "u", "pbx_password": "p"}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("APPLICATION_ROOT", "/")
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.ApplicationRoot != "" {
		t.Errorf("ApplicationRoot = %q, want empty", cfg.ApplicationRoot)
	}
}
