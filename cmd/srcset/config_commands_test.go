package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	tmp := t.TempDir()
	target := filepath.Join(tmp, "config.toml")
	out, _, err = runCLI(t, []string{"config", "new", "--path", target}, "")
	if err != nil {
		t.Fatalf("config new: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	_, _, err = runCLI(t, []string{"config", "new", "--path", target}, "")
	if err == nil {
		t.Fatal("expected new without --overwrite to refuse an existing file")
	}
	if _, _, err = runCLI(t, []string{"config", "new", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config new --overwrite: %v", err)
	}

	// The old spelling keeps working as an alias.
	aliasTarget := filepath.Join(tmp, "alias.toml")
	if _, _, err = runCLI(t, []string{"config", "init", "--path", aliasTarget}, ""); err != nil {
		t.Fatalf("config init alias: %v", err)
	}
}

func TestConfigShow(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, env.configPath)
	requireContains(t, out, "[paths]")
	requireContains(t, out, env.mediaDir)
	requireContains(t, out, "[profiles.default]")
}

func TestConfigPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	out, _, err := runCLI(t, []string{"config", "path"}, "")
	if err != nil {
		t.Fatalf("config path: %v", err)
	}
	requireContains(t, out, filepath.Join(".config", "srcset", "config.toml"))
}
