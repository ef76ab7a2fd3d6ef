package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(
		"[paths]\ndata_dir = %q\nlog_dir = %q\n",
		filepath.Join(base, "data"),
		filepath.Join(base, "logs"),
	)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write test config: %v", err)
	}
	return configPath
}

func runCLI(t *testing.T, configPath, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if stdin != "" {
		cmd.SetIn(strings.NewReader(stdin))
	}
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCLIImportProcessJoke(t *testing.T) {
	configPath := writeTestConfig(t)

	stdout, _, err := runCLI(t, configPath, "a joke delivered entirely through the pipeline\n",
		"import", "--source", "user-offline-1")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(stdout, "Imported 1 items") {
		t.Fatalf("unexpected import output: %s", stdout)
	}

	stdout, _, err = runCLI(t, configPath, "", "process")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !strings.Contains(stdout, "Accepted 1 items") {
		t.Fatalf("unexpected process output: %s", stdout)
	}

	stdout, _, err = runCLI(t, configPath, "", "joke", "--mark-played")
	if err != nil {
		t.Fatalf("joke: %v", err)
	}
	if !strings.Contains(stdout, "a joke delivered entirely through the pipeline") {
		t.Fatalf("unexpected joke output: %s", stdout)
	}

	stdout, _, err = runCLI(t, configPath, "", "joke")
	if err != nil {
		t.Fatalf("joke after played: %v", err)
	}
	if !strings.Contains(stdout, "Everything has been played") {
		t.Fatalf("expected played-out message, got: %s", stdout)
	}

	stdout, _, err = runCLI(t, configPath, "", "stats")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !strings.Contains(stdout, "1 total, 0 unplayed") {
		t.Fatalf("unexpected stats output: %s", stdout)
	}
}

func TestCLIQueueStatusEmpty(t *testing.T) {
	configPath := writeTestConfig(t)

	stdout, _, err := runCLI(t, configPath, "", "queue", "status")
	if err != nil {
		t.Fatalf("queue status: %v", err)
	}
	if !strings.Contains(stdout, "Total: 0") {
		t.Fatalf("unexpected status output: %s", stdout)
	}
}

func TestCLISourcesBootstrapAndList(t *testing.T) {
	configPath := writeTestConfig(t)

	stdout, _, err := runCLI(t, configPath, "", "sources", "bootstrap")
	if err != nil {
		t.Fatalf("sources bootstrap: %v", err)
	}
	if !strings.Contains(stdout, "builtin sources") {
		t.Fatalf("unexpected bootstrap output: %s", stdout)
	}

	stdout, _, err = runCLI(t, configPath, "", "sources", "list")
	if err != nil {
		t.Fatalf("sources list: %v", err)
	}
	if !strings.Contains(stdout, "builtin-daily") {
		t.Fatalf("expected builtin-daily in listing, got: %s", stdout)
	}
}

func TestCLISourcesAddOffline(t *testing.T) {
	configPath := writeTestConfig(t)

	stdout, _, err := runCLI(t, configPath, "", "sources", "add", "--name", "My Pastes", "--offline")
	if err != nil {
		t.Fatalf("sources add: %v", err)
	}
	if !strings.Contains(stdout, "user_offline") {
		t.Fatalf("unexpected add output: %s", stdout)
	}
}

func TestCLIFetchLocalCatalog(t *testing.T) {
	configPath := writeTestConfig(t)

	if _, _, err := runCLI(t, configPath, "", "sources", "bootstrap"); err != nil {
		t.Fatalf("sources bootstrap: %v", err)
	}

	stdout, _, err := runCLI(t, configPath, "", "fetch", "--limit", "2")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !strings.Contains(stdout, "Fetched") {
		t.Fatalf("unexpected fetch output: %s", stdout)
	}

	stdout, _, err = runCLI(t, configPath, "", "queue", "status")
	if err != nil {
		t.Fatalf("queue status: %v", err)
	}
	if strings.Contains(stdout, "Total: 0") {
		t.Fatalf("expected queued items after fetch, got: %s", stdout)
	}
}

func TestCLIConfigInit(t *testing.T) {
	target := filepath.Join(t.TempDir(), "jokebox.toml")

	stdout, _, err := runCLI(t, "", "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(stdout, target) {
		t.Fatalf("unexpected init output: %s", stdout)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected sample config written: %v", err)
	}

	if _, _, err := runCLI(t, "", "", "config", "init", "--path", target); err == nil {
		t.Fatal("expected refusal to overwrite existing config")
	}
}
