package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"enrichd/internal/ledger"
)

func TestConfigInitWritesSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "enrichd.toml")

	cmd := newRootCommand()
	cmd.SetArgs([]string{"config", "init", "--config", path})
	var out bytes.Buffer
	cmd.SetOut(&out)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config init failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("sample not written: %v", err)
	}
	if !strings.Contains(string(data), "[aristote]") {
		t.Fatalf("sample missing aristote section: %s", data)
	}

	// A second init without --force must refuse to overwrite.
	rerun := newRootCommand()
	rerun.SetArgs([]string{"config", "init", "--config", path})
	rerun.SetOut(&out)
	rerun.SetErr(&out)
	if err := rerun.Execute(); err == nil {
		t.Fatal("expected refusal to overwrite existing config")
	}
}

func TestFormatLanguage(t *testing.T) {
	cases := []struct {
		code string
		want string
	}{
		{"", "auto-detect"},
		{"fr", "fr (French)"},
		{"en", "en (English)"},
		{"zz", "zz"},
	}
	for _, tc := range cases {
		if got := formatLanguage(tc.code); got != tc.want {
			t.Errorf("formatLanguage(%q) = %q, want %q", tc.code, got, tc.want)
		}
	}
}

func TestFormatStats(t *testing.T) {
	if got := formatStats(nil); got != "no tracked requests" {
		t.Errorf("empty stats rendered %q", got)
	}

	got := formatStats(map[ledger.Status]int{
		ledger.StatusSuccess: 2,
		ledger.StatusPending: 1,
	})
	if got != "PENDING=1 SUCCESS=2" {
		t.Errorf("unexpected stats line %q", got)
	}
}
