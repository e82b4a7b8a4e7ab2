package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StatePath != "state" || cfg.Columns != 2 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.ActionTTL() != 15*time.Minute {
		t.Errorf("ActionTTL = %v, want 15m", cfg.ActionTTL())
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minder.yaml")
	content := `
state_path: /var/lib/minder
timezone: Europe/Berlin
columns: 3
action_ttl_seconds: 600
discord:
  channel_id: "123"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StatePath != "/var/lib/minder" || cfg.Timezone != "Europe/Berlin" || cfg.Columns != 3 {
		t.Errorf("yaml not merged: %+v", cfg)
	}
	if cfg.Discord.ChannelID != "123" {
		t.Errorf("nested yaml not merged: %+v", cfg.Discord)
	}
	if cfg.ActionTTL() != 10*time.Minute {
		t.Errorf("ActionTTL = %v, want 10m", cfg.ActionTTL())
	}
	// untouched fields keep defaults
	if cfg.WizardTimeoutSeconds != 900 {
		t.Errorf("WizardTimeoutSeconds = %d, want default 900", cfg.WizardTimeoutSeconds)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minder.yaml")
	if err := os.WriteFile(path, []byte("state_path: from-file\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("STATE_PATH", "from-env")
	t.Setenv("DISCORD_TOKEN", "secret")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StatePath != "from-env" {
		t.Errorf("StatePath = %q, want env to win", cfg.StatePath)
	}
	if cfg.Discord.Token != "secret" {
		t.Errorf("Token = %q", cfg.Discord.Token)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"columns":  "columns: 0\n",
		"ttl":      "action_ttl_seconds: -5\n",
		"timezone": "timezone: Mars/Olympus_Mons\n",
		"syntax":   "{{not yaml\n",
	}
	for name, content := range cases {
		path := filepath.Join(dir, name+".yaml")
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Errorf("%s: Load accepted bad config", name)
		}
	}
}
