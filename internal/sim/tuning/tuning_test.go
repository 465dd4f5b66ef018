package tuning

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_EmptyPathGivesDefaults(t *testing.T) {
	got, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := got.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if got.TickInterval() != time.Second/16 || got.InputInterval() != time.Second/16 {
		t.Fatalf("intervals: %v %v", got.TickInterval(), got.InputInterval())
	}
	if got.TileRequestSize != 50 || got.ChunkSize != 128 {
		t.Fatalf("got %+v", got)
	}
	if got.NotifyGrace() != 10*time.Second {
		t.Fatalf("grace=%v", got.NotifyGrace())
	}
	if got.Pathfinding.MaxExpanded != 50000 {
		t.Fatalf("searches must be bounded by default, max_expanded=%d", got.Pathfinding.MaxExpanded)
	}
}

func TestShippedConfigBoundsSearch(t *testing.T) {
	got, err := Load(filepath.Join("..", "..", "..", "configs", "tuning.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Pathfinding.MaxExpanded <= 0 {
		t.Fatalf("max_expanded=%d", got.Pathfinding.MaxExpanded)
	}
	if got != Defaults() {
		t.Fatalf("shipped config drifted from defaults:\n%+v\n%+v", got, Defaults())
	}
}

func TestLoad_OverridesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "tuning.yaml")
	body := `
server_url: ws://localhost:2626/gameUpdate
tick_rate_hz: 8
pathfinding:
  wall_weight: 10
  max_expanded: 20000
logging:
  level: " DEBUG "
  format: JSON
`
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.TickRateHz != 8 || got.InputRateHz != 16 {
		t.Fatalf("rates: %d %d", got.TickRateHz, got.InputRateHz)
	}
	if got.Pathfinding.WallWeight != 10 || got.Pathfinding.StepWeight != 1 || got.Pathfinding.MaxExpanded != 20000 {
		t.Fatalf("pathfinding: %+v", got.Pathfinding)
	}
	if got.Logging.Level != "debug" || got.Logging.Format != "json" {
		t.Fatalf("logging: %+v", got.Logging)
	}
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"scheme":  "server_url: http://example.com\n",
		"format":  "logging:\n  format: xml\n",
		"radius":  "pathfinding:\n  hazard_radius: -1\n",
		"tiles":   "tile_request_size: -5\n",
		"badyaml": "tick_rate_hz: [\n",
	}
	for name, body := range cases {
		p := filepath.Join(dir, name+".yaml")
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := Load(p); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error")
	}
}
