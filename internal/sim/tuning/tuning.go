package tuning

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ServerURL string `yaml:"server_url"`

	TickRateHz      int  `yaml:"tick_rate_hz"`
	InputRateHz     int  `yaml:"input_rate_hz"`
	FrameRateHz     int  `yaml:"frame_rate_hz"`
	TileRequestSize int  `yaml:"tile_request_size"`
	ChunkSize       int  `yaml:"chunk_size"`
	ValidateInbound bool `yaml:"validate_inbound"`

	Pathfinding Pathfinding `yaml:"pathfinding"`
	Logging     Logging     `yaml:"logging"`
	Persistence Persistence `yaml:"persistence"`
	Notify      Notify      `yaml:"notify"`
}

type Pathfinding struct {
	StepWeight   int `yaml:"step_weight"`
	WallWeight   int `yaml:"wall_weight"`
	HazardWeight int `yaml:"hazard_weight"`
	HazardRadius int `yaml:"hazard_radius"`
	MaxExpanded  int `yaml:"max_expanded"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Persistence struct {
	TraceDir    string `yaml:"trace_dir"`
	JournalPath string `yaml:"journal_path"`
}

type Notify struct {
	Sound   bool `yaml:"sound"`
	GraceMs int  `yaml:"grace_ms"`
}

func Defaults() Tuning {
	return Tuning{
		ServerURL:       "wss://ostracodapps.com:2626/gameUpdate",
		TickRateHz:      16,
		InputRateHz:     16,
		FrameRateHz:     30,
		TileRequestSize: 50,
		ChunkSize:       128,
		Pathfinding: Pathfinding{
			StepWeight:   1,
			WallWeight:   4,
			HazardWeight: 1000,
			HazardRadius: 2,
			MaxExpanded:  50000,
		},
		Logging: Logging{Level: "info", Format: "text"},
		Notify:  Notify{Sound: true, GraceMs: 10000},
	}
}

// Load reads path over the defaults. An empty path yields the defaults.
func Load(path string) (Tuning, error) {
	t := Defaults()
	if strings.TrimSpace(path) == "" {
		t.Normalize()
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.Normalize()
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t *Tuning) Normalize() {
	if t == nil {
		return
	}
	d := Defaults()
	t.ServerURL = strings.TrimSpace(t.ServerURL)
	if t.TickRateHz == 0 {
		t.TickRateHz = d.TickRateHz
	}
	if t.InputRateHz == 0 {
		t.InputRateHz = d.InputRateHz
	}
	if t.FrameRateHz == 0 {
		t.FrameRateHz = d.FrameRateHz
	}
	if t.TileRequestSize == 0 {
		t.TileRequestSize = d.TileRequestSize
	}
	if t.ChunkSize == 0 {
		t.ChunkSize = d.ChunkSize
	}
	if t.Pathfinding.StepWeight == 0 {
		t.Pathfinding.StepWeight = d.Pathfinding.StepWeight
	}
	if t.Pathfinding.WallWeight == 0 {
		t.Pathfinding.WallWeight = d.Pathfinding.WallWeight
	}
	if t.Pathfinding.HazardWeight == 0 {
		t.Pathfinding.HazardWeight = d.Pathfinding.HazardWeight
	}
	t.Logging.Level = strings.ToLower(strings.TrimSpace(t.Logging.Level))
	if t.Logging.Level == "" {
		t.Logging.Level = d.Logging.Level
	}
	t.Logging.Format = strings.ToLower(strings.TrimSpace(t.Logging.Format))
	if t.Logging.Format == "" {
		t.Logging.Format = d.Logging.Format
	}
}

func (t Tuning) Validate() error {
	if t.ServerURL == "" {
		return fmt.Errorf("server_url must not be empty")
	}
	u, err := url.Parse(t.ServerURL)
	if err != nil {
		return fmt.Errorf("server_url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("server_url scheme must be ws or wss, got %q", u.Scheme)
	}
	if t.TickRateHz <= 0 || t.TickRateHz > 1000 {
		return fmt.Errorf("tick_rate_hz must be in (0, 1000]")
	}
	if t.InputRateHz <= 0 || t.InputRateHz > 1000 {
		return fmt.Errorf("input_rate_hz must be in (0, 1000]")
	}
	if t.FrameRateHz <= 0 || t.FrameRateHz > 1000 {
		return fmt.Errorf("frame_rate_hz must be in (0, 1000]")
	}
	if t.TileRequestSize <= 0 {
		return fmt.Errorf("tile_request_size must be > 0")
	}
	if t.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be > 0")
	}
	p := t.Pathfinding
	if p.StepWeight <= 0 || p.WallWeight <= 0 || p.HazardWeight <= 0 {
		return fmt.Errorf("pathfinding weights must be > 0")
	}
	if p.HazardRadius < 0 {
		return fmt.Errorf("pathfinding.hazard_radius must be >= 0")
	}
	if p.MaxExpanded < 0 {
		return fmt.Errorf("pathfinding.max_expanded must be >= 0")
	}
	switch t.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", t.Logging.Format)
	}
	if t.Notify.GraceMs < 0 {
		return fmt.Errorf("notify.grace_ms must be >= 0")
	}
	return nil
}

func (t Tuning) TickInterval() time.Duration  { return time.Second / time.Duration(t.TickRateHz) }
func (t Tuning) InputInterval() time.Duration { return time.Second / time.Duration(t.InputRateHz) }
func (t Tuning) FrameInterval() time.Duration { return time.Second / time.Duration(t.FrameRateHz) }
func (t Tuning) NotifyGrace() time.Duration {
	return time.Duration(t.Notify.GraceMs) * time.Millisecond
}
