package config

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/iburimskiy/fractal-explorer/internal/fractal"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fractal.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	s, err := cfg.Scene()
	if err != nil {
		t.Fatal(err)
	}
	if s.Params.Kind != fractal.Mandelbrot {
		t.Errorf("default kind = %v", s.Params.Kind)
	}
	want := ExtentY * WindowWidth / WindowHeight
	if s.View.Extent.X != want {
		t.Errorf("extent x = %v, want %v", s.View.Extent.X, want)
	}
	if s.Gradient.Len() != 8 {
		t.Errorf("default gradient has %d stops, want 8", s.Gradient.Len())
	}
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"width": 320,
		"height": 200,
		"julia": [-0.8, 0.156],
		"max_iterations": 250,
		"gradient": {"stops": [
			{"threshold": 0.5, "color": "#000000"},
			{"threshold": 1.0, "color": "#ff800080"}
		]},
		"log_level": "debug"
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if cfg.Width != 320 || cfg.Height != 200 {
		t.Errorf("size = %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.Substeps != Substeps || cfg.IterationStep != IterationStep {
		t.Error("missing fields lost their defaults")
	}
	s, err := cfg.Scene()
	if err != nil {
		t.Fatal(err)
	}
	if s.Params.Kind != fractal.Julia || s.Params.Constant != complex(-0.8, 0.156) {
		t.Errorf("params = %+v", s.Params)
	}
	last := s.Gradient.At(1).RGBA8()
	if last.R != 0xff || last.G != 0x80 || last.B != 0 || last.A != 0x80 {
		t.Errorf("last stop = %v", last)
	}
	if l, _ := cfg.Level(); l != slog.LevelDebug {
		t.Errorf("level = %v", l)
	}
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"syntax", `{"width": }`},
		{"size", `{"width": 0}`},
		{"substeps", `{"substeps": 0}`},
		{"iterations", `{"max_iterations": 0}`},
		{"extent", `{"extent_y": -1}`},
		{"short colour", `{"gradient": {"stops": [{"threshold": 0.9, "color": "#fff"}]}}`},
		{"bad colour", `{"gradient": {"stops": [{"threshold": 0.9, "color": "#zzzzzz"}]}}`},
		{"descending", `{"gradient": {"stops": [{"threshold": 0.9, "color": "#ffffff"}, {"threshold": 0.1, "color": "#000000"}]}}`},
		{"preset", `{"gradient": {"preset": "plaid"}}`},
		{"level", `{"log_level": "loud"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Error("Load() succeeded, want error")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load() = %v, want ErrNotExist", err)
	}
}

func TestPreset(t *testing.T) {
	for _, name := range []string{"", "fire", "gray", "hue-6", "hue-12"} {
		if _, err := Preset(name); err != nil {
			t.Errorf("Preset(%q) = %v", name, err)
		}
	}
	for _, name := range []string{"hue-1", "hue-13", "hue-x", "neon"} {
		if _, err := Preset(name); err == nil {
			t.Errorf("Preset(%q) succeeded", name)
		}
	}
}

func TestColor_JSON(t *testing.T) {
	var c Color
	if err := json.Unmarshal([]byte(`"#336699"`), &c); err != nil {
		t.Fatal(err)
	}
	b, err := json.Marshal(c)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `"#336699ff"` {
		t.Errorf("Marshal = %s", b)
	}
}

func TestParsePair(t *testing.T) {
	got, err := ParsePair(" -0.8, 0.156 ")
	if err != nil || got != [2]float64{-0.8, 0.156} {
		t.Errorf("ParsePair = %v, %v", got, err)
	}
	for _, bad := range []string{"", "1", "a,b", "1,"} {
		if _, err := ParsePair(bad); err == nil {
			t.Errorf("ParsePair(%q) succeeded", bad)
		}
	}
}

func TestControllerOptions_CapClientSize(t *testing.T) {
	cfg := Default()
	s, err := cfg.Scene()
	if err != nil {
		t.Fatal(err)
	}
	ctrl, err := fractal.NewController(nil, s, cfg.Width, cfg.Height, cfg.ControllerOptions()...)
	if err != nil {
		t.Fatal(err)
	}
	if err := ctrl.Resize(MaxPixels/100+1, 100); !errors.Is(err, fractal.ErrBufferSize) {
		t.Errorf("Resize over MaxPixels = %v", err)
	}
	if err := ctrl.SetSubsteps(MaxSubsteps + 1); !errors.Is(err, fractal.ErrSubsteps) {
		t.Errorf("SetSubsteps over MaxSubsteps = %v", err)
	}
}
