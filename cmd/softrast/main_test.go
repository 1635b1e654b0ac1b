package main

import (
	"context"
	"errors"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/taigrr/softrast/pkg/render"
	"github.com/taigrr/softrast/pkg/scene"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		w, h int
		ok   bool
	}{
		{"320x240", 320, 240, true},
		{"64X48", 64, 48, true},
		{"320", 0, 0, false},
		{"0x10", 0, 0, false},
		{"ax10", 0, 0, false},
		{"10x-1", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			w, h, err := parseSize(tt.in)
			if tt.ok != (err == nil) {
				t.Fatalf("parseSize(%q) err = %v, want ok=%v", tt.in, err, tt.ok)
			}
			if !tt.ok {
				if !errors.Is(err, errUsage) {
					t.Errorf("err = %v, want errUsage", err)
				}
				return
			}
			if w != tt.w || h != tt.h {
				t.Errorf("parseSize(%q) = %dx%d, want %dx%d", tt.in, w, h, tt.w, tt.h)
			}
		})
	}
}

func TestParseColor(t *testing.T) {
	c, err := parseColor("255, 0,51")
	if err != nil {
		t.Fatalf("parseColor: %v", err)
	}
	if c != render.RGB(1, 0, 0.2) {
		t.Errorf("parseColor = %v, want (1, 0, 0.2)", c)
	}
	for _, bad := range []string{"1,2", "1,2,256", "a,b,c", "-1,0,0"} {
		if _, err := parseColor(bad); !errors.Is(err, errUsage) {
			t.Errorf("parseColor(%q) err = %v, want errUsage", bad, err)
		}
	}
}

func TestGIFDelay(t *testing.T) {
	tests := []struct{ fps, want int }{
		{60, 2},
		{30, 3},
		{10, 10},
		{0, 100},
	}
	for _, tt := range tests {
		if got := gifDelay(tt.fps); got != tt.want {
			t.Errorf("gifDelay(%d) = %d, want %d", tt.fps, got, tt.want)
		}
	}
}

func TestNewLoggerLevel(t *testing.T) {
	opts := &options{logLevel: "loud", headless: true}
	if _, _, err := newLogger(opts); !errors.Is(err, errUsage) {
		t.Errorf("newLogger with bad level: err = %v, want errUsage", err)
	}

	opts = &options{logLevel: "debug", logFile: filepath.Join(t.TempDir(), "softrast.log")}
	logger, closeLog, err := newLogger(opts)
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	logger.Debug("hello")
	closeLog()
	data, err := os.ReadFile(opts.logFile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "msg=hello") {
		t.Errorf("log file = %q, want the debug record", data)
	}
}

func TestConfigureFlagsOverrideConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")
	cfgText := "renderer:\n  toggles:\n    msaa: false\n    phong: true\n  filter: bilinear\nobjects:\n  - shape: quad\n"
	if err := os.WriteFile(path, []byte(cfgText), 0o644); err != nil {
		t.Fatal(err)
	}

	opts := &options{
		config: path,
		bg:     "0,0,0",
		msaa:   true,
		phong:  false,
		filter: "nearest",
		gamma:  2.2,
		fps:    60,
		changed: func(name string) bool {
			return name == "msaa"
		},
	}
	w, err := loadWorld(opts, "")
	if err != nil {
		t.Fatalf("loadWorld: %v", err)
	}

	fb := render.NewFramebuffer(8, 8)
	r, err := render.New(fb.Color, fb.Depth, 8, 8)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if err := w.configure(r, opts); err != nil {
		t.Fatalf("configure: %v", err)
	}

	u := r.Uniform()
	if !u.MSAA {
		t.Error("--msaa set on the command line should override the config")
	}
	if !u.Phong {
		t.Error("unset --phong should leave the config value")
	}
	if u.Filter != render.FilterBilinear {
		t.Errorf("filter = %v, want the config's bilinear", u.Filter)
	}
}

func TestConfigureDefaultsWithoutConfig(t *testing.T) {
	opts := &options{
		bg:        "255,0,0",
		msaa:      false,
		phong:     true,
		wireframe: true,
		filter:    "bilinear",
		gamma:     1,
		fps:       60,
		changed:   func(string) bool { return false },
	}
	w, err := loadWorld(opts, "")
	if err != nil {
		t.Fatal(err)
	}
	if w.name != "demo" || w.scene.Object(scene.DemoQuad) == nil {
		t.Fatalf("loadWorld without arguments = %q, want the demo scene", w.name)
	}

	fb := render.NewFramebuffer(4, 4)
	r, err := render.New(fb.Color, fb.Depth, 4, 4)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if err := w.configure(r, opts); err != nil {
		t.Fatal(err)
	}
	u := r.Uniform()
	if u.MSAA || !u.Phong || !u.Wireframe || u.Gamma != 1 || u.Filter != render.FilterBilinear {
		t.Errorf("flags not applied: msaa=%v phong=%v wire=%v gamma=%v filter=%v",
			u.MSAA, u.Phong, u.Wireframe, u.Gamma, u.Filter)
	}
	if u.ClearColor != render.ColorRed {
		t.Errorf("clear color = %v, want red", u.ClearColor)
	}

	opts.filter = "trilinear"
	if err := w.configure(r, opts); err == nil {
		t.Error("configure accepted an unknown filter")
	}
}

func TestLoadWorldModel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tri.obj")
	if err := os.WriteFile(path, []byte("v 0 0 0\nv 4 0 0\nv 0 4 0\nf 1 2 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	w, err := loadWorld(&options{fps: 60}, path)
	if err != nil {
		t.Fatalf("loadWorld: %v", err)
	}
	if w.name != "tri.obj" {
		t.Errorf("name = %q", w.name)
	}
	obj := w.scene.Objects[0]
	if size := obj.Bounds.Size(); size.X > 2.0001 || size.Y > 2.0001 {
		t.Errorf("model not fitted to 2 units: %v", size)
	}
	if obj.Parts[0].Texture == nil {
		t.Error("untextured model should get the checker texture")
	}
	if len(w.scene.Lights) != 1 {
		t.Errorf("lights = %d, want 1", len(w.scene.Lights))
	}

	if _, err := loadWorld(&options{fps: 60}, filepath.Join(dir, "x.stl")); err == nil {
		t.Error("loadWorld accepted an unsupported model")
	}
}

func TestHUDLines(t *testing.T) {
	h := newHUD()
	h.fps = 59.6
	u := render.DefaultUniform()
	info := hudInfo{
		name:      "demo",
		stats:     scene.DrawStats{Drawn: 3, Culled: 2, Triangles: 12345},
		uniform:   u,
		speed:     2,
		recording: 7,
		status:    "reloaded",
	}

	top, bottom := h.lines(120, info)
	for _, want := range []string{"60 FPS", "demo", "12,345 tris", "2 culled"} {
		if !strings.Contains(top, want) {
			t.Errorf("top line lacks %q: %q", want, top)
		}
	}
	for _, want := range []string{"[✓] m:MSAA", "[ ] p:Phong", "REC 7", "reloaded", "c:back"} {
		if !strings.Contains(bottom, want) {
			t.Errorf("bottom line lacks %q: %q", want, bottom)
		}
	}

	h.show = false
	top, bottom = h.lines(120, info)
	if top != "" {
		t.Errorf("hidden HUD top = %q, want empty", top)
	}
	if !strings.Contains(bottom, "REC 7") {
		t.Error("hidden HUD should still show the recording badge")
	}
}

func TestRunHeadless(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "frame.png")
	rec := filepath.Join(dir, "spin.gif")

	cmd := newRootCmd()
	cmd.SetArgs([]string{
		"--headless", "--frames", "3", "--size", "32x24",
		"--out", out, "--record", rec, "--log-level", "error",
	})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("execute: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(f)
	f.Close()
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 32 || b.Dy() != 24 {
		t.Errorf("png bounds = %v, want 32x24", b)
	}

	f, err = os.Open(rec)
	if err != nil {
		t.Fatal(err)
	}
	anim, err := gif.DecodeAll(f)
	f.Close()
	if err != nil {
		t.Fatalf("decode gif: %v", err)
	}
	if len(anim.Image) != 3 {
		t.Errorf("gif frames = %d, want 3", len(anim.Image))
	}
}

func TestRunHeadlessBadFlags(t *testing.T) {
	for _, args := range [][]string{
		{"--headless", "--size", "big"},
		{"--headless", "--frames", "0"},
		{"--headless", "--gamma=-1", "--out", filepath.Join(t.TempDir(), "x.png")},
	} {
		cmd := newRootCmd()
		cmd.SetArgs(args)
		if err := cmd.ExecuteContext(context.Background()); err == nil {
			t.Errorf("%v: expected an error", args)
		}
	}
}

func TestRunHeadlessBackground(t *testing.T) {
	out := filepath.Join(t.TempDir(), "bg.png")
	cmd := newRootCmd()
	cmd.SetArgs([]string{
		"--headless", "--frames", "1", "--size", "16x12",
		"--bg", "0,0,255", "--out", out, "--log-level", "error",
	})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("execute: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(f)
	f.Close()
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	r, g, b, _ := img.At(0, 0).RGBA()
	if r != 0 || g != 0 || b>>8 != 255 {
		t.Errorf("corner pixel = %d,%d,%d, want the --bg blue", r>>8, g>>8, b>>8)
	}
}
