// softrast - software rasterizer in the terminal
// Renders a demo scene, a YAML scene file or an OBJ/glTF model with a CPU
// triangle pipeline and shows it with half-block characters.
//
// Controls:
//
//	W/S, up/down     - Move forward/back
//	A/D, left/right  - Strafe
//	Space/E, Q       - Move up, down
//	+/-              - Change move speed
//	Mouse drag       - Look around
//	M P L F X        - Toggle MSAA, Phong, lighting, filtering, wireframe
//	B G O            - Toggle box blur, gaussian blur, bloom
//	C                - Cycle cull mode
//	V Z              - Toggle perspective correction, depth test
//	R                - Start/stop GIF recording
//	?                - Toggle HUD overlay
//	Esc, ctrl+c      - Quit
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/taigrr/softrast/pkg/render"
)

var version = "dev"

var errUsage = errors.New("invalid flag value")

// options holds the command-line flags.
type options struct {
	config    string
	texture   string
	fps       int
	bg        string
	msaa      bool
	phong     bool
	filter    string
	wireframe bool
	gamma     float64
	headless  bool
	frames    int
	size      string
	out       string
	record    string
	logLevel  string
	logFile   string

	// changed reports whether a flag was set on the command line.
	changed func(name string) bool
}

func main() {
	if err := fang.Execute(
		context.Background(),
		newRootCmd(),
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
	); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "softrast [model.obj|model.gltf|model.glb]",
		Short: "Software rasterizer in the terminal",
		Long: "softrast renders a demo scene, a YAML scene file or a model with a CPU " +
			"triangle pipeline (clipping, culling, MSAA, Phong, textures, blur and bloom) " +
			"and shows it in the terminal, or headless into PNG and GIF files.",
		Example: "  softrast\n" +
			"  softrast --config scene.yaml\n" +
			"  softrast teapot.obj --phong --filter bilinear\n" +
			"  softrast --headless --frames 120 --size 320x240 --out frame.png --record spin.gif",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.changed = cmd.Flags().Changed
			model := ""
			if len(args) == 1 {
				model = args[0]
			}

			logger, closeLog, err := newLogger(opts)
			if err != nil {
				return err
			}
			defer closeLog()
			render.SetLogger(logger)
			defer render.SetLogger(nil)

			if opts.headless {
				return runHeadless(cmd.Context(), opts, model)
			}
			return runInteractive(cmd.Context(), opts, model)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.config, "config", "c", "", "YAML scene file (watched for changes in interactive mode)")
	f.StringVarP(&opts.texture, "texture", "t", "", "texture image (PNG/JPEG/GIF/BMP/WebP/TIFF) for the model or demo quad")
	f.IntVar(&opts.fps, "fps", 60, "target frames per second")
	f.StringVar(&opts.bg, "bg", "30,30,40", "background color as R,G,B (0-255)")
	f.BoolVar(&opts.msaa, "msaa", true, "4x multisample anti-aliasing")
	f.BoolVar(&opts.phong, "phong", false, "per-fragment (Phong) lighting instead of per-vertex")
	f.StringVar(&opts.filter, "filter", "nearest", "texture filter: nearest or bilinear")
	f.BoolVar(&opts.wireframe, "wireframe", false, "draw triangle edges")
	f.Float64Var(&opts.gamma, "gamma", 2.2, "output gamma")
	f.BoolVar(&opts.headless, "headless", false, "render to files without a terminal")
	f.IntVar(&opts.frames, "frames", 60, "frames to render in headless mode")
	f.StringVar(&opts.size, "size", "320x240", "headless framebuffer size WxH")
	f.StringVarP(&opts.out, "out", "o", "softrast.png", "PNG file for the last headless frame")
	f.StringVar(&opts.record, "record", "", "GIF file for recorded frames")
	f.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	f.StringVar(&opts.logFile, "log-file", "", "write logs to this file (interactive mode logs nowhere otherwise)")
	return cmd
}

// newLogger builds the slog logger for the run. Interactive mode owns the
// terminal, so without --log-file it discards logs.
func newLogger(opts *options) (*slog.Logger, func(), error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(opts.logLevel)); err != nil {
		return nil, nil, fmt.Errorf("--log-level %q: %w", opts.logLevel, errUsage)
	}

	var w io.Writer = os.Stderr
	closeLog := func() {}
	switch {
	case opts.logFile != "":
		f, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
		closeLog = func() { f.Close() }
	case !opts.headless:
		w = io.Discard
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), closeLog, nil
}

// parseSize parses "WxH".
func parseSize(s string) (width, height int, err error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if ok {
		width, err = strconv.Atoi(ws)
		if err == nil {
			height, err = strconv.Atoi(hs)
		}
	}
	if !ok || err != nil || width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("--size %q: want WxH: %w", s, errUsage)
	}
	return width, height, nil
}

// parseColor parses "R,G,B" with 0-255 channels.
func parseColor(s string) (render.Color, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return render.Color{}, fmt.Errorf("--bg %q: want R,G,B: %w", s, errUsage)
	}
	var ch [3]float64
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v < 0 || v > 255 {
			return render.Color{}, fmt.Errorf("--bg %q: channel %d: %w", s, i, errUsage)
		}
		ch[i] = float64(v) / 255
	}
	return render.RGB(ch[0], ch[1], ch[2]), nil
}
