package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"

	"github.com/taigrr/softrast/pkg/capture"
	"github.com/taigrr/softrast/pkg/render"
	"github.com/taigrr/softrast/pkg/scene"
)

// gifDelay converts a frame rate to a GIF delay in 1/100 s. Viewers treat
// delays under 2 as slow, so 2 is the floor.
func gifDelay(fps int) int {
	return max(2, 100/max(fps, 1))
}

// runHeadless renders --frames frames at --size with a fixed time step,
// writes the last one to --out and, with --record, all of them to a GIF.
func runHeadless(ctx context.Context, opts *options, model string) error {
	width, height, err := parseSize(opts.size)
	if err != nil {
		return err
	}
	if opts.frames <= 0 || opts.fps <= 0 {
		return fmt.Errorf("--frames %d, --fps %d: %w", opts.frames, opts.fps, errUsage)
	}

	w, err := loadWorld(opts, model)
	if err != nil {
		return err
	}

	fb := render.NewFramebuffer(width, height)
	r, err := render.New(fb.Color, fb.Depth, width, height)
	if err != nil {
		return err
	}
	defer r.Close()
	if err := w.configure(r, opts); err != nil {
		return err
	}

	cam := scene.NewFlyCamera(width, height)
	if w.cfg != nil {
		if err := w.cfg.ApplyCamera(cam); err != nil {
			return err
		}
	}

	var rec *capture.Recorder
	if opts.record != "" {
		rec = capture.NewRecorder(width, height, capture.Options{Delay: gifDelay(opts.fps)})
	}

	bar := progressbar.Default(int64(opts.frames), "rendering")
	dt := 1 / float64(opts.fps)
	var total scene.DrawStats
	for range opts.frames {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats, err := drawFrame(r, fb, w.scene, cam)
		if err != nil {
			return err
		}
		total.Drawn += stats.Drawn
		total.Culled += stats.Culled
		total.Triangles += stats.Triangles

		if rec != nil {
			if err := rec.Frame(fb.Color); err != nil {
				return err
			}
		}
		w.scene.Update(dt)
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	render.Logger().Info("headless run finished",
		"frames", opts.frames,
		"triangles", humanize.Comma(int64(total.Triangles)),
		"culled", total.Culled,
		"last_frame_fragments", humanize.Comma(int64(r.Stats().Fragments)))

	img, err := capture.Snapshot(fb.Color, width, height)
	if err != nil {
		return err
	}
	if err := capture.SavePNG(opts.out, img); err != nil {
		return err
	}
	if rec != nil {
		return rec.Save(opts.record)
	}
	return nil
}
