package main

import (
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/taigrr/softrast/pkg/math3d"
	"github.com/taigrr/softrast/pkg/models"
	"github.com/taigrr/softrast/pkg/render"
	"github.com/taigrr/softrast/pkg/scene"
)

// world is what a run draws: the scene plus the config it came from, if
// any.
type world struct {
	name  string
	scene *scene.Scene
	cfg   *scene.Config
}

// loadWorld builds the scene from --config, a model path or the demo.
func loadWorld(opts *options, model string) (*world, error) {
	w := &world{}
	switch {
	case opts.config != "":
		cfg, err := scene.LoadConfig(opts.config)
		if err != nil {
			return nil, err
		}
		s, err := cfg.Build()
		if err != nil {
			return nil, err
		}
		w.name, w.scene, w.cfg = filepath.Base(opts.config), s, cfg
		if model != "" {
			render.Logger().Warn("model argument ignored with --config", "model", model)
		}

	case model != "":
		s, err := modelScene(model, opts.fps)
		if err != nil {
			return nil, err
		}
		w.name, w.scene = filepath.Base(model), s

	default:
		w.name, w.scene = "demo", scene.NewDemoScene()
	}

	if opts.texture != "" {
		tex, err := render.LoadTexture(opts.texture)
		if err != nil {
			return nil, err
		}
		if w.cfg != nil {
			render.Logger().Warn("--texture ignored with --config", "texture", opts.texture)
		} else {
			w.scene.Objects[0].SetTexture(tex)
		}
	}

	render.Logger().Info("scene ready",
		"name", w.name,
		"objects", len(w.scene.Objects),
		"lights", len(w.scene.Lights),
		"triangles", humanize.Comma(int64(w.scene.TriangleCount())))
	return w, nil
}

// modelScene places a model, fitted to two units, three units in front of
// the camera under a white directional light.
func modelScene(path string, fps int) (*scene.Scene, error) {
	mesh, err := models.Load(path)
	if err != nil {
		return nil, err
	}
	mesh.Fit(2)

	obj := scene.ObjectFromMesh(filepath.Base(path), mesh)
	obj.Position = math3d.V3(0, 0, -3)
	obj.Spin = scene.NewSpin(fps)
	obj.Spin.Impulse(0, 0.05, 0)
	untextured := true
	for _, p := range obj.Parts {
		if p.Texture != nil {
			untextured = false
		}
	}
	if untextured {
		obj.SetTexture(render.NewCheckerTexture(64, 64, 8, render.RGB(0.8, 0.8, 0.8), render.RGB(0.4, 0.4, 0.4)))
	}

	s := scene.New()
	s.Add(obj)
	if err := s.AddLight(scene.NewDirectionalLight(math3d.V3(0.5, 1, 0.3).Normalize(), render.ColorWhite)); err != nil {
		return nil, err
	}
	return s, nil
}

// configure pushes the config's renderer settings and then the flags. A
// flag overrides the config only when set on the command line.
func (w *world) configure(r *render.Renderer, opts *options) error {
	if w.cfg != nil {
		if err := w.cfg.Apply(r); err != nil {
			return err
		}
	}
	set := func(name string) bool {
		return w.cfg == nil || opts.changed(name)
	}

	if set("bg") {
		bg, err := parseColor(opts.bg)
		if err != nil {
			return err
		}
		if err := r.SetUniformFloat(render.UniformClearColor, bg.R, bg.G, bg.B, bg.A); err != nil {
			return err
		}
	}
	for _, t := range []struct {
		flag  string
		kind  render.UniformKind
		value bool
	}{
		{"msaa", render.UniformMSAA, opts.msaa},
		{"phong", render.UniformPhong, opts.phong},
		{"wireframe", render.UniformWireframe, opts.wireframe},
	} {
		if !set(t.flag) {
			continue
		}
		if err := r.SetUniformBool(t.kind, t.value); err != nil {
			return err
		}
	}
	if set("gamma") {
		if err := r.SetUniformFloat(render.UniformGamma, opts.gamma); err != nil {
			return fmt.Errorf("--gamma: %w", err)
		}
	}
	if set("filter") {
		f, err := render.ParseFilterMode(opts.filter)
		if err != nil {
			return fmt.Errorf("--filter: %w", err)
		}
		r.SetTextureFilter(f)
	}
	return nil
}

// drawFrame clears fb, draws the scene and finishes the frame.
func drawFrame(r *render.Renderer, fb *render.Framebuffer, s *scene.Scene, cam *scene.FlyCamera) (scene.DrawStats, error) {
	fb.Clear(r.Uniform().ClearColor, r.ClearDepth())
	r.ResetStats()
	stats, err := s.Draw(r, cam)
	if err != nil {
		return stats, err
	}
	return stats, r.Finish()
}
