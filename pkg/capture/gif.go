package capture

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"io"
	"os"

	xdraw "golang.org/x/image/draw"

	"github.com/taigrr/softrast/pkg/render"
)

// Options configure a Recorder.
type Options struct {
	Delay   int     // per-frame delay in 1/100 s, 0 means 2
	Scale   float64 // output scale, 0 means 1
	Caption string  // drawn on every frame when set
}

// Recorder accumulates frames for an animated GIF.
type Recorder struct {
	width, height int
	opts          Options
	frames        []*image.Paletted
}

// NewRecorder creates a recorder for width x height color buffers.
func NewRecorder(width, height int, opts Options) *Recorder {
	if opts.Delay <= 0 {
		opts.Delay = 2
	}
	if opts.Scale <= 0 {
		opts.Scale = 1
	}
	return &Recorder{width: width, height: height, opts: opts}
}

// Palette is the GIF palette: the 216 web-safe colors followed by 40
// grays.
var Palette = func() color.Palette {
	p := make(color.Palette, 0, 256)
	for r := range 6 {
		for g := range 6 {
			for b := range 6 {
				p = append(p, color.RGBA{uint8(r * 51), uint8(g * 51), uint8(b * 51), 255})
			}
		}
	}
	for i := 1; len(p) < 256; i++ {
		v := uint8(i * 255 / 41)
		p = append(p, color.RGBA{v, v, v, 255})
	}
	return p
}()

// Frame converts one color buffer and appends it: channels are clamped
// to 8 bits, the image is scaled and captioned, then dithered onto
// Palette with Floyd-Steinberg error diffusion.
func (r *Recorder) Frame(colors []render.Color) error {
	if len(colors) != r.width*r.height {
		return fmt.Errorf("frame %d: %d pixels for %dx%d: %w",
			len(r.frames), len(colors), r.width, r.height, ErrFrameSize)
	}
	snap, err := Snapshot(colors, r.width, r.height)
	if err != nil {
		return err
	}

	img := Scale(snap, r.opts.Scale)
	if r.opts.Caption != "" {
		rgba, ok := img.(*image.RGBA)
		if !ok {
			rgba = image.NewRGBA(img.Bounds())
			xdraw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, xdraw.Src)
		}
		Caption(rgba, r.opts.Caption)
		img = rgba
	}

	pal := image.NewPaletted(img.Bounds(), Palette)
	xdraw.FloydSteinberg.Draw(pal, pal.Bounds(), img, img.Bounds().Min)
	r.frames = append(r.frames, pal)
	return nil
}

// Len returns the number of recorded frames.
func (r *Recorder) Len() int {
	return len(r.frames)
}

// Reset drops all frames.
func (r *Recorder) Reset() {
	r.frames = nil
}

// Encode writes the recording as a looping GIF.
func (r *Recorder) Encode(w io.Writer) error {
	if len(r.frames) == 0 {
		return ErrNoFrames
	}
	anim := &gif.GIF{
		Image: r.frames,
		Delay: make([]int, len(r.frames)),
	}
	for i := range anim.Delay {
		anim.Delay[i] = r.opts.Delay
	}
	if err := gif.EncodeAll(w, anim); err != nil {
		return fmt.Errorf("encode gif: %w", err)
	}
	return nil
}

// Save writes the recording to path.
func (r *Recorder) Save(path string) error {
	if len(r.frames) == 0 {
		return ErrNoFrames
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save gif: %w", err)
	}
	bw := bufio.NewWriter(f)
	if err := r.Encode(bw); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("save gif: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("save gif: %w", err)
	}
	logSaved(path, "gif", len(r.frames))
	return nil
}
