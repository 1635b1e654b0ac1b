package main

import (
	"fmt"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/dustin/go-humanize"

	"github.com/taigrr/softrast/pkg/render"
	"github.com/taigrr/softrast/pkg/scene"
)

var (
	hudBase   = lipgloss.NewStyle().Background(lipgloss.Color("#000000")).Foreground(lipgloss.Color("#ffffff"))
	hudFPS    = hudBase.Foreground(lipgloss.Color("#5fff87"))
	hudTitle  = hudBase.Bold(true)
	hudCount  = hudBase.Foreground(lipgloss.Color("#5fd7ff")).Bold(true)
	hudDim    = hudBase.Faint(true)
	hudRec    = hudBase.Foreground(lipgloss.Color("#ff5f5f")).Bold(true)
	hudStatus = hudBase.Foreground(lipgloss.Color("#ffd75f"))
)

// hudToggles are the switches shown on the bottom line, in key order.
var hudToggles = []struct {
	key   string
	label string
	kind  render.UniformKind
}{
	{"m", "MSAA", render.UniformMSAA},
	{"p", "Phong", render.UniformPhong},
	{"l", "Light", render.UniformLighting},
	{"x", "Wire", render.UniformWireframe},
	{"b", "Box", render.UniformBoxBlur},
	{"g", "Gauss", render.UniformGaussianBlur},
	{"o", "Bloom", render.UniformLightBloom},
	{"v", "Persp", render.UniformPerspectiveCorrection},
	{"z", "Depth", render.UniformDepthTest},
}

// hudInfo is one frame's worth of HUD content.
type hudInfo struct {
	name      string
	stats     scene.DrawStats
	uniform   render.Uniform
	speed     float64
	recording int // frames recorded, -1 when not recording
	status    string
}

// HUD renders an overlay with frame rate, scene info and toggle states.
type HUD struct {
	show      bool
	fps       float64
	fpsFrames int
	fpsTime   time.Time
}

func newHUD() *HUD {
	return &HUD{show: true, fpsTime: time.Now()}
}

// UpdateFPS updates the FPS counter (call once per frame)
func (h *HUD) UpdateFPS() {
	h.fpsFrames++
	elapsed := time.Since(h.fpsTime)
	if elapsed >= time.Second {
		h.fps = float64(h.fpsFrames) / elapsed.Seconds()
		h.fpsFrames = 0
		h.fpsTime = time.Now()
	}
}

// Draw paints the top and bottom HUD lines over the frame. Recording and
// status messages show even when the HUD is hidden.
func (h *HUD) Draw(scr uv.Screen, cols, rows int, info hudInfo) {
	if cols <= 0 || rows <= 0 {
		return
	}
	top, bottom := h.lines(cols, info)
	if top != "" {
		uv.NewStyledString(top).Draw(scr, uv.Rect(0, 0, cols, 1))
	}
	if bottom != "" && rows > 1 {
		uv.NewStyledString(bottom).Draw(scr, uv.Rect(0, rows-1, cols, 1))
	}
}

func (h *HUD) lines(cols int, info hudInfo) (top, bottom string) {
	var badges []string
	if info.recording >= 0 {
		badges = append(badges, hudRec.Render(fmt.Sprintf(" ● REC %d ", info.recording)))
	}
	if info.status != "" {
		badges = append(badges, hudStatus.Render(" "+info.status+" "))
	}

	if !h.show {
		if len(badges) > 0 {
			bottom = lipgloss.JoinHorizontal(lipgloss.Top, badges...)
		}
		return "", bottom
	}

	left := lipgloss.JoinHorizontal(lipgloss.Top,
		hudFPS.Render(fmt.Sprintf(" %.0f FPS ", h.fps)),
		hudTitle.Render(" "+info.name+" "),
	)
	right := lipgloss.JoinHorizontal(lipgloss.Top,
		hudCount.Render(fmt.Sprintf(" %s tris ", humanize.Comma(int64(info.stats.Triangles)))),
		hudDim.Render(fmt.Sprintf(" %d drawn %d culled ", info.stats.Drawn, info.stats.Culled)),
		hudDim.Render(fmt.Sprintf(" speed %.1f ", info.speed)),
	)
	top = spread(cols, left, right)

	u := info.uniform
	var sb strings.Builder
	for _, t := range hudToggles {
		check := "[ ]"
		if u.Bool(t.kind) {
			check = "[✓]"
		}
		fmt.Fprintf(&sb, " %s %s:%s", check, t.key, t.label)
	}
	fmt.Fprintf(&sb, "  f:%s c:%s ", u.Filter, u.CullMode)
	modes := hudBase.Render(sb.String())
	bottom = spread(cols, modes, lipgloss.JoinHorizontal(lipgloss.Top, badges...))
	return top, bottom
}

// spread places left and right at the edges of a cols-wide line.
func spread(cols int, left, right string) string {
	gap := cols - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left + " " + right
	}
	return left + hudBase.Render(strings.Repeat(" ", gap)) + right
}
