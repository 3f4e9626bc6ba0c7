package main

import (
	"fmt"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"golang.design/x/clipboard"

	"github.com/go-kc85/corechip/internal/machine"
)

// videoOutput drives the emulator from Ebiten's game loop: Update pulls
// one frame's worth of emulation (System.Exec is synchronous and
// pull-driven, so no locking is needed between Update and Draw — both
// run on Ebiten's single game goroutine), and Draw blits the shared
// pixel buffer the System decodes video into directly.
type videoOutput struct {
	buf       []uint32
	rgba      []byte
	img       *ebiten.Image
	sys       *machine.System
	frameUsec int64
	clipOnce  bool
	clipOK    bool
	hud       *hudOverlay
	showHUD   bool
	stateFile string
	stateMsg  string
	stateTTL  int
}

func newVideoOutput(withGUI bool) (*videoOutput, error) {
	if !withGUI {
		return &videoOutput{
			buf: make([]uint32, machine.DisplayWidth*machine.DisplayHeight),
		}, nil
	}
	return &videoOutput{
		buf:       make([]uint32, machine.DisplayWidth*machine.DisplayHeight),
		rgba:      make([]byte, machine.DisplayWidth*machine.DisplayHeight*4),
		frameUsec: 16_667,
		hud:       newHUDOverlay(),
		showHUD:   true,
	}, nil
}

func (v *videoOutput) pixels() []uint32 { return v.buf }

func (v *videoOutput) attach(sys *machine.System) { v.sys = sys }

func runWindowed(sys *machine.System, v *videoOutput) {
	v.attach(sys)
	ebiten.SetWindowSize(machine.DisplayWidth*2, machine.DisplayHeight*2)
	ebiten.SetWindowTitle("corechip - KC85 emulator")
	ebiten.SetWindowResizable(true)
	if err := ebiten.RunGame(v); err != nil {
		fmt.Printf("corechip: ebiten exited: %v\n", err)
	}
}

func (v *videoOutput) Update() error {
	if ebiten.IsWindowBeingClosed() {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		v.showHUD = !v.showHUD
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		v.saveState()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF9) {
		v.loadState()
	}
	v.handleKeyboard()
	v.sys.Exec(v.frameUsec)
	if v.stateTTL > 0 {
		v.stateTTL--
	}
	return nil
}

// saveState and loadState back the F5/F9 keybindings, writing and reading
// the save-state blob at v.stateFile. stateMsg/stateTTL feed a short-lived
// HUD status line rather than a blocking dialog, since the game loop never
// pauses for I/O.
func (v *videoOutput) saveState() {
	data, err := v.sys.SaveState()
	if err != nil {
		v.flash(fmt.Sprintf("save failed: %v", err))
		return
	}
	if err := os.WriteFile(v.stateFile, data, 0o644); err != nil {
		v.flash(fmt.Sprintf("save failed: %v", err))
		return
	}
	v.flash("state saved")
}

func (v *videoOutput) loadState() {
	data, err := os.ReadFile(v.stateFile)
	if err != nil {
		v.flash(fmt.Sprintf("load failed: %v", err))
		return
	}
	if err := v.sys.LoadState(data); err != nil {
		v.flash(fmt.Sprintf("load failed: %v", err))
		return
	}
	v.flash("state loaded")
}

func (v *videoOutput) flash(msg string) {
	v.stateMsg = msg
	v.stateTTL = 120
}

func (v *videoOutput) handleKeyboard() {
	ctrl := ebiten.IsKeyPressed(ebiten.KeyControlLeft) || ebiten.IsKeyPressed(ebiten.KeyControlRight)
	shift := ebiten.IsKeyPressed(ebiten.KeyShiftLeft) || ebiten.IsKeyPressed(ebiten.KeyShiftRight)
	if ctrl && shift && inpututil.IsKeyJustPressed(ebiten.KeyV) {
		v.pasteClipboard()
	}

	for _, r := range ebiten.AppendInputChars(nil) {
		if r > 0 && r <= 0xFF {
			v.sys.KeyDown(byte(r))
		}
	}
	for _, key := range []struct {
		ebiten.Key
		code byte
	}{
		{ebiten.KeyEnter, '\r'},
		{ebiten.KeyNumpadEnter, '\r'},
		{ebiten.KeyBackspace, 0x08},
		{ebiten.KeyTab, 0x09},
		{ebiten.KeyEscape, 0x1B},
		{ebiten.KeyArrowUp, 0x1E},
		{ebiten.KeyArrowDown, 0x1F},
		{ebiten.KeyArrowRight, 0x09},
		{ebiten.KeyArrowLeft, 0x08},
	} {
		if inpututil.IsKeyJustPressed(key.Key) {
			v.sys.KeyDown(key.code)
		}
		if inpututil.IsKeyJustReleased(key.Key) {
			v.sys.KeyUp(key.code)
		}
	}
}

func (v *videoOutput) pasteClipboard() {
	if !v.clipOnce {
		v.clipOK = clipboard.Init() == nil
		v.clipOnce = true
	}
	if !v.clipOK {
		return
	}
	data := clipboard.Read(clipboard.FmtText)
	for _, b := range data {
		if b == '\n' {
			v.sys.KeyDown('\r')
			continue
		}
		v.sys.KeyDown(b)
	}
}

func (v *videoOutput) Draw(screen *ebiten.Image) {
	if v.img == nil {
		v.img = ebiten.NewImage(machine.DisplayWidth, machine.DisplayHeight)
	}
	for i, px := range v.buf {
		v.rgba[i*4+0] = byte(px >> 16) // R
		v.rgba[i*4+1] = byte(px >> 8)  // G
		v.rgba[i*4+2] = byte(px)       // B
		v.rgba[i*4+3] = byte(px >> 24) // A
	}
	v.img.WritePixels(v.rgba)
	screen.DrawImage(v.img, nil)

	if v.showHUD {
		status := ""
		if v.stateTTL > 0 {
			status = v.stateMsg
		}
		v.hud.draw(screen, status)
	}
}

func (v *videoOutput) Layout(_, _ int) (int, int) {
	return machine.DisplayWidth, machine.DisplayHeight
}
