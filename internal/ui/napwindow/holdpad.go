package napwindow

import (
	"image/color"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/driver/mobile"
	"fyne.io/fyne/v2/widget"
)

var (
	padIdleColor    = color.NRGBA{R: 40, G: 52, B: 84, A: 255}
	padPressedColor = color.NRGBA{R: 64, G: 112, B: 176, A: 255}
	padTextColor    = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

// HoldPad is the surface the user keeps pressed while falling asleep.
// Mouse and touch input both map to press and release.
type HoldPad struct {
	widget.BaseWidget

	OnPress   func()
	OnRelease func()

	mu         sync.Mutex
	pressed    bool
	background *canvas.Rectangle
	title      *canvas.Text
	detail     *canvas.Text
}

var (
	_ desktop.Mouseable = (*HoldPad)(nil)
	_ mobile.Touchable  = (*HoldPad)(nil)
)

// NewHoldPad creates an idle hold pad.
func NewHoldPad() *HoldPad {
	pad := &HoldPad{
		background: canvas.NewRectangle(padIdleColor),
		title:      canvas.NewText("", padTextColor),
		detail:     canvas.NewText("", padTextColor),
	}
	pad.background.CornerRadius = 12
	pad.title.TextStyle = fyne.TextStyle{Bold: true}
	pad.title.TextSize = 22
	pad.title.Alignment = fyne.TextAlignCenter
	pad.detail.TextSize = 15
	pad.detail.Alignment = fyne.TextAlignCenter
	pad.ExtendBaseWidget(pad)
	return pad
}

// CreateRenderer implements fyne.Widget.
func (pad *HoldPad) CreateRenderer() fyne.WidgetRenderer {
	labels := container.NewVBox(pad.title, pad.detail)
	return widget.NewSimpleRenderer(container.NewStack(pad.background, container.NewCenter(labels)))
}

// MinSize keeps the pad large enough to hold comfortably.
func (pad *HoldPad) MinSize() fyne.Size {
	return fyne.NewSize(260, 200)
}

// SetStatus updates the pad text.
func (pad *HoldPad) SetStatus(title, detail string) {
	pad.title.Text = title
	pad.title.Refresh()
	pad.detail.Text = detail
	pad.detail.Refresh()
}

// Pressed reports whether the pad is held.
func (pad *HoldPad) Pressed() bool {
	pad.mu.Lock()
	defer pad.mu.Unlock()
	return pad.pressed
}

// MouseDown implements desktop.Mouseable.
func (pad *HoldPad) MouseDown(event *desktop.MouseEvent) {
	if event != nil && event.Button != desktop.MouseButtonPrimary {
		return
	}
	pad.press()
}

// MouseUp implements desktop.Mouseable.
func (pad *HoldPad) MouseUp(event *desktop.MouseEvent) {
	if event != nil && event.Button != desktop.MouseButtonPrimary {
		return
	}
	pad.release()
}

// TouchDown implements mobile.Touchable.
func (pad *HoldPad) TouchDown(*mobile.TouchEvent) {
	pad.press()
}

// TouchUp implements mobile.Touchable.
func (pad *HoldPad) TouchUp(*mobile.TouchEvent) {
	pad.release()
}

// TouchCancel implements mobile.Touchable. A lost touch counts as a release.
func (pad *HoldPad) TouchCancel(*mobile.TouchEvent) {
	pad.release()
}

func (pad *HoldPad) press() {
	if !pad.setPressed(true) {
		return
	}
	if pad.OnPress != nil {
		pad.OnPress()
	}
}

func (pad *HoldPad) release() {
	if !pad.setPressed(false) {
		return
	}
	if pad.OnRelease != nil {
		pad.OnRelease()
	}
}

func (pad *HoldPad) setPressed(pressed bool) bool {
	pad.mu.Lock()
	if pad.pressed == pressed {
		pad.mu.Unlock()
		return false
	}
	pad.pressed = pressed
	pad.mu.Unlock()

	if pressed {
		pad.background.FillColor = padPressedColor
	} else {
		pad.background.FillColor = padIdleColor
	}
	pad.background.Refresh()
	return true
}
