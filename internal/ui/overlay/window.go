package overlay

import (
	"fmt"
	"image/color"
	"time"

	"napkeeper/internal/core/alarm"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// Config defines alarm window visuals.
type Config struct {
	Fullscreen bool
	Title      string
}

// Alarm describes the alarm being shown.
type Alarm struct {
	Reason alarm.Reason
	Slept  time.Duration
	At     time.Time
}

// Window manages the alarm UI.
type Window struct {
	app           fyne.App
	window        fyne.Window
	config        Config
	image         *canvas.Image
	sleptLabel    *canvas.Text
	dismissButton *widget.Button
	titleLabel    *canvas.Text
	reasonLabel   *canvas.Text
	timeLabel     *canvas.Text
	background    *canvas.Rectangle
	onDismiss     func()
	visible       bool
}

var (
	calmBackground  = color.NRGBA{R: 24, G: 28, B: 48, A: 240}
	alertBackground = color.NRGBA{R: 150, G: 40, B: 40, A: 240}
	accentColor     = color.NRGBA{R: 232, G: 190, B: 66, A: 255}
	textColor       = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

const (
	windowWidthFraction  = float32(0.24)
	windowHeightFraction = float32(0.24)
	defaultScreenWidth   = float32(1920)
	defaultScreenHeight  = float32(1080)
)

type splashWindowDriver interface {
	CreateSplashWindow() fyne.Window
}

// New creates the alarm window. It stays hidden until Show.
func New(app fyne.App, config Config) *Window {
	if config.Title == "" {
		config.Title = "Wake up"
	}

	window := app.NewWindow("NapKeeper Alarm")
	if driver, ok := app.Driver().(splashWindowDriver); ok {
		// Splash window is undecorated (no native frame/buttons).
		window = driver.CreateSplashWindow()
	}
	if app.Icon() != nil {
		window.SetIcon(app.Icon())
	}
	window.SetPadded(false)

	background := canvas.NewRectangle(calmBackground)

	image := canvas.NewImageFromResource(nil)
	image.FillMode = canvas.ImageFillContain

	titleLabel := canvas.NewText(config.Title, textColor)
	titleLabel.TextStyle = fyne.TextStyle{Bold: true}
	titleLabel.TextSize = 24

	reasonLabel := canvas.NewText("", textColor)
	reasonLabel.TextStyle = fyne.TextStyle{Bold: true}
	reasonLabel.TextSize = 15

	timeLabel := canvas.NewText("", textColor)
	timeLabel.TextSize = 13

	sleptLabel := canvas.NewText("--:--", accentColor)
	sleptLabel.TextStyle = fyne.TextStyle{Bold: true}
	sleptLabel.TextSize = 18

	dismissButton := widget.NewButton("Dismiss", nil)
	dismissButton.Importance = widget.HighImportance

	leftContent := container.New(&leftPanelLayout{}, titleLabel, reasonLabel, timeLabel, sleptLabel)
	rightContent := container.New(&rightPanelLayout{}, image, dismissButton)
	content := container.NewGridWithColumns(2, leftContent, rightContent)
	window.SetContent(container.NewStack(background, content))

	overlay := &Window{
		app:           app,
		window:        window,
		config:        config,
		image:         image,
		sleptLabel:    sleptLabel,
		dismissButton: dismissButton,
		titleLabel:    titleLabel,
		reasonLabel:   reasonLabel,
		timeLabel:     timeLabel,
		background:    background,
	}
	dismissButton.OnTapped = func() {
		if overlay.onDismiss != nil {
			overlay.onDismiss()
		}
	}
	window.SetCloseIntercept(dismissButton.OnTapped)

	return overlay
}

// Show fills in the alarm details and brings the window forward.
func (overlay *Window) Show(details Alarm) {
	overlay.reasonLabel.Text = reasonDescription(details.Reason)
	overlay.reasonLabel.Refresh()
	overlay.sleptLabel.Text = "Slept " + formatDuration(details.Slept)
	overlay.sleptLabel.Refresh()
	overlay.timeLabel.Text = ""
	if !details.At.IsZero() {
		overlay.timeLabel.Text = "Alarm at " + details.At.Format("15:04")
	}
	overlay.timeLabel.Refresh()

	overlay.applyWindowMode()
	overlay.window.Show()
	overlay.window.RequestFocus()
	overlay.visible = true
}

// Hide closes the alarm window.
func (overlay *Window) Hide() {
	if overlay.config.Fullscreen {
		overlay.window.SetFullScreen(false)
	}
	overlay.window.Hide()
	overlay.visible = false
	overlay.setAlert(false)
}

// Visible reports whether the alarm is on screen.
func (overlay *Window) Visible() bool {
	return overlay.visible
}

// SetOnDismiss sets the dismiss handler.
func (overlay *Window) SetOnDismiss(handler func()) {
	overlay.onDismiss = handler
}

// UpdateConfig updates window visuals.
func (overlay *Window) UpdateConfig(config Config) {
	if config.Title == "" {
		config.Title = overlay.config.Title
	}
	overlay.config = config
	overlay.titleLabel.Text = config.Title
	overlay.titleLabel.Refresh()
	if overlay.visible {
		overlay.applyWindowMode()
	}
}

// SetPulse shows one pulse frame. A nil resource clears the image.
// Must run on the fyne goroutine.
func (overlay *Window) SetPulse(resource fyne.Resource, on bool) {
	overlay.image.Resource = resource
	overlay.image.Refresh()
	overlay.setAlert(on)
}

func (overlay *Window) setAlert(on bool) {
	fill := color.Color(calmBackground)
	if on {
		fill = alertBackground
	}
	overlay.background.FillColor = fill
	overlay.background.Refresh()
}

func (overlay *Window) applyWindowMode() {
	if overlay.config.Fullscreen {
		overlay.window.SetFullScreen(true)
		return
	}
	overlay.window.SetFullScreen(false)
	overlay.resizeToScreenFraction()
}

func (overlay *Window) resizeToScreenFraction() {
	screenSize := fyne.NewSize(defaultScreenWidth, defaultScreenHeight)
	canvasSize := overlay.window.Canvas().Size()
	// Canvas size can be reused as a proxy for monitor size when it is clearly screen-like.
	if canvasSize.Width >= 1024 && canvasSize.Height >= 720 {
		screenSize = canvasSize
	}

	width := screenSize.Width * windowWidthFraction
	height := screenSize.Height * windowHeightFraction
	minSize := overlay.window.Content().MinSize()
	if width < minSize.Width {
		width = minSize.Width
	}
	if height < minSize.Height {
		height = minSize.Height
	}

	overlay.window.Resize(fyne.NewSize(width, height))
	overlay.window.CenterOnScreen()
}

func formatDuration(value time.Duration) string {
	if value < 0 {
		value = 0
	}
	seconds := int(value.Seconds())
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	seconds = seconds % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

func reasonDescription(reason alarm.Reason) string {
	switch reason {
	case alarm.ReasonNapComplete:
		return "Nap complete"
	case alarm.ReasonMaxFailsafe:
		return "Max nap time reached"
	case alarm.ReasonSkipped:
		return "Alarm started early"
	default:
		return ""
	}
}

type rightPanelLayout struct{}

func (layout *rightPanelLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	if len(objects) < 2 {
		return
	}
	image := objects[0]
	button := objects[1]

	buttonSize := button.MinSize()
	buttonHeight := buttonSize.Height
	if buttonHeight > size.Height*0.3 {
		buttonHeight = size.Height * 0.3
	}
	imageAreaHeight := size.Height - buttonHeight
	if imageAreaHeight < 0 {
		imageAreaHeight = 0
	}

	margin := imageAreaHeight * 0.05
	side := imageAreaHeight * 0.90
	if side > size.Width-margin {
		side = size.Width - margin
	}
	if side < 0 {
		side = 0
	}
	x := size.Width - margin - side
	if x < 0 {
		x = 0
	}
	image.Move(fyne.NewPos(x, margin))
	image.Resize(fyne.NewSize(side, side))

	buttonWidth := buttonSize.Width * 1.6
	if buttonWidth > size.Width {
		buttonWidth = size.Width
	}
	buttonX := x + side - buttonWidth
	if buttonX < 0 {
		buttonX = 0
	}
	buttonY := imageAreaHeight + (buttonHeight-buttonSize.Height)/2
	if buttonY < 0 {
		buttonY = 0
	}
	button.Move(fyne.NewPos(buttonX, buttonY))
	button.Resize(fyne.NewSize(buttonWidth, buttonSize.Height))
}

func (layout *rightPanelLayout) MinSize(objects []fyne.CanvasObject) fyne.Size {
	if len(objects) < 2 {
		return fyne.NewSize(0, 0)
	}
	imageMin := objects[0].MinSize()
	buttonMin := objects[1].MinSize()
	width := imageMin.Width
	if buttonMin.Width > width {
		width = buttonMin.Width
	}
	return fyne.NewSize(width, imageMin.Height+buttonMin.Height)
}

type leftPanelLayout struct{}

func (layout *leftPanelLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	if len(objects) < 4 {
		return
	}
	pad := size.Height * 0.05
	availableWidth := size.Width - pad*2
	if availableWidth < 0 {
		availableWidth = 0
	}

	y := pad
	for i, object := range objects[:3] {
		objectSize := object.MinSize()
		object.Move(fyne.NewPos(pad, y))
		object.Resize(fyne.NewSize(availableWidth, objectSize.Height))
		y += objectSize.Height + float32(6+2*i)
	}

	slept := objects[3]
	sleptSize := slept.MinSize()
	sleptY := size.Height - pad - sleptSize.Height
	if sleptY < y {
		sleptY = y
	}
	slept.Move(fyne.NewPos(pad, sleptY))
	slept.Resize(sleptSize)
}

func (layout *leftPanelLayout) MinSize(objects []fyne.CanvasObject) fyne.Size {
	if len(objects) < 4 {
		return fyne.NewSize(0, 0)
	}
	var width, height float32
	for _, object := range objects[:4] {
		objectSize := object.MinSize()
		if objectSize.Width > width {
			width = objectSize.Width
		}
		height += objectSize.Height
	}
	return fyne.NewSize(width+20, height+40)
}
