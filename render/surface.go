package render

// ResizeEvent notifies the scheduler that the drawable area changed.
// PixelRatio is the device pixel density at the time of the event; surfaces
// without a meaningful density (terminals) report 1.0.
type ResizeEvent struct {
	Width      int
	Height     int
	PixelRatio float64
}

// Surface is the drawable target of the animation engine. All coordinates
// passed to draw calls are logical pixels; implementations own the mapping
// to their backing store resolution.
//
// A frame is Begin, any number of SetGlow/FillCircle calls, then Flush.
// Draw calls outside a Begin/Flush pair are ignored.
type Surface interface {
	// Configure sets the logical size and pixel ratio, reallocating the
	// backing store when either changed. Idempotent for unchanged arguments.
	Configure(width, height int, pixelRatio float64)

	// Size returns the current logical dimensions
	Size() (width, height int)

	// Resizes returns the channel carrying host resize notifications
	Resizes() <-chan ResizeEvent

	// Begin starts a frame by clearing to the vertical gradient
	Begin(bg Gradient)

	// SetGlow sets the halo radius applied to subsequent FillCircle calls.
	// Set once per depth layer, not per particle.
	SetGlow(radius float64)

	// FillCircle paints a filled circle at (x, y) in logical coordinates
	// with the given color and opacity
	FillCircle(x, y, r float64, c RGB, alpha float64)

	// Flush presents the completed frame
	Flush()

	// Close releases the surface and any event pumps. Safe to call twice.
	Close()
}
