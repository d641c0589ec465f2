package glass

// ColorMode selects the palette of a panel for the backdrop it sits on.
type ColorMode uint8

const (
	// ColorModeDark is for panels over dark or busy backdrops.
	ColorModeDark ColorMode = iota
	// ColorModeLight is for panels over light backdrops. It blurs the
	// backdrop more and uses a denser tint.
	ColorModeLight
)

// String returns the mode name.
func (m ColorMode) String() string {
	if m == ColorModeLight {
		return "light"
	}
	return "dark"
}

// Padding is the inset of the content slot in pixels.
type Padding struct {
	Vertical, Horizontal float64
}

// Default panel colors.
const (
	defaultTint      = "rgba(255, 255, 255, 0.08)"
	defaultLightTint = "rgba(255, 255, 255, 0.25)"
	defaultBorder    = "rgba(255, 255, 255, 0.35)"
	defaultHighlight = "rgba(255, 255, 255, 0.45)"
	defaultShadow    = "rgba(0, 0, 0, 0.18)"
)

// PanelConfig holds the controls of a panel. It is a plain value; panels
// copy it.
type PanelConfig struct {
	// DisplacementScale is the largest backdrop displacement in pixels.
	DisplacementScale float64

	// BlurAmount scales the backdrop blur: blur = base + BlurAmount*32 px.
	BlurAmount float64

	// Saturation is the backdrop saturation in percent (100 = unchanged).
	Saturation float64

	// AberrationIntensity controls chromatic channel separation.
	AberrationIntensity float64

	// CornerRadius in pixels, clamped to half the shorter panel side.
	CornerRadius float64

	// Padding insets the content slot.
	Padding Padding

	// ColorMode selects the dark or light palette.
	ColorMode ColorMode

	// Tint is a CSS color laid over the backdrop. Empty selects the
	// palette default.
	Tint string

	// Highlight is the CSS color of the top highlight gradient.
	Highlight string

	// Border is the CSS color of the 1px rim.
	Border string

	// Field is the displacement field. nil selects RoundedRectBulge.
	// It takes effect at the next size change.
	Field FieldFunc

	// Surfaces supplies raster surfaces for displacement maps. nil selects
	// DefaultSurfaces. It takes effect at the next size change.
	Surfaces SurfaceProvider

	// ID is the filter identifier. Empty generates a unique one.
	ID string

	// Blob configures the blob overlay pipeline started by Mount.
	Blob []BlobOption
}

// DefaultPanelConfig returns the default panel controls.
func DefaultPanelConfig() PanelConfig {
	return PanelConfig{
		DisplacementScale:   70,
		BlurAmount:          0.08,
		Saturation:          140,
		AberrationIntensity: 2,
		CornerRadius:        999,
		Padding:             Padding{Vertical: 10, Horizontal: 14},
		ColorMode:           ColorModeDark,
		Highlight:           defaultHighlight,
		Border:              defaultBorder,
	}
}

// FilterParams returns the controls the filter graph depends on.
func (c PanelConfig) FilterParams() FilterParams {
	return FilterParams{
		DisplacementScale:   c.DisplacementScale,
		AberrationIntensity: c.AberrationIntensity,
	}
}

// BackdropBlur returns the backdrop blur radius in pixels.
func (c PanelConfig) BackdropBlur() float64 {
	base := 4.0
	if c.ColorMode == ColorModeLight {
		base = 12
	}
	return base + c.BlurAmount*32
}

// TintColor returns the parsed tint, falling back to the palette default
// when Tint is empty or invalid.
func (c PanelConfig) TintColor() RGBA {
	def := defaultTint
	if c.ColorMode == ColorModeLight {
		def = defaultLightTint
	}
	return parseColorOr(c.Tint, def)
}

// HighlightColor returns the parsed highlight color.
func (c PanelConfig) HighlightColor() RGBA {
	return parseColorOr(c.Highlight, defaultHighlight)
}

// BorderColor returns the parsed rim color.
func (c PanelConfig) BorderColor() RGBA {
	return parseColorOr(c.Border, defaultBorder)
}

// Radius returns the corner radius for a panel of the given size.
func (c PanelConfig) Radius(width, height float64) float64 {
	return max(0, min(c.CornerRadius, min(width, height)/2))
}

func parseColorOr(s, def string) RGBA {
	if s != "" {
		if c, err := ParseColor(s); err == nil {
			return c
		}
		Logger().Warn("glass: invalid color, using default", "color", s, "default", def)
	}
	return MustParseColor(def)
}

// Option configures a Panel.
//
// Example:
//
//	p := glass.NewPanel(
//	    glass.WithDisplacementScale(64),
//	    glass.WithColorMode(glass.ColorModeLight),
//	)
type Option func(*PanelConfig)

// WithConfig replaces the whole configuration.
func WithConfig(cfg PanelConfig) Option {
	return func(c *PanelConfig) {
		*c = cfg
	}
}

// WithDisplacementScale sets the largest displacement in pixels.
func WithDisplacementScale(scale float64) Option {
	return func(c *PanelConfig) {
		c.DisplacementScale = scale
	}
}

// WithBlurAmount sets the backdrop blur amount.
func WithBlurAmount(amount float64) Option {
	return func(c *PanelConfig) {
		c.BlurAmount = amount
	}
}

// WithSaturation sets the backdrop saturation in percent.
func WithSaturation(percent float64) Option {
	return func(c *PanelConfig) {
		c.Saturation = percent
	}
}

// WithAberrationIntensity sets the chromatic aberration intensity.
func WithAberrationIntensity(intensity float64) Option {
	return func(c *PanelConfig) {
		c.AberrationIntensity = intensity
	}
}

// WithCornerRadius sets the corner radius in pixels.
func WithCornerRadius(radius float64) Option {
	return func(c *PanelConfig) {
		c.CornerRadius = radius
	}
}

// WithPadding sets the content inset in pixels.
func WithPadding(vertical, horizontal float64) Option {
	return func(c *PanelConfig) {
		c.Padding = Padding{Vertical: vertical, Horizontal: horizontal}
	}
}

// WithColorMode selects the dark or light palette.
func WithColorMode(mode ColorMode) Option {
	return func(c *PanelConfig) {
		c.ColorMode = mode
	}
}

// WithTint sets the CSS tint color.
func WithTint(color string) Option {
	return func(c *PanelConfig) {
		c.Tint = color
	}
}

// WithHighlight sets the CSS highlight color.
func WithHighlight(color string) Option {
	return func(c *PanelConfig) {
		c.Highlight = color
	}
}

// WithField sets the displacement field.
func WithField(f FieldFunc) Option {
	return func(c *PanelConfig) {
		c.Field = f
	}
}

// WithSurfaces sets the raster surface provider.
func WithSurfaces(s SurfaceProvider) Option {
	return func(c *PanelConfig) {
		c.Surfaces = s
	}
}

// WithID sets the filter identifier.
func WithID(id string) Option {
	return func(c *PanelConfig) {
		c.ID = id
	}
}

// WithBlobOptions appends options for the blob overlay started by Mount.
func WithBlobOptions(opts ...BlobOption) Option {
	return func(c *PanelConfig) {
		c.Blob = append(c.Blob, opts...)
	}
}
