package models

// Color is a theme palette role a tag can be rendered with.
type Color string

// The theme palette roles, in display order.
const (
	ColorRosewater Color = "rosewater"
	ColorFlamingo  Color = "flamingo"
	ColorPink      Color = "pink"
	ColorMauve     Color = "mauve"
	ColorRed       Color = "red"
	ColorMaroon    Color = "maroon"
	ColorPeach     Color = "peach"
	ColorYellow    Color = "yellow"
	ColorGreen     Color = "green"
	ColorTeal      Color = "teal"
	ColorSky       Color = "sky"
	ColorSapphire  Color = "sapphire"
	ColorBlue      Color = "blue"
	ColorLavender  Color = "lavender"
)

// TagColors lists every palette role, in display order.
var TagColors = []Color{
	ColorRosewater, ColorFlamingo, ColorPink, ColorMauve,
	ColorRed, ColorMaroon, ColorPeach, ColorYellow,
	ColorGreen, ColorTeal, ColorSky, ColorSapphire,
	ColorBlue, ColorLavender,
}

// IsValid reports whether c is a known palette role.
func (c Color) IsValid() bool {
	for _, p := range TagColors {
		if c == p {
			return true
		}
	}
	return false
}

// Tag is a user-defined label. Notes reference tags by id only; the tag
// registry owns the tag itself.
type Tag struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color Color  `json:"color"`
}
