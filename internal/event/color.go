package event

// Named palette entries accepted in the Color field. Anything not in the
// table is treated as a literal CSS color and passed through.
var Colors = map[string]string{
	"red":    "#f56c6c",
	"orange": "#e6a23c",
	"yellow": "#f0d264",
	"green":  "#67c23a",
	"cyan":   "#00d1b2",
	"blue":   "#409eff",
	"purple": "#9b59b6",
	"pink":   "#ff69b4",
}

// DefaultColor is the palette entry used when an event has no color.
const DefaultColor = "blue"

// ColorHex resolves a palette name to its hex value. Unknown non-empty
// values pass through unchanged; empty resolves to the default.
func ColorHex(color string) string {
	if hex, ok := Colors[color]; ok {
		return hex
	}
	if color != "" {
		return color
	}
	return Colors[DefaultColor]
}
