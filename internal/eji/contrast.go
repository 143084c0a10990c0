package eji

import (
	"strconv"
	"strings"
)

// Text colors returned by ContrastColor.
const (
	TextBlack = "black"
	TextWhite = "white"
)

// brightnessCutoff separates light backgrounds from dark ones.
const brightnessCutoff = 150

// ContrastColor picks black or white text for a "#rrggbb" background using
// perceived brightness 0.299R + 0.587G + 0.114B. Anything that does not parse
// as six hex digits gets black text.
func ContrastColor(hex string) string {
	r, g, b, ok := parseHex(hex)
	if !ok {
		return TextBlack
	}
	brightness := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
	if brightness > brightnessCutoff {
		return TextBlack
	}
	return TextWhite
}

func parseHex(hex string) (r, g, b uint8, ok bool) {
	s := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(s) != 6 {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v), true
}
