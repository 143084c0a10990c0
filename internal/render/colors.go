// Package render turns eji.RenderSpec and eji.ChartSpec values into terminal,
// HTML and plain text output.
package render

import "strings"

var namedColors = map[string]string{
	"black": "#000000",
	"white": "#FFFFFF",
	"red":   "#FF0000",
	"green": "#008000",
}

// Hex converts the color names used in specs to hex; hex input passes through.
func Hex(c string) string {
	if h, ok := namedColors[strings.ToLower(c)]; ok {
		return h
	}
	return c
}
