package e2etests

import (
	"fmt"
	"regexp"
	"strconv"
)

// WebDriver reports colors as rgb(r, g, b) or rgba(r, g, b, a).
var cssColorPattern = regexp.MustCompile(`^rgba?\((\d{1,3}),\s*(\d{1,3}),\s*(\d{1,3})(?:,\s*([0-9.]+))?\)$`)

// RGB is an opaque color with 8-bit channels.
type RGB struct {
	R, G, B int
}

// ParseCSSColor parses a computed CSS color value. The alpha channel, if any, is ignored.
func ParseCSSColor(value string) (RGB, error) {
	m := cssColorPattern.FindStringSubmatch(value)
	if m == nil {
		return RGB{}, fmt.Errorf("not an rgb() color: %q", value)
	}
	var channels [3]int
	for i := range channels {
		n, _ := strconv.Atoi(m[i+1])
		if n > 255 {
			return RGB{}, fmt.Errorf("color channel out of range in %q", value)
		}
		channels[i] = n
	}
	return RGB{R: channels[0], G: channels[1], B: channels[2]}, nil
}

// Luma is the Rec. 709 weighted brightness, from 0 to 255.
func (c RGB) Luma() float64 {
	return 0.2126*float64(c.R) + 0.7152*float64(c.G) + 0.0722*float64(c.B)
}
