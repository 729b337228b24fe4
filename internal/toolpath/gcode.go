package toolpath

import (
	"strconv"
	"strings"
)

// Feed rates in mm/min.
const (
	feedTravel  = 3000
	feedPrime   = 5000
	feedExtrude = 1500
)

// coord formats an X or Y position.
func coord(v float64) string { return fixed(v, 3) }

// height formats a Z position.
func height(v float64) string { return fixed(v, 2) }

// extrusion formats an E position.
func extrusion(v float64) string { return fixed(v, 5) }

func fixed(v float64, prec int) string {
	s := strconv.FormatFloat(v, 'f', prec, 64)
	if strings.HasPrefix(s, "-") && strings.Trim(s, "-0.") == "" {
		return s[1:]
	}
	return s
}

// travel is a non-extruding move in the XY plane.
func travel(x, y float64) string {
	return "G1 X" + coord(x) + " Y" + coord(y) + " F" + strconv.Itoa(feedTravel)
}

// extrude is an XY move ending at the absolute extruder position e.
func extrude(x, y, e float64) string {
	return "G1 X" + coord(x) + " Y" + coord(y) + " E" + extrusion(e) + " F" + strconv.Itoa(feedExtrude)
}

// lift moves Z only.
func lift(z float64) string {
	return "G1 Z" + height(z) + " F" + strconv.Itoa(feedTravel)
}

func temp(code string, c int) string {
	return code + " S" + strconv.Itoa(c)
}
