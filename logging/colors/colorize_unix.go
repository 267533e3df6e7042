//go:build !windows

package colors

import "fmt"

// EnableColor turns colorization on. Non-windows systems support ANSI escape codes natively.
func EnableColor() {
	enabled = true
}

// Colorize returns the string s wrapped in ANSI code c, or s as-is if coloring was disabled.
func Colorize(s any, c Color) string {
	if !enabled {
		return fmt.Sprintf("%v", s)
	}
	return fmt.Sprintf("\x1b[%dm%v\x1b[0m", c, s)
}
