package colors

// enabled describes whether ANSI escape codes are emitted by Colorize.
var enabled = true

// init checks whether the console supports ANSI coloring. Unix terminals always do, Windows needs a kernel call.
func init() {
	EnableColor()
}

// DisableColor turns colorization off for the remainder of the process. Colorize returns its input unchanged after
// this is called.
func DisableColor() {
	enabled = false
}
