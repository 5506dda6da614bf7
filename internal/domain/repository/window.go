package repository

// Window selects how much trailing history a statistic covers.
type Window string

const (
	WindowAll Window = "all"
	Window90D Window = "90d"
	Window30D Window = "30d"
	Window7D  Window = "7d"
)

// Windows returns the supported windows widest first, the order stats
// blocks are reported in.
func Windows() []Window {
	return []Window{WindowAll, Window90D, Window30D, Window7D}
}

// Days returns the trailing day count a window covers, 0 meaning all.
func (w Window) Days() int {
	switch w {
	case Window90D:
		return 90
	case Window30D:
		return 30
	case Window7D:
		return 7
	default:
		return 0
	}
}

// IsValidWindow returns true if w is a supported window.
func IsValidWindow(w Window) bool {
	switch w {
	case WindowAll, Window90D, Window30D, Window7D:
		return true
	default:
		return false
	}
}

// DefaultWindow returns the default window.
func DefaultWindow() Window { return Window90D }

// NormalizeWindow converts a raw string to a valid window (or default).
func NormalizeWindow(s string) Window {
	if s == "" {
		return DefaultWindow()
	}
	w := Window(s)
	if IsValidWindow(w) {
		return w
	}
	return DefaultWindow()
}
