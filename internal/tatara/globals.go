package tatara

import (
	"errors"
	"os"

	"github.com/gookit/color"
	"golang.org/x/term"
)

// Global variables
var (
	ConfigFile = "/etc/tatara.conf"
	Debug      bool
	version    = "dev"     // overridden at build time
	buildDate  = "unknown" // overridden at build time

	errNoToolchain      = errors.New("no toolchain found")
	errUnknownArch      = errors.New("unknown architecture target")
	errUnknownComponent = errors.New("unknown component")
)

// color helpers
var (
	colWarn    = color.Warn
	colSuccess = color.HEX("#1976D2")
	colArrow   = color.HEX("#FFEB3B")
	colNote    = color.Tag("notice")
)

// Version reports the build-time version and build date.
func Version() string {
	return version + " (built " + buildDate + ")"
}

// stdoutIsTerminal reports whether the operator-facing stream is a TTY.
// Color and progress rendering are disabled when output is piped.
func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
