// Package traceapi mirrors wazevoapi's verbose-tracing contract: a package
// level switch gating Printf-style trace lines, rather than pulling in a
// structured logging library for a concern that is purely developer-facing
// diagnostic text (see DESIGN.md).
package traceapi

import (
	"fmt"
	"io"
	"os"
)

// Enabled gates every Printf call in this package. The CLI's --trace flag
// flips it on; it defaults off so a normal compilation is silent on stderr.
var Enabled = false

// Out is where trace lines go. Tests may redirect it.
var Out io.Writer = os.Stderr

// Printf writes a trace line when Enabled is true. It is a no-op otherwise,
// so call sites may pay formatting cost unconditionally for clarity; callers
// on hot paths should guard with `if traceapi.Enabled` themselves.
func Printf(format string, args ...any) {
	if !Enabled {
		return
	}
	fmt.Fprintf(Out, format, args...)
}
