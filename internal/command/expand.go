package command

import (
	"strings"

	"github.com/larmbs/relpack/internal/constants"
)

// Vars holds the values substituted into configured argv templates.
type Vars struct {
	Target    string
	SourceDir string
	Binary    string
	Archive   string
	// Files replaces a standalone {files} argument with one argument per entry.
	Files []string
}

// Expand substitutes placeholders in argv. Placeholders may appear inside a
// larger argument ("--bin={target}"), except {files}, which must be a whole
// argument and expands in place to len(Files) arguments.
// The input slice is never modified.
func Expand(argv []string, vars Vars) []string {
	replacer := strings.NewReplacer(
		constants.PlaceholderTarget, vars.Target,
		constants.PlaceholderSourceDir, vars.SourceDir,
		constants.PlaceholderBinary, vars.Binary,
		constants.PlaceholderArchive, vars.Archive,
	)

	out := make([]string, 0, len(argv)+len(vars.Files))
	for _, arg := range argv {
		if arg == constants.PlaceholderFiles {
			out = append(out, vars.Files...)
			continue
		}
		out = append(out, replacer.Replace(arg))
	}
	return out
}
