package gitx

import (
	"strconv"
	"strings"
)

// parsePorcelain extracts repo-relative paths from `git status --porcelain`
// output. Rename entries contribute their new name; quoted names are
// unescaped.
func parsePorcelain(out string) []string {
	var files []string
	for _, line := range strings.Split(out, "\n") {
		if len(line) < 4 {
			continue
		}
		name := line[3:]
		// "R  old -> new" keeps only the destination
		if idx := strings.Index(name, " -> "); idx >= 0 {
			name = name[idx+4:]
		}
		name = unquotePorcelain(name)
		if name != "" {
			files = append(files, name)
		}
	}
	return files
}

// unquotePorcelain removes git's C-style quoting from a status path.
func unquotePorcelain(name string) string {
	if len(name) >= 2 && strings.HasPrefix(name, `"`) && strings.HasSuffix(name, `"`) {
		if unquoted, err := strconv.Unquote(name); err == nil {
			return unquoted
		}
		return name[1 : len(name)-1]
	}
	return name
}
