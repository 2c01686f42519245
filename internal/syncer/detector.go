package syncer

import (
	"path/filepath"
	"strings"

	"github.com/FanaticPythoner/git-brain/internal/config"
	"github.com/FanaticPythoner/git-brain/internal/fsutil"
	"github.com/FanaticPythoner/git-brain/internal/gitx"
)

// ModifiedNeurons maps git's changed-file set onto the configured mappings.
// Directory destinations match changed paths by prefix; file destinations
// match exactly. Mapping order is preserved and duplicates collapse on the
// (brain, source, destination) triple.
func ModifiedNeurons(driver gitx.Driver, cfg *config.NeuronsConfig, repoRoot string) ([]config.Mapping, error) {
	changed, err := driver.ChangedFiles(repoRoot)
	if err != nil {
		return nil, err
	}
	if len(changed) == 0 {
		return nil, nil
	}

	normalized := make([]string, 0, len(changed))
	for _, c := range changed {
		normalized = append(normalized, normalizePath(c))
	}

	seen := make(map[string]bool)
	var modified []config.Mapping
	for _, m := range cfg.Mappings {
		dst := normalizePath(m.Destination)
		isDir := strings.HasSuffix(m.Destination, "/") ||
			fsutil.IsDir(filepath.Join(repoRoot, filepath.FromSlash(m.Destination)))

		if !matchesAny(normalized, dst, isDir) {
			continue
		}
		if seen[m.Triple()] {
			continue
		}
		seen[m.Triple()] = true
		modified = append(modified, m)
	}
	return modified, nil
}

func matchesAny(changed []string, dst string, isDir bool) bool {
	for _, path := range changed {
		if path == dst {
			return true
		}
		if isDir && strings.HasPrefix(path, dst+"/") {
			return true
		}
	}
	return false
}
