// Package requirements parses and merges pip-style dependency manifests.
// Neuron-owned manifests are folded into the consumer's root
// requirements.txt after each neuron sync.
package requirements

import (
	"regexp"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// specifierPattern splits "name<op>version" lines. Only "==" pins a
// version; every other operator leaves the version empty.
var specifierPattern = regexp.MustCompile(`^([A-Za-z0-9._\[\]-]+)\s*(==|>=|<=|~=|!=|>|<)\s*(\S+)\s*$`)

// Parse extracts a name→version map from manifest content. Comments and
// blank lines are ignored; unpinned entries map to "".
func Parse(content string) map[string]string {
	deps := make(map[string]string)
	for _, raw := range strings.Split(content, "\n") {
		line := raw
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := specifierPattern.FindStringSubmatch(line); m != nil {
			if m[2] == "==" {
				deps[m[1]] = m[3]
			} else {
				deps[m[1]] = ""
			}
			continue
		}
		// bare name, possibly with extras
		deps[strings.Fields(line)[0]] = ""
	}
	return deps
}

// Merge combines the consumer's dependencies with a neuron's. Names present
// on one side are copied; for names on both sides the higher parseable
// version wins, and when versions don't parse the neuron's non-empty
// version takes precedence over the consumer's.
func Merge(repo, neuron map[string]string) map[string]string {
	merged := make(map[string]string, len(repo)+len(neuron))
	for name, version := range repo {
		merged[name] = version
	}
	for name, neuronVersion := range neuron {
		repoVersion, present := merged[name]
		if !present {
			merged[name] = neuronVersion
			continue
		}
		merged[name] = pickVersion(repoVersion, neuronVersion)
	}
	return merged
}

// pickVersion chooses between a consumer-pinned and a neuron-pinned version
// of the same dependency.
func pickVersion(repoVersion, neuronVersion string) string {
	if neuronVersion == "" {
		return repoVersion
	}
	if repoVersion == "" {
		return neuronVersion
	}
	rv, rErr := semver.NewVersion(repoVersion)
	nv, nErr := semver.NewVersion(neuronVersion)
	if rErr == nil && nErr == nil {
		if rv.GreaterThan(nv) {
			return repoVersion
		}
		return neuronVersion
	}
	// unparseable pins: the neuron knows best
	return neuronVersion
}

// Serialize renders a dependency map back to manifest text, sorted by name.
func Serialize(deps map[string]string) string {
	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		if deps[name] != "" {
			b.WriteString("==")
			b.WriteString(deps[name])
		}
		b.WriteString("\n")
	}
	return b.String()
}

// MergeFiles merges neuron manifest content into the consumer's root
// manifest content and returns the serialized result.
func MergeFiles(rootContent, neuronContent string) string {
	return Serialize(Merge(Parse(rootContent), Parse(neuronContent)))
}
