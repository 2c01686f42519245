// Package config models the two git-brain descriptor files: the .brain
// descriptor published by a brain repository and the .neurons descriptor kept
// at a consumer's root. Both are INI files with case-sensitive keys; parsing
// and serialization round-trip user-assigned map keys.
package config

import (
	"strings"
)

// Descriptor and manifest filenames, always resolved against a repo root.
const (
	BrainFileName        = ".brain"
	NeuronsFileName      = ".neurons"
	RequirementsFileName = "requirements.txt"
)

// Strategy names the conflict resolution strategies accepted by the sync policy.
type Strategy string

const (
	// StrategyPrompt asks the user interactively, degrading to prefer-brain
	// when local modifications are disallowed or stdin is not a TTY.
	StrategyPrompt Strategy = "prompt"
	// StrategyPreferBrain always takes the brain's bytes.
	StrategyPreferBrain Strategy = "prefer_brain"
	// StrategyPreferLocal always keeps the local bytes.
	StrategyPreferLocal Strategy = "prefer_local"
)

// ParseStrategy normalizes a strategy string from configuration or flags.
func ParseStrategy(s string) (Strategy, bool) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")) {
	case "prompt":
		return StrategyPrompt, true
	case "prefer_brain":
		return StrategyPreferBrain, true
	case "prefer_local":
		return StrategyPreferLocal, true
	}
	return "", false
}

// ExportPermission is the access mode a brain grants on an exported path.
type ExportPermission string

const (
	// PermReadOnly allows consumers to sync but not export back.
	PermReadOnly ExportPermission = "readonly"
	// PermReadWrite additionally allows exporting local changes back.
	PermReadWrite ExportPermission = "readwrite"
)

// BrainConfig is the parsed .brain descriptor.
type BrainConfig struct {
	ID          string
	Description string

	// Export maps brain-relative path patterns to their permission.
	Export map[string]ExportPermission

	// Access maps an entity id to the path patterns it may use. Parsed for
	// round-trip but not enforced.
	Access map[string][]string

	// UpdatePolicy holds the optional [UPDATE_POLICY] section, also
	// round-tripped without being enforced.
	UpdatePolicy *UpdatePolicy
}

// UpdatePolicy is the parsed [UPDATE_POLICY] section of a .brain descriptor.
type UpdatePolicy struct {
	// Bools holds keys whose values parse as booleans.
	Bools map[string]bool
	// ProtectedPaths is the reserved PROTECTED_PATHS list.
	ProtectedPaths []string
	// Extra preserves every other key as a string.
	Extra map[string]string
}

// BrainEntry is one [BRAIN:<id>] registration in a .neurons descriptor.
type BrainEntry struct {
	// Remote is the clone URL; required.
	Remote string
	// Branch is the tracked branch; empty means the consumer's default.
	Branch string
	// Args is a pass-through argument string, preserved but unused.
	Args string
}

// TrackedBranch returns the configured branch or the default "main".
func (b BrainEntry) TrackedBranch() string {
	if b.Branch != "" {
		return b.Branch
	}
	return "main"
}

// SyncPolicy is the [SYNC_POLICY] section of a .neurons descriptor.
type SyncPolicy struct {
	AutoSyncOnPull          bool
	AutoSyncOnCheckout      bool
	ConflictStrategy        Strategy
	AllowLocalModifications bool
	AllowPushToBrain        bool
}

// DefaultSyncPolicy returns the policy applied when [SYNC_POLICY] is absent
// or partially specified.
func DefaultSyncPolicy() SyncPolicy {
	return SyncPolicy{
		AutoSyncOnPull:          true,
		AutoSyncOnCheckout:      false,
		ConflictStrategy:        StrategyPrompt,
		AllowLocalModifications: false,
		AllowPushToBrain:        false,
	}
}

// Mapping is one neuron declaration: a (brain, source, destination) triple
// plus the user's original [MAP] key, kept for round-trips.
type Mapping struct {
	BrainID     string
	Source      string
	Destination string
	Key         string
}

// Triple returns the mapping as its identifying triple, used for dedup.
func (m Mapping) Triple() string {
	return m.BrainID + "::" + m.Source + "::" + m.Destination
}

// NeuronsConfig is the parsed .neurons descriptor.
type NeuronsConfig struct {
	// Brains maps brain id to its registration.
	Brains map[string]BrainEntry
	// BrainOrder preserves the declaration order of [BRAIN:<id>] sections.
	BrainOrder []string
	// Policy is the sync policy with defaults applied.
	Policy SyncPolicy
	// Mappings preserves [MAP] insertion order; it determines sync order.
	Mappings []Mapping
}

// Brain looks up a registered brain by id.
func (c *NeuronsConfig) Brain(id string) (BrainEntry, bool) {
	b, ok := c.Brains[id]
	return b, ok
}

// parseBool recognizes the descriptor boolean spellings.
func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "1":
		return true, true
	case "false", "no", "0":
		return false, true
	}
	return false, false
}

// formatBool emits the canonical descriptor boolean spelling.
func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// splitList splits a comma-separated descriptor list, trimming whitespace
// and dropping empty elements.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
