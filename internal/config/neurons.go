package config

import (
	"fmt"
	"strings"

	"gopkg.in/ini.v1"
)

const brainSectionPrefix = "BRAIN:"

// LoadNeuronsConfig parses the .neurons descriptor at path.
func LoadNeuronsConfig(path string) (*NeuronsConfig, error) {
	file, err := ini.LoadSources(descriptorLoadOptions, path)
	if err != nil {
		return nil, &NeuronsConfigError{Path: path, Msg: "failed to read neurons descriptor", Err: err}
	}
	return parseNeuronsConfig(file, path)
}

// ParseNeuronsConfig parses .neurons descriptor content held in memory.
func ParseNeuronsConfig(content string) (*NeuronsConfig, error) {
	file, err := ini.LoadSources(descriptorLoadOptions, []byte(content))
	if err != nil {
		return nil, &NeuronsConfigError{Msg: "failed to parse neurons descriptor", Err: err}
	}
	return parseNeuronsConfig(file, "")
}

func parseNeuronsConfig(file *ini.File, path string) (*NeuronsConfig, error) {
	cfg := &NeuronsConfig{
		Brains: make(map[string]BrainEntry),
		Policy: DefaultSyncPolicy(),
	}

	for _, section := range file.Sections() {
		if !strings.HasPrefix(section.Name(), brainSectionPrefix) {
			continue
		}
		id := strings.TrimSpace(strings.TrimPrefix(section.Name(), brainSectionPrefix))
		if id == "" {
			return nil, &NeuronsConfigError{Path: path, Msg: "Brain section with empty id"}
		}
		entry := BrainEntry{
			Remote: strings.TrimSpace(section.Key("REMOTE").String()),
			Branch: strings.TrimSpace(section.Key("BRANCH").String()),
			Args:   strings.TrimSpace(section.Key("ARGS").String()),
		}
		if entry.Remote == "" {
			return nil, &NeuronsConfigError{Path: path, Msg: fmt.Sprintf("Missing REMOTE for brain '%s'", id)}
		}
		cfg.Brains[id] = entry
		cfg.BrainOrder = append(cfg.BrainOrder, id)
	}

	if policy, err := file.GetSection("SYNC_POLICY"); err == nil {
		if err := parseSyncPolicy(policy, &cfg.Policy); err != nil {
			return nil, &NeuronsConfigError{Path: path, Msg: err.Error()}
		}
	}

	mapSection, err := file.GetSection("MAP")
	if err != nil {
		return nil, &NeuronsConfigError{Path: path, Msg: "Missing required [MAP] section"}
	}
	for _, key := range mapSection.Keys() {
		mapping, err := parseMapping(key.Name(), key.String(), cfg)
		if err != nil {
			return nil, &NeuronsConfigError{Path: path, Msg: err.Error()}
		}
		cfg.Mappings = append(cfg.Mappings, mapping)
	}

	return cfg, nil
}

func parseSyncPolicy(section *ini.Section, policy *SyncPolicy) error {
	boolKeys := map[string]*bool{
		"AUTO_SYNC_ON_PULL":         &policy.AutoSyncOnPull,
		"AUTO_SYNC_ON_CHECKOUT":     &policy.AutoSyncOnCheckout,
		"ALLOW_LOCAL_MODIFICATIONS": &policy.AllowLocalModifications,
		"ALLOW_PUSH_TO_BRAIN":       &policy.AllowPushToBrain,
	}
	for name, target := range boolKeys {
		if !section.HasKey(name) {
			continue
		}
		value := section.Key(name).String()
		b, ok := parseBool(value)
		if !ok {
			return fmt.Errorf("Invalid boolean value '%s' for %s", value, name)
		}
		*target = b
	}
	if section.HasKey("CONFLICT_STRATEGY") {
		value := section.Key("CONFLICT_STRATEGY").String()
		strategy, ok := ParseStrategy(value)
		if !ok {
			return fmt.Errorf("Invalid CONFLICT_STRATEGY '%s'", value)
		}
		policy.ConflictStrategy = strategy
	}
	return nil
}

// parseMapping accepts "brain::source::destination" or, when exactly one
// brain is registered, the "source::destination" shorthand.
func parseMapping(key, value string, cfg *NeuronsConfig) (Mapping, error) {
	parts := strings.Split(value, "::")
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}

	var m Mapping
	m.Key = key
	switch len(parts) {
	case 3:
		m.BrainID, m.Source, m.Destination = parts[0], parts[1], parts[2]
	case 2:
		if len(cfg.Brains) != 1 {
			return Mapping{}, fmt.Errorf("Mapping '%s' omits the brain id but %d brains are defined", key, len(cfg.Brains))
		}
		m.BrainID = cfg.BrainOrder[0]
		m.Source, m.Destination = parts[0], parts[1]
	default:
		return Mapping{}, fmt.Errorf("Invalid mapping '%s': expected brain::source::destination", key)
	}

	if m.BrainID == "" || m.Source == "" || m.Destination == "" {
		return Mapping{}, fmt.Errorf("Invalid mapping '%s': empty part", key)
	}
	if _, ok := cfg.Brains[m.BrainID]; !ok {
		return Mapping{}, fmt.Errorf("Unknown brain '%s' in mapping '%s'", m.BrainID, key)
	}
	return m, nil
}

// SaveNeuronsConfig writes cfg to path in descriptor INI form.
// Brain sections keep declaration order; mappings keep their original keys,
// falling back to synthesized map{i} names.
func SaveNeuronsConfig(cfg *NeuronsConfig, path string) error {
	file := ini.Empty(descriptorLoadOptions)

	for _, id := range cfg.BrainOrder {
		entry, ok := cfg.Brains[id]
		if !ok {
			continue
		}
		section, err := file.NewSection(brainSectionPrefix + id)
		if err != nil {
			return &NeuronsConfigError{Path: path, Msg: "failed to build brain section", Err: err}
		}
		if _, err := section.NewKey("REMOTE", entry.Remote); err != nil {
			return &NeuronsConfigError{Path: path, Msg: "failed to write REMOTE", Err: err}
		}
		if entry.Branch != "" {
			if _, err := section.NewKey("BRANCH", entry.Branch); err != nil {
				return &NeuronsConfigError{Path: path, Msg: "failed to write BRANCH", Err: err}
			}
		}
		if entry.Args != "" {
			if _, err := section.NewKey("ARGS", entry.Args); err != nil {
				return &NeuronsConfigError{Path: path, Msg: "failed to write ARGS", Err: err}
			}
		}
	}

	policy, err := file.NewSection("SYNC_POLICY")
	if err != nil {
		return &NeuronsConfigError{Path: path, Msg: "failed to build [SYNC_POLICY] section", Err: err}
	}
	policyKeys := []struct {
		name  string
		value string
	}{
		{"AUTO_SYNC_ON_PULL", formatBool(cfg.Policy.AutoSyncOnPull)},
		{"AUTO_SYNC_ON_CHECKOUT", formatBool(cfg.Policy.AutoSyncOnCheckout)},
		{"CONFLICT_STRATEGY", string(cfg.Policy.ConflictStrategy)},
		{"ALLOW_LOCAL_MODIFICATIONS", formatBool(cfg.Policy.AllowLocalModifications)},
		{"ALLOW_PUSH_TO_BRAIN", formatBool(cfg.Policy.AllowPushToBrain)},
	}
	for _, kv := range policyKeys {
		if _, err := policy.NewKey(kv.name, kv.value); err != nil {
			return &NeuronsConfigError{Path: path, Msg: "failed to write sync policy", Err: err}
		}
	}

	mapSection, err := file.NewSection("MAP")
	if err != nil {
		return &NeuronsConfigError{Path: path, Msg: "failed to build [MAP] section", Err: err}
	}
	for i, m := range cfg.Mappings {
		key := m.Key
		if key == "" {
			key = fmt.Sprintf("map%d", i)
		}
		value := fmt.Sprintf("%s::%s::%s", m.BrainID, m.Source, m.Destination)
		if _, err := mapSection.NewKey(key, value); err != nil {
			return &NeuronsConfigError{Path: path, Msg: "failed to write mapping", Err: err}
		}
	}

	if err := file.SaveTo(path); err != nil {
		return &NeuronsConfigError{Path: path, Msg: "failed to save neurons descriptor", Err: err}
	}
	return nil
}
