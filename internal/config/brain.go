package config

import (
	"sort"
	"strings"

	"gopkg.in/ini.v1"
)

// descriptorLoadOptions keeps ini parsing strict enough for descriptor files:
// only "=" separates keys from values, so path patterns containing ":" and
// mapping values containing "::" survive intact.
var descriptorLoadOptions = ini.LoadOptions{
	KeyValueDelimiters: "=",
}

// LoadBrainConfig parses the .brain descriptor at path.
func LoadBrainConfig(path string) (*BrainConfig, error) {
	file, err := ini.LoadSources(descriptorLoadOptions, path)
	if err != nil {
		return nil, &BrainConfigError{Path: path, Msg: "failed to read brain descriptor", Err: err}
	}
	return parseBrainConfig(file, path)
}

// ParseBrainConfig parses .brain descriptor content held in memory.
func ParseBrainConfig(content string) (*BrainConfig, error) {
	file, err := ini.LoadSources(descriptorLoadOptions, []byte(content))
	if err != nil {
		return nil, &BrainConfigError{Msg: "failed to parse brain descriptor", Err: err}
	}
	return parseBrainConfig(file, "")
}

func parseBrainConfig(file *ini.File, path string) (*BrainConfig, error) {
	cfg := &BrainConfig{
		Export: make(map[string]ExportPermission),
	}

	brain, err := file.GetSection("BRAIN")
	if err != nil {
		return nil, &BrainConfigError{Path: path, Msg: "Missing required [BRAIN] section"}
	}
	cfg.ID = strings.TrimSpace(brain.Key("ID").String())
	if cfg.ID == "" {
		return nil, &BrainConfigError{Path: path, Msg: "Missing required ID field"}
	}
	cfg.Description = strings.TrimSpace(brain.Key("DESCRIPTION").String())

	export, err := file.GetSection("EXPORT")
	if err != nil {
		return nil, &BrainConfigError{Path: path, Msg: "Missing required [EXPORT] section"}
	}
	for _, key := range export.Keys() {
		cfg.Export[key.Name()] = parseExportPermission(key.String())
	}

	if access, err := file.GetSection("ACCESS"); err == nil {
		cfg.Access = make(map[string][]string)
		for _, key := range access.Keys() {
			cfg.Access[key.Name()] = splitList(key.String())
		}
	}

	if policy, err := file.GetSection("UPDATE_POLICY"); err == nil {
		cfg.UpdatePolicy = parseUpdatePolicy(policy)
	}

	return cfg, nil
}

func parseExportPermission(value string) ExportPermission {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "readwrite":
		return PermReadWrite
	default:
		// empty and unrecognized values fall back to readonly
		return PermReadOnly
	}
}

func parseUpdatePolicy(section *ini.Section) *UpdatePolicy {
	up := &UpdatePolicy{
		Bools: make(map[string]bool),
		Extra: make(map[string]string),
	}
	for _, key := range section.Keys() {
		if key.Name() == "PROTECTED_PATHS" {
			up.ProtectedPaths = splitList(key.String())
			continue
		}
		if b, ok := parseBool(key.String()); ok {
			up.Bools[key.Name()] = b
			continue
		}
		up.Extra[key.Name()] = key.String()
	}
	return up
}

// SaveBrainConfig writes cfg to path in descriptor INI form.
func SaveBrainConfig(cfg *BrainConfig, path string) error {
	file := ini.Empty(descriptorLoadOptions)

	brain, err := file.NewSection("BRAIN")
	if err != nil {
		return &BrainConfigError{Path: path, Msg: "failed to build [BRAIN] section", Err: err}
	}
	if _, err := brain.NewKey("ID", cfg.ID); err != nil {
		return &BrainConfigError{Path: path, Msg: "failed to write ID", Err: err}
	}
	if cfg.Description != "" {
		if _, err := brain.NewKey("DESCRIPTION", cfg.Description); err != nil {
			return &BrainConfigError{Path: path, Msg: "failed to write DESCRIPTION", Err: err}
		}
	}

	export, err := file.NewSection("EXPORT")
	if err != nil {
		return &BrainConfigError{Path: path, Msg: "failed to build [EXPORT] section", Err: err}
	}
	for _, pattern := range sortedKeys(cfg.Export) {
		if _, err := export.NewKey(pattern, string(cfg.Export[pattern])); err != nil {
			return &BrainConfigError{Path: path, Msg: "failed to write export pattern", Err: err}
		}
	}

	if len(cfg.Access) > 0 {
		access, err := file.NewSection("ACCESS")
		if err != nil {
			return &BrainConfigError{Path: path, Msg: "failed to build [ACCESS] section", Err: err}
		}
		for _, entity := range sortedKeys(cfg.Access) {
			if _, err := access.NewKey(entity, strings.Join(cfg.Access[entity], ",")); err != nil {
				return &BrainConfigError{Path: path, Msg: "failed to write access entry", Err: err}
			}
		}
	}

	if cfg.UpdatePolicy != nil {
		policy, err := file.NewSection("UPDATE_POLICY")
		if err != nil {
			return &BrainConfigError{Path: path, Msg: "failed to build [UPDATE_POLICY] section", Err: err}
		}
		for _, name := range sortedKeys(cfg.UpdatePolicy.Bools) {
			if _, err := policy.NewKey(name, formatBool(cfg.UpdatePolicy.Bools[name])); err != nil {
				return &BrainConfigError{Path: path, Msg: "failed to write update policy", Err: err}
			}
		}
		if len(cfg.UpdatePolicy.ProtectedPaths) > 0 {
			if _, err := policy.NewKey("PROTECTED_PATHS", strings.Join(cfg.UpdatePolicy.ProtectedPaths, ",")); err != nil {
				return &BrainConfigError{Path: path, Msg: "failed to write protected paths", Err: err}
			}
		}
		for _, name := range sortedKeys(cfg.UpdatePolicy.Extra) {
			if _, err := policy.NewKey(name, cfg.UpdatePolicy.Extra[name]); err != nil {
				return &BrainConfigError{Path: path, Msg: "failed to write update policy", Err: err}
			}
		}
	}

	if err := file.SaveTo(path); err != nil {
		return &BrainConfigError{Path: path, Msg: "failed to save brain descriptor", Err: err}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
