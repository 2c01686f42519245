package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadValidBrainConfig(t *testing.T) {
	content := "[BRAIN]\n" +
		"ID = test-brain\n" +
		"DESCRIPTION = Test brain repository\n\n" +
		"[EXPORT]\n" +
		"libs/**/*.py = readonly\n" +
		"config/*.json = readwrite\n\n" +
		"[ACCESS]\n" +
		"user1 = libs/**/*.py, config/*.json\n" +
		"group_all = *\n\n" +
		"[UPDATE_POLICY]\n" +
		"REQUIRE_REVIEW = true\n" +
		"PROTECTED_PATHS = libs/core/*,other/path\n"

	cfg, err := ParseBrainConfig(content)
	require.NoError(t, err)

	assert.Equal(t, "test-brain", cfg.ID)
	assert.Equal(t, "Test brain repository", cfg.Description)

	assert.Equal(t, PermReadOnly, cfg.Export["libs/**/*.py"])
	assert.Equal(t, PermReadWrite, cfg.Export["config/*.json"])

	require.NotNil(t, cfg.Access)
	assert.Equal(t, []string{"libs/**/*.py", "config/*.json"}, cfg.Access["user1"])
	assert.Equal(t, []string{"*"}, cfg.Access["group_all"])

	require.NotNil(t, cfg.UpdatePolicy)
	assert.True(t, cfg.UpdatePolicy.Bools["REQUIRE_REVIEW"])
	assert.Equal(t, []string{"libs/core/*", "other/path"}, cfg.UpdatePolicy.ProtectedPaths)
}

func TestLoadMinimalBrainConfig(t *testing.T) {
	cfg, err := ParseBrainConfig("[BRAIN]\nID = minimal-brain\n\n[EXPORT]\nlibs/* = readonly\n")
	require.NoError(t, err)

	assert.Equal(t, "minimal-brain", cfg.ID)
	assert.Equal(t, PermReadOnly, cfg.Export["libs/*"])
	assert.Empty(t, cfg.Description)
	assert.Nil(t, cfg.Access)
	assert.Nil(t, cfg.UpdatePolicy)
}

func TestEmptyExportValueMeansReadonly(t *testing.T) {
	cfg, err := ParseBrainConfig("[BRAIN]\nID = b\n\n[EXPORT]\nlibs/* =\n")
	require.NoError(t, err)
	assert.Equal(t, PermReadOnly, cfg.Export["libs/*"])
}

func TestMissingRequiredIDField(t *testing.T) {
	_, err := ParseBrainConfig("[BRAIN]\nDESCRIPTION = x\n\n[EXPORT]\nlibs/* = readonly\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing required ID field")
}

func TestMissingExportSection(t *testing.T) {
	_, err := ParseBrainConfig("[BRAIN]\nID = test-brain\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing required [EXPORT] section")
}

func TestSaveBrainConfigRoundTrip(t *testing.T) {
	cfg := &BrainConfig{
		ID:          "test-brain-save",
		Description: "Test Save Brain Repo",
		Export: map[string]ExportPermission{
			"src/**/*.js":      PermReadOnly,
			"assets/data.json": PermReadWrite,
		},
		Access: map[string][]string{
			"group1": {"src/**/*.js", "assets/*"},
			"admin":  {"*"},
		},
		UpdatePolicy: &UpdatePolicy{
			Bools: map[string]bool{"AUTO_APPROVE": false},
			Extra: map[string]string{"NOTIFY_LIST": "dev@example.com,qa@example.com"},
		},
	}

	path := filepath.Join(t.TempDir(), ".brain")
	require.NoError(t, SaveBrainConfig(cfg, path))

	loaded, err := LoadBrainConfig(path)
	require.NoError(t, err)

	assert.Equal(t, cfg.ID, loaded.ID)
	assert.Equal(t, cfg.Description, loaded.Description)
	assert.Equal(t, cfg.Export, loaded.Export)
	assert.Equal(t, cfg.Access, loaded.Access)
	require.NotNil(t, loaded.UpdatePolicy)
	assert.Equal(t, false, loaded.UpdatePolicy.Bools["AUTO_APPROVE"])
	assert.Equal(t, "dev@example.com,qa@example.com", loaded.UpdatePolicy.Extra["NOTIFY_LIST"])
}

func TestLoadValidNeuronsConfig(t *testing.T) {
	content := "[BRAIN:core-lib]\n" +
		"REMOTE = git@github.com:org/core-lib.git\nBRANCH = main\n\n" +
		"[BRAIN:analytics]\n" +
		"REMOTE = git@github.com:org/analytics.git\nBRANCH = stable\n\n" +
		"[SYNC_POLICY]\n" +
		"AUTO_SYNC_ON_PULL = true\nCONFLICT_STRATEGY = prompt\n" +
		"ALLOW_LOCAL_MODIFICATIONS = false\nALLOW_PUSH_TO_BRAIN = false\n\n" +
		"[MAP]\n" +
		"map_str = core-lib::libs/utils/strings.py::src/utils/strings.py\n" +
		"map_cfg = core-lib::libs/config/::config/\n" +
		"map_model = analytics::models/linear.py::src/models/linear.py\n"

	cfg, err := ParseNeuronsConfig(content)
	require.NoError(t, err)

	require.Contains(t, cfg.Brains, "core-lib")
	assert.Equal(t, "git@github.com:org/core-lib.git", cfg.Brains["core-lib"].Remote)
	assert.True(t, cfg.Policy.AutoSyncOnPull)
	assert.Equal(t, StrategyPrompt, cfg.Policy.ConflictStrategy)

	require.Len(t, cfg.Mappings, 3)
	assert.Equal(t, Mapping{
		BrainID:     "core-lib",
		Source:      "libs/utils/strings.py",
		Destination: "src/utils/strings.py",
		Key:         "map_str",
	}, cfg.Mappings[0])
	assert.Equal(t, "config/", cfg.Mappings[1].Destination)
}

func TestLoadMinimalNeuronsConfigDefaults(t *testing.T) {
	content := "[BRAIN:minimal]\nREMOTE = git@github.com:org/minimal.git\n\n" +
		"[MAP]\nmap0 = minimal::lib/utils.py::src/utils.py\n"

	cfg, err := ParseNeuronsConfig(content)
	require.NoError(t, err)

	assert.Equal(t, "git@github.com:org/minimal.git", cfg.Brains["minimal"].Remote)
	assert.Equal(t, "lib/utils.py", cfg.Mappings[0].Source)

	// defaults
	assert.True(t, cfg.Policy.AutoSyncOnPull)
	assert.False(t, cfg.Policy.AutoSyncOnCheckout)
	assert.Equal(t, StrategyPrompt, cfg.Policy.ConflictStrategy)
	assert.False(t, cfg.Policy.AllowLocalModifications)
	assert.False(t, cfg.Policy.AllowPushToBrain)
}

func TestSingleBrainMappingShorthand(t *testing.T) {
	content := "[BRAIN:only]\nREMOTE = url\n\n[MAP]\nm = src/a.py::dst/a.py\n"
	cfg, err := ParseNeuronsConfig(content)
	require.NoError(t, err)
	assert.Equal(t, "only", cfg.Mappings[0].BrainID)

	multi := "[BRAIN:a]\nREMOTE = u1\n\n[BRAIN:b]\nREMOTE = u2\n\n[MAP]\nm = src::dst\n"
	_, err = ParseNeuronsConfig(multi)
	require.Error(t, err)
}

func TestMissingMapSectionError(t *testing.T) {
	_, err := ParseNeuronsConfig("[BRAIN:core-lib]\nREMOTE = git@example.com/repo.git\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing required [MAP] section")
}

func TestEmptyMapSectionAllowed(t *testing.T) {
	cfg, err := ParseNeuronsConfig("[BRAIN:core-lib]\nREMOTE = r\n\n[MAP]\n")
	require.NoError(t, err)
	assert.Empty(t, cfg.Mappings)
}

func TestUnknownBrainInMap(t *testing.T) {
	content := "[BRAIN:core-lib]\nREMOTE = git@example.com/core.git\n\n" +
		"[MAP]\nmap_unknown = unknown_brain::path/src::path/dst\n"
	_, err := ParseNeuronsConfig(content)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unknown brain 'unknown_brain'")
}

func TestMissingRemoteError(t *testing.T) {
	_, err := ParseNeuronsConfig("[BRAIN:x]\nBRANCH = main\n\n[MAP]\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing REMOTE for brain 'x'")
}

func TestSaveNeuronsConfigRoundTrip(t *testing.T) {
	cfg := &NeuronsConfig{
		Brains: map[string]BrainEntry{
			"core": {Remote: "url", Branch: "dev"},
		},
		BrainOrder: []string{"core"},
		Policy: SyncPolicy{
			AutoSyncOnPull:   false,
			ConflictStrategy: StrategyPreferBrain,
		},
		Mappings: []Mapping{
			{BrainID: "core", Source: "s", Destination: "d", Key: "customKey"},
			{BrainID: "core", Source: "s2", Destination: "d2"},
		},
	}

	path := filepath.Join(t.TempDir(), ".neurons")
	require.NoError(t, SaveNeuronsConfig(cfg, path))

	loaded, err := LoadNeuronsConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "dev", loaded.Brains["core"].Branch)
	assert.False(t, loaded.Policy.AutoSyncOnPull)
	assert.Equal(t, StrategyPreferBrain, loaded.Policy.ConflictStrategy)
	require.Len(t, loaded.Mappings, 2)
	assert.Equal(t, "customKey", loaded.Mappings[0].Key)
	assert.Equal(t, "s", loaded.Mappings[0].Source)
	// keyless mappings get a synthesized name on save
	assert.Equal(t, "map1", loaded.Mappings[1].Key)
}

func TestArgsFieldRoundTrips(t *testing.T) {
	content := "[BRAIN:b]\nREMOTE = url\nARGS = --depth=5\n\n[MAP]\n"
	cfg, err := ParseNeuronsConfig(content)
	require.NoError(t, err)
	assert.Equal(t, "--depth=5", cfg.Brains["b"].Args)

	path := filepath.Join(t.TempDir(), ".neurons")
	require.NoError(t, SaveNeuronsConfig(cfg, path))
	loaded, err := LoadNeuronsConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "--depth=5", loaded.Brains["b"].Args)
}

func TestParseStrategy(t *testing.T) {
	for input, want := range map[string]Strategy{
		"prompt":       StrategyPrompt,
		"prefer_brain": StrategyPreferBrain,
		"prefer-local": StrategyPreferLocal,
		"Prefer_Brain": StrategyPreferBrain,
	} {
		got, ok := ParseStrategy(input)
		assert.True(t, ok, input)
		assert.Equal(t, want, got, input)
	}
	_, ok := ParseStrategy("merge")
	assert.False(t, ok)
}

func TestBooleanSpellings(t *testing.T) {
	content := "[BRAIN:b]\nREMOTE = url\n\n[SYNC_POLICY]\nAUTO_SYNC_ON_PULL = no\nALLOW_PUSH_TO_BRAIN = 1\n\n[MAP]\n"
	cfg, err := ParseNeuronsConfig(content)
	require.NoError(t, err)
	assert.False(t, cfg.Policy.AutoSyncOnPull)
	assert.True(t, cfg.Policy.AllowPushToBrain)

	_, err = ParseNeuronsConfig("[BRAIN:b]\nREMOTE = url\n\n[SYNC_POLICY]\nAUTO_SYNC_ON_PULL = maybe\n\n[MAP]\n")
	require.Error(t, err)
}
