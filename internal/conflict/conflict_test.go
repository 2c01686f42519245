package conflict

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FanaticPythoner/git-brain/internal/config"
)

func TestDetect(t *testing.T) {
	assert.False(t, Detect([]byte("same\n"), []byte("same\n")))
	assert.True(t, Detect([]byte("local\n"), []byte("brain\n")))
	assert.True(t, Detect([]byte{0xff, 0x01}, []byte{0xff, 0x02}))
	assert.False(t, Detect(nil, nil))
	assert.True(t, Detect(nil, []byte("x")))
}

func TestEffectiveStrategy(t *testing.T) {
	// prompt degrades to prefer-brain when local modifications are disallowed
	assert.Equal(t, config.StrategyPreferBrain, EffectiveStrategy(config.StrategyPrompt, false))
	assert.Equal(t, config.StrategyPrompt, EffectiveStrategy(config.StrategyPrompt, true))
	assert.Equal(t, config.StrategyPreferLocal, EffectiveStrategy(config.StrategyPreferLocal, false))
	assert.Equal(t, config.StrategyPreferBrain, EffectiveStrategy(config.StrategyPreferBrain, true))
}

func TestResolvePreferBrain(t *testing.T) {
	r := &Resolver{Strategy: config.StrategyPreferBrain}
	result, err := r.Resolve("f.txt", []byte("local\n"), []byte("brain\n"))
	require.NoError(t, err)
	assert.Equal(t, ResolutionBrain, result.Resolution)
	assert.Equal(t, []byte("brain\n"), result.Content)
}

func TestResolvePreferLocal(t *testing.T) {
	r := &Resolver{Strategy: config.StrategyPreferLocal}
	result, err := r.Resolve("f.txt", []byte("local\n"), []byte("brain\n"))
	require.NoError(t, err)
	assert.Equal(t, ResolutionLocal, result.Resolution)
	assert.Equal(t, []byte("local\n"), result.Content)
}

func TestResolvePromptNonInteractiveFallsBackToBrain(t *testing.T) {
	r := &Resolver{Strategy: config.StrategyPrompt, Interactive: false}
	result, err := r.Resolve("f.txt", []byte("local\n"), []byte("brain\n"))
	require.NoError(t, err)
	assert.Equal(t, ResolutionBrain, result.Resolution)
	assert.Equal(t, []byte("brain\n"), result.Content)
}

func TestResolvePromptInteractiveChoices(t *testing.T) {
	cases := []struct {
		input      string
		resolution Resolution
		content    string
	}{
		{"b\n", ResolutionBrain, "brain\n"},
		{"brain\n", ResolutionBrain, "brain\n"},
		{"l\n", ResolutionLocal, "local\n"},
		{"?\nl\n", ResolutionLocal, "local\n"}, // re-prompt on bad input
	}
	for _, c := range cases {
		var out bytes.Buffer
		r := &Resolver{
			Strategy:    config.StrategyPrompt,
			Interactive: true,
			In:          strings.NewReader(c.input),
			Out:         &out,
		}
		result, err := r.Resolve("f.txt", []byte("local\n"), []byte("brain\n"))
		require.NoError(t, err)
		assert.Equal(t, c.resolution, result.Resolution)
		assert.Equal(t, []byte(c.content), result.Content)
		assert.Contains(t, out.String(), "Conflict in f.txt")
	}
}

func TestResolvePromptMergeClean(t *testing.T) {
	var out bytes.Buffer
	r := &Resolver{
		Strategy:    config.StrategyPrompt,
		Interactive: true,
		In:          strings.NewReader("m\n"),
		Out:         &out,
		Merge: func(_, _, _ []byte) ([]byte, bool, error) {
			return []byte("merged\n"), false, nil
		},
	}
	result, err := r.Resolve("f.txt", []byte("local\n"), []byte("brain\n"))
	require.NoError(t, err)
	assert.Equal(t, ResolutionMerged, result.Resolution)
	assert.Equal(t, []byte("merged\n"), result.Content)
}

func TestResolvePromptMergeWithConflicts(t *testing.T) {
	conflicted := "<<<<<<< local\nlocal\n=======\nbrain\n>>>>>>> brain\n"
	r := &Resolver{
		Strategy:    config.StrategyPrompt,
		Interactive: true,
		In:          strings.NewReader("m\n"),
		Out:         &bytes.Buffer{},
		Merge: func(_, _, _ []byte) ([]byte, bool, error) {
			return []byte(conflicted), true, nil
		},
	}
	result, err := r.Resolve("f.txt", []byte("local\n"), []byte("brain\n"))
	require.NoError(t, err)
	assert.Equal(t, ResolutionMergedWithConflicts, result.Resolution)
}

func TestResolvePromptBinaryOffersNoMerge(t *testing.T) {
	var out bytes.Buffer
	r := &Resolver{
		Strategy:    config.StrategyPrompt,
		Interactive: true,
		In:          strings.NewReader("m\nb\n"), // merge refused for binary, then brain
		Out:         &out,
	}
	result, err := r.Resolve("blob.bin", []byte{0xff, 0x00, 0x01}, []byte{0xff, 0x00, 0x02})
	require.NoError(t, err)
	assert.Equal(t, ResolutionBrain, result.Resolution)
	assert.Contains(t, out.String(), "Binary content differs")
	assert.NotContains(t, out.String(), "(m)erge")
}

func TestResolvePromptEOFFallsBackToBrain(t *testing.T) {
	r := &Resolver{
		Strategy:    config.StrategyPrompt,
		Interactive: true,
		In:          strings.NewReader(""),
		Out:         &bytes.Buffer{},
	}
	result, err := r.Resolve("f.txt", []byte("local\n"), []byte("brain\n"))
	require.NoError(t, err)
	assert.Equal(t, ResolutionBrain, result.Resolution)
}
