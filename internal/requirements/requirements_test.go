package requirements

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	content := "requests==2.28.1\nflask>=2.0.0\nnumpy == 1.22.3\npandas # comment"
	deps := Parse(content)

	assert.Equal(t, "2.28.1", deps["requests"])
	assert.Equal(t, "", deps["flask"])
	assert.Equal(t, "1.22.3", deps["numpy"])
	assert.Equal(t, "", deps["pandas"])
}

func TestParseIgnoresCommentsAndBlanks(t *testing.T) {
	deps := Parse("# a comment\n\nrequests==1.0\n   \n# another\n")
	assert.Len(t, deps, 1)
	assert.Equal(t, "1.0", deps["requests"])
}

func TestMergePrefersNeuronAndHigherVersions(t *testing.T) {
	repo := Parse("requests==2.27.1\nflask==2.0.0\nnumpy==1.21.0\n")
	neuron := Parse("requests==2.28.1\npandas==1.4.2\nnumpy==1.22.0\n")

	merged := Merge(repo, neuron)

	assert.Equal(t, "2.28.1", merged["requests"])
	assert.Equal(t, "2.0.0", merged["flask"])
	assert.Equal(t, "1.4.2", merged["pandas"])
	assert.Equal(t, "1.22.0", merged["numpy"])
}

func TestMergeKeepsHigherConsumerVersion(t *testing.T) {
	merged := Merge(map[string]string{"requests": "2.30.0"}, map[string]string{"requests": "2.25.0"})
	assert.Equal(t, "2.30.0", merged["requests"])
}

func TestMergeEmptyVersions(t *testing.T) {
	// an existing pin survives an unpinned neuron entry
	merged := Merge(map[string]string{"flask": "2.0.0"}, map[string]string{"flask": ""})
	assert.Equal(t, "2.0.0", merged["flask"])

	// a neuron pin fills in an unpinned consumer entry
	merged = Merge(map[string]string{"flask": ""}, map[string]string{"flask": "2.1.0"})
	assert.Equal(t, "2.1.0", merged["flask"])

	// both unpinned stays unpinned
	merged = Merge(map[string]string{"flask": ""}, map[string]string{"flask": ""})
	assert.Equal(t, "", merged["flask"])
}

func TestMergeUnparseableVersionsPreferNeuron(t *testing.T) {
	merged := Merge(map[string]string{"pkg": "1.0.post1"}, map[string]string{"pkg": "2024.alpha"})
	assert.Equal(t, "2024.alpha", merged["pkg"])
}

// The merged version of a twice-pinned dependency is never lower than
// either input pin.
func TestMergeMonotone(t *testing.T) {
	cases := []struct {
		repo, neuron, want string
	}{
		{"1.0.0", "2.0.0", "2.0.0"},
		{"2.0.0", "1.0.0", "2.0.0"},
		{"1.2.3", "1.2.3", "1.2.3"},
		{"0.9.9", "1.0.0", "1.0.0"},
		{"1.10.0", "1.9.0", "1.10.0"},
	}
	for _, c := range cases {
		merged := Merge(map[string]string{"pkg": c.repo}, map[string]string{"pkg": c.neuron})
		assert.Equal(t, c.want, merged["pkg"], "repo=%s neuron=%s", c.repo, c.neuron)
	}
}

func TestSerializeSortedByName(t *testing.T) {
	out := Serialize(map[string]string{"requests": "2.25.0", "flask": ""})
	assert.Equal(t, "flask\nrequests==2.25.0\n", out)
}

func TestMergeFiles(t *testing.T) {
	out := MergeFiles("requests==2.20.0\nflask\n", "requests==2.25.0\n")
	assert.Equal(t, "flask\nrequests==2.25.0\n", out)
}
