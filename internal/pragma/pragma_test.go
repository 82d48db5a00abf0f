package pragma

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeDeduplicates(t *testing.T) {
	set, err := Merge([]Directive{
		{Origin: "A.sol", Value: "^0.8.0"},
		{Origin: "B.sol", Value: " ^0.8.0 "},
		{Origin: "C.sol", Value: ">=0.8.4   <0.9.0"},
	})
	require.NoError(t, err)
	require.Equal(t, 2, set.Len())
	assert.Equal(t, []string{"A.sol", "B.sol"}, set.Requirements()[0].Origins)
	assert.Equal(t, "^0.8.0, >=0.8.4 <0.9.0", set.String())
}

func TestCheck(t *testing.T) {
	set, err := Merge([]Directive{
		{Origin: "A.sol", Value: "^0.8.0"},
		{Origin: "B.sol", Value: ">=0.8.4"},
	})
	require.NoError(t, err)

	ok, failing, err := set.Check("0.8.19")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, failing)

	ok, failing, err = set.Check("0.8.2")
	require.NoError(t, err)
	assert.False(t, ok)
	require.Len(t, failing, 1)
	assert.Equal(t, ">=0.8.4", failing[0].Value)

	ok, _, err = set.Check("0.9.0")
	require.NoError(t, err)
	assert.False(t, ok, "caret on 0.x must not admit the next minor")

	_, _, err = set.Check("latest")
	assert.Error(t, err)
}

func TestBest(t *testing.T) {
	set, err := Merge([]Directive{{Origin: "A.sol", Value: "^0.7.0 || ^0.8.0"}, {Origin: "B.sol", Value: "<0.8.10"}})
	require.NoError(t, err)
	assert.Equal(t, "(^0.7.0 || ^0.8.0), <0.8.10", set.String())

	best, err := set.Best([]string{"0.7.6", "0.8.9", "0.8.21", "junk"})
	require.NoError(t, err)
	assert.Equal(t, "0.8.9", best)

	_, err = set.Best([]string{"0.6.12"})
	assert.ErrorIs(t, err, ErrNoCandidate)
}

func TestMentionedFeedsBest(t *testing.T) {
	set, err := Merge([]Directive{
		{Origin: "A.sol", Value: "^0.8.0"},
		{Origin: "B.sol", Value: ">=0.8.4 <0.9.0"},
		{Origin: "C.sol", Value: ">=0.8.4"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"0.8.0", "0.8.4", "0.9.0"}, set.Mentioned())

	best, err := set.Best(set.Mentioned())
	require.NoError(t, err)
	assert.Equal(t, "0.8.4", best)

	set, err = Merge([]Directive{{Origin: "A.sol", Value: "^0.7.0"}, {Origin: "B.sol", Value: "^0.8.0"}})
	require.NoError(t, err)
	_, err = set.Best(set.Mentioned())
	assert.ErrorIs(t, err, ErrNoCandidate)
}

func TestMergeReportsBadDirectives(t *testing.T) {
	set, err := Merge([]Directive{{Origin: "A.sol", Value: "^0.8.0"}, {Origin: "B.sol", Value: "not a version"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "B.sol")
	assert.Equal(t, 1, set.Len())
}

func TestEmptySetAcceptsAnything(t *testing.T) {
	set, err := Merge(nil)
	require.NoError(t, err)
	assert.Equal(t, "*", set.String())
	ok, _, err := set.Check("0.4.26")
	require.NoError(t, err)
	assert.True(t, ok)
}
