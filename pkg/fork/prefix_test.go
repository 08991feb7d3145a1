package fork

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func items(roles ...Role) []ResponseItem {
	out := make([]ResponseItem, len(roles))
	for i, r := range roles {
		out[i] = ResponseItem{Role: r, Text: string(r)}
	}
	return out
}

func TestBuildPrefixItems_CutsBeforeNthFromLastUser(t *testing.T) {
	// [user, assistant, user, assistant, user] — cut before the 2nd-from-last user
	// message, i.e. index 2.
	in := items(RoleUser, RoleAssistant, RoleUser, RoleAssistant, RoleUser)

	got, err := BuildPrefixItems(in, 2)
	require.NoError(t, err)
	assert.Equal(t, in[:2], got)
}

func TestBuildPrefixItems_NEqualsOneKeepsUpToLastUser(t *testing.T) {
	in := items(RoleUser, RoleAssistant, RoleUser)
	got, err := BuildPrefixItems(in, 1)
	require.NoError(t, err)
	assert.Equal(t, in[:2], got)
}

func TestBuildPrefixItems_NExceedsUserMessageCount(t *testing.T) {
	in := items(RoleUser, RoleAssistant)
	_, err := BuildPrefixItems(in, 5)
	assert.Error(t, err)
}

func TestBuildPrefixItems_RejectsNonPositiveN(t *testing.T) {
	_, err := BuildPrefixItems(items(RoleUser), 0)
	assert.Error(t, err)
}

func TestGhostRing_LIFOWithBoundedCapacity(t *testing.T) {
	r := NewGhostRing(2)
	r.Push(GhostState{ComposerText: "a"})
	r.Push(GhostState{ComposerText: "b"})
	r.Push(GhostState{ComposerText: "c"}) // evicts "a"

	g, ok := r.Pop()
	require.True(t, ok)
	assert.Equal(t, "c", g.ComposerText)

	g, ok = r.Pop()
	require.True(t, ok)
	assert.Equal(t, "b", g.ComposerText)

	_, ok = r.Pop()
	assert.False(t, ok)
}
