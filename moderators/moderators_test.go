package moderators

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alijnmerchant21/messagefeed/model"
)

func TestSet(t *testing.T) {
	var a, b model.Identity
	a[0], b[0] = 1, 2

	s := NewSet(a)
	require.True(t, s.Has(a))
	require.False(t, s.Has(b))
	require.False(t, s.Add(a))
	require.True(t, s.Add(b))
	require.Equal(t, []model.Identity{a, b}, s.List())
	require.Equal(t, 2, s.Len())
}

func TestParse(t *testing.T) {
	id := strings.Repeat("0a", model.IdentitySize)
	s, err := Parse([]string{id, id})
	require.NoError(t, err)
	require.Equal(t, 1, s.Len())

	_, err = Parse([]string{"nope"})
	require.Error(t, err)
}
