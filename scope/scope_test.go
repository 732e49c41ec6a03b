package scope_test

import (
	"testing"

	"github.com/liveservices/LiveSDK-for-Windows-sub001/scope"
	"github.com/stretchr/testify/require"
)

func TestSerialize(t *testing.T) {
	require.Equal(t, "", scope.Serialize(nil))
	require.Equal(t, "", scope.Serialize([]string{}))
	require.Equal(t, "wl.signin", scope.Serialize([]string{"wl.signin"}))
	require.Equal(t, "wl.signin wl.basic wl.emails", scope.Serialize([]string{"wl.signin", "wl.basic", "wl.emails"}))
}

func TestParse(t *testing.T) {
	t.Run("blank input", func(t *testing.T) {
		require.Empty(t, scope.Parse(""))
		require.Empty(t, scope.Parse("   "))
		require.Empty(t, scope.Parse(" , ,"))
	})

	t.Run("space and comma separators", func(t *testing.T) {
		require.Equal(t, []string{"wl.signin", "wl.basic", "wl.emails"}, scope.Parse("wl.signin,wl.basic wl.emails"))
		require.Equal(t, []string{"a", "b"}, scope.Parse("  a ,, b  "))
	})

	t.Run("round trip keeps membership", func(t *testing.T) {
		for _, in := range []string{"wl.signin wl.basic", "wl.signin,wl.basic", "a, b ,c", "single"} {
			parsed := scope.Parse(in)
			again := scope.Parse(scope.Serialize(parsed))
			require.ElementsMatch(t, parsed, again, in)
		}
	})
}

func TestIsSubsetOf(t *testing.T) {
	granted := []string{"wl.signin", "wl.basic", "wl.offline_access"}

	t.Run("nil and empty are subsets", func(t *testing.T) {
		require.True(t, scope.IsSubsetOf(nil, granted))
		require.True(t, scope.IsSubsetOf([]string{}, granted))
		require.True(t, scope.IsSubsetOf(nil, nil))
	})

	t.Run("order does not matter", func(t *testing.T) {
		require.True(t, scope.IsSubsetOf([]string{"wl.offline_access", "wl.signin"}, granted))
	})

	t.Run("missing element", func(t *testing.T) {
		require.False(t, scope.IsSubsetOf([]string{"wl.signin", "wl.contacts_create"}, granted))
		require.False(t, scope.IsSubsetOf([]string{"wl.signin"}, nil))
	})

	t.Run("case sensitive", func(t *testing.T) {
		require.False(t, scope.IsSubsetOf([]string{"WL.SIGNIN"}, granted))
	})
}

func TestNormalize(t *testing.T) {
	require.Equal(t, []string{"b", "a"}, scope.Normalize([]string{" b", "a", "", "b", "a "}))
	require.True(t, scope.IsBaseline([]string{"wl.signin", " wl.signin"}))
	require.False(t, scope.IsBaseline([]string{"wl.signin", "wl.basic"}))
	require.False(t, scope.IsBaseline(nil))
}
