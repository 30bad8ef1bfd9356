package room

import (
	"testing"

	"github.com/fathima-sithara/snip/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyExample(t *testing.T) {
	ab, err := Key("alice", "bob")
	require.NoError(t, err)
	ba, err := Key("bob", "alice")
	require.NoError(t, err)

	assert.Equal(t, "alice_bob", ab)
	assert.Equal(t, ab, ba)
}

func TestKeySymmetricAndDistinct(t *testing.T) {
	ids := []string{"u1", "u2", "U3", "9f1c2a", "zeta", "a", "aa"}
	seen := map[string][2]string{}
	for i, a := range ids {
		for j, b := range ids {
			if i == j {
				continue
			}
			k1, err := Key(a, b)
			require.NoError(t, err)
			k2, err := Key(b, a)
			require.NoError(t, err)
			assert.Equal(t, k1, k2, "%s/%s", a, b)

			if prev, ok := seen[k1]; ok {
				same := (prev[0] == a && prev[1] == b) || (prev[0] == b && prev[1] == a)
				assert.True(t, same, "key %q shared by %v and %s/%s", k1, prev, a, b)
			}
			seen[k1] = [2]string{a, b}
		}
	}
}

func TestKeyRejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		a, b string
	}{
		{"equal", "x", "x"},
		{"empty left", "", "x"},
		{"empty right", "x", ""},
		{"both empty", "", ""},
		{"separator", "a_b", "c"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Key(tc.a, tc.b)
			assert.ErrorIs(t, err, errs.ErrInvalidArgument)
		})
	}
}

func TestPeer(t *testing.T) {
	k, err := Key("bob", "alice")
	require.NoError(t, err)

	p, ok := Peer(k, "alice")
	assert.True(t, ok)
	assert.Equal(t, "bob", p)

	p, ok = Peer(k, "bob")
	assert.True(t, ok)
	assert.Equal(t, "alice", p)

	_, ok = Peer(k, "carol")
	assert.False(t, ok)
	_, ok = Peer("nokey", "alice")
	assert.False(t, ok)
}
