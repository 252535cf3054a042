// ABOUTME: Tests for deterministic address derivation
// ABOUTME: Covers determinism, domain separation, and hex parsing

package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRoot() Address {
	var root Address
	for i := range root {
		root[i] = byte(i)
	}
	return root
}

func TestRecord_Deterministic(t *testing.T) {
	proxy := Proxy(testRoot())

	a := Record(proxy, "main", "alice")
	b := Record(proxy, "main", "alice")
	assert.Equal(t, a, b)
	assert.Equal(t, a.String(), b.String())
}

func TestRecord_DistinctOwners(t *testing.T) {
	proxy := Proxy(testRoot())

	alice := Record(proxy, "main", "alice")
	bob := Record(proxy, "main", "bob")
	assert.NotEqual(t, alice, bob)
}

func TestRecord_DistinctNamespaces(t *testing.T) {
	proxy := Proxy(testRoot())

	a := Record(proxy, "main", "alice")
	b := Record(proxy, "other", "alice")
	assert.NotEqual(t, a, b)
}

func TestDomainSeparation(t *testing.T) {
	root := testRoot()

	// The same logical inputs through different derivation families must not
	// collide.
	seen := map[Address]string{
		Proxy(root):                  "proxy",
		Namespace(root, "main"):      "namespace",
		Principal(root, "main"):      "principal",
		Record(root, "main", "main"): "record",
	}
	assert.Len(t, seen, 4)
}

func TestFieldFraming(t *testing.T) {
	proxy := Proxy(testRoot())

	// ("ab", "c") and ("a", "bc") concatenate identically; framing must keep
	// them apart.
	assert.NotEqual(t, Record(proxy, "ab", "c"), Record(proxy, "a", "bc"))
}

func TestParse_RoundTrip(t *testing.T) {
	a := Namespace(testRoot(), "main")

	parsed, err := Parse(a.String())
	require.NoError(t, err)
	assert.Equal(t, a, parsed)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse("too-short")
	assert.ErrorIs(t, err, ErrInvalidAddress)

	_, err = Parse("zz" + Namespace(testRoot(), "main").String()[2:])
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestIsZero(t *testing.T) {
	var zero Address
	assert.True(t, zero.IsZero())
	assert.False(t, Proxy(testRoot()).IsZero())
}
