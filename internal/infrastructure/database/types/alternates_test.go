package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlternatesScanValue(t *testing.T) {
	v, err := Alternates{"colour", "Colour"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["colour","Colour"]`, v)

	var nilAlts Alternates
	v, err = nilAlts.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	var got Alternates
	require.NoError(t, got.Scan([]byte(`["grey"]`)))
	assert.Equal(t, Alternates{"grey"}, got)

	require.NoError(t, got.Scan(`["a","b"]`))
	assert.Equal(t, Alternates{"a", "b"}, got)

	require.NoError(t, got.Scan(nil))
	assert.Nil(t, got)

	assert.Error(t, got.Scan(42))
}
