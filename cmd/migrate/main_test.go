package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs(t *testing.T) {
	opts, err := parseArgs(nil)
	require.NoError(t, err)
	assert.Equal(t, "up", opts.command)

	opts, err = parseArgs([]string{"-name", "add rug sizes", "create"})
	require.NoError(t, err)
	assert.Equal(t, "create", opts.command)
	assert.Equal(t, "add rug sizes", opts.name)

	opts, err = parseArgs([]string{"-cmd", "status"})
	require.NoError(t, err)
	assert.Equal(t, "status", opts.command)

	_, err = parseArgs([]string{"create"})
	assert.Error(t, err)
	_, err = parseArgs([]string{"version"})
	assert.Error(t, err)
	_, err = parseArgs([]string{"sideways"})
	assert.Error(t, err)
}
