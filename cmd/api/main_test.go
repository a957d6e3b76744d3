package main

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags(nil)
	require.NoError(t, err)
	assert.False(t, opts.migrateSet())
	assert.Empty(t, opts.addr)

	opts, err = parseFlags([]string{"--env-file", "local.env", "--migrate=false", "--addr", ":9090"})
	require.NoError(t, err)
	assert.Equal(t, "local.env", opts.envFile)
	assert.True(t, opts.migrateSet())
	assert.False(t, opts.migrate)
	assert.Equal(t, ":9090", opts.addr)

	_, err = parseFlags([]string{"--help"})
	assert.ErrorIs(t, err, pflag.ErrHelp)

	_, err = parseFlags([]string{"--nope"})
	assert.Error(t, err)
}
