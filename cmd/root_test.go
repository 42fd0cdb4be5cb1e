package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandMetadata(t *testing.T) {
	assert.Equal(t, "leadflow", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
}

func TestSubcommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"serve", "migrate", "runs"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestRunsSubcommands(t *testing.T) {
	var runs map[string]bool
	for _, c := range rootCmd.Commands() {
		if c.Name() == "runs" {
			runs = map[string]bool{}
			for _, sc := range c.Commands() {
				runs[sc.Name()] = true
			}
		}
	}
	require.NotNil(t, runs)
	assert.True(t, runs["list"])
	assert.True(t, runs["stats"])
}
