package main

import (
	"testing"

	"github.com/michaelwinczuk/agent-contracts/commands/server"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFlagsOverrideFile(t *testing.T) {
	home := t.TempDir()
	onDisk := server.DefaultConfig(home)
	onDisk.ChainID = "from-file"
	onDisk.LogLevel = "error"
	onDisk.HTTPBind = "localhost:9999"
	require.NoError(t, server.WriteConfig(onDisk))

	conf := server.DefaultConfig(home)
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVar(&conf.LogLevel, "log_level", conf.LogLevel, "")
	cmd.Flags().StringVar(&conf.HTTPBind, "http", conf.HTTPBind, "")
	require.NoError(t, cmd.Flags().Parse([]string{"--http", "localhost:7777"}))

	require.NoError(t, loadConfig(cmd, &conf))
	assert.Equal(t, "from-file", conf.ChainID)
	assert.Equal(t, "error", conf.LogLevel)
	assert.Equal(t, "localhost:7777", conf.HTTPBind)
	assert.Equal(t, home, conf.Home)
}

func TestLoadConfigWithoutFile(t *testing.T) {
	home := t.TempDir()
	conf := server.DefaultConfig(home)
	cmd := &cobra.Command{Use: "test"}
	require.NoError(t, loadConfig(cmd, &conf))
	assert.Equal(t, server.DefaultConfig(home), conf)
}
