package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/opd-ai/denoisefx/limits"
	"github.com/opd-ai/denoisefx/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *CLIConfig {
	return &CLIConfig{
		width:          64,
		height:         48,
		frames:         12,
		rendersPerTick: 2,
		switchEvery:    4,
		sequence:       "spatial,temporal,none",
		seed:           1,
		logLevel:       "error",
	}
}

func TestValidateCLIConfig(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*CLIConfig)
		wantErr     bool
		errContains string
	}{
		{name: "valid config", mutate: func(*CLIConfig) {}},
		{name: "zero width", mutate: func(c *CLIConfig) { c.width = 0 }, wantErr: true, errContains: "frame size"},
		{name: "width above limit", mutate: func(c *CLIConfig) { c.width = limits.MaxFrameWidth + 1 }, wantErr: true, errContains: "exceeds"},
		{name: "height above limit", mutate: func(c *CLIConfig) { c.height = limits.MaxFrameHeight + 1 }, wantErr: true, errContains: "exceeds"},
		{name: "maximum size", mutate: func(c *CLIConfig) { c.width, c.height = limits.MaxFrameWidth, limits.MaxFrameHeight }},
		{name: "no frames", mutate: func(c *CLIConfig) { c.frames = 0 }, wantErr: true, errContains: "frame count"},
		{name: "no renders", mutate: func(c *CLIConfig) { c.rendersPerTick = 0 }, wantErr: true, errContains: "renders"},
		{name: "negative switch", mutate: func(c *CLIConfig) { c.switchEvery = -1 }, wantErr: true, errContains: "switch interval"},
		{name: "unknown provider", mutate: func(c *CLIConfig) { c.sequence = "spatial,bilateral" }, wantErr: true, errContains: "bilateral"},
		{name: "empty sequence", mutate: func(c *CLIConfig) { c.sequence = " , " }, wantErr: true, errContains: "empty"},
		{name: "bad strength", mutate: func(c *CLIConfig) { c.strength = "extreme" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := validateCLIConfig(cfg)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tt.errContains != "" {
				assert.Contains(t, err.Error(), tt.errContains)
			}
		})
	}
}

func TestParseSequence(t *testing.T) {
	kinds, err := parseSequence("Automatic, spatial ,Temporal Denoising,none")
	require.NoError(t, err)
	assert.Equal(t, []provider.Kind{provider.Automatic, provider.Spatial, provider.Temporal, provider.Invalid}, kinds)
}

func TestRunSimulation(t *testing.T) {
	t.Setenv("DENOISEFX_WORKERS", "1")
	cfg := validConfig()

	summary, err := runSimulation(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, summary)

	assert.Equal(t, 12, summary.Frames)
	assert.Equal(t, 24, summary.Renders)
	assert.Equal(t, uint64(24), summary.Stats.Processed+summary.Stats.Cached+summary.Stats.Bypassed)
	assert.Equal(t, provider.Invalid, summary.Final.Kind)
	assert.Len(t, summary.Switches, 3)

	var counted int64
	for _, n := range summary.FramesByOutcome {
		counted += n
	}
	assert.Equal(t, int64(24), counted)
	assert.Positive(t, summary.SwitchResults["succeeded"])

	var out bytes.Buffer
	summary.Print(&out)
	assert.Contains(t, out.String(), "Simulation summary")
	assert.Contains(t, out.String(), provider.Temporal.String())
}

func TestRunSimulation_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := runSimulation(ctx, validConfig())
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, summary)
	assert.Zero(t, summary.Frames)
}
