package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigService_TriggerDefault(t *testing.T) {
	tests := []struct {
		name        string
		value       string
		wantEnabled bool
		wantOK      bool
	}{
		{name: "unset defaults to auto", value: ""},
		{name: "auto defers to interactivity", value: "auto"},
		{name: "explicit true", value: "true", wantEnabled: true, wantOK: true},
		{name: "explicit false", value: "false", wantOK: true},
		{name: "numeric true", value: "1", wantEnabled: true, wantOK: true},
		{name: "malformed value is ignored with a warning", value: "banana"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv("LUABREAK_BREAKPOINT_ENABLED", tt.value)
			}

			svc := NewConfigService()
			require.NoError(t, svc.Initialize())

			enabled, ok := svc.TriggerDefault()
			assert.Equal(t, tt.wantEnabled, enabled)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestConfigService_TriggerDefault_NotInitialized(t *testing.T) {
	svc := NewConfigService()

	enabled, ok := svc.TriggerDefault()
	assert.False(t, enabled)
	assert.False(t, ok)
}

func TestConfigService_ShellPrompt(t *testing.T) {
	svc := NewConfigService()
	assert.Equal(t, "lua> ", svc.ShellPrompt(), "uninitialized service falls back to the default prompt")

	require.NoError(t, svc.Initialize())
	assert.Equal(t, "lua> ", svc.ShellPrompt())

	t.Setenv("LUABREAK_PROMPT_SHELL", ">> ")
	svc2 := NewConfigService()
	require.NoError(t, svc2.Initialize())
	assert.Equal(t, ">> ", svc2.ShellPrompt())
}
