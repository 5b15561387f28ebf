package mcpserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vybe/cloudindexer/pkg/config"
)

func TestToolsCoverEveryLifecycleOperation(t *testing.T) {
	cfg := config.DefaultConfig()
	s := &Server{cfg: cfg, userID: "user-1"}

	names := make(map[string]bool)
	for _, tool := range s.tools() {
		names[tool.Name] = true
	}

	for _, want := range []string{
		toolBuildFullIndex, toolGetStatus, toolPause, toolResume,
		toolCancel, toolDeleteIndex, toolGetDiagnostics,
	} {
		assert.True(t, names[want], "missing tool %s", want)
	}
}

func TestWorkspaceFromArgsRequiresPath(t *testing.T) {
	s := &Server{userID: "user-1"}

	_, err := s.workspaceFromArgs(map[string]interface{}{})
	assert.Error(t, err)

	ws, err := s.workspaceFromArgs(map[string]interface{}{"workspace_path": "/tmp/proj"})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/proj", ws.Path)
	assert.Equal(t, "user-1", ws.UserID)
}
