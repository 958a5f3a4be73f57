package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// The default configuration wires in-memory backends, so commands that do not
// reach out to the archive can run end to end.
func TestSyncCategoriesCommand(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"sync-categories"})
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)

	require.NoError(t, root.ExecuteContext(context.Background()))
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	root := newRootCmd()
	names := make(map[string]bool)
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	require.True(t, names["ingest"])
	require.True(t, names["serve"])
	require.True(t, names["sync-categories"])
}
