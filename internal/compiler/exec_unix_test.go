//go:build unix

package compiler_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gsarma/texcompile/internal/compiler"
	"github.com/gsarma/texcompile/internal/engine"
)

// shellTeX resolves its arguments the way a real engine does: relative to
// its working directory, which ExecRunner sets to the call directory.
const shellTeX = `#!/bin/sh
if [ "$1" = "--version" ]; then
  printf '%s\n' 'shellTeX 1.0'
  exit 0
fi
stem=$(basename "$4" .tex)
printf '%%PDF-1.5\n' > "$3/$stem.pdf" || exit 1
cat "$4" >> "$3/$stem.pdf" || exit 1
`

func TestCompile_RelativeWorkspaceWithExecRunner(t *testing.T) {
	bin := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(bin, "shelltex"), []byte(shellTeX), 0o755))
	t.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))

	root := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(root))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	c, err := compiler.New(context.Background(), compiler.Config{
		WorkspaceDir: "ws",
		Candidates:   []engine.Engine{{Name: "shelltex", OutputExt: ".pdf"}},
	}, engine.NewExecRunner())
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(c.WorkspaceDir()), "workspace %q", c.WorkspaceDir())
	assert.DirExists(t, filepath.Join(root, "ws"))

	pdf, err := c.CompileBytes(context.Background(), `\documentclass{article}`, "")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.5\n\\documentclass{article}", string(pdf))
}
