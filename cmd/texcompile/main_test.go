package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gsarma/texcompile/internal/compiler"
	"github.com/gsarma/texcompile/internal/engine"
	"github.com/gsarma/texcompile/internal/engine/enginetest"
)

func TestProbeAll(t *testing.T) {
	fake := &enginetest.Fake{Available: map[string]string{"xelatex": "XeTeX 3.14"}}
	var out bytes.Buffer

	err := probeAll(context.Background(), &out, fake, engine.DefaultCandidates(), time.Second)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "pdflatex")
	assert.Regexp(t, `xelatex\s+ok\s+XeTeX 3.14`, out.String())
	assert.Regexp(t, `lualatex\s+unavailable`, out.String())
}

func TestProbeAll_NoneAvailable(t *testing.T) {
	var out bytes.Buffer
	err := probeAll(context.Background(), &out, &enginetest.Fake{Available: map[string]string{}}, engine.DefaultCandidates(), time.Second)

	var ec kong.ExitCoder
	require.True(t, errors.As(err, &ec))
	assert.Equal(t, 4, ec.ExitCode())
	assert.ErrorIs(t, err, engine.ErrToolNotFound)
}

func TestWithExitCode(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{compiler.Validate(""), 2},
		{&compiler.Error{Kind: compiler.KindCompilation}, 3},
		{&compiler.Error{Kind: compiler.KindToolNotFound}, 4},
		{&compiler.Error{Kind: compiler.KindIO}, 5},
	}
	for _, tc := range cases {
		var ec kong.ExitCoder
		require.True(t, errors.As(withExitCode(tc.err), &ec), "%v", tc.err)
		assert.Equal(t, tc.code, ec.ExitCode())
	}

	plain := errors.New("plain")
	assert.Same(t, plain, withExitCode(plain))
}

func TestCLI_ParsesServeByDefault(t *testing.T) {
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("texcompile"))
	require.NoError(t, err)

	ctx, err := parser.Parse([]string{"--port=9100", "--engines=lualatex"})
	require.NoError(t, err)
	assert.Equal(t, "serve", ctx.Command())
	assert.Equal(t, 9100, cli.Serve.Port)
	assert.Equal(t, []string{"lualatex"}, cli.Serve.Engines)
}

func TestCLI_CompileCommand(t *testing.T) {
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("texcompile"))
	require.NoError(t, err)

	ctx, err := parser.Parse([]string{"compile", "-", "-o", "out.pdf", "--timeout=10s"})
	require.NoError(t, err)
	assert.Equal(t, "compile <source>", ctx.Command())
	assert.Equal(t, "out.pdf", cli.Compile.Output)
	assert.Equal(t, 10*time.Second, cli.Compile.Timeout)
}
