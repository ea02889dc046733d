package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gsarma/texcompile/internal/config"
	"github.com/gsarma/texcompile/internal/engine"
)

type testCLI struct {
	config.Engine `embed:""`
	config.Server `embed:""`
}

func parse(t *testing.T, args []string, opts ...kong.Option) testCLI {
	t.Helper()
	var cli testCLI
	parser, err := kong.New(&cli, append([]kong.Option{kong.Name("texcompile")}, opts...)...)
	require.NoError(t, err)
	_, err = parser.Parse(args)
	require.NoError(t, err)
	return cli
}

func TestDefaults(t *testing.T) {
	cli := parse(t, nil)

	assert.Equal(t, "0.0.0.0:9000", cli.Addr())
	assert.Equal(t, []string{"pdflatex", "xelatex", "lualatex"}, cli.Engines)
	assert.Equal(t, 5*time.Second, cli.ProbeTimeout)
	assert.Equal(t, 10*time.Second, cli.ProbeBackoff)
	assert.Equal(t, 60*time.Second, cli.CompileTimeout)
	assert.Equal(t, 5*time.Minute, cli.MaxTimeout)
	assert.Equal(t, 4, cli.Workers)
	assert.Equal(t, 64, cli.QueueSize)
	assert.True(t, cli.Metrics)
	assert.NoError(t, cli.Server.Validate())
	assert.NoError(t, cli.Engine.Validate())
}

func TestEnvironment(t *testing.T) {
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("PORT", "8080")
	t.Setenv("TEXCOMPILE_ENGINES", "lualatex,pdflatex")

	cli := parse(t, nil)
	assert.Equal(t, "127.0.0.1:8080", cli.Addr())
	assert.Equal(t, []engine.Engine{engine.LuaLaTeX, engine.PDFLaTeX}, cli.CompilerConfig().Candidates)
}

func TestAPIKeys(t *testing.T) {
	assert.Empty(t, parse(t, nil).APIKeys)

	t.Setenv("TEXCOMPILE_API_KEYS", "a,b")
	assert.Equal(t, []string{"a", "b"}, parse(t, nil).APIKeys)
	assert.Equal(t, []string{"c"}, parse(t, []string{"--api-key=c"}).APIKeys)
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("PORT", "8080")
	cli := parse(t, []string{"--port=9100", "--no-metrics"})
	assert.Equal(t, 9100, cli.Port)
	assert.False(t, cli.Metrics)
}

func TestYAMLConfiguration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "texcompile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 9200
engines: [xelatex, lualatex]
compile_timeout: 90s
job-ttl: 1h
workers: 2
metrics: false
`), 0o600))

	cli := parse(t, []string{"--workers=3"}, kong.Configuration(config.YAML, path))
	assert.Equal(t, 9200, cli.Port)
	assert.Equal(t, []string{"xelatex", "lualatex"}, cli.Engines)
	assert.Equal(t, 90*time.Second, cli.CompileTimeout)
	assert.Equal(t, time.Hour, cli.JobTTL)
	assert.Equal(t, 3, cli.Workers, "flags win over the config file")
	assert.False(t, cli.Metrics)
}

func TestYAMLConfiguration_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	cli := parse(t, nil, kong.Configuration(config.YAML, path))
	assert.Equal(t, 9000, cli.Port)
}

func TestServerValidate(t *testing.T) {
	cli := parse(t, nil)

	bad := cli.Server
	bad.Port = 0
	bad.MaxTimeout = time.Second
	bad.Workers = 0
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port 0 out of range")
	assert.Contains(t, err.Error(), "max-timeout")
	assert.Contains(t, err.Error(), "workers")
}

func TestEngineValidate(t *testing.T) {
	e := config.Engine{Engines: []string{" "}, ProbeTimeout: time.Second}
	assert.Error(t, e.Validate())
}

func TestOrphanAge(t *testing.T) {
	s := config.Server{JobTTL: 15 * time.Minute, MaxTimeout: 5 * time.Minute}
	assert.Equal(t, 20*time.Minute, s.OrphanAge())
}
