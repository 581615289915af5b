package options

import (
	"bytes"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testOptions struct {
	Port     string        `json:"port"`
	Interval time.Duration `json:"interval"`
	BaseOptions
}

func (o *testOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Port, "port", o.Port, "")
	fs.DurationVar(&o.Interval, "interval", o.Interval, "")
}

func newTestOptions() *testOptions {
	return &testOptions{Port: "32200", Interval: time.Second, BaseOptions: NewDefaultBaseOptions()}
}

func writeConfig(t *testing.T, content string) string {
	file := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))
	return file
}

func TestParseAndApplyConfigFile(t *testing.T) {
	o := newTestOptions()
	require.NoError(t, ParseAndApplyConfigFile(o, nil))
	assert.Equal(t, "32200", o.Port)

	o.ConfigFile = writeConfig(t, "port: \"8080\"\ninterval: 2000000000\n")
	require.NoError(t, ParseAndApplyConfigFile(o, []string{"--config", o.ConfigFile}))
	assert.Equal(t, "8080", o.Port)
	assert.Equal(t, 2*time.Second, o.Interval)
	assert.Equal(t, "text", o.Logging.Format)
}

func TestFlagsOverrideConfigFile(t *testing.T) {
	o := newTestOptions()
	o.ConfigFile = writeConfig(t, "port: \"8080\"\n")
	require.NoError(t, ParseAndApplyConfigFile(o, []string{"-c", o.ConfigFile, "--port", "9090", "--v", "4"}))
	assert.Equal(t, "9090", o.Port)
	assert.EqualValues(t, 4, o.Logging.Verbosity)
}

func TestConfigFileRejectsUnknownFields(t *testing.T) {
	o := newTestOptions()
	o.ConfigFile = writeConfig(t, "port: \"8080\"\nprot: 1\n")
	assert.Error(t, ParseAndApplyConfigFile(o, nil))

	o.ConfigFile = filepath.Join(t.TempDir(), "missing.yaml")
	assert.Error(t, ParseAndApplyConfigFile(o, nil))
}

func TestWriteDefaultConfig(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDefaultConfig(&buf, newTestOptions()))
	assert.Contains(t, buf.String(), "# Default configuration")
	assert.Contains(t, buf.String(), "port: \"32200\"")
	assert.Contains(t, buf.String(), "Verbosity: 2")
}

func TestLoggingConfigurationKeepsDefaults(t *testing.T) {
	o := newTestOptions()
	o.ConfigFile = writeConfig(t, "Logging:\n  Verbosity: 5\n")
	require.NoError(t, ParseAndApplyConfigFile(o, nil))
	assert.Equal(t, "text", o.Logging.Format)
	assert.EqualValues(t, 5, o.Logging.Verbosity)
}
