package options

import (
	"fmt"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"io"
	"k8s.io/apimachinery/pkg/util/validation/field"
	"k8s.io/klog/v2"
	"os"
	"path/filepath"
	"sigs.k8s.io/yaml"
)

type Optioner interface {
	AddFlags(*pflag.FlagSet)
	GetBaseOptions() *BaseOptions
}

type BaseOptions struct {
	ConfigFile string `json:"-"`
	Logging    LoggingConfiguration
}

func NewDefaultBaseOptions() BaseOptions {
	return BaseOptions{
		Logging: NewDefaultLoggingConfiguration(),
	}
}

func (bo *BaseOptions) GetBaseOptions() *BaseOptions {
	return bo
}

func (bo *BaseOptions) AddBaseFlags(cmd *cobra.Command, fs *pflag.FlagSet) {
	bo.addConfigFile(fs)
	bo.addLogging(fs)
	addHelpAndUsage(cmd, fs)
	addDefaultConfig(fs)
}

func (bo *BaseOptions) addConfigFile(fs *pflag.FlagSet) {
	fs.StringVarP(&bo.ConfigFile, "config", "c", bo.ConfigFile, "The program will load its initial configuration from this YAML file. The path may be absolute or relative; relative paths start at the program current working directory. Unknown fields are rejected. Omit this flag to use the built-in default configuration values. Command-line flags override configuration from this file.")
}

func (bo *BaseOptions) addLogging(fs *pflag.FlagSet) {
	bo.Logging.BindLoggingFlags(fs)
}

func (bo *BaseOptions) Validate() field.ErrorList {
	return bo.Logging.Validate(field.NewPath("logging"))
}

// ValidateAndApply installs the logging configuration. Call it once, at startup.
func (bo *BaseOptions) ValidateAndApply() error {
	return bo.Logging.ValidateAndApply()
}

func PrintHelpAndExitIfRequested(cmd *cobra.Command, fs *pflag.FlagSet) {
	help, err := fs.GetBool("help")
	if err != nil {
		klog.InfoS(`"help" flag is non-bool, programmer error, please correct`)
		os.Exit(1)
	}
	if help {
		_ = cmd.Help()
		os.Exit(0)
	}
}

func addDefaultConfig(fs *pflag.FlagSet) {
	fs.Bool("default-config", false, "print default configuration for reference, users can refer to it to create their own configuration files")
}

func PrintDefaultConfigAndExitIfRequested(config interface{}, fs *pflag.FlagSet) {
	defaultConfig, err := fs.GetBool("default-config")
	if err != nil {
		klog.InfoS(`"default-config" flag is non-bool, programmer error, please correct`)
		os.Exit(1)
	}
	if defaultConfig {
		if err := WriteDefaultConfig(os.Stdout, config); err != nil {
			klog.ErrorS(err, "Failed to marshal default config to yaml")
			os.Exit(1)
		}
		os.Exit(0)
	}
}

// WriteDefaultConfig writes config as a commented YAML document.
func WriteDefaultConfig(w io.Writer, config interface{}) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "# Default configuration with every field set to its default value.\n"+
		"# Copy it, keep the fields you need and pass the file with --config.\n\n%s\n", data)
	return err
}

func addHelpAndUsage(cmd *cobra.Command, fs *pflag.FlagSet) {
	fs.BoolP("help", "h", false, fmt.Sprintf("help for %s", cmd.Name()))

	// ugly, but necessary, because Cobra's default UsageFunc and HelpFunc pollute the flagset with global flags
	const usageFmt = "Usage:\n  %s\n\nFlags:\n%s"
	cmd.SetUsageFunc(func(cmd *cobra.Command) error {
		_, _ = fmt.Fprintf(cmd.OutOrStderr(), usageFmt, cmd.UseLine(), fs.FlagUsagesWrapped(2))
		return nil
	})

	cmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\n\n"+usageFmt, cmd.Long, cmd.UseLine(), fs.FlagUsagesWrapped(2))
	})
}

// flagPrecedence parses args again on top of the values loaded from the config
// file so that explicit flags win.
func flagPrecedence(o Optioner, args []string) error {
	fs := pflag.NewFlagSet("", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	o.AddFlags(fs)
	o.GetBaseOptions().addConfigFile(fs)
	o.GetBaseOptions().addLogging(fs)
	// flags handled before the config file is read
	fs.BoolP("help", "h", false, "")
	fs.Bool("default-config", false, "")
	fs.Bool("version", false, "")

	return fs.Parse(args)
}

func ParseAndApplyConfigFile(o Optioner, args []string) error {
	if len(o.GetBaseOptions().ConfigFile) == 0 {
		return nil
	}

	if err := parseConfigFile(o); err != nil {
		return err
	}
	return flagPrecedence(o, args)
}

func parseConfigFile(out Optioner) error {
	configFilePath, err := filepath.Abs(out.GetBaseOptions().ConfigFile)
	if err != nil {
		klog.ErrorS(err, "Failed to load config file", "file", configFilePath)
		return err
	}

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		klog.ErrorS(err, "Failed to read config file", "file", configFilePath)
		return err
	}

	if err = yaml.UnmarshalStrict(data, out); err != nil {
		klog.ErrorS(err, "Failed to unmarshal config file", "file", configFilePath)
		return err
	}
	klog.V(1).InfoS("Loaded config file", "file", configFilePath)
	return nil
}
