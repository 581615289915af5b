package options

import (
	"encoding/json"
	"fmt"
	"github.com/spf13/pflag"
	"k8s.io/apimachinery/pkg/util/validation/field"
	"k8s.io/component-base/config"
	"k8s.io/component-base/logs"
	"k8s.io/component-base/logs/registry"
	"strings"
)

const defaultVerbosity = 2

// visibleLoggingFlags are the logging flags shown in --help; the rest stay hidden.
var visibleLoggingFlags = map[string]bool{
	"v":              true,
	"vmodule":        true,
	"logging-format": true,
}

type LoggingConfiguration struct {
	// Refer [Logs Options](https://github.com/kubernetes/component-base/blob/master/logs/options.go) for more information.
	config.LoggingConfiguration
}

func NewDefaultLoggingConfiguration() LoggingConfiguration {
	return LoggingConfiguration{
		config.LoggingConfiguration{
			Format:    "text",
			Verbosity: defaultVerbosity,
		},
	}
}

// Validate checks the configuration without touching the global klog state.
func (l *LoggingConfiguration) Validate(fldPath *field.Path) field.ErrorList {
	return logs.ValidateLoggingConfiguration(&l.LoggingConfiguration, fldPath)
}

func (l *LoggingConfiguration) ValidateAndApply() error {
	o := logs.NewOptions()
	o.Config.Format = l.Format
	o.Config.Verbosity = l.Verbosity
	o.Config.VModule = l.VModule
	return o.ValidateAndApply()
}

type marshalLoggingConfig struct {
	Format    string
	Verbosity config.VerbosityLevel
	VModule   config.VModuleConfiguration `json:",omitempty"`
}

func (l *LoggingConfiguration) MarshalJSON() ([]byte, error) {
	return json.Marshal(&marshalLoggingConfig{
		Format:    l.Format,
		Verbosity: l.Verbosity,
		VModule:   l.VModule,
	})
}

func (l *LoggingConfiguration) UnmarshalJSON(bytes []byte) error {
	in := &marshalLoggingConfig{
		Format:    l.Format,
		Verbosity: l.Verbosity,
		VModule:   l.VModule,
	}
	if err := json.Unmarshal(bytes, in); err != nil {
		return err
	}
	l.Format = in.Format
	l.Verbosity = in.Verbosity
	l.VModule = in.VModule
	return nil
}

func (l *LoggingConfiguration) BindLoggingFlags(fs *pflag.FlagSet) {
	logsFs := pflag.NewFlagSet("", pflag.ContinueOnError)
	logs.BindLoggingFlags(&l.LoggingConfiguration, logsFs)
	logsFs.VisitAll(func(f *pflag.Flag) {
		if !visibleLoggingFlags[f.Name] {
			f.Hidden = true
			return
		}
		if f.Name == "logging-format" {
			formats := fmt.Sprintf(`"%s"`, strings.Join(registry.LogRegistry.List(), `", "`))
			f.Usage = fmt.Sprintf("Sets the log format. Permitted formats: %s.", formats)
		}
	})

	fs.AddFlagSet(logsFs)
}
