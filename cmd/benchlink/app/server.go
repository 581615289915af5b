package app

import (
	"benchlink/cmd/benchlink/options"
	"benchlink/pkg/generic"
	baseoptions "benchlink/pkg/generic/options"
	"benchlink/pkg/web"
	"context"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	utilserrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/component-base/version"
	"k8s.io/component-base/version/verflag"
	"k8s.io/klog/v2"
	"os"
	"os/signal"
	"syscall"
)

const (
	ComponentBenchlink = "benchlink"
)

func NewBenchlinkCmd() *cobra.Command {
	cleanFlagSet := pflag.NewFlagSet(ComponentBenchlink, pflag.ContinueOnError)
	o := options.NewDefaultOptions()
	cmd := &cobra.Command{
		Use:                ComponentBenchlink,
		Long:               `The benchlink gateway keeps a modbus device and text instruments of a test bench connected, polls device points and serves reads, writes and actions over HTTP and MQTT.`,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// initial flag parse, since we disable cobra's flag parsing
			if err := cleanFlagSet.Parse(args); err != nil {
				klog.ErrorS(err, "Failed to parse flag")
				_ = cmd.Usage()
				os.Exit(1)
			}

			// check if there are non-flag arguments in the command line
			cmds := cleanFlagSet.Args()
			if len(cmds) > 0 {
				klog.ErrorS(nil, "Unknown command", "command", cmds[0])
				_ = cmd.Usage()
				os.Exit(1)
			}

			// short-circuit on help
			baseoptions.PrintHelpAndExitIfRequested(cmd, cleanFlagSet)

			// short-circuit on defaultconfig
			baseoptions.PrintDefaultConfigAndExitIfRequested(options.NewDefaultOptions(), cleanFlagSet)

			// short-circuit on verflag
			verflag.PrintAndExitIfRequested()

			if err := baseoptions.ParseAndApplyConfigFile(o, args); err != nil {
				return err
			}

			if errs := options.Validate(o); len(errs) != 0 {
				return utilserrors.NewAggregate(errs)
			}
			if err := o.ValidateAndApply(); err != nil {
				return err
			}

			// To help debugging, immediately log version
			klog.InfoS("Version", "version", version.Get())
			return run(o)
		},
	}

	verflag.AddFlags(cleanFlagSet)
	o.AddFlags(cleanFlagSet)
	o.AddBaseFlags(cmd, cleanFlagSet)

	return cmd
}

func run(o *options.Options) error {
	c, err := o.Config()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c.Connect()
	if c.Broker != nil {
		connectCtx, connectCancel := context.WithTimeout(ctx, c.Broker.Options().Timeout)
		// the client keeps retrying in the background when the first attempt fails
		_ = c.Broker.Connect(connectCtx)
		connectCancel()
	}
	go c.Poller.Run(ctx)

	server, err := web.NewServer(generic.Default(), o.Port, c)
	if err != nil {
		return err
	}

	exit, err := server.Serve()
	if err != nil {
		return err
	}
	klog.V(1).InfoS("Server started", "port", o.Port, "mode", o.Device.Mode, "device", c.Client.Address())
	// Graceful shutdown
	// Wait for interrupt signal to gracefully shutdown the server
	exitCh := make(chan os.Signal, 1)
	// kill (no param) default send syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	// kill -9 is syscall.SIGKILL but can't be catch, so don't need add it
	signal.Notify(exitCh, syscall.SIGINT, syscall.SIGTERM)
	<-exitCh
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), o.Wait)
	defer shutdownCancel()

	exit(shutdownCtx)
	cancel()
	return c.Shutdown(shutdownCtx)
}
