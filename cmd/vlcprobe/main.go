// Command vlcprobe parses media files and streams with libVLC and
// prints their duration, meta and tracks.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/zimwip/vlcbridge"
	"github.com/zimwip/vlcbridge/libvlc"
)

const (
	keyConfig   = "probe.config"
	keyTimeout  = "probe.timeout"
	keyNetwork  = "probe.network"
	keyJobs     = "probe.jobs"
	keyLogLevel = "probe.log_level"
)

var errFailed = errors.New("some targets could not be probed")

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Configuration file (yaml, toml or json)")
	lo.Must0(viper.BindPFlag(keyConfig, rootCmd.PersistentFlags().Lookup("config")))

	rootCmd.PersistentFlags().String("log-level", "", "Override the configured log level")
	lo.Must0(viper.BindPFlag(keyLogLevel, rootCmd.PersistentFlags().Lookup("log-level")))

	rootCmd.Flags().DurationP("timeout", "t", 5*time.Second, "Parse timeout per target")
	lo.Must0(viper.BindPFlag(keyTimeout, rootCmd.Flags().Lookup("timeout")))

	rootCmd.Flags().BoolP("network", "n", false, "Allow parsing and meta fetching over the network")
	lo.Must0(viper.BindPFlag(keyNetwork, rootCmd.Flags().Lookup("network")))

	rootCmd.Flags().IntP("jobs", "j", 4, "Targets parsed at the same time")
	lo.Must0(viper.BindPFlag(keyJobs, rootCmd.Flags().Lookup("jobs")))
}

var rootCmd = &cobra.Command{
	Use:           "vlcprobe [flags] <file|url>...",
	Short:         "Print duration, meta and tracks of media",
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := vlcbridge.LoadConfig(afero.NewOsFs(), viper.GetString(keyConfig))
		if err != nil {
			return err
		}
		if lvl := viper.GetString(keyLogLevel); lvl != "" {
			cfg.LogLevel = lvl
		}

		logger := vlcbridge.NewLogger(cfg)

		engine, err := libvlc.New(cfg, logger)
		if err != nil {
			return err
		}

		inst, err := vlcbridge.NewInstance(engine, cfg, vlcbridge.WithLogger(logger))
		if err != nil {
			engine.Release()
			return err
		}
		defer inst.Close()

		p := &prober{
			inst: inst,
			opts: probeOptions{
				Timeout: viper.GetDuration(keyTimeout),
				Network: viper.GetBool(keyNetwork),
				Jobs:    viper.GetInt(keyJobs),
				Poll:    cfg.PollInterval,
			},
			log: logger.WithField("component", "probe"),
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		reports, err := p.run(ctx, args)
		for _, r := range reports {
			printReport(cmd.OutOrStdout(), r)
		}
		if err != nil {
			return err
		}

		if lo.SomeBy(reports, func(r report) bool { return r.Err != nil }) {
			return errFailed
		}

		return nil
	},
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "vlcprobe:", err)
		os.Exit(1)
	}
}
