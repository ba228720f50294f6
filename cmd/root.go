/*
	Copyright 2023 Markus Papenbrock
*/

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	migrateCmd "github.com/mpapenbr/snailrace/pkg/cmd/migrate"
	playCmd "github.com/mpapenbr/snailrace/pkg/cmd/play"
	resultsCmd "github.com/mpapenbr/snailrace/pkg/cmd/results"
	simulateCmd "github.com/mpapenbr/snailrace/pkg/cmd/simulate"
	"github.com/mpapenbr/snailrace/pkg/config"
	"github.com/mpapenbr/snailrace/version"
)

const envPrefix = "SNAILRACE"

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "snailrace",
	Short:   "Arcade snail racing in the terminal",
	Long:    ``,
	Version: version.FullVersion,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.snailrace.yml or ./.snailrace.yml)")
	pf.StringVar(&config.DB, "db",
		"postgresql://DB_USERNAME:DB_USER_PASSWORD@DB_HOST:5432/snailrace",
		"Connection string for the results database")
	pf.StringVar(&config.WaitForServices, "wait-for-services", "15s",
		"Duration to wait for the database or nats to accept connections")
	pf.IntVar(&config.ProfilingPort, "profiling-port", 0,
		"serve pprof data on this port (0 disables profiling)")
	addLogFlags(pf)
	addTelemetryFlags(pf)

	rootCmd.AddCommand(
		playCmd.NewPlayCmd(),
		simulateCmd.NewSimulateCmd(),
		migrateCmd.NewMigrateCmd(),
		resultsCmd.NewResultsCmd(),
	)
}

func addLogFlags(pf *pflag.FlagSet) {
	pf.StringVar(&config.LogLevel, "log-level", "info",
		"controls the log level (debug, info, warn, error, fatal)")
	pf.StringVar(&config.SQLLogLevel, "sql-log-level", "debug",
		"controls the log level for sql statements")
	pf.StringVar(&config.LogFormat, "log-format", "text",
		"controls the log output format (json, text)")
	pf.StringVar(&config.LogFilter, "log-filter", "",
		"zapfilter rules applied to log entries, e.g. \"*:* debug:race.*\"")
	pf.StringVar(&config.LogFile, "log-file", "",
		"write log output to this file (play logs nowhere otherwise)")
}

func addTelemetryFlags(pf *pflag.FlagSet) {
	pf.BoolVar(&config.EnableTelemetry, "enable-telemetry", false,
		"export traces and metrics")
	pf.StringVar(&config.TelemetryEndpoint, "telemetry-endpoint", "localhost:4317",
		"otlp grpc endpoint for telemetry data (\"stdout\" prints to console)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".snailrace")
	}
	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
	bindCommandTree(rootCmd, viper.GetViper())
}

func bindCommandTree(cmd *cobra.Command, v *viper.Viper) {
	bindFlags(cmd, v)
	for _, sub := range cmd.Commands() {
		bindCommandTree(sub, v)
	}
}

// bindFlags connects each flag of cmd to viper. Values from the config file
// or the environment (--log-level => SNAILRACE_LOG_LEVEL) are applied to
// flags not given on the command line.
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if strings.Contains(f.Name, "-") {
			env := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			if err := v.BindEnv(f.Name, env); err != nil {
				fmt.Fprintf(os.Stderr, "Could not bind env var %s: %v\n", env, err)
			}
		}
		if f.Changed || !v.IsSet(f.Name) {
			return
		}
		if err := cmd.Flags().Set(f.Name, fmt.Sprint(v.Get(f.Name))); err != nil {
			fmt.Fprintf(os.Stderr, "Could not set flag %s from config: %v\n", f.Name, err)
		}
	})
}
