package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const appName = "recruitai"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	cfgFile string

	rootCmd = &cobra.Command{
		Use:           appName,
		Short:         "recruitai scores resumes against job descriptions and ranks candidates",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file whose keys are exported as environment variables")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if cfgFile == "" {
		return
	}
	if err := loadConfigFile(cfgFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfigFile reads a yaml, toml, json or dotenv file and exports each top
// level key as an upper-cased environment variable. Variables already present
// in the environment win.
func loadConfigFile(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	for _, key := range v.AllKeys() {
		name := strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
		if _, ok := os.LookupEnv(name); ok {
			continue
		}
		value := v.Get(key)
		if list, ok := value.([]any); ok {
			parts := make([]string, len(list))
			for i, item := range list {
				parts[i] = fmt.Sprint(item)
			}
			value = strings.Join(parts, ",")
		}
		if err := os.Setenv(name, fmt.Sprint(value)); err != nil {
			return err
		}
	}
	return nil
}
