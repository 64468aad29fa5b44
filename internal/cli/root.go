package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/agora/internal/logging"
	"github.com/ppiankov/agora/internal/model"
)

// Version is set at build time with -ldflags "-X github.com/ppiankov/agora/internal/cli.Version=..."
var Version = "dev"

var (
	cfgFile    string
	configPath string
	verbose    bool
	logLevel   string
	logFormat  string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "agora",
	Short: "Agora - structured analysis of civic debate proposals",
	Long: `Agora breaks a submitted proposal or statement into checkable claims and
describes consequences, responsibilities, open questions and conflicts.

Every run carries an editorial audit (source balance, agency and euphemism
flags, burden of proof, voice coverage, context gaps), an evidence graph and
a hashed run receipt that proves which input, sources and output belong
together.

Agora does not decide what is true and never takes sides.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command. Cancelling ctx aborts running analyses.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := model.DefaultConfig()
		fmt.Fprintf(cmd.OutOrStdout(), "agora %s (%s, prompt %s)\n", Version, cfg.Pipeline.Version, cfg.Pipeline.PromptVersion)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.agora/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: console or json")

	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig loads .env and locates the config file
func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env: %v\n", err)
	}

	if cfgFile != "" {
		configPath = cfgFile
		return
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	candidate := filepath.Join(home, ".agora", "config.yaml")
	if _, err := os.Stat(candidate); err == nil {
		configPath = candidate
	}
}

// loadConfig layers defaults, the config file and AGORA_* environment
// variables into v and decodes the result. Flags bound to v win over all.
func loadConfig(v *viper.Viper, path string) (*model.Config, error) {
	defaults, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("marshal defaults: %w", err)
	}

	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return nil, fmt.Errorf("read defaults: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix("AGORA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &model.Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// currentConfig returns the configuration of this invocation
func currentConfig() (*model.Config, error) {
	cfg, err := loadConfig(viper.GetViper(), configPath)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Logging.Level = "debug"
		cfg.Output.Verbose = true
	}
	return cfg, nil
}

func newLogger(cfg *model.Config) zerolog.Logger {
	return logging.New(cfg.Logging, os.Stderr)
}
