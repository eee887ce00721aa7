package main

import (
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/palemoky/cluegrid/internal/config"
	"github.com/palemoky/cluegrid/internal/logger"
	"github.com/palemoky/cluegrid/internal/server"
)

const releaseVersion = "0.1.0"

type flags struct {
	configPath string
	envFile    string
	storage    string
	logLevel   string
	pretty     bool
}

func main() {
	f := &flags{}
	cobra.CheckErr(newCmd(f).Execute())
}

func newCmd(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "cluegrid-server",
		Short:         "Room server for the cluegrid clue-and-guess game.",
		Args:          cobra.NoArgs,
		Version:       releaseVersion,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, f)
		},
	}

	fs := cmd.Flags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&f.configPath, "config", "c", "configs/config.yaml", "path to the YAML config")
	fs.StringVar(&f.envFile, "env-file", ".env", "KEY=VALUE file loaded before the config (missing is fine)")
	fs.StringVar(&f.storage, "storage", "", "override storage.driver (redis or memory)")
	fs.StringVar(&f.logLevel, "log-level", "", "override log.level")
	fs.BoolVar(&f.pretty, "pretty", false, "human readable logs")

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("cluegrid-server v{{.Version}}\n")
	return cmd
}

func run(cmd *cobra.Command, f *flags) error {
	if err := config.LoadDotEnv(f.envFile); err != nil {
		return err
	}

	cfg, err := config.Load(f.configPath)
	if errors.Is(err, os.ErrNotExist) {
		cfg, err = config.Default(), nil
	}
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("storage") {
		cfg.Storage.Driver = f.storage
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if cmd.Flags().Changed("pretty") {
		cfg.Log.Pretty = f.pretty
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger.Init(logger.Options{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	logger.LogInfo("cluegrid-server v%s starting (config %s)", releaseVersion, f.configPath)

	srv, err := server.NewServer(cfg)
	if err != nil {
		logger.LogError("server not created: %v", err)
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return srv.Start(ctx)
}
