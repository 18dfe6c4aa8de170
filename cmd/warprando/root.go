package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/cory-johannsen/warprando/internal/config"
	"github.com/cory-johannsen/warprando/internal/observability"
	"github.com/cory-johannsen/warprando/internal/rando"
	"github.com/cory-johannsen/warprando/internal/scripting"
	"github.com/cory-johannsen/warprando/internal/warp"
)

const (
	seedFlagName         = "seed"
	levelFlagName        = "level"
	extraDeadendFlagName = "extra-deadend-removal"
	gymOrderFlagName     = "in-gym-order"
	maxAttemptsFlagName  = "max-attempts"
	worldDirFlagName     = "world-dir"
	scriptFlagName       = "script"
)

// app carries the state shared by every subcommand once the root pre-run
// has loaded configuration.
type app struct {
	v          *viper.Viper
	configPath string
	cfg        config.Config
	logger     *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.NewViper()}

	cmd := &cobra.Command{
		Use:           "warprando",
		Short:         "Randomize the warps of a Pokemon Emerald world",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	a.configureFlags(cmd)

	cmd.AddCommand(newGenerateCmd(a), newBatchCmd(a), newInspectCmd(a))
	return cmd
}

func (a *app) configureFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "path to a YAML configuration file")

	flags.Int64(seedFlagName, a.v.GetInt64("randomizer.seed"), "seed of the first attempt")
	a.bindFlag(flags, seedFlagName, "randomizer.seed")
	flags.Int(levelFlagName, a.v.GetInt("randomizer.level"), "world size, 0-10")
	a.bindFlag(flags, levelFlagName, "randomizer.level")
	flags.Bool(extraDeadendFlagName, a.v.GetBool("randomizer.extra_deadend_removal"), "prune warps tagged extra_deadend")
	a.bindFlag(flags, extraDeadendFlagName, "randomizer.extra_deadend_removal")
	flags.Bool(gymOrderFlagName, a.v.GetBool("randomizer.in_gym_order"), "require gyms to be beaten in order")
	a.bindFlag(flags, gymOrderFlagName, "randomizer.in_gym_order")
	flags.Int(maxAttemptsFlagName, a.v.GetInt("randomizer.max_attempts"), "give up after this many attempts (0 = never)")
	a.bindFlag(flags, maxAttemptsFlagName, "randomizer.max_attempts")
	flags.String(worldDirFlagName, a.v.GetString("data.world_dir"), "directory of world YAML files")
	a.bindFlag(flags, worldDirFlagName, "data.world_dir")
	flags.String(scriptFlagName, a.v.GetString("data.scripts"), "optional Lua placement scorer")
	a.bindFlag(flags, scriptFlagName, "data.scripts")
}

// bindFlag wires a Cobra flag to a Viper key so config and env values feed the flag.
func (a *app) bindFlag(flags *pflag.FlagSet, name, key string) {
	flag := flags.Lookup(name)
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}
	cobra.CheckErr(a.v.BindPFlag(key, flag))
}

func (a *app) load() error {
	if a.configPath != "" {
		a.v.SetConfigFile(a.configPath)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file: %w", err)
		}
	}
	cfg, err := config.LoadFromViper(a.v)
	if err != nil {
		return err
	}
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// world loads the configured world data.
func (a *app) world() (*warp.World, error) {
	w, err := warp.LoadWorldFromDir(a.cfg.Data.WorldDir)
	if err != nil {
		return nil, err
	}
	a.logger.Info("world loaded",
		zap.String("dir", a.cfg.Data.WorldDir),
		zap.Int("warps", len(w.Warps)),
	)
	return w, nil
}

// options builds the randomizer options. The returned func releases the
// Lua scorer, if one was loaded.
func (a *app) options() ([]rando.Option, func(), error) {
	opts := []rando.Option{
		rando.WithLogger(a.logger),
		rando.WithMaxAttempts(a.cfg.Randomizer.MaxAttempts),
	}
	if a.cfg.Data.Scripts == "" {
		return opts, func() {}, nil
	}
	scorer, err := scripting.NewScorer(a.cfg.Data.Scripts, 0, a.logger)
	if err != nil {
		return nil, nil, err
	}
	a.logger.Info("lua scorer loaded", zap.String("script", a.cfg.Data.Scripts))
	return append(opts, rando.WithSourceSelector(scorer)), scorer.Close, nil
}
