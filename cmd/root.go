package cmd

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/prefabtools/prefabmerge/internal/config"
	"github.com/prefabtools/prefabmerge/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "prefabmerge",
	Short: "Semantic diff and three-way merge for Unity scenes and prefabs",
	Long: `prefabmerge understands Unity's YAML scene and prefab format and compares
files by object identity (fileID) instead of by line, so reordered objects and
renamed GameObjects never produce spurious conflicts. It provides:
  - semantic diff between two scene or prefab files
  - three-way merge with per-property conflict detection
  - a persistent GUID index for resolving asset references to names
`,
}

var l = log.New().WithLevel(log.LevelInfo)

func init() {
	cobra.EnableCommandSorting = false
	if err := config.Load(); err != nil {
		l.Error("", zap.Error(err))
		os.Exit(1)
	}
}

// Init wires up all subcommands and persistent flags.
func Init(version string) {
	rootCmd.PersistentFlags().String("logLevel", config.GetLogLevel(), fmt.Sprintf("the log level (available options: [%s])", strings.Join(log.Levels, ", ")))

	diffInit()
	mergeInit()
	indexInit()

	rootCmd.Version = version
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return setLogLevel(cmd)
	}
}

func Execute(version string) {
	Init(version)

	if err := rootCmd.Execute(); err != nil {
		l.Error("", zap.Error(err))
		os.Exit(1)
	}
}

func GetRootCommand() *cobra.Command {
	return rootCmd
}

func setLogLevel(cmd *cobra.Command) error {
	logLevel, err := cmd.Flags().GetString("logLevel")
	if err != nil {
		return err
	}
	if !slices.Contains(log.Levels, logLevel) {
		return fmt.Errorf("log level must be one of: %s", strings.Join(log.Levels, ", "))
	}

	l = l.WithLevel(log.Level(logLevel))
	ctx := log.With(cmd.Context(), l)
	cmd.SetContext(ctx)

	return nil
}
