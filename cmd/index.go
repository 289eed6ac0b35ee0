package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/prefabtools/prefabmerge/internal/assetindex"
	"github.com/prefabtools/prefabmerge/internal/config"
	"github.com/prefabtools/prefabmerge/internal/log"
	"github.com/prefabtools/prefabmerge/internal/project"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the project's GUID asset index",
}

var indexRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Scan Assets/ for .meta files and update the index incrementally",
	Args:  cobra.NoArgs,
	RunE:  indexRefreshExec,
}

var indexStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index size and last refresh time",
	Args:  cobra.NoArgs,
	RunE:  indexStatsExec,
}

var indexClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop all indexed records",
	Args:  cobra.NoArgs,
	RunE:  indexClearExec,
}

func indexInit() {
	indexCmd.PersistentFlags().String("project", ".", "Unity project root (or any path inside it)")
	indexCmd.AddCommand(indexRefreshCmd)
	indexCmd.AddCommand(indexStatsCmd)
	indexCmd.AddCommand(indexClearCmd)
	rootCmd.AddCommand(indexCmd)
}

func openProjectIndex(cmd *cobra.Command) (*assetindex.Index, error) {
	start, _ := cmd.Flags().GetString("project")
	root, err := project.FindRoot(start)
	if err != nil {
		return nil, err
	}
	return assetindex.Open(cmd.Context(), root), nil
}

func indexRefreshExec(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := log.From(ctx)

	ix, err := openProjectIndex(cmd)
	if err != nil {
		return err
	}
	defer ix.Close()

	res, err := ix.Refresh(ctx, assetindex.RefreshOptions{
		Concurrency: config.GetIndexWorkers(),
		Progress: func(done, total int) {
			logger.Debugf("indexing %d/%d", done, total)
		},
	})
	if err != nil {
		return fmt.Errorf("refresh index: %w", err)
	}

	logger.Success("index refreshed",
		zap.String("project", ix.ProjectRoot()),
		zap.Int("scanned", res.Scanned),
		zap.Int("updated", res.Processed),
		zap.Int("removed", res.Removed),
		zap.Duration("took", res.Duration))
	return nil
}

func indexStatsExec(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := log.From(ctx)

	ix, err := openProjectIndex(cmd)
	if err != nil {
		return err
	}
	defer ix.Close()

	stats, err := ix.Stats(ctx)
	if err != nil {
		return err
	}

	logger.Println(headerStyle.Render(ix.ProjectRoot()))
	logger.Println(fmt.Sprintf("records:      %d", stats.Records))
	if stats.LastIndexTime.IsZero() {
		logger.Println("last refresh: never")
	} else {
		logger.Println(fmt.Sprintf("last refresh: %s", stats.LastIndexTime.Local()))
	}
	if !stats.Persistent {
		logger.Println(dimStyle.Render("index is in-memory only; the database could not be opened"))
	}
	return nil
}

func indexClearExec(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := log.From(ctx)

	ix, err := openProjectIndex(cmd)
	if err != nil {
		return err
	}
	defer ix.Close()

	if err := ix.Clear(ctx); err != nil {
		return fmt.Errorf("clear index: %w", err)
	}
	logger.Success("index cleared", zap.String("project", ix.ProjectRoot()))
	return nil
}
