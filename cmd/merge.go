package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/prefabtools/prefabmerge/internal/config"
	"github.com/prefabtools/prefabmerge/internal/loader"
	"github.com/prefabtools/prefabmerge/internal/log"
	"github.com/prefabtools/prefabmerge/internal/merge"
	"github.com/prefabtools/prefabmerge/internal/writer"
)

var mergeCmd = &cobra.Command{
	Use:   "merge <base> <ours> <theirs>",
	Short: "Three-way merge of Unity scene or prefab files",
	Long: `Performs a property-level three-way merge. Changes made on only one side
apply automatically; properties changed differently on both sides are
conflicts. With --strategy all conflicts resolve to one side; without it,
conflicting files exit non-zero and fall back to a line-based merge with
git-style conflict markers when --text is set.`,
	Args: cobra.ExactArgs(3),
	RunE: mergeExec,
}

func mergeInit() {
	mergeCmd.Flags().StringP("output", "o", "", "output file path (required)")
	mergeCmd.Flags().String("strategy", "", "bulk conflict resolution: ours or theirs")
	mergeCmd.Flags().Bool("text", false, "on unresolved conflicts, write a line-based merge with conflict markers instead of failing")
	mergeCmd.Flags().Bool("no-normalize", false, "skip output normalization")
	_ = mergeCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(mergeCmd)
}

func mergeExec(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := log.From(ctx)

	basePath, oursPath, theirsPath := args[0], args[1], args[2]
	outPath, _ := cmd.Flags().GetString("output")
	strategy, _ := cmd.Flags().GetString("strategy")
	textFallback, _ := cmd.Flags().GetBool("text")
	noNormalize, _ := cmd.Flags().GetBool("no-normalize")

	base, err := loader.Load(basePath)
	if err != nil {
		return fmt.Errorf("load base: %w", err)
	}
	ours, err := loader.Load(oursPath)
	if err != nil {
		return fmt.Errorf("load ours: %w", err)
	}
	theirs, err := loader.Load(theirsPath)
	if err != nil {
		return fmt.Errorf("load theirs: %w", err)
	}

	res := merge.Merge(base, ours, theirs)
	logger.Info("merged",
		zap.Int("autoMerged", len(res.AutoMerged)),
		zap.Int("conflicts", len(res.Conflicts)))

	switch strategy {
	case "":
	case "ours":
		merge.AcceptAllOurs(res)
	case "theirs":
		merge.AcceptAllTheirs(res)
	default:
		return fmt.Errorf("unknown strategy %q (want ours or theirs)", strategy)
	}

	w := writer.New(
		writer.WithNormalization(config.GetNormalizeOutput() && !noNormalize),
		writer.WithFloatPrecision(config.GetFloatPrecision()),
	)

	unresolved := res.UnresolvedCount()
	if unresolved > 0 {
		for _, c := range res.Conflicts {
			if !c.IsResolved() {
				logger.Warn("conflict", zap.String("path", c.Path),
					zap.String("ours", renderValue(ctx, nil, c.OursValue)),
					zap.String("theirs", renderValue(ctx, nil, c.TheirsValue)))
			}
		}
		if !textFallback {
			return fmt.Errorf("%d unresolved conflicts; re-run with --strategy or --text", unresolved)
		}

		ok, markers, err := w.WriteTextMerge(ctx, basePath, oursPath, theirsPath, outPath, res.Conflicts)
		if err != nil {
			return err
		}
		if !ok {
			logger.Warnf("wrote %s with %d conflict blocks; resolve the markers by hand", outPath, markers)
			return nil
		}
		logger.Success("merged cleanly (text)", zap.String("output", outPath))
		return nil
	}

	if !w.WriteObjectMerge(ctx, res, outPath) {
		return fmt.Errorf("write merged document to %s failed", outPath)
	}
	logger.Success("merged", zap.String("output", outPath),
		zap.Int("autoMerged", len(res.AutoMerged)),
		zap.Int("resolved", res.ResolvedCount()))
	return nil
}
