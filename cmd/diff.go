package cmd

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/prefabtools/prefabmerge/internal/assetindex"
	"github.com/prefabtools/prefabmerge/internal/diff"
	"github.com/prefabtools/prefabmerge/internal/loader"
	"github.com/prefabtools/prefabmerge/internal/log"
	"github.com/prefabtools/prefabmerge/internal/project"
	"github.com/prefabtools/prefabmerge/internal/unity"
)

var (
	addedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	removedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	modifiedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	headerStyle   = lipgloss.NewStyle().Bold(true)
)

var diffCmd = &cobra.Command{
	Use:   "diff <left> <right>",
	Short: "Compare two Unity scene or prefab files by object identity",
	Long: `Compares two scene or prefab files semantically. Objects are matched by
fileID, so moving an object within the file or renaming it never shows up as
an add/remove pair. Property changes are reported per component.`,
	Args: cobra.ExactArgs(2),
	RunE: diffExec,
}

func diffInit() {
	diffCmd.Flags().String("project", "", "Unity project root for GUID resolution (default: detected from the left file)")
	rootCmd.AddCommand(diffCmd)
}

func diffExec(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := log.From(ctx)

	left, err := loader.Load(args[0])
	if err != nil {
		return fmt.Errorf("load %s: %w", args[0], err)
	}
	right, err := loader.Load(args[1])
	if err != nil {
		return fmt.Errorf("load %s: %w", args[1], err)
	}

	res := diff.Diff(left, right)

	ix := openIndex(cmd, args[0])
	if ix != nil {
		defer ix.Close()
	}

	s := res.Summary
	logger.Println(headerStyle.Render(fmt.Sprintf("%s ↔ %s", args[0], args[1])))
	logger.Println(fmt.Sprintf("%s  %s  %s",
		addedStyle.Render(fmt.Sprintf("+%d added", s.Added())),
		removedStyle.Render(fmt.Sprintf("-%d removed", s.Removed())),
		modifiedStyle.Render(fmt.Sprintf("~%d modified", s.Modified()))))

	for _, c := range res.Changes {
		switch c.Status {
		case unity.StatusAdded:
			logger.Println(addedStyle.Render("  + " + c.Path))
		case unity.StatusRemoved:
			logger.Println(removedStyle.Render("  - " + c.Path))
		case unity.StatusModified:
			logger.Println(modifiedStyle.Render("  ~ "+c.Path) + dimStyle.Render(fmt.Sprintf("  %s -> %s", renderValue(ctx, ix, c.LeftValue), renderValue(ctx, ix, c.RightValue))))
		}
	}

	if s.Total() == 0 {
		logger.Println(dimStyle.Render("no differences"))
	}
	return nil
}

// renderValue formats a value for display, substituting asset names for raw
// GUIDs when the index knows them.
func renderValue(ctx context.Context, ix *assetindex.Index, v unity.Value) string {
	if v == nil {
		return "<none>"
	}
	if ref, ok := v.(unity.Reference); ok && ix != nil && ref.GUID != "" {
		if rec, found := ix.Resolve(ctx, ref.GUID); found {
			return rec.AssetName
		}
	}
	return v.String()
}

// openIndex attaches the project's asset index when a project root can be
// found; diff output works fine without one, references just stay as GUIDs.
func openIndex(cmd *cobra.Command, fallbackPath string) *assetindex.Index {
	root, _ := cmd.Flags().GetString("project")
	if root == "" {
		var err error
		root, err = project.FindRoot(fallbackPath)
		if err != nil {
			return nil
		}
	}
	return assetindex.Open(cmd.Context(), root)
}
