package ckit

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ckit-sh/ckit/pkg/commands/install"
	"github.com/ckit-sh/ckit/pkg/commands/list"
	"github.com/ckit-sh/ckit/pkg/commands/status"
	"github.com/ckit-sh/ckit/pkg/commands/uninstall"
	"github.com/ckit-sh/ckit/pkg/commands/update"
	"github.com/ckit-sh/ckit/pkg/config"
	"github.com/ckit-sh/ckit/pkg/manifest"
	"github.com/ckit-sh/ckit/pkg/paths"
	"github.com/ckit-sh/ckit/pkg/style"
)

// initPaths resolves the installation root from the persistent --root
// and --global flags and warns when the cwd fallback kicked in.
func initPaths(cmd *cobra.Command) (paths.Paths, error) {
	flags := cmd.Root().PersistentFlags()
	root, _ := flags.GetString("root")
	global, _ := flags.GetBool("global")

	p, err := paths.New(root, global)
	if err != nil {
		return nil, fmt.Errorf(MsgErrInitPaths, err)
	}

	if p.UsedFallback() {
		fmt.Fprintf(os.Stderr, MsgFallbackWarning, p.Root())
	}

	return p, nil
}

// outputFormat resolves the persistent --format flag against stdout.
func outputFormat(cmd *cobra.Command) (style.Format, error) {
	raw, _ := cmd.Root().PersistentFlags().GetString("format")
	format, err := style.ParseFormat(raw)
	if err != nil {
		return style.FormatText, err
	}
	return format.Resolve(os.Stdout), nil
}

// printJSON emits a machine-readable result on stdout.
func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// trackProgress adapts the cumulative tracking callback to a progress
// bar. The bar is created on the first report, once the batch total is
// known, and only for terminal output.
func trackProgress(format style.Format, title string) (manifest.ProgressFunc, func()) {
	var bar *style.Progress
	started := false

	report := func(completed, total int) {
		if !started {
			bar = style.NewProgress(format, title, total)
			started = true
		}
		bar.Update(completed, total)
	}
	stop := func() {
		bar.Stop()
	}

	return report, stop
}

// installedKitsCompletion provides shell completion for installed kit
// names.
func installedKitsCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	p, err := initPaths(cmd)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	result, err := list.List(list.Options{Root: p.Root()})
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	var names []string
	for _, kit := range result.Kits {
		names = append(names, kit.Name)
	}

	return names, cobra.ShellCompDirectiveNoFileComp
}

func newInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "install [kit]",
		Short:   MsgInstallShort,
		Long:    MsgInstallLong,
		Example: MsgInstallExample,
		GroupID: "core",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := initPaths(cmd)
			if err != nil {
				return err
			}

			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}

			cfg, err := config.Load(p.Root())
			if err != nil {
				return fmt.Errorf(MsgErrLoadConfig, err)
			}

			rootFlags := cmd.Root().PersistentFlags()
			dryRun, _ := rootFlags.GetBool("dry-run")
			force, _ := rootFlags.GetBool("force")
			from, _ := cmd.Flags().GetString("from")
			kitVersion, _ := cmd.Flags().GetString("version")
			kitType, _ := cmd.Flags().GetString("type")

			var kitID string
			if len(args) > 0 {
				kitID = args[0]
			}

			log.Info().
				Str("root", p.Root()).
				Str("from", from).
				Bool("dry_run", dryRun).
				Bool("force", force).
				Msg("Installing kit")

			progress, stopProgress := trackProgress(format, MsgProgressTracking)
			result, err := install.Install(install.Options{
				Root:     p.Root(),
				From:     from,
				KitID:    kitID,
				Version:  kitVersion,
				Type:     kitType,
				Scope:    p.Scope(),
				Force:    force,
				DryRun:   dryRun,
				Config:   cfg,
				Progress: progress,
			})
			stopProgress()
			if err != nil {
				return fmt.Errorf(MsgErrInstallKit, err)
			}

			if format == style.FormatJSON {
				return printJSON(result)
			}

			renderer := style.NewRenderer(format)
			if dryRun {
				fmt.Println(MsgDryRunNotice)
			}
			fmt.Println(renderer.RenderOperations(result.Operations))

			if conflicts := result.Conflicts(); conflicts > 0 {
				fmt.Printf(MsgInstallConflicts, conflicts)
			}
			if !dryRun && result.Tracked != nil {
				fmt.Printf(MsgInstallSummary, result.KitID, result.Version, result.Tracked.Success)
			}

			return nil
		},
	}

	cmd.Flags().String("from", "", MsgFlagFrom)
	cmd.Flags().String("version", "", MsgFlagKitVersion)
	cmd.Flags().StringP("type", "t", "", MsgFlagKitType)
	_ = cmd.MarkFlagRequired("from")

	return cmd
}

func newUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "update <kit>",
		Short:             MsgUpdateShort,
		Long:              MsgUpdateLong,
		Example:           MsgUpdateExample,
		GroupID:           "core",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: installedKitsCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := initPaths(cmd)
			if err != nil {
				return err
			}

			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}

			cfg, err := config.Load(p.Root())
			if err != nil {
				return fmt.Errorf(MsgErrLoadConfig, err)
			}

			dryRun, _ := cmd.Root().PersistentFlags().GetBool("dry-run")
			from, _ := cmd.Flags().GetString("from")
			kitVersion, _ := cmd.Flags().GetString("version")

			log.Info().
				Str("root", p.Root()).
				Str("kit", args[0]).
				Str("from", from).
				Bool("dry_run", dryRun).
				Msg("Updating kit")

			progress, stopProgress := trackProgress(format, MsgProgressTracking)
			result, err := update.Update(update.Options{
				Root:     p.Root(),
				KitID:    args[0],
				From:     from,
				Version:  kitVersion,
				DryRun:   dryRun,
				Config:   cfg,
				Progress: progress,
			})
			stopProgress()
			if err != nil {
				return fmt.Errorf(MsgErrUpdateKit, err)
			}

			if format == style.FormatJSON {
				return printJSON(result)
			}

			renderer := style.NewRenderer(format)
			fmt.Println(renderer.RenderSyncPlan(result.KitID, result.Plan))

			if len(result.Review) > 0 {
				fmt.Print(MsgReviewHeader)
				for _, file := range result.Review {
					fmt.Printf(MsgReviewItem, file.Path, len(file.Hunks))
				}
			}

			if dryRun {
				fmt.Println(MsgDryRunNotice)
				return nil
			}

			if result.Tracked != nil {
				fmt.Printf(MsgUpdateSummary, result.KitID, result.Version, result.Tracked.Success)
			} else {
				fmt.Println(MsgUpdateNothing)
			}

			return nil
		},
	}

	cmd.Flags().String("from", "", MsgFlagFrom)
	cmd.Flags().String("version", "", MsgFlagKitVersion)
	_ = cmd.MarkFlagRequired("from")

	return cmd
}

func newUninstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "uninstall [kit]",
		Short:             MsgUninstallShort,
		Long:              MsgUninstallLong,
		Example:           MsgUninstallExample,
		GroupID:           "core",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: installedKitsCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := initPaths(cmd)
			if err != nil {
				return err
			}

			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}

			cfg, err := config.Load(p.Root())
			if err != nil {
				return fmt.Errorf(MsgErrLoadConfig, err)
			}

			rootFlags := cmd.Root().PersistentFlags()
			dryRun, _ := rootFlags.GetBool("dry-run")
			force, _ := rootFlags.GetBool("force")

			var kitID string
			if len(args) > 0 {
				kitID = args[0]
			}

			log.Info().
				Str("root", p.Root()).
				Str("kit", kitID).
				Bool("dry_run", dryRun).
				Bool("force", force).
				Msg("Uninstalling")

			result, err := uninstall.Uninstall(uninstall.Options{
				Root:   p.Root(),
				KitID:  kitID,
				Force:  force,
				DryRun: dryRun,
				Config: cfg,
			})
			if err != nil {
				return fmt.Errorf(MsgErrUninstallKit, err)
			}

			if format == style.FormatJSON {
				return printJSON(result)
			}

			renderer := style.NewRenderer(format)
			if dryRun {
				fmt.Println(MsgDryRunNotice)
			}
			fmt.Println(renderer.RenderUninstall(result.KitID, result.Analysis))

			if result.ManifestRemoved {
				fmt.Println(MsgManifestRemoved)
			}

			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "status [kit]",
		Short:             MsgStatusShort,
		Long:              MsgStatusLong,
		Example:           MsgStatusExample,
		GroupID:           "core",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: installedKitsCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := initPaths(cmd)
			if err != nil {
				return err
			}

			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}

			var kitID string
			if len(args) > 0 {
				kitID = args[0]
			}

			log.Info().Str("root", p.Root()).Str("kit", kitID).Msg("Checking status")

			result, err := status.Status(status.Options{
				Root:  p.Root(),
				KitID: kitID,
			})
			if err != nil {
				return fmt.Errorf(MsgErrStatusKits, err)
			}

			if format == style.FormatJSON {
				return printJSON(result)
			}

			renderer := style.NewRenderer(format)
			fmt.Println(renderer.RenderStatus(result))

			return nil
		},
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   MsgListShort,
		Long:    MsgListLong,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := initPaths(cmd)
			if err != nil {
				return err
			}

			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}

			log.Info().Str("root", p.Root()).Msg("Listing installed kits")

			result, err := list.List(list.Options{Root: p.Root()})
			if err != nil {
				return fmt.Errorf(MsgErrListKits, err)
			}

			if format == style.FormatJSON {
				return printJSON(result)
			}

			renderer := style.NewRenderer(format)
			fmt.Println(renderer.RenderKitList(result))

			return nil
		},
	}
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Short:   MsgConfigShort,
		GroupID: "misc",
	}

	cmd.AddCommand(newConfigInitCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "init",
		Short:   MsgConfigInitShort,
		Long:    MsgConfigInitLong,
		Example: MsgConfigInitExample,
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := config.GenerateConfigContent()
			if err != nil {
				return fmt.Errorf(MsgErrGenConfig, err)
			}

			write, _ := cmd.Flags().GetBool("write")
			if !write {
				fmt.Print(content)
				return nil
			}

			p, err := initPaths(cmd)
			if err != nil {
				return err
			}

			target := p.ConfigFilePath()
			if _, err := os.Stat(target); err == nil {
				return fmt.Errorf(MsgErrConfigExists, target)
			}
			if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
				return fmt.Errorf(MsgErrWriteConfig, err)
			}

			fmt.Printf(MsgConfigWritten, target)
			return nil
		},
	}

	cmd.Flags().BoolP("write", "w", false, MsgFlagWrite)

	return cmd
}

func newTopicsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "topics",
		Short:   MsgTopicsShort,
		Long:    MsgTopicsLong,
		GroupID: "misc",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Find the help command and execute it with "topics" argument
			if helpCmd, _, err := cmd.Root().Find([]string{"help"}); err == nil {
				if helpCmd.RunE != nil {
					return helpCmd.RunE(helpCmd, []string{"topics"})
				} else if helpCmd.Run != nil {
					helpCmd.Run(helpCmd, []string{"topics"})
					return nil
				}
			}
			return fmt.Errorf("help command not found")
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 MsgCompletionShort,
		Long:                  MsgCompletionLong,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		GroupID:               "misc",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}
}
