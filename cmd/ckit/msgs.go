package ckit

import (
	_ "embed"
	"strings"
)

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort       = "An ownership-aware kit installer"
	MsgInstallShort    = "Install a kit into the installation root"
	MsgUpdateShort     = "Sync an installed kit against a new release"
	MsgUninstallShort  = "Remove installed kits, preserving user files"
	MsgStatusShort     = "Show per-file ownership of installed kits"
	MsgStatusLong      = "Status re-checks every tracked file against its recorded checksum and reports whether it is untouched, locally modified, or missing."
	MsgListShort       = "List installed kits"
	MsgListLong        = "List displays the kits recorded in the installation root's manifest."
	MsgConfigShort     = "Manage ckit configuration"
	MsgConfigInitShort = "Generate the default configuration file"
	MsgConfigInitLong  = "Output the commented default configuration to stdout, or write it into the installation root with -w."
	MsgTopicsShort     = "Display available documentation topics"
	MsgTopicsLong      = "Display a list of all available help topics that provide additional documentation beyond command help."
	MsgCompletionShort = "Generate shell completion script"

	// Status messages
	MsgDryRunNotice     = "\nDRY RUN MODE - No changes were made"
	MsgProgressTracking = "Tracking files"
	MsgInstallSummary   = "\nInstalled %s %s (%d files tracked)\n"
	MsgInstallConflicts = "\n%d file(s) kept their local content; rerun with --force to overwrite them\n"
	MsgUpdateSummary    = "\nUpdated %s to %s (%d files written)\n"
	MsgUpdateNothing    = "\nNothing to apply; installation already matches the release"
	MsgReviewHeader     = "\nNeeds manual review:\n"
	MsgReviewItem       = "  %s (%d hunks)\n"
	MsgManifestRemoved  = "No kits remain; manifest removed"
	MsgConfigWritten    = "Wrote %s\n"

	// Error messages
	MsgErrInitPaths    = "failed to resolve installation root: %w"
	MsgErrLoadConfig   = "failed to load configuration: %w"
	MsgErrInstallKit   = "failed to install kit: %w"
	MsgErrUpdateKit    = "failed to update kit: %w"
	MsgErrUninstallKit = "failed to uninstall: %w"
	MsgErrStatusKits   = "failed to get kit status: %w"
	MsgErrListKits     = "failed to list kits: %w"
	MsgErrGenConfig    = "failed to generate configuration: %w"
	MsgErrWriteConfig  = "failed to write configuration: %w"
	MsgErrConfigExists = "config file already exists: %s"

	// Flag descriptions
	MsgFlagVerbose    = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagDryRun     = "Preview changes without executing them"
	MsgFlagForce      = "Overwrite or delete files the user has modified"
	MsgFlagGlobal     = "Target the per-user global root instead of the project root"
	MsgFlagRoot       = "Installation root (defaults to CKIT_ROOT, then the git root, then the cwd)"
	MsgFlagFormat     = "Output format: auto, term, text, json"
	MsgFlagFrom       = "Directory holding the extracted upstream release"
	MsgFlagKitVersion = "Version to record for this release (defaults to the kit.yaml version)"
	MsgFlagKitType    = "Kit type label for the manifest (defaults to the kit.yaml type)"
	MsgFlagWrite      = "Write the config into the installation root instead of stdout"

	// Warnings
	MsgFallbackWarning = "Warning: no installation root found, using current directory: %s\n"
)

// Long messages from embedded files
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/install-long.txt
	msgInstallLongRaw string
	MsgInstallLong    = strings.TrimSpace(msgInstallLongRaw)

	//go:embed msgs/install-example.txt
	msgInstallExampleRaw string
	MsgInstallExample    = strings.TrimSpace(msgInstallExampleRaw)

	//go:embed msgs/update-long.txt
	msgUpdateLongRaw string
	MsgUpdateLong    = strings.TrimSpace(msgUpdateLongRaw)

	//go:embed msgs/update-example.txt
	msgUpdateExampleRaw string
	MsgUpdateExample    = strings.TrimSpace(msgUpdateExampleRaw)

	//go:embed msgs/uninstall-long.txt
	msgUninstallLongRaw string
	MsgUninstallLong    = strings.TrimSpace(msgUninstallLongRaw)

	//go:embed msgs/uninstall-example.txt
	msgUninstallExampleRaw string
	MsgUninstallExample    = strings.TrimSpace(msgUninstallExampleRaw)

	//go:embed msgs/status-example.txt
	msgStatusExampleRaw string
	MsgStatusExample    = strings.TrimSpace(msgStatusExampleRaw)

	//go:embed msgs/config-init-example.txt
	msgConfigInitExampleRaw string
	MsgConfigInitExample    = strings.TrimSpace(msgConfigInitExampleRaw)

	//go:embed msgs/completion-long.txt
	msgCompletionLongRaw string
	MsgCompletionLong    = strings.TrimSpace(msgCompletionLongRaw)

	//go:embed msgs/usage-template.txt
	msgUsageTemplateRaw string
	MsgUsageTemplate    = strings.TrimSpace(msgUsageTemplateRaw)
)
