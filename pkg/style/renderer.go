package style

import (
	"fmt"
	"strings"

	"github.com/ckit-sh/ckit/pkg/errors"
	"github.com/ckit-sh/ckit/pkg/types"
)

// Renderer defines the interface for rendering command results
type Renderer interface {
	RenderKitList(result *types.ListKitsResult) string
	RenderStatus(result *types.StatusResult) string
	RenderSyncPlan(kitID string, plan *types.SyncPlan) string
	RenderUninstall(kitID string, analysis *types.UninstallAnalysis) string
	RenderOperations(ops []types.Operation) string
	RenderError(err error) string
}

// NewRenderer returns the renderer matching format. FormatAuto should be
// resolved through DetectFormat first; unresolved values fall back to
// plain output.
func NewRenderer(format Format) Renderer {
	if format == FormatTerminal {
		return NewTerminalRenderer()
	}
	return NewPlainRenderer()
}

// TerminalRenderer implements Renderer with rich terminal output
type TerminalRenderer struct {
	width int
}

// NewTerminalRenderer creates a new terminal renderer
func NewTerminalRenderer() *TerminalRenderer {
	return &TerminalRenderer{
		width: 80, // Default width, can be updated
	}
}

// SetWidth updates the terminal width for rendering
func (r *TerminalRenderer) SetWidth(width int) {
	r.width = width
}

// RenderKitList renders the installed kit listing
func (r *TerminalRenderer) RenderKitList(result *types.ListKitsResult) string {
	if result == nil || len(result.Kits) == 0 {
		return MutedStyle.Render("No kits installed")
	}

	var out strings.Builder
	out.WriteString(TitleStyle.Render("Installed Kits") + "\n\n")

	for _, kit := range result.Kits {
		// Kit name with version
		header := fmt.Sprintf("%s %s %s", InfoIndicator, Bold(kit.Name), MutedStyle.Render(kit.Version))
		out.WriteString(header + "\n")

		// Summary line (indented and muted)
		detail := fmt.Sprintf("%d files", kit.Files)
		if kit.Type != "" {
			detail = kit.Type + ", " + detail
		}
		if !kit.InstalledAt.IsZero() {
			detail += ", installed " + kit.InstalledAt.Format("2006-01-02")
		}
		if kit.Legacy {
			detail += ", legacy manifest"
		}
		out.WriteString(Indent(MutedStyle.Render(detail), 1) + "\n")

		// Add spacing between kits
		out.WriteString("\n")
	}

	return strings.TrimRight(out.String(), "\n")
}

// RenderStatus renders the per-file status report
func (r *TerminalRenderer) RenderStatus(result *types.StatusResult) string {
	if result == nil || len(result.Kits) == 0 {
		return MutedStyle.Render("No kits installed")
	}

	var out strings.Builder
	for _, kit := range result.Kits {
		header := strings.TrimSpace(kit.Name + " " + kit.Version)
		out.WriteString(SubtitleStyle.Render(header) + ":\n")

		if len(kit.Files) == 0 {
			out.WriteString(Indent(MutedStyle.Render("no tracked files"), 1) + "\n")
		}
		for _, file := range kit.Files {
			out.WriteString(r.renderFileStatus(file) + "\n")
		}

		out.WriteString("\n")
	}

	return strings.TrimRight(out.String(), "\n")
}

// renderFileStatus renders a single file status line
func (r *TerminalRenderer) renderFileStatus(file types.KitFileStatus) string {
	var indicator, note string
	switch file.State {
	case types.FileStateOK:
		indicator = SuccessIndicator
	case types.FileStateModified:
		indicator = WarningIndicator
		note = ModifiedStyle.Render("modified")
	case types.FileStateMissing:
		indicator = ErrorIndicator
		note = ErrorStyle.Render("missing")
	case types.FileStateUnknown:
		indicator = WarningIndicator
		note = MutedStyle.Render("unknown")
	default:
		indicator = InfoIndicator
	}

	// User-claimed files are reported as such regardless of drift.
	if file.Ownership == types.OwnershipUser {
		indicator = InfoIndicator
		note = UserStyle.Render("user-owned")
	}

	line := fmt.Sprintf("%s %s", indicator, PathStyle.Render(file.Path))
	if note != "" {
		line += " " + note
	}
	return Indent(line, 1)
}

// RenderSyncPlan renders an update preview
func (r *TerminalRenderer) RenderSyncPlan(kitID string, plan *types.SyncPlan) string {
	if plan == nil || plan.Total() == 0 {
		return MutedStyle.Render("Nothing to sync")
	}

	var out strings.Builder
	out.WriteString(TitleStyle.Render("Sync plan for "+kitID) + "\n\n")

	out.WriteString(r.renderPlanSection("Auto-update", SuccessIndicator, plan.AutoUpdate))
	out.WriteString(r.renderPlanSection("Needs review", WarningIndicator, plan.NeedsReview))
	out.WriteString(r.renderPlanSection("Skipped", PendingIndicator, plan.Skipped))

	summary := fmt.Sprintf("%d to update, %d to review, %d skipped",
		len(plan.AutoUpdate), len(plan.NeedsReview), len(plan.Skipped))
	out.WriteString(MutedStyle.Render(summary))

	return out.String()
}

// renderPlanSection renders one plan bucket, or nothing when it is empty
func (r *TerminalRenderer) renderPlanSection(title, indicator string, files []types.PlannedFile) string {
	if len(files) == 0 {
		return ""
	}

	var out strings.Builder
	out.WriteString(SubtitleStyle.Render(title) + "\n")
	for _, file := range files {
		line := fmt.Sprintf("%s %s", indicator, PathStyle.Render(file.Path))
		if file.Reason != "" {
			line += " " + MutedStyle.Render(file.Reason)
		}
		out.WriteString(Indent(line, 1) + "\n")
	}
	out.WriteString("\n")

	return out.String()
}

// RenderUninstall renders an uninstall preview
func (r *TerminalRenderer) RenderUninstall(kitID string, analysis *types.UninstallAnalysis) string {
	if analysis == nil {
		return MutedStyle.Render("Nothing to uninstall")
	}

	var out strings.Builder
	out.WriteString(TitleStyle.Render("Uninstall "+kitID) + "\n\n")

	if analysis.Legacy {
		notice := WarningStyle.Render("Legacy manifest, analysis fell back to directory granularity")
		out.WriteString(WarningIndicator + " " + notice + "\n\n")
	}

	out.WriteString(r.renderDispositions("Will delete", ErrorIndicator, analysis.ToDelete))
	out.WriteString(r.renderDispositions("Preserved", InfoIndicator, analysis.ToPreserve))

	if !analysis.HasDeletions() {
		out.WriteString(MutedStyle.Render("Nothing to delete") + "\n")
	}
	if len(analysis.RemainingKits) > 0 {
		remaining := "Remaining kits: " + strings.Join(analysis.RemainingKits, ", ")
		out.WriteString(MutedStyle.Render(remaining) + "\n")
	} else if analysis.HasDeletions() {
		out.WriteString(MutedStyle.Render("The manifest will be removed") + "\n")
	}

	return strings.TrimRight(out.String(), "\n")
}

// renderDispositions renders one uninstall bucket, or nothing when it is
// empty
func (r *TerminalRenderer) renderDispositions(title, indicator string, files []types.FileDisposition) string {
	if len(files) == 0 {
		return ""
	}

	var out strings.Builder
	out.WriteString(SubtitleStyle.Render(title) + "\n")
	for _, file := range files {
		line := fmt.Sprintf("%s %s", indicator, PathStyle.Render(file.Path))
		if file.Reason != "" {
			line += " " + MutedStyle.Render(file.Reason)
		}
		out.WriteString(Indent(line, 1) + "\n")
	}
	out.WriteString("\n")

	return out.String()
}

// RenderOperations renders a list of operations
func (r *TerminalRenderer) RenderOperations(ops []types.Operation) string {
	if len(ops) == 0 {
		return MutedStyle.Render("No operations to perform")
	}

	var out strings.Builder
	out.WriteString(TitleStyle.Render("Operations") + "\n\n")

	for _, op := range ops {
		out.WriteString(r.renderOperation(op) + "\n")
	}

	return strings.TrimRight(out.String(), "\n")
}

// renderOperation renders a single operation
func (r *TerminalRenderer) renderOperation(op types.Operation) string {
	// Choose indicator based on operation status
	var indicator string
	switch op.Status {
	case types.StatusReady:
		indicator = PendingIndicator
	case types.StatusSkipped:
		indicator = InfoIndicator
	case types.StatusConflict:
		indicator = WarningIndicator
	case types.StatusError:
		indicator = ErrorIndicator
	default:
		indicator = InfoIndicator
	}

	// Choose style based on operation type
	var typeName string
	typeStyle := InfoStyle
	switch op.Type {
	case types.OperationCreateDir:
		typeName = "mkdir"
		typeStyle = MutedStyle
	case types.OperationCopyFile:
		typeName = "copy"
		typeStyle = KitStyle
	case types.OperationWriteFile:
		typeName = "write"
		typeStyle = ModifiedStyle
	case types.OperationDeleteFile:
		typeName = "delete"
		typeStyle = ErrorStyle
	default:
		typeName = string(op.Type)
	}

	// Build operation description
	var desc string
	switch {
	case op.Source != "" && op.Target != "":
		desc = fmt.Sprintf("%s -> %s",
			PathStyle.Render(op.Source),
			PathStyle.Render(op.Target))
	case op.Target != "":
		desc = PathStyle.Render(op.Target)
	default:
		desc = op.Description
	}

	return fmt.Sprintf("%s %s %s", indicator, typeStyle.Render(typeName), desc)
}

// RenderError renders an error message
func (r *TerminalRenderer) RenderError(err error) string {
	if err == nil {
		return ""
	}

	if code := errors.GetErrorCode(err); code != errors.ErrUnknown {
		return fmt.Sprintf("%s Error [%s]: %s",
			ErrorIndicator,
			ErrorStyle.Render(string(code)),
			err.Error())
	}

	return fmt.Sprintf("%s %s", ErrorIndicator, ErrorStyle.Render(err.Error()))
}

// PlainRenderer implements Renderer with plain text output (no styling)
type PlainRenderer struct{}

// NewPlainRenderer creates a new plain text renderer
func NewPlainRenderer() *PlainRenderer {
	return &PlainRenderer{}
}

// RenderKitList renders a plain kit listing
func (r *PlainRenderer) RenderKitList(result *types.ListKitsResult) string {
	if result == nil || len(result.Kits) == 0 {
		return "No kits installed"
	}

	var out strings.Builder
	out.WriteString("Installed kits:\n")
	for _, kit := range result.Kits {
		line := fmt.Sprintf("  - %s %s (%d files)", kit.Name, kit.Version, kit.Files)
		if kit.Legacy {
			line += " [legacy]"
		}
		out.WriteString(line + "\n")
	}

	return strings.TrimRight(out.String(), "\n")
}

// RenderStatus renders a plain status report
func (r *PlainRenderer) RenderStatus(result *types.StatusResult) string {
	if result == nil || len(result.Kits) == 0 {
		return "No kits installed"
	}

	var out strings.Builder
	for _, kit := range result.Kits {
		out.WriteString(strings.TrimSpace(kit.Name+" "+kit.Version) + ":\n")
		for _, file := range kit.Files {
			line := fmt.Sprintf("  %s: %s", file.State, file.Path)
			if file.Ownership == types.OwnershipUser {
				line += " (user-owned)"
			}
			out.WriteString(line + "\n")
		}
	}

	return strings.TrimRight(out.String(), "\n")
}

// RenderSyncPlan renders a plain update preview
func (r *PlainRenderer) RenderSyncPlan(kitID string, plan *types.SyncPlan) string {
	if plan == nil || plan.Total() == 0 {
		return "Nothing to sync"
	}

	var out strings.Builder
	out.WriteString("Sync plan for " + kitID + ":\n")
	writeSection := func(title string, files []types.PlannedFile) {
		for _, file := range files {
			line := fmt.Sprintf("  %s: %s", title, file.Path)
			if file.Reason != "" {
				line += " (" + file.Reason + ")"
			}
			out.WriteString(line + "\n")
		}
	}
	writeSection("update", plan.AutoUpdate)
	writeSection("review", plan.NeedsReview)
	writeSection("skip", plan.Skipped)

	return strings.TrimRight(out.String(), "\n")
}

// RenderUninstall renders a plain uninstall preview
func (r *PlainRenderer) RenderUninstall(kitID string, analysis *types.UninstallAnalysis) string {
	if analysis == nil {
		return "Nothing to uninstall"
	}

	var out strings.Builder
	out.WriteString("Uninstall " + kitID + ":\n")
	for _, file := range analysis.ToDelete {
		out.WriteString(fmt.Sprintf("  delete: %s\n", file.Path))
	}
	for _, file := range analysis.ToPreserve {
		line := fmt.Sprintf("  preserve: %s", file.Path)
		if file.Reason != "" {
			line += " (" + file.Reason + ")"
		}
		out.WriteString(line + "\n")
	}
	if !analysis.HasDeletions() {
		out.WriteString("  nothing to delete\n")
	}
	if len(analysis.RemainingKits) > 0 {
		out.WriteString("  remaining kits: " + strings.Join(analysis.RemainingKits, ", ") + "\n")
	}

	return strings.TrimRight(out.String(), "\n")
}

// RenderOperations renders plain operations
func (r *PlainRenderer) RenderOperations(ops []types.Operation) string {
	if len(ops) == 0 {
		return "No operations to perform"
	}

	var out strings.Builder
	for _, op := range ops {
		desc := op.Description
		if desc == "" {
			desc = op.Target
		}
		out.WriteString(fmt.Sprintf("%s: %s\n", op.Type, desc))
	}

	return strings.TrimRight(out.String(), "\n")
}

// RenderError renders a plain error message
func (r *PlainRenderer) RenderError(err error) string {
	if err == nil {
		return ""
	}

	if code := errors.GetErrorCode(err); code != errors.ErrUnknown {
		return fmt.Sprintf("Error [%s]: %s", code, err.Error())
	}

	return fmt.Sprintf("Error: %s", err.Error())
}
