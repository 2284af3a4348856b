package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"

	"github.com/parchlabs/sitesmith/internal/orchestrator"
	"github.com/parchlabs/sitesmith/internal/project"
	"github.com/parchlabs/sitesmith/internal/workspace"
)

var filesFlags struct {
	project string
	dataDir string
}

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Inspect and edit a project's generated files",
}

var filesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the project's files",
	RunE:  runFilesList,
}

var filesShowRaw bool

var filesShowCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Print one file with syntax highlighting",
	Args:  cobra.ExactArgs(1),
	RunE:  runFilesShow,
}

var filesEditCmd = &cobra.Command{
	Use:   "edit <file>",
	Short: "Open one file in $EDITOR and save the result",
	Args:  cobra.ExactArgs(1),
	RunE:  runFilesEdit,
}

var filesExportFlags struct {
	dir   string
	watch bool
}

var filesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the project's files to a local directory",
	Long: `Write the project's files to a local directory.

With --watch the directory stays mirrored: manual edits are picked up and
imported back into the project until interrupted.`,
	RunE: runFilesExport,
}

func init() {
	filesCmd.PersistentFlags().StringVarP(&filesFlags.project, "project", "p", "", "Project name (required)")
	filesCmd.PersistentFlags().StringVar(&filesFlags.dataDir, "data-dir", "", "Data directory for NATS storage (default: .sitesmith)")
	_ = filesCmd.MarkPersistentFlagRequired("project")

	filesShowCmd.Flags().BoolVar(&filesShowRaw, "raw", false, "Print without syntax highlighting")
	filesExportCmd.Flags().StringVarP(&filesExportFlags.dir, "dir", "d", "", "Target directory (default: ./<project>)")
	filesExportCmd.Flags().BoolVarP(&filesExportFlags.watch, "watch", "w", false, "Keep watching the directory and import edits until interrupted")

	filesCmd.AddCommand(filesListCmd)
	filesCmd.AddCommand(filesShowCmd)
	filesCmd.AddCommand(filesEditCmd)
	filesCmd.AddCommand(filesExportCmd)
}

// openProject starts a headless orchestrator for commands that only need
// store access. Callers must Stop it.
func openProject() (*orchestrator.Orchestrator, error) {
	cfg, err := loadConfig("", filesFlags.dataDir)
	if err != nil {
		return nil, err
	}
	orch, err := newOrchestrator(cfg, filesFlags.project, true)
	if err != nil {
		return nil, err
	}
	if err := orch.Start(); err != nil {
		return nil, fmt.Errorf("failed to start orchestrator: %w", err)
	}
	return orch, nil
}

func runFilesList(cmd *cobra.Command, args []string) error {
	orch, err := openProject()
	if err != nil {
		return err
	}
	defer func() { _ = orch.Stop() }()

	state, err := orch.Store().LoadState(cmd.Context(), filesFlags.project)
	if err != nil {
		return fmt.Errorf("failed to load project state: %w", err)
	}
	if state.Files.Len() == 0 {
		fmt.Println("No files in project.")
		return nil
	}

	for _, f := range state.Files.Files() {
		line := fmt.Sprintf("%-32s %7d", f.Name, len(f.Code))
		if f.UsedFor != "" {
			line += "  " + f.UsedFor
		}
		fmt.Println(line)
	}
	return nil
}

func runFilesShow(cmd *cobra.Command, args []string) error {
	orch, err := openProject()
	if err != nil {
		return err
	}
	defer func() { _ = orch.Stop() }()

	name := args[0]
	state, err := orch.Store().LoadState(cmd.Context(), filesFlags.project)
	if err != nil {
		return fmt.Errorf("failed to load project state: %w", err)
	}
	file, ok := state.Files.Get(name)
	if !ok {
		return fmt.Errorf("file not found: %s", name)
	}

	if filesShowRaw {
		fmt.Print(file.Code)
		return nil
	}
	return highlight(os.Stdout, file.Name, file.Code)
}

// highlight renders code with terminal colors, falling back to plain tokens
// when the file type has no lexer.
func highlight(w io.Writer, name, code string) error {
	lexer := lexers.Match(name)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return err
	}
	return formatter.Format(w, style, iterator)
}

func runFilesEdit(cmd *cobra.Command, args []string) error {
	orch, err := openProject()
	if err != nil {
		return err
	}
	defer func() { _ = orch.Stop() }()

	ctx := cmd.Context()
	name := args[0]
	state, err := orch.Store().LoadState(ctx, filesFlags.project)
	if err != nil {
		return fmt.Errorf("failed to load project state: %w", err)
	}
	file, ok := state.Files.Get(name)
	if !ok {
		return fmt.Errorf("file not found: %s", name)
	}

	// Keep the extension so the editor picks the right mode.
	tmpfile, err := os.CreateTemp("", "sitesmith_*"+filepath.Ext(name))
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmpfile.Name()) }()

	if _, err := tmpfile.WriteString(file.Code); err != nil {
		_ = tmpfile.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpfile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	editCmd, err := editor.Command("sitesmith", tmpfile.Name())
	if err != nil {
		return fmt.Errorf("no editor available: %w", err)
	}
	editCmd.Stdin = os.Stdin
	editCmd.Stdout = os.Stdout
	editCmd.Stderr = os.Stderr
	if err := editCmd.Run(); err != nil {
		return fmt.Errorf("editor failed: %w", err)
	}

	edited, err := os.ReadFile(tmpfile.Name())
	if err != nil {
		return fmt.Errorf("failed to read edited file: %w", err)
	}
	if string(edited) == file.Code {
		fmt.Println("No changes.")
		return nil
	}

	if err := orch.Store().PutFile(ctx, filesFlags.project, project.PutFileParams{
		Name:    name,
		Code:    string(edited),
		UsedFor: file.UsedFor,
	}); err != nil {
		return fmt.Errorf("failed to save %s: %w", name, err)
	}
	fmt.Printf("Updated %s\n", name)
	return nil
}

func runFilesExport(cmd *cobra.Command, args []string) error {
	orch, err := openProject()
	if err != nil {
		return err
	}
	defer func() { _ = orch.Stop() }()

	ctx := cmd.Context()
	state, err := orch.Store().LoadState(ctx, filesFlags.project)
	if err != nil {
		return fmt.Errorf("failed to load project state: %w", err)
	}
	if state.Files.Len() == 0 {
		return fmt.Errorf("project '%s' has no files to export", filesFlags.project)
	}

	dir := filesExportFlags.dir
	if dir == "" {
		dir = filesFlags.project
	}
	if err := workspace.Export(dir, state.Files.Files()); err != nil {
		return err
	}
	fmt.Printf("Exported %d files to %s\n", state.Files.Len(), dir)

	if !filesExportFlags.watch {
		return nil
	}

	watcher, err := workspace.Watch(ctx, orch.Store(), filesFlags.project, dir)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	defer watcher.Stop()

	fmt.Println("Watching for manual edits; press Ctrl-C to stop.")
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigChan:
		fmt.Println()
	case <-ctx.Done():
	}
	return nil
}
