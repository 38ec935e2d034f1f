package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"uigen/client"
	"uigen/internal/api"
	"uigen/internal/diff"
	"uigen/internal/session"
	"uigen/internal/vfs"
	"uigen/internal/workspace"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// readCalls accepts a stream of JSON objects, one per line or
// whitespace separated, or a single JSON array of objects.
func readCalls(r io.Reader) ([]json.RawMessage, error) {
	dec := json.NewDecoder(bufio.NewReader(r))
	var calls []json.RawMessage
	for {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("reading tool calls: %w", err)
		}
		raw = bytes.TrimSpace(raw)
		if len(raw) > 0 && raw[0] == '[' {
			var batch []json.RawMessage
			if err := json.Unmarshal(raw, &batch); err != nil {
				return nil, fmt.Errorf("reading tool calls: %w", err)
			}
			calls = append(calls, batch...)
			continue
		}
		calls = append(calls, raw)
	}
	return calls, nil
}

func openInput(args []string) (io.ReadCloser, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(args[0])
}

// seedSession creates a remote session from a project or a directory.
func seedSession(ctx context.Context, c *client.Client, projectID, seedDir string) (*api.SessionResponse, error) {
	req := api.CreateSessionRequest{ProjectID: projectID}
	if seedDir != "" {
		files, err := workspace.Import(seedDir)
		if err != nil {
			return nil, err
		}
		req.Files = files
	}
	return c.CreateSession(ctx, req)
}

// finish saves and exports a session's files when asked to.
func finish(ctx context.Context, w io.Writer, c *client.Client, id, saveName, exportDir string, save bool) error {
	if save {
		p, err := c.Save(ctx, id, saveName)
		if err != nil {
			return fmt.Errorf("saving project: %w", err)
		}
		fmt.Fprint(w, "Saved ")
		printProject(w, p)
		printChange(w, p.LastChange)
	}
	if exportDir == "" {
		return nil
	}
	files, err := c.Files(ctx, id)
	if err != nil {
		return err
	}
	written, err := workspace.Export(exportDir, files)
	if err != nil {
		return fmt.Errorf("exporting files: %w", err)
	}
	fmt.Fprintf(w, "Exported %d file(s) to %s\n", len(written), exportDir)
	return nil
}

func newExecCmd() *cobra.Command {
	var (
		seedDir   string
		projectID string
		showDiff  bool
		local     bool
		saveName  string
		exportDir string
	)
	cmd := &cobra.Command{
		Use:   "exec [file]",
		Short: "Replay editor tool calls against a session",
		Long: `Reads str_replace_editor tool calls as JSON objects (one per line, or a
JSON array) from a file or stdin and prints each result. With --local the
calls run in-process without a server.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openInput(args)
			if err != nil {
				return err
			}
			calls, err := readCalls(in)
			in.Close()
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()
			out := cmd.OutOrStdout()

			if local {
				return execLocal(ctx, out, calls, seedDir, showDiff, exportDir)
			}

			c := newClient()
			s, err := seedSession(ctx, c, projectID, seedDir)
			if err != nil {
				return err
			}
			defer func() {
				if err := c.CloseSession(context.Background(), s.ID); err != nil {
					logger.Warn("failed to close session", zap.String("session", s.ID), zap.Error(err))
				}
			}()

			for _, raw := range calls {
				resp, err := c.Command(ctx, s.ID, raw, showDiff)
				if err != nil {
					return err
				}
				printResult(out, resp.Result, resp.IsError)
				if resp.Diff != "" {
					printColoredDiff(out, resp.Diff)
				}
			}
			return finish(ctx, out, c, s.ID, saveName, exportDir, cmd.Flags().Changed("save"))
		},
	}
	cmd.Flags().StringVar(&seedDir, "seed", "", "directory whose files seed the session")
	cmd.Flags().StringVar(&projectID, "project", "", "saved project to load into the session")
	cmd.Flags().BoolVar(&showDiff, "diff", false, "print a unified diff after each edit")
	cmd.Flags().BoolVar(&local, "local", false, "run in-process instead of against a server")
	cmd.Flags().StringVar(&saveName, "save", "", "save the session as a project with this name")
	cmd.Flags().StringVar(&exportDir, "export", "", "write the final files to this directory")
	return cmd
}

func execLocal(ctx context.Context, w io.Writer, calls []json.RawMessage, seedDir string, showDiff bool, exportDir string) error {
	var seed map[string]string
	if seedDir != "" {
		files, err := workspace.Import(seedDir)
		if err != nil {
			return err
		}
		seed = files
	}
	manager, err := session.NewManager(1, nil, logger)
	if err != nil {
		return err
	}
	s, err := manager.Create(ctx, session.CreateOptions{Files: seed})
	if err != nil {
		return err
	}

	engine := diff.NewEngine(diff.DefaultContext)
	for _, raw := range calls {
		if showDiff {
			res, d := s.RunWithDiff(ctx, raw, engine)
			printResult(w, res.Text, res.IsError)
			if d != "" {
				printColoredDiff(w, d)
			}
			continue
		}
		res := s.Run(ctx, raw)
		printResult(w, res.Text, res.IsError)
	}

	if exportDir != "" {
		written, err := workspace.Export(exportDir, s.Files())
		if err != nil {
			return fmt.Errorf("exporting files: %w", err)
		}
		fmt.Fprintf(w, "Exported %d file(s) to %s\n", len(written), exportDir)
	}
	return nil
}

func newGenerateCmd() *cobra.Command {
	var (
		seedDir   string
		projectID string
		saveName  string
		exportDir string
		verbose   bool
	)
	cmd := &cobra.Command{
		Use:   "generate <prompt...>",
		Short: "Ask the model to build or change a UI",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()
			out := cmd.OutOrStdout()

			c := newClient()
			s, err := seedSession(ctx, c, projectID, seedDir)
			if err != nil {
				return err
			}
			defer c.CloseSession(context.Background(), s.ID)

			outcome, err := c.Generate(ctx, s.ID, strings.Join(args, " "))
			if err != nil {
				return err
			}
			for _, call := range outcome.Calls {
				if verbose {
					dimColor.Fprintln(out, call.Arguments)
				}
				printResult(out, call.Result.Text, call.Result.IsError)
			}
			if outcome.Text != "" {
				fmt.Fprintln(out, outcome.Text)
			}
			fmt.Fprintf(out, "%s after %d step(s), files: %s\n",
				color.New(color.FgYellow).Sprint(outcome.Stop), outcome.Steps, strings.Join(outcome.Files, ", "))

			return finish(ctx, out, c, s.ID, saveName, exportDir, cmd.Flags().Changed("save"))
		},
	}
	cmd.Flags().StringVar(&seedDir, "seed", "", "directory whose files seed the session")
	cmd.Flags().StringVar(&projectID, "project", "", "saved project to continue")
	cmd.Flags().StringVar(&saveName, "save", "", "save the result as a project with this name")
	cmd.Flags().StringVar(&exportDir, "export", "", "write the generated files to this directory")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print each tool call's arguments")
	return cmd
}

func newWatchCmd() *cobra.Command {
	var (
		projectID string
		saveName  string
	)
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Mirror a directory into a session as files change",
		Long: `Imports the directory into a new session, then sends a create call for
every file written under it until interrupted. With --save the session is
saved as a project on exit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()
			out := cmd.OutOrStdout()

			c := newClient()
			s, err := seedSession(ctx, c, projectID, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Watching %s as session %s (%d file(s))\n", args[0], s.ID, len(s.Files))

			sink := func(ctx context.Context, path, content string) error {
				raw, err := json.Marshal(map[string]string{
					"command":   "create",
					"path":      path,
					"file_text": content,
				})
				if err != nil {
					return err
				}
				resp, err := c.Command(ctx, s.ID, raw, false)
				if err != nil {
					return err
				}
				printResult(out, resp.Result, resp.IsError)
				return nil
			}

			w, err := workspace.NewWatcher(args[0], sink, logger.Named("watch"))
			if err != nil {
				return err
			}
			defer w.Close()

			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			if cmd.Flags().Changed("save") {
				return finish(context.Background(), out, c, s.ID, saveName, "", true)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "saved project to start from instead of an empty session")
	cmd.Flags().StringVar(&saveName, "save", "", "save the session as a project on exit")
	return cmd
}

func newProjectsCmd() *cobra.Command {
	var (
		name  string
		since time.Duration
	)
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List saved projects, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := client.ProjectQuery{Name: name}
			if since > 0 {
				q.Since = time.Now().Add(-since)
			}
			projects, err := newClient().ListProjects(cmd.Context(), q)
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No projects.")
				return nil
			}
			for _, p := range projects {
				printProject(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "only list projects whose name contains this text")
	cmd.Flags().DurationVar(&since, "since", 0, "only list projects updated within this long, e.g. 24h")
	return cmd
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <project-id> [path]",
		Short: "Print a saved project's files, or one of them",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newClient().GetProject(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(args) == 2 {
				path, err := vfs.Normalize(args[1])
				if err != nil {
					return err
				}
				content, ok := p.Contents[path]
				if !ok {
					return fmt.Errorf("project %s has no file %s", p.ID, path)
				}
				fmt.Fprintln(out, content)
				return nil
			}
			printProject(out, p.Project)
			printFiles(out, p.Contents)
			return nil
		},
	}
}

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <project-id> <dir>",
		Short: "Write a saved project's files to a directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newClient().GetProject(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			written, err := workspace.Export(args[1], p.Contents)
			if err != nil {
				return err
			}
			for _, path := range written {
				okColor.Fprintln(cmd.OutOrStdout(), path)
			}
			return nil
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <project-id>",
		Short: "Delete a saved project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newClient().DeleteProject(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %s\n", args[0])
			return nil
		},
	}
}
