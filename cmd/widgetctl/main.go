package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"widgetgen/internal/a2ui"
	"widgetgen/internal/preview"
	"widgetgen/internal/session"
	"widgetgen/internal/snapshot"
	"widgetgen/internal/ui"
	"widgetgen/internal/util/jsonutil"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "widgetctl",
		Short:         "Validate, render and export widget schemas",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newValidateCmd())
	root.AddCommand(newRenderCmd())
	root.AddCommand(newSessionsCmd())
	root.AddCommand(newExportCmd())
	root.AddCommand(newImportAppsCmd())
	return root
}

// readInput reads path, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <schema.json|->",
		Short: "Check a widget schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			var candidate any
			if err := jsonutil.DecodeModelOutput(raw, &candidate); err != nil {
				return fmt.Errorf("invalid: %w", err)
			}
			schema, err := a2ui.Validate(candidate)
			if err != nil {
				return fmt.Errorf("invalid: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "valid: root=%s components=%d\n", schema.Root, len(schema.Components))
			return nil
		},
	}
}

func newRenderCmd() *cobra.Command {
	var dataPath string
	var standard bool
	cmd := &cobra.Command{
		Use:   "render <schema.json|->",
		Short: "Render a widget schema to a JSON node tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schemaRaw, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			var dataRaw []byte
			if dataPath != "" {
				if dataRaw, err = os.ReadFile(dataPath); err != nil {
					return err
				}
			}
			cat := a2ui.DefaultCatalog()
			if standard {
				cat = a2ui.StandardCatalog()
			}
			svc := preview.NewService(cat, preview.Config{})
			res, err := svc.Render(cmd.Context(), []byte(jsonutil.ExtractJSON(string(schemaRaw))), dataRaw)
			if err != nil {
				return err
			}
			for _, is := range res.Issues {
				fmt.Fprintf(cmd.ErrOrStderr(), "issue: %s %s: %s\n", is.ComponentID, is.Code, is.Message)
			}
			return writeJSON(cmd.OutOrStdout(), preview.Wire(renderEvent(res)))
		},
	}
	cmd.Flags().StringVar(&dataPath, "data", "", "data model JSON file")
	cmd.Flags().BoolVar(&standard, "standard", false, "use the standard component catalog only")
	return cmd
}

func newSessionsCmd() *cobra.Command {
	var dsn string
	var limit int
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List stored generation sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := session.OpenSQL(dsn)
			if err != nil {
				return err
			}
			defer store.Close()
			list, err := store.ListSessions(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for _, s := range list {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n", s.ID, s.Status, s.Mode, s.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dsn, "db", "", "database url")
	cmd.Flags().IntVar(&limit, "limit", session.DefaultListLimit, "maximum sessions to list")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}

func newExportCmd() *cobra.Command {
	var dsn, sessionID, outDir string
	var all bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export completed sessions to a directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sessionID == "" && !all {
				return errors.New("either --session or --all is required")
			}
			store, err := session.OpenSQL(dsn)
			if err != nil {
				return err
			}
			defer store.Close()
			exp := snapshot.NewExporter(store, preview.NewService(nil, preview.DefaultConfig()), snapshot.NewDirStore(outDir))

			ids := []string{sessionID}
			if all {
				if ids, err = completedSessions(cmd.Context(), store); err != nil {
					return err
				}
			}
			for _, id := range ids {
				m, err := exp.Export(cmd.Context(), id)
				if err != nil {
					if all && errors.Is(err, snapshot.ErrNotReady) {
						continue
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported %s (%d files)\n", m.SessionID, len(m.Files))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dsn, "db", "", "database url")
	cmd.Flags().StringVar(&sessionID, "session", "", "session id")
	cmd.Flags().BoolVar(&all, "all", false, "export every completed session")
	cmd.Flags().StringVar(&outDir, "out", "./render-exp", "output directory")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}

func newImportAppsCmd() *cobra.Command {
	var dsn string
	cmd := &cobra.Command{
		Use:   "import-apps <catalog.json>",
		Short: "Import app metadata used by appId generation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := session.OpenSQL(dsn)
			if err != nil {
				return err
			}
			defer store.Close()
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			stats, err := session.ImportApps(cmd.Context(), store, f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported=%d skipped=%d failed=%d\n", stats.Imported, stats.Skipped, stats.Failed)
			return nil
		},
	}
	cmd.Flags().StringVar(&dsn, "db", "", "database url")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}

func completedSessions(ctx context.Context, store session.Store) ([]string, error) {
	list, err := store.ListSessions(ctx, 1<<20)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, s := range list {
		if s.Status == session.StatusCompleted {
			ids = append(ids, s.ID)
		}
	}
	return ids, nil
}

func writeJSON(w io.Writer, v any) error {
	b, err := jsonutil.MarshalNoEscapeIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}

func renderEvent(res preview.Result) ui.Event {
	node := res.Root
	return ui.Event{Type: ui.EventTypeRender, Node: &node}
}
