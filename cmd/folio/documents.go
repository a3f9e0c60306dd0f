package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/dshills/folio/internal/app"
	"github.com/dshills/folio/internal/export/htmlexport"
	"github.com/dshills/folio/internal/plugin/markdown"
	"github.com/dshills/folio/internal/schema"
	"github.com/dshills/folio/internal/store"
)

var (
	bold  = color.New(color.Bold).SprintFunc()
	faint = color.New(color.Faint).SprintFunc()
	green = color.New(color.FgGreen).SprintFunc()
)

// readInput reads path, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

func addNew(topLevel *cobra.Command, g *globalOptions) {
	cmd := &cobra.Command{
		Use:   "new [markdown-file]",
		Short: "Create a document, optionally from markdown.",
		Example: `
folio new
folio new notes.md
cat notes.md | folio new -
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.load(cmd.Context(), false)
			if err != nil {
				return err
			}
			var md []byte
			if len(args) == 1 {
				if md, err = readInput(cmd, args[0]); err != nil {
					return err
				}
			}
			id, err := a.Create(cmd.Context(), string(md))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	topLevel.AddCommand(cmd)
}

func addList(topLevel *cobra.Command, g *globalOptions) {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored documents.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := g.load(cmd.Context(), false)
			if err != nil {
				return err
			}
			ids := a.Store.Documents(cmd.Context())
			if len(ids) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), faint("no documents"))
				return nil
			}
			tbl := uitable.New()
			tbl.Separator = "  "
			tbl.AddRow(bold("ID"), bold("BLOCKS"), bold("TITLE"))
			for _, id := range ids {
				doc, err := a.Store.LoadDocument(id)
				if err != nil {
					tbl.AddRow(id, "-", color.RedString(err.Error()))
					continue
				}
				tbl.AddRow(id, len(doc.Root.Children), title(doc))
			}
			fmt.Fprintln(cmd.OutOrStdout(), tbl)
			return nil
		},
	}
	topLevel.AddCommand(cmd)
}

// title returns the text of the first block that has any.
func title(doc schema.Document) string {
	var text func(r schema.Record) string
	text = func(r schema.Record) string {
		if s, ok := r.String("text"); ok {
			return s
		}
		var b strings.Builder
		for _, c := range r.Children {
			b.WriteString(text(c))
		}
		return b.String()
	}
	for _, block := range doc.Root.Children {
		if s := strings.TrimSpace(text(block)); s != "" {
			if len(s) > 40 {
				s = s[:40] + "..."
			}
			return s
		}
	}
	return faint("(empty)")
}

func addShow(topLevel *cobra.Command, g *globalOptions) {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a document.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.load(cmd.Context(), false)
			if err != nil {
				return err
			}
			sess, err := a.Open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer sess.Close()
			printOutline(cmd.OutOrStdout(), sess)
			return nil
		},
	}
	topLevel.AddCommand(cmd)
}

func addExport(topLevel *cobra.Command, g *globalOptions) {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a document as json, markdown or html.",
		Example: `
folio export 1b2c... --format markdown
folio export 1b2c... --format html -o doc.html
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.load(cmd.Context(), false)
			if err != nil {
				return err
			}
			sess, err := a.Open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer sess.Close()

			var out []byte
			switch strings.ToLower(format) {
			case "json":
				out, err = sess.MarshalDocument()
			case "markdown", "md":
				out = []byte(markdown.Export(sess.Snapshot()))
			case "html":
				var s string
				s, err = htmlexport.RenderString(sess.Snapshot())
				out = []byte(s + "\n")
			default:
				return fmt.Errorf("unknown format %q", format)
			}
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(out)
				return err
			}
			return os.WriteFile(output, out, 0o644)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format. One of json, markdown or html.")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout.")
	topLevel.AddCommand(cmd)
}

func addImport(topLevel *cobra.Command, g *globalOptions) {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Store a serialized document (.json) or markdown file as a new document.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.load(cmd.Context(), false)
			if err != nil {
				return err
			}
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			var id string
			if filepath.Ext(args[0]) == ".json" {
				id, err = importDocument(cmd, a, data)
			} else {
				id, err = a.Create(cmd.Context(), string(data))
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	topLevel.AddCommand(cmd)
}

// importDocument validates data against the registered node types before
// storing it.
func importDocument(cmd *cobra.Command, a *app.App, data []byte) (string, error) {
	doc, err := schema.Decode(data)
	if err != nil {
		return "", err
	}
	id := store.NewID()
	sess, err := a.NewSession(cmd.Context(), id, app.WithDocument(doc))
	if err != nil {
		return "", err
	}
	defer sess.Close()
	out, err := sess.Export()
	if err != nil {
		return "", err
	}
	if err := a.Store.SaveDocument(id, out); err != nil {
		return "", err
	}
	return id, nil
}

func addRun(topLevel *cobra.Command, g *globalOptions) {
	cmd := &cobra.Command{
		Use:   "run <id> <command> [json-payload]",
		Short: "Dispatch a command to a document and save the result.",
		Example: `
folio run 1b2c... INSERT_TEXT_COMMAND '"hello"'
folio run 1b2c... FORMAT_TEXT_COMMAND '"bold"'
folio run 1b2c... UNDO_COMMAND
`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.load(cmd.Context(), false)
			if err != nil {
				return err
			}
			sess, err := a.Open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer sess.Close()

			if !sess.Bus.Has(args[1]) {
				return fmt.Errorf("unknown command %s", args[1])
			}
			var payload []byte
			if len(args) == 3 {
				payload = []byte(args[2])
			}
			handled, err := sess.DispatchJSON(args[1], payload)
			if err != nil {
				return err
			}
			if err := sess.Settle(cmd.Context()); err != nil {
				return err
			}
			if handled {
				fmt.Fprintln(cmd.OutOrStdout(), green("handled"), args[1])
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), faint("not handled"), args[1])
			}
			printOutline(cmd.OutOrStdout(), sess)
			return nil
		},
	}
	topLevel.AddCommand(cmd)
}

func addDelete(topLevel *cobra.Command, g *globalOptions) {
	cmd := &cobra.Command{
		Use:     "delete <id>...",
		Aliases: []string{"rm"},
		Short:   "Delete documents.",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.load(cmd.Context(), false)
			if err != nil {
				return err
			}
			for _, id := range args {
				if err := a.Store.DeleteDocument(id); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), green("deleted"), id)
			}
			return nil
		},
	}
	topLevel.AddCommand(cmd)
}

func addVersion(topLevel *cobra.Command) {
	shortened := false
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the folio version.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			if shortened {
				fmt.Fprintln(cmd.OutOrStdout(), version)
				return
			}
			fmt.Fprintf(cmd.OutOrStdout(), "folio %s (commit %s, built %s)\n", version, commit, date)
		},
	}
	cmd.Flags().BoolVarP(&shortened, "short", "s", false, "Print just the version number.")
	topLevel.AddCommand(cmd)
}
