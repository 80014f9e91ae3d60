package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formcollection/pkg/config"
	"github.com/goliatone/go-formcollection/pkg/prompt"
)

func newResyncCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "resync <file>",
		Short: "Renumber names, ordinal labels and ordinal values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Opening the editor resyncs.
			doc, editor, err := app.openEditor(cmd, args[0])
			if err != nil {
				return err
			}
			app.logger(cmd).Debug("resynced", "collection", editor.Schema().Name, "items", editor.Len())
			return app.writeDocument(cmd, doc)
		},
	}
}

func newAddCmd(app *App) *cobra.Command {
	count := 1
	cmd := &cobra.Command{
		Use:   "add <file>",
		Short: "Append blank items to the collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return fmt.Errorf("cli: --count must be at least 1, got %d", count)
			}
			doc, editor, err := app.openEditor(cmd, args[0])
			if err != nil {
				return err
			}
			for i := 0; i < count; i++ {
				if editor.Add() == nil {
					return fmt.Errorf("cli: could not add item %d to %s", i+1, editor.Schema().Name)
				}
			}
			return app.writeDocument(cmd, doc)
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "Number of items to append")
	return cmd
}

func newRemoveCmd(app *App) *cobra.Command {
	index := -1
	cmd := &cobra.Command{
		Use:   "remove <file>",
		Short: "Remove the item at --index and renumber the rest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, editor, err := app.openEditor(cmd, args[0])
			if err != nil {
				return err
			}
			if !editor.RemoveAt(index) {
				return fmt.Errorf("cli: index %d out of range for %s (%d items)", index, editor.Schema().Name, editor.Len())
			}
			return app.writeDocument(cmd, doc)
		},
	}
	cmd.Flags().IntVarP(&index, "index", "i", -1, "Zero-based index of the item to remove")
	_ = cmd.MarkFlagRequired("index")
	return cmd
}

func newEditCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <file>",
		Short: "Add, edit and remove items interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, editor, err := app.openEditor(cmd, args[0])
			if err != nil {
				return err
			}
			session := prompt.NewSession(editor, app.newDriver(cmd.ErrOrStderr()))
			if err := session.Run(cmd.Context()); err != nil {
				return err
			}
			return app.writeDocument(cmd, doc)
		},
	}
}

func newCollectionsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "collections",
		Short: "List the collection definitions available to --collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store := config.Default()
			if app.ConfigDir != "" {
				extra, err := config.LoadFS(os.DirFS(app.ConfigDir))
				if err != nil {
					return err
				}
				store.Merge(extra)
			}
			out := cmd.OutOrStdout()
			for _, name := range store.Names() {
				schema, err := store.Collection(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s\t#%s\t%d fields\t%s\n", name, schema.ContainerID, len(schema.Fields), store.Source(name))
			}
			return nil
		},
	}
}
