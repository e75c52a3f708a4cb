package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"git.home.luguber.info/inful/steptimer/internal/store"
)

// FolderCmd groups the folder subcommands.
type FolderCmd struct {
	Add    FolderAddCmd    `cmd:"" help:"Create a folder"`
	List   FolderListCmd   `cmd:"" help:"List folders"`
	Rename FolderRenameCmd `cmd:"" help:"Rename a folder"`
	Rm     FolderRmCmd     `cmd:"" help:"Delete a folder; its timers move to the trash"`
}

// FolderAddCmd implements 'folder add'.
type FolderAddCmd struct {
	Name string `arg:"" help:"Folder name"`
}

func (c *FolderAddCmd) Run(g *Global) error {
	ctx := context.Background()
	return withStore(ctx, g, func(st *store.Store) error {
		id, err := st.AddFolder(ctx, c.Name)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(g.out(), "Added folder %d (%s)\n", id, c.Name)
		return nil
	})
}

// FolderListCmd implements 'folder list'.
type FolderListCmd struct{}

func (c *FolderListCmd) Run(g *Global) error {
	ctx := context.Background()
	return withStore(ctx, g, func(st *store.Store) error {
		folders, err := st.Folders(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(g.out(), 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "ID\tNAME")
		for _, f := range folders {
			_, _ = fmt.Fprintf(w, "%d\t%s\n", f.ID, f.Name)
		}
		return w.Flush()
	})
}

// FolderRenameCmd implements 'folder rename'.
type FolderRenameCmd struct {
	ID   string `arg:"" help:"Folder id"`
	Name string `arg:"" help:"New name"`
}

func (c *FolderRenameCmd) Run(g *Global) error {
	id, err := parseID(c.ID, "folder")
	if err != nil {
		return err
	}
	ctx := context.Background()
	return withStore(ctx, g, func(st *store.Store) error {
		return st.RenameFolder(ctx, id, c.Name)
	})
}

// FolderRmCmd implements 'folder rm'.
type FolderRmCmd struct {
	ID string `arg:"" help:"Folder id"`
}

func (c *FolderRmCmd) Run(g *Global) error {
	id, err := parseID(c.ID, "folder")
	if err != nil {
		return err
	}
	ctx := context.Background()
	return withStore(ctx, g, func(st *store.Store) error {
		if err := st.DeleteFolder(ctx, id); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(g.out(), "Deleted folder %d\n", id)
		return nil
	})
}
