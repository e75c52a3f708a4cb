package commands

import (
	"context"
	"fmt"
	"time"

	"git.home.luguber.info/inful/steptimer/internal/backup"
	"git.home.luguber.info/inful/steptimer/internal/store"
)

// ExportCmd implements 'export'.
type ExportCmd struct {
	Path string `arg:"" type:"path" help:"Backup file to write"`
}

func (c *ExportCmd) Run(g *Global) error {
	ctx := context.Background()
	return withStore(ctx, g, func(st *store.Store) error {
		if err := backup.Export(ctx, st, c.Path, time.Now()); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(g.out(), "Exported to %s\n", c.Path)
		return nil
	})
}

// ImportCmd implements 'import'.
type ImportCmd struct {
	Path string `arg:"" type:"existingfile" help:"Backup file to read"`
	Wipe bool   `help:"Delete everything before importing"`
}

func (c *ImportCmd) Run(g *Global) error {
	ctx := context.Background()
	return withStore(ctx, g, func(st *store.Store) error {
		res, err := backup.Import(ctx, st, c.Path, c.Wipe)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(g.out(), "Imported %d folders, %d timers, %d schedules and %d records\n",
			res.Folders, res.Timers, res.Schedulers, res.Stamps)
		return nil
	})
}
