package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/steptimer/internal/foundation/errors"
	"git.home.luguber.info/inful/steptimer/internal/store"
	"git.home.luguber.info/inful/steptimer/internal/timer"
)

// TimerCmd groups the timer subcommands.
type TimerCmd struct {
	Add  TimerAddCmd  `cmd:"" help:"Add a timer from a YAML or JSON definition file"`
	List TimerListCmd `cmd:"" help:"List timers"`
	Show TimerShowCmd `cmd:"" help:"Print a timer definition"`
	Mv   TimerMvCmd   `cmd:"" help:"Move a timer to another folder"`
	Rm   TimerRmCmd   `cmd:"" help:"Move a timer to the trash, or delete it with --purge"`
}

// TimerAddCmd implements 'timer add'.
type TimerAddCmd struct {
	File   string `arg:"" type:"existingfile" help:"Definition file"`
	Folder int64  `help:"Folder to add the timer to (defaults to the file's folderId or the default folder)"`
}

func (c *TimerAddCmd) Run(g *Global) error {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return errors.FileSystemError("failed to read timer definition").
			WithCause(err).WithContext("path", c.File).Build()
	}
	t, err := timer.ParseDefinition(data)
	if err != nil {
		return err
	}
	t.ID = timer.NullID
	if c.Folder != 0 {
		t.FolderID = c.Folder
	}

	ctx := context.Background()
	return withStore(ctx, g, func(st *store.Store) error {
		if _, err := st.GetFolder(ctx, t.FolderID); err != nil {
			return err
		}
		id, err := st.AddTimer(ctx, t)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(g.out(), "Added timer %d (%s)\n", id, t.Name)
		return nil
	})
}

// TimerListCmd implements 'timer list'.
type TimerListCmd struct {
	Folder int64 `help:"Only list timers in this folder"`
}

func (c *TimerListCmd) Run(g *Global) error {
	ctx := context.Background()
	return withStore(ctx, g, func(st *store.Store) error {
		infos, err := st.ListTimers(ctx, c.Folder)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(g.out(), 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "ID\tNAME\tFOLDER")
		for _, info := range infos {
			_, _ = fmt.Fprintf(w, "%d\t%s\t%d\n", info.ID, info.Name, info.FolderID)
		}
		return w.Flush()
	})
}

// TimerShowCmd implements 'timer show'.
type TimerShowCmd struct {
	ID     string `arg:"" help:"Timer id"`
	Format string `short:"f" enum:"yaml,json" default:"yaml" help:"Output format (yaml, json)"`
}

func (c *TimerShowCmd) Run(g *Global) error {
	id, err := parseID(c.ID, "timer")
	if err != nil {
		return err
	}
	ctx := context.Background()
	return withStore(ctx, g, func(st *store.Store) error {
		t, err := st.GetTimer(ctx, id)
		if err != nil {
			return err
		}
		doc := timer.Encode(t)
		if c.Format == "json" {
			enc := json.NewEncoder(g.out())
			enc.SetIndent("", "  ")
			return enc.Encode(doc)
		}
		enc := yaml.NewEncoder(g.out())
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return errors.InternalError("failed to encode timer").WithCause(err).Build()
		}
		return enc.Close()
	})
}

// TimerMvCmd implements 'timer mv'.
type TimerMvCmd struct {
	ID     string `arg:"" help:"Timer id"`
	Folder int64  `arg:"" help:"Destination folder id"`
}

func (c *TimerMvCmd) Run(g *Global) error {
	id, err := parseID(c.ID, "timer")
	if err != nil {
		return err
	}
	ctx := context.Background()
	return withStore(ctx, g, func(st *store.Store) error {
		if err := st.ChangeFolder(ctx, id, c.Folder); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(g.out(), "Moved timer %d to folder %d\n", id, c.Folder)
		return nil
	})
}

// TimerRmCmd implements 'timer rm'.
type TimerRmCmd struct {
	ID    string `arg:"" help:"Timer id"`
	Purge bool   `help:"Delete the timer and its schedules instead of moving it to the trash"`
}

func (c *TimerRmCmd) Run(g *Global) error {
	id, err := parseID(c.ID, "timer")
	if err != nil {
		return err
	}
	ctx := context.Background()
	return withStore(ctx, g, func(st *store.Store) error {
		if c.Purge {
			if err := st.DeleteTimer(ctx, id); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(g.out(), "Deleted timer %d\n", id)
			return nil
		}
		if err := st.ChangeFolder(ctx, id, timer.TrashFolderID); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(g.out(), "Moved timer %d to the trash\n", id)
		return nil
	})
}
