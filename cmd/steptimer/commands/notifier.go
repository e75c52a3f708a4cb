package commands

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/steptimer/internal/foundation/errors"
	"git.home.luguber.info/inful/steptimer/internal/store"
	"git.home.luguber.info/inful/steptimer/internal/timer"
)

// NotifierCmd groups the notifier subcommands.
type NotifierCmd struct {
	Show  NotifierShowCmd  `cmd:"" help:"Print the notifier step"`
	Set   NotifierSetCmd   `cmd:"" help:"Replace the notifier step from a YAML or JSON file"`
	Clear NotifierClearCmd `cmd:"" help:"Remove the notifier step"`
}

// NotifierShowCmd implements 'notifier show'.
type NotifierShowCmd struct{}

func (c *NotifierShowCmd) Run(g *Global) error {
	ctx := context.Background()
	return withStore(ctx, g, func(st *store.Store) error {
		step, err := st.Notifier(ctx)
		if err != nil {
			return err
		}
		if step == nil {
			_, _ = fmt.Fprintln(g.out(), "No notifier")
			return nil
		}
		data, err := yaml.Marshal(timer.EncodeStep(*step))
		if err != nil {
			return errors.InternalError("failed to encode notifier").WithCause(err).Build()
		}
		_, err = g.out().Write(data)
		return err
	})
}

// NotifierSetCmd implements 'notifier set'.
type NotifierSetCmd struct {
	File string `arg:"" type:"existingfile" help:"Step definition file"`
}

func (c *NotifierSetCmd) Run(g *Global) error {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return errors.FileSystemError("failed to read notifier definition").
			WithCause(err).WithContext("path", c.File).Build()
	}
	var doc timer.ElementDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return errors.ValidationError("malformed notifier definition").WithCause(err).Build()
	}
	step, err := doc.Step()
	if err != nil {
		return err
	}
	step.Type = timer.StepNotifier

	ctx := context.Background()
	return withStore(ctx, g, func(st *store.Store) error {
		if err := st.SetNotifier(ctx, &step); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(g.out(), "Notifier set (%s)\n", step.Length)
		return nil
	})
}

// NotifierClearCmd implements 'notifier clear'.
type NotifierClearCmd struct{}

func (c *NotifierClearCmd) Run(g *Global) error {
	ctx := context.Background()
	return withStore(ctx, g, func(st *store.Store) error {
		return st.SetNotifier(ctx, nil)
	})
}
