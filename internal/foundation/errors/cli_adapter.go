package errors

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Exit codes of the steptimer command.
const (
	ExitGeneral     = 1
	ExitUsage       = 2
	ExitMissing     = 3
	ExitConfig      = 7
	ExitNetwork     = 8
	ExitInternal    = 10
	ExitPersistence = 11
	ExitRuntime     = 12
)

// CLIErrorAdapter prints errors for the command line and picks exit codes.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	out     io.Writer
	exit    func(int)
}

// NewCLIErrorAdapter returns an adapter writing to stderr. Verbose prints full error chains.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{verbose: verbose, logger: logger, out: os.Stderr, exit: os.Exit}
}

// ExitCodeFor maps err's category to an exit code.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	c, ok := AsClassified(err)
	if !ok {
		return ExitGeneral
	}
	switch c.Category() {
	case CategoryValidation:
		return ExitUsage
	case CategoryNotFound, CategoryAlreadyExists:
		return ExitMissing
	case CategoryConfig:
		return ExitConfig
	case CategoryNetwork:
		return ExitNetwork
	case CategoryStore, CategoryEventStore, CategoryFileSystem:
		return ExitPersistence
	case CategoryDaemon, CategoryRuntime, CategoryScheduler:
		return ExitRuntime
	case CategoryInternal:
		return ExitInternal
	default:
		return ExitGeneral
	}
}

// FormatError renders err for a terminal.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	c, ok := AsClassified(err)
	switch {
	case !ok:
		return fmt.Sprintf("Error: %v", err)
	case a.verbose:
		return c.Error()
	case c.Category() == CategoryInternal || c.Category() == CategoryRuntime:
		return "Internal error occurred (use -v for details)"
	default:
		return fmt.Sprintf("Error: %s", c.Message())
	}
}

// HandleError prints err and exits with its code. Fatal and unclassified errors are also
// logged, as is everything in verbose mode.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}
	c, classified := AsClassified(err)
	if a.verbose || !classified || c.IsFatal() {
		attrs := []any{slog.String("error", err.Error())}
		if classified {
			attrs = append(attrs, slog.String("category", string(c.Category())))
		}
		a.logger.Error("Command failed", attrs...)
	}
	_, _ = fmt.Fprintln(a.out, a.FormatError(err))
	a.exit(a.ExitCodeFor(err))
}
