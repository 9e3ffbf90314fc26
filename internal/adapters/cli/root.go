// Package cli is the addressbook command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"addressbook/internal/config"
	"addressbook/internal/logging"
)

// Version is reported by --version.
var Version = "dev"

// reportedError marks a failure the user has already been shown.
type reportedError struct{ err error }

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

type rootOptions struct {
	configPath string
	app        *App
	startedAt  time.Time
}

// mustApp returns the opened address book; only valid inside RunE.
func (o *rootOptions) mustApp() *App {
	if o.app == nil {
		panic("cli: command ran without an opened address book")
	}
	return o.app
}

// NewRootCmd builds the command tree.
func NewRootCmd() (*cobra.Command, func()) {
	o := &rootOptions{}
	root := &cobra.Command{
		Use:   "addressbook",
		Short: "A contact list with confirmed, index- or name-based deletion",
		Long: `addressbook keeps contacts in a local SQLite database.

Indices always refer to the list printed last: after "find" or "tag",
"delete 2" removes the second contact of the filtered list.`,
		Version:       Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(o.configPath)
			if err != nil {
				return err
			}
			level := cfg.Log.Level
			if level == "" && cmd.Name() != "serve" {
				level = "warn"
			}
			logger, err := logging.New(cfg.Env, level)
			if err != nil {
				return err
			}
			logger = logger.With(zap.String("correlation_id", uuid.NewString()))

			ctx := logging.WithLogger(cmd.Context(), logger)
			app, err := OpenApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			o.app = app
			o.startedAt = time.Now()
			cmd.SetContext(ctx)
			logger.Debug("command_start", zap.String("command", cmd.CommandPath()))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if o.app == nil {
				return
			}
			o.app.Logger.Debug("command_end",
				zap.String("command", cmd.CommandPath()),
				zap.Int64("duration_ms", time.Since(o.startedAt).Milliseconds()),
			)
		},
	}
	root.PersistentFlags().StringVarP(&o.configPath, "config", "c", "", "config file path (YAML)")

	root.AddGroup(
		&cobra.Group{ID: "contacts", Title: "Contacts:"},
		&cobra.Group{ID: "surfaces", Title: "Interactive:"},
	)
	for _, c := range []*cobra.Command{
		newListCmd(o), newAddCmd(o), newFindCmd(o), newTagCmd(o), newClearCmd(o),
		newDeleteCmd(o), newSeedCmd(o), newLogCmd(o), newReceiptsCmd(o),
	} {
		c.GroupID = "contacts"
		root.AddCommand(c)
	}
	for _, c := range []*cobra.Command{newTUICmd(o), newServeCmd(o)} {
		c.GroupID = "surfaces"
		root.AddCommand(c)
	}

	cleanup := func() {
		if o.app != nil {
			_ = o.app.Logger.Sync()
			_ = o.app.Close()
			o.app = nil
		}
	}
	return root, cleanup
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	root, cleanup := NewRootCmd()
	defer cleanup()

	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var reported reportedError
	if !errors.As(err, &reported) {
		fmt.Fprintln(errOut, err)
	}
	return 1
}
