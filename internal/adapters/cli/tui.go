package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"addressbook/internal/adapters/tui"
	"addressbook/internal/application/orchestrators"
	"addressbook/internal/domain/deletion"
	"addressbook/internal/domain/viewstate"
)

const noteWidth = 60

func newTUICmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse, filter and delete contacts in a full-screen view",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := o.mustApp()
			bridge := tui.NewBridge()

			cfg := tui.Config{
				Book:   app.Book,
				Bridge: bridge,
				Delete: func(ctx context.Context, req deletion.Request) (string, error) {
					res, err := orchestrators.ExecuteDeleteContact(ctx, orchestrators.DeleteContactInput{Request: req}, orchestrators.DeleteContactDeps{
						Book:        app.Book,
						Confirmer:   bridge,
						Notifier:    bridge,
						DeletionLog: app.DeletionLog,
					})
					if err != nil {
						return "", err
					}
					app.AfterDelete(ctx, res)
					return res.Message, nil
				},
				Filter: func(ctx context.Context, state viewstate.State) (string, error) {
					res, err := orchestrators.ExecuteFilterContacts(ctx, orchestrators.FilterContactsInput{State: state}, orchestrators.FilterContactsDeps{Book: app.Book})
					return res.Message, err
				},
			}
			if r, err := tui.NewNoteRenderer(noteWidth); err == nil {
				cfg.Notes = r
			} else {
				app.Logger.Debug("note renderer unavailable, showing raw notes")
			}

			return tui.Run(cmd.Context(), cfg,
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
			)
		},
	}
}
