package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"addressbook/internal/adapters/tui"
	"addressbook/internal/application/orchestrators"
	"addressbook/internal/domain/deletion"
)

func newDeleteCmd(o *rootOptions) *cobra.Command {
	var (
		yes  bool
		pick int
	)
	cmd := &cobra.Command{
		Use:   "delete <index | name...>",
		Short: "Delete a contact by its number in the current list or by its exact name",
		Long: `Delete a contact.

A single whole-number argument is an index into the list printed last.
Anything else is a name, matched exactly but without regard to case.
When several contacts share the name you are asked which one to delete.`,
		Example: `  addressbook delete 2
  addressbook delete george best --pick 2
  addressbook delete "Alice Pauline" --yes`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := o.mustApp()
			req, err := deletion.ParseRequest(args)
			if err != nil {
				return err
			}
			res, err := orchestrators.ExecuteDeleteContact(cmd.Context(), orchestrators.DeleteContactInput{Request: req}, orchestrators.DeleteContactDeps{
				Book: app.Book,
				Confirmer: tui.TerminalConfirmer{
					In:        cmd.InOrStdin(),
					Out:       cmd.ErrOrStderr(),
					AssumeYes: yes,
					Pick:      pick,
				},
				Notifier:    tui.TerminalNotifier{Out: cmd.ErrOrStderr()},
				DeletionLog: app.DeletionLog,
			})
			if errors.Is(err, deletion.ErrNoMatchesFound) {
				return reportedError{err: err}
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			app.AfterDelete(cmd.Context(), res)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask before deleting a single match")
	cmd.Flags().IntVar(&pick, "pick", 0, "when several contacts match, delete the N-th of them")
	return cmd
}
