package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"addressbook/internal/application/orchestrators"
	"addressbook/internal/domain/outbox"
)

const receiptListLimit = 50

func newReceiptsCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "receipts",
		Short: "Inspect and retry deletion receipts that could not be sent",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "Show queued and failed receipts",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				app := o.mustApp()
				pending, err := app.Outbox.ListPending(cmd.Context(), receiptListLimit, 0)
				if err != nil {
					return err
				}
				failed, err := app.Outbox.ListFailed(cmd.Context(), receiptListLimit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(pending)+len(failed) == 0 {
					fmt.Fprintln(out, "No receipts waiting")
					return nil
				}
				printEntries(out, pending)
				printEntries(out, failed)
				return nil
			},
		},
		&cobra.Command{
			Use:   "retry",
			Short: "Send every queued receipt whose backoff has elapsed",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				app := o.mustApp()
				if app.Receipts == nil {
					return errors.New("receipts are disabled; set receipts.enabled or ADDRESSBOOK_RECEIPTS_TO")
				}
				stats, err := orchestrators.NewReceiptProcessor(app.Outbox, app.Receipts).ProcessPending(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Sent %d, failed %d, waiting %d\n", stats.Sent, stats.Failed, stats.Waiting)
				return nil
			},
		},
	)
	return cmd
}

func printEntries(out io.Writer, entries []outbox.Entry) {
	for _, e := range entries {
		fmt.Fprintf(out, "%-8s %d/%d  %s  %s\n", e.Status, e.Attempts, e.MaxAttempts, e.Message.Subject, e.ErrorMessage)
	}
}
