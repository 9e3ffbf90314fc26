package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"addressbook/internal/application/orchestrators"
	"addressbook/internal/application/projections"
	"addressbook/internal/domain/contact"
	"addressbook/internal/domain/viewstate"
)

// printView prints the filtered view as numbered cards.
func printView(ctx context.Context, out io.Writer, app *App) error {
	res, err := projections.QueryGetContactList(ctx, projections.GetContactListQuery{}, projections.GetContactListDeps{Book: app.Book})
	if err != nil {
		return err
	}
	for _, row := range res.Rows {
		fmt.Fprintf(out, "%d. %s\n", row.Index, formatRow(row))
	}
	return nil
}

func formatRow(row projections.ContactRow) string {
	c := contact.Contact{
		Name: row.Name, Phone: row.Phone, Email: row.Email, Address: row.Address,
		Class: row.Class, Birthday: row.Birthday, Note: row.Note, Tags: row.Tags,
	}
	s := contact.Format(c)
	if row.Favourite {
		s += " ★"
	}
	return s
}

func newListCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the current list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := o.mustApp()
			if err := printView(cmd.Context(), cmd.OutOrStdout(), app); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), orchestrators.ListedMessage(app.Book.ViewState(), len(app.Book.FilteredView())))
			return nil
		},
	}
}

func runFilter(cmd *cobra.Command, o *rootOptions, state viewstate.State) error {
	app := o.mustApp()
	res, err := orchestrators.ExecuteFilterContacts(cmd.Context(), orchestrators.FilterContactsInput{State: state}, orchestrators.FilterContactsDeps{Book: app.Book})
	if err != nil {
		return err
	}
	if err := printView(cmd.Context(), cmd.OutOrStdout(), app); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Message)
	return nil
}

func newFindCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "find <keyword>...",
		Short: "Show contacts whose name contains any keyword as a whole word",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilter(cmd, o, viewstate.ByName(args...))
		},
	}
}

func newTagCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tag <tag>...",
		Short: "Show contacts carrying any of the tags",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilter(cmd, o, viewstate.ByTag(args...))
		},
	}
}

func newClearCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Show all contacts again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilter(cmd, o, viewstate.All())
		},
	}
}

func newAddCmd(o *rootOptions) *cobra.Command {
	var c contact.Contact
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a contact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, _, err := orchestrators.ExecuteAddContact(cmd.Context(), orchestrators.AddContactInput{Contact: c}, orchestrators.AddContactDeps{Book: o.mustApp().Book})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&c.Name, "name", "n", "", "full name (required)")
	f.StringVarP(&c.Phone, "phone", "p", "", "phone number (required)")
	f.StringVarP(&c.Email, "email", "e", "", "e-mail address (required)")
	f.StringVarP(&c.Address, "address", "a", "", "postal address")
	f.StringVar(&c.Class, "class", "", "class, e.g. K1A or Nursery")
	f.StringVarP(&c.Birthday, "birthday", "b", "", "birthday as DD-MM-YYYY")
	f.StringVar(&c.Note, "note", "", "free-form note (markdown)")
	f.StringSliceVarP(&c.Tags, "tag", "t", nil, "tag (repeatable)")
	f.BoolVar(&c.Favourite, "favourite", false, "mark as favourite")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("phone")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newSeedCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the sample contacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := orchestrators.ExecuteSeedContacts(cmd.Context(), orchestrators.SeedContactsDeps{Book: o.mustApp().Book})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %d sample contacts\n", n)
			return nil
		},
	}
}

func newLogCmd(o *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show recently deleted contacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := o.mustApp().DeletionLog.ListRecent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "Nothing deleted yet")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(out, "%s  %s  (%s %s)\n",
					e.DeletedAt.Local().Format("2006-01-02 15:04:05"), e.ContactName, e.RequestKind, strings.TrimSpace(e.Query))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "how many entries to show")
	return cmd
}
