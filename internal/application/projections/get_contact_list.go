package projections

import (
	"context"

	"addressbook/internal/application/listutil"
	"addressbook/internal/domain/contact"
	"addressbook/internal/domain/viewstate"
)

// BookForList is the read side of the record store.
type BookForList interface {
	FilteredView() []contact.Contact
	ViewState() viewstate.State
	Size() int
}

// GetContactListQuery carries query parameters.
type GetContactListQuery struct {
	Page listutil.PageParams // zero value shows the whole view on one page
}

// ContactRow is one card of the list view.
type ContactRow struct {
	Index     int // 1-based position in the filtered view, the number `delete` accepts
	ID        string
	Name      string
	Phone     string
	Email     string
	Address   string
	Class     string
	Birthday  string
	Note      string
	Tags      []string
	Favourite bool
}

// GetContactListResult carries the query result.
type GetContactListResult struct {
	Rows       []ContactRow
	View       string // e.g. "name: meier"
	Visible    int
	Total      int
	Pagination listutil.PageInfo
}

// GetContactListDeps holds dependencies for GetContactList.
type GetContactListDeps struct {
	Book BookForList
}

// QueryGetContactList numbers the filtered view for display.
// PRE: none
// POST: Row.Index matches the positional index a deletion request would resolve
// INVARIANT: rows keep filtered-view order; pagination never renumbers
func QueryGetContactList(_ context.Context, query GetContactListQuery, deps GetContactListDeps) (GetContactListResult, error) {
	view := deps.Book.FilteredView()
	state := deps.Book.ViewState()

	perPage := query.Page.PerPage
	if perPage == 0 {
		perPage = max(len(view), 1)
	}
	info := listutil.NewPageInfo(query.Page.Page, perPage, len(view))
	lo, hi := info.Bounds()

	rows := make([]ContactRow, 0, hi-lo)
	for i := lo; i < hi; i++ {
		rows = append(rows, NewContactRow(i+1, view[i]))
	}
	return GetContactListResult{
		Rows:       rows,
		View:       state.Describe(),
		Visible:    len(view),
		Total:      deps.Book.Size(),
		Pagination: info,
	}, nil
}

// NewContactRow builds the display row for the contact at 1-based index.
func NewContactRow(index int, c contact.Contact) ContactRow {
	return ContactRow{
		Index:     index,
		ID:        c.ID,
		Name:      c.Name,
		Phone:     c.Phone,
		Email:     c.Email,
		Address:   c.Address,
		Class:     c.Class,
		Birthday:  c.Birthday,
		Note:      c.Note,
		Tags:      c.SortedTags(),
		Favourite: c.Favourite,
	}
}
