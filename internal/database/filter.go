package database

// PageSize is the fixed number of rows per listing page.
const PageSize = 20

// Filter accumulates WHERE predicates together with their bound arguments.
// The count query and the page query for a listing share one Filter value,
// so the displayed total always agrees with the rendered rows.
type Filter struct {
	conds []string
	args  []any
}

// Substring adds a case-insensitive wildcard match of term against any of
// the given columns. Empty terms are ignored.
func (f *Filter) Substring(term string, columns ...string) {
	if term == "" || len(columns) == 0 {
		return
	}

	cond := "("
	for i, col := range columns {
		if i > 0 {
			cond += " OR "
		}
		cond += col + " LIKE ?"
		f.args = append(f.args, "%"+term+"%")
	}
	cond += ")"
	f.conds = append(f.conds, cond)
}

// Equals adds an exact-match predicate. Empty values are ignored.
func (f *Filter) Equals(column, value string) {
	if value == "" {
		return
	}
	f.conds = append(f.conds, column+" = ?")
	f.args = append(f.args, value)
}

// Where returns the conjunction of all predicates as a WHERE clause, or the
// empty string when no predicate is active.
func (f *Filter) Where() string {
	if len(f.conds) == 0 {
		return ""
	}
	clause := "WHERE " + f.conds[0]
	for _, c := range f.conds[1:] {
		clause += " AND " + c
	}
	return clause
}

// Args returns the bound arguments in predicate order.
func (f *Filter) Args() []any {
	return f.args
}

// Page is a 1-based page request. Out-of-range pages are valid and simply
// yield empty result sets.
type Page struct {
	Number int
	Size   int
}

// NewPage clamps the requested page number to a minimum of 1.
func NewPage(number int) Page {
	if number < 1 {
		number = 1
	}
	return Page{Number: number, Size: PageSize}
}

// Limit returns the LIMIT value for the page.
func (p Page) Limit() int { return p.Size }

// Offset returns the OFFSET value for the page.
func (p Page) Offset() int { return (p.Number - 1) * p.Size }

// TotalPages returns ceil(total/size), with 0 for an empty result set.
func TotalPages(total int64, size int) int {
	if size <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}
