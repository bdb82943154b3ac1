package domain

// PageKindClause is the clause guaranteed to be present in every
// normalised query. The source service interprets it as "only return
// page content".
const PageKindClause = "type = page"

// Query is a content query after normalisation.
// Normalised always semantically implies "content kind = page".
type Query struct {
	// Raw is the query string as supplied by the caller.
	Raw string

	// Normalised is the query string with the page-kind constraint
	// guaranteed present.
	Normalised string

	// Limit is the maximum number of identifiers to retrieve. Always > 0.
	Limit int

	// Warning is a non-empty policy note when the raw query constrained
	// the content kind to something other than page. Both constraints are
	// kept; zero results are then a valid outcome, not an error.
	Warning string
}
