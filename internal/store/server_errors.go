package store

import "errors"

// Sentinel errors returned by repository methods. Callers match them with
// errors.Is.
var (
	// ErrRecordNotFound is returned when an operation targets a record id
	// that does not exist in the collection.
	ErrRecordNotFound = errors.New("record not found")

	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a query against the
	// database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrScanningRow is returned when scanning column values from a result
	// row fails.
	ErrScanningRow = errors.New("failed to scan record row")
)
