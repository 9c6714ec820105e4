package crawler

import "fmt"

// FetchError reports a transport-level failure for one URL: timeout,
// connection failure or an unreadable response.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ExtractError reports a document that could not be parsed into fields.
type ExtractError struct {
	URL string
	Err error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.URL, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }

// panicError carries a value recovered while processing a single item.
type panicError struct {
	value any
}

func (e panicError) Error() string {
	return fmt.Sprintf("panic while processing item: %v", e.value)
}
