package web_search

// Error is a configuration error raised while building a searcher.
type Error struct {
	msg string
}

func (e *Error) Error() string { return "web_search: " + e.msg }
