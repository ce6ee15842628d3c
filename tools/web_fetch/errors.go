package web_fetch

type Error struct {
	msg string
}

func (e *Error) Error() string {
	return "web_fetch: " + e.msg
}
