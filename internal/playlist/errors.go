package playlist

// ErrorKind is the contract callers branch on; messages are advisory.
type ErrorKind int

const (
	KindNotFound ErrorKind = iota + 1
	KindForbidden
	KindConflict
	KindInvalid
	KindDependency
)

type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

func notFound(msg string) *Error   { return &Error{Kind: KindNotFound, Msg: msg} }
func forbidden(msg string) *Error  { return &Error{Kind: KindForbidden, Msg: msg} }
func conflict(msg string) *Error   { return &Error{Kind: KindConflict, Msg: msg} }
func invalid(msg string) *Error    { return &Error{Kind: KindInvalid, Msg: msg} }
func dependency(msg string) *Error { return &Error{Kind: KindDependency, Msg: msg} }
