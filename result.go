package portal

// ResultStatus is the lifecycle position of a submit attempt.
type ResultStatus int

const (
	ResultPending ResultStatus = iota
	ResultOK
	ResultErr
)

func (s ResultStatus) String() string {
	switch s {
	case ResultPending:
		return "pending"
	case ResultOK:
		return "ok"
	case ResultErr:
		return "error"
	default:
		return "unknown"
	}
}

// Result carries the outcome of a remote call. A pending result has neither a
// value nor an error.
type Result[T any] struct {
	Status ResultStatus
	Value  T
	Err    error
}

func Pending[T any]() Result[T] {
	return Result[T]{Status: ResultPending}
}

func OK[T any](value T) Result[T] {
	return Result[T]{Status: ResultOK, Value: value}
}

func Err[T any](err error) Result[T] {
	return Result[T]{Status: ResultErr, Err: err}
}

// Settle builds a settled result from a value, error pair.
func Settle[T any](value T, err error) Result[T] {
	if err != nil {
		return Err[T](err)
	}
	return OK(value)
}

// Match runs exactly one of the handlers. Every handler is required so that
// callers cannot forget a branch.
func (r Result[T]) Match(onPending func(), onOK func(T), onErr func(error)) {
	switch r.Status {
	case ResultOK:
		onOK(r.Value)
	case ResultErr:
		onErr(r.Err)
	default:
		onPending()
	}
}

func (r Result[T]) IsOK() bool {
	return r.Status == ResultOK
}
