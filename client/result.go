package client

// Status classifies the outcome of a write.
type Status int

const (
	// StatusFailed means the statement reached the database and failed.
	StatusFailed Status = iota
	// StatusOK means the statement ran and was committed.
	StatusOK
	// StatusInvalid means the input was rejected before any SQL ran.
	StatusInvalid
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusFailed:
		return "failed"
	case StatusInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Result is the outcome of a write. Writes never return errors directly;
// callers branch on Status (or OK) and may inspect Err for details.
type Result struct {
	Status Status
	// RowsAffected is the number of rows the statement touched, or -1 when
	// it did not run successfully.
	RowsAffected int64
	Err          error
}

// OK reports whether the write succeeded.
func (r Result) OK() bool {
	return r.Status == StatusOK
}

func succeeded(n int64) Result {
	return Result{Status: StatusOK, RowsAffected: n}
}

func invalid(err error) Result {
	return Result{Status: StatusInvalid, RowsAffected: -1, Err: err}
}

func failed(err error) Result {
	return Result{Status: StatusFailed, RowsAffected: -1, Err: err}
}
