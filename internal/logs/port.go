package logs

// Logger records domain activity. Callers treat a failed write as
// non-fatal.
type Logger interface {
	Log(entry SystemLog, metadata interface{}) error
}

var _ Logger = (*LogService)(nil)
