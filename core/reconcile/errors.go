package reconcile

import "github.com/rotisserie/eris"

var (
	// ErrAuthenticationRequired is returned when no acting principal is available
	// for an operation that mutates owned state.
	ErrAuthenticationRequired = eris.New("authentication required")

	// ErrStoreWriteFailed matches any failed operation against the backing store.
	ErrStoreWriteFailed = eris.New("store write failed")

	// ErrAssetFetchFailed matches failures to retrieve asset content.
	// It is retryable and never aborts the owning record.
	ErrAssetFetchFailed = eris.New("asset fetch failed")

	// ErrInvalidRunTransition is returned when finishing or failing a run that is
	// no longer running.
	ErrInvalidRunTransition = eris.New("invalid run state transition")

	// ErrConcurrentUpdate is returned by stores when a conditional write loses a race.
	ErrConcurrentUpdate = eris.New("concurrent update detected")

	// ErrNotOwner is returned when a principal tries to write a record another
	// principal owns.
	ErrNotOwner = eris.New("record is owned by another principal")

	// ErrInvalidRecord is returned when a record cannot be normalized into something
	// addressable (e.g. it has no identity key).
	ErrInvalidRecord = eris.New("invalid record")
)

// kindError tags a cause with one of the sentinels above while keeping the cause
// reachable through Unwrap.
type kindError struct {
	kind error
	op   string
	err  error
}

func (e *kindError) Error() string { return e.op + ": " + e.err.Error() }

func (e *kindError) Unwrap() error { return e.err }

func (e *kindError) Is(target error) bool { return target == e.kind }

// StoreFailure marks err as a failed store operation. The result matches
// ErrStoreWriteFailed and still matches whatever err matched.
func StoreFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: ErrStoreWriteFailed, op: op, err: err}
}

// FetchFailure marks err as a failed asset fetch for ref.
func FetchFailure(ref string, err error) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: ErrAssetFetchFailed, op: "fetch " + ref, err: err}
}
