package effect

import (
	"errors"
	"fmt"
)

// AdapterError membungkus kegagalan pemanggilan layanan eksternal.
// Transient boleh di-retry dengan backoff; Permanent menghentikan retry
// otomatis untuk record tersebut dan butuh operator.
type AdapterError struct {
	Permanent bool
	Err       error
}

func (e *AdapterError) Error() string {
	if e.Permanent {
		return fmt.Sprintf("permanent adapter failure: %v", e.Err)
	}
	return fmt.Sprintf("transient adapter failure: %v", e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &AdapterError{Permanent: false, Err: err}
}

func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &AdapterError{Permanent: true, Err: err}
}

func IsPermanent(err error) bool {
	var adapterErr *AdapterError
	if errors.As(err, &adapterErr) {
		return adapterErr.Permanent
	}
	return false
}
