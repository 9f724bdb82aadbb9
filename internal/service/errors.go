package service

import "fmt"

// ValidationError is returned for input the caller can fix.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NotFoundError covers both absent entities and entities owned by someone
// else; the two are not distinguished to the caller.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ConfigurationError means the server lacks the credentials for a platform
// or an optional integration.
type ConfigurationError struct {
	Platform string
	Message  string
}

func (e *ConfigurationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("Invalid or missing app ID for %s", e.Platform)
}

// OAuthExchangeError wraps any failure of the connect callback.
type OAuthExchangeError struct {
	Platform string
	Step     string
	Err      error
}

func (e *OAuthExchangeError) Error() string {
	return fmt.Sprintf("%s oauth %s failed: %v", e.Platform, e.Step, e.Err)
}

func (e *OAuthExchangeError) Unwrap() error { return e.Err }

// StoreError wraps a persistence failure. Its text is logged, never returned
// to clients.
type StoreError struct {
	Op  string
	ID  int64
	Err error
}

func (e *StoreError) Error() string {
	if e.ID != 0 {
		return fmt.Sprintf("%s %d: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func storeError(op string, id int64, err error) error {
	return &StoreError{Op: op, ID: id, Err: err}
}
