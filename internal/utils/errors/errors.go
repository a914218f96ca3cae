package errors

import (
	"context"
	ers "errors"
	"fmt"

	rpccode "google.golang.org/genproto/googleapis/rpc/code"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

//PlatebookError Error with code.
type PlatebookError interface {
	Code() rpccode.Code
	Error() string
}

//UnknownError Unknown error
type UnknownError struct {
	Msg string
}

func (e *UnknownError) Error() string {
	return e.Msg
}

//Code Code of the error.
func (e *UnknownError) Code() rpccode.Code {
	return rpccode.Code_INTERNAL
}

//MalformedRequestError Error for malformed request
type MalformedRequestError struct {
	Status rpccode.Code
	Msg    string
}

func (mr *MalformedRequestError) Error() string {
	return mr.Msg
}

//Code Code of the error.
func (mr *MalformedRequestError) Code() rpccode.Code {
	return rpccode.Code_INVALID_ARGUMENT
}

//NotFoundError Error for missing entity
type NotFoundError struct {
	Msg string
}

func (nf *NotFoundError) Error() string {
	return nf.Msg
}

//Code Code of the error.
func (nf *NotFoundError) Code() rpccode.Code {
	return rpccode.Code_NOT_FOUND
}

//LockedError Another run holds the lock.
type LockedError struct {
	Msg string
	Err error
}

func (le *LockedError) Error() string {
	return le.Msg
}

func (le *LockedError) Unwrap() error {
	return le.Err
}

//Code Code of the error.
func (le *LockedError) Code() rpccode.Code {
	return rpccode.Code_ABORTED
}

//ConfigError Invalid or missing configuration. Raised before anything touches the store.
type ConfigError struct {
	Msg string
	Err error
}

func (ce *ConfigError) Error() string {
	if ce.Err != nil {
		return fmt.Sprintf("%s: %v", ce.Msg, ce.Err)
	}
	return ce.Msg
}

func (ce *ConfigError) Unwrap() error {
	return ce.Err
}

//Code Code of the error.
func (ce *ConfigError) Code() rpccode.Code {
	return rpccode.Code_FAILED_PRECONDITION
}

//PhaseError I/O failure of a backfill phase. Batch is the 1-based index of the failing batch (0 outside of batch writes),
//Committed is the count of batches durably committed before the failure.
type PhaseError struct {
	Phase     string
	Batch     int
	Committed int
	Err       error
}

func (pe *PhaseError) Error() string {
	if pe.Batch > 0 {
		return fmt.Sprintf("phase %s failed at batch %d (%d batches committed): %v", pe.Phase, pe.Batch, pe.Committed, pe.Err)
	}
	return fmt.Sprintf("phase %s failed: %v", pe.Phase, pe.Err)
}

func (pe *PhaseError) Unwrap() error {
	return pe.Err
}

//Code Code of the error.
func (pe *PhaseError) Code() rpccode.Code {
	switch {
	case ers.Is(pe.Err, context.DeadlineExceeded), grpcCode(pe.Err) == codes.DeadlineExceeded:
		return rpccode.Code_DEADLINE_EXCEEDED
	case ers.Is(pe.Err, context.Canceled), grpcCode(pe.Err) == codes.Canceled:
		return rpccode.Code_CANCELLED
	default:
		return rpccode.Code_UNAVAILABLE
	}
}

// status.Code does not look into wrapped errors
func grpcCode(err error) codes.Code {
	for err != nil {
		if c := status.Code(err); c != codes.Unknown {
			return c
		}
		err = ers.Unwrap(err)
	}
	return codes.Unknown
}

//CodeOf Code of any error, INTERNAL for errors without one.
func CodeOf(err error) rpccode.Code {
	var pe PlatebookError
	if ers.As(err, &pe) {
		return pe.Code()
	}
	return rpccode.Code_INTERNAL
}
