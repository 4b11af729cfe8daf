package store

import (
	"context"
	"fmt"
	"github.com/redis/go-redis/v9"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// IStore is a single, independent key-value store able to run atomic scripts.
// A store is owned by the caller. Lock code only issues independent operations
// against it and never closes it.
type IStore interface {
	// Name returns a stable identifier used in logs, metrics and errors.
	Name() string
	// EvalInt runs the script atomically and returns its integer reply.
	// A script returning nil (lua false) yields 0.
	EvalInt(ctx context.Context, script *Script, keys []string, args ...interface{}) (int64, error)
	// IsConnected reports the last known connection state without a network round trip.
	IsConnected() bool
	// Close releases the underlying connection(s).
	Close() error
}

// --------------------------------------------------------------------------
// Scripts
// --------------------------------------------------------------------------

// Script is a named lua script. The sha1 of the source is computed once so
// stores can use EVALSHA and only fall back to EVAL on a cache miss.
type Script struct {
	name   string
	script *redis.Script
}

// NewScript creates a new named script from lua source
func NewScript(name, src string) *Script {
	return &Script{
		name:   name,
		script: redis.NewScript(src),
	}
}

// Name returns the name of the script
func (s *Script) Name() string {
	return s.name
}

// Redis returns the go-redis representation of the script
func (s *Script) Redis() *redis.Script {
	return s.script
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code  RetCode // The return code
	Store string  // Name of the store that produced the error
	Msg   string  // The error message.
	Err   error   // The underlying driver error (may be nil)
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("StoreError (code %s, store %s): %s", e.Code, e.Store, e.Msg)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying driver error
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new StoreError with the given code and message.
func NewError(code RetCode, storeName, msg string, err error) *Error {
	return &Error{
		Code:  code,
		Store: storeName,
		Msg:   msg,
		Err:   err,
	}
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess          RetCode = iota // 0: Command executed successfully.
	RetCInternalError                   // 1: Command failed due to an internal or driver error.
	RetCInvalidOperation                // 2: Invalid operation.
	RetCUnexpectedReply                 // 3: The store replied with something the script contract does not allow.
	RetCDisconnected                    // 4: The store is known to be disconnected.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCInvalidOperation:
		return "InvalidOperation"
	case RetCUnexpectedReply:
		return "UnexpectedReply"
	case RetCDisconnected:
		return "Disconnected"
	default:
		return "Unknown"
	}
}
