// Package dvserr defines the stable error-kind tags shared across the dvs
// operations, following the tag-plus-payload shape the core's source
// language expresses as a sum type.
package dvserr

import "fmt"

// Code is a stable, user-facing error-kind tag. Embeddings may switch on
// Code without parsing the human message.
type Code string

const (
	NotInGitRepo     Code = "not_in_git_repo"
	NotInitialized   Code = "not_initialized"
	FileNotFound     Code = "file_not_found"
	MetadataNotFound Code = "metadata_not_found"
	FileOutsideRepo  Code = "file_outside_repo"
	StorageError     Code = "storage_error"
	HashMismatch     Code = "hash_mismatch"
	PermissionDenied Code = "permission_denied"
	GroupNotSet      Code = "group_not_set"
	ConfigError      Code = "config_error"
	ConfigMismatch   Code = "config_mismatch"
	GitError         Code = "git_error"
	InvalidGlob      Code = "invalid_glob"
	NoFilesMatched   Code = "no_files_matched"
	Batch            Code = "batch_error"
	YAMLError        Code = "yaml_error"
	JSONError        Code = "json_error"
	TOMLError        Code = "toml_error"
	IOError          Code = "io_error"
	NotFound         Code = "not_found"
	MergeConflict    Code = "merge_conflict"
)

// Error is the single error type returned by non-batch operations. It
// carries a stable Code plus a free-form message and, for hash mismatches,
// both digests.
type Error struct {
	Code     Code
	Path     string
	Message  string
	Expected string
	Actual   string
	Cause    error
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", e.Path, msg)
	}
	if e.Expected != "" || e.Actual != "" {
		msg = fmt.Sprintf("%s (expected %s, got %s)", msg, e.Expected, e.Actual)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithPath returns a copy of e with Path set, for attaching the offending
// path once it is known to the caller.
func (e *Error) WithPath(path string) *Error {
	cp := *e
	cp.Path = path
	return &cp
}

// CodeOf extracts the stable Code from err, or "" if err is not (or does
// not wrap) a *Error.
func CodeOf(err error) Code {
	var e *Error
	if ok := asError(err, &e); ok {
		return e.Code
	}
	return ""
}

func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
