package dvserr

import (
	"strconv"
	"strings"
)

// BatchError aggregates several failures into one error. store.Chain.Put
// uses it to report every sub-store that failed. The ops batch operations
// do not return one; they attach each file's failure to its own result.
type BatchError struct {
	Errors []error
}

func (b *BatchError) Add(err error) {
	if err != nil {
		b.Errors = append(b.Errors, err)
	}
}

func (b *BatchError) HasErrors() bool {
	return len(b.Errors) > 0
}

// AsError returns b as an error if it holds any failures, else nil.
func (b *BatchError) AsError() error {
	if !b.HasErrors() {
		return nil
	}
	return b
}

func (b *BatchError) Error() string {
	if len(b.Errors) == 1 {
		return b.Errors[0].Error()
	}
	parts := make([]string, len(b.Errors))
	for i, e := range b.Errors {
		parts[i] = e.Error()
	}
	return "batch operation failed for " + strconv.Itoa(len(b.Errors)) + " file(s): " + strings.Join(parts, "; ")
}
