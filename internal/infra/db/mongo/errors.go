package mongo

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

const transientTransactionError = "TransientTransactionError"

// writeConflictCode is returned when two transactions touch the same document.
const writeConflictCode = 112

// isTransient reports whether an error is a transaction conflict the caller
// may retry. Concurrent admissions over the same listing or account land here
// because they write the same calendar or balance document.
func isTransient(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		if cmdErr.HasErrorLabel(transientTransactionError) || cmdErr.Code == writeConflictCode {
			return true
		}
	}
	var writeErr mongo.WriteException
	if errors.As(err, &writeErr) {
		if writeErr.HasErrorLabel(transientTransactionError) {
			return true
		}
		for _, we := range writeErr.WriteErrors {
			if we.Code == writeConflictCode {
				return true
			}
		}
	}
	return false
}
