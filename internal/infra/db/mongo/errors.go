package mongo

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

const writeConflictCode = 112

// isConflict reports write conflicts between concurrent transactions and
// duplicate keys from racing upserts.
func isConflict(err error) bool {
	if err == nil {
		return false
	}
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	var se mongo.ServerError
	if errors.As(err, &se) {
		return se.HasErrorCode(writeConflictCode) || se.HasErrorLabel("TransientTransactionError")
	}
	return false
}

func isNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
