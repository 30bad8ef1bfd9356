package repository

import (
	"context"
	"errors"

	"github.com/fathima-sithara/snip/internal/errs"
	"go.mongodb.org/mongo-driver/mongo"
)

// Mongo server error codes that map to a specific StoreKind.
const (
	codeUnauthorized          = 13
	codeIndexNotFound         = 27
	codeNoQueryExecutionPlans = 291
	codeChangeStreamsOff      = 40573
)

var ErrDuplicate = errors.New("duplicate key")

// classify wraps a driver error as an errs.StoreError. nil stays nil.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *errs.StoreError
	if errors.As(err, &se) {
		return err
	}
	return errs.NewStoreError(kindOf(err), op, err)
}

func kindOf(err error) errs.StoreKind {
	if errors.Is(err, context.DeadlineExceeded) || mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return errs.StoreNetwork
	}
	var srv mongo.ServerError
	if errors.As(err, &srv) {
		switch {
		case srv.HasErrorCode(codeUnauthorized):
			return errs.StorePermission
		case srv.HasErrorCode(codeIndexNotFound), srv.HasErrorCode(codeNoQueryExecutionPlans):
			return errs.StoreIndexNotReady
		case srv.HasErrorCode(codeChangeStreamsOff):
			return errs.StoreNotSupported
		}
	}
	return errs.StoreUnknown
}

func isDuplicate(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

var errUnexpectedID = errors.New("store returned a non ObjectID key")
