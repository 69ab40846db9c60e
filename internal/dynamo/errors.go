package dynamo

import (
	stderrors "errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/mroshb/moodgram/pkg/errors"
)

// Cancellation reason codes reported by TransactWriteItems
const (
	reasonConditionalCheckFailed = "ConditionalCheckFailed"
	reasonTransactionConflict    = "TransactionConflict"
)

// cancelledBy reports whether a cancelled transaction failed for any of the
// given reasons.
func cancelledBy(err error, codes ...string) bool {
	var tce *types.TransactionCanceledException
	if !stderrors.As(err, &tce) {
		return false
	}
	for _, reason := range tce.CancellationReasons {
		code := aws.ToString(reason.Code)
		for _, c := range codes {
			if code == c {
				return true
			}
		}
	}
	return false
}

// translateError maps SDK errors onto application error codes.
func translateError(err error, message string) error {
	if err == nil {
		return nil
	}

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return err
	}

	if cancelledBy(err, reasonConditionalCheckFailed, reasonTransactionConflict) {
		return errors.Wrap(err, errors.ErrCodeConflict, message)
	}

	var conflict *types.TransactionConflictException
	if stderrors.As(err, &conflict) {
		return errors.Wrap(err, errors.ErrCodeConflict, message)
	}

	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) {
		return errors.Wrap(err, errors.ErrCodeUnavailable, message+" ("+apiErr.ErrorCode()+")")
	}
	return errors.Wrap(err, errors.ErrCodeUnavailable, message)
}
