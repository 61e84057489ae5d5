package domain

import "errors"

var (
	// ErrExtraction means the external extraction call itself failed
	// (unreachable service, transport error, empty response). The whole
	// statement is rejected before anything is persisted.
	ErrExtraction = errors.New("extraction call failed")

	// ErrMalformedResponse means the extraction call succeeded but the
	// payload did not have the expected shape. Also rejects the whole
	// statement atomically.
	ErrMalformedResponse = errors.New("malformed extraction response")

	// ErrInvalidDraft marks a single unusable draft transaction inside an
	// otherwise valid batch. The record is skipped and logged; the rest of
	// the batch continues.
	ErrInvalidDraft = errors.New("invalid transaction draft")

	// ErrInvalidDateFormat means a date literal was not strict YYYY-MM-DD.
	ErrInvalidDateFormat = errors.New("invalid date format, expected YYYY-MM-DD")

	// ErrInvalidRange means fromDate is after toDate.
	ErrInvalidRange = errors.New("fromDate cannot be after toDate")

	// ErrInvalidAmount means a caller-supplied amount failed validation.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrDuplicateAccount means the (name, last_4_digits, type) triple is
	// already taken.
	ErrDuplicateAccount = errors.New("account with the same name, type, and last 4 digits already exists")

	// ErrDuplicateTransaction means a transaction with the same dedup key
	// already exists. The merge engine treats it as an ordinary skip; it is
	// how a lost race between two concurrent ingestions surfaces.
	ErrDuplicateTransaction = errors.New("transaction with the same date, amount, description, category and account already exists")

	// ErrNotFound means the requested record does not exist.
	ErrNotFound = errors.New("not found")
)
