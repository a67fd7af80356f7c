package domain

import "errors"

var (
	// ErrUnauthorized: the caller presented a missing or wrong verify token.
	ErrUnauthorized = errors.New("wrong verification token")

	// ErrInternal: the cluster registry could not be read or written.
	ErrInternal = errors.New("internal error")

	// ErrConfiguration: required configuration is missing or malformed.
	ErrConfiguration = errors.New("configuration error")

	// ErrScheduleExpression: a maintenance cron expression could not be used.
	ErrScheduleExpression = errors.New("invalid schedule expression")

	ErrInvalidClusterName = errors.New("invalid cluster name")
)
