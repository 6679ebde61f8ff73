package tenancy

import "errors"

var (
	ErrTenantExists  = errors.New("tenant already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrCleanupFailed = errors.New("tenant cleanup incomplete")
)
