package service

import (
	"fmt"
)

type ErrEventMalformed struct {
	error
}

func NewErrEventMalformed(err error) *ErrEventMalformed {
	return &ErrEventMalformed{fmt.Errorf("malformed event: %w", err)}
}

type ErrResourceNotFound struct {
	error
}

func NewErrResourceNotFound(id int64, resourceType string) *ErrResourceNotFound {
	return &ErrResourceNotFound{fmt.Errorf("%s %d not found", resourceType, id)}
}

func NewErrJobNotFound(id int64) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "job")
}
