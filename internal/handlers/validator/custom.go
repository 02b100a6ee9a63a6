package validator

import (
	"time"

	"github.com/go-playground/validator/v10"

	api "github.com/sparkops/job-analytics/api/v1alpha1"
)

func eventKindValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	switch val {
	case api.EventKindJobStart, api.EventKindTaskEnd, api.EventKindJobEnd:
		return true
	default:
		return false
	}
}

func rfc3339Validator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	_, err := time.Parse(time.RFC3339, val)
	return err == nil
}

func jobResultValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Addr().Interface().(*string)
	if !ok {
		return false
	}

	if val == nil {
		return true
	}

	switch *val {
	case api.JobResultSucceeded, api.JobResultFailed, api.JobResultUnknown:
		return true
	default:
		return false
	}
}
