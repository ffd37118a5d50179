package validator

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// Init prepares the shared validator instance. Safe to call more than once.
func Init() {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
}

// Struct validates v against its `validate` tags.
func Struct(v interface{}) error {
	Init()
	return validate.Struct(v)
}
