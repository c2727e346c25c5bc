package validate

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	v   *validator.Validate
	mut sync.Mutex
)

// Init initializes the validator singleton (idempotent).
func Init() {
	mut.Lock()
	defer mut.Unlock()
	if v != nil {
		return
	}
	v = validator.New()
}

// Struct validates a struct's `validate` tags using go-playground/validator.
func Struct(s interface{}) error {
	if v == nil {
		Init()
	}
	return v.Struct(s)
}
