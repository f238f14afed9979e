package handlers

import (
	"fmt"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/tbourn/go-review-backend/internal/domain"
)

var registerOnce sync.Once

// customTags are the binding tags used by request DTOs:
//
//	productkey  "category-slug/name-slug", both segments canonical slugs
var customTags = map[string]validator.Func{
	"productkey": func(fl validator.FieldLevel) bool {
		return domain.ValidProductKey(fl.Field().String())
	},
}

// RegisterValidators installs customTags on gin's validator engine. It is
// idempotent and must run before any handler binds a request. It panics when
// the engine is not validator/v10 or rejects a tag, since every request using
// the tag would otherwise fail at bind time.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			panic(fmt.Sprintf("handlers: unexpected validator engine %T", binding.Validator.Engine()))
		}
		if err := registerTags(v, customTags); err != nil {
			panic(err)
		}
	})
}

func registerTags(v *validator.Validate, tags map[string]validator.Func) error {
	for tag, fn := range tags {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("handlers: register %q validator: %w", tag, err)
		}
	}
	return nil
}
