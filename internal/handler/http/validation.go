package http

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/Alschn/Beerdegu/internal/domain"
)

var validatorOnce sync.Once

// registerValidators adds the custom rules to gin's validator and makes it
// report JSON field names.
func registerValidators() {
	validatorOnce.Do(func() {
		engine, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			logrus.Warnf("Validator engine is %T, custom rules not registered", binding.Validator.Engine())
			return
		}
		engine.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		mustRegisterValidation(engine, "roomname", func(fl validator.FieldLevel) bool {
			return domain.IsValidRoomName(domain.NormalizeRoomName(fl.Field().String()))
		})
	})
}

// mustRegisterValidation panics when a rule cannot be added; it runs once at startup.
func mustRegisterValidation(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %q: %v", tag, err))
	}
}
