package apierr

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	hhmmPattern  = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
	registerOnce sync.Once
	registerErr  error
)

// IsHHMM reports whether s is a 24-hour "HH:MM" wall-clock time.
func IsHHMM(s string) bool {
	return hhmmPattern.MatchString(s)
}

// IsISODate reports whether s is a valid "YYYY-MM-DD" calendar date.
func IsISODate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// RegisterValidators installs the custom binding tags (hhmm, isodate) on gin's
// validator and makes violation messages use JSON field names.
func RegisterValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
		if registerErr = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
			return IsHHMM(fl.Field().String())
		}); registerErr != nil {
			return
		}
		registerErr = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
			return IsISODate(fl.Field().String())
		})
	})
	return registerErr
}

// ParseID parses a positive numeric path parameter.
func ParseID(name, raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, BadRequest("%s: must be a positive integer", name)
	}
	return uint(id), nil
}
