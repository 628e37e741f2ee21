package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// IntegrityMessage is returned for unique/foreign-key violations.
const IntegrityMessage = "Data integrity error. The record may already exist."

// Envelope is the JSON body for every error response.
type Envelope struct {
	Detail string `json:"detail"`
	Code   string `json:"code"`
}

// Respond writes err as a JSON error response, choosing the status from its type.
func Respond(c *gin.Context, err error) {
	status, code, msg := classify(err)
	if status >= http.StatusInternalServerError {
		// Keep internals out of the response body
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, Envelope{Detail: msg, Code: code})
}

func classify(err error) (int, string, string) {
	if e, ok := As(err); ok {
		if e.Status >= http.StatusInternalServerError {
			return e.Status, e.Code, "Internal server error"
		}
		return e.Status, e.Code, e.Error()
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return http.StatusBadRequest, "validation_error", describeValidation(verrs)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return http.StatusBadRequest, "validation_error", "Invalid request body"
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return http.StatusNotFound, "not_found", "Not found"
	}

	if IsIntegrityError(err) {
		return http.StatusBadRequest, "integrity_error", IntegrityMessage
	}

	return http.StatusInternalServerError, "internal_error", "Internal server error"
}

// IsIntegrityError reports whether err is a unique or foreign-key violation.
func IsIntegrityError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "foreign key constraint")
}

func describeValidation(verrs validator.ValidationErrors) string {
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s: field required", field))
		case "hhmm":
			parts = append(parts, fmt.Sprintf("%s: must be in HH:MM format", field))
		case "isodate":
			parts = append(parts, fmt.Sprintf("%s: must be in YYYY-MM-DD format", field))
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s: must be one of [%s]", field, fe.Param()))
		case "min", "max", "gt", "gte", "lt", "lte":
			parts = append(parts, fmt.Sprintf("%s: must satisfy %s=%s", field, fe.Tag(), fe.Param()))
		case "email":
			parts = append(parts, fmt.Sprintf("%s: must be a valid email", field))
		default:
			parts = append(parts, fmt.Sprintf("%s: failed %s validation", field, fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
