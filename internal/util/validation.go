package util

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// FormatValidationErrors maps each failing request field to a short reason.
func FormatValidationErrors(err error) map[string]string {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return nil
	}
	out := make(map[string]string, len(ves))
	for _, fe := range ves {
		msg := "failed on the '" + fe.Tag() + "' rule"
		if fe.Param() != "" {
			msg += " (" + fe.Param() + ")"
		}
		out[lowerFirst(fe.Field())] = msg
	}
	return out
}

// BindingErrorBody is the 400 response body for a failed ShouldBind call.
func BindingErrorBody(err error) gin.H {
	if fields := FormatValidationErrors(err); fields != nil {
		return gin.H{"error": "validation failed", "fields": fields}
	}
	return gin.H{"error": err.Error()}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
