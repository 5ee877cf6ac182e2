package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// bindMessages maps field -> validator tag -> response entry.
type bindMessages map[string]map[string]FieldError

func bindJSON(c *gin.Context, req any, messages bindMessages) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		field, fe := resolveBindError(err, messages)
		ValidationResponse(c, http.StatusBadRequest, field, fe)
		return false
	}
	return true
}

func bindQuery(c *gin.Context, req any, messages bindMessages) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		field, fe := resolveBindError(err, messages)
		ValidationResponse(c, http.StatusBadRequest, field, fe)
		return false
	}
	return true
}

func resolveBindError(err error, messages bindMessages) (string, FieldError) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		verr := verrs[0]
		if fieldMsgs, ok := messages[verr.Field()]; ok {
			if fe, ok := fieldMsgs[verr.Tag()]; ok {
				return verr.Field(), fe
			}
		}
		return verr.Field(), FieldError{Code: verr.Tag(), Message: "This field failed the '" + verr.Tag() + "' check."}
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		if fe, ok := messages[typeErr.Field]["type"]; ok {
			return typeErr.Field, fe
		}
		return typeErr.Field, FieldError{Code: "invalid", Message: "Expected a " + typeErr.Type.String() + "."}
	}
	return "non_field_errors", FieldError{Code: "invalid", Message: "Malformed request body."}
}
