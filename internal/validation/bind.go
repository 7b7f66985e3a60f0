package validation

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
)

// BindAndValidate decodes the JSON body into out and validates it. On failure it has
// already written the 400 response; the handler only returns.
func BindAndValidate(c *gin.Context, out interface{}, v *validatorv10.Validate) error {
	if err := c.ShouldBindJSON(out); err != nil {
		code := "invalid_request_body"
		if errors.Is(err, io.EOF) {
			code = "empty_request_body"
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": code, "msg": err.Error()})
		return err
	}

	if err := v.Struct(out); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "fields": Fields(err)})
		return err
	}
	return nil
}
