package http

import "github.com/gin-gonic/gin"

// FieldError is one entry of a validation response.
type FieldError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func ErrorResponse(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"error": message})
}

func SuccessResponse(c *gin.Context, code int, data interface{}) {
	c.JSON(code, data)
}

func MessageResponse(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"message": message})
}

// ValidationResponse writes {"errors": {field: [{code, message}]}}.
func ValidationResponse(c *gin.Context, code int, field string, fe FieldError) {
	c.JSON(code, gin.H{"errors": map[string][]FieldError{field: {fe}}})
}
