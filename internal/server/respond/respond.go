// Package respond writes the JSON envelope shared by every endpoint:
// {success, message, error, statusCode} plus an optional payload.
package respond

import "github.com/gin-gonic/gin"

// Error aborts the chain with a failure envelope. Empty message or detail
// are omitted from the body.
func Error(c *gin.Context, status int, message, detail string) {
	ErrorWith(c, status, message, detail, nil)
}

// ErrorWith is Error with extra fields merged into the body.
func ErrorWith(c *gin.Context, status int, message, detail string, extra gin.H) {
	body := gin.H{"success": false, "statusCode": status}
	for k, v := range extra {
		body[k] = v
	}
	if message != "" {
		body["message"] = message
	}
	if detail != "" {
		body["error"] = detail
	}
	c.AbortWithStatusJSON(status, body)
}

// OK writes a success envelope merged with payload.
func OK(c *gin.Context, status int, message string, payload gin.H) {
	body := gin.H{"success": true, "message": message, "statusCode": status}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(status, body)
}
