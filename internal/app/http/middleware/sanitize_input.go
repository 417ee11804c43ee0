package middleware

import (
	"bytes"
	"encoding/json"
	"html"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
)

// Secrets are compared or hashed as typed, so they are never rewritten.
var unsanitizedKeys = map[string]bool{
	"password":    true,
	"oldPassword": true,
	"newPassword": true,
	"accessCode":  true,
}

// SanitizeInput strips markup from every string in a JSON body, nested
// objects and arrays included.
func SanitizeInput() gin.HandlerFunc {
	policy := bluemonday.StrictPolicy()
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost &&
			c.Request.Method != http.MethodPut &&
			c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}
		if !strings.HasPrefix(c.ContentType(), "application/json") || c.Request.Body == nil {
			c.Next()
			return
		}

		buf, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid body"})
			return
		}
		if len(bytes.TrimSpace(buf)) == 0 {
			c.Request.Body = io.NopCloser(bytes.NewReader(buf))
			c.Next()
			return
		}

		var body any
		dec := json.NewDecoder(bytes.NewReader(buf))
		dec.UseNumber()
		if err := dec.Decode(&body); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request data",
				"details": []gin.H{{"field": "body", "message": "malformed request body"}},
			})
			return
		}

		cleaned, err := json.Marshal(sanitizeValue(policy, "", body))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid body"})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(cleaned))
		c.Request.ContentLength = int64(len(cleaned))
		c.Next()
	}
}

func sanitizeValue(policy *bluemonday.Policy, key string, v any) any {
	switch val := v.(type) {
	case string:
		if unsanitizedKeys[key] {
			return val
		}
		// Markup is removed; plain text characters come back unescaped.
		return html.UnescapeString(policy.Sanitize(val))
	case map[string]any:
		for k, inner := range val {
			val[k] = sanitizeValue(policy, k, inner)
		}
		return val
	case []any:
		for i, inner := range val {
			val[i] = sanitizeValue(policy, key, inner)
		}
		return val
	}
	return v
}
