// Package handlers wires HTTP routes to the domain services: request
// validation, guard composition and response shaping live here.
package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/NYARANGA-ROB/Smart/pkg/logger"
	"github.com/NYARANGA-ROB/Smart/pkg/validate"
)

// bindBody decodes the JSON request body into a generic map so declarative
// rule tables can inspect every field. Responds 400 on malformed JSON.
func bindBody(c *gin.Context) (map[string]interface{}, bool) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "message": "Unable to read request body"})
		return nil, false
	}
	body := map[string]interface{}{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "message": "Request body must be valid JSON"})
			return nil, false
		}
	}
	return body, true
}

// validateBody decodes the body and runs the schema, rejecting with the full
// violation list on any failure.
func validateBody(c *gin.Context, schema validate.Schema) (map[string]interface{}, bool) {
	body, ok := bindBody(c)
	if !ok {
		return nil, false
	}
	if violations := schema.Apply(body); len(violations) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": violations})
		return nil, false
	}
	return body, true
}

// internalError logs the underlying failure and responds with a generic 500.
func internalError(c *gin.Context, label, message string, err error) {
	logger.Errorf("%s: %v", label, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": label, "message": message})
}

func str(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}

func f64(m map[string]interface{}, key string) float64 {
	f, _ := m[key].(float64)
	return f
}

func strSlice(m map[string]interface{}, key string) []string {
	raw, _ := m[key].([]interface{})
	out := []string{}
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func obj(m map[string]interface{}, key string) map[string]interface{} {
	o, _ := m[key].(map[string]interface{})
	return o
}
