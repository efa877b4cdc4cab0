package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	appValidator "github.com/charlesng35/apartment/pkg/validator"
)

// pathID returns the trimmed path parameter when it satisfies rules.
func pathID(c *gin.Context, name, rules string) (string, bool) {
	value := strings.TrimSpace(c.Param(name))
	if err := appValidator.ValidateVar(value, rules); err != nil {
		return "", false
	}
	return value, true
}
