// Base handler utilities (JSON helpers, id validation) for the search
// pipeline's sentinel-error-free SearchResponse: the pipeline never returns
// an error to its caller, failures surface as ResponseMeta.FailureReason.
package handlers

import (
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error string `json:"error"`
}

// isValidID ensures path-supplied ids are hex/alnum and bounded length,
// matching the current id generator (uuid string or opaque job id).
func isValidID(v string) bool {
	if len(v) == 0 || len(v) > 64 {
		return false
	}
	for _, c := range v {
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '-' {
			continue
		}
		return false
	}
	return true
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}
