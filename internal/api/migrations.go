package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"dbdesign/internal/codegen"
	"dbdesign/internal/dsl"
	"dbdesign/internal/store"
)

// GET /api/migrations/to-json
func SnapshotHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		reg, err := storage.Snapshot()
		if err != nil {
			fail(c, http.StatusInternalServerError, "Failed to read migrations", err)
			return
		}
		c.JSON(http.StatusOK, reg)
	}
}

// POST /api/migrations/generate-migrations
// Body: {"<file name>": {"action": "create", "name": "users", ...}, ...}
func GenerateHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		var reqs dsl.OrderedMap[*codegen.ChangeRequest]
		if err := c.ShouldBindJSON(&reqs); err != nil {
			fail(c, http.StatusBadRequest, "Invalid JSON", err)
			return
		}

		files, err := storage.Generate(&reqs)
		switch {
		case errors.Is(err, codegen.ErrInvalidRequest), errors.Is(err, store.ErrBadName):
			fail(c, http.StatusBadRequest, "Invalid change request", err)
			return
		case err != nil:
			fail(c, http.StatusInternalServerError, "Failed to write migrations", err)
			return
		}
		if files == nil {
			files = []string{}
		}
		c.JSON(http.StatusOK, gin.H{
			"message": "Migrations generated successfully",
			"files":   files,
		})
	}
}
