package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dbdesign/internal/pg"
)

// GET /api/migrations/ddl
func DDLHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		reg, err := storage.Snapshot()
		if err != nil {
			fail(c, http.StatusInternalServerError, "Failed to read migrations", err)
			return
		}
		c.String(http.StatusOK, pg.Script(pg.GenerateDDL(reg)))
	}
}

// POST /api/migrations/apply
func ApplyHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		if storage.DBURL == "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database not configured"})
			return
		}
		reg, err := storage.Snapshot()
		if err != nil {
			fail(c, http.StatusInternalServerError, "Failed to read migrations", err)
			return
		}
		ddl := pg.GenerateDDL(reg)

		db, err := storage.openDB(c.Request.Context(), storage.DBURL)
		if err != nil {
			fail(c, http.StatusBadGateway, "Database connection failed", err)
			return
		}
		defer db.Close()

		if err := pg.ApplyDDL(c.Request.Context(), db, ddl, storage.Log); err != nil {
			fail(c, http.StatusInternalServerError, "DDL apply failed", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "tables": reg.Len(), "groups": len(ddl)})
	}
}
