package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"dbdesign/internal/typemap"
)

type reloadReq struct {
	Default bool `json:"default"` // drop back to the built-in tables
}

// POST /api/admin/reload-vocabulary
//
// Re-reads the configured vocabulary file, or installs the built-in tables
// when none is configured or default=true is sent. The new vocabulary is
// linted against the current snapshot first; unmapped column types block the
// swap unless force=true is given.
func ReloadVocabularyHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req reloadReq
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			fail(c, http.StatusBadRequest, "Invalid JSON", err)
			return
		}

		file := ""
		vocab := typemap.Default()
		if !req.Default && storage.VocabularyFile != "" {
			file = storage.VocabularyFile
			v, err := typemap.Load(file)
			if err != nil {
				fail(c, http.StatusInternalServerError, "Vocabulary load error", err)
				return
			}
			vocab = v
		}

		reg, err := storage.snapshotWith(vocab)
		if err != nil {
			fail(c, http.StatusInternalServerError, "Failed to read migrations", err)
			return
		}
		var blocking []SchemaIssue
		for _, it := range SchemaLint(reg, vocab) {
			if it.Code == "type_unmapped" {
				blocking = append(blocking, it)
			}
		}
		if len(blocking) > 0 && c.Query("force") != "true" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":  "vocabulary leaves column types unmapped",
				"issues": blocking,
				"hint":   "extend the vocabulary or retry with ?force=true",
				"file":   file,
			})
			return
		}

		storage.SetVocabulary(vocab)
		storage.Log.Info("vocabulary reloaded", zap.String("file", file), zap.Int("unmapped", len(blocking)))
		c.JSON(http.StatusOK, gin.H{
			"ok":       true,
			"file":     file,
			"tables":   reg.Len(),
			"unmapped": len(blocking),
		})
	}
}
