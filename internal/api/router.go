package api

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter registers the migration endpoints. Files under publicDir are
// served for every other path.
func NewRouter(storage *Storage, publicDir string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), requestLogger(storage.Log), cors.Default())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	migrations := r.Group("/api/migrations")
	{
		migrations.GET("/to-json", SnapshotHandler(storage))
		migrations.POST("/generate-migrations", GenerateHandler(storage))

		migrations.GET("/tables", TableListHandler(storage))
		migrations.GET("/tables/:name", TableHandler(storage))
		migrations.GET("/lint", LintHandler(storage))

		migrations.GET("/ddl", DDLHandler(storage))
		migrations.POST("/apply", ApplyHandler(storage))
	}

	admin := r.Group("/api/admin")
	{
		admin.POST("/reload-vocabulary", ReloadVocabularyHandler(storage))
	}

	if publicDir != "" {
		if st, err := os.Stat(publicDir); err == nil && st.IsDir() {
			r.NoRoute(gin.WrapH(http.FileServer(http.Dir(publicDir))))
		}
	}
	return r
}

func NewServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      h,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 2 * time.Minute,
	}
}
