package main

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/seoscope/backend/cache"
	"github.com/seoscope/backend/config"
	"github.com/seoscope/backend/metrics"
	"github.com/seoscope/backend/middleware"
	"github.com/seoscope/backend/pagedata"
	"github.com/seoscope/backend/pageparser"
	"github.com/seoscope/backend/quality"
	"github.com/seoscope/backend/readability"
	"github.com/seoscope/backend/scoring"
	"github.com/seoscope/backend/stats"
)

type server struct {
	logger     *slog.Logger
	calculator *scoring.Calculator
	assessor   *quality.Assessor
	store      *cache.Store
	stats      *stats.Storage
	metrics    *metrics.Metrics
}

func loadEnv() {
	// .env.development wins for local development, then plain .env.
	if err := godotenv.Load(".env.development"); err != nil {
		if err := godotenv.Load(); err != nil {
			slog.Info("no .env file found, using environment variables")
		}
	}
}

func setupGinMode() {
	mode := os.Getenv("GIN_MODE")
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)
}

func main() {
	loadEnv()
	setupGinMode()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}

	registry := prometheus.NewRegistry()
	engineMetrics := metrics.New(registry)

	cachePath := os.Getenv("CACHE_PATH")
	if cachePath == "" {
		cachePath = dataDir + "/cache.db"
	}
	store, err := cache.New(cachePath, scoring.Version,
		cache.WithLogger(logger),
		cache.WithMetrics(engineMetrics))
	if err != nil {
		logger.Error("failed to open analysis cache", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	statsStorage, err := stats.NewStorage(dataDir, logger)
	if err != nil {
		logger.Error("failed to initialize stats storage", "error", err)
		os.Exit(1)
	}
	defer statsStorage.Shutdown()

	readabilityAnalyzer := readability.New(cfg.ReadabilityWeights, logger)
	srv := &server{
		logger:     logger,
		calculator: scoring.New(cfg, scoring.WithCache(store), scoring.WithLogger(logger), scoring.WithMetrics(engineMetrics)),
		assessor:   quality.New(cfg.QualityWeights, readabilityAnalyzer, logger),
		store:      store,
		stats:      statsStorage,
		metrics:    engineMetrics,
	}

	rateLimiter := middleware.NewRateLimiter(2, 5)

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(middleware.Recovery(logger))
	r.Use(rateLimiter.RateLimit())
	r.Use(corsMiddleware())

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
		api.POST("/analyze", srv.analyze)
		api.POST("/score", srv.score)
		api.GET("/cache/stats", srv.cacheStats)
		api.POST("/cache/invalidate", srv.invalidateCache)
		api.GET("/statistics", srv.statistics)
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8082"
	}

	logger.Info("server starting", "port", port)
	if err := r.Run(":" + port); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Origin")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

type analyzeRequest struct {
	HTML    string          `json:"html" binding:"required"`
	URL     string          `json:"url" binding:"required,url"`
	Context scoring.Context `json:"context"`
}

// analyze parses raw HTML, then runs both the score calculation and the
// quality assessment and merges their recommendation lists.
func (s *server) analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "html and a valid url are required"})
		return
	}
	req.Context.URL = req.URL

	page, err := pageparser.Parse(req.HTML, req.URL)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not parse HTML: " + err.Error()})
		return
	}

	started := time.Now()
	result, err := s.calculator.Calculate(c.Request.Context(), page, req.Context)
	if err != nil {
		s.stats.RecordAnalysis(float64(time.Since(started).Milliseconds()), false, true)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.stats.RecordAnalysis(float64(time.Since(started).Milliseconds()),
		result.PerformanceMetrics.CacheHit, false)

	qualityStart := time.Now()
	assessment := s.assessor.Assess(req.HTML, req.URL, page)
	qualityElapsed := time.Since(qualityStart)
	s.stats.RecordQualityAssessment(float64(qualityElapsed.Milliseconds()))
	s.metrics.AnalysesTotal.WithLabelValues("quality", "computed").Inc()
	s.metrics.QualityDuration.Observe(qualityElapsed.Seconds())

	c.JSON(http.StatusOK, gin.H{
		"score":           result,
		"quality":         assessment,
		"recommendations": mergeRecommendations(result, assessment),
	})
}

type scoreRequest struct {
	Page    *pagedata.Page  `json:"page" binding:"required"`
	Context scoring.Context `json:"context"`
}

// score runs the calculator directly against already-parsed page data.
func (s *server) score(c *gin.Context) {
	var req scoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page data is required"})
		return
	}

	result, err := s.calculator.Calculate(c.Request.Context(), req.Page, req.Context)
	if err != nil {
		var invalid *pagedata.InvalidInputError
		status := http.StatusInternalServerError
		if errors.As(err, &invalid) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *server) cacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.GetCacheStatistics(c.Request.Context()))
}

type invalidateRequest struct {
	URL    string `json:"url"`
	Domain string `json:"domain"`
}

func (s *server) invalidateCache(c *gin.Context) {
	var req invalidateRequest
	if err := c.ShouldBindJSON(&req); err != nil || (req.URL == "" && req.Domain == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url or domain is required"})
		return
	}

	removed := 0
	if req.URL != "" {
		removed += s.store.InvalidateByURL(c.Request.Context(), req.URL)
	}
	if req.Domain != "" {
		removed += s.store.InvalidateByDomain(c.Request.Context(), req.Domain)
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (s *server) statistics(c *gin.Context) {
	current := s.stats.GetCurrentStats()
	c.JSON(http.StatusOK, gin.H{
		"current_month":   current,
		"avg_duration_ms": current.AvgDurationMs(),
		"months":          s.stats.GetAllMonths(),
	})
}

// mergeRecommendations concatenates both components' recommendation lists
// into a single category-tagged slice.
func mergeRecommendations(result *scoring.Result, assessment *quality.Assessment) []gin.H {
	var merged []gin.H
	for category, cat := range result.CategoryScores {
		for _, rec := range cat.Recommendations {
			merged = append(merged, gin.H{
				"source":   "score",
				"category": category,
				"message":  rec,
			})
		}
	}
	for _, rec := range assessment.Recommendations {
		merged = append(merged, gin.H{
			"source":   "quality",
			"category": rec.Category,
			"message":  rec.Message,
			"fix":      rec.Fix,
			"impact":   rec.Impact,
		})
	}
	return merged
}
