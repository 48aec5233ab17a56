package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"drug-mentions/config"
	"drug-mentions/models"
	"drug-mentions/services"
	"drug-mentions/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	pipelineRunsCounter prometheus.Counter
	mentionsCounter     prometheus.Counter
	droppedRowsCounter  prometheus.Counter
)

func init() {
	pipelineRunsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_runs_total",
			Help: "Total number of completed pipeline runs.",
		},
	)
	mentionsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "drug_mentions_total",
			Help: "Total number of drug mentions folded into graphs.",
		},
	)
	droppedRowsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dropped_rows_total",
			Help: "Total number of malformed rows dropped during loading.",
		},
	)
	prometheus.MustRegister(pipelineRunsCounter, mentionsCounter, droppedRowsCounter)
}

func apiKeyAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APISecretKey == "" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey != cfg.APISecretKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

// graphHolder hält den jüngsten Mention-Graph für die Query-Endpoints.
// Der Graph selbst ist nach dem Bau unveränderlich; der Holder tauscht nur
// den Zeiger aus.
type graphHolder struct {
	mu    sync.RWMutex
	graph *services.MentionGraph
}

func (h *graphHolder) Get() *services.MentionGraph {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.graph
}

func (h *graphHolder) Set(g *services.MentionGraph) {
	h.mu.Lock()
	h.graph = g
	h.mu.Unlock()
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	// Setup Database Connection
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.Error(err))
	}
	logging.Info("Successfully connected to mentions database.")

	// Auto-Migration
	logging.Info("Running database auto-migration...")
	db.AutoMigrate(&models.Drug{}, &models.Mention{}, &models.GraphSnapshot{})

	// Seeding
	seedDefaultDrugs(db, logging)

	// Setup Services
	var pipelineService *services.PipelineService
	if cfg.S3Enabled() {
		s3Client, err := storage.NewS3Client(cfg)
		if err != nil {
			logging.Fatal("S3 client creation failed", zap.Error(err))
		}
		pipelineService = services.NewPipelineService(cfg, db, s3Client, logging)
	} else {
		logging.Info("No S3 export bucket configured, graph export stays local.")
		pipelineService = services.NewPipelineService(cfg, db, nil, logging)
	}

	holder := &graphHolder{}
	restoreLatestGraph(db, holder, logging)

	// Setup Router
	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(apiKeyAuthMiddleware(cfg))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Setup Routes
	setupDrugRoutes(router, db, logging)
	setupMentionRoutes(router, db, logging)
	setupPipelineRoutes(router, pipelineService, holder)
	setupGraphRoutes(router, db, holder, logging)
	setupQueryRoutes(router, holder, logging)

	// Setup Cron
	cronScheduler := cron.New()
	cronScheduler.AddFunc(cfg.CronSchedule, func() {
		logging.Info("Running scheduled pipeline job...")
		result, err := pipelineService.Run(context.Background())
		if err != nil {
			logging.Error("Cron job failed", zap.Error(err))
		} else {
			holder.Set(result.Graph)
			recordRunMetrics(result)
			logging.Info("Cron job completed", zap.Int("mentions", result.MentionCount))
		}
	})
	cronScheduler.Start()

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

func recordRunMetrics(result *services.PipelineResult) {
	pipelineRunsCounter.Inc()
	mentionsCounter.Add(float64(result.MentionCount))
	droppedRowsCounter.Add(float64(result.PublicationStats.Dropped + result.TrialStats.Dropped))
}

// restoreLatestGraph lädt den jüngsten Snapshot aus der DB in den Holder,
// damit die Query-Endpoints nach einem Neustart sofort bedienbar sind.
func restoreLatestGraph(db *gorm.DB, holder *graphHolder, log *zap.Logger) {
	var snapshot models.GraphSnapshot
	if err := db.Order("created_at desc").First(&snapshot).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("Failed to load latest graph snapshot", zap.Error(err))
		}
		return
	}
	var graph services.MentionGraph
	if err := graph.UnmarshalJSON(snapshot.Payload); err != nil {
		log.Warn("Failed to decode latest graph snapshot", zap.Uint("id", snapshot.ID), zap.Error(err))
		return
	}
	holder.Set(&graph)
	log.Info("Restored latest graph snapshot", zap.Uint("id", snapshot.ID), zap.Int("drugs", snapshot.DrugCount))
}

func setupDrugRoutes(router *gin.Engine, db *gorm.DB, log *zap.Logger) {
	rg := router.Group("/drugs")
	rg.POST("/", func(c *gin.Context) {
		var drug models.Drug
		if err := c.ShouldBindJSON(&drug); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if err := db.Create(&drug).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create drug"})
			return
		}
		c.JSON(http.StatusCreated, drug)
	})
	rg.GET("/", func(c *gin.Context) {
		var drugs []models.Drug
		if err := db.Find(&drugs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, drugs)
	})
}

func setupMentionRoutes(router *gin.Engine, db *gorm.DB, log *zap.Logger) {
	rg := router.Group("/mentions")

	// Body-gesteuerter Endpunkt für Abfragen auf den bereinigten Records
	rg.POST("/query", func(c *gin.Context) {
		type MentionQuery struct {
			Journal    string `json:"journal"`
			SourceType string `json:"source_type"`
			Limit      int    `json:"limit"`
		}

		var req MentionQuery
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		query := db.Model(&models.Mention{})
		if req.Journal != "" {
			query = query.Where("LOWER(journal) = ?", strings.ToLower(req.Journal))
		}
		if req.SourceType != "" {
			query = query.Where("source_type = ?", req.SourceType)
		}
		if req.Limit > 0 {
			query = query.Limit(req.Limit)
		}

		var mentions []models.Mention
		if err := query.Order("date asc, id asc").Find(&mentions).Error; err != nil {
			log.Error("Database query for mentions failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, mentions)
	})
}

func setupPipelineRoutes(router *gin.Engine, pipelineService *services.PipelineService, holder *graphHolder) {
	rg := router.Group("/pipeline")
	rg.POST("/run", func(c *gin.Context) {
		go func() {
			result, err := pipelineService.Run(context.Background())
			if err != nil {
				pipelineService.Logger.Error("Async pipeline run failed", zap.Error(err))
				return
			}
			holder.Set(result.Graph)
			recordRunMetrics(result)
			pipelineService.Logger.Info("Async pipeline run completed",
				zap.Int("drugs", result.DrugCount),
				zap.Int("mentions", result.MentionCount))
		}()
		c.JSON(http.StatusAccepted, gin.H{"message": "Pipeline run triggered."})
	})
}

// setupGraphRoutes konfiguriert die Graph- und Snapshot-Endpoints.
func setupGraphRoutes(router *gin.Engine, db *gorm.DB, holder *graphHolder, log *zap.Logger) {
	rg := router.Group("/graph")

	rg.GET("/latest", func(c *gin.Context) {
		graph := holder.Get()
		if graph == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no graph built yet"})
			return
		}
		c.JSON(http.StatusOK, graph)
	})

	rg.GET("/snapshots", func(c *gin.Context) {
		var snapshots []models.GraphSnapshot
		if err := db.Select("id", "created_at", "drug_count", "journal_count", "mention_count", "dropped_rows", "s3_link").
			Order("created_at desc").Limit(20).Find(&snapshots).Error; err != nil {
			log.Error("Database query for snapshots failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, snapshots)
	})

	rg.GET("/snapshots/:id", func(c *gin.Context) {
		id := c.Param("id")
		var snapshot models.GraphSnapshot
		if err := db.First(&snapshot, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "snapshot not found"})
				return
			}
			log.Error("DB error fetching snapshot", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.Data(http.StatusOK, "application/json", snapshot.Payload)
	})
}

// setupQueryRoutes konfiguriert die Ad-hoc-Query-Endpoints über dem
// jüngsten Graph.
func setupQueryRoutes(router *gin.Engine, holder *graphHolder, log *zap.Logger) {
	rg := router.Group("/queries")

	rg.GET("/top-journal", func(c *gin.Context) {
		graph := holder.Get()
		if graph == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no graph built yet"})
			return
		}
		journal, count := services.JournalWithMostDistinctDrugs(graph)
		if journal == "" {
			c.JSON(http.StatusNotFound, gin.H{"error": "graph has no journals"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"journal": journal, "distinct_drugs": count})
	})

	rg.GET("/related-drugs/:drug", func(c *gin.Context) {
		graph := holder.Get()
		if graph == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no graph built yet"})
			return
		}

		source := services.SourcePublication
		if s := c.Query("source_type"); s != "" {
			switch s {
			case string(services.SourcePublication):
				source = services.SourcePublication
			case string(services.SourceClinicalTrial):
				source = services.SourceClinicalTrial
			default:
				c.JSON(http.StatusBadRequest, gin.H{"error": "unknown source_type"})
				return
			}
		}

		related, err := services.RelatedDrugs(graph, c.Param("drug"), source)
		if err != nil {
			var unknownErr *services.UnknownDrugError
			if errors.As(err, &unknownErr) {
				c.JSON(http.StatusNotFound, gin.H{"error": unknownErr.Error()})
				return
			}
			log.Error("Related-drugs query failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			return
		}
		if related == nil {
			related = []string{}
		}
		c.JSON(http.StatusOK, gin.H{
			"drug":          c.Param("drug"),
			"source_type":   source,
			"related_drugs": related,
		})
	})
}

func seedDefaultDrugs(db *gorm.DB, logger *zap.Logger) {
	var count int64
	db.Model(&models.Drug{}).Count(&count)
	if count > 0 {
		return
	}
	drugs := []models.Drug{
		{Name: "Diphenhydramine"},
		{Name: "Tetracycline"},
		{Name: "Ethanol"},
		{Name: "Atropine"},
		{Name: "Epinephrine"},
		{Name: "Isoprenaline"},
		{Name: "Betamethasone"},
	}
	if err := db.Create(&drugs).Error; err != nil {
		logger.Warn("Failed to seed default drugs", zap.Error(err))
	} else {
		logger.Info("Default drugs seeded.")
	}
}
