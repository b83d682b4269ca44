package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"vigilant-go/internal/analyzer"
	"vigilant-go/internal/config"
	"vigilant-go/internal/engine"
	"vigilant-go/internal/logger"
	"vigilant-go/internal/policy"
	"vigilant-go/internal/report"
	"vigilant-go/internal/types"
)

const serviceVersion = "1.0.0"

type analyzeRequest struct {
	Transcription    types.TranscriptionResult `json:"transcription"`
	AcousticSegments []types.AcousticSegment   `json:"acoustic_segments"`
	ClientConfig     map[string]any            `json:"client_config,omitempty"`
	CallTimestampUTC string                    `json:"call_timestamp_utc,omitempty"`
}

func main() {
	_ = godotenv.Load() // loads .env

	log := logger.New()
	log.WithField("service", "vigilant-go").Info("starting service")

	policiesDir := envOr("POLICIES_DIR", "./data/policies")
	policies, err := policy.LoadDir(policiesDir)
	if err != nil {
		log.WithError(err).WithField("policies_dir", policiesDir).
			Warn("could not load policy store, clause retrieval disabled")
		policies = nil
	}

	eng := engine.New(policies, analyzer.NewFromEnv())

	if envOr("ENVIRONMENT", "local") != "local" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Requested-With"}
	router.Use(cors.New(corsConfig))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "Vigilant Compliance Intelligence API",
			"health":  "/health",
			"analyze": "POST /analyze",
		})
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "Vigilant",
			"version": serviceVersion,
		})
	})

	router.POST("/analyze", analyzeHandler(eng))

	addr := fmt.Sprintf(":%s", envOr("PORT", "8080"))
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.WithField("addr", addr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server terminated")
	}
}

func analyzeHandler(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := engine.NewRequestID()
		start := time.Now()
		reqLog := logger.New().WithRequest(c.Request).WithField("request_id", requestID)
		reqLog.Info("analyze request received")

		var req analyzeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			reqLog.WithError(err).Warn("invalid request body")
			c.JSON(http.StatusBadRequest, gin.H{"error": "request body is not valid JSON: " + err.Error()})
			return
		}
		if len(req.Transcription.TranscriptThreads) == 0 {
			reqLog.Warn("missing transcript threads")
			c.JSON(http.StatusBadRequest, gin.H{"error": "transcription.transcript_threads is required"})
			return
		}

		cfg, err := resolveConfig(req.ClientConfig)
		if err != nil {
			reqLog.WithError(err).Warn("invalid client config")
			c.JSON(http.StatusBadRequest, gin.H{"error": "client_config is invalid: " + err.Error()})
			return
		}

		callTime := time.Now().UTC()
		if req.CallTimestampUTC != "" {
			parsed, err := time.Parse(time.RFC3339, req.CallTimestampUTC)
			if err != nil {
				reqLog.WithError(err).Warn("invalid call timestamp")
				c.JSON(http.StatusBadRequest, gin.H{"error": "call_timestamp_utc must be RFC3339"})
				return
			}
			callTime = parsed.UTC()
		}

		result, err := eng.Analyze(c.Request.Context(), engine.Input{
			RequestID:        requestID,
			Transcription:    req.Transcription,
			AcousticSegments: req.AcousticSegments,
			Config:           cfg,
			CallTimestampUTC: callTime,
		})
		if err != nil {
			reqLog.WithError(err).Error("analysis pipeline error")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis pipeline error: " + err.Error()})
			return
		}

		rep := report.Build(report.BuildInput{
			Result:           result,
			Transcription:    req.Transcription,
			AcousticSegments: req.AcousticSegments,
			Config:           cfg,
			CallTimestampUTC: callTime.Format(time.RFC3339),
			ProcessingStart:  start,
		})
		reqLog.WithField("duration_ms", time.Since(start).Milliseconds()).Info("analysis complete")

		if c.Query("format") == "xlsx" {
			data, err := report.WriteXLSX(rep)
			if err != nil {
				reqLog.WithError(err).Error("xlsx export failed")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "xlsx export failed: " + err.Error()})
				return
			}
			c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.xlsx", result.RequestID))
			c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
			return
		}

		c.IndentedJSON(http.StatusOK, rep)
	}
}

// resolveConfig merges an uploaded client config over the built-in
// defaults, or returns the defaults when none was supplied.
func resolveConfig(override map[string]any) (*config.ClientConfig, error) {
	if len(override) == 0 {
		return config.Default(), nil
	}
	data, err := json.Marshal(override)
	if err != nil {
		return nil, err
	}
	return config.Parse(data)
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
