// Package api provides the REST API server for osu2rush
package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/james-see/osu2rush/pkg/beatmap"
	"github.com/james-see/osu2rush/pkg/chart"
	"github.com/james-see/osu2rush/pkg/converter"
	"github.com/james-see/osu2rush/pkg/converter/classifiers"
)

// @title osu2rush API
// @version 1.0
// @description API for converting osu! and drum MIDI charts into two-lane Rush charts
// @host localhost:8080
// @BasePath /api/v1

// ConversionIDHeader carries the identifier assigned to each request
const ConversionIDHeader = "X-Conversion-ID"

// maxUploadSize bounds multipart uploads
const maxUploadSize = 16 << 20

// ConvertResponse is the JSON body returned by POST /convert
type ConvertResponse struct {
	ID      string        `json:"id"`
	Format  string        `json:"format"`
	Summary chart.Summary `json:"summary"`
	Chart   *chart.Chart  `json:"chart"`
}

// errBadRequest marks failures caused by the upload rather than the server
var errBadRequest = errors.New("bad request")

// Server holds the handlers' dependencies
type Server struct {
	logger *slog.Logger
}

// NewRouter builds the gin engine with every route registered
func NewRouter(logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{logger: logger}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID())
	r.Use(s.accessLog())

	// CORS middleware
	r.Use(corsMiddleware())

	// Health check
	r.GET("/health", healthCheck)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/formats", listFormats)
		v1.GET("/classifiers", listClassifiers)
		v1.POST("/convert", s.handleConvert)
		v1.POST("/convert/yaml", s.handleConvertYAML)
		v1.POST("/convert/midi", s.handleConvertMIDI)
	}

	// Swagger docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// StartServer starts the API server on the specified port
func StartServer(port int, logger *slog.Logger) error {
	return NewRouter(logger).Run(fmt.Sprintf(":%d", port))
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()
		c.Set(ConversionIDHeader, id)
		c.Header(ConversionIDHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.logger.Info("request",
			"id", c.GetString(ConversionIDHeader),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status())
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Header("Access-Control-Expose-Headers", ConversionIDHeader)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// healthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "osu2rush",
	})
}

// listFormats godoc
// @Summary List supported formats
// @Description Returns the accepted input formats and the produced output formats
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /api/v1/formats [get]
func listFormats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"inputs":  beatmap.Formats(),
		"outputs": []chart.OutputFormat{chart.OutputYAML, chart.OutputMIDI},
	})
}

// listClassifiers godoc
// @Summary List classifiers
// @Description Returns the classifiers that can be requested with the classifier query parameter
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]classifiers.Info
// @Router /api/v1/classifiers [get]
func listClassifiers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"classifiers": classifiers.List(),
	})
}

// handleConvert godoc
// @Summary Convert a chart
// @Description Upload an .osu or drum MIDI file and receive the converted chart with statistics
// @Tags convert
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Source chart"
// @Param config formData file false "YAML engine configuration"
// @Param classifier query string false "Classifier override (osu, taiko)"
// @Success 200 {object} ConvertResponse
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/v1/convert [post]
func (s *Server) handleConvert(c *gin.Context) {
	b, res, ok := s.convert(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ConvertResponse{
		ID:      c.GetString(ConversionIDHeader),
		Format:  string(b.Format),
		Summary: res.Summary,
		Chart:   res.Chart,
	})
}

// handleConvertYAML godoc
// @Summary Convert a chart to YAML
// @Description Upload an .osu or drum MIDI file and receive the converted chart as a YAML attachment
// @Tags convert
// @Accept multipart/form-data
// @Produce application/yaml
// @Param file formData file true "Source chart"
// @Param config formData file false "YAML engine configuration"
// @Param classifier query string false "Classifier override (osu, taiko)"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Router /api/v1/convert/yaml [post]
func (s *Server) handleConvertYAML(c *gin.Context) {
	_, res, ok := s.convert(c)
	if !ok {
		return
	}
	data, err := chart.Marshal(res.Chart)
	if err != nil {
		s.fail(c, err)
		return
	}
	attach(c, chart.OutputYAML, "application/yaml", data)
}

// handleConvertMIDI godoc
// @Summary Convert a chart to a MIDI preview
// @Description Upload an .osu or drum MIDI file and receive a General MIDI drum preview of the converted chart
// @Tags convert
// @Accept multipart/form-data
// @Produce audio/midi
// @Param file formData file true "Source chart"
// @Param config formData file false "YAML engine configuration"
// @Param classifier query string false "Classifier override (osu, taiko)"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Router /api/v1/convert/midi [post]
func (s *Server) handleConvertMIDI(c *gin.Context) {
	_, res, ok := s.convert(c)
	if !ok {
		return
	}
	data, err := chart.NewMIDIRenderer().Render(res.Chart.Title, res.Objects)
	if err != nil {
		s.fail(c, err)
		return
	}
	attach(c, chart.OutputMIDI, "audio/midi", data)
}

// convert decodes the uploaded file and runs it through the engine. On failure
// the error response has already been written.
func (s *Server) convert(c *gin.Context) (*beatmap.Beatmap, *chart.Result, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	// Get uploaded file
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return nil, nil, false
	}
	defer func() { _ = file.Close() }()

	// Read file content
	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return nil, nil, false
	}

	opts := chart.Options{
		Classifier: c.Query("classifier"),
		Logger:     s.logger.With("id", c.GetString(ConversionIDHeader)),
	}
	opts.Config, err = uploadedConfig(c)
	if err != nil {
		s.fail(c, err)
		return nil, nil, false
	}

	b, err := beatmap.Decode(data, header.Filename)
	if err != nil {
		s.fail(c, fmt.Errorf("%w: %w", errBadRequest, err))
		return nil, nil, false
	}
	c.Set("filename", header.Filename)

	res, err := chart.Convert(b, opts)
	if err != nil {
		s.fail(c, err)
		return nil, nil, false
	}
	return b, res, true
}

// uploadedConfig parses the optional "config" form file
func uploadedConfig(c *gin.Context) (*converter.Config, error) {
	file, _, err := c.Request.FormFile("config")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errBadRequest, err)
	}
	defer func() { _ = file.Close() }()

	cfg, err := converter.ParseConfig(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return &cfg, nil
}

func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, errBadRequest) || errors.Is(err, classifiers.ErrUnknownClassifier) {
		status = http.StatusBadRequest
	}
	s.logger.Warn("conversion failed", "id", c.GetString(ConversionIDHeader), "error", err)
	c.JSON(status, gin.H{"error": strings.TrimPrefix(err.Error(), errBadRequest.Error()+": ")})
}

func attach(c *gin.Context, format chart.OutputFormat, contentType string, data []byte) {
	outputName := chart.DefaultOutputPath(filepath.Base(c.GetString("filename")), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", outputName))
	c.Data(http.StatusOK, contentType, data)
}
