// Package service is the REST API of the contacts globe. It authenticates callers by the user id
// an upstream proxy puts into the X-User-Id header and maps the semantic errors of the engine to
// HTTP status codes.
package service

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gitlab.com/dirk.krummacker/contacts-globe/internal/apperror"
	"gitlab.com/dirk.krummacker/contacts-globe/internal/graph"
	"gitlab.com/dirk.krummacker/contacts-globe/internal/merge"
	"gitlab.com/dirk.krummacker/contacts-globe/internal/metrics"
	"gitlab.com/dirk.krummacker/contacts-globe/internal/store"
	apimodel "gitlab.com/dirk.krummacker/contacts-globe/pkg/model"
	"go.uber.org/zap"
)

// UserHeader carries the id of the authenticated user.
const UserHeader = "X-User-Id"

// RequestIDHeader carries the id of a request in the response.
const RequestIDHeader = "X-Request-Id"

const userIDKey = "userID"

// Enricher runs one enrichment batch for a user.
type Enricher interface {
	Run(ctx context.Context, userID string) (apimodel.EnrichResult, error)
}

// Server holds the dependencies of all handlers.
type Server struct {
	store           *store.Store
	graph           *graph.Service
	merger          *merge.Engine
	contactEnricher Enricher
	tripEnricher    Enricher
	log             *zap.Logger
	metrics         *metrics.Metrics
}

// New creates a server. The enrichers, log and m may be nil; without an enricher the
// corresponding endpoint answers 503.
func New(s *store.Store, contactEnricher, tripEnricher Enricher, log *zap.Logger, m *metrics.Metrics) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		store:           s,
		graph:           graph.NewService(s, log, m),
		merger:          merge.NewEngine(s, log, m),
		contactEnricher: contactEnricher,
		tripEnricher:    tripEnricher,
		log:             log,
		metrics:         m,
	}
}

// SetupHttpRouter initializes the REST API router and registers all endpoints. Request logging
// can be turned off, e.g. for load tests.
func (s *Server) SetupHttpRouter(requestLogging bool) *gin.Engine {
	router := gin.New()
	router.Use(requestID())
	if requestLogging {
		router.Use(ginLogger(s.log))
	} else {
		s.log.Info("Turning off HTTP request logging.")
	}
	router.Use(gin.Recovery())
	router.Use(s.observe())

	router.GET("/healthz", s.health)
	if s.metrics != nil {
		router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	api := router.Group("/", RequireUser())
	api.GET("/self", s.findSelf)
	api.GET("/contacts", s.findContacts)
	api.POST("/contacts", s.createContact)
	api.GET("/contacts/:id", s.findContactByID)
	api.PUT("/contacts/:id", s.updateContactByID)
	api.DELETE("/contacts/:id", s.deleteContactByID)
	api.POST("/contacts/:id/merge", s.mergeContacts)
	api.GET("/contacts/:id/connections", s.findConnectionsOfContact)
	api.GET("/contacts/:id/interactions", s.findInteractions)
	api.POST("/contacts/:id/interactions", s.createInteraction)
	api.GET("/contacts/:id/favors", s.findFavors)
	api.POST("/contacts/:id/favors", s.createFavor)
	api.PUT("/contacts/:id/tags/:tagId", s.attachTag)
	api.DELETE("/contacts/:id/tags/:tagId", s.detachTag)

	api.GET("/tags", s.findTags)
	api.POST("/tags", s.createTag)

	api.GET("/connections", s.findConnections)
	api.POST("/connections", s.createConnection)
	api.GET("/connections/countries", s.findCountryConnections)
	api.DELETE("/connections/:id", s.deleteConnectionByID)

	api.GET("/trips", s.findTrips)
	api.POST("/trips", s.createTrip)
	api.DELETE("/trips/:id", s.deleteTripByID)

	api.GET("/countries/visited", s.findVisitedCountries)
	api.POST("/countries/visited", s.createVisitedCountry)
	api.GET("/countries/wishlist", s.findWishlist)
	api.POST("/countries/wishlist", s.createWishlistCountry)

	api.POST("/enrich/contacts", s.enrichContacts)
	api.POST("/enrich/trips", s.enrichTrips)
	return router
}

// RequireUser rejects requests without a user id.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(UserHeader))
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": apperror.Unauthorized().Message})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// userID returns the id that RequireUser stored in the context.
func userID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// requestID assigns every request an id, or keeps the one the caller sent.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDHeader, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// ginLogger logs every request with zap.
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}
		log.Info("HTTP Request",
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
			zap.String("request_id", c.GetString(RequestIDHeader)),
			zap.String("user_id", c.GetString(userIDKey)),
		)
	}
}

// observe records request metrics by route template.
func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.ObserveHTTP(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

// health reports whether the database is reachable.
//
// Example REST API call:
//
//	> curl http://localhost:8080/healthz
func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		s.log.Warn("Health check failed", zap.Error(err))
		c.IndentedJSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"status": "ok"})
}

// respondError maps err to a status code and aborts the request with its message. Unexpected
// errors are logged and reported without details.
func (s *Server) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch apperror.KindOf(err) {
	case apperror.KindNotFound:
		status = http.StatusNotFound
	case apperror.KindValidation:
		status = http.StatusBadRequest
	case apperror.KindConflict:
		status = http.StatusConflict
	case apperror.KindUnauthorized:
		status = http.StatusUnauthorized
	default:
		s.log.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetString(RequestIDHeader)),
			zap.Error(err),
		)
	}
	c.AbortWithStatusJSON(status, gin.H{"message": apperror.MessageOf(err)})
}

// parseID reads a positive integer URL parameter. It aborts the request and returns false if the
// parameter is malformed.
func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "invalid " + name + " parameter"})
		return 0, false
	}
	return id, true
}

// bindJSON decodes the request body. It aborts the request and returns false if the body is not
// valid JSON for v.
func bindJSON(c *gin.Context, v any) bool {
	err := c.ShouldBindJSON(v)
	if err == nil {
		return true
	}
	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) && len(fieldErrors) > 0 {
		field := fieldErrors[0].Field()
		message := "missing or invalid field " + strings.ToLower(field[:1]) + field[1:]
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": message})
		return false
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid JSON"})
	return false
}
