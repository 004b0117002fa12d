package router

import (
	"strconv"
	"strings"
	"time"

	"github.com/somar/dispatch/internal/config"
	"github.com/somar/dispatch/internal/constants"
	"github.com/somar/dispatch/internal/http/response"
	"github.com/somar/dispatch/internal/repository"
	"github.com/somar/dispatch/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDKey = "request_id"
const requestIDHeader = "X-Request-ID"

// CORSMiddleware handles cross-origin requests.
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	allowedMethods := cfg.AllowedMethods
	if len(allowedMethods) == 0 {
		allowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	allowedHeaders := cfg.AllowedHeaders
	if len(allowedHeaders) == 0 {
		allowedHeaders = []string{
			"Content-Type",
			"Content-Length",
			"Accept-Encoding",
			"Authorization",
			"Cache-Control",
			"X-Requested-With",
		}
	}
	methodsHeader := strings.Join(allowedMethods, ", ")
	headersHeader := strings.Join(allowedHeaders, ", ")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowedOrigin := resolveAllowedOrigin(origin, allowedOrigins, cfg.AllowCredentials)
		if allowedOrigin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			if allowedOrigin != "*" {
				c.Writer.Header().Add("Vary", "Origin")
			}
		}
		if cfg.AllowCredentials {
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", headersHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", methodsHeader)
		if cfg.MaxAge > 0 {
			c.Writer.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func resolveAllowedOrigin(origin string, allowedOrigins []string, allowCredentials bool) string {
	if len(allowedOrigins) == 0 {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			if allowCredentials && origin != "" {
				return origin
			}
			return "*"
		}
	}
	if origin == "" {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

// RequestIDMiddleware assigns or propagates the request id.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

// LoggerMiddleware writes one structured line per request.
func LoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.L()
	}
	sugar := logger.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log := sugar.With(
			"request_id", getRequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
		if len(c.Errors) > 0 {
			log.Errorw("request", "errors", c.Errors.String())
			return
		}
		log.Infow("request")
	}
}

func getRequestID(c *gin.Context) string {
	value, ok := c.Get(requestIDKey)
	if !ok {
		return ""
	}
	if requestID, ok := value.(string); ok {
		return requestID
	}
	return ""
}

// DispatcherJWTAuthMiddleware guards the dispatch dashboard routes.
func DispatcherJWTAuthMiddleware(secretKey string, dispatcherRepo repository.DispatcherRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseBearerClaims(c, secretKey)
		if !ok {
			return
		}
		if claims.Role != constants.RoleDispatcher || claims.SubjectID == 0 {
			response.Unauthorized(c, "token is not a dispatcher token")
			c.Abort()
			return
		}
		if dispatcherRepo == nil {
			response.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}

		dispatcher, err := dispatcherRepo.GetByID(claims.SubjectID)
		if err != nil || dispatcher == nil {
			response.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}
		if claims.TokenVersion != dispatcher.TokenVersion {
			response.Unauthorized(c, "token has been revoked")
			c.Abort()
			return
		}

		c.Set("dispatcher_id", claims.SubjectID)
		c.Set("dispatcher_username", dispatcher.Username)
		c.Next()
	}
}

// RiderJWTAuthMiddleware guards the rider app routes. A token carrying only
// an external identity (auth_uid, no rider row yet) is accepted so the
// profile fetch can provision the rider.
func RiderJWTAuthMiddleware(secretKey string, riderRepo repository.RiderRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseBearerClaims(c, secretKey)
		if !ok {
			return
		}
		if claims.Role != constants.RoleRider {
			response.Unauthorized(c, "token is not a rider token")
			c.Abort()
			return
		}
		if claims.SubjectID == 0 && strings.TrimSpace(claims.AuthUID) == "" {
			response.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}

		if claims.SubjectID != 0 {
			if riderRepo == nil {
				response.Unauthorized(c, "invalid token")
				c.Abort()
				return
			}
			rider, err := riderRepo.GetByID(claims.SubjectID)
			if err != nil || rider == nil {
				response.Unauthorized(c, "invalid token")
				c.Abort()
				return
			}
			if !rider.Active {
				response.Forbidden(c, "rider account is disabled")
				c.Abort()
				return
			}
			c.Set("rider_id", claims.SubjectID)
		}
		if authUID := strings.TrimSpace(claims.AuthUID); authUID != "" {
			c.Set("auth_uid", authUID)
		}
		if claims.Name != "" {
			c.Set("rider_name", claims.Name)
		}
		c.Next()
	}
}

func parseBearerClaims(c *gin.Context, secretKey string) (*service.JWTClaims, bool) {
	if secretKey == "" {
		response.Unauthorized(c, "jwt secret not configured")
		c.Abort()
		return nil, false
	}
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		response.Unauthorized(c, "authorization header missing")
		c.Abort()
		return nil, false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if !(len(parts) == 2 && parts[0] == "Bearer") {
		response.Unauthorized(c, "authorization header malformed")
		c.Abort()
		return nil, false
	}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &service.JWTClaims{}
	token, err := parser.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secretKey), nil
	})
	if err != nil || !token.Valid {
		response.Unauthorized(c, "invalid token")
		c.Abort()
		return nil, false
	}
	return claims, true
}
