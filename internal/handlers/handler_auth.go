package handlers

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"github.com/ulule/limiter/v3"
	limitergin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/gin-gonic/gin"
	"github.com/propops/property_ops_backend/internal/dto"
	"github.com/propops/property_ops_backend/internal/middleware"
	"github.com/propops/property_ops_backend/internal/platform/config"
	"github.com/propops/property_ops_backend/internal/utils"
)

// AuthHandler handles authentication related requests. The backend is
// single-operator: credentials come from configuration, not a user table.
type AuthHandler struct {
	operatorUsername     string
	operatorPasswordHash string
	jwtSecret            string
	jwtDuration          time.Duration
	jwtIssuer            string
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		operatorUsername:     cfg.OperatorUsername,
		operatorPasswordHash: cfg.OperatorPasswordHash,
		jwtSecret:            cfg.JWTSecret,
		jwtDuration:          cfg.JWTExpiryDuration,
		jwtIssuer:            cfg.JWTIssuer,
	}
}

// ErrorResponse is a generic error response structure for handlers.
type ErrorResponse struct {
	Error string `json:"error"`
}

// registerAuthRoutes sets up the routes for authentication.
func registerAuthRoutes(rg *gin.Engine, cfg *config.Config) {
	h := NewAuthHandler(cfg)

	// Rate limit: 5 login attempts per minute per IP
	rate, _ := limiter.NewRateFromFormatted("5-M")
	store := memory.NewStore()
	ipLimiter := limiter.New(store, rate)
	limitMiddleware := limitergin.NewMiddleware(ipLimiter)

	auth := rg.Group("/api/v1/auth")
	{
		auth.POST("/login", limitMiddleware, h.Login)
	}
}

// Login godoc
// @Summary Operator login
// @Description Authenticates the operator and returns a JWT token.
// @Tags auth
// @Accept json
// @Produce json
// @Param login body dto.LoginRequest true "Login Credentials"
// @Success 200 {object} dto.LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	usernameMatch := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.operatorUsername)) == 1
	if h.operatorPasswordHash == "" || !usernameMatch || !utils.CheckPasswordHash(req.Password, h.operatorPasswordHash) {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid username or password"})
		return
	}

	// Generate JWT Token
	signedString, err := utils.GenerateJWT(h.operatorUsername, h.jwtSecret, h.jwtDuration, h.jwtIssuer)
	if err != nil {
		logger := middleware.GetLoggerFromCtx(c.Request.Context())
		logger.Error("Failed to sign JWT token", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, dto.LoginResponse{
		Token:     signedString,
		TokenType: "Bearer",
		ExpiresIn: int(h.jwtDuration.Seconds()),
	})
}
