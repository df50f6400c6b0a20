// Package router provides HTTP routing, middleware configuration, and server setup for the web application
package router

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/amirphl/dti-portal/app/dto"
	"github.com/amirphl/dti-portal/app/handlers"
	"github.com/amirphl/dti-portal/app/middleware"
	"github.com/amirphl/dti-portal/docs"
	"github.com/amirphl/dti-portal/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cache"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/gofiber/fiber/v3/middleware/static"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggo/swag"
)

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	GetApp() *fiber.App
}

// Options carries the deployment-dependent parts of the router
type Options struct {
	AllowOrigins  []string
	MediaRoot     string
	EnableDocs    bool
	EnableMetrics bool
	MetricsPath   string
	BlockedIPs    []string
}

// Handlers groups the HTTP handlers served by the router
type Handlers struct {
	Auth         handlers.AuthHandlerInterface
	Verification handlers.VerificationHandlerInterface
	Profile      handlers.ProfileHandlerInterface
	Notification handlers.NotificationHandlerInterface
	Admin        handlers.AdminHandlerInterface
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app            *fiber.App
	handlers       Handlers
	authMiddleware *middleware.AuthMiddleware
	options        Options
}

// NewFiberRouter creates a new Fiber router
func NewFiberRouter(h Handlers, authMiddleware *middleware.AuthMiddleware, options Options) Router {
	app := fiber.New(fiber.Config{
		AppName:      "DTI Portal API",
		ServerHeader: "DTI-Portal",
		ErrorHandler: errorHandler,
		BodyLimit:    6 * 1024 * 1024, // profile pictures are capped at 5MB
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	if options.MediaRoot == "" {
		options.MediaRoot = "./media"
	}
	if options.MetricsPath == "" {
		options.MetricsPath = "/metrics"
	}

	return &FiberRouter{
		app:            app,
		handlers:       h,
		authMiddleware: authMiddleware,
		options:        options,
	}
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	log.Println("Setting up routes...")

	r.setupMiddleware()

	if r.options.EnableMetrics {
		r.app.Get(r.options.MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))
	}

	// Uploaded profile pictures
	r.app.Get("/media*", static.New(r.options.MediaRoot))

	api := r.app.Group("/api/v1")

	// Health check route (no rate limiting)
	api.Get("/health", r.handlers.Auth.Health)

	if r.options.EnableDocs {
		api.Get("/swagger.json", r.serveSwaggerJSON)
		log.Println("API documentation enabled")
	}

	api.Use(limiter.New(limiter.Config{
		Max:          2000,
		Expiration:   1 * time.Minute,
		KeyGenerator: func(c fiber.Ctx) string { return c.IP() },
		LimitReached: rateLimitReached,
		Next: func(c fiber.Ctx) bool {
			return c.Path() == "/api/v1/health"
		},
	}))

	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:          20,
		Expiration:   1 * time.Minute,
		KeyGenerator: func(c fiber.Ctx) string { return c.IP() },
		LimitReached: rateLimitReached,
	}))

	auth.Post("/register", r.handlers.Auth.Register)
	auth.Get("/captcha", r.handlers.Auth.InitCaptcha)
	auth.Post("/login", r.handlers.Auth.Login)
	auth.Post("/refresh", r.handlers.Auth.Refresh)
	auth.Post("/logout", r.authMiddleware.Authenticate(), r.handlers.Auth.Logout)

	verification := api.Group("/verification", r.authMiddleware.Authenticate())
	verification.Post("/code", r.handlers.Verification.IssueCode)
	verification.Post("/verify", r.handlers.Verification.VerifyCode)

	profile := api.Group("/profile", r.authMiddleware.Authenticate())
	profile.Get("/", r.handlers.Profile.GetOwnProfile)
	profile.Put("/", r.handlers.Profile.UpdateProfile)
	profile.Post("/picture", r.handlers.Profile.UploadProfilePicture)
	profile.Get("/:id", r.handlers.Profile.GetProfile)

	notifications := api.Group("/notifications", r.authMiddleware.Authenticate())
	notifications.Get("/", r.handlers.Notification.ListUnread)
	notifications.Post("/:uuid/read", r.handlers.Notification.MarkRead)

	// Staff accounts may hold any role, so privileges are checked against
	// the stored account inside the flows rather than the token role.
	admin := api.Group("/admin", r.authMiddleware.Authenticate())
	admin.Get("/accounts", r.handlers.Admin.ListAccounts)
	admin.Get("/accounts/export", r.handlers.Admin.ExportAccounts)
	admin.Put("/accounts/:id", r.handlers.Admin.UpdateAccount)
	admin.Post("/accounts/:id/notifications", r.handlers.Admin.SendNotification)

	r.app.Use(r.notFoundHandler)

	log.Println("Routes configured successfully")
}

// setupMiddleware configures global middleware
func (r *FiberRouter) setupMiddleware() {
	// Request ID middleware - must be first
	r.app.Use(requestid.New(requestid.Config{
		Header:    "X-Request-ID",
		Generator: generateRequestID,
	}))

	r.app.Use(helmet.New(helmet.Config{
		XSSProtection:             "1; mode=block",
		ContentTypeNosniff:        "nosniff",
		XFrameOptions:             "DENY",
		HSTSMaxAge:                31536000,
		ContentSecurityPolicy:     "default-src 'self'; img-src 'self' data: https:; frame-ancestors 'none';",
		ReferrerPolicy:            "strict-origin-when-cross-origin",
		CrossOriginEmbedderPolicy: "require-corp",
		CrossOriginOpenerPolicy:   "same-origin",
		CrossOriginResourcePolicy: "cross-origin",
		OriginAgentCluster:        "?1",
		XDNSPrefetchControl:       "off",
		XDownloadOptions:          "noopen",
		XPermittedCrossDomain:     "none",
	}))

	if len(r.options.AllowOrigins) > 0 {
		r.app.Use(cors.New(cors.Config{
			AllowOrigins: r.options.AllowOrigins,
			AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
			AllowHeaders: []string{
				"Origin",
				"Content-Type",
				"Accept",
				"Authorization",
				"X-Requested-With",
				"X-Request-ID",
				"Cache-Control",
			},
			ExposeHeaders:    []string{"X-Request-ID", "X-Response-Time", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           utils.CORSMaxAge,
		}))
	}

	r.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
		Next: func(c fiber.Ctx) bool {
			contentType := c.Get("Content-Type")
			return strings.Contains(contentType, "image/") || strings.Contains(c.Path(), "/media")
		},
	}))

	// Only the health check is cacheable; everything else is per-account
	r.app.Use(cache.New(cache.Config{
		Next: func(c fiber.Ctx) bool {
			return c.Method() != fiber.MethodGet || c.Path() != "/api/v1/health"
		},
		Expiration:          5 * time.Second,
		DisableCacheControl: false,
	}))

	r.app.Use(logger.New(logger.Config{
		Format:     `{"time":"${time}","pid":"${pid}","request_id":"${locals:requestid}","level":"info","method":"${method}","path":"${path}","protocol":"${protocol}","ip":"${ip}","user_agent":"${ua}","status":${status},"latency":"${latency}","bytes_in":${bytesReceived},"bytes_out":${bytesSent},"referer":"${referer}"}` + "\n",
		TimeFormat: time.RFC3339,
		TimeZone:   "UTC",
		Next: func(c fiber.Ctx) bool {
			return c.Path() == "/api/v1/health"
		},
	}))

	if r.options.EnableMetrics {
		r.app.Use(middleware.Metrics())
	}

	r.app.Use(r.securityMiddleware)

	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e any) {
			log.Printf(`{"time":"%s","level":"error","request_id":"%s","event":"panic","error":"%v","path":"%s","method":"%s","ip":"%s"}`,
				utils.UTCNow().Format(time.RFC3339),
				c.Locals("requestid"),
				e,
				c.Path(),
				c.Method(),
				c.IP(),
			)
		},
	}))
}

func (r *FiberRouter) securityMiddleware(c fiber.Ctx) error {
	c.Set("X-Response-Time", utils.UTCNow().Format(time.RFC3339))

	clientIP := c.IP()
	for _, blockedIP := range r.options.BlockedIPs {
		if clientIP == blockedIP {
			return c.Status(fiber.StatusForbidden).JSON(dto.APIResponse{
				Success: false,
				Message: "Access denied from this IP address",
				Error:   dto.ErrorDetail{Code: "ACCESS_DENIED"},
			})
		}
	}

	return c.Next()
}

// Start starts the HTTP server
func (r *FiberRouter) Start(address string) error {
	log.Printf("Starting server on %s", address)
	return r.app.Listen(address)
}

// GetApp returns the Fiber app instance
func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

func (r *FiberRouter) serveSwaggerJSON(c fiber.Ctx) error {
	doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{
			Success: false,
			Message: "Failed to load Swagger documentation",
			Error:   dto.ErrorDetail{Code: "SWAGGER_LOAD_ERROR"},
		})
	}

	c.Set("Content-Type", "application/json")
	return c.SendString(doc)
}

func rateLimitReached(c fiber.Ctx) error {
	return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
		Success: false,
		Message: "Too many requests. Please try again later.",
		Error:   dto.ErrorDetail{Code: "RATE_LIMIT_EXCEEDED"},
	})
}

func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
		Success: false,
		Message: "The requested resource was not found",
		Error: dto.ErrorDetail{
			Code: "NOT_FOUND",
			Details: fiber.Map{
				"path":       c.Path(),
				"method":     c.Method(),
				"request_id": c.Locals("requestid"),
			},
		},
	})
}

// Global error handler
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "An internal server error occurred"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		if code < fiber.StatusInternalServerError {
			message = e.Message
		}
	}

	log.Printf("Error %d: %v", code, err)

	return c.Status(code).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code: "INTERNAL_ERROR",
			Details: fiber.Map{
				"timestamp":  utils.UTCNow().Unix(),
				"request_id": c.Locals("requestid"),
			},
		},
	})
}

// generateRequestID creates a unique request ID
func generateRequestID() string {
	bytes := make([]byte, 8)
	_, _ = rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
