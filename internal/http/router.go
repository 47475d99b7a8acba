package http

import (
	"github.com/gin-gonic/gin"

	"github.com/NayeyYe/BookManage/internal/auth"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies, improving testability
// and reducing parameter count.
func NewRouter(cfg RouterConfig) *gin.Engine {
	registerValidators()

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.HSTSMaxAge > 0 {
		router.Use(auth.StrictTransportSecurityMiddleware(cfg.HSTSMaxAge))
	}
	router.Use(CORSMiddleware(cfg.AllowedOrigins))

	var pinger Pinger
	if cfg.Database != nil {
		pinger = cfg.Database
	}
	healthController := NewHealthController(pinger, cfg.Version)
	router.GET("/health", healthController.Status)
	router.GET("/ping", healthController.Ping)
	router.GET("/connect", healthController.Connect)

	authenticated := cfg.AuthMiddleware.Authenticate()
	resolveAdmin := cfg.AuthMiddleware.ResolveAdmin()
	requireAdmin := cfg.AuthMiddleware.RequireAdmin()

	api := router.Group("/api")

	booksController := NewBooksController(cfg.Books)
	bookRoutes := api.Group("/books")
	{
		bookRoutes.GET("", booksController.ListBooks)
		bookRoutes.GET("/search", booksController.SearchBooks)
		bookRoutes.GET("/search/:query", booksController.SearchBooks)
		bookRoutes.GET("/:id", booksController.GetBook)
		bookRoutes.POST("", authenticated, requireAdmin, booksController.CreateBook)
		bookRoutes.PUT("/:id", authenticated, requireAdmin, booksController.UpdateBook)
		bookRoutes.DELETE("/:id", authenticated, requireAdmin, booksController.DeleteBook)
	}

	var userTypes UserTypeStore
	if cfg.Database != nil {
		userTypes = cfg.Database
	}
	usersController := NewUsersController(cfg.Accounts, cfg.Borrowers, userTypes, cfg.LoginLimiter)
	userRoutes := api.Group("/users")
	{
		if cfg.RegisterLimiter != nil {
			userRoutes.POST("/register", cfg.RegisterLimiter.Middleware(), usersController.Register)
		} else {
			userRoutes.POST("/register", usersController.Register)
		}
		userRoutes.POST("/login", usersController.Login)
		userRoutes.GET("/types", usersController.UserTypes)

		self := userRoutes.Group("/:id", authenticated, resolveAdmin)
		self.GET("", usersController.GetUser)
		self.PUT("", usersController.UpdateUser)
		self.PUT("/password", usersController.ChangePassword)
		self.GET("/borrowing-records", usersController.BorrowingRecords)
		self.GET("/fine-records", usersController.FineRecords)
	}

	borrowController := NewBorrowController(cfg.Circulation, cfg.Records)
	borrowRoutes := api.Group("/borrow", authenticated, resolveAdmin)
	{
		borrowRoutes.POST("/borrow", borrowController.Borrow)
		borrowRoutes.POST("/return", borrowController.Return)
		borrowRoutes.GET("/records", requireAdmin, borrowController.ListRecords)
		borrowRoutes.GET("/fines", requireAdmin, borrowController.ListFines)
	}

	adminController := NewAdminController(cfg.Borrowers, cfg.Records, cfg.LoginLogs, cfg.Accounts, cfg.Circulation)
	adminRoutes := api.Group("/admin", authenticated, requireAdmin)
	{
		adminRoutes.GET("/borrowing-records", adminController.BorrowingRecords)
		adminRoutes.GET("/fine-records", adminController.FineRecords)
		adminRoutes.GET("/login-logs", adminController.LoginLogs)
		adminRoutes.GET("/stats", adminController.Stats)
		adminRoutes.GET("/users", adminController.Users)
		adminRoutes.POST("/manage-user", adminController.ManageUser)
		adminRoutes.POST("/manage-admin", adminController.ManageAdmin)
		adminRoutes.POST("/fines/:id/pay", adminController.PayFine)
	}

	return router
}
