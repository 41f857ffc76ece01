package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"motoserve/internal/auth"
	"motoserve/internal/booking"
	"motoserve/internal/catalog"
	"motoserve/internal/config"
	"motoserve/internal/email"
	"motoserve/internal/location"
	"motoserve/internal/user"
)

type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	db         *sqlx.DB
	config     *config.Config
	email      *email.Service
}

func New(db *sqlx.DB, cfg *config.Config, emailService *email.Service) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))

	userRepo := user.NewRepository(db)
	userHandler := user.NewHandler(user.NewService(userRepo, cfg.JWTSecret))

	catalogHandler := catalog.NewHandler(db)
	locationRepo := location.NewRepository(db)
	locationHandler := location.NewHandler(db)

	bookingService := booking.NewService(booking.NewRepository(db), locationRepo, emailService)
	bookingHandler := booking.NewHandler(bookingService)

	public := router.Group("/auth")
	{
		public.POST("/register", userHandler.Register)
		public.POST("/login", userHandler.Login)
		public.POST("/refresh", userHandler.Refresh)
	}

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", userHandler.GetMe)

		protected.GET("/offerings", catalogHandler.ListOfferings)
		protected.GET("/offerings/:offeringID", catalogHandler.GetOffering)
		protected.GET("/products", catalogHandler.ListProducts)
		protected.GET("/products/:productID", catalogHandler.GetProduct)
		protected.GET("/locations", locationHandler.ListLocations)
		protected.GET("/locations/:locationID", locationHandler.GetLocation)

		protected.POST("/bookings", bookingHandler.CreateBooking)
		protected.GET("/bookings", bookingHandler.ListMyBookings)
		protected.GET("/bookings/:bookingID", bookingHandler.GetBooking)
		protected.PATCH("/bookings/:bookingID", bookingHandler.UpdateBooking)
		protected.PATCH("/bookings/:bookingID/payment", bookingHandler.UpdateBookingPayment)
		protected.DELETE("/bookings/:bookingID", bookingHandler.DeleteBooking)
		protected.GET("/bookings/:bookingID/items", bookingHandler.GetLedger)
	}

	staffMiddleware := auth.RequireRole(auth.RoleAdmin, auth.RoleMechanic)
	adminMiddleware := auth.RequireRole(auth.RoleAdmin)

	admin := router.Group("/admin")
	admin.Use(authMiddleware)
	{
		staff := admin.Group("/")
		staff.Use(staffMiddleware)
		{
			staff.GET("/bookings", bookingHandler.ListAllBookings)
			staff.PATCH("/items/:itemID", bookingHandler.UpdateLineItem)
			staff.DELETE("/items/:itemID", bookingHandler.DeleteLineItem)
		}

		adminOnly := admin.Group("/")
		adminOnly.Use(adminMiddleware)
		{
			adminOnly.POST("/offerings", catalogHandler.CreateOffering)
			adminOnly.PATCH("/offerings/:offeringID", catalogHandler.UpdateOffering)
			adminOnly.DELETE("/offerings/:offeringID", catalogHandler.DeactivateOffering)
			adminOnly.POST("/products", catalogHandler.CreateProduct)
			adminOnly.PATCH("/products/:productID", catalogHandler.UpdateProduct)
			adminOnly.POST("/locations", locationHandler.CreateLocation)
			adminOnly.PATCH("/locations/:locationID", locationHandler.UpdateLocation)
		}
	}

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())
	SetupSwagger(router)

	return &Server{
		router: router,
		db:     db,
		config: cfg,
		email:  emailService,
	}
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) Start(port string) error {
	s.httpServer = &http.Server{
		Addr:    ":" + port,
		Handler: s.router,
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
