package api

import (
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/mesmerism/api/docs"
	v1 "github.com/mesmerism/api/internal/api/handler/v1"
	"github.com/mesmerism/api/internal/api/middleware"
	"github.com/mesmerism/api/internal/config"
	"github.com/mesmerism/api/internal/domain"
	"github.com/mesmerism/api/internal/hub"
	"github.com/mesmerism/api/internal/repository"
	"github.com/mesmerism/api/internal/repository/dao"
	"github.com/mesmerism/api/internal/service"
	"github.com/mesmerism/api/internal/storage"
)

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine
	Hub    *hub.Hub

	WeekService *service.WeekService
}

func NewServer(conf *config.AppConfig, db *gorm.DB, uploader storage.Uploader) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
		Hub:    hub.NewHub(),
	}

	s.MountMiddlewares()

	userDAO := dao.NewUserDAO(db)
	weekDAO := dao.NewWeekDAO(db)
	chatDAO := dao.NewChatDAO(db)
	coinDAO := dao.NewCoinDAO(db)

	userRepo := repository.NewUserRepository(userDAO)
	weekRepo := repository.NewWeekRepository(weekDAO)
	chatRepo := repository.NewChatRepository(chatDAO)
	coinRepo := repository.NewCoinRepository(coinDAO)

	authSvc := service.NewAuthService(userRepo)
	userSvc := service.NewUserService(userRepo, uploader)
	weekSvc := service.NewWeekService(weekRepo)
	chatSvc := service.NewChatService(chatRepo, userRepo, s.Hub)
	leaderboardSvc := service.NewLeaderboardService(coinRepo, userRepo)
	voteSvc := service.NewVoteService(coinRepo, weekRepo, userRepo, leaderboardSvc, s.Hub, conf.API.CoinsPerVote)
	paymentSvc := service.NewPaymentService(coinRepo, s.Hub,
		conf.Stripe.SecretKey, conf.Stripe.WebhookSecret, conf.API.CoinPriceCents)
	suspensionSvc := service.NewSuspensionService(userRepo, s.Hub)

	s.WeekService = weekSvc

	authHandler := v1.NewAuthHandler(conf.API, authSvc)
	userHandler := v1.NewUserHandler(userSvc)
	weekHandler := v1.NewWeekHandler(weekSvc, leaderboardSvc)
	chatHandler := v1.NewChatHandler(chatSvc)
	voteHandler := v1.NewVoteHandler(voteSvc)
	paymentHandler := v1.NewPaymentHandler(paymentSvc)
	adminHandler := v1.NewAdminHandler(suspensionSvc, userSvc, paymentSvc)
	realtimeHandler := v1.NewRealtimeHandler(s.Hub, conf.API.JWTSigningKey)

	s.MountHandlers(userSvc, authHandler, userHandler, weekHandler, chatHandler, voteHandler, paymentHandler, adminHandler, realtimeHandler)

	return s
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(
	userSvc *service.UserService,
	authHandler *v1.AuthHandler,
	userHandler *v1.UserHandler,
	weekHandler *v1.WeekHandler,
	chatHandler *v1.ChatHandler,
	voteHandler *v1.VoteHandler,
	paymentHandler *v1.PaymentHandler,
	adminHandler *v1.AdminHandler,
	realtimeHandler *v1.RealtimeHandler,
) {
	const basePath = "/api/v1"

	verifyJWT := middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT()

	auth := s.Router.Group(basePath)
	{
		auth.POST("/auth/signup", authHandler.HandleSignup)
		auth.POST("/auth/login", authHandler.HandleLogin)
		auth.POST("/auth/refresh", authHandler.HandleRefresh)
	}

	// The provider calls this unauthenticated; the signature check is the auth.
	s.Router.POST(basePath+"/payments/webhook", paymentHandler.HandleProviderWebhook)

	// Token is carried in the query string during the upgrade handshake.
	s.Router.GET(basePath+"/realtime", realtimeHandler.HandleWebSocket)

	users := s.Router.Group(basePath, verifyJWT)
	{
		users.GET("/users/me", userHandler.HandleGetSelfOverview)
		users.GET("/users/me/balance", userHandler.HandleGetBalance)
		users.POST("/users/me/avatar", userHandler.HandleUploadAvatar)
		users.GET("/users/:userID", userHandler.HandleGetUser)
		users.GET("/users/:userID/profile", userHandler.HandleGetProfile)
	}

	weeks := s.Router.Group(basePath, verifyJWT)
	{
		weeks.GET("/weeks", weekHandler.HandleGetWeeks)
		weeks.GET("/weeks/current", weekHandler.HandleGetCurrentWeek)
		weeks.GET("/weeks/:weekID/leaderboard", weekHandler.HandleGetLeaderboard)
	}

	chat := s.Router.Group(basePath, verifyJWT)
	{
		chat.GET("/chat/messages", chatHandler.HandleGetMessages)
		chat.POST("/chat/messages", chatHandler.HandlePostMessage)
	}

	moderators := s.Router.Group(basePath, verifyJWT, middleware.RequireRole(userSvc, domain.RoleModerator))
	{
		moderators.DELETE("/chat/messages/:messageID", chatHandler.HandleDeleteMessage)
	}

	votes := s.Router.Group(basePath, verifyJWT)
	{
		votes.POST("/votes/purchase", voteHandler.HandlePurchaseVotes)
		votes.GET("/votes/rate", voteHandler.HandleGetVoteRate)
	}

	payments := s.Router.Group(basePath, verifyJWT)
	{
		payments.POST("/payments/topups", paymentHandler.HandleCreateTopup)
		payments.GET("/payments/topups", paymentHandler.HandleGetMyTopups)
		payments.GET("/payments/topups/:providerRef", paymentHandler.HandleGetTopup)
		payments.GET("/payments/ledger", paymentHandler.HandleGetMyLedger)
	}

	admin := s.Router.Group(basePath+"/admin", verifyJWT, middleware.RequireRole(userSvc, domain.RoleAdmin))
	{
		admin.POST("/suspensions", adminHandler.HandleSuspendUser)
		admin.GET("/suspensions/:userID", adminHandler.HandleGetSuspension)
		admin.DELETE("/suspensions/:userID", adminHandler.HandleClearSuspension)
		admin.POST("/roles", adminHandler.HandleGrantRole)
		admin.DELETE("/roles", adminHandler.HandleRevokeRole)
		admin.GET("/topups", adminHandler.HandleGetAllTopups)
		admin.POST("/announcements", chatHandler.HandlePostAnnouncement)
		admin.POST("/weeks", weekHandler.HandleCreateWeek)
		admin.PUT("/weeks/:weekID", weekHandler.HandleUpdateWeek)
		admin.POST("/weeks/:weekID/participants", weekHandler.HandleAddParticipant)
	}

	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "Mesmerism API"
	docs.SwaggerInfo.Description = "Creator voting competition: coins, votes, chat and the realtime channel."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
