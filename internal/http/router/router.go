package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/marketplace-backend/internal/config"
	"github.com/ignatzorin/marketplace-backend/internal/http/handlers"
	"github.com/ignatzorin/marketplace-backend/internal/http/middleware"
	"github.com/ignatzorin/marketplace-backend/internal/models"
	"github.com/ignatzorin/marketplace-backend/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	jobHandler *handlers.JobHandler,
	orderHandler *handlers.OrderHandler,
	walletHandler *handlers.WalletHandler,
	paymentHandler *handlers.PaymentHandler,
	freelancerHandler *handlers.FreelancerHandler,
	reviewHandler *handlers.ReviewHandler,
	notificationHandler *handlers.NotificationHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)
	r.StaticFS("/storage/proofs", http.Dir(cfg.ProofStoragePath))

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(5, cfg.RateLimitPeriod))
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
	}

	// Уведомления платёжных шлюзов: аутентификация подписью, без JWT.
	payGroup := api.Group("/payments")
	payGroup.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		payGroup.POST("/payhere/notify", paymentHandler.PayHereNotify)
		payGroup.POST("/stripe/webhook", paymentHandler.StripeWebhook)
	}

	// Публичные маршруты.
	api.GET("/ws", wsHandler.Handle)
	api.GET("/jobs", jobHandler.List)
	api.GET("/jobs/:id", middleware.UUIDValidator("id"), jobHandler.Get)
	api.GET("/freelancers/:id", middleware.UUIDValidator("id"), freelancerHandler.GetProfile)
	api.GET("/users/:id/reviews", middleware.UUIDValidator("id"), reviewHandler.ListFor)

	// Защищённые маршруты.
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.POST("/jobs", jobHandler.Create)
		protected.GET("/jobs/mine", jobHandler.Mine)
		protected.POST("/jobs/:id/proposals", middleware.UUIDValidator("id"), jobHandler.SubmitProposal)
		protected.GET("/jobs/:id/proposals", middleware.UUIDValidator("id"), jobHandler.ListProposals)
		protected.GET("/jobs/:id/suggestions", middleware.UUIDValidator("id"), freelancerHandler.Suggest)
		protected.GET("/proposals/mine", jobHandler.MyProposals)
		protected.POST("/proposals/:id/accept", middleware.UUIDValidator("id"), orderHandler.AcceptProposal)

		protected.GET("/orders", orderHandler.List)
		protected.POST("/orders/direct", orderHandler.DirectHire)
		protected.GET("/orders/:id", middleware.UUIDValidator("id"), orderHandler.Get)
		protected.POST("/orders/:id/deliver", middleware.UUIDValidator("id"), orderHandler.Deliver)
		protected.POST("/orders/:id/approve", middleware.UUIDValidator("id"), orderHandler.Approve)
		protected.POST("/orders/:id/revision", middleware.UUIDValidator("id"), orderHandler.RequestRevision)
		protected.POST("/orders/:id/dispute", middleware.UUIDValidator("id"), orderHandler.Dispute)
		protected.POST("/orders/:id/cancel", middleware.UUIDValidator("id"), orderHandler.Cancel)
		protected.POST("/orders/:id/proof", middleware.UUIDValidator("id"), orderHandler.UploadProof)
		protected.POST("/orders/:id/reviews", middleware.UUIDValidator("id"), reviewHandler.Submit)

		protected.GET("/wallet", walletHandler.Balance)
		protected.POST("/wallet/deposit", walletHandler.Deposit)
		protected.POST("/wallet/withdraw", walletHandler.Withdraw)
		protected.GET("/wallet/transactions", walletHandler.Transactions)

		protected.PUT("/freelancers/me", freelancerHandler.UpdateProfile)

		protected.GET("/notifications", notificationHandler.List)
		protected.POST("/notifications/:id/read", middleware.UUIDValidator("id"), notificationHandler.MarkAsRead)
		protected.POST("/notifications/read-all", notificationHandler.MarkAllAsRead)
	}

	// Администрирование: очередь споров и ручное подтверждение оплат.
	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(tokenManager), middleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("/disputes", orderHandler.ListDisputed)
		admin.POST("/disputes/:id/mediate", middleware.UUIDValidator("id"), orderHandler.Mediate)
		admin.POST("/orders/:id/confirm-payment", middleware.UUIDValidator("id"), paymentHandler.ConfirmManual)
	}

	return r
}
