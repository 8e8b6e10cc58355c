package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/cosmos-learn-api/internal/middleware"
	"github.com/noah-isme/cosmos-learn-api/internal/models"
)

// Handlers bundles every HTTP handler mounted under the API prefix.
type Handlers struct {
	Auth         *AuthHandler
	Courses      *CourseHandler
	Checkout     *CheckoutHandler
	Progress     *ProgressHandler
	Community    *CommunityHandler
	Wishlist     *WishlistHandler
	Certificates *CertificateHandler
	Refunds      *RefundHandler
	Admin        *AdminHandler
	Metrics      *MetricsHandler
}

// RouteOptions carries the cross-cutting pieces the routes need.
type RouteOptions struct {
	Authenticator middleware.TokenAuthenticator
	AuthLimiter   gin.HandlerFunc
	Logger        *zap.Logger
}

// RegisterRoutes mounts the API under prefix on router.
func RegisterRoutes(router gin.IRouter, prefix string, h Handlers, opts RouteOptions) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	requireAuth := middleware.JWT(opts.Authenticator)
	optionalAuth := middleware.OptionalJWT(opts.Authenticator)
	staff := middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin)
	admin := middleware.RequireRoles(models.RoleAdmin)

	api := router.Group(prefix)

	auth := api.Group("/auth")
	if opts.AuthLimiter != nil {
		auth.Use(opts.AuthLimiter)
	}
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/oauth/google", h.Auth.OAuth)
		auth.POST("/instructor/apply", h.Auth.ApplyInstructor)
		auth.POST("/logout", requireAuth, h.Auth.Logout)
		auth.GET("/me", requireAuth, h.Auth.Me)
		auth.PUT("/profile", requireAuth, h.Auth.UpdateProfile)
	}

	courses := api.Group("/courses")
	{
		courses.GET("", h.Courses.Search)
		courses.GET("/:id", optionalAuth, h.Courses.Get)
		courses.GET("/:id/reviews", h.Community.ListReviews)
		courses.GET("/:id/questions", h.Community.ListQuestions)

		courses.POST("", requireAuth, staff, h.Courses.Create)
		courses.DELETE("/:id", requireAuth, staff, middleware.Audit(logger, "delete", "course"), h.Courses.Delete)
		courses.POST("/:id/enroll", requireAuth, h.Courses.Enroll)
		courses.GET("/:id/enrollment", requireAuth, h.Courses.Enrollment)
		courses.POST("/:id/reviews", requireAuth, h.Community.AddReview)
		courses.POST("/:id/questions", requireAuth, h.Community.AddQuestion)
	}
	api.GET("/instructor/courses", requireAuth, staff, h.Courses.Mine)
	api.POST("/questions/:questionId/answers", requireAuth, h.Community.AddAnswer)

	api.POST("/coupons/apply", h.Checkout.ApplyCoupon)
	checkout := api.Group("/checkout")
	{
		checkout.GET("/quote/:id", h.Checkout.Quote)
		checkout.POST("/purchase", requireAuth, h.Checkout.Purchase)
		checkout.POST("/subscription", requireAuth, h.Checkout.Subscribe)
	}

	progress := api.Group("/progress", requireAuth)
	{
		progress.GET("", h.Progress.List)
		progress.GET("/:id", h.Progress.Get)
		progress.POST("/:id/complete", h.Progress.Complete)
		progress.PUT("/:id/last-lesson", h.Progress.LastLesson)
	}

	wishlist := api.Group("/wishlist", requireAuth)
	{
		wishlist.GET("", h.Wishlist.List)
		wishlist.GET("/:id", h.Wishlist.Contains)
		wishlist.POST("/:id", h.Wishlist.Add)
		wishlist.DELETE("/:id", h.Wishlist.Remove)
	}

	certificates := api.Group("/certificates")
	{
		certificates.GET("/download", h.Certificates.Download)
		certificates.GET("", requireAuth, h.Certificates.List)
		certificates.GET("/:id", requireAuth, h.Certificates.Get)
		certificates.GET("/:id/download-url", requireAuth, h.Certificates.DownloadURL)
	}

	refunds := api.Group("/refunds", requireAuth)
	{
		refunds.POST("", h.Refunds.Request)
		refunds.GET("/:id", h.Refunds.Get)
	}

	adminGroup := api.Group("/admin", requireAuth, admin)
	{
		adminGroup.GET("/users", h.Admin.Users)
		adminGroup.DELETE("/users/:id", middleware.Audit(logger, "delete", "user"), h.Admin.DeleteUser)
		adminGroup.GET("/instructor-applications", h.Admin.Applications)
		adminGroup.POST("/instructor-applications/:id/approve", middleware.Audit(logger, "approve", "instructor_application"), h.Admin.ApproveApplication)
		adminGroup.POST("/instructor-applications/:id/reject", middleware.Audit(logger, "reject", "instructor_application"), h.Admin.RejectApplication)
		adminGroup.GET("/courses", h.Admin.Courses)
		adminGroup.POST("/courses/:id/approve", middleware.Audit(logger, "approve", "course"), h.Admin.ApproveCourse)
		adminGroup.POST("/courses/:id/reject", middleware.Audit(logger, "reject", "course"), h.Admin.RejectCourse)
		adminGroup.GET("/stats", h.Admin.Stats)
		adminGroup.GET("/coupons", h.Admin.Coupons)
		adminGroup.POST("/coupons", middleware.Audit(logger, "create", "coupon"), h.Admin.CreateCoupon)
		adminGroup.GET("/refunds", h.Refunds.List)
		adminGroup.GET("/refunds/export", h.Refunds.Export)
		adminGroup.POST("/refunds/:id/resolve", middleware.Audit(logger, "resolve", "refund"), h.Refunds.Resolve)
		adminGroup.GET("/metrics", h.Metrics.Snapshot)
	}
}
