package routes

import (
	"agri-market-api-server/internal/api/handlers"
	"agri-market-api-server/internal/api/middleware"
	"agri-market-api-server/internal/email"
	"agri-market-api-server/internal/ledger"
	"agri-market-api-server/internal/notify"
	"agri-market-api-server/internal/s3"
	"agri-market-api-server/internal/socket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

// SetupRouter wires handlers onto the /api/v1 surface.
func SetupRouter(
	db *mongo.Database,
	marketLedger *ledger.Ledger,
	sink *notify.Sink,
	s3Uploader *s3.Uploader,
	wsHub *socket.Hub,
	mailer *email.Service,
) *gin.Engine {
	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	authHandler := &handlers.AuthHandler{DB: db, Mail: mailer}
	userHandler := &handlers.UserHandler{DB: db}
	buyerHandler := &handlers.BuyerHandler{DB: db, Ledger: marketLedger, Sink: sink}
	farmerHandler := &handlers.FarmerHandler{DB: db, Ledger: marketLedger, Sink: sink, Uploader: s3Uploader}
	companyHandler := &handlers.CompanyHandler{DB: db}
	adminHandler := &handlers.AdminHandler{DB: db}
	notificationHandler := &handlers.NotificationHandler{DB: db}
	smsHandler := &handlers.SMSHandler{DB: db, Sink: sink}
	ivrHandler := &handlers.IVRHandler{DB: db}
	webSocketHandler := &handlers.WebSocketHandler{Hub: wsHub}

	apiV1 := router.Group("/api/v1")
	{
		apiV1.GET("/ws", webSocketHandler.ServeWs)

		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/check-mobile", authHandler.CheckMobile)
			auth.POST("/forgot-password", authHandler.ForgotPassword)
			auth.POST("/verify-otp", authHandler.VerifyOTP)
		}

		// Telephony provider webhooks. Secured by gateway configuration, not JWT.
		sms := apiV1.Group("/sms")
		{
			sms.POST("/incoming", smsHandler.HandleIncoming)
			sms.POST("/status", smsHandler.HandleStatusCallback)
		}
		ivr := apiV1.Group("/ivr")
		{
			ivr.POST("/incoming-call", ivrHandler.HandleIncomingCall)
			ivr.POST("/call-status", ivrHandler.HandleCallStatus)
			ivr.POST("/verify-pin", ivrHandler.VerifyPIN)
		}

		profile := apiV1.Group("/profile")
		profile.Use(middleware.Authenticate())
		{
			profile.GET("/", userHandler.GetMyProfile)
			profile.PUT("/", userHandler.UpdateMyProfile)
			profile.PUT("/password", userHandler.ChangePassword)
			profile.PUT("/pin", userHandler.SetPIN)
		}

		notifications := apiV1.Group("/notifications")
		notifications.Use(middleware.Authenticate())
		{
			notifications.GET("/", notificationHandler.GetMyNotifications)
			notifications.PUT("/read-all", notificationHandler.MarkAllRead)
			notifications.PUT("/:id/read", notificationHandler.MarkRead)
		}

		buyers := apiV1.Group("/buyers")
		buyers.Use(middleware.Authenticate())
		buyers.Use(middleware.Authorize("buyer"))
		{
			buyers.GET("/crops", buyerHandler.BrowseCrops)
			buyers.GET("/crops/:id", buyerHandler.GetCropDetails)
			buyers.POST("/crops/search", buyerHandler.SearchCrops)

			buyers.POST("/farmers/search", buyerHandler.SearchFarmers)
			buyers.GET("/farmers/:id", buyerHandler.GetFarmerDetails)

			buyers.GET("/wanted-crops", buyerHandler.GetWantedCrops)
			buyers.POST("/wanted-crops", buyerHandler.AddWantedCrop)
			buyers.PUT("/wanted-crops/:cropId", buyerHandler.UpdateWantedCrop)
			buyers.DELETE("/wanted-crops/:cropId", buyerHandler.DeleteWantedCrop)

			buyers.POST("/requests", buyerHandler.CreateRequest)
			buyers.GET("/requests", buyerHandler.GetMyRequests)
			buyers.GET("/requests/:id", buyerHandler.GetRequestDetails)
			buyers.PUT("/requests/:id/accept", buyerHandler.AcceptCounterOffer)
			buyers.PUT("/requests/:id/cancel", buyerHandler.CancelRequest)
			buyers.POST("/requests/:id/rate", buyerHandler.RateFarmer)

			buyers.GET("/dashboard", buyerHandler.GetDashboardStats)
		}

		companies := apiV1.Group("/companies")
		companies.Use(middleware.Authenticate())
		companies.Use(middleware.Authorize("buyer"))
		{
			companies.GET("/", companyHandler.GetMyCompany)
			companies.PUT("/", companyHandler.UpdateCompany)
			companies.GET("/dashboard", companyHandler.GetDashboard)
			companies.GET("/stock", companyHandler.GetStock)
			companies.POST("/employees", companyHandler.AddEmployee)
			companies.PUT("/employees/:employeeId", companyHandler.UpdateEmployee)
			companies.DELETE("/employees/:employeeId", companyHandler.RemoveEmployee)
		}

		farmers := apiV1.Group("/farmers")
		farmers.Use(middleware.Authenticate())
		farmers.Use(middleware.Authorize("farmer"))
		{
			farmers.POST("/crops", farmerHandler.AddCrop)
			farmers.GET("/crops", farmerHandler.GetMyCrops)
			farmers.GET("/crops/:id", farmerHandler.GetCropDetails)
			farmers.PUT("/crops/:id", farmerHandler.UpdateCrop)
			farmers.DELETE("/crops/:id", farmerHandler.DeleteCrop)
			farmers.POST("/crops/:id/images", farmerHandler.UploadCropImage)

			farmers.GET("/requests", farmerHandler.GetMyRequests)
			farmers.GET("/requests/:id", farmerHandler.GetRequestDetails)
			farmers.PUT("/requests/:id/accept", farmerHandler.AcceptRequest)
			farmers.PUT("/requests/:id/reject", farmerHandler.RejectRequest)
			farmers.PUT("/requests/:id/counter", farmerHandler.CounterOffer)
			farmers.PUT("/requests/:id/complete", farmerHandler.CompleteRequest)

			farmers.GET("/dashboard", farmerHandler.GetDashboardStats)
			farmers.GET("/call-logs", farmerHandler.GetCallLogs)
		}

		admin := apiV1.Group("/admin")
		admin.Use(middleware.Authenticate())
		admin.Use(middleware.Authorize("admin"))
		{
			admin.GET("/users", adminHandler.GetAllUsers)
			admin.GET("/users/:id", adminHandler.GetUserDetails)
			admin.PUT("/users/:id", adminHandler.UpdateUser)
			admin.GET("/analytics", adminHandler.GetAnalytics)
			admin.GET("/sms-logs", adminHandler.GetSMSLogs)
			admin.GET("/call-logs", adminHandler.GetCallLogs)
			admin.POST("/sms/send", smsHandler.Send)
		}
	}

	return router
}
