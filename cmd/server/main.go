package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/nimbuscrm/backend/internal/application/services"
	"github.com/nimbuscrm/backend/internal/bootstrap"
	"github.com/nimbuscrm/backend/internal/infrastructure/database"
	"github.com/nimbuscrm/backend/internal/interfaces/middleware"
	"github.com/nimbuscrm/backend/internal/interfaces/rest"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded .env")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}

	db, err := database.GetInstance()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Database connection established")

	if err := bootstrap.InitializeSchema(db); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}
	if err := bootstrap.InitializeSystemData(db); err != nil {
		log.Fatalf("Failed to initialize system data: %v", err)
	}

	svcMgr := services.NewServiceManager(db)
	log.Println("Service manager initialized")

	router := gin.Default()
	router.Use(middleware.Cors())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Handlers
	authHandler := rest.NewAuthHandler(svcMgr)
	tenantHandler := rest.NewTenantHandler(svcMgr)
	companyHandler := rest.NewCompanyHandler(svcMgr)
	customerHandler := rest.NewCustomerHandler(svcMgr)
	leadHandler := rest.NewLeadHandler(svcMgr)
	dealHandler := rest.NewDealHandler(svcMgr)
	billingHandler := rest.NewBillingHandler(svcMgr)
	deviceHandler := rest.NewDeviceHandler(svcMgr)
	currencyHandler := rest.NewCurrencyHandler(svcMgr)
	reportHandler := rest.NewReportHandler(svcMgr)
	auditHandler := rest.NewAuditHandler(svcMgr)

	// Middleware
	requireAuth := middleware.RequireAuth(svcMgr.Auth)
	requireTenant := middleware.RequireTenant(svcMgr.Tenants)
	requireTenantAdmin := middleware.RequireTenantAdmin()
	requireSuperUser := middleware.RequireSuperUser()

	api := router.Group("/api")
	{
		// Auth routes; signup and login are public.
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", requireAuth, authHandler.Logout)
			auth.GET("/me", requireAuth, authHandler.Me)
			auth.POST("/change-password", requireAuth, authHandler.ChangePassword)
		}

		// Tenant management needs a user but no tenant header.
		tenants := api.Group("/tenants")
		tenants.Use(requireAuth)
		{
			tenants.POST("", tenantHandler.CreateTenant)
			tenants.GET("", tenantHandler.MyTenants)
		}

		// Membership management is tenant-scoped; writes are admin only.
		members := api.Group("/members")
		members.Use(requireAuth, requireTenant)
		{
			members.GET("", tenantHandler.Members)
			members.POST("", requireTenantAdmin, tenantHandler.AddMember)
			members.PUT("/:id", requireTenantAdmin, tenantHandler.ChangeRole)
			members.DELETE("/:id", requireTenantAdmin, tenantHandler.RemoveMember)
		}

		// Currencies are global: reads for any authenticated user, writes
		// for server super users.
		currencies := api.Group("/currencies")
		currencies.Use(requireAuth)
		{
			currencies.GET("", currencyHandler.List)
			currencies.GET("/:code", currencyHandler.Get)
			currencies.PUT("", requireSuperUser, currencyHandler.Upsert)
			currencies.DELETE("/:code", requireSuperUser, currencyHandler.Delete)
		}

		// Everything below is tenant-scoped business data.
		scoped := api.Group("")
		scoped.Use(requireAuth, requireTenant)
		{
			companies := scoped.Group("/companies")
			{
				companies.GET("", companyHandler.ListCompanies)
				companies.GET("/:id", companyHandler.GetCompany)
				companies.POST("", companyHandler.CreateCompany)
				companies.PUT("/:id", companyHandler.UpdateCompany)
				companies.DELETE("/:id", companyHandler.DeleteCompany)
			}

			contacts := scoped.Group("/contacts")
			{
				contacts.GET("", companyHandler.ListContacts)
				contacts.GET("/:id", companyHandler.GetContact)
				contacts.POST("", companyHandler.CreateContact)
				contacts.PUT("/:id", companyHandler.UpdateContact)
				contacts.DELETE("/:id", companyHandler.DeleteContact)
			}

			sites := scoped.Group("/sites")
			{
				sites.GET("", companyHandler.ListSites)
				sites.GET("/:id", companyHandler.GetSite)
				sites.POST("", companyHandler.CreateSite)
				sites.PUT("/:id", companyHandler.UpdateSite)
				sites.DELETE("/:id", companyHandler.DeleteSite)
			}

			customers := scoped.Group("/customers")
			{
				customers.GET("", customerHandler.ListCustomers)
				customers.GET("/:id", customerHandler.GetCustomer)
				customers.POST("", customerHandler.CreateCustomer)
				customers.PUT("/:id", customerHandler.UpdateCustomer)
				customers.DELETE("/:id", customerHandler.DeleteCustomer)
			}

			projects := scoped.Group("/projects")
			{
				projects.GET("", customerHandler.ListProjects)
				projects.GET("/:id", customerHandler.GetProject)
				projects.POST("", customerHandler.CreateProject)
				projects.PUT("/:id", customerHandler.UpdateProject)
				projects.DELETE("/:id", customerHandler.DeleteProject)
			}

			leads := scoped.Group("/leads")
			{
				leads.GET("", leadHandler.ListLeads)
				leads.GET("/:id", leadHandler.GetLead)
				leads.POST("", leadHandler.CreateLead)
				leads.PUT("/:id", leadHandler.UpdateLead)
				leads.DELETE("/:id", leadHandler.DeleteLead)
				leads.POST("/:id/convert", leadHandler.Convert)
			}

			deals := scoped.Group("/deals")
			{
				deals.GET("", dealHandler.ListDeals)
				deals.GET("/:id", dealHandler.GetDeal)
				deals.POST("", dealHandler.CreateDeal)
				deals.PUT("/:id", dealHandler.UpdateDeal)
				deals.DELETE("/:id", dealHandler.DeleteDeal)
				deals.PUT("/:id/stage", dealHandler.MoveStage)
				deals.POST("/:id/close", dealHandler.CloseWon)
			}

			// Contracts are created by winning a deal, so no POST here.
			contracts := scoped.Group("/contracts")
			{
				contracts.GET("", billingHandler.ListContracts)
				contracts.GET("/:id", billingHandler.GetContract)
				contracts.PUT("/:id", billingHandler.UpdateContract)
				contracts.DELETE("/:id", billingHandler.DeleteContract)
			}

			terms := scoped.Group("/payment-terms")
			{
				terms.GET("", billingHandler.ListPaymentTerms)
				terms.GET("/:id", billingHandler.GetPaymentTerm)
				terms.POST("", billingHandler.CreatePaymentTerm)
				terms.PUT("/:id", billingHandler.UpdatePaymentTerm)
				terms.DELETE("/:id", billingHandler.DeletePaymentTerm)
				terms.GET("/:id/todos", billingHandler.ListTodos)
				terms.POST("/:id/todos", billingHandler.AddTodo)
			}

			todos := scoped.Group("/todos")
			{
				todos.PUT("/:id", billingHandler.SetTodoDone)
				todos.DELETE("/:id", billingHandler.DeleteTodo)
			}

			templates := scoped.Group("/templates")
			{
				templates.GET("", deviceHandler.ListTemplates)
				templates.GET("/:id", deviceHandler.GetTemplate)
				templates.POST("", deviceHandler.CreateTemplate)
				templates.PUT("/:id", deviceHandler.UpdateTemplate)
				templates.DELETE("/:id", deviceHandler.DeleteTemplate)
				templates.POST("/:id/preview", deviceHandler.Preview)
				templates.GET("/:id/draft", deviceHandler.GetDraft)
				templates.PUT("/:id/draft", deviceHandler.SaveDraft)
				templates.DELETE("/:id/draft", deviceHandler.DiscardDraft)
			}

			devices := scoped.Group("/devices")
			{
				devices.GET("", deviceHandler.ListDevices)
				devices.GET("/:id", deviceHandler.GetDevice)
				devices.POST("", deviceHandler.CreateDevice)
				devices.PUT("/:id", deviceHandler.UpdateDevice)
				devices.DELETE("/:id", deviceHandler.DeleteDevice)
			}

			reports := scoped.Group("/reports")
			{
				reports.GET("/pipeline", reportHandler.DealPipeline)
				reports.GET("/revenue", reportHandler.RevenueByMonth)
				reports.GET("/overdue", reportHandler.OverduePayments)
				reports.POST("/query", requireSuperUser, reportHandler.RunQuery)
			}

			audit := scoped.Group("/audit")
			{
				audit.GET("/:entityType/:entityId", auditHandler.ListForEntity)
			}
		}
	}

	if err := svcMgr.Scheduler.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	go func() {
		log.Printf("Server listening on http://localhost:%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	svcMgr.Scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	log.Println("Server exiting")
}
