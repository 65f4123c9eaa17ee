package services

import (
	"github.com/nimbuscrm/backend/internal/infrastructure/database"
	"github.com/nimbuscrm/backend/internal/infrastructure/persistence"
	"github.com/nimbuscrm/backend/pkg/expression"
)

// ServiceManager wires every service with its repositories. Handlers and
// middleware receive this single dependency.
type ServiceManager struct {
	db *database.Connection

	TxManager *persistence.TransactionManager

	Auth      *AuthService
	Tenants   *TenantService
	Audit     *AuditService
	Companies *CompanyService
	Customers *CustomerService
	Leads     *LeadService
	Deals     *DealService
	Payments  *PaymentService
	Templates *TemplateService
	Devices   *DeviceService
	Currency  *CurrencyService
	Reports   *ReportService
	Scheduler *SchedulerService
}

// NewServiceManager builds the repository and service graph on top of the
// shared connection.
func NewServiceManager(db *database.Connection) *ServiceManager {
	sm := &ServiceManager{db: db}

	userRepo := persistence.NewUserRepository(db)
	tenantRepo := persistence.NewTenantRepository(db)
	companyRepo := persistence.NewCompanyRepository(db)
	customerRepo := persistence.NewCustomerRepository(db)
	leadRepo := persistence.NewLeadRepository(db)
	dealRepo := persistence.NewDealRepository(db)
	billingRepo := persistence.NewBillingRepository(db)
	deviceRepo := persistence.NewDeviceRepository(db)
	currencyRepo := persistence.NewCurrencyRepository(db)
	auditRepo := persistence.NewAuditRepository(db)
	reportRepo := persistence.NewReportRepository(db)

	sm.TxManager = persistence.NewTransactionManager(db)
	exprEngine := expression.NewEngine()

	sm.Audit = NewAuditService(auditRepo)
	sm.Auth = NewAuthService(userRepo, tenantRepo)
	sm.Tenants = NewTenantService(tenantRepo, userRepo, sm.Audit)
	sm.Companies = NewCompanyService(companyRepo)
	sm.Customers = NewCustomerService(customerRepo, companyRepo, currencyRepo)
	sm.Leads = NewLeadService(leadRepo, dealRepo, companyRepo, sm.TxManager, sm.Audit)
	sm.Deals = NewDealService(dealRepo, billingRepo, sm.TxManager, sm.Audit)
	sm.Payments = NewPaymentService(billingRepo, sm.Audit)
	sm.Templates = NewTemplateService(deviceRepo, sm.TxManager, exprEngine)
	sm.Devices = NewDeviceService(deviceRepo, sm.Templates, exprEngine)
	sm.Currency = NewCurrencyService(currencyRepo)
	sm.Reports = NewReportService(reportRepo, sm.Audit)
	sm.Scheduler = NewSchedulerService(sm.Payments, sm.Templates)

	return sm
}
