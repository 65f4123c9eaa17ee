package constants

// Membership roles within a tenant.
const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleMember     = "member"
)

// IsAdminRole reports whether a role may manage tenant settings and members.
func IsAdminRole(role string) bool {
	return role == RoleAdmin || role == RoleSuperAdmin
}

// Deal pipeline stages, in order. Won and Lost are terminal.
const (
	DealStageQualification = "qualification"
	DealStageProposal      = "proposal"
	DealStageNegotiation   = "negotiation"
	DealStageWon           = "won"
	DealStageLost          = "lost"
)

// DealPipeline is the forward order of the open stages.
var DealPipeline = []string{DealStageQualification, DealStageProposal, DealStageNegotiation}

// DealStageTerminal reports whether a stage ends the pipeline.
func DealStageTerminal(stage string) bool {
	return stage == DealStageWon || stage == DealStageLost
}

// ValidDealStage reports whether stage is a known pipeline stage.
func ValidDealStage(stage string) bool {
	if DealStageTerminal(stage) {
		return true
	}
	for _, s := range DealPipeline {
		if s == stage {
			return true
		}
	}
	return false
}

// Payment term workflow stages, maintained by the recommendation cascade.
const (
	PaymentStageScheduled = "scheduled"
	PaymentStageDueSoon   = "due_soon"
	PaymentStageOverdue   = "overdue"
	PaymentStagePaid      = "paid"
)

// DueSoonWindowDays is how far ahead a due date moves a payment to due_soon.
const DueSoonWindowDays = 14

// Lead lifecycle.
const (
	LeadStatusOpen      = "open"
	LeadStatusConverted = "converted"
)

// Lead source record kinds.
const (
	LeadKindCompany = "company"
	LeadKindContact = "contact"
	LeadKindSite    = "site"
)

// Template property types.
const (
	PropertyTypeText   = "text"
	PropertyTypeNumber = "number"
	PropertyTypeSelect = "select"
)

// Audit actions.
const (
	AuditStageChange   = "payment_stage_change"
	AuditDealWon       = "deal_won"
	AuditDealLost      = "deal_lost"
	AuditLeadConverted = "lead_converted"
	AuditMemberChange  = "membership_change"
	AuditAdminQuery    = "admin_query"
)
