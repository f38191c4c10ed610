package domain

import "time"

// Role represents a user role tag as issued by the backend
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleDirector Role = "director"

	RoleProductionManager    Role = "production_manager"
	RoleProductionSupervisor Role = "production_supervisor"
	RoleProductionScheduler  Role = "production_scheduler"
	RoleProductionOperator   Role = "production_operator"

	RoleAccountsManager    Role = "accounts_manager"
	RoleAccountsReceivable Role = "accounts_receivable"
	RoleAccountsPayable    Role = "accounts_payable"
	RoleAccountsClerk      Role = "accounts_clerk"

	RoleDispatchManager Role = "dispatch_manager"
	RoleDispatchOfficer Role = "dispatch_officer"

	RoleLogisticsManager     Role = "logistics_manager"
	RoleLogisticsCoordinator Role = "logistics_coordinator"
	RoleFleetSupervisor      Role = "fleet_supervisor"

	RoleMeasurementManager Role = "measurement_manager"
	RoleMeasurementOfficer Role = "measurement_officer"
	RoleSalesExecutive     Role = "sales_executive"

	RoleQualityInspector Role = "quality_inspector"
	RoleStoreKeeper      Role = "store_keeper"
)

// AllRoles lists every role the backend can issue.
// The client shell table must cover each of these.
var AllRoles = []Role{
	RoleAdmin, RoleDirector,
	RoleProductionManager, RoleProductionSupervisor, RoleProductionScheduler, RoleProductionOperator,
	RoleAccountsManager, RoleAccountsReceivable, RoleAccountsPayable, RoleAccountsClerk,
	RoleDispatchManager, RoleDispatchOfficer,
	RoleLogisticsManager, RoleLogisticsCoordinator, RoleFleetSupervisor,
	RoleMeasurementManager, RoleMeasurementOfficer, RoleSalesExecutive,
	RoleQualityInspector, RoleStoreKeeper,
}

// IsKnownRole reports whether the role tag is one the system issues
func IsKnownRole(role string) bool {
	for _, r := range AllRoles {
		if string(r) == role {
			return true
		}
	}
	return false
}

// Role groups used for measurement authorization.
// Capture roles create records, approver roles transition them,
// manager roles soft-delete and recover them.
var (
	MeasurementCaptureRoles  = []Role{RoleMeasurementOfficer, RoleSalesExecutive, RoleMeasurementManager, RoleAdmin}
	MeasurementApproverRoles = []Role{RoleMeasurementManager, RoleProductionManager, RoleDirector, RoleAdmin}
	MeasurementManagerRoles  = []Role{RoleMeasurementManager, RoleAdmin}
)

// MeasurementType classifies a measurement record
type MeasurementType string

const (
	TypeFrameSample    MeasurementType = "frame_sample"
	TypeShutterSample  MeasurementType = "shutter_sample"
	TypeRegularFrame   MeasurementType = "regular_frame"
	TypeRegularShutter MeasurementType = "regular_shutter"
)

// IsValidMeasurementType reports whether t is a known measurement type
func IsValidMeasurementType(t string) bool {
	switch MeasurementType(t) {
	case TypeFrameSample, TypeShutterSample, TypeRegularFrame, TypeRegularShutter:
		return true
	}
	return false
}

// ApprovalStatus is a measurement record's position in the approval flow
type ApprovalStatus string

const (
	StatusPendingApproval ApprovalStatus = "pending_approval"
	StatusApproved        ApprovalStatus = "approved"
	StatusRejected        ApprovalStatus = "rejected"
)

// User represents a user in the domain layer
type User struct {
	ID           uint
	Email        string
	Username     string
	Password     string // hashed
	Role         Role
	ProfileImage string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RefreshToken represents a refresh token in the domain
type RefreshToken struct {
	ID        uint
	UserID    uint
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
