// Package shell is the single source of truth for role-based landing
// routes and navigation shells. Adding a role to the backend means
// adding exactly one row here; nothing else in the client branches on
// role strings.
package shell

import "framecraft/internal/core/domain"

// Route is a client navigation target
type Route string

// Routes shared by every shell
const (
	RouteLogin     Route = "/login"
	RouteDashboard Route = "/dashboard"
)

// Shell names the navigation chrome for one role: which sidebar and
// top bar variant render, and where the role lands after login.
type Shell struct {
	Sidebar string
	Navbar  string
	Home    Route
}

// fallback is the shell used for role tags the table does not know.
// Unknown roles still get a working, unprivileged UI.
var fallback = Shell{Sidebar: "basic", Navbar: "basic", Home: RouteDashboard}

var table = map[domain.Role]Shell{
	domain.RoleAdmin:    {Sidebar: "admin", Navbar: "admin", Home: "/admin/dashboard"},
	domain.RoleDirector: {Sidebar: "director", Navbar: "admin", Home: "/director/dashboard"},

	domain.RoleProductionManager:    {Sidebar: "production", Navbar: "production", Home: "/production/dashboard"},
	domain.RoleProductionSupervisor: {Sidebar: "production", Navbar: "production", Home: "/production/floor"},
	domain.RoleProductionScheduler:  {Sidebar: "production", Navbar: "production", Home: "/production/schedule"},
	domain.RoleProductionOperator:   {Sidebar: "production-lite", Navbar: "basic", Home: "/production/tasks"},

	domain.RoleAccountsManager:    {Sidebar: "accounts", Navbar: "accounts", Home: "/accounts/dashboard"},
	domain.RoleAccountsReceivable: {Sidebar: "accounts", Navbar: "accounts", Home: "/accounts/receivables"},
	domain.RoleAccountsPayable:    {Sidebar: "accounts", Navbar: "accounts", Home: "/accounts/payables"},
	domain.RoleAccountsClerk:      {Sidebar: "accounts-lite", Navbar: "basic", Home: "/accounts/entries"},

	domain.RoleDispatchManager: {Sidebar: "dispatch", Navbar: "dispatch", Home: "/dispatch/dashboard"},
	domain.RoleDispatchOfficer: {Sidebar: "dispatch", Navbar: "dispatch", Home: "/dispatch/orders"},

	domain.RoleLogisticsManager:     {Sidebar: "logistics", Navbar: "logistics", Home: "/logistics/dashboard"},
	domain.RoleLogisticsCoordinator: {Sidebar: "logistics", Navbar: "logistics", Home: "/logistics/trips"},
	domain.RoleFleetSupervisor:      {Sidebar: "logistics", Navbar: "logistics", Home: "/logistics/fleet"},

	domain.RoleMeasurementManager: {Sidebar: "measurement", Navbar: "production", Home: "/measurements/review"},
	domain.RoleMeasurementOfficer: {Sidebar: "measurement", Navbar: "basic", Home: "/measurements/capture"},
	domain.RoleSalesExecutive:     {Sidebar: "sales", Navbar: "basic", Home: "/measurements/capture"},

	domain.RoleQualityInspector: {Sidebar: "quality", Navbar: "production", Home: "/quality/inspections"},
	domain.RoleStoreKeeper:      {Sidebar: "stores", Navbar: "basic", Home: "/stores/stock"},
}

// Resolve returns the shell for a role, falling back to the basic
// shell for unknown tags. Pure and total.
func Resolve(role string) Shell {
	if s, ok := table[domain.Role(role)]; ok {
		return s
	}
	return fallback
}

// DestinationFor returns the landing route for a role
func DestinationFor(role string) Route {
	return Resolve(role).Home
}
