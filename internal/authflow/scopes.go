// internal/authflow/scopes.go
package authflow

// Scopes is the fixed permission set requested during authorization. The
// provider matches it verbatim, so the enumeration is spelled out in full:
// identity + offline access first, then the per-domain read/write scopes
// for accounting, assets, projects and payroll.
var Scopes = []string{
	"offline_access",
	"openid",
	"profile",
	"email",
	"accounting.transactions",
	"accounting.contacts",
	"accounting.settings",
	"accounting.attachments",
	"accounting.journals.read",
	"accounting.reports.read",
	"assets",
	"assets.read",
	"projects",
	"projects.read",
	"payroll.employees",
	"payroll.payruns",
	"payroll.payslip",
	"payroll.timesheets",
	"payroll.settings",
}
