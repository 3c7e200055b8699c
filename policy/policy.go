// Package policy holds every authorization rule in one place. All
// functions are pure: (actor, resource state) in, allow/deny out, default
// deny. Handlers and repo transactions call these and never re-derive role
// checks locally.
package policy

import "lab-loan-backend/models"

// Actor is the authenticated caller, as established by the session
// middleware. LaboratoryID is nil for unaffiliated users.
type Actor struct {
	ID           string
	Role         models.Role
	LaboratoryID *string
}

func (a Actor) admin() bool { return a.Role == models.RoleAdmin }

// scopedTo reports whether the actor is lab staff of the given laboratory.
func (a Actor) scopedTo(labID string) bool {
	return a.Role.LabStaff() && a.LaboratoryID != nil && *a.LaboratoryID == labID
}

// --- Laboratory ---

// Laboratory CRUD (including listing the CRUD surface) is admin-only; other
// roles only ever see lab names via joins.
func CanManageLaboratories(a Actor) bool { return a.admin() }

// --- Equipment ---

func CanReadEquipment(a Actor) bool { return a.ID != "" }

func CanManageEquipment(a Actor, labID string) bool {
	return a.admin() || a.scopedTo(labID)
}

// --- LoanRequest ---

func CanCreateLoan(a Actor) bool { return a.ID != "" }

func CanViewLoan(a Actor, l *models.LoanRequest) bool {
	return a.admin() || a.ID == l.RequesterID || a.scopedTo(l.LaboratoryID)
}

// Editing a request (quantity, dates, purpose, notes) is the requester's
// alone; staff act on it only through status transitions.
func CanEditLoan(a Actor, l *models.LoanRequest) bool {
	return a.ID == l.RequesterID
}

func CanTransitionLoan(a Actor, l *models.LoanRequest) bool {
	return a.admin() || a.scopedTo(l.LaboratoryID)
}

func CanDeleteLoan(a Actor, l *models.LoanRequest) bool {
	return a.admin() || a.ID == l.RequesterID || a.scopedTo(l.LaboratoryID)
}

// --- User ---

// CanCreateUser: admins create anyone; lab staff create only students
// inside their own laboratory.
func CanCreateUser(a Actor, role models.Role, labID *string) bool {
	if a.admin() {
		return true
	}
	if !a.Role.LabStaff() || role != models.RoleStudent {
		return false
	}
	return labID != nil && a.scopedTo(*labID)
}

// CanManageUser covers status toggles, edits and deletion of another user.
func CanManageUser(a Actor, target *models.User) bool {
	if a.admin() {
		return true
	}
	if !a.Role.LabStaff() || target.Role != models.RoleStudent {
		return false
	}
	return target.LaboratoryID != nil && a.scopedTo(*target.LaboratoryID)
}

func CanViewUser(a Actor, target *models.User) bool {
	return a.ID == target.ID || CanManageUser(a, target)
}

// CanAssignRole guards both creation and edits: nobody below admin hands
// out staff roles, and nobody changes their own role.
func CanAssignRole(a Actor, target *models.User, role models.Role) bool {
	if role == target.Role {
		return true
	}
	return a.admin() && a.ID != target.ID
}

// CanAssignLaboratory: self-assignment is never allowed; admins move
// anyone, lab staff only students into their own lab.
func CanAssignLaboratory(a Actor, target *models.User, labID *string) bool {
	if a.ID == target.ID {
		return labEqual(target.LaboratoryID, labID)
	}
	if a.admin() {
		return true
	}
	if !a.Role.LabStaff() || target.Role != models.RoleStudent {
		return false
	}
	return labID == nil || a.scopedTo(*labID)
}

func labEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// --- PasswordResetRequest ---

func CanListResets(a Actor) bool { return a.admin() || a.Role.LabStaff() }

func CanDecideReset(a Actor, target *models.User) bool {
	if a.admin() {
		return true
	}
	return target.LaboratoryID != nil && a.scopedTo(*target.LaboratoryID)
}

// --- AuditLog, reports ---

func CanReadAuditLogs(a Actor) bool { return a.admin() }

func CanExportReports(a Actor) bool { return a.admin() }
