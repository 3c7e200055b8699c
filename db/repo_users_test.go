package db

import (
	"testing"

	"lab-loan-backend/apperr"
	"lab-loan-backend/models"
)

func TestRegister(t *testing.T) {
	r := newTestRepo(t)

	u, err := r.Register(testCtx(), RegisterInput{
		Email:     "Budi@Example.EDU",
		FullName:  "Budi Santoso",
		StudentID: "2211001",
		Password:  "longenough",
	}, RequestMeta{})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Status != models.UserPendingVerification {
		t.Errorf("status = %s, want pending_verification", u.Status)
	}
	if u.Role != models.RoleStudent {
		t.Errorf("role = %s, want student", u.Role)
	}
	if u.Email != "budi@example.edu" {
		t.Errorf("email not normalized: %q", u.Email)
	}
	if n := countAudit(t, r, models.ActionRegister, u.ID); n != 1 {
		t.Errorf("audit rows = %d, want 1", n)
	}

	// Duplicate email is a field-level validation error.
	if _, err := r.Register(testCtx(), RegisterInput{
		Email: "budi@example.edu", FullName: "Other", Password: "longenough",
	}, RequestMeta{}); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("duplicate email: err = %v, want validation", err)
	}

	// Short password never reaches the database.
	if _, err := r.Register(testCtx(), RegisterInput{
		Email: "x@example.edu", FullName: "X", Password: "short",
	}, RequestMeta{}); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("short password: err = %v, want validation", err)
	}
}

func TestCreateUserScoping(t *testing.T) {
	r := newTestRepo(t)
	labX := seedLab(t, r, "LABX")
	labY := seedLab(t, r, "LABY")
	assistant := seedUser(t, r, models.RoleLabAssistant, labX)
	admin := seedUser(t, r, models.RoleAdmin, nil)

	// Staff-created accounts start active.
	u, err := r.CreateUser(testCtx(), actorOf(assistant), CreateUserInput{
		Email: "s1@example.edu", FullName: "S1", Password: "longenough",
		Role: models.RoleStudent, LaboratoryID: &labX.ID,
	}, RequestMeta{})
	if err != nil {
		t.Fatalf("assistant create student: %v", err)
	}
	if u.Status != models.UserActive {
		t.Errorf("status = %s, want active", u.Status)
	}
	if n := countAudit(t, r, models.ActionUserCreate, u.ID); n != 1 {
		t.Errorf("audit rows = %d, want 1", n)
	}

	// Assistants cannot create outside their lab, nor staff roles.
	if _, err := r.CreateUser(testCtx(), actorOf(assistant), CreateUserInput{
		Email: "s2@example.edu", FullName: "S2", Password: "longenough",
		Role: models.RoleStudent, LaboratoryID: &labY.ID,
	}, RequestMeta{}); !apperr.IsKind(err, apperr.KindUnauthorized) {
		t.Errorf("cross-lab create: err = %v, want unauthorized", err)
	}
	if _, err := r.CreateUser(testCtx(), actorOf(assistant), CreateUserInput{
		Email: "a2@example.edu", FullName: "A2", Password: "longenough",
		Role: models.RoleLabAssistant, LaboratoryID: &labX.ID,
	}, RequestMeta{}); !apperr.IsKind(err, apperr.KindUnauthorized) {
		t.Errorf("role elevation: err = %v, want unauthorized", err)
	}

	// Lab staff require an affiliation.
	if _, err := r.CreateUser(testCtx(), actorOf(admin), CreateUserInput{
		Email: "a3@example.edu", FullName: "A3", Password: "longenough",
		Role: models.RoleLabAssistant,
	}, RequestMeta{}); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("staff without lab: err = %v, want validation", err)
	}
}

func TestSetUserStatus(t *testing.T) {
	r := newTestRepo(t)
	admin := seedUser(t, r, models.RoleAdmin, nil)

	pending, err := r.Register(testCtx(), RegisterInput{
		Email: "p@example.edu", FullName: "P", Password: "longenough",
	}, RequestMeta{})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	u, err := r.SetUserStatus(testCtx(), actorOf(admin), pending.ID, models.UserActive, RequestMeta{})
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if u.Status != models.UserActive {
		t.Errorf("status = %s, want active", u.Status)
	}
	if n := countAudit(t, r, models.ActionUserStatusChange, u.ID); n != 1 {
		t.Errorf("audit rows = %d, want 1", n)
	}

	// pending_verification -> inactive is not an edge.
	pending2, _ := r.Register(testCtx(), RegisterInput{
		Email: "p2@example.edu", FullName: "P2", Password: "longenough",
	}, RequestMeta{})
	if _, err := r.SetUserStatus(testCtx(), actorOf(admin), pending2.ID, models.UserInactive, RequestMeta{}); !apperr.IsKind(err, apperr.KindStateConflict) {
		t.Errorf("pending->inactive: err = %v, want state conflict", err)
	}

	// The toggle goes both ways.
	if _, err := r.SetUserStatus(testCtx(), actorOf(admin), u.ID, models.UserInactive, RequestMeta{}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := r.SetUserStatus(testCtx(), actorOf(admin), u.ID, models.UserActive, RequestMeta{}); err != nil {
		t.Fatalf("reactivate: %v", err)
	}
}

func TestUpdateUserFieldRestrictions(t *testing.T) {
	r := newTestRepo(t)
	lab := seedLab(t, r, "PHY")
	student := seedUser(t, r, models.RoleStudent, nil)
	admin := seedUser(t, r, models.RoleAdmin, nil)

	// Self-edit of the name is fine.
	name := "New Name"
	u, err := r.UpdateUser(testCtx(), actorOf(student), student.ID, UpdateUserInput{FullName: &name}, RequestMeta{})
	if err != nil {
		t.Fatalf("self edit: %v", err)
	}
	if u.FullName != "New Name" {
		t.Errorf("fullName = %q", u.FullName)
	}

	// Self-elevation and self-assignment of a lab are denied.
	adminRole := models.RoleAdmin
	if _, err := r.UpdateUser(testCtx(), actorOf(student), student.ID, UpdateUserInput{Role: &adminRole}, RequestMeta{}); !apperr.IsKind(err, apperr.KindUnauthorized) {
		t.Errorf("self elevate: err = %v, want unauthorized", err)
	}
	if _, err := r.UpdateUser(testCtx(), actorOf(student), student.ID, UpdateUserInput{LaboratoryID: &lab.ID}, RequestMeta{}); !apperr.IsKind(err, apperr.KindUnauthorized) {
		t.Errorf("self lab assign: err = %v, want unauthorized", err)
	}

	// Admin can do both.
	dosen := models.RoleDosen
	if _, err := r.UpdateUser(testCtx(), actorOf(admin), student.ID, UpdateUserInput{Role: &dosen, LaboratoryID: &lab.ID}, RequestMeta{}); err != nil {
		t.Fatalf("admin edit: %v", err)
	}

	// A student cannot even see an unrelated user.
	other := seedUser(t, r, models.RoleStudent, nil)
	if _, err := r.UpdateUser(testCtx(), actorOf(other), student.ID, UpdateUserInput{FullName: &name}, RequestMeta{}); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("peer edit: err = %v, want not found", err)
	}
}

func TestListUsersScoping(t *testing.T) {
	r := newTestRepo(t)
	labX := seedLab(t, r, "LABX")
	labY := seedLab(t, r, "LABY")
	admin := seedUser(t, r, models.RoleAdmin, nil)
	assistant := seedUser(t, r, models.RoleLabAssistant, labX)
	seedUser(t, r, models.RoleStudent, labX)
	seedUser(t, r, models.RoleStudent, labY)
	student := seedUser(t, r, models.RoleStudent, nil)

	res, err := r.ListUsers(testCtx(), actorOf(admin), "", 1, 50)
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if res.Total != 5 {
		t.Errorf("admin total = %d, want 5", res.Total)
	}

	res, err = r.ListUsers(testCtx(), actorOf(assistant), "", 1, 50)
	if err != nil {
		t.Fatalf("assistant list: %v", err)
	}
	if res.Total != 1 {
		t.Errorf("assistant total = %d, want 1 (own lab students only)", res.Total)
	}

	if _, err := r.ListUsers(testCtx(), actorOf(student), "", 1, 50); !apperr.IsKind(err, apperr.KindUnauthorized) {
		t.Errorf("student list: err = %v, want unauthorized", err)
	}
}

// Out-of-scope user ids answer exactly like missing ones on every mutating
// path, so probing cannot confirm an account exists.
func TestUserMutationsMaskExistence(t *testing.T) {
	r := newTestRepo(t)
	labX := seedLab(t, r, "LABX")
	assistant := seedUser(t, r, models.RoleLabAssistant, labX)
	outside := seedUser(t, r, models.RoleStudent, nil)

	if _, err := r.SetUserStatus(testCtx(), actorOf(assistant), outside.ID, models.UserInactive, RequestMeta{}); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("out-of-scope status change: err = %v, want not found", err)
	}
	if err := r.DeleteUser(testCtx(), actorOf(assistant), outside.ID, RequestMeta{}); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("out-of-scope delete: err = %v, want not found", err)
	}
	missing := "00000000-0000-0000-0000-000000000000"
	if _, err := r.SetUserStatus(testCtx(), actorOf(assistant), missing, models.UserInactive, RequestMeta{}); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("missing id status change: err = %v, want not found", err)
	}
	if err := r.DeleteUser(testCtx(), actorOf(assistant), missing, RequestMeta{}); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("missing id delete: err = %v, want not found", err)
	}
}

func TestDeleteUser(t *testing.T) {
	r := newTestRepo(t)
	admin := seedUser(t, r, models.RoleAdmin, nil)
	victim := seedUser(t, r, models.RoleStudent, nil)

	if err := r.DeleteUser(testCtx(), actorOf(admin), admin.ID, RequestMeta{}); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("self delete: err = %v, want validation", err)
	}
	if err := r.DeleteUser(testCtx(), actorOf(admin), victim.ID, RequestMeta{}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := r.FindUserByID(testCtx(), victim.ID); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("deleted user still found: %v", err)
	}
	if n := countAudit(t, r, models.ActionUserDelete, victim.ID); n != 1 {
		t.Errorf("audit rows = %d, want 1", n)
	}
}
