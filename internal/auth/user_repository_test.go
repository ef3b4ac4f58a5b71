package auth

import (
	"context"
	"errors"
	"testing"
)

func TestCreateAndGetUser(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository()

	user := seedTestUser(t, db, "alice@example.org", RolePatient)
	if user.ID == "" {
		t.Fatal("expected generated ID")
	}

	got, err := repo.GetByID(context.Background(), db, user.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Email != "alice@example.org" {
		t.Errorf("Email = %q, want %q", got.Email, "alice@example.org")
	}
	if got.Role != RolePatient {
		t.Errorf("Role = %q, want %q", got.Role, RolePatient)
	}
}

func TestGetByEmail_CaseInsensitive(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository()

	seedTestUser(t, db, "bob@example.org", RoleFarmer)

	got, err := repo.GetByEmail(context.Background(), db, "  BOB@Example.org ")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got.Email != "bob@example.org" {
		t.Errorf("Email = %q, want lowercased", got.Email)
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository()

	seedTestUser(t, db, "carol@example.org", RoleRinger)

	dup := &User{
		Name:         "Carol Again",
		Email:        "carol@example.org",
		PasswordHash: "x",
		Role:         RolePatient,
	}
	err := repo.Create(context.Background(), db, dup)
	if !errors.Is(err, ErrEmailExists) {
		t.Errorf("error = %v, want ErrEmailExists", err)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository()

	_, err := repo.GetByID(context.Background(), db, "usr-missing")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("error = %v, want ErrUserNotFound", err)
	}
}

func TestSetDevice(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository()

	user := seedTestUser(t, db, "dave@example.org", RoleFarmer)

	if err := repo.SetDevice(context.Background(), db, user.ID, "dev-abc123"); err != nil {
		t.Fatalf("SetDevice: %v", err)
	}

	got, err := repo.GetByID(context.Background(), db, user.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.DeviceRef != "dev-abc123" {
		t.Errorf("DeviceRef = %q, want %q", got.DeviceRef, "dev-abc123")
	}
}

func TestUpdateProfile(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository()

	user := seedTestUser(t, db, "erin@example.org", RoleCaretaker)
	user.Name = "Erin Renamed"
	user.Email = "Erin.Renamed@example.org"

	if err := repo.UpdateProfile(context.Background(), db, user); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}

	got, err := repo.GetByID(context.Background(), db, user.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Erin Renamed" {
		t.Errorf("Name = %q, want %q", got.Name, "Erin Renamed")
	}
	if got.Email != "erin.renamed@example.org" {
		t.Errorf("Email = %q, want lowercased", got.Email)
	}
}

func TestUpdatePassword_NotFound(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository()

	err := repo.UpdatePassword(context.Background(), db, "usr-missing", "hash")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("error = %v, want ErrUserNotFound", err)
	}
}

func TestListByRole(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository()

	seedTestUser(t, db, "p1@example.org", RolePatient)
	seedTestUser(t, db, "p2@example.org", RolePatient)
	seedTestUser(t, db, "c1@example.org", RoleCaretaker)

	patients, err := repo.ListByRole(context.Background(), db, RolePatient)
	if err != nil {
		t.Fatalf("ListByRole: %v", err)
	}
	if len(patients) != 2 {
		t.Errorf("len(patients) = %d, want 2", len(patients))
	}

	ringers, err := repo.ListByRole(context.Background(), db, RoleRinger)
	if err != nil {
		t.Fatalf("ListByRole: %v", err)
	}
	if len(ringers) != 0 {
		t.Errorf("len(ringers) = %d, want 0 (empty, not nil)", len(ringers))
	}
	if ringers == nil {
		t.Error("ListByRole should return empty slice, not nil")
	}
}
