package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"nutrilens/models"
)

type captureMailer struct {
	to, code string
}

func (m *captureMailer) SendPasswordReset(_ context.Context, to, code string) error {
	m.to, m.code = to, code
	return nil
}

func validRegistration(t *testing.T) RegisterInput {
	t.Helper()
	var in RegisterInput
	body := `{
		"username": "minji", "password": "s3cret!", "password2": "s3cret!",
		"email": "minji@example.com", "name": "Minji", "gender": "F",
		"age": 29, "height": 162.5, "weight": 54,
		"has_diabetes": true, "has_reflux": true, "has_unknown_thing": true,
		"is_vegetarian": false, "diet_goal": "maintain"
	}`
	if err := json.Unmarshal([]byte(body), &in); err != nil {
		t.Fatalf("decode registration: %v", err)
	}
	return in
}

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := NewAccountService(newTestDB(t), nil)

	user, err := svc.Register(ctx, validRegistration(t))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Password == "s3cret!" {
		t.Fatal("password stored in clear")
	}
	got := user.Conditions()
	if len(got) != 2 || got[0] != models.ConditionDiabetes || got[1] != models.ConditionReflux {
		t.Fatalf("conditions = %v", got)
	}

	authed, err := svc.Authenticate(ctx, "minji", "s3cret!")
	if err != nil || authed.ID != user.ID {
		t.Fatalf("Authenticate = %v, %v", authed, err)
	}
	if _, err := svc.Authenticate(ctx, "minji", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: err = %v", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody", "s3cret!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user: err = %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewAccountService(newTestDB(t), nil)

	cases := []struct {
		name  string
		edit  func(*RegisterInput)
		field string
	}{
		{"password mismatch", func(in *RegisterInput) { in.Password2 = "other" }, "non_field_errors"},
		{"missing username", func(in *RegisterInput) { in.Username = " " }, "username"},
		{"bad gender", func(in *RegisterInput) { in.Gender = "X" }, "gender"},
		{"missing age", func(in *RegisterInput) { in.Age = nil }, "age"},
		{"zero height", func(in *RegisterInput) { h := 0.0; in.Height = &h }, "height"},
		{"bad goal", func(in *RegisterInput) { in.DietGoal = "bulk" }, "diet_goal"},
		{"bad email", func(in *RegisterInput) { in.Email = "not-an-email" }, "email"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validRegistration(t)
			tc.edit(&in)
			_, err := svc.Register(ctx, in)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want *ValidationError", err)
			}
			if _, ok := verr.Fields[tc.field]; !ok {
				t.Fatalf("fields = %v, want %s", verr.Fields, tc.field)
			}
		})
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	svc := NewAccountService(newTestDB(t), nil)
	if _, err := svc.Register(ctx, validRegistration(t)); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, err := svc.Register(ctx, validRegistration(t))
	var verr *ValidationError
	if !errors.As(err, &verr) || len(verr.Fields["username"]) == 0 {
		t.Fatalf("err = %v", err)
	}
}

func TestUpdateProfilePartial(t *testing.T) {
	ctx := context.Background()
	svc := NewAccountService(newTestDB(t), nil)
	user, err := svc.Register(ctx, validRegistration(t))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	var upd ProfileUpdate
	if err := json.Unmarshal([]byte(`{"weight": 51.5, "has_diabetes": false, "has_gout": true}`), &upd); err != nil {
		t.Fatalf("decode update: %v", err)
	}
	updated, err := svc.UpdateProfile(ctx, user.ID, upd)
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if updated.Weight != 51.5 || updated.Height != 162.5 || updated.Name != "Minji" {
		t.Fatalf("updated = %+v", updated)
	}
	got := updated.Conditions()
	if len(got) != 2 || got[0] != models.ConditionGout || got[1] != models.ConditionReflux {
		t.Fatalf("conditions = %v", got)
	}

	bad := "loss-ish"
	var verr *ValidationError
	if _, err := svc.UpdateProfile(ctx, user.ID, ProfileUpdate{DietGoal: &bad}); !errors.As(err, &verr) {
		t.Fatalf("bad goal: err = %v", err)
	}
	if _, err := svc.UpdateProfile(ctx, 999, ProfileUpdate{}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("unknown user: err = %v", err)
	}
}

func TestProfileUpdateRejectsNonBoolFlag(t *testing.T) {
	var upd ProfileUpdate
	if err := json.Unmarshal([]byte(`{"has_gout": "yes"}`), &upd); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestPasswordReset(t *testing.T) {
	ctx := context.Background()
	mailer := &captureMailer{}
	svc := NewAccountService(newTestDB(t), mailer)
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	if _, err := svc.Register(ctx, validRegistration(t)); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := svc.RequestPasswordReset(ctx, "nobody"); err != nil {
		t.Fatalf("unknown user must not error: %v", err)
	}
	if err := svc.RequestPasswordReset(ctx, "minji"); err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	if mailer.to != "minji@example.com" || len(mailer.code) != resetCodeLength {
		t.Fatalf("mail = %+v", mailer)
	}

	if err := svc.ResetPassword(ctx, "minji", "WRONG1", "newpass"); !errors.Is(err, ErrInvalidResetCode) {
		t.Fatalf("wrong code: err = %v", err)
	}

	now = now.Add(resetCodeTTL + time.Second)
	if err := svc.ResetPassword(ctx, "minji", mailer.code, "newpass"); !errors.Is(err, ErrInvalidResetCode) {
		t.Fatalf("expired code: err = %v", err)
	}

	now = now.Add(-2 * time.Minute)
	if err := svc.ResetPassword(ctx, "minji", mailer.code, "newpass"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "minji", "newpass"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if err := svc.ResetPassword(ctx, "minji", mailer.code, "again"); !errors.Is(err, ErrInvalidResetCode) {
		t.Fatalf("code reused: err = %v", err)
	}
}

func TestUserResponseFlattensFlags(t *testing.T) {
	u := &models.User{Username: "a", Gender: "M"}
	u.ID = 4
	u.HasAnemia = true
	b, err := json.Marshal(UserResponse(u))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["has_anemia"] != true || m["has_gout"] != false || m["username"] != "a" || m["id"] != float64(4) {
		t.Fatalf("json = %s", b)
	}
}
