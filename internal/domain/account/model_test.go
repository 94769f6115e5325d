package account_test

import (
	"testing"
	"time"

	"divecenter/internal/domain/account"
)

// TestAccount_Validate tests validation of Account.
func TestAccount_Validate(t *testing.T) {
	tests := []struct {
		name    string
		acct    account.Account
		wantErr bool
	}{
		{"valid admin", account.Account{Email: "admin@divecenter.example", Role: account.RoleAdmin}, false},
		{"valid staff", account.Account{Email: "desk@divecenter.example", Role: account.RoleStaff}, false},
		{"empty email", account.Account{Email: "", Role: account.RoleAdmin}, true},
		{"no at sign", account.Account{Email: "admin.example", Role: account.RoleAdmin}, true},
		{"bad role", account.Account{Email: "x@example.com", Role: "diver"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.acct.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Account.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestAccount_PasswordRoundTrip verifies hashing and verification.
func TestAccount_PasswordRoundTrip(t *testing.T) {
	a := account.Account{Email: "admin@divecenter.example", Role: account.RoleAdmin}

	if err := a.SetPassword("short"); err != account.ErrPasswordTooShort {
		t.Errorf("SetPassword(short) error = %v, want ErrPasswordTooShort", err)
	}
	if err := a.SetPassword(""); err != account.ErrEmptyPassword {
		t.Errorf("SetPassword(empty) error = %v, want ErrEmptyPassword", err)
	}

	if err := a.SetPassword("correct horse battery"); err != nil {
		t.Fatalf("SetPassword failed: %v", err)
	}
	if err := a.CheckPassword("correct horse battery"); err != nil {
		t.Errorf("CheckPassword(correct) error = %v", err)
	}
	if err := a.CheckPassword("wrong password!!"); err != account.ErrWrongPassword {
		t.Errorf("CheckPassword(wrong) error = %v, want ErrWrongPassword", err)
	}
}

// TestAccount_Lockout verifies failed-login accounting.
func TestAccount_Lockout(t *testing.T) {
	a := account.Account{Email: "admin@divecenter.example", Role: account.RoleAdmin}

	for i := 0; i < 4; i++ {
		a.RecordFailedLogin()
	}
	if a.IsLocked() {
		t.Error("account locked after 4 failures, want unlocked")
	}
	a.RecordFailedLogin()
	if !a.IsLocked() {
		t.Error("account not locked after 5 failures")
	}

	a.ResetFailedLogins()
	if a.IsLocked() || a.FailedLogins != 0 || !a.LockedUntil.Equal(time.Time{}) {
		t.Error("ResetFailedLogins did not clear lockout state")
	}
}
