package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/prepdesk/examprep-service/internal/config"
	"github.com/prepdesk/examprep-service/internal/events"
	"github.com/prepdesk/examprep-service/internal/mailer"
	"github.com/prepdesk/examprep-service/internal/models"
	"github.com/prepdesk/examprep-service/internal/validator"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment:     "test",
		FrontendBaseURL: "http://localhost:3000",
		JWT: config.JWTConfig{
			Secret:   "test-secret",
			TTLHours: 1,
		},
		AdminEmail:    "admin@test.local",
		AdminUsername: "admin",
		AdminPassword: "admin-password-123",
		AdminName:     "Administrator",
	}
}

type authFixture struct {
	svc       AuthService
	repo      *mockRepository
	mail      *mailer.DummyMailer
	publisher *events.MockEventPublisher
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	repo := newMockRepository()
	mail := mailer.NewDummyMailer()
	publisher := events.NewMockEventPublisher(logger)
	svc := NewAuthService(repo, logger, validator.New(), mail, publisher, testConfig())
	return &authFixture{svc: svc, repo: repo, mail: mail, publisher: publisher}
}

func signupReq() *SignupRequest {
	return &SignupRequest{
		Name:     "Ada Lovelace",
		Email:    "ada@example.com",
		Username: "ada1815",
		Password: "correct-horse-9",
	}
}

func TestAuthService_Signup(t *testing.T) {
	ctx := context.Background()

	t.Run("creates inactive account with activation token", func(t *testing.T) {
		f := newAuthFixture(t)

		resp, err := f.svc.Signup(ctx, signupReq())
		if err != nil {
			t.Fatalf("Signup: %v", err)
		}
		if resp.UserID == "" {
			t.Fatal("expected user id in response")
		}

		profile := f.repo.profiles[resp.UserID]
		if profile == nil {
			t.Fatal("profile row missing")
		}
		if profile.IsActive {
			t.Error("new account must start inactive")
		}
		if profile.Role != models.RoleStudent {
			t.Errorf("new account role = %s, want student", profile.Role)
		}

		if len(f.repo.activations) != 1 {
			t.Fatalf("activation tokens = %d, want 1", len(f.repo.activations))
		}

		sent := f.mail.SentMessages()
		if len(sent) != 1 {
			t.Fatalf("emails sent = %d, want 1", len(sent))
		}
		if sent[0].To != "ada@example.com" {
			t.Errorf("email to = %s", sent[0].To)
		}
		if !strings.Contains(sent[0].TextBody, "/auth/activate?token=") {
			t.Error("activation email missing activation link")
		}

		published := f.publisher.GetPublishedEvents()
		if len(published) != 1 || published[0].Type != events.EventUserSignedUp {
			t.Errorf("expected one %s event, got %+v", events.EventUserSignedUp, published)
		}
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		f := newAuthFixture(t)

		if _, err := f.svc.Signup(ctx, signupReq()); err != nil {
			t.Fatalf("first signup: %v", err)
		}
		_, err := f.svc.Signup(ctx, signupReq())
		if !errors.Is(err, ErrEmailTaken) {
			t.Errorf("duplicate signup err = %v, want ErrEmailTaken", err)
		}
	})

	t.Run("rejects invalid payload", func(t *testing.T) {
		f := newAuthFixture(t)

		req := signupReq()
		req.Password = "short"
		if _, err := f.svc.Signup(ctx, req); err == nil {
			t.Error("expected validation error for short password")
		}
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	login := func(f *authFixture, email, password string) (*models.SessionResponse, error) {
		return f.svc.Login(ctx, &LoginRequest{Email: email, Password: password})
	}

	t.Run("unknown email", func(t *testing.T) {
		f := newAuthFixture(t)
		_, err := login(f, "nobody@example.com", "whatever-123")
		if !errors.Is(err, ErrUserNotFound) {
			t.Errorf("err = %v, want ErrUserNotFound", err)
		}
	})

	t.Run("inactive account rejected before password check", func(t *testing.T) {
		f := newAuthFixture(t)
		resp, err := f.svc.Signup(ctx, signupReq())
		if err != nil {
			t.Fatalf("Signup: %v", err)
		}

		// Correct password, but the account was never activated.
		_, err = login(f, "ada@example.com", "correct-horse-9")
		if !errors.Is(err, ErrAccountNotActive) {
			t.Errorf("err = %v, want ErrAccountNotActive", err)
		}

		// Wrong password reports the same thing: the active check wins.
		_, err = login(f, "ada@example.com", "wrong-password")
		if !errors.Is(err, ErrAccountNotActive) {
			t.Errorf("err = %v, want ErrAccountNotActive", err)
		}
		_ = resp
	})

	t.Run("wrong password on active account", func(t *testing.T) {
		f := newAuthFixture(t)
		resp, _ := f.svc.Signup(ctx, signupReq())
		f.repo.profiles[resp.UserID].IsActive = true

		_, err := login(f, "ada@example.com", "wrong-password")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("err = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("successful login returns session", func(t *testing.T) {
		f := newAuthFixture(t)
		resp, _ := f.svc.Signup(ctx, signupReq())
		f.repo.profiles[resp.UserID].IsActive = true

		session, err := login(f, "ada@example.com", "correct-horse-9")
		if err != nil {
			t.Fatalf("Login: %v", err)
		}
		if session.AccessToken == "" {
			t.Error("expected access token")
		}
		if session.TokenType != "Bearer" {
			t.Errorf("token type = %s", session.TokenType)
		}
		if session.Profile == nil || session.Profile.Role != models.RoleStudent {
			t.Error("expected student profile in session")
		}
	})
}

func TestAuthService_Activate(t *testing.T) {
	ctx := context.Background()

	t.Run("activates and consumes token", func(t *testing.T) {
		f := newAuthFixture(t)
		resp, _ := f.svc.Signup(ctx, signupReq())

		var token string
		for k := range f.repo.activations {
			token = k
		}

		if err := f.svc.Activate(ctx, token); err != nil {
			t.Fatalf("Activate: %v", err)
		}
		if !f.repo.profiles[resp.UserID].IsActive {
			t.Error("profile not activated")
		}
		if !f.repo.users[resp.UserID].EmailConfirmed {
			t.Error("email not confirmed")
		}

		// Tokens are single use.
		if err := f.svc.Activate(ctx, token); !errors.Is(err, ErrTokenInvalid) {
			t.Errorf("second use err = %v, want ErrTokenInvalid", err)
		}
	})

	t.Run("expired token rejected and deleted", func(t *testing.T) {
		f := newAuthFixture(t)
		resp, _ := f.svc.Signup(ctx, signupReq())

		var token string
		for k, at := range f.repo.activations {
			token = k
			at.ExpiresAt = time.Now().Add(-time.Minute)
		}

		if err := f.svc.Activate(ctx, token); !errors.Is(err, ErrTokenInvalid) {
			t.Errorf("err = %v, want ErrTokenInvalid", err)
		}
		if len(f.repo.activations) != 0 {
			t.Error("expired token should be deleted")
		}
		if f.repo.profiles[resp.UserID].IsActive {
			t.Error("profile must stay inactive")
		}
	})

	t.Run("token expiring now is already expired", func(t *testing.T) {
		now := time.Now()
		token := models.ActivationToken{ExpiresAt: now}
		if !token.Expired(now) {
			t.Error("token with expiry equal to now must be expired")
		}
		if token.Expired(now.Add(-time.Nanosecond)) {
			t.Error("token must be valid just before its expiry")
		}
	})

	t.Run("unknown token", func(t *testing.T) {
		f := newAuthFixture(t)
		if err := f.svc.Activate(ctx, "no-such-token"); !errors.Is(err, ErrTokenInvalid) {
			t.Errorf("err = %v, want ErrTokenInvalid", err)
		}
	})
}

func TestAuthService_ForgotPassword(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown email succeeds without sending", func(t *testing.T) {
		f := newAuthFixture(t)
		if err := f.svc.ForgotPassword(ctx, "nobody@example.com"); err != nil {
			t.Fatalf("ForgotPassword: %v", err)
		}
		if len(f.mail.SentMessages()) != 0 {
			t.Error("no email should be sent for unknown addresses")
		}
		if len(f.repo.resets) != 0 {
			t.Error("no token should be created for unknown addresses")
		}
	})

	t.Run("inactive account succeeds without sending", func(t *testing.T) {
		f := newAuthFixture(t)
		f.svc.Signup(ctx, signupReq())
		f.mail.Clear()

		if err := f.svc.ForgotPassword(ctx, "ada@example.com"); err != nil {
			t.Fatalf("ForgotPassword: %v", err)
		}
		if len(f.mail.SentMessages()) != 0 {
			t.Error("no reset email for inactive accounts")
		}
	})

	t.Run("active account gets reset email and single live token", func(t *testing.T) {
		f := newAuthFixture(t)
		resp, _ := f.svc.Signup(ctx, signupReq())
		f.repo.profiles[resp.UserID].IsActive = true
		f.mail.Clear()

		if err := f.svc.ForgotPassword(ctx, "ada@example.com"); err != nil {
			t.Fatalf("ForgotPassword: %v", err)
		}
		if err := f.svc.ForgotPassword(ctx, "ada@example.com"); err != nil {
			t.Fatalf("second ForgotPassword: %v", err)
		}

		if got := len(f.repo.resets); got != 1 {
			t.Errorf("live reset tokens = %d, want 1", got)
		}
		sent := f.mail.SentMessages()
		if len(sent) != 2 {
			t.Fatalf("emails sent = %d, want 2", len(sent))
		}
		if !strings.Contains(sent[0].TextBody, "/auth/reset-password?token=") {
			t.Error("reset email missing reset link")
		}
	})
}

func TestAuthService_ResetPassword(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*authFixture, string, string) {
		t.Helper()
		f := newAuthFixture(t)
		resp, _ := f.svc.Signup(ctx, signupReq())
		f.repo.profiles[resp.UserID].IsActive = true
		if err := f.svc.ForgotPassword(ctx, "ada@example.com"); err != nil {
			t.Fatalf("ForgotPassword: %v", err)
		}
		var token string
		for k := range f.repo.resets {
			token = k
		}
		return f, token, resp.UserID
	}

	t.Run("valid token rotates password once", func(t *testing.T) {
		f, token, _ := setup(t)

		if err := f.svc.ResetPassword(ctx, token, "brand-new-pass-1"); err != nil {
			t.Fatalf("ResetPassword: %v", err)
		}

		if _, err := f.svc.Login(ctx, &LoginRequest{Email: "ada@example.com", Password: "correct-horse-9"}); !errors.Is(err, ErrInvalidCredentials) {
			t.Error("old password must stop working")
		}
		if _, err := f.svc.Login(ctx, &LoginRequest{Email: "ada@example.com", Password: "brand-new-pass-1"}); err != nil {
			t.Errorf("new password login: %v", err)
		}

		// Consumed token cannot be replayed.
		if err := f.svc.ResetPassword(ctx, token, "another-pass-123"); !errors.Is(err, ErrTokenInvalid) {
			t.Errorf("replay err = %v, want ErrTokenInvalid", err)
		}
	})

	t.Run("expired token rejected", func(t *testing.T) {
		f, token, _ := setup(t)
		f.repo.resets[token].ExpiresAt = time.Now().Add(-time.Second)

		if err := f.svc.ResetPassword(ctx, token, "brand-new-pass-1"); !errors.Is(err, ErrTokenInvalid) {
			t.Errorf("err = %v, want ErrTokenInvalid", err)
		}
	})
}

func TestAuthService_CreateAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("idempotent bootstrap", func(t *testing.T) {
		f := newAuthFixture(t)

		if err := f.svc.CreateAdmin(ctx); err != nil {
			t.Fatalf("CreateAdmin: %v", err)
		}
		if err := f.svc.CreateAdmin(ctx); err != nil {
			t.Fatalf("second CreateAdmin: %v", err)
		}

		if got := len(f.repo.users); got != 1 {
			t.Fatalf("users = %d, want 1", got)
		}
		for _, p := range f.repo.profiles {
			if p.Role != models.RoleAdmin {
				t.Errorf("role = %s, want admin", p.Role)
			}
			if !p.IsActive {
				t.Error("admin profile must be active")
			}
		}
	})

	t.Run("reactivates a deactivated admin", func(t *testing.T) {
		f := newAuthFixture(t)
		if err := f.svc.CreateAdmin(ctx); err != nil {
			t.Fatalf("CreateAdmin: %v", err)
		}
		for _, p := range f.repo.profiles {
			p.IsActive = false
		}

		if err := f.svc.CreateAdmin(ctx); err != nil {
			t.Fatalf("repair CreateAdmin: %v", err)
		}
		for _, p := range f.repo.profiles {
			if !p.IsActive {
				t.Error("admin profile should be reactivated")
			}
		}
	})

	t.Run("admin can log in with bootstrap credentials", func(t *testing.T) {
		f := newAuthFixture(t)
		if err := f.svc.CreateAdmin(ctx); err != nil {
			t.Fatalf("CreateAdmin: %v", err)
		}

		session, err := f.svc.Login(ctx, &LoginRequest{Email: "admin@test.local", Password: "admin-password-123"})
		if err != nil {
			t.Fatalf("admin login: %v", err)
		}
		if session.Profile.Role != models.RoleAdmin {
			t.Errorf("role = %s, want admin", session.Profile.Role)
		}
	})
}

func TestAuthService_FetchUserData(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	resp, _ := f.svc.Signup(ctx, signupReq())
	f.repo.profiles[resp.UserID].IsActive = true

	data, err := f.svc.FetchUserData(ctx, resp.UserID)
	if err != nil {
		t.Fatalf("FetchUserData: %v", err)
	}
	if data.User.Email != "ada@example.com" {
		t.Errorf("email = %s", data.User.Email)
	}
	// Student flags straight from the matrix.
	if !data.Questions.CanView || data.Questions.CanCreate {
		t.Errorf("student question flags = %+v", data.Questions)
	}
	if !data.Exams.CanView || data.Exams.CanCreate {
		t.Errorf("student exam flags = %+v", data.Exams)
	}
	if data.Users.CanView {
		t.Errorf("student user flags = %+v", data.Users)
	}
}
