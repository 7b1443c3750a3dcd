package application

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	repo "github.com/oksasatya/go-ddd-user-admin/internal/domain/repository"
	"github.com/oksasatya/go-ddd-user-admin/pkg/helpers"
	"github.com/oksasatya/go-ddd-user-admin/pkg/mailer"
	"github.com/oksasatya/go-ddd-user-admin/pkg/response"
)

// MinPasswordLength matches the pwd validation alias.
const MinPasswordLength = 8

type ChangePasswordInput struct {
	OldPassword string
	Password    string
	RePassword  string
}

// Result carries the business code the handler writes into the envelope.
type Result struct {
	Code int
}

// PasswordService owns every rule of the change-password operation.
type PasswordService struct {
	Users  repo.UserRepository
	Redis  *redis.Client
	Logger *logrus.Logger
	Pub    Publisher
	// RevokeTTL bounds how long the change marker lives; after one access
	// token lifetime no older token can still be valid.
	RevokeTTL time.Duration

	now func() time.Time
}

func NewPasswordService(users repo.UserRepository, rdb *redis.Client, logger *logrus.Logger, pub Publisher, revokeTTL time.Duration) *PasswordService {
	return &PasswordService{Users: users, Redis: rdb, Logger: logger, Pub: pub, RevokeTTL: revokeTTL, now: time.Now}
}

func (s *PasswordService) ChangePassword(ctx context.Context, userID int64, in ChangePasswordInput) Result {
	if in.OldPassword == "" || in.Password == "" || in.RePassword == "" {
		return Result{Code: response.CodeInvalidInput}
	}
	if in.Password != in.RePassword {
		return Result{Code: response.CodePasswordMismatch}
	}
	if len(in.Password) < MinPasswordLength {
		return Result{Code: response.CodeInvalidInput}
	}

	u, err := s.Users.FindByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return Result{Code: response.CodeUserNotFound}
	}
	if err != nil {
		s.warn(err, "load user for password change failed", userID)
		return Result{Code: response.CodeFailed}
	}
	if !helpers.CompareHashAndPassword(u.Password, in.OldPassword) {
		return Result{Code: response.CodeOldPasswordWrong}
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		s.warn(err, "hash password failed", userID)
		return Result{Code: response.CodeFailed}
	}
	if err := s.Users.UpdatePassword(ctx, userID, hash); err != nil {
		s.warn(err, "update password failed", userID)
		return Result{Code: response.CodeFailed}
	}

	now := s.now()
	if s.Redis != nil {
		if err := s.Redis.Set(ctx, helpers.KeyPasswordChangedAt(userID), now.Unix(), s.RevokeTTL).Err(); err != nil {
			s.warn(err, "record password change failed", userID)
		}
	}
	passwordChanges.Add(1)
	publish(ctx, s.Pub, s.Logger, mailer.EmailJob{
		To:       u.Email,
		Template: mailer.TemplatePasswordChanged,
		Data: map[string]any{
			"Name":  u.Name,
			"Email": u.Email,
			"Time":  now.UTC().Format(time.RFC1123),
		},
	})
	return Result{Code: response.CodeOK}
}

func (s *PasswordService) warn(err error, msg string, userID int64) {
	if s.Logger == nil {
		return
	}
	s.Logger.WithError(err).WithField("user_id", userID).Warn(msg)
}
