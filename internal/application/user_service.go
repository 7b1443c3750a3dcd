package application

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"math"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-user-admin/internal/domain/entity"
	repo "github.com/oksasatya/go-ddd-user-admin/internal/domain/repository"
	"github.com/oksasatya/go-ddd-user-admin/pkg/helpers"
	"github.com/oksasatya/go-ddd-user-admin/pkg/mailer"
)

// UsersPerPage is the fixed page size of the user listing.
const UsersPerPage = 11

// maxPage keeps the row offset (page-1)*UsersPerPage inside int.
const maxPage = math.MaxInt / UsersPerPage

var (
	// ErrSaveFailed marks a persistence failure on store/update. It is a
	// business failure, reported through the envelope rather than aborting.
	ErrSaveFailed = errors.New("user could not be saved")
	// ErrDeleteFailed marks a persistence failure on destroy.
	ErrDeleteFailed = errors.New("user could not be deleted")
)

var (
	usersCreated    = expvar.NewInt("users_created")
	usersUpdated    = expvar.NewInt("users_updated")
	usersDeleted    = expvar.NewInt("users_deleted")
	passwordChanges = expvar.NewInt("password_changes")
)

// Publisher enqueues background jobs. *helpers.RabbitPublisher satisfies it.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// Deps carries the optional infrastructure of Service. Nil members disable the
// matching side effect.
type Deps struct {
	Redis        *redis.Client
	RoleCacheTTL time.Duration
	Logger       *logrus.Logger
	ES           *elasticsearch.Client
	ESUsersIndex string
	Pub          Publisher
	AppName      string
}

type Service struct {
	Users     repo.UserRepository
	Roles     repo.RoleRepository
	UserRoles repo.UserRoleRepository
	Deps
}

func NewService(users repo.UserRepository, roles repo.RoleRepository, userRoles repo.UserRoleRepository, deps Deps) *Service {
	return &Service{Users: users, Roles: roles, UserRoles: userRoles, Deps: deps}
}

type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Roles    []int64
}

// UpdateUserInput applies only the non-nil fields. A nil Roles detaches every
// role; a non-nil one (even empty) replaces the set.
type UpdateUserInput struct {
	Name     *string
	Email    *string
	Password *string
	Roles    []int64
}

type UserDetail struct {
	User  *entity.User
	Roles []entity.Role
}

type EditForm struct {
	UserDetail
	AllRoles []entity.Role
}

func (s *Service) List(ctx context.Context, page int) (entity.Page[entity.User], error) {
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}
	return s.Users.Paginate(ctx, page, UsersPerPage)
}

// Create persists a new user, then assigns each requested role additively.
// The two steps are separate units of work: a missing role aborts with
// repo.ErrNotFound after the user row already exists.
func (s *Service) Create(ctx context.Context, in CreateUserInput) (*entity.User, error) {
	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	u := &entity.User{Name: in.Name, Email: in.Email, Password: hash}
	if err := s.Users.Create(ctx, u); err != nil {
		s.warn(err, "create user failed", logrus.Fields{"email": in.Email})
		return nil, fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	usersCreated.Add(1)
	s.indexUser(ctx, u)

	for _, roleID := range in.Roles {
		role, err := s.Roles.FindByID(ctx, roleID)
		if err != nil {
			return u, fmt.Errorf("role %d: %w", roleID, err)
		}
		if err := s.UserRoles.Assign(ctx, u.ID, role.ID); err != nil {
			return u, err
		}
	}

	s.notify(ctx, mailer.EmailJob{
		To:       u.Email,
		Template: mailer.TemplateAccountCreated,
		Data:     map[string]any{"Name": u.Name, "Email": u.Email, "AppName": s.AppName},
	})
	return u, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*UserDetail, error) {
	u, err := s.Users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	roles, err := s.UserRoles.RolesOf(ctx, id)
	if err != nil {
		return nil, err
	}
	return &UserDetail{User: u, Roles: roles}, nil
}

func (s *Service) EditForm(ctx context.Context, id int64) (*EditForm, error) {
	detail, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	all, err := s.AllRoles(ctx)
	if err != nil {
		return nil, err
	}
	return &EditForm{UserDetail: *detail, AllRoles: all}, nil
}

// AllRoles reads the role list through the Redis cache when configured.
func (s *Service) AllRoles(ctx context.Context) ([]entity.Role, error) {
	if s.Redis != nil {
		var cached []entity.Role
		ok, err := helpers.RedisGetJSON(ctx, s.Redis, helpers.KeyRolesAll, &cached)
		if err != nil {
			s.warn(err, "role cache read failed", nil)
		}
		if ok {
			return cached, nil
		}
	}
	roles, err := s.Roles.All(ctx)
	if err != nil {
		return nil, err
	}
	if s.Redis != nil && s.RoleCacheTTL > 0 {
		if err := helpers.RedisSetJSON(ctx, s.Redis, helpers.KeyRolesAll, roles, s.RoleCacheTTL); err != nil {
			s.warn(err, "role cache write failed", nil)
		}
	}
	return roles, nil
}

// Update applies the given fields, then syncs or detaches roles.
func (s *Service) Update(ctx context.Context, id int64, in UpdateUserInput) (*entity.User, error) {
	u, err := s.Users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		u.Name = *in.Name
	}
	if in.Email != nil {
		u.Email = *in.Email
	}
	if in.Password != nil {
		hash, err := helpers.HashPassword(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSaveFailed, err)
		}
		u.Password = hash
	}
	if err := s.Users.Update(ctx, u); err != nil {
		s.warn(err, "update user failed", logrus.Fields{"user_id": id})
		return nil, fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	if in.Roles != nil {
		err = s.UserRoles.Sync(ctx, u.ID, in.Roles)
	} else {
		err = s.UserRoles.Detach(ctx, u.ID)
	}
	if err != nil {
		return u, err
	}

	usersUpdated.Add(1)
	s.indexUser(ctx, u)
	return u, nil
}

// Delete resolves the user first so a missing id surfaces as repo.ErrNotFound,
// never as ErrDeleteFailed.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.Users.FindByID(ctx, id); err != nil {
		return err
	}
	if err := s.Users.Delete(ctx, id); err != nil {
		s.warn(err, "delete user failed", logrus.Fields{"user_id": id})
		return fmt.Errorf("%w: %w", ErrDeleteFailed, err)
	}
	usersDeleted.Add(1)
	s.deleteUserDoc(ctx, id)
	return nil
}

func (s *Service) notify(ctx context.Context, job mailer.EmailJob) {
	publish(ctx, s.Pub, s.Logger, job)
}

func (s *Service) warn(err error, msg string, fields logrus.Fields) {
	if s.Logger == nil {
		return
	}
	s.Logger.WithError(err).WithFields(fields).Warn(msg)
}

func publish(ctx context.Context, pub Publisher, logger *logrus.Logger, job mailer.EmailJob) {
	if pub == nil {
		return
	}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := pub.PublishJSON(c, job); err != nil && logger != nil {
		logger.WithError(err).WithField("template", job.Template).Warn("failed to publish email job")
	}
}
