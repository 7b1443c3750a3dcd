package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/oksasatya/go-ddd-user-admin/internal/application"
	"github.com/oksasatya/go-ddd-user-admin/internal/domain/entity"
	"github.com/oksasatya/go-ddd-user-admin/internal/domain/repository"
	"github.com/oksasatya/go-ddd-user-admin/internal/interface/middleware"
	"github.com/oksasatya/go-ddd-user-admin/pkg/response"
	"github.com/oksasatya/go-ddd-user-admin/pkg/validation"
)

// PasswordChanger is the collaborator that owns every password-change rule.
type PasswordChanger interface {
	ChangePassword(ctx context.Context, userID int64, in userapp.ChangePasswordInput) userapp.Result
}

type UserHandler struct {
	Svc       *userapp.Service
	Passwords PasswordChanger
	Logger    *logrus.Logger
}

func NewUserHandler(svc *userapp.Service, password PasswordChanger, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Passwords: password, Logger: logger}
}

type storeUserRequest struct {
	Name     string  `json:"name" binding:"required,max=255"`
	Email    string  `json:"email" binding:"required,email,max=255"`
	Password string  `json:"password" binding:"required,pwd"`
	Roles    []int64 `json:"roles" binding:"omitempty,dive,gt=0"`
}

// updateUserRequest keeps absent fields nil. "roles": [] replaces the set
// with nothing, a missing or null roles detaches all of them.
type updateUserRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=1,max=255"`
	Email    *string `json:"email" binding:"omitempty,email,max=255"`
	Password *string `json:"password" binding:"omitempty,pwd"`
	Roles    []int64 `json:"roles" binding:"omitempty,dive,gt=0"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_pwd"`
	Password    string `json:"password"`
	RePassword  string `json:"repassword"`
}

type userView struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type userDetailView struct {
	userView
	Roles []entity.Role `json:"roles"`
}

func toView(u *entity.User) userView {
	return userView{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt}
}

func toDetailView(d *userapp.UserDetail) userDetailView {
	roles := d.Roles
	if roles == nil {
		roles = []entity.Role{}
	}
	return userDetailView{userView: toView(d.User), Roles: roles}
}

// Index GET /users?page=N
func (h *UserHandler) Index(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	res, err := h.Svc.List(c.Request.Context(), page)
	if err != nil {
		abort(c, err)
		return
	}
	items := make([]userView, 0, len(res.Items))
	for i := range res.Items {
		items = append(items, toView(&res.Items[i]))
	}
	response.Out(c, response.CodeOK, gin.H{
		"current_page": res.CurrentPage,
		"data":         items,
		"per_page":     res.PerPage,
		"total":        res.Total,
		"last_page":    res.LastPage(),
		"from":         res.From(),
		"to":           res.To(),
	})
}

// Create GET /users/create
func (h *UserHandler) Create(c *gin.Context) {
	response.Out(c, response.CodeOK, gin.H{"method": "create"})
}

// Store POST /users
func (h *UserHandler) Store(c *gin.Context) {
	var req storeUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.Create(c.Request.Context(), userapp.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Roles:    req.Roles,
	})
	if errors.Is(err, userapp.ErrSaveFailed) {
		response.Out(c, response.CodeFailed, nil)
		return
	}
	if err != nil {
		abort(c, err)
		return
	}
	response.Out(c, response.CodeOK, gin.H{"data": gin.H{"id": u.ID}})
}

// Show GET /users/:id
func (h *UserHandler) Show(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	detail, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		abort(c, err)
		return
	}
	response.Out(c, response.CodeOK, toDetailView(detail))
}

// Edit GET /users/:id/edit returns the user with its roles next to every
// selectable role.
func (h *UserHandler) Edit(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	form, err := h.Svc.EditForm(c.Request.Context(), id)
	if err != nil {
		abort(c, err)
		return
	}
	response.Out(c, response.CodeOK, gin.H{
		"user":  toDetailView(&form.UserDetail),
		"roles": form.AllRoles,
	})
}

// Update PUT|PATCH /users/:id
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	// an empty body means no field changes and no roles
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.Update(c.Request.Context(), id, userapp.UpdateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Roles:    req.Roles,
	})
	if errors.Is(err, userapp.ErrSaveFailed) {
		response.Out(c, response.CodeFailed, nil)
		return
	}
	if err != nil {
		abort(c, err)
		return
	}
	response.Out(c, response.CodeOK, gin.H{"data": gin.H{"id": u.ID}})
}

// Destroy DELETE /users/:id. A failed delete is still code 200; errno tells
// the outcome apart.
func (h *UserHandler) Destroy(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	err := h.Svc.Delete(c.Request.Context(), id)
	switch {
	case err == nil:
		response.Out(c, response.CodeOK, gin.H{"msg": "deleted successfully", "errno": 0})
	case errors.Is(err, userapp.ErrDeleteFailed):
		response.Out(c, response.CodeOK, gin.H{"msg": "delete failed", "errno": 2})
	default:
		abort(c, err)
	}
}

// Password POST|PUT /password changes the authenticated user's password.
func (h *UserHandler) Password(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Out(c, response.CodeInvalidInput, nil)
		return
	}
	res := h.Passwords.ChangePassword(c.Request.Context(), c.GetInt64(middleware.CtxUserIDKey), userapp.ChangePasswordInput{
		OldPassword: req.OldPassword,
		Password:    req.Password,
		RePassword:  req.RePassword,
	})
	response.Out(c, res.Code, nil)
}

// Search GET /users/search?q=...&size=N
func (h *UserHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Out(c, response.CodeInvalidInput, gin.H{"msg": "q is required"})
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	hits, err := h.Svc.SearchUsers(c.Request.Context(), q, size)
	if err != nil {
		if h.Logger != nil {
			h.Logger.WithError(err).WithField("q", q).Warn("user search failed")
		}
		response.Out(c, response.CodeFailed, nil)
		return
	}
	response.Out(c, response.CodeOK, gin.H{"data": hits})
}

// userID parses :id. Anything that is not a positive integer cannot name a
// user and aborts as not found.
func userID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		abort(c, repository.ErrNotFound)
		return 0, false
	}
	return id, true
}

// abort hands err to the global error handler.
func abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
