package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-ddd-user-admin/internal/container"
	handlers "github.com/oksasatya/go-ddd-user-admin/internal/interface/http"
	"github.com/oksasatya/go-ddd-user-admin/internal/interface/middleware"
	"github.com/oksasatya/go-ddd-user-admin/pkg/helpers"
)

// UserModule wires the user administration routes. Every route requires a
// valid access token:
//
//	GET    /users, /users/create, /users/search, /users/:id, /users/:id/edit
//	POST   /users
//	PUT    /users/:id (PATCH too)
//	DELETE /users/:id
//	POST   /password (PUT too)
type UserModule struct {
	Handler *handlers.UserHandler
	JWT     *helpers.JWTManager
}

func NewUserModule(h *handlers.UserHandler, jwt *helpers.JWTManager) *UserModule {
	return &UserModule{Handler: h, JWT: jwt}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()

	auth := rg.Group("/")
	auth.Use(middleware.Auth(rdb, m.JWT))
	auth.Use(
		middleware.RateLimit(rdb, 300, time.Minute, middleware.KeyByIP(), nil),
		middleware.RateLimit(rdb, 120, time.Minute, middleware.KeyByUserID(), nil),
	)

	users := auth.Group("/users")
	{
		users.GET("", m.Handler.Index)
		users.GET("/create", m.Handler.Create)
		users.POST("", m.Handler.Store)
		users.GET("/search", m.Handler.Search)
		users.GET("/:id", m.Handler.Show)
		users.GET("/:id/edit", m.Handler.Edit)
		users.PUT("/:id", m.Handler.Update)
		users.PATCH("/:id", m.Handler.Update)
		users.DELETE("/:id", m.Handler.Destroy)
	}

	// each attempt verifies the old password
	pwdLimiters := []gin.HandlerFunc{
		middleware.RateLimit(rdb, 5, time.Minute, middleware.KeyByUserID(), nil),
		middleware.RateLimit(rdb, 20, time.Minute, middleware.KeyByIPAndPath(), nil),
	}
	auth.POST("/password", append(pwdLimiters, m.Handler.Password)...)
	auth.PUT("/password", append(pwdLimiters, m.Handler.Password)...)
}
