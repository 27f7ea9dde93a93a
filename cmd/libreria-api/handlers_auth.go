package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/libroverso/libreria-api/internal/httpx"
	"github.com/libroverso/libreria-api/internal/user"
)

const sessionCookie = "session_token"

// registerHandler creates a storefront account. Admins are created by
// the seeder, never through this endpoint.
func registerHandler(users user.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req user.RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.WriteError(c, httpx.E(httpx.KindValidation, "invalid json"))
			return
		}
		if req.Nombre == "" || req.Email == "" || req.Password == "" {
			httpx.WriteError(c, httpx.E(httpx.KindValidation, "nombre, email y password son requeridos"))
			return
		}
		hash, err := user.HashPassword(req.Password)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		u := &user.User{
			Nombre:       req.Nombre,
			Email:        req.Email,
			PasswordHash: hash,
			Role:         user.RoleUser,
		}
		if err := users.Create(c.Request.Context(), u); err != nil {
			if err == user.ErrAlreadyExist {
				httpx.WriteError(c, httpx.E(httpx.KindValidation, "Ya existe un usuario con ese email"))
				return
			}
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusCreated, u)
	}
}

func loginHandler(users user.Repository, secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req user.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
			httpx.WriteError(c, httpx.E(httpx.KindValidation, "email y password son requeridos"))
			return
		}
		u, err := users.GetByEmail(c.Request.Context(), req.Email)
		if err != nil || !user.CheckPassword(u.PasswordHash, req.Password) {
			// same message for both cases, no account probing
			httpx.WriteError(c, httpx.E(httpx.KindUnauthorized, "Credenciales inválidas"))
			return
		}
		token, err := user.IssueToken(secret, u, time.Now())
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.SetCookie(sessionCookie, token, int(user.SessionTTL.Seconds()), "/", "", false, true)
		c.JSON(http.StatusOK, gin.H{"token": token, "user": u})
	}
}

func tokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(sessionCookie); err == nil && cookie != "" {
		return cookie
	}
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

func resolveUser(c *gin.Context, users user.Repository, secret []byte) *user.User {
	raw := tokenFromRequest(c)
	if raw == "" {
		return nil
	}
	claims, err := user.ParseToken(secret, raw)
	if err != nil {
		return nil
	}
	id, err := claims.UserID()
	if err != nil {
		return nil
	}
	u, err := users.GetByID(c.Request.Context(), id)
	if err != nil {
		return nil
	}
	return u
}

func authRequired(users user.Repository, secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := resolveUser(c, users, secret)
		if u == nil {
			httpx.WriteError(c, httpx.E(httpx.KindUnauthorized, "No autorizado"))
			c.Abort()
			return
		}
		c.Set("user", u)
		c.Next()
	}
}

func adminRequired(users user.Repository, secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := resolveUser(c, users, secret)
		if u == nil || u.Role != user.RoleAdmin {
			httpx.WriteError(c, httpx.E(httpx.KindUnauthorized, "No autorizado"))
			c.Abort()
			return
		}
		c.Set("user", u)
		c.Next()
	}
}

func currentUser(c *gin.Context) *user.User {
	v, _ := c.Get("user")
	u, _ := v.(*user.User)
	return u
}
