package controllers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"groundstation/internal/middleware"
	"groundstation/internal/services"
)

// UsersController serves authentication and the admin user-management API
type UsersController struct {
	Users  *services.UserService
	Tokens *services.TokenService
}

type authRequest struct {
	ID string `json:"id"`
	PW string `json:"pw"`
}

type createUserRequest struct {
	AdminID string `json:"adminId"`
	AdminPW string `json:"adminPw"`
	ID      string `json:"id"`
	PW      string `json:"pw"`
	Role    string `json:"role"`
}

type deleteUserRequest struct {
	AdminID string `json:"adminId"`
	AdminPW string `json:"adminPw"`
	ID      string `json:"id"`
}

// PostAuth checks credentials and mints a session token
func (u *UsersController) PostAuth(c *gin.Context) {
	var req authRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request body"})
		return
	}

	user, err := u.Users.Authenticate(req.ID, req.PW)
	if err != nil {
		if middleware.GlobalSecurityLogger != nil {
			middleware.GlobalSecurityLogger.LogFailedAuth(c.ClientIP(), "invalid credentials for "+req.ID)
		}
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": services.ErrInvalidCredentials.Error()})
		return
	}

	token, err := u.Tokens.Mint(user.ID, user.Role)
	if err != nil {
		log.Printf("[AUTH] token minting failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "failed to create session token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":    true,
		"user":  user.Public(),
		"token": token,
	})
}

// GetUsers lists all users without passwords
func (u *UsersController) GetUsers(c *gin.Context) {
	c.JSON(http.StatusOK, u.Users.List())
}

// PostUsers creates a user on behalf of an admin
func (u *UsersController) PostUsers(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request body"})
		return
	}

	created, err := u.Users.Create(req.AdminID, req.AdminPW, req.ID, req.PW, req.Role)
	if err != nil {
		u.writeUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": created})
}

// PostUsersDelete removes a user on behalf of an admin
func (u *UsersController) PostUsersDelete(c *gin.Context) {
	var req deleteUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request body"})
		return
	}

	if err := u.Users.Delete(req.AdminID, req.AdminPW, req.ID); err != nil {
		u.writeUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// writeUserError maps service errors onto API responses: credential
// problems are 401, malformed admin input is 400
func (u *UsersController) writeUserError(c *gin.Context, err error) {
	var validation *services.ValidationError
	switch {
	case errors.Is(err, services.ErrAdminRequired), errors.Is(err, services.ErrInvalidCredentials):
		if middleware.GlobalSecurityLogger != nil {
			middleware.GlobalSecurityLogger.LogFailedAuth(c.ClientIP(), err.Error())
		}
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": err.Error()})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": validation.Message})
	default:
		log.Printf("[AUTH] user operation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal error"})
	}
}
