package handlers

import (
	"crypto/rand"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"time"

	"eduverse_backend/db"
	"eduverse_backend/mailer"
	"eduverse_backend/middleware"
	"eduverse_backend/models"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	db           *sql.DB
	tokenService *middleware.TokenService
	mailer       mailer.Mailer
	otpTTL       time.Duration
	now          func() time.Time
}

func NewAuthHandler(db *sql.DB, jwtSecret []byte, m mailer.Mailer, otpTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		db:           db,
		tokenService: middleware.NewTokenService(db, jwtSecret),
		mailer:       m,
		otpTTL:       otpTTL,
		now:          time.Now,
	}
}

// generateOTP returns a random six digit code.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hashedPassword, err := middleware.HashPassword(req.Password)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process password"})
		return
	}

	otp, err := generateOTP()
	if err != nil {
		log.Printf("Error generating OTP: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate verification code"})
		return
	}

	userID, err := db.CreatePendingUser(c.Request.Context(), h.db, req.Name, req.Email, hashedPassword, otp, h.now().Add(h.otpTTL))
	if errors.Is(err, db.ErrConflict) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
		return
	}
	if err != nil {
		log.Printf("Error creating user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	// The account is kept even when the code could not be mailed.
	if err := h.mailer.SendOTP(c.Request.Context(), req.Email, req.Name, otp, h.otpTTL); err != nil {
		log.Printf("Error sending OTP to %s: %v", req.Email, err)
		c.JSON(http.StatusCreated, gin.H{
			"id":         userID,
			"email_sent": false,
			"message":    "Registered, but the verification email could not be sent",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":         userID,
		"email_sent": true,
		"message":    "Registration successful. Check your email for the verification code",
	})
}

func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req models.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := db.GetUserByEmail(c.Request.Context(), h.db, req.Email)
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		log.Printf("Error fetching user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify code"})
		return
	}

	if user.IsVerified {
		c.JSON(http.StatusConflict, gin.H{"error": "Account already verified"})
		return
	}
	if user.OTPExpiry != nil && h.now().After(*user.OTPExpiry) {
		c.JSON(http.StatusGone, gin.H{"error": "Verification code has expired"})
		return
	}
	if user.OTP == nil || subtle.ConstantTimeCompare([]byte(*user.OTP), []byte(req.OTP)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid verification code"})
		return
	}

	if err := db.MarkVerified(c.Request.Context(), h.db, user.ID); err != nil {
		log.Printf("Error verifying user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify code"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Email verified successfully"})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := db.GetUserByEmail(c.Request.Context(), h.db, req.Email)
	if errors.Is(err, db.ErrNotFound) || (err == nil && !middleware.VerifyPassword(user.PasswordHash, req.Password)) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	} else if err != nil {
		log.Printf("Error querying user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify credentials"})
		return
	}

	// Admins may log in before verifying their email.
	if !user.IsVerified && user.Role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Please verify your email before logging in"})
		return
	}

	tokens, err := h.tokenService.GenerateTokens(c.Request.Context(), user)
	if err != nil {
		log.Printf("Error generating tokens: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tokens"})
		return
	}

	c.JSON(http.StatusOK, tokens)
}

func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req models.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	userID, err := h.tokenService.ValidateRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			log.Printf("Error validating refresh token: %v", err)
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}

	user, err := db.GetUserByID(ctx, h.db, userID)
	if err != nil {
		log.Printf("Error fetching user %d for refresh: %v", userID, err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}

	tokens, err := h.tokenService.GenerateTokens(ctx, user)
	if err != nil {
		log.Printf("Error generating tokens: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tokens"})
		return
	}

	if err := h.tokenService.InvalidateRefreshToken(ctx, req.RefreshToken); err != nil {
		log.Printf("Error invalidating old refresh token: %v", err)
	}

	c.JSON(http.StatusOK, tokens)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	var req models.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No token provided"})
		return
	}

	if err := h.tokenService.RevokeRefreshToken(c.Request.Context(), c.GetInt("userID"), req.RefreshToken); err != nil {
		log.Printf("Error invalidating refresh token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to logout"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}

func (h *AuthHandler) GetUserInfo(c *gin.Context) {
	user, err := db.GetUserByID(c.Request.Context(), h.db, c.GetInt("userID"))
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		log.Printf("Error fetching user info: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user info"})
		return
	}

	c.JSON(http.StatusOK, user.Profile())
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	user, err := db.GetUserByID(ctx, h.db, c.GetInt("userID"))
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		log.Printf("Error fetching user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to change password"})
		return
	}

	if !middleware.VerifyPassword(user.PasswordHash, req.CurrentPassword) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Current password is incorrect"})
		return
	}

	hashedPassword, err := middleware.HashPassword(req.NewPassword)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process password"})
		return
	}

	if err := db.UpdatePassword(ctx, h.db, user.ID, hashedPassword); err != nil {
		log.Printf("Error updating password: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to change password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}

func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	err := db.DeleteUser(c.Request.Context(), h.db, c.GetInt("userID"))
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		log.Printf("Error deleting account: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete account"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Account deleted successfully"})
}
