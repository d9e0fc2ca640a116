package handlers

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strconv"

	"eduverse_backend/db"
	"eduverse_backend/middleware"
	"eduverse_backend/models"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	db *sql.DB
}

func NewAdminHandler(db *sql.DB) *AdminHandler {
	return &AdminHandler{db: db}
}

func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := db.GetAdminStats(c.Request.Context(), h.db)
	if err != nil {
		log.Printf("Error fetching stats: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) GetUsers(c *gin.Context) {
	users, err := db.ListUsers(c.Request.Context(), h.db, c.Query("search"))
	if err != nil {
		log.Printf("Error fetching users: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	c.JSON(http.StatusOK, users)
}

// ResetPassword sets a new password for any user and signs them out
// everywhere.
func (h *AdminHandler) ResetPassword(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var req models.ResetPasswordRequest
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

	ctx := c.Request.Context()
	err = db.UpdatePassword(ctx, h.db, userID, hashedPassword)
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		log.Printf("Error resetting password: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset password"})
		return
	}

	if err := db.DeleteRefreshTokensForUser(ctx, h.db, userID); err != nil {
		log.Printf("Error revoking tokens for user %d: %v", userID, err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password reset successfully"})
}
