package api

import (
	"context"  // Request scoped contexts
	"errors"   // Error classification
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"strings"  // String manipulation
	"time"     // Date filters

	"shinsen_rewards/internal/domain" // Importing domain models
	"shinsen_rewards/internal/draw"   // Draw errors
	"shinsen_rewards/internal/ledger" // Ledger errors
	"shinsen_rewards/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// UserLedgerResponse represents a user and its balances as returned to admins
type UserLedgerResponse struct {
	ID       uint          `json:"id"`       // User ID
	Username string        `json:"username"` // Username
	Role     string        `json:"role"`     // User role
	Ledger   domain.Ledger `json:"ledger"`   // Balances
}

// ListLedgersHandler returns every user with its ledger, paginated
func ListLedgersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize := pageParams(c)
		ctx := c.Request.Context()
		var total int64
		if err := db.WithContext(ctx).Model(&domain.User{}).Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count users"})
			return
		}
		var users []domain.User
		if err := db.WithContext(ctx).Preload("Ledger").Order("id asc").Offset((page - 1) * pageSize).Limit(pageSize).Find(&users).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
			return
		}
		resp := make([]UserLedgerResponse, len(users))
		for i, u := range users {
			resp[i] = UserLedgerResponse{ID: u.ID, Username: u.Username, Role: u.Role, Ledger: u.Ledger}
		}
		// Not cached: admins need live balances
		c.JSON(http.StatusOK, gin.H{
			"users":       resp,
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": totalPages(total, pageSize),
		})
	}
}

// parseDateFilter accepts RFC 3339 or a plain date and returns Unix milliseconds.
// A plain date used as an upper bound covers the whole day.
func parseDateFilter(v string, endOfDay bool) (int64, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UnixMilli(), nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return 0, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Millisecond)
	}
	return t.UnixMilli(), nil
}

// ListDrawsHandler returns all draws, with optional filtering by user, game or date
func ListDrawsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize := pageParams(c)
		query := db.WithContext(c.Request.Context()).Model(&domain.DrawRecord{})
		if userID := c.Query("user_id"); userID != "" {
			id, err := strconv.ParseUint(userID, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user_id"})
				return
			}
			query = query.Where("user_id = ?", id)
		}
		if mode := c.Query("mode"); mode != "" {
			m, err := domain.ParseGameMode(mode)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown game"})
				return
			}
			query = query.Where("game_mode = ?", m)
		}
		if from := c.Query("from"); from != "" {
			ms, err := parseDateFilter(from, false)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid from date"})
				return
			}
			query = query.Where("created_at >= ?", ms)
		}
		if to := c.Query("to"); to != "" {
			ms, err := parseDateFilter(to, true)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid to date"})
				return
			}
			query = query.Where("created_at <= ?", ms)
		}
		query = query.Session(&gorm.Session{}) // Reusable for Count and Find
		var total int64
		if err := query.Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count draws"})
			return
		}
		result := drawPage{Page: page, PageSize: pageSize, Total: total, TotalPages: totalPages(total, pageSize)}
		if err := query.Order("created_at desc").Offset((page - 1) * pageSize).Limit(pageSize).Find(&result.Draws).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch draws"})
			return
		}
		c.JSON(http.StatusOK, result.response(false))
	}
}

// TicketGranter credits tickets to one ledger
type TicketGranter interface {
	GrantTickets(ctx context.Context, userID uint, t domain.TicketType, amount int64) (domain.Ledger, error)
}

// GrantTicketsRequest is the body of POST /admin/tickets
type GrantTicketsRequest struct {
	UserID uint   `json:"user_id" binding:"required"` // Receiving user
	Ticket string `json:"ticket" binding:"required"`  // Ticket name, e.g. "spin" or "spin_tickets"
	Amount int64  `json:"amount" binding:"required"`  // Tickets to credit
}

// GrantTicketsHandler lets an admin credit tickets of any kind to a user
func GrantTicketsHandler(granter TicketGranter, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req GrantTicketsRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Amount <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		ticket, err := domain.ParseTicketType(strings.ToLower(req.Ticket))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown ticket type"})
			return
		}
		ctx := c.Request.Context()
		updated, err := granter.GrantTickets(ctx, req.UserID, ticket, req.Amount)
		switch {
		case err == nil:
		case errors.Is(err, draw.ErrLedgerNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Ledger not found"})
			return
		case errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, domain.ErrUnknownTicketType):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to grant tickets"})
			return
		}
		if err := cache.InvalidateUser(ctx, req.UserID); err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": req.UserID,
				"error":   err.Error(),
			}).Warn("Failed to invalidate reward cache")
		}
		c.JSON(http.StatusOK, gin.H{"ledger": updated})
	}
}
