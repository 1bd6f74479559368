package api

import (
	"errors"   // Error classification
	"net/http" // HTTP status codes

	"shinsen_rewards/internal/domain"     // Importing domain models
	"shinsen_rewards/internal/middleware" // Caller identity
	"shinsen_rewards/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// drawPage is one page of draw records, cached as a whole
type drawPage struct {
	Draws      []domain.DrawRecord `json:"draws"`       // Draw records, newest first
	Page       int                 `json:"page"`        // Current page
	PageSize   int                 `json:"page_size"`   // Page size
	Total      int64               `json:"total"`       // Total records
	TotalPages int                 `json:"total_pages"` // Total pages
}

func (p drawPage) response(cached bool) gin.H {
	return gin.H{
		"draws":       p.Draws,
		"page":        p.Page,
		"page_size":   p.PageSize,
		"total":       p.Total,
		"total_pages": p.TotalPages,
		"cached":      cached,
	}
}

// GetLedgerHandler returns the authenticated user's coin and ticket balances
func GetLedgerHandler(db *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		ctx := c.Request.Context()
		key := utils.LedgerKey(userID)
		var ledger domain.Ledger
		if found, err := cache.Get(ctx, key, &ledger); err == nil && found {
			c.JSON(http.StatusOK, gin.H{"ledger": ledger, "cached": true})
			return
		}
		if err := db.WithContext(ctx).Where("user_id = ?", userID).First(&ledger).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Ledger not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch ledger"})
			return
		}
		_ = cache.Set(ctx, key, ledger)
		c.JSON(http.StatusOK, gin.H{"ledger": ledger, "cached": false})
	}
}

// GetDrawHistoryHandler returns the authenticated user's draws, newest first
func GetDrawHistoryHandler(db *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		page, pageSize := pageParams(c)
		ctx := c.Request.Context()
		key := utils.HistoryKey(userID, page, pageSize)
		var cached drawPage
		if found, err := cache.Get(ctx, key, &cached); err == nil && found {
			c.JSON(http.StatusOK, cached.response(true))
			return
		}
		// Session lets Count and Find share the conditions without sharing state
		query := db.WithContext(ctx).Model(&domain.DrawRecord{}).Where("user_id = ?", userID).Session(&gorm.Session{})
		var total int64
		if err := query.Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count draws"})
			return
		}
		result := drawPage{Page: page, PageSize: pageSize, Total: total, TotalPages: totalPages(total, pageSize)}
		if err := query.Order("created_at desc").Offset((page - 1) * pageSize).Limit(pageSize).Find(&result.Draws).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": userID,
				"error":   err.Error(),
			}).Error("Failed to fetch draw history")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch draws"})
			return
		}
		_ = cache.Set(ctx, key, result)
		c.JSON(http.StatusOK, result.response(false))
	}
}

// GetVouchersHandler lists the vouchers the authenticated user has won
func GetVouchersHandler(db *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		ctx := c.Request.Context()
		key := utils.VouchersKey(userID)
		var grants []domain.VoucherGrant
		if found, err := cache.Get(ctx, key, &grants); err == nil && found {
			c.JSON(http.StatusOK, gin.H{"vouchers": grants, "cached": true})
			return
		}
		if err := db.WithContext(ctx).Preload("Voucher").Where("user_id = ?", userID).Order("created_at desc").Find(&grants).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch vouchers"})
			return
		}
		_ = cache.Set(ctx, key, grants)
		c.JSON(http.StatusOK, gin.H{"vouchers": grants, "cached": false})
	}
}
