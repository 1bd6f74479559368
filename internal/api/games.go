package api

import (
	"context"  // Request scoped contexts
	"errors"   // Error classification
	"net/http" // HTTP status codes

	"shinsen_rewards/internal/domain"
	"shinsen_rewards/internal/draw"
	"shinsen_rewards/internal/middleware"
	"shinsen_rewards/internal/utils"

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// Drawer plays one round of a game for a user
type Drawer interface {
	Draw(ctx context.Context, userID uint, mode domain.GameMode) (draw.Result, error)
}

// DrawHandler is the gateway of a game with its own route, such as the spin wheel
func DrawHandler(engine Drawer, mode domain.GameMode, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		playDraw(c, engine, mode, cache)
	}
}

// SkillDrawHandler is the shared gateway of the skill games, selected by the :game path parameter
func SkillDrawHandler(engine Drawer, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		mode, err := domain.ParseSkillGame(c.Param("game"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Unknown game"})
			return
		}
		playDraw(c, engine, mode, cache)
	}
}

func playDraw(c *gin.Context, engine Drawer, mode domain.GameMode, cache *utils.Cache) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	res, err := engine.Draw(c.Request.Context(), userID, mode)
	switch {
	case err == nil:
	case errors.Is(err, draw.ErrInsufficientTickets):
		c.JSON(http.StatusBadRequest, gin.H{"error": "You have no tickets left for this game"})
		return
	case errors.Is(err, draw.ErrLedgerNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Ledger not found"})
		return
	default:
		// details are logged by the engine, never sent to the client
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong, please try again"})
		return
	}
	if err := cache.InvalidateUser(c.Request.Context(), userID); err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   err.Error(),
		}).Warn("Failed to invalidate reward cache")
	}
	c.JSON(http.StatusOK, res)
}

// PrizeTableHandler returns a game's prizes in ordinal order so clients can lay out the wheel or boxes
func PrizeTableHandler(db *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		mode, err := domain.ParseGameMode(c.Param("mode"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Unknown game"})
			return
		}
		ctx := c.Request.Context()
		key := utils.PrizeTableKey(string(mode))
		var prizes []domain.PrizeEntry
		if found, err := cache.Get(ctx, key, &prizes); err == nil && found {
			c.JSON(http.StatusOK, gin.H{"game": mode, "prizes": prizes, "cached": true})
			return
		}
		if err := db.WithContext(ctx).Where("game_mode = ?", mode).Order("ordinal asc").Find(&prizes).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"game_mode": mode,
				"error":     err.Error(),
			}).Error("Failed to load prize table")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load prizes"})
			return
		}
		_ = cache.Set(ctx, key, prizes)
		c.JSON(http.StatusOK, gin.H{"game": mode, "prizes": prizes, "cached": false})
	}
}
