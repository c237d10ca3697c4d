package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/urbankart/urbankart-api/internal/coins"
	"github.com/urbankart/urbankart-api/internal/helpers"
	"github.com/urbankart/urbankart-api/internal/models"
)

type CalculateRedemptionRequest struct {
	Coins    int     `json:"coins" binding:"required"`
	Subtotal float64 `json:"subtotal" binding:"required"`
}

type RedeemCoinsRequest struct {
	Coins   int        `json:"coins" binding:"required"`
	OrderID *uuid.UUID `json:"order_id"`
}

type CoinRuleRequest struct {
	Earning *struct {
		Threshold float64 `json:"threshold" binding:"required,gt=0"`
		Coins     int     `json:"coins" binding:"required,gt=0"`
	} `json:"earning"`
	Redemption *struct {
		Coins           int     `json:"coins" binding:"required,gt=0"`
		DiscountPercent float64 `json:"discount_percent" binding:"required,gt=0"`
	} `json:"redemption"`
}

// loadEarningRule reads the earning configuration row, falling back to the
// package default when none exists.
func loadEarningRule(db *gorm.DB) coins.EarningRule {
	var rule models.CoinRule
	if err := db.Where("kind = ?", models.CoinRuleEarning).First(&rule).Error; err != nil {
		return coins.DefaultEarningRule
	}
	return coins.EarningRule{Threshold: rule.Threshold, Coins: rule.Coins}
}

func loadRedemptionRule(db *gorm.DB) coins.RedemptionRule {
	var rule models.CoinRule
	if err := db.Where("kind = ?", models.CoinRuleRedemption).First(&rule).Error; err != nil {
		return coins.DefaultRedemptionRule
	}
	return coins.RedemptionRule{Coins: rule.Coins, DiscountPercent: rule.DiscountPercent}
}

func GetCoinBalance(c *gin.Context) {
	userUUID, ok := currentUser(c)
	if !ok {
		return
	}
	gormDB, ok := database(c)
	if !ok {
		return
	}

	var user models.User
	if err := gormDB.First(&user, userUUID).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "User not found.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"coins":      user.Coins,
		"earning":    loadEarningRule(gormDB),
		"redemption": loadRedemptionRule(gormDB),
	})
}

func ListCoinTransactions(c *gin.Context) {
	userUUID, ok := currentUser(c)
	if !ok {
		return
	}
	gormDB, ok := database(c)
	if !ok {
		return
	}

	pageNum, limitNum, err := helpers.Pagination(c)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	query := gormDB.Model(&models.CoinTransaction{}).Where("user_id = ?", userUUID)
	var totalCount int64
	query.Count(&totalCount)

	var transactions []models.CoinTransaction
	offset := (pageNum - 1) * limitNum
	err = query.Offset(offset).Limit(limitNum).Order("created_at DESC").Find(&transactions).Error
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving coin transactions.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": transactions,
		"total":        totalCount,
		"page":         pageNum,
		"limit":        limitNum,
	})
}

// CalculateCoinRedemption previews the discount a redemption would yield
// without touching the balance.
func CalculateCoinRedemption(c *gin.Context) {
	userUUID, ok := currentUser(c)
	if !ok {
		return
	}

	var req CalculateRedemptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	gormDB, ok := database(c)
	if !ok {
		return
	}

	var user models.User
	if err := gormDB.First(&user, userUUID).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "User not found.")
		return
	}

	redemption, err := coins.CalculateRedemption(req.Coins, user.Coins, req.Subtotal, loadRedemptionRule(gormDB))
	if err != nil {
		respondRuleError(c, err)
		return
	}

	c.JSON(http.StatusOK, redemption)
}

// RedeemCoins debits the balance and appends the ledger row inside a single
// transaction, with the user row locked. Two concurrent redemptions for the
// same user serialize on the row lock, so BalanceAfter always matches the
// stored balance.
func RedeemCoins(c *gin.Context) {
	userUUID, ok := currentUser(c)
	if !ok {
		return
	}

	var req RedeemCoinsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}
	if req.Coins <= 0 {
		respondRuleError(c, coins.ErrInvalidInput)
		return
	}

	gormDB, ok := database(c)
	if !ok {
		return
	}

	var newBalance int
	err := gormDB.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userUUID).Error; err != nil {
			return err
		}

		if user.Coins < req.Coins {
			return coins.ErrInsufficientCoins
		}

		newBalance = user.Coins - req.Coins
		if err := tx.Model(&user).Update("coins", newBalance).Error; err != nil {
			return err
		}

		transaction := models.CoinTransaction{
			UserID:       userUUID,
			Type:         models.CoinTxSpent,
			Amount:       req.Coins,
			BalanceAfter: newBalance,
			Description:  "Coins redeemed",
			OrderID:      req.OrderID,
		}
		return tx.Create(&transaction).Error
	})
	if err != nil {
		respondRuleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Coins redeemed successfully.",
		"coins":   newBalance,
	})
}

// creditCoins adds coins to a user inside the caller's transaction, locking
// the user row and appending the matching ledger entry.
func creditCoins(tx *gorm.DB, userID uuid.UUID, amount int, txType, description string, orderID *uuid.UUID, metadata datatypes.JSONMap) error {
	var user models.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
		return err
	}

	newBalance := user.Coins + amount
	if err := tx.Model(&user).Update("coins", newBalance).Error; err != nil {
		return err
	}

	transaction := models.CoinTransaction{
		UserID:       userID,
		Type:         txType,
		Amount:       amount,
		BalanceAfter: newBalance,
		Description:  description,
		OrderID:      orderID,
		Metadata:     metadata,
	}
	return tx.Create(&transaction).Error
}

func GetCoinRules(c *gin.Context) {
	gormDB, ok := database(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"earning":    loadEarningRule(gormDB),
		"redemption": loadRedemptionRule(gormDB),
	})
}

// UpsertCoinRules lets admins change the two singleton configuration rows.
func UpsertCoinRules(c *gin.Context) {
	var req CoinRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}
	if req.Earning == nil && req.Redemption == nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "At least one rule must be provided.")
		return
	}

	gormDB, ok := database(c)
	if !ok {
		return
	}

	err := gormDB.Transaction(func(tx *gorm.DB) error {
		if req.Earning != nil {
			rule := models.CoinRule{
				Kind:      models.CoinRuleEarning,
				Threshold: req.Earning.Threshold,
				Coins:     req.Earning.Coins,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "kind"}},
				DoUpdates: clause.AssignmentColumns([]string{"threshold", "coins", "updated_at"}),
			}).Create(&rule).Error; err != nil {
				return err
			}
		}
		if req.Redemption != nil {
			rule := models.CoinRule{
				Kind:            models.CoinRuleRedemption,
				Coins:           req.Redemption.Coins,
				DiscountPercent: req.Redemption.DiscountPercent,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "kind"}},
				DoUpdates: clause.AssignmentColumns([]string{"coins", "discount_percent", "updated_at"}),
			}).Create(&rule).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to update coin rules.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Coin rules updated.",
		"earning":    loadEarningRule(gormDB),
		"redemption": loadRedemptionRule(gormDB),
	})
}

// ExpireStaleCoins is the admin maintenance sweep: users whose last earning
// is older than the retention window have their balance expired through the
// ledger.
func ExpireStaleCoins(c *gin.Context) {
	gormDB, ok := database(c)
	if !ok {
		return
	}

	cutoff := time.Now().AddDate(-1, 0, 0)

	var users []models.User
	if err := gormDB.Where("coins > 0").Find(&users).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving users.")
		return
	}

	expiredUsers := 0
	for _, user := range users {
		var lastEarned models.CoinTransaction
		err := gormDB.Where("user_id = ? AND type = ?", user.ID, models.CoinTxEarned).
			Order("created_at DESC").First(&lastEarned).Error
		if err != nil || lastEarned.CreatedAt.After(cutoff) {
			continue
		}

		err = gormDB.Transaction(func(tx *gorm.DB) error {
			var locked models.User
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&locked, user.ID).Error; err != nil {
				return err
			}
			if locked.Coins == 0 {
				return nil
			}
			amount := locked.Coins
			if err := tx.Model(&locked).Update("coins", 0).Error; err != nil {
				return err
			}
			transaction := models.CoinTransaction{
				UserID:       locked.ID,
				Type:         models.CoinTxExpired,
				Amount:       amount,
				BalanceAfter: 0,
				Description:  "Coins expired after 12 months of inactivity",
			}
			return tx.Create(&transaction).Error
		})
		if err == nil {
			expiredUsers++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Stale coin balances expired.",
		"expired_users": expiredUsers,
	})
}
