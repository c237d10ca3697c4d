package handlers

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/urbankart/urbankart-api/internal/coins"
	"github.com/urbankart/urbankart-api/internal/helpers"
	"github.com/urbankart/urbankart-api/internal/models"
	"github.com/urbankart/urbankart-api/internal/promo"
)

type CheckoutRequest struct {
	ShippingAddress string  `json:"shipping_address" binding:"required"`
	CouponCode      *string `json:"coupon_code"`
	DiscountCode    *string `json:"discount_code"`
	CoinsToRedeem   int     `json:"coins_to_redeem" binding:"min=0"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending paid shipped delivered cancelled returned"`
}

func shippingFee() float64 {
	if fee, err := strconv.ParseFloat(os.Getenv("SHIPPING_FEE"), 64); err == nil {
		return fee
	}
	return 50
}

// Checkout turns the user's cart into an order. The coupon, discount and
// coin evaluations run against rows locked inside one transaction, so usage
// counters, the usage ledger, the coin balance and the coin ledger all
// commit or roll back together.
func Checkout(c *gin.Context) {
	userUUID, ok := currentUser(c)
	if !ok {
		return
	}

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	gormDB, ok := database(c)
	if !ok {
		return
	}

	now := time.Now()
	var order models.Order

	err := gormDB.Transaction(func(tx *gorm.DB) error {
		var cartItems []models.CartItem
		if err := tx.Preload("Product").Where("user_id = ?", userUUID).Find(&cartItems).Error; err != nil {
			return err
		}
		if len(cartItems) == 0 {
			return errEmptyCart
		}

		subtotal := 0.0
		for _, item := range cartItems {
			if item.Product == nil || item.Product.Status != "active" {
				return errProductUnavailable
			}
			subtotal += item.Product.Price * float64(item.Quantity)
		}

		promoItems := lo.Map(cartItems, func(item models.CartItem, _ int) promo.CartItem {
			return promo.CartItem{Price: item.Product.Price, Quantity: item.Quantity}
		})

		order = models.Order{
			ID:              uuid.New(),
			UserID:          userUUID,
			Subtotal:        subtotal,
			ShippingAddress: req.ShippingAddress,
			ShippingFee:     shippingFee(),
			Status:          models.OrderStatusPending,
		}

		// Coupon: validate against the locked row, record the usage row
		// and bump the counter in the same transaction.
		if req.CouponCode != nil && *req.CouponCode != "" {
			var coupon models.Coupon
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("UPPER(code) = ? AND status = ?", strings.ToUpper(*req.CouponCode), "active").
				First(&coupon).Error
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return promo.ErrNotFound
				}
				return err
			}

			var userUsageCount int64
			if err := tx.Model(&models.CouponUsage{}).
				Where("coupon_id = ? AND user_id = ?", coupon.ID, userUUID).
				Count(&userUsageCount).Error; err != nil {
				return err
			}

			result, err := promo.ValidateCoupon(&coupon, promo.ValidateCouponContext{
				OrderTotal:     subtotal,
				UserID:         &userUUID,
				UserUsageCount: int(userUsageCount),
			}, now)
			if err != nil {
				return err
			}

			if coupon.UsageLimit != nil && coupon.Used >= *coupon.UsageLimit {
				return promo.ErrLimitReached
			}

			order.CouponCode = &coupon.Code
			order.CouponDiscount = result.CalculatedDiscount
			order.FreeShipping = result.FreeShipping

			if err := tx.Model(&coupon).Update("used", coupon.Used+1).Error; err != nil {
				return err
			}
			usage := models.CouponUsage{
				CouponID: coupon.ID,
				UserID:   &userUUID,
				OrderID:  order.ID,
				UsedAt:   now,
			}
			if err := tx.Create(&usage).Error; err != nil {
				return err
			}
		}

		// Store-wide discount: same locked read-validate-increment shape,
		// minus the per-user ledger.
		if req.DiscountCode != nil && *req.DiscountCode != "" {
			var discount models.Discount
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("UPPER(code) = ? AND status = ?", strings.ToUpper(*req.DiscountCode), "active").
				First(&discount).Error
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return promo.ErrNotFound
				}
				return err
			}

			result, err := promo.ValidateDiscount(&discount, promo.ValidateDiscountContext{
				OrderTotal: subtotal,
				CartItems:  promoItems,
			}, now)
			if err != nil {
				return err
			}

			order.DiscountCode = &discount.Code
			order.DiscountAmount = result.CalculatedDiscount

			if err := tx.Model(&discount).Update("used", discount.Used+1).Error; err != nil {
				return err
			}
		}

		// Coins: lock the user row before reading the balance so the debit
		// and ledger append serialize with concurrent redemptions.
		if req.CoinsToRedeem > 0 {
			var user models.User
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userUUID).Error; err != nil {
				return err
			}

			redemption, err := coins.CalculateRedemption(req.CoinsToRedeem, user.Coins, subtotal, loadRedemptionRule(tx))
			if err != nil {
				return err
			}

			newBalance := user.Coins - req.CoinsToRedeem
			if err := tx.Model(&user).Update("coins", newBalance).Error; err != nil {
				return err
			}

			order.CoinsUsed = req.CoinsToRedeem
			order.CoinDiscount = redemption.DiscountAmount

			transaction := models.CoinTransaction{
				UserID:       userUUID,
				Type:         models.CoinTxSpent,
				Amount:       req.CoinsToRedeem,
				BalanceAfter: newBalance,
				Description:  "Coins redeemed at checkout",
				OrderID:      &order.ID,
			}
			if err := tx.Create(&transaction).Error; err != nil {
				return err
			}
		}

		if order.FreeShipping {
			order.ShippingFee = 0
		}

		total := subtotal - order.CouponDiscount - order.DiscountAmount - order.CoinDiscount + order.ShippingFee
		if total < 0 {
			total = 0
		}
		order.Total = total

		// Reserve stock under lock, then persist the order with its items
		// and empty the cart.
		for _, item := range cartItems {
			var product models.Product
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, item.ProductID).Error; err != nil {
				return err
			}
			if product.Stock < item.Quantity {
				return errOutOfStock
			}
			if err := tx.Model(&product).Update("stock", product.Stock-item.Quantity).Error; err != nil {
				return err
			}
			order.Items = append(order.Items, models.OrderItem{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Price:     item.Product.Price,
			})
		}

		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		return tx.Where("user_id = ?", userUUID).Delete(&models.CartItem{}).Error
	})
	if err != nil {
		switch err {
		case errEmptyCart:
			helpers.RespondWithError(c, http.StatusBadRequest, "Your cart is empty.")
		case errProductUnavailable:
			helpers.RespondWithError(c, http.StatusBadRequest, "One or more products are no longer available.")
		case errOutOfStock:
			helpers.RespondWithError(c, http.StatusBadRequest, "Not enough stock for one or more items.")
		default:
			respondRuleError(c, err)
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed successfully.",
		"order":   order,
	})
}

func ListOrders(c *gin.Context) {
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

	query := gormDB.Model(&models.Order{}).Where("user_id = ?", userUUID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var totalCount int64
	query.Count(&totalCount)

	var orders []models.Order
	offset := (pageNum - 1) * limitNum
	err = query.Preload("Items.Product").Offset(offset).Limit(limitNum).Order("created_at DESC").Find(&orders).Error
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving orders.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders":      orders,
		"total":       totalCount,
		"page":        pageNum,
		"limit":       limitNum,
		"total_pages": (totalCount + int64(limitNum) - 1) / int64(limitNum),
	})
}

func GetOrder(c *gin.Context) {
	userUUID, ok := currentUser(c)
	if !ok {
		return
	}
	gormDB, ok := database(c)
	if !ok {
		return
	}

	var order models.Order
	if err := gormDB.Preload("Items.Product").Preload("Payment").
		Where("id = ? AND user_id = ?", c.Param("id"), userUUID).First(&order).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Order not found.")
		return
	}

	c.JSON(http.StatusOK, order)
}

// CancelOrder cancels a pending order, restoring stock, the coin balance
// and releasing nothing else; coupon usage rows are kept, matching the
// append-only ledger semantics.
func CancelOrder(c *gin.Context) {
	userUUID, ok := currentUser(c)
	if !ok {
		return
	}
	gormDB, ok := database(c)
	if !ok {
		return
	}

	err := gormDB.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Preload("Items").
			Where("id = ? AND user_id = ?", c.Param("id"), userUUID).First(&order).Error; err != nil {
			return err
		}
		if order.Status != models.OrderStatusPending {
			return errNotCancellable
		}

		for _, item := range order.Items {
			if err := tx.Model(&models.Product{}).Where("id = ?", item.ProductID).
				Update("stock", gorm.Expr("stock + ?", item.Quantity)).Error; err != nil {
				return err
			}
		}

		if order.CoinsUsed > 0 {
			if err := creditCoins(tx, userUUID, order.CoinsUsed, models.CoinTxRefunded,
				"Coins refunded for cancelled order", &order.ID, nil); err != nil {
				return err
			}
		}

		return tx.Model(&order).Update("status", models.OrderStatusCancelled).Error
	})
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			helpers.RespondWithError(c, http.StatusNotFound, "Order not found.")
			return
		}
		if err == errNotCancellable {
			helpers.RespondWithError(c, http.StatusBadRequest, "Only pending orders can be cancelled.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to cancel order.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Order cancelled."})
}

// UpdateOrderStatus is the admin transition endpoint.
func UpdateOrderStatus(c *gin.Context) {
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid status.")
		return
	}

	gormDB, ok := database(c)
	if !ok {
		return
	}

	var order models.Order
	if err := gormDB.Where("id = ?", c.Param("id")).First(&order).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Order not found.")
		return
	}

	if err := gormDB.Model(&order).Update("status", req.Status).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to update order status.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order status updated.",
		"order":   order,
	})
}
