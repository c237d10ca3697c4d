package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/urbankart/urbankart-api/internal/helpers"
	"github.com/urbankart/urbankart-api/internal/models"
	"github.com/urbankart/urbankart-api/internal/promo"
)

type DiscountRequest struct {
	Code        string    `json:"code" binding:"required"`
	Name        string    `json:"name" binding:"required"`
	Type        string    `json:"type" binding:"required,oneof=percentage fixed custom"`
	Value       float64   `json:"value" binding:"min=0"`
	MinOrder    float64   `json:"min_order" binding:"min=0"`
	MaxDiscount *float64  `json:"max_discount"`
	UsageLimit  *int      `json:"usage_limit"`
	StartDate   time.Time `json:"start_date" binding:"required"`
	EndDate     time.Time `json:"end_date" binding:"required"`
	Status      string    `json:"status" binding:"omitempty,oneof=active inactive"`
	Instruction string    `json:"instruction"`
}

type ValidateDiscountRequest struct {
	Code       string          `json:"code" binding:"required"`
	OrderTotal float64         `json:"order_total" binding:"required,gt=0"`
	CartItems  []CartItemInput `json:"cart_items"`
}

type CartItemInput struct {
	Price    float64 `json:"price" binding:"min=0"`
	Quantity int     `json:"quantity" binding:"min=1"`
}

func CreateDiscount(c *gin.Context) {
	var req DiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	gormDB, ok := database(c)
	if !ok {
		return
	}

	if req.Type == models.DiscountTypeCustom && req.Instruction == "" {
		helpers.RespondWithError(c, http.StatusBadRequest, "Custom discounts require an instruction.")
		return
	}

	status := req.Status
	if status == "" {
		status = "active"
	}

	discount := models.Discount{
		Code:        strings.ToUpper(req.Code),
		Name:        req.Name,
		Type:        req.Type,
		Value:       req.Value,
		MinOrder:    req.MinOrder,
		MaxDiscount: req.MaxDiscount,
		UsageLimit:  req.UsageLimit,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Status:      status,
		Instruction: req.Instruction,
	}

	if err := gormDB.Create(&discount).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create discount.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Discount created successfully.",
		"discount_id": discount.ID,
	})
}

func ListDiscounts(c *gin.Context) {
	gormDB, ok := database(c)
	if !ok {
		return
	}

	pageNum, limitNum, err := helpers.Pagination(c)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	query := gormDB.Model(&models.Discount{})
	var totalCount int64
	query.Count(&totalCount)

	var discounts []models.Discount
	offset := (pageNum - 1) * limitNum
	err = query.Offset(offset).Limit(limitNum).Order("created_at DESC").Find(&discounts).Error
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving discounts.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"discounts":   discounts,
		"total":       totalCount,
		"page":        pageNum,
		"limit":       limitNum,
		"total_pages": (totalCount + int64(limitNum) - 1) / int64(limitNum),
	})
}

// ListAvailableDiscounts returns the store-wide promotions currently
// usable. Discounts have no per-user ledger, so the same list is served to
// guests and authenticated users.
func ListAvailableDiscounts(c *gin.Context) {
	gormDB, ok := database(c)
	if !ok {
		return
	}

	var discounts []models.Discount
	if err := gormDB.Where("status = ?", "active").Find(&discounts).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving discounts.")
		return
	}

	available := promo.FilterAvailableDiscounts(discounts, promo.OrderContext{}, time.Now())
	c.JSON(http.StatusOK, gin.H{"discounts": available})
}

// ValidateDiscountCode checks a discount against an order and returns the
// amount it would yield, without recording any usage. Cart items are needed
// for instruction-based discounts.
func ValidateDiscountCode(c *gin.Context) {
	var req ValidateDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	gormDB, ok := database(c)
	if !ok {
		return
	}

	var discount models.Discount
	err := gormDB.Where("UPPER(code) = ? AND status = ?", strings.ToUpper(req.Code), "active").First(&discount).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			helpers.RespondWithError(c, http.StatusNotFound, "Discount not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving discount.")
		return
	}

	ctx := promo.ValidateDiscountContext{
		OrderTotal: req.OrderTotal,
		CartItems: lo.Map(req.CartItems, func(item CartItemInput, _ int) promo.CartItem {
			return promo.CartItem{Price: item.Price, Quantity: item.Quantity}
		}),
	}

	result, err := promo.ValidateDiscount(&discount, ctx, time.Now())
	if err != nil {
		respondRuleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"valid": true, "discount": result})
}

func UpdateDiscount(c *gin.Context) {
	var req DiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	gormDB, ok := database(c)
	if !ok {
		return
	}

	var discount models.Discount
	if err := gormDB.Where("id = ?", c.Param("id")).First(&discount).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			helpers.RespondWithError(c, http.StatusNotFound, "Discount not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error finding discount.")
		return
	}

	discount.Code = strings.ToUpper(req.Code)
	discount.Name = req.Name
	discount.Type = req.Type
	discount.Value = req.Value
	discount.MinOrder = req.MinOrder
	discount.MaxDiscount = req.MaxDiscount
	discount.UsageLimit = req.UsageLimit
	discount.StartDate = req.StartDate
	discount.EndDate = req.EndDate
	discount.Instruction = req.Instruction
	if req.Status != "" {
		discount.Status = req.Status
	}

	if err := gormDB.Save(&discount).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to update discount.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Discount updated successfully.",
		"discount": discount,
	})
}

func DeleteDiscount(c *gin.Context) {
	gormDB, ok := database(c)
	if !ok {
		return
	}

	result := gormDB.Where("id = ?", c.Param("id")).Delete(&models.Discount{})
	if result.Error != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to delete discount.")
		return
	}
	if result.RowsAffected == 0 {
		helpers.RespondWithError(c, http.StatusNotFound, "Discount not found.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Discount deleted successfully."})
}
