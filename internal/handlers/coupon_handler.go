package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/urbankart/urbankart-api/internal/helpers"
	"github.com/urbankart/urbankart-api/internal/models"
	"github.com/urbankart/urbankart-api/internal/promo"
)

type CouponRequest struct {
	Code           string    `json:"code" binding:"required"`
	Description    string    `json:"description"`
	Type           string    `json:"type" binding:"required,oneof=percentage fixed free_shipping"`
	Discount       float64   `json:"discount" binding:"min=0"`
	MinPurchase    float64   `json:"min_purchase" binding:"min=0"`
	MaxDiscount    *float64  `json:"max_discount"`
	ValidFrom      time.Time `json:"valid_from" binding:"required"`
	ValidUntil     time.Time `json:"valid_until" binding:"required"`
	UsageLimit     *int      `json:"usage_limit"`
	UserUsageLimit string    `json:"user_usage_limit" binding:"omitempty,oneof=once multiple"`
	Status         string    `json:"status" binding:"omitempty,oneof=active inactive"`
}

type ValidateCouponRequest struct {
	Code       string  `json:"code" binding:"required"`
	OrderTotal float64 `json:"order_total" binding:"required,gt=0"`
}

func CreateCoupon(c *gin.Context) {
	var req CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	gormDB, ok := database(c)
	if !ok {
		return
	}

	userUsageLimit := req.UserUsageLimit
	if userUsageLimit == "" {
		userUsageLimit = models.UserUsageOnce
	}
	status := req.Status
	if status == "" {
		status = "active"
	}

	coupon := models.Coupon{
		Code:           strings.ToUpper(req.Code),
		Description:    req.Description,
		Type:           req.Type,
		Discount:       req.Discount,
		MinPurchase:    req.MinPurchase,
		MaxDiscount:    req.MaxDiscount,
		ValidFrom:      req.ValidFrom,
		ValidUntil:     req.ValidUntil,
		UsageLimit:     req.UsageLimit,
		UserUsageLimit: userUsageLimit,
		Status:         status,
	}

	if err := gormDB.Create(&coupon).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create coupon.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Coupon created successfully.",
		"coupon_id": coupon.ID,
	})
}

func ListCoupons(c *gin.Context) {
	gormDB, ok := database(c)
	if !ok {
		return
	}

	pageNum, limitNum, err := helpers.Pagination(c)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	query := gormDB.Model(&models.Coupon{})
	var totalCount int64
	query.Count(&totalCount)

	var coupons []models.Coupon
	offset := (pageNum - 1) * limitNum
	err = query.Offset(offset).Limit(limitNum).Order("created_at DESC").Find(&coupons).Error
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving coupons.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"coupons":     coupons,
		"total":       totalCount,
		"page":        pageNum,
		"limit":       limitNum,
		"total_pages": (totalCount + int64(limitNum) - 1) / int64(limitNum),
	})
}

// ListAvailableCoupons returns the coupons the caller can use right now.
// Works for guests; authenticated callers additionally get per-user usage
// rules applied. An optional order_total query narrows by minimum purchase.
func ListAvailableCoupons(c *gin.Context) {
	gormDB, ok := database(c)
	if !ok {
		return
	}

	var coupons []models.Coupon
	if err := gormDB.Where("status = ?", "active").Find(&coupons).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving coupons.")
		return
	}

	ctx := promo.OrderContext{}
	if orderTotalStr := c.Query("order_total"); orderTotalStr != "" {
		orderTotal, err := strconv.ParseFloat(orderTotalStr, 64)
		if err != nil {
			helpers.RespondWithError(c, http.StatusBadRequest, "Invalid order total.")
			return
		}
		ctx.OrderTotal = &orderTotal
	}

	usage := promo.CouponUsageStats{
		UsedCouponIDs: map[uuid.UUID]bool{},
		UsageCounts:   map[uuid.UUID]int{},
	}
	if userID, exists := c.Get("user_id"); exists {
		userUUID := userID.(uuid.UUID)
		ctx.UserID = &userUUID

		var usages []models.CouponUsage
		if err := gormDB.Where("user_id = ?", userUUID).Find(&usages).Error; err != nil {
			helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving coupon usage.")
			return
		}
		for _, u := range usages {
			usage.UsedCouponIDs[u.CouponID] = true
			usage.UsageCounts[u.CouponID]++
		}
	}

	available := promo.FilterAvailableCoupons(coupons, ctx, usage, time.Now())
	c.JSON(http.StatusOK, gin.H{"coupons": available})
}

// ValidateCouponCode checks a coupon against an order total and returns
// the discount it would yield, without recording any usage.
func ValidateCouponCode(c *gin.Context) {
	var req ValidateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	gormDB, ok := database(c)
	if !ok {
		return
	}

	var coupon models.Coupon
	err := gormDB.Where("UPPER(code) = ? AND status = ?", strings.ToUpper(req.Code), "active").First(&coupon).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			helpers.RespondWithError(c, http.StatusNotFound, "Coupon not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving coupon.")
		return
	}

	ctx := promo.ValidateCouponContext{OrderTotal: req.OrderTotal}
	if userID, exists := c.Get("user_id"); exists {
		userUUID := userID.(uuid.UUID)
		ctx.UserID = &userUUID

		var count int64
		gormDB.Model(&models.CouponUsage{}).Where("coupon_id = ? AND user_id = ?", coupon.ID, userUUID).Count(&count)
		ctx.UserUsageCount = int(count)
	}

	result, err := promo.ValidateCoupon(&coupon, ctx, time.Now())
	if err != nil {
		respondRuleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"valid": true, "discount": result})
}

func UpdateCoupon(c *gin.Context) {
	var req CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	gormDB, ok := database(c)
	if !ok {
		return
	}

	var coupon models.Coupon
	if err := gormDB.Where("id = ?", c.Param("id")).First(&coupon).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			helpers.RespondWithError(c, http.StatusNotFound, "Coupon not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error finding coupon.")
		return
	}

	coupon.Code = strings.ToUpper(req.Code)
	coupon.Description = req.Description
	coupon.Type = req.Type
	coupon.Discount = req.Discount
	coupon.MinPurchase = req.MinPurchase
	coupon.MaxDiscount = req.MaxDiscount
	coupon.ValidFrom = req.ValidFrom
	coupon.ValidUntil = req.ValidUntil
	coupon.UsageLimit = req.UsageLimit
	if req.UserUsageLimit != "" {
		coupon.UserUsageLimit = req.UserUsageLimit
	}
	if req.Status != "" {
		coupon.Status = req.Status
	}

	if err := gormDB.Save(&coupon).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to update coupon.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Coupon updated successfully.",
		"coupon":  coupon,
	})
}

func DeleteCoupon(c *gin.Context) {
	gormDB, ok := database(c)
	if !ok {
		return
	}

	result := gormDB.Where("id = ?", c.Param("id")).Delete(&models.Coupon{})
	if result.Error != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to delete coupon.")
		return
	}
	if result.RowsAffected == 0 {
		helpers.RespondWithError(c, http.StatusNotFound, "Coupon not found.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Coupon deleted successfully."})
}
