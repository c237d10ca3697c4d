package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/urbankart/urbankart-api/internal/helpers"
	"github.com/urbankart/urbankart-api/internal/models"
)

type AddToCartRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

func currentUser(c *gin.Context) (uuid.UUID, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User not authenticated.")
		return uuid.Nil, false
	}
	userUUID, ok := userID.(uuid.UUID)
	if !ok {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Invalid user ID format.")
		return uuid.Nil, false
	}
	return userUUID, true
}

func database(c *gin.Context) (*gorm.DB, bool) {
	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return nil, false
	}
	return db.(*gorm.DB), true
}

func GetCart(c *gin.Context) {
	userUUID, ok := currentUser(c)
	if !ok {
		return
	}
	gormDB, ok := database(c)
	if !ok {
		return
	}

	var items []models.CartItem
	if err := gormDB.Preload("Product").Where("user_id = ?", userUUID).Order("created_at ASC").Find(&items).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving cart.")
		return
	}

	subtotal := 0.0
	totalQuantity := 0
	for _, item := range items {
		if item.Product != nil {
			subtotal += item.Product.Price * float64(item.Quantity)
		}
		totalQuantity += item.Quantity
	}

	c.JSON(http.StatusOK, gin.H{
		"items":          items,
		"subtotal":       subtotal,
		"total_quantity": totalQuantity,
	})
}

func AddToCart(c *gin.Context) {
	userUUID, ok := currentUser(c)
	if !ok {
		return
	}

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	gormDB, ok := database(c)
	if !ok {
		return
	}

	var product models.Product
	if err := gormDB.Where("id = ? AND status = ?", req.ProductID, "active").First(&product).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Product not found.")
		return
	}

	var item models.CartItem
	err := gormDB.Where("user_id = ? AND product_id = ?", userUUID, req.ProductID).First(&item).Error
	if err == nil {
		item.Quantity += req.Quantity
		if item.Quantity > product.Stock {
			helpers.RespondWithError(c, http.StatusBadRequest, "Not enough stock available.")
			return
		}
		if err := gormDB.Save(&item).Error; err != nil {
			helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to update cart.")
			return
		}
	} else {
		if req.Quantity > product.Stock {
			helpers.RespondWithError(c, http.StatusBadRequest, "Not enough stock available.")
			return
		}
		item = models.CartItem{
			UserID:    userUUID,
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
		}
		if err := gormDB.Create(&item).Error; err != nil {
			helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to add to cart.")
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Item added to cart.", "item_id": item.ID})
}

func UpdateCartItem(c *gin.Context) {
	userUUID, ok := currentUser(c)
	if !ok {
		return
	}

	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Quantity must be at least 1.")
		return
	}

	gormDB, ok := database(c)
	if !ok {
		return
	}

	var item models.CartItem
	if err := gormDB.Preload("Product").Where("id = ? AND user_id = ?", c.Param("id"), userUUID).First(&item).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Cart item not found.")
		return
	}

	if item.Product != nil && req.Quantity > item.Product.Stock {
		helpers.RespondWithError(c, http.StatusBadRequest, "Not enough stock available.")
		return
	}

	item.Quantity = req.Quantity
	if err := gormDB.Save(&item).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to update cart item.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cart item updated.", "item": item})
}

func RemoveCartItem(c *gin.Context) {
	userUUID, ok := currentUser(c)
	if !ok {
		return
	}
	gormDB, ok := database(c)
	if !ok {
		return
	}

	result := gormDB.Where("id = ? AND user_id = ?", c.Param("id"), userUUID).Delete(&models.CartItem{})
	if result.Error != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to remove cart item.")
		return
	}
	if result.RowsAffected == 0 {
		helpers.RespondWithError(c, http.StatusNotFound, "Cart item not found.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cart item removed."})
}

func ClearCart(c *gin.Context) {
	userUUID, ok := currentUser(c)
	if !ok {
		return
	}
	gormDB, ok := database(c)
	if !ok {
		return
	}

	if err := gormDB.Where("user_id = ?", userUUID).Delete(&models.CartItem{}).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to clear cart.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared."})
}
