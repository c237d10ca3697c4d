package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/urbankart/urbankart-api/internal/helpers"
	"github.com/urbankart/urbankart-api/internal/models"
)

type ProductRequest struct {
	Name           string                 `json:"name" binding:"required"`
	Description    string                 `json:"description"`
	Price          float64                `json:"price" binding:"required,gt=0"`
	Stock          int                    `json:"stock" binding:"min=0"`
	ImageURL       string                 `json:"image_url"`
	Specifications map[string]interface{} `json:"specifications"`
	CategoryID     uuid.UUID              `json:"category_id" binding:"required"`
	Status         string                 `json:"status"`
}

func CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var category models.Category
	if err := gormDB.First(&category, req.CategoryID).Error; err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Category not found.")
		return
	}

	status := req.Status
	if status == "" {
		status = "active"
	}

	product := models.Product{
		ID:             uuid.New(),
		Name:           req.Name,
		Description:    req.Description,
		Price:          req.Price,
		Stock:          req.Stock,
		ImageURL:       req.ImageURL,
		Specifications: datatypes.JSONMap(req.Specifications),
		Status:         status,
		CategoryID:     category.ID,
	}

	if err := gormDB.Create(&product).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create product.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    "Product created successfully.",
		"product_id": product.ID,
	})
}

func ListProducts(c *gin.Context) {
	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	pageNum, limitNum, err := helpers.Pagination(c)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	query := gormDB.Model(&models.Product{}).Where("status = ?", "active")

	if search := c.Query("search"); search != "" {
		query = query.Where("name ILIKE ?", "%"+search+"%")
	}
	if categoryID := c.Query("category_id"); categoryID != "" {
		query = query.Where("category_id = ?", categoryID)
	}
	if minPrice := c.Query("min_price"); minPrice != "" {
		query = query.Where("price >= ?", minPrice)
	}
	if maxPrice := c.Query("max_price"); maxPrice != "" {
		query = query.Where("price <= ?", maxPrice)
	}

	var totalCount int64
	query.Count(&totalCount)

	var products []models.Product
	offset := (pageNum - 1) * limitNum
	err = query.Preload("Category").Offset(offset).Limit(limitNum).Order("created_at DESC").Find(&products).Error
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving products.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products":    products,
		"total":       totalCount,
		"page":        pageNum,
		"limit":       limitNum,
		"total_pages": (totalCount + int64(limitNum) - 1) / int64(limitNum),
	})
}

func GetProduct(c *gin.Context) {
	productID := c.Param("id")

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var product models.Product
	if err := gormDB.Preload("Category").Where("id = ?", productID).First(&product).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			helpers.RespondWithError(c, http.StatusNotFound, "Product not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving product.")
		return
	}

	c.JSON(http.StatusOK, product)
}

func UpdateProduct(c *gin.Context) {
	productID := c.Param("id")

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var product models.Product
	if err := gormDB.Where("id = ?", productID).First(&product).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			helpers.RespondWithError(c, http.StatusNotFound, "Product not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error finding product.")
		return
	}

	product.Name = req.Name
	product.Description = req.Description
	product.Price = req.Price
	product.Stock = req.Stock
	product.ImageURL = req.ImageURL
	product.Specifications = datatypes.JSONMap(req.Specifications)
	product.CategoryID = req.CategoryID
	if req.Status != "" {
		product.Status = req.Status
	}

	if err := gormDB.Save(&product).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to update product.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product updated successfully.",
		"product": product,
	})
}

func DeleteProduct(c *gin.Context) {
	productID := c.Param("id")

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	result := gormDB.Where("id = ?", productID).Delete(&models.Product{})
	if result.Error != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to delete product.")
		return
	}
	if result.RowsAffected == 0 {
		helpers.RespondWithError(c, http.StatusNotFound, "Product not found.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully."})
}
