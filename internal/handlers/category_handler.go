package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/urbankart/urbankart-api/internal/helpers"
	"github.com/urbankart/urbankart-api/internal/models"
)

type CategoryRequest struct {
	Name string `json:"name" binding:"required,min=2"`
}

func CreateCategory(c *gin.Context) {
	var req CategoryRequest
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

	category := models.Category{Name: req.Name}
	if err := gormDB.Create(&category).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create category.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Category created successfully.",
		"category_id": category.ID,
	})
}

func ListCategories(c *gin.Context) {
	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var categories []models.Category
	if err := gormDB.Order("name ASC").Find(&categories).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving categories.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func DeleteCategory(c *gin.Context) {
	categoryID := c.Param("id")

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	result := gormDB.Where("id = ?", categoryID).Delete(&models.Category{})
	if result.Error != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to delete category.")
		return
	}
	if result.RowsAffected == 0 {
		helpers.RespondWithError(c, http.StatusNotFound, "Category not found.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully."})
}
