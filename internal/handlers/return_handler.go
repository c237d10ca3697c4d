package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/urbankart/urbankart-api/internal/helpers"
	"github.com/urbankart/urbankart-api/internal/models"
)

type ReturnRequest struct {
	OrderID uuid.UUID `json:"order_id" binding:"required"`
	Reason  string    `json:"reason" binding:"required,min=10"`
}

type UpdateReturnStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=approved rejected received refunded"`
}

func returnLabelData(ret *models.Return) string {
	signature := signReturnLabel(ret.ID, ret.OrderID, ret.UserID)
	return fmt.Sprintf("rma:%s;order:%s;signature:%s", ret.RMACode, ret.OrderID.String(), signature)
}

func signReturnLabel(returnID, orderID, userID uuid.UUID) string {
	data := fmt.Sprintf("%s:%s:%s", returnID.String(), orderID.String(), userID.String())
	h := hmac.New(sha256.New, []byte(os.Getenv("JWT_SECRET")))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

// RequestReturn opens an RMA for a delivered order.
func RequestReturn(c *gin.Context) {
	userUUID, ok := currentUser(c)
	if !ok {
		return
	}

	var req ReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. A reason of at least 10 characters is required.")
		return
	}

	gormDB, ok := database(c)
	if !ok {
		return
	}

	var order models.Order
	if err := gormDB.Where("id = ? AND user_id = ?", req.OrderID, userUUID).First(&order).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Order not found.")
		return
	}
	if order.Status != models.OrderStatusDelivered {
		helpers.RespondWithError(c, http.StatusBadRequest, "Only delivered orders can be returned.")
		return
	}

	var existing models.Return
	if err := gormDB.Where("order_id = ?", order.ID).First(&existing).Error; err == nil {
		helpers.RespondWithError(c, http.StatusConflict, "A return already exists for this order.")
		return
	}

	ret := models.Return{
		ID:      uuid.New(),
		OrderID: order.ID,
		UserID:  userUUID,
		Reason:  req.Reason,
		Status:  models.ReturnStatusRequested,
		RMACode: helpers.GenerateRMACode(),
	}
	if err := gormDB.Create(&ret).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create return request.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Return requested.",
		"rma_code": ret.RMACode,
		"return":   ret,
	})
}

func ListReturns(c *gin.Context) {
	userUUID, ok := currentUser(c)
	if !ok {
		return
	}
	gormDB, ok := database(c)
	if !ok {
		return
	}

	var returns []models.Return
	if err := gormDB.Where("user_id = ?", userUUID).Order("created_at DESC").Find(&returns).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving returns.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"returns": returns})
}

// GenerateReturnLabel renders the signed drop-off QR label for an approved
// return as a PNG.
func GenerateReturnLabel(c *gin.Context) {
	userUUID, ok := currentUser(c)
	if !ok {
		return
	}
	gormDB, ok := database(c)
	if !ok {
		return
	}

	var ret models.Return
	if err := gormDB.Where("id = ? AND user_id = ?", c.Param("id"), userUUID).First(&ret).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Return not found.")
		return
	}
	if ret.Status != models.ReturnStatusApproved {
		helpers.RespondWithError(c, http.StatusBadRequest, "Return has not been approved yet.")
		return
	}

	qrImage, err := qrcode.Encode(returnLabelData(&ret), qrcode.Medium, 256)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to generate return label.")
		return
	}

	c.Data(http.StatusOK, "image/png", qrImage)
}

// ListAllReturns is the admin view across users.
func ListAllReturns(c *gin.Context) {
	gormDB, ok := database(c)
	if !ok {
		return
	}

	pageNum, limitNum, err := helpers.Pagination(c)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	query := gormDB.Model(&models.Return{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var totalCount int64
	query.Count(&totalCount)

	var returns []models.Return
	offset := (pageNum - 1) * limitNum
	err = query.Preload("Order").Offset(offset).Limit(limitNum).Order("created_at DESC").Find(&returns).Error
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving returns.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"returns": returns,
		"total":   totalCount,
		"page":    pageNum,
		"limit":   limitNum,
	})
}

// UpdateReturnStatus drives the RMA lifecycle. Moving to refunded settles
// the refund: the order flips to returned and coins spent on the order come
// back, all in one transaction.
func UpdateReturnStatus(c *gin.Context) {
	var req UpdateReturnStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid status.")
		return
	}

	gormDB, ok := database(c)
	if !ok {
		return
	}

	err := gormDB.Transaction(func(tx *gorm.DB) error {
		var ret models.Return
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", c.Param("id")).First(&ret).Error; err != nil {
			return err
		}

		if req.Status != models.ReturnStatusRefunded {
			return tx.Model(&ret).Update("status", req.Status).Error
		}

		if ret.Status != models.ReturnStatusReceived {
			return errRefundBeforeReceipt
		}

		var order models.Order
		if err := tx.Where("id = ?", ret.OrderID).First(&order).Error; err != nil {
			return err
		}

		if order.CoinsUsed > 0 {
			if err := creditCoins(tx, ret.UserID, order.CoinsUsed, models.CoinTxRefunded,
				"Coins refunded for returned order", &order.ID, nil); err != nil {
				return err
			}
		}

		if err := tx.Model(&order).Update("status", models.OrderStatusReturned).Error; err != nil {
			return err
		}

		return tx.Model(&ret).Updates(map[string]interface{}{
			"status":         models.ReturnStatusRefunded,
			"refund_amount":  order.Total,
			"coins_refunded": order.CoinsUsed,
		}).Error
	})
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			helpers.RespondWithError(c, http.StatusNotFound, "Return not found.")
			return
		}
		if err == errRefundBeforeReceipt {
			helpers.RespondWithError(c, http.StatusBadRequest, "Items must be received before refunding.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to update return.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Return updated."})
}
