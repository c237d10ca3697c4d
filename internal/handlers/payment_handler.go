package handlers

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	invoice "github.com/xendit/xendit-go/v6/invoice"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/urbankart/urbankart-api/internal/coins"
	"github.com/urbankart/urbankart-api/internal/helpers"
	"github.com/urbankart/urbankart-api/internal/middleware"
	"github.com/urbankart/urbankart-api/internal/models"
)

type PaymentRequest struct {
	OrderID uuid.UUID `json:"order_id" binding:"required"`
}

// CreatePaymentLink creates a Xendit invoice for a pending order and
// returns the hosted payment URL.
func CreatePaymentLink(c *gin.Context) {
	userUUID, ok := currentUser(c)
	if !ok {
		return
	}

	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
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
	if order.Status != models.OrderStatusPending {
		helpers.RespondWithError(c, http.StatusBadRequest, "Order is not awaiting payment.")
		return
	}

	var user models.User
	if err := gormDB.First(&user, userUUID).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "User not found.")
		return
	}

	xenditClient := middleware.GetXenditClient(c)
	if xenditClient == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Payment gateway not configured.")
		return
	}

	createInvoiceRequest := *invoice.NewCreateInvoiceRequest(order.ID.String(), order.Total)
	createInvoiceRequest.SetPayerEmail(user.Email)
	createInvoiceRequest.SetDescription(fmt.Sprintf("UrbanKart order %s", order.ID))

	inv, _, xndErr := xenditClient.InvoiceApi.CreateInvoice(c).
		CreateInvoiceRequest(createInvoiceRequest).
		Execute()
	if xndErr != nil {
		helpers.RespondWithError(c, http.StatusBadGateway, "Failed to create payment invoice.")
		return
	}

	payment := models.Payment{
		Amount:     order.Total,
		Status:     "pending",
		InvoiceID:  inv.GetId(),
		InvoiceURL: inv.GetInvoiceUrl(),
		OrderID:    order.ID,
		UserID:     userUUID,
	}
	if err := gormDB.Create(&payment).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to record payment.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Payment link created.",
		"payment_id":  payment.ID,
		"invoice_url": payment.InvoiceURL,
	})
}

type invoiceCallback struct {
	ID            string  `json:"id"`
	ExternalID    string  `json:"external_id"`
	Status        string  `json:"status"`
	PaymentMethod string  `json:"payment_method"`
	PaidAmount    float64 `json:"paid_amount"`
}

// XenditWebhook receives invoice callbacks. On a paid invoice the order is
// marked paid and the loyalty coins it earned are credited through the
// ledger, inside one transaction.
func XenditWebhook(c *gin.Context) {
	callbackToken := os.Getenv("XENDIT_CALLBACK_TOKEN")
	if callbackToken == "" || c.GetHeader("x-callback-token") != callbackToken {
		helpers.RespondWithError(c, http.StatusUnauthorized, "Invalid callback token.")
		return
	}

	var callback invoiceCallback
	if err := c.ShouldBindJSON(&callback); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid callback payload.")
		return
	}

	gormDB, ok := database(c)
	if !ok {
		return
	}

	var payment models.Payment
	if err := gormDB.Where("invoice_id = ?", callback.ID).First(&payment).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Payment not found.")
		return
	}

	err := gormDB.Transaction(func(tx *gorm.DB) error {
		switch callback.Status {
		case "PAID", "SETTLED":
			if payment.Status == "paid" {
				return nil
			}
			if err := tx.Model(&payment).Updates(map[string]interface{}{
				"status": "paid",
				"method": callback.PaymentMethod,
			}).Error; err != nil {
				return err
			}

			var order models.Order
			if err := tx.Where("id = ?", payment.OrderID).First(&order).Error; err != nil {
				return err
			}
			if err := tx.Model(&order).Update("status", models.OrderStatusPaid).Error; err != nil {
				return err
			}

			earned := coins.EarnedForOrder(order.Total, loadEarningRule(tx))
			if earned > 0 {
				return creditCoins(tx, order.UserID, earned, models.CoinTxEarned,
					"Coins earned for order", &order.ID,
					datatypes.JSONMap{"invoice_id": payment.InvoiceID})
			}
			return nil
		case "EXPIRED":
			return tx.Model(&payment).Update("status", "expired").Error
		default:
			return nil
		}
	})
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to process callback.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Callback processed."})
}
