package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/urbankart/urbankart-api/internal/coins"
	"github.com/urbankart/urbankart-api/internal/helpers"
	"github.com/urbankart/urbankart-api/internal/promo"
)

// Checkout failures that are not part of the promo/coins taxonomy.
var (
	errEmptyCart           = errors.New("cart is empty")
	errProductUnavailable  = errors.New("product unavailable")
	errOutOfStock          = errors.New("out of stock")
	errNotCancellable      = errors.New("order not cancellable")
	errRefundBeforeReceipt = errors.New("refund before receipt")
)

// respondRuleError maps the promo/coins failure taxonomy to HTTP statuses.
// All rule failures are terminal for the request.
func respondRuleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, promo.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		helpers.RespondWithError(c, http.StatusNotFound, "Code not found or inactive.")
	case errors.Is(err, promo.ErrNotStarted),
		errors.Is(err, promo.ErrExpired),
		errors.Is(err, promo.ErrLimitReached),
		errors.Is(err, promo.ErrBelowMinimum),
		errors.Is(err, coins.ErrInsufficientCoins),
		errors.Is(err, coins.ErrInvalidInput):
		helpers.RespondWithError(c, http.StatusBadRequest, err.Error())
	default:
		helpers.RespondWithError(c, http.StatusInternalServerError, "Something went wrong.")
	}
}
