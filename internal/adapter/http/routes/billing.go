package routes

import (
	"cardpay_billing/internal/adapter/http/handlers"

	"github.com/gin-gonic/gin"
)

const (
	PathOrders   = "/orders"
	PathPayments = "/payments"
)

func addPaymentRoutes(rg *gin.RouterGroup, paymentHandler *handlers.PaymentHandler) {
	orders := rg.Group(PathOrders)
	{
		// Called by the store when the buyer picks card payment.
		orders.POST("/:order_id/payment-link", paymentHandler.CreatePaymentLink)
	}

	payments := rg.Group(PathPayments)
	{
		// Payment page endpoints, addressed by payment hash only.
		payments.GET("", paymentHandler.GetPayment)
		payments.POST("/charge", paymentHandler.Charge)
		payments.POST("/:payment_hash/charge", paymentHandler.Charge)
	}
}
