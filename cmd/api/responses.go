package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/giovaniif/fundraising/domain"
	"github.com/giovaniif/fundraising/domain/center"
	"github.com/giovaniif/fundraising/domain/donation"
)

func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrBelowMinimum):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrCenterNotFound),
		errors.Is(err, domain.ErrDonationNotFound),
		errors.Is(err, domain.ErrPaymentNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusOf(err)
	body := gin.H{"status": "error", "message": err.Error()}

	var gatewayErr *domain.GatewayError
	switch {
	case errors.As(err, &gatewayErr):
		if len(gatewayErr.Details) > 0 {
			body["details"] = gatewayErr.Details
		}
	case errors.Is(err, domain.ErrGatewayProtocol):
		// logged by the use case
	case status == http.StatusInternalServerError:
		slog.ErrorContext(c.Request.Context(), "request failed", slog.String("path", c.Request.URL.Path), slog.Any("err", err))
		if !errors.Is(err, domain.ErrInternal) {
			body["message"] = "Internal server error"
		}
	}
	c.JSON(status, body)
}

func thankYou(d donation.Donation, c center.Center) string {
	return fmt.Sprintf("Thank you for your donation of $%s to %s!", d.Amount.StringFixed(2), c.Name)
}

func recordedResponse(d donation.Donation, c center.Center) gin.H {
	return gin.H{
		"status":      "success",
		"donation_id": d.Id,
		"message":     thankYou(d, c),
		"center":      c,
	}
}
