package api

import (
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/giovaniif/fundraising/domain"
)

type ProcessDonationRequest struct {
	CenterId      string          `json:"center_id" binding:"required"`
	Amount        json.RawMessage `json:"amount" binding:"required"`
	DonorName     string          `json:"donor_name" binding:"required"`
	PaymentMethod string          `json:"payment_method" binding:"required"`
}

type CreatePaymentRequest struct {
	CenterId  string          `json:"center_id" binding:"required"`
	Amount    json.RawMessage `json:"amount" binding:"required"`
	ReturnUrl string          `json:"return_url" binding:"required"`
	CancelUrl string          `json:"cancel_url" binding:"required"`
}

type ExecutePaymentRequest struct {
	PaymentId string `json:"payment_id" binding:"required"`
	PayerId   string `json:"payer_id" binding:"required"`
	CenterId  string `json:"center_id" binding:"required"`
	DonorName string `json:"donor_name" binding:"required"`
}

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			return strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		})
	}
}

// bindRequest decodes the body into request and reports problems as InvalidInput.
func bindRequest(c *gin.Context, request any) error {
	err := c.ShouldBindJSON(request)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return domain.NewInvalidInputError("missing required field: " + fieldErrs[0].Field())
	}
	if errors.Is(err, io.EOF) {
		return domain.NewInvalidInputError("invalid JSON payload")
	}
	return domain.NewInvalidInputError("invalid JSON payload: " + err.Error())
}

// amountText accepts the amount as a JSON number or a numeric string.
func amountText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
