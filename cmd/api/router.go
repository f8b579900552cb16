package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/shopspring/decimal"

	"github.com/giovaniif/fundraising/domain/donation"
	"github.com/giovaniif/fundraising/infra/metrics"
	"github.com/giovaniif/fundraising/infra/requestid"
	"github.com/giovaniif/fundraising/infra/tracing"
	protocols "github.com/giovaniif/fundraising/protocols"
	"github.com/giovaniif/fundraising/use_cases/donate"
	"github.com/giovaniif/fundraising/use_cases/finalize"
	"github.com/giovaniif/fundraising/use_cases/initiate"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

type Dependencies struct {
	Repository     donation.Repository
	Gateway        protocols.PaymentGateway
	Publisher      protocols.EventPublisher
	Clock          protocols.Clock
	GatewayTimeout time.Duration
	AllowedOrigins []string
	// RedisPing is nil when Redis is not configured.
	RedisPing func(ctx context.Context) error
}

var endpoints = []string{
	"/centers - GET all centers",
	"/centers/<center_id> - GET center details",
	"/process_donation - POST to process donation",
	"/create_payment - POST to create a payment",
	"/execute_payment - POST to execute an approved payment",
	"/donations - GET all donations",
	"/donations/<donation_id> - GET donation details",
}

func NewRouter(deps Dependencies) http.Handler {
	donateUseCase := donate.NewDonate(deps.Repository, deps.Publisher, deps.Clock)
	initiateUseCase := initiate.NewInitiate(deps.Repository, deps.Gateway, deps.GatewayTimeout)
	finalizeUseCase := finalize.NewFinalize(deps.Repository, deps.Gateway, deps.Publisher, deps.Clock, deps.GatewayTimeout)

	r := gin.New()
	r.Use(gin.Recovery(), requestid.Middleware(), tracing.Middleware(), metrics.Middleware)

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "online",
			"message":   "Suicide Prevention Fundraising API is running",
			"endpoints": endpoints,
		})
	})

	r.GET("/health", func(c *gin.Context) {
		status := "healthy"
		redisCheck := "n/a"
		if deps.RedisPing != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := deps.RedisPing(ctx); err != nil {
				status = "degraded"
				redisCheck = "down"
			} else {
				redisCheck = "up"
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": status, "checks": gin.H{"redis": redisCheck}})
	})

	r.GET("/metrics", metrics.Handler())

	r.GET("/centers", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "success", "centers": deps.Repository.ListCenters()})
	})

	r.GET("/centers/:id", func(c *gin.Context) {
		found, err := deps.Repository.GetCenter(c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "center": found})
	})

	r.POST("/process_donation", func(c *gin.Context) {
		var request ProcessDonationRequest
		if err := bindRequest(c, &request); err != nil {
			respondError(c, err)
			return
		}
		output, err := donateUseCase.Donate(c.Request.Context(), donate.Input{
			CenterId:      request.CenterId,
			Amount:        amountText(request.Amount),
			DonorName:     request.DonorName,
			PaymentMethod: request.PaymentMethod,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, recordedResponse(output.Donation, output.Center))
	})

	r.POST("/create_payment", func(c *gin.Context) {
		var request CreatePaymentRequest
		if err := bindRequest(c, &request); err != nil {
			respondError(c, err)
			return
		}
		output, err := initiateUseCase.Initiate(c.Request.Context(), initiate.Input{
			CenterId:  request.CenterId,
			Amount:    amountText(request.Amount),
			ReturnUrl: request.ReturnUrl,
			CancelUrl: request.CancelUrl,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "payment_id": output.PaymentId, "approval_url": output.ApprovalUrl})
	})

	r.POST("/execute_payment", func(c *gin.Context) {
		var request ExecutePaymentRequest
		if err := bindRequest(c, &request); err != nil {
			respondError(c, err)
			return
		}
		output, err := finalizeUseCase.Finalize(c.Request.Context(), finalize.Input{
			PaymentId: request.PaymentId,
			PayerId:   request.PayerId,
			CenterId:  request.CenterId,
			DonorName: request.DonorName,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, recordedResponse(output.Donation, output.Center))
	})

	// TODO: restrict the donation reads to admins once an auth provider is chosen.
	r.GET("/donations", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "success", "donations": deps.Repository.ListDonations()})
	})

	r.GET("/donations/:id", func(c *gin.Context) {
		found, err := deps.Repository.GetDonation(c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "donation": found})
	})

	return cors.Handler(cors.Options{
		AllowedOrigins: deps.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", requestid.Header},
		ExposedHeaders: []string{requestid.Header},
		MaxAge:         300,
	})(r)
}
