package controller

import (
	"encoding/json"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v76"
	"gorm.io/gorm"

	"glowreach/config"
	"glowreach/models"
	"glowreach/utils"
)

// InitStripe configures the Stripe client key for the process
func InitStripe() {
	stripe.Key = config.AppConfig.StripeSecretKey
}

type PaymentController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewPaymentController(db *gorm.DB, logger *log.Logger) *PaymentController {
	return &PaymentController{
		DB:     db,
		Logger: logger,
	}
}

func (pc *PaymentController) GetPlans(c *fiber.Ctx) error {
	var plans []models.Plan
	if err := pc.DB.Where("price > 0 OR name = ?", "free").Order("price ASC").Find(&plans).Error; err != nil {
		pc.Logger.Printf("PAYMENT: failed to list plans: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list plans", nil)
	}
	return c.JSON(utils.SuccessResponse(plans))
}

type CreateIntentRequest struct {
	PlanID uint `json:"plan_id" validate:"required"`
}

// CreateIntent starts a credit purchase. The credits are granted by the
// webhook once Stripe confirms payment.
func (pc *PaymentController) CreateIntent(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input CreateIntentRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	var plan models.Plan
	if err := pc.DB.First(&plan, input.PlanID).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Plan not found", nil)
	}
	if plan.Price <= 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Plan is not purchasable", nil)
	}

	intent, err := utils.CreatePaymentIntent(int64(plan.Price), "usd", user.StripeCustomerID, map[string]string{
		"user_id": utils.FormatUint(user.ID),
		"plan_id": utils.FormatUint(plan.ID),
	})
	if err != nil {
		pc.Logger.Printf("PAYMENT: failed to create payment intent: %v", err)
		return utils.ErrorResponse(c, fiber.StatusBadGateway, "Payment provider error", nil)
	}

	transaction := models.CreditTransaction{
		UserID:                user.ID,
		PlanID:                &plan.ID,
		GenerationCredits:     plan.GenerationCredits,
		Amount:                plan.Price,
		Currency:              "USD",
		PaymentStatus:         "pending",
		Description:           "Credit purchase: " + plan.Name,
		StripePaymentIntentID: intent.ID,
	}
	if err := pc.DB.Create(&transaction).Error; err != nil {
		pc.Logger.Printf("PAYMENT: failed to record transaction: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to record transaction", nil)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"client_secret": intent.ClientSecret,
		"transaction":   transaction,
	}))
}

// HandleWebhook processes Stripe events. Credits are granted exactly once
// per payment intent.
func (pc *PaymentController) HandleWebhook(c *fiber.Ctx) error {
	event, err := utils.ConstructStripeEvent(c)
	if err != nil {
		return err
	}

	switch event.Type {
	case "payment_intent.succeeded":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			pc.Logger.Printf("PAYMENT: failed to parse payment intent: %v", err)
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Malformed event payload", nil)
		}
		if err := pc.settlePayment(intent.ID); err != nil {
			pc.Logger.Printf("PAYMENT: failed to settle payment %s: %v", intent.ID, err)
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to settle payment", nil)
		}

	case "payment_intent.payment_failed":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err == nil {
			pc.DB.Model(&models.CreditTransaction{}).
				Where("stripe_payment_intent_id = ? AND payment_status = ?", intent.ID, "pending").
				Update("payment_status", "failed")
		}

	default:
		if !strings.HasPrefix(string(event.Type), "payment_intent.") {
			pc.Logger.Printf("PAYMENT: ignoring event type %s", event.Type)
		}
	}

	return c.SendStatus(fiber.StatusOK)
}

func (pc *PaymentController) settlePayment(intentID string) error {
	return pc.DB.Transaction(func(tx *gorm.DB) error {
		var transaction models.CreditTransaction
		err := tx.Where("stripe_payment_intent_id = ?", intentID).First(&transaction).Error
		if err != nil {
			return err
		}
		if transaction.PaymentStatus == "completed" {
			return nil // already settled, webhook retried
		}

		if err := tx.Model(&transaction).Update("payment_status", "completed").Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"generation_credits": gorm.Expr("generation_credits + ?", transaction.GenerationCredits),
		}
		if transaction.PlanID != nil {
			updates["plan_id"] = *transaction.PlanID
		}
		if err := tx.Model(&models.User{}).Where("id = ?", transaction.UserID).
			Updates(updates).Error; err != nil {
			return err
		}

		utils.LogEvent("credits_granted", map[string]interface{}{
			"user_id": transaction.UserID,
			"credits": transaction.GenerationCredits,
			"intent":  intentID,
		})
		return nil
	})
}
