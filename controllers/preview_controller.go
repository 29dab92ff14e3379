package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"glowreach/engine"
	"glowreach/models"
	"glowreach/utils"
)

type PreviewController struct {
	DB      *gorm.DB
	Logger  *log.Logger
	Manager *engine.PreviewManager
}

func NewPreviewController(db *gorm.DB, logger *log.Logger, manager *engine.PreviewManager) *PreviewController {
	return &PreviewController{
		DB:      db,
		Logger:  logger,
		Manager: manager,
	}
}

type CreatePreviewRequest struct {
	CampaignID  uint   `json:"campaign_id" validate:"required"`
	PatientName string `json:"patient_name" validate:"required,max=200"`
}

func (pc *PreviewController) CreatePreview(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input CreatePreviewRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	var campaign models.Campaign
	if err := pc.DB.Where("id = ? AND user_id = ?", input.CampaignID, user.ID).First(&campaign).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", nil)
	}

	if user.GenerationCredits < 1 {
		return utils.ErrorResponse(c, fiber.StatusPaymentRequired, "Insufficient generation credits", nil)
	}

	preview := pc.Manager.CreatePreview(campaign.Brief, campaign.Channel, input.PatientName)

	// Previews cost one credit, same as a generated message
	tx := pc.DB.Begin()
	if err := tx.Model(&models.User{}).Where("id = ?", user.ID).
		Update("generation_credits", gorm.Expr("generation_credits - 1")).Error; err != nil {
		tx.Rollback()
		pc.Logger.Printf("PREVIEW: failed to debit credit: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create preview", nil)
	}
	if err := tx.Create(&models.CreditUsage{
		UserID:     user.ID,
		CampaignID: &campaign.ID,
		Amount:     1,
		Action:     "preview",
	}).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create preview", nil)
	}
	if err := tx.Commit().Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create preview", nil)
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(preview))
}

func (pc *PreviewController) GetPreview(c *fiber.Ctx) error {
	preview, ok := pc.Manager.GetPreview(c.Params("id"))
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Preview not found", nil)
	}
	return c.JSON(utils.SuccessResponse(preview))
}

func (pc *PreviewController) UpdatePreview(c *fiber.Ctx) error {
	var update engine.PreviewUpdate
	if err := c.BodyParser(&update); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	if update.Channel != nil && *update.Channel != "email" && *update.Channel != "text" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Channel must be email or text", nil)
	}

	preview, ok := pc.Manager.UpdatePreview(c.Params("id"), update)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Preview not found", nil)
	}
	return c.JSON(utils.SuccessResponse(preview))
}

func (pc *PreviewController) OptimizePreview(c *fiber.Ctx) error {
	preview, ok := pc.Manager.OptimizePreview(c.Params("id"))
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Preview not found", nil)
	}
	return c.JSON(utils.SuccessResponse(preview))
}
