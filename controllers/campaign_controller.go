package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"glowreach/engine"
	"glowreach/models"
	"glowreach/utils"
)

type CampaignController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewCampaignController(db *gorm.DB, logger *log.Logger) *CampaignController {
	return &CampaignController{
		DB:     db,
		Logger: logger,
	}
}

type CampaignInput struct {
	Name        string                  `json:"name" validate:"required,max=200"`
	Channel     string                  `json:"channel" validate:"required,oneof=email text"`
	Brief       string                  `json:"brief" validate:"required"`
	CustomFlair string                  `json:"custom_flair"`
	Criteria    models.CampaignCriteria `json:"criteria"`
}

func (cc *CampaignController) CreateCampaign(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input CampaignInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}
	if err := input.Criteria.Validate(); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid targeting criteria", err)
	}

	campaign := models.Campaign{
		UserID:      user.ID,
		Name:        input.Name,
		Channel:     input.Channel,
		Brief:       input.Brief,
		CustomFlair: input.CustomFlair,
		Criteria:    input.Criteria,
		Status:      "draft",
	}

	if err := cc.DB.Create(&campaign).Error; err != nil {
		cc.Logger.Printf("CAMPAIGN: failed to create campaign: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create campaign", nil)
	}

	utils.LogEvent("campaign_created", map[string]interface{}{
		"user_id":     user.ID,
		"campaign_id": campaign.ID,
	})

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(campaign))
}

func (cc *CampaignController) GetCampaigns(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var campaigns []models.Campaign
	if err := cc.DB.Where("user_id = ?", user.ID).Order("id DESC").Find(&campaigns).Error; err != nil {
		cc.Logger.Printf("CAMPAIGN: failed to list campaigns: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list campaigns", nil)
	}

	return c.JSON(utils.SuccessResponse(campaigns))
}

func (cc *CampaignController) GetCampaign(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	campaignID := utils.ParseUint(c.Params("id"))

	var campaign models.Campaign
	err := cc.DB.Preload("Batches", func(db *gorm.DB) *gorm.DB {
		return db.Order("id DESC")
	}).Where("id = ? AND user_id = ?", campaignID, user.ID).First(&campaign).Error
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", nil)
	}

	return c.JSON(utils.SuccessResponse(campaign))
}

func (cc *CampaignController) UpdateCampaign(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	campaignID := utils.ParseUint(c.Params("id"))

	var campaign models.Campaign
	if err := cc.DB.Where("id = ? AND user_id = ?", campaignID, user.ID).First(&campaign).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", nil)
	}

	if campaign.Status == "generating" {
		return utils.ErrorResponse(c, fiber.StatusConflict, "Campaign has a batch in progress", nil)
	}

	var input CampaignInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}
	if err := input.Criteria.Validate(); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid targeting criteria", err)
	}

	campaign.Name = input.Name
	campaign.Channel = input.Channel
	campaign.Brief = input.Brief
	campaign.CustomFlair = input.CustomFlair
	campaign.Criteria = input.Criteria

	if err := cc.DB.Save(&campaign).Error; err != nil {
		cc.Logger.Printf("CAMPAIGN: failed to update campaign %d: %v", campaign.ID, err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update campaign", nil)
	}

	return c.JSON(utils.SuccessResponse(campaign))
}

func (cc *CampaignController) DeleteCampaign(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	campaignID := utils.ParseUint(c.Params("id"))

	result := cc.DB.Where("id = ? AND user_id = ?", campaignID, user.ID).Delete(&models.Campaign{})
	if result.Error != nil {
		cc.Logger.Printf("CAMPAIGN: failed to delete campaign %d: %v", campaignID, result.Error)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete campaign", nil)
	}
	if result.RowsAffected == 0 {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", nil)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{"deleted": campaignID}))
}

// AnalyzeTargeting runs the targeting engine over the user's patients and
// refreshes the campaign's denormalized stats
func (cc *CampaignController) AnalyzeTargeting(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	campaignID := utils.ParseUint(c.Params("id"))

	var campaign models.Campaign
	if err := cc.DB.Where("id = ? AND user_id = ?", campaignID, user.ID).First(&campaign).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", nil)
	}

	var patients []models.PatientProfile
	if err := cc.DB.Preload("Procedures", func(db *gorm.DB) *gorm.DB {
		return db.Order("performed_at ASC")
	}).Where("user_id = ?", user.ID).Order("id ASC").Find(&patients).Error; err != nil {
		cc.Logger.Printf("CAMPAIGN: failed to load patients: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load patients", nil)
	}

	results := engine.NewTargetingEngine(patients).AnalyzeTargeting(campaign.Criteria)

	campaign.LastMatchedCount = results.MatchedPatients
	campaign.LastAverageScore = results.AverageScore
	if err := cc.DB.Save(&campaign).Error; err != nil {
		cc.Logger.Printf("CAMPAIGN: failed to save targeting stats: %v", err)
	}

	utils.LogEvent("targeting_analyzed", map[string]interface{}{
		"user_id":     user.ID,
		"campaign_id": campaign.ID,
		"matched":     results.MatchedPatients,
		"total":       results.TotalPatients,
	})

	return c.JSON(utils.SuccessResponse(results))
}
