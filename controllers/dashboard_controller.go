package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"glowreach/models"
	"glowreach/utils"
)

type DashboardController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewDashboardController(db *gorm.DB, logger *log.Logger) *DashboardController {
	return &DashboardController{
		DB:     db,
		Logger: logger,
	}
}

type DashboardStats struct {
	TotalPatients     int64   `json:"total_patients"`
	TotalCampaigns    int64   `json:"total_campaigns"`
	CompletedBatches  int64   `json:"completed_batches"`
	MessagesGenerated int64   `json:"messages_generated"`
	CreditsRemaining  int     `json:"credits_remaining"`
	CreditsUsed       int64   `json:"credits_used"`
	AverageScore      float64 `json:"average_score"`
	EmailMessages     int64   `json:"email_messages"`
	TextMessages      int64   `json:"text_messages"`
}

func (dc *DashboardController) GetStats(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var stats DashboardStats
	stats.CreditsRemaining = user.GenerationCredits

	if err := dc.DB.Model(&models.PatientProfile{}).
		Where("user_id = ?", user.ID).Count(&stats.TotalPatients).Error; err != nil {
		dc.Logger.Printf("DASHBOARD: failed to count patients: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load stats", nil)
	}

	if err := dc.DB.Model(&models.Campaign{}).
		Where("user_id = ?", user.ID).Count(&stats.TotalCampaigns).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load stats", nil)
	}

	if err := dc.DB.Model(&models.CampaignBatch{}).
		Where("user_id = ? AND status = ?", user.ID, "completed").
		Count(&stats.CompletedBatches).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load stats", nil)
	}

	messageQuery := dc.DB.Model(&models.BatchMessage{}).
		Joins("JOIN campaign_batches ON campaign_batches.id = batch_messages.batch_record_id").
		Where("campaign_batches.user_id = ?", user.ID)

	if err := messageQuery.Count(&stats.MessagesGenerated).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load stats", nil)
	}

	// Channel split over all generated messages
	dc.DB.Model(&models.BatchMessage{}).
		Joins("JOIN campaign_batches ON campaign_batches.id = batch_messages.batch_record_id").
		Where("campaign_batches.user_id = ? AND batch_messages.channel = ?", user.ID, "email").
		Count(&stats.EmailMessages)
	dc.DB.Model(&models.BatchMessage{}).
		Joins("JOIN campaign_batches ON campaign_batches.id = batch_messages.batch_record_id").
		Where("campaign_batches.user_id = ? AND batch_messages.channel = ?", user.ID, "text").
		Count(&stats.TextMessages)

	var creditsUsed struct{ Total int64 }
	dc.DB.Model(&models.CreditUsage{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("user_id = ?", user.ID).Scan(&creditsUsed)
	stats.CreditsUsed = creditsUsed.Total

	var avgScore struct{ Avg float64 }
	dc.DB.Model(&models.BatchMessage{}).
		Joins("JOIN campaign_batches ON campaign_batches.id = batch_messages.batch_record_id").
		Where("campaign_batches.user_id = ?", user.ID).
		Select("COALESCE(AVG(batch_messages.overall_score), 0) as avg").
		Scan(&avgScore)
	stats.AverageScore = avgScore.Avg

	return c.JSON(utils.SuccessResponse(stats))
}
