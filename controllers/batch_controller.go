package controller

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"glowreach/engine"
	"glowreach/models"
	"glowreach/utils"
)

type BatchController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewBatchController(db *gorm.DB, logger *log.Logger) *BatchController {
	return &BatchController{
		DB:     db,
		Logger: logger,
	}
}

// EnqueueBatch validates the options, reserves the work and hands it to the
// batch worker. Generation itself happens asynchronously.
func (bc *BatchController) EnqueueBatch(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	campaignID := utils.ParseUint(c.Params("id"))

	var campaign models.Campaign
	if err := bc.DB.Where("id = ? AND user_id = ?", campaignID, user.ID).First(&campaign).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", nil)
	}

	if campaign.Status == "generating" {
		return utils.ErrorResponse(c, fiber.StatusConflict, "Campaign already has a batch in progress", nil)
	}

	var options models.BatchOptions
	if err := c.BodyParser(&options); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(options); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	// Each persisted message costs one credit, variants included; reject
	// before queueing rather than driving the balance negative mid-run
	if user.GenerationCredits < options.CreditCost() {
		return utils.ErrorResponse(c, fiber.StatusPaymentRequired, "Insufficient generation credits", nil)
	}

	batch := models.CampaignBatch{
		CampaignID: campaign.ID,
		UserID:     user.ID,
		BatchID:    uuid.NewString(),
		Status:     "pending",
		Options:    options,
	}

	tx := bc.DB.Begin()
	if err := tx.Create(&batch).Error; err != nil {
		tx.Rollback()
		bc.Logger.Printf("BATCH: failed to create batch: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to enqueue batch", nil)
	}
	if err := tx.Model(&campaign).Update("status", "generating").Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to enqueue batch", nil)
	}
	if err := tx.Commit().Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to enqueue batch", nil)
	}

	utils.LogEvent("batch_enqueued", map[string]interface{}{
		"user_id":     user.ID,
		"campaign_id": campaign.ID,
		"batch_id":    batch.BatchID,
	})

	return c.Status(fiber.StatusAccepted).JSON(utils.SuccessResponse(batch))
}

func (bc *BatchController) GetBatch(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	campaignID := utils.ParseUint(c.Params("id"))
	batchID := c.Params("batchId")

	var batch models.CampaignBatch
	err := bc.DB.Preload("Messages").
		Where("batch_id = ? AND campaign_id = ? AND user_id = ?", batchID, campaignID, user.ID).
		First(&batch).Error
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Batch not found", nil)
	}

	return c.JSON(utils.SuccessResponse(batch))
}

func (bc *BatchController) GetBatches(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	campaignID := utils.ParseUint(c.Params("id"))

	var batches []models.CampaignBatch
	err := bc.DB.Where("campaign_id = ? AND user_id = ?", campaignID, user.ID).
		Order("id DESC").Find(&batches).Error
	if err != nil {
		bc.Logger.Printf("BATCH: failed to list batches: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list batches", nil)
	}

	return c.JSON(utils.SuccessResponse(batches))
}

// ExportBatch streams the batch's messages in the requested format
func (bc *BatchController) ExportBatch(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	campaignID := utils.ParseUint(c.Params("id"))
	batchID := c.Params("batchId")
	format := c.Query("format", "json")

	var batch models.CampaignBatch
	err := bc.DB.Preload("Messages").
		Where("batch_id = ? AND campaign_id = ? AND user_id = ?", batchID, campaignID, user.ID).
		First(&batch).Error
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Batch not found", nil)
	}

	if batch.Status != "completed" {
		return utils.ErrorResponse(c, fiber.StatusConflict, "Batch is not completed yet", nil)
	}

	messages := make([]engine.GeneratedMessage, 0, len(batch.Messages))
	for _, m := range batch.Messages {
		messages = append(messages, engine.GeneratedMessage{
			ID:                   m.MessageID,
			PatientName:          m.PatientName,
			Channel:              m.Channel,
			Subject:              m.Subject,
			Content:              m.Content,
			PersonalizedElements: m.PersonalizedElements,
			MatchingCriteria:     m.MatchingCriteria,
			EstimatedEngagement:  m.EstimatedEngagement,
		})
	}

	export, err := engine.ExportMessages(messages, format, time.Now())
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Export failed", err)
	}

	c.Set("Content-Type", export.ContentType)
	c.Set("Content-Disposition", `attachment; filename="`+export.Filename+`"`)
	return c.Send(export.Data)
}
