package worker

import (
	"context"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
	"gorm.io/gorm"

	"glowreach/config"
	"glowreach/engine"
	"glowreach/models"
	"glowreach/utils"
)

type BatchWorker struct {
	db     *gorm.DB
	logger *log.Logger
}

func NewBatchWorker(db *gorm.DB, logger *log.Logger) *BatchWorker {
	return &BatchWorker{
		db:     db,
		logger: logger,
	}
}

func (bw *BatchWorker) Start(ctx context.Context) {
	bw.logger.Println("Starting batch worker...")
	ticker := time.NewTicker(5 * time.Second)

	for {
		select {
		case <-ticker.C:
			bw.processPendingBatches(ctx)
		case <-ctx.Done():
			bw.logger.Println("Stopping batch worker...")
			ticker.Stop()
			return
		}
	}
}

func (bw *BatchWorker) processPendingBatches(ctx context.Context) {
	var batches []models.CampaignBatch
	if err := bw.db.Preload("Campaign").Where("status = ?", "pending").
		Order("id ASC").Limit(10).Find(&batches).Error; err != nil {
		bw.logger.Printf("Failed to fetch pending batches: %v", err)
		return
	}

	for i := range batches {
		if ctx.Err() != nil {
			return
		}
		bw.runBatch(ctx, &batches[i])
	}
}

func (bw *BatchWorker) runBatch(ctx context.Context, batch *models.CampaignBatch) {
	// Claim the batch; another worker instance may have grabbed it first
	claim := bw.db.Model(batch).Where("status = ?", "pending").Update("status", "running")
	if claim.Error != nil || claim.RowsAffected == 0 {
		return
	}

	bw.logger.Printf("Running batch %s for campaign %d", batch.BatchID, batch.CampaignID)

	var patients []models.PatientProfile
	if err := bw.db.Preload("Procedures", func(db *gorm.DB) *gorm.DB {
		return db.Order("performed_at ASC")
	}).Where("user_id = ?", batch.UserID).Order("id ASC").Find(&patients).Error; err != nil {
		bw.failBatch(batch, "failed to load patients: "+err.Error())
		return
	}

	orchestrator := engine.NewBatchOrchestrator(
		patients,
		batch.Campaign.Criteria,
		batch.Campaign.Brief,
		bw.composer(),
	)

	result, err := orchestrator.GenerateBatch(ctx, batch.Campaign.Criteria, batch.Options)
	if err != nil {
		bw.failBatch(batch, err.Error())
		return
	}

	scoring := engine.NewMessageScoringEngine(batch.Campaign.Criteria)

	if err := bw.db.Transaction(func(tx *gorm.DB) error {
		for _, msg := range result.Messages {
			record := models.BatchMessage{
				BatchRecordID:        batch.ID,
				MessageID:            msg.ID,
				PatientName:          msg.PatientName,
				Channel:              msg.Channel,
				Subject:              msg.Subject,
				Content:              msg.Content,
				PersonalizedElements: msg.PersonalizedElements,
				MatchingCriteria:     msg.MatchingCriteria,
				EstimatedEngagement:  msg.EstimatedEngagement,
				IsVariant:            isVariantID(msg.ID),
				IsOptimized:          containsElement(msg.PersonalizedElements, "AI Optimized"),
			}
			if batch.Options.IncludeScoring {
				record.OverallScore = scoring.ScoreMessage(msg).OverallScore
			}
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
		}

		now := time.Now()
		updates := map[string]interface{}{
			"status":          "completed",
			"total_generated": result.TotalGenerated,
			"skipped_targets": result.SkippedTargets,
			"statistics":      result.Statistics,
			"completed_at":    &now,
		}
		if err := tx.Model(batch).Updates(updates).Error; err != nil {
			return err
		}

		// One credit per persisted message
		credits := len(result.Messages)
		if credits > 0 {
			if err := tx.Model(&models.User{}).Where("id = ?", batch.UserID).
				Update("generation_credits", gorm.Expr("generation_credits - ?", credits)).Error; err != nil {
				return err
			}
			if err := tx.Create(&models.CreditUsage{
				UserID:     batch.UserID,
				CampaignID: &batch.CampaignID,
				BatchID:    &batch.ID,
				Amount:     credits,
				Action:     "generate_batch",
			}).Error; err != nil {
				return err
			}
		}

		return tx.Model(&models.Campaign{}).Where("id = ?", batch.CampaignID).
			Updates(map[string]interface{}{
				"status":             "completed",
				"last_average_score": result.Statistics.AverageScore,
			}).Error
	}); err != nil {
		bw.failBatch(batch, "failed to persist results: "+err.Error())
		return
	}

	utils.LogEvent("batch_completed", map[string]interface{}{
		"batch_id":        batch.BatchID,
		"campaign_id":     batch.CampaignID,
		"total_generated": result.TotalGenerated,
		"skipped":         result.SkippedTargets,
	})

	bw.notifyOwner(batch, result)
}

func (bw *BatchWorker) failBatch(batch *models.CampaignBatch, reason string) {
	bw.logger.Printf("Batch %s failed: %s", batch.BatchID, reason)
	sentry.CaptureMessage("batch failed: " + reason)

	bw.db.Model(batch).Updates(map[string]interface{}{
		"status":         "failed",
		"failure_reason": reason,
	})
	bw.db.Model(&models.Campaign{}).Where("id = ?", batch.CampaignID).
		Update("status", "failed")
}

// composer picks the drafting backend based on the configured mode
func (bw *BatchWorker) composer() engine.Composer {
	template := engine.NewTemplateComposer(config.AppConfig.ClinicName)
	if config.AppConfig.GenerationMode == "live" {
		return engine.NewHTTPComposer(config.AppConfig.ComposerURL, template)
	}
	return template
}

func (bw *BatchWorker) notifyOwner(batch *models.CampaignBatch, result engine.BatchResult) {
	var user models.User
	if err := bw.db.First(&user, batch.UserID).Error; err != nil || user.Email == "" {
		return
	}

	err := utils.SendBatchCompletedEmail(user.Email, utils.BatchNotification{
		UserName:       user.Name,
		CampaignName:   batch.Campaign.Name,
		TotalGenerated: result.TotalGenerated,
		SkippedTargets: result.SkippedTargets,
		AverageScore:   result.Statistics.AverageScore,
	})
	if err != nil {
		bw.logger.Printf("Failed to send completion email for batch %s: %v", batch.BatchID, err)
	}
}

func isVariantID(id string) bool {
	return len(id) > 7 && (id[len(id)-7:] == "_urgent" || id[len(id)-7:] == "_social")
}

func containsElement(elements []string, value string) bool {
	for _, e := range elements {
		if e == value {
			return true
		}
	}
	return false
}
