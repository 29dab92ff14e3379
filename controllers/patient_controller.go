package controller

import (
	"log"
	"strconv"
	"time"

	"github.com/badoux/checkmail"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"glowreach/models"
	"glowreach/utils"
)

type PatientController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewPatientController(db *gorm.DB, logger *log.Logger) *PatientController {
	return &PatientController{
		DB:     db,
		Logger: logger,
	}
}

type PatientInput struct {
	Name            string   `json:"name" validate:"required,max=200"`
	Email           string   `json:"email" validate:"omitempty,email"`
	Phone           string   `json:"phone" validate:"omitempty,max=30"`
	Age             int      `json:"age" validate:"required,gte=0,lte=120"`
	Gender          string   `json:"gender" validate:"required"`
	LifetimeValue   *float64 `json:"lifetime_value" validate:"omitempty,gte=0"`
	LastVisit       *string  `json:"last_visit"` // RFC3339 date
	EmailEngagement string   `json:"email_engagement" validate:"omitempty,oneof=high medium low none"`
	Traits          []string `json:"traits"`
	LifeEvents      []string `json:"life_events"`
	Lifestyle       []string `json:"lifestyle"`
	ReferralSource  string   `json:"referral_source"`
	CustomerNote    string   `json:"customer_note"`
	Procedures      []struct {
		Procedure   string `json:"procedure" validate:"required"`
		PerformedAt string `json:"performed_at"` // RFC3339 date
	} `json:"procedures"`
}

func (pc *PatientController) CreatePatient(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input PatientInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	patient, err := pc.buildPatient(user.ID, input)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid patient data", err)
	}

	if err := pc.DB.Create(&patient).Error; err != nil {
		pc.Logger.Printf("PATIENT: failed to create patient: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create patient", nil)
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(patient))
}

func (pc *PatientController) GetPatients(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	var total int64
	query := pc.DB.Model(&models.PatientProfile{}).Where("user_id = ?", user.ID)
	if search := c.Query("search"); search != "" {
		query = query.Where("name ILIKE ?", "%"+search+"%")
	}
	if err := query.Count(&total).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to count patients", nil)
	}

	var patients []models.PatientProfile
	if err := query.Preload("Procedures", func(db *gorm.DB) *gorm.DB {
		return db.Order("performed_at ASC")
	}).Offset((page - 1) * limit).Limit(limit).Order("id ASC").Find(&patients).Error; err != nil {
		pc.Logger.Printf("PATIENT: failed to list patients: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list patients", nil)
	}

	return c.JSON(utils.PaginatedResponse{
		Data:  patients,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

func (pc *PatientController) GetPatient(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	patientID := utils.ParseUint(c.Params("id"))

	var patient models.PatientProfile
	err := pc.DB.Preload("Procedures", func(db *gorm.DB) *gorm.DB {
		return db.Order("performed_at ASC")
	}).Where("id = ? AND user_id = ?", patientID, user.ID).First(&patient).Error
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Patient not found", nil)
	}

	return c.JSON(utils.SuccessResponse(patient))
}

func (pc *PatientController) UpdatePatient(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	patientID := utils.ParseUint(c.Params("id"))

	var patient models.PatientProfile
	if err := pc.DB.Where("id = ? AND user_id = ?", patientID, user.ID).First(&patient).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Patient not found", nil)
	}

	var input PatientInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	updated, err := pc.buildPatient(user.ID, input)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid patient data", err)
	}

	updated.ID = patient.ID
	updated.CreatedAt = patient.CreatedAt

	tx := pc.DB.Begin()
	// Procedure history is replaced wholesale on update
	if err := tx.Where("patient_id = ?", patient.ID).Delete(&models.ProcedureRecord{}).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update patient", nil)
	}
	if err := tx.Save(&updated).Error; err != nil {
		tx.Rollback()
		pc.Logger.Printf("PATIENT: failed to update patient %d: %v", patient.ID, err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update patient", nil)
	}
	if err := tx.Commit().Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update patient", nil)
	}

	return c.JSON(utils.SuccessResponse(updated))
}

func (pc *PatientController) DeletePatient(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	patientID := utils.ParseUint(c.Params("id"))

	result := pc.DB.Where("id = ? AND user_id = ?", patientID, user.ID).Delete(&models.PatientProfile{})
	if result.Error != nil {
		pc.Logger.Printf("PATIENT: failed to delete patient %d: %v", patientID, result.Error)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete patient", nil)
	}
	if result.RowsAffected == 0 {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Patient not found", nil)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{"deleted": patientID}))
}

// ImportPatients accepts a JSON array of patient profiles. Invalid rows are
// reported back with their index; valid rows are still imported.
func (pc *PatientController) ImportPatients(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var inputs []PatientInput
	if err := c.BodyParser(&inputs); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if len(inputs) == 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "No patients to import", nil)
	}

	type importError struct {
		Index int    `json:"index"`
		Error string `json:"error"`
	}

	imported := 0
	var failures []importError

	for i, input := range inputs {
		patient, err := pc.buildPatient(user.ID, input)
		if err != nil {
			failures = append(failures, importError{Index: i, Error: err.Error()})
			continue
		}
		if err := pc.DB.Create(&patient).Error; err != nil {
			pc.Logger.Printf("PATIENT: failed to import row %d: %v", i, err)
			failures = append(failures, importError{Index: i, Error: "database error"})
			continue
		}
		imported++
	}

	utils.LogEvent("patients_imported", map[string]interface{}{
		"user_id":  user.ID,
		"imported": imported,
		"failed":   len(failures),
	})

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"imported": imported,
		"failures": failures,
	}))
}

func (pc *PatientController) buildPatient(userID uint, input PatientInput) (models.PatientProfile, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return models.PatientProfile{}, err
	}
	if input.Email != "" {
		if err := checkmail.ValidateFormat(input.Email); err != nil {
			return models.PatientProfile{}, err
		}
	}

	patient := models.PatientProfile{
		UserID:          userID,
		Name:            input.Name,
		Email:           input.Email,
		Phone:           input.Phone,
		Age:             input.Age,
		Gender:          input.Gender,
		LifetimeValue:   input.LifetimeValue,
		EmailEngagement: input.EmailEngagement,
		Traits:          input.Traits,
		LifeEvents:      input.LifeEvents,
		Lifestyle:       input.Lifestyle,
		ReferralSource:  input.ReferralSource,
		CustomerNote:    input.CustomerNote,
	}

	if input.LastVisit != nil && *input.LastVisit != "" {
		visit, err := time.Parse(time.RFC3339, *input.LastVisit)
		if err != nil {
			return models.PatientProfile{}, err
		}
		patient.LastVisit = &visit
	}

	for _, proc := range input.Procedures {
		record := models.ProcedureRecord{Procedure: proc.Procedure}
		if proc.PerformedAt != "" {
			performed, err := time.Parse(time.RFC3339, proc.PerformedAt)
			if err != nil {
				return models.PatientProfile{}, err
			}
			record.PerformedAt = performed
		}
		patient.Procedures = append(patient.Procedures, record)
	}

	return patient, nil
}
