package controllers

import (
	"math"
	"time"

	"ieltsprep/backend/config"
	"ieltsprep/backend/middleware"
	"ieltsprep/backend/models"
	"ieltsprep/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const progressMonths = 4

type ProgressController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewProgressController(db *gorm.DB, cfg *config.Config) *ProgressController {
	return &ProgressController{DB: db, Cfg: cfg}
}

type TestTypeProgress struct {
	TestType          models.TestType `json:"testType"`
	Attempts          int64           `json:"attempts"`
	AverageBand       float64         `json:"averageBand"`
	BestBand          float64         `json:"bestBand"`
	AveragePercentage float64         `json:"averagePercentage"`
}

type MonthlyProgress struct {
	Year        int        `json:"year"`
	Month       time.Month `json:"month"`
	Attempts    int64      `json:"attempts"`
	AverageBand float64    `json:"averageBand"`
}

type ProgressOverview struct {
	TotalAttempts int64              `json:"totalAttempts"`
	ByType        []TestTypeProgress `json:"byType"`
	Monthly       []MonthlyProgress  `json:"monthly"`
	Recent        []models.Attempt   `json:"recent"`
}

// GetProgress godoc
// @Summary Get the current user's progress
// @Description Attempt totals and band averages per test type, plus the last four months
// @Tags progress
// @Produce json
// @Success 200 {object} utils.Envelope
// @Failure 401 {object} utils.Envelope
// @Security ApiKeyAuth
// @Router /progress [get]
func (pc *ProgressController) GetProgress(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	db := pc.DB.WithContext(c.UserContext())
	mine := func() *gorm.DB {
		return db.Model(&models.Attempt{}).Where("user_id = ?", user.ID)
	}

	overview := ProgressOverview{ByType: []TestTypeProgress{}, Recent: []models.Attempt{}}

	err := mine().
		Select("test_type, COUNT(*) AS attempts, AVG(band_score) AS average_band, " +
			"MAX(band_score) AS best_band, AVG(percentage) AS average_percentage").
		Group("test_type").
		Order("test_type").
		Scan(&overview.ByType).Error
	if err != nil {
		return utils.NewInfrastructureError("Failed to fetch progress", err)
	}
	for i := range overview.ByType {
		p := &overview.ByType[i]
		p.AverageBand = round2(p.AverageBand)
		p.AveragePercentage = round2(p.AveragePercentage)
		overview.TotalAttempts += p.Attempts
	}

	now := time.Now().UTC()
	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < progressMonths; i++ {
		start := thisMonth.AddDate(0, -i, 0)
		end := start.AddDate(0, 1, 0)

		month := MonthlyProgress{Year: start.Year(), Month: start.Month()}
		err := mine().
			Select("COUNT(*) AS attempts, COALESCE(AVG(band_score), 0) AS average_band").
			Where("created_at >= ? AND created_at < ?", start, end).
			Scan(&month).Error
		if err != nil {
			return utils.NewInfrastructureError("Failed to fetch progress", err)
		}
		month.Year, month.Month = start.Year(), start.Month()
		month.AverageBand = round2(month.AverageBand)
		overview.Monthly = append(overview.Monthly, month)
	}

	if err := mine().Order("created_at DESC, id DESC").Limit(5).Find(&overview.Recent).Error; err != nil {
		return utils.NewInfrastructureError("Failed to fetch progress", err)
	}

	return utils.OK(c, "Progress retrieved successfully", overview)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
