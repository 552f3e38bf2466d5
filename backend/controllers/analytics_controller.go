package controllers

import (
	"time"

	"ieltsprep/backend/config"
	"ieltsprep/backend/models"
	"ieltsprep/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AnalyticsController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewAnalyticsController(db *gorm.DB, cfg *config.Config) *AnalyticsController {
	return &AnalyticsController{DB: db, Cfg: cfg}
}

type UserStats struct {
	Total  int64 `json:"total"`
	Active int64 `json:"active"` // logged in during the last 30 days
	New    int64 `json:"new"`    // signed up during the last 7 days
	Admins int64 `json:"admins"`
}

type PlatformAnalytics struct {
	Users              UserStats        `json:"users"`
	FilesByStatus      map[string]int64 `json:"filesByStatus"`
	QuestionsBySection map[string]int64 `json:"questionsBySection"`
	ReadingTests       int64            `json:"readingTests"`
	ListeningExercises int64            `json:"listeningExercises"`
	Attempts           int64            `json:"attempts"`
	AverageBand        float64          `json:"averageBand"`
}

type labelCount struct {
	Label string
	Count int64
}

// GetPlatformAnalytics godoc
// @Summary Platform-wide counters
// @Tags analytics
// @Produce json
// @Success 200 {object} utils.Envelope
// @Failure 403 {object} utils.Envelope
// @Security ApiKeyAuth
// @Router /analytics [get]
func (ac *AnalyticsController) GetPlatformAnalytics(c *fiber.Ctx) error {
	db := ac.DB.WithContext(c.UserContext())
	now := time.Now()

	var stats PlatformAnalytics
	counts := []struct {
		query *gorm.DB
		into  *int64
	}{
		{db.Model(&models.User{}), &stats.Users.Total},
		{db.Model(&models.User{}).Where("last_login > ?", now.AddDate(0, 0, -30)), &stats.Users.Active},
		{db.Model(&models.User{}).Where("created_at > ?", now.AddDate(0, 0, -7)), &stats.Users.New},
		{db.Model(&models.User{}).Where("role = ?", models.RoleAdmin), &stats.Users.Admins},
		{db.Model(&models.ReadingTest{}), &stats.ReadingTests},
		{db.Model(&models.ListeningExercise{}), &stats.ListeningExercises},
		{db.Model(&models.Attempt{}), &stats.Attempts},
	}
	for _, q := range counts {
		if err := q.query.Count(q.into).Error; err != nil {
			return utils.NewInfrastructureError("Failed to fetch analytics", err)
		}
	}

	if err := db.Model(&models.Attempt{}).Select("COALESCE(AVG(band_score), 0)").Scan(&stats.AverageBand).Error; err != nil {
		return utils.NewInfrastructureError("Failed to fetch analytics", err)
	}
	stats.AverageBand = round2(stats.AverageBand)

	var err error
	if stats.FilesByStatus, err = groupCounts(db.Model(&models.UploadedFile{}), "status"); err != nil {
		return utils.NewInfrastructureError("Failed to fetch analytics", err)
	}
	if stats.QuestionsBySection, err = groupCounts(db.Model(&models.Question{}), "section"); err != nil {
		return utils.NewInfrastructureError("Failed to fetch analytics", err)
	}

	return utils.OK(c, "Analytics retrieved successfully", stats)
}

// groupCounts counts rows per distinct value of column.
func groupCounts(query *gorm.DB, column string) (map[string]int64, error) {
	var rows []labelCount
	err := query.Select(column + " AS label, COUNT(*) AS count").Group(column).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Label] = r.Count
	}
	return out, nil
}
