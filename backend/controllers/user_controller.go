package controllers

import (
	"errors"
	"strings"

	"ieltsprep/backend/config"
	"ieltsprep/backend/middleware"
	"ieltsprep/backend/models"
	"ieltsprep/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type UserController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewUserController(db *gorm.DB, cfg *config.Config) *UserController {
	return &UserController{DB: db, Cfg: cfg}
}

// ListUsers godoc
// @Summary List users
// @Description Returns a paginated list of users for administrators
// @Tags users
// @Produce json
// @Param role query string false "Filter by role (student|admin)"
// @Param search query string false "Match name or email"
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(20)
// @Success 200 {object} utils.Envelope
// @Failure 401 {object} utils.Envelope
// @Failure 403 {object} utils.Envelope
// @Security ApiKeyAuth
// @Router /auth/users [get]
func (uc *UserController) ListUsers(c *fiber.Ctx) error {
	page, pageSize, offset := utils.PageParams(c)

	query := uc.DB.Model(&models.User{})

	if role := models.Role(strings.ToLower(c.Query("role"))); role != "" {
		if !role.Valid() {
			return utils.NewValidationError("Validation failed", utils.FieldError{Field: "role", Message: "must be one of: student, admin"})
		}
		query = query.Where("role = ?", role)
	}

	if search := strings.ToLower(strings.TrimSpace(c.Query("search"))); search != "" {
		like := "%" + search + "%"
		query = query.Where("LOWER(name) LIKE ? OR email LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.NewInfrastructureError("Failed to fetch users", err)
	}

	users := []models.User{}
	if err := query.Order("id").Offset(offset).Limit(pageSize).Find(&users).Error; err != nil {
		return utils.NewInfrastructureError("Failed to fetch users", err)
	}

	return utils.Paginate(c, "Users retrieved successfully", users, total, page, pageSize)
}

// ToggleUserStatus godoc
// @Summary Activate or deactivate a user
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} utils.Envelope
// @Failure 400 {object} utils.Envelope
// @Failure 404 {object} utils.Envelope
// @Security ApiKeyAuth
// @Router /auth/users/{id}/toggle-status [patch]
func (uc *UserController) ToggleUserStatus(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if current := middleware.CurrentUser(c); current != nil && current.ID == id {
		return utils.NewValidationError("You cannot change the status of your own account")
	}

	var user models.User
	err = uc.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.User{}).Where("id = ?", id).
			UpdateColumn("is_active", gorm.Expr("NOT is_active"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.First(&user, id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NewNotFoundError("User not found")
		}
		return utils.NewInfrastructureError("Could not update user", err)
	}

	message := "User deactivated successfully"
	if user.IsActive {
		message = "User activated successfully"
	}
	return utils.OK(c, message, &user)
}
