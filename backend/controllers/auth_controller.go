package controllers

import (
	"errors"
	"time"

	"ieltsprep/backend/config"
	"ieltsprep/backend/middleware"
	"ieltsprep/backend/models"
	"ieltsprep/backend/session"
	"ieltsprep/backend/utils"
	"ieltsprep/backend/validators"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/gofiber/fiber/v2"
)

type AuthController struct {
	DB      *gorm.DB
	Cfg     *config.Config
	Revoker session.Revoker
}

func NewAuthController(db *gorm.DB, cfg *config.Config, revoker session.Revoker) *AuthController {
	return &AuthController{DB: db, Cfg: cfg, Revoker: revoker}
}

type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

// Signup godoc
// @Summary Register a new student
// @Tags auth
// @Accept json
// @Produce json
// @Param request body validators.SignupRequest true "Signup data"
// @Success 201 {object} utils.Envelope
// @Failure 400 {object} utils.Envelope
// @Failure 409 {object} utils.Envelope
// @Router /auth/signup [post]
func (ac *AuthController) Signup(c *fiber.Ctx) error {
	var input validators.SignupRequest
	if err := validators.ParseBody(c, &input); err != nil {
		return err
	}

	var existing int64
	if err := ac.DB.Model(&models.User{}).Unscoped().Where("email = ?", input.Email).Count(&existing).Error; err != nil {
		return utils.NewInfrastructureError("Could not query database", err)
	}
	if existing > 0 {
		return utils.NewConflictError("An account with this email already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), ac.Cfg.BcryptCost)
	if err != nil {
		return utils.NewInfrastructureError("Could not hash password", err)
	}

	user := models.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		Role:         models.RoleStudent,
		IsActive:     true,
	}
	if err := ac.DB.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return utils.NewConflictError("An account with this email already exists")
		}
		return utils.NewInfrastructureError("Could not create user", err)
	}

	resp, err := ac.issue(&user)
	if err != nil {
		return err
	}
	return utils.Created(c, "Account created successfully", resp)
}

// Login godoc
// @Summary User login
// @Description Authenticate user and return JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body validators.LoginRequest true "Login credentials"
// @Success 200 {object} utils.Envelope
// @Failure 400 {object} utils.Envelope
// @Failure 401 {object} utils.Envelope
// @Router /auth/login [post]
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var input validators.LoginRequest
	if err := validators.ParseBody(c, &input); err != nil {
		return err
	}

	var user models.User
	if err := ac.DB.Where("email = ?", input.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NewAuthenticationError("Invalid credentials")
		}
		return utils.NewInfrastructureError("Could not query database", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return utils.NewAuthenticationError("Invalid credentials")
	}
	if !user.IsActive {
		return utils.NewAuthenticationError("Account is deactivated")
	}

	now := time.Now()
	if err := ac.DB.Model(&user).UpdateColumn("last_login", now).Error; err != nil {
		return utils.NewInfrastructureError("Could not update login time", err)
	}
	user.LastLogin = &now

	resp, err := ac.issue(&user)
	if err != nil {
		return err
	}
	return utils.OK(c, "Login successful", resp)
}

// Logout godoc
// @Summary Revoke the current token
// @Tags auth
// @Produce json
// @Success 200 {object} utils.Envelope
// @Failure 401 {object} utils.Envelope
// @Security ApiKeyAuth
// @Router /auth/logout [post]
func (ac *AuthController) Logout(c *fiber.Ctx) error {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		return utils.NewAuthenticationError("Missing authorization token")
	}

	if err := ac.Revoker.Revoke(c.UserContext(), claims.ID, claims.ExpiresAt.Time); err != nil {
		return utils.NewInfrastructureError("Could not revoke token", err)
	}
	return utils.OK(c, "Logged out successfully", nil)
}

// Me godoc
// @Summary Current user profile
// @Tags auth
// @Produce json
// @Success 200 {object} utils.Envelope
// @Failure 401 {object} utils.Envelope
// @Security ApiKeyAuth
// @Router /auth/me [get]
func (ac *AuthController) Me(c *fiber.Ctx) error {
	return utils.OK(c, "Profile retrieved successfully", middleware.CurrentUser(c))
}

func (ac *AuthController) issue(user *models.User) (*AuthResponse, error) {
	token, claims, err := utils.GenerateJWTToken(user, ac.Cfg)
	if err != nil {
		return nil, utils.NewInfrastructureError("Could not generate token", err)
	}
	return &AuthResponse{Token: token, ExpiresAt: claims.ExpiresAt.Time, User: user}, nil
}
