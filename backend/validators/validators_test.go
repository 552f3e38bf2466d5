package validators

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"ieltsprep/backend/models"
	"ieltsprep/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldNames(fields []utils.FieldError) []string {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Field)
	}
	return names
}

func TestSignupRequest(t *testing.T) {
	valid := &SignupRequest{Name: "Ann", Email: "  Ann@Example.COM ", Password: "Passw0rdX"}
	valid.Normalize()
	assert.Nil(t, Struct(valid))
	assert.Equal(t, "ann@example.com", valid.Email)

	missing := &SignupRequest{}
	missing.Normalize()
	assert.ElementsMatch(t, []string{"name", "email", "password"}, fieldNames(Struct(missing)))

	bad := &SignupRequest{Name: "Ann", Email: "not-an-email", Password: "password"}
	fields := Struct(bad)
	require.Len(t, fields, 2)
	assert.ElementsMatch(t, []string{"email", "password"}, fieldNames(fields))
	for _, f := range fields {
		if f.Field == "password" {
			assert.Contains(t, f.Message, "upper-case")
		}
	}

	short := &SignupRequest{Name: "Ann", Email: "a@b.co", Password: "Ab1"}
	fields = Struct(short)
	require.Len(t, fields, 1)
	assert.Equal(t, "must be at least 8 characters", fields[0].Message)
}

func TestGenerationRequestDefaults(t *testing.T) {
	mcq := &MCQRequest{Topic: " English Grammar "}
	mcq.Normalize()
	assert.Nil(t, Struct(mcq))
	assert.Equal(t, 5, mcq.Count)
	assert.Equal(t, "medium", mcq.Difficulty)
	assert.Equal(t, "English Grammar", mcq.Topic)

	tooMany := &MCQRequest{Topic: "Grammar", Count: 50, Difficulty: "expert"}
	assert.ElementsMatch(t, []string{"count", "difficulty"}, fieldNames(Struct(tooMany)))

	ielts := &IELTSRequest{Section: "Cooking"}
	ielts.Normalize()
	fields := Struct(ielts)
	require.Len(t, fields, 1)
	assert.Equal(t, "section", fields[0].Field)
	assert.Contains(t, fields[0].Message, "reading, listening, writing, speaking")

	reading := &ReadingTestRequest{PassageCount: 2}
	reading.Normalize()
	assert.Nil(t, Struct(reading))
	assert.Equal(t, 40, reading.TimeLimit)

	listening := &ListeningRequest{Section: 5}
	listening.Normalize()
	assert.Equal(t, []string{"section"}, fieldNames(Struct(listening)))
}

func TestFileSection(t *testing.T) {
	s, ok := FileSection("")
	assert.True(t, ok)
	assert.Equal(t, models.SectionGeneral, s)

	s, ok = FileSection(" Reading ")
	assert.True(t, ok)
	assert.Equal(t, models.SectionReading, s)

	_, ok = FileSection("maths")
	assert.False(t, ok)
}

func TestParseBody(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			appErr := utils.AsAppError(err)
			return c.Status(appErr.StatusCode()).JSON(appErr.Fields)
		},
	})
	app.Post("/login", func(c *fiber.Ctx) error {
		var req LoginRequest
		if err := ParseBody(c, &req); err != nil {
			return err
		}
		return c.SendString(req.Email)
	})

	body, _ := json.Marshal(map[string]string{"email": "USER@example.com", "password": "x"})
	req := httptest.NewRequest("POST", "/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest("POST", "/login", bytes.NewReader([]byte("{broken")))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	req = httptest.NewRequest("POST", "/login", nil)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var fields []utils.FieldError
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&fields))
	assert.ElementsMatch(t, []string{"email", "password"}, fieldNames(fields))
}
