package routes

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ieltsprep/backend/controllers"
	"ieltsprep/backend/models"
	"ieltsprep/backend/worker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const grammarReply = "```json\n" + `{"questions": [
  {"question": "She ___ to work every day.", "options": ["go", "goes", "going", "gone"], "correctAnswer": "goes"},
  {"question": "Which sentence is in the past perfect?", "options": ["I had eaten", "I ate", "I have eaten", "I eat"], "correctAnswer": "A"},
  {"question": "Pick the article: ___ university", "options": ["a", "an", "the", "no article"], "correctAnswer": 0}
]}` + "\n```"

func passageReply(words int) string {
	content := strings.TrimSpace(strings.Repeat("Coral reefs protect coastlines from storms and erosion. ", words/8+1))
	return fmt.Sprintf(`{"title": "Reef Guardians", "content": %q, "questions": [
	  {"question": "Reefs protect coastlines.", "type": "true_false_not_given", "correctAnswer": "True"},
	  {"question": "What do reefs reduce?", "options": ["Erosion", "Tourism", "Rainfall", "Salinity"], "correctAnswer": "B"}
	]}`, content)
}

const listeningReply = `{"title": "Booking a Room", "transcript": "Receptionist: Good morning. Caller: I would like a double room for two nights.", "questions": [
  {"question": "How many nights?", "options": ["One", "Two", "Three"], "correctAnswer": "Two"},
  {"question": "What room type?", "options": ["Single", "Double"], "correctAnswer": "Double"}
]}`

func TestSignupNormalizesEmailAndRejectsDuplicates(t *testing.T) {
	e := setup(t)

	status, env := e.do(t, http.MethodPost, "/api/auth/signup", map[string]string{
		"name": " Alice ", "email": "  Alice@Example.COM ", "password": testPassword,
	}, "")
	require.Equal(t, http.StatusCreated, status, env.Message)
	assert.True(t, env.Success)
	assert.NotEmpty(t, env.Timestamp)

	var auth controllers.AuthResponse
	env.decode(t, &auth)
	assert.NotEmpty(t, auth.Token)
	assert.Equal(t, "alice@example.com", auth.User.Email)
	assert.Equal(t, "Alice", auth.User.Name)
	assert.Equal(t, models.RoleStudent, auth.User.Role)

	status, env = e.do(t, http.MethodPost, "/api/auth/signup", map[string]string{
		"name": "Alice Again", "email": "alice@example.com", "password": testPassword,
	}, "")
	assert.Equal(t, http.StatusConflict, status)
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Errors)
}

func TestSignupValidation(t *testing.T) {
	e := setup(t)

	status, env := e.do(t, http.MethodPost, "/api/auth/signup", map[string]string{
		"name": "Bob", "email": "not-an-email", "password": "short",
	}, "")
	require.Equal(t, http.StatusBadRequest, status)
	assert.False(t, env.Success)

	fields := map[string]bool{}
	for _, fe := range env.Errors {
		fields[fe.Field] = true
	}
	assert.True(t, fields["email"])
	assert.True(t, fields["password"])
}

func TestLoginAndProfile(t *testing.T) {
	e := setup(t)
	e.createUser(t, "Carol", "carol@example.com", models.RoleStudent)

	status, env := e.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "CAROL@example.com", "password": testPassword,
	}, "")
	require.Equal(t, http.StatusOK, status, env.Message)

	var auth controllers.AuthResponse
	env.decode(t, &auth)
	require.NotEmpty(t, auth.Token)
	assert.NotNil(t, auth.User.LastLogin)

	status, env = e.do(t, http.MethodGet, "/api/auth/me", nil, auth.Token)
	require.Equal(t, http.StatusOK, status)
	var me models.User
	env.decode(t, &me)
	assert.Equal(t, "carol@example.com", me.Email)

	status, env = e.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "carol@example.com", "password": "Wrong1234",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid credentials", env.Message)
}

func TestProtectedRoutesRequireCredential(t *testing.T) {
	e := setup(t)

	for _, path := range []string{"/api/auth/me", "/api/questions/files", "/api/reading/tests"} {
		status, env := e.do(t, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusUnauthorized, status, path)
		assert.False(t, env.Success)
		assert.NotNil(t, env.Errors)
		assert.NotEmpty(t, env.Errors)
	}

	status, _ := e.do(t, http.MethodGet, "/api/auth/me", nil, "not.a.jwt")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestLogoutRevokesToken(t *testing.T) {
	e := setup(t)
	_, token := e.createUser(t, "Dan", "dan@example.com", models.RoleStudent)

	status, _ := e.do(t, http.MethodPost, "/api/auth/logout", nil, token)
	require.Equal(t, http.StatusOK, status)

	status, env := e.do(t, http.MethodGet, "/api/auth/me", nil, token)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Token has been revoked", env.Message)
}

func TestStudentForbiddenOnAdminRoutes(t *testing.T) {
	e := setup(t)
	_, token := e.createUser(t, "Eve", "eve@example.com", models.RoleStudent)

	status, env := e.do(t, http.MethodGet, "/api/auth/users", nil, token)
	assert.Equal(t, http.StatusForbidden, status)
	assert.False(t, env.Success)

	status, _ = e.upload(t, "practice.pdf", samplePDF, "reading", token)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = e.do(t, http.MethodDelete, "/api/questions/files/1", nil, token)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestToggleUserStatusTwiceRestoresFlag(t *testing.T) {
	e := setup(t)
	admin, adminToken := e.createUser(t, "Admin", "admin@example.com", models.RoleAdmin)
	student, _ := e.createUser(t, "Frank", "frank@example.com", models.RoleStudent)
	path := fmt.Sprintf("/api/auth/users/%d/toggle-status", student.ID)

	status, env := e.do(t, http.MethodPatch, path, nil, adminToken)
	require.Equal(t, http.StatusOK, status, env.Message)
	var toggled models.User
	env.decode(t, &toggled)
	assert.False(t, toggled.IsActive)
	assert.Equal(t, "User deactivated successfully", env.Message)

	status, env = e.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "frank@example.com", "password": testPassword,
	}, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Account is deactivated", env.Message)

	status, env = e.do(t, http.MethodPatch, path, nil, adminToken)
	require.Equal(t, http.StatusOK, status)
	env.decode(t, &toggled)
	assert.True(t, toggled.IsActive)

	status, _ = e.do(t, http.MethodPatch, fmt.Sprintf("/api/auth/users/%d/toggle-status", admin.ID), nil, adminToken)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = e.do(t, http.MethodPatch, "/api/auth/users/9999/toggle-status", nil, adminToken)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestDeactivatedUserTokenRejected(t *testing.T) {
	e := setup(t)
	student, token := e.createUser(t, "Gina", "gina@example.com", models.RoleStudent)
	require.NoError(t, e.db.Model(student).UpdateColumn("is_active", false).Error)

	status, env := e.do(t, http.MethodGet, "/api/auth/me", nil, token)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Account is deactivated", env.Message)
}

func TestListUsersFilters(t *testing.T) {
	e := setup(t)
	_, adminToken := e.createUser(t, "Admin", "admin@example.com", models.RoleAdmin)
	e.createUser(t, "Hana Lee", "hana@example.com", models.RoleStudent)
	e.createUser(t, "Ivan", "ivan@example.com", models.RoleStudent)

	status, env := e.do(t, http.MethodGet, "/api/auth/users?role=student", nil, adminToken)
	require.Equal(t, http.StatusOK, status)
	var users page[models.User]
	env.decode(t, &users)
	assert.Equal(t, int64(2), users.Total)

	status, env = e.do(t, http.MethodGet, "/api/auth/users?search=HANA", nil, adminToken)
	require.Equal(t, http.StatusOK, status)
	env.decode(t, &users)
	require.Len(t, users.Items, 1)
	assert.Equal(t, "hana@example.com", users.Items[0].Email)

	status, _ = e.do(t, http.MethodGet, "/api/auth/users?role=teacher", nil, adminToken)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestUploadExtractAndNeverRevert(t *testing.T) {
	e := setup(t)
	_, adminToken := e.createUser(t, "Admin", "admin@example.com", models.RoleAdmin)

	status, env := e.upload(t, "practice.pdf", samplePDF, "reading", adminToken)
	require.Equal(t, http.StatusCreated, status, env.Message)
	var file models.UploadedFile
	env.decode(t, &file)
	assert.Equal(t, models.FileStatusProcessing, file.Status)
	assert.Equal(t, models.SectionReading, file.Section)
	require.Len(t, e.dispatcher.jobs, 1)
	job := e.dispatcher.jobs[0]
	assert.Equal(t, file.ID, job.FileID)

	status, env = e.do(t, http.MethodGet, "/api/questions/files?status=processing", nil, adminToken)
	require.Equal(t, http.StatusOK, status)
	var files page[models.UploadedFile]
	env.decode(t, &files)
	require.Len(t, files.Items, 1)
	assert.Equal(t, file.ID, files.Items[0].ID)

	e.model.set(grammarReply, nil)
	extractor := worker.NewExtractor(e.db, e.store, e.gen)
	require.NoError(t, extractor.Process(context.Background(), job))

	status, env = e.do(t, http.MethodGet, fmt.Sprintf("/api/questions/files/%d", file.ID), nil, adminToken)
	require.Equal(t, http.StatusOK, status)
	env.decode(t, &file)
	assert.Equal(t, models.FileStatusCompleted, file.Status)
	assert.Equal(t, 3, file.QuestionsExtracted)

	assert.ErrorIs(t, models.TransitionFileStatus(e.db, file.ID, models.FileStatusError, 0, "late failure"), models.ErrInvalidTransition)
	e.model.set("", errUnreachable)
	require.Error(t, extractor.Process(context.Background(), job))

	status, env = e.do(t, http.MethodGet, fmt.Sprintf("/api/questions/files/%d", file.ID), nil, adminToken)
	require.Equal(t, http.StatusOK, status)
	env.decode(t, &file)
	assert.Equal(t, models.FileStatusCompleted, file.Status)

	status, env = e.do(t, http.MethodGet, fmt.Sprintf("/api/questions?fileId=%d", file.ID), nil, adminToken)
	require.Equal(t, http.StatusOK, status)
	var questions page[models.Question]
	env.decode(t, &questions)
	assert.Equal(t, int64(3), questions.Total)
}

func TestUploadRejectsNonPDF(t *testing.T) {
	e := setup(t)
	_, adminToken := e.createUser(t, "Admin", "admin@example.com", models.RoleAdmin)

	status, env := e.upload(t, "notes.pdf", []byte("just some plain text"), "reading", adminToken)
	assert.Equal(t, http.StatusBadRequest, status)
	require.NotEmpty(t, env.Errors)
	assert.Equal(t, "file", env.Errors[0].Field)

	status, _ = e.upload(t, "practice.pdf", samplePDF, "maths", adminToken)
	assert.Equal(t, http.StatusBadRequest, status)

	assert.Empty(t, e.dispatcher.jobs)
}

func TestUploadDispatchFailureMarksError(t *testing.T) {
	e := setup(t)
	_, adminToken := e.createUser(t, "Admin", "admin@example.com", models.RoleAdmin)
	e.dispatcher.err = errUnreachable

	status, env := e.upload(t, "practice.pdf", samplePDF, "", adminToken)
	require.Equal(t, http.StatusCreated, status)
	var file models.UploadedFile
	env.decode(t, &file)
	assert.Equal(t, models.FileStatusError, file.Status)
	assert.Equal(t, models.SectionGeneral, file.Section)

	var stored models.UploadedFile
	require.NoError(t, e.db.First(&stored, file.ID).Error)
	assert.Equal(t, models.FileStatusError, stored.Status)
	assert.Contains(t, stored.ErrorMessage, "connection refused")
}

func TestDeleteFile(t *testing.T) {
	e := setup(t)
	_, adminToken := e.createUser(t, "Admin", "admin@example.com", models.RoleAdmin)

	status, env := e.do(t, http.MethodDelete, "/api/questions/files/999", nil, adminToken)
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, env.Success)
	assert.Equal(t, "File not found", env.Message)

	status, env = e.upload(t, "practice.pdf", samplePDF, "reading", adminToken)
	require.Equal(t, http.StatusCreated, status)
	var file models.UploadedFile
	env.decode(t, &file)

	status, _ = e.do(t, http.MethodDelete, fmt.Sprintf("/api/questions/files/%d", file.ID), nil, adminToken)
	require.Equal(t, http.StatusOK, status)

	exists, err := e.store.Exists(context.Background(), file.StorageKey)
	require.NoError(t, err)
	assert.False(t, exists)

	status, _ = e.do(t, http.MethodGet, fmt.Sprintf("/api/questions/files/%d", file.ID), nil, adminToken)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestGenerateMCQ(t *testing.T) {
	e := setup(t)
	_, token := e.createUser(t, "Jay", "jay@example.com", models.RoleStudent)
	e.model.set(grammarReply, nil)

	status, env := e.do(t, http.MethodPost, "/api/gemini/generate-mcq", map[string]interface{}{
		"topic": "English Grammar", "count": 3,
	}, token)
	require.Equal(t, http.StatusOK, status, env.Message)

	var set controllers.QuestionSet
	env.decode(t, &set)
	require.Len(t, set.Questions, 3)
	assert.Equal(t, 3, set.Count)
	assert.Equal(t, "medium", set.Difficulty)
	for _, q := range set.Questions {
		assert.NotEmpty(t, q.Options)
		assert.Contains(t, q.Options, q.CorrectAnswer)
	}

	var stored int64
	require.NoError(t, e.db.Model(&models.Question{}).Count(&stored).Error)
	assert.Zero(t, stored)
}

func TestGenerateErrorsMapToStatus(t *testing.T) {
	e := setup(t)
	_, token := e.createUser(t, "Kim", "kim@example.com", models.RoleStudent)
	body := map[string]interface{}{"topic": "English Grammar", "count": 3}

	e.model.set("I cannot help with that.", nil)
	status, env := e.do(t, http.MethodPost, "/api/gemini/generate-mcq", body, token)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Stack)

	e.model.set("", errUnreachable)
	status, _ = e.do(t, http.MethodPost, "/api/gemini/generate-mcq", body, token)
	assert.Equal(t, http.StatusServiceUnavailable, status)

	status, env = e.do(t, http.MethodPost, "/api/gemini/generate-mcq", map[string]interface{}{"topic": "x", "count": 50}, token)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Len(t, env.Errors, 2)
}

func TestReadingTestFlow(t *testing.T) {
	e := setup(t)
	_, token := e.createUser(t, "Lena", "lena@example.com", models.RoleStudent)
	e.model.set(passageReply(400), nil)

	status, env := e.do(t, http.MethodPost, "/api/reading/generate-test", map[string]interface{}{
		"topic": "Marine Biology", "questionsPerPassage": 2,
	}, token)
	require.Equal(t, http.StatusCreated, status, env.Message)
	assert.NotContains(t, string(env.Data), "correctAnswer")

	var test models.ReadingTest
	env.decode(t, &test)
	assert.Equal(t, "IELTS Reading Test: Reef Guardians", test.Title)
	require.Len(t, test.Passages, 1)
	require.Len(t, test.Passages[0].Questions, 2)
	assert.Equal(t, 1, test.Passages[0].Questions[0].Number)
	assert.Equal(t, 2, test.Passages[0].Questions[1].Number)

	status, env = e.do(t, http.MethodGet, fmt.Sprintf("/api/reading/tests/%d", test.ID), nil, token)
	require.Equal(t, http.StatusOK, status)
	assert.NotContains(t, string(env.Data), "correctAnswer")

	status, env = e.do(t, http.MethodPost, fmt.Sprintf("/api/reading/submit/%d", test.ID), map[string]interface{}{
		"answers": map[string]string{"1": "true", "2": "C"}, "timeSpent": 300,
	}, token)
	require.Equal(t, http.StatusCreated, status, env.Message)
	var attempt models.Attempt
	env.decode(t, &attempt)
	assert.Equal(t, 1, attempt.Score)
	assert.Equal(t, 2, attempt.Total)
	assert.Equal(t, 50.0, attempt.Percentage)
	require.Len(t, attempt.Answers, 2)
	assert.Equal(t, "Tourism", attempt.Answers[1].CorrectAnswer)

	status, env = e.do(t, http.MethodGet, "/api/reading/attempts", nil, token)
	require.Equal(t, http.StatusOK, status)
	var attempts page[models.Attempt]
	env.decode(t, &attempts)
	assert.Equal(t, int64(1), attempts.Total)

	status, env = e.do(t, http.MethodPost, "/api/reading/submit/9999", map[string]interface{}{
		"answers": map[string]string{"1": "True"},
	}, token)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Reading test not found", env.Message)
}

func TestListeningFlow(t *testing.T) {
	e := setup(t)
	_, token := e.createUser(t, "Mo", "mo@example.com", models.RoleStudent)
	e.model.set(listeningReply, nil)

	status, env := e.do(t, http.MethodPost, "/api/listening/generate", map[string]interface{}{
		"topic": "Hotel booking", "questionCount": 2,
	}, token)
	require.Equal(t, http.StatusCreated, status, env.Message)
	assert.NotContains(t, string(env.Data), "correctAnswer")

	var exercise models.ListeningExercise
	env.decode(t, &exercise)
	assert.Equal(t, "Booking a Room", exercise.Title)
	require.Len(t, exercise.Questions, 2)

	status, _ = e.do(t, http.MethodGet, fmt.Sprintf("/api/listening/exercises/%d", exercise.ID), nil, token)
	require.Equal(t, http.StatusOK, status)

	status, env = e.do(t, http.MethodPost, "/api/listening/submit", map[string]interface{}{
		"exerciseId": exercise.ID, "answers": map[string]string{"1": "two", "2": "B"},
	}, token)
	require.Equal(t, http.StatusCreated, status, env.Message)
	var attempt models.Attempt
	env.decode(t, &attempt)
	assert.Equal(t, 2, attempt.Score)
	assert.Equal(t, models.TestTypeListening, attempt.TestType)

	status, env = e.do(t, http.MethodGet, "/api/listening/history", nil, token)
	require.Equal(t, http.StatusOK, status)
	var history page[models.Attempt]
	env.decode(t, &history)
	assert.Equal(t, int64(1), history.Total)

	status, _ = e.do(t, http.MethodPost, "/api/listening/submit", map[string]interface{}{
		"answers": map[string]string{"1": "two"},
	}, token)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = e.do(t, http.MethodPost, "/api/listening/submit", map[string]interface{}{
		"exerciseId": 9999, "answers": map[string]string{"1": "two"},
	}, token)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestHealthAndUnknownRoute(t *testing.T) {
	e := setup(t)

	status, env := e.do(t, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, status)
	var health map[string]string
	env.decode(t, &health)
	assert.Equal(t, "up", health["database"])

	status, env = e.do(t, http.MethodGet, "/api/nowhere", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Errors)
}

func TestMalformedJSONBody(t *testing.T) {
	e := setup(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email": `))
	req.Header.Set("Content-Type", "application/json")
	status, env := e.send(t, req, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, env.Success)
}

func TestProgressAndAnalytics(t *testing.T) {
	e := setup(t)
	student, token := e.createUser(t, "Nia", "nia@example.com", models.RoleStudent)
	_, adminToken := e.createUser(t, "Admin", "admin@example.com", models.RoleAdmin)

	for _, a := range []models.Attempt{
		{UserID: student.ID, TestType: models.TestTypeReading, TestID: 1, Score: 30, Total: 40, Percentage: 75, BandScore: 7},
		{UserID: student.ID, TestType: models.TestTypeReading, TestID: 1, Score: 35, Total: 40, Percentage: 87.5, BandScore: 8},
		{UserID: student.ID, TestType: models.TestTypeListening, TestID: 2, Score: 2, Total: 4, Percentage: 50, BandScore: 5},
	} {
		a := a
		require.NoError(t, e.db.Create(&a).Error)
	}

	status, env := e.do(t, http.MethodGet, "/api/progress", nil, token)
	require.Equal(t, http.StatusOK, status, env.Message)
	var progress controllers.ProgressOverview
	env.decode(t, &progress)
	assert.Equal(t, int64(3), progress.TotalAttempts)
	require.Len(t, progress.ByType, 2)
	assert.Equal(t, models.TestTypeListening, progress.ByType[0].TestType)
	reading := progress.ByType[1]
	assert.Equal(t, int64(2), reading.Attempts)
	assert.Equal(t, 7.5, reading.AverageBand)
	assert.Equal(t, 8.0, reading.BestBand)
	assert.Equal(t, 81.25, reading.AveragePercentage)
	assert.Len(t, progress.Monthly, 4)
	assert.Len(t, progress.Recent, 3)

	status, _ = e.do(t, http.MethodGet, "/api/analytics", nil, token)
	assert.Equal(t, http.StatusForbidden, status)

	status, env = e.do(t, http.MethodGet, "/api/analytics", nil, adminToken)
	require.Equal(t, http.StatusOK, status, env.Message)
	var stats controllers.PlatformAnalytics
	env.decode(t, &stats)
	assert.Equal(t, int64(2), stats.Users.Total)
	assert.Equal(t, int64(1), stats.Users.Admins)
	assert.Equal(t, int64(3), stats.Attempts)
	assert.InDelta(t, 6.67, stats.AverageBand, 0.001)
}

func TestListQuestionsSearch(t *testing.T) {
	e := setup(t)
	_, token := e.createUser(t, "Omar", "omar@example.com", models.RoleStudent)
	for _, q := range []models.Question{
		{Section: models.SectionReading, Type: models.QuestionMultipleChoice, Topic: "Climate", Text: "What warms the oceans?"},
		{Section: models.SectionWriting, Type: models.QuestionTask, Topic: "Education", Text: "Discuss online learning."},
	} {
		q := q
		require.NoError(t, e.db.Create(&q).Error)
	}

	status, env := e.do(t, http.MethodGet, "/api/questions?search=CLIMATE", nil, token)
	require.Equal(t, http.StatusOK, status, env.Message)
	var questions page[models.Question]
	env.decode(t, &questions)
	require.Len(t, questions.Items, 1)
	assert.Equal(t, "Climate", questions.Items[0].Topic)

	status, env = e.do(t, http.MethodGet, "/api/questions?sort=oldest&section=writing", nil, token)
	require.Equal(t, http.StatusOK, status)
	env.decode(t, &questions)
	require.Len(t, questions.Items, 1)
	assert.Equal(t, models.QuestionTask, questions.Items[0].Type)

	status, _ = e.do(t, http.MethodGet, "/api/questions?type=essay&sort=random", nil, token)
	assert.Equal(t, http.StatusBadRequest, status)
}
