package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bodygoal/internal/llm"
	"bodygoal/internal/mocks"
	"bodygoal/internal/models"
)

func setupPlannerRouter(handler *PlannerHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", "user-1")
		c.Next()
	})
	r.POST("/plans/generate", handler.Generate)
	r.POST("/plans", handler.Create)
	r.GET("/plans", handler.List)
	return r
}

func fullProfile() models.Profile {
	weight := 80.0
	height := 180.0
	age := 30
	gender := "male"
	activity := "moderate"
	goal := "lose"
	return models.Profile{
		UserID:        "user-1",
		Weight:        &weight,
		Height:        &height,
		Age:           &age,
		Gender:        &gender,
		ActivityLevel: &activity,
		Goal:          &goal,
	}
}

func TestGenerateStoresPlanWithTargetCalories(t *testing.T) {
	planRepo := new(mocks.MealPlanRepositoryMock)
	profileRepo := new(mocks.ProfileRepositoryMock)
	generator := new(mocks.PlanGeneratorMock)
	handler := NewPlannerHandler(planRepo, profileRepo, generator, nil)
	router := setupPlannerRouter(handler)

	profileRepo.On("Get", mock.Anything, "user-1").Return(fullProfile(), nil).Once()
	generator.On("GenerateMealPlan", mock.Anything, mock.MatchedBy(func(req llm.MealPlanRequest) bool {
		return req.Goal == "lose" && req.TargetCalories > 0 && req.Cuisine == "italian"
	})).Return("day 1: pasta", nil).Once()
	planRepo.On("Create", mock.Anything, mock.MatchedBy(func(plan models.MealPlan) bool {
		var body map[string]string
		if err := json.Unmarshal(plan.PlanData, &body); err != nil {
			return false
		}
		return plan.UserID == "user-1" && plan.Type == "generated" &&
			plan.CaloriesPerDay > 0 && body["text"] == "day 1: pasta"
	})).Return(models.MealPlan{ID: "plan-1"}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/plans/generate", bytes.NewBufferString(`{"cuisine":"italian"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	planRepo.AssertExpectations(t)
	profileRepo.AssertExpectations(t)
	generator.AssertExpectations(t)
}

func TestGenerateRejectsIncompleteProfile(t *testing.T) {
	profileRepo := new(mocks.ProfileRepositoryMock)
	handler := NewPlannerHandler(new(mocks.MealPlanRepositoryMock), profileRepo, new(mocks.PlanGeneratorMock), nil)
	router := setupPlannerRouter(handler)

	profile := fullProfile()
	profile.Weight = nil
	profileRepo.On("Get", mock.Anything, "user-1").Return(profile, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/plans/generate", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	profileRepo.AssertExpectations(t)
}

func TestGenerateRateLimited(t *testing.T) {
	profileRepo := new(mocks.ProfileRepositoryMock)
	generator := new(mocks.PlanGeneratorMock)
	handler := NewPlannerHandler(new(mocks.MealPlanRepositoryMock), profileRepo, generator, nil)
	router := setupPlannerRouter(handler)

	profileRepo.On("Get", mock.Anything, "user-1").Return(fullProfile(), nil).Once()
	generator.On("GenerateMealPlan", mock.Anything, mock.Anything).Return("", llm.ErrRateLimited).Once()

	req := httptest.NewRequest(http.MethodPost, "/plans/generate", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	generator.AssertExpectations(t)
}

func TestGenerateUpstreamFailure(t *testing.T) {
	profileRepo := new(mocks.ProfileRepositoryMock)
	generator := new(mocks.PlanGeneratorMock)
	handler := NewPlannerHandler(new(mocks.MealPlanRepositoryMock), profileRepo, generator, nil)
	router := setupPlannerRouter(handler)

	profileRepo.On("Get", mock.Anything, "user-1").Return(fullProfile(), nil).Once()
	generator.On("GenerateMealPlan", mock.Anything, mock.Anything).Return("", assert.AnError).Once()

	req := httptest.NewRequest(http.MethodPost, "/plans/generate", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	generator.AssertExpectations(t)
}

func TestCreateManualPlan(t *testing.T) {
	planRepo := new(mocks.MealPlanRepositoryMock)
	handler := NewPlannerHandler(planRepo, new(mocks.ProfileRepositoryMock), new(mocks.PlanGeneratorMock), nil)
	router := setupPlannerRouter(handler)

	planRepo.On("Create", mock.Anything, mock.MatchedBy(func(plan models.MealPlan) bool {
		return plan.UserID == "user-1" && plan.Type == "manual" && plan.Name == "my plan"
	})).Return(models.MealPlan{ID: "plan-2"}, nil).Once()

	body := `{"name":"my plan","calories_per_day":2000,"plan_data":{"meals":[]}}`
	req := httptest.NewRequest(http.MethodPost, "/plans", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	planRepo.AssertExpectations(t)
}
