package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bodygoal/internal/calc"
	"bodygoal/internal/llm"
	"bodygoal/internal/models"
	"bodygoal/internal/repositories"
	"bodygoal/internal/telemetry"
)

// PlanGenerator is the slice of the LLM client the planner needs.
type PlanGenerator interface {
	GenerateMealPlan(ctx context.Context, req llm.MealPlanRequest) (string, error)
}

// PlannerHandler manages meal plans, including LLM generation.
type PlannerHandler struct {
	planRepo    repositories.MealPlanRepository
	profileRepo repositories.ProfileRepository
	generator   PlanGenerator
	audit       *telemetry.AuditEmitter
}

// NewPlannerHandler builds a PlannerHandler.
func NewPlannerHandler(planRepo repositories.MealPlanRepository, profileRepo repositories.ProfileRepository, generator PlanGenerator, audit *telemetry.AuditEmitter) *PlannerHandler {
	return &PlannerHandler{planRepo: planRepo, profileRepo: profileRepo, generator: generator, audit: audit}
}

// Generate builds a plan from the user's profile metrics and stores it.
func (h *PlannerHandler) Generate(c *gin.Context) {
	var req struct {
		Name         string   `json:"name"`
		Preferences  []string `json:"preferences"`
		Restrictions []string `json:"restrictions"`
		Cuisine      string   `json:"cuisine"`
		Budget       string   `json:"budget"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetString("userID")
	profile, err := h.profileRepo.Get(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load profile"})
		return
	}
	if profile.Weight == nil || profile.Height == nil || profile.Age == nil ||
		profile.Gender == nil || profile.ActivityLevel == nil || profile.Goal == nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "profile is missing body metrics"})
		return
	}

	bmr, err := calc.BMR(*profile.Gender, *profile.Weight, *profile.Height, *profile.Age)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	tdee, err := calc.TDEE(bmr, *profile.ActivityLevel)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	target := int(calc.TargetCalories(tdee, *profile.Goal))

	planText, err := h.generator.GenerateMealPlan(c.Request.Context(), llm.MealPlanRequest{
		Goal:           *profile.Goal,
		TargetCalories: target,
		Preferences:    req.Preferences,
		Restrictions:   req.Restrictions,
		Cuisine:        req.Cuisine,
		Budget:         req.Budget,
	})
	if errors.Is(err, llm.ErrRateLimited) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "plan generation is busy, retry later"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "plan generation failed"})
		return
	}

	planData, err := json.Marshal(gin.H{"text": planText})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not encode plan"})
		return
	}

	name := req.Name
	if name == "" {
		name = "Generated meal plan"
	}
	plan, err := h.planRepo.Create(c.Request.Context(), models.MealPlan{
		UserID:         userID,
		Name:           name,
		Type:           "generated",
		CaloriesPerDay: target,
		PlanData:       planData,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store plan"})
		return
	}

	h.audit.Emit(c.Request.Context(), telemetry.AreaHealth, "INFO", "meal plan generated", requestIDFromContext(c), &userID)
	c.JSON(http.StatusCreated, gin.H{"plan": plan})
}

// Create stores a hand-made plan.
func (h *PlannerHandler) Create(c *gin.Context) {
	var req struct {
		Name           string          `json:"name" binding:"required"`
		CaloriesPerDay int             `json:"calories_per_day" binding:"required"`
		PlanData       json.RawMessage `json:"plan_data" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	plan, err := h.planRepo.Create(c.Request.Context(), models.MealPlan{
		UserID:         c.GetString("userID"),
		Name:           req.Name,
		Type:           "manual",
		CaloriesPerDay: req.CaloriesPerDay,
		PlanData:       req.PlanData,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store plan"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"plan": plan})
}

// List returns the user's plans.
func (h *PlannerHandler) List(c *gin.Context) {
	plans, err := h.planRepo.List(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load plans"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"plans": plans})
}

// Get returns one of the user's plans.
func (h *PlannerHandler) Get(c *gin.Context) {
	plan, err := h.planRepo.Get(c.Request.Context(), c.Param("plan_id"), c.GetString("userID"))
	if errors.Is(err, repositories.ErrMealPlanNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "plan not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load plan"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"plan": plan})
}

// Delete removes one of the user's plans.
func (h *PlannerHandler) Delete(c *gin.Context) {
	err := h.planRepo.Delete(c.Request.Context(), c.Param("plan_id"), c.GetString("userID"))
	if errors.Is(err, repositories.ErrMealPlanNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "plan not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete plan"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
