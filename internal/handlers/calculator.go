package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bodygoal/internal/calc"
)

// CalculatorHandler computes body metrics from explicit inputs.
type CalculatorHandler struct{}

// NewCalculatorHandler builds a CalculatorHandler.
func NewCalculatorHandler() *CalculatorHandler {
	return &CalculatorHandler{}
}

// Calculate returns BMI, BMR, TDEE, and the calorie target for a goal.
func (h *CalculatorHandler) Calculate(c *gin.Context) {
	var req struct {
		Weight        float64 `json:"weight" binding:"required"`
		Height        float64 `json:"height" binding:"required"`
		Age           int     `json:"age" binding:"required"`
		Gender        string  `json:"gender" binding:"required"`
		ActivityLevel string  `json:"activity_level" binding:"required"`
		Goal          string  `json:"goal" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bmi, err := calc.BMI(req.Weight, req.Height)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bmr, err := calc.BMR(req.Gender, req.Weight, req.Height, req.Age)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tdee, err := calc.TDEE(bmr, req.ActivityLevel)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bmi":             bmi,
		"bmi_category":    calc.BMICategory(bmi),
		"bmr":             bmr,
		"tdee":            tdee,
		"target_calories": calc.TargetCalories(tdee, req.Goal),
	})
}
