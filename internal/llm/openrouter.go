// Package llm talks to the OpenRouter chat-completions API for meal-plan
// generation and food-photo calorie analysis.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const defaultBaseURL = "https://openrouter.ai/api/v1"

var (
	ErrUnauthorized = errors.New("llm: unauthorized")
	ErrRateLimited  = errors.New("llm: rate limited")
	ErrBadRequest   = errors.New("llm: bad request")
)

// Client is an OpenRouter API client. Construct once and inject.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
}

// NewClient builds a client for the given key and model.
func NewClient(apiKey, model string) *Client {
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

type message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// PhotoAnalysis is the structured result of a food-photo analysis.
type PhotoAnalysis struct {
	DishName        string  `json:"dish_name"`
	PortionWeight   float64 `json:"portion_weight"`
	Calories        float64 `json:"calories"`
	Protein         float64 `json:"protein"`
	Fats            float64 `json:"fats"`
	Carbs           float64 `json:"carbs"`
	Description     string  `json:"description"`
	Recommendations string  `json:"recommendations"`
}

// MealPlanRequest carries the profile-derived inputs for plan generation.
type MealPlanRequest struct {
	Goal           string
	TargetCalories int
	Preferences    []string
	Restrictions   []string
	Cuisine        string
	Budget         string
}

const photoSystemPrompt = `You are a professional nutritionist. Analyze the food photo and respond with strict JSON only, no extra text:
{"dish_name":"...","portion_weight":200,"calories":350,"protein":28,"fats":8,"carbs":35,"description":"...","recommendations":"..."}
Always give numeric estimates; never answer N/A.`

// AnalyzeFoodPhoto sends a base64 JPEG to the model and parses the JSON
// answer. When the model returns prose instead of JSON, numeric fields are
// extracted from the text as a fallback.
func (c *Client) AnalyzeFoodPhoto(ctx context.Context, imageBase64 string) (PhotoAnalysis, error) {
	content, err := c.complete(ctx, completionRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: photoSystemPrompt},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: "Analyze this food image and reply with the JSON object described in the system prompt."},
				{Type: "image_url", ImageURL: &imageURL{URL: "data:image/jpeg;base64," + imageBase64}},
			}},
		},
		MaxTokens:   500,
		Temperature: 0.1,
	})
	if err != nil {
		return PhotoAnalysis{}, err
	}

	var analysis PhotoAnalysis
	if err := json.Unmarshal([]byte(extractJSON(content)), &analysis); err == nil && analysis.DishName != "" {
		return analysis, nil
	}
	return fallbackAnalysis(content), nil
}

// GenerateMealPlan asks the model for a plan and returns its raw text.
func (c *Client) GenerateMealPlan(ctx context.Context, req MealPlanRequest) (string, error) {
	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Create a 7-day meal plan targeting %d kcal/day for a goal of %q.", req.TargetCalories, req.Goal)
	if len(req.Preferences) > 0 {
		fmt.Fprintf(&prompt, " Preferences: %s.", strings.Join(req.Preferences, ", "))
	}
	if len(req.Restrictions) > 0 {
		fmt.Fprintf(&prompt, " Restrictions: %s.", strings.Join(req.Restrictions, ", "))
	}
	if req.Cuisine != "" {
		fmt.Fprintf(&prompt, " Cuisine: %s.", req.Cuisine)
	}
	if req.Budget != "" {
		fmt.Fprintf(&prompt, " Budget: %s.", req.Budget)
	}
	prompt.WriteString(" Structure the answer by day, with meals and per-meal calories.")

	return c.complete(ctx, completionRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: "You are an experienced dietitian composing practical meal plans."},
			{Role: "user", Content: prompt.String()},
		},
		MaxTokens:   2000,
		Temperature: 0.7,
	})
}

func (c *Client) complete(ctx context.Context, reqBody completionRequest) (string, error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Title", "BodyGoal App")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return "", ErrUnauthorized
	case http.StatusTooManyRequests:
		return "", ErrRateLimited
	case http.StatusBadRequest:
		return "", ErrBadRequest
	default:
		return "", fmt.Errorf("llm: unexpected status %d", resp.StatusCode)
	}

	var parsed completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("llm: decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("llm: empty response")
	}
	return parsed.Choices[0].Message.Content, nil
}

var jsonBlockRe = regexp.MustCompile(`(?s)\{.*\}`)

// extractJSON strips prose or code fences around a JSON object.
func extractJSON(content string) string {
	if match := jsonBlockRe.FindString(content); match != "" {
		return match
	}
	return content
}

var (
	caloriesRe = regexp.MustCompile(`(?i)calories?\D*(\d+)`)
	proteinRe  = regexp.MustCompile(`(?i)protein\D*(\d+)`)
	fatsRe     = regexp.MustCompile(`(?i)fats?\D*(\d+)`)
	carbsRe    = regexp.MustCompile(`(?i)carbs?\D*(\d+)`)
	weightRe   = regexp.MustCompile(`(?i)weight\D*(\d+)`)
)

func fallbackAnalysis(content string) PhotoAnalysis {
	return PhotoAnalysis{
		DishName:        "Unknown dish",
		PortionWeight:   extractNumber(content, weightRe, 150),
		Calories:        extractNumber(content, caloriesRe, 250),
		Protein:         extractNumber(content, proteinRe, 15),
		Fats:            extractNumber(content, fatsRe, 10),
		Carbs:           extractNumber(content, carbsRe, 30),
		Description:     "Estimated from a visual assessment of the dish",
		Recommendations: "Treat these values as approximate when planning meals",
	}
}

func extractNumber(content string, re *regexp.Regexp, fallback float64) float64 {
	match := re.FindStringSubmatch(content)
	if len(match) < 2 {
		return fallback
	}
	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return fallback
	}
	return value
}
