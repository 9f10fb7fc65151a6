package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/vladimiradmaev/ai-trainer/internal/domain"
	apperrors "github.com/vladimiradmaev/ai-trainer/internal/errors"
	"github.com/vladimiradmaev/ai-trainer/internal/logger"
	"github.com/vladimiradmaev/ai-trainer/internal/services"
)

const dateLayout = "2006-01-02"

// Deps are the stores of one account the tools operate on
type Deps struct {
	Nutrition *services.NutritionService
	Catalog   *services.FoodCatalogService
	Progress  *services.ProgressService
	Users     *services.UserService
	Analysis  *services.FoodAnalysisService
	Location  *time.Location
}

type handlerFunc func(ctx context.Context, args map[string]any) (any, error)

// Descriptor describes a tool to callers
type Descriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type tool struct {
	desc    Descriptor
	handler handlerFunc
}

// Registry exposes one account's ledger, catalogue and progress as callable
// tools. It is the executor for tool calls requested by the model.
type Registry struct {
	deps  Deps
	tools map[string]tool
}

// NewRegistry creates a new tool registry
func NewRegistry(deps Deps) *Registry {
	if deps.Location == nil {
		deps.Location = time.Local
	}
	r := &Registry{deps: deps, tools: make(map[string]tool)}

	r.register("log_meal", "Analyse a described meal and add it to the food diary", r.logMeal)
	r.register("delete_meal", "Delete a meal from the food diary by id", r.deleteMeal)
	r.register("get_daily_nutrition", "Meals and totals of one day (date as YYYY-MM-DD, default today)", r.getDailyNutrition)
	r.register("get_remaining_nutrition", "Calories and macros left for a day against the user's goals", r.getRemainingNutrition)
	r.register("search_foods", "Search the food catalogue by name", r.searchFoods)
	r.register("log_weight", "Record a weigh-in in kg", r.logWeight)
	r.register("get_weight_trend", "Daily average weight over the last days (default 30)", r.getWeightTrend)
	return r
}

func (r *Registry) register(name, description string, h handlerFunc) {
	r.tools[name] = tool{desc: Descriptor{Name: name, Description: description}, handler: h}
}

// Descriptors lists the registered tools sorted by name
func (r *Registry) Descriptors() []Descriptor {
	descs := make([]Descriptor, 0, len(r.tools))
	for _, t := range r.tools {
		descs = append(descs, t.desc)
	}
	sort.Slice(descs, func(i, j int) bool { return descs[i].Name < descs[j].Name })
	return descs
}

// Execute runs a tool call from the model. Arguments are JSON text.
func (r *Registry) Execute(ctx context.Context, call domain.ToolCall) (string, error) {
	args := map[string]any{}
	if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return "", apperrors.NewValidationError("tool arguments are not a JSON object").
				WithContext("tool", call.Function.Name)
		}
	}
	return r.Call(ctx, call.Function.Name, args)
}

// Call runs the named tool and returns its result as JSON
func (r *Registry) Call(ctx context.Context, name string, args map[string]any) (string, error) {
	t, ok := r.tools[name]
	if !ok {
		return "", apperrors.NewNotFoundError("tool", name)
	}

	result, err := t.handler(ctx, args)
	if err != nil {
		logger.WithContext(ctx).Warn("Tool failed", "tool", name, "error", err)
		return "", err
	}

	out, err := json.Marshal(result)
	if err != nil {
		return "", apperrors.NewInternalError(fmt.Errorf("failed to marshal %s result: %w", name, err))
	}
	return string(out), nil
}

// extractParams decodes tool arguments into target
func extractParams(args map[string]any, target any) error {
	jsonBytes, err := json.Marshal(args)
	if err != nil {
		return apperrors.NewValidationError(fmt.Sprintf("failed to marshal arguments: %v", err))
	}
	if err := json.Unmarshal(jsonBytes, target); err != nil {
		return apperrors.NewValidationError(fmt.Sprintf("invalid parameters: %v", err))
	}
	return nil
}

func (r *Registry) parseDate(value string) (time.Time, error) {
	if value == "" {
		return r.deps.Nutrition.Today(), nil
	}
	t, err := time.ParseInLocation(dateLayout, value, r.deps.Location)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError("date must be YYYY-MM-DD").WithContext("date", value)
	}
	return t, nil
}

func parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError("timestamp must be RFC 3339").WithContext("timestamp", value)
	}
	return t, nil
}
