// Package widget publishes today's targets and intake to a home-screen widget.
package widget

import (
	"context"
	"math"
	"time"

	"github.com/vladimiradmaev/ai-trainer/internal/domain"
	"github.com/vladimiradmaev/ai-trainer/internal/kvstore"
	"github.com/vladimiradmaev/ai-trainer/internal/repository"
)

// Nutrition is the payload the widget renders
type Nutrition struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// Bridge is the platform side of the widget
type Bridge interface {
	SetTargetNutrition(ctx context.Context, target Nutrition) error
	SetConsumedNutrition(ctx context.Context, consumed Nutrition) error
}

// Ledger is the part of the nutrition ledger the widget reads
type Ledger interface {
	GetDailyNutrition(date time.Time) (domain.DailyNutrition, bool)
}

// Profile is the part of the profile store the widget reads
type Profile interface {
	GetUserData() (domain.UserData, bool)
}

// KVBridge keeps the widget payloads in the key-value store, where a widget
// process or the CLI picks them up.
type KVBridge struct {
	target   *repository.Snapshot[Nutrition]
	consumed *repository.Snapshot[Nutrition]
}

// NewKVBridge stores the widget payloads in store
func NewKVBridge(store kvstore.Store) *KVBridge {
	return &KVBridge{
		target:   repository.NewSnapshot[Nutrition](store, repository.KeyWidgetTarget),
		consumed: repository.NewSnapshot[Nutrition](store, repository.KeyWidgetConsumed),
	}
}

func (b *KVBridge) SetTargetNutrition(ctx context.Context, target Nutrition) error {
	return b.target.Save(ctx, target)
}

func (b *KVBridge) SetConsumedNutrition(ctx context.Context, consumed Nutrition) error {
	return b.consumed.Save(ctx, consumed)
}

// Target returns the last published target
func (b *KVBridge) Target(ctx context.Context) (Nutrition, bool, error) {
	return b.target.Load(ctx)
}

// Consumed returns the last published intake
func (b *KVBridge) Consumed(ctx context.Context) (Nutrition, bool, error) {
	return b.consumed.Load(ctx)
}

// Sync publishes the goals and the intake of the day containing now. Without
// a profile only the intake is published.
func Sync(ctx context.Context, bridge Bridge, ledger Ledger, profile Profile, now time.Time) error {
	if user, ok := profile.GetUserData(); ok {
		if err := SyncTarget(ctx, bridge, user.NutritionGoals); err != nil {
			return err
		}
	}
	day, _ := ledger.GetDailyNutrition(now)
	return SyncConsumed(ctx, bridge, day)
}

// SyncTarget publishes goals
func SyncTarget(ctx context.Context, bridge Bridge, goals domain.NutritionGoals) error {
	return bridge.SetTargetNutrition(ctx, Nutrition{
		Calories: math.Round(goals.Calories),
		Protein:  math.Round(goals.Protein),
		Carbs:    math.Round(goals.Carbs),
		Fat:      math.Round(goals.Fat),
	})
}

// SyncConsumed publishes the totals of day
func SyncConsumed(ctx context.Context, bridge Bridge, day domain.DailyNutrition) error {
	return bridge.SetConsumedNutrition(ctx, Nutrition{
		Calories: math.Round(day.TotalCalories),
		Protein:  math.Round(day.TotalMacros.Protein),
		Carbs:    math.Round(day.TotalMacros.Carbs),
		Fat:      math.Round(day.TotalMacros.Fat),
	})
}
