package menus

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/vladimiradmaev/ai-trainer/internal/bot/keyboards"
	"github.com/vladimiradmaev/ai-trainer/internal/domain"
	"github.com/vladimiradmaev/ai-trainer/internal/interfaces"
	"github.com/vladimiradmaev/ai-trainer/internal/services"
)

// MainMenuText is the greeting shown with the main menu
const MainMenuText = `🏋️ *AI Тренер* — твой персональный тренер и нутрициолог

🍽️ Отправь фото или описание еды, и я:
• Распознаю продукты
• Посчитаю калории и БЖУ
• Запишу приём пищи в дневник

💬 Просто напиши или надиктуй вопрос, чтобы поговорить с тренером.

⚠️ *Важно:* Это справочная информация, при проблемах со здоровьем консультируйтесь с врачом!

Выберите действие:`

// HelpText lists the bot commands
const HelpText = `Команды:
/start - главное меню
/today - питание за сегодня
/weight [кг] - записать вес
/profile рост вес возраст пол активность цель - заполнить профиль
/new - начать новый диалог с тренером
/help - эта справка

Пол: male, female. Активность: sedentary, lightlyActive, moderatelyActive, veryActive, extraActive.
Цель: weightLoss, maintenance, muscleGain, recomposition, performance, health.`

var mealTypeNames = map[domain.MealType]string{
	domain.MealBreakfast:      "Завтрак",
	domain.MealMorningSnack:   "Второй завтрак",
	domain.MealLunch:          "Обед",
	domain.MealAfternoonSnack: "Полдник",
	domain.MealDinner:         "Ужин",
	domain.MealEveningSnack:   "Поздний перекус",
	domain.MealCustom:         "Приём пищи",
}

var bmiCategoryNames = map[string]string{
	"underweight": "недостаточный вес",
	"normal":      "норма",
	"overweight":  "избыточный вес",
	"obese":       "ожирение",
}

// SendMainMenu sends the main menu to a chat
func SendMainMenu(api interfaces.Sender, chatID int64) error {
	msg := tgbotapi.NewMessage(chatID, MainMenuText)
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = keyboards.MainMenu()
	_, err := api.Send(msg)
	return err
}

// MealTypeName returns the Russian name of a meal type
func MealTypeName(t domain.MealType) string {
	if name, ok := mealTypeNames[t]; ok {
		return name
	}
	return mealTypeNames[domain.MealCustom]
}

// FormatToday renders a day's intake. goals may be nil.
func FormatToday(day domain.DailyNutrition, goals *domain.NutritionGoals, remaining *domain.RemainingNutrition) string {
	var b strings.Builder
	b.WriteString("📊 *Питание за сегодня*\n\n")

	if len(day.Meals) == 0 {
		b.WriteString("Пока ничего не записано.\n")
	}
	for _, m := range day.Meals {
		name := m.Name
		if name == "" {
			name = MealTypeName(m.Type)
		}
		fmt.Fprintf(&b, "🕒 %s %s: %.0f ккал\n", m.Time.Format("15:04"), EscapeMarkdown(name), m.TotalCalories)
	}

	fmt.Fprintf(&b, "\n🔥 *Калории:* %.0f", day.TotalCalories)
	if goals != nil && goals.Calories > 0 {
		fmt.Fprintf(&b, " из %.0f", goals.Calories)
	}
	fmt.Fprintf(&b, "\n🥩 Белки: %.0f г | 🍞 Углеводы: %.0f г | 🧈 Жиры: %.0f г\n",
		day.TotalMacros.Protein, day.TotalMacros.Carbs, day.TotalMacros.Fat)

	if remaining != nil {
		fmt.Fprintf(&b, "\n🎯 *Осталось:* %.0f ккал (Б %.0f / У %.0f / Ж %.0f)\n",
			remaining.Calories, remaining.Macros.Protein, remaining.Macros.Carbs, remaining.Macros.Fat)
	}
	return b.String()
}

// FormatProfile renders a profile with its goals
func FormatProfile(user domain.UserData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👤 *%s*\n\n", EscapeMarkdown(user.Name))

	a := user.Anthropometry
	if a.Height > 0 && a.Weight > 0 && a.Age > 0 {
		fmt.Fprintf(&b, "📏 Рост: %.0f см\n⚖️ Вес: %.1f кг\n🎂 Возраст: %d\n", a.Height, a.Weight, a.Age)
		fmt.Fprintf(&b, "Пол: %s, активность: %s\n", a.Gender, a.ActivityLevel)
		if bmi, ok := services.BMI(a); ok {
			fmt.Fprintf(&b, "ИМТ: %.1f (%s)\n", bmi.Value, bmiCategoryNames[bmi.Category])
		}
	} else {
		b.WriteString("Антропометрия не заполнена. Используйте /profile.\n")
	}

	fmt.Fprintf(&b, "\n🎯 Цель: %s\n", user.Preferences.FitnessGoal)
	g := user.NutritionGoals
	if g.Calories > 0 {
		fmt.Fprintf(&b, "Норма: %.0f ккал, Б %.0f г, У %.0f г, Ж %.0f г\n", g.Calories, g.Protein, g.Carbs, g.Fat)
	}
	return b.String()
}

// FormatMealLogged renders a meal logged from an analysis
func FormatMealLogged(result *services.MealLogResult) string {
	meal := result.Meal
	var b strings.Builder
	name := meal.Name
	if name == "" {
		name = MealTypeName(meal.Type)
	}
	fmt.Fprintf(&b, "🍽️ *%s* записан (%s)\n\n", EscapeMarkdown(name), MealTypeName(meal.Type))
	for _, f := range meal.Foods {
		fmt.Fprintf(&b, "• %s: %.0f ккал\n", EscapeMarkdown(f.FoodItem.Name), f.TotalCalories)
	}
	fmt.Fprintf(&b, "\n🔥 *Итого:* %.0f ккал\n🥩 Б %.1f г | 🍞 У %.1f г | 🧈 Ж %.1f г\n",
		meal.TotalCalories, meal.TotalMacros.Protein, meal.TotalMacros.Carbs, meal.TotalMacros.Fat)
	fmt.Fprintf(&b, "🎯 *Уверенность:* %s\n", confidenceName(result.Confidence))
	if result.Analysis != nil && result.Analysis.AnalysisText != "" {
		fmt.Fprintf(&b, "\n📊 %s", EscapeMarkdown(result.Analysis.AnalysisText))
	}
	return strings.ToValidUTF8(b.String(), "")
}

// FormatTrainerReply renders the trainer's answer with its follow-ups
func FormatTrainerReply(resp *domain.AIResponse) string {
	var b strings.Builder
	b.WriteString(resp.Text)
	if len(resp.NextSteps) > 0 {
		b.WriteString("\n\nСледующие шаги:")
		for _, step := range resp.NextSteps {
			b.WriteString("\n• " + step)
		}
	}
	if len(resp.Questions) > 0 {
		b.WriteString("\n")
		for _, q := range resp.Questions {
			b.WriteString("\n❓ " + q)
		}
	}
	return b.String()
}

func confidenceName(score float64) string {
	switch {
	case score >= 0.8:
		return "высокая"
	case score >= 0.5:
		return "средняя"
	default:
		return "низкая"
	}
}

// EscapeMarkdown escapes the characters legacy Markdown treats as markup
func EscapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "`", "\\`")
