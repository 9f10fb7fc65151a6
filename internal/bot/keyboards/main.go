package keyboards

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/vladimiradmaev/ai-trainer/internal/domain"
)

// Callback data
const (
	MainMenuData  = "main_menu"
	TodayData     = "today"
	LogFoodData   = "log_food"
	LogWeightData = "log_weight"
	ProfileData   = "profile"
	NewChatData   = "new_chat"
	HelpData      = "help"
	// MealTypePrefix is followed by a meal type
	MealTypePrefix = "meal:"
	// RetryPrefix is followed by the id of a failed message
	RetryPrefix = "retry:"
)

// MainMenu creates the main menu keyboard
func MainMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🍽️ Записать еду", LogFoodData),
			tgbotapi.NewInlineKeyboardButtonData("📊 Сегодня", TodayData),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⚖️ Вес", LogWeightData),
			tgbotapi.NewInlineKeyboardButtonData("👤 Профиль", ProfileData),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💬 Новый диалог", NewChatData),
			tgbotapi.NewInlineKeyboardButtonData("❓ Помощь", HelpData),
		),
	)
}

// MealTypeMenu lets the user pick the meal a description belongs to
func MealTypeMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🌅 Завтрак", MealTypePrefix+string(domain.MealBreakfast)),
			tgbotapi.NewInlineKeyboardButtonData("☀️ Обед", MealTypePrefix+string(domain.MealLunch)),
			tgbotapi.NewInlineKeyboardButtonData("🌙 Ужин", MealTypePrefix+string(domain.MealDinner)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🍎 Перекус", MealTypePrefix+string(domain.MealAfternoonSnack)),
		),
		BackRow(),
	)
}

// BackToMenu creates a keyboard with a single back button
func BackToMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(BackRow())
}

// BackRow is the row returning to the main menu
func BackRow() []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("◀️ Главное меню", MainMenuData),
	)
}

// Retry offers to resend a failed message
func Retry(messageID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Повторить", RetryPrefix+messageID),
		),
	)
}
