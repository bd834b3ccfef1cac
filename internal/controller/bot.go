package controller

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/tutor_bot/internal/clock"
	"github.com/Freeeeeet/tutor_bot/internal/controller/callbacks"
	"github.com/Freeeeeet/tutor_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/tutor_bot/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/tutor_bot/internal/controller/handlers"
	"github.com/Freeeeeet/tutor_bot/internal/service"
)

// Deps - сервисы, которыми пользуются обработчики бота
type Deps struct {
	Users       *service.UserService
	Booking     *service.BookingService
	Lessons     *service.LessonService
	Schedule    *service.ScheduleService
	Week        *service.WeekService
	Zone        *clock.TimeZone
	HorizonDays int
}

type BotController struct {
	bot             *bot.Bot
	handlers        *handlers.Handlers
	callbackHandler *callbacks.Handler
	logger          *zap.Logger

	// Тексты и префиксы, у которых есть свой обработчик
	exact    map[string]bool
	prefixes []string
}

func NewBotController(botInstance *bot.Bot, deps Deps, logger *zap.Logger) *BotController {
	cmdHandlers := handlers.NewHandlers(
		deps.Users,
		deps.Booking,
		deps.Lessons,
		deps.Schedule,
		deps.Week,
		deps.Zone,
		deps.HorizonDays,
		logger,
	)

	callbackHandler := callbacks.NewHandler(&callbacktypes.Handler{
		UserService:     deps.Users,
		BookingService:  deps.Booking,
		LessonService:   deps.Lessons,
		ScheduleService: deps.Schedule,
		Zone:            deps.Zone,
		Logger:          logger,
	})

	return &BotController{
		bot:             botInstance,
		handlers:        cmdHandlers,
		callbackHandler: callbackHandler,
		logger:          logger,
		exact:           make(map[string]bool),
	}
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	// Команды
	c.handleExact("/start", c.handlers.HandleStart)
	c.handleExact("/help", c.handlers.HandleHelp)
	c.handleExact("/book", c.handlers.HandleBook)
	c.handleExact("/cancel", c.handlers.HandleCancel)
	c.handleExact("/mylessons", c.handlers.HandleMyLessons)

	// Кнопки главного меню
	c.handleExact(keyboard.MenuBook, c.handlers.HandleBook)
	c.handleExact(keyboard.MenuLessons, c.handlers.HandleMyLessons)
	c.handleExact(keyboard.MenuHelp, c.handlers.HandleHelp)

	// Команды репетитора
	c.handleExact("/requests", c.handlers.HandleRequests)
	c.handleExact(keyboard.MenuRequests, c.handlers.HandleRequests)
	c.handleExact("/slots", c.handlers.HandleSchedule)
	c.handleExact(keyboard.MenuSchedule, c.handlers.HandleSchedule)
	c.handleExact("/week", c.handlers.HandleWeek)
	c.handleExact(keyboard.MenuWeek, c.handlers.HandleWeek)
	c.handlePrefix("/addslot", c.handlers.HandleAddSlot)
	c.handlePrefix("/delslot", c.handlers.HandleDeleteSlot)
	c.handlePrefix("/block", c.handlers.HandleBlock)
	c.handlePrefix("/unblock", c.handlers.HandleUnblock)

	// Остальной текст (имя профиля, неизвестные команды). Условие не пересекается с командами выше,
	// поэтому порядок поиска обработчика в библиотеке не важен.
	c.bot.RegisterHandlerMatchFunc(c.isFreeText, c.handlers.HandleTextMessage)

	// Обработчик нажатий на inline кнопки
	c.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, c.callbackHandler.HandleCallbackQuery)

	// Устанавливаем меню команд
	return c.setCommands(ctx)
}

func (c *BotController) handleExact(text string, h bot.HandlerFunc) {
	c.exact[text] = true
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, text, bot.MatchTypeExact, h)
}

// handlePrefix регистрирует команду с аргументами: "/block" или "/block 2024-06-10"
func (c *BotController) handlePrefix(command string, h bot.HandlerFunc) {
	c.prefixes = append(c.prefixes, command)
	c.bot.RegisterHandlerMatchFunc(func(update *models.Update) bool {
		return update.Message != nil && matchesCommand(update.Message.Text, command)
	}, h)
}

// isFreeText - текстовое сообщение, для которого нет отдельного обработчика
func (c *BotController) isFreeText(update *models.Update) bool {
	if update.Message == nil || update.Message.Text == "" {
		return false
	}
	text := update.Message.Text
	if c.exact[text] {
		return false
	}
	for _, command := range c.prefixes {
		if matchesCommand(text, command) {
			return false
		}
	}
	return true
}

func matchesCommand(text, command string) bool {
	rest, ok := strings.CutPrefix(text, command)
	return ok && (rest == "" || rest[0] == ' ')
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Начать работу с ботом"},
		{Command: "book", Description: "📅 Записаться на занятие"},
		{Command: "mylessons", Description: "📚 Мои записи"},
		{Command: "cancel", Description: "❌ Отменить текущую запись"},
		{Command: "help", Description: "❓ Справка по командам"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})

	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("✅ Bot commands menu set")
	return nil
}

// Start запускает long polling и блокируется до отмены ctx
func (c *BotController) Start(ctx context.Context) {
	c.logger.Info("Starting bot (long polling)...")
	c.bot.Start(ctx)
}

// StartWebhook регистрирует вебхук и обрабатывает обновления, пришедшие в WebhookHandler.
// Блокируется до отмены ctx.
func (c *BotController) StartWebhook(ctx context.Context, url, secret string) error {
	_, err := c.bot.SetWebhook(ctx, &bot.SetWebhookParams{
		URL:                url,
		DropPendingUpdates: true,
		SecretToken:        secret,
	})
	if err != nil {
		return err
	}

	c.logger.Info("Starting bot (webhook)...", zap.String("url", url))
	c.bot.StartWebhook(ctx)
	return nil
}

// WebhookHandler - HTTP-обработчик для входящих обновлений, монтируется в /webhook
func (c *BotController) WebhookHandler() http.Handler {
	return c.bot.WebhookHandler()
}
