package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"catacomb_backend/internal/logger"
	"catacomb_backend/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// AdminBot handles admin commands via Telegram
type AdminBot struct {
	bot              *tgbotapi.BotAPI
	adminService     *service.AdminService
	adminIDs         []int64 // Telegram user IDs who can use admin commands
	stopCh           chan struct{}
	wg               sync.WaitGroup
	log              *slog.Logger
	broadcastPending map[int64]bool // Track admins waiting to enter broadcast message
}

// NewAdminBot creates a new admin bot
func NewAdminBot(token string, adminService *service.AdminService, adminIDs []int64) (*AdminBot, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log := logger.With("component", "admin_bot")
	log.Info("admin bot authorized", "username", bot.Self.UserName)

	return &AdminBot{
		bot:              bot,
		adminService:     adminService,
		adminIDs:         adminIDs,
		stopCh:           make(chan struct{}),
		log:              log,
		broadcastPending: make(map[int64]bool),
	}, nil
}

// Start starts listening for commands
func (b *AdminBot) Start() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.bot.GetUpdatesChan(u)
	b.log.Info("starting bot update loop")

	for {
		select {
		case <-b.stopCh:
			b.log.Info("stopping bot update loop")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}

			if update.Message == nil {
				continue
			}

			if !b.isAdmin(update.Message.From.ID) {
				continue
			}

			// Check if admin is in broadcast mode (waiting for message)
			if b.broadcastPending[update.Message.From.ID] && !update.Message.IsCommand() {
				b.wg.Add(1)
				go func(msg *tgbotapi.Message) {
					defer b.wg.Done()
					b.executeBroadcast(msg)
				}(update.Message)
				continue
			}

			if !update.Message.IsCommand() {
				continue
			}

			b.wg.Add(1)
			go func(msg *tgbotapi.Message) {
				defer b.wg.Done()
				b.handleCommand(msg)
			}(update.Message)
		}
	}
}

// Stop gracefully stops the bot
func (b *AdminBot) Stop() {
	b.log.Info("stopping admin bot...")
	close(b.stopCh)
	b.bot.StopReceivingUpdates()

	// Wait for pending handlers with timeout
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.log.Info("admin bot stopped gracefully")
	case <-time.After(10 * time.Second):
		b.log.Warn("admin bot shutdown timeout, some handlers may not have completed")
	}
}

// isAdmin checks if user is an admin
func (b *AdminBot) isAdmin(userID int64) bool {
	for _, id := range b.adminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// handleCommand processes admin commands
func (b *AdminBot) handleCommand(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var response string

	switch msg.Command() {
	case "start", "help":
		response = b.helpMessage()

	case "stats":
		response = b.handleStats(ctx)

	case "user":
		response = b.handleUser(ctx, msg.CommandArguments())

	case "users":
		response = b.handleUsers(ctx, msg.CommandArguments())

	case "top":
		response = b.handleTop(ctx, msg.CommandArguments())

	case "rewards":
		response = b.handleRecentRewards(ctx)

	case "grant":
		response = b.handleGrant(ctx, msg.CommandArguments())

	case "ban":
		response = b.handleBan(ctx, msg.CommandArguments())

	case "unban":
		response = b.handleUnban(ctx, msg.CommandArguments())

	case "referrals":
		response = b.handleReferralStats(ctx, msg.CommandArguments())

	case "refresh":
		response = b.handleRefreshCatalog(ctx)

	case "recompute":
		response = b.handleRecompute(ctx, msg.CommandArguments())

	case "compact":
		response = b.handleCompact(ctx)

	case "broadcast":
		response = b.handleBroadcastStart(msg.Chat.ID, msg.From.ID)

	case "addadmin":
		response = b.handleAddAdmin(msg.CommandArguments())

	default:
		response = "❌ Неизвестная команда. Используйте /help для списка команд."
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, response)
	reply.ParseMode = "HTML"
	reply.ReplyToMessageID = msg.MessageID

	if _, err := b.bot.Send(reply); err != nil {
		b.log.Error("error sending message", "error", err)
	}
}

func (b *AdminBot) helpMessage() string {
	return `<b>🤖 Команды администратора</b>

<b>📊 Статистика:</b>
/stats - Статистика платформы
/top [лимит] - Топ игроков сезона
/rewards - Последние награды
/referrals [лимит] - Топ по рефералам

<b>👤 Управление игроками:</b>
/user &lt;@username|tg_id&gt; - Информация об игроке
/users [страница] - Все игроки
/grant &lt;@username|tg_id&gt; &lt;xp&gt; &lt;gold&gt; - Начислить награду
/ban &lt;@username|tg_id&gt; - Заблокировать
/unban &lt;@username|tg_id&gt; - Разблокировать

<b>⚙️ Обслуживание:</b>
/refresh - Перезагрузить таблицы наград
/recompute [@username|tg_id] - Пересчитать сезонные очки
/compact - Очистить старую историю

<b>🔐 Управление админами:</b>
/addadmin &lt;tg_id&gt; - Добавить админа

<b>📢 Рассылка:</b>
/broadcast - Отправить сообщение всем (фото, кнопки)`
}

func (b *AdminBot) handleStats(ctx context.Context) string {
	stats, err := b.adminService.GetStats(ctx)
	if err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}

	return fmt.Sprintf(`<b>📊 Статистика платформы</b>

<b>👥 Игроки:</b>
• Всего: %d
• Заблокировано: %d
• Активных сегодня: %d
• Активных за неделю: %d

<b>🎁 Сундуки:</b>
• Открыто сегодня: %d
• Открыто всего: %d

<b>💰 Экономика:</b>
• Всего XP: %d
• Всего золота: %d
• Билетов на руках: %d

<b>🏆 Сезон:</b>
• Сезонные XP: %d
• Сезонное золото: %d
• Валидных рефералов: %d`,
		stats.TotalUsers,
		stats.BlockedUsers,
		stats.ActiveUsersToday,
		stats.ActiveUsersWeek,
		stats.ChestsToday,
		stats.ChestsTotal,
		stats.TotalXP,
		stats.TotalGold,
		stats.TicketsHeld,
		stats.SeasonXP,
		stats.SeasonGold,
		stats.ValidReferrals,
	)
}

func (b *AdminBot) handleUser(ctx context.Context, args string) string {
	if args == "" {
		return "❌ Использование: /user <@username|tg_id>"
	}

	user, err := b.adminService.GetUser(ctx, args)
	if err != nil {
		return fmt.Sprintf("❌ Игрок не найден: %v", err)
	}

	blockedMark := ""
	if user.Blocked {
		blockedMark = "\n🚫 <b>ЗАБЛОКИРОВАН</b>"
	}

	return fmt.Sprintf(`<b>👤 Информация об игроке</b>

• ID: %d
• Telegram ID: %d
• Username: @%s
• Имя: %s
• ⭐ XP: %d
• 💰 Золото: %d
• 🎟 Билеты: %d
• 🏆 Сезонные XP: %d
• 🏆 Сезонное золото: %d
• 🎁 Сундуков открыто: %d
• 📅 Регистрация: %s%s`,
		user.ID,
		user.TgID,
		user.Username,
		user.FirstName,
		user.XP,
		user.Gold,
		user.Tickets,
		user.SeasonXP,
		user.SeasonGold,
		user.ChestsTotal,
		user.CreatedAt.Format("02.01.2006 15:04"),
		blockedMark,
	)
}

func (b *AdminBot) handleGrant(ctx context.Context, args string) string {
	parts := strings.Fields(args)
	if len(parts) != 3 {
		return "❌ Использование: /grant <@username|tg_id> <xp> <gold>"
	}

	userID, err := b.adminService.ResolveUserIdentifier(ctx, parts[0])
	if err != nil {
		return "❌ Игрок не найден"
	}

	xp, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || xp < 0 {
		return "❌ Неверное значение XP"
	}

	gold, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || gold < 0 {
		return "❌ Неверное значение золота"
	}

	newXP, newGold, err := b.adminService.Grant(ctx, userID, xp, gold)
	if err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}

	return fmt.Sprintf("✅ Начислено %d XP и %d 💰 игроку %d. Новый баланс: %d XP / %d 💰", xp, gold, userID, newXP, newGold)
}

func (b *AdminBot) handleBan(ctx context.Context, args string) string {
	if args == "" {
		return "❌ Использование: /ban <@username|tg_id>"
	}

	userID, err := b.adminService.ResolveUserIdentifier(ctx, args)
	if err != nil {
		return "❌ Игрок не найден"
	}

	if err := b.adminService.BlockUser(ctx, userID); err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}

	return fmt.Sprintf("🚫 Игрок %d заблокирован", userID)
}

func (b *AdminBot) handleUnban(ctx context.Context, args string) string {
	if args == "" {
		return "❌ Использование: /unban <@username|tg_id>"
	}

	userID, err := b.adminService.ResolveUserIdentifier(ctx, args)
	if err != nil {
		return "❌ Игрок не найден"
	}

	if err := b.adminService.UnblockUser(ctx, userID); err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}

	return fmt.Sprintf("✅ Игрок %d разблокирован", userID)
}

func (b *AdminBot) handleTop(ctx context.Context, args string) string {
	limit := 10
	if args != "" {
		if n, err := strconv.Atoi(args); err == nil && n > 0 && n <= 50 {
			limit = n
		}
	}

	users, err := b.adminService.GetTopUsers(ctx, limit)
	if err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}

	if len(users) == 0 {
		return "❌ Игроки не найдены"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<b>🏆 Топ %d сезона</b>\n\n", limit))

	for i, u := range users {
		username := u.Username
		if username == "" {
			username = u.FirstName
		}
		sb.WriteString(fmt.Sprintf("%d. @%s — %d XP / %d 💰\n", i+1, username, u.SeasonXP, u.SeasonGold))
	}

	return sb.String()
}

func (b *AdminBot) handleRecentRewards(ctx context.Context) string {
	records, err := b.adminService.GetRecentRewards(ctx, 10)
	if err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}

	if len(records) == 0 {
		return "❌ Нет недавних наград"
	}

	var sb strings.Builder
	sb.WriteString("<b>🎁 Последние награды</b>\n\n")

	for _, r := range records {
		sb.WriteString(fmt.Sprintf("@%s | %s | +%d XP +%d 💰\n",
			r.Username,
			r.Kind,
			r.XP,
			r.Gold,
		))
	}

	return sb.String()
}

func (b *AdminBot) handleReferralStats(ctx context.Context, args string) string {
	limit := 20
	if args != "" {
		if n, err := strconv.Atoi(args); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	stats, err := b.adminService.GetReferralStats(ctx, limit)
	if err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}

	if len(stats) == 0 {
		return "❌ Нет игроков с рефералами"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<b>👥 Топ %d по рефералам</b>\n\n", limit))

	for i, s := range stats {
		username := s.Username
		if username == "" {
			username = s.FirstName
		}
		if username == "" {
			username = fmt.Sprintf("id:%d", s.UserID)
		}
		sb.WriteString(fmt.Sprintf("%d. @%s — %d рефералов\n", i+1, username, s.Count))
	}

	return sb.String()
}

func (b *AdminBot) handleRefreshCatalog(ctx context.Context) string {
	if err := b.adminService.RefreshCatalog(ctx); err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}
	return "✅ Таблицы наград перезагружены"
}

func (b *AdminBot) handleRecompute(ctx context.Context, args string) string {
	if args == "" {
		if err := b.adminService.RecomputeAllSeasons(ctx); err != nil {
			return fmt.Sprintf("❌ Ошибка: %v", err)
		}
		return "✅ Сезонные очки пересчитаны для всех игроков"
	}

	userID, err := b.adminService.ResolveUserIdentifier(ctx, args)
	if err != nil {
		return "❌ Игрок не найден"
	}

	if err := b.adminService.RecomputeSeason(ctx, userID); err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}
	return fmt.Sprintf("✅ Сезонные очки игрока %d пересчитаны", userID)
}

func (b *AdminBot) handleCompact(ctx context.Context) string {
	folded, err := b.adminService.CompactHistory(ctx)
	if err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}
	return fmt.Sprintf("✅ Свёрнуто %d устаревших записей истории", folded)
}

func (b *AdminBot) handleBroadcastStart(chatID int64, adminID int64) string {
	b.broadcastPending[adminID] = true

	return `📢 <b>Broadcast Mode</b>

Введите сообщение для рассылки ниже.

<b>Поддерживается:</b>
• Текст с HTML разметкой
• Фото с подписью

Отправьте /cancel для отмены.`
}

func (b *AdminBot) executeBroadcast(msg *tgbotapi.Message) {
	adminID := msg.From.ID
	chatID := msg.Chat.ID

	// Cancel if user sends /cancel
	if msg.Text == "/cancel" {
		delete(b.broadcastPending, adminID)
		reply := tgbotapi.NewMessage(chatID, "❌ Рассылка отменена")
		b.bot.Send(reply)
		return
	}

	delete(b.broadcastPending, adminID)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	b.log.Info("starting broadcast", "admin_id", adminID)

	userIDs, err := b.adminService.GetAllUserTgIDs(ctx)
	if err != nil {
		b.log.Error("failed to get user IDs", "error", err)
		reply := tgbotapi.NewMessage(chatID, fmt.Sprintf("❌ Ошибка: %v", err))
		b.bot.Send(reply)
		return
	}

	if len(userIDs) == 0 {
		reply := tgbotapi.NewMessage(chatID, "❌ Нет игроков для рассылки")
		b.bot.Send(reply)
		return
	}

	// Send progress message
	progressMsg := tgbotapi.NewMessage(chatID, fmt.Sprintf("📤 Начинаю рассылку %d игрокам...", len(userIDs)))
	b.bot.Send(progressMsg)

	sent := 0
	failed := 0
	blocked := 0

	for _, tgID := range userIDs {
		var err error

		if msg.Photo != nil && len(msg.Photo) > 0 {
			// Get the largest photo
			photo := msg.Photo[len(msg.Photo)-1]
			photoMsg := tgbotapi.NewPhoto(tgID, tgbotapi.FileID(photo.FileID))
			photoMsg.Caption = msg.Caption
			photoMsg.ParseMode = "HTML"
			_, err = b.bot.Send(photoMsg)
		} else {
			textMsg := tgbotapi.NewMessage(tgID, msg.Text)
			textMsg.ParseMode = "HTML"
			textMsg.DisableWebPagePreview = true
			_, err = b.bot.Send(textMsg)
		}

		if err != nil {
			if strings.Contains(err.Error(), "blocked") || strings.Contains(err.Error(), "deactivated") {
				blocked++
			} else {
				b.log.Error("failed to send broadcast", "tg_id", tgID, "error", err)
			}
			failed++
		} else {
			sent++
		}

		// Rate limiting - 20 messages per second
		time.Sleep(50 * time.Millisecond)
	}

	b.log.Info("broadcast complete", "sent", sent, "failed", failed, "blocked", blocked)

	result := fmt.Sprintf(`✅ <b>Рассылка завершена</b>

📨 Отправлено: %d
❌ Не доставлено: %d
🚫 Заблокировали бота: %d`, sent, failed-blocked, blocked)

	reply := tgbotapi.NewMessage(chatID, result)
	reply.ParseMode = "HTML"
	b.bot.Send(reply)
}

// handleUsers returns list of all users
func (b *AdminBot) handleUsers(ctx context.Context, args string) string {
	page := 1
	if args != "" {
		if n, err := strconv.Atoi(args); err == nil && n > 0 {
			page = n
		}
	}

	limit := 20
	offset := (page - 1) * limit

	users, total, err := b.adminService.GetAllUsers(ctx, limit, offset)
	if err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}

	if len(users) == 0 {
		return "❌ Игроки не найдены"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<b>👥 Игроки (стр. %d, всего: %d)</b>\n\n", page, total))

	for i, u := range users {
		username := u.Username
		if username == "" {
			username = u.FirstName
		}
		if username == "" {
			username = fmt.Sprintf("id:%d", u.TgID)
		}

		mark := ""
		if u.Blocked {
			mark = " 🚫"
		}

		num := offset + i + 1
		sb.WriteString(fmt.Sprintf("%d. @%s | ⭐%d | 💰%d%s\n", num, username, u.XP, u.Gold, mark))
	}

	totalPages := (total + limit - 1) / limit
	if totalPages > 1 {
		sb.WriteString(fmt.Sprintf("\nСтраница %d/%d. Используйте /users %d", page, totalPages, page+1))
	}

	return sb.String()
}

func (b *AdminBot) handleAddAdmin(args string) string {
	if args == "" {
		return "❌ Использование: /addadmin <tg_id>"
	}

	tgID, err := strconv.ParseInt(args, 10, 64)
	if err != nil {
		return "❌ Неверный Telegram ID"
	}

	if b.isAdmin(tgID) {
		return fmt.Sprintf("⚠️ Пользователь %d уже админ", tgID)
	}

	b.adminIDs = append(b.adminIDs, tgID)
	b.log.Info("added new admin", "tg_id", tgID)

	return fmt.Sprintf("✅ Добавлен админ %d\n\n⚠️ Это временно до перезапуска. Добавьте в ADMIN_TELEGRAM_IDS для постоянного доступа.", tgID)
}

// SendNotification sends a notification to a specific user
func (b *AdminBot) SendNotification(tgID int64, message string) error {
	msg := tgbotapi.NewMessage(tgID, message)
	msg.ParseMode = "HTML"
	_, err := b.bot.Send(msg)
	return err
}
