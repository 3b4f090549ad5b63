package bot

import (
	"context"
	"strconv"
	"strings"
	"time"

	"game-hunter/internal/chart"

	"go.uber.org/zap"
)

// Callback data prefixes, matching the button payload format.
const (
	cbShowMore    = "show_more:"
	cbShowHistory = "show_history:"
	cbDetail      = "detail_data:"
)

// Poll retry backoff bounds.
const (
	minPollBackoff = time.Second
	maxPollBackoff = 30 * time.Second
)

// Adapter drives the Telegram long-poll loop, translates transport
// events into flow events and renders flow actions back into Telegram
// calls. It holds no conversation logic itself.
type Adapter struct {
	tg    *TelegramClient
	flow  *Flow
	chart *chart.Renderer
	log   *zap.Logger
}

func NewAdapter(tg *TelegramClient, flow *Flow, chart *chart.Renderer, log *zap.Logger) *Adapter {
	return &Adapter{tg: tg, flow: flow, chart: chart, log: log}
}

// Run polls for updates until ctx is cancelled. Failures of a single
// update never stop the loop.
func (a *Adapter) Run(ctx context.Context) error {
	var offset int64
	backoff := minPollBackoff
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		updates, err := a.tg.GetUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			a.log.Warn("getUpdates failed", zap.Duration("retry_in", backoff), zap.Error(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff = nextBackoff(backoff)
			continue
		}
		backoff = minPollBackoff

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			a.handleUpdate(ctx, update)
		}
	}
}

func (a *Adapter) handleUpdate(ctx context.Context, update Update) {
	switch {
	case update.CallbackQuery != nil:
		a.handleCallback(ctx, update.CallbackQuery)
	case update.InlineQuery != nil:
		a.handleInlineQuery(ctx, update.InlineQuery)
	case update.Message != nil:
		a.handleMessage(ctx, update.Message)
	}
}

// nextBackoff doubles the poll retry delay up to its cap.
func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > maxPollBackoff {
		return maxPollBackoff
	}
	return d
}

func (a *Adapter) handleMessage(ctx context.Context, msg *Message) {
	chatID := msg.Chat.ID
	action := a.flow.Advance(ctx, chatID, messageEvent(msg.Text))
	a.render(ctx, chatID, 0, action)
}

func (a *Adapter) handleCallback(ctx context.Context, cb *CallbackQuery) {
	if err := a.tg.AnswerCallbackQuery(ctx, cb.ID); err != nil {
		a.log.Warn("answerCallbackQuery failed", zap.Error(err))
	}
	// Detail buttons on inline-mode results carry no source message, so
	// those replies go to the user's own chat.
	chatID := cb.From.ID
	if cb.Message != nil {
		chatID = cb.Message.Chat.ID
	}
	action := a.flow.Advance(ctx, chatID, callbackEvent(cb.Data))

	// A show-more press replaces the capped page in place; everything
	// else arrives as a new message.
	editID := int64(0)
	if cb.Message != nil && strings.HasPrefix(cb.Data, cbShowMore) {
		editID = cb.Message.MessageID
	}
	a.render(ctx, chatID, editID, action)
}

// handleInlineQuery answers @bot <query> lookups. An empty query only
// refreshes the title index, so no answer goes back for it.
func (a *Adapter) handleInlineQuery(ctx context.Context, iq *InlineQuery) {
	matches := a.flow.InlineMatches(ctx, iq.Query)
	if strings.TrimSpace(iq.Query) == "" {
		return
	}
	results := make([]InlineQueryResultArticle, 0, len(matches))
	for _, c := range matches {
		id := strconv.FormatUint(uint64(c.ID), 10)
		results = append(results, InlineQueryResultArticle{
			Type:                "article",
			ID:                  id,
			Title:               c.Title,
			InputMessageContent: InputTextMessageContent{MessageText: c.Title},
			ReplyMarkup: &InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{{{
				Text:         "Details",
				CallbackData: cbDetail + id,
			}}}},
		})
	}
	if err := a.tg.AnswerInlineQuery(ctx, iq.ID, results); err != nil {
		a.log.Warn("answerInlineQuery failed", zap.Error(err))
	}
}

// messageEvent maps a plain message onto the abstract event set.
func messageEvent(text string) Event {
	switch {
	case text == "/start":
		return StartEvent{}
	case text == "/report":
		return ReportEvent{}
	case text == "/cancel":
		return CancelEvent{}
	case strings.HasPrefix(text, "/"):
		return UnknownEvent{}
	case strings.TrimSpace(text) == "":
		return UnknownEvent{}
	default:
		return QueryEvent{Text: text}
	}
}

// callbackEvent maps a button payload onto the abstract event set.
func callbackEvent(data string) Event {
	switch {
	case strings.HasPrefix(data, cbShowMore):
		return ShowMoreEvent{Query: strings.TrimPrefix(data, cbShowMore)}
	case strings.HasPrefix(data, cbShowHistory):
		id, err := strconv.ParseUint(strings.TrimPrefix(data, cbShowHistory), 10, 32)
		if err != nil {
			return UnknownEvent{}
		}
		return HistoryEvent{GameID: uint(id)}
	case strings.HasPrefix(data, cbDetail):
		id, err := strconv.ParseUint(strings.TrimPrefix(data, cbDetail), 10, 32)
		if err != nil {
			return UnknownEvent{}
		}
		return SelectEvent{GameID: uint(id)}
	default:
		id, err := strconv.ParseUint(data, 10, 32)
		if err != nil {
			return UnknownEvent{}
		}
		return SelectEvent{GameID: uint(id)}
	}
}

func (a *Adapter) render(ctx context.Context, chatID, editMessageID int64, action Action) {
	var err error
	switch action := action.(type) {
	case WelcomeAction:
		err = a.tg.SendMessage(ctx, chatID, welcomeText, ReplyKeyboardMarkup{
			Keyboard:        [][]string{{"/start", "/report"}},
			OneTimeKeyboard: true,
			ResizeKeyboard:  true,
		})

	case CandidatesAction:
		text := pickText
		if action.NoDirectMatch {
			text = noMatchText
		}
		markup := candidateKeyboard(action)
		if editMessageID != 0 {
			err = a.tg.EditMessageText(ctx, chatID, editMessageID, text, &markup)
		} else {
			err = a.tg.SendMessage(ctx, chatID, text, markup)
		}

	case DetailAction:
		markup := InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{{{
			Text:         "Show price history",
			CallbackData: cbShowHistory + strconv.FormatUint(uint64(action.GameID), 10),
		}}}}
		err = a.tg.SendMessage(ctx, chatID, FormatDetails(action.Prices), markup)

	case ChartAction:
		var image []byte
		image, err = a.chart.Render(ctx, action.Series)
		if err == nil {
			err = a.tg.SendPhoto(ctx, chatID, image)
		}

	case ReportPromptAction:
		err = a.tg.SendMessage(ctx, chatID, reportPromptText, nil)
	case ReportAckAction:
		err = a.tg.SendMessage(ctx, chatID, reportAckText, nil)
	case CancelAction:
		err = a.tg.SendMessage(ctx, chatID, cancelText, nil)
	case NotFoundAction:
		err = a.tg.SendMessage(ctx, chatID, notFoundText, nil)
	case ErrorAction:
		err = a.tg.SendMessage(ctx, chatID, errorText, nil)
	default:
		err = a.tg.SendMessage(ctx, chatID, helpText, nil)
	}

	if err != nil {
		a.log.Warn("rendering action failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func candidateKeyboard(action CandidatesAction) InlineKeyboardMarkup {
	rows := make([][]InlineKeyboardButton, 0, len(action.Candidates)+1)
	for _, c := range action.Candidates {
		rows = append(rows, []InlineKeyboardButton{{
			Text:         c.Title,
			CallbackData: strconv.FormatUint(uint64(c.ID), 10),
		}})
	}
	if action.HasMore {
		rows = append(rows, []InlineKeyboardButton{{
			Text:         "Show more",
			CallbackData: cbShowMore + action.Query,
		}})
	}
	return InlineKeyboardMarkup{InlineKeyboard: rows}
}
