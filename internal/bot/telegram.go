package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// Telegram Bot API wire types, trimmed to what the adapter consumes.

type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message"`
	CallbackQuery *CallbackQuery `json:"callback_query"`
	InlineQuery   *InlineQuery   `json:"inline_query"`
}

type Message struct {
	MessageID int64  `json:"message_id"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
}

type Chat struct {
	ID int64 `json:"id"`
}

type CallbackQuery struct {
	ID      string   `json:"id"`
	Data    string   `json:"data"`
	From    User     `json:"from"`
	Message *Message `json:"message"`
}

type User struct {
	ID int64 `json:"id"`
}

type InlineQuery struct {
	ID    string `json:"id"`
	Query string `json:"query"`
}

type InputTextMessageContent struct {
	MessageText string `json:"message_text"`
}

type InlineQueryResultArticle struct {
	Type                string                  `json:"type"`
	ID                  string                  `json:"id"`
	Title               string                  `json:"title"`
	InputMessageContent InputTextMessageContent `json:"input_message_content"`
	ReplyMarkup         *InlineKeyboardMarkup   `json:"reply_markup,omitempty"`
}

type InlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

type ReplyKeyboardMarkup struct {
	Keyboard        [][]string `json:"keyboard"`
	OneTimeKeyboard bool       `json:"one_time_keyboard"`
	ResizeKeyboard  bool       `json:"resize_keyboard"`
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// TelegramClient is a thin long-polling client for the Bot API.
type TelegramClient struct {
	client      *resty.Client
	pollTimeout time.Duration
}

func NewTelegramClient(token string, pollTimeout time.Duration) *TelegramClient {
	client := resty.New()
	client.SetBaseURL("https://api.telegram.org/bot" + token)
	// Long poll holds the connection open for pollTimeout, leave the
	// HTTP deadline comfortably above it.
	client.SetTimeout(pollTimeout + 10*time.Second)
	return &TelegramClient{client: client, pollTimeout: pollTimeout}
}

func (t *TelegramClient) call(ctx context.Context, method string, params map[string]string, out interface{}) error {
	var envelope apiResponse
	resp, err := t.client.R().
		SetContext(ctx).
		SetFormDataFromValues(toValues(params)).
		SetResult(&envelope).
		Post("/" + method)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	if resp.StatusCode() != 200 || !envelope.OK {
		return fmt.Errorf("telegram %s: status %d: %s", method, resp.StatusCode(), envelope.Description)
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("telegram %s: decoding result: %w", method, err)
		}
	}
	return nil
}

// GetUpdates long-polls for new updates past offset.
func (t *TelegramClient) GetUpdates(ctx context.Context, offset int64) ([]Update, error) {
	var updates []Update
	err := t.call(ctx, "getUpdates", map[string]string{
		"offset":  strconv.FormatInt(offset, 10),
		"timeout": strconv.Itoa(int(t.pollTimeout.Seconds())),
	}, &updates)
	if err != nil {
		return nil, err
	}
	return updates, nil
}

// SendMessage sends an HTML-formatted message. markup may be an
// InlineKeyboardMarkup, a ReplyKeyboardMarkup or nil.
func (t *TelegramClient) SendMessage(ctx context.Context, chatID int64, text string, markup interface{}) error {
	params := map[string]string{
		"chat_id":                  strconv.FormatInt(chatID, 10),
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": "true",
	}
	if markup != nil {
		encoded, err := json.Marshal(markup)
		if err != nil {
			return fmt.Errorf("encoding reply markup: %w", err)
		}
		params["reply_markup"] = string(encoded)
	}
	return t.call(ctx, "sendMessage", params, nil)
}

// EditMessageText replaces a previously sent message, used when a
// capped candidate page expands in place.
func (t *TelegramClient) EditMessageText(ctx context.Context, chatID, messageID int64, text string, markup *InlineKeyboardMarkup) error {
	params := map[string]string{
		"chat_id":    strconv.FormatInt(chatID, 10),
		"message_id": strconv.FormatInt(messageID, 10),
		"text":       text,
	}
	if markup != nil {
		encoded, err := json.Marshal(markup)
		if err != nil {
			return fmt.Errorf("encoding reply markup: %w", err)
		}
		params["reply_markup"] = string(encoded)
	}
	return t.call(ctx, "editMessageText", params, nil)
}

// SendPhoto uploads a PNG payload as a photo message.
func (t *TelegramClient) SendPhoto(ctx context.Context, chatID int64, photo []byte) error {
	var envelope apiResponse
	resp, err := t.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{"chat_id": strconv.FormatInt(chatID, 10)}).
		SetFileReader("photo", "chart.png", bytesReader(photo)).
		SetResult(&envelope).
		Post("/sendPhoto")
	if err != nil {
		return fmt.Errorf("telegram sendPhoto: %w", err)
	}
	if resp.StatusCode() != 200 || !envelope.OK {
		return fmt.Errorf("telegram sendPhoto: status %d: %s", resp.StatusCode(), envelope.Description)
	}
	return nil
}

// AnswerInlineQuery sends the article results for an @bot inline
// search.
func (t *TelegramClient) AnswerInlineQuery(ctx context.Context, inlineQueryID string, results []InlineQueryResultArticle) error {
	encoded, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("encoding inline results: %w", err)
	}
	return t.call(ctx, "answerInlineQuery", map[string]string{
		"inline_query_id": inlineQueryID,
		"results":         string(encoded),
	}, nil)
}

// AnswerCallbackQuery acknowledges a button press so the client stops
// showing a spinner.
func (t *TelegramClient) AnswerCallbackQuery(ctx context.Context, callbackID string) error {
	return t.call(ctx, "answerCallbackQuery", map[string]string{
		"callback_query_id": callbackID,
	}, nil)
}

// AdminNotifier forwards user reports to the operator chat. Satisfies
// the flow's Notifier.
type AdminNotifier struct {
	tg     *TelegramClient
	chatID int64
}

func NewAdminNotifier(tg *TelegramClient, chatID int64) *AdminNotifier {
	return &AdminNotifier{tg: tg, chatID: chatID}
}

func (n *AdminNotifier) Notify(ctx context.Context, text string) error {
	return n.tg.SendMessage(ctx, n.chatID, text, nil)
}

func toValues(params map[string]string) url.Values {
	values := make(url.Values, len(params))
	for k, v := range params {
		values.Set(k, v)
	}
	return values
}

func bytesReader(b []byte) io.Reader {
	return bytes.NewReader(b)
}
