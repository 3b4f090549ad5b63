package bot

import (
	"context"
	"errors"
	"strings"
	"sync"

	"game-hunter/internal/aggregate"
	"game-hunter/internal/search"

	"go.uber.org/zap"
)

// State of one conversation.
type State int

const (
	StateSearching State = iota
	StateAwaitingReport
)

// pageSize caps the first candidate page; the rest hides behind a
// "show more" button.
const pageSize = 3

// inlineLimit caps inline-mode answers, matching the Bot API's
// 50-results-per-query maximum.
const inlineLimit = 50

// Event is one abstract input from the transport adapter.
type Event interface{ isEvent() }

// StartEvent opens (or reopens) a search session.
type StartEvent struct{}

// QueryEvent is a free-text game query.
type QueryEvent struct{ Text string }

// SelectEvent is the user picking one candidate.
type SelectEvent struct{ GameID uint }

// ShowMoreEvent expands a capped candidate page. Matches are
// recomputed from scratch for the stored query, so pressing the button
// twice is harmless.
type ShowMoreEvent struct{ Query string }

// HistoryEvent asks for the price-history chart of a game.
type HistoryEvent struct{ GameID uint }

// ReportEvent is the /report command.
type ReportEvent struct{}

// CancelEvent is the /cancel command.
type CancelEvent struct{}

// UnknownEvent is anything the adapter could not map.
type UnknownEvent struct{}

func (StartEvent) isEvent()    {}
func (QueryEvent) isEvent()    {}
func (SelectEvent) isEvent()   {}
func (ShowMoreEvent) isEvent() {}
func (HistoryEvent) isEvent()  {}
func (ReportEvent) isEvent()   {}
func (CancelEvent) isEvent()   {}
func (UnknownEvent) isEvent()  {}

// Action is what the transport adapter should present next.
type Action interface{ isAction() }

// WelcomeAction greets the user and explains how to search.
type WelcomeAction struct{}

// DetailAction shows current prices for one game, with an affordance
// to request its history.
type DetailAction struct {
	GameID uint
	Prices map[string]aggregate.Snapshot
}

// CandidatesAction shows a selectable list of matched games.
type CandidatesAction struct {
	Query      string
	Candidates []search.Candidate
	HasMore    bool
	// NoDirectMatch marks the bounded fallback list ("nothing found,
	// maybe you meant").
	NoDirectMatch bool
}

// ChartAction hands a per-vendor time-series bundle to the chart
// renderer.
type ChartAction struct {
	GameID uint
	Series map[string][]aggregate.PricePoint
}

// ReportPromptAction asks the user to describe the problem.
type ReportPromptAction struct{}

// ReportAckAction thanks the user after their report was forwarded.
type ReportAckAction struct{}

// CancelAction confirms returning to search mode.
type CancelAction struct{}

// NotFoundAction tells the user the game has no data.
type NotFoundAction struct{}

// ErrorAction is a transient failure the user may retry.
type ErrorAction struct{}

// HelpAction lists the available commands.
type HelpAction struct{}

func (WelcomeAction) isAction()      {}
func (DetailAction) isAction()       {}
func (CandidatesAction) isAction()   {}
func (ChartAction) isAction()        {}
func (ReportPromptAction) isAction() {}
func (ReportAckAction) isAction()    {}
func (CancelAction) isAction()       {}
func (NotFoundAction) isAction()     {}
func (ErrorAction) isAction()        {}
func (HelpAction) isAction()         {}

// PriceSource is the current-prices view the flow consults.
type PriceSource interface {
	Prices(ctx context.Context, gameID uint) (map[string]aggregate.Snapshot, error)
}

// HistorySource is the price-history view the flow consults.
type HistorySource interface {
	History(ctx context.Context, gameID uint) (map[string][]aggregate.PricePoint, error)
}

// Notifier delivers a user report to the operator. Fire-and-forget:
// delivery problems are the notifier's concern.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Flow is the conversational state machine that turns user inputs into
// presentation actions. State lives per session; sessions never share
// state.
type Flow struct {
	index   *search.Index
	prices  PriceSource
	history HistorySource
	notify  Notifier
	log     *zap.Logger

	mu       sync.Mutex
	sessions map[int64]State
}

func NewFlow(index *search.Index, prices PriceSource, history HistorySource, notify Notifier, log *zap.Logger) *Flow {
	return &Flow{
		index:    index,
		prices:   prices,
		history:  history,
		notify:   notify,
		log:      log,
		sessions: make(map[int64]State),
	}
}

// StateOf reports the current state of a session, defaulting to
// Searching.
func (f *Flow) StateOf(sessionID int64) State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions[sessionID]
}

func (f *Flow) setState(sessionID int64, s State) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[sessionID] = s
}

// Advance feeds one event into a session's state machine and returns
// the next action to present. It never fails the conversation: data
// errors degrade to NotFound or an error message.
func (f *Flow) Advance(ctx context.Context, sessionID int64, ev Event) Action {
	switch f.StateOf(sessionID) {
	case StateAwaitingReport:
		return f.advanceAwaitingReport(ctx, sessionID, ev)
	default:
		return f.advanceSearching(ctx, sessionID, ev)
	}
}

func (f *Flow) advanceSearching(ctx context.Context, sessionID int64, ev Event) Action {
	switch ev := ev.(type) {
	case StartEvent:
		if err := f.index.Refresh(ctx); err != nil {
			f.log.Warn("title index refresh failed", zap.Error(err))
		}
		return WelcomeAction{}

	case QueryEvent:
		matches, fellBack := search.FindMatches(ev.Text, f.index.Entries())
		if fellBack {
			return CandidatesAction{Query: ev.Text, Candidates: matches, NoDirectMatch: true}
		}
		// A title identical to the raw query is a confident single
		// answer, skip the list.
		if len(matches) > 0 && matches[0].Title == ev.Text {
			return f.detail(ctx, matches[0].ID)
		}
		page := matches
		hasMore := false
		if len(page) > pageSize {
			page = page[:pageSize]
			hasMore = true
		}
		return CandidatesAction{Query: ev.Text, Candidates: page, HasMore: hasMore}

	case ShowMoreEvent:
		matches, fellBack := search.FindMatches(ev.Query, f.index.Entries())
		return CandidatesAction{Query: ev.Query, Candidates: matches, NoDirectMatch: fellBack}

	case SelectEvent:
		return f.detail(ctx, ev.GameID)

	case HistoryEvent:
		series, err := f.history.History(ctx, ev.GameID)
		if err != nil {
			if errors.Is(err, aggregate.ErrNotFound) {
				return NotFoundAction{}
			}
			f.log.Error("history aggregation failed", zap.Uint("game_id", ev.GameID), zap.Error(err))
			return ErrorAction{}
		}
		return ChartAction{GameID: ev.GameID, Series: series}

	case ReportEvent:
		f.setState(sessionID, StateAwaitingReport)
		return ReportPromptAction{}

	default:
		return HelpAction{}
	}
}

func (f *Flow) advanceAwaitingReport(ctx context.Context, sessionID int64, ev Event) Action {
	switch ev := ev.(type) {
	case QueryEvent:
		f.setState(sessionID, StateSearching)
		if err := f.notify.Notify(ctx, ev.Text); err != nil {
			f.log.Warn("report delivery failed", zap.Error(err))
		}
		return ReportAckAction{}

	case CancelEvent:
		f.setState(sessionID, StateSearching)
		return CancelAction{}

	default:
		return HelpAction{}
	}
}

// InlineMatches serves the @bot <query> inline mode, which bypasses
// conversation state. An empty query refreshes the title index instead
// of matching, so typing just the bot's name re-syncs the titles;
// anything else returns ranked candidates capped at the inline answer
// limit.
func (f *Flow) InlineMatches(ctx context.Context, query string) []search.Candidate {
	if strings.TrimSpace(query) == "" {
		if err := f.index.Refresh(ctx); err != nil {
			f.log.Warn("title index refresh failed", zap.Error(err))
		}
		return nil
	}
	matches, _ := search.FindMatches(query, f.index.Entries())
	if len(matches) > inlineLimit {
		matches = matches[:inlineLimit]
	}
	return matches
}

func (f *Flow) detail(ctx context.Context, gameID uint) Action {
	prices, err := f.prices.Prices(ctx, gameID)
	if err != nil {
		if errors.Is(err, aggregate.ErrNotFound) {
			return NotFoundAction{}
		}
		f.log.Error("price aggregation failed", zap.Uint("game_id", gameID), zap.Error(err))
		return ErrorAction{}
	}
	return DetailAction{GameID: gameID, Prices: prices}
}
