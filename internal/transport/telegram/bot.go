package telegram

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sandevgo/mnemo/internal/config"
	"github.com/sandevgo/mnemo/internal/core"
	"github.com/sandevgo/mnemo/internal/service/cleanup"
	"github.com/sandevgo/mnemo/pkg/log"
	"github.com/sandevgo/mnemo/pkg/retry"
	tele "gopkg.in/telebot.v3"
)

const baseContextKey = "base_context"

var (
	btnConfirm = tele.Btn{Unique: "dedup_confirm"}
	btnSkip    = tele.Btn{Unique: "dedup_skip"}
)

type Bot struct {
	bot     *tele.Bot
	cfg     *config.TelegramConfig
	svc     *cleanup.Service
	sender  *sender
	ownerID int64
}

func NewBot(
	ctx context.Context,
	cfg *config.TelegramConfig,
	svc *cleanup.Service,
) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	bot := &Bot{
		bot:     b,
		cfg:     cfg,
		svc:     svc,
		sender:  newSender(b),
		ownerID: cfg.OwnerID,
	}

	// Use context from signal with logger
	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			c.Set(baseContextKey, ctx)
			return next(c)
		}
	})

	// Middleware: Only allow the owner
	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if c.Sender().ID != bot.ownerID {
				return nil // Ignore unauthorized users
			}
			return next(c)
		}
	})

	b.Handle("/cleanup", bot.handleCleanup)
	b.Handle("/review", bot.handleReview)
	b.Handle("/status", bot.handleStatus)
	b.Handle(&btnConfirm, bot.handleConfirm)
	b.Handle(&btnSkip, bot.handleSkip)

	return bot, nil
}

func (b *Bot) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Msg("starting telegram bot")
	b.bot.Start()
	return nil
}

func (b *Bot) Shutdown(ctx context.Context) error {
	b.bot.Stop()
	return nil
}

// Deliver implements core.Notifier. Actions, when present, become an inline
// keyboard with the confirm and skip buttons carrying the review id.
func (b *Bot) Deliver(ctx context.Context, text string, actions []core.Action) error {
	owner := &tele.User{ID: b.ownerID}

	var opts []interface{}
	if len(actions) == 2 {
		markup := &tele.ReplyMarkup{}
		confirm := markup.Data(actions[0].Label, btnConfirm.Unique, actions[0].Token)
		skip := markup.Data(actions[1].Label, btnSkip.Unique, actions[1].Token)
		markup.Inline(markup.Row(confirm), markup.Row(skip))
		opts = append(opts, markup)
	}

	retrier := retry.NewDefaultRetrier()
	return retrier.Do(ctx, func() error {
		return b.sender.sendMarkdown(ctx, owner, text, opts...)
	})
}

func (b *Bot) handleCleanup(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)

	_ = c.Notify(tele.Typing)
	result := b.svc.RunAuto(ctx)
	return b.sender.sendMarkdown(ctx, c.Chat(), cleanup.BuildOperatorReport(result))
}

func (b *Bot) handleReview(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)

	_ = c.Notify(tele.Typing)
	review, err := b.svc.ProposeReview(ctx)
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("review proposal failed")
		return c.Send("Review proposal failed, see logs.")
	}
	if review == nil {
		return c.Send("Nothing to review — memory looks clean.")
	}
	// The proposal itself was already delivered with buttons via Deliver.
	return nil
}

func (b *Bot) handleStatus(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)

	review, err := b.svc.PendingStatus(ctx)
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("failed to load pending review")
		return c.Send("Failed to load pending review, see logs.")
	}
	if review == nil {
		return c.Send("No pending review.")
	}

	text := fmt.Sprintf("Pending review `%s`: %d items, expires %s.",
		review.ReviewID, review.Count, review.ExpiresAt.Format(time.RFC3339))
	return b.sender.sendMarkdown(ctx, c.Chat(), text)
}

func (b *Bot) handleConfirm(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)

	deleted, err := b.svc.ConfirmReview(ctx, c.Data())
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: reviewErrorText(err)})
	}

	_ = c.Respond(&tele.CallbackResponse{Text: "Confirmed"})
	return c.Send(fmt.Sprintf("Deleted %d items.", deleted))
}

func (b *Bot) handleSkip(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)

	if err := b.svc.SkipReview(ctx, c.Data()); err != nil {
		return c.Respond(&tele.CallbackResponse{Text: reviewErrorText(err)})
	}

	_ = c.Respond(&tele.CallbackResponse{Text: "Skipped"})
	return c.Send("Review skipped, nothing was deleted.")
}

func reviewErrorText(err error) string {
	switch {
	case errors.Is(err, cleanup.ErrNoPendingReview):
		return "This review has expired."
	case errors.Is(err, cleanup.ErrStaleReview):
		return "This review was replaced by a newer one."
	default:
		return "Something went wrong, see logs."
	}
}
