package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"go.uber.org/zap"
)

type Server struct {
	handler       *CommandHandler
	botID         string
	signingSecret string
	timeout       time.Duration
	logger        *zap.Logger

	inflight sync.WaitGroup
}

func NewServer(handler *CommandHandler, botID, signingSecret string, timeout time.Duration, logger *zap.Logger) *Server {
	logger.Info("🔐 Slack signing secret configured", zap.Int("length", len(signingSecret)))
	return &Server{
		handler:       handler,
		botID:         botID,
		signingSecret: signingSecret,
		timeout:       timeout,
		logger:        logger,
	}
}

// RegisterHTTP mounts the Slack endpoints on r
func (s *Server) RegisterHTTP(r chi.Router) {
	r.Post("/slack/events", s.handleEvents)
	r.Post("/slack/commands", s.handleSlashCommand)
	r.Post("/slack/interactions", s.handleInteraction)
}

// verify reads the body and checks Slack's request signature.
func (s *Server) verify(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.logger.Error("❌ Error reading body", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return nil, false
	}

	sv, err := slack.NewSecretsVerifier(r.Header, s.signingSecret)
	if err != nil {
		s.logger.Warn("❌ Error creating secrets verifier", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return nil, false
	}

	if _, err := sv.Write(body); err != nil {
		s.logger.Error("❌ Error writing to verifier", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return nil, false
	}

	if err := sv.Ensure(); err != nil {
		s.logger.Warn("❌ Error verifying signature", zap.Error(err))
		w.WriteHeader(http.StatusUnauthorized)
		return nil, false
	}

	return body, true
}

// async runs fn after the HTTP ack, since Slack expects a reply within
// three seconds and generation takes longer. Wait drains these.
func (s *Server) async(name string, fn func(ctx context.Context) error) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			s.logger.Error("❌ Error handling "+name, zap.Error(err))
		}
	}()
}

// Wait blocks until in-flight Slack work finishes or ctx is done.
func (s *Server) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	body, ok := s.verify(w, r)
	if !ok {
		return
	}

	eventsAPIEvent, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		s.logger.Error("❌ Error parsing event", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if eventsAPIEvent.Type == slackevents.URLVerification {
		var challenge *slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			s.logger.Error("❌ Error unmarshaling challenge", zap.Error(err))
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		s.logger.Info("✅ Responding to URL verification challenge")
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(challenge.Challenge))
		return
	}

	if eventsAPIEvent.Type == slackevents.CallbackEvent {
		innerEvent := eventsAPIEvent.InnerEvent
		s.logger.Debug("📬 Inner event", zap.String("type", innerEvent.Type))

		switch ev := innerEvent.Data.(type) {
		case *slackevents.AppMentionEvent:
			text := strings.TrimSpace(strings.Replace(ev.Text, "<@"+s.botID+">", "", 1))
			s.async("mention", func(ctx context.Context) error {
				return s.handler.HandleCommand(ctx, ev.Channel, ev.User, text)
			})

		case *slackevents.MessageEvent:
			if !s.isDirectMessage(ev) {
				break
			}
			s.async("message", func(ctx context.Context) error {
				return s.handler.HandleCommand(ctx, ev.Channel, ev.User, ev.Text)
			})

		default:
			s.logger.Debug("⚠️ Unsupported event type", zap.String("type", innerEvent.Type))
		}
	}

	w.WriteHeader(http.StatusOK)
}

// isDirectMessage accepts plain user messages in a DM with the bot.
func (s *Server) isDirectMessage(ev *slackevents.MessageEvent) bool {
	if ev.ChannelType != "im" || ev.BotID != "" || ev.User == s.botID || ev.SubType != "" {
		return false
	}
	if ev.ThreadTimeStamp != "" && ev.ThreadTimeStamp != ev.TimeStamp {
		return false
	}
	return strings.TrimSpace(ev.Text) != ""
}

func (s *Server) handleSlashCommand(w http.ResponseWriter, r *http.Request) {
	body, ok := s.verify(w, r)
	if !ok {
		return
	}

	r.Body = io.NopCloser(bytes.NewReader(body))
	cmd, err := slack.SlashCommandParse(r)
	if err != nil {
		s.logger.Error("❌ Error parsing slash command", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	s.logger.Info("⚡ Slash command", zap.String("command", cmd.Command), zap.String("text", cmd.Text))
	s.async("slash command", func(ctx context.Context) error {
		return s.handler.HandleCommand(ctx, cmd.ChannelID, cmd.UserID, cmd.Text)
	})

	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleInteraction(w http.ResponseWriter, r *http.Request) {
	body, ok := s.verify(w, r)
	if !ok {
		return
	}

	form, err := url.ParseQuery(string(body))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var callback slack.InteractionCallback
	if err := json.Unmarshal([]byte(form.Get("payload")), &callback); err != nil {
		s.logger.Error("❌ Error parsing interaction", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if callback.Type == slack.InteractionTypeBlockActions {
		channelID := callback.Channel.ID
		userID := callback.User.ID
		for _, action := range callback.ActionCallback.BlockActions {
			action := action
			s.async("block action", func(ctx context.Context) error {
				return s.handler.HandleAction(ctx, channelID, userID, action)
			})
		}
	}

	w.WriteHeader(http.StatusOK)
}
