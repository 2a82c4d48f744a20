package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/m3rciful/relaybot/core/logger"

	tele "gopkg.in/telebot.v4"
)

const wireComponent = "tg.wire"

var (
	// ErrInvalidRegistration is returned for an empty name or key, a nil
	// handler, a command without a leading slash or a description.
	ErrInvalidRegistration = errors.New("telegram: invalid registration")
	// ErrDuplicate is returned when the name or key is already taken.
	ErrDuplicate = errors.New("telegram: already registered")
)

// Command is a slash command with its menu entry. AdminOnly commands are
// rejected for everyone but the admin and listed only in the admin's chat
// menu; Hidden ones are listed nowhere.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	AdminOnly   bool
	Hidden      bool
}

// Registry maps command names and callback keys onto handlers, plus the
// fallbacks used when nothing matches. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	commands  map[string]Command
	callbacks map[string]tele.HandlerFunc

	onUnknownCallback tele.HandlerFunc
	onText            tele.HandlerFunc
}

func NewRegistry() *Registry {
	return &Registry{
		commands:  map[string]Command{},
		callbacks: map[string]tele.HandlerFunc{},
		onUnknownCallback: func(c tele.Context) error {
			return c.Respond(&tele.CallbackResponse{Text: "Unsupported action"})
		},
	}
}

func rejectRegistration(kind, name string, err error) error {
	logger.Warn(context.Background(), wireComponent, "register."+kind+".skip",
		slog.String("name", name),
		slog.String("err", err.Error()),
	)
	return fmt.Errorf("%w: %s %q", err, kind, name)
}

// RegisterCommand adds cmd under name, which must start with a slash.
func (r *Registry) RegisterCommand(name string, cmd Command) error {
	if !strings.HasPrefix(name, "/") || len(name) == 1 || cmd.Handler == nil || cmd.Description == "" {
		return rejectRegistration("command", name, ErrInvalidRegistration)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.commands[name]; taken {
		return rejectRegistration("command", name, ErrDuplicate)
	}
	r.commands[name] = cmd
	return nil
}

// RegisterCallback maps a callback unique key onto h.
func (r *Registry) RegisterCallback(key string, h tele.HandlerFunc) error {
	if key == "" || h == nil {
		return rejectRegistration("callback", key, ErrInvalidRegistration)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.callbacks[key]; taken {
		return rejectRegistration("callback", key, ErrDuplicate)
	}
	r.callbacks[key] = h
	return nil
}

// ListCommands returns the menu entries sorted by name: public commands only,
// or every non-hidden command when admin is set.
func (r *Registry) ListCommands(admin bool) []tele.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var menu []tele.Command
	for name, cmd := range r.commands {
		if cmd.Hidden || (cmd.AdminOnly && !admin) {
			continue
		}
		menu = append(menu, tele.Command{Text: name[1:], Description: cmd.Description})
	}
	slices.SortFunc(menu, func(a, b tele.Command) int { return strings.Compare(a.Text, b.Text) })
	return menu
}

// LookupCommand finds a command by name, with or without the leading slash,
// and returns the canonical slashed name.
func (r *Registry) LookupCommand(name string) (string, Command, bool) {
	name = "/" + strings.TrimPrefix(name, "/")
	r.mu.RLock()
	cmd, ok := r.commands[name]
	r.mu.RUnlock()
	return name, cmd, ok
}

// Commands returns a snapshot of the registered commands.
func (r *Registry) Commands() map[string]Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.commands)
}

func (r *Registry) GetCallback(key string) (tele.HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.callbacks[key]
	return h, ok
}

// ListCallbacks returns the registered keys in order.
func (r *Registry) ListCallbacks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.callbacks))
}

// SetCallbackNotFound replaces the handler for callbacks with an unknown
// key. Nil keeps the current one.
func (r *Registry) SetCallbackNotFound(h tele.HandlerFunc) {
	if h == nil {
		return
	}
	r.mu.Lock()
	r.onUnknownCallback = h
	r.mu.Unlock()
}

func (r *Registry) CallbackNotFound() tele.HandlerFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.onUnknownCallback
}

// SetTextFallback sets the handler for text that matches no command.
func (r *Registry) SetTextFallback(h tele.HandlerFunc) {
	r.mu.Lock()
	r.onText = h
	r.mu.Unlock()
}

func (r *Registry) TextFallback() tele.HandlerFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.onText
}

// CommandPublisher is the part of *tele.Bot that publishes command menus.
type CommandPublisher interface {
	SetCommands(opts ...interface{}) error
}

// InitBotCommands publishes the command menu: public commands for everyone
// and, when adminID is set, the full list in the admin's private chat.
// Failures are logged; the bot works without a menu.
func InitBotCommands(bot CommandPublisher, reg *Registry, adminID int64) {
	publish := func(role string, admin bool, scope ...tele.CommandScope) {
		menu := reg.ListCommands(admin)
		args := []interface{}{menu}
		for _, sc := range scope {
			args = append(args, sc)
		}
		if err := bot.SetCommands(args...); err != nil {
			logger.Error(context.Background(), wireComponent, "register.commands.set_failed",
				slog.String("role", role),
				slog.String("err", err.Error()),
			)
			return
		}
		logger.Debug(context.Background(), wireComponent, "register.commands",
			slog.String("role", role),
			slog.Int("count", len(menu)),
		)
	}
	publish("user", false)
	if adminID != 0 {
		publish("admin", true, tele.CommandScope{Type: tele.CommandScopeChat, ChatID: adminID})
	}
}
