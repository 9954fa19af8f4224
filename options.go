package datagrid

import (
	"github.com/goliatone/go-datagrid/pkg/activity"
	"github.com/goliatone/go-datagrid/pkg/rules"
	"github.com/goliatone/go-datagrid/pkg/state"
)

// Option customizes the collaborators of a Grid.
type Option func(*gridConfig)

type gridConfig struct {
	store     state.Store[Snapshot]
	history   History
	transport Transport
	renderer  Renderer
	notifier  Notifier
	logger    Logger
	behaviors *Behaviors
	hooks     activity.Hooks
	actor     Actor
	evaluator rules.Evaluator
	bulk      []BulkAction
}

// Actor identifies who drives the grid in emitted activity events.
type Actor struct {
	ActorID  string
	UserID   string
	TenantID string
}

// WithStore sets the persisted state store. Defaults to an in-memory store.
func WithStore(store state.Store[Snapshot]) Option {
	return func(cfg *gridConfig) {
		cfg.store = store
	}
}

// WithHistory sets the address bar abstraction. Defaults to an empty
// MemoryHistory.
func WithHistory(history History) Option {
	return func(cfg *gridConfig) {
		cfg.history = history
	}
}

// WithTransport replaces the default HTTPTransport.
func WithTransport(transport Transport) Option {
	return func(cfg *gridConfig) {
		cfg.transport = transport
	}
}

func WithRenderer(renderer Renderer) Option {
	return func(cfg *gridConfig) {
		cfg.renderer = renderer
	}
}

func WithNotifier(notifier Notifier) Option {
	return func(cfg *gridConfig) {
		cfg.notifier = notifier
	}
}

func WithLogger(logger Logger) Option {
	return func(cfg *gridConfig) {
		cfg.logger = logger
	}
}

// WithBehaviors replaces the behavior set. Nil members contribute no query
// parameters; pass DefaultBehaviors() as a starting point to keep the
// default REST conventions.
func WithBehaviors(behaviors Behaviors) Option {
	return func(cfg *gridConfig) {
		cfg.behaviors = &behaviors
	}
}

// WithActivityHooks registers hooks for grid activity events. Emission also
// requires Config.Activity.Enabled.
func WithActivityHooks(hooks ...activity.ActivityHook) Option {
	return func(cfg *gridConfig) {
		cfg.hooks = append(cfg.hooks, hooks...)
	}
}

// WithActor stamps emitted activity events with actor, user and tenant ids.
func WithActor(actor Actor) Option {
	return func(cfg *gridConfig) {
		cfg.actor = actor
	}
}

// WithRuleEvaluator selects the engine for bulk action guards. Defaults to
// expr.
func WithRuleEvaluator(evaluator rules.Evaluator) Option {
	return func(cfg *gridConfig) {
		cfg.evaluator = evaluator
	}
}

// WithBulkAction registers a bulk action. A later action with the same name
// replaces an earlier one.
func WithBulkAction(action BulkAction) Option {
	return func(cfg *gridConfig) {
		cfg.bulk = append(cfg.bulk, action)
	}
}
