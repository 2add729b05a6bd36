package visibility

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/goliatone/go-formrules/pkg/compiler"
	"github.com/goliatone/go-formrules/pkg/condition"
	"github.com/goliatone/go-formrules/pkg/model"
)

var (
	// ErrAlreadyMounted is returned when mounting an id twice.
	ErrAlreadyMounted = errors.New("visibility: field already mounted")
	// ErrUnknownParent is returned when a node names a parent that is not
	// mounted.
	ErrUnknownParent = errors.New("visibility: parent not mounted")
	// ErrEmptyID is returned when a node has no id.
	ErrEmptyID = errors.New("visibility: field id is required")
)

// Node describes a mounted field.
type Node struct {
	ID     string
	Parent string
	Rules  []model.RenderRuleGroup
	// Config is registered for validation while the node is visible. Nil
	// for containers that hold no value of their own.
	Config *compiler.FieldValidationConfig
	// Default is the declared default applied by the default-value mode.
	Default any
	// RestoreMode overrides the controller-wide policy when set.
	RestoreMode model.RestoreMode
}

// Change reports a visibility transition produced by Refresh.
type Change struct {
	FieldID string
	Status  Status
	// Restored is set on hidden to visible transitions of value fields;
	// Value is then what the form-value store must hold for the field.
	Restored bool
	Value    any
}

// DefaultResolver returns the declared default for a field. It is consulted
// when a node carries no Default of its own.
type DefaultResolver func(id string) (any, bool)

// Option customises a Controller.
type Option func(*Controller)

// WithEvaluator replaces the condition evaluator.
func WithEvaluator(evaluator Evaluator) Option {
	return func(c *Controller) {
		if evaluator != nil {
			c.evaluator = evaluator
		}
	}
}

// WithRegistry sets the validation registry kept in step with visibility.
func WithRegistry(registry *compiler.ValidationRegistry) Option {
	return func(c *Controller) {
		if registry != nil {
			c.registry = registry
		}
	}
}

// WithCache shares a retained value cache.
func WithCache(cache *RetainedValueCache) Option {
	return func(c *Controller) {
		if cache != nil {
			c.cache = cache
		}
	}
}

// WithRestoreMode sets the form-wide restore policy.
func WithRestoreMode(mode model.RestoreMode) Option {
	return func(c *Controller) {
		c.mode = mode
	}
}

// WithDefaultResolver supplies declared defaults for the default-value mode.
func WithDefaultResolver(resolver DefaultResolver) Option {
	return func(c *Controller) {
		c.defaults = resolver
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHooks registers lifecycle observers.
func WithHooks(hooks Hooks) Option {
	return func(c *Controller) {
		c.hooks = append(c.hooks, hooks)
	}
}

type node struct {
	spec     Node
	status   Status
	depth    int
	children []string
}

// Controller owns the visibility state of every mounted field. It assumes a
// single writer; callers serialise Mount, Unmount and Refresh.
type Controller struct {
	evaluator Evaluator
	registry  *compiler.ValidationRegistry
	cache     *RetainedValueCache
	mode      model.RestoreMode
	defaults  DefaultResolver
	logger    *zap.Logger
	hooks     []Hooks

	nodes   map[string]*node
	order   []string
	pending map[string]struct{}
}

// New constructs a Controller.
func New(options ...Option) *Controller {
	c := &Controller{
		nodes:   make(map[string]*node),
		pending: make(map[string]struct{}),
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	if c.evaluator == nil {
		c.evaluator = condition.New(nil)
	}
	if c.registry == nil {
		c.registry = compiler.NewValidationRegistry()
	}
	if c.cache == nil {
		c.cache = NewRetainedValueCache()
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.mode == "" {
		c.mode = model.RestoreNone
	}
	return c
}

// Registry returns the validation registry.
func (c *Controller) Registry() *compiler.ValidationRegistry {
	return c.registry
}

// Cache returns the retained value cache.
func (c *Controller) Cache() *RetainedValueCache {
	return c.cache
}

// Mount adds a field and computes its initial state from values. A node that
// starts visible is queued for registration; Settle flushes the queue.
func (c *Controller) Mount(spec Node, values map[string]any) error {
	if spec.ID == "" {
		return ErrEmptyID
	}
	if _, exists := c.nodes[spec.ID]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyMounted, spec.ID)
	}
	n := &node{spec: spec}
	if spec.Parent != "" {
		parent, ok := c.nodes[spec.Parent]
		if !ok {
			return fmt.Errorf("%w: %s (parent of %s)", ErrUnknownParent, spec.Parent, spec.ID)
		}
		n.depth = parent.depth + 1
		parent.children = append(parent.children, spec.ID)
	}
	c.nodes[spec.ID] = n
	c.order = append(c.order, spec.ID)

	n.status = c.evaluate(n, values)
	if n.status.Visible() {
		c.pending[spec.ID] = struct{}{}
	}
	c.logger.Debug("visibility: mounted",
		zap.String("field", spec.ID),
		zap.String("state", n.status.State.String()),
	)
	c.emit(Event{Kind: EventMount, FieldID: spec.ID, Status: n.status})
	return nil
}

// Settle registers queued nodes, deepest first, so a container's entry is
// written after its children have settled.
func (c *Controller) Settle() {
	if len(c.pending) == 0 {
		return
	}
	ids := make([]string, 0, len(c.pending))
	for id := range c.pending {
		ids = append(ids, id)
	}
	sort.SliceStable(ids, func(i, j int) bool {
		di, dj := c.depthOf(ids[i]), c.depthOf(ids[j])
		if di != dj {
			return di > dj
		}
		return ids[i] < ids[j]
	})
	c.pending = make(map[string]struct{})
	for _, id := range ids {
		n, ok := c.nodes[id]
		if !ok || !n.status.Visible() || n.spec.Config == nil {
			continue
		}
		c.registry.Set(id, *n.spec.Config)
	}
}

func (c *Controller) depthOf(id string) int {
	if n, ok := c.nodes[id]; ok {
		return n.depth
	}
	return 0
}

// Unmount removes a field and its descendants and deregisters them.
func (c *Controller) Unmount(id string) {
	n, ok := c.nodes[id]
	if !ok {
		return
	}
	for _, child := range append([]string(nil), n.children...) {
		c.Unmount(child)
	}
	if n.spec.Parent != "" {
		if parent, ok := c.nodes[n.spec.Parent]; ok {
			parent.children = removeID(parent.children, id)
		}
	}
	delete(c.nodes, id)
	delete(c.pending, id)
	c.order = removeID(c.order, id)
	c.registry.Delete(id)
	c.emit(Event{Kind: EventUnmount, FieldID: id, Status: n.status})
}

// Refresh re-evaluates every mounted field against values. It repeats until
// no state changes, applying restored values to its working copy so rules
// that depend on a restored field see the new value within the same call.
// Hidden fields are deregistered before Refresh returns; revealed ones are
// registered through Settle.
func (c *Controller) Refresh(values map[string]any) []Change {
	working := make(map[string]any, len(values))
	for k, v := range values {
		working[k] = v
	}

	var changes []Change
	limit := len(c.order) + 1
	for pass := 0; pass < limit; pass++ {
		changed := false
		for _, id := range c.order {
			n := c.nodes[id]
			next := c.evaluate(n, working)
			if next.State == n.status.State {
				n.status = next
				continue
			}
			changed = true
			n.status = next
			change := Change{FieldID: id, Status: next}
			if next.Visible() {
				if n.spec.Config != nil {
					change.Restored = true
					change.Value = c.restoreValue(n)
					working[id] = change.Value
				}
				c.pending[id] = struct{}{}
			} else {
				delete(c.pending, id)
				c.registry.Delete(id)
			}
			changes = append(changes, change)
			c.logger.Debug("visibility: transition",
				zap.String("field", id),
				zap.String("state", next.State.String()),
				zap.String("reason", string(next.Reason)),
			)
			c.emit(Event{Kind: EventVisibilityChange, FieldID: id, Status: next, Value: change.Value})
		}
		if !changed {
			break
		}
		if pass == limit-1 {
			c.logger.Warn("visibility: rules did not settle", zap.Int("passes", limit))
		}
	}
	c.Settle()
	return changes
}

func (c *Controller) evaluate(n *node, values map[string]any) Status {
	if parentID := n.spec.Parent; parentID != "" {
		if parent, ok := c.nodes[parentID]; ok && !parent.status.Visible() {
			return Status{State: Hidden, Reason: ReasonParentHidden}
		}
	}
	decision := c.evaluator.EvaluateDetailed(n.spec.Rules, values)
	switch {
	case decision.Visible:
		return Status{State: Visible}
	case decision.MissingDependency():
		return Status{State: Hidden, Reason: ReasonMissingDependency, Missing: decision.Missing}
	default:
		return Status{State: Hidden, Reason: ReasonRules}
	}
}

// RestoreModeFor resolves the policy that applies to id.
func (c *Controller) RestoreModeFor(id string) model.RestoreMode {
	if n, ok := c.nodes[id]; ok && n.spec.RestoreMode != "" {
		return n.spec.RestoreMode
	}
	return c.mode
}

func (c *Controller) restoreValue(n *node) any {
	switch c.RestoreModeFor(n.spec.ID) {
	case model.RestoreDefaultValue:
		if n.spec.Default != nil {
			return n.spec.Default
		}
		if c.defaults != nil {
			if value, ok := c.defaults(n.spec.ID); ok {
				return value
			}
		}
	case model.RestoreUserInput:
		if value, ok := c.cache.Get(n.spec.ID); ok {
			return value
		}
	}
	return nil
}

// Retain records user input for id.
func (c *Controller) Retain(id string, value any) {
	c.cache.Set(id, value)
}

// Retained returns the last user input recorded for id.
func (c *Controller) Retained(id string) (any, bool) {
	return c.cache.Get(id)
}

// ResetRetained clears the retained value cache.
func (c *Controller) ResetRetained() {
	c.cache.Clear()
}

// UpdateConfig replaces a field's validation config. A visible field is
// re-registered immediately.
func (c *Controller) UpdateConfig(id string, cfg compiler.FieldValidationConfig) bool {
	n, ok := c.nodes[id]
	if !ok {
		return false
	}
	n.spec.Config = &cfg
	if n.status.Visible() {
		c.registry.Set(id, cfg)
	}
	return true
}

// UpdateRules replaces a field's render rules. The new rules take effect on
// the next Refresh.
func (c *Controller) UpdateRules(id string, rules []model.RenderRuleGroup) bool {
	n, ok := c.nodes[id]
	if !ok {
		return false
	}
	n.spec.Rules = rules
	return true
}

// Status returns the visibility of id.
func (c *Controller) Status(id string) (Status, bool) {
	n, ok := c.nodes[id]
	if !ok {
		return Status{}, false
	}
	return n.status, true
}

// Visible reports whether id is mounted and shown.
func (c *Controller) Visible(id string) bool {
	status, ok := c.Status(id)
	return ok && status.Visible()
}

// Mounted lists mounted field ids in mount order.
func (c *Controller) Mounted() []string {
	return append([]string(nil), c.order...)
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}
