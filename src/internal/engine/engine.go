package engine

import (
	"errors"
	"fmt"

	"github.com/maksimkurb/proxycfg/src/internal/config"
	pcerrors "github.com/maksimkurb/proxycfg/src/internal/errors"
	"github.com/maksimkurb/proxycfg/src/internal/store"
)

// InterfaceLister lists the network interfaces offered for interface
// fields.
type InterfaceLister interface {
	InterfaceNames() ([]string, error)
}

// Engine validates edits against a store snapshot. It holds no record state
// and is safe for concurrent use; callers serialize validate+commit.
type Engine struct {
	interfaces InterfaceLister
}

// Option configures an Engine.
type Option func(*Engine)

// WithInterfaces supplies the interface names offered as candidates for
// bind_interface and default_interface.
func WithInterfaces(l InterfaceLister) Option {
	return func(e *Engine) {
		e.interfaces = l
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Edit is a proposed change of one field.
type Edit struct {
	Collection string              `json:"collection"`
	ID         string              `json:"id"` // empty for a new record
	Field      string              `json:"field"`
	Values     []string            `json:"values"`
	Pending    map[string][]string `json:"pending,omitempty"` // unsaved sibling fields
}

// Verdict is the outcome of validating an Edit. Normalized holds the values
// to commit when OK; an empty Normalized means the field is unset.
// Dependents lists references an accepted edit leaves dangling or pointing
// at a disabled record; they do not block the edit.
type Verdict struct {
	OK         bool
	Normalized []string
	Dependents []Reference
	Err        *pcerrors.Error
}

// Error returns the rejection reason, or nil for an accepted edit.
func (v Verdict) Error() error {
	if v.OK {
		return nil
	}
	return v.Err
}

func accept(values []string) Verdict {
	return Verdict{OK: true, Normalized: values}
}

func reject(err error) Verdict {
	var e *pcerrors.Error
	if !errors.As(err, &e) {
		e = pcerrors.NewInternalError("validation failed", err)
	}
	return Verdict{Err: e}
}

// Validate decides whether edit may be committed to snapshot.
func (e *Engine) Validate(snapshot store.Reader, edit Edit) Verdict {
	spec, known := config.LookupField(edit.Collection, edit.ID, edit.Field)
	if !known {
		// Nodes carry protocol options the engine has no rules for.
		if edit.Collection == config.CollectionNode {
			return accept(edit.Values)
		}
		return reject(pcerrors.Invalid(pcerrors.ErrCodeUnknownField, edit.Field, ""))
	}

	values := normalize(spec, edit.Values)
	if err := config.CheckValues(spec, values); err != nil {
		return reject(err)
	}

	ctx, err := newEditContext(snapshot, edit, values)
	if err != nil {
		return reject(err)
	}
	if err := ctx.checkReferences(); err != nil {
		return reject(err)
	}
	v := accept(values)
	v.Dependents = ctx.dependents()
	return v
}

// normalize maps flag spellings onto "0"/"1" and turns an empty scalar into
// an unset field.
func normalize(spec config.FieldSpec, values []string) []string {
	if !spec.List && len(values) == 1 && values[0] == "" {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		if spec.IsFlag() {
			v, _ = config.NormalizeFlag(v)
		}
		out[i] = v
	}
	return out
}

// editContext carries the committed snapshot and the snapshot as it would
// look after the edit.
type editContext struct {
	snapshot  store.Reader
	edit      Edit
	values    []string
	committed *config.Config
	proposed  *config.Config
}

func newEditContext(snapshot store.Reader, edit Edit, values []string) (*editContext, error) {
	committed, err := config.Decode(snapshot)
	if err != nil {
		return nil, err
	}

	fields := make(map[string][]string, len(edit.Pending)+1)
	for k, v := range edit.Pending {
		fields[k] = v
	}
	fields[edit.Field] = values

	proposed, err := config.Decode(store.NewOverlay(snapshot, edit.Collection, edit.ID, fields))
	if err != nil {
		return nil, err
	}

	return &editContext{
		snapshot:  snapshot,
		edit:      edit,
		values:    values,
		committed: committed,
		proposed:  proposed,
	}, nil
}

func (c *editContext) checkReferences() error {
	field := c.edit.Field

	if field == "label" {
		if err := c.checkLabel(); err != nil {
			return err
		}
	}

	if c.edit.Collection == config.CollectionRoutingNode && field == "node" {
		return c.checkRoutingNodeNode()
	}

	tf, ok := lookupTarget(c.edit.Collection, c.edit.ID, field)
	if !ok {
		return nil
	}
	for _, v := range c.values {
		if err := c.checkTarget(tf, v); err != nil {
			return err
		}
	}
	return nil
}

func (c *editContext) checkLabel() error {
	if len(c.values) == 0 {
		return nil
	}
	records, err := c.snapshot.ListRecords(c.edit.Collection)
	if err != nil {
		return pcerrors.NewStoreError(fmt.Sprintf("failed to list %s", c.edit.Collection), err)
	}
	if !CheckUnique(records, "label", c.values[0], c.edit.ID) {
		return pcerrors.Invalid(pcerrors.ErrCodeDuplicateLabel, "label", c.values[0])
	}
	return nil
}

// selfTag is the identity the edited record has in its chain after the edit.
func (c *editContext) selfTag(kind chainKind) string {
	switch kind {
	case chainOutbound:
		for _, rn := range c.proposed.RoutingNodes {
			if rn.Name == c.edit.ID {
				return rn.Tag()
			}
		}
	case chainResolver:
		return config.DNSServerTag(c.edit.ID)
	}
	return ""
}

// checkTarget runs, in order: built-in, self reference, existence, enabled,
// and cycle checks for one referenced value.
func (c *editContext) checkTarget(tf targetField, value string) error {
	field := c.edit.Field
	if tf.isBuiltin(value) {
		return nil
	}

	self := c.selfTag(tf.chain)
	if tf.chain != chainNone && self != "" && value == self {
		return c.cycleError(tf.chain, value)
	}

	var matches []target
	for _, t := range targets(c.committed, tf.source) {
		if tf.excludeSelf && t.id == c.edit.ID {
			continue
		}
		if t.value == value {
			matches = append(matches, t)
		}
	}
	if len(matches) == 0 {
		return pcerrors.Invalid(pcerrors.ErrCodeReferenceNotFound, field, value)
	}

	enabled := false
	for _, t := range matches {
		enabled = enabled || t.enabled
	}
	if !enabled {
		return pcerrors.Invalid(pcerrors.ErrCodeReferenceDisabled, field, value)
	}

	if c.wouldCycle(tf.chain, self, value) {
		return c.cycleError(tf.chain, value)
	}
	return nil
}

func (c *editContext) wouldCycle(kind chainKind, self, value string) bool {
	if self == "" {
		return false
	}
	switch kind {
	case chainOutbound:
		return outboundChain(c.committed, c.edit.ID).WouldCycle(self, value)
	case chainResolver:
		return resolverChain(c.committed, c.edit.ID).WouldCycle(self, value)
	}
	return false
}

func (c *editContext) cycleError(kind chainKind, value string) error {
	if kind == chainResolver {
		return pcerrors.Invalid(pcerrors.ErrCodeRecursiveResolver, c.edit.Field, value)
	}
	return pcerrors.Invalid(pcerrors.ErrCodeRecursiveOutbound, c.edit.Field, value)
}

// checkRoutingNodeNode validates the node binding of a routing node. The
// node and outbound pair is jointly constrained, so the outbound is read
// from the proposed record.
func (c *editContext) checkRoutingNodeNode() error {
	value := c.values[0]
	if _, ok := c.committed.FindNodeByTag(value); !ok {
		return pcerrors.Invalid(pcerrors.ErrCodeReferenceNotFound, "node", value)
	}

	var self config.RoutingNode
	for _, rn := range c.proposed.RoutingNodes {
		if rn.Name == c.edit.ID {
			self = rn
		}
	}

	for _, rn := range c.committed.RoutingNodes {
		if rn.Name == c.edit.ID || !rn.IsEnabled() {
			continue
		}
		if rn.Node == value && rn.Outbound == self.Outbound {
			return pcerrors.Invalid(pcerrors.ErrCodeNodeAlreadyTaken, "node", value)
		}
	}

	// A new tag may close a loop through the record's own outbound.
	if self.Outbound != "" {
		chain := outboundChain(c.committed, c.edit.ID)
		if !chain.IsTerminal(self.Outbound) && chain.WouldCycle(value, self.Outbound) {
			return pcerrors.Invalid(pcerrors.ErrCodeRecursiveOutbound, "node", value)
		}
	}
	return nil
}

// dependents reports the references the edit orphans: retagging a routing
// node, or disabling a routing node or DNS server.
func (c *editContext) dependents() []Reference {
	id := c.edit.ID
	if id == "" {
		return nil
	}
	switch c.edit.Collection {
	case config.CollectionRoutingNode:
		for _, rn := range c.committed.RoutingNodes {
			if rn.Name != id {
				continue
			}
			if c.edit.Field == "node" && rn.Node != "" && rn.Node != c.values[0] {
				return routingNodeDependents(c.committed, id)
			}
			if c.edit.Field == "enabled" && rn.IsEnabled() && !isFlagOn(c.values) {
				return routingNodeDependents(c.committed, id)
			}
		}
	case config.CollectionDNSServer:
		for _, s := range c.committed.DNSServers {
			if s.Name == id && c.edit.Field == "enabled" && s.IsEnabled() && !isFlagOn(c.values) {
				return dnsServerDependents(c.committed, id)
			}
		}
	}
	return nil
}

func isFlagOn(values []string) bool {
	return len(values) == 1 && values[0] == config.FlagOn
}
