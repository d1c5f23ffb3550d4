package patch

import (
	"context"
	"errors"
	"log/slog"

	"scim-patch/internal/common"
	"scim-patch/internal/diagnostic"
)

// FromDocument decodes a patch document and binds it to root.
func FromDocument(root any, data []byte, opts ...Option) ([]*Node, error) {
	ops, err := Decode(data)
	if err != nil {
		return nil, err
	}

	return NewBinder(opts...).BindAll(ops, root)
}

// Tracker applies a batch of nodes in order and reverts them in reverse
// order.
type Tracker struct {
	nodes    []*Node
	rollback bool
	logger   *slog.Logger
}

// NewTracker returns a Tracker over nodes. Only WithRollback and WithLogger
// affect it.
func NewTracker(nodes []*Node, opts ...Option) *Tracker {
	o := newOptions(opts)

	return &Tracker{nodes: nodes, rollback: o.rollback, logger: o.logger}
}

// Nodes returns the tracked nodes.
func (t *Tracker) Nodes() []*Node {
	return t.nodes
}

// Apply applies the nodes in order and stops at the first failure. With
// rollback enabled the nodes applied so far are reverted, last first. The
// returned error is the failing node's, joined with any rollback failure.
func (t *Tracker) Apply(ctx context.Context) error {
	for i, n := range t.nodes {
		if err := ctx.Err(); err != nil {
			return t.fail(ctx, i, err)
		}

		if !n.TryApply(ctx) {
			return t.fail(ctx, i, n.Err())
		}
	}

	return nil
}

func (t *Tracker) fail(ctx context.Context, applied int, err error) error {
	if !t.rollback || applied == 0 {
		return err
	}

	t.logger.WarnContext(ctx, "rolling back", "nodes", applied, "error", err)

	if rbErr := t.revert(ctx, t.nodes[:applied]); rbErr != nil {
		t.logger.ErrorContext(ctx, "rollback failed", "error", rbErr)
		return errors.Join(err, rbErr)
	}

	return err
}

// Revert reverts every applied node, last first. Nodes in other states are
// skipped. Failures do not stop the remaining reverts.
func (t *Tracker) Revert(ctx context.Context) error {
	return t.revert(ctx, t.nodes)
}

func (t *Tracker) revert(ctx context.Context, nodes []*Node) error {
	var errs []error

	for _, n := range common.Reversed(nodes) {
		switch n.State() {
		case StateApplied, StateRevertFailed:
		default:
			continue
		}

		if !n.TryRevert(ctx) {
			errs = append(errs, n.Err())
		}
	}

	return errors.Join(errs...)
}

// Report lists the nodes whose last step failed as errors, and the nodes
// that were reverted as warnings.
func (t *Tracker) Report() diagnostic.Report {
	var r diagnostic.Report

	for _, n := range t.nodes {
		switch n.State() {
		case StateApplyFailed, StateRevertFailed:
			r.AddError(n.Label(), n.Err())
		case StateReverted:
			r.AddWarning(n.Label(), "Reverted", "operation was reverted")
		}
	}

	return r
}
