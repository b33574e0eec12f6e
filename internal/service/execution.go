package service

import (
	"context"
	"fmt"

	"github.com/Harshitk-cp/atomexec/internal/domain"
)

// ExecutionOutputLink is a validated (procedure, arguments) pair interned
// in a store. Values are only produced by the constructors below, so a
// half-valid link is never observable. The outgoing set never changes;
// build a new link instead.
type ExecutionOutputLink struct {
	handle domain.Handle
	schema domain.Handle
	args   domain.Handle
}

var executableSchemaTypes = map[domain.Type]bool{
	domain.GroundedSchemaNode: true,
	domain.DefinedSchemaNode:  true,
	domain.LambdaLink:         true,
}

// NewExecutionOutputLink validates a full outgoing sequence and interns the
// link.
func NewExecutionOutputLink(ctx context.Context, as domain.AtomSpace, outgoing []domain.Handle) (*ExecutionOutputLink, error) {
	if len(outgoing) != 2 {
		return nil, &domain.ShapeError{
			Reason: fmt.Sprintf("ExecutionOutputLink must have exactly 2 atoms, got %d", len(outgoing)),
		}
	}
	return NewExecutionOutputLinkFromPair(ctx, as, outgoing[0], outgoing[1])
}

func NewExecutionOutputLinkFromPair(ctx context.Context, as domain.AtomSpace, schema, args domain.Handle) (*ExecutionOutputLink, error) {
	if err := validateSlots(ctx, as, schema, args); err != nil {
		return nil, err
	}

	h, err := as.AddLink(ctx, domain.ExecutionOutputLink, []domain.Handle{schema, args})
	if err != nil {
		return nil, fmt.Errorf("add execution output link: %w", err)
	}
	return &ExecutionOutputLink{handle: h, schema: schema, args: args}, nil
}

// ExecutionOutputLinkFromAtom re-validates a link that is already in the
// store, e.g. one received over the API or copied from another store.
func ExecutionOutputLinkFromAtom(ctx context.Context, as domain.AtomSpace, h domain.Handle) (*ExecutionOutputLink, error) {
	atom, err := as.Get(ctx, h)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", h, err)
	}
	if atom.Type != domain.ExecutionOutputLink {
		return nil, &domain.ShapeError{
			Atom:   atom.String(),
			Reason: "expecting an ExecutionOutputLink",
		}
	}
	if atom.Arity() != 2 {
		return nil, &domain.ShapeError{
			Atom:   atom.String(),
			Reason: fmt.Sprintf("ExecutionOutputLink must have exactly 2 atoms, got %d", atom.Arity()),
		}
	}
	if err := validateSlots(ctx, as, atom.Outgoing[0], atom.Outgoing[1]); err != nil {
		return nil, err
	}
	return &ExecutionOutputLink{handle: h, schema: atom.Outgoing[0], args: atom.Outgoing[1]}, nil
}

func validateSlots(ctx context.Context, as domain.AtomSpace, schema, args domain.Handle) error {
	schemaAtom, err := as.Get(ctx, schema)
	if err != nil {
		return fmt.Errorf("get schema %s: %w", schema, err)
	}
	if !executableSchemaTypes[schemaAtom.Type] {
		return &domain.ShapeError{
			Atom:   schemaAtom.String(),
			Reason: "expecting a GroundedSchemaNode, DefinedSchemaNode or LambdaLink",
		}
	}

	argsAtom, err := as.Get(ctx, args)
	if err != nil {
		return fmt.Errorf("get arguments %s: %w", args, err)
	}
	if argsAtom.Type != domain.ListLink {
		return &domain.ShapeError{
			Atom:   argsAtom.String(),
			Reason: "expecting a ListLink of arguments",
		}
	}
	return nil
}

func (l *ExecutionOutputLink) Handle() domain.Handle { return l.handle }

func (l *ExecutionOutputLink) Schema() domain.Handle { return l.schema }

func (l *ExecutionOutputLink) Args() domain.Handle { return l.args }

// Execute reduces the argument list and dispatches the procedure. Nothing
// is cached: each call re-runs reduction and the evaluator.
func (l *ExecutionOutputLink) Execute(ctx context.Context, as domain.AtomSpace, inst *Instantiator) (domain.Handle, error) {
	return inst.ExecuteLink(ctx, as, l)
}
