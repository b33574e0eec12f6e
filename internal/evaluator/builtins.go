package evaluator

import (
	"context"
	"errors"
	"strconv"

	"github.com/Harshitk-cp/atomexec/internal/domain"
)

var ErrEmptyList = errors.New("empty argument list")

// RegisterBuiltins defines the list primitives every deployment has.
func RegisterBuiltins(r *Registry) {
	r.Define("identity", identity)
	r.Define("car", car)
	r.Define("cdr", cdr)
	r.Define("arity", arity)
}

func identity(ctx context.Context, as domain.AtomSpace, args domain.Handle) (domain.Handle, error) {
	return args, nil
}

func car(ctx context.Context, as domain.AtomSpace, args domain.Handle) (domain.Handle, error) {
	out, err := as.Outgoing(ctx, args)
	if err != nil {
		return domain.UndefinedHandle, err
	}
	if len(out) == 0 {
		return domain.UndefinedHandle, ErrEmptyList
	}
	return out[0], nil
}

func cdr(ctx context.Context, as domain.AtomSpace, args domain.Handle) (domain.Handle, error) {
	out, err := as.Outgoing(ctx, args)
	if err != nil {
		return domain.UndefinedHandle, err
	}
	if len(out) == 0 {
		return domain.UndefinedHandle, ErrEmptyList
	}
	return as.AddLink(ctx, domain.ListLink, out[1:])
}

func arity(ctx context.Context, as domain.AtomSpace, args domain.Handle) (domain.Handle, error) {
	out, err := as.Outgoing(ctx, args)
	if err != nil {
		return domain.UndefinedHandle, err
	}
	return as.AddNode(ctx, domain.NumberNode, strconv.Itoa(len(out)))
}
