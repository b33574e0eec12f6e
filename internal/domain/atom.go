package domain

import (
	"context"
	"fmt"
	"strings"
)

// Type is the type tag of an atom.
type Type string

const (
	NodeType           Type = "Node"
	ConceptNode        Type = "ConceptNode"
	NumberNode         Type = "NumberNode"
	PredicateNode      Type = "PredicateNode"
	GroundedSchemaNode Type = "GroundedSchemaNode"
	DefinedSchemaNode  Type = "DefinedSchemaNode"

	LinkType            Type = "Link"
	ListLink            Type = "ListLink"
	LambdaLink          Type = "LambdaLink"
	DontExecLink        Type = "DontExecLink"
	DeleteLink          Type = "DeleteLink"
	ExecutionOutputLink Type = "ExecutionOutputLink"
)

var nodeTypes = map[Type]bool{
	NodeType:           true,
	ConceptNode:        true,
	NumberNode:         true,
	PredicateNode:      true,
	GroundedSchemaNode: true,
	DefinedSchemaNode:  true,
}

var linkTypes = map[Type]bool{
	LinkType:            true,
	ListLink:            true,
	LambdaLink:          true,
	DontExecLink:        true,
	DeleteLink:          true,
	ExecutionOutputLink: true,
}

func (t Type) IsNode() bool { return nodeTypes[t] }

func (t Type) IsLink() bool { return linkTypes[t] }

func ValidType(s string) bool {
	t := Type(s)
	return t.IsNode() || t.IsLink()
}

// Handle is a store-scoped numeric reference to an atom. The zero value is
// the undefined handle, used for absence and as the deletion signal during
// argument reduction.
type Handle uint64

const UndefinedHandle Handle = 0

func (h Handle) IsUndefined() bool { return h == UndefinedHandle }

func (h Handle) String() string {
	if h.IsUndefined() {
		return "Handle(undefined)"
	}
	return fmt.Sprintf("Handle(%d)", uint64(h))
}

// Atom is a read-only snapshot of a stored node or link.
type Atom struct {
	Handle   Handle   `json:"handle"`
	Type     Type     `json:"type"`
	Name     string   `json:"name,omitempty"`
	Outgoing []Handle `json:"outgoing,omitempty"`
}

func (a *Atom) IsNode() bool { return a.Type.IsNode() }

func (a *Atom) IsLink() bool { return a.Type.IsLink() }

// Arity returns the size of the outgoing set; nodes have arity 0.
func (a *Atom) Arity() int { return len(a.Outgoing) }

func (a *Atom) String() string {
	if a.IsNode() {
		return fmt.Sprintf("(%s %q)", a.Type, a.Name)
	}
	parts := make([]string, len(a.Outgoing))
	for i, h := range a.Outgoing {
		parts[i] = fmt.Sprintf("%d", uint64(h))
	}
	return fmt.Sprintf("(%s %s)", a.Type, strings.Join(parts, " "))
}

// AtomSpace is the hypergraph store consumed by the execution core.
// AddNode and AddLink deduplicate by (type, name) and (type, outgoing)
// and must be safe for concurrent use.
type AtomSpace interface {
	AddNode(ctx context.Context, t Type, name string) (Handle, error)
	AddLink(ctx context.Context, t Type, outgoing []Handle) (Handle, error)
	Get(ctx context.Context, h Handle) (*Atom, error)
	TypeOf(ctx context.Context, h Handle) (Type, error)
	Outgoing(ctx context.Context, h Handle) ([]Handle, error)
	Name(ctx context.Context, h Handle) (string, error)
}
