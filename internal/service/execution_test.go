package service

import (
	"context"
	"testing"

	"github.com/Harshitk-cp/atomexec/internal/domain"
	"github.com/Harshitk-cp/atomexec/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExecutionOutputLink(t *testing.T) {
	env := newTestEnv(t)
	grounded := env.node(t, domain.GroundedSchemaNode, "scm:car")
	defined := env.node(t, domain.DefinedSchemaNode, "my-schema")
	concept := env.node(t, domain.ConceptNode, "a")
	list := env.link(t, domain.ListLink, concept)
	lambda := env.link(t, domain.LambdaLink, list)
	plain := env.link(t, domain.LinkType, concept)

	tests := []struct {
		name     string
		outgoing []domain.Handle
		wantErr  error
	}{
		{name: "grounded schema", outgoing: []domain.Handle{grounded, list}},
		{name: "defined schema", outgoing: []domain.Handle{defined, list}},
		{name: "lambda", outgoing: []domain.Handle{lambda, list}},
		{name: "concept in slot 0", outgoing: []domain.Handle{concept, list}, wantErr: domain.ErrShape},
		{name: "list in slot 0", outgoing: []domain.Handle{list, list}, wantErr: domain.ErrShape},
		{name: "node in slot 1", outgoing: []domain.Handle{grounded, concept}, wantErr: domain.ErrShape},
		{name: "plain link in slot 1", outgoing: []domain.Handle{grounded, plain}, wantErr: domain.ErrShape},
		{name: "arity 1", outgoing: []domain.Handle{grounded}, wantErr: domain.ErrShape},
		{name: "arity 3", outgoing: []domain.Handle{grounded, list, list}, wantErr: domain.ErrShape},
		{name: "empty", outgoing: nil, wantErr: domain.ErrShape},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := env.as.Size()
			l, err := NewExecutionOutputLink(env.ctx, env.as, tt.outgoing)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, l)
				assert.Equal(t, before, env.as.Size(), "invalid link must not be interned")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.outgoing[0], l.Schema())
			assert.Equal(t, tt.outgoing[1], l.Args())

			typ, err := env.as.TypeOf(env.ctx, l.Handle())
			require.NoError(t, err)
			assert.Equal(t, domain.ExecutionOutputLink, typ)
		})
	}
}

func TestNewExecutionOutputLink_Deduplicates(t *testing.T) {
	env := newTestEnv(t)
	schema := env.node(t, domain.GroundedSchemaNode, "scm:car")
	list := env.link(t, domain.ListLink)

	first, err := NewExecutionOutputLinkFromPair(env.ctx, env.as, schema, list)
	require.NoError(t, err)
	second, err := NewExecutionOutputLink(env.ctx, env.as, []domain.Handle{schema, list})
	require.NoError(t, err)
	assert.Equal(t, first.Handle(), second.Handle())
}

func TestNewExecutionOutputLink_UnknownHandle(t *testing.T) {
	env := newTestEnv(t)
	list := env.link(t, domain.ListLink)

	_, err := NewExecutionOutputLinkFromPair(env.ctx, env.as, domain.Handle(999), list)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestExecutionOutputLinkFromAtom(t *testing.T) {
	env := newTestEnv(t)
	schema := env.node(t, domain.GroundedSchemaNode, "scm:car")
	concept := env.node(t, domain.ConceptNode, "a")
	list := env.link(t, domain.ListLink, concept)

	t.Run("valid link", func(t *testing.T) {
		h := env.exec(t, "scm:car", concept)
		l, err := ExecutionOutputLinkFromAtom(env.ctx, env.as, h)
		require.NoError(t, err)
		assert.Equal(t, h, l.Handle())
		assert.Equal(t, schema, l.Schema())
		assert.Equal(t, list, l.Args())
	})

	t.Run("wrong type", func(t *testing.T) {
		_, err := ExecutionOutputLinkFromAtom(env.ctx, env.as, list)
		assert.ErrorIs(t, err, domain.ErrShape)
	})

	t.Run("interned without validation", func(t *testing.T) {
		// The store accepts any outgoing set, so a bad link can exist.
		bad := env.link(t, domain.ExecutionOutputLink, concept, list)
		_, err := ExecutionOutputLinkFromAtom(env.ctx, env.as, bad)
		assert.ErrorIs(t, err, domain.ErrShape)

		short := env.link(t, domain.ExecutionOutputLink, schema)
		_, err = ExecutionOutputLinkFromAtom(env.ctx, env.as, short)
		assert.ErrorIs(t, err, domain.ErrShape)
	})
}

func TestExecutionOutputLink_Execute(t *testing.T) {
	env := newTestEnv(t)
	concept := env.node(t, domain.ConceptNode, "a")
	env.scripting.procs["identity"] = func(_ context.Context, _ domain.AtomSpace, args domain.Handle) (domain.Handle, error) {
		return args, nil
	}

	h := env.exec(t, "scm:identity", concept)
	l, err := ExecutionOutputLinkFromAtom(env.ctx, env.as, h)
	require.NoError(t, err)

	got, err := l.Execute(env.ctx, env.as, env.inst)
	require.NoError(t, err)
	assert.Equal(t, l.Args(), got)

	// Not cached: a second run reaches the evaluator again.
	_, err = l.Execute(env.ctx, env.as, env.inst)
	require.NoError(t, err)
	assert.Len(t, env.scripting.evaluators[env.as].calls, 2)
}
