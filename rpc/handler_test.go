package rpc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingBinder struct {
	routes map[string]EntityFactory
}

func (b *recordingBinder) Bind(method string, uri string, handler Handler, factory EntityFactory) {
	b.routes[method+" "+uri] = factory
}

func TestHandlerFuncPassesBody(t *testing.T) {
	handler := HandlerFunc(func(ctx context.Context, body interface{}) (interface{}, error) {
		return body.(*struct{ Name string }).Name, nil
	})

	v, err := handler.Handle(context.Background(), &struct{ Name string }{Name: "getValue"})

	assert.Nil(t, err)
	assert.Equal(t, "getValue", v)
}

func TestEntityFactoryFuncCreatesNewInstances(t *testing.T) {
	factory := EntityFactoryFunc(func() interface{} {
		return &struct{ PrivateFor []string }{}
	})

	first := factory.Create()
	second := factory.Create()

	assert.NotSame(t, first, second)
}

func TestHandlerBinder(t *testing.T) {
	binder := &recordingBinder{routes: make(map[string]EntityFactory)}
	var b HandlerBinder = binder

	b.Bind("POST", "/api/call-function", HandlerFunc(func(ctx context.Context, body interface{}) (interface{}, error) {
		return nil, nil
	}), EntityFactoryFunc(func() interface{} { return nil }))

	assert.Contains(t, binder.routes, "POST /api/call-function")
	assert.Nil(t, binder.routes["POST /api/call-function"].Create())
}
