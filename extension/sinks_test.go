package extension

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/procadj/service/apply"
	"github.com/viant/x"
)

func TestSinksRegistry(t *testing.T) {
	sinks := NewSinks(x.NewType(reflect.TypeOf(apply.Change{})))

	memory := apply.NewMemory()
	sinks.Register("memory", func(options map[string]interface{}) (apply.Sink, error) {
		return memory, nil
	})

	built, err := sinks.New("memory", nil)
	assert.Nil(t, err)
	assert.Equal(t, apply.Sink(memory), built)

	_, err = sinks.New("unknown", nil)
	assert.NotNil(t, err)

	ctx := context.Background()
	assert.Nil(t, built.Apply(ctx, nil))
}

func TestTypesLookup(t *testing.T) {
	types := NewTypes()
	types.Register(x.NewType(reflect.TypeOf(apply.Change{})))

	named := types.Lookup("apply.Change")
	if !assert.NotNil(t, named) {
		return
	}
	assert.Equal(t, reflect.TypeOf(apply.Change{}), named.Type)
}
