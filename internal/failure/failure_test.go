package failure

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	err := Errorf(CommandExecution, "exit status 1: boom").WithPath("secrets.yaml").WithKey("token")
	assert.Equal(t, `command execution error in secrets.yaml for key "token": exit status 1: boom`, err.Error())

	bare := New(Decrypt, errors.New("no key"))
	assert.Equal(t, "decrypt error: no key", bare.Error())
}

func TestWithPathDoesNotMutate(t *testing.T) {
	orig := Errorf(Parse, "bad")
	annotated := orig.WithPath("a.yaml")
	assert.Empty(t, orig.Path)
	assert.Equal(t, "a.yaml", annotated.Path)
}

func TestKindOf(t *testing.T) {
	sentinel := errors.New("stderr text")
	wrapped := fmt.Errorf("processing: %w", New(SetValue, sentinel))

	assert.Equal(t, SetValue, KindOf(wrapped))
	assert.True(t, Is(wrapped, SetValue))
	assert.False(t, Is(wrapped, Decrypt))
	assert.ErrorIs(t, wrapped, sentinel, "underlying error is reachable")

	assert.Equal(t, Unknown, KindOf(errors.New("plain")))
	assert.False(t, Is(nil, Unknown))
}

func TestKindString(t *testing.T) {
	for kind, want := range map[Kind]string{
		FileNotFound:     "file not found",
		Decrypt:          "decrypt",
		Parse:            "parse",
		CommandExecution: "command execution",
		SetValue:         "set value",
		Encoding:         "encoding",
		Kind(99):         "unknown",
	} {
		assert.Equal(t, want, kind.String())
	}
}

func TestAggregate(t *testing.T) {
	assert.Nil(t, NewAggregate(nil), "empty list yields no aggregate")

	agg := NewAggregate([]error{
		New(Decrypt, fmt.Errorf("one")),
		New(CommandExecution, fmt.Errorf("two")),
		New(CommandExecution, fmt.Errorf("three")),
	})
	require.NotNil(t, agg)
	assert.Equal(t, "decrypt error: one; command execution error: two; command execution error: three", agg.Error())
	assert.Len(t, agg.Errors(), 3, "original error list is recoverable")
	assert.Equal(t, map[Kind]int{Decrypt: 1, CommandExecution: 2}, agg.CountByKind())

	var nilAgg *Aggregate
	assert.Empty(t, nilAgg.CountByKind())
}
