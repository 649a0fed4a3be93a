package portal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormStateLifecycle(t *testing.T) {
	form := NewFormState(map[string]any{"email": "jane@example.com"})

	form.Begin(Ticket{Key: "b|sign-in", Generation: 3})
	assert.True(t, form.Submitting)
	assert.Equal(t, uint64(3), form.Generation)

	form.Fail("Invalid credentials")
	assert.False(t, form.Submitting)
	assert.Equal(t, "Invalid credentials", form.Error)
	assert.False(t, form.Submitted)

	form.Begin(Ticket{Key: "b|sign-in", Generation: 4})
	assert.Empty(t, form.Error)

	form.Succeed("Signed in")
	assert.True(t, form.Submitted)
	assert.Equal(t, "Signed in", form.Success)
	assert.Equal(t, "jane@example.com", form.Values["email"])
}

func TestFormStateInvalidAndReset(t *testing.T) {
	form := NewFormState(map[string]any{"email": "x"})
	form.Invalid(map[string]string{"email": msgEmail})

	assert.True(t, form.HasErrors())
	assert.False(t, form.Submitting)

	form.Reset()
	assert.False(t, form.HasErrors())
	assert.Empty(t, form.Values)
	assert.NotNil(t, form.Values)
}

func TestFormStateViewContext(t *testing.T) {
	form := NewFormState(nil)
	form.Fail("boom")

	vc := form.ViewContext()
	assert.Equal(t, "boom", vc["error"])
	assert.Equal(t, form.Values, vc["record"])
	assert.Equal(t, form.Errors, vc["validation"])
	assert.NotContains(t, vc, "submitting")
}
