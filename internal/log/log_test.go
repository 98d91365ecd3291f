package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisabledByDefault(t *testing.T) {
	Disable()
	// Must not panic when the logger is a no-op.
	Info(CatValidate, "ignored", "key", "value")
	Error(CatValidate, "ignored")
}

func TestInitWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	Init(&buf)
	defer Disable()

	Info(CatRegistry, "registry loaded", "policies", 3)

	out := buf.String()
	assert.Contains(t, out, "registry loaded")
	assert.Contains(t, out, "category=registry")
	assert.Contains(t, out, "policies=3")
}

func TestErrorErrAttachesError(t *testing.T) {
	var buf bytes.Buffer
	Init(&buf)
	defer Disable()

	ErrorErr(CatCatalog, "load failed", assert.AnError, "path", "layouts.yaml")

	out := buf.String()
	assert.Contains(t, out, "load failed")
	assert.Contains(t, out, "path=layouts.yaml")
}

func TestOddFieldCount(t *testing.T) {
	var buf bytes.Buffer
	Init(&buf)
	defer Disable()

	Warn(CatCache, "odd fields", "orphan")
	assert.Contains(t, buf.String(), "orphan=")
}
