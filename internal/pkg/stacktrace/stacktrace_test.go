package stacktrace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInternalPaths(t *testing.T) {
	stack := []byte(`goroutine 7 [running]:
runtime/debug.Stack()
	/usr/local/go/src/runtime/debug/stack.go:26 +0x5e
github.com/jobboard/verification/internal/pkg/router.middlewareRecoverer.func1.1()
	/src/internal/pkg/router/middleware_recover.go:28 +0x45
panic({0x1, 0x2})
	/usr/local/go/src/runtime/panic.go:785 +0x132
github.com/jobboard/verification/internal/verification/usecase.(*Usecase).Issue(...)
	/src/internal/verification/usecase/issue.go:40
`)

	assert.Equal(t, []string{
		"internal/pkg/router/middleware_recover.go:28",
		"internal/verification/usecase/issue.go:40",
	}, InternalPaths(stack))
	assert.Empty(t, InternalPaths(nil))
}
