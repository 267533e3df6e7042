package exitcodes

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetInnerErrorAndExitCode(t *testing.T) {
	err, code := GetInnerErrorAndExitCode(nil)
	assert.NoError(t, err)
	assert.Equal(t, ExitCodeSuccess, code)

	generic := errors.New("boom")
	err, code = GetInnerErrorAndExitCode(generic)
	assert.Equal(t, generic, err)
	assert.Equal(t, ExitCodeGeneralError, code)

	inner := errors.New("failed to compile 'B.sol'")
	err, code = GetInnerErrorAndExitCode(NewErrorWithExitCode(inner, ExitCodeCompileError))
	assert.Equal(t, inner, err)
	assert.Equal(t, ExitCodeCompileError, code)

	// The exit code is found even when the error was wrapped further up
	wrapped := fmt.Errorf("command failed: %w", NewErrorWithExitCode(inner, ExitCodeDeployError))
	err, code = GetInnerErrorAndExitCode(wrapped)
	assert.Equal(t, inner, err)
	assert.Equal(t, ExitCodeDeployError, code)
	assert.ErrorIs(t, wrapped, inner)
}
