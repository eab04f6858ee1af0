package docerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("item 3: %w", New(CodeDecode, "解码 a.png 失败", errors.New("unexpected EOF")))

	assert.True(t, errors.Is(err, ErrDecode))
	assert.False(t, errors.Is(err, ErrIO))
	assert.Equal(t, CodeDecode, CodeOf(err))
	assert.Contains(t, err.Error(), "unexpected EOF")
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, Code(""), CodeOf(errors.New("plain")))
	assert.Equal(t, CodeInvalidParameter, CodeOf(Invalid("字号必须为正数")))
}
