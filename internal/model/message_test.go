package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeMessageType(t *testing.T) {
	assert.Equal(t, MessageText, NormalizeMessageType("TEXT"))
	assert.Equal(t, MessageImage, NormalizeMessageType("IMAGE"))
	assert.Equal(t, MessageFile, NormalizeMessageType("FILE"))

	// 未知类型降级为 TEXT，不拒绝消息
	assert.Equal(t, MessageText, NormalizeMessageType("sticker"))
	assert.Equal(t, MessageText, NormalizeMessageType("text"))
	assert.Equal(t, MessageText, NormalizeMessageType(""))
}

func TestMessageTargetValid(t *testing.T) {
	direct := NewDirectMessage(1, 2, "hi", MessageText)
	assert.True(t, direct.TargetValid())
	assert.True(t, direct.IsDirect())

	group := NewGroupMessage(1, 10, "hi", MessageText)
	assert.True(t, group.TargetValid())
	assert.False(t, group.IsDirect())

	var invalid Message
	assert.False(t, invalid.TargetValid())
}

func TestSortPair(t *testing.T) {
	lo, hi := SortPair(7, 3)
	assert.Equal(t, uint(3), lo)
	assert.Equal(t, uint(7), hi)

	lo, hi = SortPair(3, 7)
	assert.Equal(t, uint(3), lo)
	assert.Equal(t, uint(7), hi)
}
