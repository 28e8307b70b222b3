package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointerPolygonFlow(t *testing.T) {
	s := loadedSession(t, 10, 10)
	ctx := context.Background()

	require.NoError(t, s.PointerDown(0, 0))
	require.NoError(t, s.PointerDown(5, 0))

	done, err := s.DoubleClick(ctx)
	require.NoError(t, err)
	assert.False(t, done, "two vertices cannot be completed")

	require.NoError(t, s.PointerMove(9, 9))
	assert.Len(t, s.Polygon(), 2, "moving never adds vertices")
	assert.Len(t, s.PolygonPreview(9, 9), 3)

	require.NoError(t, s.PointerDown(5, 5))
	require.NoError(t, s.PointerDown(0, 5))
	done, err = s.DoubleClick(ctx)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, 25, s.Mask().Count())
	assert.Empty(t, s.Polygon())
}

func TestPointerBrushStroke(t *testing.T) {
	s := loadedSession(t, 40, 10)
	s.SetTool(ToolAdd)
	s.SetBrushRadius(1)

	require.NoError(t, s.PointerMove(5, 5))
	assert.True(t, s.Mask().Empty(), "moving without a press does not paint")

	require.NoError(t, s.PointerDown(5, 5))
	assert.True(t, s.Drawing())
	require.NoError(t, s.PointerMove(30, 5))
	s.PointerUp()
	require.NoError(t, s.PointerMove(20, 5))

	assert.True(t, s.Mask().IsSet(5, 5))
	assert.True(t, s.Mask().IsSet(30, 5))
	assert.False(t, s.Mask().IsSet(18, 5), "samples are not interpolated")
	assert.False(t, s.Mask().IsSet(20, 5), "no painting after pointer up")
	assert.Equal(t, 10, s.Mask().Count())

	s.SetTool(ToolErase)
	require.NoError(t, s.PointerDown(5, 5))
	s.PointerLeave()
	assert.False(t, s.Drawing())
	assert.False(t, s.Mask().IsSet(5, 5))
	assert.Equal(t, 5, s.Mask().Count())
}

func TestRadiusChangeMidStroke(t *testing.T) {
	s := loadedSession(t, 30, 30)
	s.SetTool(ToolAdd)
	s.SetBrushRadius(1)

	require.NoError(t, s.PointerDown(5, 5))
	s.SetBrushRadius(3)
	require.NoError(t, s.PointerMove(20, 20))

	assert.False(t, s.Mask().IsSet(7, 5))
	assert.True(t, s.Mask().IsSet(23, 20))
}

func TestDoubleClickIgnoredForBrush(t *testing.T) {
	s := loadedSession(t, 10, 10)
	for _, v := range [][2]int{{0, 0}, {5, 0}, {5, 5}} {
		require.NoError(t, s.AddVertex(v[0], v[1]))
	}
	s.SetTool(ToolAdd)

	done, err := s.DoubleClick(context.Background())
	require.NoError(t, err)
	assert.False(t, done)
	assert.Len(t, s.Polygon(), 3)
}

func TestParseTool(t *testing.T) {
	for _, tool := range []Tool{ToolPolygon, ToolAdd, ToolErase} {
		got, err := ParseTool(tool.String())
		require.NoError(t, err)
		assert.Equal(t, tool, got)
	}
	_, err := ParseTool("lasso")
	assert.Error(t, err)
}
