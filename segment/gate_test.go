package segment

import (
	"context"
	"errors"
	"image"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slowModel struct {
	release  chan struct{}
	loadErr  error
	loads    atomic.Int32
	segments atomic.Int32
	segErr   error
}

func (m *slowModel) Prepare(ctx context.Context) error {
	m.loads.Add(1)
	<-m.release
	return m.loadErr
}

func (m *slowModel) Segment(ctx context.Context, img *image.NRGBA, opts Options) (*image.Alpha, error) {
	m.segments.Add(1)
	if m.segErr != nil {
		return nil, m.segErr
	}
	return image.NewAlpha(img.Bounds()), nil
}

func TestGate_BlocksUntilLoaded(t *testing.T) {
	t.Parallel()

	model := &slowModel{release: make(chan struct{})}
	g := NewGate(model)
	g.Start(context.Background())
	g.Start(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := g.Segment(ctx, image.NewNRGBA(image.Rect(0, 0, 1, 1)), DefaultOptions())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, model.segments.Load())

	close(model.release)
	<-g.Ready()

	mask, err := g.Segment(context.Background(), image.NewNRGBA(image.Rect(0, 0, 2, 2)), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 2, 2), mask.Bounds())
	assert.Equal(t, int32(1), model.loads.Load())
}

func TestGate_LoadFailure(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	close(release)
	model := &slowModel{release: release, loadErr: errors.New("weights missing")}
	g := NewGate(model)

	_, err := g.Segment(context.Background(), image.NewNRGBA(image.Rect(0, 0, 1, 1)), DefaultOptions())
	var segErr *Error
	require.True(t, errors.As(err, &segErr))
	assert.Equal(t, "load", segErr.Op)
	assert.ErrorContains(t, err, "weights missing")
	assert.Zero(t, model.segments.Load())
}

func TestGate_SegmentFailure(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	close(release)
	model := &slowModel{release: release, segErr: errors.New("oom")}
	g := NewGate(model)

	_, err := g.Segment(context.Background(), image.NewNRGBA(image.Rect(0, 0, 1, 1)), DefaultOptions())
	var segErr *Error
	require.True(t, errors.As(err, &segErr))
	assert.Equal(t, "segment", segErr.Op)
}

func TestGate_InvalidOptions(t *testing.T) {
	t.Parallel()

	g := NewGate(NewAlphaMatte())
	_, err := g.Segment(context.Background(), image.NewNRGBA(image.Rect(0, 0, 1, 1)), Options{Threshold: 2})
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestGate_WithoutPreparer(t *testing.T) {
	t.Parallel()

	g := NewGate(NewAlphaMatte())
	mask, err := g.Segment(context.Background(), image.NewNRGBA(image.Rect(0, 0, 1, 1)), Options{
		Threshold: 0.5, Mode: ModeSingle, Resolution: ResolutionMedium,
	})
	require.NoError(t, err)
	assert.Equal(t, []uint8{0}, mask.Pix)
}
