package router

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"edudash/internal/rangefilter"
	"edudash/internal/views"
)

type mockView struct {
	mock.Mock
	name string
}

func (m *mockView) Name() string  { return m.name }
func (m *mockView) Title() string { return m.name }

func (m *mockView) Init(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockView) Resize() error {
	return m.Called().Error(0)
}

func (m *mockView) Control(ctx context.Context, name, value string) error {
	return m.Called(ctx, name, value).Error(0)
}

func (m *mockView) Bounds() []rangefilter.ControlState { return nil }

var _ views.View = (*mockView)(nil)

func newRouter(t *testing.T, names ...string) (*Router, map[string]*mockView) {
	t.Helper()
	r := New(nil, slog.New(slog.NewJSONHandler(io.Discard, nil)))
	mocks := make(map[string]*mockView, len(names))
	for _, name := range names {
		m := &mockView{name: name}
		require.NoError(t, r.Register(m))
		mocks[name] = m
	}
	return r, mocks
}

func TestRegister(t *testing.T) {
	r, _ := newRouter(t, views.NameQ1, views.NameQ2)

	assert.Error(t, r.Register(nil))
	assert.Error(t, r.Register(&mockView{}))
	assert.Error(t, r.Register(&mockView{name: views.NameQ1}))

	assert.Equal(t, []string{views.NameQ1, views.NameQ2}, r.Names())
	assert.Equal(t, 2, r.Count())
	assert.True(t, r.Has(views.NameQ2))
	assert.False(t, r.Has(views.NameMap))
	assert.Len(t, r.List(), 2)

	_, err := r.Get(views.NameMap)
	assert.ErrorIs(t, err, ErrUnknownView)
}

func TestShowInitsOnceThenResizes(t *testing.T) {
	r, m := newRouter(t, views.NameQ1, views.NameQ2)
	ctx := context.Background()

	m[views.NameQ1].On("Init", ctx).Return(nil).Once()
	m[views.NameQ1].On("Resize").Return(nil).Twice()
	m[views.NameQ2].On("Init", ctx).Return(nil).Once()

	first, err := r.Show(ctx, views.NameQ1)
	require.NoError(t, err)
	assert.True(t, first)
	assert.Equal(t, views.NameQ1, r.Active())

	first, err = r.Show(ctx, views.NameQ2)
	require.NoError(t, err)
	assert.True(t, first)
	assert.True(t, r.IsActive(views.NameQ2))
	assert.False(t, r.IsActive(views.NameQ1))

	for i := 0; i < 2; i++ {
		first, err = r.Show(ctx, views.NameQ1)
		require.NoError(t, err)
		assert.False(t, first)
	}

	m[views.NameQ1].AssertExpectations(t)
	m[views.NameQ2].AssertExpectations(t)
}

func TestViewIsActiveDuringInit(t *testing.T) {
	r, m := newRouter(t, views.NameTeacher)
	ctx := context.Background()

	m[views.NameTeacher].On("Init", ctx).Run(func(mock.Arguments) {
		assert.True(t, r.IsActive(views.NameTeacher))
	}).Return(nil)

	_, err := r.Show(ctx, views.NameTeacher)
	require.NoError(t, err)
	m[views.NameTeacher].AssertExpectations(t)
}

func TestShowUnknownView(t *testing.T) {
	r, _ := newRouter(t, views.NameQ1)

	_, err := r.Show(context.Background(), "q9")
	assert.ErrorIs(t, err, ErrUnknownView)
	assert.Empty(t, r.Active())
}

func TestFailedInitIsNotRetried(t *testing.T) {
	r, m := newRouter(t, views.NameAttainment)
	ctx := context.Background()
	boom := errors.New("educated.csv加载失败")

	m[views.NameAttainment].On("Init", ctx).Return(boom).Once()
	m[views.NameAttainment].On("Resize").Return(nil).Once()

	first, err := r.Show(ctx, views.NameAttainment)
	assert.True(t, first)
	assert.ErrorIs(t, err, boom)
	assert.True(t, r.Initialized(views.NameAttainment))

	first, err = r.Show(ctx, views.NameAttainment)
	require.NoError(t, err)
	assert.False(t, first)
	m[views.NameAttainment].AssertExpectations(t)
}

func TestMarkInitialized(t *testing.T) {
	r, m := newRouter(t, views.NameMap)
	r.MarkInitialized(views.NameMap)

	m[views.NameMap].On("Resize").Return(nil).Once()

	first, err := r.Show(context.Background(), views.NameMap)
	require.NoError(t, err)
	assert.False(t, first)
	m[views.NameMap].AssertExpectations(t)
}
