package telemetry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/kiln/internal/adapters/telemetry"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestBridge_ForwardsLifecycle(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockRenderer := mocks.NewMockRenderer(ctrl)

	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(telemetry.NewBridge(mockRenderer)))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	var targetID string
	gomock.InOrder(
		mockRenderer.EXPECT().OnTaskStart(gomock.Any(), "", "yasm", gomock.Any()).
			Do(func(id, _, _ string, _ time.Time) { targetID = id }),
		mockRenderer.EXPECT().OnTaskStart(gomock.Any(), gomock.Any(), "configure", gomock.Any()).
			Do(func(_, parentID, _ string, _ time.Time) {
				require.Equal(t, targetID, parentID)
			}),
		mockRenderer.EXPECT().OnTaskComplete(gomock.Any(), gomock.Any(), false, nil),
		mockRenderer.EXPECT().OnTaskComplete(gomock.Any(), gomock.Any(), false, nil),
	)

	tracer := tp.Tracer("test")
	ctx, target := tracer.Start(context.Background(), "yasm")
	_, phase := tracer.Start(ctx, "configure")
	phase.End()
	target.End()
}

func TestBridge_ReportsCachedAndErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockRenderer := mocks.NewMockRenderer(ctrl)

	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(telemetry.NewBridge(mockRenderer)))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	tracer := telemetry.NewOTelTracerFromProvider(tp, "test")

	mockRenderer.EXPECT().OnTaskStart(gomock.Any(), "", gomock.Any(), gomock.Any()).Times(2)
	mockRenderer.EXPECT().OnTaskComplete(gomock.Any(), gomock.Any(), true, nil)
	mockRenderer.EXPECT().OnTaskComplete(gomock.Any(), gomock.Any(), false, gomock.Not(gomock.Nil()))

	_, cached := tracer.Start(context.Background(), "nasm")
	cached.SetAttribute(ports.AttrCached, true)
	cached.End()

	_, failed := tracer.Start(context.Background(), "lame")
	failed.RecordError(errors.New("make failed"))
	failed.End()
}

func TestBridge_NilRenderer(t *testing.T) {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(telemetry.NewBridge(nil)))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	_, span := tp.Tracer("test").Start(context.Background(), "noop")
	span.End()
}
