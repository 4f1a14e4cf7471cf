package orchestrator_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/ledger"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/kiln/internal/engine/configure"
	"go.trai.ch/kiln/internal/engine/download"
	"go.trai.ch/kiln/internal/engine/hooks"
	"go.trai.ch/kiln/internal/engine/orchestrator"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

type harness struct {
	t         *testing.T
	root      string
	manifest  *domain.Manifest
	executor  *mocks.MockExecutor
	fetcher   *mocks.MockFetcher
	extractor *mocks.MockExtractor
	tools     *mocks.MockToolFinder
	logger    *mocks.MockLogger
	ledger    *ledger.Store
	tracer    *fakeTracer
	hooks     hooks.Table
	commands  []string
}

func newHarness(t *testing.T, targets ...*domain.Target) *harness {
	t.Helper()
	ctrl := gomock.NewController(t)

	root := t.TempDir()
	reg := domain.NewRegistry()
	for _, tgt := range targets {
		require.NoError(t, reg.Add(tgt))
	}

	h := &harness{
		t:    t,
		root: root,
		manifest: &domain.Manifest{
			Root:     root,
			Prefix:   filepath.Join(root, "release"),
			WorkDir:  filepath.Join(root, "targets"),
			Tools:    []string{"make", "g++"},
			Registry: reg,
		},
		executor:  mocks.NewMockExecutor(ctrl),
		fetcher:   mocks.NewMockFetcher(ctrl),
		extractor: mocks.NewMockExtractor(ctrl),
		tools:     mocks.NewMockToolFinder(ctrl),
		logger:    mocks.NewMockLogger(ctrl),
		ledger:    ledger.NewStore(),
		tracer:    &fakeTracer{},
		hooks:     hooks.Table{},
	}

	h.logger.EXPECT().Info(gomock.Any()).AnyTimes()
	h.logger.EXPECT().Warn(gomock.Any()).AnyTimes()
	h.tools.EXPECT().LookPath(gomock.Any()).DoAndReturn(func(name string) (string, error) {
		return "/usr/bin/" + name, nil
	}).AnyTimes()

	return h
}

func (h *harness) orchestrator() *orchestrator.Orchestrator {
	return h.orchestratorWith(h.tracer)
}

func (h *harness) orchestratorWith(tracer ports.Tracer) *orchestrator.Orchestrator {
	downloads := download.NewManager(h.fetcher, h.extractor, h.logger,
		download.WithSleep(func(context.Context, time.Duration) error { return nil }))
	return orchestrator.New(h.executor, h.ledger, h.tools, tracer, h.logger,
		downloads, configure.NewDispatcher(nil), h.hooks)
}

func (h *harness) request(targets ...string) orchestrator.Request {
	return orchestrator.Request{
		Manifest: h.manifest,
		Targets:  targets,
		Platform: domain.OSLinux,
		Jobs:     2,
	}
}

// expectSources makes every fetch succeed and every extraction lay down a configure script.
func (h *harness) expectSources() {
	h.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _, dest string) error {
			return os.WriteFile(dest, []byte("archive"), domain.FilePerm)
		}).AnyTimes()
	h.extractor.EXPECT().Extract(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, archive, dest string) error {
			src := filepath.Join(dest, strings.TrimSuffix(filepath.Base(archive), ".tar.gz"))
			if err := os.MkdirAll(src, domain.DirPerm); err != nil {
				return err
			}
			return os.WriteFile(filepath.Join(src, "configure"), []byte("#!/bin/sh\n"), domain.FilePerm)
		}).AnyTimes()
}

// recordCommands accepts every command and records "<dir base>: <args>".
func (h *harness) recordCommands(fail map[string]error) {
	h.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, cmd *domain.Command, _ []string, stdout, _ io.Writer) error {
			line := filepath.Base(cmd.Dir) + ": " + cmd.String()
			h.commands = append(h.commands, line)
			_, _ = io.WriteString(stdout, line+"\n")
			return fail[line]
		}).AnyTimes()
}

func autotools(name string, deps ...string) *domain.Target {
	return &domain.Target{
		Name:         name,
		Download:     domain.Download{URL: "http://example.com/" + name + ".tar.gz", Filename: name + ".tar.gz"},
		Folder:       []string{name},
		Strategy:     domain.StrategyAutotools,
		Dependencies: deps,
	}
}

func TestBuild_DependencyBuiltBeforeDependent(t *testing.T) {
	h := newHarness(t, autotools("liba"), autotools("libb", "liba"))
	h.expectSources()
	h.recordCommands(nil)

	require.NoError(t, h.orchestrator().Build(t.Context(), h.request("libb")))

	prefix := "--prefix=" + h.manifest.Prefix
	assert.Equal(t, []string{
		"liba: ./configure " + prefix,
		"liba: make -j 2",
		"liba: make install",
		"libb: ./configure " + prefix,
		"libb: make -j 2",
		"libb: make install",
	}, h.commands)

	assert.True(t, h.ledger.IsBuilt(h.manifest.WorkDir, "liba"))
	assert.True(t, h.ledger.IsBuilt(h.manifest.WorkDir, "libb"))

	assert.Equal(t, []string{"liba", "libb"}, h.tracer.plan)
	assert.Equal(t, []string{"libb"}, h.tracer.requested)
	assert.Equal(t, []string{"liba"}, h.tracer.deps["libb"])
	assert.Equal(t, []string{
		"liba", "download", "configure", "build", "install",
		"libb", "download", "configure", "build", "install",
	}, h.tracer.names())

	for _, s := range h.tracer.spans {
		assert.True(t, s.ended, "span %s must end", s.name)
	}
	assert.Contains(t, h.tracer.spans[3].out.String(), "liba: make -j 2")
}

func TestBuild_RerunIsIdempotent(t *testing.T) {
	h := newHarness(t, autotools("liba"), autotools("libb", "liba"))
	require.NoError(t, os.MkdirAll(h.manifest.WorkDir, domain.DirPerm))
	require.NoError(t, h.ledger.MarkBuilt(h.manifest.WorkDir, "liba"))
	require.NoError(t, h.ledger.MarkBuilt(h.manifest.WorkDir, "libb"))

	require.NoError(t, h.orchestrator().Build(t.Context(), h.request("libb")))

	assert.Empty(t, h.commands)
	assert.Equal(t, []string{"libb"}, h.tracer.plan)
	assert.Equal(t, true, h.tracer.span("libb").attrs[ports.AttrCached])
}

func TestBuild_MissingToolFailsBeforeAnyDownload(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := newHarness(t, autotools("liba"))
	h.tools = mocks.NewMockToolFinder(ctrl)
	h.tools.EXPECT().LookPath("make").Return("/usr/bin/make", nil)
	h.tools.EXPECT().LookPath("g++").Return("", errors.New("not found"))

	err := h.orchestrator().Build(t.Context(), h.request("liba"))
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrMissingTool.Error())

	zErr, ok := err.(*zerr.Error)
	require.True(t, ok)
	assert.Equal(t, "g++", zErr.Metadata()["tools"])

	assert.NoDirExists(t, h.manifest.WorkDir)
	assert.Empty(t, h.tracer.spans)
}

func TestBuild_UnreachableDownloadLeavesNoMarker(t *testing.T) {
	h := newHarness(t, autotools("liba"))
	h.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("no route to host")).Times(download.Attempts)

	err := h.orchestrator().Build(t.Context(), h.request("liba"))
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrDownloadFailed.Error())

	zErr, ok := err.(*zerr.Error)
	require.True(t, ok)
	assert.Equal(t, "liba", zErr.Metadata()["target"])

	assert.False(t, h.ledger.IsBuilt(h.manifest.WorkDir, "liba"))
	assert.Empty(t, h.commands)
	assert.Equal(t, err, h.tracer.span("liba").err)
}

func TestBuild_CachedTargetSpan(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := newHarness(t, autotools("liba"))
	require.NoError(t, os.MkdirAll(h.manifest.WorkDir, domain.DirPerm))
	require.NoError(t, h.ledger.MarkBuilt(h.manifest.WorkDir, "liba"))

	tracer := mocks.NewMockTracer(ctrl)
	span := mocks.NewMockSpan(ctrl)

	gomock.InOrder(
		tracer.EXPECT().EmitPlan(gomock.Any(), []string{"liba"}, gomock.Any(), []string{"liba"}),
		tracer.EXPECT().Start(gomock.Any(), "liba").
			DoAndReturn(func(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
				return ctx, span
			}),
		span.EXPECT().SetAttribute(ports.AttrCached, true),
		span.EXPECT().End(),
	)

	require.NoError(t, h.orchestratorWith(tracer).Build(t.Context(), h.request("liba")))
	assert.Empty(t, h.commands)
}

func TestBuild_FailedPhaseRecordsErrorOnBothSpans(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := newHarness(t, autotools("liba"))
	h.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("no route to host")).Times(download.Attempts)

	tracer := mocks.NewMockTracer(ctrl)
	targetSpan := mocks.NewMockSpan(ctrl)
	phaseSpan := mocks.NewMockSpan(ctrl)

	gomock.InOrder(
		tracer.EXPECT().EmitPlan(gomock.Any(), []string{"liba"}, gomock.Any(), []string{"liba"}),
		tracer.EXPECT().Start(gomock.Any(), "liba").
			DoAndReturn(func(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
				return ctx, targetSpan
			}),
		tracer.EXPECT().Start(gomock.Any(), orchestrator.PhaseDownload, gomock.Any()).
			DoAndReturn(func(ctx context.Context, _ string, opts ...ports.SpanOption) (context.Context, ports.Span) {
				cfg := &ports.SpanConfig{}
				for _, opt := range opts {
					opt(cfg)
				}
				assert.True(t, cfg.Phase, "download runs as a phase span")
				return ctx, phaseSpan
			}),
		phaseSpan.EXPECT().RecordError(gomock.Any()),
		phaseSpan.EXPECT().End(),
		targetSpan.EXPECT().RecordError(gomock.Any()).Do(func(err error) {
			assert.ErrorContains(t, err, domain.ErrDownloadFailed.Error())
		}),
		targetSpan.EXPECT().End(),
	)

	err := h.orchestratorWith(tracer).Build(t.Context(), h.request("liba"))
	require.Error(t, err)
	assert.False(t, h.ledger.IsBuilt(h.manifest.WorkDir, "liba"))
}

func TestBuild_HookOrder(t *testing.T) {
	h := newHarness(t, autotools("liba"))
	h.expectSources()
	h.recordCommands(nil)

	var fired []string
	record := func(name string) hooks.Func {
		return func(_ context.Context, call *hooks.Call) error {
			fired = append(fired, name)
			if name != "pre-dependency" {
				assert.DirExists(t, call.Dir)
			}
			return nil
		}
	}
	h.hooks["liba"] = hooks.Set{
		PreDependency: record("pre-dependency"),
		PostDownload:  record("post-download"),
		PreConfigure:  record("pre-configure"),
		PostConfigure: record("post-configure"),
		PostInstall:   record("post-install"),
	}

	require.NoError(t, h.orchestrator().Build(t.Context(), h.request("liba")))
	assert.Equal(t, []string{"pre-dependency", "post-download", "pre-configure", "post-configure", "post-install"}, fired)
}

func TestBuild_InstallFailureSkipsPostInstallAndMarker(t *testing.T) {
	h := newHarness(t, autotools("liba"), autotools("libb", "liba"))
	h.expectSources()
	h.recordCommands(map[string]error{"liba: make install": errors.New("exit status 2")})

	var postInstall bool
	h.hooks["liba"] = hooks.Set{PostInstall: func(context.Context, *hooks.Call) error {
		postInstall = true
		return nil
	}}

	err := h.orchestrator().Build(t.Context(), h.request("libb"))
	require.Error(t, err)

	assert.False(t, postInstall)
	assert.False(t, h.ledger.IsBuilt(h.manifest.WorkDir, "liba"))
	assert.False(t, h.ledger.IsBuilt(h.manifest.WorkDir, "libb"))
	assert.NotContains(t, h.commands, "libb: make -j 2")
}

func TestBuild_HookMutationsStayInRun(t *testing.T) {
	h := newHarness(t, autotools("liba"))
	h.expectSources()
	h.recordCommands(nil)

	h.hooks["liba"] = hooks.Set{
		PreConfigure: func(_ context.Context, call *hooks.Call) error {
			call.Target.AddOptions("--with-pic")
			call.BuildContext.Env.Override("LDFLAGS", "-fstack-protector")
			return nil
		},
		PostInstall: func(_ context.Context, call *hooks.Call) error {
			v, _ := call.BuildContext.Env.Get("LDFLAGS")
			assert.Equal(t, "-fstack-protector", v)
			return nil
		},
	}

	require.NoError(t, h.orchestrator().Build(t.Context(), h.request("liba")))
	assert.Equal(t, "liba: ./configure --prefix="+h.manifest.Prefix+" --with-pic", h.commands[0])

	orig, _ := h.manifest.Registry.Get("liba")
	assert.Empty(t, orig.Options)
}

func TestBuild_PlatformSpecificTargetIsSkipped(t *testing.T) {
	winOnly := autotools("msys2-deps")
	winOnly.Platforms = []domain.OS{domain.OSWindows}
	h := newHarness(t, winOnly, autotools("liba"))
	h.expectSources()
	h.recordCommands(nil)

	require.NoError(t, h.orchestrator().Build(t.Context(), h.request("liba", "msys2-deps")))
	assert.Equal(t, []string{"liba"}, h.tracer.plan)
	assert.False(t, h.ledger.IsBuilt(h.manifest.WorkDir, "msys2-deps"))

	err := h.orchestrator().Build(t.Context(), h.request("msys2-deps"))
	assert.ErrorIs(t, err, domain.ErrNoTargetsSelected)
}

func TestBuild_UnknownTarget(t *testing.T) {
	h := newHarness(t, autotools("liba"))

	err := h.orchestrator().Build(t.Context(), h.request("nope"))
	assert.ErrorContains(t, err, domain.ErrTargetNotFound.Error())
}

func TestPlan(t *testing.T) {
	h := newHarness(t, autotools("liba"), autotools("libb", "liba"), autotools("libc", "libb"))
	require.NoError(t, os.MkdirAll(h.manifest.WorkDir, domain.DirPerm))
	require.NoError(t, h.ledger.MarkBuilt(h.manifest.WorkDir, "libc"))

	entries, err := h.orchestrator().Plan(t.Context(), h.request("libb", "libc"))
	require.NoError(t, err)
	assert.Equal(t, []orchestrator.PlanEntry{
		{Name: "liba"},
		{Name: "libb"},
		{Name: "libc", Cached: true},
	}, entries)
	assert.NoDirExists(t, h.manifest.Prefix)
}
