package services

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"config-lab/broadcast"
	"config-lab/domain"
	"config-lab/errors"
	"config-lab/mocks"
	"config-lab/registry"
	"config-lab/sessions"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type serviceFixture struct {
	service   *ConfigService
	store     *sessions.Store
	transport *mocks.MockTransport
	publisher *mocks.MockPublisher
}

func newFixture(t *testing.T) serviceFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	transport := mocks.NewMockTransport(ctrl)
	publisher := mocks.NewMockPublisher(ctrl)

	log := slog.Default()
	reg := registry.New()
	store := sessions.NewStore(reg, nil, log)
	gateway := broadcast.NewGateway(publisher, "logs", log)
	engine := sessions.NewEngine(store, reg, gateway, log)
	service := NewConfigService(log, store, engine, reg, transport, gateway)

	return serviceFixture{service: service, store: store, transport: transport, publisher: publisher}
}

func openRequest() OpenRequest {
	return OpenRequest{
		Feature:   "warn",
		GroupID:   1001,
		GroupName: "test-group",
		AdminID:   42,
	}
}

func TestConfigService_OpenRendersAndRecordsRef(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	f.transport.EXPECT().
		RenderSession(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, key string, menu domain.MenuDescription) (string, error) {
			require.Equal(t, domain.FeatureWarn, menu.Feature)
			require.NotEmpty(t, menu.Rows)
			return "msg-1", nil
		})

	session, err := f.service.Open(context.Background(), openRequest())
	req.NoError(err)
	req.Equal(domain.StatusOpen, session.Status)
	req.Equal("msg-1", session.MessageRef)
	req.Equal(int64(1001), session.Provenance.GroupID)
	req.Equal(1, f.store.Len())
}

func TestConfigService_OpenValidatesShape(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name string
		req  OpenRequest
	}{
		{name: "missing feature", req: OpenRequest{GroupID: 1, GroupName: "g", AdminID: 1}},
		{name: "zero group", req: OpenRequest{Feature: "warn", GroupName: "g", AdminID: 1}},
		{name: "bad link", req: OpenRequest{Feature: "warn", GroupID: 1, GroupName: "g", AdminID: 1, GroupLink: "not a url"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.service.Open(context.Background(), tc.req)
			var verr validator.ValidationErrors
			require.ErrorAs(t, err, &verr)
		})
	}
}

func TestConfigService_OpenUnknownFeature(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	request := openRequest()
	request.Feature = "telepathy"
	_, err := f.service.Open(context.Background(), request)
	req.ErrorIs(err, errors.ErrUnknownFeature)
	req.Zero(f.store.Len())
}

func TestConfigService_OpenRenderFailureReleasesKey(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	f.transport.EXPECT().
		RenderSession(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", fmt.Errorf("chat unreachable"))

	_, err := f.service.Open(context.Background(), openRequest())
	req.Error(err)
	req.Zero(f.store.Len())
}

func openForActions(t *testing.T, f serviceFixture) string {
	t.Helper()
	var opened string
	f.transport.EXPECT().
		RenderSession(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, key string, _ domain.MenuDescription) (string, error) {
			opened = key
			return "msg-1", nil
		})
	_, err := f.service.Open(context.Background(), openRequest())
	require.NoError(t, err)
	return opened
}

func TestConfigService_ToggleRefreshesMenu(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	key := openForActions(t, f)

	f.transport.EXPECT().
		UpdateSession(gomock.Any(), "msg-1", gomock.Any()).
		Return(nil)

	err := f.service.HandleAction(context.Background(), ActionRequest{
		Key: key, Action: domain.ActionToggle, Field: "mention",
	})
	req.NoError(err)

	session, ok := f.store.Get(key)
	req.True(ok)
	req.True(session.Draft["mention"].Bool)
}

func TestConfigService_FailedToggleLeavesMenuAlone(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	key := openForActions(t, f)

	// No UpdateSession expectation: a failed engine operation must not
	// reach the transport.
	err := f.service.HandleAction(context.Background(), ActionRequest{
		Key: key, Action: domain.ActionToggle, Field: "ghost",
	})
	req.ErrorIs(err, errors.ErrInvalidField)
}

func TestConfigService_SetStepsTheInteger(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	key := openForActions(t, f)

	f.transport.EXPECT().
		UpdateSession(gomock.Any(), "msg-1", gomock.Any()).
		Return(nil)

	err := f.service.HandleAction(context.Background(), ActionRequest{
		Key: key, Action: domain.ActionSet, Field: "limit", Target: 4,
	})
	req.NoError(err)

	session, _ := f.store.Get(key)
	req.Equal(4, session.Draft["limit"].Int)
}

func TestConfigService_CommitPublishesAndAnnotates(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	key := openForActions(t, f)

	f.publisher.EXPECT().Publish(gomock.Any(), "WARN", gomock.Any()).Return(nil)
	f.publisher.EXPECT().Publish(gomock.Any(), "logs", gomock.Any()).Return(nil)
	f.transport.EXPECT().
		AnnotateStatus(gomock.Any(), "msg-1", StatusCommitted).
		Return(nil)

	err := f.service.HandleAction(context.Background(), ActionRequest{
		Key: key, Action: domain.ActionCommit,
	})
	req.NoError(err)

	session, _ := f.store.Get(key)
	req.Equal(domain.StatusCommitted, session.Status)
}

func TestConfigService_CommitSurvivesRefusedPublish(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	key := openForActions(t, f)

	f.publisher.EXPECT().
		Publish(gomock.Any(), "WARN", gomock.Any()).
		Return(fmt.Errorf("exchange down"))
	f.transport.EXPECT().
		AnnotateStatus(gomock.Any(), "msg-1", StatusCommitted).
		Return(nil)

	err := f.service.HandleAction(context.Background(), ActionRequest{
		Key: key, Action: domain.ActionCommit,
	})
	req.ErrorIs(err, errors.ErrPublishUnavailable)

	// Committed stands even though delivery was refused.
	session, _ := f.store.Get(key)
	req.Equal(domain.StatusCommitted, session.Status)
}

func TestConfigService_ResetToDefaultLocksAndRefreshes(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	key := openForActions(t, f)

	delivered := make(chan struct{}, 2)
	f.publisher.EXPECT().
		Publish(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, string, []byte) error {
			delivered <- struct{}{}
			return nil
		}).
		Times(2)
	f.transport.EXPECT().
		UpdateSession(gomock.Any(), "msg-1", gomock.Any()).
		Return(nil)

	err := f.service.HandleAction(context.Background(), ActionRequest{
		Key: key, Action: domain.ActionResetDefault,
	})
	req.NoError(err)

	session, _ := f.store.Get(key)
	req.Equal(domain.StatusLocked, session.Status)

	for i := 0; i < 2; i++ {
		select {
		case <-delivered:
		case <-time.After(2 * time.Second):
			t.Fatal("reset broadcast never reached the publisher")
		}
	}
}

func TestConfigService_RemoveAnnotatesOpenSessions(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	key := openForActions(t, f)

	f.transport.EXPECT().
		AnnotateStatus(gomock.Any(), "msg-1", StatusRemoved).
		Return(nil)

	err := f.service.HandleAction(context.Background(), ActionRequest{
		Key: key, Action: domain.ActionRemove,
	})
	req.NoError(err)
	req.Zero(f.store.Len())
}

func TestConfigService_RemoveUnknownKey(t *testing.T) {
	f := newFixture(t)

	err := f.service.HandleAction(context.Background(), ActionRequest{
		Key: "ghost", Action: domain.ActionRemove,
	})
	require.ErrorIs(t, err, errors.ErrNotFound)
}

func TestConfigService_UnknownActionKind(t *testing.T) {
	f := newFixture(t)

	err := f.service.HandleAction(context.Background(), ActionRequest{
		Key: "k1", Action: domain.ActionKind("explode"),
	})
	require.ErrorIs(t, err, errors.ErrInvalidState)
}
