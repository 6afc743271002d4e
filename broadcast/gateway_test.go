package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"

	"config-lab/domain"
	"config-lab/errors"
	"config-lab/mocks"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestGateway_PublishShapesTheExchangeMessage(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	publisher := mocks.NewMockPublisher(ctrl)
	gateway := NewGateway(publisher, "logs", slog.Default())

	final := domain.Draft{
		"default": domain.BoolValue(true),
		"limit":   domain.IntValue(3),
		"report":  domain.PairValue(map[string]bool{"auto": false, "manual": true}),
	}
	prov := domain.Provenance{GroupID: 1001, GroupName: "test-group", AdminID: 42}

	var captured []byte
	publisher.EXPECT().
		Publish(gomock.Any(), "WARN", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, payload []byte) error {
			captured = payload
			return nil
		})
	publisher.EXPECT().Publish(gomock.Any(), "logs", gomock.Any()).Return(nil)

	err := gateway.Publish(context.Background(), domain.FeatureWarn, prov, final)
	req.NoError(err)

	var msg Message
	req.NoError(json.Unmarshal(captured, &msg))
	req.Equal([]string{"WARN"}, msg.Receivers)
	req.Equal("config", msg.Action)
	req.Equal("commit", msg.ActionType)
	req.Equal(int64(1001), msg.Data.GroupID)
	req.True(msg.Data.Config.Equal(final))
}

func TestGateway_RefusedPublishWrapsUnavailable(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	publisher := mocks.NewMockPublisher(ctrl)
	gateway := NewGateway(publisher, "logs", slog.Default())

	publisher.EXPECT().
		Publish(gomock.Any(), "LONG", gomock.Any()).
		Return(fmt.Errorf("exchange down"))

	err := gateway.Publish(context.Background(), domain.FeatureLong,
		domain.Provenance{GroupID: 1001}, domain.Draft{"default": domain.BoolValue(true)})
	req.ErrorIs(err, errors.ErrPublishUnavailable)
}

// A failed audit hand-off must never fail the commit it describes.
func TestGateway_AuditFailureIsTolerated(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	publisher := mocks.NewMockPublisher(ctrl)
	gateway := NewGateway(publisher, "logs", slog.Default())

	publisher.EXPECT().Publish(gomock.Any(), "TIP", gomock.Any()).Return(nil)
	publisher.EXPECT().
		Publish(gomock.Any(), "logs", gomock.Any()).
		Return(fmt.Errorf("audit channel closed"))

	err := gateway.Publish(context.Background(), domain.FeatureTip,
		domain.Provenance{GroupID: 1001}, domain.Draft{"default": domain.BoolValue(true)})
	req.NoError(err)
}

func TestGateway_AuditRecordCarriesProvenance(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	publisher := mocks.NewMockPublisher(ctrl)
	gateway := NewGateway(publisher, "logs", slog.Default())

	prov := domain.Provenance{GroupID: 1001, GroupName: "test-group", AdminID: 42}

	var captured []byte
	publisher.EXPECT().Publish(gomock.Any(), "USER", gomock.Any()).Return(nil)
	publisher.EXPECT().
		Publish(gomock.Any(), "logs", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, payload []byte) error {
			captured = payload
			return nil
		})

	err := gateway.Publish(context.Background(), domain.FeatureUser, prov,
		domain.Draft{"default": domain.BoolValue(true)})
	req.NoError(err)

	var record AuditRecord
	req.NoError(json.Unmarshal(captured, &record))
	req.Equal("commit", record.Action)
	req.Equal(domain.FeatureUser, record.Feature)
	req.Equal(prov, record.Provenance)
	req.False(record.At.IsZero())
}
