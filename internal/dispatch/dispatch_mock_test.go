package dispatch_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"tfbridge/internal/dispatch"
	"tfbridge/internal/dispatch/mocks"
	"tfbridge/internal/event"
	"tfbridge/internal/ledger"
	"tfbridge/pkg/domainerrors"
)

func mockService(t *testing.T, fleet dispatch.Fleet, commander dispatch.Commander, records ledger.Store, notifier dispatch.Notifier) *dispatch.Service {
	t.Helper()
	return dispatch.New(fleet, commander, records, notifier, dispatch.Config{
		ServerTagKey:        "terraform-server-tag-key",
		ServerTagValue:      "terraform-server-tag-value",
		CommandOutputBucket: "output-bucket",
	},
		dispatch.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		dispatch.WithClock(time.Now, func(time.Duration) {}),
		dispatch.WithRand(func(int) int { return 0 }),
	)
}

func mockRequest() *event.Request {
	return &event.Request{
		RequestType:        event.RequestTypeDelete,
		ResponseURL:        "https://callback.s3.amazonaws.com/resp",
		StackID:            "arn:aws:cloudformation:us-east-1:111111111111:stack/my-stack/511aae30-0f21-11e8-a87c-50a68a20ce52",
		RequestID:          "req-2",
		LogicalResourceID:  "MyTerraformStack",
		PhysicalResourceID: "my-stack-MyTerraformStack-511aae30",
	}
}

func TestDispatchFleetErrorSurfacesOnce(t *testing.T) {
	ctrl := gomock.NewController(t)

	fleet := mocks.NewMockFleet(ctrl)
	commander := mocks.NewMockCommander(ctrl)
	notifier := mocks.NewMockNotifier(ctrl)

	fleet.EXPECT().
		RunningInstanceIDs(gomock.Any(), "terraform-server-tag-key", "terraform-server-tag-value").
		Return(nil, assert.AnError)

	svc := mockService(t, fleet, commander, records(t), notifier)
	err := svc.Dispatch(context.Background(), mockRequest(), "ext-id")
	require.Error(t, err)
	require.True(t, domainerrors.HasCode(err, domainerrors.CodeInternal))
}

func TestDispatchSubmissionErrorSkipsLedgerWrite(t *testing.T) {
	ctrl := gomock.NewController(t)

	fleet := mocks.NewMockFleet(ctrl)
	commander := mocks.NewMockCommander(ctrl)
	notifier := mocks.NewMockNotifier(ctrl)

	fleet.EXPECT().RunningInstanceIDs(gomock.Any(), gomock.Any(), gomock.Any()).Return([]string{"i-abc"}, nil)
	commander.EXPECT().
		Send(gomock.Any(), "i-abc", gomock.Any(), "output-bucket", gomock.Any()).
		Return("", domainerrors.New(domainerrors.CodeInvalidWorkerTarget, "invalid instance id i-abc"))

	store := records(t)
	svc := mockService(t, fleet, commander, store, notifier)
	err := svc.Dispatch(context.Background(), mockRequest(), "ext-id")
	require.Error(t, err)
	require.True(t, domainerrors.HasCode(err, domainerrors.CodeInvalidWorkerTarget))

	_, err = store.Get(context.Background(), "my-stack-MyTerraformStack-511aae30")
	require.ErrorIs(t, err, ledger.ErrNotFound, "a failed submission must leave no ledger record")
}

func records(t *testing.T) ledger.Store {
	t.Helper()
	return ledger.NewInMemory()
}
