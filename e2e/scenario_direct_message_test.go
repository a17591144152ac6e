package e2e

import (
	"context"
	"direct-chat/api"
	"direct-chat/domain"
	grpc2 "direct-chat/grpc"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

type testDirectMessageSuite struct {
	BaseGrpcSuite
}

func TestDirectMessageSuite(t *testing.T) {
	suite.Run(t, &testDirectMessageSuite{})
}

func (s *testDirectMessageSuite) TestLiveDeliveryThenHistory() {
	// Fresh identities keep reruns independent of previous data
	alice := domain.PartyID("alice-" + uuid.NewString()[:8])
	bob := domain.PartyID("bob-" + uuid.NewString()[:8])
	var sentID string

	s.Run("Step 1: bob connects and alice sends", func() {
		s.As(bob, func(bobCtx context.Context, bobClient *grpc2.ChatServiceClient) {
			stream, err := bobClient.Connect(bobCtx, &emptypb.Empty{})
			s.Require().NoError(err)

			s.As(alice, func(ctx context.Context, client *grpc2.ChatServiceClient) {
				req, err := structpb.NewStruct(map[string]any{
					"receiverIdentity": string(bob),
					"body":             "hello from the e2e suite",
				})
				s.Require().NoError(err)

				// The stream may not be bound yet on the very first call, so a queued state is accepted
				res, err := client.SendMessage(ctx, req)
				s.Require().NoError(err)
				accepted, err := grpc2.FromStruct(res)
				s.Require().NoError(err)
				s.Require().Contains([]domain.DeliveryState{domain.Delivered, domain.Queued}, accepted.State)
				sentID = accepted.ID

				if accepted.State == domain.Delivered {
					pushed, err := stream.Recv()
					s.Require().NoError(err)
					message, err := grpc2.FromStruct(pushed)
					s.Require().NoError(err)
					s.Require().Equal(sentID, message.ID)
				}
			})
		})
	})

	s.Run("Step 2: history shows the message newest first", func() {
		if s.Config.HTTPAddr == "" {
			s.T().Skip("E2E_HTTP_ADDR not set")
		}
		resp, err := http.Get(fmt.Sprintf("http://%s/history/%s/%s/latest", s.Config.HTTPAddr, bob, alice))
		s.Require().NoError(err)
		defer resp.Body.Close()
		s.Require().Equal(http.StatusOK, resp.StatusCode)

		var latest api.Message
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(&latest))
		s.Require().Equal(sentID, latest.ID)
		s.Require().Equal(string(alice), latest.SenderIdentity)
	})
}
