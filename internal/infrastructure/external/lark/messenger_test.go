package lark

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zosarillana/prs-be/internal/domain/event"
)

type mockCreator struct {
	CreateFunc func(ctx context.Context, req *larkim.CreateMessageReq) (*larkim.CreateMessageResp, error)
	requests   []*larkim.CreateMessageReq
}

func (m *mockCreator) Create(ctx context.Context, req *larkim.CreateMessageReq, _ ...larkcore.RequestOptionFunc) (*larkim.CreateMessageResp, error) {
	m.requests = append(m.requests, req)
	return m.CreateFunc(ctx, req)
}

func okResp() (*larkim.CreateMessageResp, error) {
	id := "om_1"
	return &larkim.CreateMessageResp{Data: &larkim.CreateMessageRespData{MessageId: &id}}, nil
}

func TestMessenger_SendText(t *testing.T) {
	creator := &mockCreator{CreateFunc: func(context.Context, *larkim.CreateMessageReq) (*larkim.CreateMessageResp, error) {
		return okResp()
	}}
	m := &Messenger{messages: creator, logger: zap.NewNop()}

	require.NoError(t, m.SendText(context.Background(), "ou_1", `quote " and newline`+"\n"))
	require.Len(t, creator.requests, 1)

	body := creator.requests[0].Body
	assert.Equal(t, "ou_1", *body.ReceiveId)
	assert.Equal(t, larkim.MsgTypeText, *body.MsgType)

	var content map[string]string
	require.NoError(t, json.Unmarshal([]byte(*body.Content), &content))
	assert.Equal(t, "quote \" and newline\n", content["text"])
}

func TestMessenger_SendTextErrors(t *testing.T) {
	tests := []struct {
		name   string
		openID string
		text   string
		resp   *larkim.CreateMessageResp
		err    error
	}{
		{name: "missing open id", openID: "", text: "x"},
		{name: "missing text", openID: "ou_1", text: ""},
		{name: "transport error", openID: "ou_1", text: "x", err: errors.New("dial tcp: timeout")},
		{name: "api failure", openID: "ou_1", text: "x", resp: &larkim.CreateMessageResp{CodeError: larkcore.CodeError{Code: 230001, Msg: "invalid receive_id"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creator := &mockCreator{CreateFunc: func(context.Context, *larkim.CreateMessageReq) (*larkim.CreateMessageResp, error) {
				return tt.resp, tt.err
			}}
			m := &Messenger{messages: creator, logger: zap.NewNop()}
			assert.Error(t, m.SendText(context.Background(), tt.openID, tt.text))
		})
	}
}

type mockSender struct {
	SendTextFunc func(ctx context.Context, openID, text string) error
}

func (m *mockSender) SendText(ctx context.Context, openID, text string) error {
	return m.SendTextFunc(ctx, openID, text)
}

func TestNotificationHandler(t *testing.T) {
	po := "PO-11"
	evt := event.NewEvent(event.TypeNotificationCreated, 5, map[string]interface{}{
		"title":        "Purchase order for approval",
		"series_no":    12004,
		"pr_status":    "for_approval",
		"po_status":    "for_approval",
		"po_no":        &po,
		"created_by":   "Ana",
		"lark_open_id": "ou_9",
	}).ForUser(3)

	var gotID, gotText string
	sender := &mockSender{SendTextFunc: func(_ context.Context, openID, text string) error {
		gotID, gotText = openID, text
		return nil
	}}

	require.NoError(t, NotificationHandler(sender, zap.NewNop())(context.Background(), evt))
	assert.Equal(t, "ou_9", gotID)
	assert.Equal(t, "[PR 12004] Purchase order for approval\nPR status: for_approval\nPO status: for_approval\nPO no: PO-11\nRequested by: Ana", gotText)
}

func TestNotificationHandler_SkipsUsersWithoutOpenID(t *testing.T) {
	sender := &mockSender{SendTextFunc: func(context.Context, string, string) error {
		t.Fatal("must not send")
		return nil
	}}
	evt := event.NewEvent(event.TypeNotificationCreated, 5, map[string]interface{}{"title": "x"})
	assert.NoError(t, NotificationHandler(sender, zap.NewNop())(context.Background(), evt))
}

func TestNotificationHandler_PropagatesSendError(t *testing.T) {
	sender := &mockSender{SendTextFunc: func(context.Context, string, string) error {
		return errors.New("rate limited")
	}}
	evt := event.NewEvent(event.TypeNotificationCreated, 5, map[string]interface{}{"lark_open_id": "ou_1"})
	assert.ErrorContains(t, NotificationHandler(sender, zap.NewNop())(context.Background(), evt), "rate limited")
}
