package notification_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bento-order/internal/messaging"
	"bento-order/internal/models"
	"bento-order/internal/services/notification"
)

type fakePublisher struct {
	published []*models.ConfirmationMessage
	err       error
}

func (f *fakePublisher) PublishConfirmation(_ context.Context, msg *models.ConfirmationMessage) error {
	f.published = append(f.published, msg)
	return f.err
}

type fakeConsumer struct {
	bodies [][]byte
	errs   []error
	closed bool
}

func (f *fakeConsumer) StartConsuming(ctx context.Context, handler messaging.MessageHandler) error {
	for _, body := range f.bodies {
		f.errs = append(f.errs, handler(ctx, body))
	}
	return context.Canceled
}

func (f *fakeConsumer) Close() error {
	f.closed = true
	return nil
}

func sampleConfirmation() *models.ConfirmationMessage {
	order := &models.Order{
		OrderID:     "01JX0000000000000000000000",
		UserID:      "u1",
		DisplayName: "Taro",
		Lines: []models.OrderLine{
			{ItemID: "A", Name: "唐揚げ弁当", Option: models.OptionRegular, OptionName: "普通盛り", Quantity: 1, UnitPrice: 500, LineTotal: 500},
			{ItemID: "B", Name: "のり弁", Option: models.OptionLarge, OptionName: "大盛り", Quantity: 2, UnitPrice: 700, LineTotal: 1400},
		},
		TotalPrice: 1900,
		CreatedAt:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	msg := models.NewConfirmationMessage(order)
	msg.Timestamp = order.CreatedAt
	return msg
}

func TestAMQPNotifier(t *testing.T) {
	t.Run("publishes", func(t *testing.T) {
		pub := &fakePublisher{}
		n := notification.NewAMQPNotifier(pub)
		require.True(t, n.Available())
		require.NoError(t, n.Notify(context.Background(), sampleConfirmation()))
		require.Len(t, pub.published, 1)
	})

	t.Run("publish error", func(t *testing.T) {
		n := notification.NewAMQPNotifier(&fakePublisher{err: errors.New("channel closed")})
		require.Error(t, n.Notify(context.Background(), sampleConfirmation()))
	})

	t.Run("unavailable", func(t *testing.T) {
		n := notification.NewAMQPNotifier(nil)
		require.False(t, n.Available())
		require.Error(t, n.Notify(context.Background(), sampleConfirmation()))
	})
}

func TestSubscriberPrintsConfirmationOnce(t *testing.T) {
	body, err := json.Marshal(sampleConfirmation())
	require.NoError(t, err)

	consumer := &fakeConsumer{bodies: [][]byte{body, body, []byte(`not json`), []byte(`{"text":"x"}`)}}
	var out bytes.Buffer
	s := notification.NewSubscriberWithWriter(consumer, nil, &out)

	require.NoError(t, s.Start(context.Background()))
	require.True(t, consumer.closed)

	require.Len(t, consumer.errs, 4)
	require.NoError(t, consumer.errs[0])
	require.NoError(t, consumer.errs[1])
	require.True(t, messaging.IsPermanent(consumer.errs[2]))
	require.True(t, messaging.IsPermanent(consumer.errs[3]))

	printed := out.String()
	require.Equal(t, 1, bytes.Count(out.Bytes(), []byte("01JX0000000000000000000000")))
	require.Contains(t, printed, "唐揚げ弁当 (普通盛り)  x 1")
	require.Contains(t, printed, "合計金額: ¥1900")
}

func TestFormatFallsBackToText(t *testing.T) {
	msg := sampleConfirmation()
	msg.Receipt = models.Receipt{}

	formatted := notification.Format(msg)
	require.Contains(t, formatted, "ご注文ありがとうございます。")
	require.Contains(t, formatted, "合計金額: 1900円")
}
