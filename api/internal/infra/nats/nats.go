package nats

import (
	"context"
	"fmt"
	"os"
	"paygate/api/internal/config"
	"paygate/api/internal/logger"
	"paygate/pkg/nats/natsdomain"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

type NatsInfra struct {
	*natsdomain.Ns
}

func Init(config *config.Config, log logger.Logger) *NatsInfra {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	nc, err := nats.Connect(config.Nats.Servers,
		nats.MaxReconnects(100),
		nats.ReconnectWait(3*time.Second),
		nats.DisconnectHandler(func(nc *nats.Conn) {
			log.TemplNatsInfo("disconnected", nc.ConnectedUrl())
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.TemplNatsInfo("reconnected", nc.ConnectedUrl())
		}))
	if err != nil {
		log.TemplNatsError("Connect failed", nc.ConnectedUrl(), err)
		os.Exit(0)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		panic(err)
	}

	ns := &natsdomain.Ns{Nc: nc, Js: js}

	if _, err := InitPaymentsStream(ctx, js); err != nil {
		panic("NATS: payments stream: " + err.Error())
	}

	if err := ns.InitBuckets(ctx); err != nil {
		panic("NATS: kv buckets: " + err.Error())
	}

	msg, err := nc.Request(natsdomain.SubjPing.String(), []byte("ping"), time.Second*5) // check connection
	if err != nil {
		panic("NATS: connect failed: " + err.Error())
	}
	if string(msg.Data) != "pong" {
		panic("NATS: wrong response")
	}

	fmt.Println("nats: Connected to", nc.ConnectedAddr())
	return &NatsInfra{ns}
}

// durable stream of normalized watcher events. duplicate window covers
// watcher replays after reconnect, MsgID = network_txref_confidence
func InitPaymentsStream(ctx context.Context, js jetstream.JetStream) (jetstream.Stream, error) {
	return js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:       "payments",
		Subjects:   natsdomain.SubjectsJetStream[:],
		Duplicates: 10 * time.Minute,
	})
}

// durable consumer for the engine. unacked events are redelivered, which is
// the watcher-retry semantic the engine's dedup makes safe
func PaymentsConsumer(ctx context.Context, js jetstream.JetStream) (jetstream.Consumer, error) {
	return js.CreateOrUpdateConsumer(ctx, "payments", jetstream.ConsumerConfig{
		Durable:       "engine",
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       30 * time.Second,
		FilterSubject: natsdomain.SubjJsPaymentEvents.String(),
	})
}
