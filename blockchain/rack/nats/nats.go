package nats

import (
	"context"
	"log"
	"paygate/blockchain/rack/config"
	"paygate/pkg/nats/natsdomain"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

func Init(config *config.Config) *natsdomain.Ns {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	nc, err := nats.Connect(config.Nats.Servers)
	if err != nil {
		panic(err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		log.Fatal(err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:       "payments",
		Subjects:   natsdomain.SubjectsJetStream[:],
		Duplicates: 10 * time.Minute,
	})
	if err != nil {
		panic(err)
	}

	ns := &natsdomain.Ns{Nc: nc, Js: js}

	if err := ns.InitBuckets(ctx); err != nil {
		panic(err)
	}

	return ns
}
