//go:build integration
// +build integration

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/session"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/storage"
)

func TestCheckoutPersistsAndPublishes(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	pgC, dsn := startPostgres(ctx, t)
	defer terminateContainer(t, pgC)

	rabbitC, rabbitURL := startRabbitMQ(ctx, t)
	defer terminateContainer(t, rabbitC)

	require.NoError(t, db.RunMigrations(dsn, zap.NewNop()))

	pool, err := db.NewPool(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	sqlDB, err := db.Open(ctx, dsn)
	require.NoError(t, err)
	defer sqlDB.Close()

	slot := storage.NewPostgresSlot(pool)
	sessionID := session.NewID()

	// A cart written by one registry is restored by a fresh one.
	first := session.NewRegistry(slot)
	s, err := first.Get(ctx, sessionID)
	require.NoError(t, err)
	s.Cart.AddItem(ctx, "plano-completo", "Plano Completo", decimal.RequireFromString("89.00"))
	s.Cart.AddItem(ctx, "petbox-caes", "PetBox para Cães", decimal.RequireFromString("79.90"))
	s.Cart.AddItem(ctx, "petbox-caes", "PetBox para Cães", decimal.RequireFromString("79.90"))

	second := session.NewRegistry(slot)
	restored, err := second.Get(ctx, sessionID)
	require.NoError(t, err)
	require.Equal(t, 3, restored.Cart.Totals().ItemCount)
	require.True(t, restored.Cart.Totals().Amount.Equal(decimal.RequireFromString("248.80")))

	seqs := events.NewPostgresSequences(sqlDB)
	for want := int64(1); want <= 2; want++ {
		got, err := seqs.NextSequence(ctx, "integration-partition")
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	conn, err := events.Dial(rabbitURL)
	require.NoError(t, err)
	defer conn.Close()

	deliveries := bindTestQueue(t, conn)

	pub, err := events.NewRabbitPublisher(conn, events.NewPostgresSequences(sqlDB), events.PublisherOptions{})
	require.NoError(t, err)
	defer pub.Close()

	flow := restored.Checkout
	require.NoError(t, flow.Advance(checkout.Fields{
		"fullName": "Ana", "email": "ana@example.com", "phone": "11987654321",
		"address": "Rua A, 1", "city": "São Paulo", "state": "SP", "zipCode": "01000-000",
	}))
	require.NoError(t, flow.Advance(checkout.Fields{"paymentMethod": "pix"}))
	conf, err := flow.Finalize(ctx, nil)
	require.NoError(t, err)

	meta := events.EventMeta{CorrelationID: "it-corr", PartitionKey: sessionID}
	require.NoError(t, pub.PublishOrderPlaced(ctx, meta, events.NewOrderPlacedPayload(sessionID, conf)))

	select {
	case d := <-deliveries:
		var env events.OrderPlacedEvent
		require.NoError(t, json.Unmarshal(d.Body, &env))
		require.NoError(t, env.Validate(events.EventTypeOrderPlaced, 1))
		require.Equal(t, int64(1), env.Sequence)
		require.Equal(t, conf.OrderNumber, env.Payload.OrderNumber)
	case <-ctx.Done():
		t.Fatal("timed out waiting for OrderPlaced")
	}

	// The cleared cart was persisted too.
	raw, err := slot.Load(ctx, session.SlotKey(sessionID))
	require.NoError(t, err)
	require.JSONEq(t, `[]`, string(raw))

	_, err = slot.Load(ctx, session.SlotKey(session.NewID()))
	require.ErrorIs(t, err, cart.ErrSlotEmpty)
}

func bindTestQueue(t *testing.T, conn *amqp.Connection) <-chan amqp.Delivery {
	t.Helper()

	ch, err := conn.Channel()
	require.NoError(t, err)
	t.Cleanup(func() { _ = ch.Close() })

	require.NoError(t, ch.ExchangeDeclare(events.EventsExchange, "topic", true, false, false, false, nil))
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, events.OrderPlacedRoutingKey, events.EventsExchange, false, nil))

	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	require.NoError(t, err)
	return deliveries
}

func startPostgres(ctx context.Context, t *testing.T) (testcontainers.Container, string) {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16",
		Env:          map[string]string{"POSTGRES_PASSWORD": "postgres", "POSTGRES_USER": "postgres", "POSTGRES_DB": "storefront"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	mappedPort, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://postgres:postgres@%s:%s/storefront?sslmode=disable", host, mappedPort.Port())
	return container, dsn
}

func startRabbitMQ(ctx context.Context, t *testing.T) (testcontainers.Container, string) {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "rabbitmq:3-management",
		ExposedPorts: []string{"5672/tcp"},
		WaitingFor:   wait.ForListeningPort("5672/tcp").WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	mappedPort, err := container.MappedPort(ctx, "5672/tcp")
	require.NoError(t, err)

	return container, fmt.Sprintf("amqp://guest:guest@%s:%s/", host, mappedPort.Port())
}

func terminateContainer(t *testing.T, c testcontainers.Container) {
	t.Helper()
	terminateCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, c.Terminate(terminateCtx))
}
