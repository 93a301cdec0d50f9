package events

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EventsExchange = "ecommerce.events"

	OrderPlacedRoutingKey   = "storefront.orderplaced.v1"
	FormSubmittedRoutingKey = "storefront.formsubmitted.v1"

	EventTypeOrderPlaced   = "OrderPlaced"
	EventTypeFormSubmitted = "FormSubmitted"

	orderPlacedSchema   = "contracts/events/storefront/OrderPlaced.v1.payload.schema.json"
	formSubmittedSchema = "contracts/events/storefront/FormSubmitted.v1.payload.schema.json"

	storefrontServiceName = "storefront-go"
)

type exchangeDeclarer interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
}

func declareEventsExchange(ch exchangeDeclarer) error {
	return ch.ExchangeDeclare(
		EventsExchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
}
