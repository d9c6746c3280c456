// Package messaging provides a broker-agnostic API for publishing
// domain events.
//
// Business code depends on Publisher only, so the broker (Kafka, NATS, NSQ,
// Google Pub/Sub, AWS SNS) is a deployment choice made in configuration.
package messaging
