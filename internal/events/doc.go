// Package events provides the event types and publish/subscribe contracts that
// decouple task execution from notification delivery.
//
// The orchestrator publishes an Event when a task reaches a terminal state or
// when a tenant asks for content to be echoed to their destination. Delivery
// collaborators subscribe to the same stream without knowing who produced it.
//
// The primary components are:
// - Event: an envelope carrying kind, task, tenant, destination and a typed payload
// - Publisher / Subscriber: the two sides of the event channel
// - InMemoryBus: a single-process implementation of both sides
package events
