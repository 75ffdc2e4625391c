// Package infra contains technical adapters such as the in-memory store,
// geocoders, MQTT notifications and metrics exporters. These packages should
// depend only on the interfaces defined in the core packages.
package infra
