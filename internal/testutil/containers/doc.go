// Package containers provides testcontainer management for integration tests.
//
// It starts throwaway Docker containers for the external systems the engine
// talks to: a MySQL database and an Eclipse Mosquitto MQTT broker. Containers
// are typically started once per package from TestMain and terminated after
// m.Run().
//
// Integration tests using this package carry the "integration" build tag and
// run with:
//
//	go test -tags=integration ./...
package containers
