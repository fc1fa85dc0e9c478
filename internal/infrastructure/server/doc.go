// Package server assembles the playground: storage behind a circuit
// breaker, the headless sandbox pool, the playground controller and the gin
// router with its middleware, HTTP handlers and WebSocket bridge.
package server
