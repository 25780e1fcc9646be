// Package httpserver runs the billing API's HTTP listener. It owns
// the parts every deployment needs and nothing the handlers care
// about: env-driven timeouts, SIGTERM-aware graceful shutdown, start
// and stop hooks for lifecycle logging, and a health endpoint that
// doubles as liveness and readiness depending on whether dependency
// checks are wired in.
package httpserver
