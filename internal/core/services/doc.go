// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Services never import adapters; stores, model backends and extractors
// are injected through the driven ports.
package services
