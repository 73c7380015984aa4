// Package services contains the core business logic implementations.
// Services implement the driving port interfaces and depend only on
// domain types and driven port interfaces.
package services
