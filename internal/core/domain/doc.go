// Package domain contains the core business entities and rules.
// This package has no dependencies on other packages in the application,
// following hexagonal architecture principles.
package domain
