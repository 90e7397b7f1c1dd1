// Package models contains GORM persistence models. They are kept apart from
// the domain types so the domain layer stays free of ORM tags; each model
// carries its own mappers to and from the domain.
package models
