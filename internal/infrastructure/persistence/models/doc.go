// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Key Principles:
// 1. Domain entities carry no GORM tags
// 2. Persistence models own table names, column types and constraints
// 3. ToDomain / FromDomain mappers convert between the two
// 4. Repositories read and write models only
//
// Structure:
// - base.go: shared embedded fields (BaseModel, AggregateModel, TenantAggregateModel)
// - identity.go: tenants
// - purchasing.go: purchase orders, line items, status history and attachments
package models
