// Package models defines the wire types exchanged with the go-splitwise backend.
//
// # Ownership
//
// Every entity is owned by the backend. Values held by the client are transient
// fetch results: they are replaced wholesale after a known mutation and never
// merged field by field.
//
// # Money
//
// Amounts are integer currency units (rupees). Share amounts are signed:
//   - positive: the member is owed (credit)
//   - negative: the member owes (debit)
//
// # Identity
//
// Users, groups, expenses, transactions and memories are keyed by the integer
// ids the backend assigns. The client never generates ids.
package models
