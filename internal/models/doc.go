// Package models defines the core domain models for roomies.
//
// A Household is a set of roommates identified by name. Each household
// owns a list of shared Expenses; an expense has one payer and a list of
// roommates who split its cost equally with the payer.
//
// Models carry no behaviour beyond small helpers. Balance arithmetic lives
// in the calculator package, persistence in storage.
package models
