// Package store keeps the user's profile and medication records in an
// embedded BadgerDB and lets callers observe a collection live.
//
// Every failure of the database is reported as ErrStore so that callers can
// show a transient notice without knowing the driver.
package store
