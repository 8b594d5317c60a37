// Package testutil holds helpers shared by package tests: running the
// bench to a finished report and capturing logs.
package testutil
