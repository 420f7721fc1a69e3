// Package testutil holds assertions shared by package tests.
package testutil

import (
	"math"
	"testing"
)

// AssertClose fails the test when |got-want| > tol.
func AssertClose(t testing.TB, name string, got, want, tol float64) {
	t.Helper()
	if math.IsNaN(got) || math.Abs(got-want) > tol {
		t.Fatalf("%s: expected %.10f ± %g, got %.10f", name, want, tol, got)
	}
}

// AssertRelClose fails the test when got and want differ by more than tol
// relative to max(1, |want|), so values near zero are compared absolutely.
func AssertRelClose(t testing.TB, name string, got, want, tol float64) {
	t.Helper()
	scale := math.Max(1, math.Abs(want))
	if math.IsNaN(got) || math.Abs(got-want) > tol*scale {
		t.Fatalf("%s: expected %.10f within rel %g, got %.10f", name, want, tol, got)
	}
}
