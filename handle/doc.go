// Package handle is the near side model of values that live in the far side
// store.
//
// A Handle owns one reference and releases it at most once. Clone asks the
// far side for a second, independent reference instead of aliasing the word.
// Typed projections check the Kind first and fail with NullValue,
// TypeMismatch or Encoding errors from package errors; a failure sentinel
// returned by a boundary call surfaces as a Protocol error from Wrap.
//
// Object and Array are views over a Handle. Setters consume the Handle they
// are given; getters return Handles the caller owns.
package handle
