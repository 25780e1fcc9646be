// Package ratelimit throttles billing API traffic per billing identity.
//
// Admission uses a sliding window over request timestamps, so a burst
// straddling a boundary cannot double the effective limit the way a
// fixed counter would. Storage sits behind a small interface; the
// in-memory store matches how billingd deploys today, a single
// instance per environment.
package ratelimit
