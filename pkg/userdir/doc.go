// Package userdir is a client for the auth service's internal user
// directory.
//
// Billing tolerates directory outages: lookups that fail return a zero
// User instead of an error so payment processing never stalls on an
// auth service hiccup, at the cost of losing email and org attribution
// for that one operation.
package userdir
