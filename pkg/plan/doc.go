// Package plan is the read-mostly catalog of subscription plans.
//
// A plan maps a tier (FREE, PRO, ENTERPRISE) to its price, billing
// interval, monthly credit allotment, seat limit, and per-resource usage
// limits. Plans are loaded once at startup from a Source; the catalog
// never mutates them afterwards.
package plan
