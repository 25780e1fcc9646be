// Package usage records metered resource consumption and reports
// current-month totals against plan limits.
package usage
