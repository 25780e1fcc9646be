// Package invoice mirrors provider invoices locally so other services
// and UIs can list billing history without calling the provider.
//
// Rows are written when a paid invoice event arrives and are read-only
// afterwards.
package invoice
