// Package webhook receives WooCommerce order webhooks and sells each line
// item from the default warehouse.
package webhook
