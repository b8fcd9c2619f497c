// Package alert evaluates stored price alerts against live prices.
//
// Every cycle takes a snapshot of all alerts, asks the price oracle for each
// alert's market symbol and fires the alert when the price is at or above
// its target. Firing sends one notification to the owner and then deletes
// the alert, whether or not the notification was delivered.
//
// Delivery is at most once. Deleting after a failed send means a user can
// silently miss an alert, but a price that stays above the target never
// produces a notification per cycle. If the process dies between sending
// and deleting, the alert fires once more on the next cycle. Moving to
// at-least-once would mean deleting only after confirmed delivery and
// deduplicating by alert id on the receiving side.
package alert
