// Package notifier announces entrant list changes.
//
// A dry-run notifier prints the message that would be sent; the Twitter
// notifier posts it using OAuth1 user credentials.
package notifier
