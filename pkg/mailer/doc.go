// Package mailer delivers transactional email through Postmark, with a
// development sender that logs instead of sending.
//
// Message builders for the auth flows (one-time codes, verification links)
// live alongside the transport so every service sends consistently branded
// messages. Code emails never appear in logs; the development sender records
// only recipient and subject.
package mailer
