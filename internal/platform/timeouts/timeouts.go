// Package timeouts defines shared timeout constants used across commands.
package timeouts

import "time"

// GRPCDial caps the wait time when dialing the health endpoint.
const GRPCDial = 2 * time.Second

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long servers wait for in-flight work during graceful
// shutdown.
const Shutdown = 5 * time.Second

// PaymentRequest caps a single call to the hosted payment provider.
const PaymentRequest = 15 * time.Second

// MailSend caps a single SMTP delivery attempt.
const MailSend = 30 * time.Second
