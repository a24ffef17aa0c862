package templates

import (
	"time"
)

type Option func(*EmailData)

func WithIP(ip string) Option        { return func(d *EmailData) { d.IP = ip } }
func WithUserAgent(ua string) Option { return func(d *EmailData) { d.UserAgent = ua } }
func WithTime(t time.Time) Option {
	return func(d *EmailData) { d.Time = t.UTC().Format("02 January 2006, 15:04") }
}

// NewEmailData builds the per-recipient part of the data. Branding is added by the worker.
func NewEmailData(name, email string, opts ...Option) EmailData {
	d := EmailData{Name: name, Email: email}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// Branded returns d with the branding fields filled unless the publisher already set them.
func (d EmailData) Branded(appName, supportURL string) EmailData {
	if d.AppName == "" {
		d.AppName = appName
	}
	if d.SupportURL == "" {
		d.SupportURL = supportURL
	}
	return d
}
