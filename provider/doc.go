// Package provider defines the base contract AI backends implement and a
// generic registry that resolves a provider identifier to a concrete,
// cached instance.
package provider
